// internal/ui/styles.go

package ui

import (
	"fmt"
	"strconv"
	"strings"

	"sshProfiles/internal/algorithms"
	"sshProfiles/internal/endpoint"
	"sshProfiles/internal/models"
	"sshProfiles/internal/profiles"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Kolory
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	errColor  = lipgloss.AdaptiveColor{Light: "#FF0000", Dark: "#FF0000"}

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(highlight)

	ItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	// Algorytmy włączone domyślnie
	EnabledStyle = lipgloss.NewStyle().
			Foreground(special)

	DescriptionStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243"))

	InputStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(highlight).
			Padding(0, 1)

	ButtonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(errColor).
			Bold(true)

	WindowStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(highlight).
			Padding(1, 2)

	HeaderStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(subtle).
			Bold(true)
)

// GetMaxWidth zwraca maksymalną szerokość tekstu w slice'u
func GetMaxWidth(items []string) int {
	maxWidth := 0
	for _, item := range items {
		if w := lipgloss.Width(item); w > maxWidth {
			maxWidth = w
		}
	}
	return maxWidth
}

// RenderCatalog lists every supported algorithm per category, marking the
// ones enabled by default with "*".
func RenderCatalog(r algorithms.Resolved) string {
	var sections []string
	for _, cat := range algorithms.Categories() {
		enabled := make(map[string]bool, len(r.EnabledByDefault[cat]))
		for _, name := range r.EnabledByDefault[cat] {
			enabled[name] = true
		}

		var b strings.Builder
		b.WriteString(HeaderStyle.Render(fmt.Sprintf("%s (%s)", cat.Title(), cat)))
		b.WriteString("\n")
		if len(r.Supported[cat]) == 0 {
			b.WriteString(ErrorStyle.Render("  no usable algorithm"))
			b.WriteString("\n")
		}
		for _, name := range r.Supported[cat] {
			if enabled[name] {
				b.WriteString(EnabledStyle.Render("* " + name))
			} else {
				b.WriteString(ItemStyle.Render("  " + name))
			}
			b.WriteString("\n")
		}
		sections = append(sections, b.String())
	}
	return strings.Join(sections, "\n")
}

// RenderEndpoint shows how a quick-connect query was understood.
func RenderEndpoint(ep endpoint.Endpoint) string {
	port := strconv.Itoa(ep.Port)
	if ep.Port == 0 {
		port = ErrorStyle.Render("invalid")
	}
	lines := []string{
		DescriptionStyle.Render("user: ") + ep.User,
		DescriptionStyle.Render("host: ") + ep.Host,
		DescriptionStyle.Render("port: ") + port,
	}
	return strings.Join(lines, "\n")
}

// RenderProfiles renders one line per profile: name and description.
func RenderProfiles(list []models.Profile) string {
	if len(list) == 0 {
		return DescriptionStyle.Render("no profiles")
	}
	names := make([]string, len(list))
	for i, p := range list {
		names[i] = p.Name
	}
	width := GetMaxWidth(names)

	var b strings.Builder
	for i, p := range list {
		b.WriteString(TitleStyle.Render(names[i] + strings.Repeat(" ", width-lipgloss.Width(names[i]))))
		b.WriteString("  ")
		b.WriteString(DescriptionStyle.Render(profiles.Describe(p)))
		b.WriteString("\n")
	}
	return b.String()
}

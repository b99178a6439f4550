package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

var helpTitles = []string{"Tabs", "Navigation", "Analysis", "", "General"}

// renderHelp renders the help overlay.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Keyboard Shortcuts"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 36)))
	b.WriteString("\n")

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Warning)).
		Width(14)

	for i, group := range m.keys.FullHelp() {
		title := ""
		if i < len(helpTitles) {
			title = helpTitles[i]
		}
		if title != "" {
			b.WriteString("\n")
			b.WriteString(styles.AccentText.Bold(true).Render(title))
			b.WriteString("\n")
		}
		for _, binding := range group {
			writeBinding(&b, keyStyle, styles, binding)
		}
	}

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2).
		Width(46)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(strings.TrimRight(b.String(), "\n")),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
	)
}

func writeBinding(b *strings.Builder, keyStyle lipgloss.Style, styles Styles, binding key.Binding) {
	h := binding.Help()
	if h.Key == "" {
		return
	}
	b.WriteString(keyStyle.Render(h.Key))
	b.WriteString(styles.Text.Render(h.Desc))
	b.WriteString("\n")
}

// renderShortHelp renders the footer hint line.
func (m Model) renderShortHelp() string {
	h := m.help
	h.Width = m.width
	return h.View(m.keys)
}

package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wdkclient/stepanalysis/internal/analysis"
	"github.com/wdkclient/stepanalysis/internal/plugin"
	"github.com/wdkclient/stepanalysis/internal/wdk"
)

// renderTabs renders the tab strip. Titles are truncated to keep the strip
// on one line where possible.
func (m Model) renderTabs() string {
	styles := m.theme.Styles()
	reg := m.snapshot.Registry
	if len(reg.Order) == 0 {
		return styles.Footer.Width(m.width).Render(styles.MutedText.Render("No analyses yet. Press n to add one."))
	}

	tabs := make([]string, 0, len(reg.Order))
	for _, id := range reg.Order {
		p, ok := reg.Panel(id)
		if !ok {
			continue
		}
		title := truncate(tabTitle(p), 24)
		if id == reg.ActiveTab {
			tabs = append(tabs, styles.ActiveTab.Render(title))
		} else {
			tabs = append(tabs, styles.Tab.Render(title))
		}
	}
	return lipgloss.NewStyle().MaxWidth(max(m.width, 1)).Render(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
}

func tabTitle(p analysis.Panel) string {
	title := strings.TrimSpace(p.Title())
	if title == "" {
		title = "Untitled"
	}
	if s, ok := p.(*analysis.SavedPanel); ok && s.Running() {
		title += " …"
	}
	return title
}

// renderPanel renders the body of the active panel.
func (m Model) renderPanel() string {
	_, p, ok := m.snapshot.Registry.Active()
	if !ok {
		if m.snapshot.Registry.Len() == 0 {
			return m.theme.Styles().MutedText.Render("This step has no analyses. Press n to choose one.")
		}
		return ""
	}
	switch p := p.(type) {
	case *analysis.UninitializedPanel:
		return m.renderUninitialized(p)
	case *analysis.MenuPanel:
		return m.renderMenu(p)
	case *analysis.UnsavedPanel:
		return m.renderUnsaved(p)
	case *analysis.SavedPanel:
		return m.renderSaved(p)
	}
	return ""
}

func (m Model) renderUninitialized(p *analysis.UninitializedPanel) string {
	styles := m.theme.Styles()
	lines := []string{
		styles.Text.Bold(true).Render(p.DisplayName) + " " + styles.StatusStyle(string(p.RunStatus)).Render(string(p.RunStatus)),
		"",
	}
	switch p.Status {
	case analysis.LoadError:
		lines = append(lines, styles.DangerText.Render(p.ErrorMessage))
	default:
		lines = append(lines, styles.MutedText.Render("Loading analysis…"))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderMenu(p *analysis.MenuPanel) string {
	styles := m.theme.Styles()
	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render(p.Title()))
	b.WriteString("\n\n")

	if p.ErrorMessage != "" {
		b.WriteString(styles.DangerText.Render(p.ErrorMessage))
		b.WriteString("\n\n")
	}
	if p.Loading {
		b.WriteString(styles.MutedText.Render("Loading your chosen analysis…"))
		return b.String()
	}

	choices := m.snapshot.Registry.Choices
	if len(choices) == 0 {
		b.WriteString(styles.MutedText.Render("No analyses are available for this step."))
		return b.String()
	}
	cursor := clampCursor(m.menuCursor, len(choices))
	for i, choice := range choices {
		line := choice.DisplayName
		if choice.ShortDescription != "" {
			line += styles.FaintText.Render("  " + choice.ShortDescription)
		}
		if i == cursor {
			b.WriteString(styles.Selected.Render("▶ " + choice.DisplayName))
			if choice.ShortDescription != "" {
				b.WriteString(styles.FaintText.Render("  " + choice.ShortDescription))
			}
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	if p.PanelUI.DescriptionExpanded {
		if desc := strings.TrimSpace(choices[cursor].Description); desc != "" {
			b.WriteString("\n")
			b.WriteString(styles.MutedText.Render(desc))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderUnsaved(p *analysis.UnsavedPanel) string {
	styles := m.theme.Styles()
	var sections []string

	header := styles.Text.Bold(true).Render(p.DisplayName) + " " + styles.StatusStyle("CREATED").Render("DRAFT")
	sections = append(sections, header)

	if p.AnalysisType != nil {
		if desc := m.description(p.PanelUI, p.AnalysisType.ShortDescription, p.AnalysisType.Description); desc != "" {
			sections = append(sections, desc)
		}
	} else {
		sections = append(sections, styles.WarningText.Render(fmt.Sprintf("Analysis type '%s' is not available for this step.", p.AnalysisName)))
	}

	sections = append(sections, m.renderForm(p.PanelUI, p.TypeName(), plugin.FormProps{
		HasParameters: p.HasParameters(),
		ParamSpecs:    p.ParamSpecs,
		ParamValues:   p.ParamValues,
		UIState:       p.FormUIState,
		Errors:        formErrors(p.FormErrorMessage, p.FormValidationErrors),
	}, p.FormStatus))

	return strings.Join(sections, "\n\n")
}

func (m Model) renderSaved(p *analysis.SavedPanel) string {
	styles := m.theme.Styles()
	cfg := p.AnalysisConfig
	var sections []string

	header := styles.Text.Bold(true).Render(cfg.DisplayName) + " " + styles.StatusStyle(string(cfg.Status)).Render(string(cfg.Status))
	sections = append(sections, header)
	if desc := m.description(p.PanelUI, cfg.ShortDescription, cfg.Description); desc != "" {
		sections = append(sections, desc)
	}

	sections = append(sections, m.renderForm(p.PanelUI, cfg.AnalysisName, plugin.FormProps{
		HasParameters: len(p.ParamSpecs) > 0,
		ParamSpecs:    p.ParamSpecs,
		ParamValues:   p.ParamValues,
		UIState:       p.FormUIState,
		Errors:        formErrors(p.FormErrorMessage, p.FormValidationErrors),
	}, p.FormStatus))

	sections = append(sections, m.renderResult(p))
	return strings.Join(sections, "\n\n")
}

func (m Model) description(ui analysis.PanelUIState, short, long string) string {
	styles := m.theme.Styles()
	if ui.DescriptionExpanded && strings.TrimSpace(long) != "" {
		return styles.MutedText.Render(long)
	}
	if short = strings.TrimSpace(short); short != "" {
		return styles.MutedText.Render(short) + styles.FaintText.Render("  (D: more)")
	}
	return ""
}

func (m Model) renderForm(ui analysis.PanelUIState, typeName string, props plugin.FormProps, status analysis.FormStatus) string {
	styles := m.theme.Styles()
	title := styles.AccentText.Bold(true).Render("Parameters")
	if !ui.FormExpanded {
		return title + styles.FaintText.Render("  (hidden, f to show)")
	}
	body := m.plugins.LocateForm(typeName).Render(props)
	if status == analysis.FormSubmitting {
		body += "\n" + styles.WarningText.Render("Submitting…")
	}
	return title + "\n" + body
}

func (m Model) renderResult(p *analysis.SavedPanel) string {
	styles := m.theme.Styles()
	title := styles.AccentText.Bold(true).Render("Results")

	switch p.ConfigStatus {
	case analysis.ConfigError:
		return title + "\n" + styles.DangerText.Render(p.ResultErrorMessage)
	case analysis.ConfigLoading:
		return title + "\n" + styles.WarningText.Render(fmt.Sprintf("Running… next check in %d", max(p.PollCountdown, 0)))
	}

	switch p.AnalysisConfig.Status {
	case wdk.StatusCreated:
		return title + "\n" + styles.MutedText.Render("Run the analysis to see results.")
	case wdk.StatusError:
		return title + "\n" + styles.DangerText.Render("The analysis failed. Adjust the parameters and try again.")
	case wdk.StatusPending, wdk.StatusRunning:
		return title + "\n" + styles.WarningText.Render("Running…")
	}

	body, err := m.plugins.LocateResult(p.AnalysisConfig.AnalysisName).Render(plugin.ResultProps{
		Config:  p.AnalysisConfig,
		Result:  p.ResultContents,
		UIState: p.ResultUIState,
	})
	if err != nil {
		return title + "\n" + styles.DangerText.Render(err.Error())
	}
	if strings.TrimSpace(body) == "" {
		return title + "\n" + styles.MutedText.Render("No results.")
	}
	return title + "\n" + body
}

func formErrors(message string, validation []string) []string {
	var errs []string
	if message != "" {
		errs = append(errs, message)
	}
	return append(errs, validation...)
}

func clampCursor(cursor, n int) int {
	if n == 0 || cursor < 0 {
		return 0
	}
	if cursor >= n {
		return n - 1
	}
	return cursor
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 1 {
		return string(r[:width])
	}
	return string(r[:width-1]) + "…"
}

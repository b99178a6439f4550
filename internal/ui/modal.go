package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wdkclient/stepanalysis/internal/analysis"
	"github.com/wdkclient/stepanalysis/internal/plugin"
	"github.com/wdkclient/stepanalysis/internal/wdk"
)

// Modal is the interface for modal dialogs.
// The Update method returns the updated modal, a command, and a bool indicating if the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

func placeModal(theme Theme, width, height int, content string) string {
	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		theme.Styles().Modal.Width(min(60, max(width-4, 20))).Render(content),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}

// promptModal answers a confirm or alert request from the state machine.
type promptModal struct {
	prompt promptMsg
}

func (p promptModal) answer(ok bool) {
	select {
	case p.prompt.reply <- ok:
	default:
	}
}

func (p promptModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	km, isKey := msg.(tea.KeyMsg)
	if !isKey {
		return p, nil, false
	}
	if !p.prompt.confirm {
		p.answer(true)
		return p, nil, true
	}
	switch {
	case key.Matches(km, keys.Accept):
		p.answer(true)
		return p, nil, true
	case key.Matches(km, keys.Reject):
		p.answer(false)
		return p, nil, true
	}
	return p, nil, false
}

func (p promptModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	var b strings.Builder
	if p.prompt.confirm {
		b.WriteString(styles.WarningText.Bold(true).Render("Confirm"))
	} else {
		b.WriteString(styles.DangerText.Render("Error"))
	}
	b.WriteString("\n\n")
	b.WriteString(styles.Text.Render(p.prompt.text))
	b.WriteString("\n\n")
	if p.prompt.confirm {
		b.WriteString(styles.MutedText.Render("y: yes   n/esc: no"))
	} else {
		b.WriteString(styles.MutedText.Render("Press any key to continue"))
	}
	return placeModal(theme, width, height, b.String())
}

// renameModal edits the display name of one panel.
type renameModal struct {
	panel analysis.PanelID
	input textinput.Model
}

func newRenameModal(id analysis.PanelID, current string) renameModal {
	in := textinput.New()
	in.Prompt = "> "
	in.CharLimit = 200
	in.SetValue(current)
	in.Focus()
	return renameModal{panel: id, input: in}
}

func (r renameModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(km, keys.Cancel):
			return r, nil, true
		case key.Matches(km, keys.Confirm):
			name := strings.TrimSpace(r.input.Value())
			if name == "" {
				return r, nil, false
			}
			return r, dispatch(analysis.RenameAnalysis{PanelID: r.panel, NewDisplayName: name}), true
		}
	}
	var cmd tea.Cmd
	r.input, cmd = r.input.Update(msg)
	return r, cmd, false
}

func (r renameModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.AccentText.Bold(true).Render("Rename analysis"),
		"",
		r.input.View(),
		"",
		styles.MutedText.Render("enter: save   esc: cancel"),
	)
	return placeModal(theme, width, height, content)
}

// paramsModal edits the visible parameters of a draft or saved analysis.
type paramsModal struct {
	panel  analysis.PanelID
	specs  []wdk.ParamSpec
	values map[string][]string
	inputs []textinput.Model
	focus  int
}

func newParamsModal(id analysis.PanelID, specs []wdk.ParamSpec, values map[string][]string) paramsModal {
	m := paramsModal{panel: id, values: values}
	for _, spec := range specs {
		if !spec.Visible() {
			continue
		}
		in := textinput.New()
		in.Prompt = "  "
		in.CharLimit = 1000
		in.SetValue(plugin.NormalizeParamValue(values[spec.Name]))
		m.specs = append(m.specs, spec)
		m.inputs = append(m.inputs, in)
	}
	if len(m.inputs) > 0 {
		m.inputs[0].Focus()
	}
	return m
}

func (p paramsModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(km, keys.Cancel):
			return p, nil, true
		case key.Matches(km, keys.Confirm):
			return p, dispatch(analysis.UpdateParamValues{PanelID: p.panel, Values: p.collect()}), true
		case key.Matches(km, keys.NextField):
			p.moveFocus(1)
			return p, nil, false
		case key.Matches(km, keys.PrevField):
			p.moveFocus(-1)
			return p, nil, false
		}
	}
	if len(p.inputs) == 0 {
		return p, nil, false
	}
	var cmd tea.Cmd
	p.inputs[p.focus], cmd = p.inputs[p.focus].Update(msg)
	return p, cmd, false
}

func (p *paramsModal) moveFocus(delta int) {
	if len(p.inputs) == 0 {
		return
	}
	p.inputs[p.focus].Blur()
	p.focus = (p.focus + delta + len(p.inputs)) % len(p.inputs)
	p.inputs[p.focus].Focus()
}

func (p paramsModal) collect() map[string][]string {
	values := plugin.CloneParamValues(p.values)
	if values == nil {
		values = map[string][]string{}
	}
	for i, spec := range p.specs {
		values[spec.Name] = plugin.DenormalizeParamValue(spec, p.inputs[i].Value())
	}
	return values
}

func (p paramsModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render("Parameters"))
	b.WriteString("\n")
	if len(p.inputs) == 0 {
		b.WriteString("\n")
		b.WriteString(styles.MutedText.Render(plugin.NoParametersMessage))
	}
	for i, spec := range p.specs {
		label := spec.DisplayName
		if label == "" {
			label = spec.Name
		}
		if spec.AllowMultipleValues {
			label = fmt.Sprintf("%s (comma separated)", label)
		}
		b.WriteString("\n")
		if i == p.focus {
			b.WriteString(styles.AccentText.Render(label))
		} else {
			b.WriteString(styles.Text.Render(label))
		}
		b.WriteString("\n")
		b.WriteString(p.inputs[i].View())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render("tab: next field   enter: apply   esc: cancel"))
	return placeModal(theme, width, height, b.String())
}

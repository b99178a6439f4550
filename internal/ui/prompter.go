package ui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// promptMsg asks the model to show a confirm or alert dialog. The answer is
// sent on reply, which is buffered.
type promptMsg struct {
	text    string
	confirm bool
	reply   chan bool
}

// Prompter shows the state machine's confirmations and alerts as modals.
// It is safe for concurrent use. Until a program is attached, Confirm
// declines and Alert returns immediately.
type Prompter struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

// NewPrompter returns a detached Prompter.
func NewPrompter() *Prompter {
	return &Prompter{}
}

// Attach routes prompts to send, typically (*tea.Program).Send.
func (p *Prompter) Attach(send func(tea.Msg)) {
	p.mu.Lock()
	p.send = send
	p.mu.Unlock()
}

func (p *Prompter) sender() func(tea.Msg) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.send
}

// Confirm blocks until the user answers or ctx ends.
func (p *Prompter) Confirm(ctx context.Context, msg string) bool {
	ok, _ := p.ask(ctx, msg, true)
	return ok
}

// Alert blocks until the user dismisses msg or ctx ends.
func (p *Prompter) Alert(ctx context.Context, msg string) {
	_, _ = p.ask(ctx, msg, false)
}

func (p *Prompter) ask(ctx context.Context, text string, confirm bool) (bool, bool) {
	send := p.sender()
	if send == nil {
		return false, false
	}
	reply := make(chan bool, 1)
	send(promptMsg{text: text, confirm: confirm, reply: reply})
	select {
	case ok := <-reply:
		return ok, true
	case <-ctx.Done():
		return false, false
	}
}

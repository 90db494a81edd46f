package tui

import (
	"errors"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/sadopc/tasklog/internal/session"
)

var errInvalidID = errors.New("enter the id of a closed task, or q to cancel")

// promptModel asks for the free-text line a session mode expects
// (description, append text or task id).
type promptModel struct {
	mode  session.Mode
	form  *huh.Form
	value *string // survives value copies of the model
}

// promptResult is what the prompt produced after an update.
type promptResult int

const (
	promptPending promptResult = iota
	promptSubmitted
	promptInterrupted
)

func newPromptModel(s *session.Session, width int) promptModel {
	value := ""
	input := huh.NewInput().
		Title(s.Prompt()).
		Value(&value)

	if s.Mode().IDPrompt() {
		input = input.
			Placeholder("id or q").
			Validate(func(v string) error {
				if err := s.ValidateID(v); err != nil {
					return errInvalidID
				}
				return nil
			})
	}

	form := huh.NewForm(huh.NewGroup(input)).
		WithShowHelp(false).
		WithShowErrors(true)
	if width > 0 {
		form = form.WithWidth(width)
	}

	return promptModel{
		mode:  s.Mode(),
		form:  form,
		value: &value,
	}
}

func (p promptModel) Init() tea.Cmd {
	return p.form.Init()
}

func (p promptModel) update(msg tea.Msg) (promptModel, promptResult, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, keys.Cancel) {
		// Only an id prompt can be cancelled; the session treats q as abort.
		if p.mode.IDPrompt() {
			*p.value = session.AbortInput
			return p, promptSubmitted, nil
		}
		return p, promptPending, nil
	}

	form, cmd := p.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		p.form = f
	}

	switch p.form.State {
	case huh.StateCompleted:
		return p, promptSubmitted, nil
	case huh.StateAborted:
		return p, promptInterrupted, nil
	}
	return p, promptPending, cmd
}

func (p promptModel) result() string {
	return *p.value
}

func (p promptModel) view() string {
	return p.form.View()
}

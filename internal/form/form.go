// Package form is the interactive entry surface: a terminal form for
// submitting translation pairs through the record service.
package form

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ibonocollect/collect"
)

// Special characters used in Ibọnọ orthography that most keyboards
// cannot type directly. ctrl+1..4 inserts them into the focused field.
var specialCharacters = []string{"n̄", "ǝ", "ọ", "ị"}

const (
	fieldSource = iota
	fieldTarget
	fieldContext
	fieldCount
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	savedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	offlineBadge  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	onlineBadge   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	charRowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("99"))
)

type saveDoneMsg struct {
	result *collect.SaveResult
	err    error
}

// Model is the bubbletea model for the entry form.
type Model struct {
	service *collect.RecordService
	network collect.ConnectivitySource

	inputs  [fieldCount]textinput.Model
	focus   int
	saving  bool
	status  string
	isError bool

	// A source-only duplicate is a soft warning: the pending input is
	// kept and a second submit saves anyway.
	pendingForce bool

	quitting bool
}

// New creates the entry form over a record service.
func New(service *collect.RecordService, network collect.ConnectivitySource) Model {
	var inputs [fieldCount]textinput.Model

	source := textinput.New()
	source.Placeholder = "English phrase"
	source.Focus()
	source.Width = 50
	inputs[fieldSource] = source

	target := textinput.New()
	target.Placeholder = "Ibọnọ translation"
	target.Width = 50
	inputs[fieldTarget] = target

	contextIn := textinput.New()
	contextIn.Placeholder = "Context (optional)"
	contextIn.Width = 50
	inputs[fieldContext] = contextIn

	return Model{
		service: service,
		network: network,
		inputs:  inputs,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and updates model state
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case saveDoneMsg:
		m.saving = false
		return m.handleSaveDone(msg)

	case tea.KeyMsg:
		if m.saving {
			return m, nil
		}
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit

		case "enter":
			return m.submit()

		case "tab", "down":
			return m.focusField((m.focus + 1) % fieldCount)

		case "shift+tab", "up":
			return m.focusField((m.focus + fieldCount - 1) % fieldCount)

		case "ctrl+1", "ctrl+2", "ctrl+3", "ctrl+4":
			idx := int(msg.String()[5] - '1')
			return m.insertCharacter(specialCharacters[idx])
		}
	}

	before := m.inputs[m.focus].Value()
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	if m.inputs[m.focus].Value() != before {
		m.clearPendingForce()
	}
	return m, cmd
}

// clearPendingForce withdraws a standing "save anyway" offer. Edited
// input is new content and must go through its own duplicate check.
func (m *Model) clearPendingForce() {
	if !m.pendingForce {
		return
	}
	m.pendingForce = false
	m.status = ""
}

func (m Model) focusField(idx int) (tea.Model, tea.Cmd) {
	m.inputs[m.focus].Blur()
	m.focus = idx
	return m, m.inputs[m.focus].Focus()
}

func (m Model) insertCharacter(char string) (tea.Model, tea.Cmd) {
	in := &m.inputs[m.focus]
	in.SetValue(in.Value() + char)
	in.CursorEnd()
	m.clearPendingForce()
	return m, nil
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	input := collect.SaveInput{
		SourceText:           m.inputs[fieldSource].Value(),
		TargetText:           m.inputs[fieldTarget].Value(),
		Context:              m.inputs[fieldContext].Value(),
		AllowSourceDuplicate: m.pendingForce,
	}
	m.saving = true
	m.status = "Saving..."
	m.isError = false

	service := m.service
	return m, func() tea.Msg {
		result, err := service.Save(context.Background(), input)
		return saveDoneMsg{result: result, err: err}
	}
}

func (m Model) handleSaveDone(msg saveDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.isError = true
		m.pendingForce = false
		var verr *collect.ValidationError
		switch {
		case errors.As(msg.err, &verr):
			m.status = verr.Error()
		case errors.Is(msg.err, collect.ErrNotAuthenticated):
			m.status = "Sign in first: ibonocollect login"
		default:
			m.status = fmt.Sprintf("Save failed: %v", msg.err)
		}
		return m, nil
	}

	result := msg.result
	if result.IsDuplicate {
		m.isError = false
		if result.Match == collect.MatchExact {
			m.pendingForce = false
			m.status = fmt.Sprintf("Already collected: %q → %q",
				result.Existing.SourceText, result.Existing.TargetText)
		} else {
			// Keep the input; a second enter saves the new translation
			// alongside the existing one.
			m.pendingForce = true
			m.status = fmt.Sprintf("%q already has translation %q; press enter again to save anyway",
				result.Existing.SourceText, result.Existing.TargetText)
		}
		return m, nil
	}

	m.pendingForce = false
	if result.Record.Synced() {
		m.status = "Saved."
	} else {
		m.status = "Saved offline; will sync when connection returns."
	}
	for i := range m.inputs {
		m.inputs[i].SetValue("")
	}
	return m.focusField(fieldSource)
}

// View renders the form
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	badge := onlineBadge.Render("online")
	if !m.network.Online() {
		badge = offlineBadge.Render("offline")
	}
	b.WriteString(titleStyle.Render("New translation") + "  " + badge + "\n\n")

	labels := [fieldCount]string{"English", "Ibọnọ", "Context"}
	for i, in := range m.inputs {
		b.WriteString(labelStyle.Render(labels[i]) + "\n")
		b.WriteString(in.View() + "\n")
	}

	b.WriteString("\n" + charRowStyle.Render("ctrl+1..4 inserts: "+strings.Join(specialCharacters, "  ")) + "\n")

	if m.status != "" {
		style := savedStyle
		if m.isError {
			style = errStyle
		} else if m.pendingForce {
			style = warnStyle
		}
		b.WriteString("\n" + style.Render(m.status) + "\n")
	}

	b.WriteString("\n" + helpStyle.Render("enter save • tab next field • esc quit") + "\n")
	return b.String()
}

// Run starts the form and blocks until the user quits.
func Run(service *collect.RecordService, network collect.ConnectivitySource) error {
	_, err := tea.NewProgram(New(service, network)).Run()
	return err
}

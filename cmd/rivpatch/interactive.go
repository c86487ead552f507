package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/wippyai/riv-patcher/patcher"
	"github.com/wippyai/riv-patcher/riv"
)

type interactiveModel struct {
	err      error
	doc      *riv.Document
	patcher  *patcher.Patcher
	filename string
	output   string
	message  string
	data     []byte
	pending  []riv.InputSpec
	fields   []textinput.Model
	selected int
	focusIdx int
	state    modelState
}

type modelState int

const (
	stateBrowse modelState = iota
	stateAddInput
	stateShowResult
)

// Form fields of the add-input view.
const (
	fieldName = iota
	fieldKind
	fieldMin
	fieldMax
	fieldDefault
	numFields
)

func newInteractiveModel(filename, output string) *interactiveModel {
	if output == "" {
		output = filename
	}
	return &interactiveModel{
		filename: filename,
		output:   output,
		patcher:  patcher.NewWithDefaults(),
		state:    stateBrowse,
	}
}

type loadedMsg struct {
	err  error
	doc  *riv.Document
	data []byte
}

type savedMsg struct {
	err   error
	count int
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.loadFile
}

func (m *interactiveModel) loadFile() tea.Msg {
	data, err := os.ReadFile(m.filename)
	if err != nil {
		return loadedMsg{err: err}
	}
	doc, err := riv.Inspect(data)
	if err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{data: data, doc: doc}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.state != stateAddInput {
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateBrowse && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateBrowse && m.doc != nil && m.selected < len(m.doc.Inputs())-1 {
				m.selected++
			}

		case "a":
			if m.state == stateBrowse && m.doc != nil {
				m.prepareFields()
				m.state = stateAddInput
				return m, textinput.Blink
			}

		case "w":
			if m.state == stateBrowse && len(m.pending) > 0 {
				return m, m.save
			}

		case "enter":
			switch m.state {
			case stateAddInput:
				m.addInput()
				m.state = stateShowResult
				return m, nil

			case stateShowResult:
				m.state = stateBrowse
				m.message = ""
				m.err = nil
			}

		case "tab", "shift+tab":
			if m.state == stateAddInput {
				m.fields[m.focusIdx].Blur()
				step := 1
				if msg.String() == "shift+tab" {
					step = numFields - 1
				}
				m.focusIdx = (m.focusIdx + step) % numFields
				m.fields[m.focusIdx].Focus()
				return m, nil
			}

		case "esc":
			switch m.state {
			case stateAddInput:
				m.state = stateBrowse
				m.fields = nil
			case stateShowResult:
				m.state = stateBrowse
				m.message = ""
				m.err = nil
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.data = msg.data
		m.doc = msg.doc

	case savedMsg:
		m.err = msg.err
		if msg.err == nil {
			m.message = fmt.Sprintf("Saved %d inputs to %s", msg.count, m.output)
			m.pending = nil
		}
		m.state = stateShowResult
	}

	if m.state == stateAddInput {
		var cmd tea.Cmd
		m.fields[m.focusIdx], cmd = m.fields[m.focusIdx].Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *interactiveModel) prepareFields() {
	labels := [numFields]struct{ prompt, placeholder string }{
		fieldName:    {"name: ", "input name"},
		fieldKind:    {"kind: ", "number | boolean | trigger"},
		fieldMin:     {"min: ", "0"},
		fieldMax:     {"max: ", "0"},
		fieldDefault: {"default: ", "min"},
	}
	m.fields = make([]textinput.Model, numFields)
	for i, l := range labels {
		ti := textinput.New()
		ti.Prompt = l.prompt
		ti.Placeholder = l.placeholder
		ti.Width = 40
		if i == fieldName {
			ti.Focus()
		}
		m.fields[i] = ti
	}
	m.fields[fieldKind].SetValue("number")
	m.focusIdx = fieldName
}

// addInput patches the in-memory copy. The file is only written on save.
func (m *interactiveModel) addInput() {
	spec, err := specFromFields(
		m.fields[fieldName].Value(),
		m.fields[fieldKind].Value(),
		m.fields[fieldMin].Value(),
		m.fields[fieldMax].Value(),
		m.fields[fieldDefault].Value(),
	)
	if err != nil {
		m.err = err
		return
	}
	data, err := riv.Patch(m.data, spec)
	if err != nil {
		m.err = err
		return
	}
	doc, err := riv.Inspect(data)
	if err != nil {
		m.err = err
		return
	}
	m.data, m.doc = data, doc
	m.pending = append(m.pending, spec)
	m.message = fmt.Sprintf("Added %s input %q (unsaved, press w to write)", spec.Kind, spec.Name)
	m.fields = nil
}

func (m *interactiveModel) save() tea.Msg {
	err := m.patcher.PatchFileTo(m.filename, m.output, m.pending...)
	return savedMsg{err: err, count: len(m.pending)}
}

func specFromFields(name, kind, minStr, maxStr, defStr string) (riv.InputSpec, error) {
	parse := func(field, s string) (float64, error) {
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", field, err)
		}
		return v, nil
	}

	min, err := parse("min", minStr)
	if err != nil {
		return riv.InputSpec{}, err
	}
	max, err := parse("max", maxStr)
	if err != nil {
		return riv.InputSpec{}, err
	}
	def, err := parse("default", defStr)
	if err != nil {
		return riv.InputSpec{}, err
	}
	return specFromFlags(strings.TrimSpace(name), kind, min, max, def, strings.TrimSpace(defStr) != "")
}

func (m *interactiveModel) View() string {
	if m.err != nil && m.state != stateShowResult {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if m.doc == nil {
		return "Loading file..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("RIV Patcher"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	if len(m.pending) > 0 {
		b.WriteString(helpStyle.Render(fmt.Sprintf(" (%d unsaved)", len(m.pending))))
	}
	b.WriteString("\n\n")

	switch m.state {
	case stateBrowse:
		fmt.Fprintf(&b, "%d sections, %d state machines, %d bytes\n\n",
			len(m.doc.Sections), len(m.doc.StateMachines()), m.doc.Size)

		inputs := m.doc.Inputs()
		if len(inputs) == 0 {
			b.WriteString("No inputs yet.\n")
		}
		for i, in := range inputs {
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + in.Name))
				b.WriteString(" " + kindStyle.Render(in.Kind.String()))
			} else {
				b.WriteString("  " + formatInput(in))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • a add input • w write • q quit"))

	case stateAddInput:
		b.WriteString("Add input\n\n")
		for _, f := range m.fields {
			b.WriteString(f.View())
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter add • esc back"))

	case stateShowResult:
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.message))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

// runInteractive starts the TUI, or prints the inspect view when stdout is
// not a terminal.
func runInteractive(filename, output string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return runInspect(filename)
	}
	p := tea.NewProgram(newInteractiveModel(filename, output), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

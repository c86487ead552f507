package main

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/wippyai/riv-patcher/errors"
	"github.com/wippyai/riv-patcher/riv"
)

func testContainer(t *testing.T) []byte {
	t.Helper()
	data, err := riv.Assemble(1,
		riv.SectionData{Tag: riv.SectionArtboard, Body: []byte{1}},
		riv.SectionData{Tag: riv.SectionStateMachine, Body: riv.StateMachineBody(riv.StateMachineRecord("Main"))},
	)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestSpecFromFlags(t *testing.T) {
	spec, err := specFromFlags("speed", "number", 1, 10, 0, false)
	if err != nil {
		t.Fatal(err)
	}
	if spec.Default != 1 {
		t.Errorf("Default = %v, want min", spec.Default)
	}

	spec, err = specFromFlags("speed", "number", 1, 10, 4, true)
	if err != nil || spec.Default != 4 {
		t.Errorf("spec = %+v, %v", spec, err)
	}

	if _, err := specFromFlags("x", "slider", 0, 0, 0, false); !stderrors.Is(err, errors.ErrInvalidInputKind) {
		t.Errorf("bad kind: %v", err)
	}
	if _, err := specFromFlags("x", "number", 0, 10, 11, true); !stderrors.Is(err, errors.ErrInvalidBounds) {
		t.Errorf("default outside bounds: %v", err)
	}
}

func TestSpecFromFields(t *testing.T) {
	tests := []struct {
		name    string
		fields  [5]string
		want    riv.InputSpec
		wantErr bool
	}{
		{
			name:   "trigger",
			fields: [5]string{" fire ", "trigger", "", "", ""},
			want:   riv.InputSpec{Name: "fire", Kind: riv.InputTrigger},
		},
		{
			name:   "number with default",
			fields: [5]string{"level", "number", "0", "5", "2.5"},
			want:   riv.InputSpec{Name: "level", Kind: riv.InputNumber, Max: 5, Default: 2.5},
		},
		{
			name:   "number default is min",
			fields: [5]string{"level", "Number", "1", "5", ""},
			want:   riv.InputSpec{Name: "level", Kind: riv.InputNumber, Min: 1, Max: 5, Default: 1},
		},
		{name: "bad number", fields: [5]string{"level", "number", "abc", "", ""}, wantErr: true},
		{name: "empty name", fields: [5]string{"", "bool", "", "", ""}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := specFromFields(tt.fields[0], tt.fields[1], tt.fields[2], tt.fields[3], tt.fields[4])
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("spec = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRenderDocument(t *testing.T) {
	data, err := riv.Patch(testContainer(t), riv.NewInput("hover", riv.InputBoolean, 0, 0))
	if err != nil {
		t.Fatal(err)
	}
	doc, err := riv.Inspect(data)
	if err != nil {
		t.Fatal(err)
	}
	out := renderDocument("a.riv", doc)
	for _, want := range []string{"a.riv", "Sections (2)", "artboard", "state_machine", "Inputs (1)", "hover", "boolean"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunPatch(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.riv")
	if err := os.WriteFile(src, testContainer(t), 0o644); err != nil {
		t.Fatal(err)
	}
	dst := filepath.Join(dir, "b.riv")
	if err := runPatch(src, dst, riv.NewInput("go", riv.InputTrigger, 0, 0)); err != nil {
		t.Fatalf("runPatch: %v", err)
	}
	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	doc, err := riv.Inspect(data)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := doc.FindInput("go"); !ok {
		t.Error("input missing from output")
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func TestInteractiveAddAndSave(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.riv")
	if err := os.WriteFile(src, testContainer(t), 0o644); err != nil {
		t.Fatal(err)
	}
	dst := filepath.Join(dir, "out.riv")

	m := newInteractiveModel(src, dst)
	m.Update(m.loadFile())
	if m.doc == nil {
		t.Fatalf("file not loaded: %v", m.err)
	}

	m.Update(key("a"))
	if m.state != stateAddInput {
		t.Fatalf("state = %v, want add", m.state)
	}
	m.fields[fieldName].SetValue("pressed")
	m.fields[fieldKind].SetValue("boolean")
	m.Update(key("enter"))
	if m.err != nil {
		t.Fatalf("add: %v", m.err)
	}
	if len(m.pending) != 1 || len(m.doc.Inputs()) != 1 {
		t.Fatalf("pending = %d, inputs = %d", len(m.pending), len(m.doc.Inputs()))
	}
	if !strings.Contains(m.View(), "pressed") {
		t.Error("view does not show the new input")
	}

	m.Update(key("enter"))
	_, cmd := m.Update(key("w"))
	if cmd == nil {
		t.Fatal("w did not start a save")
	}
	m.Update(cmd())
	if m.err != nil {
		t.Fatalf("save: %v", m.err)
	}
	if len(m.pending) != 0 {
		t.Error("pending not cleared after save")
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	doc, err := riv.Inspect(data)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := doc.FindInput("pressed"); !ok {
		t.Error("saved file missing the input")
	}
}

func TestInteractiveAddInvalid(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.riv")
	if err := os.WriteFile(src, testContainer(t), 0o644); err != nil {
		t.Fatal(err)
	}

	m := newInteractiveModel(src, "")
	m.Update(m.loadFile())
	m.Update(key("a"))
	m.Update(key("enter"))
	if !stderrors.Is(m.err, errors.ErrInvalidName) {
		t.Errorf("err = %v, want invalid name", m.err)
	}
	if len(m.pending) != 0 {
		t.Error("invalid input queued")
	}
	if !strings.Contains(m.View(), "Error") {
		t.Error("view does not show the error")
	}
}

func TestRunNew(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.riv")
	if err := runNew(path, "Idle"); err != nil {
		t.Fatalf("runNew: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	doc, err := riv.Inspect(data)
	if err != nil {
		t.Fatal(err)
	}
	sms := doc.StateMachines()
	if len(sms) != 1 {
		t.Fatalf("state machines = %+v, want 1", sms)
	}
	objs := doc.Objects[sms[0].Index]
	if len(objs) != 1 || objs[0].Name() != "Idle" {
		t.Errorf("objects = %+v, want one named Idle", objs)
	}

	if err := runNew(path, "Idle"); err == nil {
		t.Error("runNew overwrote an existing file")
	}
}

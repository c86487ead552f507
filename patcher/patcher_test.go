package patcher

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/riv-patcher/errors"
	"github.com/wippyai/riv-patcher/riv"
)

func testContainer(t *testing.T) []byte {
	t.Helper()
	data, err := riv.Assemble(1,
		riv.SectionData{Tag: riv.SectionArtboard, Body: []byte{1, 2}},
		riv.SectionData{Tag: riv.SectionStateMachine, Body: riv.StateMachineBody(riv.StateMachineRecord("Main"))},
	)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	return data
}

func writeTestFile(t *testing.T, dir, name string, data []byte, mode os.FileMode) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, mode); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(path, mode); err != nil {
		t.Fatal(err)
	}
	return path
}

func inspectFile(t *testing.T, path string) *riv.Document {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	doc, err := riv.Inspect(data)
	if err != nil {
		t.Fatalf("Inspect(%s): %v", path, err)
	}
	return doc
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestPatchFile(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "anim.riv", testContainer(t), 0o600)

	if err := PatchFile(path, "speed", riv.InputNumber, 0, 100); err != nil {
		t.Fatalf("PatchFile: %v", err)
	}

	in, ok := inspectFile(t, path).FindInput("speed")
	if !ok {
		t.Fatal("input not found after PatchFile")
	}
	if in.Kind != riv.InputNumber || in.Default != 0 {
		t.Errorf("input = %+v", in)
	}

	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", fi.Mode().Perm())
	}
	assertNoTempFiles(t, dir)
}

func TestPatchFileFailureLeavesSource(t *testing.T) {
	dir := t.TempDir()
	data, err := riv.Assemble(1, riv.SectionData{Tag: riv.SectionArtboard, Body: []byte{0}})
	if err != nil {
		t.Fatal(err)
	}
	path := writeTestFile(t, dir, "static.riv", data, 0o644)

	err = NewWithDefaults().PatchFile(path, riv.NewInput("x", riv.InputTrigger, 0, 0))
	if !stderrors.Is(err, errors.ErrSectionNotFound) {
		t.Fatalf("PatchFile = %v, want section not found", err)
	}

	got, _ := os.ReadFile(path)
	if string(got) != string(data) {
		t.Error("source modified by failed patch")
	}
	assertNoTempFiles(t, dir)
}

func TestPatchFileMissing(t *testing.T) {
	err := PatchFile(filepath.Join(t.TempDir(), "missing.riv"), "x", riv.InputTrigger, 0, 0)
	if !stderrors.Is(err, errors.ErrIO) {
		t.Errorf("err = %v, want io error", err)
	}
	if !stderrors.Is(err, fs.ErrNotExist) {
		t.Errorf("err = %v, want fs.ErrNotExist in chain", err)
	}
}

func TestPatchFileTo(t *testing.T) {
	dir := t.TempDir()
	src := writeTestFile(t, dir, "in.riv", testContainer(t), 0o640)
	dst := filepath.Join(dir, "out.riv")

	p := New(Options{})
	err := p.PatchFileTo(src, dst,
		riv.NewInput("a", riv.InputBoolean, 0, 0),
		riv.NewInput("b", riv.InputTrigger, 0, 0),
	)
	if err != nil {
		t.Fatalf("PatchFileTo: %v", err)
	}

	if got := len(inspectFile(t, src).Inputs()); got != 0 {
		t.Errorf("source has %d inputs, want 0", got)
	}
	inputs := inspectFile(t, dst).Inputs()
	if len(inputs) != 2 || inputs[0].Name != "a" || inputs[1].Name != "b" {
		t.Errorf("output inputs = %+v", inputs)
	}
	fi, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode().Perm() != 0o640 {
		t.Errorf("new output mode = %v, want source mode 0640", fi.Mode().Perm())
	}
}

func TestPatcherLogs(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	p := New(Options{Logger: zap.New(core)})

	dir := t.TempDir()
	path := writeTestFile(t, dir, "a.riv", testContainer(t), 0o644)
	if err := p.PatchFile(path, riv.NewInput("x", riv.InputTrigger, 0, 0)); err != nil {
		t.Fatal(err)
	}
	if logs.FilterMessage("patched").Len() != 1 {
		t.Errorf("logs = %v", logs.All())
	}

	_ = p.PatchFile(path, riv.NewInput("", riv.InputTrigger, 0, 0))
	warn := logs.FilterMessage("patch failed").All()
	if len(warn) != 1 {
		t.Fatalf("warn logs = %v", logs.All())
	}
	if kind := warn[0].ContextMap()["kind"]; kind != string(errors.KindInvalidName) {
		t.Errorf("kind field = %v", kind)
	}
}

func TestWriteFileAtomicFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "no", "such", "dir", "a.riv")
	err := writeFileAtomic(path, []byte("x"), 0o644)
	if !stderrors.Is(err, errors.ErrIO) {
		t.Errorf("writeFileAtomic = %v, want io error", err)
	}
}

func TestNewDefaults(t *testing.T) {
	p := New(Options{})
	if p.mode != 0o644 {
		t.Errorf("mode = %v", p.mode)
	}
	if p.log() != Logger() {
		t.Error("patcher without logger should use the package logger")
	}
}

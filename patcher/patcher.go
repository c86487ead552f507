package patcher

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/wippyai/riv-patcher/errors"
	"github.com/wippyai/riv-patcher/riv"
)

// Options configures a Patcher.
type Options struct {
	// Logger defaults to the package logger.
	Logger *zap.Logger
	// Mode is applied to output files that do not exist yet and whose source
	// mode cannot be read.
	Mode os.FileMode
}

// DefaultOptions returns default patcher configuration.
func DefaultOptions() Options {
	return Options{
		Mode: 0o644,
	}
}

// Patcher reads, patches and rewrites container files.
// Safe for concurrent use on distinct files.
type Patcher struct {
	logger *zap.Logger
	mode   os.FileMode
}

// New creates a Patcher with the given options.
func New(opts Options) *Patcher {
	p := &Patcher{
		logger: opts.Logger,
		mode:   opts.Mode,
	}
	if p.mode == 0 {
		p.mode = DefaultOptions().Mode
	}
	return p
}

// NewWithDefaults creates a Patcher with default options.
func NewWithDefaults() *Patcher {
	return New(DefaultOptions())
}

func (p *Patcher) log() *zap.Logger {
	if p.logger != nil {
		return p.logger
	}
	return Logger()
}

// PatchFile adds one input to the file at path in place. The default value
// of a number input is min.
func PatchFile(path, name string, kind riv.InputKind, min, max float64) error {
	return NewWithDefaults().PatchFile(path, riv.NewInput(name, kind, min, max))
}

// PatchFile adds spec to the file at path in place.
func (p *Patcher) PatchFile(path string, spec riv.InputSpec) error {
	return p.PatchFileTo(path, path, spec)
}

// PatchFileTo reads src, adds every spec in order and writes the result to
// dst. dst may equal src. Nothing is written unless all inputs apply.
func (p *Patcher) PatchFileTo(src, dst string, specs ...riv.InputSpec) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return errors.IO("read", src, err)
	}

	out, err := riv.PatchAll(data, specs...)
	if err != nil {
		p.log().Warn("patch failed",
			zap.String("file", src),
			zap.String("kind", string(errors.KindOf(err))),
			zap.Error(err))
		return fmt.Errorf("patch %s: %w", src, err)
	}

	mode := p.outputMode(src, dst)
	if err := writeFileAtomic(dst, out, mode); err != nil {
		return err
	}

	p.log().Info("patched",
		zap.String("source", src),
		zap.String("output", dst),
		zap.Int("inputs", len(specs)),
		zap.Int("size_before", len(data)),
		zap.Int("size_after", len(out)))
	return nil
}

// Apply patches m.File with every input of m and writes to m.OutputPath().
func (p *Patcher) Apply(m *Manifest) error {
	if err := m.Validate(); err != nil {
		return err
	}
	return p.PatchFileTo(m.File, m.OutputPath(), m.Specs()...)
}

// outputMode keeps an existing output's mode, then the source's, then the
// configured default.
func (p *Patcher) outputMode(src, dst string) os.FileMode {
	if fi, err := os.Stat(dst); err == nil {
		return fi.Mode().Perm()
	}
	if fi, err := os.Stat(src); err == nil {
		return fi.Mode().Perm()
	}
	return p.mode
}

// writeFileAtomic writes data to a temp file next to path, syncs it and
// renames it over path. On failure the temp file is removed and path is
// untouched.
func writeFileAtomic(path string, data []byte, mode os.FileMode) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.IO("create temp file for", path, err)
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	if _, err = f.Write(data); err != nil {
		return errors.IO("write", tmp, err)
	}
	if err = f.Chmod(mode); err != nil {
		return errors.IO("chmod", tmp, err)
	}
	if err = f.Sync(); err != nil {
		return errors.IO("sync", tmp, err)
	}
	if err = f.Close(); err != nil {
		return errors.IO("close", tmp, err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return errors.IO("rename", tmp, err)
	}
	return nil
}

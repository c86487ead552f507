package patcher

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/riv-patcher/errors"
	"github.com/wippyai/riv-patcher/riv"
)

// Manifest lists the inputs to add to one container file.
//
//	file: button.riv
//	output: build/button.riv
//	inputs:
//	  - name: pressed
//	    kind: boolean
//	  - name: level
//	    kind: number
//	    min: 0
//	    max: 10
//	    default: 5
type Manifest struct {
	File   string       `yaml:"file"`
	Output string       `yaml:"output,omitempty"`
	Inputs []InputEntry `yaml:"inputs"`
}

// InputEntry is one input in a manifest. Kind accepts the names ParseInputKind
// does and defaults to number. Default falls back to Min.
type InputEntry struct {
	Default *float64      `yaml:"default,omitempty"`
	Name    string        `yaml:"name"`
	Kind    riv.InputKind `yaml:"kind"`
	Min     float64       `yaml:"min"`
	Max     float64       `yaml:"max"`
}

// Spec converts the entry to an InputSpec.
func (e InputEntry) Spec() riv.InputSpec {
	spec := riv.NewInput(e.Name, e.Kind, e.Min, e.Max)
	if e.Default != nil {
		spec.Default = *e.Default
	}
	return spec
}

// LoadManifest reads a manifest from a YAML file. Relative file and output
// paths are resolved against the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.InvalidConfig(fmt.Sprintf("read manifest %s", path), err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	m.File = resolvePath(dir, m.File)
	if m.Output != "" {
		m.Output = resolvePath(dir, m.Output)
	}
	return m, nil
}

// ParseManifest decodes and validates a YAML manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.InvalidConfig("parse manifest", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks that the manifest names a file and that every input would
// produce a valid record.
func (m *Manifest) Validate() error {
	if m.File == "" {
		return errors.InvalidConfig("manifest has no file", nil)
	}
	if len(m.Inputs) == 0 {
		return errors.InvalidConfig("manifest has no inputs", nil)
	}
	seen := make(map[string]int, len(m.Inputs))
	for i, in := range m.Inputs {
		if prev, ok := seen[in.Name]; ok {
			return errors.InvalidConfig(fmt.Sprintf("inputs[%d]: name %q already used by inputs[%d]", i, in.Name, prev), nil)
		}
		seen[in.Name] = i
		if err := in.Spec().Validate(); err != nil {
			return errors.InvalidConfig(fmt.Sprintf("inputs[%d]", i), err)
		}
	}
	return nil
}

// Specs returns the inputs in manifest order.
func (m *Manifest) Specs() []riv.InputSpec {
	specs := make([]riv.InputSpec, len(m.Inputs))
	for i, in := range m.Inputs {
		specs[i] = in.Spec()
	}
	return specs
}

// OutputPath returns Output, or File when the manifest patches in place.
func (m *Manifest) OutputPath() string {
	if m.Output == "" {
		return m.File
	}
	return m.Output
}

func resolvePath(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

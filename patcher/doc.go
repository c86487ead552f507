// Package patcher applies input patches to container files on disk.
//
// The riv package works on byte slices only. This package adds the file
// handling around it: reading the source, writing the result atomically so a
// failed patch never leaves a half-written file, batch patching from a YAML
// manifest, and a watch mode that re-applies a manifest whenever its source
// file changes.
//
// Patching a single file in place:
//
//	err := patcher.PatchFile("button.riv", "pressed", riv.InputBoolean, 0, 0)
//
// Applying a manifest:
//
//	m, err := patcher.LoadManifest("inputs.yaml")
//	if err != nil {
//		return err
//	}
//	err = patcher.NewWithDefaults().Apply(m)
package patcher

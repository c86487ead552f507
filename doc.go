// Package rivpatcher adds state machine inputs to RIV animation containers.
//
// A container is a binary document: the "RIVE" magic, a small header pointing
// at a table of contents, and typed sections the table describes by offset
// and length. Inputs are object records inside a state machine section. To add
// one, the record is spliced in front of the section's terminator, the
// section's length grows by the record size, and every offset after the
// insertion point moves with it, so unmodified readers see the new input.
//
// # Architecture Overview
//
//	rivpatcher/
//	├── riv/             Container codec, locator, splice and inspection
//	├── errors/          Structured error types with phase and kind
//	├── patcher/         Atomic file patching, YAML manifests, watch mode
//	├── bridge/          wazero host module exposing patching to wasm guests
//	├── internal/guest/  Minimal wasm guest builder for the bridge
//	└── cmd/rivpatch/    Command line tool and TUI
//
// # Quick Start
//
// Patch a buffer:
//
//	out, err := riv.Patch(data, riv.NewInput("speed", riv.InputNumber, 0, 100))
//
// Patch into a caller-owned buffer with a fixed capacity:
//
//	n, err := riv.PatchInto(dst, data, riv.NewInput("fire", riv.InputTrigger, 0, 0))
//	if errors.Is(err, rerrors.ErrOutputTooSmall) {
//		// grow dst and retry
//	}
//
// Patch a file in place; the file is replaced atomically or not at all:
//
//	err := patcher.PatchFile("button.riv", "pressed", riv.InputBoolean, 0, 0)
//
// # Errors
//
// Every failure is an *errors.Error carrying a Phase and a Kind. Compare kinds
// with the package sentinels:
//
//	errors.Is(err, rerrors.ErrSectionNotFound)
//
// File system failures have KindIO, so a bad document and a bad file system
// state are told apart by kind alone.
package rivpatcher

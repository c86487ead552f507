package bridge

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/riv-patcher/errors"
	"github.com/wippyai/riv-patcher/internal/guest"
	"github.com/wippyai/riv-patcher/patcher"
	"github.com/wippyai/riv-patcher/riv"
)

// Guest memory layout used by the tests.
const (
	inPtr   = 0
	namePtr = 1024
	outPtr  = 2048
	pathPtr = 8192
)

func minimalContainer() []byte {
	return []byte{
		'R', 'I', 'V', 'E', 0x01, 0x00, 0x08, 0x00,
		0x01, 0x00, 0x35, 0x00, 0x14, 0x00, 0x00, 0x00, 0x04, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
	}
}

type testGuest struct {
	ctx    context.Context
	bridge *Bridge
	host   api.Module
	mod    api.Module
}

func newTestGuest(t *testing.T, opts Options) *testGuest {
	t.Helper()
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	t.Cleanup(func() { rt.Close(ctx) })

	b := New(opts)
	host, err := b.Instantiate(ctx, rt)
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}

	gb := guest.NewBuilder(b.ModuleName())
	for _, sig := range Signatures(opts.FileAccess != nil) {
		gb.AddFunc(sig.Name, sig.Params, sig.Results)
	}
	mod, err := rt.Instantiate(ctx, gb.Build())
	if err != nil {
		t.Fatalf("failed to instantiate guest: %v", err)
	}
	return &testGuest{ctx: ctx, bridge: b, host: host, mod: mod}
}

func (g *testGuest) write(t *testing.T, ptr uint32, data []byte) {
	t.Helper()
	if !g.mod.Memory().Write(ptr, data) {
		t.Fatalf("write %d bytes at %d out of range", len(data), ptr)
	}
}

func (g *testGuest) read(t *testing.T, ptr, n uint32) []byte {
	t.Helper()
	buf, ok := g.mod.Memory().Read(ptr, n)
	if !ok {
		t.Fatalf("read %d bytes at %d out of range", n, ptr)
	}
	return bytes.Clone(buf)
}

func (g *testGuest) call(t *testing.T, name string, params ...uint64) int32 {
	t.Helper()
	res, err := g.mod.ExportedFunction(name).Call(g.ctx, params...)
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	return api.DecodeI32(res[0])
}

func (g *testGuest) patchMemory(t *testing.T, in, out, name Region, kind riv.InputKind, min, max float64) int32 {
	t.Helper()
	return g.call(t, FuncPatchInputMemory,
		api.EncodeU32(in.Ptr), api.EncodeU32(in.Size),
		api.EncodeU32(out.Ptr), api.EncodeU32(out.Size),
		api.EncodeU32(name.Ptr), api.EncodeU32(name.Size),
		api.EncodeI32(int32(kind)), api.EncodeF64(min), api.EncodeF64(max))
}

func TestInitAPI(t *testing.T) {
	g := newTestGuest(t, DefaultOptions())

	if _, ok := g.bridge.Initialized(); ok {
		t.Fatal("initialized before init_api")
	}
	if _, err := g.mod.ExportedFunction(FuncInitAPI).Call(g.ctx, api.EncodeI32(7)); err != nil {
		t.Fatalf("init_api: %v", err)
	}
	h, ok := g.bridge.Initialized()
	if !ok || h != 7 {
		t.Errorf("Initialized = %d, %v", h, ok)
	}
}

func TestPatchInputMemory(t *testing.T) {
	g := newTestGuest(t, DefaultOptions())
	src := minimalContainer()
	g.write(t, inPtr, src)
	g.write(t, namePtr, []byte("speed"))

	want, err := riv.Patch(src, riv.NewInput("speed", riv.InputNumber, 0, 100))
	if err != nil {
		t.Fatal(err)
	}

	n := g.patchMemory(t,
		Region{Ptr: inPtr, Size: uint32(len(src))},
		Region{Ptr: outPtr, Size: 1000},
		Region{Ptr: namePtr, Size: 5},
		riv.InputNumber, 0, 100)
	if int(n) != len(want) {
		t.Fatalf("result = %d, want %d", n, len(want))
	}
	if got := g.read(t, outPtr, uint32(n)); !bytes.Equal(got, want) {
		t.Errorf("output = % x\nwant     % x", got, want)
	}
	if got := g.read(t, inPtr, uint32(len(src))); !bytes.Equal(got, src) {
		t.Error("input region modified")
	}
}

func TestPatchInputMemoryInPlace(t *testing.T) {
	g := newTestGuest(t, DefaultOptions())
	src := minimalContainer()
	g.write(t, inPtr, src)
	g.write(t, namePtr, []byte("go"))

	want, _ := riv.Patch(src, riv.NewInput("go", riv.InputTrigger, 0, 0))
	n := g.patchMemory(t,
		Region{Ptr: inPtr, Size: uint32(len(src))},
		Region{Ptr: inPtr, Size: 512},
		Region{Ptr: namePtr, Size: 2},
		riv.InputTrigger, 0, 0)
	if int(n) != len(want) {
		t.Fatalf("result = %d, want %d", n, len(want))
	}
	if got := g.read(t, inPtr, uint32(n)); !bytes.Equal(got, want) {
		t.Errorf("output = % x", got)
	}
}

func TestPatchInputMemoryOutputTooSmall(t *testing.T) {
	g := newTestGuest(t, DefaultOptions())
	src := minimalContainer()
	g.write(t, inPtr, src)
	g.write(t, namePtr, []byte("speed"))

	size, err := riv.PatchedSize(src, riv.NewInput("speed", riv.InputNumber, 0, 100))
	if err != nil {
		t.Fatal(err)
	}
	fill := bytes.Repeat([]byte{0xaa}, size)
	g.write(t, outPtr, fill)

	code := g.patchMemory(t,
		Region{Ptr: inPtr, Size: uint32(len(src))},
		Region{Ptr: outPtr, Size: uint32(size - 1)},
		Region{Ptr: namePtr, Size: 5},
		riv.InputNumber, 0, 100)
	if code != CodeOutputTooSmall {
		t.Fatalf("code = %d, want %d", code, CodeOutputTooSmall)
	}
	if got := g.read(t, outPtr, uint32(size)); !bytes.Equal(got, fill) {
		t.Error("output region written on failure")
	}
}

func TestPatchInputMemoryErrors(t *testing.T) {
	noStateMachine, err := riv.Assemble(1, riv.SectionData{Tag: riv.SectionArtboard, Body: []byte{0}})
	if err != nil {
		t.Fatal(err)
	}
	badMagic := minimalContainer()
	badMagic[0] = 'X'
	pageSize := uint32(65536)

	tests := []struct {
		name     string
		data     []byte
		in       Region
		out      Region
		kind     riv.InputKind
		min, max float64
		want     int32
	}{
		{name: "bad magic", data: badMagic, want: CodeNotAContainer},
		{name: "no state machine", data: noStateMachine, want: CodeSectionNotFound},
		{name: "invalid kind", data: minimalContainer(), kind: 9, want: CodeInvalidInputKind},
		{name: "min above max", data: minimalContainer(), min: 5, max: 1, want: CodeInvalidBounds},
		{name: "input past memory", data: minimalContainer(), in: Region{Ptr: pageSize - 10, Size: 100}, want: CodeOutOfBounds},
		{name: "output past memory", data: minimalContainer(), out: Region{Ptr: outPtr, Size: pageSize}, want: CodeOutOfBounds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGuest(t, DefaultOptions())
			g.write(t, inPtr, tt.data)
			g.write(t, namePtr, []byte("x"))

			in := tt.in
			if in.Size == 0 {
				in = Region{Ptr: inPtr, Size: uint32(len(tt.data))}
			}
			out := tt.out
			if out.Size == 0 {
				out = Region{Ptr: outPtr, Size: 1000}
			}
			code := g.patchMemory(t, in, out, Region{Ptr: namePtr, Size: 1}, tt.kind, tt.min, tt.max)
			if code != tt.want {
				t.Errorf("code = %d, want %d", code, tt.want)
			}
		})
	}
}

func TestPatchInputFile(t *testing.T) {
	g := newTestGuest(t, Options{FileAccess: patcher.NewWithDefaults()})

	dir := t.TempDir()
	path := filepath.Join(dir, "guest.riv")
	if err := os.WriteFile(path, minimalContainer(), 0o644); err != nil {
		t.Fatal(err)
	}
	g.write(t, pathPtr, []byte(path))
	g.write(t, namePtr, []byte("toggle"))

	call := func(pathLen uint32) int32 {
		return g.call(t, FuncPatchInputFile,
			api.EncodeU32(pathPtr), api.EncodeU32(pathLen),
			api.EncodeU32(namePtr), api.EncodeU32(6),
			api.EncodeI32(int32(riv.InputBoolean)), api.EncodeF64(0), api.EncodeF64(0))
	}

	if code := call(uint32(len(path))); code != CodeOK {
		t.Fatalf("code = %d, want 0", code)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	doc, err := riv.Inspect(data)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if in, ok := doc.FindInput("toggle"); !ok || in.Kind != riv.InputBoolean {
		t.Errorf("FindInput = %+v, %v", in, ok)
	}

	// A truncated path names a file that does not exist.
	if code := call(uint32(len(path) - 1)); code != CodeIO {
		t.Errorf("missing file code = %d, want %d", code, CodeIO)
	}
}

func TestFileAccessDisabled(t *testing.T) {
	g := newTestGuest(t, DefaultOptions())
	if _, ok := g.host.ExportedFunctionDefinitions()[FuncPatchInputFile]; ok {
		t.Error("patch_rive_input registered without file access")
	}

	err := g.bridge.PatchFile(g.mod.Memory(), Region{}, Region{}, riv.InputTrigger, 0, 0)
	if errors.KindOf(err) != errors.KindIO {
		t.Errorf("PatchFile = %v, want io error", err)
	}
}

func TestPatchMemoryWithoutMemory(t *testing.T) {
	_, err := NewWithDefaults().PatchMemory(nil, Region{}, Region{}, Region{}, riv.InputTrigger, 0, 0)
	if ErrorCode(err) != CodeOutOfBounds {
		t.Errorf("err = %v, want out of bounds", err)
	}
}

func TestCustomModuleName(t *testing.T) {
	g := newTestGuest(t, Options{ModuleName: "env"})
	if g.host.Name() != "env" {
		t.Errorf("host module name = %q", g.host.Name())
	}
	if g.bridge.ModuleName() != "env" {
		t.Errorf("ModuleName = %q", g.bridge.ModuleName())
	}
}

package bridge

import (
	"context"
	"math"
	"sync/atomic"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/riv-patcher/errors"
	"github.com/wippyai/riv-patcher/patcher"
	"github.com/wippyai/riv-patcher/riv"
)

// ModuleName is the default import module name guests use.
const ModuleName = "rive_patcher"

// Host function names.
const (
	FuncInitAPI          = "init_api"
	FuncPatchInputMemory = "patch_rive_input_memory"
	FuncPatchInputFile   = "patch_rive_input"
)

var (
	i32 = api.ValueTypeI32
	f64 = api.ValueTypeF64
)

// Signature describes one host function.
type Signature struct {
	Name    string
	Params  []api.ValueType
	Results []api.ValueType
}

// Signatures lists the host functions in export order. patch_rive_input is
// included only when fileAccess is set.
func Signatures(fileAccess bool) []Signature {
	sigs := []Signature{
		{Name: FuncInitAPI, Params: []api.ValueType{i32}},
		{
			Name:    FuncPatchInputMemory,
			Params:  []api.ValueType{i32, i32, i32, i32, i32, i32, i32, f64, f64},
			Results: []api.ValueType{i32},
		},
	}
	if fileAccess {
		sigs = append(sigs, Signature{
			Name:    FuncPatchInputFile,
			Params:  []api.ValueType{i32, i32, i32, i32, i32, f64, f64},
			Results: []api.ValueType{i32},
		})
	}
	return sigs
}

// Options configures a Bridge.
type Options struct {
	// Logger defaults to the package logger.
	Logger *zap.Logger
	// FileAccess enables patch_rive_input, which rewrites host files through
	// this patcher. Nil leaves the function unregistered.
	FileAccess *patcher.Patcher
	// ModuleName overrides ModuleName.
	ModuleName string
}

// DefaultOptions returns default bridge configuration: in-memory patching
// only.
func DefaultOptions() Options {
	return Options{
		ModuleName: ModuleName,
	}
}

// Bridge exposes the patch operations to wasm guests as a host module.
// Thread-safe; the host functions hold no state besides the init handle.
type Bridge struct {
	logger     *zap.Logger
	files      *patcher.Patcher
	moduleName string
	handle     atomic.Int32
	inits      atomic.Int32
}

// New creates a Bridge with the given options.
func New(opts Options) *Bridge {
	b := &Bridge{
		logger:     opts.Logger,
		files:      opts.FileAccess,
		moduleName: opts.ModuleName,
	}
	if b.moduleName == "" {
		b.moduleName = ModuleName
	}
	if b.logger == nil {
		b.logger = Logger()
	}
	return b
}

// NewWithDefaults creates a Bridge with default options.
func NewWithDefaults() *Bridge {
	return New(DefaultOptions())
}

// ModuleName returns the import module name the host module is registered
// under.
func (b *Bridge) ModuleName() string {
	return b.moduleName
}

// Initialized reports whether a guest has called init_api, and the handle it
// passed most recently.
func (b *Bridge) Initialized() (int32, bool) {
	return b.handle.Load(), b.inits.Load() > 0
}

// Instantiate registers the host module in rt. It must run before any guest
// importing it is instantiated.
func (b *Bridge) Instantiate(ctx context.Context, rt wazero.Runtime) (api.Module, error) {
	builder := rt.NewHostModuleBuilder(b.moduleName)

	handlers := map[string]api.GoModuleFunc{
		FuncInitAPI:          b.initAPI,
		FuncPatchInputMemory: b.patchInputMemory,
		FuncPatchInputFile:   b.patchInputFile,
	}
	for _, sig := range Signatures(b.files != nil) {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(handlers[sig.Name], sig.Params, sig.Results).
			WithParameterNames(paramNames[sig.Name]...).
			Export(sig.Name)
	}

	mod, err := builder.Instantiate(ctx)
	if err != nil {
		return nil, err
	}
	b.logger.Debug("host module instantiated",
		zap.String("module", b.moduleName),
		zap.Bool("file_access", b.files != nil))
	return mod, nil
}

var paramNames = map[string][]string{
	FuncInitAPI:          {"handle"},
	FuncPatchInputMemory: {"in_ptr", "in_len", "out_ptr", "out_max", "name_ptr", "name_len", "kind", "min", "max"},
	FuncPatchInputFile:   {"path_ptr", "path_len", "name_ptr", "name_len", "kind", "min", "max"},
}

// init_api(handle i32)
func (b *Bridge) initAPI(_ context.Context, _ api.Module, stack []uint64) {
	h := api.DecodeI32(stack[0])
	b.handle.Store(h)
	if n := b.inits.Add(1); n > 1 {
		b.logger.Debug("init_api called again", zap.Int32("handle", h), zap.Int32("calls", n))
	}
}

// patch_rive_input_memory(in_ptr, in_len, out_ptr, out_max, name_ptr, name_len, kind i32, min, max f64) -> i32
func (b *Bridge) patchInputMemory(_ context.Context, mod api.Module, stack []uint64) {
	in := Region{Ptr: api.DecodeU32(stack[0]), Size: api.DecodeU32(stack[1])}
	out := Region{Ptr: api.DecodeU32(stack[2]), Size: api.DecodeU32(stack[3])}
	name := Region{Ptr: api.DecodeU32(stack[4]), Size: api.DecodeU32(stack[5])}
	kind := riv.InputKind(api.DecodeI32(stack[6]))
	min, max := api.DecodeF64(stack[7]), api.DecodeF64(stack[8])

	n, err := b.PatchMemory(mod.Memory(), in, out, name, kind, min, max)
	if err != nil {
		stack[0] = api.EncodeI32(b.fail(FuncPatchInputMemory, err))
		return
	}
	stack[0] = api.EncodeI32(n)
}

// patch_rive_input(path_ptr, path_len, name_ptr, name_len, kind i32, min, max f64) -> i32
func (b *Bridge) patchInputFile(_ context.Context, mod api.Module, stack []uint64) {
	path := Region{Ptr: api.DecodeU32(stack[0]), Size: api.DecodeU32(stack[1])}
	name := Region{Ptr: api.DecodeU32(stack[2]), Size: api.DecodeU32(stack[3])}
	kind := riv.InputKind(api.DecodeI32(stack[4]))
	min, max := api.DecodeF64(stack[5]), api.DecodeF64(stack[6])

	err := b.PatchFile(mod.Memory(), path, name, kind, min, max)
	stack[0] = api.EncodeI32(b.fail(FuncPatchInputFile, err))
}

func (b *Bridge) fail(fn string, err error) int32 {
	code := ErrorCode(err)
	if err != nil {
		b.logger.Debug("host call failed",
			zap.String("func", fn),
			zap.Int32("code", code),
			zap.Error(err))
	}
	return code
}

// Region is a byte range in guest linear memory.
type Region struct {
	Ptr  uint32
	Size uint32
}

func (r Region) read(mem api.Memory, what string) ([]byte, error) {
	if mem == nil {
		return nil, errors.New(errors.PhaseHost, errors.KindOutOfBounds).
			Path(what).
			Detail("guest has no linear memory").
			Build()
	}
	end := uint64(r.Ptr) + uint64(r.Size)
	if end > uint64(mem.Size()) {
		return nil, errors.OutOfBounds(errors.PhaseHost, []string{what}, int(end), int(mem.Size()))
	}
	buf, ok := mem.Read(r.Ptr, r.Size)
	if !ok {
		return nil, errors.OutOfBounds(errors.PhaseHost, []string{what}, int(end), int(mem.Size()))
	}
	return buf, nil
}

// PatchMemory patches the container at in into out, both in mem, and returns
// the number of bytes written. The output region is only written on success.
func (b *Bridge) PatchMemory(mem api.Memory, in, out, name Region, kind riv.InputKind, min, max float64) (int32, error) {
	src, err := in.read(mem, "in")
	if err != nil {
		return 0, err
	}
	dst, err := out.read(mem, "out")
	if err != nil {
		return 0, err
	}
	nameBytes, err := name.read(mem, "name")
	if err != nil {
		return 0, err
	}

	spec := riv.NewInput(string(nameBytes), kind, min, max)
	size, err := riv.PatchedSize(src, spec)
	if err != nil {
		return 0, err
	}
	if size > math.MaxInt32 {
		return 0, errors.OffsetOverflow([]string{"result"}, uint64(size), "i32")
	}

	// dst is a view of guest memory; PatchInto only copies once the whole
	// result is built, so overlapping in and out regions are safe.
	n, err := riv.PatchInto(dst, src, spec)
	if err != nil {
		return 0, err
	}
	b.logger.Debug("patched guest buffer",
		zap.String("input", spec.Name),
		zap.Stringer("kind", kind),
		zap.Int("size", n))
	return int32(n), nil
}

// PatchFile patches the host file named by the path region. It fails with
// KindIO when the bridge has no file access.
func (b *Bridge) PatchFile(mem api.Memory, path, name Region, kind riv.InputKind, min, max float64) error {
	if b.files == nil {
		return errors.New(errors.PhaseHost, errors.KindIO).Detail("file access disabled").Build()
	}
	pathBytes, err := path.read(mem, "path")
	if err != nil {
		return err
	}
	nameBytes, err := name.read(mem, "name")
	if err != nil {
		return err
	}
	return b.files.PatchFile(string(pathBytes), riv.NewInput(string(nameBytes), kind, min, max))
}

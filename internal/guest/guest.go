// Package guest assembles minimal wasm modules that call host functions.
//
// A built module imports every added function from one host module, owns a
// linear memory, and exports that memory plus one wrapper per import with the
// same name and signature. The wrappers forward their parameters unchanged,
// so calling a wrapper runs the host function with the guest memory as the
// caller's memory.
package guest

import (
	"github.com/tetratelabs/wazero/api"
)

// DefaultMemoryName is the export name of the module's memory.
const DefaultMemoryName = "memory"

// Builder builds guest modules.
type Builder struct {
	hostModuleName string
	memoryName     string
	funcs          []function
	memoryPages    uint32
}

type function struct {
	name        string
	paramTypes  []api.ValueType
	resultTypes []api.ValueType
}

// NewBuilder creates a builder importing from hostModuleName. The module gets
// one page of memory exported as DefaultMemoryName.
func NewBuilder(hostModuleName string) *Builder {
	return &Builder{
		hostModuleName: hostModuleName,
		memoryName:     DefaultMemoryName,
		memoryPages:    1,
	}
}

// AddFunc adds a host function to import and re-export.
func (b *Builder) AddFunc(name string, params, results []api.ValueType) {
	b.funcs = append(b.funcs, function{
		name:        name,
		paramTypes:  params,
		resultTypes: results,
	})
}

// SetMemory sets the memory export name and its initial page count.
func (b *Builder) SetMemory(exportName string, pages uint32) {
	b.memoryName = exportName
	b.memoryPages = pages
}

// Build generates the wasm module bytes.
func (b *Builder) Build() []byte {
	var wasm []byte

	// Magic and version
	wasm = append(wasm, 0x00, 0x61, 0x73, 0x6d)
	wasm = append(wasm, 0x01, 0x00, 0x00, 0x00)

	hasFuncs := len(b.funcs) > 0
	if hasFuncs {
		wasm = appendSection(wasm, 0x01, b.buildTypeSection())
		wasm = appendSection(wasm, 0x02, b.buildImportSection())
		wasm = appendSection(wasm, 0x03, b.buildFuncSection())
	}
	wasm = appendSection(wasm, 0x05, b.buildMemorySection())
	wasm = appendSection(wasm, 0x07, b.buildExportSection())
	if hasFuncs {
		wasm = appendSection(wasm, 0x0a, b.buildCodeSection())
	}
	return wasm
}

func appendSection(wasm []byte, id byte, section []byte) []byte {
	wasm = append(wasm, id)
	wasm = append(wasm, EncodeULEB128(uint32(len(section)))...)
	return append(wasm, section...)
}

func appendName(dst []byte, name string) []byte {
	dst = append(dst, EncodeULEB128(uint32(len(name)))...)
	return append(dst, name...)
}

// Each function gets its own type index; imports and wrappers share it.
func (b *Builder) buildTypeSection() []byte {
	var section []byte
	section = append(section, EncodeULEB128(uint32(len(b.funcs)))...)

	for _, f := range b.funcs {
		section = append(section, 0x60)
		section = append(section, EncodeULEB128(uint32(len(f.paramTypes)))...)
		for _, t := range f.paramTypes {
			section = append(section, ValTypeToWasm(t))
		}
		section = append(section, EncodeULEB128(uint32(len(f.resultTypes)))...)
		for _, t := range f.resultTypes {
			section = append(section, ValTypeToWasm(t))
		}
	}

	return section
}

func (b *Builder) buildImportSection() []byte {
	var section []byte
	section = append(section, EncodeULEB128(uint32(len(b.funcs)))...)

	for i, f := range b.funcs {
		section = appendName(section, b.hostModuleName)
		section = appendName(section, f.name)
		section = append(section, 0x00)
		section = append(section, EncodeULEB128(uint32(i))...)
	}

	return section
}

func (b *Builder) buildFuncSection() []byte {
	var section []byte
	section = append(section, EncodeULEB128(uint32(len(b.funcs)))...)
	for i := range b.funcs {
		section = append(section, EncodeULEB128(uint32(i))...)
	}
	return section
}

func (b *Builder) buildMemorySection() []byte {
	var section []byte
	section = append(section, 0x01) // one memory
	section = append(section, 0x00) // min only
	section = append(section, EncodeULEB128(b.memoryPages)...)
	return section
}

func (b *Builder) buildExportSection() []byte {
	var section []byte
	section = append(section, EncodeULEB128(uint32(1+len(b.funcs)))...)

	section = appendName(section, b.memoryName)
	section = append(section, 0x02, 0x00)

	// Wrappers follow the imports in the function index space.
	numImports := len(b.funcs)
	for i, f := range b.funcs {
		section = appendName(section, f.name)
		section = append(section, 0x00)
		section = append(section, EncodeULEB128(uint32(numImports+i))...)
	}

	return section
}

func (b *Builder) buildCodeSection() []byte {
	var section []byte
	section = append(section, EncodeULEB128(uint32(len(b.funcs)))...)

	for i, f := range b.funcs {
		body := buildFuncBody(i, f)
		section = append(section, EncodeULEB128(uint32(len(body)))...)
		section = append(section, body...)
	}

	return section
}

func buildFuncBody(importIdx int, f function) []byte {
	var body []byte
	body = append(body, 0x00) // no locals

	for i := range f.paramTypes {
		body = append(body, 0x20) // local.get
		body = append(body, EncodeULEB128(uint32(i))...)
	}

	body = append(body, 0x10) // call
	body = append(body, EncodeULEB128(uint32(importIdx))...)
	body = append(body, 0x0b)

	return body
}

// EncodeULEB128 encodes an unsigned value in LEB128 format.
func EncodeULEB128(v uint32) []byte {
	var result []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		result = append(result, b)
		if v == 0 {
			break
		}
	}
	return result
}

// ValTypeToWasm converts a wazero value type to its wasm encoding.
func ValTypeToWasm(t api.ValueType) byte {
	switch t {
	case api.ValueTypeI64:
		return 0x7e
	case api.ValueTypeF32:
		return 0x7d
	case api.ValueTypeF64:
		return 0x7c
	default:
		return 0x7f
	}
}

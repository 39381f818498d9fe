package wasm

import "encoding/binary"

// IsModule reports whether b starts with a core WASM v1 module header.
func IsModule(b []byte) bool {
	if len(b) < 8 {
		return false
	}
	return binary.LittleEndian.Uint32(b[0:4]) == Magic &&
		binary.LittleEndian.Uint32(b[4:8]) == Version
}

// FuncType is a function signature.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

type funcImport struct {
	module  string
	name    string
	typeIdx uint32
}

type funcDef struct {
	typeIdx uint32
	body    []byte
	export  string
}

type dataSegment struct {
	offset uint32
	data   []byte
}

// ModuleBuilder assembles a small core module. Function indices follow the
// binary format: imports first, then defined functions, in call order.
type ModuleBuilder struct {
	types     []FuncType
	imports   []funcImport
	funcs     []funcDef
	data      []dataSegment
	memExport string
	memPages  uint32
	hasMemory bool
}

// NewModuleBuilder returns an empty builder.
func NewModuleBuilder() *ModuleBuilder {
	return &ModuleBuilder{}
}

// typeIndex interns a function type and returns its index.
func (b *ModuleBuilder) typeIndex(ft FuncType) uint32 {
	for i, t := range b.types {
		if valTypesEqual(t.Params, ft.Params) && valTypesEqual(t.Results, ft.Results) {
			return uint32(i)
		}
	}
	b.types = append(b.types, ft)
	return uint32(len(b.types) - 1)
}

func valTypesEqual(a, b []ValType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ImportFunc declares a function import and returns its function index.
// All imports must be declared before the first Func call.
func (b *ModuleBuilder) ImportFunc(module, name string, params, results []ValType) uint32 {
	idx := uint32(len(b.imports))
	b.imports = append(b.imports, funcImport{
		module:  module,
		name:    name,
		typeIdx: b.typeIndex(FuncType{Params: params, Results: results}),
	})
	return idx
}

// Func defines a function with no locals and returns its function index.
// The terminating end opcode is appended automatically. A non-empty export
// name exports the function under that name.
func (b *ModuleBuilder) Func(export string, params, results []ValType, body ...[]byte) uint32 {
	idx := uint32(len(b.imports) + len(b.funcs))
	var code []byte
	for _, part := range body {
		code = append(code, part...)
	}
	code = append(code, opEnd)
	b.funcs = append(b.funcs, funcDef{
		typeIdx: b.typeIndex(FuncType{Params: params, Results: results}),
		body:    code,
		export:  export,
	})
	return idx
}

// Memory declares a single linear memory of minPages pages, exported under
// exportName when non-empty.
func (b *ModuleBuilder) Memory(minPages uint32, exportName string) {
	b.hasMemory = true
	b.memPages = minPages
	b.memExport = exportName
}

// Data adds an active data segment at the given offset in memory 0.
func (b *ModuleBuilder) Data(offset uint32, data []byte) {
	b.data = append(b.data, dataSegment{offset: offset, data: data})
}

// Build encodes the module to binary format.
func (b *ModuleBuilder) Build() []byte {
	out := make([]byte, 0, 256)
	out = binary.LittleEndian.AppendUint32(out, Magic)
	out = binary.LittleEndian.AppendUint32(out, Version)

	// Type section
	if len(b.types) > 0 {
		sec := AppendUleb128(nil, uint64(len(b.types)))
		for _, ft := range b.types {
			sec = append(sec, funcTypeByte)
			sec = appendValTypes(sec, ft.Params)
			sec = appendValTypes(sec, ft.Results)
		}
		out = appendSection(out, SectionType, sec)
	}

	// Import section
	if len(b.imports) > 0 {
		sec := AppendUleb128(nil, uint64(len(b.imports)))
		for _, imp := range b.imports {
			sec = appendName(sec, imp.module)
			sec = appendName(sec, imp.name)
			sec = append(sec, KindFunc)
			sec = AppendUleb128(sec, uint64(imp.typeIdx))
		}
		out = appendSection(out, SectionImport, sec)
	}

	// Function section
	if len(b.funcs) > 0 {
		sec := AppendUleb128(nil, uint64(len(b.funcs)))
		for _, fn := range b.funcs {
			sec = AppendUleb128(sec, uint64(fn.typeIdx))
		}
		out = appendSection(out, SectionFunction, sec)
	}

	// Memory section
	if b.hasMemory {
		sec := AppendUleb128(nil, 1)
		sec = append(sec, 0x00) // limits: min only
		sec = AppendUleb128(sec, uint64(b.memPages))
		out = appendSection(out, SectionMemory, sec)
	}

	// Export section
	var exports [][2]any
	if b.hasMemory && b.memExport != "" {
		exports = append(exports, [2]any{b.memExport, [2]uint32{uint32(KindMemory), 0}})
	}
	for i, fn := range b.funcs {
		if fn.export != "" {
			idx := uint32(len(b.imports) + i)
			exports = append(exports, [2]any{fn.export, [2]uint32{uint32(KindFunc), idx}})
		}
	}
	if len(exports) > 0 {
		sec := AppendUleb128(nil, uint64(len(exports)))
		for _, e := range exports {
			sec = appendName(sec, e[0].(string))
			kindIdx := e[1].([2]uint32)
			sec = append(sec, byte(kindIdx[0]))
			sec = AppendUleb128(sec, uint64(kindIdx[1]))
		}
		out = appendSection(out, SectionExport, sec)
	}

	// Code section
	if len(b.funcs) > 0 {
		sec := AppendUleb128(nil, uint64(len(b.funcs)))
		for _, fn := range b.funcs {
			body := AppendUleb128(nil, 0) // no locals
			body = append(body, fn.body...)
			sec = AppendUleb128(sec, uint64(len(body)))
			sec = append(sec, body...)
		}
		out = appendSection(out, SectionCode, sec)
	}

	// Data section
	if len(b.data) > 0 {
		sec := AppendUleb128(nil, uint64(len(b.data)))
		for _, seg := range b.data {
			sec = append(sec, 0x00) // active, memory 0
			sec = append(sec, opI32Const)
			sec = AppendSleb128(sec, int64(int32(seg.offset)))
			sec = append(sec, opEnd)
			sec = AppendUleb128(sec, uint64(len(seg.data)))
			sec = append(sec, seg.data...)
		}
		out = appendSection(out, SectionData, sec)
	}

	return out
}

func appendSection(dst []byte, id byte, contents []byte) []byte {
	dst = append(dst, id)
	dst = AppendUleb128(dst, uint64(len(contents)))
	return append(dst, contents...)
}

func appendName(dst []byte, name string) []byte {
	dst = AppendUleb128(dst, uint64(len(name)))
	return append(dst, name...)
}

func appendValTypes(dst []byte, vts []ValType) []byte {
	dst = AppendUleb128(dst, uint64(len(vts)))
	for _, vt := range vts {
		dst = append(dst, byte(vt))
	}
	return dst
}

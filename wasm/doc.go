// Package wasm provides minimal WebAssembly binary format primitives.
//
// The package covers exactly what the shell needs: sniffing the \0asm header
// before handing an artifact to the engine, and constructing small core
// modules in memory. The ModuleBuilder exists mainly for tests, which build
// guest plugins against the published ABI without any external toolchain:
//
//	b := wasm.NewModuleBuilder()
//	log := b.ImportFunc("plugsh:host", "log",
//		[]wasm.ValType{wasm.ValI32, wasm.ValI32, wasm.ValI32}, nil)
//	b.Memory(1, "memory")
//	b.Data(1024, []byte(`{"name":"demo"}`))
//	b.Func("init", nil, []wasm.ValType{wasm.ValI64},
//		wasm.I64Const(1024<<32|15))
//	bin := b.Build()
//
// Only the sections required for such guests are supported: type, import,
// function, memory, export, code and data. No validation is performed beyond
// what the builder's own bookkeeping implies; feeding the output to an engine
// is the test.
package wasm

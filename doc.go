// Package plugsh defines the host capability interface shared by the shell
// and its WASM plugins.
//
// plugsh is an interactive command shell whose command set can be extended at
// runtime by loading untrusted, sandboxed WASM plugins. The repository is
// organized into packages with distinct responsibilities:
//
//	plugsh/          Root package with the host/guest ABI contract
//	├── engine/      Sandbox runtime built on wazero
//	├── plugin/      Per-plugin host and the plugin registry
//	├── shell/       Command registry, dispatcher and builtins
//	├── wasm/        Minimal WASM binary construction for fixtures
//	├── errors/      Structured error types for debugging
//	└── cmd/plugsh/  Shell entrypoint (plain REPL and TUI mode)
//
// # ABI contract
//
// A plugin is a core WASM module. The guest exports:
//
//   - memory                           linear memory
//   - init() -> u64                    packed ptr/len of PluginInfo JSON
//   - run_command(ptr: i32, len: i32)  JSON {"name": ..., "args": [...]}
//   - alloc(size: i32) -> i32          allocate guest memory for host writes
//   - free(ptr: i32, size: i32)        optional, may be a no-op
//
// The host exports capability functions under the "plugsh:host" module:
//
//   - log(level: i32, ptr: i32, len: i32)
//   - define_cmd(6 x i32 ptr/len pairs: name, usage, description)
//
// init is called exactly once per instance, before any other call.
// run_command calls are never concurrent for the same instance. Guests never
// receive a reference back to the shell; the only host surface is the
// Capabilities interface carried through context.Context.
//
// All strings crossing the boundary are UTF-8. The packed u64 convention is
// (ptr << 32) | len.
package plugsh

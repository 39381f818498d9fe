package engine

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/plugsh/plugsh"
	"github.com/plugsh/plugsh/errors"
	"github.com/plugsh/plugsh/wasm"
)

// Engine owns a process-wide, thread-safe, reusable wazero runtime.
type Engine struct {
	runtime      wazero.Runtime
	hostInitMu   sync.Mutex
	hostInitDone atomic.Bool
}

// Config holds configuration for engine creation
type Config struct {
	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means the wazero default (65536 pages = 4GB).
	// 256 = 16MB, 1024 = 64MB, 4096 = 256MB
	MemoryLimitPages uint32
}

// New creates an engine with default configuration.
func New(ctx context.Context) *Engine {
	return NewWithConfig(ctx, nil)
}

// NewWithConfig creates an engine with custom configuration.
func NewWithConfig(ctx context.Context, cfg *Config) *Engine {
	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg != nil && cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	return &Engine{runtime: wazero.NewRuntimeWithConfig(ctx, runtimeCfg)}
}

// Compile validates and compiles a binary artifact into an instantiable
// Module. Compilation is engine-wide work; no instance state is created.
func (e *Engine) Compile(ctx context.Context, wasmBytes []byte) (*Module, error) {
	if !wasm.IsModule(wasmBytes) {
		return nil, errors.CompileFailed("not a WebAssembly module", nil)
	}

	compiled, err := e.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, errors.CompileFailed("compile module", err)
	}

	return &Module{engine: e, compiled: compiled}, nil
}

// Close releases all engine resources. All instances become unusable.
func (e *Engine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// ensureHostModule instantiates the capability host module once per engine.
// Safe for concurrent callers; later calls are no-ops.
func (e *Engine) ensureHostModule(ctx context.Context) error {
	if e.hostInitDone.Load() {
		return nil
	}

	e.hostInitMu.Lock()
	defer e.hostInitMu.Unlock()

	if e.hostInitDone.Load() {
		return nil
	}

	if e.runtime.Module(plugsh.HostModule) != nil {
		e.hostInitDone.Store(true)
		return nil
	}

	if err := instantiateHostModule(ctx, e.runtime); err != nil {
		return errors.LinkFailed(err)
	}

	e.hostInitDone.Store(true)
	return nil
}

// Module is a compiled WASM module, instantiable any number of times.
type Module struct {
	engine   *Engine
	compiled wazero.CompiledModule
}

// Instantiate creates a new Instance with its own isolated store. The guest
// start function (if any) runs here; a trap during start-up fails the
// instantiation.
func (m *Module) Instantiate(ctx context.Context) (*Instance, error) {
	if err := m.engine.ensureHostModule(ctx); err != nil {
		return nil, err
	}

	// Anonymous module name so repeated instantiations never collide.
	mod, err := m.engine.runtime.InstantiateModule(ctx, m.compiled,
		wazero.NewModuleConfig().WithName(""))
	if err != nil {
		return nil, errors.Instantiation(err)
	}

	inst := &Instance{module: mod}
	if alloc := mod.ExportedFunction(plugsh.ExportAlloc); alloc != nil {
		inst.allocFn = alloc
	}
	if free := mod.ExportedFunction(plugsh.ExportFree); free != nil {
		inst.freeFn = free
	}
	return inst, nil
}

// Close releases the compiled module.
func (m *Module) Close(ctx context.Context) error {
	return m.compiled.Close(ctx)
}

// Instance is a running sandbox. It is NOT safe for concurrent use; the
// dispatcher serializes all calls into one instance.
type Instance struct {
	module  api.Module
	allocFn api.Function
	freeFn  api.Function
}

// Func returns an exported guest function, or nil.
func (i *Instance) Func(name string) api.Function {
	return i.module.ExportedFunction(name)
}

// HasMemory reports whether the guest exports linear memory.
func (i *Instance) HasMemory() bool {
	return i.module.Memory() != nil
}

// ReadMemory copies length bytes at offset out of guest linear memory.
func (i *Instance) ReadMemory(offset, length uint32) ([]byte, error) {
	if i.module.Memory() == nil {
		return nil, errors.MissingExport(plugsh.ExportMemory)
	}
	data, ok := i.module.Memory().Read(offset, length)
	if !ok {
		return nil, errors.MemoryFault("guest memory read out of bounds")
	}
	// The view aliases guest memory; copy before the guest can touch it again.
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// WriteString allocates guest memory via the guest's alloc export and copies
// data into it. The returned pointer is owned by the guest.
func (i *Instance) WriteString(ctx context.Context, data []byte) (uint32, error) {
	if i.allocFn == nil {
		return 0, errors.MissingExport(plugsh.ExportAlloc)
	}
	if i.module.Memory() == nil {
		return 0, errors.MissingExport(plugsh.ExportMemory)
	}

	results, err := i.allocFn.Call(ctx, uint64(len(data)))
	if err != nil {
		return 0, errors.AllocFailed(err)
	}
	if len(results) == 0 {
		return 0, errors.AllocFailed(nil)
	}

	ptr := uint32(results[0])
	if !i.module.Memory().Write(ptr, data) {
		return 0, errors.MemoryFault("guest memory write out of bounds")
	}
	return ptr, nil
}

// Free returns guest memory obtained from WriteString. Best effort: guests
// may omit the free export or implement it as a no-op.
func (i *Instance) Free(ctx context.Context, ptr, size uint32) {
	if i.freeFn == nil || ptr == 0 {
		return
	}
	if _, err := i.freeFn.Call(ctx, uint64(ptr), uint64(size)); err != nil {
		Logger().Warn("guest free failed",
			zap.Uint32("ptr", ptr),
			zap.Uint32("size", size),
			zap.Error(err))
	}
}

// Close tears down the instance and its store.
func (i *Instance) Close(ctx context.Context) error {
	return i.module.Close(ctx)
}

package plugin

import (
	"context"
	"encoding/json"
	"os"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/plugsh/plugsh"
	"github.com/plugsh/plugsh/engine"
	"github.com/plugsh/plugsh/errors"
)

// Host owns one instantiated sandbox (module + isolated store) and mediates
// ABI calls. The store persists across calls, so guest-internal state
// survives between commands issued to the same plugin.
type Host struct {
	path     string
	name     string
	instance *engine.Instance
	initFn   api.Function
	runFn    api.Function
	initDone bool
}

// New compiles the artifact at path and instantiates a fresh sandbox for it.
// Failures are classified: file not found, compile, link, instantiation.
func New(ctx context.Context, eng *engine.Engine, path string) (*Host, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.FileNotFound(path, err)
	}

	mod, err := eng.Compile(ctx, data)
	if err != nil {
		return nil, err
	}

	inst, err := mod.Instantiate(ctx)
	if err != nil {
		return nil, err
	}

	h := &Host{path: path, instance: inst}
	if h.initFn = inst.Func(plugsh.ExportInit); h.initFn == nil {
		inst.Close(ctx)
		return nil, errors.MissingExport(plugsh.ExportInit)
	}
	if h.runFn = inst.Func(plugsh.ExportRunCommand); h.runFn == nil {
		inst.Close(ctx)
		return nil, errors.MissingExport(plugsh.ExportRunCommand)
	}
	if !inst.HasMemory() {
		inst.Close(ctx)
		return nil, errors.MissingExport(plugsh.ExportMemory)
	}
	return h, nil
}

// Path returns the artifact path this host was loaded from.
func (h *Host) Path() string {
	return h.path
}

// CallInit invokes the guest init entry point. It must be called exactly
// once, before any CallRunCommand. A trap or malformed result is fatal to
// this load attempt only; the caller discards the host.
func (h *Host) CallInit(ctx context.Context, caps plugsh.Capabilities) (plugsh.PluginInfo, error) {
	var info plugsh.PluginInfo

	if h.initDone {
		return info, errors.InitInvalid("init already called on this instance")
	}

	results, err := h.initFn.Call(plugsh.WithCapabilities(ctx, caps))
	if err != nil {
		return info, errors.InitFailed("guest init trapped", err)
	}
	if len(results) == 0 {
		return info, errors.InitInvalid("init returned no value")
	}

	ptr, length := plugsh.UnpackPtrLen(results[0])
	raw, err := h.instance.ReadMemory(ptr, length)
	if err != nil {
		return info, errors.InitInvalid("init result outside guest memory")
	}
	if err := json.Unmarshal(raw, &info); err != nil {
		return info, errors.InitFailed("malformed PluginInfo", err)
	}
	if info.Name == "" {
		return info, errors.InitInvalid("plugin name must be non-empty")
	}

	h.initDone = true
	h.name = info.Name
	engine.Logger().Debug("plugin initialized",
		zap.String("plugin", info.Name),
		zap.String("version", info.Version),
		zap.Int("commands", len(info.Commands)))
	return info, nil
}

// CallRunCommand forwards one dispatched command into the guest, blocking
// until it returns. Any trap is converted into a reported error; the
// instance stays usable for subsequent calls.
func (h *Host) CallRunCommand(ctx context.Context, caps plugsh.Capabilities, name string, args []string) error {
	if args == nil {
		args = []string{}
	}
	payload, err := json.Marshal(plugsh.CommandCall{Name: name, Args: args})
	if err != nil {
		return errors.CommandTrap(h.name, name, err)
	}

	ctx = plugsh.WithCapabilities(ctx, caps)

	ptr, err := h.instance.WriteString(ctx, payload)
	if err != nil {
		return errors.CommandTrap(h.name, name, err)
	}
	defer h.instance.Free(ctx, ptr, uint32(len(payload)))

	if _, err := h.runFn.Call(ctx, uint64(ptr), uint64(len(payload))); err != nil {
		return errors.CommandTrap(h.name, name, err)
	}
	return nil
}

// Close tears down the sandbox. Only used for discarded load attempts; a
// registered host lives until process exit.
func (h *Host) Close(ctx context.Context) error {
	return h.instance.Close(ctx)
}

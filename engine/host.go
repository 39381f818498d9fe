package engine

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/plugsh/plugsh"
)

// instantiateHostModule registers every host capability function under
// plugsh.HostModule so guest imports are satisfiable. The functions resolve
// their Capabilities receiver from the call context; host functions are
// synchronous, non-blocking, and never re-enter the dispatcher.
func instantiateHostModule(ctx context.Context, runtime wazero.Runtime) error {
	_, err := runtime.NewHostModuleBuilder(plugsh.HostModule).
		NewFunctionBuilder().WithFunc(hostLog).Export(plugsh.HostFuncLog).
		NewFunctionBuilder().WithFunc(hostDefineCmd).Export(plugsh.HostFuncDefineCmd).
		Instantiate(ctx)
	return err
}

// hostLog implements log(level: i32, ptr: i32, len: i32).
// It cannot fail observably to the guest: bad input is dropped.
func hostLog(ctx context.Context, mod api.Module, level, ptr, length uint32) {
	caps := plugsh.CapabilitiesFromContext(ctx)
	if caps == nil {
		Logger().Debug("guest log with no capability receiver")
		return
	}

	msg, ok := readGuestString(mod, ptr, length)
	if !ok {
		Logger().Warn("guest log message out of bounds",
			zap.Uint32("ptr", ptr), zap.Uint32("len", length))
		return
	}

	lvl := plugsh.Level(level)
	if !lvl.Valid() {
		lvl = plugsh.LevelInfo
	}
	caps.Log(lvl, msg)
}

// hostDefineCmd implements the legacy define_cmd(name, usage, description)
// import, three ptr/len string pairs.
func hostDefineCmd(ctx context.Context, mod api.Module,
	namePtr, nameLen, usagePtr, usageLen, descPtr, descLen uint32) {

	caps := plugsh.CapabilitiesFromContext(ctx)
	if caps == nil {
		Logger().Debug("guest define_cmd with no capability receiver")
		return
	}

	name, okN := readGuestString(mod, namePtr, nameLen)
	usage, okU := readGuestString(mod, usagePtr, usageLen)
	desc, okD := readGuestString(mod, descPtr, descLen)
	if !okN || !okU || !okD {
		Logger().Warn("guest define_cmd arguments out of bounds")
		return
	}

	caps.DefineCommand(name, usage, desc)
}

func readGuestString(mod api.Module, ptr, length uint32) (string, bool) {
	data, ok := mod.Memory().Read(ptr, length)
	if !ok {
		return "", false
	}
	return string(data), true
}

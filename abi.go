package plugsh

import "context"

// HostModule is the import module name guests use for capability functions.
const HostModule = "plugsh:host"

// Guest export names required by the ABI.
const (
	ExportMemory     = "memory"
	ExportInit       = "init"
	ExportRunCommand = "run_command"
	ExportAlloc      = "alloc"
	ExportFree       = "free"
)

// Host capability function names under HostModule.
const (
	HostFuncLog       = "log"
	HostFuncDefineCmd = "define_cmd"
)

// Level is the severity of a guest log message.
type Level uint32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// Valid reports whether l is one of the four defined levels.
func (l Level) Valid() bool {
	return l <= LevelError
}

// CommandDecl is one command declared by a plugin.
type CommandDecl struct {
	Name        string `json:"name"`
	Usage       string `json:"usage"`
	Description string `json:"description"`
}

// PluginInfo is the result of a successful init call. It is produced once
// and immutable thereafter.
type PluginInfo struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Version     string        `json:"version"`
	Commands    []CommandDecl `json:"commands"`
}

// CommandCall is the run_command payload.
type CommandCall struct {
	Name string   `json:"name"`
	Args []string `json:"args"`
}

// Capabilities is the narrow host surface a guest can call back into.
// Implementations must not block, suspend, or re-enter the dispatcher.
type Capabilities interface {
	// Log renders a guest message tagged with its level. It cannot fail
	// observably to the guest.
	Log(level Level, message string)

	// DefineCommand imperatively appends one command declaration. Legacy
	// path, honored during init only; the declarative Commands list
	// returned from init is primary.
	DefineCommand(name, usage, description string)
}

// PackPtrLen packs a guest pointer and length into the ABI's u64 return
// convention.
func PackPtrLen(ptr, length uint32) uint64 {
	return uint64(ptr)<<32 | uint64(length)
}

// UnpackPtrLen splits a packed u64 into pointer and length.
func UnpackPtrLen(packed uint64) (ptr, length uint32) {
	return uint32(packed >> 32), uint32(packed)
}

type capsKey struct{}

// WithCapabilities returns a context carrying the capability receiver for
// host functions invoked during a guest call.
func WithCapabilities(ctx context.Context, caps Capabilities) context.Context {
	return context.WithValue(ctx, capsKey{}, caps)
}

// CapabilitiesFromContext returns the capability receiver installed by
// WithCapabilities, or nil.
func CapabilitiesFromContext(ctx context.Context) Capabilities {
	caps, _ := ctx.Value(capsKey{}).(Capabilities)
	return caps
}

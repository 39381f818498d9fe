// Package guesttest builds small guest plugins against the published ABI so
// package tests can exercise real loads without an external toolchain.
package guesttest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/plugsh/plugsh"
	"github.com/plugsh/plugsh/wasm"
)

// Guest memory layout used by the fixtures.
const (
	infoOffset   = 1024
	legacyOffset = 2048
	allocOffset  = 8192
)

// Guest describes one fixture plugin. The zero value builds a guest whose
// init returns Info and whose run_command echoes its JSON payload back
// through the log capability at RunLevel.
type Guest struct {
	Info plugsh.PluginInfo

	// RawInfo overrides the JSON produced from Info, for malformed-result
	// fixtures.
	RawInfo []byte

	// LegacyCmd, when set, is declared imperatively via define_cmd during
	// init instead of the declarative commands list.
	LegacyCmd *plugsh.CommandDecl

	// RunLevel is the level run_command echoes at. Defaults to LevelInfo.
	RunLevel plugsh.Level

	TrapInit bool
	TrapRun  bool
}

// Build encodes the guest module.
func (g Guest) Build() []byte {
	info := g.RawInfo
	if info == nil {
		var err error
		info, err = json.Marshal(g.Info)
		if err != nil {
			panic(err)
		}
	}

	b := wasm.NewModuleBuilder()
	sig3 := []wasm.ValType{wasm.ValI32, wasm.ValI32, wasm.ValI32}
	logIdx := b.ImportFunc(plugsh.HostModule, plugsh.HostFuncLog, sig3, nil)

	var defineIdx uint32
	if g.LegacyCmd != nil {
		defineIdx = b.ImportFunc(plugsh.HostModule, plugsh.HostFuncDefineCmd,
			[]wasm.ValType{wasm.ValI32, wasm.ValI32, wasm.ValI32, wasm.ValI32, wasm.ValI32, wasm.ValI32}, nil)
	}

	b.Memory(1, plugsh.ExportMemory)
	b.Data(infoOffset, info)

	// init() -> u64 packed ptr/len of the info JSON
	if g.TrapInit {
		b.Func(plugsh.ExportInit, nil, []wasm.ValType{wasm.ValI64}, wasm.Unreachable())
	} else {
		var body [][]byte
		if g.LegacyCmd != nil {
			name, usage, desc := g.LegacyCmd.Name, g.LegacyCmd.Usage, g.LegacyCmd.Description
			blob := name + usage + desc
			b.Data(legacyOffset, []byte(blob))
			nameOff := int32(legacyOffset)
			usageOff := nameOff + int32(len(name))
			descOff := usageOff + int32(len(usage))
			body = append(body,
				wasm.I32Const(nameOff), wasm.I32Const(int32(len(name))),
				wasm.I32Const(usageOff), wasm.I32Const(int32(len(usage))),
				wasm.I32Const(descOff), wasm.I32Const(int32(len(desc))),
				wasm.Call(defineIdx))
		}
		packed := int64(plugsh.PackPtrLen(infoOffset, uint32(len(info))))
		body = append(body, wasm.I64Const(packed))
		b.Func(plugsh.ExportInit, nil, []wasm.ValType{wasm.ValI64}, body...)
	}

	// run_command(ptr, len) echoes the payload through log
	if g.TrapRun {
		b.Func(plugsh.ExportRunCommand, []wasm.ValType{wasm.ValI32, wasm.ValI32}, nil,
			wasm.Unreachable())
	} else {
		level := g.RunLevel
		if level == plugsh.LevelDebug {
			level = plugsh.LevelInfo
		}
		b.Func(plugsh.ExportRunCommand, []wasm.ValType{wasm.ValI32, wasm.ValI32}, nil,
			wasm.I32Const(int32(level)),
			wasm.LocalGet(0),
			wasm.LocalGet(1),
			wasm.Call(logIdx))
	}

	// Single-shot bump allocator; one host write per guest call.
	b.Func(plugsh.ExportAlloc, []wasm.ValType{wasm.ValI32}, []wasm.ValType{wasm.ValI32},
		wasm.I32Const(allocOffset))
	b.Func(plugsh.ExportFree, []wasm.ValType{wasm.ValI32, wasm.ValI32}, nil)

	return b.Build()
}

// WriteFile builds the guest and writes it under dir, returning the path.
func (g Guest) WriteFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, g.Build(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// Greeter is the canonical demo fixture: one "hello" command.
func Greeter() Guest {
	return Guest{
		Info: plugsh.PluginInfo{
			Name:        "greeter",
			Description: "Says hello in several languages",
			Version:     "0.1.0",
			Commands: []plugsh.CommandDecl{
				{Name: "hello", Usage: "hello <language>", Description: "Says hello in the given language"},
			},
		},
	}
}

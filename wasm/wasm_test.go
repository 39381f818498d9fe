package wasm

import (
	"bytes"
	"testing"
)

func TestAppendUleb128(t *testing.T) {
	tests := []struct {
		v    uint64
		want []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7f}},
		{128, []byte{0x80, 0x01}},
		{624485, []byte{0xe5, 0x8e, 0x26}},
	}

	for _, tt := range tests {
		got := AppendUleb128(nil, tt.v)
		if !bytes.Equal(got, tt.want) {
			t.Errorf("AppendUleb128(%d) = %x, want %x", tt.v, got, tt.want)
		}
	}
}

func TestAppendSleb128(t *testing.T) {
	tests := []struct {
		v    int64
		want []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{-1, []byte{0x7f}},
		{63, []byte{0x3f}},
		{64, []byte{0xc0, 0x00}},
		{-64, []byte{0x40}},
		{-123456, []byte{0xc0, 0xbb, 0x78}},
	}

	for _, tt := range tests {
		got := AppendSleb128(nil, tt.v)
		if !bytes.Equal(got, tt.want) {
			t.Errorf("AppendSleb128(%d) = %x, want %x", tt.v, got, tt.want)
		}
	}
}

func TestIsModule(t *testing.T) {
	b := NewModuleBuilder()
	b.Func("noop", nil, nil)
	bin := b.Build()

	if !IsModule(bin) {
		t.Error("built module not recognized by IsModule")
	}
	if IsModule([]byte("not wasm at all")) {
		t.Error("IsModule accepted garbage")
	}
	if IsModule(bin[:4]) {
		t.Error("IsModule accepted truncated header")
	}
}

func TestModuleBuilder_Sections(t *testing.T) {
	b := NewModuleBuilder()
	logIdx := b.ImportFunc("plugsh:host", "log", []ValType{ValI32, ValI32, ValI32}, nil)
	b.Memory(1, "memory")
	b.Data(1024, []byte(`{"name":"demo"}`))
	b.Func("init", nil, []ValType{ValI64}, I64Const(1024<<32|15))
	b.Func("run_command", []ValType{ValI32, ValI32}, nil,
		I32Const(1), LocalGet(0), LocalGet(1), Call(logIdx))

	bin := b.Build()

	if !IsModule(bin) {
		t.Fatal("invalid module header")
	}
	for _, name := range []string{"plugsh:host", "log", "memory", "init", "run_command"} {
		if !bytes.Contains(bin, []byte(name)) {
			t.Errorf("encoded module does not contain name %q", name)
		}
	}

	// Section IDs must appear in increasing order after the 8-byte header.
	var order []byte
	pos := 8
	for pos < len(bin) {
		id := bin[pos]
		order = append(order, id)
		pos++
		size, n := readUleb(bin[pos:])
		pos += n + int(size)
	}
	want := []byte{SectionType, SectionImport, SectionFunction, SectionMemory, SectionExport, SectionCode, SectionData}
	if !bytes.Equal(order, want) {
		t.Errorf("section order = %v, want %v", order, want)
	}
}

func TestTypeInterning(t *testing.T) {
	b := NewModuleBuilder()
	b.Func("a", []ValType{ValI32}, nil, Drop())
	b.Func("b", []ValType{ValI32}, nil, Drop())
	if len(b.types) != 1 {
		t.Errorf("identical signatures interned to %d types, want 1", len(b.types))
	}
}

func readUleb(b []byte) (uint64, int) {
	var v uint64
	var shift uint
	for i, c := range b {
		v |= uint64(c&0x7f) << shift
		if c&0x80 == 0 {
			return v, i + 1
		}
		shift += 7
	}
	return v, len(b)
}

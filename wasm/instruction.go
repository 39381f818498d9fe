package wasm

// Instruction helpers for composing function bodies. Each helper returns the
// encoded bytes for one instruction; pass them to ModuleBuilder.Func in
// execution order.

// I32Const pushes a 32-bit integer constant.
func I32Const(v int32) []byte {
	return AppendSleb128([]byte{opI32Const}, int64(v))
}

// I64Const pushes a 64-bit integer constant.
func I64Const(v int64) []byte {
	return AppendSleb128([]byte{opI64Const}, v)
}

// LocalGet pushes local variable i.
func LocalGet(i uint32) []byte {
	return AppendUleb128([]byte{opLocalGet}, uint64(i))
}

// Call invokes the function at index idx.
func Call(idx uint32) []byte {
	return AppendUleb128([]byte{opCall}, uint64(idx))
}

// Unreachable traps immediately.
func Unreachable() []byte {
	return []byte{opUnreachable}
}

// Drop discards the top of the stack.
func Drop() []byte {
	return []byte{opDrop}
}

// Return exits the current function.
func Return() []byte {
	return []byte{opReturn}
}

package wasm

// WebAssembly binary format magic number and version.
const (
	// Magic is the WebAssembly binary magic number ("\0asm" in little-endian).
	Magic uint32 = 0x6D736100

	// Version is the supported WebAssembly binary format version.
	Version uint32 = 0x01
)

// Section IDs for the module sections the builder emits.
// Sections must appear in increasing order by ID.
const (
	SectionType     byte = 1  // Type section (function signatures)
	SectionImport   byte = 2  // Import section
	SectionFunction byte = 3  // Function section (type indices)
	SectionMemory   byte = 5  // Memory section
	SectionExport   byte = 7  // Export section
	SectionCode     byte = 10 // Code section (function bodies)
	SectionData     byte = 11 // Data section
)

// Import/export descriptor kinds.
const (
	KindFunc   byte = 0
	KindMemory byte = 2
)

// ValType is a value type encoding as defined in the binary format.
type ValType byte

const (
	ValI32 ValType = 0x7F
	ValI64 ValType = 0x7E
	ValF32 ValType = 0x7D
	ValF64 ValType = 0x7C
)

// funcTypeByte introduces a function type in the type section.
const funcTypeByte byte = 0x60

// Opcodes used by builder instruction helpers.
const (
	opUnreachable byte = 0x00
	opEnd         byte = 0x0B
	opReturn      byte = 0x0F
	opCall        byte = 0x10
	opDrop        byte = 0x1A
	opLocalGet    byte = 0x20
	opI32Const    byte = 0x41
	opI64Const    byte = 0x42
)

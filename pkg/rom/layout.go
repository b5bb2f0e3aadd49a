// Package rom generates the runtime ROM image (R): the fixed byte sequence
// containing the entry preamble, dispatch loop, BCD arithmetic subroutines,
// ACIA I/O, decimal printer, and (appended after padding) the compiled
// bytecode and its constant tables.
package rom

import "github.com/ajokela/kz80-bc/pkg/bcd"

// Memory layout. The emulator/target has protected ROM at 0x0000-0x1FFF;
// RAM is assumed to start at 0x8000 with the hardware stack growing down
// from 0xFFFF.
const (
	RuntimeSize  = 0x2000 // runtime is padded with NOP up to this size
	BytecodeOrg  = 0x2000 // bytecode begins immediately after the runtime
	StackTop     = 0xFFFF // Z80 hardware stack pointer at boot

	VMStateBase = 0x8000
	VMPC        = VMStateBase     // 2 bytes: bytecode program counter
	VMSP        = VMStateBase + 2 // 2 bytes: value-stack pointer
	VMScale     = VMStateBase + 4 // 1 byte
	VMIbase     = VMStateBase + 5 // 1 byte
	VMObase     = VMStateBase + 6 // 1 byte
	VMHeap      = VMStateBase + 8 // 2 bytes: bump heap pointer
	VMTemp      = VMStateBase + 10 // 2 bytes: scratch pointer
	VMTemp2     = VMStateBase + 12 // 2 bytes: a second scratch pointer
	VMTempB     = VMStateBase + 14 // 1 byte: scratch counter/flag

	// print_bcd's own scratch cells.
	PrintScale   = VMStateBase + 15 // 1 byte: the record's scale field
	PrintIntLen  = VMStateBase + 16 // 1 byte: Digits - scale
	PrintIndex   = VMStateBase + 17 // 1 byte: digit cursor, 0..49
	PrintPrinted = VMStateBase + 18 // 1 byte: has a leading digit been emitted yet

	// The BCD arithmetic subroutines' scratch cells (pkg/rom/bcd_arith.go).
	// Three live record pointers (operand a, operand b, destination) exceed
	// the Z80's three general register pairs once a byte index is also
	// needed, so the index and one pointer live in memory across the
	// per-byte loop instead of a register.
	ArithAPtr    = VMStateBase + 19 // 2 bytes
	ArithBPtr    = VMStateBase + 21 // 2 bytes
	ArithDestPtr = VMStateBase + 23 // 2 bytes
	ArithIndex   = VMStateBase + 25 // 1 byte: current packed-byte offset, 0..PackedBytes-1
	ArithCount   = VMStateBase + 26 // 1 byte: generic repeat counter (mul/div)
	ArithCountHi = VMStateBase + 27 // 1 byte: high byte of a 16-bit repeat counter

	// ConstZero/ConstOne each hold a full bcd.RecordSize in-memory record;
	// they must not overlap, so the next region starts a full RecordSize
	// (28 bytes) after the previous one.
	ConstZero = VMStateBase + 0x40          // canonical ZERO
	ConstOne  = ConstZero + constRecordSize // canonical ONE

	VarsBase = ConstOne + constRecordSize // 26 * 2 bytes of variable pointers, a..z

	DigitScratch = VarsBase + 0x40 // 50 one-digit-per-byte scratch cells for print_bcd

	VStackBase = DigitScratch + 0x40 // 64 entries * 2 bytes
	VStackSize = 128

	HeapStart = VStackBase + 0x100 // bump-allocated BCD numbers live here
)

// constRecordSize mirrors bcd.RecordSize without importing it into the
// untyped const block above (iota-free, so this keeps the block a plain
// const group of addresses).
const constRecordSize = bcd.RecordSize

// bcdDigits and bcdPackedBytes mirror bcd.Digits/bcd.PackedBytes under
// package-local names for use in emitted byte/immediate operands.
const (
	bcdDigits      = bcd.Digits
	bcdPackedBytes = bcd.PackedBytes
)

// Number format constants.
const (
	NumHeaderSize = bcd.HeaderSize // sign + length + scale
	MaxDigits     = 100            // the length byte is digit COUNT, not byte count; 2*bcd.Digits
	MaxNumSize    = bcd.ConstSize  // 53: 3-byte header + 50 packed bytes
)

// ACIA I/O ports.
const (
	AciaStatusPort = 0x80
	AciaDataPort   = 0x81
	AciaTxReadyBit = 0x02 // bit 1
	AciaRxReadyBit = 0x01 // bit 0
)

// Package repl generates a standalone, bytecode-free Z80 ROM: an
// interactive tokenizer + shunting-yard calculator over the same 28-byte
// packed-BCD record pkg/rom uses, with its own memory layout.
// Unlike pkg/rom, there is no compiled bytecode stream to dispatch — the
// whole read-eval-print loop is a single hand-written Z80 program.
package repl

import "github.com/ajokela/kz80-bc/pkg/bcd"

// Memory layout. A REPL ROM is self-contained and never combined with a
// pkg/rom image, but the address ranges are kept distinct anyway so the two
// generators read as clearly separate designs.
const (
	romOrg    = 0x0000
	entryJump = romOrg

	// runtimeSize is a generous upper bound on the emitted program,
	// checked by a bounds assertion in GenerateREPLROM before state is
	// laid out above it.
	runtimeSize = 0x1800
	stateBase   = 0x9000

	inputLine    = stateBase // 64-byte raw input buffer
	inputLineCap = 64

	// varsBase holds 27 inline 28-byte cells: a..z plus the pseudo-variable
	// `scale` at slot 26. Unlike pkg/rom's pointer-indirect variables,
	// assignment here copies bytes straight into the cell, so `scale`'s
	// cell and replScale below can be kept byte-synchronized without an
	// extra indirection.
	varsBase   = inputLine + inputLineCap
	varCount   = 27
	scaleSlot  = 26 // varsBase's cell index for the pseudo-variable `scale`
	recordSize = bcd.RecordSize // 28

	// Embedded ZERO/ONE literal records, copied into these fixed cells at
	// boot the same way pkg/rom's ConstZero/ConstOne work.
	constZero = varsBase + varCount*recordSize
	constOne  = constZero + recordSize

	replScale = constOne + recordSize // 1 byte: current `scale` setting, mirrors varsBase's scale cell

	valStack    = replScale + 1
	valStackCap = 16 // pointers
	opStack     = valStack + valStackCap*2
	opStackCap  = 16 // one byte per pending operator/paren

	scratch    = opStack + opStackCap
	tempA      = scratch      // 2-byte pointer scratch
	tempB      = scratch + 2  // 2-byte pointer scratch
	assignSlot = scratch + 4  // 1 byte: pending assignment target, slot+1; 0 = none
	valSP      = scratch + 5  // 2 bytes: next free value-stack slot, like pkg/rom's VMSP
	opTop      = scratch + 7  // 1 byte: count of bytes currently on the operator stack
	heapPtr    = scratch + 8  // 2 bytes: bump allocator cursor
	lineLen    = scratch + 10 // 1 byte: length of the line just read into inputLine
	scanPos    = scratch + 11 // 1 byte: current scan index into inputLine

	// arith* mirror pkg/rom's ArithAPtr/ArithBPtr/ArithDestPtr/ArithCount
	// scratch cells: the per-byte add/sub/mul/div loops need more live
	// pointers than the Z80's three register pairs hold at once.
	arithAPtr     = scratch + 12 // 2 bytes
	arithBPtr     = scratch + 14 // 2 bytes
	arithDestPtr  = scratch + 16 // 2 bytes
	arithTemp     = scratch + 18 // 2 bytes: shifted-copy / remainder pointer (mul/div)
	arithTemp2    = scratch + 20 // 2 bytes: divisor-magnitude pointer (div)
	arithCount    = scratch + 22 // 2 bytes: generic repeat counter (mul/div)
	arithCountHi  = scratch + 24 // 1 byte: per-digit repeat counter (mul)

	// print_bcd's own scratch cells, mirroring pkg/rom's PrintScale etc.
	printScale   = scratch + 25 // 1 byte: the record's scale field
	printIntLen  = scratch + 26 // 1 byte: Digits - scale
	printIndex   = scratch + 27 // 1 byte: digit cursor, 0..49
	printPrinted = scratch + 28 // 1 byte: has a leading digit been emitted yet

	// scan_and_eval's own scratch cells.
	numAcc     = scratch + 29 // 2 bytes: the number literal currently being accumulated
	scaleCount = scratch + 31 // 1 byte: fractional digits seen since a '.'
	sawDot     = scratch + 32 // 1 byte: 0/1, has this literal seen a '.'
	curOp      = scratch + 33 // 1 byte: operator byte stashed across a value-stack pop pair

	// emitInitVars' own scratch cells: the zero-fill loop walks varCount
	// cells via a memory cursor/counter rather than B/DJNZ, since each
	// iteration's LDIR already needs BC for the copy length.
	initVarsCursor = scratch + 34 // 2 bytes: address of the cell filled next
	initVarsCount  = scratch + 36 // 1 byte: cells remaining to fill

	digitScratch = scratch + 37 // bcd.Digits bytes, one decimal digit per byte (print unpack)
	heapStart    = digitScratch + bcd.Digits

	aciaStatusPort = 0x80
	aciaDataPort   = 0x81
	aciaTxReadyBit = 0x02
	aciaRxReadyBit = 0x01
)

const (
	firstPackedOffset = bcd.HeaderSize
	lastPackedOffset  = bcd.HeaderSize + bcd.PackedBytes - 1
)

// Package repl generates a standalone interactive Z80 ROM: a line-editing
// read-eval-print loop over the same packed-BCD records pkg/rom's compiled
// programs use, for boards that want a calculator rather than a bytecode
// target. Structured the way pkg/rom/rom.go lays out its own
// ROM image: entry preamble, state init, subroutines in dependency order,
// main loop last.
package repl

import (
	"fmt"

	"github.com/ajokela/kz80-bc/pkg/asm"
	"github.com/ajokela/kz80-bc/pkg/bcd"
)

const stackTop = 0xFFFF

// GenerateREPLROM produces a complete ROM image: the generated program
// padded to runtimeSize, followed by nothing else — a REPL ROM carries no
// bytecode or constant pool, its only data is the state it lays out at
// stateBase at runtime.
func GenerateREPLROM() ([]byte, error) {
	b := &builder{}
	b.generateREPL()

	if len(b.buf.Code) > runtimeSize {
		return nil, fmt.Errorf("repl: program grew to %d bytes, exceeds the %d-byte budget before stateBase", len(b.buf.Code), runtimeSize)
	}
	b.buf.PadWithNOP(runtimeSize, asm.OpNOP)

	code := make([]byte, len(b.buf.Code))
	copy(code, b.buf.Code)
	return code, nil
}

// generateREPL emits the entry preamble, every subroutine, the embedded
// ZERO/ONE data, and the read-eval-print loop.
func (b *builder) generateREPL() {
	buf := &b.buf

	buf.EmitOp(asm.OpDI)
	buf.EmitOp(asm.OpLdSPNN)
	buf.EmitU16LE(stackTop)

	b.emitInitState()

	// The embedded ZERO/ONE records must sit somewhere, but control flow
	// can't fall through them as instructions — skip over with a short
	// jump before emitInitConstants needs their now-fixed address.
	dataSkipPos := buf.JPPlaceholder(asm.OpJpNN)
	b.constDataAddr = uint16(buf.Len())
	zeroRec := bcd.Zero().Pack()
	oneRec := bcd.One().Pack()
	buf.EmitBytes(zeroRec[:]...)
	buf.EmitBytes(oneRec[:]...)
	_ = buf.PatchJP(dataSkipPos, uint16(buf.Len()))

	b.emitInitConstants()
	b.emitInitVars()

	initJumpPos := buf.JPPlaceholder(asm.OpJpNN) // patched once mainLoopAddr is known

	b.emitAciaOut()   // sets b.aciaOutAddr
	b.emitAciaIn()    // sets b.aciaInAddr
	b.emitPrintCRLF() // sets b.printCrlfAddr
	b.emitPrintBCD()  // sets b.printBCDAddr
	b.emitReadLine()  // sets b.readLineAddr

	b.emitAllocNumber() // sets b.allocNumAddr
	b.emitCopyNumber()  // sets b.copyNumAddr

	b.emitBCDNeg()    // sets b.bcdNegAddr; bcd_sub needs it before bcd_add/bcd_sub
	b.emitBCDCmpMag() // sets b.bcdCmpMagAddr; bcd_add and bcd_cmp both call it
	b.emitBCDAdd()    // sets b.bcdAddAddr
	b.emitBCDSub()    // sets b.bcdSubAddr; tail-calls into bcd_add
	b.emitBCDMul10()  // sets b.bcdMul10Addr; used by bcd_mul and scan_number
	b.emitBCDMul()    // sets b.bcdMulAddr
	b.emitBCDCmp()    // sets b.bcdCmpAddr; bcd_div's remainder-vs-divisor test calls it
	b.emitBCDDiv()    // sets b.bcdDivAddr; uses bcd_cmp and bcd_sub

	b.emitPushVal() // sets b.pushValAddr
	b.emitPopVal()  // sets b.popValAddr

	b.emitPushOpByte() // sets b.pushOpByteAddr
	b.emitPopOpByte()  // sets b.popOpByteAddr
	b.emitPeekOpByte() // sets b.peekOpByteAddr
	b.emitPrecedence() // sets b.precedenceAddr
	b.emitApplyTopOp() // sets b.applyTopOpAddr; uses bcd_add/sub/mul/div

	b.emitScanNumber()     // sets b.scanNumberAddr; uses bcd_mul10, alloc_number, copy_number
	b.emitIdentSlot()      // sets b.identSlotAddr; used by eval_expr and eval_line's assignment check
	b.emitVarCellAddr()    // sets b.varCellAddrAddr; used by push_var, eval_line's store, sync_repl_scale
	b.emitSyncReplScale()  // sets b.syncReplScaleAddr; uses var_cell_addr
	b.emitEvalExpr()       // sets b.evalExprAddr; uses ident_slot
	b.emitEvalLine()       // sets b.evalLineAddr; uses ident_slot, var_cell_addr, sync_repl_scale

	b.emitPrintLiteral("kz80bc calc\r\n")

	b.mainLoopAddr = uint16(buf.Len())
	b.emitPrintLiteral("> ")
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.readLineAddr)
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(lineLen)
	buf.EmitOp(asm.OpOrA)
	emptyLinePos := buf.JRPlaceholder(asm.OpJrZN) // empty line: re-prompt without evaluating
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.evalLineAddr)
	_ = buf.PatchJR(emptyLinePos)
	_ = buf.EmitJR(asm.OpJrN, int(b.mainLoopAddr))

	_ = buf.PatchJP(initJumpPos, b.mainLoopAddr)
}

// emitPrintLiteral emits an unrolled sequence of LD A,c / CALL acia_out for
// a short fixed string — a banner or prompt never changes, so there's no
// need for a runtime string table the way user Print statements would need
// one in the compiled path.
func (b *builder) emitPrintLiteral(s string) {
	buf := &b.buf
	for i := 0; i < len(s); i++ {
		buf.EmitOp(asm.OpLdAN)
		buf.EmitU8(s[i])
		buf.EmitOp(asm.OpCallNN)
		buf.EmitU16LE(b.aciaOutAddr)
	}
}

// emitInitState sets up replScale, valSP, opTop, and heapPtr, mirroring
// pkg/rom's emitInitVMState.
func (b *builder) emitInitState() {
	buf := &b.buf
	writeU16 := func(addr uint16, v uint16) {
		buf.EmitOp(asm.OpLdHLNN)
		buf.EmitU16LE(v)
		buf.EmitOp(asm.OpLdNNHL)
		buf.EmitU16LE(addr)
	}
	writeU8 := func(addr uint16, v uint8) {
		buf.EmitOp(asm.OpLdAN)
		buf.EmitU8(v)
		buf.EmitOp(asm.OpLdNNA)
		buf.EmitU16LE(addr)
	}

	writeU8(replScale, 0)
	writeU16(valSP, valStack)
	writeU8(opTop, 0)
	writeU16(heapPtr, heapStart)
}

// emitInitConstants block-copies the embedded ZERO/ONE records into their
// fixed RAM cells via LDIR, same as pkg/rom's emitInitConstants.
func (b *builder) emitInitConstants() {
	buf := &b.buf
	copyRecord := func(src, dst uint16) {
		buf.EmitOp(asm.OpLdHLNN)
		buf.EmitU16LE(src)
		buf.EmitOp(asm.OpLdDENN)
		buf.EmitU16LE(dst)
		buf.EmitOp(asm.OpLdBCNN)
		buf.EmitU16LE(bcd.RecordSize)
		buf.EmitED(asm.OpLDIR)
	}
	copyRecord(b.constDataAddr, constZero)
	copyRecord(b.constDataAddr+bcd.RecordSize, constOne)
}

// emitInitVars zero-fills every one of varsBase's 27 inline 28-byte cells
// (a..z plus the scale pseudo-variable) by LDIR-copying constZero's record
// into each in turn, so reading a variable the session never assigned to
// reads a well-formed zero instead of stray RAM. Unlike pkg/rom's pointer
// cells, DJNZ can't drive the outer loop here — each iteration's LDIR needs
// BC for the copy length — so the cell count and cursor live in memory.
func (b *builder) emitInitVars() {
	buf := &b.buf
	buf.EmitOp(asm.OpLdAN)
	buf.EmitU8(varCount)
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(initVarsCount)
	buf.EmitOp(asm.OpLdHLNN)
	buf.EmitU16LE(varsBase)
	buf.EmitOp(asm.OpLdNNHL)
	buf.EmitU16LE(initVarsCursor)

	loop := buf.Len()
	buf.EmitOp(asm.OpLdHLNN)
	buf.EmitU16LE(constZero)
	buf.EmitED(asm.OpLdDENNInd)
	buf.EmitU16LE(initVarsCursor)
	buf.EmitOp(asm.OpLdBCNN)
	buf.EmitU16LE(recordSize)
	buf.EmitED(asm.OpLDIR)
	// LDIR leaves DE one past the copied block — exactly the next cell.
	buf.EmitED(asm.OpLdNNDE)
	buf.EmitU16LE(initVarsCursor)

	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(initVarsCount)
	buf.EmitOp(asm.OpDecA)
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(initVarsCount)
	doneJump := buf.JRPlaceholder(asm.OpJrZN)
	_ = buf.EmitJR(asm.OpJrN, loop)
	_ = buf.PatchJR(doneJump)
}

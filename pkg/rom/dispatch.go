package rom

import (
	"github.com/ajokela/kz80-bc/pkg/asm"
	"github.com/ajokela/kz80-bc/pkg/isa"
)

// emitDispatchLoop emits the opcode-width lookup table (used by the
// fallthrough case below) followed by vm_loop: a linear fetch-decode chain.
// Each iteration fetches one opcode byte, advances VMPC past it, then
// CPs the byte against every required opcode in turn, JP Z'ing into that
// opcode's handler. A byte matching no required opcode — a reserved
// opcode the compiler never emits to a running program, or any other
// unassigned value — falls through to a generic handler that advances VMPC
// past that opcode's operand width (from the table) and resumes the loop,
// exactly as if it had been Nop.
func (b *builder) emitDispatchLoop(module *isa.CompiledModule) {
	buf := &b.buf

	b.opWidthTableAddr = uint16(buf.Len())
	var widths [256]byte
	for i := 0; i < 256; i++ {
		switch isa.Operand(isa.Op(i)) {
		case isa.U8Operand:
			widths[i] = 1
		case isa.U16Operand:
			widths[i] = 2
		default:
			widths[i] = 0
		}
	}
	buf.EmitBytes(widths[:]...)

	constBase := uint16(BytecodeOrg) + uint16(len(module.Bytecode))

	b.vmLoopAddr = uint16(buf.Len())
	buf.EmitOp(asm.OpLdHLNNInd)
	buf.EmitU16LE(VMPC)
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpIncHL)
	b.emitLdNNFromHL(VMPC)

	type branch struct {
		op  isa.Op
		pos int
	}
	var branches []branch
	emitBranch := func(op isa.Op) {
		buf.EmitOp(asm.OpCpN)
		buf.EmitU8(byte(op))
		pos := buf.JPPlaceholder(asm.OpJpZNN)
		branches = append(branches, branch{op, pos})
	}

	for _, op := range []isa.Op{
		isa.Halt, isa.Nop, isa.Pop, isa.Dup,
		isa.LoadZero, isa.LoadOne, isa.LoadNum,
		isa.LoadVar, isa.StoreVar,
		isa.Add, isa.Sub, isa.Mul, isa.Div, isa.Neg,
		isa.Eq, isa.Lt, isa.Gt,
		isa.Jump, isa.JumpIfZero, isa.JumpIfNotZero,
		isa.Print, isa.PrintNewline, isa.StoreScale,
	} {
		emitBranch(op)
	}

	// No required opcode matched: fall through to the generic handler.
	fallthroughPos := buf.JPPlaceholder(asm.OpJpNN)

	patch := func(op isa.Op) {
		for _, br := range branches {
			if br.op == op {
				_ = buf.PatchJP(br.pos, uint16(buf.Len()))
				return
			}
		}
	}

	// --- Halt ---
	patch(isa.Halt)
	buf.EmitOp(asm.OpHALT)

	// --- Nop ---
	patch(isa.Nop)
	buf.EmitOp(asm.OpJpNN)
	buf.EmitU16LE(b.vmLoopAddr)

	// --- Pop ---
	patch(isa.Pop)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.popVStackAddr)
	b.emitLoopBack()

	// --- Dup: pop the top pointer, push it back twice. push_vstack
	// preserves HL across the call, so HL still holds the same pointer
	// for the second push — both vstack slots end up aliasing the same
	// heap record, which is fine since every arithmetic op allocates a
	// fresh destination rather than mutating an operand in place. ---
	patch(isa.Dup)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.popVStackAddr)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.pushVStackAddr)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.pushVStackAddr)
	b.emitLoopBack()

	// --- LoadZero ---
	patch(isa.LoadZero)
	buf.EmitOp(asm.OpLdHLNN)
	buf.EmitU16LE(ConstZero)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.pushVStackAddr)
	b.emitLoopBack()

	// --- LoadOne ---
	patch(isa.LoadOne)
	buf.EmitOp(asm.OpLdHLNN)
	buf.EmitU16LE(ConstOne)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.pushVStackAddr)
	b.emitLoopBack()

	// --- LoadNum: u16 constant-table index; copy that constant onto a
	// fresh heap record (never alias the read-only constant table) and
	// push the new record's pointer. ---
	patch(isa.LoadNum)
	b.emitReadU16Operand() // DE = index
	b.emitMul53()          // HL = index*53, DE clobbered
	buf.EmitOp(asm.OpLdDENN)
	buf.EmitU16LE(constBase)
	buf.EmitOp(asm.OpAddHLDE) // HL = address of the Nth constant slot
	b.emitLdNNFromHL(VMTemp)  // VMTemp = src
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.allocNumAddr) // HL = dst
	b.emitLdNNFromHL(VMTemp2)     // VMTemp2 = dst
	buf.EmitOp(asm.OpExDEHL)
	b.emitLdHLFromNN(VMTemp)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.copyNumAddr) // src -> dst (HL/DE left past the block, unused)
	b.emitLdHLFromNN(VMTemp2)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.pushVStackAddr)
	b.emitLoopBack()

	// --- LoadVar: u8 slot; push the pointer stored at VarsBase+slot*2. ---
	patch(isa.LoadVar)
	b.emitReadU8Operand() // A = slot
	buf.EmitOp(asm.OpAddAA)
	buf.EmitOp(asm.OpLdLA)
	buf.EmitOp(asm.OpLdHN)
	buf.EmitU8(0)
	buf.EmitOp(asm.OpLdDENN)
	buf.EmitU16LE(VarsBase)
	buf.EmitOp(asm.OpAddHLDE)
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpLdEA)
	buf.EmitOp(asm.OpIncHL)
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpLdDA)
	buf.EmitOp(asm.OpExDEHL)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.pushVStackAddr)
	b.emitLoopBack()

	// --- StoreVar: u8 slot; pop a value pointer and store it at
	// VarsBase+slot*2. ---
	patch(isa.StoreVar)
	b.emitReadU8Operand()
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(VMTempB) // stash slot
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.popVStackAddr)
	buf.EmitOp(asm.OpExDEHL) // DE = value pointer
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(VMTempB)
	buf.EmitOp(asm.OpAddAA)
	buf.EmitOp(asm.OpLdLA)
	buf.EmitOp(asm.OpLdHN)
	buf.EmitU8(0)
	buf.EmitOp(asm.OpLdBCNN)
	buf.EmitU16LE(VarsBase)
	buf.EmitOp(asm.OpAddHLBC)
	buf.EmitOp(asm.OpLdAE)
	buf.EmitOp(asm.OpLdHLA)
	buf.EmitOp(asm.OpIncHL)
	buf.EmitOp(asm.OpLdAD)
	buf.EmitOp(asm.OpLdHLA)
	b.emitLoopBack()

	// --- Add/Sub/Mul/Div: pop b, pop a, call the routine (HL=a,DE=b), push
	// the result. ---
	for _, h := range []struct {
		op   isa.Op
		addr *uint16
	}{
		{isa.Add, &b.bcdAddAddr},
		{isa.Sub, &b.bcdSubAddr},
		{isa.Mul, &b.bcdMulAddr},
		{isa.Div, &b.bcdDivAddr},
	} {
		patch(h.op)
		b.emitBinaryArithOp(*h.addr)
		b.emitLoopBack()
	}

	// --- Neg: pop a, negate a fresh copy (never mutate a shared heap
	// record in place — the popped pointer may also be held by a
	// variable). Mirrors LoadNum's src/dst-stash pattern since copy_number
	// leaves neither register holding a reusable start-of-block pointer. ---
	patch(isa.Neg)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.popVStackAddr) // HL = a
	b.emitLdNNFromHL(VMTemp)       // VMTemp = src
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.allocNumAddr) // HL = dst
	b.emitLdNNFromHL(VMTemp2)     // VMTemp2 = dst
	buf.EmitOp(asm.OpExDEHL)
	b.emitLdHLFromNN(VMTemp)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.copyNumAddr) // src -> dst
	b.emitLdHLFromNN(VMTemp2)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.bcdNegAddr) // negate dst in place
	b.emitLdHLFromNN(VMTemp2)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.pushVStackAddr)
	b.emitLoopBack()

	// --- Eq/Lt/Gt: pop b, pop a, cmp(a,b), push the boolean as
	// ConstZero/ConstOne. ---
	patch(isa.Eq)
	b.emitCompareOp(0x00)
	b.emitLoopBack()
	patch(isa.Lt)
	b.emitCompareOp(0xFF)
	b.emitLoopBack()
	patch(isa.Gt)
	b.emitCompareOp(0x01)
	b.emitLoopBack()

	// --- Jump: u16 absolute bytecode offset. ---
	patch(isa.Jump)
	b.emitReadU16Operand() // DE = target offset
	buf.EmitOp(asm.OpLdHLNN)
	buf.EmitU16LE(BytecodeOrg)
	buf.EmitOp(asm.OpAddHLDE)
	b.emitLdNNFromHL(VMPC)
	b.emitLoopBack()

	// --- JumpIfZero / JumpIfNotZero ---
	patch(isa.JumpIfZero)
	b.emitConditionalJump(true)
	b.emitLoopBack()
	patch(isa.JumpIfNotZero)
	b.emitConditionalJump(false)
	b.emitLoopBack()

	// --- Print / PrintNewline ---
	patch(isa.Print)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.popVStackAddr)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.printNumAddr)
	b.emitLoopBack()
	patch(isa.PrintNewline)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.printCrlfAddr)
	b.emitLoopBack()

	// --- StoreScale: pop a BCD number; its last packed byte holds the
	// tens/ones digits of a value assumed to fit in 0..Digits. ---
	patch(isa.StoreScale)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.popVStackAddr)
	buf.EmitOp(asm.OpLdDENN)
	buf.EmitU16LE(lastPackedOffset)
	buf.EmitOp(asm.OpAddHLDE)
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpLdCA)
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(0x0F)
	buf.EmitOp(asm.OpLdBA) // B = ones digit
	buf.EmitOp(asm.OpLdAC)
	buf.EmitOp(asm.OpRRCA)
	buf.EmitOp(asm.OpRRCA)
	buf.EmitOp(asm.OpRRCA)
	buf.EmitOp(asm.OpRRCA)
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(0x0F) // A = tens digit
	buf.EmitOp(asm.OpAddAA)
	buf.EmitOp(asm.OpLdEA) // E = tens*2
	buf.EmitOp(asm.OpAddAA)
	buf.EmitOp(asm.OpAddAA) // A = tens*8
	buf.EmitOp(asm.OpAddAE) // A = tens*10
	buf.EmitOp(asm.OpAddAB) // A = tens*10 + ones
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(VMScale)
	b.emitLoopBack()

	// --- Fallthrough: reserved or unassigned opcode. A still holds the
	// opcode byte (untouched by the CP chain above). ---
	_ = buf.PatchJP(fallthroughPos, uint16(buf.Len()))
	buf.EmitOp(asm.OpLdHLNN)
	buf.EmitU16LE(b.opWidthTableAddr)
	buf.EmitOp(asm.OpLdEA)
	buf.EmitOp(asm.OpLdDN)
	buf.EmitU8(0)
	buf.EmitOp(asm.OpAddHLDE)
	buf.EmitOp(asm.OpLdAHL) // A = this opcode's operand width
	b.emitLdHLFromNN(VMPC)
	buf.EmitOp(asm.OpLdEA)
	buf.EmitOp(asm.OpLdDN)
	buf.EmitU8(0)
	buf.EmitOp(asm.OpAddHLDE)
	b.emitLdNNFromHL(VMPC)
	b.emitLoopBack()
}

// emitLoopBack emits an absolute JP back to vm_loop's start.
func (b *builder) emitLoopBack() {
	buf := &b.buf
	buf.EmitOp(asm.OpJpNN)
	buf.EmitU16LE(b.vmLoopAddr)
}

// emitReadU16Operand reads the 16-bit operand at (VMPC), advances VMPC past
// it, and leaves the value in DE.
func (b *builder) emitReadU16Operand() {
	buf := &b.buf
	b.emitLdHLFromNN(VMPC)
	buf.EmitOp(asm.OpLdEHL)
	buf.EmitOp(asm.OpIncHL)
	buf.EmitOp(asm.OpLdDHL)
	buf.EmitOp(asm.OpIncHL)
	b.emitLdNNFromHL(VMPC)
}

// emitReadU8Operand reads the 8-bit operand at (VMPC), advances VMPC past
// it, and leaves the value in A.
func (b *builder) emitReadU8Operand() {
	buf := &b.buf
	b.emitLdHLFromNN(VMPC)
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpIncHL)
	b.emitLdNNFromHL(VMPC)
}

// emitMul53 computes HL = DE*53 (53 = 32+16+4+1, the bits kept below), the
// on-disk constant stride bcd.ConstSize, using fixed shift-and-add since the
// multiplier is known at ROM-build time — no runtime bit-test loop needed.
// Z80 has no ADD DE,DE, so doubling DE runs through HL via EX DE,HL, and the
// running accumulator lives in VMTemp between doublings. Clobbers DE.
func (b *builder) emitMul53() {
	buf := &b.buf
	buf.EmitOp(asm.OpExDEHL) // HL = x (bit0: acc = x)
	b.emitLdNNFromHL(VMTemp)
	buf.EmitOp(asm.OpExDEHL) // DE = x again, HL free for doubling

	double := func() {
		buf.EmitOp(asm.OpExDEHL)
		buf.EmitOp(asm.OpAddHLHL)
		buf.EmitOp(asm.OpExDEHL)
	}
	accumulate := func() {
		b.emitLdHLFromNN(VMTemp)
		buf.EmitOp(asm.OpAddHLDE)
		b.emitLdNNFromHL(VMTemp)
	}

	double()       // DE = 2x   (bit1, unset)
	double()       // DE = 4x   (bit2, set)
	accumulate()
	double()       // DE = 8x   (bit3, unset)
	double()       // DE = 16x  (bit4, set)
	accumulate()
	double()       // DE = 32x  (bit5, set)
	accumulate()

	b.emitLdHLFromNN(VMTemp) // HL = acc = 53x
}

// emitBinaryArithOp pops b then a (HL=a, DE=b per every bcd_* routine's
// convention), calls the routine at addr, and pushes the result.
func (b *builder) emitBinaryArithOp(addr uint16) {
	buf := &b.buf
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.popVStackAddr) // HL = b
	buf.EmitOp(asm.OpExDEHL)       // DE = b
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.popVStackAddr) // HL = a
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(addr)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.pushVStackAddr)
}

// emitCompareOp pops b then a, calls bcd_cmp, and pushes ConstOne if the
// result equals match, else ConstZero.
func (b *builder) emitCompareOp(match byte) {
	buf := &b.buf
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.popVStackAddr) // HL = b
	buf.EmitOp(asm.OpExDEHL)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.popVStackAddr) // HL = a
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.bcdCmpAddr)
	buf.EmitOp(asm.OpCpN)
	buf.EmitU8(match)
	truePos := buf.JRPlaceholder(asm.OpJrZN)
	buf.EmitOp(asm.OpLdHLNN)
	buf.EmitU16LE(ConstZero)
	donePos := buf.JRPlaceholder(asm.OpJrN)
	_ = buf.PatchJR(truePos)
	buf.EmitOp(asm.OpLdHLNN)
	buf.EmitU16LE(ConstOne)
	_ = buf.PatchJR(donePos)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.pushVStackAddr)
}

// emitConditionalJump reads the u16 operand (the fallthrough target is
// VMPC after the read), pops the condition value, compares it against
// ConstZero, and overwrites VMPC with the operand-encoded absolute
// bytecode offset when the comparison matches ifZero (true for
// JumpIfZero, false for JumpIfNotZero).
func (b *builder) emitConditionalJump(ifZero bool) {
	buf := &b.buf
	b.emitReadU16Operand()   // DE = target offset; VMPC already past the operand
	buf.EmitOp(asm.OpPushDE) // preserve the offset across popVStack/bcd_cmp, neither of which is known to spare DE
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.popVStackAddr) // HL = condition value
	buf.EmitOp(asm.OpLdDENN)
	buf.EmitU16LE(ConstZero)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.bcdCmpAddr)
	buf.EmitOp(asm.OpPopDE)
	buf.EmitOp(asm.OpOrA)
	var skipPos int
	if ifZero {
		skipPos = buf.JRPlaceholder(asm.OpJrNZN)
	} else {
		skipPos = buf.JRPlaceholder(asm.OpJrZN)
	}
	buf.EmitOp(asm.OpLdHLNN)
	buf.EmitU16LE(BytecodeOrg)
	buf.EmitOp(asm.OpAddHLDE)
	b.emitLdNNFromHL(VMPC)
	_ = buf.PatchJR(skipPos)
}

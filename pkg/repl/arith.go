package repl

import (
	"github.com/ajokela/kz80-bc/pkg/asm"
	"github.com/ajokela/kz80-bc/pkg/bcd"
)

// Arithmetic routines, adapted from pkg/rom/bcd_arith.go's emitBCD*
// subroutines and retargeted to this package's own scratch cells — pkg/rom's
// versions are unexported methods on its own private builder type and
// cannot be called directly from here, so the routines are re-emitted
// rather than shared.

// emitBCDNeg emits bcd_neg: flip the sign bit of the record at (HL) in
// place, except that true zero never carries the sign bit. HL is preserved.
func (b *builder) emitBCDNeg() {
	buf := &b.buf
	b.bcdNegAddr = uint16(buf.Len())
	buf.EmitOp(asm.OpPushHL)
	buf.EmitOp(asm.OpIncHL)
	buf.EmitOp(asm.OpIncHL)
	buf.EmitOp(asm.OpIncHL) // HL -> first packed byte
	buf.EmitOp(asm.OpXorA)  // A = 0 before OR-reducing the digit bytes
	buf.EmitOp(asm.OpLdBN)
	buf.EmitU8(bcdPackedBytes)
	zloop := buf.Len()
	buf.EmitOp(asm.OpOrHL)
	buf.EmitOp(asm.OpIncHL)
	_ = buf.EmitJR(asm.OpDjnzN, zloop)
	buf.EmitOp(asm.OpPopHL)
	nonZeroPos := buf.JRPlaceholder(asm.OpJrNZN)
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(0x7F)
	buf.EmitOp(asm.OpLdHLA)
	buf.EmitOp(asm.OpRet)
	_ = buf.PatchJR(nonZeroPos)
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpXorN)
	buf.EmitU8(0x80)
	buf.EmitOp(asm.OpLdHLA)
	buf.EmitOp(asm.OpRet)
}

// emitBCDCmpMag emits a standalone, sign-blind magnitude comparator: entry
// expects HL and DE already positioned at the first packed byte of each
// operand. Returns -1/0/1 in A for magnitude(HL) <, ==, > magnitude(DE).
func (b *builder) emitBCDCmpMag() {
	buf := &b.buf
	b.bcdCmpMagAddr = uint16(buf.Len())

	buf.EmitOp(asm.OpLdBN)
	buf.EmitU8(bcdPackedBytes)
	loop := buf.Len()
	buf.EmitOp(asm.OpLdADE)
	buf.EmitOp(asm.OpLdCA)
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpCpC)
	differPos := buf.JRPlaceholder(asm.OpJrNZN)
	buf.EmitOp(asm.OpIncHL)
	buf.EmitOp(asm.OpIncDE)
	_ = buf.EmitJR(asm.OpDjnzN, loop)
	buf.EmitOp(asm.OpXorA)
	buf.EmitOp(asm.OpRet)

	_ = buf.PatchJR(differPos)
	aLessPos := buf.JRPlaceholder(asm.OpJrCN)
	buf.EmitOp(asm.OpLdAN)
	buf.EmitU8(1)
	buf.EmitOp(asm.OpRet)
	_ = buf.PatchJR(aLessPos)
	buf.EmitOp(asm.OpLdAN)
	buf.EmitU8(0xFF)
	buf.EmitOp(asm.OpRet)
}

// emitBCDCmp emits bcd_cmp: a full signed comparison of the records at
// (HL=a) and (DE=b), returning -1/0/1 in A.
func (b *builder) emitBCDCmp() {
	buf := &b.buf
	b.bcdCmpAddr = uint16(buf.Len())

	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(0x80)
	buf.EmitOp(asm.OpLdBA)
	buf.EmitOp(asm.OpExDEHL)
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(0x80)
	buf.EmitOp(asm.OpLdCA)
	buf.EmitOp(asm.OpExDEHL)
	buf.EmitOp(asm.OpLdAB)
	buf.EmitOp(asm.OpCpC)
	sameSignPos := buf.JRPlaceholder(asm.OpJrZN)

	buf.EmitOp(asm.OpLdAB)
	buf.EmitOp(asm.OpOrA)
	negPos := buf.JRPlaceholder(asm.OpJrNZN)
	buf.EmitOp(asm.OpLdAN)
	buf.EmitU8(1)
	buf.EmitOp(asm.OpRet)
	_ = buf.PatchJR(negPos)
	buf.EmitOp(asm.OpLdAN)
	buf.EmitU8(0xFF)
	buf.EmitOp(asm.OpRet)

	_ = buf.PatchJR(sameSignPos)
	buf.EmitOp(asm.OpPushBC)
	buf.EmitOp(asm.OpIncHL)
	buf.EmitOp(asm.OpIncHL)
	buf.EmitOp(asm.OpIncHL)
	buf.EmitOp(asm.OpExDEHL)
	buf.EmitOp(asm.OpIncHL)
	buf.EmitOp(asm.OpIncHL)
	buf.EmitOp(asm.OpIncHL)
	buf.EmitOp(asm.OpExDEHL)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.bcdCmpMagAddr)
	buf.EmitOp(asm.OpPopBC)

	buf.EmitOp(asm.OpLdCA)
	buf.EmitOp(asm.OpLdAB)
	buf.EmitOp(asm.OpOrA)
	posPos := buf.JRPlaceholder(asm.OpJrZN)
	buf.EmitOp(asm.OpXorA)
	buf.EmitOp(asm.OpSubC)
	buf.EmitOp(asm.OpRet)
	_ = buf.PatchJR(posPos)
	buf.EmitOp(asm.OpLdAC)
	buf.EmitOp(asm.OpRet)
}

// emitMagnitudeAdd walks HL (dest, a copy of the augend) and DE (addend)
// from their last packed byte toward the record base, DAA-correcting each
// byte with the running carry. Clobbers A, B, C, HL, DE.
func (b *builder) emitMagnitudeAdd() {
	buf := &b.buf
	buf.EmitOp(asm.OpOrA)
	buf.EmitOp(asm.OpLdBN)
	buf.EmitU8(bcdPackedBytes)
	loop := buf.Len()
	buf.EmitOp(asm.OpLdADE)
	buf.EmitOp(asm.OpLdCA)
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpAdcAC)
	buf.EmitOp(asm.OpDAA)
	buf.EmitOp(asm.OpLdHLA)
	buf.EmitOp(asm.OpDecHL)
	buf.EmitOp(asm.OpDecDE)
	_ = buf.EmitJR(asm.OpDjnzN, loop)
}

// emitMagnitudeSub mirrors emitMagnitudeAdd with SBC in place of ADC.
func (b *builder) emitMagnitudeSub() {
	buf := &b.buf
	buf.EmitOp(asm.OpOrA)
	buf.EmitOp(asm.OpLdBN)
	buf.EmitU8(bcdPackedBytes)
	loop := buf.Len()
	buf.EmitOp(asm.OpLdADE)
	buf.EmitOp(asm.OpLdCA)
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpSbcAC)
	buf.EmitOp(asm.OpDAA)
	buf.EmitOp(asm.OpLdHLA)
	buf.EmitOp(asm.OpDecHL)
	buf.EmitOp(asm.OpDecDE)
	_ = buf.EmitJR(asm.OpDjnzN, loop)
}

// emitBCDAdd emits bcd_add: HL=a, DE=b, both RecordSize records; returns a
// newly heap-allocated sum record in HL.
func (b *builder) emitBCDAdd() {
	buf := &b.buf
	b.bcdAddAddr = uint16(buf.Len())

	b.emitLdNNFromHL(arithAPtr)
	buf.EmitOp(asm.OpExDEHL)
	b.emitLdNNFromHL(arithBPtr)

	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.allocNumAddr)
	b.emitLdNNFromHL(arithDestPtr)

	b.emitLdHLFromNN(arithAPtr)
	buf.EmitOp(asm.OpExDEHL)
	b.emitLdHLFromNN(arithDestPtr)
	buf.EmitOp(asm.OpExDEHL)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.copyNumAddr) // dest := copy(a)

	b.emitLdHLFromNN(arithAPtr)
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(0x80)
	buf.EmitOp(asm.OpLdBA)
	b.emitLdHLFromNN(arithBPtr)
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(0x80)
	buf.EmitOp(asm.OpLdCA)
	buf.EmitOp(asm.OpLdAB)
	buf.EmitOp(asm.OpCpC)
	sameSignPos := buf.JPPlaceholder(asm.OpJpZNN)

	b.emitCursorAtOffset(arithAPtr, firstPackedOffset)
	buf.EmitOp(asm.OpExDEHL)
	b.emitCursorAtOffset(arithBPtr, firstPackedOffset)
	buf.EmitOp(asm.OpExDEHL)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.bcdCmpMagAddr)
	buf.EmitOp(asm.OpOrA)
	equalMagPos := buf.JPPlaceholder(asm.OpJpZNN)
	aLargerPos := buf.JPPlaceholder(asm.OpJpPNN)

	b.emitLdHLFromNN(arithBPtr)
	buf.EmitOp(asm.OpExDEHL)
	b.emitLdHLFromNN(arithDestPtr)
	buf.EmitOp(asm.OpExDEHL)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.copyNumAddr)
	b.emitCursorAtOffset(arithDestPtr, lastPackedOffset)
	buf.EmitOp(asm.OpExDEHL)
	b.emitCursorAtOffset(arithAPtr, lastPackedOffset)
	buf.EmitOp(asm.OpExDEHL)
	b.emitMagnitudeSub()
	diffDonePos := buf.JPPlaceholder(asm.OpJpNN)

	_ = buf.PatchJP(aLargerPos, uint16(buf.Len()))
	b.emitCursorAtOffset(arithDestPtr, lastPackedOffset)
	buf.EmitOp(asm.OpExDEHL)
	b.emitCursorAtOffset(arithBPtr, lastPackedOffset)
	buf.EmitOp(asm.OpExDEHL)
	b.emitMagnitudeSub()
	diffDonePos2 := buf.JPPlaceholder(asm.OpJpNN)

	_ = buf.PatchJP(equalMagPos, uint16(buf.Len()))
	b.emitCursorAtOffset(arithDestPtr, lastPackedOffset)
	buf.EmitOp(asm.OpExDEHL)
	b.emitCursorAtOffset(arithBPtr, lastPackedOffset)
	buf.EmitOp(asm.OpExDEHL)
	b.emitMagnitudeSub() // |a| - |b| = 0: all-zero digits
	b.emitLdHLFromNN(arithDestPtr)
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(0x7F)
	buf.EmitOp(asm.OpLdHLA)
	afterSignFixupPos := buf.JPPlaceholder(asm.OpJpNN)

	_ = buf.PatchJP(diffDonePos, uint16(buf.Len()))
	_ = buf.PatchJP(diffDonePos2, uint16(buf.Len()))
	endPos := buf.JPPlaceholder(asm.OpJpNN)

	_ = buf.PatchJP(sameSignPos, uint16(buf.Len()))
	b.emitCursorAtOffset(arithDestPtr, lastPackedOffset)
	buf.EmitOp(asm.OpExDEHL)
	b.emitCursorAtOffset(arithBPtr, lastPackedOffset)
	buf.EmitOp(asm.OpExDEHL)
	b.emitMagnitudeAdd()

	_ = buf.PatchJP(afterSignFixupPos, uint16(buf.Len()))
	_ = buf.PatchJP(endPos, uint16(buf.Len()))
	b.emitLdHLFromNN(arithDestPtr)
	buf.EmitOp(asm.OpRet)
}

// emitBCDSub emits bcd_sub: HL=a, DE=b; computes a-b as a+(-b), tail-calling
// into bcd_add via JP once b's negated copy is ready.
func (b *builder) emitBCDSub() {
	buf := &b.buf
	b.bcdSubAddr = uint16(buf.Len())

	b.emitLdNNFromHL(arithAPtr)
	buf.EmitOp(asm.OpExDEHL)
	b.emitLdNNFromHL(arithBPtr)

	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.allocNumAddr)
	b.emitLdNNFromHL(arithDestPtr)

	buf.EmitOp(asm.OpExDEHL)
	b.emitLdHLFromNN(arithBPtr)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.copyNumAddr)

	b.emitLdHLFromNN(arithDestPtr)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.bcdNegAddr)

	b.emitLdHLFromNN(arithDestPtr)
	buf.EmitOp(asm.OpExDEHL)
	b.emitLdHLFromNN(arithAPtr)
	buf.EmitOp(asm.OpJpNN)
	buf.EmitU16LE(b.bcdAddAddr)
}

// emitBCDMul10 shifts the record at (HL)'s packed digits left by one
// decimal place in place, discarding the overflowed most-significant digit.
func (b *builder) emitBCDMul10() {
	buf := &b.buf
	b.bcdMul10Addr = uint16(buf.Len())

	buf.EmitOp(asm.OpPushHL)
	buf.EmitOp(asm.OpIncHL)
	buf.EmitOp(asm.OpIncHL)
	buf.EmitOp(asm.OpIncHL)

	buf.EmitOp(asm.OpLdBN)
	buf.EmitU8(bcdPackedBytes - 1)
	loop := buf.Len()
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(0x0F)
	buf.EmitOp(asm.OpRLCA)
	buf.EmitOp(asm.OpRLCA)
	buf.EmitOp(asm.OpRLCA)
	buf.EmitOp(asm.OpRLCA)
	buf.EmitOp(asm.OpLdCA)
	buf.EmitOp(asm.OpIncHL)
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpRRCA)
	buf.EmitOp(asm.OpRRCA)
	buf.EmitOp(asm.OpRRCA)
	buf.EmitOp(asm.OpRRCA)
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(0x0F)
	buf.EmitOp(asm.OpOrC)
	buf.EmitOp(asm.OpDecHL)
	buf.EmitOp(asm.OpLdHLA)
	buf.EmitOp(asm.OpIncHL)
	_ = buf.EmitJR(asm.OpDjnzN, loop)

	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(0x0F)
	buf.EmitOp(asm.OpRLCA)
	buf.EmitOp(asm.OpRLCA)
	buf.EmitOp(asm.OpRLCA)
	buf.EmitOp(asm.OpRLCA)
	buf.EmitOp(asm.OpLdHLA)

	buf.EmitOp(asm.OpPopHL)
	buf.EmitOp(asm.OpRet)
}

// emitMulAddDigitTimes adds the shifted copy at arithTemp into the running
// product (arithDestPtr) A times, where A holds a single decimal digit.
func (b *builder) emitMulAddDigitTimes() {
	buf := &b.buf
	buf.EmitOp(asm.OpOrA)
	donePos := buf.JRPlaceholder(asm.OpJrZN)
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(arithCountHi)
	repeatLoop := buf.Len()
	b.emitLdHLFromNN(arithTemp)
	buf.EmitOp(asm.OpExDEHL)
	b.emitLdHLFromNN(arithDestPtr)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.bcdAddAddr)
	b.emitLdNNFromHL(arithDestPtr)
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(arithCountHi)
	buf.EmitOp(asm.OpDecA)
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(arithCountHi)
	nzPos := buf.JRPlaceholder(asm.OpJrZN)
	buf.EmitOp(asm.OpJpNN)
	buf.EmitU16LE(uint16(repeatLoop))
	_ = buf.PatchJR(nzPos)
	_ = buf.PatchJR(donePos)
}

// emitMulShiftShiftedCopy multiplies the shifted copy at arithTemp by 10 in
// place via bcd_mul10.
func (b *builder) emitMulShiftShiftedCopy() {
	buf := &b.buf
	b.emitLdHLFromNN(arithTemp)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.bcdMul10Addr)
}

// emitBCDMul emits bcd_mul: HL=a, DE=b; returns a freshly allocated product
// in HL via grade-school long multiplication, walking b's packed digits
// from least to most significant.
func (b *builder) emitBCDMul() {
	buf := &b.buf
	b.bcdMulAddr = uint16(buf.Len())

	b.emitLdNNFromHL(arithAPtr)
	buf.EmitOp(asm.OpExDEHL)
	b.emitLdNNFromHL(arithBPtr)

	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.allocNumAddr)
	b.emitLdNNFromHL(arithDestPtr)
	buf.EmitOp(asm.OpExDEHL)
	buf.EmitOp(asm.OpLdHLNN)
	buf.EmitU16LE(constZero)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.copyNumAddr)

	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.allocNumAddr)
	b.emitLdNNFromHL(arithTemp)
	buf.EmitOp(asm.OpExDEHL)
	b.emitLdHLFromNN(arithAPtr)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.copyNumAddr)
	b.emitLdHLFromNN(arithTemp)
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(0x7F)
	buf.EmitOp(asm.OpLdHLA)

	b.emitCursorAtOffset(arithBPtr, lastPackedOffset)
	b.emitLdNNFromHL(arithTemp2)
	buf.EmitOp(asm.OpLdAN)
	buf.EmitU8(bcdPackedBytes)
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(arithCount)

	// bcd_add overwrites arithAPtr/arithBPtr; keep a and b on the stack.
	b.emitLdHLFromNN(arithAPtr)
	buf.EmitOp(asm.OpPushHL)
	b.emitLdHLFromNN(arithBPtr)
	buf.EmitOp(asm.OpPushHL)

	byteLoop := buf.Len()
	b.emitLdHLFromNN(arithTemp2)
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(arithCountHi)

	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(arithCountHi)
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(0x0F)
	b.emitMulAddDigitTimes()
	b.emitMulShiftShiftedCopy()

	b.emitLdHLFromNN(arithTemp2) // re-read the byte: arithCountHi was the digit counter
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpRRCA)
	buf.EmitOp(asm.OpRRCA)
	buf.EmitOp(asm.OpRRCA)
	buf.EmitOp(asm.OpRRCA)
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(0x0F)
	b.emitMulAddDigitTimes()
	b.emitMulShiftShiftedCopy()

	b.emitLdHLFromNN(arithTemp2)
	buf.EmitOp(asm.OpDecHL)
	b.emitLdNNFromHL(arithTemp2)
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(arithCount)
	buf.EmitOp(asm.OpDecA)
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(arithCount)
	byteLoopDonePos := buf.JRPlaceholder(asm.OpJrZN)
	buf.EmitOp(asm.OpJpNN)
	buf.EmitU16LE(uint16(byteLoop))
	_ = buf.PatchJR(byteLoopDonePos)
	buf.EmitOp(asm.OpPopHL)
	b.emitLdNNFromHL(arithBPtr)
	buf.EmitOp(asm.OpPopHL)
	b.emitLdNNFromHL(arithAPtr)

	b.emitLdHLFromNN(arithAPtr)
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(0x80)
	buf.EmitOp(asm.OpLdBA)
	b.emitLdHLFromNN(arithBPtr)
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(0x80)
	buf.EmitOp(asm.OpXorB)
	buf.EmitOp(asm.OpLdBA)
	b.emitLdHLFromNN(arithDestPtr)
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(0x7F)
	buf.EmitOp(asm.OpOrB)
	buf.EmitOp(asm.OpLdHLA)

	b.emitLdHLFromNN(arithAPtr)
	buf.EmitOp(asm.OpIncHL)
	buf.EmitOp(asm.OpIncHL)
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpLdBA)
	b.emitLdHLFromNN(arithBPtr)
	buf.EmitOp(asm.OpIncHL)
	buf.EmitOp(asm.OpIncHL)
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpAddAB)
	buf.EmitOp(asm.OpCpN)
	buf.EmitU8(bcdDigits + 1)
	clampedPos := buf.JRPlaceholder(asm.OpJrCN)
	buf.EmitOp(asm.OpLdAN)
	buf.EmitU8(bcdDigits)
	_ = buf.PatchJR(clampedPos)
	buf.EmitOp(asm.OpLdCA)
	b.emitLdHLFromNN(arithDestPtr)
	buf.EmitOp(asm.OpIncHL)
	buf.EmitOp(asm.OpIncHL)
	buf.EmitOp(asm.OpLdAC)
	buf.EmitOp(asm.OpLdHLA)

	b.emitLdHLFromNN(arithDestPtr)
	buf.EmitOp(asm.OpRet)
}

// emitBCDDiv emits bcd_div: HL=a (dividend), DE=b (divisor); returns a
// freshly allocated quotient in HL via repeated subtraction of |b| from
// |a|, at the REPL's current `scale` setting. Each division is bounded to
// 9999 repeats, a termination guard against a zero or pathologically small
// divisor.
func (b *builder) emitBCDDiv() {
	buf := &b.buf
	b.bcdDivAddr = uint16(buf.Len())

	b.emitLdNNFromHL(arithAPtr)
	buf.EmitOp(asm.OpExDEHL)
	b.emitLdNNFromHL(arithBPtr)

	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.allocNumAddr)
	b.emitLdNNFromHL(arithTemp)
	buf.EmitOp(asm.OpExDEHL)
	b.emitLdHLFromNN(arithAPtr)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.copyNumAddr)
	b.emitLdHLFromNN(arithTemp)
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(0x7F)
	buf.EmitOp(asm.OpLdHLA)

	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.allocNumAddr)
	b.emitLdNNFromHL(arithTemp2)
	buf.EmitOp(asm.OpExDEHL)
	b.emitLdHLFromNN(arithBPtr)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.copyNumAddr)
	b.emitLdHLFromNN(arithTemp2)
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(0x7F)
	buf.EmitOp(asm.OpLdHLA)

	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.allocNumAddr)
	b.emitLdNNFromHL(arithDestPtr)
	buf.EmitOp(asm.OpExDEHL)
	buf.EmitOp(asm.OpLdHLNN)
	buf.EmitU16LE(constZero)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.copyNumAddr)

	buf.EmitOp(asm.OpLdHLNN)
	buf.EmitU16LE(9999)
	b.emitLdNNFromHL(arithCount)

	// bcd_sub/bcd_add overwrite arithAPtr/arithBPtr; keep a and b on the stack.
	b.emitLdHLFromNN(arithAPtr)
	buf.EmitOp(asm.OpPushHL)
	b.emitLdHLFromNN(arithBPtr)
	buf.EmitOp(asm.OpPushHL)

	countLoop := buf.Len()
	b.emitLdHLFromNN(arithTemp)
	buf.EmitOp(asm.OpExDEHL)
	b.emitLdHLFromNN(arithTemp2)
	buf.EmitOp(asm.OpExDEHL)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.bcdCmpAddr)
	buf.EmitOp(asm.OpOrA)
	stopPos := buf.JPPlaceholder(asm.OpJpMNN)

	b.emitLdHLFromNN(arithDestPtr) // bcd_sub overwrites arithDestPtr: stack the quotient
	buf.EmitOp(asm.OpPushHL)
	b.emitLdHLFromNN(arithTemp)
	buf.EmitOp(asm.OpExDEHL)
	b.emitLdHLFromNN(arithTemp2)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.bcdSubAddr)
	b.emitLdNNFromHL(arithTemp)

	buf.EmitOp(asm.OpPopHL) // HL = quotient
	buf.EmitOp(asm.OpExDEHL)
	buf.EmitOp(asm.OpLdHLNN)
	buf.EmitU16LE(constOne)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.bcdAddAddr)
	b.emitLdNNFromHL(arithDestPtr)

	b.emitLdHLFromNN(arithCount)
	buf.EmitOp(asm.OpDecHL)
	b.emitLdNNFromHL(arithCount)
	buf.EmitOp(asm.OpLdAH)
	buf.EmitOp(asm.OpOrL)
	zeroPos := buf.JRPlaceholder(asm.OpJrZN)
	buf.EmitOp(asm.OpJpNN)
	buf.EmitU16LE(uint16(countLoop))
	_ = buf.PatchJR(zeroPos)

	_ = buf.PatchJP(stopPos, uint16(buf.Len()))
	buf.EmitOp(asm.OpPopHL)
	b.emitLdNNFromHL(arithBPtr)
	buf.EmitOp(asm.OpPopHL)
	b.emitLdNNFromHL(arithAPtr)

	b.emitLdHLFromNN(arithAPtr)
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(0x80)
	buf.EmitOp(asm.OpLdBA)
	b.emitLdHLFromNN(arithBPtr)
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(0x80)
	buf.EmitOp(asm.OpXorB)
	buf.EmitOp(asm.OpLdBA)
	b.emitLdHLFromNN(arithDestPtr)
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(0x7F)
	buf.EmitOp(asm.OpOrB)
	buf.EmitOp(asm.OpLdHLA)

	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(replScale)
	b.emitLdHLFromNN(arithDestPtr)
	buf.EmitOp(asm.OpIncHL)
	buf.EmitOp(asm.OpIncHL)
	buf.EmitOp(asm.OpLdHLA)

	b.emitLdHLFromNN(arithDestPtr)
	buf.EmitOp(asm.OpRet)
}

// emitCursorAtOffset emits "HL = (cell) + offset". Clobbers DE.
func (b *builder) emitCursorAtOffset(cell uint16, offset uint16) {
	buf := &b.buf
	buf.EmitOp(asm.OpLdHLNNInd)
	buf.EmitU16LE(cell)
	buf.EmitOp(asm.OpLdDENN)
	buf.EmitU16LE(offset)
	buf.EmitOp(asm.OpAddHLDE)
}

// bcdPackedBytes and bcdDigits mirror bcd.PackedBytes/bcd.Digits under
// package-local names for use in emitted byte/immediate operands.
const (
	bcdPackedBytes = bcd.PackedBytes
	bcdDigits      = bcd.Digits
)

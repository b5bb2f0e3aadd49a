package rom

import "github.com/ajokela/kz80-bc/pkg/asm"

// Packed-byte cursor offsets within a RecordSize record: digit bytes start
// right after the sign/length/scale header, most-significant byte first.
const (
	firstPackedOffset = NumHeaderSize
	lastPackedOffset  = NumHeaderSize + bcdPackedBytes - 1
)

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
	// Z flag now reflects whether every digit byte OR-reduced to zero;
	// DJNZ doesn't disturb it since it only tests/decrements B.
	buf.EmitOp(asm.OpPopHL) // HL back to the record base (sign byte)
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
// expects HL and DE already positioned at the first (most significant)
// packed byte of each operand. Returns -1/0/1 in A for magnitude(HL) <, ==,
// > magnitude(DE). bcd_cmp calls this for its same-sign case (then applies
// the sign), and bcd_add calls it directly to decide which differently
// signed operand dominates — neither caller wants sign adjustment baked in,
// so this routine never looks at a sign byte at all.
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
	aLessPos := buf.JRPlaceholder(asm.OpJrCN) // CP set carry -> HL-byte < DE-byte
	buf.EmitOp(asm.OpLdAN)
	buf.EmitU8(1)
	buf.EmitOp(asm.OpRet)
	_ = buf.PatchJR(aLessPos)
	buf.EmitOp(asm.OpLdAN)
	buf.EmitU8(0xFF)
	buf.EmitOp(asm.OpRet)
}

// emitBCDCmp emits bcd_cmp: a full signed comparison of the records at
// (HL=a) and (DE=b), returning -1/0/1 in A. Differently signed operands are
// resolved from the sign bits alone; same-signed operands defer to
// bcdCmpMagAddr and then invert the result if both operands are negative
// (since greater magnitude means a smaller value there).
func (b *builder) emitBCDCmp() {
	buf := &b.buf
	b.bcdCmpAddr = uint16(buf.Len())

	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(0x80)
	buf.EmitOp(asm.OpLdBA) // B = a.sign
	buf.EmitOp(asm.OpExDEHL)
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(0x80)
	buf.EmitOp(asm.OpLdCA) // C = b.sign
	buf.EmitOp(asm.OpExDEHL)
	buf.EmitOp(asm.OpLdAB)
	buf.EmitOp(asm.OpCpC)
	sameSignPos := buf.JRPlaceholder(asm.OpJrZN)

	// Signs differ: whichever is non-negative is greater.
	buf.EmitOp(asm.OpLdAB)
	buf.EmitOp(asm.OpOrA)
	negPos := buf.JRPlaceholder(asm.OpJrNZN) // B != 0 -> a is negative -> a<b
	buf.EmitOp(asm.OpLdAN)
	buf.EmitU8(1)
	buf.EmitOp(asm.OpRet)
	_ = buf.PatchJR(negPos)
	buf.EmitOp(asm.OpLdAN)
	buf.EmitU8(0xFF)
	buf.EmitOp(asm.OpRet)

	_ = buf.PatchJR(sameSignPos)
	buf.EmitOp(asm.OpPushBC) // preserve the shared sign (B) across the CALL
	buf.EmitOp(asm.OpIncHL)
	buf.EmitOp(asm.OpIncHL)
	buf.EmitOp(asm.OpIncHL)
	buf.EmitOp(asm.OpExDEHL) // DE -> a's first digit byte
	buf.EmitOp(asm.OpIncHL)
	buf.EmitOp(asm.OpIncHL)
	buf.EmitOp(asm.OpIncHL)
	buf.EmitOp(asm.OpExDEHL) // HL -> a's first digit byte, DE -> b's first digit byte
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.bcdCmpMagAddr)
	buf.EmitOp(asm.OpPopBC) // B = the shared sign again

	buf.EmitOp(asm.OpLdCA) // C = raw magnitude comparison result
	buf.EmitOp(asm.OpLdAB)
	buf.EmitOp(asm.OpOrA)
	posPos := buf.JRPlaceholder(asm.OpJrZN) // both non-negative -> magnitude order is value order
	buf.EmitOp(asm.OpXorA)
	buf.EmitOp(asm.OpSubC) // both negative -> invert
	buf.EmitOp(asm.OpRet)
	_ = buf.PatchJR(posPos)
	buf.EmitOp(asm.OpLdAC)
	buf.EmitOp(asm.OpRet)
}

// emitBCDAdd emits bcd_add: HL=a, DE=b, both RecordSize records; returns a
// newly heap-allocated sum record in HL. Same-signed operands add
// magnitudes directly (DAA per packed byte, carry chained LSB to MSB);
// opposite-signed operands compare magnitudes (via bcdCmpMagAddr) and
// subtract the smaller from the larger, taking the larger's sign, with
// equal magnitudes collapsing to a signless zero. Operands are assumed to
// already share a scale: the compiler normalizes operand scales before
// emitting Add/Sub.
func (b *builder) emitBCDAdd() {
	buf := &b.buf
	b.bcdAddAddr = uint16(buf.Len())

	b.emitLdNNFromHL(ArithAPtr)
	buf.EmitOp(asm.OpExDEHL)
	b.emitLdNNFromHL(ArithBPtr)

	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.allocNumAddr)
	b.emitLdNNFromHL(ArithDestPtr)

	b.emitLdHLFromNN(ArithAPtr)
	buf.EmitOp(asm.OpExDEHL)
	b.emitLdHLFromNN(ArithDestPtr)
	buf.EmitOp(asm.OpExDEHL)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.copyNumAddr) // dest := copy(a)

	b.emitLdHLFromNN(ArithAPtr)
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(0x80)
	buf.EmitOp(asm.OpLdBA) // B = a.sign
	b.emitLdHLFromNN(ArithBPtr)
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(0x80)
	buf.EmitOp(asm.OpLdCA) // C = b.sign
	buf.EmitOp(asm.OpLdAB)
	buf.EmitOp(asm.OpCpC)
	sameSignPos := buf.JPPlaceholder(asm.OpJpZNN)

	// ---- different signs: subtract the smaller magnitude from the larger ----
	b.emitCursorAtOffset(ArithAPtr, firstPackedOffset)
	buf.EmitOp(asm.OpExDEHL)
	b.emitCursorAtOffset(ArithBPtr, firstPackedOffset)
	buf.EmitOp(asm.OpExDEHL) // HL -> a digits, DE -> b digits
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.bcdCmpMagAddr) // A = -1/0/1 comparing |a| vs |b|
	buf.EmitOp(asm.OpOrA)
	equalMagPos := buf.JPPlaceholder(asm.OpJpZNN)
	aLargerPos := buf.JPPlaceholder(asm.OpJpPNN)

	// |b| > |a|: dest := copy(b) (so dest carries b's sign), then subtract
	// a's magnitude from it.
	b.emitLdHLFromNN(ArithBPtr)
	buf.EmitOp(asm.OpExDEHL)
	b.emitLdHLFromNN(ArithDestPtr)
	buf.EmitOp(asm.OpExDEHL)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.copyNumAddr)
	b.emitCursorAtOffset(ArithDestPtr, lastPackedOffset)
	buf.EmitOp(asm.OpExDEHL)
	b.emitCursorAtOffset(ArithAPtr, lastPackedOffset)
	buf.EmitOp(asm.OpExDEHL) // HL -> dest cursor, DE -> a cursor (subtrahend)
	b.emitMagnitudeSub()
	diffDonePos := buf.JPPlaceholder(asm.OpJpNN)

	_ = buf.PatchJP(aLargerPos, uint16(buf.Len()))
	// |a| >= |b|: dest already holds copy(a); subtract b's magnitude.
	b.emitCursorAtOffset(ArithDestPtr, lastPackedOffset)
	buf.EmitOp(asm.OpExDEHL)
	b.emitCursorAtOffset(ArithBPtr, lastPackedOffset)
	buf.EmitOp(asm.OpExDEHL)
	b.emitMagnitudeSub()
	diffDonePos2 := buf.JPPlaceholder(asm.OpJpNN)

	_ = buf.PatchJP(equalMagPos, uint16(buf.Len()))
	// Equal magnitudes, opposite signs: true zero. dest holds copy(a);
	// subtracting |b| from it leaves all-zero digits, then clear the sign bit.
	b.emitCursorAtOffset(ArithDestPtr, lastPackedOffset)
	buf.EmitOp(asm.OpExDEHL)
	b.emitCursorAtOffset(ArithBPtr, lastPackedOffset)
	buf.EmitOp(asm.OpExDEHL)
	b.emitMagnitudeSub()
	b.emitLdHLFromNN(ArithDestPtr)
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(0x7F)
	buf.EmitOp(asm.OpLdHLA)
	afterSignFixupPos := buf.JPPlaceholder(asm.OpJpNN)

	_ = buf.PatchJP(diffDonePos, uint16(buf.Len()))
	_ = buf.PatchJP(diffDonePos2, uint16(buf.Len()))
	endPos := buf.JPPlaceholder(asm.OpJpNN)

	_ = buf.PatchJP(sameSignPos, uint16(buf.Len()))
	// ---- same sign: add magnitudes directly, dest keeps a's sign ----
	b.emitCursorAtOffset(ArithDestPtr, lastPackedOffset)
	buf.EmitOp(asm.OpExDEHL)
	b.emitCursorAtOffset(ArithBPtr, lastPackedOffset)
	buf.EmitOp(asm.OpExDEHL)
	b.emitMagnitudeAdd()

	_ = buf.PatchJP(afterSignFixupPos, uint16(buf.Len()))
	_ = buf.PatchJP(endPos, uint16(buf.Len()))
	b.emitLdHLFromNN(ArithDestPtr)
	buf.EmitOp(asm.OpRet)
}

// emitMagnitudeAdd emits the core packed-BCD add loop: HL = dest cursor
// (already holding a copy of the augend) at its last packed byte, DE =
// addend cursor at its last packed byte. Walks both cursors toward the
// record base, DAA-correcting each byte with the running carry. Clobbers
// A, B, C, HL, DE.
func (b *builder) emitMagnitudeAdd() {
	buf := &b.buf
	buf.EmitOp(asm.OpOrA) // clear carry: no carry-in for the least significant byte
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

// emitMagnitudeSub emits the core packed-BCD subtract loop: HL = dest
// cursor (already holding a copy of the minuend, the larger magnitude) at
// its last packed byte, DE = subtrahend cursor at its last packed byte.
// Mirrors emitMagnitudeAdd with SBC in place of ADC.
func (b *builder) emitMagnitudeSub() {
	buf := &b.buf
	buf.EmitOp(asm.OpOrA) // clear borrow
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

// emitBCDSub emits bcd_sub: HL=a, DE=b; computes a-b as a+(-b) by negating
// a fresh copy of b and tail-calling into bcd_add via JP, saving a CALL
// frame.
func (b *builder) emitBCDSub() {
	buf := &b.buf
	b.bcdSubAddr = uint16(buf.Len())

	b.emitLdNNFromHL(ArithAPtr)
	buf.EmitOp(asm.OpExDEHL)
	b.emitLdNNFromHL(ArithBPtr)

	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.allocNumAddr)
	b.emitLdNNFromHL(ArithDestPtr) // scratch := alloc()

	buf.EmitOp(asm.OpExDEHL) // DE = scratch (copy_number's dst)
	b.emitLdHLFromNN(ArithBPtr)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.copyNumAddr) // scratch := copy(b)

	b.emitLdHLFromNN(ArithDestPtr)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.bcdNegAddr) // scratch := -scratch, in place

	b.emitLdHLFromNN(ArithDestPtr)
	buf.EmitOp(asm.OpExDEHL) // DE = -b
	b.emitLdHLFromNN(ArithAPtr)
	buf.EmitOp(asm.OpJpNN)
	buf.EmitU16LE(b.bcdAddAddr) // tail call: bcd_add(a, -b)
}

// emitBCDMul10 emits bcd_mul10: shift the record at (HL)'s packed digits
// left by one decimal place in place (multiply the magnitude by 10),
// discarding the overflowed most-significant digit and appending a zero at
// the least-significant end. Sign and scale bytes are untouched — the
// caller is responsible for scale bookkeeping.
func (b *builder) emitBCDMul10() {
	buf := &b.buf
	b.bcdMul10Addr = uint16(buf.Len())

	buf.EmitOp(asm.OpPushHL)
	buf.EmitOp(asm.OpIncHL)
	buf.EmitOp(asm.OpIncHL)
	buf.EmitOp(asm.OpIncHL) // HL -> first packed byte

	buf.EmitOp(asm.OpLdBN)
	buf.EmitU8(bcdPackedBytes - 1)
	loop := buf.Len()
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(0x0F)
	buf.EmitOp(asm.OpRLCA)
	buf.EmitOp(asm.OpRLCA)
	buf.EmitOp(asm.OpRLCA)
	buf.EmitOp(asm.OpRLCA) // A = low nibble of this byte, shifted to the high position
	buf.EmitOp(asm.OpLdCA)
	buf.EmitOp(asm.OpIncHL)
	buf.EmitOp(asm.OpLdAHL) // A = next byte
	buf.EmitOp(asm.OpRRCA)
	buf.EmitOp(asm.OpRRCA)
	buf.EmitOp(asm.OpRRCA)
	buf.EmitOp(asm.OpRRCA) // nibble-swap
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(0x0F) // A = high nibble of the next byte
	buf.EmitOp(asm.OpOrC)
	buf.EmitOp(asm.OpDecHL)
	buf.EmitOp(asm.OpLdHLA)
	buf.EmitOp(asm.OpIncHL)
	_ = buf.EmitJR(asm.OpDjnzN, loop)

	// HL now sits on the last packed byte, untouched by the loop.
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

// emitMulAddDigitTimes adds the shifted copy (pointer held at VMTemp2) into
// the running product (ArithDestPtr) A times, where A holds a single
// decimal digit (0-9).
func (b *builder) emitMulAddDigitTimes() {
	buf := &b.buf
	buf.EmitOp(asm.OpOrA)
	donePos := buf.JRPlaceholder(asm.OpJrZN)
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(ArithCountHi) // reuse as a digit-repeat counter
	repeatLoop := buf.Len()
	b.emitLdHLFromNN(VMTemp2) // shifted copy
	buf.EmitOp(asm.OpExDEHL)
	b.emitLdHLFromNN(ArithDestPtr)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.bcdAddAddr) // HL = new product
	b.emitLdNNFromHL(ArithDestPtr)
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(ArithCountHi)
	buf.EmitOp(asm.OpDecA)
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(ArithCountHi)
	nzPos := buf.JRPlaceholder(asm.OpJrZN)
	buf.EmitOp(asm.OpJpNN)
	buf.EmitU16LE(uint16(repeatLoop))
	_ = buf.PatchJR(nzPos)
	_ = buf.PatchJR(donePos)
}

// emitMulShiftShiftedCopy multiplies the shifted copy (pointer held at
// VMTemp2) by 10 in place via bcd_mul10.
func (b *builder) emitMulShiftShiftedCopy() {
	buf := &b.buf
	b.emitLdHLFromNN(VMTemp2)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.bcdMul10Addr)
}

// emitBCDMul emits bcd_mul: HL=a, DE=b; returns a freshly allocated product
// in HL via grade-school long multiplication — walk b's packed digits from
// least to most significant, add a sign-cleared shifted copy of a into the
// running product once per unit of that digit (at most 9 additions per
// digit), then mul10 the shifted copy before moving to the next digit
// position. The final sign is a.sign XOR b.sign; the final scale is
// a.scale+b.scale, clamped to the fixed digit width (a documented limit of
// this fixed-width representation, not an error condition).
func (b *builder) emitBCDMul() {
	buf := &b.buf
	b.bcdMulAddr = uint16(buf.Len())

	b.emitLdNNFromHL(ArithAPtr)
	buf.EmitOp(asm.OpExDEHL)
	b.emitLdNNFromHL(ArithBPtr)

	// product (ArithDestPtr) := 0
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.allocNumAddr)
	b.emitLdNNFromHL(ArithDestPtr)
	buf.EmitOp(asm.OpExDEHL)
	buf.EmitOp(asm.OpLdHLNN)
	buf.EmitU16LE(ConstZero)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.copyNumAddr)

	// shifted copy (VMTemp2) := |a|
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.allocNumAddr)
	b.emitLdNNFromHL(VMTemp2)
	buf.EmitOp(asm.OpExDEHL)
	b.emitLdHLFromNN(ArithAPtr)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.copyNumAddr)
	b.emitLdHLFromNN(VMTemp2)
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(0x7F)
	buf.EmitOp(asm.OpLdHLA)

	// Walk b's packed bytes from least to most significant; within each
	// byte, the low nibble is the less-significant digit.
	b.emitCursorAtOffset(ArithBPtr, lastPackedOffset)
	b.emitLdNNFromHL(VMTemp) // VMTemp: cursor over b's digit bytes, LSB-first
	buf.EmitOp(asm.OpLdAN)
	buf.EmitU8(bcdPackedBytes)
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(ArithCount) // ArithCount: remaining bytes to process

	// Every bcd_add call below overwrites ArithAPtr/ArithBPtr; keep a and b
	// on the stack for the final sign and scale.
	b.emitLdHLFromNN(ArithAPtr)
	buf.EmitOp(asm.OpPushHL)
	b.emitLdHLFromNN(ArithBPtr)
	buf.EmitOp(asm.OpPushHL)

	byteLoop := buf.Len()
	b.emitLdHLFromNN(VMTemp)
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(ArithCountHi) // stash this byte's raw value (ArithCountHi free here)

	// Low nibble (less significant digit), then high nibble.
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(ArithCountHi)
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(0x0F)
	b.emitMulAddDigitTimes()
	b.emitMulShiftShiftedCopy()

	// Re-read the byte through the cursor: the digit loop above reuses
	// ArithCountHi as its repeat counter.
	b.emitLdHLFromNN(VMTemp)
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpRRCA)
	buf.EmitOp(asm.OpRRCA)
	buf.EmitOp(asm.OpRRCA)
	buf.EmitOp(asm.OpRRCA)
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(0x0F)
	b.emitMulAddDigitTimes()
	b.emitMulShiftShiftedCopy()

	b.emitLdHLFromNN(VMTemp)
	buf.EmitOp(asm.OpDecHL)
	b.emitLdNNFromHL(VMTemp)
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(ArithCount)
	buf.EmitOp(asm.OpDecA)
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(ArithCount)
	byteLoopDonePos := buf.JRPlaceholder(asm.OpJrZN)
	buf.EmitOp(asm.OpJpNN)
	buf.EmitU16LE(uint16(byteLoop))
	_ = buf.PatchJR(byteLoopDonePos)
	buf.EmitOp(asm.OpPopHL)
	b.emitLdNNFromHL(ArithBPtr)
	buf.EmitOp(asm.OpPopHL)
	b.emitLdNNFromHL(ArithAPtr)

	// Finalize sign and scale.
	b.emitLdHLFromNN(ArithAPtr)
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(0x80)
	buf.EmitOp(asm.OpLdBA)
	b.emitLdHLFromNN(ArithBPtr)
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(0x80)
	buf.EmitOp(asm.OpXorB) // A = a.sign XOR b.sign: 0x00 or 0x80
	buf.EmitOp(asm.OpLdBA)
	b.emitLdHLFromNN(ArithDestPtr)
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(0x7F)
	buf.EmitOp(asm.OpOrB)
	buf.EmitOp(asm.OpLdHLA)

	b.emitLdHLFromNN(ArithAPtr)
	buf.EmitOp(asm.OpIncHL)
	buf.EmitOp(asm.OpIncHL)
	buf.EmitOp(asm.OpLdAHL) // a.scale
	buf.EmitOp(asm.OpLdBA)
	b.emitLdHLFromNN(ArithBPtr)
	buf.EmitOp(asm.OpIncHL)
	buf.EmitOp(asm.OpIncHL)
	buf.EmitOp(asm.OpLdAHL) // b.scale
	buf.EmitOp(asm.OpAddAB)
	buf.EmitOp(asm.OpCpN)
	buf.EmitU8(bcdDigits + 1)
	clampedPos := buf.JRPlaceholder(asm.OpJrCN)
	buf.EmitOp(asm.OpLdAN)
	buf.EmitU8(bcdDigits)
	_ = buf.PatchJR(clampedPos)
	buf.EmitOp(asm.OpLdCA)
	b.emitLdHLFromNN(ArithDestPtr)
	buf.EmitOp(asm.OpIncHL)
	buf.EmitOp(asm.OpIncHL)
	buf.EmitOp(asm.OpLdAC)
	buf.EmitOp(asm.OpLdHLA)

	b.emitLdHLFromNN(ArithDestPtr)
	buf.EmitOp(asm.OpRet)
}

// emitBCDDiv emits bcd_div: HL=a (dividend), DE=b (divisor); returns a
// freshly allocated quotient in HL, computed by repeated subtraction of
// |b| from |a| at the VM's current scale setting (VMScale assigns the
// quotient's scale field directly, per the division design's
// pre-scaled-dividend convention). Each subtraction step is bounded to
// 9999 repeats, a termination guard against a zero or pathologically small
// divisor rather than a precision limit.
func (b *builder) emitBCDDiv() {
	buf := &b.buf
	b.bcdDivAddr = uint16(buf.Len())

	b.emitLdNNFromHL(ArithAPtr)
	buf.EmitOp(asm.OpExDEHL)
	b.emitLdNNFromHL(ArithBPtr)

	// remainder (VMTemp2) := |a|
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.allocNumAddr)
	b.emitLdNNFromHL(VMTemp2)
	buf.EmitOp(asm.OpExDEHL)
	b.emitLdHLFromNN(ArithAPtr)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.copyNumAddr)
	b.emitLdHLFromNN(VMTemp2)
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(0x7F)
	buf.EmitOp(asm.OpLdHLA)

	// divisor magnitude (VMTemp) := |b|
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.allocNumAddr)
	b.emitLdNNFromHL(VMTemp)
	buf.EmitOp(asm.OpExDEHL)
	b.emitLdHLFromNN(ArithBPtr)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.copyNumAddr)
	b.emitLdHLFromNN(VMTemp)
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(0x7F)
	buf.EmitOp(asm.OpLdHLA)

	// quotient (ArithDestPtr) := 0
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.allocNumAddr)
	b.emitLdNNFromHL(ArithDestPtr)
	buf.EmitOp(asm.OpExDEHL)
	buf.EmitOp(asm.OpLdHLNN)
	buf.EmitU16LE(ConstZero)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.copyNumAddr)

	buf.EmitOp(asm.OpLdHLNN)
	buf.EmitU16LE(9999)
	b.emitLdNNFromHL(ArithCount) // ArithCount/ArithCountHi pair: remaining repeat budget

	// bcd_sub/bcd_add overwrite ArithAPtr/ArithBPtr; keep a and b on the
	// stack for the final sign.
	b.emitLdHLFromNN(ArithAPtr)
	buf.EmitOp(asm.OpPushHL)
	b.emitLdHLFromNN(ArithBPtr)
	buf.EmitOp(asm.OpPushHL)

	countLoop := buf.Len()
	b.emitLdHLFromNN(VMTemp2) // remainder
	buf.EmitOp(asm.OpExDEHL)
	b.emitLdHLFromNN(VMTemp) // divisor magnitude
	buf.EmitOp(asm.OpExDEHL)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.bcdCmpAddr) // A = cmp(remainder, divisorMag)
	buf.EmitOp(asm.OpOrA)
	stopPos := buf.JPPlaceholder(asm.OpJpMNN) // remainder < divisorMag -> done

	// bcd_sub overwrites ArithDestPtr, so the quotient pointer rides on the
	// stack across the call.
	b.emitLdHLFromNN(ArithDestPtr)
	buf.EmitOp(asm.OpPushHL)
	b.emitLdHLFromNN(VMTemp2)
	buf.EmitOp(asm.OpExDEHL)
	b.emitLdHLFromNN(VMTemp)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.bcdSubAddr) // HL = remainder - divisorMag
	b.emitLdNNFromHL(VMTemp2)   // remainder updated

	buf.EmitOp(asm.OpPopHL) // HL = quotient
	buf.EmitOp(asm.OpExDEHL)
	buf.EmitOp(asm.OpLdHLNN)
	buf.EmitU16LE(ConstOne)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.bcdAddAddr) // HL = quotient + 1
	b.emitLdNNFromHL(ArithDestPtr)

	b.emitLdHLFromNN(ArithCount)
	buf.EmitOp(asm.OpDecHL)
	b.emitLdNNFromHL(ArithCount)
	buf.EmitOp(asm.OpLdAH)
	buf.EmitOp(asm.OpOrL)
	zeroPos := buf.JRPlaceholder(asm.OpJrZN) // budget exhausted -> stop regardless of comparison
	buf.EmitOp(asm.OpJpNN)
	buf.EmitU16LE(uint16(countLoop))
	_ = buf.PatchJR(zeroPos)

	_ = buf.PatchJP(stopPos, uint16(buf.Len()))
	buf.EmitOp(asm.OpPopHL)
	b.emitLdNNFromHL(ArithBPtr)
	buf.EmitOp(asm.OpPopHL)
	b.emitLdNNFromHL(ArithAPtr)

	// Quotient sign = a.sign XOR b.sign; scale = VMScale.
	b.emitLdHLFromNN(ArithAPtr)
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(0x80)
	buf.EmitOp(asm.OpLdBA)
	b.emitLdHLFromNN(ArithBPtr)
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(0x80)
	buf.EmitOp(asm.OpXorB)
	buf.EmitOp(asm.OpLdBA)
	b.emitLdHLFromNN(ArithDestPtr)
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(0x7F)
	buf.EmitOp(asm.OpOrB)
	buf.EmitOp(asm.OpLdHLA)

	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(VMScale)
	b.emitLdHLFromNN(ArithDestPtr)
	buf.EmitOp(asm.OpIncHL)
	buf.EmitOp(asm.OpIncHL)
	buf.EmitOp(asm.OpLdHLA)

	b.emitLdHLFromNN(ArithDestPtr)
	buf.EmitOp(asm.OpRet)
}

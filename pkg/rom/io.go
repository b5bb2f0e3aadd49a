package rom

import "github.com/ajokela/kz80-bc/pkg/asm"

// emitAciaOut emits the acia_out subroutine: wait for the transmitter ready
// bit, then write the character held in A to the data port (status bit 1 =
// TX ready, bit 0 = RX ready).
func (b *builder) emitAciaOut() {
	buf := &b.buf
	buf.EmitOp(asm.OpPushAF)
	waitPos := buf.Len()
	buf.EmitOp(asm.OpInAN)
	buf.EmitU8(AciaStatusPort)
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(AciaTxReadyBit)
	_ = buf.EmitJR(asm.OpJrZN, waitPos)
	buf.EmitOp(asm.OpPopAF)
	buf.EmitOp(asm.OpOutNA)
	buf.EmitU8(AciaDataPort)
	buf.EmitOp(asm.OpRet)
}

// emitAciaIn emits the acia_in subroutine: block until the receiver ready
// bit is set, then return the character read from the data port in A.
func (b *builder) emitAciaIn() {
	buf := &b.buf
	waitPos := buf.Len()
	buf.EmitOp(asm.OpInAN)
	buf.EmitU8(AciaStatusPort)
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(AciaRxReadyBit)
	_ = buf.EmitJR(asm.OpJrZN, waitPos)
	buf.EmitOp(asm.OpInAN)
	buf.EmitU8(AciaDataPort)
	buf.EmitOp(asm.OpRet)
}

// emitPrintCRLF writes a CR/LF pair, the line terminator the compiled
// program's PrintNewline opcode emits.
func (b *builder) emitPrintCRLF() {
	buf := &b.buf
	buf.EmitOp(asm.OpLdAN)
	buf.EmitU8(0x0D)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.aciaOutAddr)
	buf.EmitOp(asm.OpLdAN)
	buf.EmitU8(0x0A)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.aciaOutAddr)
	buf.EmitOp(asm.OpRet)
}

// emitPrintBCD emits print_bcd: entered with HL pointing at a RecordSize
// in-memory number, it renders the decimal text form over the ACIA. It
// unpacks the 25 packed bytes into bcd.Digits one-digit-per-byte scratch
// cells (DigitScratch) and walks that flat array, which keeps the printer's
// leading-zero-suppression logic a plain byte loop instead of nibble
// arithmetic threaded through the print loop itself — the same flattening
// pkg/bcd.Number.Nibbles uses on the host side.
func (b *builder) emitPrintBCD() {
	buf := &b.buf

	// Stash the sign bit and scale, then unpack digits.
	buf.EmitOp(asm.OpLdAHL) // A = sign byte
	buf.EmitOp(asm.OpPushAF)
	buf.EmitOp(asm.OpIncHL)
	buf.EmitOp(asm.OpIncHL)
	buf.EmitOp(asm.OpLdAHL) // A = scale byte
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(PrintScale)
	buf.EmitOp(asm.OpIncHL) // HL -> first packed byte

	buf.EmitOp(asm.OpLdDENN)
	buf.EmitU16LE(DigitScratch)
	buf.EmitOp(asm.OpLdBN)
	buf.EmitU8(bcdPackedBytes)

	unpackLoop := buf.Len()
	buf.EmitOp(asm.OpLdAHL) // A = packed byte
	buf.EmitOp(asm.OpLdCA)  // C = copy, for the low nibble below
	buf.EmitOp(asm.OpRRCA)
	buf.EmitOp(asm.OpRRCA)
	buf.EmitOp(asm.OpRRCA)
	buf.EmitOp(asm.OpRRCA)
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(0x0F) // A = high nibble
	buf.EmitOp(asm.OpLdDEA)
	buf.EmitOp(asm.OpIncDE)
	buf.EmitOp(asm.OpLdAC)
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(0x0F) // A = low nibble
	buf.EmitOp(asm.OpLdDEA)
	buf.EmitOp(asm.OpIncDE)
	buf.EmitOp(asm.OpIncHL)
	_ = buf.EmitJR(asm.OpDjnzN, unpackLoop)

	// Print the sign.
	buf.EmitOp(asm.OpPopAF)
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(0x80)
	signDonePos := buf.JRPlaceholder(asm.OpJrZN)
	buf.EmitOp(asm.OpLdAN)
	buf.EmitU8('-')
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.aciaOutAddr)
	_ = buf.PatchJR(signDonePos)

	// intLen = Digits - scale; printed = 0; index = 0.
	buf.EmitOp(asm.OpLdAN)
	buf.EmitU8(bcdDigits)
	buf.EmitOp(asm.OpLdBA)
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(PrintScale)
	buf.EmitOp(asm.OpLdCA)
	buf.EmitOp(asm.OpLdAB)
	buf.EmitOp(asm.OpSubC)
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(PrintIntLen)
	buf.EmitOp(asm.OpXorA)
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(PrintPrinted)
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(PrintIndex)

	// Integer-part loop: for index in [0, intLen), suppress a leading zero
	// unless it is the final integer digit (index == intLen-1) or a
	// non-zero digit has already been printed — mirrors
	// pkg/bcd.Number.String's leading-zero suppression rule exactly.
	intLoopStart := buf.Len()
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(PrintIndex)
	buf.EmitOp(asm.OpLdCA)
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(PrintIntLen)
	buf.EmitOp(asm.OpCpC)
	intLoopExitPos := buf.JRPlaceholder(asm.OpJrZN) // index == intLen -> done

	// HL = DigitScratch + index; load the digit into B.
	buf.EmitOp(asm.OpLdHLNN)
	buf.EmitU16LE(DigitScratch)
	buf.EmitOp(asm.OpLdAC) // A = index (still in C from above)
	b.emitAddAToHL()
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpLdBA) // B = digit

	buf.EmitOp(asm.OpOrA) // Z set iff digit == 0
	digitNonZeroPos := buf.JRPlaceholder(asm.OpJrNZN) // digit != 0 -> always print
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(PrintPrinted)
	buf.EmitOp(asm.OpOrA)
	alreadyPrintedPos := buf.JRPlaceholder(asm.OpJrNZN) // printed != 0 -> print this zero too
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(PrintIntLen)
	buf.EmitOp(asm.OpDecA)
	buf.EmitOp(asm.OpCpC) // C still holds index
	lastDigitPos := buf.JRPlaceholder(asm.OpJrZN) // index == intLen-1 -> must print
	skipDigitPos := buf.JRPlaceholder(asm.OpJrN)  // otherwise: suppress, skip the print

	_ = buf.PatchJR(digitNonZeroPos)
	_ = buf.PatchJR(alreadyPrintedPos)
	_ = buf.PatchJR(lastDigitPos)
	buf.EmitOp(asm.OpLdAB)
	buf.EmitOp(asm.OpAddAN)
	buf.EmitU8('0')
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.aciaOutAddr)
	buf.EmitOp(asm.OpLdAN)
	buf.EmitU8(1)
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(PrintPrinted)

	_ = buf.PatchJR(skipDigitPos)
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(PrintIndex)
	buf.EmitOp(asm.OpIncA)
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(PrintIndex)
	_ = buf.EmitJR(asm.OpJrN, intLoopStart)

	_ = buf.PatchJR(intLoopExitPos)

	// Fractional part: if scale > 0, print '.' then the remaining digits
	// verbatim — no suppression, trailing zeros included.
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(PrintScale)
	buf.EmitOp(asm.OpOrA)
	noFracPos := buf.JRPlaceholder(asm.OpJrZN)

	buf.EmitOp(asm.OpLdAN)
	buf.EmitU8('.')
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.aciaOutAddr)

	fracLoopStart := buf.Len()
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(PrintIndex)
	buf.EmitOp(asm.OpLdCA)
	buf.EmitOp(asm.OpLdAN)
	buf.EmitU8(bcdDigits)
	buf.EmitOp(asm.OpCpC)
	fracDonePos := buf.JRPlaceholder(asm.OpJrZN)

	buf.EmitOp(asm.OpLdHLNN)
	buf.EmitU16LE(DigitScratch)
	buf.EmitOp(asm.OpLdAC)
	b.emitAddAToHL()
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpAddAN)
	buf.EmitU8('0')
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.aciaOutAddr)

	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(PrintIndex)
	buf.EmitOp(asm.OpIncA)
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(PrintIndex)
	_ = buf.EmitJR(asm.OpJrN, fracLoopStart)

	_ = buf.PatchJR(fracDonePos)
	_ = buf.PatchJR(noFracPos)

	buf.EmitOp(asm.OpRet)
}

package repl

import "github.com/ajokela/kz80-bc/pkg/asm"

// I/O routines, adapted from pkg/rom/io.go: the same polled-ACIA convention
// (status bit 1 = TX ready, bit 0 = RX ready) and the same digit-unpack
// print routine, retargeted to this package's own scratch cells.

// emitAciaOut emits acia_out: wait for the transmitter-ready bit, then write
// the character in A to the data port.
func (b *builder) emitAciaOut() {
	buf := &b.buf
	b.aciaOutAddr = uint16(buf.Len())
	buf.EmitOp(asm.OpPushAF)
	waitPos := buf.Len()
	buf.EmitOp(asm.OpInAN)
	buf.EmitU8(aciaStatusPort)
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(aciaTxReadyBit)
	_ = buf.EmitJR(asm.OpJrZN, waitPos)
	buf.EmitOp(asm.OpPopAF)
	buf.EmitOp(asm.OpOutNA)
	buf.EmitU8(aciaDataPort)
	buf.EmitOp(asm.OpRet)
}

// emitAciaIn emits acia_in: block until the receiver-ready bit is set, then
// return the character read from the data port in A.
func (b *builder) emitAciaIn() {
	buf := &b.buf
	b.aciaInAddr = uint16(buf.Len())
	waitPos := buf.Len()
	buf.EmitOp(asm.OpInAN)
	buf.EmitU8(aciaStatusPort)
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(aciaRxReadyBit)
	_ = buf.EmitJR(asm.OpJrZN, waitPos)
	buf.EmitOp(asm.OpInAN)
	buf.EmitU8(aciaDataPort)
	buf.EmitOp(asm.OpRet)
}

// emitPrintCRLF writes a CR/LF pair.
func (b *builder) emitPrintCRLF() {
	buf := &b.buf
	b.printCrlfAddr = uint16(buf.Len())
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

// emitAddAToHL emits "HL += A" (A treated as unsigned 0..255). Clobbers A.
func (b *builder) emitAddAToHL() {
	buf := &b.buf
	buf.EmitOp(asm.OpAddAL)
	buf.EmitOp(asm.OpLdLA)
	noCarryPos := buf.JRPlaceholder(asm.OpJrNCN)
	buf.EmitOp(asm.OpIncH)
	_ = buf.PatchJR(noCarryPos)
}

// emitPrintBCD emits print_bcd: entered with HL pointing at a RecordSize
// in-memory number, renders its decimal text form over the ACIA. Identical
// algorithm to pkg/rom's emitPrintBCD, retargeted to this package's print*
// scratch cells.
func (b *builder) emitPrintBCD() {
	buf := &b.buf
	b.printBCDAddr = uint16(buf.Len())

	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpPushAF)
	buf.EmitOp(asm.OpIncHL)
	buf.EmitOp(asm.OpIncHL)
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(printScale)
	buf.EmitOp(asm.OpIncHL)

	buf.EmitOp(asm.OpLdDENN)
	buf.EmitU16LE(digitScratch)
	buf.EmitOp(asm.OpLdBN)
	buf.EmitU8(bcdPackedBytes)

	unpackLoop := buf.Len()
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpLdCA)
	buf.EmitOp(asm.OpRRCA)
	buf.EmitOp(asm.OpRRCA)
	buf.EmitOp(asm.OpRRCA)
	buf.EmitOp(asm.OpRRCA)
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(0x0F)
	buf.EmitOp(asm.OpLdDEA)
	buf.EmitOp(asm.OpIncDE)
	buf.EmitOp(asm.OpLdAC)
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(0x0F)
	buf.EmitOp(asm.OpLdDEA)
	buf.EmitOp(asm.OpIncDE)
	buf.EmitOp(asm.OpIncHL)
	_ = buf.EmitJR(asm.OpDjnzN, unpackLoop)

	buf.EmitOp(asm.OpPopAF)
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(0x80)
	signDonePos := buf.JRPlaceholder(asm.OpJrZN)
	buf.EmitOp(asm.OpLdAN)
	buf.EmitU8('-')
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.aciaOutAddr)
	_ = buf.PatchJR(signDonePos)

	buf.EmitOp(asm.OpLdAN)
	buf.EmitU8(bcdDigits)
	buf.EmitOp(asm.OpLdBA)
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(printScale)
	buf.EmitOp(asm.OpLdCA)
	buf.EmitOp(asm.OpLdAB)
	buf.EmitOp(asm.OpSubC)
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(printIntLen)
	buf.EmitOp(asm.OpXorA)
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(printPrinted)
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(printIndex)

	intLoopStart := buf.Len()
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(printIndex)
	buf.EmitOp(asm.OpLdCA)
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(printIntLen)
	buf.EmitOp(asm.OpCpC)
	intLoopExitPos := buf.JRPlaceholder(asm.OpJrZN)

	buf.EmitOp(asm.OpLdHLNN)
	buf.EmitU16LE(digitScratch)
	buf.EmitOp(asm.OpLdAC)
	b.emitAddAToHL()
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpLdBA)

	buf.EmitOp(asm.OpOrA)
	digitNonZeroPos := buf.JRPlaceholder(asm.OpJrNZN)
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(printPrinted)
	buf.EmitOp(asm.OpOrA)
	alreadyPrintedPos := buf.JRPlaceholder(asm.OpJrNZN)
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(printIntLen)
	buf.EmitOp(asm.OpDecA)
	buf.EmitOp(asm.OpCpC)
	lastDigitPos := buf.JRPlaceholder(asm.OpJrZN)
	skipDigitPos := buf.JRPlaceholder(asm.OpJrN)

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
	buf.EmitU16LE(printPrinted)

	_ = buf.PatchJR(skipDigitPos)
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(printIndex)
	buf.EmitOp(asm.OpIncA)
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(printIndex)
	_ = buf.EmitJR(asm.OpJrN, intLoopStart)

	_ = buf.PatchJR(intLoopExitPos)

	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(printScale)
	buf.EmitOp(asm.OpOrA)
	noFracPos := buf.JRPlaceholder(asm.OpJrZN)

	buf.EmitOp(asm.OpLdAN)
	buf.EmitU8('.')
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.aciaOutAddr)

	fracLoopStart := buf.Len()
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(printIndex)
	buf.EmitOp(asm.OpLdCA)
	buf.EmitOp(asm.OpLdAN)
	buf.EmitU8(bcdDigits)
	buf.EmitOp(asm.OpCpC)
	fracDonePos := buf.JRPlaceholder(asm.OpJrZN)

	buf.EmitOp(asm.OpLdHLNN)
	buf.EmitU16LE(digitScratch)
	buf.EmitOp(asm.OpLdAC)
	b.emitAddAToHL()
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpAddAN)
	buf.EmitU8('0')
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.aciaOutAddr)

	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(printIndex)
	buf.EmitOp(asm.OpIncA)
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(printIndex)
	_ = buf.EmitJR(asm.OpJrN, fracLoopStart)

	_ = buf.PatchJR(fracDonePos)
	_ = buf.PatchJR(noFracPos)

	buf.EmitOp(asm.OpRet)
}

// emitReadLine emits read_line: block on acia_in, echoing each received
// character, until CR (0x0D) — storing bytes into inputLine and recording
// the count in lineLen. Backspace (0x08) erases the previous character if
// the line is non-empty; every other control byte is stored verbatim.
func (b *builder) emitReadLine() {
	buf := &b.buf
	b.readLineAddr = uint16(buf.Len())

	buf.EmitOp(asm.OpXorA)
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(lineLen)

	loop := buf.Len()
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.aciaInAddr)
	buf.EmitOp(asm.OpCpN)
	buf.EmitU8(0x0D)
	donePos := buf.JRPlaceholder(asm.OpJrZN)

	buf.EmitOp(asm.OpCpN)
	buf.EmitU8(0x08)
	notBackspacePos := buf.JRPlaceholder(asm.OpJrNZN)

	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(lineLen)
	buf.EmitOp(asm.OpOrA)
	jrLoopFromBackspacePos := buf.JRPlaceholder(asm.OpJrZN) // empty line: ignore backspace
	buf.EmitOp(asm.OpDecA)
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(lineLen)
	buf.EmitOp(asm.OpLdAN)
	buf.EmitU8(0x08)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.aciaOutAddr)
	buf.EmitOp(asm.OpLdAN)
	buf.EmitU8(' ')
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.aciaOutAddr)
	buf.EmitOp(asm.OpLdAN)
	buf.EmitU8(0x08)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.aciaOutAddr)
	_ = buf.EmitJR(asm.OpJrN, loop)
	_ = buf.PatchJR(jrLoopFromBackspacePos)
	_ = buf.EmitJR(asm.OpJrN, loop)

	_ = buf.PatchJR(notBackspacePos)
	buf.EmitOp(asm.OpPushAF)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.aciaOutAddr) // echo
	buf.EmitOp(asm.OpPopAF)

	buf.EmitOp(asm.OpLdCA)
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(lineLen)
	buf.EmitOp(asm.OpCpN)
	buf.EmitU8(inputLineCap - 1)
	fullPos := buf.JRPlaceholder(asm.OpJrZN) // line full: drop the character, keep echoing CR/LF
	buf.EmitOp(asm.OpLdHLNN)
	buf.EmitU16LE(inputLine)
	b.emitAddAToHL()
	buf.EmitOp(asm.OpLdAC)
	buf.EmitOp(asm.OpLdHLA)
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(lineLen)
	buf.EmitOp(asm.OpIncA)
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(lineLen)
	_ = buf.PatchJR(fullPos)
	_ = buf.EmitJR(asm.OpJrN, loop)

	_ = buf.PatchJR(donePos)
	b.emitPrintCRLFCall()
	buf.EmitOp(asm.OpRet)
}

// emitPrintCRLFCall is a plain CALL to the already-emitted print_crlf
// routine — split out so emitReadLine's control flow above stays readable.
func (b *builder) emitPrintCRLFCall() {
	buf := &b.buf
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.printCrlfAddr)
}

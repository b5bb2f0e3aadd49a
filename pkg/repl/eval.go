package repl

import "github.com/ajokela/kz80-bc/pkg/asm"

// scan_and_eval: a tokenizer plus shunting-yard evaluator over one line of
// input, built fresh in pkg/rom's idiom: a flat Z80 subroutine per concern,
// CALLing into the same push/pop/alloc/arithmetic primitives pkg/rom uses,
// with control flow assembled from CP chains and JR/JP placeholders the
// same way dispatch.go's handlers are.
//
// Supported grammar: digit/decimal-point literals, single-letter variables
// a-z plus the pseudo-variable `scale`, the binary operators + - * /,
// parenthesized sub-expressions, and an optional leading assignment prefix
// ("x=" or "scale="). Operator precedence is the usual two tiers (*,/ over
// +,-); unlike the compiled path's no-print-on-assignment rule, every line
// here prints its result, assignment or not — the REPL's documented
// divergence (pkg/compiler's isAssignment doc comment). Assigning to
// `scale` additionally updates replScale, the byte bcd_div's scale-multiply
// prelude and print_bcd read directly.

// emitPushOpByte pushes the operator byte in C onto the operator stack.
func (b *builder) emitPushOpByte() {
	buf := &b.buf
	b.pushOpByteAddr = uint16(buf.Len())
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(opTop)
	buf.EmitOp(asm.OpLdEA)
	buf.EmitOp(asm.OpLdDN)
	buf.EmitU8(0)
	buf.EmitOp(asm.OpLdHLNN)
	buf.EmitU16LE(opStack)
	buf.EmitOp(asm.OpAddHLDE)
	buf.EmitOp(asm.OpLdAC)
	buf.EmitOp(asm.OpLdHLA)
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(opTop)
	buf.EmitOp(asm.OpIncA)
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(opTop)
	buf.EmitOp(asm.OpRet)
}

// emitPopOpByte pops the top operator byte into A.
func (b *builder) emitPopOpByte() {
	buf := &b.buf
	b.popOpByteAddr = uint16(buf.Len())
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(opTop)
	buf.EmitOp(asm.OpDecA)
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(opTop)
	buf.EmitOp(asm.OpLdEA)
	buf.EmitOp(asm.OpLdDN)
	buf.EmitU8(0)
	buf.EmitOp(asm.OpLdHLNN)
	buf.EmitU16LE(opStack)
	buf.EmitOp(asm.OpAddHLDE)
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpRet)
}

// emitPeekOpByte returns the top operator byte in A without popping, or 0 if
// the operator stack is empty (0 is not a valid operator/paren byte).
func (b *builder) emitPeekOpByte() {
	buf := &b.buf
	b.peekOpByteAddr = uint16(buf.Len())
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(opTop)
	buf.EmitOp(asm.OpOrA)
	emptyPos := buf.JRPlaceholder(asm.OpJrZN)
	buf.EmitOp(asm.OpDecA)
	buf.EmitOp(asm.OpLdEA)
	buf.EmitOp(asm.OpLdDN)
	buf.EmitU8(0)
	buf.EmitOp(asm.OpLdHLNN)
	buf.EmitU16LE(opStack)
	buf.EmitOp(asm.OpAddHLDE)
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpRet)
	_ = buf.PatchJR(emptyPos)
	buf.EmitOp(asm.OpXorA)
	buf.EmitOp(asm.OpRet)
}

// emitPrecedence returns this operator's binding strength in A: 0 for '(',
// 1 for '+'/'-', 2 for '*'/'/'.
func (b *builder) emitPrecedence() {
	buf := &b.buf
	b.precedenceAddr = uint16(buf.Len())
	buf.EmitOp(asm.OpCpN)
	buf.EmitU8('(')
	parenPos := buf.JRPlaceholder(asm.OpJrZN)
	buf.EmitOp(asm.OpCpN)
	buf.EmitU8('+')
	lowPos := buf.JRPlaceholder(asm.OpJrZN)
	buf.EmitOp(asm.OpCpN)
	buf.EmitU8('-')
	lowPos2 := buf.JRPlaceholder(asm.OpJrZN)
	buf.EmitOp(asm.OpLdAN)
	buf.EmitU8(2)
	buf.EmitOp(asm.OpRet)
	_ = buf.PatchJR(lowPos)
	_ = buf.PatchJR(lowPos2)
	buf.EmitOp(asm.OpLdAN)
	buf.EmitU8(1)
	buf.EmitOp(asm.OpRet)
	_ = buf.PatchJR(parenPos)
	buf.EmitOp(asm.OpXorA)
	buf.EmitOp(asm.OpRet)
}

// emitApplyTopOp pops the top operator, pops its two operands (b then a),
// applies the matching bcd_* routine, and pushes the result.
func (b *builder) emitApplyTopOp() {
	buf := &b.buf
	b.applyTopOpAddr = uint16(buf.Len())
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.popOpByteAddr)
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(curOp)

	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.popValAddr) // HL = b
	buf.EmitOp(asm.OpExDEHL)    // DE = b
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.popValAddr) // HL = a

	buf.EmitOp(asm.OpPushHL)
	buf.EmitOp(asm.OpPushDE)
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(curOp)
	buf.EmitOp(asm.OpCpN)
	buf.EmitU8('+')
	addPos := buf.JRPlaceholder(asm.OpJrZN)
	buf.EmitOp(asm.OpCpN)
	buf.EmitU8('-')
	subPos := buf.JRPlaceholder(asm.OpJrZN)
	buf.EmitOp(asm.OpCpN)
	buf.EmitU8('*')
	mulPos := buf.JRPlaceholder(asm.OpJrZN)
	// default: '/'
	buf.EmitOp(asm.OpPopDE)
	buf.EmitOp(asm.OpPopHL)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.bcdDivAddr)
	donePos1 := buf.JRPlaceholder(asm.OpJrN)

	_ = buf.PatchJR(addPos)
	buf.EmitOp(asm.OpPopDE)
	buf.EmitOp(asm.OpPopHL)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.bcdAddAddr)
	donePos2 := buf.JRPlaceholder(asm.OpJrN)

	_ = buf.PatchJR(subPos)
	buf.EmitOp(asm.OpPopDE)
	buf.EmitOp(asm.OpPopHL)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.bcdSubAddr)
	donePos3 := buf.JRPlaceholder(asm.OpJrN)

	_ = buf.PatchJR(mulPos)
	buf.EmitOp(asm.OpPopDE)
	buf.EmitOp(asm.OpPopHL)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.bcdMulAddr)

	_ = buf.PatchJR(donePos1)
	_ = buf.PatchJR(donePos2)
	_ = buf.PatchJR(donePos3)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.pushValAddr)
	buf.EmitOp(asm.OpRet)
}

// emitAddConstOneNTimes adds constOne into (numAcc) A times (A in 0..9),
// replacing numAcc with each fresh sum — the same repeated-add idiom
// pkg/rom's emitMulAddDigitTimes uses for a single BCD digit.
func (b *builder) emitAddConstOneNTimes() {
	buf := &b.buf
	buf.EmitOp(asm.OpOrA)
	donePos := buf.JRPlaceholder(asm.OpJrZN)
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(arithCountHi)
	loop := buf.Len()
	buf.EmitOp(asm.OpLdHLNNInd)
	buf.EmitU16LE(numAcc)
	buf.EmitOp(asm.OpLdDENN)
	buf.EmitU16LE(constOne)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.bcdAddAddr)
	buf.EmitOp(asm.OpLdNNHL)
	buf.EmitU16LE(numAcc)
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(arithCountHi)
	buf.EmitOp(asm.OpDecA)
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(arithCountHi)
	nzPos := buf.JRPlaceholder(asm.OpJrZN)
	_ = buf.EmitJR(asm.OpJrN, loop)
	_ = buf.PatchJR(nzPos)
	_ = buf.PatchJR(donePos)
}

// emitScanNumber parses a decimal literal starting at (scanPos), advancing
// scanPos past it, and leaves a freshly allocated record holding its value
// in HL. Digits accumulate via bcd_mul10 (shift) then repeated addition of
// constOne (the least laborious way to place a single decimal digit given
// this target has no general multiply-by-constant-digit primitive), and a
// '.' switches to counting fractional digits for the final scale byte.
func (b *builder) emitScanNumber() {
	buf := &b.buf
	b.scanNumberAddr = uint16(buf.Len())

	buf.EmitOp(asm.OpLdHLNN)
	buf.EmitU16LE(constZero)
	buf.EmitOp(asm.OpExDEHL)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.allocNumAddr) // HL = fresh record
	buf.EmitOp(asm.OpExDEHL)      // DE = fresh record, HL = constZero
	buf.EmitOp(asm.OpPushDE)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.copyNumAddr)
	buf.EmitOp(asm.OpPopHL) // HL = fresh record (copy_number left both past the block)
	buf.EmitOp(asm.OpLdNNHL)
	buf.EmitU16LE(numAcc)

	buf.EmitOp(asm.OpXorA)
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(scaleCount)
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(sawDot)

	loop := buf.Len()
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(scanPos)
	buf.EmitOp(asm.OpLdCA)
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(lineLen)
	buf.EmitOp(asm.OpCpC)
	exitPos1 := buf.JRPlaceholder(asm.OpJrZN) // scanPos == lineLen -> done

	buf.EmitOp(asm.OpLdHLNN)
	buf.EmitU16LE(inputLine)
	buf.EmitOp(asm.OpLdAC)
	b.emitAddAToHL()
	buf.EmitOp(asm.OpLdAHL) // A = this character

	buf.EmitOp(asm.OpCpN)
	buf.EmitU8('.')
	dotPos := buf.JRPlaceholder(asm.OpJrZN)

	buf.EmitOp(asm.OpCpN)
	buf.EmitU8('0')
	exitPos2 := buf.JRPlaceholder(asm.OpJrCN) // ch < '0' -> not a digit, number literal ends here
	buf.EmitOp(asm.OpCpN)
	buf.EmitU8('9' + 1)
	exitPos3 := buf.JRPlaceholder(asm.OpJrNCN) // ch > '9' -> not a digit, ends here

	// Digit: mul10 the accumulator, then add this digit's value (0-9)
	// constOne times.
	buf.EmitOp(asm.OpSubN)
	buf.EmitU8('0') // A = digit value
	buf.EmitOp(asm.OpPushAF)
	buf.EmitOp(asm.OpLdHLNNInd)
	buf.EmitU16LE(numAcc)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.bcdMul10Addr)
	buf.EmitOp(asm.OpLdNNHL)
	buf.EmitU16LE(numAcc)
	buf.EmitOp(asm.OpPopAF)
	b.emitAddConstOneNTimes()

	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(sawDot)
	buf.EmitOp(asm.OpOrA)
	noBumpPos := buf.JRPlaceholder(asm.OpJrZN)
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(scaleCount)
	buf.EmitOp(asm.OpIncA)
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(scaleCount)
	_ = buf.PatchJR(noBumpPos)
	advancePos := buf.JRPlaceholder(asm.OpJrN)

	_ = buf.PatchJR(dotPos)
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(sawDot)
	buf.EmitOp(asm.OpOrA)
	secondDotPos := buf.JRPlaceholder(asm.OpJrNZN) // a second '.' also ends the literal
	buf.EmitOp(asm.OpLdAN)
	buf.EmitU8(1)
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(sawDot)
	dotAdvancePos := buf.JRPlaceholder(asm.OpJrN)

	_ = buf.PatchJR(advancePos)
	_ = buf.PatchJR(dotAdvancePos)
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(scanPos)
	buf.EmitOp(asm.OpIncA)
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(scanPos)
	_ = buf.EmitJR(asm.OpJrN, loop)

	_ = buf.PatchJR(exitPos1)
	_ = buf.PatchJR(exitPos2)
	_ = buf.PatchJR(exitPos3)
	_ = buf.PatchJR(secondDotPos)
	buf.EmitOp(asm.OpLdHLNNInd)
	buf.EmitU16LE(numAcc)
	buf.EmitOp(asm.OpIncHL)
	buf.EmitOp(asm.OpIncHL)
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(scaleCount)
	buf.EmitOp(asm.OpLdHLA)
	buf.EmitOp(asm.OpLdHLNNInd)
	buf.EmitU16LE(numAcc)
	buf.EmitOp(asm.OpRet)
}

// emitSkipSpaces advances (scanPos) past any run of ASCII spaces.
func (b *builder) emitSkipSpaces() {
	buf := &b.buf
	loop := buf.Len()
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(scanPos)
	buf.EmitOp(asm.OpLdCA)
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(lineLen)
	buf.EmitOp(asm.OpCpC)
	donePos := buf.JRPlaceholder(asm.OpJrZN)
	buf.EmitOp(asm.OpLdHLNN)
	buf.EmitU16LE(inputLine)
	buf.EmitOp(asm.OpLdAC)
	b.emitAddAToHL()
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpCpN)
	buf.EmitU8(' ')
	notSpacePos := buf.JRPlaceholder(asm.OpJrNZN)
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(scanPos)
	buf.EmitOp(asm.OpIncA)
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(scanPos)
	_ = buf.EmitJR(asm.OpJrN, loop)
	_ = buf.PatchJR(donePos)
	_ = buf.PatchJR(notSpacePos)
}

// emitPeekChar returns the character at (scanPos) in A, or 0 at end of line.
func (b *builder) emitPeekChar() {
	buf := &b.buf
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(scanPos)
	buf.EmitOp(asm.OpLdCA)
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(lineLen)
	buf.EmitOp(asm.OpCpC)
	endPos := buf.JRPlaceholder(asm.OpJrZN)
	buf.EmitOp(asm.OpLdHLNN)
	buf.EmitU16LE(inputLine)
	buf.EmitOp(asm.OpLdAC)
	b.emitAddAToHL()
	buf.EmitOp(asm.OpLdAHL)
	donePos := buf.JRPlaceholder(asm.OpJrN)
	_ = buf.PatchJR(endPos)
	buf.EmitOp(asm.OpXorA)
	_ = buf.PatchJR(donePos)
}

// emitIdentSlot resolves the identifier starting at (scanPos) — which the
// caller has already confirmed is a lowercase letter — into a variable slot
// index left in A: 0-25 for a bare letter a..z, or 26 for the 5-character
// word `scale`. Advances scanPos past whatever it consumed: 1 byte for a
// bare letter, 5 for `scale`. Only 's' can start "scale", so every other
// letter resolves to itself with no lookahead; on an 's' that isn't
// followed by "cale", or that doesn't have 4 more characters of line left
// to check, this backtracks to the bare variable s (slot 18).
func (b *builder) emitIdentSlot() {
	buf := &b.buf
	b.identSlotAddr = uint16(buf.Len())

	loadCharAt := func(n uint8) {
		buf.EmitOp(asm.OpLdANNInd)
		buf.EmitU16LE(scanPos)
		if n != 0 {
			buf.EmitOp(asm.OpAddAN)
			buf.EmitU8(n)
		}
		buf.EmitOp(asm.OpLdCA)
		buf.EmitOp(asm.OpLdHLNN)
		buf.EmitU16LE(inputLine)
		buf.EmitOp(asm.OpLdAC)
		b.emitAddAToHL()
		buf.EmitOp(asm.OpLdAHL)
	}

	loadCharAt(0)
	buf.EmitOp(asm.OpCpN)
	buf.EmitU8('s')
	bareLetterPos := buf.JRPlaceholder(asm.OpJrNZN)

	// Need 4 more characters after this 's': lineLen - scanPos >= 5.
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(scanPos)
	buf.EmitOp(asm.OpLdBA)
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(lineLen)
	buf.EmitOp(asm.OpSubB)
	buf.EmitOp(asm.OpCpN)
	buf.EmitU8(5)
	tooShortPos := buf.JRPlaceholder(asm.OpJrCN)

	var mismatchPos []int
	for i, ch := range []byte{'c', 'a', 'l', 'e'} {
		loadCharAt(uint8(i + 1))
		buf.EmitOp(asm.OpCpN)
		buf.EmitU8(ch)
		mismatchPos = append(mismatchPos, buf.JRPlaceholder(asm.OpJrNZN))
	}

	// Matched "scale": consume all 5 characters, slot = scaleSlot.
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(scanPos)
	buf.EmitOp(asm.OpAddAN)
	buf.EmitU8(5)
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(scanPos)
	buf.EmitOp(asm.OpLdAN)
	buf.EmitU8(scaleSlot)
	buf.EmitOp(asm.OpRet)

	_ = buf.PatchJR(bareLetterPos)
	_ = buf.PatchJR(tooShortPos)
	for _, p := range mismatchPos {
		_ = buf.PatchJR(p)
	}
	// Bare letter: consume 1 character, slot = letter - 'a'.
	loadCharAt(0)
	buf.EmitOp(asm.OpSubN)
	buf.EmitU8('a')
	buf.EmitOp(asm.OpLdBA) // stash slot index; scanPos update below needs A
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(scanPos)
	buf.EmitOp(asm.OpIncA)
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(scanPos)
	buf.EmitOp(asm.OpLdAB)
	buf.EmitOp(asm.OpRet)
}

// emitVarCellAddr computes the address of variable slot A's inline 28-byte
// cell into HL. Because variables are stored inline rather than by
// reference, this address IS the variable's value pointer — no
// indirection, unlike pkg/rom's pointer-cell variables. Slot 0 is
// varsBase itself; every other slot is reached by repeated addition of
// recordSize, the same no-multiply idiom emitScanNumber uses to place a
// decimal digit.
func (b *builder) emitVarCellAddr() {
	buf := &b.buf
	b.varCellAddrAddr = uint16(buf.Len())
	buf.EmitOp(asm.OpOrA)
	zeroPos := buf.JRPlaceholder(asm.OpJrZN)
	buf.EmitOp(asm.OpLdBA)
	buf.EmitOp(asm.OpLdHLNN)
	buf.EmitU16LE(varsBase)
	buf.EmitOp(asm.OpLdDENN)
	buf.EmitU16LE(recordSize)
	loop := buf.Len()
	buf.EmitOp(asm.OpAddHLDE)
	_ = buf.EmitJR(asm.OpDjnzN, loop)
	donePos := buf.JRPlaceholder(asm.OpJrN)
	_ = buf.PatchJR(zeroPos)
	buf.EmitOp(asm.OpLdHLNN)
	buf.EmitU16LE(varsBase)
	_ = buf.PatchJR(donePos)
	buf.EmitOp(asm.OpRet)
}

// emitPushVar pushes variable slot A's cell address (see emitVarCellAddr)
// onto the value stack.
func (b *builder) emitPushVar() {
	buf := &b.buf
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.varCellAddrAddr)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.pushValAddr)
}

// emitEvalExpr runs the shunting-yard loop over the remainder of the current
// line starting at (scanPos): digits and '.' start a number literal via
// scan_number, a-z push a variable's value, ( and ) manage grouping, and
// +-*/ are shunted against the operator stack by precedence. On return the
// value stack holds exactly one pointer: the expression's result.
func (b *builder) emitEvalExpr() {
	buf := &b.buf
	b.evalExprAddr = uint16(buf.Len())

	buf.EmitOp(asm.OpXorA)
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(opTop)

	loop := buf.Len()
	b.emitSkipSpaces()
	b.emitPeekChar()
	buf.EmitOp(asm.OpOrA)
	lineEndPos := buf.JPPlaceholder(asm.OpJpZNN)

	buf.EmitOp(asm.OpCpN)
	buf.EmitU8('.')
	leadingDotPos := buf.JRPlaceholder(asm.OpJrZN)
	buf.EmitOp(asm.OpCpN)
	buf.EmitU8('0')
	maybeDigitLow := buf.JRPlaceholder(asm.OpJrCN)
	buf.EmitOp(asm.OpCpN)
	buf.EmitU8('9' + 1)
	maybeDigitHigh := buf.JRPlaceholder(asm.OpJrNCN)
	_ = buf.PatchJR(leadingDotPos)
	// digit or '.': scan a full number literal, push it.
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.scanNumberAddr)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.pushValAddr)
	contPos1 := buf.JRPlaceholder(asm.OpJrN)
	_ = buf.PatchJR(maybeDigitLow)
	_ = buf.PatchJR(maybeDigitHigh)

	buf.EmitOp(asm.OpCpN)
	buf.EmitU8('a')
	varLowPos := buf.JRPlaceholder(asm.OpJrCN)
	buf.EmitOp(asm.OpCpN)
	buf.EmitU8('z' + 1)
	varHighPos := buf.JRPlaceholder(asm.OpJrNCN)
	// letter (or the 5-character word "scale"): resolve to a slot, push its
	// cell, ident_slot itself advances scanPos past whatever it consumed.
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.identSlotAddr)
	b.emitPushVar()
	contPos2 := buf.JRPlaceholder(asm.OpJrN)
	_ = buf.PatchJR(varLowPos)
	_ = buf.PatchJR(varHighPos)

	buf.EmitOp(asm.OpCpN)
	buf.EmitU8('(')
	openPos := buf.JRPlaceholder(asm.OpJrZN)

	buf.EmitOp(asm.OpCpN)
	buf.EmitU8(')')
	closePos := buf.JRPlaceholder(asm.OpJrZN)

	// operator: pop and apply while the top of the operator stack binds at
	// least as tightly, then push this operator.
	buf.EmitOp(asm.OpLdCA) // C = this operator; precedence uses only A, and BC is saved around apply_top_op
	opLoop := buf.Len()
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.peekOpByteAddr)
	buf.EmitOp(asm.OpCpN)
	buf.EmitU8('(')
	stopShuntPos := buf.JRPlaceholder(asm.OpJrZN)
	buf.EmitOp(asm.OpOrA)
	noShuntPos := buf.JRPlaceholder(asm.OpJrZN)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.precedenceAddr)
	buf.EmitOp(asm.OpLdBA) // B = top-of-stack precedence
	buf.EmitOp(asm.OpLdAC)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.precedenceAddr) // A = this operator's precedence
	buf.EmitOp(asm.OpDecA)
	buf.EmitOp(asm.OpCpB)
	noShuntPos2 := buf.JRPlaceholder(asm.OpJrNCN) // this.prec > top.prec -> stop shunting
	buf.EmitOp(asm.OpPushBC)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.applyTopOpAddr)
	buf.EmitOp(asm.OpPopBC)
	_ = buf.EmitJR(asm.OpJrN, opLoop)
	_ = buf.PatchJR(noShuntPos2)
	_ = buf.PatchJR(stopShuntPos)
	_ = buf.PatchJR(noShuntPos)
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(scanPos)
	buf.EmitOp(asm.OpIncA)
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(scanPos)
	buf.EmitOp(asm.OpLdAC)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.pushOpByteAddr)
	contPos3 := buf.JRPlaceholder(asm.OpJrN)

	_ = buf.PatchJR(openPos)
	buf.EmitOp(asm.OpLdCN)
	buf.EmitU8('(')
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.pushOpByteAddr)
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(scanPos)
	buf.EmitOp(asm.OpIncA)
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(scanPos)
	contPos4 := buf.JRPlaceholder(asm.OpJrN)

	_ = buf.PatchJR(closePos)
	closeLoop := buf.Len()
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.peekOpByteAddr)
	buf.EmitOp(asm.OpCpN)
	buf.EmitU8('(')
	foundOpenPos := buf.JRPlaceholder(asm.OpJrZN)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.applyTopOpAddr)
	_ = buf.EmitJR(asm.OpJrN, closeLoop)
	_ = buf.PatchJR(foundOpenPos)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.popOpByteAddr) // discard the matching '('
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(scanPos)
	buf.EmitOp(asm.OpIncA)
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(scanPos)

	_ = buf.PatchJR(contPos1)
	_ = buf.PatchJR(contPos2)
	_ = buf.PatchJR(contPos3)
	_ = buf.PatchJR(contPos4)
	buf.EmitOp(asm.OpJpNN) // the loop body is longer than a JR can reach back
	buf.EmitU16LE(uint16(loop))

	_ = buf.PatchJP(lineEndPos, uint16(buf.Len()))
	// Drain any remaining operators (unbalanced trailing ops, or none left
	// once all parens have closed).
	drainLoop := buf.Len()
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.peekOpByteAddr)
	buf.EmitOp(asm.OpOrA)
	drainDonePos := buf.JRPlaceholder(asm.OpJrZN)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.applyTopOpAddr)
	_ = buf.EmitJR(asm.OpJrN, drainLoop)
	_ = buf.PatchJR(drainDonePos)
	buf.EmitOp(asm.OpRet)
}

// emitEvalLine is the per-line entry point: detect an optional assignment
// prefix ("x=" or "scale="), evaluate the remainder as an expression, store
// the result into the assigned variable's inline cell if any, and
// unconditionally print it. Assigning to `scale` additionally syncs
// replScale via emitSyncReplScale so the next division picks up the new
// precision.
func (b *builder) emitEvalLine() {
	buf := &b.buf
	b.evalLineAddr = uint16(buf.Len())

	buf.EmitOp(asm.OpXorA)
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(scanPos)
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(assignSlot) // 0 = no pending assignment; otherwise slot+1

	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(lineLen)
	buf.EmitOp(asm.OpCpN)
	buf.EmitU8(2)
	noAssignPos := buf.JRPlaceholder(asm.OpJrCN) // fewer than 2 chars: can't be "x="

	buf.EmitOp(asm.OpLdHLNN)
	buf.EmitU16LE(inputLine)
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpCpN)
	buf.EmitU8('a')
	noAssignPos2 := buf.JRPlaceholder(asm.OpJrCN)
	buf.EmitOp(asm.OpCpN)
	buf.EmitU8('z' + 1)
	noAssignPos3 := buf.JRPlaceholder(asm.OpJrNCN)

	// Candidate assignment target: resolve the identifier at scanPos (still
	// 0 here) the same way the expression evaluator would — a bare letter,
	// or the 5-character word "scale" — then check whether '=' follows.
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.identSlotAddr)
	buf.EmitOp(asm.OpLdCA) // C = candidate slot; scanPos now past the identifier

	buf.EmitOp(asm.OpLdHLNN)
	buf.EmitU16LE(inputLine)
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(scanPos)
	b.emitAddAToHL()
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpCpN)
	buf.EmitU8('=')
	notEqualsPos := buf.JRPlaceholder(asm.OpJrNZN)

	// Confirmed: commit slot+1 into assignSlot, advance scanPos past '='.
	buf.EmitOp(asm.OpLdAC)
	buf.EmitOp(asm.OpIncA)
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(assignSlot)
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(scanPos)
	buf.EmitOp(asm.OpIncA)
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(scanPos)
	haveAssignPos := buf.JRPlaceholder(asm.OpJrN)

	_ = buf.PatchJR(notEqualsPos)
	// Not actually an assignment (e.g. a bare "scale" or "s" read): rewind
	// scanPos so eval_expr reparses the identifier itself from the top.
	buf.EmitOp(asm.OpXorA)
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(scanPos)

	_ = buf.PatchJR(noAssignPos)
	_ = buf.PatchJR(noAssignPos2)
	_ = buf.PatchJR(noAssignPos3)
	_ = buf.PatchJR(haveAssignPos)

	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.evalExprAddr)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.popValAddr) // HL = result pointer

	buf.EmitOp(asm.OpPushHL) // stash the result pointer for the final print
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(assignSlot)
	buf.EmitOp(asm.OpOrA)
	noStorePos := buf.JRPlaceholder(asm.OpJrZN)

	buf.EmitOp(asm.OpDecA) // A = the real slot (assignSlot was slot+1)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.varCellAddrAddr) // HL = &cell[slot]
	buf.EmitOp(asm.OpExDEHL)         // DE = &cell[slot]
	buf.EmitOp(asm.OpPopHL)          // HL = result pointer
	buf.EmitOp(asm.OpPushHL)         // keep a copy for the final print
	buf.EmitOp(asm.OpLdBCNN)
	buf.EmitU16LE(recordSize)
	buf.EmitED(asm.OpLDIR) // copy the 28-byte result straight into the cell

	// If the assigned cell is `scale`, decode its trailing two BCD digits
	// into REPL_SCALE so the next division observes the new precision.
	buf.EmitOp(asm.OpLdANNInd)
	buf.EmitU16LE(assignSlot)
	buf.EmitOp(asm.OpDecA)
	buf.EmitOp(asm.OpCpN)
	buf.EmitU8(scaleSlot)
	notScalePos := buf.JRPlaceholder(asm.OpJrNZN)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.syncReplScaleAddr) // A already holds scaleSlot here
	_ = buf.PatchJR(notScalePos)

	_ = buf.PatchJR(noStorePos)

	buf.EmitOp(asm.OpPopHL) // HL = result pointer
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.printBCDAddr)
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.printCrlfAddr)
	buf.EmitOp(asm.OpRet)
}

// emitSyncReplScale decodes variable slot A's trailing packed BCD byte (the
// cell's least-significant digit pair, tens in the high nibble, ones in the
// low) into a binary 0-99 value and stores it in replScale, the byte
// bcd_div's scale-multiply prelude and print_bcd read directly. Called only
// when slot A is scaleSlot, right after `scale`'s cell has been assigned.
func (b *builder) emitSyncReplScale() {
	buf := &b.buf
	b.syncReplScaleAddr = uint16(buf.Len())
	buf.EmitOp(asm.OpCallNN)
	buf.EmitU16LE(b.varCellAddrAddr) // HL = &cell[slot]
	buf.EmitOp(asm.OpLdDENN)
	buf.EmitU16LE(recordSize - 1)
	buf.EmitOp(asm.OpAddHLDE) // HL = &cell[slot][27]
	buf.EmitOp(asm.OpLdAHL)
	buf.EmitOp(asm.OpLdBA) // B = packed byte (tens<<4 | ones)
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(0x0F)
	buf.EmitOp(asm.OpLdCA) // C = ones digit
	buf.EmitOp(asm.OpLdAB)
	buf.EmitOp(asm.OpAndN)
	buf.EmitU8(0xF0)
	buf.EmitOp(asm.OpRRCA)
	buf.EmitOp(asm.OpRRCA)
	buf.EmitOp(asm.OpRRCA)
	buf.EmitOp(asm.OpRRCA) // A = tens digit
	buf.EmitOp(asm.OpLdDA) // D = tens
	buf.EmitOp(asm.OpAddAA) // A = tens*2
	buf.EmitOp(asm.OpLdEA)  // E = tens*2
	buf.EmitOp(asm.OpAddAA) // A = tens*4
	buf.EmitOp(asm.OpAddAA) // A = tens*8
	buf.EmitOp(asm.OpAddAE) // A = tens*10
	buf.EmitOp(asm.OpAddAC) // A = tens*10 + ones
	buf.EmitOp(asm.OpLdNNA)
	buf.EmitU16LE(replScale)
	buf.EmitOp(asm.OpRet)
}

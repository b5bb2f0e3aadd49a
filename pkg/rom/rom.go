package rom

import (
	"fmt"

	"github.com/ajokela/kz80-bc/pkg/asm"
	"github.com/ajokela/kz80-bc/pkg/bcd"
	"github.com/ajokela/kz80-bc/pkg/isa"
)

// builder assembles the runtime image, tracking subroutine entry addresses
// as it emits them so the dispatch loop and handler bodies can CALL/JP to
// them absolutely.
type builder struct {
	buf asm.Buffer

	constDataAddr uint16 // address of the embedded ZERO/ONE literal table

	aciaOutAddr     uint16
	aciaInAddr      uint16
	printNumAddr    uint16
	printCrlfAddr   uint16
	allocNumAddr    uint16
	copyNumAddr     uint16
	bcdAddAddr      uint16
	bcdSubAddr      uint16
	bcdMul10Addr    uint16
	bcdMulAddr      uint16
	bcdDivAddr      uint16
	bcdCmpAddr      uint16
	bcdCmpMagAddr   uint16 // standalone sign-blind magnitude comparator shared by bcd_add and bcd_cmp
	bcdNegAddr      uint16
	pushVStackAddr  uint16
	popVStackAddr   uint16

	opWidthTableAddr uint16
	vmLoopAddr       uint16
}

// GenerateROM produces the full ROM image for a compiled program: runtime
// (padded to RuntimeSize), bytecode, number constants (each padded to
// MaxNumSize), then length-prefixed strings.
func GenerateROM(module *isa.CompiledModule) ([]byte, error) {
	b := &builder{}
	b.generateRuntime(module)

	if len(b.buf.Code) > RuntimeSize {
		return nil, fmt.Errorf("rom: runtime grew to %d bytes, exceeds the %d-byte budget before BytecodeOrg", len(b.buf.Code), RuntimeSize)
	}
	b.buf.PadWithNOP(RuntimeSize, asm.OpNOP)

	code := make([]byte, len(b.buf.Code))
	copy(code, b.buf.Code)

	code = append(code, module.Bytecode...)

	for _, n := range module.Numbers {
		packed := n.PackConst()
		code = append(code, packed[:]...)
	}

	for _, s := range module.Strings {
		if len(s) > 255 {
			return nil, fmt.Errorf("rom: string constant %q is %d bytes, exceeds the 255-byte length prefix", s, len(s))
		}
		code = append(code, byte(len(s)))
		code = append(code, s...)
	}

	return code, nil
}

// generateRuntime emits the entry preamble, every subroutine, the literal
// ZERO/ONE data table, and the dispatch loop, in dependency order: a
// subroutine must be emitted (and its address recorded) before anything
// that CALLs it.
func (b *builder) generateRuntime(module *isa.CompiledModule) {
	buf := &b.buf

	// --- Entry preamble at address 0 ---
	buf.EmitOp(asm.OpDI)
	buf.EmitOp(asm.OpLdSPNN)
	buf.EmitU16LE(StackTop)

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

	b.emitInitVMState()
	b.emitInitConstants()
	b.emitInitVars()

	initJumpPos := buf.JPPlaceholder(asm.OpJpNN) // patched once vm_loop's address is known

	// --- Subroutines, each reached by absolute CALL ---
	b.aciaOutAddr = uint16(buf.Len())
	b.emitAciaOut()

	b.aciaInAddr = uint16(buf.Len())
	b.emitAciaIn()

	b.printNumAddr = uint16(buf.Len())
	b.emitPrintBCD()

	b.printCrlfAddr = uint16(buf.Len())
	b.emitPrintCRLF()

	b.allocNumAddr = uint16(buf.Len())
	b.emitAllocNumber()

	b.copyNumAddr = uint16(buf.Len())
	b.emitCopyNumber()

	b.emitBCDNeg() // sets b.bcdNegAddr; bcd_sub needs it before bcd_add/bcd_sub are emitted

	b.emitBCDCmpMag() // sets b.bcdCmpMagAddr; bcd_add and bcd_cmp both call it

	b.emitBCDAdd() // sets b.bcdAddAddr

	b.emitBCDSub() // sets b.bcdSubAddr; tail-calls into bcd_add

	b.emitBCDMul10() // sets b.bcdMul10Addr; used by bcd_mul

	b.emitBCDMul() // sets b.bcdMulAddr; uses bcd_add and bcd_mul10

	b.emitBCDCmp() // sets b.bcdCmpAddr; used by bcd_div below

	b.emitBCDDiv() // sets b.bcdDivAddr; uses bcd_cmp and bcd_sub

	b.pushVStackAddr = uint16(buf.Len())
	b.emitPushVStack()

	b.popVStackAddr = uint16(buf.Len())
	b.emitPopVStack()

	// --- Main interpreter loop --- (emitDispatchLoop records b.vmLoopAddr
	// itself, after laying down the opcode-width table it starts with)
	b.emitDispatchLoop(module)
	_ = buf.PatchJP(initJumpPos, b.vmLoopAddr)
}

func (b *builder) emitInitVMState() {
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

	writeU16(VMPC, BytecodeOrg)
	writeU16(VMSP, VStackBase)
	writeU8(VMScale, 0)
	writeU8(VMIbase, 10)
	writeU8(VMObase, 10)
	writeU16(VMHeap, HeapStart)
}

// emitInitConstants block-copies the embedded ZERO/ONE records into their
// fixed RAM addresses via LDIR, the same block-move primitive copy_number
// uses.
func (b *builder) emitInitConstants() {
	buf := &b.buf
	copyRecord := func(dst uint16) {
		buf.EmitOp(asm.OpLdHLNN)
		buf.EmitU16LE(b.constDataAddr)
		buf.EmitOp(asm.OpLdDENN)
		buf.EmitU16LE(dst)
		buf.EmitOp(asm.OpLdBCNN)
		buf.EmitU16LE(bcd.RecordSize)
		buf.EmitED(asm.OpLDIR)
	}
	copyRecord(ConstZero)
	// constDataAddr + RecordSize holds the ONE record.
	buf.EmitOp(asm.OpLdHLNN)
	buf.EmitU16LE(b.constDataAddr + bcd.RecordSize)
	buf.EmitOp(asm.OpLdDENN)
	buf.EmitU16LE(ConstOne)
	buf.EmitOp(asm.OpLdBCNN)
	buf.EmitU16LE(bcd.RecordSize)
	buf.EmitED(asm.OpLDIR)
}

// emitInitVars presets every variable slot (VarsBase, 26 two-byte pointer
// cells for a..z) to point at ConstZero, so LoadVar on a variable the
// program never stored into reads a well-formed zero rather than a stray
// heap address.
func (b *builder) emitInitVars() {
	buf := &b.buf
	buf.EmitOp(asm.OpLdHLNN)
	buf.EmitU16LE(VarsBase)
	buf.EmitOp(asm.OpLdBN)
	buf.EmitU8(26)
	loop := buf.Len()
	buf.EmitOp(asm.OpLdHLN)
	buf.EmitU8(byte(ConstZero & 0xFF))
	buf.EmitOp(asm.OpIncHL)
	buf.EmitOp(asm.OpLdHLN)
	buf.EmitU8(byte(ConstZero >> 8))
	buf.EmitOp(asm.OpIncHL)
	_ = buf.EmitJR(asm.OpDjnzN, loop)
}

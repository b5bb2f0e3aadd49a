// Package asm provides the low-level Z80 emitter primitives (P): a growing
// byte buffer, literal byte/word emission, and relative/absolute jump
// placeholders with back-patching. pkg/rom and pkg/repl build the runtime
// and REPL ROM images entirely out of these primitives.
//
// A flat byte slice, raw opcode bytes pushed directly, u16 operands emitted
// little-endian, forward jumps patched after the fact.
package asm

import "fmt"

// Buffer is a growing byte vector with emission and back-patch helpers. The
// zero value is ready to use.
type Buffer struct {
	Code []byte
}

// Len returns the current buffer length — the offset the next emitted byte
// will land at.
func (b *Buffer) Len() int { return len(b.Code) }

// EmitOp appends a single opcode byte.
func (b *Buffer) EmitOp(op byte) {
	b.Code = append(b.Code, op)
}

// EmitU8 appends a raw byte (an 8-bit immediate or operand).
func (b *Buffer) EmitU8(v uint8) {
	b.Code = append(b.Code, v)
}

// EmitU16LE appends a 16-bit value little-endian (low byte first), matching
// the Z80's native word order.
func (b *Buffer) EmitU16LE(v uint16) {
	b.Code = append(b.Code, byte(v), byte(v>>8))
}

// EmitBytes appends a raw byte sequence verbatim (used for multi-byte
// encodings such as ED/CB-prefixed instructions assembled by the caller).
func (b *Buffer) EmitBytes(bs ...byte) {
	b.Code = append(b.Code, bs...)
}

// PadWithNOP appends NOP (0x00 on this target's runtime convention — see
// Op.NOP) bytes until the buffer reaches the given absolute length. It is a
// no-op if the buffer is already at or past that length.
func (b *Buffer) PadWithNOP(length int, nop byte) {
	for len(b.Code) < length {
		b.Code = append(b.Code, nop)
	}
}

// JRPlaceholder emits a 2-byte conditional/unconditional relative jump
// (opcode byte `cond` — e.g. JR_NZ_N, JR_Z_N, JR_N — followed by a
// zero-filled displacement byte) and returns the buffer position of the
// displacement byte, to be resolved later with PatchJR.
//
// Relative jumps are for reaching a target inside the SAME handler body
// only: the displacement is one byte and can
// only span −128..+127. Anything that must reach the central dispatch loop
// or another handler has to use JPPlaceholder/PatchJP instead.
func (b *Buffer) JRPlaceholder(cond byte) int {
	b.EmitOp(cond)
	pos := b.Len()
	b.EmitU8(0)
	return pos
}

// PatchJR resolves a relative jump emitted by JRPlaceholder: the signed
// displacement is (here − pos − 1), the offset from the byte immediately
// after the displacement byte to the current end of the buffer. It is an
// error — not a silent truncation — if that displacement falls outside
// [-128, 127]; distances between handlers grow as the emitter adds more
// code; an unchecked write here is the chief hazard this package exists to
// prevent.
func (b *Buffer) PatchJR(pos int) error {
	disp := b.Len() - pos - 1
	if disp < -128 || disp > 127 {
		return fmt.Errorf("asm: relative jump displacement %d out of range [-128,127] at buffer offset %d", disp, pos)
	}
	b.Code[pos] = byte(int8(disp))
	return nil
}

// JPPlaceholder emits a 3-byte absolute jump/call (opcode byte `op` —
// JP_NN, JP_Z_NN, CALL_NN, etc. — followed by a zero-filled 16-bit address)
// and returns the position of the address's low byte, to be resolved with
// PatchJP. Absolute jumps are unconditional on range: any 16-bit value is
// valid since the whole address space is reachable.
func (b *Buffer) JPPlaceholder(op byte) int {
	b.EmitOp(op)
	pos := b.Len()
	b.EmitU16LE(0)
	return pos
}

// PatchJP resolves an absolute jump/call emitted by JPPlaceholder, writing
// the target address little-endian at the saved position.
func (b *Buffer) PatchJP(pos int, target uint16) error {
	if pos < 0 || pos+2 > len(b.Code) {
		return fmt.Errorf("asm: patch position %d out of range (buffer is %d bytes)", pos, len(b.Code))
	}
	b.Code[pos] = byte(target)
	b.Code[pos+1] = byte(target >> 8)
	return nil
}

// EmitJR emits a relative jump/call to a target buffer position that is
// already known — typically a backward branch to a poll loop or local label
// emitted earlier in the same handler. Unlike JRPlaceholder/PatchJR (which
// patch a forward target once it becomes known), EmitJR resolves the
// displacement immediately, since both ends of the branch are already fixed.
// It fails with the same range check PatchJR applies.
func (b *Buffer) EmitJR(cond byte, target int) error {
	b.EmitOp(cond)
	pos := b.Len()
	disp := target - (pos + 1)
	if disp < -128 || disp > 127 {
		return fmt.Errorf("asm: relative jump displacement %d out of range [-128,127] at buffer offset %d", disp, pos)
	}
	b.Code = append(b.Code, byte(int8(disp)))
	return nil
}

// EmitED appends an ED-prefixed two-byte instruction (e.g. NEG, LDIR,
// ADC HL,rr).
func (b *Buffer) EmitED(op byte) {
	b.EmitOp(OpEDPrefix)
	b.EmitOp(op)
}

// EmitIX appends a DD (IX-prefixed) two-byte-opcode instruction; the Z80's
// IX forms are not otherwise used by this backend, but the helper is kept
// for completeness alongside the other prefix emitters.
func (b *Buffer) EmitIX(op byte) {
	b.EmitOp(OpIXPrefix)
	b.EmitOp(op)
}

// EmitCB appends a CB-prefixed two-byte instruction (bit/shift/rotate on a
// register or (HL)).
func (b *Buffer) EmitCB(op byte) {
	b.EmitOp(OpCBPrefix)
	b.EmitOp(op)
}

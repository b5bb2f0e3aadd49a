// Package isa defines the bytecode instruction set (I): one-byte opcodes,
// their operand encodings, and the CompiledModule container the front end
// (pkg/compiler) builds and the back end (pkg/rom) consumes.
package isa

import (
	"fmt"

	"github.com/ajokela/kz80-bc/pkg/bcd"
)

// Op is a single bytecode opcode.
type Op uint8

// Required opcodes: the runtime (pkg/rom) must implement all of these.
const (
	Halt Op = 0x00
	Nop  Op = 0x01
	Pop  Op = 0x02
	Dup  Op = 0x03

	LoadZero Op = 0x10
	LoadOne  Op = 0x11
	LoadNum  Op = 0x12 // u16 constant-table index follows

	LoadVar  Op = 0x20 // u8 variable slot follows
	StoreVar Op = 0x21 // u8 variable slot follows

	Add Op = 0x30
	Sub Op = 0x31
	Mul Op = 0x32
	Div Op = 0x33
	Neg Op = 0x36

	Eq Op = 0x40
	Lt Op = 0x42
	Gt Op = 0x44

	Jump          Op = 0x60 // u16 bytecode-relative target follows
	JumpIfZero    Op = 0x61 // u16 bytecode-relative target follows
	JumpIfNotZero Op = 0x62 // u16 bytecode-relative target follows

	Print        Op = 0x90
	PrintNewline Op = 0x92
	StoreScale   Op = 0x29
)

// Reserved opcodes: assigned a byte value, parsed by the compiler where the
// source language has the feature, but the runtime's dispatch loop falls
// through to the loop head without effect. Not required to
// have a working handler; listed here so LoadNum/LoadVar-style operand
// widths and the disassembler agree on every byte that can appear in a
// compiled module.
const (
	LoadStr Op = 0x13

	LoadArray  Op = 0x22 // u8 slot follows
	StoreArray Op = 0x23 // u8 slot follows

	LoadIbase  Op = 0x2A
	StoreIbase Op = 0x2B
	LoadObase  Op = 0x2C
	StoreObase Op = 0x2D
	LoadLast   Op = 0x2E

	Mod Op = 0x34
	Pow Op = 0x35

	Ne Op = 0x41
	Le Op = 0x43
	Ge Op = 0x45

	And Op = 0x48
	Or  Op = 0x49
	Not Op = 0x4A

	Inc Op = 0x50
	Dec Op = 0x51

	Call        Op = 0x70 // u8 function index follows
	Return      Op = 0x71
	ReturnValue Op = 0x72

	Length Op = 0x80
	ScaleOf Op = 0x81
	Sqrt   Op = 0x82

	PrintStr Op = 0x91 // u16 string-table index follows
	Read     Op = 0x93
)

// Name returns the opcode's mnemonic, or "???" for a byte with no assigned
// meaning. Used by pkg/listing and the CLI's --bytecode dump.
func (op Op) Name() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return "???"
}

// IsRequired reports whether the runtime must implement this opcode (as
// opposed to a reserved opcode the dispatch loop tolerates without acting
// on).
func (op Op) IsRequired() bool {
	_, ok := requiredOps[op]
	return ok
}

var requiredOps = map[Op]struct{}{
	Halt: {}, Nop: {}, Pop: {}, Dup: {},
	LoadZero: {}, LoadOne: {}, LoadNum: {},
	LoadVar: {}, StoreVar: {},
	Add: {}, Sub: {}, Mul: {}, Div: {}, Neg: {},
	Eq: {}, Lt: {}, Gt: {},
	Jump: {}, JumpIfZero: {}, JumpIfNotZero: {},
	Print: {}, PrintNewline: {}, StoreScale: {},
}

var opNames = map[Op]string{
	Halt: "Halt", Nop: "Nop", Pop: "Pop", Dup: "Dup",
	LoadZero: "LoadZero", LoadOne: "LoadOne", LoadNum: "LoadNum", LoadStr: "LoadStr",
	LoadVar: "LoadVar", StoreVar: "StoreVar", LoadArray: "LoadArray", StoreArray: "StoreArray",
	LoadIbase: "LoadIbase", StoreIbase: "StoreIbase", LoadObase: "LoadObase", StoreObase: "StoreObase",
	LoadLast: "LoadLast",
	Add: "Add", Sub: "Sub", Mul: "Mul", Div: "Div", Mod: "Mod", Pow: "Pow", Neg: "Neg",
	Eq: "Eq", Ne: "Ne", Lt: "Lt", Le: "Le", Gt: "Gt", Ge: "Ge",
	And: "And", Or: "Or", Not: "Not",
	Inc: "Inc", Dec: "Dec",
	Jump: "Jump", JumpIfZero: "JumpIfZero", JumpIfNotZero: "JumpIfNotZero",
	Call: "Call", Return: "Return", ReturnValue: "ReturnValue",
	Length: "Length", ScaleOf: "ScaleOf", Sqrt: "Sqrt",
	Print: "Print", PrintStr: "PrintStr", PrintNewline: "PrintNewline", Read: "Read",
	StoreScale: "StoreScale",
}

// OperandWidth describes how many bytes of operand follow an opcode byte.
type OperandWidth int

const (
	NoOperand OperandWidth = 0
	U8Operand OperandWidth = 1
	U16Operand OperandWidth = 2
)

// Operand returns the operand width for op: 16-bit constant/string indices
// and jump targets, 8-bit variable/function slots.
func Operand(op Op) OperandWidth {
	switch op {
	case LoadNum, LoadStr, PrintStr, Jump, JumpIfZero, JumpIfNotZero:
		return U16Operand
	case LoadVar, StoreVar, LoadArray, StoreArray, Call:
		return U8Operand
	default:
		return NoOperand
	}
}

// FunctionDescriptor names a compiled function: its name, parameter and
// local counts, and the bytecode offset of its entry point. Call/Return
// execution is out of scope; the descriptor exists so a
// CompiledModule can record what the front end parsed even though the
// runtime reserves, but does not run, Call/Return.
type FunctionDescriptor struct {
	Name         string
	ParamCount   int
	LocalCount   int
	BytecodeOffset int
}

// CompiledModule is the in-memory container the compiler builds and the ROM
// generator serializes: the bytecode stream plus its deduplicated number,
// string, and function tables.
type CompiledModule struct {
	Bytecode  []byte
	Numbers   []bcd.Number
	Strings   []string
	Functions []FunctionDescriptor

	stringIndex map[string]uint16
}

// NewCompiledModule returns an empty module ready for emission.
func NewCompiledModule() *CompiledModule {
	return &CompiledModule{stringIndex: make(map[string]uint16)}
}

// AddNumber appends a number constant and returns its table index.
func (m *CompiledModule) AddNumber(n bcd.Number) uint16 {
	idx := len(m.Numbers)
	m.Numbers = append(m.Numbers, n)
	return uint16(idx)
}

// AddString interns a string constant, returning the existing index if the
// same text was already added.
func (m *CompiledModule) AddString(s string) uint16 {
	if idx, ok := m.stringIndex[s]; ok {
		return idx
	}
	idx := uint16(len(m.Strings))
	m.Strings = append(m.Strings, s)
	m.stringIndex[s] = idx
	return idx
}

// Emit appends a single opcode byte.
func (m *CompiledModule) Emit(op Op) {
	m.Bytecode = append(m.Bytecode, byte(op))
}

// EmitU8 appends a raw byte operand.
func (m *CompiledModule) EmitU8(v uint8) {
	m.Bytecode = append(m.Bytecode, v)
}

// EmitU16 appends a little-endian 16-bit operand.
func (m *CompiledModule) EmitU16(v uint16) {
	m.Bytecode = append(m.Bytecode, byte(v), byte(v>>8))
}

// CurrentOffset returns the current end of the bytecode stream — used as a
// jump target or as the saved position to back-patch later.
func (m *CompiledModule) CurrentOffset() int {
	return len(m.Bytecode)
}

// PatchU16 rewrites a previously emitted 16-bit operand in place, used for
// forward jumps: emit a placeholder at the branch site, keep its offset,
// and patch it once the real target offset is known.
func (m *CompiledModule) PatchU16(offset int, v uint16) error {
	if offset < 0 || offset+2 > len(m.Bytecode) {
		return fmt.Errorf("isa: patch offset %d out of range (bytecode is %d bytes)", offset, len(m.Bytecode))
	}
	m.Bytecode[offset] = byte(v)
	m.Bytecode[offset+1] = byte(v >> 8)
	return nil
}

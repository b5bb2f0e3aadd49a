// Package listing disassembles a CompiledModule into structured entries for
// the CLI's --bytecode and --bytecode-json dumps. Adapted from the table
// model in oisee-z80-optimizer's pkg/result/table.go, trimmed of its
// concurrency and checkpoint machinery — a single compile pass produces one
// listing and has nothing to resume.
package listing

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ajokela/kz80-bc/pkg/isa"
)

// Entry is one decoded bytecode instruction: its offset, opcode, and operand
// (if any).
type Entry struct {
	Offset  int    `json:"offset"`
	Op      isa.Op `json:"-"`
	Name    string `json:"op"`
	Operand *int   `json:"operand,omitempty"`
}

// Disassemble walks module's bytecode into a sequence of Entry values, one
// per instruction, in the order they appear.
func Disassemble(module *isa.CompiledModule) []Entry {
	var entries []Entry
	code := module.Bytecode
	for i := 0; i < len(code); {
		op := isa.Op(code[i])
		e := Entry{Offset: i, Op: op, Name: op.Name()}
		width := isa.Operand(op)
		switch width {
		case isa.U8Operand:
			if i+1 < len(code) {
				v := int(code[i+1])
				e.Operand = &v
			}
		case isa.U16Operand:
			if i+2 < len(code) {
				v := int(uint16(code[i+1]) | uint16(code[i+2])<<8)
				e.Operand = &v
			}
		}
		entries = append(entries, e)
		i += 1 + int(width)
	}
	return entries
}

// Text renders entries as a plain-text dump, one instruction per line:
// "OFFSET  MNEMONIC  OPERAND".
func Text(entries []Entry) string {
	var b strings.Builder
	for _, e := range entries {
		if e.Operand != nil {
			fmt.Fprintf(&b, "%04x  %-14s %d\n", e.Offset, e.Name, *e.Operand)
		} else {
			fmt.Fprintf(&b, "%04x  %-14s\n", e.Offset, e.Name)
		}
	}
	return b.String()
}

// moduleDump is the JSON shape for --bytecode-json: the decoded instruction
// stream plus the constant tables an offset's operand may index into.
type moduleDump struct {
	Instructions []Entry           `json:"instructions"`
	Numbers      []string          `json:"numbers"`
	Strings      []string          `json:"strings"`
	Functions    []isa.FunctionDescriptor `json:"functions"`
}

// JSON renders module as an indented JSON document combining its decoded
// instructions with its number/string/function tables.
func JSON(module *isa.CompiledModule) ([]byte, error) {
	numbers := make([]string, len(module.Numbers))
	for i, n := range module.Numbers {
		numbers[i] = n.String()
	}
	dump := moduleDump{
		Instructions: Disassemble(module),
		Numbers:      numbers,
		Strings:      module.Strings,
		Functions:    module.Functions,
	}
	return json.MarshalIndent(dump, "", "  ")
}

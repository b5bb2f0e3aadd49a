package listing

import (
	"strings"
	"testing"

	"github.com/ajokela/kz80-bc/pkg/compiler"
	"github.com/ajokela/kz80-bc/pkg/parser"
)

func TestDisassembleSimpleAddition(t *testing.T) {
	prog, err := parser.Parse("1 + 1\n")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	mod, err := compiler.Compile(prog)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	entries := Disassemble(mod)
	if len(entries) == 0 {
		t.Fatal("expected at least one entry")
	}
	if entries[0].Name != "LoadOne" {
		t.Errorf("got first entry %q, want LoadOne", entries[0].Name)
	}
	last := entries[len(entries)-1]
	if last.Name != "Halt" {
		t.Errorf("got last entry %q, want Halt", last.Name)
	}
}

func TestTextDumpIncludesOperand(t *testing.T) {
	prog, err := parser.Parse("42\n")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	mod, err := compiler.Compile(prog)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	text := Text(Disassemble(mod))
	if !strings.Contains(text, "LoadNum") {
		t.Errorf("got %q, want it to mention LoadNum", text)
	}
	if !strings.Contains(text, "0") {
		t.Errorf("got %q, want an operand index", text)
	}
}

func TestJSONRoundTripsNumberTable(t *testing.T) {
	prog, err := parser.Parse("42\n")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	mod, err := compiler.Compile(prog)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	out, err := JSON(mod)
	if err != nil {
		t.Fatalf("JSON error: %v", err)
	}
	if !strings.Contains(string(out), `"numbers"`) {
		t.Errorf("got %s, want a numbers field", out)
	}
	if !strings.Contains(string(out), "42") {
		t.Errorf("got %s, want the literal 42 in the numbers table", out)
	}
}

package compiler

import (
	"testing"

	"github.com/ajokela/kz80-bc/pkg/isa"
	"github.com/ajokela/kz80-bc/pkg/parser"
)

func mustCompile(t *testing.T, src string) *isa.CompiledModule {
	t.Helper()
	prog, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	mod, err := Compile(prog)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	return mod
}

func TestCompileNumberLiteral(t *testing.T) {
	mod := mustCompile(t, "0\n1\n")
	// 0 -> LoadZero, then a statement is an ExprStmt so Print+PrintNewline follow
	want := []isa.Op{isa.LoadZero, isa.Print, isa.PrintNewline, isa.LoadOne, isa.Print, isa.PrintNewline, isa.Halt}
	checkOps(t, mod.Bytecode, want)
}

func TestCompileNumberConstant(t *testing.T) {
	mod := mustCompile(t, "42\n")
	if len(mod.Numbers) != 1 {
		t.Fatalf("got %d numbers, want 1", len(mod.Numbers))
	}
	if mod.Bytecode[0] != byte(isa.LoadNum) {
		t.Fatalf("got opcode %v, want LoadNum", isa.Op(mod.Bytecode[0]))
	}
}

func TestCompileAddition(t *testing.T) {
	mod := mustCompile(t, "1 + 1\n")
	want := []isa.Op{isa.LoadOne, isa.LoadOne, isa.Add, isa.Print, isa.PrintNewline, isa.Halt}
	checkOps(t, mod.Bytecode, want)
}

func TestCompileVariableAssignmentNoPrint(t *testing.T) {
	mod := mustCompile(t, "x = 1\n")
	// Assign emits LoadOne, Dup, StoreVar(slot); ExprStmt sees isAssignment
	// true and pops rather than printing.
	want := []isa.Op{isa.LoadOne, isa.Dup, isa.StoreVar, isa.Pop, isa.Halt}
	checkOpsWithOperands(t, mod.Bytecode, want)
}

func TestCompileVariableRead(t *testing.T) {
	mod := mustCompile(t, "x = 1\nx\n")
	// second statement is a bare Var read — not an assignment, so it prints
	if mod.Bytecode[len(mod.Bytecode)-3] != byte(isa.Print) {
		t.Fatalf("expected trailing Print before Halt, got %v", isa.Op(mod.Bytecode[len(mod.Bytecode)-3]))
	}
}

func TestCompileIfElse(t *testing.T) {
	mod := mustCompile(t, "if (1) x = 1\nelse x = 0\n")
	if len(mod.Bytecode) == 0 {
		t.Fatal("expected non-empty bytecode")
	}
	// JumpIfZero and Jump should both appear for the if/else
	foundJIZ, foundJump := false, false
	for i := 0; i < len(mod.Bytecode); {
		op := isa.Op(mod.Bytecode[i])
		switch op {
		case isa.JumpIfZero:
			foundJIZ = true
		case isa.Jump:
			foundJump = true
		}
		width := isa.Operand(op)
		i += 1 + int(width)
	}
	if !foundJIZ || !foundJump {
		t.Errorf("got JumpIfZero=%v Jump=%v, want both true", foundJIZ, foundJump)
	}
}

func TestCompileWhileLoop(t *testing.T) {
	mod := mustCompile(t, "while (x) x = 0;\n")
	// walk decoding, last real opcode before Halt should be a backward Jump
	var lastJumpTarget uint16
	var lastJumpOffset = -1
	for i := 0; i < len(mod.Bytecode); {
		op := isa.Op(mod.Bytecode[i])
		width := isa.Operand(op)
		if op == isa.Jump {
			lastJumpOffset = i
			lastJumpTarget = uint16(mod.Bytecode[i+1]) | uint16(mod.Bytecode[i+2])<<8
		}
		i += 1 + int(width)
	}
	if lastJumpOffset == -1 {
		t.Fatal("expected a Jump instruction closing the loop")
	}
	if int(lastJumpTarget) >= lastJumpOffset {
		t.Errorf("got backward jump target %d >= its own offset %d, want target before offset", lastJumpTarget, lastJumpOffset)
	}
}

func TestCompileBreakContinue(t *testing.T) {
	_, err := parser.Parse("for (i = 0; i < 1; i++) { break; continue }")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	mod := mustCompile(t, "for (i = 0; i < 1; i++) { break; continue }")
	if len(mod.Bytecode) == 0 {
		t.Fatal("expected non-empty bytecode")
	}
}

func TestCompileBreakOutsideLoopErrors(t *testing.T) {
	prog, err := parser.Parse("break\n")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if _, err := Compile(prog); err == nil {
		t.Fatal("expected error compiling break outside a loop")
	}
}

func TestCompileFunction(t *testing.T) {
	mod := mustCompile(t, "define f(a) { return(a) }\nf(1)\n")
	if len(mod.Functions) != 1 {
		t.Fatalf("got %d functions, want 1", len(mod.Functions))
	}
	fd := mod.Functions[0]
	if fd.Name != "f" || fd.ParamCount != 1 {
		t.Errorf("got %+v, want f/1 param", fd)
	}
	// function body must be emitted after the main program's Halt
	foundHalt := false
	for i := 0; i < fd.BytecodeOffset; i++ {
		if isa.Op(mod.Bytecode[i]) == isa.Halt {
			foundHalt = true
		}
	}
	if !foundHalt {
		t.Error("expected a Halt before the function's bytecode offset")
	}
}

func checkOps(t *testing.T, bytecode []byte, want []isa.Op) {
	t.Helper()
	i := 0
	for _, op := range want {
		if i >= len(bytecode) {
			t.Fatalf("bytecode too short: got %d bytes, expected at least up to %v", len(bytecode), op)
		}
		got := isa.Op(bytecode[i])
		if got != op {
			t.Fatalf("at offset %d: got %v, want %v", i, got, op)
		}
		i += 1 + int(isa.Operand(got))
	}
}

func checkOpsWithOperands(t *testing.T, bytecode []byte, want []isa.Op) {
	checkOps(t, bytecode, want)
}

package parser

import (
	"testing"

	"github.com/ajokela/kz80-bc/pkg/ast"
)

func TestSimpleExpr(t *testing.T) {
	prog, err := Parse("1 + 2 * 3")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(prog.Statements) != 1 {
		t.Fatalf("got %d statements, want 1", len(prog.Statements))
	}
	es, ok := prog.Statements[0].(ast.ExprStmt)
	if !ok {
		t.Fatalf("got %T, want ExprStmt", prog.Statements[0])
	}
	add, ok := es.X.(ast.BinOp)
	if !ok || add.Op != "+" {
		t.Fatalf("got %+v, want top-level BinOp(+)", es.X)
	}
	mul, ok := add.Right.(ast.BinOp)
	if !ok || mul.Op != "*" {
		t.Fatalf("got %+v, want Right to be BinOp(*) (precedence)", add.Right)
	}
}

func TestAssignment(t *testing.T) {
	prog, err := Parse("x = 5")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	es := prog.Statements[0].(ast.ExprStmt)
	assign, ok := es.X.(ast.Assign)
	if !ok {
		t.Fatalf("got %T, want Assign", es.X)
	}
	if assign.Op != "" {
		t.Errorf("got Op = %q, want plain assign", assign.Op)
	}
	if v, ok := assign.Target.(ast.Var); !ok || v.Name != "x" {
		t.Errorf("got target %+v, want Var(x)", assign.Target)
	}
}

func TestCompoundAssignment(t *testing.T) {
	prog, err := Parse("x += 1")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	es := prog.Statements[0].(ast.ExprStmt)
	assign, ok := es.X.(ast.Assign)
	if !ok || assign.Op != "+" {
		t.Fatalf("got %+v, want Assign(Op=+)", es.X)
	}
}

func TestFunction(t *testing.T) {
	prog, err := Parse("define f(a, b) {\n auto c\n c = a + b\n return(c)\n}\n")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(prog.Functions) != 1 {
		t.Fatalf("got %d functions, want 1", len(prog.Functions))
	}
	fn := prog.Functions[0]
	if fn.Name != "f" {
		t.Errorf("got name %q, want f", fn.Name)
	}
	if len(fn.Params) != 2 || fn.Params[0].Name != "a" || fn.Params[1].Name != "b" {
		t.Errorf("got params %+v, want [a b]", fn.Params)
	}
	if len(fn.AutoVars) != 1 || fn.AutoVars[0].Name != "c" {
		t.Errorf("got autovars %+v, want [c]", fn.AutoVars)
	}
	if len(fn.Body) != 2 {
		t.Fatalf("got %d body statements, want 2", len(fn.Body))
	}
	if _, ok := fn.Body[1].(ast.Return); !ok {
		t.Errorf("got %T, want Return as last statement", fn.Body[1])
	}
}

func TestWhileLoop(t *testing.T) {
	prog, err := Parse("while (i < 10) { i = i + 1 }")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	w, ok := prog.Statements[0].(ast.While)
	if !ok {
		t.Fatalf("got %T, want While", prog.Statements[0])
	}
	cond, ok := w.Cond.(ast.BinOp)
	if !ok || cond.Op != "<" {
		t.Fatalf("got cond %+v, want BinOp(<)", w.Cond)
	}
	block, ok := w.Body.(ast.Block)
	if !ok || len(block.Stmts) != 1 {
		t.Fatalf("got body %+v, want Block with 1 statement", w.Body)
	}
}

func TestIfElse(t *testing.T) {
	prog, err := Parse("if (x == 1) { y = 2 } else { y = 3 }")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	ifStmt, ok := prog.Statements[0].(ast.If)
	if !ok {
		t.Fatalf("got %T, want If", prog.Statements[0])
	}
	if ifStmt.Else == nil {
		t.Fatal("got nil Else, want else branch")
	}
}

func TestForLoopWithBreakAndContinue(t *testing.T) {
	prog, err := Parse("for (i = 0; i < 10; i++) { if (i == 5) break; continue }")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	forStmt, ok := prog.Statements[0].(ast.For)
	if !ok {
		t.Fatalf("got %T, want For", prog.Statements[0])
	}
	if forStmt.Init == nil || forStmt.Cond == nil || forStmt.Update == nil {
		t.Fatalf("got %+v, want all three clauses present", forStmt)
	}
	if _, ok := forStmt.Update.(ast.PostInc); !ok {
		t.Errorf("got update %+v, want PostInc", forStmt.Update)
	}
}

func TestPrintStatement(t *testing.T) {
	prog, err := Parse(`print "x=", x`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	p, ok := prog.Statements[0].(ast.Print)
	if !ok || len(p.Items) != 2 {
		t.Fatalf("got %+v, want Print with 2 items", prog.Statements[0])
	}
	if p.Items[0].String != "x=" {
		t.Errorf("got %q, want x=", p.Items[0].String)
	}
	if v, ok := p.Items[1].X.(ast.Var); !ok || v.Name != "x" {
		t.Errorf("got %+v, want Var(x)", p.Items[1].X)
	}
}

func TestArrayElementAndCall(t *testing.T) {
	prog, err := Parse("a[1] = f(2, 3)")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	assign := prog.Statements[0].(ast.ExprStmt).X.(ast.Assign)
	if _, ok := assign.Target.(ast.ArrayElement); !ok {
		t.Errorf("got target %T, want ArrayElement", assign.Target)
	}
	call, ok := assign.Value.(ast.Call)
	if !ok || call.Name != "f" || len(call.Args) != 2 {
		t.Errorf("got value %+v, want Call(f, 2 args)", assign.Value)
	}
}

func TestScaleBareVsCall(t *testing.T) {
	prog, err := Parse("scale\nscale(x)\n")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if _, ok := prog.Statements[0].(ast.ExprStmt).X.(ast.Scale); !ok {
		t.Errorf("got %+v, want bare Scale", prog.Statements[0])
	}
	if _, ok := prog.Statements[1].(ast.ExprStmt).X.(ast.ScaleFunc); !ok {
		t.Errorf("got %+v, want ScaleFunc", prog.Statements[1])
	}
}

func TestPowerRightAssociative(t *testing.T) {
	prog, err := Parse("2 ^ 3 ^ 2")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	top := prog.Statements[0].(ast.ExprStmt).X.(ast.BinOp)
	if _, ok := top.Right.(ast.BinOp); !ok {
		t.Errorf("got right %+v, want nested BinOp (right-associative ^)", top.Right)
	}
	if _, ok := top.Left.(ast.Number); !ok {
		t.Errorf("got left %+v, want Number (right-associative ^)", top.Left)
	}
}

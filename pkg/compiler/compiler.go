// Package compiler lowers an ast.Program into isa bytecode with a
// single-pass tree-walking emitter.
package compiler

import (
	"fmt"

	"github.com/ajokela/kz80-bc/pkg/ast"
	"github.com/ajokela/kz80-bc/pkg/bcd"
	"github.com/ajokela/kz80-bc/pkg/isa"
)

// loopContext tracks the break/continue targets for one enclosing loop.
// continueTarget is reassigned mid-compile for `for` once its update
// section's offset is known, so `continue` lands there instead of at the
// loop head (compiler.rs's Stmt::For handling).
type loopContext struct {
	breakPatches  []int
	continueTarget int
}

// Compiler walks an ast.Program and emits an isa.CompiledModule.
type Compiler struct {
	module       *isa.CompiledModule
	variables    map[string]uint8
	nextVarSlot  uint8
	loopStack    []loopContext
	functions    map[string]uint8
}

// Compile parses nothing itself; it takes an already-parsed Program and
// returns the bytecode module, or the first compile error encountered.
func Compile(prog ast.Program) (*isa.CompiledModule, error) {
	c := &Compiler{
		module:    isa.NewCompiledModule(),
		variables: make(map[string]uint8),
		functions: make(map[string]uint8),
	}
	return c.compileProgram(prog)
}

func (c *Compiler) compileProgram(prog ast.Program) (*isa.CompiledModule, error) {
	for i, fn := range prog.Functions {
		if i > 255 {
			return nil, fmt.Errorf("compiler: too many functions (max 256)")
		}
		c.functions[fn.Name] = uint8(i)
	}

	for _, stmt := range prog.Statements {
		if err := c.compileStmt(stmt); err != nil {
			return nil, err
		}
	}
	c.module.Emit(isa.Halt)

	for _, fn := range prog.Functions {
		if err := c.compileFunction(fn); err != nil {
			return nil, err
		}
	}

	return c.module, nil
}

// compileFunction emits a function body after the main program's Halt.
// Params and auto_vars each get the next sequential slot in a scope private
// to this function; the outer variables map is restored afterward.
func (c *Compiler) compileFunction(fn ast.Function) error {
	savedVars := c.variables
	savedSlot := c.nextVarSlot
	c.variables = make(map[string]uint8)
	c.nextVarSlot = 0

	offset := c.module.CurrentOffset()

	for _, p := range fn.Params {
		c.variables[p.Name] = c.nextVarSlot
		c.nextVarSlot++
	}
	for _, av := range fn.AutoVars {
		c.variables[av.Name] = c.nextVarSlot
		c.nextVarSlot++
	}
	localCount := int(c.nextVarSlot) - len(fn.Params)

	for _, stmt := range fn.Body {
		if err := c.compileStmt(stmt); err != nil {
			return err
		}
	}
	// implicit default return of 0 if control falls off the end
	c.module.Emit(isa.LoadZero)
	c.module.Emit(isa.ReturnValue)

	c.module.Functions = append(c.module.Functions, isa.FunctionDescriptor{
		Name:           fn.Name,
		ParamCount:     len(fn.Params),
		LocalCount:     localCount,
		BytecodeOffset: offset,
	})

	c.variables = savedVars
	c.nextVarSlot = savedSlot
	return nil
}

// isAssignment reports whether expr's outer shape already leaves its value
// pushed for its own side-effecting purposes, matching compiler.rs's
// is_assignment: a bare expression statement of one of these shapes is
// popped and discarded rather than printed (see compileStmt's ExprStmt
// case). The REPL (pkg/repl) intentionally takes the opposite policy and
// prints every assignment's result — that divergence is REPL-specific, not
// a bug here.
func isAssignment(expr ast.Expr) bool {
	switch expr.(type) {
	case ast.Assign, ast.PreInc, ast.PreDec, ast.PostInc, ast.PostDec:
		return true
	}
	return false
}

func (c *Compiler) compileStmt(stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case ast.ExprStmt:
		if err := c.compileExpr(s.X); err != nil {
			return err
		}
		if isAssignment(s.X) {
			c.module.Emit(isa.Pop)
		} else {
			c.module.Emit(isa.Print)
			c.module.Emit(isa.PrintNewline)
		}
		return nil

	case ast.Print:
		for _, item := range s.Items {
			if item.X == nil {
				idx := c.module.AddString(item.String)
				c.module.Emit(isa.PrintStr)
				c.module.EmitU16(idx)
				continue
			}
			if err := c.compileExpr(item.X); err != nil {
				return err
			}
			c.module.Emit(isa.Print)
		}
		return nil

	case ast.Block:
		for _, st := range s.Stmts {
			if err := c.compileStmt(st); err != nil {
				return err
			}
		}
		return nil

	case ast.If:
		return c.compileIf(s)

	case ast.While:
		return c.compileWhile(s)

	case ast.For:
		return c.compileFor(s)

	case ast.Break:
		if len(c.loopStack) == 0 {
			return fmt.Errorf("compiler: break outside loop")
		}
		c.module.Emit(isa.Jump)
		patchOffset := c.module.CurrentOffset()
		c.module.EmitU16(0)
		top := len(c.loopStack) - 1
		c.loopStack[top].breakPatches = append(c.loopStack[top].breakPatches, patchOffset)
		return nil

	case ast.Continue:
		if len(c.loopStack) == 0 {
			return fmt.Errorf("compiler: continue outside loop")
		}
		target := c.loopStack[len(c.loopStack)-1].continueTarget
		c.module.Emit(isa.Jump)
		c.module.EmitU16(uint16(target))
		return nil

	case ast.Return:
		if s.X != nil {
			if err := c.compileExpr(s.X); err != nil {
				return err
			}
			c.module.Emit(isa.ReturnValue)
		} else {
			c.module.Emit(isa.Return)
		}
		return nil

	case ast.Quit, ast.Halt:
		c.module.Emit(isa.Halt)
		return nil

	case ast.Auto:
		// slots already assigned in compileFunction; nothing to emit here
		return nil

	case ast.Empty:
		return nil

	default:
		return fmt.Errorf("compiler: unhandled statement %T", stmt)
	}
}

func (c *Compiler) compileIf(s ast.If) error {
	if err := c.compileExpr(s.Cond); err != nil {
		return err
	}
	c.module.Emit(isa.JumpIfZero)
	elseJump := c.module.CurrentOffset()
	c.module.EmitU16(0)

	if err := c.compileStmt(s.Then); err != nil {
		return err
	}

	if s.Else != nil {
		c.module.Emit(isa.Jump)
		endJump := c.module.CurrentOffset()
		c.module.EmitU16(0)

		if err := c.module.PatchU16(elseJump, uint16(c.module.CurrentOffset())); err != nil {
			return err
		}
		if err := c.compileStmt(s.Else); err != nil {
			return err
		}
		return c.module.PatchU16(endJump, uint16(c.module.CurrentOffset()))
	}

	return c.module.PatchU16(elseJump, uint16(c.module.CurrentOffset()))
}

func (c *Compiler) compileWhile(s ast.While) error {
	loopStart := c.module.CurrentOffset()
	c.loopStack = append(c.loopStack, loopContext{continueTarget: loopStart})

	if err := c.compileExpr(s.Cond); err != nil {
		return err
	}
	c.module.Emit(isa.JumpIfZero)
	exitJump := c.module.CurrentOffset()
	c.module.EmitU16(0)

	if err := c.compileStmt(s.Body); err != nil {
		return err
	}
	c.module.Emit(isa.Jump)
	c.module.EmitU16(uint16(loopStart))

	if err := c.module.PatchU16(exitJump, uint16(c.module.CurrentOffset())); err != nil {
		return err
	}

	top := c.loopStack[len(c.loopStack)-1]
	c.loopStack = c.loopStack[:len(c.loopStack)-1]
	for _, p := range top.breakPatches {
		if err := c.module.PatchU16(p, uint16(c.module.CurrentOffset())); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) compileFor(s ast.For) error {
	if s.Init != nil {
		if err := c.compileExpr(s.Init); err != nil {
			return err
		}
		c.module.Emit(isa.Pop)
	}

	loopStart := c.module.CurrentOffset()
	c.loopStack = append(c.loopStack, loopContext{continueTarget: loopStart})

	var exitJump int
	hasExitJump := false
	if s.Cond != nil {
		if err := c.compileExpr(s.Cond); err != nil {
			return err
		}
		c.module.Emit(isa.JumpIfZero)
		exitJump = c.module.CurrentOffset()
		c.module.EmitU16(0)
		hasExitJump = true
	}

	if err := c.compileStmt(s.Body); err != nil {
		return err
	}

	// continue jumps to the update section, not back to loopStart
	continueAddr := c.module.CurrentOffset()
	c.loopStack[len(c.loopStack)-1].continueTarget = continueAddr

	if s.Update != nil {
		if err := c.compileExpr(s.Update); err != nil {
			return err
		}
		c.module.Emit(isa.Pop)
	}

	c.module.Emit(isa.Jump)
	c.module.EmitU16(uint16(loopStart))

	if hasExitJump {
		if err := c.module.PatchU16(exitJump, uint16(c.module.CurrentOffset())); err != nil {
			return err
		}
	}

	top := c.loopStack[len(c.loopStack)-1]
	c.loopStack = c.loopStack[:len(c.loopStack)-1]
	for _, p := range top.breakPatches {
		if err := c.module.PatchU16(p, uint16(c.module.CurrentOffset())); err != nil {
			return err
		}
	}
	return nil
}

// binOpcodes maps a BinOp's Op string to its opcode. Logical && and || have
// no dedicated opcode pair beyond And/Or (reserved; short-circuit execution
// of runtime And/Or/Not is out of scope), so
// they lower the same as the other reserved-but-parsed operators: emitted
// for completeness, tolerated as a no-op by the dispatch loop at runtime.
var binOpcodes = map[string]isa.Op{
	"+": isa.Add, "-": isa.Sub, "*": isa.Mul, "/": isa.Div, "%": isa.Mod, "^": isa.Pow,
	"==": isa.Eq, "!=": isa.Ne, "<": isa.Lt, "<=": isa.Le, ">": isa.Gt, ">=": isa.Ge,
	"&&": isa.And, "||": isa.Or,
}

// compoundOpcodes maps an Assign's Op string (the `+=`-family tag) to the
// binary opcode applied before the store.
var compoundOpcodes = map[string]isa.Op{
	"+": isa.Add, "-": isa.Sub, "*": isa.Mul, "/": isa.Div, "%": isa.Mod, "^": isa.Pow,
}

func (c *Compiler) compileExpr(expr ast.Expr) error {
	switch e := expr.(type) {
	case ast.Number:
		switch e.Text {
		case "0":
			c.module.Emit(isa.LoadZero)
		case "1":
			c.module.Emit(isa.LoadOne)
		default:
			n, err := bcd.Parse(e.Text)
			if err != nil {
				return fmt.Errorf("compiler: invalid number literal %q: %w", e.Text, err)
			}
			idx := c.module.AddNumber(n)
			c.module.Emit(isa.LoadNum)
			c.module.EmitU16(idx)
		}
		return nil

	case ast.String:
		idx := c.module.AddString(e.Text)
		c.module.Emit(isa.LoadStr)
		c.module.EmitU16(idx)
		return nil

	case ast.Var:
		slot := c.getOrCreateVar(e.Name)
		c.module.Emit(isa.LoadVar)
		c.module.EmitU8(slot)
		return nil

	case ast.ArrayElement:
		slot := c.getOrCreateVar(e.Name)
		if err := c.compileExpr(e.Index); err != nil {
			return err
		}
		c.module.Emit(isa.LoadArray)
		c.module.EmitU8(slot)
		return nil

	case ast.Scale:
		// No LoadScale opcode exists in isa (only StoreScale, the write
		// side). A bare scale read lowers to LoadZero, so it always
		// yields 0 whatever scale was last stored.
		c.module.Emit(isa.LoadZero)
		return nil

	case ast.Ibase:
		c.module.Emit(isa.LoadIbase)
		return nil

	case ast.Obase:
		c.module.Emit(isa.LoadObase)
		return nil

	case ast.Last:
		c.module.Emit(isa.LoadLast)
		return nil

	case ast.BinOp:
		if err := c.compileExpr(e.Left); err != nil {
			return err
		}
		if err := c.compileExpr(e.Right); err != nil {
			return err
		}
		op, ok := binOpcodes[e.Op]
		if !ok {
			return fmt.Errorf("compiler: unknown binary operator %q", e.Op)
		}
		c.module.Emit(op)
		return nil

	case ast.Not:
		if err := c.compileExpr(e.X); err != nil {
			return err
		}
		c.module.Emit(isa.Not)
		return nil

	case ast.Neg:
		if err := c.compileExpr(e.X); err != nil {
			return err
		}
		c.module.Emit(isa.Neg)
		return nil

	case ast.PreInc:
		if err := c.compileExpr(e.X); err != nil {
			return err
		}
		c.module.Emit(isa.Inc)
		c.module.Emit(isa.Dup)
		return c.compileStore(e.X)

	case ast.PreDec:
		if err := c.compileExpr(e.X); err != nil {
			return err
		}
		c.module.Emit(isa.Dec)
		c.module.Emit(isa.Dup)
		return c.compileStore(e.X)

	case ast.PostInc:
		if err := c.compileExpr(e.X); err != nil {
			return err
		}
		c.module.Emit(isa.Dup)
		c.module.Emit(isa.Inc)
		return c.compileStore(e.X)

	case ast.PostDec:
		if err := c.compileExpr(e.X); err != nil {
			return err
		}
		c.module.Emit(isa.Dup)
		c.module.Emit(isa.Dec)
		return c.compileStore(e.X)

	case ast.Assign:
		if e.Op != "" {
			// compound assign reads target first, then value, matching
			// left-to-right operand order for non-commutative - and /
			if err := c.compileExpr(e.Target); err != nil {
				return err
			}
			if err := c.compileExpr(e.Value); err != nil {
				return err
			}
			op, ok := compoundOpcodes[e.Op]
			if !ok {
				return fmt.Errorf("compiler: unknown compound assignment operator %q", e.Op)
			}
			c.module.Emit(op)
			c.module.Emit(isa.Dup)
			return c.compileStore(e.Target)
		}
		if err := c.compileExpr(e.Value); err != nil {
			return err
		}
		c.module.Emit(isa.Dup)
		return c.compileStore(e.Target)

	case ast.Call:
		for _, arg := range e.Args {
			if err := c.compileExpr(arg); err != nil {
				return err
			}
		}
		idx, ok := c.functions[e.Name]
		if !ok {
			return fmt.Errorf("compiler: call to undefined function %q", e.Name)
		}
		c.module.Emit(isa.Call)
		c.module.EmitU8(idx)
		return nil

	case ast.Length:
		if err := c.compileExpr(e.X); err != nil {
			return err
		}
		c.module.Emit(isa.Length)
		return nil

	case ast.ScaleFunc:
		if err := c.compileExpr(e.X); err != nil {
			return err
		}
		c.module.Emit(isa.ScaleOf)
		return nil

	case ast.Sqrt:
		if err := c.compileExpr(e.X); err != nil {
			return err
		}
		c.module.Emit(isa.Sqrt)
		return nil

	case ast.Read:
		c.module.Emit(isa.Read)
		return nil

	default:
		return fmt.Errorf("compiler: unhandled expression %T", expr)
	}
}

// compileStore emits the opcode(s) to pop and assign the top-of-stack value
// into target, the lvalue side of Assign/PreInc/PreDec/PostInc/PostDec.
func (c *Compiler) compileStore(target ast.Expr) error {
	switch t := target.(type) {
	case ast.Var:
		slot := c.getOrCreateVar(t.Name)
		c.module.Emit(isa.StoreVar)
		c.module.EmitU8(slot)
		return nil
	case ast.ArrayElement:
		slot := c.getOrCreateVar(t.Name)
		if err := c.compileExpr(t.Index); err != nil {
			return err
		}
		c.module.Emit(isa.StoreArray)
		c.module.EmitU8(slot)
		return nil
	case ast.Scale:
		c.module.Emit(isa.StoreScale)
		return nil
	case ast.Ibase:
		c.module.Emit(isa.StoreIbase)
		return nil
	case ast.Obase:
		c.module.Emit(isa.StoreObase)
		return nil
	default:
		return fmt.Errorf("compiler: invalid assignment target %T", target)
	}
}

func (c *Compiler) getOrCreateVar(name string) uint8 {
	if slot, ok := c.variables[name]; ok {
		return slot
	}
	slot := c.nextVarSlot
	c.variables[name] = slot
	c.nextVarSlot++
	return slot
}

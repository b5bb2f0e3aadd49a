// Package parser builds an ast.Program from CALC source, a recursive-descent
// precedence-climbing parser (assignment > or > and > not > comparison >
// additive > multiplicative > power > unary > postfix > primary).
package parser

import (
	"fmt"

	"github.com/ajokela/kz80-bc/pkg/ast"
	"github.com/ajokela/kz80-bc/pkg/lexer"
	"github.com/ajokela/kz80-bc/pkg/token"
)

// Parser consumes a pre-tokenized input and produces an ast.Program.
type Parser struct {
	tokens []token.Token
	pos    int
}

// New tokenizes input and returns a Parser ready to parse it.
func New(input string) *Parser {
	return &Parser{tokens: lexer.Tokenize(input)}
}

func (p *Parser) current() token.Token {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return token.Token{Kind: token.Eof}
}

func (p *Parser) advance() token.Token {
	t := p.current()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return t
}

func (p *Parser) expect(k token.Kind) error {
	if p.current().Kind == k {
		p.advance()
		return nil
	}
	return fmt.Errorf("line %d: expected token %v, got %v", p.current().Line, k, p.current().Kind)
}

func (p *Parser) skipNewlines() {
	for p.current().Kind == token.Newline {
		p.advance()
	}
}

func (p *Parser) skipTerminators() {
	for p.current().Kind == token.Newline || p.current().Kind == token.Semicolon {
		p.advance()
	}
}

// Parse runs the whole parse and returns the resulting Program.
func Parse(input string) (ast.Program, error) {
	return New(input).Parse()
}

// Parse consumes the token stream and returns the resulting Program.
func (p *Parser) Parse() (ast.Program, error) {
	var prog ast.Program
	p.skipNewlines()

	for p.current().Kind != token.Eof {
		if p.current().Kind == token.Define {
			fn, err := p.parseFunction()
			if err != nil {
				return prog, err
			}
			prog.Functions = append(prog.Functions, fn)
		} else {
			stmt, err := p.parseStatement()
			if err != nil {
				return prog, err
			}
			if _, empty := stmt.(ast.Empty); !empty {
				prog.Statements = append(prog.Statements, stmt)
			}
		}
		p.skipTerminators()
	}

	return prog, nil
}

func (p *Parser) parseFunction() (ast.Function, error) {
	var fn ast.Function
	if err := p.expect(token.Define); err != nil {
		return fn, err
	}
	p.skipNewlines()

	if p.current().Kind != token.Ident {
		return fn, fmt.Errorf("line %d: expected function name", p.current().Line)
	}
	fn.Name = p.advance().Text

	if err := p.expect(token.LParen); err != nil {
		return fn, err
	}
	params, err := p.parseParamList()
	if err != nil {
		return fn, err
	}
	fn.Params = params
	if err := p.expect(token.RParen); err != nil {
		return fn, err
	}
	p.skipNewlines()

	if err := p.expect(token.LBrace); err != nil {
		return fn, err
	}
	p.skipNewlines()

	for p.current().Kind == token.Auto {
		vars, err := p.parseAuto()
		if err != nil {
			return fn, err
		}
		fn.AutoVars = append(fn.AutoVars, vars...)
		p.skipTerminators()
	}

	for p.current().Kind != token.RBrace && p.current().Kind != token.Eof {
		stmt, err := p.parseStatement()
		if err != nil {
			return fn, err
		}
		if _, empty := stmt.(ast.Empty); !empty {
			fn.Body = append(fn.Body, stmt)
		}
		p.skipTerminators()
	}

	if err := p.expect(token.RBrace); err != nil {
		return fn, err
	}
	return fn, nil
}

func (p *Parser) parseParamList() ([]ast.FuncParam, error) {
	var params []ast.FuncParam
	if p.current().Kind == token.RParen {
		return params, nil
	}
	for {
		if p.current().Kind != token.Ident {
			return nil, fmt.Errorf("line %d: expected parameter name", p.current().Line)
		}
		name := p.advance().Text
		isArray := false
		if p.current().Kind == token.LBracket {
			p.advance()
			if err := p.expect(token.RBracket); err != nil {
				return nil, err
			}
			isArray = true
		}
		params = append(params, ast.FuncParam{Name: name, IsArray: isArray})
		if p.current().Kind == token.Comma {
			p.advance()
			continue
		}
		break
	}
	return params, nil
}

func (p *Parser) parseAuto() ([]ast.AutoVar, error) {
	if err := p.expect(token.Auto); err != nil {
		return nil, err
	}
	var vars []ast.AutoVar
	for {
		if p.current().Kind != token.Ident {
			return nil, fmt.Errorf("line %d: expected variable name", p.current().Line)
		}
		name := p.advance().Text
		isArray := false
		if p.current().Kind == token.LBracket {
			p.advance()
			if err := p.expect(token.RBracket); err != nil {
				return nil, err
			}
			isArray = true
		}
		vars = append(vars, ast.AutoVar{Name: name, IsArray: isArray})
		if p.current().Kind == token.Comma {
			p.advance()
			continue
		}
		break
	}
	return vars, nil
}

func (p *Parser) parseStatement() (ast.Stmt, error) {
	p.skipNewlines()

	switch p.current().Kind {
	case token.Newline, token.Semicolon:
		p.advance()
		return ast.Empty{}, nil

	case token.LBrace:
		p.advance()
		p.skipNewlines()
		var stmts []ast.Stmt
		for p.current().Kind != token.RBrace && p.current().Kind != token.Eof {
			stmt, err := p.parseStatement()
			if err != nil {
				return nil, err
			}
			if _, empty := stmt.(ast.Empty); !empty {
				stmts = append(stmts, stmt)
			}
			p.skipTerminators()
		}
		if err := p.expect(token.RBrace); err != nil {
			return nil, err
		}
		return ast.Block{Stmts: stmts}, nil

	case token.If:
		return p.parseIf()
	case token.While:
		return p.parseWhile()
	case token.For:
		return p.parseFor()
	case token.Break:
		p.advance()
		return ast.Break{}, nil
	case token.Continue:
		p.advance()
		return ast.Continue{}, nil
	case token.Return:
		return p.parseReturn()
	case token.Quit:
		p.advance()
		return ast.Quit{}, nil
	case token.Halt:
		p.advance()
		return ast.Halt{}, nil
	case token.Print:
		return p.parsePrint()
	case token.Auto:
		vars, err := p.parseAuto()
		if err != nil {
			return nil, err
		}
		return ast.Auto{Vars: vars}, nil
	case token.Eof:
		return ast.Empty{}, nil
	default:
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return ast.ExprStmt{X: expr}, nil
	}
}

func (p *Parser) parseIf() (ast.Stmt, error) {
	if err := p.expect(token.If); err != nil {
		return nil, err
	}
	if err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	p.skipNewlines()

	then, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	p.skipNewlines()

	var elseBranch ast.Stmt
	if p.current().Kind == token.Else {
		p.advance()
		p.skipNewlines()
		elseBranch, err = p.parseStatement()
		if err != nil {
			return nil, err
		}
	}

	return ast.If{Cond: cond, Then: then, Else: elseBranch}, nil
}

func (p *Parser) parseWhile() (ast.Stmt, error) {
	if err := p.expect(token.While); err != nil {
		return nil, err
	}
	if err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	p.skipNewlines()

	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return ast.While{Cond: cond, Body: body}, nil
}

func (p *Parser) parseFor() (ast.Stmt, error) {
	if err := p.expect(token.For); err != nil {
		return nil, err
	}
	if err := p.expect(token.LParen); err != nil {
		return nil, err
	}

	var init ast.Expr
	if p.current().Kind != token.Semicolon {
		var err error
		init, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if err := p.expect(token.Semicolon); err != nil {
		return nil, err
	}

	var cond ast.Expr
	if p.current().Kind != token.Semicolon {
		var err error
		cond, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if err := p.expect(token.Semicolon); err != nil {
		return nil, err
	}

	var update ast.Expr
	if p.current().Kind != token.RParen {
		var err error
		update, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	p.skipNewlines()

	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return ast.For{Init: init, Cond: cond, Update: update, Body: body}, nil
}

func (p *Parser) parseReturn() (ast.Stmt, error) {
	if err := p.expect(token.Return); err != nil {
		return nil, err
	}
	switch p.current().Kind {
	case token.Newline, token.Semicolon, token.RBrace, token.Eof:
		return ast.Return{}, nil
	case token.LParen:
		p.advance()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.RParen); err != nil {
			return nil, err
		}
		return ast.Return{X: expr}, nil
	default:
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return ast.Return{X: expr}, nil
	}
}

func (p *Parser) parsePrint() (ast.Stmt, error) {
	if err := p.expect(token.Print); err != nil {
		return nil, err
	}
	var items []ast.PrintItem
	for {
		switch p.current().Kind {
		case token.String:
			items = append(items, ast.PrintItem{String: p.advance().Text})
		case token.Newline, token.Semicolon, token.Eof:
			return ast.Print{Items: items}, nil
		default:
			expr, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			items = append(items, ast.PrintItem{X: expr})
		}
		if p.current().Kind == token.Comma {
			p.advance()
			continue
		}
		break
	}
	return ast.Print{Items: items}, nil
}

func (p *Parser) parseExpr() (ast.Expr, error) { return p.parseAssignment() }

var compoundOps = map[token.Kind]string{
	token.PlusAssign:    "+",
	token.MinusAssign:   "-",
	token.StarAssign:    "*",
	token.SlashAssign:   "/",
	token.PercentAssign: "%",
	token.CaretAssign:   "^",
}

func (p *Parser) parseAssignment() (ast.Expr, error) {
	left, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	if p.current().Kind == token.Assign {
		p.advance()
		right, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		return ast.Assign{Target: left, Value: right}, nil
	}
	if op, ok := compoundOps[p.current().Kind]; ok {
		p.advance()
		right, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		return ast.Assign{Op: op, Target: left, Value: right}, nil
	}
	return left, nil
}

func (p *Parser) parseOr() (ast.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.current().Kind == token.Or {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = ast.BinOp{Op: "||", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.current().Kind == token.And {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = ast.BinOp{Op: "&&", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseNot() (ast.Expr, error) {
	if p.current().Kind == token.Not {
		p.advance()
		x, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return ast.Not{X: x}, nil
	}
	return p.parseComparison()
}

var comparisonOps = map[token.Kind]string{
	token.Equal: "==", token.NotEqual: "!=",
	token.Less: "<", token.LessEqual: "<=",
	token.Greater: ">", token.GreaterEqual: ">=",
}

func (p *Parser) parseComparison() (ast.Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if op, ok := comparisonOps[p.current().Kind]; ok {
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return ast.BinOp{Op: op, Left: left, Right: right}, nil
	}
	return left, nil
}

func (p *Parser) parseAdditive() (ast.Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch p.current().Kind {
		case token.Plus:
			op = "+"
		case token.Minus:
			op = "-"
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = ast.BinOp{Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseMultiplicative() (ast.Expr, error) {
	left, err := p.parsePower()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch p.current().Kind {
		case token.Star:
			op = "*"
		case token.Slash:
			op = "/"
		case token.Percent:
			op = "%"
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		left = ast.BinOp{Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parsePower() (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if p.current().Kind == token.Caret {
		p.advance()
		right, err := p.parsePower() // right-associative
		if err != nil {
			return nil, err
		}
		return ast.BinOp{Op: "^", Left: left, Right: right}, nil
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	switch p.current().Kind {
	case token.Minus:
		p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.Neg{X: x}, nil
	case token.PlusPlus:
		p.advance()
		x, err := p.parsePostfix()
		if err != nil {
			return nil, err
		}
		return ast.PreInc{X: x}, nil
	case token.MinusMinus:
		p.advance()
		x, err := p.parsePostfix()
		if err != nil {
			return nil, err
		}
		return ast.PreDec{X: x}, nil
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) parsePostfix() (ast.Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.current().Kind {
		case token.PlusPlus:
			p.advance()
			expr = ast.PostInc{X: expr}
		case token.MinusMinus:
			p.advance()
			expr = ast.PostDec{X: expr}
		case token.LBracket:
			v, ok := expr.(ast.Var)
			if !ok {
				return expr, nil
			}
			p.advance()
			index, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expect(token.RBracket); err != nil {
				return nil, err
			}
			expr = ast.ArrayElement{Name: v.Name, Index: index}
		default:
			return expr, nil
		}
	}
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	switch p.current().Kind {
	case token.Number:
		return ast.Number{Text: p.advance().Text}, nil

	case token.String:
		return ast.String{Text: p.advance().Text}, nil

	case token.Scale:
		p.advance()
		if p.current().Kind == token.LParen {
			p.advance()
			x, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expect(token.RParen); err != nil {
				return nil, err
			}
			return ast.ScaleFunc{X: x}, nil
		}
		return ast.Scale{}, nil

	case token.Ibase:
		p.advance()
		return ast.Ibase{}, nil

	case token.Obase:
		p.advance()
		return ast.Obase{}, nil

	case token.Last:
		p.advance()
		return ast.Last{}, nil

	case token.Length:
		p.advance()
		if err := p.expect(token.LParen); err != nil {
			return nil, err
		}
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.RParen); err != nil {
			return nil, err
		}
		return ast.Length{X: x}, nil

	case token.Sqrt:
		p.advance()
		if err := p.expect(token.LParen); err != nil {
			return nil, err
		}
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.RParen); err != nil {
			return nil, err
		}
		return ast.Sqrt{X: x}, nil

	case token.Read:
		p.advance()
		if err := p.expect(token.LParen); err != nil {
			return nil, err
		}
		if err := p.expect(token.RParen); err != nil {
			return nil, err
		}
		return ast.Read{}, nil

	case token.Ident:
		name := p.advance().Text
		switch p.current().Kind {
		case token.LParen:
			p.advance()
			var args []ast.Expr
			if p.current().Kind != token.RParen {
				for {
					arg, err := p.parseExpr()
					if err != nil {
						return nil, err
					}
					args = append(args, arg)
					if p.current().Kind == token.Comma {
						p.advance()
						continue
					}
					break
				}
			}
			if err := p.expect(token.RParen); err != nil {
				return nil, err
			}
			return ast.Call{Name: name, Args: args}, nil
		case token.LBracket:
			p.advance()
			index, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expect(token.RBracket); err != nil {
				return nil, err
			}
			return ast.ArrayElement{Name: name, Index: index}, nil
		default:
			return ast.Var{Name: name}, nil
		}

	case token.LParen:
		p.advance()
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.RParen); err != nil {
			return nil, err
		}
		return x, nil

	default:
		return nil, fmt.Errorf("line %d: unexpected token %v", p.current().Line, p.current().Kind)
	}
}

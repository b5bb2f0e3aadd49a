package lexer

import (
	"testing"

	"github.com/ajokela/kz80-bc/pkg/token"
)

func TestNumber(t *testing.T) {
	tok := New("123.456").Next()
	if tok.Kind != token.Number || tok.Text != "123.456" {
		t.Fatalf("got %+v, want Number(123.456)", tok)
	}
}

func TestOperators(t *testing.T) {
	want := []token.Kind{token.Plus, token.Minus, token.Star, token.Slash, token.Percent, token.Caret, token.Eof}
	got := Tokenize("+ - * / % ^")
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(got), len(want))
	}
	for i, k := range want {
		if got[i].Kind != k {
			t.Errorf("token %d: kind = %v, want %v", i, got[i].Kind, k)
		}
	}
}

func TestKeywords(t *testing.T) {
	want := []token.Kind{token.If, token.Else, token.While, token.For, token.Define, token.Scale, token.Sqrt, token.Eof}
	got := Tokenize("if else while for define scale sqrt")
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(got), len(want))
	}
	for i, k := range want {
		if got[i].Kind != k {
			t.Errorf("token %d: kind = %v, want %v", i, got[i].Kind, k)
		}
	}
}

func TestAssignment(t *testing.T) {
	got := Tokenize("a = 5")
	want := []struct {
		kind token.Kind
		text string
	}{
		{token.Ident, "a"},
		{token.Assign, ""},
		{token.Number, "5"},
		{token.Eof, ""},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Kind != w.kind {
			t.Errorf("token %d: kind = %v, want %v", i, got[i].Kind, w.kind)
		}
		if w.text != "" && got[i].Text != w.text {
			t.Errorf("token %d: text = %q, want %q", i, got[i].Text, w.text)
		}
	}
}

func TestCompoundAssignAndIncrement(t *testing.T) {
	want := []token.Kind{
		token.Ident, token.PlusAssign, token.Number, token.Semicolon,
		token.Ident, token.PlusPlus, token.Eof,
	}
	got := Tokenize("x += 1; x++")
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(got), len(want))
	}
	for i, k := range want {
		if got[i].Kind != k {
			t.Errorf("token %d: kind = %v, want %v", i, got[i].Kind, k)
		}
	}
}

func TestStringEscape(t *testing.T) {
	got := Tokenize(`"a\nb"`)
	if got[0].Kind != token.String || got[0].Text != "a\nb" {
		t.Fatalf("got %+v, want String(a<NL>b)", got[0])
	}
}

func TestBlockAndLineComments(t *testing.T) {
	got := Tokenize("1 /* skip */ + 2 # trailing\n")
	want := []token.Kind{token.Number, token.Plus, token.Number, token.Newline, token.Eof}
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d: %+v", len(got), len(want), got)
	}
	for i, k := range want {
		if got[i].Kind != k {
			t.Errorf("token %d: kind = %v, want %v", i, got[i].Kind, k)
		}
	}
}

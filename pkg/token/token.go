// Package token defines the lexical token kinds of the CALC source
// language.
package token

// Kind identifies a token's lexical category.
type Kind int

const (
	Eof Kind = iota

	Number // arbitrary-precision literal, kept as its original source text
	String
	Ident

	If
	Else
	While
	For
	Break
	Continue
	Return
	Define
	Auto
	Print
	Quit
	Halt
	Length
	Scale
	Sqrt
	Read
	Ibase
	Obase
	Last

	Plus
	Minus
	Star
	Slash
	Percent
	Caret

	Assign
	PlusAssign
	MinusAssign
	StarAssign
	SlashAssign
	PercentAssign
	CaretAssign

	PlusPlus
	MinusMinus

	Equal
	NotEqual
	Less
	LessEqual
	Greater
	GreaterEqual

	Not
	And
	Or

	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Semicolon
	Comma
	Newline
)

var keywords = map[string]Kind{
	"if": If, "else": Else, "while": While, "for": For,
	"break": Break, "continue": Continue, "return": Return,
	"define": Define, "auto": Auto, "print": Print,
	"quit": Quit, "halt": Halt, "length": Length, "scale": Scale,
	"sqrt": Sqrt, "read": Read, "ibase": Ibase, "obase": Obase, "last": Last,
}

// Lookup returns the keyword Kind for ident, or (Ident, false) if ident is a
// plain identifier.
func Lookup(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}

// IsAssignmentOp reports whether k is one of the `=`/`+=`/.../`^=` family.
func IsAssignmentOp(k Kind) bool {
	switch k {
	case Assign, PlusAssign, MinusAssign, StarAssign, SlashAssign, PercentAssign, CaretAssign:
		return true
	}
	return false
}

// Token is one lexed token: its kind, literal text (for Number/String/Ident),
// and source position (1-based) for error messages.
type Token struct {
	Kind Kind
	Text string
	Line int
	Col  int
}

var kindNames = [...]string{
	Eof: "Eof", Number: "Number", String: "String", Ident: "Ident",
	If: "If", Else: "Else", While: "While", For: "For",
	Break: "Break", Continue: "Continue", Return: "Return",
	Define: "Define", Auto: "Auto", Print: "Print", Quit: "Quit", Halt: "Halt",
	Length: "Length", Scale: "Scale", Sqrt: "Sqrt", Read: "Read",
	Ibase: "Ibase", Obase: "Obase", Last: "Last",
	Plus: "Plus", Minus: "Minus", Star: "Star", Slash: "Slash",
	Percent: "Percent", Caret: "Caret",
	Assign: "Assign", PlusAssign: "PlusAssign", MinusAssign: "MinusAssign",
	StarAssign: "StarAssign", SlashAssign: "SlashAssign",
	PercentAssign: "PercentAssign", CaretAssign: "CaretAssign",
	PlusPlus: "PlusPlus", MinusMinus: "MinusMinus",
	Equal: "Equal", NotEqual: "NotEqual", Less: "Less", LessEqual: "LessEqual",
	Greater: "Greater", GreaterEqual: "GreaterEqual",
	Not: "Not", And: "And", Or: "Or",
	LParen: "LParen", RParen: "RParen", LBrace: "LBrace", RBrace: "RBrace",
	LBracket: "LBracket", RBracket: "RBracket",
	Semicolon: "Semicolon", Comma: "Comma", Newline: "Newline",
}

// String renders k's name, for diagnostic dumps like the CLI's --tokens.
func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "Unknown"
}

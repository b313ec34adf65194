// Package lexer produces the LexItem stream spec.md §6 treats as an
// external collaborator ("the lexer ... produces a LexItem stream").
// spec.md's own scope explicitly excludes the lexer from the front end
// under test, but a concrete implementation is supplemented here (per
// SPEC_FULL.md §5) so internal/parser is exercisable end-to-end.
//
// Grounded closely on the teacher's (grailbio-gql) gql/lex.go: a
// text/scanner.Scanner configured with a custom IsIdentRune, a
// registerOp-style table of multi-character operators keyed by every
// prefix length so the longest valid operator is always preferred, and a
// position captured before each Scan() call.
package lexer

import (
	"strconv"
	"strings"
	"text/scanner"
	"unicode"
)

// Kind tags a lexical token (spec.md §6's abridged token list).
type Kind int

const (
	EOF Kind = iota
	ErrorTok

	Ident

	// Primitive type keywords.
	KwVoid
	KwU8
	KwI8
	KwU16
	KwI16
	KwU32
	KwI32
	KwU64
	KwI64
	KwF32
	KwF64
	KwChar
	KwBool

	// Composite keywords.
	KwStruct
	KwUnion
	KwEnum
	KwFn

	// Declaration keywords.
	KwDeclare
	KwLet
	KwMut
	KwStatic
	KwPub
	KwDefine
	KwAlias
	KwAs

	// Control-flow keywords.
	KwIf
	KwElse
	KwFor
	KwWhile
	KwDo
	KwSwitch
	KwOn
	KwCase
	KwDefault
	KwBreak
	KwContinue
	KwJump
	KwWhen
	KwRet
	KwDefer
	KwAsm
	KwIdle

	// Directives.
	DirDependencies // #dependencies
	DirReplace      // #replace
	KwWith
	KwRequire

	// Constants.
	IntConst
	IntConstForceU
	LongConst
	LongConstForceU
	ShortConst
	ByteConst
	CharConst
	StrConst
	HexConst
	FloatConst
	DoubleConst
	TrueConst
	FalseConst

	// Operators.
	Plus
	Minus
	Star
	Slash
	Percent
	Shl
	Shr
	Amp
	Pipe
	Caret
	Tilde
	Bang
	AndAnd
	OrOr
	EqEq
	Ne
	Lt
	Le
	Gt
	Ge
	Assign
	AddAssign
	SubAssign
	MulAssign
	DivAssign
	ModAssign
	ShlAssign
	ShrAssign
	AndAssign
	OrAssign
	XorAssign
	PlusPlus
	MinusMinus

	// Accessors.
	Dot
	Colon
	ColonColon
	FatArrow  // =>
	ThinArrow // ->

	// Structural punctuation.
	LParen
	RParen
	LBracket
	RBracket
	LBrace
	RBrace
	Comma
	Semi
	Question
	At
	Hash
)

var keywords = map[string]Kind{
	"void": KwVoid, "u8": KwU8, "i8": KwI8, "u16": KwU16, "i16": KwI16,
	"u32": KwU32, "i32": KwI32, "u64": KwU64, "i64": KwI64,
	"f32": KwF32, "f64": KwF64, "char": KwChar, "bool": KwBool,
	"struct": KwStruct, "union": KwUnion, "enum": KwEnum, "fn": KwFn,
	"declare": KwDeclare, "let": KwLet, "mut": KwMut, "static": KwStatic,
	"pub": KwPub, "define": KwDefine, "alias": KwAlias, "as": KwAs,
	"if": KwIf, "else": KwElse, "for": KwFor, "while": KwWhile, "do": KwDo,
	"switch": KwSwitch, "on": KwOn, "case": KwCase, "default": KwDefault,
	"break": KwBreak, "continue": KwContinue, "jump": KwJump, "when": KwWhen,
	"ret": KwRet, "defer": KwDefer, "asm": KwAsm, "idle": KwIdle,
	"with": KwWith, "require": KwRequire,
	"true": TrueConst, "false": FalseConst,
}

var directives = map[string]Kind{
	"dependencies": DirDependencies,
	"replace":      DirReplace,
	"asm":          KwAsm,
}

// opDefs lists every multi-character operator/punctuation lexeme, longest
// preferred, following the teacher's lexOpDefs table.
var opDefs = []struct {
	s string
	k Kind
}{
	{"<<=", ShlAssign}, {">>=", ShrAssign},
	{"<<", Shl}, {">>", Shr},
	{"&&", AndAnd}, {"||", OrOr},
	{"==", EqEq}, {"!=", Ne}, {"<=", Le}, {">=", Ge},
	{"+=", AddAssign}, {"-=", SubAssign}, {"*=", MulAssign}, {"/=", DivAssign},
	{"%=", ModAssign}, {"&=", AndAssign}, {"|=", OrAssign}, {"^=", XorAssign},
	{"++", PlusPlus}, {"--", MinusMinus},
	{"::", ColonColon}, {"=>", FatArrow}, {"->", ThinArrow},
	{"+", Plus}, {"-", Minus}, {"*", Star}, {"/", Slash}, {"%", Percent},
	{"&", Amp}, {"|", Pipe}, {"^", Caret}, {"~", Tilde}, {"!", Bang},
	{"<", Lt}, {">", Gt}, {"=", Assign},
	{".", Dot}, {":", Colon},
	{"(", LParen}, {")", RParen}, {"[", LBracket}, {"]", RBracket},
	{"{", LBrace}, {"}", RBrace}, {",", Comma}, {";", Semi},
	{"?", Question}, {"@", At},
}

// Item is one lexical token (spec.md §6: `LexItem { tok, lexeme, line_num }`).
type Item struct {
	Kind    Kind
	Lexeme  string
	Pos     scanner.Position
	IntVal  int64
	FloatVal float64
	StrVal  string
}

// Lexer wraps text/scanner.Scanner the way the teacher's gql/lex.go does,
// with a multi-character-operator longest-match table and a keyword map.
type Lexer struct {
	sc          scanner.Scanner
	opPrefixes  map[string]int // prefix -> count of ops starting with it
	asmMode     bool
}

// New creates a Lexer reading src, reporting positions under fileName.
func New(fileName string, src *strings.Reader) *Lexer {
	lex := &Lexer{opPrefixes: map[string]int{}}
	lex.sc.Init(src)
	lex.sc.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanFloats | scanner.ScanChars | scanner.ScanStrings | scanner.ScanComments | scanner.SkipComments
	lex.sc.Filename = fileName
	lex.sc.IsIdentRune = func(ch rune, i int) bool {
		return ch == '_' || unicode.IsLetter(ch) || (unicode.IsDigit(ch) && i > 0)
	}
	for _, d := range opDefs {
		for i := 1; i <= len(d.s); i++ {
			lex.opPrefixes[d.s[:i]]++
		}
	}
	return lex
}

// Next scans and returns the next token.
func (lex *Lexer) Next() Item {
	pos := lex.sc.Pos()
	tok := lex.sc.Scan()
	switch tok {
	case scanner.EOF:
		return Item{Kind: EOF, Pos: pos}
	case scanner.Ident:
		text := lex.sc.TokenText()
		if k, ok := keywords[text]; ok {
			return Item{Kind: k, Lexeme: text, Pos: pos}
		}
		return Item{Kind: Ident, Lexeme: text, Pos: pos}
	case scanner.Int:
		return lex.scanIntLiteral(pos)
	case scanner.Float:
		return lex.scanFloatLiteral(pos)
	case scanner.Char:
		text := lex.sc.TokenText()
		return Item{Kind: CharConst, Lexeme: text, Pos: pos, StrVal: unquoteOne(text)}
	case scanner.String:
		text := lex.sc.TokenText()
		s, err := strconv.Unquote(text)
		if err != nil {
			s = text
		}
		return Item{Kind: StrConst, Lexeme: text, Pos: pos, StrVal: s}
	case '#':
		return lex.scanDirective(pos)
	default:
		return lex.scanOperator(pos, tok)
	}
}

func unquoteOne(text string) string {
	if len(text) >= 2 {
		text = text[1 : len(text)-1]
	}
	return text
}

func (lex *Lexer) scanDirective(pos scanner.Position) Item {
	tok := lex.sc.Scan()
	if tok != scanner.Ident {
		return Item{Kind: ErrorTok, Pos: pos, Lexeme: "#" + lex.sc.TokenText()}
	}
	name := lex.sc.TokenText()
	if k, ok := directives[name]; ok {
		return Item{Kind: k, Lexeme: "#" + name, Pos: pos}
	}
	return Item{Kind: Hash, Lexeme: name, Pos: pos}
}

// scanIntLiteral classifies an integer literal's suffix into the storage
// classes spec.md §6 lists: plain INT_CONST, *_FORCE_U (trailing 'u'/'U'),
// LONG_CONST (trailing 'l'/'L'), SHORT_CONST ('s'/'S'), BYTE_CONST
// ('b'/'B'), and HEX_CONST (0x prefix).
func (lex *Lexer) scanIntLiteral(pos scanner.Position) Item {
	text := lex.sc.TokenText()
	kind := IntConst
	forceU := false
	base := text
	isHex := strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X")
	for {
		p := lex.sc.Peek()
		switch p {
		case 'u', 'U':
			forceU = true
			lex.sc.Next()
			continue
		case 'l', 'L':
			kind = LongConst
			lex.sc.Next()
			continue
		case 's', 'S':
			kind = ShortConst
			lex.sc.Next()
			continue
		case 'b', 'B':
			if !isHex {
				kind = ByteConst
				lex.sc.Next()
				continue
			}
		}
		break
	}
	if isHex {
		kind = HexConst
	}
	if forceU {
		if kind == LongConst {
			kind = LongConstForceU
		} else {
			kind = IntConstForceU
		}
	}
	v, _ := strconv.ParseInt(strings.TrimRight(base, "uUlLsSbB"), 0, 64)
	return Item{Kind: kind, Lexeme: text, Pos: pos, IntVal: v}
}

func (lex *Lexer) scanFloatLiteral(pos scanner.Position) Item {
	text := lex.sc.TokenText()
	kind := DoubleConst
	if p := lex.sc.Peek(); p == 'f' || p == 'F' {
		kind = FloatConst
		lex.sc.Next()
	}
	v, _ := strconv.ParseFloat(text, 64)
	return Item{Kind: kind, Lexeme: text, Pos: pos, FloatVal: v}
}

// scanOperator resolves a punctuation rune into the longest matching
// operator lexeme, following the teacher's opPrefixes/ops longest-match
// loop in gql/lex.go.
func (lex *Lexer) scanOperator(pos scanner.Position, first rune) Item {
	buf := string(first)
	for {
		candidate := buf + string(lex.sc.Peek())
		if lex.opPrefixes[candidate] == 0 {
			break
		}
		buf = candidate
		lex.sc.Next()
	}
	for _, d := range opDefs {
		if d.s == buf {
			return Item{Kind: d.k, Lexeme: buf, Pos: pos}
		}
	}
	return Item{Kind: ErrorTok, Lexeme: buf, Pos: pos}
}

// NextAssemblyLine reads raw source text to the end of the current
// logical line, preserving bytes verbatim (spec.md §4.A) — used while
// inside `#asm { ... }` blocks.
func (lex *Lexer) NextAssemblyLine() string {
	var b strings.Builder
	for {
		ch := lex.sc.Next()
		if ch == scanner.EOF || ch == '\n' {
			break
		}
		b.WriteRune(ch)
	}
	return b.String()
}

// Pos returns the scanner's current byte-position-bearing Position, for
// internal/token's reconsume_from support.
func (lex *Lexer) Pos() scanner.Position { return lex.sc.Pos() }

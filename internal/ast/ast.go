// Package ast defines the annotated syntax tree the parser builds
// (spec.md §3.2): a tagged variant over ~40 node kinds, each carrying a
// side, source position, inferred type, assignability flag, and an
// optional back-reference into the variable symbol table.
//
// Grounded on the teacher's (grailbio-gql) gql/ast.go ASTNode interface
// (eval/String/hash/pos), adapted from an evaluator's tree (one interface
// method per concern, many small implementing structs) to a parser's tree:
// eval is dropped (this front end does not execute the program), hash is
// replaced by the interning machinery in internal/types and internal/fold,
// and Clone is added per spec.md §9's defer-splice requirement ("a target-
// language implementation should deep-copy via arena indices, not pointer
// duplication" — here, via an explicit per-node-type Clone method instead
// of a generic first-child/next-sibling walk).
package ast

import (
	"fmt"
	"text/scanner"

	"github.com/dmihel/slfront/internal/ids"
	"github.com/dmihel/slfront/internal/types"
)

// Kind tags a Node's syntactic form.
type Kind int

const (
	KindProgram Kind = iota
	KindFunctionDef
	KindCompoundStmt
	KindIf
	KindFor
	KindWhile
	KindDoWhile
	KindSwitch
	KindCase
	KindDefault
	KindBreak
	KindContinue
	KindReturn
	KindJump
	KindLabel
	KindDeclare
	KindLet
	KindTernary
	KindBinaryExpr
	KindUnaryExpr
	KindArrayAccessor
	KindStructAccessor
	KindStructPointerAccessor
	KindUnionAccessor
	KindUnionPointerAccessor
	KindPostOperation
	KindFunctionCall
	KindIndirectFunctionCall
	KindIdentifier
	KindConstant
	KindStringInitializer
	KindArrayInitializerList
	KindStructInitializerList
	KindAsmInline
	KindDefer
	KindIdle
	KindError
)

var kindNames = map[Kind]string{
	KindProgram: "program", KindFunctionDef: "function-def",
	KindCompoundStmt: "compound-stmt", KindIf: "if", KindFor: "for",
	KindWhile: "while", KindDoWhile: "do-while", KindSwitch: "switch",
	KindCase: "case", KindDefault: "default", KindBreak: "break",
	KindContinue: "continue", KindReturn: "ret", KindJump: "jump",
	KindLabel: "label", KindDeclare: "declare", KindLet: "let",
	KindTernary: "ternary", KindBinaryExpr: "binary-expr",
	KindUnaryExpr: "unary-expr", KindArrayAccessor: "array-accessor",
	KindStructAccessor: "struct-accessor", KindStructPointerAccessor: "struct-pointer-accessor",
	KindUnionAccessor: "union-accessor", KindUnionPointerAccessor: "union-pointer-accessor",
	KindPostOperation: "postoperation", KindFunctionCall: "function-call",
	KindIndirectFunctionCall: "indirect-function-call", KindIdentifier: "identifier",
	KindConstant: "constant", KindStringInitializer: "string-initializer",
	KindArrayInitializerList: "array-initializer-list", KindStructInitializerList: "struct-initializer-list",
	KindAsmInline: "asm-inline", KindDefer: "defer", KindIdle: "idle", KindError: "error",
}

func (k Kind) String() string { return kindNames[k] }

// Side marks which side of a future IR lowering step a node feeds
// (spec.md §3.2: "a side (Left/Right) for later IR lowering").
type Side int

const (
	NoSide Side = iota
	Left
	Right
)

// Node is the common envelope every AST node implements.
type Node interface {
	Pos() scanner.Position
	Kind() Kind
	Line() int
	Type() *types.Type
	SetType(*types.Type)
	Assignable() bool
	SetAssignable(bool)
	Side() Side
	SetSide(Side)
	Variable() ids.VariableID
	SetVariable(ids.VariableID)
	Clone() Node
	String() string
}

// Base is embedded by every concrete node type and supplies the fields and
// accessor methods common to the whole envelope, mirroring the way the
// teacher's ASTStatement/ASTBlock/etc. each separately carried a Pos field
// but promoting it here instead of repeating getters on every type.
type Base struct {
	pos        scanner.Position
	kind       Kind
	typ        *types.Type
	assignable bool
	side       Side
	variable   ids.VariableID
}

func newBase(k Kind, pos scanner.Position) Base {
	return Base{pos: pos, kind: k, variable: ids.InvalidVariable}
}

func (b Base) Pos() scanner.Position      { return b.pos }
func (b Base) Kind() Kind                 { return b.kind }
func (b Base) Line() int                  { return b.pos.Line }
func (b Base) Type() *types.Type          { return b.typ }
func (b *Base) SetType(t *types.Type)     { b.typ = t }
func (b Base) Assignable() bool           { return b.assignable }
func (b *Base) SetAssignable(v bool)      { b.assignable = v }
func (b Base) Side() Side                 { return b.side }
func (b *Base) SetSide(s Side)            { b.side = s }
func (b Base) Variable() ids.VariableID   { return b.variable }
func (b *Base) SetVariable(v ids.VariableID) { b.variable = v }

// Op enumerates the binary/unary/postfix operators the expression parser
// and constant folder handle (spec.md §4.E/§4.F).
type Op int

const (
	OpNone Op = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpShl
	OpShr
	OpBitAnd
	OpBitOr
	OpBitXor
	OpBitNot
	OpLogicalAnd
	OpLogicalOr
	OpLogicalNot
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpNeg
	OpAddrOf
	OpDeref
	OpPreInc
	OpPreDec
	OpPostInc
	OpPostDec
	OpAssign
)

var opNames = map[Op]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpMod: "%",
	OpShl: "<<", OpShr: ">>", OpBitAnd: "&", OpBitOr: "|", OpBitXor: "^",
	OpBitNot: "~", OpLogicalAnd: "&&", OpLogicalOr: "||", OpLogicalNot: "!",
	OpEq: "==", OpNe: "!=", OpLt: "<", OpLe: "<=", OpGt: ">", OpGe: ">=",
	OpNeg: "-", OpAddrOf: "&", OpDeref: "*", OpPreInc: "++", OpPreDec: "--",
	OpPostInc: "++", OpPostDec: "--", OpAssign: "=",
}

func (o Op) String() string { return opNames[o] }

// IsCompoundAssign reports whether op is a compound-assignment operator
// (spec.md §4.F: "a op= b lowers to a = a op b").
func IsCompoundAssign(op Op) bool {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv, OpMod, OpShl, OpShr, OpBitAnd, OpBitOr, OpBitXor:
		return true
	default:
		return false
	}
}

// ConstClass is the storage class of a Constant node (spec.md §3.2:
// "signed/unsigned byte/short/int/long/float/double/char/str/function").
type ConstClass int

const (
	ConstI8 ConstClass = iota
	ConstU8
	ConstI16
	ConstU16
	ConstI32
	ConstU32
	ConstI64
	ConstU64
	ConstF32
	ConstF64
	ConstChar
	ConstBool
	ConstStr
	ConstFunction
)

// ---- Program ----

// Program is the root node produced by the top-level driver (component J).
type Program struct {
	Base
	Declarations []Node
}

func NewProgram(pos scanner.Position) *Program {
	return &Program{Base: newBase(KindProgram, pos)}
}

func (n *Program) String() string { return fmt.Sprintf("program(%d decls)", len(n.Declarations)) }

func (n *Program) Clone() Node {
	c := *n
	c.Declarations = cloneSlice(n.Declarations)
	return &c
}

// ---- Function definition ----

// FunctionDef is emitted for a full `fn name(params) -> T { ... }`
// definition (spec.md §4.H); a bare `declare fn ...;` predeclaration
// updates the function symbol table without an AST node of its own.
type FunctionDef struct {
	Base
	Name     string
	Function ids.FunctionID
	Params   []*Identifier
	Body     *CompoundStmt
	IsPublic bool
}

func NewFunctionDef(pos scanner.Position, name string) *FunctionDef {
	return &FunctionDef{Base: newBase(KindFunctionDef, pos), Name: name, Function: ids.InvalidFunction}
}

func (n *FunctionDef) String() string { return fmt.Sprintf("fn %s", n.Name) }

func (n *FunctionDef) Clone() Node {
	c := *n
	params := make([]*Identifier, len(n.Params))
	for i, p := range n.Params {
		params[i] = p.Clone().(*Identifier)
	}
	c.Params = params
	if n.Body != nil {
		c.Body = n.Body.Clone().(*CompoundStmt)
	}
	return &c
}

// ---- Statements ----

// CompoundStmt is a `{ ... }` block (spec.md §4.G).
type CompoundStmt struct {
	Base
	Statements []Node
}

func NewCompoundStmt(pos scanner.Position) *CompoundStmt {
	return &CompoundStmt{Base: newBase(KindCompoundStmt, pos)}
}

func (n *CompoundStmt) String() string { return fmt.Sprintf("{ %d stmts }", len(n.Statements)) }

func (n *CompoundStmt) Clone() Node {
	c := *n
	c.Statements = cloneSlice(n.Statements)
	return &c
}

// If represents `if`/`else if`/`else` (spec.md §4.G); Else is either
// another *If (an "else if" link) or a *CompoundStmt (a terminal "else"),
// or nil.
type If struct {
	Base
	Cond Node
	Then *CompoundStmt
	Else Node
}

func NewIf(pos scanner.Position) *If { return &If{Base: newBase(KindIf, pos)} }

func (n *If) String() string { return "if" }

func (n *If) Clone() Node {
	c := *n
	if n.Cond != nil {
		c.Cond = n.Cond.Clone()
	}
	c.Then = n.Then.Clone().(*CompoundStmt)
	if n.Else != nil {
		c.Else = n.Else.Clone()
	}
	return &c
}

// For represents `for (init; cond; step) body` (spec.md §4.G).
type For struct {
	Base
	Init Node
	Cond Node
	Step Node
	Body *CompoundStmt
}

func NewFor(pos scanner.Position) *For { return &For{Base: newBase(KindFor, pos)} }

func (n *For) String() string { return "for" }

func (n *For) Clone() Node {
	c := *n
	if n.Init != nil {
		c.Init = n.Init.Clone()
	}
	if n.Cond != nil {
		c.Cond = n.Cond.Clone()
	}
	if n.Step != nil {
		c.Step = n.Step.Clone()
	}
	c.Body = n.Body.Clone().(*CompoundStmt)
	return &c
}

// While represents `while (cond) body`.
type While struct {
	Base
	Cond Node
	Body *CompoundStmt
}

func NewWhile(pos scanner.Position) *While { return &While{Base: newBase(KindWhile, pos)} }
func (n *While) String() string            { return "while" }
func (n *While) Clone() Node {
	c := *n
	if n.Cond != nil {
		c.Cond = n.Cond.Clone()
	}
	c.Body = n.Body.Clone().(*CompoundStmt)
	return &c
}

// DoWhile represents `do body while (cond);`.
type DoWhile struct {
	Base
	Body *CompoundStmt
	Cond Node
}

func NewDoWhile(pos scanner.Position) *DoWhile { return &DoWhile{Base: newBase(KindDoWhile, pos)} }
func (n *DoWhile) String() string              { return "do-while" }
func (n *DoWhile) Clone() Node {
	c := *n
	c.Body = n.Body.Clone().(*CompoundStmt)
	if n.Cond != nil {
		c.Cond = n.Cond.Clone()
	}
	return &c
}

// Switch represents both the arrow and c-style dialects (spec.md §4.G);
// IsCStyle picks the dialect, fixed by the first case/default encountered.
type Switch struct {
	Base
	Expr       Node
	Cases      []Node // *Case / *Default
	IsCStyle   bool
	LowerBound int64
	UpperBound int64
}

func NewSwitch(pos scanner.Position) *Switch {
	return &Switch{Base: newBase(KindSwitch, pos), LowerBound: int64(1) << 62, UpperBound: -(int64(1) << 62)}
}
func (n *Switch) String() string { return "switch" }
func (n *Switch) Clone() Node {
	c := *n
	if n.Expr != nil {
		c.Expr = n.Expr.Clone()
	}
	c.Cases = cloneSlice(n.Cases)
	return &c
}

// Case is one `case K -> { ... }` (arrow) or `case K: stmts*` (c-style) arm.
type Case struct {
	Base
	Values     []Node // constant nodes
	Body       []Node // statements (len 1 containing a CompoundStmt for arrow dialect)
	IsCStyle   bool
}

func NewCase(pos scanner.Position, isCStyle bool) *Case {
	return &Case{Base: newBase(KindCase, pos), IsCStyle: isCStyle}
}
func (n *Case) String() string { return "case" }
func (n *Case) Clone() Node {
	c := *n
	c.Values = cloneSlice(n.Values)
	c.Body = cloneSlice(n.Body)
	return &c
}

// Default is `default -> { ... }` or `default: stmts*`.
type Default struct {
	Base
	Body     []Node
	IsCStyle bool
}

func NewDefault(pos scanner.Position, isCStyle bool) *Default {
	return &Default{Base: newBase(KindDefault, pos), IsCStyle: isCStyle}
}
func (n *Default) String() string { return "default" }
func (n *Default) Clone() Node {
	c := *n
	c.Body = cloneSlice(n.Body)
	return &c
}

// Break is `break [when(cond)];`.
type Break struct {
	Base
	Cond Node
}

func NewBreak(pos scanner.Position) *Break { return &Break{Base: newBase(KindBreak, pos)} }
func (n *Break) String() string            { return "break" }
func (n *Break) Clone() Node {
	c := *n
	if n.Cond != nil {
		c.Cond = n.Cond.Clone()
	}
	return &c
}

// Continue is `continue [when(cond)];`.
type Continue struct {
	Base
	Cond Node
}

func NewContinue(pos scanner.Position) *Continue { return &Continue{Base: newBase(KindContinue, pos)} }
func (n *Continue) String() string               { return "continue" }
func (n *Continue) Clone() Node {
	c := *n
	if n.Cond != nil {
		c.Cond = n.Cond.Clone()
	}
	return &c
}

// Return is `ret [expr];`. Defers accumulated before this point are
// spliced in as DeferCopy, cloned independently per spec.md §4.G.
type Return struct {
	Base
	Expr      Node
	DeferCopy Node // *CompoundStmt of cloned defer-body statements, or nil
}

func NewReturn(pos scanner.Position) *Return { return &Return{Base: newBase(KindReturn, pos)} }
func (n *Return) String() string             { return "ret" }
func (n *Return) Clone() Node {
	c := *n
	if n.Expr != nil {
		c.Expr = n.Expr.Clone()
	}
	if n.DeferCopy != nil {
		c.DeferCopy = n.DeferCopy.Clone()
	}
	return &c
}

// Jump is `jump LABEL [when(cond)];`. Unconditional jumps carry a
// constant-true Cond for IR uniformity (spec.md §4.G).
type Jump struct {
	Base
	Label string
	Cond  Node
}

func NewJump(pos scanner.Position, label string) *Jump {
	return &Jump{Base: newBase(KindJump, pos), Label: label}
}
func (n *Jump) String() string { return fmt.Sprintf("jump %s", n.Label) }
func (n *Jump) Clone() Node {
	c := *n
	if n.Cond != nil {
		c.Cond = n.Cond.Clone()
	}
	return &c
}

// Label is `#name:`.
type Label struct {
	Base
	Name string
}

func NewLabel(pos scanner.Position, name string) *Label {
	return &Label{Base: newBase(KindLabel, pos), Name: name}
}
func (n *Label) String() string { return "#" + n.Name }
func (n *Label) Clone() Node    { c := *n; return &c }

// Declare is `declare [mut]? x : T;`.
type Declare struct {
	Base
	Name string
	Mut  bool
}

func NewDeclare(pos scanner.Position, name string) *Declare {
	return &Declare{Base: newBase(KindDeclare, pos), Name: name}
}
func (n *Declare) String() string { return "declare " + n.Name }
func (n *Declare) Clone() Node    { c := *n; return &c }

// Let is `let [mut]? x : T := initializer;`.
type Let struct {
	Base
	Name string
	Mut  bool
	Init Node
}

func NewLet(pos scanner.Position, name string) *Let {
	return &Let{Base: newBase(KindLet, pos), Name: name}
}
func (n *Let) String() string { return "let " + n.Name }
func (n *Let) Clone() Node {
	c := *n
	if n.Init != nil {
		c.Init = n.Init.Clone()
	}
	return &c
}

// Defer is `defer { ... }`; bodies are accumulated per function and spliced
// into every Return (spec.md §4.G, §3.4).
type Defer struct {
	Base
	Body *CompoundStmt
}

func NewDefer(pos scanner.Position) *Defer { return &Defer{Base: newBase(KindDefer, pos)} }
func (n *Defer) String() string            { return "defer" }
func (n *Defer) Clone() Node {
	c := *n
	c.Body = n.Body.Clone().(*CompoundStmt)
	return &c
}

// AsmInline is `#asm { lines... };`. The payload is the concatenated raw
// text the token source's assembly mode returned; no further analysis.
type AsmInline struct {
	Base
	Text string
}

func NewAsmInline(pos scanner.Position, text string) *AsmInline {
	return &AsmInline{Base: newBase(KindAsmInline, pos), Text: text}
}
func (n *AsmInline) String() string { return "#asm" }
func (n *AsmInline) Clone() Node    { c := *n; return &c }

// Idle is the `idle` no-op keyword; downstream handling is opaque
// (spec.md §9 open question (iv)) — passed through unchanged.
type Idle struct{ Base }

func NewIdle(pos scanner.Position) *Idle { return &Idle{Base: newBase(KindIdle, pos)} }
func (n *Idle) String() string           { return "idle" }
func (n *Idle) Clone() Node              { c := *n; return &c }

// Error marks a subtree where a rule failed; parsing resumes at the next
// top-level declaration (spec.md §7).
type Error struct {
	Base
	Message string
}

func NewError(pos scanner.Position, message string) *Error {
	return &Error{Base: newBase(KindError, pos), Message: message}
}
func (n *Error) String() string { return "error: " + n.Message }
func (n *Error) Clone() Node    { c := *n; return &c }

// ---- Expressions ----

// Ternary is `c ? t : e`.
type Ternary struct {
	Base
	Cond Node
	Then Node
	Else Node
}

func NewTernary(pos scanner.Position) *Ternary { return &Ternary{Base: newBase(KindTernary, pos)} }
func (n *Ternary) String() string              { return "?:" }
func (n *Ternary) Clone() Node {
	c := *n
	c.Cond, c.Then, c.Else = n.Cond.Clone(), n.Then.Clone(), n.Else.Clone()
	return &c
}

// BinaryExpr is a two-operand operator expression surviving constant
// folding (spec.md §4.F).
type BinaryExpr struct {
	Base
	Op    Op
	Left  Node
	Right Node
}

func NewBinaryExpr(pos scanner.Position, op Op, left, right Node) *BinaryExpr {
	return &BinaryExpr{Base: newBase(KindBinaryExpr, pos), Op: op, Left: left, Right: right}
}
func (n *BinaryExpr) String() string { return fmt.Sprintf("(%s %s %s)", n.Left, n.Op, n.Right) }
func (n *BinaryExpr) Clone() Node {
	c := *n
	c.Left, c.Right = n.Left.Clone(), n.Right.Clone()
	return &c
}

// UnaryExpr covers `&`, `*`, `-`, `~`, `!`, and prefix `++`/`--`
// (spec.md §4.F).
type UnaryExpr struct {
	Base
	Op      Op
	Operand Node
}

func NewUnaryExpr(pos scanner.Position, op Op, operand Node) *UnaryExpr {
	return &UnaryExpr{Base: newBase(KindUnaryExpr, pos), Op: op, Operand: operand}
}
func (n *UnaryExpr) String() string { return fmt.Sprintf("%s%s", n.Op, n.Operand) }
func (n *UnaryExpr) Clone() Node {
	c := *n
	c.Operand = n.Operand.Clone()
	return &c
}

// Accessor is the shared shape of array/struct/union (pointer or value)
// postfix accessors (spec.md §3.2); Kind distinguishes which.
type Accessor struct {
	Base
	Receiver Node
	Index    Node   // array-accessor only
	Field    string // struct/union accessor only
}

func newAccessor(k Kind, pos scanner.Position, receiver Node) *Accessor {
	return &Accessor{Base: newBase(k, pos), Receiver: receiver}
}

// NewArrayAccessor builds `a[e]` (also used for `ptr + e` under spec.md
// §4.F's pointer-arithmetic-as-subscript rule).
func NewArrayAccessor(pos scanner.Position, receiver, index Node) *Accessor {
	a := newAccessor(KindArrayAccessor, pos, receiver)
	a.Index = index
	return a
}

// NewStructAccessor builds `s.field`.
func NewStructAccessor(pos scanner.Position, receiver Node, field string) *Accessor {
	a := newAccessor(KindStructAccessor, pos, receiver)
	a.Field = field
	return a
}

// NewStructPointerAccessor builds `p->field`.
func NewStructPointerAccessor(pos scanner.Position, receiver Node, field string) *Accessor {
	a := newAccessor(KindStructPointerAccessor, pos, receiver)
	a.Field = field
	return a
}

// NewUnionAccessor builds `u:field`.
func NewUnionAccessor(pos scanner.Position, receiver Node, field string) *Accessor {
	a := newAccessor(KindUnionAccessor, pos, receiver)
	a.Field = field
	return a
}

// NewUnionPointerAccessor builds `up=>field`.
func NewUnionPointerAccessor(pos scanner.Position, receiver Node, field string) *Accessor {
	a := newAccessor(KindUnionPointerAccessor, pos, receiver)
	a.Field = field
	return a
}

func (n *Accessor) String() string {
	if n.Field != "" {
		return fmt.Sprintf("%s.%s", n.Receiver, n.Field)
	}
	return fmt.Sprintf("%s[%s]", n.Receiver, n.Index)
}

func (n *Accessor) Clone() Node {
	c := *n
	c.Receiver = n.Receiver.Clone()
	if n.Index != nil {
		c.Index = n.Index.Clone()
	}
	return &c
}

// PostOperation is a terminal postfix `++`/`--` (spec.md §4.F: "a final
// operation -- no further chaining after it").
type PostOperation struct {
	Base
	Op      Op
	Operand Node
}

func NewPostOperation(pos scanner.Position, op Op, operand Node) *PostOperation {
	return &PostOperation{Base: newBase(KindPostOperation, pos), Op: op, Operand: operand}
}
func (n *PostOperation) String() string { return fmt.Sprintf("%s%s", n.Operand, n.Op) }
func (n *PostOperation) Clone() Node {
	c := *n
	c.Operand = n.Operand.Clone()
	return &c
}

// FunctionCall is `@name(args...)` resolved to a function-table entry.
type FunctionCall struct {
	Base
	Name     string
	Function ids.FunctionID
	Args     []Node
}

func NewFunctionCall(pos scanner.Position, name string) *FunctionCall {
	return &FunctionCall{Base: newBase(KindFunctionCall, pos), Name: name, Function: ids.InvalidFunction}
}
func (n *FunctionCall) String() string { return fmt.Sprintf("@%s(...)", n.Name) }
func (n *FunctionCall) Clone() Node {
	c := *n
	c.Args = cloneSlice(n.Args)
	return &c
}

// IndirectFunctionCall is `@ptr(args...)` through a function-pointer
// variable.
type IndirectFunctionCall struct {
	Base
	Callee Node
	Args   []Node
}

func NewIndirectFunctionCall(pos scanner.Position, callee Node) *IndirectFunctionCall {
	return &IndirectFunctionCall{Base: newBase(KindIndirectFunctionCall, pos), Callee: callee}
}
func (n *IndirectFunctionCall) String() string { return fmt.Sprintf("@(%s)(...)", n.Callee) }
func (n *IndirectFunctionCall) Clone() Node {
	c := *n
	c.Callee = n.Callee.Clone()
	c.Args = cloneSlice(n.Args)
	return &c
}

// Identifier is a name reference resolved to a variable-table entry.
type Identifier struct {
	Base
	Name string
}

func NewIdentifier(pos scanner.Position, name string) *Identifier {
	return &Identifier{Base: newBase(KindIdentifier, pos), Name: name}
}
func (n *Identifier) String() string { return n.Name }
func (n *Identifier) Clone() Node    { c := *n; return &c }

// Constant carries a storage class and a typed scalar/string value
// (spec.md §3.2). coerce_constant (internal/fold) rewrites Class and the
// relevant value field when the inferred type changes.
type Constant struct {
	Base
	Class    ConstClass
	IntVal   int64   // signed integer / char / bool(0|1) storage
	UintVal  uint64  // unsigned integer storage (authoritative when Class is unsigned)
	FloatVal float64 // f32/f64 storage
	StrVal   string  // str storage; length-prefixed at codegen time
}

func NewIntConstant(pos scanner.Position, class ConstClass, v int64) *Constant {
	return &Constant{Base: newBase(KindConstant, pos), Class: class, IntVal: v, UintVal: uint64(v)}
}

func NewFloatConstant(pos scanner.Position, class ConstClass, v float64) *Constant {
	return &Constant{Base: newBase(KindConstant, pos), Class: class, FloatVal: v}
}

func NewStrConstant(pos scanner.Position, v string) *Constant {
	return &Constant{Base: newBase(KindConstant, pos), Class: ConstStr, StrVal: v}
}

func (n *Constant) String() string {
	switch n.Class {
	case ConstF32, ConstF64:
		return fmt.Sprintf("%g", n.FloatVal)
	case ConstStr:
		return fmt.Sprintf("%q", n.StrVal)
	default:
		return fmt.Sprintf("%d", n.IntVal)
	}
}
func (n *Constant) Clone() Node { c := *n; return &c }

// StringInitializer is a string literal used to initialize a `char[]`
// (spec.md §4.H rule 3): the node is relabeled from Constant once its
// target type is known.
type StringInitializer struct {
	Base
	Value string
}

func NewStringInitializer(pos scanner.Position, value string) *StringInitializer {
	return &StringInitializer{Base: newBase(KindStringInitializer, pos), Value: value}
}
func (n *StringInitializer) String() string { return fmt.Sprintf("%q", n.Value) }
func (n *StringInitializer) Clone() Node    { c := *n; return &c }

// ArrayInitializerList is `[e, e, ...]`.
type ArrayInitializerList struct {
	Base
	Elements []Node
}

func NewArrayInitializerList(pos scanner.Position) *ArrayInitializerList {
	return &ArrayInitializerList{Base: newBase(KindArrayInitializerList, pos)}
}
func (n *ArrayInitializerList) String() string { return fmt.Sprintf("[%d elems]", len(n.Elements)) }
func (n *ArrayInitializerList) Clone() Node {
	c := *n
	c.Elements = cloneSlice(n.Elements)
	return &c
}

// StructInitializerList is `{e, e, ...}`.
type StructInitializerList struct {
	Base
	Elements []Node
}

func NewStructInitializerList(pos scanner.Position) *StructInitializerList {
	return &StructInitializerList{Base: newBase(KindStructInitializerList, pos)}
}
func (n *StructInitializerList) String() string { return fmt.Sprintf("{%d elems}", len(n.Elements)) }
func (n *StructInitializerList) Clone() Node {
	c := *n
	c.Elements = cloneSlice(n.Elements)
	return &c
}

func cloneSlice(nodes []Node) []Node {
	if nodes == nil {
		return nil
	}
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}

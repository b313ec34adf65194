// Component G: the expression parser. Each precedence level recurses into
// the next-tighter level for a left operand, then loops while the lookahead
// is one of its own operators, validating operand types, widening via the
// type registry, folding when both sides are constant, and otherwise
// building a binary-expression node (spec.md §4.F).
package parser

import (
	"text/scanner"

	"github.com/dmihel/slfront/internal/ast"
	"github.com/dmihel/slfront/internal/fold"
	"github.com/dmihel/slfront/internal/ids"
	"github.com/dmihel/slfront/internal/lexer"
	"github.com/dmihel/slfront/internal/symtab"
	"github.com/dmihel/slfront/internal/token"
	"github.com/dmihel/slfront/internal/types"
)

// ParseExpression is the component G entry point: the assignment level,
// the loosest-binding of the 14 precedence levels.
func (p *Parser) ParseExpression() ast.Node { return p.parseAssignment() }

var mulOps = map[token.Kind]ast.Op{lexer.Star: ast.OpMul, lexer.Slash: ast.OpDiv, lexer.Percent: ast.OpMod}
var addOps = map[token.Kind]ast.Op{lexer.Plus: ast.OpAdd, lexer.Minus: ast.OpSub}
var shiftOps = map[token.Kind]ast.Op{lexer.Shl: ast.OpShl, lexer.Shr: ast.OpShr}
var relOps = map[token.Kind]ast.Op{lexer.Lt: ast.OpLt, lexer.Le: ast.OpLe, lexer.Gt: ast.OpGt, lexer.Ge: ast.OpGe}
var eqOps = map[token.Kind]ast.Op{lexer.EqEq: ast.OpEq, lexer.Ne: ast.OpNe}
var bitAndOps = map[token.Kind]ast.Op{lexer.Amp: ast.OpBitAnd}
var bitXorOps = map[token.Kind]ast.Op{lexer.Caret: ast.OpBitXor}
var bitOrOps = map[token.Kind]ast.Op{lexer.Pipe: ast.OpBitOr}
var logAndOps = map[token.Kind]ast.Op{lexer.AndAnd: ast.OpLogicalAnd}
var logOrOps = map[token.Kind]ast.Op{lexer.OrOr: ast.OpLogicalOr}

type assignOpInfo struct {
	base     ast.Op
	compound bool
}

var assignOps = map[token.Kind]assignOpInfo{
	lexer.Assign:    {ast.OpAssign, false},
	lexer.AddAssign: {ast.OpAdd, true},
	lexer.SubAssign: {ast.OpSub, true},
	lexer.MulAssign: {ast.OpMul, true},
	lexer.DivAssign: {ast.OpDiv, true},
	lexer.ModAssign: {ast.OpMod, true},
	lexer.ShlAssign: {ast.OpShl, true},
	lexer.ShrAssign: {ast.OpShr, true},
	lexer.AndAssign: {ast.OpBitAnd, true},
	lexer.OrAssign:  {ast.OpBitOr, true},
	lexer.XorAssign: {ast.OpBitXor, true},
}

func familyForOp(op ast.Op) types.BinaryOp {
	switch op {
	case ast.OpShl, ast.OpShr:
		return types.OpShift
	case ast.OpBitAnd, ast.OpBitOr, ast.OpBitXor:
		return types.OpBitwise
	case ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		return types.OpRelational
	case ast.OpEq, ast.OpNe:
		return types.OpEquality
	case ast.OpLogicalAnd, ast.OpLogicalOr:
		return types.OpLogical
	default:
		return types.OpArithmetic
	}
}

func (p *Parser) parseAssignment() ast.Node {
	left := p.parseTernary()
	la := p.Source.Peek()
	info, ok := assignOps[la.Kind]
	if !ok {
		return left
	}
	p.Source.Next()
	opPos := la.Pos

	if types.Dealias(left.Type()).Class() == types.Reference && !info.compound {
		p.Diag.Errorf(opPos.Line, "cannot rebind a reference with '='; use a compound assignment to write through it")
		return ast.NewError(opPos, "invalid reference assignment")
	}
	if !p.checkAssignableForWrite(left) {
		p.Diag.Errorf(opPos.Line, "left-hand side of assignment is not assignable")
		return ast.NewError(opPos, "invalid assignment target")
	}

	rhs := p.parseTernary()
	if info.compound {
		rhs = p.combineBinary(opPos, info.base, familyForOp(info.base), left.Clone(), rhs)
	}

	result, ok := p.Types.TypesAssignable(left.Type(), rhs.Type())
	if !ok {
		p.Diag.Errorf(opPos.Line, "cannot assign %s to %s", rhs.Type().Name(), left.Type().Name())
		return ast.NewError(opPos, "invalid assignment")
	}
	if c, isConst := rhs.(*ast.Constant); isConst {
		fold.CoerceConstant(c, result)
		c.SetType(result)
	}

	p.markWritten(left)
	node := ast.NewBinaryExpr(opPos, ast.OpAssign, left, rhs)
	node.SetType(left.Type())
	node.SetAssignable(false)
	return node
}

// checkAssignableForWrite implements spec.md §4.F's three-case mutability
// check on an assignment's left-hand side.
func (p *Parser) checkAssignableForWrite(left ast.Node) bool {
	switch n := left.(type) {
	case *ast.Identifier:
		if n.Variable() == ids.InvalidVariable {
			return false
		}
		rec := p.Syms.Variable(n.Variable())
		return !rec.Initialized || rec.Type.IsMutable()
	case *ast.UnaryExpr:
		return n.Op == ast.OpDeref && n.Type() != nil && n.Type().IsMutable()
	case *ast.Accessor:
		return n.Type() != nil && n.Type().IsMutable()
	default:
		return false
	}
}

func (p *Parser) markWritten(left ast.Node) {
	if id, ok := left.(*ast.Identifier); ok && id.Variable() != ids.InvalidVariable {
		rec := p.Syms.Variable(id.Variable())
		if !rec.Initialized {
			rec.Initialized = true
		} else {
			rec.Mutated = true
		}
	}
}

func (p *Parser) parseTernary() ast.Node {
	cond := p.parseLogicalOr()
	la := p.Source.Peek()
	if la.Kind != lexer.Question {
		return cond
	}
	p.Source.Next()
	if !types.IsTypeValidForConditional(cond.Type()) {
		p.Diag.Errorf(la.Pos.Line, "ternary condition must be a conditional-eligible type, got %s", cond.Type().Name())
	}
	thenExpr := p.parseTernary()
	colonTok := p.Source.Next()
	if colonTok.Kind != lexer.Colon {
		p.Diag.Errorf(colonTok.Pos.Line, "expected ':' in ternary expression")
	}
	elseExpr := p.parseTernary()

	joined, ok := p.joinTernaryTypes(thenExpr.Type(), elseExpr.Type())
	if !ok {
		p.Diag.Errorf(la.Pos.Line, "ternary branches have incompatible types %s and %s", thenExpr.Type().Name(), elseExpr.Type().Name())
		return ast.NewError(la.Pos, "incompatible ternary branches")
	}
	node := ast.NewTernary(la.Pos)
	node.Cond, node.Then, node.Else = cond, thenExpr, elseExpr
	node.SetType(joined)
	node.SetAssignable(false)
	return node
}

func (p *Parser) joinTernaryTypes(a, b *types.Type) (*types.Type, bool) {
	if r, ok := p.Types.TypesAssignable(a, b); ok {
		return r, true
	}
	if r, ok := p.Types.TypesAssignable(b, a); ok {
		return r, true
	}
	return nil, false
}

func (p *Parser) parseBinaryLevel(next func() ast.Node, ops map[token.Kind]ast.Op, family types.BinaryOp) ast.Node {
	left := next()
	for {
		la := p.Source.Peek()
		op, ok := ops[la.Kind]
		if !ok {
			return left
		}
		p.Source.Next()
		right := next()
		left = p.combineBinary(la.Pos, op, family, left, right)
	}
}

func (p *Parser) parseLogicalOr() ast.Node {
	return p.parseBinaryLevel(p.parseLogicalAnd, logOrOps, types.OpLogical)
}
func (p *Parser) parseLogicalAnd() ast.Node {
	return p.parseBinaryLevel(p.parseBitOr, logAndOps, types.OpLogical)
}
func (p *Parser) parseBitOr() ast.Node {
	return p.parseBinaryLevel(p.parseBitXor, bitOrOps, types.OpBitwise)
}
func (p *Parser) parseBitXor() ast.Node {
	return p.parseBinaryLevel(p.parseBitAnd, bitXorOps, types.OpBitwise)
}
func (p *Parser) parseBitAnd() ast.Node {
	return p.parseBinaryLevel(p.parseEquality, bitAndOps, types.OpBitwise)
}
func (p *Parser) parseEquality() ast.Node {
	return p.parseBinaryLevel(p.parseRelational, eqOps, types.OpEquality)
}
func (p *Parser) parseRelational() ast.Node {
	return p.parseBinaryLevel(p.parseShift, relOps, types.OpRelational)
}
func (p *Parser) parseShift() ast.Node {
	return p.parseBinaryLevel(p.parseAdditive, shiftOps, types.OpShift)
}
func (p *Parser) parseAdditive() ast.Node {
	return p.parseBinaryLevel(p.parseMultiplicative, addOps, types.OpArithmetic)
}
func (p *Parser) parseMultiplicative() ast.Node {
	return p.parseBinaryLevel(p.parseCast, mulOps, types.OpArithmetic)
}

// combineBinary is the shared body of step 2 in every binary precedence
// level: validity check, compatibility/coercion, fold-or-build.
func (p *Parser) combineBinary(pos scanner.Position, op ast.Op, family types.BinaryOp, left, right ast.Node) ast.Node {
	if left == nil || right == nil || left.Type() == nil || right.Type() == nil {
		return ast.NewError(pos, "malformed binary expression")
	}

	if family == types.OpArithmetic && (op == ast.OpAdd || op == ast.OpSub) {
		lt, rt := types.Dealias(left.Type()), types.Dealias(right.Type())
		if lt.Class() == types.Pointer || rt.Class() == types.Pointer {
			return p.combinePointerArithmetic(pos, op, left, right)
		}
	}

	if !types.IsBinaryOpValid(left.Type(), family, types.LeftSide) || !types.IsBinaryOpValid(right.Type(), family, types.RightSide) {
		p.Diag.Errorf(pos.Line, "invalid operand type for operator %s", op)
		return ast.NewError(pos, "invalid operand type")
	}
	resultType, lOut, rOut, ok := p.Types.DetermineCompatibilityAndCoerce(left.Type(), right.Type(), family)
	if !ok {
		p.Diag.Errorf(pos.Line, "incompatible operand types for operator %s", op)
		return ast.NewError(pos, "incompatible operand types")
	}
	if lc, isConst := left.(*ast.Constant); isConst && lOut != left.Type() {
		fold.CoerceConstant(lc, lOut)
	}
	if rc, isConst := right.(*ast.Constant); isConst && rOut != right.Type() {
		fold.CoerceConstant(rc, rOut)
	}
	left.SetType(lOut)
	right.SetType(rOut)

	if lc, lok := left.(*ast.Constant); lok {
		if rc, rok := right.(*ast.Constant); rok {
			folded, err := fold.FoldBinary(op, lc, rc, resultType)
			if err != nil {
				p.Diag.Errorf(pos.Line, "%s", err)
				return ast.NewError(pos, err.Error())
			}
			folded.SetType(resultType)
			return folded
		}
	}
	node := ast.NewBinaryExpr(pos, op, left, right)
	node.SetType(resultType)
	return node
}

// combinePointerArithmetic implements spec.md §4.F: `ptr ± int` scales the
// integer by sizeof(*ptr), folding the scale immediately when the integer
// is itself constant.
func (p *Parser) combinePointerArithmetic(pos scanner.Position, op ast.Op, left, right ast.Node) ast.Node {
	lt, rt := types.Dealias(left.Type()), types.Dealias(right.Type())
	var ptr, other ast.Node
	var ptrType *types.Type
	if lt.Class() == types.Pointer {
		ptr, other, ptrType = left, right, lt
	} else {
		ptr, other, ptrType = right, left, rt
	}
	if types.IsVoid(ptrType.Elem()) {
		p.Diag.Errorf(pos.Line, "pointer arithmetic on a void pointer is not allowed")
		return ast.NewError(pos, "void pointer arithmetic")
	}
	ot := types.Dealias(other.Type())
	if ot.Class() != types.Basic || !ot.Primitive().IsInteger() {
		p.Diag.Errorf(pos.Line, "pointer arithmetic requires an integer operand")
		return ast.NewError(pos, "non-integer pointer offset")
	}
	elemSize := int64(ptrType.Elem().Size())
	if oc, isConst := other.(*ast.Constant); isConst {
		scaled := ast.NewIntConstant(pos, oc.Class, oc.IntVal*elemSize)
		scaled.SetType(other.Type())
		be := ast.NewBinaryExpr(pos, op, ptr, scaled)
		be.SetType(ptrType)
		return be
	}
	i64 := p.Types.Basic(types.I64, types.Immutable)
	sizeConst := ast.NewIntConstant(pos, ast.ConstI64, elemSize)
	sizeConst.SetType(i64)
	scaleExpr := ast.NewBinaryExpr(pos, ast.OpMul, other, sizeConst)
	scaleExpr.SetType(other.Type())
	be := ast.NewBinaryExpr(pos, op, ptr, scaleExpr)
	be.SetType(ptrType)
	return be
}

// parseCast implements the cast precedence level: `<Type> expr`, tried
// speculatively against the comparison operator `<` and rolled back in full
// on failure (component B's note that some `<` tokens are pushed as cast
// delimiters and others are not).
func (p *Parser) parseCast() ast.Node {
	if p.Source.Peek().Kind == lexer.Lt {
		ltTok := p.Source.Next()
		consumed := []token.Item{ltTok}
		targetType, typeConsumed, ok := p.parseTypeSpecifier()
		consumed = append(consumed, typeConsumed...)
		if ok && p.Source.Peek().Kind == lexer.Gt {
			p.Source.Next()
			operand := p.parseUnary()
			return p.buildCast(ltTok.Pos, targetType, operand)
		}
		p.rollback(consumed)
	}
	return p.parseUnary()
}

func (p *Parser) buildCast(pos scanner.Position, target *types.Type, operand ast.Node) ast.Node {
	if target == nil || operand == nil || operand.Type() == nil {
		return ast.NewError(pos, "invalid cast")
	}
	st := operand.Type()
	dt, dst := types.Dealias(target), types.Dealias(st)
	if types.IsVoid(dt) || types.IsVoid(dst) {
		p.Diag.Errorf(pos.Line, "cannot cast to or from void")
		return ast.NewError(pos, "void cast")
	}
	if types.IsMemoryRegion(dt) {
		p.Diag.Errorf(pos.Line, "struct, union, and array types are not valid cast targets")
		return ast.NewError(pos, "invalid cast target")
	}
	if dt.Class() == types.Pointer && dt.Mutability() == types.Mutable && types.IsMemoryRegion(dst) && !dst.IsMutable() {
		p.Diag.Errorf(pos.Line, "cannot cast an immutable memory region to a mutable pointer")
		return ast.NewError(pos, "mutability violation in cast")
	}

	result, ok := p.Types.TypesAssignable(target, st)
	if !ok {
		numeric := func(t *types.Type) bool {
			return t.Class() == types.Basic && (t.Primitive().IsInteger() || t.Primitive().IsFloatingPoint())
		}
		if numeric(dt) && numeric(dst) {
			result = target
		} else {
			p.Diag.Errorf(pos.Line, "cannot cast %s to %s", st.Name(), target.Name())
			return ast.NewError(pos, "invalid cast")
		}
	}
	if c, isConst := operand.(*ast.Constant); isConst {
		fold.CoerceConstant(c, result)
		c.SetType(target)
		return c
	}
	operand.SetType(target)
	return operand
}

func (p *Parser) parseUnary() ast.Node {
	la := p.Source.Peek()
	switch la.Kind {
	case lexer.Amp:
		p.Source.Next()
		return p.buildAddrOf(la.Pos, p.parseUnary())
	case lexer.Star:
		p.Source.Next()
		return p.buildDeref(la.Pos, p.parseUnary())
	case lexer.Minus:
		p.Source.Next()
		return p.buildUnary(la.Pos, ast.OpNeg, types.UnaryArithmeticNeg, p.parseUnary())
	case lexer.Tilde:
		p.Source.Next()
		return p.buildUnary(la.Pos, ast.OpBitNot, types.UnaryBitwiseNot, p.parseUnary())
	case lexer.Bang:
		p.Source.Next()
		return p.buildUnary(la.Pos, ast.OpLogicalNot, types.UnaryLogicalNot, p.parseUnary())
	case lexer.PlusPlus:
		p.Source.Next()
		return p.buildPrefixIncDec(la.Pos, ast.OpPreInc, p.parseUnary())
	case lexer.MinusMinus:
		p.Source.Next()
		return p.buildPrefixIncDec(la.Pos, ast.OpPreDec, p.parseUnary())
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) buildAddrOf(pos scanner.Position, operand ast.Node) ast.Node {
	if operand == nil || operand.Type() == nil {
		return ast.NewError(pos, "invalid operand for '&'")
	}
	if !types.IsTypeValidForMemoryAddressing(operand.Type()) {
		p.Diag.Errorf(pos.Line, "cannot take the address of this expression")
		return ast.NewError(pos, "invalid address-of operand")
	}
	p.flagStackVariable(operand)
	node := ast.NewUnaryExpr(pos, ast.OpAddrOf, operand)
	node.SetType(p.Types.PointerTo(operand.Type(), operand.Type().Mutability()))
	node.SetAssignable(false)
	return node
}

func (p *Parser) flagStackVariable(operand ast.Node) {
	if id, ok := operand.(*ast.Identifier); ok && id.Variable() != ids.InvalidVariable {
		rec := p.Syms.Variable(id.Variable())
		if rec.Membership != symtab.GlobalVariable {
			rec.StackVariable = true
		}
	}
}

func (p *Parser) buildDeref(pos scanner.Position, operand ast.Node) ast.Node {
	if operand == nil || operand.Type() == nil {
		return ast.NewError(pos, "invalid operand for '*'")
	}
	if !types.IsUnaryOpValid(operand.Type(), types.UnaryDeref) {
		p.Diag.Errorf(pos.Line, "cannot dereference %s", operand.Type().Name())
		return ast.NewError(pos, "invalid dereference")
	}
	node := ast.NewUnaryExpr(pos, ast.OpDeref, operand)
	node.SetType(types.Dealias(operand.Type()).Elem())
	node.SetAssignable(node.Type().IsMutable())
	return node
}

func (p *Parser) buildUnary(pos scanner.Position, op ast.Op, fam types.UnaryOp, operand ast.Node) ast.Node {
	if operand == nil || operand.Type() == nil {
		return ast.NewError(pos, "invalid operand")
	}
	if !types.IsUnaryOpValid(operand.Type(), fam) {
		p.Diag.Errorf(pos.Line, "invalid operand type for operator %s", op)
		return ast.NewError(pos, "invalid operand type")
	}
	resultType := operand.Type()
	if fam == types.UnaryLogicalNot {
		resultType = p.Types.Basic(types.BoolPrim, types.Immutable)
	}
	if c, isConst := operand.(*ast.Constant); isConst {
		folded, err := fold.FoldUnary(op, c, resultType)
		if err != nil {
			p.Diag.Errorf(pos.Line, "%s", err)
			return ast.NewError(pos, err.Error())
		}
		folded.SetType(resultType)
		return folded
	}
	node := ast.NewUnaryExpr(pos, op, operand)
	node.SetType(resultType)
	node.SetAssignable(false)
	return node
}

func (p *Parser) buildPrefixIncDec(pos scanner.Position, op ast.Op, operand ast.Node) ast.Node {
	if operand == nil || operand.Type() == nil {
		return ast.NewError(pos, "invalid operand")
	}
	if !types.IsUnaryOpValid(operand.Type(), types.UnaryIncDec) {
		p.Diag.Errorf(pos.Line, "cannot increment/decrement %s", operand.Type().Name())
		return ast.NewError(pos, "invalid operand type")
	}
	if !operand.Type().IsMutable() {
		p.Diag.Errorf(pos.Line, "cannot increment/decrement an immutable value")
		return ast.NewError(pos, "immutable operand")
	}
	resultType := operand.Type()
	if c, isConst := operand.(*ast.Constant); isConst {
		folded, err := fold.FoldUnary(op, c, resultType)
		if err != nil {
			p.Diag.Errorf(pos.Line, "%s", err)
			return ast.NewError(pos, err.Error())
		}
		folded.SetType(resultType)
		folded.SetAssignable(false)
		return folded
	}
	node := ast.NewUnaryExpr(pos, op, operand)
	node.SetType(resultType)
	node.SetAssignable(false)
	return node
}

// parsePostfix builds left-associative postfix chains; inside a case-
// condition nesting context the postfix punctuation is disabled entirely
// (spec.md §4.C: avoids shift/reduce ambiguity with case terminators).
func (p *Parser) parsePostfix() ast.Node {
	left := p.parsePrimary()
	if left == nil {
		pos := p.Source.CurrentFilePosition()
		return ast.NewError(pos, "expected expression")
	}
	if top, ok := p.nesting.peek(); ok && top == nestCaseCondition {
		return left
	}
	for {
		la := p.Source.Peek()
		switch la.Kind {
		case lexer.Dot:
			p.Source.Next()
			nameTok := p.Source.Next()
			left = p.buildFieldAccess(la.Pos, left, nameTok.Lexeme, false)
		case lexer.ThinArrow:
			p.Source.Next()
			nameTok := p.Source.Next()
			left = p.buildFieldAccess(la.Pos, left, nameTok.Lexeme, true)
		case lexer.Colon:
			// ':' also separates a ternary's then/else branches; only
			// commit to union-member access when the receiver's type is
			// actually a union, otherwise leave the colon for the ternary
			// rule to consume.
			if types.Dealias(left.Type()).Class() != types.Union {
				return left
			}
			p.Source.Next()
			nameTok := p.Source.Next()
			left = p.buildUnionAccess(la.Pos, left, nameTok.Lexeme, false)
		case lexer.FatArrow:
			p.Source.Next()
			nameTok := p.Source.Next()
			left = p.buildUnionAccess(la.Pos, left, nameTok.Lexeme, true)
		case lexer.LBracket:
			p.Source.Next()
			p.grouping.push(lexer.LBracket)
			index := p.parseTernary()
			closeTok := p.Source.Next()
			if !p.grouping.pop(lexer.LBracket) || closeTok.Kind != lexer.RBracket {
				p.Diag.Errorf(closeTok.Pos.Line, "expected ']'")
			}
			left = p.buildArrayAccess(la.Pos, left, index)
		case lexer.PlusPlus:
			p.Source.Next()
			return p.buildPostfixIncDec(la.Pos, ast.OpPostInc, left)
		case lexer.MinusMinus:
			p.Source.Next()
			return p.buildPostfixIncDec(la.Pos, ast.OpPostDec, left)
		default:
			return left
		}
	}
}

func (p *Parser) buildFieldAccess(pos scanner.Position, receiver ast.Node, field string, isPointer bool) ast.Node {
	rt := types.Dealias(receiver.Type())
	if isPointer {
		if rt.Class() != types.Pointer {
			p.Diag.Errorf(pos.Line, "'->' requires a pointer operand")
			return ast.NewError(pos, "not a pointer")
		}
		rt = types.Dealias(rt.Elem())
	}
	if rt.Class() != types.Struct {
		p.Diag.Errorf(pos.Line, "%s is not a struct", rt.Name())
		return ast.NewError(pos, "not a struct")
	}
	fld, ok := types.GetStructField(rt, field)
	if !ok {
		p.Diag.Errorf(pos.Line, "struct %s has no field %q", rt.Name(), field)
		return ast.NewError(pos, "unknown field")
	}
	var node *ast.Accessor
	if isPointer {
		node = ast.NewStructPointerAccessor(pos, receiver, field)
	} else {
		node = ast.NewStructAccessor(pos, receiver, field)
	}
	node.SetType(fld.Type)
	node.SetAssignable(fld.Type.IsMutable())
	return node
}

func (p *Parser) buildUnionAccess(pos scanner.Position, receiver ast.Node, field string, isPointer bool) ast.Node {
	rt := types.Dealias(receiver.Type())
	if isPointer {
		if rt.Class() != types.Pointer {
			p.Diag.Errorf(pos.Line, "'=>' requires a pointer operand")
			return ast.NewError(pos, "not a pointer")
		}
		rt = types.Dealias(rt.Elem())
	}
	if rt.Class() != types.Union {
		p.Diag.Errorf(pos.Line, "%s is not a union", rt.Name())
		return ast.NewError(pos, "not a union")
	}
	mem, ok := types.GetUnionMember(rt, field)
	if !ok {
		p.Diag.Errorf(pos.Line, "union %s has no member %q", rt.Name(), field)
		return ast.NewError(pos, "unknown member")
	}
	var node *ast.Accessor
	if isPointer {
		node = ast.NewUnionPointerAccessor(pos, receiver, field)
	} else {
		node = ast.NewUnionAccessor(pos, receiver, field)
	}
	node.SetType(mem.Type)
	node.SetAssignable(mem.Type.IsMutable())
	return node
}

func (p *Parser) buildArrayAccess(pos scanner.Position, receiver, index ast.Node) ast.Node {
	rt := types.Dealias(receiver.Type())
	if rt.Class() != types.Array && rt.Class() != types.Pointer {
		p.Diag.Errorf(pos.Line, "%s is not subscriptable", rt.Name())
		return ast.NewError(pos, "not subscriptable")
	}
	if types.IsVoid(rt.Elem()) {
		p.Diag.Errorf(pos.Line, "cannot subscript a void pointer")
		return ast.NewError(pos, "void subscript")
	}
	it := types.Dealias(index.Type())
	if it.Class() != types.Basic || !it.Primitive().IsInteger() {
		p.Diag.Errorf(pos.Line, "array index must be an integer")
		return ast.NewError(pos, "non-integer index")
	}
	node := ast.NewArrayAccessor(pos, receiver, index)
	node.SetType(rt.Elem())
	node.SetAssignable(rt.Elem().IsMutable())
	return node
}

func (p *Parser) buildPostfixIncDec(pos scanner.Position, op ast.Op, operand ast.Node) ast.Node {
	if operand == nil || operand.Type() == nil {
		return ast.NewError(pos, "invalid operand")
	}
	if !types.IsUnaryOpValid(operand.Type(), types.UnaryIncDec) {
		p.Diag.Errorf(pos.Line, "cannot increment/decrement %s", operand.Type().Name())
		return ast.NewError(pos, "invalid operand type")
	}
	if !operand.Type().IsMutable() {
		p.Diag.Errorf(pos.Line, "cannot increment/decrement an immutable value")
		return ast.NewError(pos, "immutable operand")
	}
	node := ast.NewPostOperation(pos, op, operand)
	node.SetType(operand.Type())
	node.SetAssignable(false)
	return node
}

func (p *Parser) parsePrimary() ast.Node {
	la := p.Source.Next()
	switch la.Kind {
	case lexer.At:
		return p.parseCall(la.Pos)
	case lexer.Ident:
		return p.resolveIdentifier(la)
	case lexer.IntConst, lexer.IntConstForceU, lexer.LongConst, lexer.LongConstForceU,
		lexer.ShortConst, lexer.ByteConst, lexer.HexConst:
		return p.constantFromInt(la)
	case lexer.FloatConst, lexer.DoubleConst:
		return p.constantFromFloat(la)
	case lexer.CharConst:
		return p.constantFromChar(la)
	case lexer.StrConst:
		return p.constantFromStr(la)
	case lexer.TrueConst:
		return p.constantBool(la.Pos, true)
	case lexer.FalseConst:
		return p.constantBool(la.Pos, false)
	case lexer.LParen:
		p.grouping.push(lexer.LParen)
		inner := p.parseAssignment()
		closeTok := p.Source.Next()
		if !p.grouping.pop(lexer.LParen) || closeTok.Kind != lexer.RParen {
			p.Diag.Errorf(closeTok.Pos.Line, "expected ')'")
		}
		return inner
	case lexer.LBracket:
		return p.parseArrayInitializerBody(la.Pos)
	case lexer.LBrace:
		return p.parseStructInitializerBody(la.Pos)
	default:
		p.Diag.Errorf(la.Pos.Line, "unexpected token %q in expression", la.Lexeme)
		return ast.NewError(la.Pos, "unexpected token")
	}
}

func (p *Parser) resolveIdentifier(tok token.Item) ast.Node {
	name := tok.Lexeme
	if rec, ok := p.Syms.LookupConstant(name); ok {
		return rec.ConstantNode.Clone()
	}
	if id, ok := p.Syms.LookupAllScopes(name); ok {
		rec := p.Syms.Variable(id)
		rec.Read = true
		node := ast.NewIdentifier(tok.Pos, name)
		node.SetVariable(id)
		node.SetType(rec.Type)
		node.SetAssignable(!rec.Initialized || rec.Type.IsMutable())
		return node
	}
	p.Diag.Errorf(tok.Pos.Line, "undeclared identifier %q", name)
	return ast.NewError(tok.Pos, "undeclared identifier")
}

func classAndPrimForIntToken(k token.Kind) (ast.ConstClass, types.Primitive) {
	switch k {
	case lexer.IntConstForceU:
		return ast.ConstU32, types.U32
	case lexer.LongConst:
		return ast.ConstI64, types.I64
	case lexer.LongConstForceU:
		return ast.ConstU64, types.U64
	case lexer.ShortConst:
		return ast.ConstI16, types.I16
	case lexer.ByteConst:
		return ast.ConstI8, types.I8
	case lexer.HexConst:
		return ast.ConstU32, types.U32
	default:
		return ast.ConstI32, types.I32
	}
}

func (p *Parser) constantFromInt(tok token.Item) ast.Node {
	class, prim := classAndPrimForIntToken(tok.Kind)
	node := ast.NewIntConstant(tok.Pos, class, tok.IntVal)
	node.SetType(p.Types.Basic(prim, types.Immutable))
	return node
}

func (p *Parser) constantFromFloat(tok token.Item) ast.Node {
	prim, class := types.F64, ast.ConstF64
	if tok.Kind == lexer.FloatConst {
		prim, class = types.F32, ast.ConstF32
	}
	node := ast.NewFloatConstant(tok.Pos, class, tok.FloatVal)
	node.SetType(p.Types.Basic(prim, types.Immutable))
	return node
}

func (p *Parser) constantFromChar(tok token.Item) ast.Node {
	var v int64
	if len(tok.StrVal) > 0 {
		v = int64(tok.StrVal[0])
	}
	node := ast.NewIntConstant(tok.Pos, ast.ConstChar, v)
	node.SetType(p.Types.Basic(types.CharPrim, types.Immutable))
	return node
}

func (p *Parser) constantFromStr(tok token.Item) ast.Node {
	node := ast.NewStrConstant(tok.Pos, tok.StrVal)
	node.SetType(p.Types.ImmutCharPtr)
	return node
}

func (p *Parser) constantBool(pos scanner.Position, v bool) ast.Node {
	var iv int64
	if v {
		iv = 1
	}
	node := ast.NewIntConstant(pos, ast.ConstBool, iv)
	node.SetType(p.Types.Basic(types.BoolPrim, types.Immutable))
	return node
}

// parseCall implements `@name(args...)` (spec.md §4.F): a direct call when
// name resolves in the function table, an indirect call through a
// function-pointer variable otherwise.
func (p *Parser) parseCall(pos scanner.Position) ast.Node {
	nameTok := p.Source.Next()
	if nameTok.Kind != lexer.Ident {
		p.Diag.Errorf(nameTok.Pos.Line, "expected a function name after '@'")
		return ast.NewError(pos, "expected function name")
	}
	name := nameTok.Lexeme
	lp := p.Source.Next()
	if lp.Kind != lexer.LParen {
		p.Diag.Errorf(lp.Pos.Line, "expected '(' after function name")
		return ast.NewError(pos, "expected '('")
	}
	p.grouping.push(lexer.LParen)
	var args []ast.Node
	if p.Source.Peek().Kind != lexer.RParen {
		for {
			args = append(args, p.parseTernary())
			if p.Source.Peek().Kind == lexer.Comma {
				p.Source.Next()
				continue
			}
			break
		}
	}
	closeTok := p.Source.Next()
	if !p.grouping.pop(lexer.LParen) || closeTok.Kind != lexer.RParen {
		p.Diag.Errorf(closeTok.Pos.Line, "expected ')'")
	}

	if fr, ok := p.Syms.LookupFunction(name); ok {
		return p.buildDirectCall(pos, name, fr, args)
	}
	if vid, ok := p.Syms.LookupAllScopes(name); ok {
		rec := p.Syms.Variable(vid)
		if types.Dealias(rec.Type).Class() == types.FunctionSignature {
			callee := ast.NewIdentifier(pos, name)
			callee.SetVariable(vid)
			callee.SetType(rec.Type)
			return p.buildIndirectCall(pos, callee, args)
		}
	}
	p.Diag.Errorf(pos.Line, "call to undeclared function %q", name)
	return ast.NewError(pos, "undeclared function")
}

func (p *Parser) buildDirectCall(pos scanner.Position, name string, fr *symtab.FunctionRecord, args []ast.Node) ast.Node {
	params := fr.Signature.Params()
	if len(args) != len(params) {
		p.Diag.Errorf(pos.Line, "function %q expects %d argument(s), got %d", name, len(params), len(args))
		return ast.NewError(pos, "argument count mismatch")
	}
	for i, paramType := range params {
		args[i] = p.coerceCallArgument(pos, paramType, args[i])
	}
	node := ast.NewFunctionCall(pos, name)
	node.Args = args
	if fr.Signature.ReturnsVoid() {
		node.SetType(p.Types.Basic(types.Void, types.Immutable))
	} else {
		node.SetType(fr.Signature.ReturnType())
	}
	node.SetAssignable(false)
	fr.Called = true
	if p.currentFunctionName != "" {
		p.Graph.AddFunction(p.currentFunctionName, ids.InvalidFunction)
		p.Graph.AddFunction(name, ids.InvalidFunction)
		p.Graph.AddEdge(p.currentFunctionName, name)
	}
	return node
}

func (p *Parser) buildIndirectCall(pos scanner.Position, callee ast.Node, args []ast.Node) ast.Node {
	sig := types.Dealias(callee.Type())
	params := sig.Params()
	if len(args) != len(params) {
		p.Diag.Errorf(pos.Line, "function pointer expects %d argument(s), got %d", len(params), len(args))
		return ast.NewError(pos, "argument count mismatch")
	}
	for i, paramType := range params {
		args[i] = p.coerceCallArgument(pos, paramType, args[i])
	}
	node := ast.NewIndirectFunctionCall(pos, callee)
	node.Args = args
	if sig.ReturnsVoid() {
		node.SetType(p.Types.Basic(types.Void, types.Immutable))
	} else {
		node.SetType(sig.ReturnType())
	}
	node.SetAssignable(false)
	return node
}

// coerceCallArgument implements spec.md §4.F's per-argument rule: reference
// parameters auto-address identifier arguments; everything else goes
// through types_assignable plus constant coercion.
func (p *Parser) coerceCallArgument(pos scanner.Position, paramType *types.Type, arg ast.Node) ast.Node {
	dp := types.Dealias(paramType)
	if dp.Class() == types.Reference {
		da := types.Dealias(arg.Type())
		if da.Class() != types.Reference {
			if _, isIdent := arg.(*ast.Identifier); !isIdent {
				p.Diag.Errorf(pos.Line, "reference parameter requires an identifier argument")
				return ast.NewError(pos, "invalid reference argument")
			}
			p.flagStackVariable(arg)
			addr := ast.NewUnaryExpr(pos, ast.OpAddrOf, arg)
			addr.SetType(p.Types.ReferenceTo(arg.Type(), arg.Type().Mutability()))
			if _, ok := p.Types.TypesAssignable(paramType, addr.Type()); !ok {
				p.Diag.Errorf(pos.Line, "argument type does not match reference parameter")
				return ast.NewError(pos, "reference argument mismatch")
			}
			return addr
		}
	}
	result, ok := p.Types.TypesAssignable(paramType, arg.Type())
	if !ok {
		p.Diag.Errorf(pos.Line, "argument type %s is not assignable to parameter type %s", arg.Type().Name(), paramType.Name())
		return ast.NewError(pos, "argument type mismatch")
	}
	if c, isConst := arg.(*ast.Constant); isConst {
		fold.CoerceConstant(c, result)
		c.SetType(result)
	}
	return arg
}

// Component I: the declaration and definition parser (spec.md §4.H).
package parser

import (
	"text/scanner"

	"github.com/dmihel/slfront/internal/ast"
	"github.com/dmihel/slfront/internal/fold"
	"github.com/dmihel/slfront/internal/lexer"
	"github.com/dmihel/slfront/internal/symtab"
	"github.com/dmihel/slfront/internal/types"
)

func (p *Parser) isGlobalScope() bool { return p.Syms.Depth() == 1 }

// paramInfo holds one parsed parameter's name and type, shared between
// function-definition parsing and the main-signature validator.
type paramInfo struct {
	name string
	typ  *types.Type
}

// parseDeclarationPartition dispatches the top-level and block-level
// declaration forms (spec.md §4.H), returning nil for forms that lower to
// a pure symbol-table insertion with no AST node.
func (p *Parser) parseDeclarationPartition() ast.Node {
	la := p.Source.Peek()
	switch {
	case la.Kind == lexer.KwDeclare:
		return p.parseDeclarePartition()
	case la.Kind == lexer.KwLet:
		return p.parseLet()
	case la.Kind == lexer.KwDefine:
		return p.parseDefine()
	case la.Kind == lexer.KwAlias:
		return p.parseAlias()
	case la.Kind == lexer.DirReplace:
		return p.parseReplace()
	case la.Kind == lexer.KwPub || la.Kind == lexer.KwFn:
		return p.parseFunctionDefinition()
	default:
		p.Diag.Errorf(la.Pos.Line, "expected a declaration, definition, or directive")
		p.Source.Next()
		return ast.NewError(la.Pos, "unrecognized top-level construct")
	}
}

// parseDeclarePartition handles both `declare [pub] fn ...;` (function
// predeclaration) and `declare [mut]? x : T;` (variable declaration),
// which share the `declare` keyword.
func (p *Parser) parseDeclarePartition() ast.Node {
	declareTok := p.Source.Next()
	isPub := false
	if p.Source.Peek().Kind == lexer.KwPub {
		p.Source.Next()
		isPub = true
	}
	if p.Source.Peek().Kind == lexer.KwFn {
		return p.parseFunctionPredeclaration(declareTok.Pos, isPub)
	}
	if isPub {
		p.Diag.Errorf(declareTok.Pos.Line, "'pub' is only valid on 'declare fn'")
	}
	return p.parseDeclareVariable(declareTok.Pos)
}

// parseFunctionPredeclaration implements `declare [pub] fn name(params) -> T;`
// (global scope only; records defined=false).
func (p *Parser) parseFunctionPredeclaration(pos scanner.Position, isPub bool) ast.Node {
	if !p.isGlobalScope() {
		p.Diag.Errorf(pos.Line, "function predeclaration is only allowed at global scope")
	}
	p.Source.Next() // 'fn'
	nameTok := p.Source.Next()
	if nameTok.Kind != lexer.Ident {
		p.Diag.Errorf(nameTok.Pos.Line, "expected a function name")
	}
	sig, paramTypes := p.parseFunctionSignatureTail(nameTok.Pos)
	p.expectSemi()

	rec, existed := p.Syms.DeclareFunction(nameTok.Lexeme)
	if existed && (rec.Defined || rec.Signature != nil) {
		p.Diag.Errorf(nameTok.Pos.Line, "function %q already predeclared", nameTok.Lexeme)
	}
	rec.Signature = sig
	rec.IsPublic = isPub
	rec.ReturnType = sig.ReturnType()
	rec.Line = nameTok.Pos.Line
	_ = paramTypes
	p.Graph.AddFunction(nameTok.Lexeme, rec.ID)
	return nil
}

// parseFunctionSignatureTail parses `(params) -> T` (or `(params) -> void`)
// and interns the corresponding function-signature type.
func (p *Parser) parseFunctionSignatureTail(pos scanner.Position) (*types.Type, []*types.Type) {
	p.expectKind(lexer.LParen, "'('")
	p.grouping.push(lexer.LParen)
	var params []*types.Type
	if p.Source.Peek().Kind != lexer.RParen {
		for {
			t, _, ok := p.parseTypeSpecifier()
			if !ok {
				p.Diag.Errorf(pos.Line, "expected a parameter type")
				break
			}
			params = append(params, t)
			if p.Source.Peek().Kind == lexer.Ident {
				p.Source.Next() // optional parameter name in a signature-only context
			}
			if p.Source.Peek().Kind == lexer.Comma {
				p.Source.Next()
				continue
			}
			break
		}
	}
	if len(params) > 6 {
		p.Diag.Errorf(pos.Line, "too many parameters (max 6)")
	}
	closeTok := p.Source.Next()
	if !p.grouping.pop(lexer.LParen) || closeTok.Kind != lexer.RParen {
		p.Diag.Errorf(closeTok.Pos.Line, "expected ')'")
	}
	p.expectKind(lexer.ThinArrow, "'->'")
	ret, _, ok := p.parseTypeSpecifier()
	if !ok {
		p.Diag.Errorf(pos.Line, "expected a return type")
		ret = p.Types.Basic(types.Void, types.Immutable)
	}
	returnsVoid := types.IsVoid(ret)
	sig := p.Types.NewFunctionSignature(params, ret, returnsVoid, false)
	return sig, params
}

// parseDeclareVariable implements `declare [mut]? x : T;` (spec.md §4.H).
func (p *Parser) parseDeclareVariable(pos scanner.Position) ast.Node {
	mut := false
	if p.Source.Peek().Kind == lexer.KwMut {
		p.Source.Next()
		mut = true
	}
	nameTok := p.Source.Next()
	if nameTok.Kind != lexer.Ident {
		p.Diag.Errorf(nameTok.Pos.Line, "expected a variable name")
	}
	p.expectKind(lexer.Colon, "':'")
	t, _, ok := p.parseTypeSpecifier()
	if !ok {
		p.Diag.Errorf(nameTok.Pos.Line, "expected a type")
		t = p.Types.Basic(types.I32, types.Immutable)
	}
	p.expectSemi()

	dt := types.Dealias(t)
	if dt.Class() == types.Reference {
		p.Diag.Errorf(nameTok.Pos.Line, "reference variables must be initialized; use 'let'")
	}
	if dt.IsMutable() && types.IsMemoryRegion(dt) == false {
		// scalar mut declare is fine; nothing to special-case here.
	}
	if (dt.Class() == types.Array || dt.Class() == types.Union) && !dt.IsMutable() {
		p.Diag.Errorf(nameTok.Pos.Line, "immutable array/union declarations can never be initialized")
	}

	membership := symtab.None
	if p.isGlobalScope() {
		membership = symtab.GlobalVariable
	}
	rec := &symtab.VariableRecord{
		Type: t, Membership: membership, DeclaredVia: symtab.ViaDeclare,
		FunctionDeclaredIn: p.currentFunction, Line: nameTok.Pos.Line,
	}
	id, declOk := p.Syms.DeclareVariable(nameTok.Lexeme, rec)
	if !declOk {
		p.Diag.Errorf(nameTok.Pos.Line, "%q is already declared in this scope", nameTok.Lexeme)
	}

	needsNode := dt.Class() == types.Array || dt.Class() == types.Struct || dt.Class() == types.Union || p.isGlobalScope()
	if !needsNode {
		return nil
	}
	node := ast.NewDeclare(nameTok.Pos, nameTok.Lexeme)
	node.Mut = mut
	node.SetType(t)
	if declOk {
		node.SetVariable(id)
	}
	return node
}

// parseLet implements `let [mut]? x : T := initializer;` (spec.md §4.H).
// Used both as a top-level/block declaration and as a `for`-init slot.
func (p *Parser) parseLet() ast.Node {
	letTok := p.Source.Next()
	mut := false
	if p.Source.Peek().Kind == lexer.KwMut {
		p.Source.Next()
		mut = true
	}
	nameTok := p.Source.Next()
	if nameTok.Kind != lexer.Ident {
		p.Diag.Errorf(nameTok.Pos.Line, "expected a variable name")
	}
	p.expectKind(lexer.Colon, "':'")
	declaredType, _, ok := p.parseTypeSpecifier()
	if !ok {
		p.Diag.Errorf(nameTok.Pos.Line, "expected a type")
		declaredType = p.Types.Basic(types.I32, types.Immutable)
	}
	p.expectKind(lexer.ColonColon, "':='")

	raw := p.parseInitializer()
	isGlobal := p.isGlobalScope()
	finalType, init := p.validateInitializer(nameTok.Pos, declaredType, raw, isGlobal)
	p.expectSemi()

	membership := symtab.None
	if isGlobal {
		membership = symtab.GlobalVariable
	}
	rec := &symtab.VariableRecord{
		Type: finalType, Membership: membership, Initialized: true, DeclaredVia: symtab.ViaLet,
		FunctionDeclaredIn: p.currentFunction, Line: nameTok.Pos.Line,
	}
	id, declOk := p.Syms.DeclareVariable(nameTok.Lexeme, rec)
	if !declOk {
		p.Diag.Errorf(nameTok.Pos.Line, "%q is already declared in this scope", nameTok.Lexeme)
	}

	node := ast.NewLet(nameTok.Pos, nameTok.Lexeme)
	node.Mut = mut
	node.Init = init
	node.SetType(finalType)
	if declOk {
		node.SetVariable(id)
	}
	return node
}

// parseInitializer parses the right-hand side of `:=`: an array
// initializer, a struct initializer, or a ternary expression (which
// itself covers string literals and identifiers).
func (p *Parser) parseInitializer() ast.Node {
	switch p.Source.Peek().Kind {
	case lexer.LBracket:
		pos := p.Source.Next().Pos
		return p.parseArrayInitializerBody(pos)
	case lexer.LBrace:
		pos := p.Source.Next().Pos
		return p.parseStructInitializerBody(pos)
	default:
		return p.parseTernary()
	}
}

func (p *Parser) parseArrayInitializerBody(pos scanner.Position) ast.Node {
	p.grouping.push(lexer.LBracket)
	node := ast.NewArrayInitializerList(pos)
	if p.Source.Peek().Kind != lexer.RBracket {
		for {
			node.Elements = append(node.Elements, p.parseInitializer())
			if p.Source.Peek().Kind == lexer.Comma {
				p.Source.Next()
				continue
			}
			break
		}
	}
	closeTok := p.Source.Next()
	if !p.grouping.pop(lexer.LBracket) || closeTok.Kind != lexer.RBracket {
		p.Diag.Errorf(closeTok.Pos.Line, "expected ']'")
	}
	return node
}

func (p *Parser) parseStructInitializerBody(pos scanner.Position) ast.Node {
	p.grouping.push(lexer.LBrace)
	node := ast.NewStructInitializerList(pos)
	if p.Source.Peek().Kind != lexer.RBrace {
		for {
			node.Elements = append(node.Elements, p.parseInitializer())
			if p.Source.Peek().Kind == lexer.Comma {
				p.Source.Next()
				continue
			}
			break
		}
	}
	closeTok := p.Source.Next()
	if !p.grouping.pop(lexer.LBrace) || closeTok.Kind != lexer.RBrace {
		p.Diag.Errorf(closeTok.Pos.Line, "expected '}'")
	}
	return node
}

// validateInitializer implements `validate_initializer(target_type,
// initializer_node, is_global)` (spec.md §4.H), recursing through array
// and struct initializer lists and coercing scalar initializers.
func (p *Parser) validateInitializer(pos scanner.Position, target *types.Type, init ast.Node, isGlobal bool) (*types.Type, ast.Node) {
	dt := types.Dealias(target)

	if list, isArrayList := init.(*ast.ArrayInitializerList); isArrayList {
		if dt.Class() != types.Array {
			p.Diag.Errorf(pos.Line, "array initializer used for non-array type %s", target.Name())
			return target, init
		}
		elemType := dt.Elem()
		for i, el := range list.Elements {
			_, coerced := p.validateInitializer(pos, elemType, el, isGlobal)
			list.Elements[i] = coerced
		}
		finalType := target
		if dt.IsIncompleteArray() {
			finalType = p.Types.FixArrayBound(dt, len(list.Elements))
		} else if dt.ArrayLen() != len(list.Elements) {
			p.Diag.Errorf(pos.Line, "array initializer has %d elements, expected %d", len(list.Elements), dt.ArrayLen())
		}
		list.SetType(finalType)
		return finalType, list
	}

	if list, isStructList := init.(*ast.StructInitializerList); isStructList {
		if dt.Class() != types.Struct {
			p.Diag.Errorf(pos.Line, "struct initializer used for non-struct type %s", target.Name())
			return target, init
		}
		fields := dt.Fields()
		if len(list.Elements) != len(fields) {
			p.Diag.Errorf(pos.Line, "struct initializer has %d elements, expected %d", len(list.Elements), len(fields))
		}
		for i, el := range list.Elements {
			if i >= len(fields) {
				break
			}
			_, coerced := p.validateInitializer(pos, fields[i].Type, el, isGlobal)
			list.Elements[i] = coerced
		}
		list.SetType(target)
		return target, list
	}

	if strNode, isStr := init.(*ast.Constant); isStr && strNode.Class == ast.ConstStr && dt.Class() == types.Array {
		strLen := len(strNode.StrVal) + 1
		finalType := target
		if dt.IsIncompleteArray() {
			finalType = p.Types.FixArrayBound(dt, strLen)
		} else if dt.ArrayLen() != strLen {
			p.Diag.Errorf(pos.Line, "string initializer length %d does not match declared bound %d", strLen, dt.ArrayLen())
		}
		strInit := ast.NewStringInitializer(strNode.Pos(), strNode.StrVal)
		strInit.SetType(finalType)
		return finalType, strInit
	}

	if isGlobal {
		if _, isConst := init.(*ast.Constant); !isConst {
			p.Diag.Errorf(pos.Line, "global initializer must be a compile-time constant")
		}
	}

	if ident, isIdent := init.(*ast.Identifier); isIdent && dt.Class() == types.Reference {
		_ = ident
		p.Diag.Errorf(pos.Line, "cannot initialize a reference from a plain identifier (only from a call returning a reference)")
	}

	result, ok := p.Types.TypesAssignable(target, init.Type())
	if !ok {
		p.Diag.Errorf(pos.Line, "initializer of type %s is not assignable to declared type %s", init.Type().Name(), target.Name())
		return target, init
	}
	if dt.Class() == types.Pointer && dt.IsMutable() {
		sdt := types.Dealias(init.Type())
		if (sdt.Class() == types.Pointer) && types.IsMemoryRegion(sdt.Elem()) && !sdt.Elem().IsMutable() {
			p.Diag.Errorf(pos.Line, "cannot assign an immutable memory region to a mutable pointer")
		}
	}
	if c, isConst := init.(*ast.Constant); isConst {
		fold.CoerceConstant(c, result)
		c.SetType(result)
	}
	return target, init
}

// parseDefine dispatches `define struct|union|enum|fn` (spec.md §4.H).
func (p *Parser) parseDefine() ast.Node {
	defineTok := p.Source.Next()
	switch p.Source.Peek().Kind {
	case lexer.KwStruct:
		p.parseDefineStruct(defineTok.Pos)
	case lexer.KwUnion:
		p.parseDefineUnion(defineTok.Pos)
	case lexer.KwEnum:
		p.parseDefineEnum(defineTok.Pos)
	case lexer.KwFn:
		p.parseDefineFunctionSignature(defineTok.Pos)
	default:
		p.Diag.Errorf(defineTok.Pos.Line, "expected 'struct', 'union', 'enum', or 'fn' after 'define'")
	}
	return nil
}

// registerComposite declares a just-completed composite type's pair under
// both names: immutable as "name", mutable as "mut name" (spec.md §4.H).
// parseOptionalAlias uses it for an optional `as Alias` tail as well.
func (p *Parser) registerComposite(pos scanner.Position, name string, mutable, immutable *types.Type) {
	p.declareTypeOrError(pos, name, immutable)
	p.declareTypeOrError(pos, "mut "+name, mutable)
}

func (p *Parser) declareTypeOrError(pos scanner.Position, name string, t *types.Type) {
	if p.Syms.NameInUse(name) {
		p.Diag.Errorf(pos.Line, "%q is already declared", name)
	}
	if p.isGlobalScope() {
		p.Syms.DeclareGlobalType(name, t)
	} else {
		p.Syms.DeclareType(name, t)
	}
}

func (p *Parser) parseOptionalAlias(pos scanner.Position, mutable, immutable *types.Type) {
	if p.Source.Peek().Kind != lexer.KwAs {
		return
	}
	p.Source.Next()
	aliasTok := p.Source.Next()
	if aliasTok.Kind != lexer.Ident {
		p.Diag.Errorf(aliasTok.Pos.Line, "expected an alias name")
		return
	}
	aliasImmut := p.Types.Alias(aliasTok.Lexeme, immutable)
	aliasMut := p.Types.Alias("mut "+aliasTok.Lexeme, mutable)
	p.registerComposite(pos, aliasTok.Lexeme, aliasMut, aliasImmut)
}

// parseDefineStruct implements `define struct NAME { field : T; ... } [as Alias];`.
func (p *Parser) parseDefineStruct(pos scanner.Position) {
	p.Source.Next() // 'struct'
	nameTok := p.Source.Next()
	if nameTok.Kind != lexer.Ident {
		p.Diag.Errorf(nameTok.Pos.Line, "expected a struct name")
	}
	p.expectKind(lexer.LBrace, "'{'")
	p.grouping.push(lexer.LBrace)
	builder := p.Types.NewStructBuilder(nameTok.Lexeme)
	for p.Source.Peek().Kind != lexer.RBrace && p.Source.Peek().Kind != lexer.EOF {
		fieldTok := p.Source.Next()
		p.expectKind(lexer.Colon, "':'")
		ft, _, ok := p.parseTypeSpecifier()
		if !ok {
			p.Diag.Errorf(fieldTok.Pos.Line, "expected a field type")
			ft = p.Types.Basic(types.I32, types.Immutable)
		}
		if !ft.Complete() {
			p.Diag.Errorf(fieldTok.Pos.Line, "field %q has an incomplete type", fieldTok.Lexeme)
		}
		builder.AddField(fieldTok.Lexeme, ft)
		p.expectSemi()
	}
	closeTok := p.Source.Next()
	if !p.grouping.pop(lexer.LBrace) || closeTok.Kind != lexer.RBrace {
		p.Diag.Errorf(closeTok.Pos.Line, "expected '}'")
	}
	mutable, immutable := builder.Complete()
	p.registerComposite(pos, nameTok.Lexeme, mutable, immutable)
	p.parseOptionalAlias(pos, mutable, immutable)
}

// parseDefineUnion implements `define union NAME { field : T; ... } [as Alias];`.
// Each member's type specifier is parsed once into a descriptor, then
// materialized twice (mutable and immutable) rather than re-seeking the
// token source (spec.md §9 Design Notes: "parse once... materialize
// twice").
func (p *Parser) parseDefineUnion(pos scanner.Position) {
	p.Source.Next() // 'union'
	nameTok := p.Source.Next()
	if nameTok.Kind != lexer.Ident {
		p.Diag.Errorf(nameTok.Pos.Line, "expected a union name")
	}
	p.expectKind(lexer.LBrace, "'{'")
	p.grouping.push(lexer.LBrace)

	mutBuilder := p.Types.NewUnionBuilder(nameTok.Lexeme)
	immutBuilder := p.Types.NewUnionBuilder(nameTok.Lexeme)
	var memberNames []string
	for p.Source.Peek().Kind != lexer.RBrace && p.Source.Peek().Kind != lexer.EOF {
		fieldTok := p.Source.Next()
		p.expectKind(lexer.Colon, "':'")
		base, consumed, ok := p.parseTypeSpecifier()
		if !ok {
			p.Diag.Errorf(fieldTok.Pos.Line, "expected a member type")
			base = p.Types.Basic(types.I32, types.Immutable)
		}
		_ = consumed
		immutMember := p.materializeMutability(base, types.Immutable)
		mutMember := p.materializeMutability(base, types.Mutable)
		immutBuilder.AddMember(fieldTok.Lexeme, immutMember)
		mutBuilder.AddMember(fieldTok.Lexeme, mutMember)
		memberNames = append(memberNames, fieldTok.Lexeme)
		p.expectSemi()
	}
	closeTok := p.Source.Next()
	if !p.grouping.pop(lexer.LBrace) || closeTok.Kind != lexer.RBrace {
		p.Diag.Errorf(closeTok.Pos.Line, "expected '}'")
	}
	mutUnion, _ := mutBuilder.Complete()
	_, immutUnion := immutBuilder.Complete()
	p.registerComposite(pos, nameTok.Lexeme, mutUnion, immutUnion)
	p.parseOptionalAlias(pos, mutUnion, immutUnion)
	_ = memberNames
}

// materializeMutability rebuilds t (an already-resolved type descriptor)
// with the outermost wrapper's mutability switched to mut, leaving the
// element chain beneath it untouched. Used instead of re-parsing a
// union member's type a second time.
func (p *Parser) materializeMutability(t *types.Type, mut types.Mutability) *types.Type {
	switch t.Class() {
	case types.Pointer:
		return p.Types.PointerTo(t.Elem(), mut)
	case types.Reference:
		return p.Types.ReferenceTo(t.Elem(), mut)
	case types.Array:
		return p.Types.ArrayOf(t.Elem(), t.ArrayLen(), mut)
	case types.Basic:
		return p.Types.Basic(t.Primitive(), mut)
	default:
		return t
	}
}

// parseDefineEnum implements `define enum NAME { m [:= K], ... } [as Alias];`.
func (p *Parser) parseDefineEnum(pos scanner.Position) {
	p.Source.Next() // 'enum'
	nameTok := p.Source.Next()
	if nameTok.Kind != lexer.Ident {
		p.Diag.Errorf(nameTok.Pos.Line, "expected an enum name")
	}
	p.expectKind(lexer.LBrace, "'{'")
	p.grouping.push(lexer.LBrace)

	var members []types.EnumMember
	seenValues := map[int64]bool{}
	explicitMode := false
	modeDecided := false
	next := int64(0)
	for p.Source.Peek().Kind != lexer.RBrace && p.Source.Peek().Kind != lexer.EOF {
		memberTok := p.Source.Next()
		isExplicit := false
		var value int64
		if p.Source.Peek().Kind == lexer.ColonColon {
			p.Source.Next()
			isExplicit = true
			valExpr := p.ParseExpression()
			if c, ok := valExpr.(*ast.Constant); ok {
				value = constantKey(c)
			} else {
				p.Diag.Errorf(memberTok.Pos.Line, "enum member value must be a compile-time constant")
			}
		} else {
			value = next
		}
		if !modeDecided {
			explicitMode, modeDecided = isExplicit, true
		} else if explicitMode != isExplicit {
			p.Diag.Errorf(memberTok.Pos.Line, "cannot mix auto and explicit enum member values")
		}
		if seenValues[value] {
			p.Diag.Errorf(memberTok.Pos.Line, "enum value %d collides with a previous member", value)
		}
		seenValues[value] = true
		members = append(members, types.EnumMember{Name: memberTok.Lexeme, Value: value})
		next = value + 1
		if p.Source.Peek().Kind == lexer.Comma {
			p.Source.Next()
			continue
		}
		break
	}
	closeTok := p.Source.Next()
	if !p.grouping.pop(lexer.LBrace) || closeTok.Kind != lexer.RBrace {
		p.Diag.Errorf(closeTok.Pos.Line, "expected '}'")
	}
	mutable, immutable := p.Types.NewEnum(nameTok.Lexeme, members)
	p.registerComposite(pos, nameTok.Lexeme, mutable, immutable)
	for _, m := range members {
		rec := &symtab.VariableRecord{
			Type: immutable, Membership: symtab.EnumMember, Initialized: true,
			EnumMemberValue: m.Value, Line: nameTok.Pos.Line,
		}
		p.Syms.DeclareVariable(nameTok.Lexeme+"::"+m.Name, rec)
	}
	p.parseOptionalAlias(pos, mutable, immutable)
}

// parseDefineFunctionSignature implements `define fn(T, ...) -> R as Alias;`.
func (p *Parser) parseDefineFunctionSignature(pos scanner.Position) {
	p.Source.Next() // 'fn'
	sig, _ := p.parseFunctionSignatureTail(pos)
	immutSig := sig
	mutSig := sig
	p.expectKind(lexer.KwAs, "'as'")
	aliasTok := p.Source.Next()
	if aliasTok.Kind != lexer.Ident {
		p.Diag.Errorf(aliasTok.Pos.Line, "expected an alias name")
		p.expectSemi()
		return
	}
	aliasImmut := p.Types.Alias(aliasTok.Lexeme, immutSig)
	aliasMut := p.Types.Alias("mut "+aliasTok.Lexeme, mutSig)
	p.registerComposite(pos, aliasTok.Lexeme, aliasMut, aliasImmut)
	p.expectSemi()
}

// parseAlias implements `alias T as Name;` (spec.md §4.H); the alias
// takes T's mutability.
func (p *Parser) parseAlias() ast.Node {
	aliasTok := p.Source.Next()
	target, _, ok := p.parseTypeSpecifier()
	if !ok {
		p.Diag.Errorf(aliasTok.Pos.Line, "expected a type after 'alias'")
		p.expectSemi()
		return nil
	}
	p.expectKind(lexer.KwAs, "'as'")
	nameTok := p.Source.Next()
	if nameTok.Kind != lexer.Ident {
		p.Diag.Errorf(nameTok.Pos.Line, "expected an alias name")
	}
	aliased := p.Types.Alias(nameTok.Lexeme, target)
	p.declareTypeOrError(aliasTok.Pos, nameTok.Lexeme, aliased)
	p.expectSemi()
	return nil
}

// parseReplace implements `#replace NAME with EXPR;` (spec.md §4.H): EXPR
// is any ternary-and-below expression that must fold to a constant.
func (p *Parser) parseReplace() ast.Node {
	repTok := p.Source.Next()
	nameTok := p.Source.Next()
	if nameTok.Kind != lexer.Ident {
		p.Diag.Errorf(nameTok.Pos.Line, "expected a name after '#replace'")
	}
	p.expectKind(lexer.KwWith, "'with'")
	value := p.parseTernary()
	p.expectSemi()
	if _, isConst := value.(*ast.Constant); !isConst {
		p.Diag.Errorf(repTok.Pos.Line, "#replace value must fold to a compile-time constant")
	}
	if _, exists := p.Syms.DeclareConstant(nameTok.Lexeme, value, repTok.Pos.Line); !exists {
		p.Diag.Errorf(nameTok.Pos.Line, "%q is already declared", nameTok.Lexeme)
	}
	return nil
}

// parseFunctionDefinition implements `[pub] fn name(params) -> T body`
// (spec.md §4.H), including the predeclaration-signature-match rule and
// main's special validation.
func (p *Parser) parseFunctionDefinition() ast.Node {
	startPos := p.Source.Peek().Pos
	isPub := false
	if p.Source.Peek().Kind == lexer.KwPub {
		p.Source.Next()
		isPub = true
	}
	p.expectKind(lexer.KwFn, "'fn'")
	nameTok := p.Source.Next()
	if nameTok.Kind != lexer.Ident {
		p.Diag.Errorf(nameTok.Pos.Line, "expected a function name")
	}

	p.expectKind(lexer.LParen, "'('")
	p.grouping.push(lexer.LParen)
	p.Syms.PushScope()

	var params []paramInfo
	if p.Source.Peek().Kind != lexer.RParen {
		for {
			pNameTok := p.Source.Next()
			p.expectKind(lexer.Colon, "':'")
			pt, _, ok := p.parseTypeSpecifier()
			if !ok {
				p.Diag.Errorf(pNameTok.Pos.Line, "expected a parameter type")
				pt = p.Types.Basic(types.I32, types.Immutable)
			}
			params = append(params, paramInfo{name: pNameTok.Lexeme, typ: pt})
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
	if len(params) > 6 {
		p.Diag.Errorf(nameTok.Pos.Line, "too many parameters (max 6)")
	}
	p.expectKind(lexer.ThinArrow, "'->'")
	retType, _, ok := p.parseTypeSpecifier()
	if !ok {
		p.Diag.Errorf(nameTok.Pos.Line, "expected a return type")
		retType = p.Types.Basic(types.Void, types.Immutable)
	}
	returnsVoid := types.IsVoid(retType)

	paramTypes := make([]*types.Type, len(params))
	for i, pi := range params {
		paramTypes[i] = pi.typ
	}
	sig := p.Types.NewFunctionSignature(paramTypes, retType, returnsVoid, isPub)

	rec, existed := p.Syms.DeclareFunction(nameTok.Lexeme)
	if existed {
		if rec.Defined {
			p.Diag.Errorf(nameTok.Pos.Line, "function %q already defined", nameTok.Lexeme)
		} else if !signaturesMatch(rec.Signature, sig) || rec.IsPublic != isPub {
			p.Diag.Errorf(nameTok.Pos.Line, "definition of %q does not match its predeclaration", nameTok.Lexeme)
		}
	}
	rec.Signature = sig
	rec.IsPublic = isPub
	rec.ReturnType = retType
	rec.Defined = true
	if rec.Line == 0 {
		rec.Line = nameTok.Pos.Line
	}
	p.Graph.AddFunction(nameTok.Lexeme, rec.ID)

	if nameTok.Lexeme == "main" {
		validateMainSignature(p, nameTok.Pos, isPub, retType, params)
		p.Graph.MarkMainCalledByOS()
		rec.Called = true
	}

	// Enter the function now, ahead of declaring its parameters, so their
	// FunctionDeclaredIn records rec.ID rather than whatever function
	// enclosed this definition (spec.md §3.4: a parameter belongs to the
	// function it is declared on, not the lexically surrounding one).
	p.enterFunction(rec.ID, nameTok.Lexeme, retType, returnsVoid)

	generalIdx, floatIdx := 0, 0
	identNodes := make([]*ast.Identifier, len(params))
	for i, pi := range params {
		classRel := generalIdx
		dt := types.Dealias(pi.typ)
		if dt.Class() == types.Basic && dt.Primitive().IsFloatingPoint() {
			classRel = floatIdx
			floatIdx++
		} else {
			generalIdx++
		}
		pRec := &symtab.VariableRecord{
			Type: pi.typ, Membership: symtab.FunctionParameter, Initialized: true,
			FunctionDeclaredIn: p.currentFunction, Line: nameTok.Pos.Line,
			AbsoluteFunctionParameterOrder:       i + 1,
			ClassRelativeFunctionParameterOrder: classRel + 1,
		}
		id, declOk := p.Syms.DeclareVariable(pi.name, pRec)
		ident := ast.NewIdentifier(nameTok.Pos, pi.name)
		ident.SetType(pi.typ)
		if declOk {
			ident.SetVariable(id)
			rec.Parameters = append(rec.Parameters, id)
		}
		identNodes[i] = ident
	}

	p.nesting.push(nestFunction)
	body := p.parseCompoundStmt()
	p.resolveJumps()
	p.nesting.pop()
	p.Syms.PopScope()

	node := ast.NewFunctionDef(startPos, nameTok.Lexeme)
	node.Function = rec.ID
	node.Params = identNodes
	node.Body = body
	node.IsPublic = isPub
	return node
}

func signaturesMatch(a, b *types.Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if len(a.Params()) != len(b.Params()) {
		return false
	}
	for i := range a.Params() {
		if a.Params()[i] != b.Params()[i] {
			return false
		}
	}
	return a.ReturnType() == b.ReturnType() && a.ReturnsVoid() == b.ReturnsVoid()
}

// validateMainSignature enforces spec.md §4.H's special rules for `main`:
// must be pub, return i32, and take either no parameters or (i32, char**).
func validateMainSignature(p *Parser, pos scanner.Position, isPub bool, retType *types.Type, params []paramInfo) {
	if !isPub {
		p.Diag.Errorf(pos.Line, "'main' must be declared 'pub'")
	}
	if types.Dealias(retType).Class() != types.Basic || types.Dealias(retType).Primitive() != types.I32 {
		p.Diag.Errorf(pos.Line, "'main' must return i32")
	}
	switch len(params) {
	case 0:
	case 2:
		p0 := types.Dealias(params[0].typ)
		p1 := types.Dealias(params[1].typ)
		validArgc := p0.Class() == types.Basic && p0.Primitive() == types.I32
		validArgv := p1.Class() == types.Pointer && types.Dealias(p1.Elem()).Class() == types.Pointer &&
			types.Dealias(types.Dealias(p1.Elem()).Elem()).Primitive() == types.CharPrim
		if !validArgc || !validArgv {
			p.Diag.Errorf(pos.Line, "'main' parameters must be () or (i32, char**)")
		}
	default:
		p.Diag.Errorf(pos.Line, "'main' parameters must be () or (i32, char**)")
	}
}

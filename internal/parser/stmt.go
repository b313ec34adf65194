// Component H: the statement and block parser (spec.md §4.G).
package parser

import (
	"strings"
	"text/scanner"

	"github.com/dmihel/slfront/internal/ast"
	"github.com/dmihel/slfront/internal/fold"
	"github.com/dmihel/slfront/internal/lexer"
	"github.com/dmihel/slfront/internal/symtab"
	"github.com/dmihel/slfront/internal/types"
)

func (p *Parser) expectSemi() {
	tok := p.Source.Next()
	if tok.Kind != lexer.Semi {
		p.Diag.Errorf(tok.Pos.Line, "expected ';'")
	}
}

func (p *Parser) expectKind(k lexer.Kind, what string) scanner.Position {
	tok := p.Source.Next()
	if tok.Kind != k {
		p.Diag.Errorf(tok.Pos.Line, "expected %s", what)
	}
	return tok.Pos
}

// parseCompoundStmt implements `{ ... }`: a new type and variable scope,
// finalized on the matching `}` (spec.md §4.G).
func (p *Parser) parseCompoundStmt() *ast.CompoundStmt {
	open := p.Source.Next()
	node := ast.NewCompoundStmt(open.Pos)
	if open.Kind != lexer.LBrace {
		p.Diag.Errorf(open.Pos.Line, "expected '{'")
		return node
	}
	p.grouping.push(lexer.LBrace)
	p.Syms.PushScope()
	for {
		la := p.Source.Peek()
		if la.Kind == lexer.RBrace || la.Kind == lexer.EOF {
			break
		}
		if stmt := p.parseStatement(); stmt != nil {
			node.Statements = append(node.Statements, stmt)
		}
	}
	p.Syms.PopScope()
	closeTok := p.Source.Next()
	if !p.grouping.pop(lexer.LBrace) || closeTok.Kind != lexer.RBrace {
		p.Diag.Errorf(closeTok.Pos.Line, "expected '}'")
	}
	return node
}

// parseStatement dispatches on the lookahead keyword/punctuation.
func (p *Parser) parseStatement() ast.Node {
	la := p.Source.Peek()
	switch la.Kind {
	case lexer.LBrace:
		return p.parseCompoundStmt()
	case lexer.KwIf:
		return p.parseIf()
	case lexer.KwFor:
		return p.parseFor()
	case lexer.KwWhile:
		return p.parseWhile()
	case lexer.KwDo:
		return p.parseDoWhile()
	case lexer.KwSwitch:
		return p.parseSwitch()
	case lexer.KwBreak:
		return p.parseBreak()
	case lexer.KwContinue:
		return p.parseContinue()
	case lexer.KwRet:
		return p.parseReturn()
	case lexer.KwJump:
		return p.parseJump()
	case lexer.Hash:
		return p.parseLabel()
	case lexer.KwDeclare:
		return p.parseDeclare()
	case lexer.KwLet:
		return p.parseLet()
	case lexer.KwDefer:
		return p.parseDefer()
	case lexer.KwAsm:
		return p.parseAsmInline()
	case lexer.KwIdle:
		p.Source.Next()
		node := ast.NewIdle(la.Pos)
		p.expectSemi()
		return node
	case lexer.Semi:
		p.Source.Next()
		return nil
	default:
		expr := p.ParseExpression()
		p.expectSemi()
		return expr
	}
}

func (p *Parser) parseParenCond() ast.Node {
	p.expectKind(lexer.LParen, "'('")
	p.grouping.push(lexer.LParen)
	cond := p.ParseExpression()
	closeTok := p.Source.Next()
	if !p.grouping.pop(lexer.LParen) || closeTok.Kind != lexer.RParen {
		p.Diag.Errorf(closeTok.Pos.Line, "expected ')'")
	}
	return cond
}

func (p *Parser) parseIf() ast.Node {
	ifTok := p.Source.Next()
	p.nesting.push(nestIf)
	cond := p.parseParenCond()
	if !types.IsTypeValidForConditional(cond.Type()) {
		p.Diag.Errorf(ifTok.Pos.Line, "'if' condition must be a conditional-eligible type, got %s", cond.Type().Name())
	}
	then := p.parseCompoundStmt()
	node := ast.NewIf(ifTok.Pos)
	node.Cond, node.Then = cond, then
	if p.Source.Peek().Kind == lexer.KwElse {
		p.Source.Next()
		if p.Source.Peek().Kind == lexer.KwIf {
			node.Else = p.parseIf()
		} else {
			node.Else = p.parseCompoundStmt()
		}
	}
	p.nesting.pop()
	return node
}

// parseFor implements `for (init; cond; step) body`: the parenthesized
// trio and the body share one new variable scope (spec.md §4.G).
func (p *Parser) parseFor() ast.Node {
	forTok := p.Source.Next()
	p.expectKind(lexer.LParen, "'('")
	p.grouping.push(lexer.LParen)
	p.Syms.PushScope()
	p.nesting.push(nestLoop)

	node := ast.NewFor(forTok.Pos)
	if p.Source.Peek().Kind == lexer.Semi {
		p.Source.Next()
	} else if p.Source.Peek().Kind == lexer.KwLet {
		node.Init = p.parseLet()
	} else {
		node.Init = p.ParseExpression()
		p.expectSemi()
	}

	node.Cond = p.ParseExpression()
	if !types.IsTypeValidForConditional(node.Cond.Type()) {
		p.Diag.Errorf(forTok.Pos.Line, "'for' condition must be a conditional-eligible type, got %s", node.Cond.Type().Name())
	}
	p.expectSemi()

	if p.Source.Peek().Kind != lexer.RParen {
		node.Step = p.ParseExpression()
	}
	closeTok := p.Source.Next()
	if !p.grouping.pop(lexer.LParen) || closeTok.Kind != lexer.RParen {
		p.Diag.Errorf(closeTok.Pos.Line, "expected ')'")
	}

	node.Body = p.parseCompoundStmt()
	p.Syms.PopScope()
	p.nesting.pop()
	return node
}

func (p *Parser) parseWhile() ast.Node {
	whileTok := p.Source.Next()
	p.nesting.push(nestLoop)
	cond := p.parseParenCond()
	if !types.IsTypeValidForConditional(cond.Type()) {
		p.Diag.Errorf(whileTok.Pos.Line, "'while' condition must be a conditional-eligible type, got %s", cond.Type().Name())
	}
	body := p.parseCompoundStmt()
	p.nesting.pop()
	node := ast.NewWhile(whileTok.Pos)
	node.Cond, node.Body = cond, body
	return node
}

func (p *Parser) parseDoWhile() ast.Node {
	doTok := p.Source.Next()
	p.nesting.push(nestLoop)
	body := p.parseCompoundStmt()
	p.expectKind(lexer.KwWhile, "'while'")
	cond := p.parseParenCond()
	if !types.IsTypeValidForConditional(cond.Type()) {
		p.Diag.Errorf(doTok.Pos.Line, "'do...while' condition must be a conditional-eligible type, got %s", cond.Type().Name())
	}
	p.expectSemi()
	p.nesting.pop()
	node := ast.NewDoWhile(doTok.Pos)
	node.Body, node.Cond = body, cond
	return node
}

// parseSwitch implements both switch dialects, exhaustiveness, and the
// 1024-value span cap (spec.md §4.G).
func (p *Parser) parseSwitch() ast.Node {
	swTok := p.Source.Next()
	exprNode := p.parseParenCond()
	dt := types.Dealias(exprNode.Type())
	validSwitchType := dt.Class() == types.Enum || (dt.Class() == types.Basic && dt.Primitive() != types.InvalidPrimitive && !dt.Primitive().IsFloatingPoint() && dt.Primitive() != types.Void)
	if !validSwitchType {
		p.Diag.Errorf(swTok.Pos.Line, "switch expression must be an integer, char, bool, or enum type, got %s", exprNode.Type().Name())
	}

	node := ast.NewSwitch(swTok.Pos)
	node.Expr = exprNode

	p.expectKind(lexer.LBrace, "'{'")
	p.grouping.push(lexer.LBrace)
	p.Syms.PushScope()

	dialectSet := false
	hasDefault := false
	seen := map[int64]bool{}
	for {
		la := p.Source.Peek()
		if la.Kind == lexer.RBrace || la.Kind == lexer.EOF {
			break
		}
		switch la.Kind {
		case lexer.KwCase:
			c, isCStyle := p.parseCase(node, seen)
			if !dialectSet {
				node.IsCStyle, dialectSet = isCStyle, true
			} else if node.IsCStyle != isCStyle {
				p.Diag.Errorf(la.Pos.Line, "cannot mix arrow and c-style case dialects in one switch")
			}
			node.Cases = append(node.Cases, c)
		case lexer.KwDefault:
			d, isCStyle := p.parseDefault()
			if !dialectSet {
				node.IsCStyle, dialectSet = isCStyle, true
			} else if node.IsCStyle != isCStyle {
				p.Diag.Errorf(la.Pos.Line, "cannot mix arrow and c-style case dialects in one switch")
			}
			hasDefault = true
			node.Cases = append(node.Cases, d)
		default:
			p.Diag.Errorf(la.Pos.Line, "expected 'case' or 'default' inside a switch body")
			p.Source.Next()
		}
	}

	p.Syms.PopScope()
	closeTok := p.Source.Next()
	if !p.grouping.pop(lexer.LBrace) || closeTok.Kind != lexer.RBrace {
		p.Diag.Errorf(closeTok.Pos.Line, "expected '}'")
	}

	if len(seen) > 0 {
		span := node.UpperBound - node.LowerBound + 1
		if span > 1024 {
			p.Diag.Errorf(swTok.Pos.Line, "switch spans more than 1024 distinct values")
		}
		gapless := int64(len(seen)) == span
		fullRange := false
		switch {
		case dt.Class() == types.Enum:
			fullRange = len(seen) == len(dt.EnumMembers())
		case dt.Class() == types.Basic && dt.Primitive() == types.BoolPrim:
			fullRange = len(seen) == 2
		case dt.Class() == types.Basic:
			fullRange = len(seen) == 256
		}
		if types.IsExhaustiveSwitchEligible(dt) && gapless && fullRange {
			if hasDefault {
				p.Diag.Errorf(swTok.Pos.Line, "'default' is unreachable on an exhaustive switch")
			}
			return node
		}
	}
	if !hasDefault {
		p.Diag.Errorf(swTok.Pos.Line, "switch must have a 'default' case")
	}
	return node
}

func (p *Parser) atCaseBoundary() bool {
	k := p.Source.Peek().Kind
	return k == lexer.KwCase || k == lexer.KwDefault || k == lexer.RBrace || k == lexer.EOF
}

func constantKey(c *ast.Constant) int64 {
	switch c.Class {
	case ast.ConstU8, ast.ConstU16, ast.ConstU32, ast.ConstU64:
		return int64(c.UintVal)
	default:
		return c.IntVal
	}
}

// parseCase implements one `case K, K, ... -> { ... }` or `case K, ...: stmts*`
// arm, recording each value's bounds and uniqueness on switchNode.
func (p *Parser) parseCase(switchNode *ast.Switch, seen map[int64]bool) (*ast.Case, bool) {
	caseTok := p.Source.Next()
	p.nesting.push(nestCaseCondition)
	var values []ast.Node
	for {
		values = append(values, p.ParseExpression())
		if p.Source.Peek().Kind == lexer.Comma {
			p.Source.Next()
			continue
		}
		break
	}
	p.nesting.pop()

	for _, v := range values {
		c, isConst := v.(*ast.Constant)
		if !isConst {
			p.Diag.Errorf(caseTok.Pos.Line, "case value must be a compile-time constant")
			continue
		}
		key := constantKey(c)
		if seen[key] {
			p.Diag.Errorf(caseTok.Pos.Line, "duplicate case value %d", key)
		}
		seen[key] = true
		if key < switchNode.LowerBound {
			switchNode.LowerBound = key
		}
		if key > switchNode.UpperBound {
			switchNode.UpperBound = key
		}
	}

	isCStyle := false
	var body []ast.Node
	switch p.Source.Peek().Kind {
	case lexer.ThinArrow:
		p.Source.Next()
		body = []ast.Node{p.parseCompoundStmt()}
	case lexer.Colon:
		p.Source.Next()
		isCStyle = true
		p.nesting.push(nestCStyleCase)
		for !p.atCaseBoundary() {
			if stmt := p.parseStatement(); stmt != nil {
				body = append(body, stmt)
			}
		}
		p.nesting.pop()
	default:
		p.Diag.Errorf(caseTok.Pos.Line, "expected '->' or ':' after case value(s)")
	}
	node := ast.NewCase(caseTok.Pos, isCStyle)
	node.Values, node.Body = values, body
	return node, isCStyle
}

func (p *Parser) parseDefault() (*ast.Default, bool) {
	defTok := p.Source.Next()
	isCStyle := false
	var body []ast.Node
	switch p.Source.Peek().Kind {
	case lexer.ThinArrow:
		p.Source.Next()
		body = []ast.Node{p.parseCompoundStmt()}
	case lexer.Colon:
		p.Source.Next()
		isCStyle = true
		p.nesting.push(nestCStyleCase)
		for !p.atCaseBoundary() {
			if stmt := p.parseStatement(); stmt != nil {
				body = append(body, stmt)
			}
		}
		p.nesting.pop()
	default:
		p.Diag.Errorf(defTok.Pos.Line, "expected '->' or ':' after 'default'")
	}
	node := ast.NewDefault(defTok.Pos, isCStyle)
	node.Body = body
	return node, isCStyle
}

func (p *Parser) parseWhenClause() ast.Node {
	if p.Source.Peek().Kind != lexer.KwWhen {
		return nil
	}
	p.Source.Next()
	return p.parseParenCond()
}

func (p *Parser) parseBreak() ast.Node {
	tok := p.Source.Next()
	if !(p.nesting.contains(nestLoop) || p.nesting.contains(nestCStyleCase)) {
		p.Diag.Errorf(tok.Pos.Line, "'break' is only valid inside a loop or a c-style switch case")
	}
	node := ast.NewBreak(tok.Pos)
	node.Cond = p.parseWhenClause()
	p.expectSemi()
	return node
}

func (p *Parser) parseContinue() ast.Node {
	tok := p.Source.Next()
	if !p.nesting.contains(nestLoop) {
		p.Diag.Errorf(tok.Pos.Line, "'continue' is only valid inside a loop")
	}
	node := ast.NewContinue(tok.Pos)
	node.Cond = p.parseWhenClause()
	p.expectSemi()
	return node
}

// parseReturn implements `ret [expr];`, splicing an independent defer copy
// per spec.md §4.G/§3.4.
func (p *Parser) parseReturn() ast.Node {
	retTok := p.Source.Next()
	if top, ok := p.nesting.peek(); ok && top == nestDefer {
		p.Diag.Errorf(retTok.Pos.Line, "'ret' is not allowed inside a defer block")
	}
	node := ast.NewReturn(retTok.Pos)
	if p.Source.Peek().Kind != lexer.Semi {
		expr := p.ParseExpression()
		if p.currentReturnsVoid {
			p.Diag.Errorf(retTok.Pos.Line, "function returns void; 'ret' must not have an expression")
		} else if p.currentReturnType != nil {
			result, ok := p.Types.TypesAssignable(p.currentReturnType, expr.Type())
			if !ok {
				p.Diag.Errorf(retTok.Pos.Line, "return value of type %s is not assignable to return type %s", expr.Type().Name(), p.currentReturnType.Name())
			} else if c, isConst := expr.(*ast.Constant); isConst {
				fold.CoerceConstant(c, result)
				c.SetType(result)
			}
		}
		node.Expr = expr
	} else if !p.currentReturnsVoid {
		name := "the declared type"
		if p.currentReturnType != nil {
			name = p.currentReturnType.Name()
		}
		p.Diag.Errorf(retTok.Pos.Line, "function must return a value of type %s", name)
	}
	if splice := p.buildDeferSplice(node); splice != nil {
		node.DeferCopy = splice
	}
	p.expectSemi()
	return node
}

// parseJump implements `jump #LABEL [when(cond)];`, enqueuing the node for
// end-of-function resolution (spec.md §4.G/§3.4).
func (p *Parser) parseJump() ast.Node {
	jumpTok := p.Source.Next()
	if top, ok := p.nesting.peek(); ok && top == nestDefer {
		p.Diag.Errorf(jumpTok.Pos.Line, "'jump' is not allowed inside a defer block")
	}
	labelTok := p.Source.Next()
	if labelTok.Kind != lexer.Hash {
		p.Diag.Errorf(labelTok.Pos.Line, "expected a label name after 'jump'")
	}
	node := ast.NewJump(jumpTok.Pos, labelTok.Lexeme)
	if cond := p.parseWhenClause(); cond != nil {
		node.Cond = cond
	} else {
		node.Cond = p.constantBool(jumpTok.Pos, true)
	}
	p.enqueueJump(node)
	p.expectSemi()
	return node
}

// parseLabel implements `#name:`, uniqueness-checked against every label,
// variable, function, type, and `#replace` name visible in enclosing
// scopes (spec.md §4.G).
func (p *Parser) parseLabel() ast.Node {
	hashTok := p.Source.Next()
	name := hashTok.Lexeme
	p.expectKind(lexer.Colon, "':'")
	if top, ok := p.nesting.peek(); ok && top == nestDefer {
		p.Diag.Errorf(hashTok.Pos.Line, "labels are not allowed inside a defer block")
	}
	if _, exists := p.Syms.LookupAnyLowerScope(name); exists {
		p.Diag.Errorf(hashTok.Pos.Line, "label name %q is already in use in an enclosing scope", name)
	}
	rec := &symtab.VariableRecord{
		Type:               p.Types.Basic(types.U64, types.Immutable),
		Membership:         symtab.LabelVariable,
		Initialized:        true,
		FunctionDeclaredIn: p.currentFunction,
		Line:               hashTok.Pos.Line,
	}
	id, ok := p.Syms.DeclareVariable(name, rec)
	if !ok {
		p.Diag.Errorf(hashTok.Pos.Line, "label name %q is already declared in this scope", name)
	}
	node := ast.NewLabel(hashTok.Pos, name)
	if ok {
		node.SetVariable(id)
	}
	return node
}

// parseDefer implements `defer { ... }`, allowed only directly under a
// function body (spec.md §4.G/§3.4). The body is accumulated, not
// inlined; every `ret` site splices its own copy.
func (p *Parser) parseDefer() ast.Node {
	deferTok := p.Source.Next()
	if !p.nesting.directlyUnderFunction() {
		p.Diag.Errorf(deferTok.Pos.Line, "'defer' is only allowed directly inside a function body")
	}
	p.nesting.push(nestDefer)
	body := p.parseCompoundStmt()
	p.nesting.pop()
	p.accumulateDefer(body)
	node := ast.NewDefer(deferTok.Pos)
	node.Body = body
	return node
}

// parseAsmInline implements `#asm { lines... };`, capturing raw source text
// via the token source's assembly-line reader (spec.md §4.G/§4.A).
func (p *Parser) parseAsmInline() ast.Node {
	asmTok := p.Source.Next()
	p.expectKind(lexer.LBrace, "'{' after '#asm'")
	p.Diag.Warnf(asmTok.Pos.Line, "inline assembly is not analyzed")
	var lines []string
	for {
		if p.Source.Peek().Kind == lexer.EOF {
			break
		}
		line := p.Source.NextAssemblyLine()
		if strings.TrimSpace(line) == "}" {
			break
		}
		lines = append(lines, line)
	}
	p.expectSemi()
	return ast.NewAsmInline(asmTok.Pos, strings.Join(lines, "\n"))
}

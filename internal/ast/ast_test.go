package ast_test

import (
	"testing"
	"text/scanner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmihel/slfront/internal/ast"
)

func TestBaseAccessorsRoundTrip(t *testing.T) {
	id := ast.NewIdentifier(scanner.Position{Line: 3}, "x")
	assert.Equal(t, 3, id.Line())
	assert.Equal(t, ast.KindIdentifier, id.Kind())
	assert.False(t, id.Assignable())
	id.SetAssignable(true)
	assert.True(t, id.Assignable())
	assert.Equal(t, ast.NoSide, id.Side())
	id.SetSide(ast.Left)
	assert.Equal(t, ast.Left, id.Side())
}

func TestCloneDeepCopiesBinaryExpr(t *testing.T) {
	pos := scanner.Position{Line: 1}
	left := ast.NewIntConstant(pos, ast.ConstI32, 1)
	right := ast.NewIntConstant(pos, ast.ConstI32, 2)
	original := ast.NewBinaryExpr(pos, ast.OpAdd, left, right)

	cloned := original.Clone().(*ast.BinaryExpr)
	clonedLeft := cloned.Left.(*ast.Constant)
	clonedLeft.IntVal = 99

	assert.Equal(t, int64(1), left.IntVal, "mutating the clone must not affect the original")
	assert.Equal(t, int64(99), clonedLeft.IntVal)
}

func TestCloneDeepCopiesCompoundStmtSlice(t *testing.T) {
	pos := scanner.Position{Line: 1}
	body := ast.NewCompoundStmt(pos)
	body.Statements = append(body.Statements, ast.NewIdle(pos))

	cloned := body.Clone().(*ast.CompoundStmt)
	cloned.Statements = append(cloned.Statements, ast.NewIdle(pos))

	assert.Len(t, body.Statements, 1, "appending to the clone's slice must not affect the original")
	assert.Len(t, cloned.Statements, 2)
}

func TestReturnCloneDuplicatesDeferSplice(t *testing.T) {
	pos := scanner.Position{Line: 1}
	deferBody := ast.NewCompoundStmt(pos)
	deferNode := ast.NewDefer(pos)
	deferNode.Body = deferBody

	ret := ast.NewReturn(pos)
	ret.DeferCopy = deferNode

	clonedRet := ret.Clone().(*ast.Return)
	require.NotNil(t, clonedRet.DeferCopy)
	assert.NotSame(t, ret.DeferCopy, clonedRet.DeferCopy, "each ret's spliced defer copy must be independently cloned")
}

func TestIfClonePreservesElseIfChain(t *testing.T) {
	pos := scanner.Position{Line: 1}
	inner := ast.NewIf(pos)
	inner.Then = ast.NewCompoundStmt(pos)

	outer := ast.NewIf(pos)
	outer.Then = ast.NewCompoundStmt(pos)
	outer.Else = inner

	cloned := outer.Clone().(*ast.If)
	require.IsType(t, &ast.If{}, cloned.Else)
	assert.NotSame(t, inner, cloned.Else)
}

func TestAccessorStringDistinguishesFieldAndIndex(t *testing.T) {
	pos := scanner.Position{Line: 1}
	receiver := ast.NewIdentifier(pos, "s")
	field := ast.NewStructAccessor(pos, receiver, "x")
	assert.Equal(t, "s.x", field.String())

	index := ast.NewArrayAccessor(pos, receiver, ast.NewIntConstant(pos, ast.ConstI32, 0))
	assert.Equal(t, "s[0]", index.String())
}

func TestConstantStringFormatsByClass(t *testing.T) {
	pos := scanner.Position{Line: 1}
	assert.Equal(t, "42", ast.NewIntConstant(pos, ast.ConstI32, 42).String())
	assert.Equal(t, "3.5", ast.NewFloatConstant(pos, ast.ConstF64, 3.5).String())
	assert.Equal(t, `"hi"`, ast.NewStrConstant(pos, "hi").String())
}

func TestIsCompoundAssign(t *testing.T) {
	assert.True(t, ast.IsCompoundAssign(ast.OpAdd))
	assert.False(t, ast.IsCompoundAssign(ast.OpAssign))
	assert.False(t, ast.IsCompoundAssign(ast.OpLogicalAnd))
}

package fold_test

import (
	"testing"
	"text/scanner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmihel/slfront/internal/ast"
	"github.com/dmihel/slfront/internal/fold"
	"github.com/dmihel/slfront/internal/types"
)

func TestFoldBinaryIntegerAddition(t *testing.T) {
	r := types.NewRegistry()
	i32 := r.Basic(types.I32, types.Immutable)
	pos := scanner.Position{Line: 1}
	left := ast.NewIntConstant(pos, ast.ConstI32, 2)
	right := ast.NewIntConstant(pos, ast.ConstI32, 3)

	out, err := fold.FoldBinary(ast.OpAdd, left, right, i32)
	require.NoError(t, err)
	assert.Equal(t, int64(5), out.IntVal)
}

func TestFoldBinaryDivByZeroIsError(t *testing.T) {
	r := types.NewRegistry()
	i32 := r.Basic(types.I32, types.Immutable)
	pos := scanner.Position{Line: 1}
	left := ast.NewIntConstant(pos, ast.ConstI32, 10)
	right := ast.NewIntConstant(pos, ast.ConstI32, 0)

	_, err := fold.FoldBinary(ast.OpDiv, left, right, i32)
	assert.ErrorIs(t, err, fold.ErrDivByZero)
}

func TestFoldBinaryWrapsOnOverflowAtNarrowWidth(t *testing.T) {
	r := types.NewRegistry()
	u8 := r.Basic(types.U8, types.Immutable)
	pos := scanner.Position{Line: 1}
	left := ast.NewIntConstant(pos, ast.ConstU8, 250)
	right := ast.NewIntConstant(pos, ast.ConstU8, 10)

	out, err := fold.FoldBinary(ast.OpAdd, left, right, u8)
	require.NoError(t, err)
	assert.Equal(t, int64(4), out.IntVal) // (250+10) mod 256 == 4
}

func TestFoldBinarySignedWrapsNegative(t *testing.T) {
	r := types.NewRegistry()
	i8 := r.Basic(types.I8, types.Immutable)
	pos := scanner.Position{Line: 1}
	left := ast.NewIntConstant(pos, ast.ConstI8, 120)
	right := ast.NewIntConstant(pos, ast.ConstI8, 10)

	out, err := fold.FoldBinary(ast.OpAdd, left, right, i8)
	require.NoError(t, err)
	assert.Equal(t, int64(-126), out.IntVal) // 130 wraps into signed 8-bit range
}

func TestFoldBinaryRelationalProducesBool(t *testing.T) {
	r := types.NewRegistry()
	boolT := r.Basic(types.BoolPrim, types.Immutable)
	pos := scanner.Position{Line: 1}
	left := ast.NewIntConstant(pos, ast.ConstI32, 3)
	right := ast.NewIntConstant(pos, ast.ConstI32, 5)

	out, err := fold.FoldBinary(ast.OpLt, left, right, boolT)
	require.NoError(t, err)
	assert.Equal(t, ast.ConstBool, out.Class)
	assert.Equal(t, int64(1), out.IntVal)
}

func TestFoldBinaryFloatDivision(t *testing.T) {
	r := types.NewRegistry()
	f64 := r.Basic(types.F64, types.Immutable)
	pos := scanner.Position{Line: 1}
	left := ast.NewFloatConstant(pos, ast.ConstF64, 7.0)
	right := ast.NewFloatConstant(pos, ast.ConstF64, 2.0)

	out, err := fold.FoldBinary(ast.OpDiv, left, right, f64)
	require.NoError(t, err)
	assert.InDelta(t, 3.5, out.FloatVal, 1e-9)
}

func TestFoldBinaryFloatDivByZeroIsError(t *testing.T) {
	r := types.NewRegistry()
	f64 := r.Basic(types.F64, types.Immutable)
	pos := scanner.Position{Line: 1}
	left := ast.NewFloatConstant(pos, ast.ConstF64, 1.0)
	right := ast.NewFloatConstant(pos, ast.ConstF64, 0.0)

	_, err := fold.FoldBinary(ast.OpDiv, left, right, f64)
	assert.ErrorIs(t, err, fold.ErrDivByZero)
}

func TestFoldUnaryNegationWraps(t *testing.T) {
	r := types.NewRegistry()
	i8 := r.Basic(types.I8, types.Immutable)
	pos := scanner.Position{Line: 1}
	operand := ast.NewIntConstant(pos, ast.ConstI8, -128)

	out, err := fold.FoldUnary(ast.OpNeg, operand, i8)
	require.NoError(t, err)
	assert.Equal(t, int64(-128), out.IntVal) // negating i8 min wraps back to itself
}

func TestFoldUnaryLogicalNot(t *testing.T) {
	r := types.NewRegistry()
	boolT := r.Basic(types.BoolPrim, types.Immutable)
	pos := scanner.Position{Line: 1}
	zero := ast.NewIntConstant(pos, ast.ConstBool, 0)

	out, err := fold.FoldUnary(ast.OpLogicalNot, zero, boolT)
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.IntVal)
}

func TestCoerceConstantNarrowsAndSignExtends(t *testing.T) {
	r := types.NewRegistry()
	i8 := r.Basic(types.I8, types.Immutable)
	pos := scanner.Position{Line: 1}
	c := ast.NewIntConstant(pos, ast.ConstI32, 130) // out of i8 range

	fold.CoerceConstant(c, i8)
	assert.Equal(t, ast.ConstI8, c.Class)
	assert.Equal(t, int64(-126), c.IntVal)
}

func TestCoerceConstantIntToFloatPromotes(t *testing.T) {
	r := types.NewRegistry()
	f32 := r.Basic(types.F32, types.Immutable)
	pos := scanner.Position{Line: 1}
	c := ast.NewIntConstant(pos, ast.ConstI32, 7)

	fold.CoerceConstant(c, f32)
	assert.Equal(t, ast.ConstF32, c.Class)
	assert.InDelta(t, 7.0, c.FloatVal, 1e-9)
}

func TestCoerceConstantToPointerTargetsI64(t *testing.T) {
	r := types.NewRegistry()
	ptr := r.PointerTo(r.Basic(types.I32, types.Immutable), types.Immutable)
	pos := scanner.Position{Line: 1}
	c := ast.NewIntConstant(pos, ast.ConstI32, 0)

	fold.CoerceConstant(c, ptr)
	assert.Equal(t, ast.ConstI64, c.Class)
}

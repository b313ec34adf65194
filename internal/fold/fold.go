// Package fold implements component F: the constant folder. Every
// expression rule in internal/parser that builds a binary or unary
// operator node calls here first when both operands are constant, so
// folding happens inline as a pre-pass rather than as a separate AST
// walk (spec.md §4.E).
//
// Grounded on the teacher's (grailbio-gql) gql/ast.go arithmetic/
// comparison builtins (the `+`/`-`/`*`/... binary ops over gql's own
// Value union), adapted from a dynamically-typed runtime value to a
// statically-typed AST constant node whose storage class has already
// been pinned by internal/types.DetermineCompatibilityAndCoerce.
package fold

import (
	"fmt"
	"math"

	"github.com/dmihel/slfront/internal/ast"
	"github.com/dmihel/slfront/internal/types"
)

// ErrDivByZero is returned by FoldBinary for constant `/` or `%` by zero
// (spec.md §4.E rule 3, §7 "division or modulo by zero in a constant").
var ErrDivByZero = fmt.Errorf("division or modulo by zero in a constant expression")

// classForPrimitive maps a registry primitive to the AST storage class
// constant folding and coerce_constant rewrite into (spec.md §3.2).
func classForPrimitive(p types.Primitive) ast.ConstClass {
	switch p {
	case types.I8:
		return ast.ConstI8
	case types.U8:
		return ast.ConstU8
	case types.I16:
		return ast.ConstI16
	case types.U16:
		return ast.ConstU16
	case types.I32:
		return ast.ConstI32
	case types.U32:
		return ast.ConstU32
	case types.I64:
		return ast.ConstI64
	case types.U64:
		return ast.ConstU64
	case types.F32:
		return ast.ConstF32
	case types.F64:
		return ast.ConstF64
	case types.CharPrim:
		return ast.ConstChar
	case types.BoolPrim:
		return ast.ConstBool
	default:
		return ast.ConstI32
	}
}

func widthBits(p types.Primitive) int {
	switch p {
	case types.I8, types.U8, types.CharPrim, types.BoolPrim:
		return 8
	case types.I16, types.U16:
		return 16
	case types.I32, types.U32:
		return 32
	default:
		return 64
	}
}

// wrap applies two's-complement wraparound at the result type's width
// (spec.md §4.E rule 2: "wrap-around semantics for signed integers").
func wrap(v int64, p types.Primitive) int64 {
	bits := widthBits(p)
	if bits >= 64 {
		return v
	}
	mask := int64(1)<<uint(bits) - 1
	v &= mask
	signBit := int64(1) << uint(bits-1)
	if v&signBit != 0 && !p.Unsigned() {
		v -= mask + 1
	}
	return v
}

// CoerceConstant rewrites node's storage class and value union to match
// target, which must be a (dealiased) basic type (spec.md §4.D
// `coerce_constant`: "sign-extend or zero-extend integers; truncate on
// narrowing casts; promote float<->double; treat pointer targets as i64").
func CoerceConstant(node *ast.Constant, target *types.Type) {
	target = types.Dealias(target)
	if target.Class() == types.Pointer || target.Class() == types.Reference {
		node.Class = ast.ConstI64
		node.IntVal = node.IntVal
		node.UintVal = uint64(node.IntVal)
		return
	}
	if target.Class() != types.Basic {
		return
	}
	p := target.Primitive()
	orig := node.Class
	node.Class = classForPrimitive(p)
	switch {
	case p.IsFloatingPoint():
		if orig == ast.ConstF32 || orig == ast.ConstF64 {
			// already floating; nothing to convert
		} else {
			node.FloatVal = float64(node.IntVal)
		}
		if p == types.F32 {
			node.FloatVal = float64(float32(node.FloatVal))
		}
	case p.IsInteger():
		var v int64
		if orig == ast.ConstF32 || orig == ast.ConstF64 {
			v = int64(node.FloatVal)
		} else {
			v = node.IntVal
		}
		v = wrap(v, p)
		node.IntVal = v
		node.UintVal = uint64(v)
		node.FloatVal = 0
	}
}

// FoldBinary evaluates a constant binary operator (spec.md §4.E). left and
// right must already share the widened type resultType chosen by
// types.DetermineCompatibilityAndCoerce; the folded node takes left's
// position and resultType.
func FoldBinary(op ast.Op, left, right *ast.Constant, resultType *types.Type) (*ast.Constant, error) {
	dt := types.Dealias(resultType)
	if dt.Class() == types.Basic && dt.Primitive().IsFloatingPoint() {
		lv, rv := left.FloatVal, right.FloatVal
		if left.Class != ast.ConstF32 && left.Class != ast.ConstF64 {
			lv = float64(left.IntVal)
		}
		if right.Class != ast.ConstF32 && right.Class != ast.ConstF64 {
			rv = float64(right.IntVal)
		}
		v, boolResult, isBool, err := foldFloat(op, lv, rv)
		if err != nil {
			return nil, err
		}
		out := *left
		if isBool {
			out.Class = ast.ConstBool
			out.IntVal = boolToInt(boolResult)
			out.UintVal = uint64(out.IntVal)
			out.FloatVal = 0
		} else {
			out.Class = classForPrimitive(dt.Primitive())
			if dt.Primitive() == types.F32 {
				v = float64(float32(v))
			}
			out.FloatVal = v
		}
		return &out, nil
	}

	lv, rv := left.IntVal, right.IntVal
	v, boolResult, isBool, err := foldInt(op, lv, rv)
	if err != nil {
		return nil, err
	}
	out := *left
	if isBool {
		out.Class = ast.ConstBool
		out.IntVal = boolToInt(boolResult)
		out.UintVal = uint64(out.IntVal)
	} else {
		p := types.BoolPrim
		if dt.Class() == types.Basic {
			p = dt.Primitive()
		}
		v = wrap(v, p)
		out.Class = classForPrimitive(p)
		out.IntVal = v
		out.UintVal = uint64(v)
	}
	return &out, nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func foldInt(op ast.Op, l, r int64) (value int64, boolVal bool, isBool bool, err error) {
	switch op {
	case ast.OpAdd:
		return l + r, false, false, nil
	case ast.OpSub:
		return l - r, false, false, nil
	case ast.OpMul:
		return l * r, false, false, nil
	case ast.OpDiv:
		if r == 0 {
			return 0, false, false, ErrDivByZero
		}
		return l / r, false, false, nil
	case ast.OpMod:
		if r == 0 {
			return 0, false, false, ErrDivByZero
		}
		return l % r, false, false, nil
	case ast.OpBitAnd:
		return l & r, false, false, nil
	case ast.OpBitOr:
		return l | r, false, false, nil
	case ast.OpBitXor:
		return l ^ r, false, false, nil
	case ast.OpShl:
		return l << uint(r), false, false, nil
	case ast.OpShr:
		return l >> uint(r), false, false, nil
	case ast.OpEq:
		return 0, l == r, true, nil
	case ast.OpNe:
		return 0, l != r, true, nil
	case ast.OpLt:
		return 0, l < r, true, nil
	case ast.OpLe:
		return 0, l <= r, true, nil
	case ast.OpGt:
		return 0, l > r, true, nil
	case ast.OpGe:
		return 0, l >= r, true, nil
	case ast.OpLogicalAnd:
		return 0, l != 0 && r != 0, true, nil
	case ast.OpLogicalOr:
		return 0, l != 0 || r != 0, true, nil
	default:
		return 0, false, false, fmt.Errorf("fold: unsupported integer operator %v", op)
	}
}

// foldFloat implements IEEE-754 semantics for the subset of binary
// operators valid on floating types (spec.md §4.E: "IEEE-754 for floats").
func foldFloat(op ast.Op, l, r float64) (value float64, boolVal bool, isBool bool, err error) {
	switch op {
	case ast.OpAdd:
		return l + r, false, false, nil
	case ast.OpSub:
		return l - r, false, false, nil
	case ast.OpMul:
		return l * r, false, false, nil
	case ast.OpDiv:
		if r == 0 {
			return 0, false, false, ErrDivByZero
		}
		return l / r, false, false, nil
	case ast.OpMod:
		if r == 0 {
			return 0, false, false, ErrDivByZero
		}
		return math.Mod(l, r), false, false, nil
	case ast.OpEq:
		return 0, l == r, true, nil
	case ast.OpNe:
		return 0, l != r, true, nil
	case ast.OpLt:
		return 0, l < r, true, nil
	case ast.OpLe:
		return 0, l <= r, true, nil
	case ast.OpGt:
		return 0, l > r, true, nil
	case ast.OpGe:
		return 0, l >= r, true, nil
	default:
		return 0, false, false, fmt.Errorf("fold: unsupported float operator %v", op)
	}
}

// FoldUnary evaluates a constant unary operator (spec.md §4.E): `neg`,
// `bitwise not`, `logical not`, prefix `++`/`--`.
func FoldUnary(op ast.Op, operand *ast.Constant, resultType *types.Type) (*ast.Constant, error) {
	dt := types.Dealias(resultType)
	out := *operand
	isFloat := dt.Class() == types.Basic && dt.Primitive().IsFloatingPoint()
	switch op {
	case ast.OpNeg:
		if isFloat {
			out.FloatVal = -operand.FloatVal
		} else {
			out.IntVal = wrap(-operand.IntVal, dt.Primitive())
			out.UintVal = uint64(out.IntVal)
		}
		return &out, nil
	case ast.OpBitNot:
		out.IntVal = wrap(^operand.IntVal, dt.Primitive())
		out.UintVal = uint64(out.IntVal)
		return &out, nil
	case ast.OpLogicalNot:
		out.Class = ast.ConstBool
		if operand.IntVal == 0 {
			out.IntVal = 1
		} else {
			out.IntVal = 0
		}
		out.UintVal = uint64(out.IntVal)
		return &out, nil
	case ast.OpPreInc:
		out.IntVal = wrap(operand.IntVal+1, dt.Primitive())
		out.UintVal = uint64(out.IntVal)
		return &out, nil
	case ast.OpPreDec:
		out.IntVal = wrap(operand.IntVal-1, dt.Primitive())
		out.UintVal = uint64(out.IntVal)
		return &out, nil
	default:
		return nil, fmt.Errorf("fold: unsupported unary operator %v", op)
	}
}

package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmihel/slfront/internal/types"
)

func TestBasicIsInternedPerMutability(t *testing.T) {
	r := types.NewRegistry()
	a := r.Basic(types.I32, types.Immutable)
	b := r.Basic(types.I32, types.Immutable)
	assert.True(t, types.TypesEqual(a, b))
	c := r.Basic(types.I32, types.Mutable)
	assert.False(t, types.TypesEqual(a, c))
}

func TestPointerToIsStructurallyInterned(t *testing.T) {
	r := types.NewRegistry()
	elem := r.Basic(types.U8, types.Immutable)
	p1 := r.PointerTo(elem, types.Immutable)
	p2 := r.PointerTo(elem, types.Immutable)
	assert.True(t, types.TypesEqual(p1, p2))
	p3 := r.PointerTo(elem, types.Mutable)
	assert.False(t, types.TypesEqual(p1, p3))
}

func TestArrayOfZeroIsIncomplete(t *testing.T) {
	r := types.NewRegistry()
	elem := r.Basic(types.I32, types.Immutable)
	incomplete := r.ArrayOf(elem, 0, types.Immutable)
	assert.True(t, incomplete.IsIncompleteArray())
	assert.False(t, incomplete.Complete())

	fixed := r.FixArrayBound(incomplete, 4)
	assert.False(t, fixed.IsIncompleteArray())
	assert.Equal(t, 4, fixed.ArrayLen())
	assert.Equal(t, elem.Size()*4, fixed.Size())
}

func TestStructBuilderComputesOffsetsAndAlignment(t *testing.T) {
	r := types.NewRegistry()
	b := r.NewStructBuilder("Point")
	b.AddField("x", r.Basic(types.I8, types.Immutable))
	b.AddField("y", r.Basic(types.I32, types.Immutable))
	mut, immut := b.Complete()

	fields := mut.Fields()
	require.Len(t, fields, 2)
	assert.Equal(t, 0, fields[0].Offset)
	assert.Equal(t, 4, fields[1].Offset) // aligned up to i32's 4-byte alignment
	assert.Equal(t, 8, mut.Size())       // padded up to the widest field's alignment
	assert.True(t, mut.IsMutable())
	assert.False(t, immut.IsMutable())
}

func TestUnionBuilderSizesToLargestMember(t *testing.T) {
	r := types.NewRegistry()
	b := r.NewUnionBuilder("V")
	b.AddMember("asByte", r.Basic(types.U8, types.Immutable))
	b.AddMember("asInt", r.Basic(types.I32, types.Immutable))
	mut, _ := b.Complete()
	assert.Equal(t, 4, mut.Size())
}

func TestNewEnumPicksSmallestRepr(t *testing.T) {
	r := types.NewRegistry()
	smallMut, _ := r.NewEnum("Small", []types.EnumMember{{Name: "A", Value: 0}, {Name: "B", Value: 0xFF}})
	assert.Equal(t, types.U8, smallMut.EnumRepr())

	bigMut, _ := r.NewEnum("Big", []types.EnumMember{{Name: "A", Value: 0x10000}})
	assert.Equal(t, types.U32, bigMut.EnumRepr())
}

func TestAliasDealiasesToConcreteClass(t *testing.T) {
	r := types.NewRegistry()
	target := r.Basic(types.I32, types.Immutable)
	alias := r.Alias("MyInt", target)
	assert.Equal(t, types.Alias, alias.Class())
	assert.Same(t, target, types.Dealias(alias))
}

func TestIsExhaustiveSwitchEligible(t *testing.T) {
	r := types.NewRegistry()
	assert.True(t, types.IsExhaustiveSwitchEligible(r.Basic(types.BoolPrim, types.Immutable)))
	assert.True(t, types.IsExhaustiveSwitchEligible(r.Basic(types.U8, types.Immutable)))
	assert.False(t, types.IsExhaustiveSwitchEligible(r.Basic(types.I32, types.Immutable)))
}

func TestIsTypeValidForConditionalRejectsPointers(t *testing.T) {
	r := types.NewRegistry()
	assert.True(t, types.IsTypeValidForConditional(r.Basic(types.BoolPrim, types.Immutable)))
	assert.True(t, types.IsTypeValidForConditional(r.Basic(types.I32, types.Immutable)))
	ptr := r.PointerTo(r.Basic(types.I32, types.Immutable), types.Immutable)
	assert.False(t, types.IsTypeValidForConditional(ptr))
}

func TestTypesAssignableIntegerWidening(t *testing.T) {
	r := types.NewRegistry()
	i32 := r.Basic(types.I32, types.Immutable)
	i8 := r.Basic(types.I8, types.Immutable)
	result, ok := types.TypesAssignable(i32, i8)
	require.True(t, ok)
	assert.Same(t, i32, result)
}

func TestTypesAssignablePointerSameElemSucceeds(t *testing.T) {
	r := types.NewRegistry()
	elem := r.Basic(types.I32, types.Mutable)
	target := r.PointerTo(elem, types.Mutable)
	source := r.PointerTo(elem, types.Mutable)
	_, ok := types.TypesAssignable(target, source)
	assert.True(t, ok, "identical pointer types are mutually assignable")
}

func TestTypesAssignablePointerMismatchedElemFails(t *testing.T) {
	r := types.NewRegistry()
	i32Elem := r.Basic(types.I32, types.Immutable)
	u8Elem := r.Basic(types.U8, types.Immutable)
	target := r.PointerTo(i32Elem, types.Immutable)
	source := r.PointerTo(u8Elem, types.Immutable)
	_, ok := types.TypesAssignable(target, source)
	assert.False(t, ok, "pointers to unrelated element types are not assignable")
}

func TestTypesAssignableVoidPointerAcceptsAnyPointer(t *testing.T) {
	r := types.NewRegistry()
	i32Ptr := r.PointerTo(r.Basic(types.I32, types.Immutable), types.Immutable)
	_, ok := types.TypesAssignable(r.ImmutVoidPtr, i32Ptr)
	assert.True(t, ok, "void* accepts a pointer to any element type")
}

func TestTypesAssignableVoidPointerSourceIntoTypedTarget(t *testing.T) {
	r := types.NewRegistry()
	i32Ptr := r.PointerTo(r.Basic(types.I32, types.Immutable), types.Immutable)
	result, ok := types.TypesAssignable(i32Ptr, r.ImmutVoidPtr)
	assert.True(t, ok, "void* must be assignable/castable into a typed pointer target")
	assert.Same(t, i32Ptr, result)
}

func TestDetermineCompatibilityAndCoerceWidensToWiderOperand(t *testing.T) {
	r := types.NewRegistry()
	i8 := r.Basic(types.I8, types.Immutable)
	i32 := r.Basic(types.I32, types.Immutable)
	result, lOut, rOut, ok := r.DetermineCompatibilityAndCoerce(i8, i32, types.OpArithmetic)
	require.True(t, ok)
	assert.Same(t, i32, result)
	assert.Same(t, i32, lOut)
	assert.Same(t, i32, rOut)
}

func TestDetermineCompatibilityAndCoerceRelationalYieldsBool(t *testing.T) {
	r := types.NewRegistry()
	i32 := r.Basic(types.I32, types.Immutable)
	result, _, _, ok := r.DetermineCompatibilityAndCoerce(i32, i32, types.OpRelational)
	require.True(t, ok)
	assert.Equal(t, types.BoolPrim, result.Primitive())
}

package symtab_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmihel/slfront/internal/ids"
	"github.com/dmihel/slfront/internal/symtab"
	"github.com/dmihel/slfront/internal/types"
)

func TestDeclareVariableRejectsDuplicateInSameScope(t *testing.T) {
	tab := symtab.New()
	_, ok := tab.DeclareVariable("x", &symtab.VariableRecord{})
	require.True(t, ok)
	_, ok = tab.DeclareVariable("x", &symtab.VariableRecord{})
	assert.False(t, ok)
}

func TestDeclareVariableAllowsShadowingInNestedScope(t *testing.T) {
	tab := symtab.New()
	outer, ok := tab.DeclareVariable("x", &symtab.VariableRecord{})
	require.True(t, ok)

	tab.PushScope()
	inner, ok := tab.DeclareVariable("x", &symtab.VariableRecord{})
	require.True(t, ok)
	assert.NotEqual(t, outer, inner)

	found, ok := tab.LookupAllScopes("x")
	require.True(t, ok)
	assert.Equal(t, inner, found)

	tab.PopScope()
	found, ok = tab.LookupAllScopes("x")
	require.True(t, ok)
	assert.Equal(t, outer, found)
}

func TestLookupAnyLowerScopeExcludesInnermost(t *testing.T) {
	tab := symtab.New()
	tab.PushScope()
	_, ok := tab.DeclareVariable("label1", &symtab.VariableRecord{})
	require.True(t, ok)

	tab.PushScope()
	_, ok = tab.LookupAnyLowerScope("label1")
	assert.True(t, ok, "label1 lives in an enclosing scope, not the innermost one")

	_, ok = tab.DeclareVariable("label1", &symtab.VariableRecord{})
	require.True(t, ok, "declaring in the innermost scope doesn't collide with the outer one")
	_, ok = tab.LookupAnyLowerScope("label1")
	assert.True(t, ok, "the outer label1 is still visible from one level below")
}

func TestAllVariablesSurvivesScopePop(t *testing.T) {
	tab := symtab.New()
	tab.PushScope()
	_, ok := tab.DeclareVariable("tmp", &symtab.VariableRecord{})
	require.True(t, ok)
	tab.PopScope()

	all := tab.AllVariables()
	require.Len(t, all, 1)
	assert.Equal(t, "tmp", all[0].Name)
}

func TestVariableDereferencesByID(t *testing.T) {
	tab := symtab.New()
	id, ok := tab.DeclareVariable("n", &symtab.VariableRecord{Membership: symtab.GlobalVariable})
	require.True(t, ok)
	rec := tab.Variable(id)
	assert.Equal(t, "n", rec.Name)
	assert.Equal(t, symtab.GlobalVariable, rec.Membership)
}

func TestVariableDereferencePanicsOnInvalidID(t *testing.T) {
	tab := symtab.New()
	assert.Panics(t, func() { tab.Variable(ids.InvalidVariable) })
}

func TestDeclareTypeRejectsDuplicateInSameScope(t *testing.T) {
	tab := symtab.New()
	r := types.NewRegistry()
	i32 := r.Basic(types.I32, types.Immutable)
	assert.True(t, tab.DeclareType("MyInt", i32))
	assert.False(t, tab.DeclareType("MyInt", i32))
}

func TestDeclareGlobalTypeIsVisibleThroughNestedScopes(t *testing.T) {
	tab := symtab.New()
	r := types.NewRegistry()
	i32 := r.Basic(types.I32, types.Immutable)
	tab.DeclareGlobalType("int", i32)

	tab.PushScope()
	tab.PushScope()
	found, ok := tab.LookupType("int")
	require.True(t, ok)
	assert.Same(t, i32, found)
}

func TestNameInUseSpansAllFourNamespaces(t *testing.T) {
	tab := symtab.New()
	r := types.NewRegistry()

	assert.False(t, tab.NameInUse("widget"))

	tab.DeclareGlobalType("widget", r.Basic(types.I32, types.Immutable))
	assert.True(t, tab.NameInUse("widget"))

	assert.False(t, tab.NameInUse("emit"))
	_, ok := tab.DeclareFunction("emit")
	require.True(t, ok)
	assert.True(t, tab.NameInUse("emit"))

	assert.False(t, tab.NameInUse("MAXLEN"))
	_, ok = tab.DeclareConstant("MAXLEN", nil, 1)
	require.True(t, ok)
	assert.True(t, tab.NameInUse("MAXLEN"))

	assert.False(t, tab.NameInUse("count"))
	_, ok = tab.DeclareVariable("count", &symtab.VariableRecord{})
	require.True(t, ok)
	assert.True(t, tab.NameInUse("count"))
}

func TestDeclareFunctionReturnsExistingRecordOnRedeclaration(t *testing.T) {
	tab := symtab.New()
	first, ok := tab.DeclareFunction("run")
	require.False(t, ok, "the first DeclareFunction call for a name creates the record")
	first.Line = 7

	second, ok := tab.DeclareFunction("run")
	assert.True(t, ok, "a second DeclareFunction call for the same name returns the existing record")
	assert.Same(t, first, second)
	assert.Equal(t, 7, second.Line)
}

func TestFunctionIDsAreDistinctAndDereferenceByID(t *testing.T) {
	tab := symtab.New()
	first, ok := tab.DeclareFunction("run")
	require.False(t, ok)
	second, ok := tab.DeclareFunction("stop")
	require.False(t, ok)
	assert.NotEqual(t, first.ID, second.ID, "distinct functions must get distinct FunctionIDs")

	assert.Same(t, first, tab.Function(first.ID))
	assert.Same(t, second, tab.Function(second.ID))
}

func TestFunctionDereferencePanicsOnInvalidID(t *testing.T) {
	tab := symtab.New()
	assert.Panics(t, func() { tab.Function(ids.InvalidFunction) })
}

func TestDepthTracksPushAndPop(t *testing.T) {
	tab := symtab.New()
	base := tab.Depth()
	tab.PushScope()
	assert.Equal(t, base+1, tab.Depth())
	tab.PopScope()
	assert.Equal(t, base, tab.Depth())
}

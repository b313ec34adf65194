package symbol_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmihel/slfront/internal/hash"
	"github.com/dmihel/slfront/internal/symbol"
)

func TestInternReturnsSameIDForSameName(t *testing.T) {
	tb := symbol.NewTable()
	a := tb.Intern("main")
	b := tb.Intern("main")
	assert.Equal(t, a, b)
}

func TestInternReturnsDistinctIDsForDistinctNames(t *testing.T) {
	tb := symbol.NewTable()
	a := tb.Intern("foo")
	b := tb.Intern("bar")
	assert.NotEqual(t, a, b)
}

func TestStrRoundTrips(t *testing.T) {
	tb := symbol.NewTable()
	id := tb.Intern("counter")
	assert.Equal(t, "counter", tb.Str(id))
}

func TestInternPanicsOnEmptyName(t *testing.T) {
	tb := symbol.NewTable()
	assert.Panics(t, func() { tb.Intern("") })
}

func TestStrPanicsOnOutOfRangeID(t *testing.T) {
	tb := symbol.NewTable()
	assert.Panics(t, func() { tb.Str(symbol.ID(999)) })
}

func TestHashMatchesNameHash(t *testing.T) {
	tb := symbol.NewTable()
	id := tb.Intern("x")
	require.Equal(t, "x", tb.Str(id))
	assert.NotEqual(t, uint64(0), tb.Hash(id).Lo|tb.Hash(id).Hi)
	assert.Equal(t, hash.String("x"), tb.Hash(id))
}

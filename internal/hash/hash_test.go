package hash_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmihel/slfront/internal/hash"
)

func TestStringIsDeterministic(t *testing.T) {
	a := hash.String("Point")
	b := hash.String("Point")
	assert.Equal(t, a, b)

	c := hash.String("point")
	assert.NotEqual(t, a, c)
}

func TestMergeIsOrderSensitive(t *testing.T) {
	a := hash.String("x").Merge(hash.String("y"))
	b := hash.String("y").Merge(hash.String("x"))
	assert.NotEqual(t, a, b, "field order must affect a struct's structural hash")
}

func TestAddIsOrderInsensitive(t *testing.T) {
	a := hash.String("asByte").Add(hash.String("asInt"))
	b := hash.String("asInt").Add(hash.String("asByte"))
	assert.Equal(t, a, b, "a union's member set identity must not depend on declaration order")
}

func TestIntDistinguishesValues(t *testing.T) {
	assert.NotEqual(t, hash.Int(0), hash.Int(1))
	assert.Equal(t, hash.Int(42), hash.Int(42))
}

func TestEmptyIsAddIdentity(t *testing.T) {
	h := hash.String("foo")
	assert.Equal(t, h, h.Add(hash.Empty))
}

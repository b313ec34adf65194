package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmihel/slfront/internal/lexer"
)

func TestGroupingStackMatchesOpenerOnPop(t *testing.T) {
	var g groupingStack
	g.push(lexer.LBrace)
	assert.True(t, g.pop(lexer.LBrace))
	assert.True(t, g.empty())
}

func TestGroupingStackRejectsMismatchedCloser(t *testing.T) {
	var g groupingStack
	g.push(lexer.LParen)
	assert.False(t, g.pop(lexer.LBrace))
}

func TestGroupingStackPopOnEmptyFails(t *testing.T) {
	var g groupingStack
	assert.False(t, g.pop(lexer.LParen))
}

func TestNestingStackContainsSearchesWholeStack(t *testing.T) {
	var n nestingStack
	n.push(nestFunction)
	n.push(nestIf)
	n.push(nestLoop)
	assert.True(t, n.contains(nestLoop))
	assert.True(t, n.contains(nestFunction))
	assert.False(t, n.contains(nestCase))
}

func TestNestingStackDirectlyUnderFunction(t *testing.T) {
	var n nestingStack
	n.push(nestFunction)
	assert.True(t, n.directlyUnderFunction())
	n.push(nestDefer)
	assert.False(t, n.directlyUnderFunction())
	n.pop()
	assert.True(t, n.directlyUnderFunction())
}

func TestNestingStackPeekOnEmpty(t *testing.T) {
	var n nestingStack
	_, ok := n.peek()
	assert.False(t, ok)
}

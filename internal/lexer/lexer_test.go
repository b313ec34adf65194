package lexer_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmihel/slfront/internal/lexer"
)

func scanAll(src string) []lexer.Item {
	l := lexer.New("test", strings.NewReader(src))
	var items []lexer.Item
	for {
		it := l.Next()
		items = append(items, it)
		if it.Kind == lexer.EOF {
			return items
		}
	}
}

func TestLexKeywordsAndIdents(t *testing.T) {
	items := scanAll("declare mut x foo_bar")
	require.Len(t, items, 5)
	assert.Equal(t, lexer.KwDeclare, items[0].Kind)
	assert.Equal(t, lexer.KwMut, items[1].Kind)
	assert.Equal(t, lexer.Ident, items[2].Kind)
	assert.Equal(t, "x", items[2].Lexeme)
	assert.Equal(t, lexer.Ident, items[3].Kind)
	assert.Equal(t, "foo_bar", items[3].Lexeme)
}

func TestLexLongestMatchOperators(t *testing.T) {
	items := scanAll("<<= << < <= =")
	kinds := make([]lexer.Kind, 0, len(items)-1)
	for _, it := range items[:len(items)-1] {
		kinds = append(kinds, it.Kind)
	}
	assert.Equal(t, []lexer.Kind{lexer.ShlAssign, lexer.Shl, lexer.Lt, lexer.Le, lexer.Assign}, kinds)
}

func TestLexIntegerSuffixes(t *testing.T) {
	items := scanAll("42 42u 42l 42ul 7s 3b 0xFF")
	require.Len(t, items, 8)
	assert.Equal(t, lexer.IntConst, items[0].Kind)
	assert.EqualValues(t, 42, items[0].IntVal)
	assert.Equal(t, lexer.IntConstForceU, items[1].Kind)
	assert.Equal(t, lexer.LongConst, items[2].Kind)
	assert.Equal(t, lexer.LongConstForceU, items[3].Kind)
	assert.Equal(t, lexer.ShortConst, items[4].Kind)
	assert.Equal(t, lexer.ByteConst, items[5].Kind)
	assert.Equal(t, lexer.HexConst, items[6].Kind)
	assert.EqualValues(t, 255, items[6].IntVal)
}

func TestLexFloatSuffix(t *testing.T) {
	items := scanAll("3.5 3.5f")
	require.Len(t, items, 3)
	assert.Equal(t, lexer.DoubleConst, items[0].Kind)
	assert.Equal(t, lexer.FloatConst, items[1].Kind)
	assert.InDelta(t, 3.5, items[1].FloatVal, 1e-9)
}

func TestLexStringAndCharLiterals(t *testing.T) {
	items := scanAll(`"hello\n" 'a'`)
	require.Len(t, items, 3)
	assert.Equal(t, lexer.StrConst, items[0].Kind)
	assert.Equal(t, "hello\n", items[0].StrVal)
	assert.Equal(t, lexer.CharConst, items[1].Kind)
	assert.Equal(t, "a", items[1].StrVal)
}

func TestLexDirectives(t *testing.T) {
	items := scanAll("#dependencies #replace #mylabel")
	require.Len(t, items, 4)
	assert.Equal(t, lexer.DirDependencies, items[0].Kind)
	assert.Equal(t, lexer.DirReplace, items[1].Kind)
	assert.Equal(t, lexer.Hash, items[2].Kind)
	assert.Equal(t, "mylabel", items[2].Lexeme)
}

func TestLexUnknownOperatorIsErrorTok(t *testing.T) {
	items := scanAll("$")
	require.Len(t, items, 2)
	assert.Equal(t, lexer.ErrorTok, items[0].Kind)
}

func TestNextAssemblyLinePreservesBytes(t *testing.T) {
	l := lexer.New("test", strings.NewReader("mov rax, rbx ; comment-ish text\nnext"))
	line := l.NextAssemblyLine()
	assert.Equal(t, "mov rax, rbx ; comment-ish text", line)
}

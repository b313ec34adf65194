package token_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmihel/slfront/internal/lexer"
	"github.com/dmihel/slfront/internal/token"
)

func TestPeekDoesNotConsume(t *testing.T) {
	s := token.New("test", "declare x")
	first := s.Peek()
	second := s.Peek()
	assert.Equal(t, first.Kind, second.Kind)
	assert.Equal(t, lexer.KwDeclare, s.Next().Kind)
	assert.Equal(t, lexer.Ident, s.Next().Kind)
	assert.Equal(t, token.Done, s.Next().Kind)
}

func TestPushbackIsLIFO(t *testing.T) {
	s := token.New("test", "a b c")
	first := s.Next()
	second := s.Next()
	third := s.Next()
	s.Pushback(third)
	s.Pushback(second)
	s.Pushback(first)
	require.Equal(t, "a", s.Next().Lexeme)
	require.Equal(t, "b", s.Next().Lexeme)
	require.Equal(t, "c", s.Next().Lexeme)
}

func TestReconsumeFromRewindsToByteOffset(t *testing.T) {
	s := token.New("test", "one two three")
	first := s.Next()
	_ = s.Next()
	s.ReconsumeFrom(first.Pos)
	assert.Equal(t, "one", s.Next().Lexeme)
	assert.Equal(t, "two", s.Next().Lexeme)
}

func TestNextAssemblyLineReadsRawText(t *testing.T) {
	s := token.New("test", "mov rax, 1\nret")
	line := s.NextAssemblyLine()
	assert.Equal(t, "mov rax, 1", line)
}

func TestFileName(t *testing.T) {
	s := token.New("myfile.sl", "x")
	assert.Equal(t, "myfile.sl", s.FileName())
}

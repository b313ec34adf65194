// Package token implements component A: the token source adapter. It
// wraps internal/lexer with a LIFO pushback stack, a peek
// operation, the assembly-mode line reader, and a byte-position rewind
// used by the historical union-type double-parse (spec.md §4.A) — though
// this port takes spec.md §9's suggested cleaner route for that one case
// (parse the member type once into a descriptor, materialize it twice;
// see internal/parser), so ReconsumeFrom exists for interface fidelity
// with spec.md §6's external-interface list but has no caller.
//
// Grounded on the teacher's (grailbio-gql) lexer usage pattern in
// gql/lex.go (a struct wrapping text/scanner.Scanner, returning one Item
// per call) generalized with pushback. spec.md §9 calls a one-slot buffer
// sufficient; Pushback here keeps a LIFO stack of any depth, which the
// speculative cast parse's multi-token rollback relies on.
package token

import (
	"strings"
	"text/scanner"

	"github.com/dmihel/slfront/internal/lexer"
)

// Kind re-exports lexer.Kind so callers only need to import this package.
type Kind = lexer.Kind

// Item re-exports lexer.Item.
type Item = lexer.Item

// Done is the sentinel end-of-stream token (spec.md §4.A).
const Done = lexer.EOF

// Source adapts a Lexer with pushback, peek, and assembly-line reading.
type Source struct {
	lex        *lexer.Lexer
	source     string
	fileName   string
	pushed     []Item
	haveBuffer bool
	buffered   Item
}

// New creates a Source over src, reporting positions under fileName.
func New(fileName, src string) *Source {
	return &Source{
		lex:      lexer.New(fileName, strings.NewReader(src)),
		source:   src,
		fileName: fileName,
	}
}

// Next returns the next token, preferring a pushed-back item if one is
// buffered (spec.md §4.A `next(&mut line) -> LexItem`).
func (s *Source) Next() Item {
	if len(s.pushed) > 0 {
		it := s.pushed[len(s.pushed)-1]
		s.pushed = s.pushed[:len(s.pushed)-1]
		return it
	}
	if s.haveBuffer {
		s.haveBuffer = false
		return s.buffered
	}
	return s.lex.Next()
}

// Pushback returns item to the front of the stream; a depth-1 buffer is
// sufficient per spec.md §4.A, but a LIFO stack costs nothing extra and
// serves the assignment pre-scan's "push back in LIFO order" need
// (spec.md §9).
func (s *Source) Pushback(item Item) {
	s.pushed = append(s.pushed, item)
}

// Peek returns the next token without consuming it.
func (s *Source) Peek() Item {
	it := s.Next()
	s.Pushback(it)
	return it
}

// NextAssemblyLine reads raw source text to end-of-line, preserving bytes
// (spec.md §4.A), used inside `#asm { ... }` blocks.
func (s *Source) NextAssemblyLine() string {
	return s.lex.NextAssemblyLine()
}

// CurrentFilePosition returns the lexer's current byte-position-bearing
// scanner.Position (spec.md §6 `GET_CURRENT_FILE_POSITION`).
func (s *Source) CurrentFilePosition() scanner.Position {
	return s.lex.Pos()
}

// ReconsumeFrom rewinds the token stream to byte offset pos.Offset by
// constructing a fresh Lexer over the remaining source text (spec.md §6
// `reconsume_tokens(pos)`). See the package doc: this port avoids calling
// it for the union double-mutability parse, preferring the "materialize
// the same descriptor twice" strategy spec.md §9 recommends instead.
func (s *Source) ReconsumeFrom(pos scanner.Position) {
	offset := pos.Offset
	if offset < 0 || offset > len(s.source) {
		offset = 0
	}
	s.pushed = nil
	s.haveBuffer = false
	s.lex = lexer.New(s.fileName, strings.NewReader(s.source[offset:]))
}

// FileName returns the source file name used in diagnostics.
func (s *Source) FileName() string { return s.fileName }

package parser

import (
	"github.com/dmihel/slfront/internal/lexer"
	"github.com/dmihel/slfront/internal/token"
	"github.com/dmihel/slfront/internal/types"
)

// isBaseTypeToken reports whether k can start a type specifier's base name
// (a primitive keyword or a user-type identifier).
func isBaseTypeToken(k token.Kind) bool {
	switch k {
	case lexer.KwVoid, lexer.KwU8, lexer.KwI8, lexer.KwU16, lexer.KwI16,
		lexer.KwU32, lexer.KwI32, lexer.KwU64, lexer.KwI64, lexer.KwF32, lexer.KwF64,
		lexer.KwChar, lexer.KwBool, lexer.Ident:
		return true
	}
	return false
}

// parseTypeSpecifier consumes `[mut] name ('*' | '&' | '[' n? ']')*` and
// resolves it against the type table, returning the consumed tokens so a
// speculative caller (the cast-vs-comparison disambiguation in the unary/
// cast rule) can roll back on failure by pushing them back in reverse.
//
// A leading `mut` binds to the wrapper produced by the first
// pointer/reference/array suffix (the one directly around the base type;
// later wrappers stay immutable); with no suffix it binds to the base type
// itself (both forms are pre-registered under "name" and "mut name" for
// every primitive, and the declaration parser does the same for every
// struct/union/enum/alias it defines).
func (p *Parser) parseTypeSpecifier() (*types.Type, []token.Item, bool) {
	var consumed []token.Item
	take := func() token.Item {
		it := p.Source.Next()
		consumed = append(consumed, it)
		return it
	}

	leadingMut := types.Immutable
	tok := take()
	if tok.Kind == lexer.KwMut {
		leadingMut = types.Mutable
		tok = take()
	}
	if !isBaseTypeToken(tok.Kind) {
		return nil, consumed, false
	}
	name := tok.Lexeme
	base, ok := p.Syms.LookupType(name)
	if !ok {
		return nil, consumed, false
	}

	mutPending := leadingMut
	for {
		la := p.Source.Peek()
		switch la.Kind {
		case lexer.Star:
			take()
			base = p.Types.PointerTo(base, mutPending)
			mutPending = types.Immutable
			continue
		case lexer.Amp:
			take()
			base = p.Types.ReferenceTo(base, mutPending)
			mutPending = types.Immutable
			continue
		case lexer.LBracket:
			take()
			n := 0
			if p.Source.Peek().Kind != lexer.RBracket {
				it := take()
				n = int(it.IntVal)
			}
			rb := take()
			if rb.Kind != lexer.RBracket {
				return nil, consumed, false
			}
			base = p.Types.ArrayOf(base, n, mutPending)
			mutPending = types.Immutable
			continue
		}
		break
	}

	if mutPending == types.Mutable {
		if mutBase, ok := p.Syms.LookupType("mut " + name); ok {
			base = mutBase
		}
	}
	return base, consumed, true
}

// rollback pushes consumed tokens back onto the source in reverse order so
// the next Next() reproduces the original sequence (spec.md §9's "consume
// into a local queue... push back in LIFO order", reused here for the
// speculative cast parse rather than the assignment pre-scan).
func (p *Parser) rollback(consumed []token.Item) {
	for i := len(consumed) - 1; i >= 0; i-- {
		p.Source.Pushback(consumed[i])
	}
}

// Package symbol interns identifier names (function, variable, type,
// #replace-constant, and label names) into small integer IDs so the four
// symbol tables and the AST can use cheap, comparable keys and stable arena
// indices instead of repeatedly comparing strings.
//
// This is a single-process adaptation of the teacher's (grailbio-gql)
// symbol package: that package additionally supported lock-free concurrent
// reads and GOB marshaling so symbol IDs stayed consistent across
// distributed worker machines. This compiler is single-threaded per
// spec.md §5, so the concurrent-read and wire-marshaling machinery has no
// home here; only the interning table itself is kept.
package symbol

import "github.com/dmihel/slfront/internal/hash"

// ID is an interned symbol name.
type ID int32

// Invalid is the zero value, used as a sentinel for "no name".
const Invalid ID = 0

type table struct {
	names []string
	ids   map[string]ID
}

// Table is an interning table. The parser owns exactly one, via
// ParserContext; there is no hidden global singleton (spec.md §9 Design
// Notes calls out replacing the teacher's process-wide statics this way).
type Table struct {
	t table
}

// NewTable creates an empty interning table.
func NewTable() *Table {
	tb := &Table{t: table{
		names: make([]string, 1, 256),
		ids:   make(map[string]ID, 256),
	}}
	tb.t.names[0] = "(invalid)"
	return tb
}

// Intern finds or creates the ID for name.
func (tb *Table) Intern(name string) ID {
	if name == "" {
		panic("symbol: empty name")
	}
	if id, ok := tb.t.ids[name]; ok {
		return id
	}
	id := ID(len(tb.t.names))
	tb.t.names = append(tb.t.names, name)
	tb.t.ids[name] = id
	return id
}

// Str returns the interned name for id.
func (tb *Table) Str(id ID) string {
	if int(id) >= len(tb.t.names) {
		panic("symbol: id out of range")
	}
	return tb.t.names[id]
}

// Hash hashes the name behind id.
func (tb *Table) Hash(id ID) hash.Hash {
	return hash.String(tb.Str(id))
}

// Package symtab implements component E: the four concurrently-live
// symbol tables (functions, variables, types, `#replace` constants) and
// the scope-stack discipline variables and types share (spec.md §3.3).
//
// Grounded on the teacher's (grailbio-gql) symbol package for the general
// shape of "one table per namespace, looked up by interned name", adapted
// from a single flat table to the spec's four tables with scope stacks
// for two of them, and duplicate-name detection across all four
// namespaces at once (spec.md §3.3 invariant: "a name cannot name two
// entities of any of {function, variable, type, replace-constant} in any
// currently live scope").
package symtab

import (
	"github.com/grailbio/base/must"

	"github.com/dmihel/slfront/internal/ast"
	"github.com/dmihel/slfront/internal/callgraph"
	"github.com/dmihel/slfront/internal/ids"
	"github.com/dmihel/slfront/internal/symbol"
	"github.com/dmihel/slfront/internal/types"
)

// Membership classifies a VariableRecord (spec.md §3.3).
type Membership int

const (
	None Membership = iota
	FunctionParameter
	GlobalVariable
	EnumMember
	LabelVariable
)

// DeclaredVia records which declaration form introduced a variable.
type DeclaredVia int

const (
	ViaUnknown DeclaredVia = iota
	ViaDeclare
	ViaLet
)

// FunctionRecord describes one entry in the function table (spec.md §3.3).
type FunctionRecord struct {
	ID             ids.FunctionID // this record's own index in the function arena
	Name           string
	Signature      *types.Type // Class == types.FunctionSignature
	IsPublic       bool
	Defined        bool
	Called         bool
	ReturnType     *types.Type
	Parameters     []ids.VariableID
	CallGraphNode  *callgraph.Node
	DataArea       string
	Line           int
}

// VariableRecord describes one entry in the variable table (spec.md §3.3).
type VariableRecord struct {
	Name                            string
	Type                            *types.Type
	Membership                      Membership
	Initialized                     bool
	Mutated                         bool
	Read                            bool
	DeclaredVia                     DeclaredVia
	EnumMemberValue                 int64
	FunctionDeclaredIn              ids.FunctionID
	StackVariable                   bool
	StackRegion                     string
	Line                            int
	AbsoluteFunctionParameterOrder  int
	ClassRelativeFunctionParameterOrder int
}

// ConstantRecord is a `#replace` entry (spec.md §3.3 and §4.H).
type ConstantRecord struct {
	Name         string
	ConstantNode ast.Node // the folded constant AST node
	Line         int
}

// scope is one level of a variable or type scope stack, keyed by interned
// name rather than the raw string (spec.md §3.3; grounded on the teacher's
// symbol.Table — see internal/symbol — for cheap, comparable lookup keys).
type scope[T any] struct {
	names map[symbol.ID]T
}

func newScope[T any]() scope[T] { return scope[T]{names: map[symbol.ID]T{}} }

// Table is the full set of four symbol tables plus their scope stacks.
// One Table is owned per parse (spec.md §9: no process-wide statics). Every
// name that reaches a Declare*/Lookup* call is interned through syms first,
// so the tables themselves never key off a Go string.
type Table struct {
	syms *symbol.Table

	functions    map[symbol.ID]*FunctionRecord
	functionRecs []*FunctionRecord // arena indexed by ids.FunctionID, mirrors variableRecs
	constants    map[symbol.ID]*ConstantRecord

	variables    []scope[ids.VariableID]
	variableRecs []*VariableRecord // arena indexed by ids.VariableID

	typeScopes []scope[*types.Type]
}

// New creates an empty table with the outermost (global) scope already
// pushed for variables and types (spec.md §3.3: "primitives live in the
// outermost scope").
func New() *Table {
	t := &Table{
		syms:      symbol.NewTable(),
		functions: map[symbol.ID]*FunctionRecord{},
		constants: map[symbol.ID]*ConstantRecord{},
	}
	t.PushScope()
	return t
}

// PushScope opens a new variable and type scope (entering `{`, a function
// parameter list, or a `for` head — spec.md §3.4).
func (t *Table) PushScope() {
	t.variables = append(t.variables, newScope[ids.VariableID]())
	t.typeScopes = append(t.typeScopes, newScope[*types.Type]())
}

// PopScope closes the innermost variable and type scope.
func (t *Table) PopScope() {
	must.True(len(t.variables) > 0, "variable scope stack underflow")
	t.variables = t.variables[:len(t.variables)-1]
	t.typeScopes = t.typeScopes[:len(t.typeScopes)-1]
}

// Depth reports how many scopes are currently live (used by property
// tests verifying spec.md §8 property 7: "no scope is left on the stacks").
func (t *Table) Depth() int { return len(t.variables) }

// ---- Functions (flat) ----

// DeclareFunction inserts or returns the existing record for name. A newly
// inserted record is assigned a stable ids.FunctionID equal to its position
// in the function arena, the same scheme DeclareVariable uses for
// ids.VariableID, so callers (resolveJumps's FunctionDeclaredIn check, in
// particular) can tell two records for distinct functions apart.
func (t *Table) DeclareFunction(name string) (*FunctionRecord, bool) {
	sid := t.syms.Intern(name)
	if r, ok := t.functions[sid]; ok {
		return r, true
	}
	id := ids.FunctionID(len(t.functionRecs))
	r := &FunctionRecord{ID: id, Name: name}
	t.functions[sid] = r
	t.functionRecs = append(t.functionRecs, r)
	return r, false
}

// LookupFunction finds a function by name.
func (t *Table) LookupFunction(name string) (*FunctionRecord, bool) {
	r, ok := t.functions[t.syms.Intern(name)]
	return r, ok
}

// Function dereferences a FunctionID into its record, mirroring Variable.
func (t *Table) Function(id ids.FunctionID) *FunctionRecord {
	must.True(id >= 0 && int(id) < len(t.functionRecs), "invalid FunctionID")
	return t.functionRecs[id]
}

// ---- Constants (flat, `#replace`) ----

// DeclareConstant inserts a constant record; ok is false if name already
// exists.
func (t *Table) DeclareConstant(name string, node ast.Node, line int) (*ConstantRecord, bool) {
	sid := t.syms.Intern(name)
	if _, exists := t.constants[sid]; exists {
		return nil, false
	}
	r := &ConstantRecord{Name: name, ConstantNode: node, Line: line}
	t.constants[sid] = r
	return r, true
}

// LookupConstant finds a `#replace` constant by name.
func (t *Table) LookupConstant(name string) (*ConstantRecord, bool) {
	r, ok := t.constants[t.syms.Intern(name)]
	return r, ok
}

// ---- Variables (scoped) ----

// DeclareVariable inserts rec into the current (innermost) scope under
// name, returning its new ids.VariableID. ok is false if name already
// exists in the current scope (spec.md §3.3 duplicate-detection).
func (t *Table) DeclareVariable(name string, rec *VariableRecord) (ids.VariableID, bool) {
	sid := t.syms.Intern(name)
	cur := &t.variables[len(t.variables)-1]
	if _, exists := cur.names[sid]; exists {
		return ids.InvalidVariable, false
	}
	rec.Name = name
	id := ids.VariableID(len(t.variableRecs))
	t.variableRecs = append(t.variableRecs, rec)
	cur.names[sid] = id
	return id, true
}

// Variable dereferences a VariableID into its record.
func (t *Table) Variable(id ids.VariableID) *VariableRecord {
	must.True(id != ids.InvalidVariable, "dereferencing invalid variable id")
	return t.variableRecs[id]
}

// AllVariables returns every variable record ever declared, in declaration
// order, regardless of whether its scope has since been popped — used by
// the end-of-program unused-variable warning pass (spec.md §4.I step 3b).
func (t *Table) AllVariables() []*VariableRecord { return t.variableRecs }

// LookupCurrentScopeOnly looks up name in the innermost scope only (used
// for duplicate-declaration checks).
func (t *Table) LookupCurrentScopeOnly(name string) (ids.VariableID, bool) {
	cur := t.variables[len(t.variables)-1]
	id, ok := cur.names[t.syms.Intern(name)]
	return id, ok
}

// LookupAllScopes searches from innermost to outermost scope.
func (t *Table) LookupAllScopes(name string) (ids.VariableID, bool) {
	sid := t.syms.Intern(name)
	for i := len(t.variables) - 1; i >= 0; i-- {
		if id, ok := t.variables[i].names[sid]; ok {
			return id, true
		}
	}
	return ids.InvalidVariable, false
}

// LookupAnyLowerScope searches every scope except the innermost — used to
// detect labels (and other names) declared in enclosing blocks (spec.md
// §3.3 "used to detect labels that appear in inner blocks"; §4.G label
// uniqueness check searches with this variant from the function scope
// down).
func (t *Table) LookupAnyLowerScope(name string) (ids.VariableID, bool) {
	sid := t.syms.Intern(name)
	for i := len(t.variables) - 2; i >= 0; i-- {
		if id, ok := t.variables[i].names[sid]; ok {
			return id, true
		}
	}
	return ids.InvalidVariable, false
}

// ---- Types (scoped) ----

// DeclareType installs t under name in the current scope. ok is false on
// a duplicate in the current scope.
func (tab *Table) DeclareType(name string, t *types.Type) bool {
	sid := tab.syms.Intern(name)
	cur := &tab.typeScopes[len(tab.typeScopes)-1]
	if _, exists := cur.names[sid]; exists {
		return false
	}
	cur.names[sid] = t
	return true
}

// DeclareGlobalType installs t in the outermost (global) scope,
// regardless of current nesting — used for primitive registration at
// table construction time (spec.md §3.3: "primitives live in the
// outermost scope").
func (tab *Table) DeclareGlobalType(name string, t *types.Type) {
	tab.typeScopes[0].names[tab.syms.Intern(name)] = t
}

// LookupType searches from innermost to outermost type scope.
func (tab *Table) LookupType(name string) (*types.Type, bool) {
	sid := tab.syms.Intern(name)
	for i := len(tab.typeScopes) - 1; i >= 0; i-- {
		if t, ok := tab.typeScopes[i].names[sid]; ok {
			return t, true
		}
	}
	return nil, false
}

// ---- Cross-namespace duplicate detection ----

// NameInUse reports whether name currently names a function, any live
// variable scope, any live type scope, or a `#replace` constant (spec.md
// §3.3 invariant: uniqueness across all four namespaces).
func (t *Table) NameInUse(name string) bool {
	sid := t.syms.Intern(name)
	if _, ok := t.functions[sid]; ok {
		return true
	}
	if _, ok := t.constants[sid]; ok {
		return true
	}
	if _, ok := t.LookupAllScopes(name); ok {
		return true
	}
	if _, ok := t.LookupType(name); ok {
		return true
	}
	return false
}

// Package ids defines the small integer handle types used to break the
// ownership cycle between the AST and the symbol tables (spec.md §9 Design
// Notes: "two arenas plus stable indices"). An AST identifier node needs to
// point at the variable it resolves to; a #replace constant record needs to
// point at the AST node holding its folded value. Rather than having the
// ast and symtab packages import each other's concrete record types, both
// sides hold one of these indices and look the record up in the relevant
// table on demand.
package ids

// NodeID indexes into the AST arena owned by package ast.
type NodeID int32

// InvalidNode is the sentinel for "no node".
const InvalidNode NodeID = -1

// VariableID indexes a VariableRecord in the variable symbol table.
type VariableID int32

// InvalidVariable is the sentinel for "no variable".
const InvalidVariable VariableID = -1

// FunctionID indexes a FunctionRecord in the function symbol table.
type FunctionID int32

// InvalidFunction is the sentinel for "no function".
const InvalidFunction FunctionID = -1

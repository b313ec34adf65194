package parser

import (
	"github.com/dmihel/slfront/internal/ast"
	"github.com/dmihel/slfront/internal/callgraph"
	"github.com/dmihel/slfront/internal/diag"
	"github.com/dmihel/slfront/internal/ids"
	"github.com/dmihel/slfront/internal/symtab"
	"github.com/dmihel/slfront/internal/token"
	"github.com/dmihel/slfront/internal/types"
)

// Parser bundles every piece of state the rules in this package thread
// through explicitly, replacing the teacher's/original's process-wide
// statics with state owned by one call to Parse (spec.md §9 Design
// Notes: "Rewrites should bundle them into a ParserContext owned by the
// top-level entry function").
type Parser struct {
	Source *token.Source
	Diag   *diag.Sink
	Types  *types.Registry
	Syms   *symtab.Table
	Graph  *callgraph.Graph

	grouping groupingStack
	nesting  nestingStack

	// Per-function state, reset at every function entry (spec.md §3.4).
	currentFunction     ids.FunctionID
	currentFunctionName string
	currentReturnType   *types.Type
	currentReturnsVoid  bool
	jumpQueue           []*ast.Jump
	deferBodies         []*ast.CompoundStmt

	enableDebugPrinting bool
}

// New creates a Parser over src, reporting diagnostics against fileName.
func New(fileName, src string, enableDebugPrinting bool) *Parser {
	p := &Parser{
		Source:              token.New(fileName, src),
		Diag:                diag.New(fileName),
		Types:               types.NewRegistry(),
		Syms:                symtab.New(),
		Graph:               callgraph.New(),
		currentFunction:     ids.InvalidFunction,
		enableDebugPrinting: enableDebugPrinting,
	}
	for prim, name := range primitiveTypeNames {
		p.Syms.DeclareGlobalType(name, p.Types.Basic(prim, types.Immutable))
		p.Syms.DeclareGlobalType("mut "+name, p.Types.Basic(prim, types.Mutable))
	}
	return p
}

var primitiveTypeNames = map[types.Primitive]string{
	types.Void: "void", types.U8: "u8", types.I8: "i8", types.U16: "u16", types.I16: "i16",
	types.U32: "u32", types.I32: "i32", types.U64: "u64", types.I64: "i64",
	types.F32: "f32", types.F64: "f64", types.CharPrim: "char", types.BoolPrim: "bool",
}

// enterFunction resets the per-function state on entry to a new
// function's body (spec.md §3.4: jump queue and defer accumulator both
// reset at function entry).
func (p *Parser) enterFunction(fn ids.FunctionID, name string, returnType *types.Type, returnsVoid bool) {
	p.currentFunction = fn
	p.currentFunctionName = name
	p.currentReturnType = returnType
	p.currentReturnsVoid = returnsVoid
	p.jumpQueue = nil
	p.deferBodies = nil
}

// accumulateDefer records a parsed `defer { ... }` body in declaration
// order (spec.md §3.4, §4.G).
func (p *Parser) accumulateDefer(body *ast.CompoundStmt) {
	p.deferBodies = append(p.deferBodies, body)
}

// buildDeferSplice clones every accumulated defer body, in declaration
// order, into a fresh CompoundStmt — spliced as the independent copy every
// `ret` site gets (spec.md §4.G, §9: "Clone depth is unbounded in
// principle; ... deep-copy via arena indices, not pointer duplication" —
// here, via Node.Clone()). Returns nil if no defers were accumulated.
func (p *Parser) buildDeferSplice(pos ast.Node) *ast.CompoundStmt {
	if len(p.deferBodies) == 0 {
		return nil
	}
	splice := ast.NewCompoundStmt(pos.Pos())
	for _, body := range p.deferBodies {
		cloned := body.Clone().(*ast.CompoundStmt)
		splice.Statements = append(splice.Statements, cloned.Statements...)
	}
	return splice
}

// enqueueJump records a `jump` node awaiting end-of-function label
// resolution (spec.md §3.4, §4.G).
func (p *Parser) enqueueJump(j *ast.Jump) { p.jumpQueue = append(p.jumpQueue, j) }

// resolveJumps implements spec.md §4.G's end-of-function label resolution
// pass. By the time this runs, every block scope the label might have lived
// in has already been popped (parseCompoundStmt closes its scope before
// returning), so lookup cannot go through the scope stack; it scans the
// variable arena instead, restricted to labels declared in the function
// currently being resolved (spec.md §3.4: a label is only visible within
// its own function).
func (p *Parser) resolveJumps() {
	for _, j := range p.jumpQueue {
		all := p.Syms.AllVariables()
		matchIdx, sameNameIdx := -1, -1
		for i, r := range all {
			if r.Name != j.Label {
				continue
			}
			if sameNameIdx == -1 {
				sameNameIdx = i
			}
			if r.Membership == symtab.LabelVariable && r.FunctionDeclaredIn == p.currentFunction {
				matchIdx = i
				break
			}
		}
		if matchIdx >= 0 {
			j.SetVariable(ids.VariableID(matchIdx))
			continue
		}
		if sameNameIdx == -1 {
			p.Diag.Errorf(j.Line(), "jump to nonexistent label %q", j.Label)
		} else if all[sameNameIdx].Membership != symtab.LabelVariable {
			p.Diag.Errorf(j.Line(), "%q exists but is not a label", j.Label)
		} else {
			p.Diag.Errorf(j.Line(), "cannot jump to label %q outside its defining function", j.Label)
		}
	}
}

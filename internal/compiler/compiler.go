// Package compiler wires components A-J together into the single
// Parse entry point spec.md §6 describes: CompilerOptions in,
// FrontEndResults out.
//
// Grounded on the teacher's (grailbio-gql) gql.Init/gql.NewSession
// top-level wiring (gql/gql.go's role of owning one Session per parse
// and returning its outputs), adapted from a long-lived interactive
// session object to a one-shot front-end pass since spec.md §5 describes
// a strictly single-pass, non-interactive parser.
package compiler

import (
	"os"
	"runtime/debug"

	"github.com/grailbio/base/errors"

	"github.com/dmihel/slfront/internal/ast"
	"github.com/dmihel/slfront/internal/callgraph"
	"github.com/dmihel/slfront/internal/parser"
	"github.com/dmihel/slfront/internal/symtab"
	"github.com/dmihel/slfront/internal/types"
)

// CompilerOptions selects the source file to compile and whether the
// parser should print its debug trace (spec.md §6).
type CompilerOptions struct {
	FileName            string
	EnableDebugPrinting bool
}

// FrontEndResults is the front end's sole output (spec.md §6). The four
// symbol-table fields all reference the same *symtab.Table, which bundles
// all four namespaces; they are named separately here to mirror the
// spec's external-interface shape, not because the implementation keeps
// four independent tables.
type FrontEndResults struct {
	Root            *ast.Program
	FunctionSymtab  *symtab.Table
	VariableSymtab  *symtab.Table
	TypeSymtab      *symtab.Table
	ConstantSymtab  *symtab.Table
	TypeRegistry    *types.Registry
	OS              *callgraph.Node
	CallGraph       *callgraph.Graph
	NumErrors       int
	NumWarnings     int
	LinesProcessed  int
}

// Parse reads options.FileName and runs the full front end over its
// contents, never panicking: an internal panic during parsing is
// recovered and reported as a single synthetic error diagnostic rather
// than crashing the process (spec.md §7: "all are user-reported, none are
// panics"), grounded on the teacher's gql/panic.go Recover helper.
func Parse(options *CompilerOptions) FrontEndResults {
	src, err := os.ReadFile(options.FileName)
	if err != nil {
		p := parser.New(options.FileName, "", options.EnableDebugPrinting)
		p.Diag.Errorf(0, "cannot read %s: %v", options.FileName, err)
		return results(p, ast.NewProgram(p.Source.Peek().Pos))
	}

	p := parser.New(options.FileName, string(src), options.EnableDebugPrinting)
	var root *ast.Program
	if recoverErr := recoverPanic(func() { root = p.Parse() }); recoverErr != nil {
		p.Diag.Errorf(0, "internal error: %v", recoverErr)
		if root == nil {
			root = ast.NewProgram(p.Source.Peek().Pos)
		}
	}
	res := results(p, root)
	res.LinesProcessed = countLines(src)
	return res
}

// recoverPanic mirrors the teacher's gql/panic.go Recover: run cb,
// converting any panic into an error instead of letting it propagate.
func recoverPanic(cb func()) (err error) {
	defer func() {
		if e := recover(); e != nil {
			err = errors.E("panic %v: %v", e, string(debug.Stack()))
		}
	}()
	cb()
	return nil
}

func results(p *parser.Parser, root *ast.Program) FrontEndResults {
	osNode, _ := p.Graph.Node(callgraph.OSNodeName)
	return FrontEndResults{
		Root:           root,
		FunctionSymtab: p.Syms,
		VariableSymtab: p.Syms,
		TypeSymtab:     p.Syms,
		ConstantSymtab: p.Syms,
		TypeRegistry:   p.Types,
		OS:             osNode,
		CallGraph:      p.Graph,
		NumErrors:      p.Diag.NumErrors(),
		NumWarnings:    p.Diag.NumWarnings(),
	}
}

func countLines(src []byte) int {
	if len(src) == 0 {
		return 0
	}
	n := 1
	for _, b := range src {
		if b == '\n' {
			n++
		}
	}
	return n
}

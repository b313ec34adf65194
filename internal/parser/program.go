// Component J: the top-level `program` driver (spec.md §4.I).
package parser

import (
	"github.com/dmihel/slfront/internal/ast"
	"github.com/dmihel/slfront/internal/lexer"
	"github.com/dmihel/slfront/internal/symtab"
)

// Parse runs the whole front end over the parser's token source: the
// optional `#dependencies` preamble, the repeated declaration-partition
// loop, and the end-of-program warning passes (spec.md §4.I).
func (p *Parser) Parse() *ast.Program {
	startPos := p.Source.Peek().Pos
	p.consumeDependenciesPreamble()

	root := ast.NewProgram(startPos)
	for p.Source.Peek().Kind != lexer.EOF {
		if decl := p.parseDeclarationPartition(); decl != nil {
			if p.enableDebugPrinting {
				p.Diag.Infof(decl.Line(), "parsed %s", decl.String())
			}
			root.Declarations = append(root.Declarations, decl)
		}
	}

	p.warnUncalledFunctions()
	p.warnUnusedVariables()
	return root
}

// consumeDependenciesPreamble implements spec.md §4.I step 1: a leading
// `#dependencies` directive consumes tokens until its matching closing
// `#dependencies`, erroring on premature end of file. The preprocessor has
// already resolved the actual dependency graph before this stage runs; the
// parser only needs to skip the directive's body.
func (p *Parser) consumeDependenciesPreamble() {
	if p.Source.Peek().Kind != lexer.DirDependencies {
		return
	}
	openTok := p.Source.Next()
	for {
		tok := p.Source.Next()
		if tok.Kind == lexer.DirDependencies {
			return
		}
		if tok.Kind == lexer.EOF {
			p.Diag.Errorf(openTok.Pos.Line, "unterminated '#dependencies' preamble")
			return
		}
	}
}

// warnUncalledFunctions implements spec.md §4.I step 3a.
func (p *Parser) warnUncalledFunctions() {
	for _, n := range p.Graph.Uncalled() {
		line := 0
		if rec, ok := p.Syms.LookupFunction(n.Name); ok {
			line = rec.Line
		}
		p.Diag.Warnf(line, "function %q is never called", n.Name)
	}
}

// warnUnusedVariables implements spec.md §4.I step 3b: warn about
// variables declared but never initialized, or written but never read.
func (p *Parser) warnUnusedVariables() {
	for _, rec := range p.Syms.AllVariables() {
		if rec.Membership == symtab.LabelVariable || rec.Membership == symtab.EnumMember {
			continue
		}
		if !rec.Initialized {
			p.Diag.Warnf(rec.Line, "variable %q is declared but never initialized", rec.Name)
			continue
		}
		if !rec.Read {
			p.Diag.Warnf(rec.Line, "variable %q is written but never read", rec.Name)
		}
	}
}

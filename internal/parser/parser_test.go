package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmihel/slfront/internal/ast"
	"github.com/dmihel/slfront/internal/parser"
)

func parse(t *testing.T, src string) (*ast.Program, *parser.Parser) {
	t.Helper()
	p := parser.New("test.sl", src, false)
	root := p.Parse()
	require.NotNil(t, root)
	return root, p
}

func TestParseMinimalProgram(t *testing.T) {
	_, p := parse(t, `pub fn main() -> i32 { ret 0; }`)
	assert.Equal(t, 0, p.Diag.NumErrors())
}

func TestParseFoldsConstantInitializer(t *testing.T) {
	root, p := parse(t, `
pub fn main() -> i32 {
	let x : i32 := 2 + 3;
	ret x;
}`)
	require.Equal(t, 0, p.Diag.NumErrors())
	fn := root.Declarations[0].(*ast.FunctionDef)
	letStmt := fn.Body.Statements[0].(*ast.Let)
	c, ok := letStmt.Init.(*ast.Constant)
	require.True(t, ok, "a constant-only initializer must fold at parse time")
	assert.Equal(t, int64(5), c.IntVal)
}

func TestParseSwitchWithoutDefaultOnNonExhaustiveTypeErrors(t *testing.T) {
	_, p := parse(t, `
pub fn main() -> i32 {
	let x : i32 := 1;
	switch (x) {
	case 1 -> { ret 1; }
	}
	ret 0;
}`)
	assert.Greater(t, p.Diag.NumErrors(), 0, "a switch over a non-bool/non-enum type needs a default case")
}

func TestParseExhaustiveBoolSwitchNeedsNoDefault(t *testing.T) {
	_, p := parse(t, `
pub fn main() -> i32 {
	let b : bool := 1;
	switch (b) {
	case 0 -> { ret 0; }
	case 1 -> { ret 1; }
	}
	ret 0;
}`)
	assert.Equal(t, 0, p.Diag.NumErrors())
}

func TestParseReferenceParameterAutoAddressesIdentifierArgument(t *testing.T) {
	root, p := parse(t, `
fn bump(n : i32 &) -> void {
	ret;
}
pub fn main() -> i32 {
	let mut x : i32 := 0;
	@bump(x);
	ret 0;
}`)
	require.Equal(t, 0, p.Diag.NumErrors())
	main := root.Declarations[1].(*ast.FunctionDef)
	call := main.Body.Statements[1].(*ast.FunctionCall)
	_, ok := call.Args[0].(*ast.UnaryExpr)
	assert.True(t, ok, "passing a plain identifier to a reference parameter must auto-address it")
}

func TestParseJumpToLabelInEnclosingBlockResolves(t *testing.T) {
	_, p := parse(t, `
pub fn main() -> i32 {
	#top:
	{
		jump #top when(0);
	}
	ret 0;
}`)
	assert.Equal(t, 0, p.Diag.NumErrors())
}

func TestParseJumpToUndeclaredLabelErrors(t *testing.T) {
	_, p := parse(t, `
pub fn main() -> i32 {
	jump #nowhere;
	ret 0;
}`)
	assert.Greater(t, p.Diag.NumErrors(), 0)
}

func TestParseJumpToLabelInDifferentFunctionErrors(t *testing.T) {
	_, p := parse(t, `
fn helper() -> void {
	#there:
	ret;
}
pub fn main() -> i32 {
	jump #there;
	ret 0;
}`)
	assert.Greater(t, p.Diag.NumErrors(), 0, "a jump must not resolve to a label declared in a different function")
}

func TestParseDuplicateLabelInEnclosingScopeErrors(t *testing.T) {
	_, p := parse(t, `
pub fn main() -> i32 {
	#dup:
	{
		#dup:
		ret 0;
	}
	ret 0;
}`)
	assert.Greater(t, p.Diag.NumErrors(), 0, "a label must not shadow one visible from an enclosing block")
}

func TestParseAliasAndMutabilityRoundTrip(t *testing.T) {
	root, p := parse(t, `
alias mut i32 as Score;
pub fn main() -> i32 {
	let s : Score := 10;
	ret s;
}`)
	require.Equal(t, 0, p.Diag.NumErrors())
	main := root.Declarations[0].(*ast.FunctionDef)
	letStmt := main.Body.Statements[0].(*ast.Let)
	assert.True(t, letStmt.Type().IsMutable())
}

func TestParseBreakOutsideLoopOrCaseErrors(t *testing.T) {
	_, p := parse(t, `
pub fn main() -> i32 {
	break;
	ret 0;
}`)
	assert.Greater(t, p.Diag.NumErrors(), 0)
}

func TestParseDeferOnlyDirectlyUnderFunctionBody(t *testing.T) {
	_, p := parse(t, `
pub fn main() -> i32 {
	if (1) {
		defer { ret; }
	}
	ret 0;
}`)
	assert.Greater(t, p.Diag.NumErrors(), 0, "'defer' nested inside 'if' is not directly under the function body")
}

func TestParseFunctionRedefinitionErrors(t *testing.T) {
	_, p := parse(t, `
fn helper() -> void { ret; }
fn helper() -> void { ret; }
pub fn main() -> i32 { ret 0; }`)
	assert.Greater(t, p.Diag.NumErrors(), 0)
}

func TestParseUncalledFunctionWarns(t *testing.T) {
	_, p := parse(t, `
fn unused() -> void { ret; }
pub fn main() -> i32 { ret 0; }`)
	assert.Equal(t, 0, p.Diag.NumErrors())
	assert.Greater(t, p.Diag.NumWarnings(), 0)
}

func TestParseStructDefinitionAndFieldAccess(t *testing.T) {
	root, p := parse(t, `
define struct Point { x : i32; y : i32; }
pub fn main() -> i32 {
	let p : Point := { 1, 2 };
	ret p.x;
}`)
	require.Equal(t, 0, p.Diag.NumErrors())
	main := root.Declarations[0].(*ast.FunctionDef)
	ret := main.Body.Statements[1].(*ast.Return)
	_, ok := ret.Expr.(*ast.Accessor)
	assert.True(t, ok)
}

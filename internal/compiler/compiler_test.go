package compiler_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmihel/slfront/internal/compiler"
)

func writeSource(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prog.sl")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestParseReturnsZeroErrorsOnValidProgram(t *testing.T) {
	path := writeSource(t, `pub fn main() -> i32 { ret 0; }`)
	res := compiler.Parse(&compiler.CompilerOptions{FileName: path})
	assert.Equal(t, 0, res.NumErrors)
	require.NotNil(t, res.Root)
	assert.Len(t, res.Root.Declarations, 1)
}

func TestParseCountsLinesProcessed(t *testing.T) {
	path := writeSource(t, "pub fn main() -> i32 {\n\tret 0;\n}\n")
	res := compiler.Parse(&compiler.CompilerOptions{FileName: path})
	assert.Equal(t, 4, res.LinesProcessed)
}

func TestParseMissingFileReportsError(t *testing.T) {
	res := compiler.Parse(&compiler.CompilerOptions{FileName: filepath.Join(t.TempDir(), "missing.sl")})
	assert.Equal(t, 1, res.NumErrors)
}

func TestParsePopulatesCallGraphWithOSRoot(t *testing.T) {
	path := writeSource(t, `pub fn main() -> i32 { ret 0; }`)
	res := compiler.Parse(&compiler.CompilerOptions{FileName: path})
	require.NotNil(t, res.OS)
	assert.True(t, res.OS.Called == false, "the synthetic os node itself has no caller")
	mainNode, ok := res.CallGraph.Node("main")
	require.True(t, ok)
	assert.True(t, mainNode.Called, "main must be registered as called by the synthetic os node")
}

func TestParseReportsSyntaxErrorWithoutPanicking(t *testing.T) {
	path := writeSource(t, `pub fn main( -> i32 { ret 0; }`)
	assert.NotPanics(t, func() {
		res := compiler.Parse(&compiler.CompilerOptions{FileName: path})
		assert.Greater(t, res.NumErrors, 0)
	})
}

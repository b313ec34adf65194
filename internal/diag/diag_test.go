package diag_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmihel/slfront/internal/diag"
)

func TestErrorfIncrementsNumErrorsAndFailed(t *testing.T) {
	s := diag.New("prog.sl")
	assert.False(t, s.Failed())
	s.Errorf(10, "undeclared identifier %q", "x")
	assert.Equal(t, 1, s.NumErrors())
	assert.True(t, s.Failed())
}

func TestWarnfIncrementsNumWarningsNotErrors(t *testing.T) {
	s := diag.New("prog.sl")
	s.Warnf(4, "unused variable %q", "y")
	assert.Equal(t, 1, s.NumWarnings())
	assert.Equal(t, 0, s.NumErrors())
	assert.False(t, s.Failed())
}

func TestInfofAffectsNeitherCounter(t *testing.T) {
	s := diag.New("prog.sl")
	s.Infof(1, "parsing %s", "prog.sl")
	assert.Equal(t, 0, s.NumErrors())
	assert.Equal(t, 0, s.NumWarnings())
}

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "INFO", diag.Info.String())
	assert.Equal(t, "WARNING", diag.Warning.String())
	assert.Equal(t, "ERROR", diag.Error.String())
}

func TestCountersAccumulateAcrossReports(t *testing.T) {
	s := diag.New("prog.sl")
	s.Errorf(1, "first")
	s.Errorf(2, "second")
	s.Warnf(3, "third")
	assert.Equal(t, 2, s.NumErrors())
	assert.Equal(t, 1, s.NumWarnings())
}

package callgraph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmihel/slfront/internal/callgraph"
	"github.com/dmihel/slfront/internal/ids"
)

func TestNewSeedsOSRoot(t *testing.T) {
	g := callgraph.New()
	n, ok := g.Node(callgraph.OSNodeName)
	require.True(t, ok)
	assert.Equal(t, callgraph.OSNodeName, n.Name)
}

func TestMarkMainCalledByOSAddsEdgeAndMarksCalled(t *testing.T) {
	g := callgraph.New()
	g.AddFunction("main", ids.FunctionID(0))
	g.MarkMainCalledByOS()

	n, ok := g.Node("main")
	require.True(t, ok)
	assert.True(t, n.Called)
}

func TestUncalledExcludesOSAndCalledFunctions(t *testing.T) {
	g := callgraph.New()
	g.AddFunction("main", ids.FunctionID(0))
	g.AddFunction("helper", ids.FunctionID(1))
	g.AddFunction("dead", ids.FunctionID(2))
	g.MarkMainCalledByOS()
	g.AddEdge("main", "helper")

	uncalled := g.Uncalled()
	require.Len(t, uncalled, 1)
	assert.Equal(t, "dead", uncalled[0].Name)
}

func TestTopoSortOrdersCalleeBeforeCaller(t *testing.T) {
	g := callgraph.New()
	g.AddFunction("main", ids.FunctionID(0))
	g.AddFunction("helper", ids.FunctionID(1))
	g.MarkMainCalledByOS()
	g.AddEdge("main", "helper")

	order, cycles := g.TopoSort()
	assert.Empty(t, cycles)

	pos := map[string]int{}
	for i, name := range order {
		pos[name] = i
	}
	assert.Less(t, pos["helper"], pos["main"], "a callee must sort before its caller")
	assert.Less(t, pos["main"], pos[callgraph.OSNodeName], "main must sort before the synthetic os root")
}

func TestTopoSortDetectsCycle(t *testing.T) {
	g := callgraph.New()
	g.AddFunction("a", ids.FunctionID(0))
	g.AddFunction("b", ids.FunctionID(1))
	g.AddEdge("a", "b")
	g.AddEdge("b", "a")

	_, cycles := g.TopoSort()
	require.NotEmpty(t, cycles, "a mutual call between a and b is a cycle, not an error, but must be reported")
}

func TestAddEdgeCreatesUnseenNodes(t *testing.T) {
	g := callgraph.New()
	g.AddEdge("caller", "callee")

	_, callerOK := g.Node("caller")
	callee, calleeOK := g.Node("callee")
	assert.True(t, callerOK)
	assert.True(t, calleeOK)
	assert.True(t, callee.Called)
}

package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDependencyGraphEdges(t *testing.T) {
	model := modelOf(t, map[string]string{
		"a": "import b\nfrom c import thing\n",
		"b": "import c\n",
		"c": "x = 1\n",
		"d": "import os\nimport json\n",
	})
	g := BuildDependencyGraph(model)

	assert.Equal(t, []string{"b", "c"}, g.Imports("a"))
	assert.Equal(t, []string{"c"}, g.Imports("b"))
	assert.Empty(t, g.Imports("d"), "external imports do not create edges")
	assert.Equal(t, []string{"a", "b"}, g.ImportedBy("c"))
	assert.Equal(t, 2, g.FanIn("c"))
	assert.Equal(t, 2, g.FanOut("a"))
}

func TestDependencyGraphRelativeImports(t *testing.T) {
	model := modelOf(t, map[string]string{
		"pkg.core":    "from . import util\n",
		"pkg.util":    "x = 1\n",
		"pkg.sub.api": "from ..core import main\n",
	})
	g := BuildDependencyGraph(model)

	assert.True(t, g.HasEdge("pkg.core", "pkg.util"))
	assert.True(t, g.HasEdge("pkg.sub.api", "pkg.core"))
}

func TestInstabilityStaysInUnitRange(t *testing.T) {
	model := modelOf(t, map[string]string{
		"a": "import b\nimport c\n",
		"b": "import c\n",
		"c": "x = 1\n",
		"d": "x = 2\n",
	})
	g := BuildDependencyGraph(model)

	for _, name := range g.Modules() {
		i := g.Instability(name)
		assert.GreaterOrEqual(t, i, 0.0)
		assert.LessOrEqual(t, i, 1.0)
	}
	assert.Equal(t, 1.0, g.Instability("a"))
	assert.Equal(t, 0.0, g.Instability("c"))
	assert.Equal(t, 0.0, g.Instability("d"), "isolated modules score 0")
}

func TestCycleDetection(t *testing.T) {
	model := modelOf(t, map[string]string{
		"a": "import b\n",
		"b": "import c\n",
		"c": "import a\n",
		"d": "import a\n",
	})
	g := BuildDependencyGraph(model)

	cycles := g.Cycles()
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"a", "b", "c"}, cycles[0],
		"members keep first-discovered order")
}

func TestCycleDetectionIsDeterministic(t *testing.T) {
	sources := map[string]string{
		"m1": "import m2\n",
		"m2": "import m1\n",
		"n1": "import n2\n",
		"n2": "import n3\n",
		"n3": "import n1\n",
	}
	first := BuildDependencyGraph(modelOf(t, sources)).Cycles()
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, BuildDependencyGraph(modelOf(t, sources)).Cycles())
	}
}

func TestNoCyclesInAcyclicGraph(t *testing.T) {
	model := modelOf(t, map[string]string{
		"a": "import b\nimport c\n",
		"b": "import c\n",
		"c": "x = 1\n",
	})
	assert.Empty(t, BuildDependencyGraph(model).Cycles())
}

func TestSubmoduleImportResolvesToPrefix(t *testing.T) {
	model := modelOf(t, map[string]string{
		"app":        "import pkg.util.text\n",
		"pkg.util":   "x = 1\n",
	})
	g := BuildDependencyGraph(model)
	assert.True(t, g.HasEdge("app", "pkg.util"),
		"an import of a deeper path lands on the longest existing prefix")
}

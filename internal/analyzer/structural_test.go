package analyzer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pysmell/pysmell/domain"
	"github.com/pysmell/pysmell/internal/config"
)

func structuralSmells(t *testing.T, sources map[string]string, cfg *config.ThresholdConfig) []domain.Smell {
	t.Helper()
	model := modelOf(t, sources)
	graph := BuildDependencyGraph(model)
	return NewStructuralAnalyzer(cfg, model, graph).Detect()
}

func TestLCOM(t *testing.T) {
	mod := parseModule(t, "m", `
class Disjoint:
    def __init__(self):
        self.a = 1
        self.b = 2

    def use_a(self):
        return self.a

    def also_a(self):
        return self.a + 1

    def use_b(self):
        return self.b
`)
	c := mod.Classes[0]
	// pairs: (use_a, also_a) share a; (use_a, use_b) and (also_a, use_b)
	// share nothing
	assert.Equal(t, 1, LCOM(c))
}

func TestLCOMNegativeForCohesiveClass(t *testing.T) {
	mod := parseModule(t, "m", `
class Cohesive:
    def __init__(self):
        self.x = 0

    def inc(self):
        self.x += 1

    def dec(self):
        self.x -= 1

    def get(self):
        return self.x
`)
	c := mod.Classes[0]
	// all three counted pairs share x: 0 - 3, no clamping to zero
	assert.Equal(t, -3, LCOM(c))
}

func TestLCOMSmallClasses(t *testing.T) {
	mod := parseModule(t, "m", `
class One:
    def only(self):
        return 1

class Empty:
    pass
`)
	assert.Equal(t, 0, LCOM(mod.Classes[0]))
	assert.Equal(t, 0, LCOM(mod.Classes[1]))
}

func TestLCOMIsDeterministic(t *testing.T) {
	source := `
class C:
    def __init__(self):
        self.a = 1
        self.b = 2
        self.c = 3

    def m1(self):
        return self.a + self.b

    def m2(self):
        return self.b + self.c

    def m3(self):
        return self.c
`
	first := LCOM(parseModule(t, "m", source).Classes[0])
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, LCOM(parseModule(t, "m", source).Classes[0]))
	}
}

func TestWMCSumsMethodComplexities(t *testing.T) {
	mod := parseModule(t, "m", `
class Worker:
    def simple(self):
        return 1

    def branchy(self, x):
        if x > 0:
            return x
        elif x < 0:
            return -x
        return 0
`)
	assert.Equal(t, 4, WMC(mod.Classes[0]))
}

func TestDITUnresolvedBaseCountsOne(t *testing.T) {
	model := modelOf(t, map[string]string{"m": `
class Root:
    pass

class Child(Root):
    pass

class Grandchild(Child):
    pass

class External(django.models.Model):
    pass
`})
	a := NewStructuralAnalyzer(defaultConfig(), model, BuildDependencyGraph(model))

	assert.Equal(t, 0, a.DIT(model.Classes["m.Root"]))
	assert.Equal(t, 1, a.DIT(model.Classes["m.Child"]))
	assert.Equal(t, 2, a.DIT(model.Classes["m.Grandchild"]))
	assert.Equal(t, 1, a.DIT(model.Classes["m.External"]),
		"an unresolved base terminates the branch at depth 1")
}

func TestProjectNOCWeights(t *testing.T) {
	model := modelOf(t, map[string]string{"m": `
from abc import abstractmethod

class Base:
    pass

class Regular(Base):
    pass

class HelperChild(Base):
    pass

class AbstractChild(Base):
    @abstractmethod
    def run(self):
        ...

class TestChild(Base):
    pass
`})
	a := NewStructuralAnalyzer(defaultConfig(), model, BuildDependencyGraph(model))

	// regular 1.0 + 1.0 + utility 0.5 + abstract 0.75 + test 0
	assert.InDelta(t, 3.25, a.ProjectNOC(), 1e-9)
}

func TestProjectNOCReportedOnceForWholeProject(t *testing.T) {
	src := ""
	for i := 0; i < 8; i++ {
		src += fmt.Sprintf("class C%d:\n    pass\n\n", i)
	}
	smells := findSmells(structuralSmells(t, map[string]string{"m": src}, defaultConfig()), domain.KindHighNOC)
	require.Len(t, smells, 1, "the class count is a project metric, not a per-class one")
	assert.Equal(t, "project", smells[0].ModuleClass)
	assert.Equal(t, 8.0, smells[0].Metric)
	assert.Equal(t, domain.SeverityMedium, smells[0].Severity)
}

func TestHighComplexitySmellBoundary(t *testing.T) {
	cfg := defaultConfig()
	cfg.StructuralSmells[config.CyclomaticComplexity] = config.Entry{Value: 3}

	atThreshold := "def f(a, b):\n    if a:\n        pass\n    if b:\n        pass\n"
	overThreshold := atThreshold + "    if a and b:\n        pass\n"

	smells := structuralSmells(t, map[string]string{"m": atThreshold}, cfg)
	assert.Empty(t, findSmells(smells, domain.KindHighComplexity),
		"a metric equal to its threshold is not a smell")

	smells = structuralSmells(t, map[string]string{"m": overThreshold}, cfg)
	require.Len(t, findSmells(smells, domain.KindHighComplexity), 1)
}

func TestSeverityEscalatesAtOneAndAHalfTimes(t *testing.T) {
	cfg := defaultConfig()
	cfg.StructuralSmells[config.NOMThreshold] = config.Entry{Value: 4}

	build := func(methods int) string {
		src := "class C:\n"
		for i := 0; i < methods; i++ {
			src += fmt.Sprintf("    def m%d(self):\n        pass\n", i)
		}
		return src
	}

	smells := findSmells(structuralSmells(t, map[string]string{"m": build(5)}, cfg), domain.KindHighNOM)
	require.Len(t, smells, 1)
	assert.Equal(t, domain.SeverityMedium, smells[0].Severity, "5 is below 4 * 1.5")

	smells = findSmells(structuralSmells(t, map[string]string{"m": build(6)}, cfg), domain.KindHighNOM)
	require.Len(t, smells, 1)
	assert.Equal(t, domain.SeverityHigh, smells[0].Severity, "6 reaches 4 * 1.5")
}

func TestCBOCountsOnlyResolvableCoupling(t *testing.T) {
	model := modelOf(t, map[string]string{"m": `
class Engine:
    pass

class Wheel:
    pass

class Car:
    def __init__(self):
        self.engine = Engine()

    def roll(self, wheel: Wheel):
        return wheel

    def honk(self, thing):
        return thing.sound()
`})
	a := NewStructuralAnalyzer(defaultConfig(), model, BuildDependencyGraph(model))

	coupled := a.CoupledClasses(model.Classes["m.Car"])
	assert.Equal(t, []string{"m.Engine", "m.Wheel"}, coupled,
		"couplings through unknown receivers are excluded")
}

func TestFieldTypeInferenceIsPerField(t *testing.T) {
	model := modelOf(t, map[string]string{"m": `
class Gateway:
    pass

class Holder:
    def __init__(self, raw):
        self.conn = Gateway()
        self.raw = raw

    def sync(self):
        return self.raw.flush()
`})
	a := NewStructuralAnalyzer(defaultConfig(), model, BuildDependencyGraph(model))

	types := a.inferFieldTypes(model.Classes["m.Holder"])
	require.Contains(t, types, "conn")
	assert.Equal(t, "m.Gateway", types["conn"].QualifiedName)
	assert.NotContains(t, types, "raw",
		"a field assigned something other than a constructor stays untyped")
}

func TestModuleFanSmells(t *testing.T) {
	cfg := defaultConfig()
	cfg.StructuralSmells[config.MaxFanOut] = config.Entry{Value: 1}

	sources := map[string]string{
		"hub": "import a\nimport b\n",
		"a":   "x = 1\n",
		"b":   "x = 2\n",
	}
	smells := findSmells(structuralSmells(t, sources, cfg), domain.KindHighFanOut)
	require.Len(t, smells, 1)
	assert.Equal(t, "hub", smells[0].ModuleClass)
	assert.Equal(t, 2.0, smells[0].Metric)
}

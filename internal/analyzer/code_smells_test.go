package analyzer

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pysmell/pysmell/domain"
	"github.com/pysmell/pysmell/internal/config"
)

func codeSmells(t *testing.T, sources map[string]string, cfg *config.ThresholdConfig) []domain.Smell {
	t.Helper()
	return NewCodeSmellAnalyzer(cfg, modelOf(t, sources)).Detect()
}

func functionOfLines(lines int) string {
	var b strings.Builder
	b.WriteString("def long_one():\n")
	for i := 0; i < lines-1; i++ {
		fmt.Fprintf(&b, "    x%d = %d\n", i, i)
	}
	return b.String()
}

func TestLongMethodBoundary(t *testing.T) {
	cfg := defaultConfig()
	cfg.CodeSmells[config.LongMethodLines] = config.Entry{Value: 10}

	tests := []struct {
		name     string
		lines    int
		count    int
		severity domain.Severity
	}{
		{"at threshold", 10, 0, ""},
		{"one over", 11, 1, domain.SeverityMedium},
		{"at one and a half times", 15, 1, domain.SeverityHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			smells := findSmells(codeSmells(t, map[string]string{"m": functionOfLines(tt.lines)}, cfg), domain.KindLongMethod)
			require.Len(t, smells, tt.count)
			if tt.count > 0 {
				assert.Equal(t, tt.severity, smells[0].Severity)
				assert.Equal(t, float64(tt.lines), smells[0].Metric)
			}
		})
	}
}

func TestLargeClass(t *testing.T) {
	cfg := defaultConfig()
	cfg.CodeSmells[config.LargeClassMethods] = config.Entry{Value: 3}

	var b strings.Builder
	b.WriteString("class Big:\n")
	for i := 0; i < 5; i++ {
		fmt.Fprintf(&b, "    def method_%d(self):\n        pass\n", i)
	}

	smells := findSmells(codeSmells(t, map[string]string{"m": b.String()}, cfg), domain.KindLargeClass)
	require.Len(t, smells, 1)
	assert.Equal(t, "m.Big", smells[0].ModuleClass)
}

func TestLongParameterList(t *testing.T) {
	source := "def f(a, b, c, d, e, f):\n    pass\n\nclass C:\n    def m(self, a, b):\n        pass\n"
	smells := findSmells(codeSmells(t, map[string]string{"m": source}, defaultConfig()), domain.KindLongParameterList)
	require.Len(t, smells, 1, "self does not count as a parameter")
	assert.Equal(t, 6.0, smells[0].Metric)
}

func TestPrimitiveObsession(t *testing.T) {
	source := "def f(a: int, b: str, c: float, d: bool, e: bytes):\n    pass\n"
	smells := findSmells(codeSmells(t, map[string]string{"m": source}, defaultConfig()), domain.KindPrimitiveObsession)
	require.Len(t, smells, 1)
	assert.Equal(t, 5.0, smells[0].Metric)
}

func TestMessageChains(t *testing.T) {
	source := "def f(order):\n    return order.customer.address.city.zip_code\n"
	smells := findSmells(codeSmells(t, map[string]string{"m": source}, defaultConfig()), domain.KindMessageChains)
	require.Len(t, smells, 1)
	assert.Equal(t, 4.0, smells[0].Metric)
}

func TestSwitchStatements(t *testing.T) {
	source := `
def dispatch(op):
    if op == "add":
        return 1
    elif op == "sub":
        return 2
    elif op == "mul":
        return 3
    elif op == "div":
        return 4
`
	smells := findSmells(codeSmells(t, map[string]string{"m": source}, defaultConfig()), domain.KindSwitchStatements)
	require.Len(t, smells, 1)
	assert.Equal(t, 4.0, smells[0].Metric, "the if plus three elif branches")
}

func TestTemporaryField(t *testing.T) {
	source := `
class Session:
    def __init__(self):
        self.token = make_token()
        self.scratch = []

    def send(self):
        return post(self.token)
`
	smells := findSmells(codeSmells(t, map[string]string{"m": source}, defaultConfig()), domain.KindTemporaryField)
	require.Len(t, smells, 1)
	assert.Contains(t, smells[0].Description, "scratch")
	assert.NotContains(t, smells[0].Description, "token")
}

func TestFeatureEnvy(t *testing.T) {
	source := `
class Invoice:
    def total(self, order):
        tax = order.price * order.tax_rate
        discount = order.discount
        return order.price - discount + tax
`
	smells := findSmells(codeSmells(t, map[string]string{"m": source}, defaultConfig()), domain.KindFeatureEnvy)
	require.Len(t, smells, 1)
	assert.Contains(t, smells[0].Description, "'order'")
}

func TestLazyClass(t *testing.T) {
	source := `
class Tiny:
    def only(self):
        return 1

class Busy:
    def a(self):
        pass

    def b(self):
        pass

    def c(self):
        pass
`
	smells := findSmells(codeSmells(t, map[string]string{"m": source}, defaultConfig()), domain.KindLazyClass)
	require.Len(t, smells, 1)
	assert.Contains(t, smells[0].Description, "Tiny")
}

func TestLazyClassAtThresholdIsFlagged(t *testing.T) {
	source := `
class Pair:
    def first(self):
        return 1

    def second(self):
        return 2
`
	smells := findSmells(codeSmells(t, map[string]string{"m": source}, defaultConfig()), domain.KindLazyClass)
	require.Len(t, smells, 1, "a class with exactly the threshold method count is still lazy")
	assert.Equal(t, 2.0, smells[0].Metric)
}

func TestMiddleMan(t *testing.T) {
	source := `
class Wrapper:
    def __init__(self, inner):
        self.inner = inner

    def start(self):
        return self.inner.start()

    def stop(self):
        return self.inner.stop()

    def describe(self):
        name = self.inner.name
        return "wrapper of " + name
`
	smells := findSmells(codeSmells(t, map[string]string{"m": source}, defaultConfig()), domain.KindMiddleMan)
	require.Len(t, smells, 1)
	assert.InDelta(t, 2.0/3.0, smells[0].Metric, 1e-9)
}

func TestDataClumps(t *testing.T) {
	source := `
def draw(x, y, width, height):
    pass

def move(x, y, width, height):
    pass

def unrelated(a, b):
    pass
`
	smells := findSmells(codeSmells(t, map[string]string{"m": source}, defaultConfig()), domain.KindDataClumps)
	require.Len(t, smells, 1)
	assert.Contains(t, smells[0].Description, "height")
}

func TestShotgunSurgery(t *testing.T) {
	cfg := defaultConfig()
	cfg.CodeSmells[config.ShotgunSurgeryCalls] = config.Entry{Value: 2}

	sources := map[string]string{
		"target": `
class Logger:
    def write(self, msg):
        pass
`,
		"a": "def f1(log):\n    log.write(1)\n",
		"b": "def f2(log):\n    log.write(2)\n",
		"c": "def f3(log):\n    log.write(3)\n",
	}
	smells := findSmells(codeSmells(t, sources, cfg), domain.KindShotgunSurgery)
	require.Len(t, smells, 1)
	assert.Equal(t, "target.Logger", smells[0].ModuleClass)
	assert.Equal(t, 3.0, smells[0].Metric)
}

func TestShotgunSurgeryCountsEveryCallSite(t *testing.T) {
	cfg := defaultConfig()
	cfg.CodeSmells[config.ShotgunSurgeryCalls] = config.Entry{Value: 2}

	sources := map[string]string{
		"target": `
class Logger:
    def write(self, msg):
        pass
`,
		"a": "def f1(log):\n    log.write(1)\n    log.write(2)\n",
		"b": "def f2(log):\n    log.write(3)\n",
	}
	smells := findSmells(codeSmells(t, sources, cfg), domain.KindShotgunSurgery)
	require.Len(t, smells, 1, "repeated calls inside one function are separate sites")
	assert.Equal(t, 3.0, smells[0].Metric)
}

func TestRefusedBequest(t *testing.T) {
	source := `
class Parent:
    def alpha(self):
        pass

    def beta(self):
        pass

    def gamma(self):
        pass

    def delta(self):
        pass

class Slacker(Parent):
    def own_thing(self):
        return 1

class Diligent(Parent):
    def alpha(self):
        return 1

    def use_rest(self):
        self.beta()
        self.gamma()
        return self.delta()
`
	smells := findSmells(codeSmells(t, map[string]string{"m": source}, defaultConfig()), domain.KindRefusedBequest)
	require.Len(t, smells, 1)
	assert.Contains(t, smells[0].Description, "Slacker")
}

func TestAlternativeClasses(t *testing.T) {
	source := `
class JsonWriter:
    def open(self):
        pass

    def write_row(self):
        pass

    def finish(self):
        pass

class CsvWriter:
    def open(self):
        pass

    def write_row(self):
        pass

    def finish(self):
        pass
`
	smells := findSmells(codeSmells(t, map[string]string{"m": source}, defaultConfig()), domain.KindAlternativeClasses)
	require.Len(t, smells, 1)
	assert.Equal(t, 3.0, smells[0].Metric)
}

func TestDetectIsDeterministic(t *testing.T) {
	sources := map[string]string{
		"m": functionOfLines(60) + "\nclass C:\n    def a(self):\n        pass\n",
		"n": "def g(a, b, c, d, e, f):\n    pass\n",
	}
	first := codeSmells(t, sources, defaultConfig())
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, codeSmells(t, sources, defaultConfig()))
	}
}

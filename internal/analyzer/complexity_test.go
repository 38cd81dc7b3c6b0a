package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func complexityOf(t *testing.T, body string) ComplexityResult {
	t.Helper()
	mod := parseModule(t, "m", body)
	require.Len(t, mod.Functions, 1)
	fn := mod.Functions[0]
	return ComplexityResult{
		Complexity:  fn.Complexity,
		BranchCount: fn.BranchCount,
		MaxNesting:  fn.MaxNesting,
	}
}

func TestComplexity(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		expected int
	}{
		{
			"straight line",
			"def f():\n    x = 1\n    return x\n",
			1,
		},
		{
			"single if",
			"def f(x):\n    if x:\n        return 1\n    return 0\n",
			2,
		},
		{
			"if elif else",
			"def f(x):\n    if x < 0:\n        return -1\n    elif x > 0:\n        return 1\n    else:\n        return 0\n",
			3,
		},
		{
			"loops",
			"def f(xs):\n    for x in xs:\n        pass\n    while xs:\n        xs.pop()\n",
			3,
		},
		{
			"boolean operands",
			"def f(a, b, c):\n    return a and b or c\n",
			3,
		},
		{
			"ternary",
			"def f(x):\n    return 1 if x else 0\n",
			2,
		},
		{
			"comprehension with condition",
			"def f(xs):\n    return [x for x in xs if x > 0]\n",
			3,
		},
		{
			"try with two excepts",
			"def f():\n    try:\n        risky()\n    except ValueError:\n        pass\n    except KeyError:\n        pass\n",
			3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := complexityOf(t, tt.source)
			assert.Equal(t, tt.expected, result.Complexity)
		})
	}
}

func TestComplexitySkipsNestedDefinitions(t *testing.T) {
	source := `
def outer():
    def inner(x):
        if x:
            return 1
        return 0
    return inner
`
	mod := parseModule(t, "m", source)
	require.Len(t, mod.Functions, 1)
	assert.Equal(t, 1, mod.Functions[0].Complexity,
		"nested definitions are measured on their own")
}

func TestBranchCountAndNesting(t *testing.T) {
	source := `
def f(items):
    for item in items:
        if item.valid:
            if item.priority:
                handle(item)
`
	result := complexityOf(t, source)
	assert.Equal(t, 3, result.BranchCount)
	assert.Equal(t, 3, result.MaxNesting)
}

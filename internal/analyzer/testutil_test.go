package analyzer

import (
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pysmell/pysmell/domain"
	"github.com/pysmell/pysmell/internal/config"
	"github.com/pysmell/pysmell/internal/parser"
)

// parseModule parses inline source and extracts its facts
func parseModule(t *testing.T, name, source string) *ModuleFacts {
	t.Helper()
	p := parser.New()
	defer p.Close()
	result, err := p.Parse(context.Background(), []byte(source))
	require.NoError(t, err, "test source must parse")
	path := strings.ReplaceAll(name, ".", "/") + ".py"
	return ExtractModule(name, path, result)
}

// modelOf assembles a model from named inline sources
func modelOf(t *testing.T, sources map[string]string) *FactModel {
	t.Helper()
	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)

	var modules []*ModuleFacts
	for _, name := range names {
		modules = append(modules, parseModule(t, name, sources[name]))
	}
	return NewFactModel(modules)
}

func defaultConfig() *config.ThresholdConfig {
	return config.Defaults()
}

// kindsOf lists the distinct smell kinds present in a result
func kindsOf(smells []domain.Smell) map[string]int {
	kinds := make(map[string]int)
	for _, s := range smells {
		kinds[s.Kind]++
	}
	return kinds
}

// findSmells filters a result by kind
func findSmells(smells []domain.Smell, kind string) []domain.Smell {
	var out []domain.Smell
	for _, s := range smells {
		if s.Kind == kind {
			out = append(out, s)
		}
	}
	return out
}

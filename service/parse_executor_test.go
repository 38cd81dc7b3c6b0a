package service

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestParseProject(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "alpha.py", "def f():\n    return 1\n")
	writeFile(t, root, "pkg/beta.py", "class B:\n    pass\n")
	writeFile(t, root, "broken.py", "def broken(:\n")

	reader := NewFileReader(nil)
	files, err := reader.CollectPythonFiles(root)
	require.NoError(t, err)

	outcome, err := NewParseExecutor(reader, quietLogger()).
		ParseProject(context.Background(), root, files, NoopProgress{})
	require.NoError(t, err)

	require.Len(t, outcome.Modules, 2)
	assert.Equal(t, "alpha", outcome.Modules[0].Name)
	assert.Equal(t, "pkg.beta", outcome.Modules[1].Name)

	require.Len(t, outcome.Skipped, 1)
	assert.Equal(t, "broken.py", outcome.Skipped[0].FilePath)
}

func TestParseProjectOrderIsStable(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"e.py", "a.py", "c.py", "b.py", "d.py"} {
		writeFile(t, root, name, "x = 1\n")
	}

	reader := NewFileReader(nil)
	files, err := reader.CollectPythonFiles(root)
	require.NoError(t, err)

	executor := NewParseExecutor(reader, quietLogger())
	collect := func() []string {
		outcome, err := executor.ParseProject(context.Background(), root, files, NoopProgress{})
		require.NoError(t, err)
		var names []string
		for _, mod := range outcome.Modules {
			names = append(names, mod.Name)
		}
		return names
	}

	expected := []string{"a", "b", "c", "d", "e"}
	for i := 0; i < 5; i++ {
		assert.Equal(t, expected, collect(), "collection order must not depend on worker scheduling")
	}
}

func TestParseProjectCancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "x = 1\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reader := NewFileReader(nil)
	_, err := NewParseExecutor(reader, quietLogger()).
		ParseProject(ctx, root, []string{"a.py"}, NoopProgress{})
	assert.Error(t, err)
}

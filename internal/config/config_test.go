package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestDefaultsAreComplete(t *testing.T) {
	cfg := Defaults()

	assert.Equal(t, 45.0, cfg.Code(LongMethodLines))
	assert.Equal(t, 10.0, cfg.Structural(NOMThreshold))
	assert.Equal(t, 0.7, cfg.Architectural(UnstableDependency))
	assert.NotEmpty(t, cfg.EntryPoints)

	for _, section := range []Section{cfg.CodeSmells, cfg.StructuralSmells, cfg.ArchitecturalSmells} {
		for _, name := range section.SortedNames() {
			assert.NotEmpty(t, section[name].Explanation, "every default needs an explanation: %s", name)
		}
	}
}

func TestLoadOverridesFromYAML(t *testing.T) {
	dir := t.TempDir()
	content := `
code_smells:
  long_method_lines:
    value: 100
    explanation: "relaxed for this project"
structural_smells:
  nom_threshold:
    value: 25
`
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path, dir, testLogger())
	require.NoError(t, err)

	assert.Equal(t, 100.0, cfg.Code(LongMethodLines))
	assert.Equal(t, 25.0, cfg.Structural(NOMThreshold))
	// untouched entries keep defaults
	assert.Equal(t, 15.0, cfg.Code(LargeClassMethods))
	// explanation fell back to the default one
	assert.NotEmpty(t, cfg.StructuralSmells[NOMThreshold].Explanation)
}

func TestLoadDefaultFileIsOptional(t *testing.T) {
	cfg, err := Load("", t.TempDir(), testLogger())
	require.NoError(t, err)
	assert.Equal(t, 45.0, cfg.Code(LongMethodLines))
}

func TestLoadExplicitMissingFileIsFatal(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), t.TempDir(), testLogger())
	assert.Error(t, err)
}

func TestLoadRejectsNegativeValues(t *testing.T) {
	dir := t.TempDir()
	content := "code_smells:\n  long_method_lines:\n    value: -5\n"
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path, dir, testLogger())
	require.NoError(t, err)
	assert.Equal(t, 45.0, cfg.Code(LongMethodLines), "negative values fall back to the default")
}

func TestLoadPicksUpDefaultFileName(t *testing.T) {
	dir := t.TempDir()
	content := "architectural_smells:\n  god_object_functions:\n    value: 3\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigFileName), []byte(content), 0644))

	cfg, err := Load("", dir, testLogger())
	require.NoError(t, err)
	assert.Equal(t, 3.0, cfg.Architectural(GodObjectFunctions))
}

func TestPyprojectOverrides(t *testing.T) {
	dir := t.TempDir()
	content := `
[tool.pysmell]
entry_points = ["cli"]

[tool.pysmell.code_smells]
long_method_lines = 80

[tool.pysmell.structural_smells.lcom_threshold]
value = 12
explanation = "tightened"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pyproject.toml"), []byte(content), 0644))

	cfg, err := Load("", dir, testLogger())
	require.NoError(t, err)

	assert.Equal(t, 80.0, cfg.Code(LongMethodLines))
	assert.Equal(t, 12.0, cfg.Structural(LCOMThreshold))
	assert.True(t, cfg.IsEntryPoint("cli"))
	assert.False(t, cfg.IsEntryPoint("main"), "pyproject entry points replace the defaults")
}

func TestLookupWarnsThroughInjectedLogger(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	cfg, err := Load("", t.TempDir(), log)
	require.NoError(t, err)

	delete(cfg.StructuralSmells, WMCThreshold)
	assert.Equal(t, 50.0, cfg.Structural(WMCThreshold), "missing entries fall back to the default")

	require.NotEmpty(t, hook.Entries, "the fallback warning goes to the run's own logger")
	assert.Contains(t, hook.LastEntry().Message, WMCThreshold)
}

func TestIsEntryPoint(t *testing.T) {
	cfg := Defaults()
	assert.True(t, cfg.IsEntryPoint("main"))
	assert.True(t, cfg.IsEntryPoint("app.main"), "the last path segment matches too")
	assert.False(t, cfg.IsEntryPoint("app.core"))
}

func TestDefaultConfigYAMLIsStable(t *testing.T) {
	first, err := DefaultConfigYAML()
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		next, err := DefaultConfigYAML()
		require.NoError(t, err)
		assert.Equal(t, string(first), string(next))
	}
	assert.Contains(t, string(first), "long_method_lines")
	assert.Contains(t, string(first), "entry_points")
}

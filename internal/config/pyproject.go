package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
)

// pyprojectFile mirrors only the [tool.pysmell] tables of pyproject.toml
type pyprojectFile struct {
	Tool struct {
		Pysmell struct {
			CodeSmells          map[string]any `toml:"code_smells"`
			StructuralSmells    map[string]any `toml:"structural_smells"`
			ArchitecturalSmells map[string]any `toml:"architectural_smells"`
			EntryPoints         []string       `toml:"entry_points"`
		} `toml:"pysmell"`
	} `toml:"tool"`
}

// mergePyproject overlays [tool.pysmell] threshold overrides from the
// project's pyproject.toml. The file is optional; values may be bare
// numbers or {value, explanation} tables.
func (c *ThresholdConfig) mergePyproject(path string, log *logrus.Logger) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var pp pyprojectFile
	if err := toml.Unmarshal(raw, &pp); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	c.overlay(c.CodeSmells, tomlSection(pp.Tool.Pysmell.CodeSmells, "code_smells", log), "code_smells", log)
	c.overlay(c.StructuralSmells, tomlSection(pp.Tool.Pysmell.StructuralSmells, "structural_smells", log), "structural_smells", log)
	c.overlay(c.ArchitecturalSmells, tomlSection(pp.Tool.Pysmell.ArchitecturalSmells, "architectural_smells", log), "architectural_smells", log)
	if len(pp.Tool.Pysmell.EntryPoints) > 0 {
		c.EntryPoints = pp.Tool.Pysmell.EntryPoints
	}
	return nil
}

// tomlSection converts the loosely typed TOML values into entries
func tomlSection(values map[string]any, sectionName string, log *logrus.Logger) Section {
	section := Section{}
	for name, raw := range values {
		switch v := raw.(type) {
		case int64:
			section[name] = Entry{Value: float64(v)}
		case float64:
			section[name] = Entry{Value: v}
		case map[string]any:
			entry := Entry{}
			ok := false
			switch num := v["value"].(type) {
			case int64:
				entry.Value, ok = float64(num), true
			case float64:
				entry.Value, ok = num, true
			}
			if expl, has := v["explanation"].(string); has {
				entry.Explanation = expl
			}
			if !ok {
				log.Warnf("pyproject %s.%s has no numeric value, ignoring", sectionName, name)
				continue
			}
			section[name] = entry
		default:
			log.Warnf("pyproject %s.%s has unsupported type %T, ignoring", sectionName, name, raw)
		}
	}
	return section
}

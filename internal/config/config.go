package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/pysmell/pysmell/domain"
)

// DefaultConfigFileName is looked up in the analyzed project when --config
// is not given.
const DefaultConfigFileName = "code_quality_config.yaml"

// Entry is one configured metric: a numeric threshold plus the human
// explanation carried alongside it in the config file.
type Entry struct {
	Value       float64 `mapstructure:"value" yaml:"value"`
	Explanation string  `mapstructure:"explanation" yaml:"explanation"`
}

// Section maps metric names to entries within one smell category
type Section map[string]Entry

// ThresholdConfig holds the fully resolved thresholds for a run. It is
// built once, never mutated afterwards, and shared read-only by every
// detector.
type ThresholdConfig struct {
	CodeSmells          Section `mapstructure:"code_smells" yaml:"code_smells"`
	ArchitecturalSmells Section `mapstructure:"architectural_smells" yaml:"architectural_smells"`
	StructuralSmells    Section `mapstructure:"structural_smells" yaml:"structural_smells"`

	// EntryPoints are module names never reported as orphans
	EntryPoints []string `mapstructure:"entry_points" yaml:"entry_points,omitempty"`

	log *logrus.Logger
}

func (c *ThresholdConfig) logger() *logrus.Logger {
	if c.log != nil {
		return c.log
	}
	return logrus.StandardLogger()
}

// Load resolves the configuration for a run. Resolution order: built-in
// defaults, then the YAML config file, then [tool.pysmell] overrides from
// the project's pyproject.toml.
//
// An explicitly requested config file that is missing or malformed is a
// fatal error. The default config file is optional. Individual missing or
// malformed entries fall back to the built-in default with a warning.
func Load(configPath, projectRoot string, log *logrus.Logger) (*ThresholdConfig, error) {
	cfg := Defaults()
	cfg.log = log

	explicit := configPath != ""
	if !explicit {
		candidate := filepath.Join(projectRoot, DefaultConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			configPath = candidate
		}
	}

	if configPath != "" {
		if err := cfg.mergeFile(configPath, explicit, log); err != nil {
			return nil, err
		}
	}

	if err := cfg.mergePyproject(filepath.Join(projectRoot, "pyproject.toml"), log); err != nil {
		// pyproject overrides are best-effort
		log.WithError(err).Warn("ignoring pyproject.toml overrides")
	}

	return cfg, nil
}

// mergeFile overlays entries from a YAML config file onto cfg
func (c *ThresholdConfig) mergeFile(path string, explicit bool, log *logrus.Logger) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		if explicit {
			return domain.NewFatalError(fmt.Sprintf("cannot read config file %s", path), err)
		}
		log.WithError(err).Warnf("cannot read config file %s, using defaults", path)
		return nil
	}

	var loaded ThresholdConfig
	if err := v.Unmarshal(&loaded); err != nil {
		if explicit {
			return domain.NewFatalError(fmt.Sprintf("malformed config file %s", path), err)
		}
		log.WithError(err).Warnf("malformed config file %s, using defaults", path)
		return nil
	}

	c.overlay(c.CodeSmells, loaded.CodeSmells, "code_smells", log)
	c.overlay(c.ArchitecturalSmells, loaded.ArchitecturalSmells, "architectural_smells", log)
	c.overlay(c.StructuralSmells, loaded.StructuralSmells, "structural_smells", log)
	if len(loaded.EntryPoints) > 0 {
		c.EntryPoints = loaded.EntryPoints
	}
	return nil
}

// overlay copies configured entries over the defaults, keeping defaults for
// unknown or unusable values.
func (c *ThresholdConfig) overlay(dst, src Section, sectionName string, log *logrus.Logger) {
	for name, entry := range src {
		if entry.Value < 0 {
			err := domain.NewConfigError(
				fmt.Sprintf("%s.%s has negative value %v, using default", sectionName, name, entry.Value), nil)
			log.Warn(err.Error())
			continue
		}
		existing, known := dst[name]
		if known && entry.Explanation == "" {
			entry.Explanation = existing.Explanation
		}
		dst[name] = entry
	}
}

// value looks a metric up in a section, substituting (and logging) the
// built-in default when absent.
func value(section Section, defaults Section, sectionName, name string, log *logrus.Logger) float64 {
	if entry, ok := section[name]; ok {
		return entry.Value
	}
	if entry, ok := defaults[name]; ok {
		log.Warnf("threshold %s.%s not configured, using default %v", sectionName, name, entry.Value)
		return entry.Value
	}
	log.Warnf("threshold %s.%s unknown, using 0", sectionName, name)
	return 0
}

// Code returns a code-smell threshold by metric name
func (c *ThresholdConfig) Code(name string) float64 {
	return value(c.CodeSmells, defaultCodeSmells(), "code_smells", name, c.logger())
}

// Structural returns a structural-smell threshold by metric name
func (c *ThresholdConfig) Structural(name string) float64 {
	return value(c.StructuralSmells, defaultStructuralSmells(), "structural_smells", name, c.logger())
}

// Architectural returns an architectural-smell threshold by metric name
func (c *ThresholdConfig) Architectural(name string) float64 {
	return value(c.ArchitecturalSmells, defaultArchitecturalSmells(), "architectural_smells", name, c.logger())
}

// IsEntryPoint reports whether a module is a configured entry point
func (c *ThresholdConfig) IsEntryPoint(module string) bool {
	base := module
	if i := lastDot(module); i >= 0 {
		base = module[i+1:]
	}
	for _, ep := range c.EntryPoints {
		if module == ep || base == ep {
			return true
		}
	}
	return false
}

func lastDot(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return i
		}
	}
	return -1
}

// SortedNames returns a section's metric names in stable order
func (s Section) SortedNames() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

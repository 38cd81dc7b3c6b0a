package analyzer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pysmell/pysmell/domain"
	"github.com/pysmell/pysmell/internal/config"
)

// ArchitecturalAnalyzer inspects the module dependency graph and
// project-wide organization.
type ArchitecturalAnalyzer struct {
	cfg   *config.ThresholdConfig
	model *FactModel
	graph *DependencyGraph
}

func NewArchitecturalAnalyzer(cfg *config.ThresholdConfig, model *FactModel, graph *DependencyGraph) *ArchitecturalAnalyzer {
	return &ArchitecturalAnalyzer{cfg: cfg, model: model, graph: graph}
}

// Detect runs every architectural detector in a fixed order
func (a *ArchitecturalAnalyzer) Detect() []domain.Smell {
	var smells []domain.Smell
	smells = append(smells, a.cyclicDependencies()...)
	smells = append(smells, a.hubLikeDependencies()...)
	smells = append(smells, a.unstableDependencies()...)
	smells = append(smells, a.orphanModules()...)
	smells = append(smells, a.godObjects()...)
	smells = append(smells, a.scatteredFunctionality()...)
	smells = append(smells, a.redundantAbstractions()...)
	smells = append(smells, a.improperAPIUsage()...)
	return smells
}

func (a *ArchitecturalAnalyzer) smell(kind string, metric, threshold float64, module string, format string, args ...any) domain.Smell {
	file := ""
	if mod, ok := a.model.Modules[module]; ok {
		file = mod.FilePath
	}
	return domain.Smell{
		Category:    domain.CategoryArchitectural,
		Kind:        kind,
		Description: fmt.Sprintf(format, args...),
		FilePath:    file,
		ModuleClass: module,
		Line:        1,
		Severity:    domain.SeverityFor(metric, threshold),
		Metric:      metric,
		Threshold:   threshold,
	}
}

// cyclicDependencies reports one smell per import cycle. The cycle is
// described in the order the graph traversal discovered its members.
func (a *ArchitecturalAnalyzer) cyclicDependencies() []domain.Smell {
	var smells []domain.Smell
	for _, cycle := range a.graph.Cycles() {
		path := strings.Join(append(append([]string{}, cycle...), cycle[0]), " -> ")
		s := a.smell(domain.KindCyclicDependency, float64(len(cycle)), 1, cycle[0],
			"Modules form an import cycle: %s", path)
		s.Severity = domain.SeverityHigh
		smells = append(smells, s)
	}
	return smells
}

// hubLikeDependencies reports modules whose combined fan-in and fan-out
// cover a large fraction of the whole project.
func (a *ArchitecturalAnalyzer) hubLikeDependencies() []domain.Smell {
	modules := a.graph.Modules()
	if len(modules) < 2 {
		return nil
	}
	t := a.cfg.Architectural(config.HubDependencyFraction)

	var smells []domain.Smell
	for _, name := range modules {
		degree := a.graph.FanIn(name) + a.graph.FanOut(name)
		fraction := float64(degree) / float64(len(modules)-1)
		if fraction > t {
			smells = append(smells, a.smell(domain.KindHubLikeDependency, fraction, t, name,
				"Module '%s' has dependency degree %d against %d other modules",
				name, degree, len(modules)-1))
		}
	}
	return smells
}

// unstableDependencies reports modules that mostly depend outwards
func (a *ArchitecturalAnalyzer) unstableDependencies() []domain.Smell {
	t := a.cfg.Architectural(config.UnstableDependency)
	minDegree := int(a.cfg.Architectural(config.UnstableMinDegree))

	var smells []domain.Smell
	for _, name := range a.graph.Modules() {
		in, out := a.graph.FanIn(name), a.graph.FanOut(name)
		if in+out < minDegree {
			continue
		}
		instability := a.graph.Instability(name)
		if instability > t {
			smells = append(smells, a.smell(domain.KindUnstableDependency, instability, t, name,
				"Module '%s' has instability %.2f (imports %d, imported by %d)",
				name, instability, out, in))
		}
	}
	return smells
}

// orphanModules reports modules no other module reaches and that reach
// nothing themselves. Package markers, entry points, and test modules
// are expected to stand alone.
func (a *ArchitecturalAnalyzer) orphanModules() []domain.Smell {
	var smells []domain.Smell
	for _, name := range a.graph.Modules() {
		if a.graph.FanIn(name) > 0 || a.graph.FanOut(name) > 0 {
			continue
		}
		if a.cfg.IsEntryPoint(name) || isStandaloneByConvention(name) {
			continue
		}
		s := a.smell(domain.KindOrphanModule, 0, 0, name,
			"Module '%s' has no import relationship with the rest of the project", name)
		s.Severity = domain.SeverityMedium
		smells = append(smells, s)
	}
	return smells
}

func isStandaloneByConvention(module string) bool {
	last := module
	if i := strings.LastIndex(module, "."); i >= 0 {
		last = module[i+1:]
	}
	return last == "__init__" ||
		strings.HasPrefix(last, "test_") || strings.HasSuffix(last, "_test")
}

// godObjects reports modules concentrating too many public functions
func (a *ArchitecturalAnalyzer) godObjects() []domain.Smell {
	t := a.cfg.Architectural(config.GodObjectFunctions)
	var smells []domain.Smell
	for _, name := range a.model.ModuleNames {
		count := a.model.Modules[name].PublicFunctionCount()
		if float64(count) > t {
			smells = append(smells, a.smell(domain.KindGodObject, float64(count), t, name,
				"Module '%s' concentrates %d public functions", name, count))
		}
	}
	return smells
}

// scatteredFunctionality reports module-level function names reappearing
// across many modules, a sign one concern is spread thin. Every name is
// indexed: a shared name is a finding regardless of how generic it looks.
func (a *ArchitecturalAnalyzer) scatteredFunctionality() []domain.Smell {
	minModules := int(a.cfg.Architectural(config.ScatteredModules))

	occurrences := make(map[string]map[string]bool)
	for _, modName := range a.model.ModuleNames {
		mod := a.model.Modules[modName]
		for _, fn := range mod.Functions {
			if occurrences[fn.Name] == nil {
				occurrences[fn.Name] = make(map[string]bool)
			}
			occurrences[fn.Name][modName] = true
		}
	}

	names := make([]string, 0, len(occurrences))
	for name := range occurrences {
		names = append(names, name)
	}
	sort.Strings(names)

	var smells []domain.Smell
	for _, name := range names {
		modules := occurrences[name]
		if len(modules) < minModules {
			continue
		}
		sorted := make([]string, 0, len(modules))
		for m := range modules {
			sorted = append(sorted, m)
		}
		sort.Strings(sorted)
		smells = append(smells, a.smell(domain.KindScatteredFunctionality,
			float64(len(modules)), float64(minModules), sorted[0],
			"Functionality '%s' is spread across %d modules: %s",
			name, len(modules), strings.Join(sorted, ", ")))
	}
	return smells
}

// redundantAbstractions reports module pairs defining nearly the same
// function-name set, plus class pairs in different modules exposing
// nearly the same interface without any inheritance relationship.
func (a *ArchitecturalAnalyzer) redundantAbstractions() []domain.Smell {
	t := a.cfg.Architectural(config.RedundantSimilarity)
	useOverlap := a.cfg.Architectural(config.RedundantUseOverlap) > 0

	var smells []domain.Smell

	names := a.model.ModuleNames
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			xs := moduleFunctionNames(a.model.Modules[names[i]])
			ys := moduleFunctionNames(a.model.Modules[names[j]])
			if len(xs) < 2 || len(ys) < 2 {
				continue
			}
			similarity := setSimilarity(xs, ys, useOverlap)
			if similarity < t {
				continue
			}
			smells = append(smells, a.smell(domain.KindRedundantAbstractions, similarity, t, names[j],
				"Modules '%s' and '%s' define near-identical function sets (similarity %.2f)",
				names[i], names[j], similarity))
		}
	}

	classes := a.model.SortedClasses()
	for i := 0; i < len(classes); i++ {
		for j := i + 1; j < len(classes); j++ {
			x, y := classes[i], classes[j]
			if x.Module == y.Module || related(x, y) {
				continue
			}
			xs, ys := withoutDunder(x.MethodNames()), withoutDunder(y.MethodNames())
			if len(xs) < 2 || len(ys) < 2 {
				continue
			}
			similarity := setSimilarity(xs, ys, useOverlap)
			if similarity < t {
				continue
			}
			smells = append(smells, a.smell(domain.KindRedundantAbstractions, similarity, t, y.Module,
				"Classes '%s' and '%s' expose near-identical interfaces (similarity %.2f)",
				x.QualifiedName, y.QualifiedName, similarity))
		}
	}
	return smells
}

// moduleFunctionNames is the sorted set of distinct module-level function
// names.
func moduleFunctionNames(mod *ModuleFacts) []string {
	seen := make(map[string]bool, len(mod.Functions))
	for _, fn := range mod.Functions {
		seen[fn.Name] = true
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// setSimilarity compares method-name sets with Jaccard by default, or
// the overlap coefficient when configured.
func setSimilarity(a, b []string, useOverlap bool) float64 {
	shared := len(sharedNames(a, b))
	if useOverlap {
		smaller := len(a)
		if len(b) < smaller {
			smaller = len(b)
		}
		if smaller == 0 {
			return 0
		}
		return float64(shared) / float64(smaller)
	}
	union := len(a) + len(b) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}

// improperAPIUsage reports one external call repeated many times inside
// one module, usually a missing wrapper.
func (a *ArchitecturalAnalyzer) improperAPIUsage() []domain.Smell {
	t := a.cfg.Architectural(config.ImproperAPIRepetition)
	var smells []domain.Smell

	for _, modName := range a.model.ModuleNames {
		mod := a.model.Modules[modName]
		counts := make(map[string]int)
		record := func(calls []CallFact) {
			for _, call := range calls {
				root := call.Target()
				if root == "" || root == "self" || root == "cls" {
					continue
				}
				counts[strings.Join(call.Chain, ".")]++
			}
		}
		for _, fn := range mod.Functions {
			record(fn.Calls)
		}
		for _, c := range mod.Classes {
			for _, m := range c.Methods {
				record(m.Calls)
			}
		}

		for _, api := range sortedKeys(counts) {
			count := counts[api]
			if float64(count) >= t {
				smells = append(smells, a.smell(domain.KindImproperAPIUsage,
					float64(count), t, modName,
					"Module '%s' calls '%s' %d times directly", modName, api, count))
			}
		}
	}
	return smells
}

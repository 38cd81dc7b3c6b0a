package analyzer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pysmell/pysmell/domain"
	"github.com/pysmell/pysmell/internal/config"
	"github.com/pysmell/pysmell/internal/parser"
)

// CodeSmellAnalyzer runs the classic code smell catalogue over the model
type CodeSmellAnalyzer struct {
	cfg   *config.ThresholdConfig
	model *FactModel
}

func NewCodeSmellAnalyzer(cfg *config.ThresholdConfig, model *FactModel) *CodeSmellAnalyzer {
	return &CodeSmellAnalyzer{cfg: cfg, model: model}
}

// Detect runs every detector in a fixed order so output is stable
func (a *CodeSmellAnalyzer) Detect() []domain.Smell {
	var smells []domain.Smell

	for _, name := range a.model.ModuleNames {
		mod := a.model.Modules[name]
		for _, fn := range mod.Functions {
			smells = append(smells, a.functionSmells(fn, name)...)
		}
		for _, class := range mod.Classes {
			smells = append(smells, a.classSmells(class)...)
			for _, m := range class.Methods {
				smells = append(smells, a.functionSmells(&m.FunctionFact, class.QualifiedName)...)
			}
		}
		smells = append(smells, a.dataClumps(mod)...)
		smells = append(smells, a.switchStatements(mod)...)
	}

	smells = append(smells, a.refusedBequest()...)
	smells = append(smells, a.alternativeClasses()...)
	smells = append(smells, a.shotgunSurgery()...)

	return smells
}

func (a *CodeSmellAnalyzer) smell(kind string, metric, threshold float64, file, owner string, line int, format string, args ...any) domain.Smell {
	return domain.Smell{
		Category:    domain.CategoryCode,
		Kind:        kind,
		Description: fmt.Sprintf(format, args...),
		FilePath:    file,
		ModuleClass: owner,
		Line:        line,
		Severity:    domain.SeverityFor(metric, threshold),
		Metric:      metric,
		Threshold:   threshold,
	}
}

func (a *CodeSmellAnalyzer) functionSmells(fn *FunctionFact, owner string) []domain.Smell {
	var smells []domain.Smell

	if t := a.cfg.Code(config.LongMethodLines); float64(fn.BodyLines()) > t {
		smells = append(smells, a.smell(domain.KindLongMethod, float64(fn.BodyLines()), t,
			fn.FilePath, owner, fn.Line,
			"Function '%s' spans %d lines", fn.Name, fn.BodyLines()))
	}

	params := countedParams(fn)
	if t := a.cfg.Code(config.LongParameterList); float64(len(params)) > t {
		smells = append(smells, a.smell(domain.KindLongParameterList, float64(len(params)), t,
			fn.FilePath, owner, fn.Line,
			"Function '%s' takes %d parameters", fn.Name, len(params)))
	}

	primitives := 0
	for _, p := range params {
		if isPrimitiveAnnotation(p.Annotation) {
			primitives++
		}
	}
	if t := a.cfg.Code(config.PrimitiveObsession); float64(primitives) > t {
		smells = append(smells, a.smell(domain.KindPrimitiveObsession, float64(primitives), t,
			fn.FilePath, owner, fn.Line,
			"Function '%s' takes %d primitive-typed parameters", fn.Name, primitives))
	}

	if t := a.cfg.Code(config.MessageChainLength); float64(fn.LongestChain) > t {
		smells = append(smells, a.smell(domain.KindMessageChains, float64(fn.LongestChain), t,
			fn.FilePath, owner, fn.Line,
			"Function '%s' navigates an attribute chain of length %d", fn.Name, fn.LongestChain))
	}

	return smells
}

func (a *CodeSmellAnalyzer) classSmells(c *ClassFact) []domain.Smell {
	var smells []domain.Smell

	if t := a.cfg.Code(config.LargeClassMethods); float64(len(c.Methods)) > t {
		smells = append(smells, a.smell(domain.KindLargeClass, float64(len(c.Methods)), t,
			c.FilePath, c.QualifiedName, c.Line,
			"Class '%s' defines %d methods", c.Name, len(c.Methods)))
	}

	smells = append(smells, a.temporaryFields(c)...)
	smells = append(smells, a.divergentChange(c)...)
	smells = append(smells, a.featureEnvy(c)...)
	smells = append(smells, a.dataClass(c)...)
	smells = append(smells, a.lazyClass(c)...)
	smells = append(smells, a.middleMan(c)...)

	return smells
}

// temporaryFields reports instance fields assigned in __init__ and never
// touched by any other method.
func (a *CodeSmellAnalyzer) temporaryFields(c *ClassFact) []domain.Smell {
	var ctor *MethodFact
	for _, m := range c.Methods {
		if m.Name == "__init__" {
			ctor = m
			break
		}
	}
	if ctor == nil {
		return nil
	}

	var unused []string
	for field := range ctor.FieldsWritten {
		if strings.HasPrefix(field, "_") {
			continue
		}
		used := false
		for _, m := range c.Methods {
			if m == ctor {
				continue
			}
			if m.FieldsRead[field] || m.FieldsWritten[field] {
				used = true
				break
			}
		}
		if !used {
			unused = append(unused, field)
		}
	}
	if len(unused) == 0 {
		return nil
	}
	sort.Strings(unused)

	return []domain.Smell{{
		Category:    domain.CategoryCode,
		Kind:        domain.KindTemporaryField,
		Description: fmt.Sprintf("Class '%s' initializes fields used nowhere else: %s", c.Name, strings.Join(unused, ", ")),
		FilePath:    c.FilePath,
		ModuleClass: c.QualifiedName,
		Line:        ctor.Line,
		Severity:    domain.SeverityMedium,
		Metric:      float64(len(unused)),
		Threshold:   0,
	}}
}

// divergentChange reports classes whose method names split into many
// unrelated responsibility groups, grouped by leading name prefix.
func (a *CodeSmellAnalyzer) divergentChange(c *ClassFact) []domain.Smell {
	prefixes := make(map[string]bool)
	for _, m := range c.CountedMethods() {
		name := strings.TrimPrefix(m.Name, "_")
		if i := strings.Index(name, "_"); i > 0 {
			prefixes[name[:i]] = true
		} else if name != "" {
			prefixes[name] = true
		}
	}
	t := a.cfg.Code(config.DivergentChange)
	if float64(len(prefixes)) <= t {
		return nil
	}
	return []domain.Smell{a.smell(domain.KindDivergentChange, float64(len(prefixes)), t,
		c.FilePath, c.QualifiedName, c.Line,
		"Class '%s' groups %d unrelated method-name prefixes", c.Name, len(prefixes))}
}

// featureEnvy reports methods touching another object's attributes far
// more than their own.
func (a *CodeSmellAnalyzer) featureEnvy(c *ClassFact) []domain.Smell {
	var smells []domain.Smell
	t := a.cfg.Code(config.FeatureEnvyRatio)

	for _, m := range c.CountedMethods() {
		for _, target := range sortedKeys(m.ForeignAccesses) {
			count := m.ForeignAccesses[target]
			if count < 3 {
				continue
			}
			own := m.OwnAccesses
			if own == 0 {
				own = 1
			}
			ratio := float64(count) / float64(own)
			if ratio > t {
				smells = append(smells, a.smell(domain.KindFeatureEnvy, ratio, t,
					m.FilePath, c.QualifiedName, m.Line,
					"Method '%s' accesses '%s' %d times but its own state %d times",
					m.Name, target, count, m.OwnAccesses))
			}
		}
	}
	return smells
}

// dataClass reports classes that only hold state: no behavior beyond
// construction, properties, and trivial accessors.
func (a *CodeSmellAnalyzer) dataClass(c *ClassFact) []domain.Smell {
	if len(c.Fields) == 0 || c.IsAbstract {
		return nil
	}
	for _, m := range c.CountedMethods() {
		if !isAccessor(m.Name) {
			return nil
		}
	}
	return []domain.Smell{{
		Category:    domain.CategoryCode,
		Kind:        domain.KindDataClass,
		Description: fmt.Sprintf("Class '%s' holds %d fields but no behavior", c.Name, len(c.Fields)),
		FilePath:    c.FilePath,
		ModuleClass: c.QualifiedName,
		Line:        c.Line,
		Severity:    domain.SeverityMedium,
		Metric:      float64(len(c.Fields)),
		Threshold:   0,
	}}
}

func isAccessor(name string) bool {
	return strings.HasPrefix(name, "get_") || strings.HasPrefix(name, "set_") || strings.HasPrefix(name, "is_")
}

// lazyClass reports classes too small to justify their existence
func (a *CodeSmellAnalyzer) lazyClass(c *ClassFact) []domain.Smell {
	if c.IsAbstract || c.IsTest || len(c.Bases) > 0 {
		return nil
	}
	t := a.cfg.Code(config.LazyClassMethods)
	total := len(c.Methods)
	// a class at the threshold is still lazy
	if float64(total) > t || len(c.Fields) > 2 {
		return nil
	}
	return []domain.Smell{{
		Category:    domain.CategoryCode,
		Kind:        domain.KindLazyClass,
		Description: fmt.Sprintf("Class '%s' defines only %d methods", c.Name, total),
		FilePath:    c.FilePath,
		ModuleClass: c.QualifiedName,
		Line:        c.Line,
		Severity:    domain.SeverityMedium,
		Metric:      float64(total),
		Threshold:   t,
	}}
}

// middleMan reports classes where most methods only delegate to a field
func (a *CodeSmellAnalyzer) middleMan(c *ClassFact) []domain.Smell {
	counted := c.CountedMethods()
	if len(counted) < 2 {
		return nil
	}
	delegating := 0
	for _, m := range counted {
		if m.Delegating {
			delegating++
		}
	}
	ratio := float64(delegating) / float64(len(counted))
	t := a.cfg.Code(config.MiddleManRatio)
	if ratio <= t {
		return nil
	}
	return []domain.Smell{a.smell(domain.KindMiddleMan, ratio, t,
		c.FilePath, c.QualifiedName, c.Line,
		"Class '%s' delegates %d of its %d methods", c.Name, delegating, len(counted))}
}

// dataClumps reports parameter groups that travel together across the
// module's functions.
func (a *CodeSmellAnalyzer) dataClumps(mod *ModuleFacts) []domain.Smell {
	groupSize := int(a.cfg.Code(config.DataClumpsGroupSize))
	if groupSize < 2 {
		groupSize = 2
	}

	type fnParams struct {
		fn    *FunctionFact
		owner string
		names map[string]bool
	}
	var fns []fnParams
	collect := func(fn *FunctionFact, owner string) {
		names := make(map[string]bool)
		for _, p := range countedParams(fn) {
			names[p.Name] = true
		}
		if len(names) >= groupSize {
			fns = append(fns, fnParams{fn, owner, names})
		}
	}
	for _, fn := range mod.Functions {
		collect(fn, mod.Name)
	}
	for _, c := range mod.Classes {
		for _, m := range c.Methods {
			collect(&m.FunctionFact, c.QualifiedName)
		}
	}

	var smells []domain.Smell
	reported := make(map[string]bool)
	for i := 0; i < len(fns); i++ {
		for j := i + 1; j < len(fns); j++ {
			var shared []string
			for name := range fns[i].names {
				if fns[j].names[name] {
					shared = append(shared, name)
				}
			}
			if len(shared) < groupSize {
				continue
			}
			sort.Strings(shared)
			key := strings.Join(shared, ",")
			if reported[key] {
				continue
			}
			reported[key] = true
			smells = append(smells, a.smell(domain.KindDataClumps,
				float64(len(shared)), float64(groupSize),
				fns[j].fn.FilePath, fns[j].owner, fns[j].fn.Line,
				"Parameters (%s) recur in '%s' and '%s'",
				strings.Join(shared, ", "), fns[i].fn.Name, fns[j].fn.Name))
		}
	}
	return smells
}

// switchStatements reports long elif chains, Python's switch stand-in
func (a *CodeSmellAnalyzer) switchStatements(mod *ModuleFacts) []domain.Smell {
	t := a.cfg.Code(config.ComplexConditional)
	var smells []domain.Smell

	mod.AST.Walk(func(n *parser.Node) bool {
		if n.Type != parser.NodeIf {
			return true
		}
		branches := 1
		for _, alt := range n.Orelse {
			if alt.Type == parser.NodeElifClause {
				branches++
			}
		}
		if float64(branches) > t {
			smells = append(smells, a.smell(domain.KindSwitchStatements, float64(branches), t,
				mod.FilePath, mod.Name, n.Location.StartLine,
				"Conditional chain with %d branches", branches))
		}
		return true
	})
	return smells
}

// refusedBequest reports subclasses ignoring most of what they inherit
func (a *CodeSmellAnalyzer) refusedBequest() []domain.Smell {
	t := a.cfg.Code(config.RefusedBequestRatio)
	var smells []domain.Smell

	for _, c := range a.model.SortedClasses() {
		for _, base := range c.Bases {
			parent := a.model.ResolveClass(c.Module, stripGenerics(base))
			if parent == nil || parent == c {
				continue
			}
			inherited := parent.MethodNames()
			inherited = withoutDunder(inherited)
			if len(inherited) < 3 {
				continue
			}

			used := make(map[string]bool)
			for _, m := range c.Methods {
				for _, name := range inherited {
					if m.Name == name {
						used[name] = true
					}
				}
				for _, call := range m.Calls {
					if call.Target() == "self" || call.Target() == "super" {
						used[call.Name()] = true
					}
				}
			}
			unusedRatio := 1 - float64(countUsed(inherited, used))/float64(len(inherited))
			if unusedRatio > t {
				smells = append(smells, a.smell(domain.KindRefusedBequest, unusedRatio, t,
					c.FilePath, c.QualifiedName, c.Line,
					"Class '%s' uses little of what it inherits from '%s'", c.Name, parent.Name))
			}
		}
	}
	return smells
}

// alternativeClasses reports unrelated classes exposing near-identical
// method sets.
func (a *CodeSmellAnalyzer) alternativeClasses() []domain.Smell {
	t := a.cfg.Code(config.AlternativeClasses)
	classes := a.model.SortedClasses()
	var smells []domain.Smell

	for i := 0; i < len(classes); i++ {
		for j := i + 1; j < len(classes); j++ {
			x, y := classes[i], classes[j]
			if related(x, y) {
				continue
			}
			shared := sharedNames(withoutDunder(x.MethodNames()), withoutDunder(y.MethodNames()))
			if float64(len(shared)) < t {
				continue
			}
			smells = append(smells, a.smell(domain.KindAlternativeClasses, float64(len(shared)), t,
				y.FilePath, y.QualifiedName, y.Line,
				"Classes '%s' and '%s' share %d method names without a common base",
				x.Name, y.Name, len(shared)))
		}
	}
	return smells
}

// shotgunSurgery reports methods invoked from many call sites outside
// their own class. Every site counts, repeated calls from one function
// included.
func (a *CodeSmellAnalyzer) shotgunSurgery() []domain.Smell {
	t := a.cfg.Code(config.ShotgunSurgeryCalls)

	// sites[methodName][qualified caller] counts call sites
	sites := make(map[string]map[string]int)
	note := func(name, caller string) {
		if sites[name] == nil {
			sites[name] = make(map[string]int)
		}
		sites[name][caller]++
	}
	for _, modName := range a.model.ModuleNames {
		mod := a.model.Modules[modName]
		for _, fn := range mod.Functions {
			for _, call := range fn.Calls {
				if call.Target() != "" && call.Target() != "self" && call.Target() != "cls" {
					note(call.Name(), fn.QualifiedName)
				}
			}
		}
		for _, c := range mod.Classes {
			for _, m := range c.Methods {
				for _, call := range m.Calls {
					if call.Target() != "" && call.Target() != "self" && call.Target() != "cls" {
						note(call.Name(), c.QualifiedName)
					}
				}
			}
		}
	}

	var smells []domain.Smell
	for _, c := range a.model.SortedClasses() {
		for _, m := range c.CountedMethods() {
			count := 0
			for caller, n := range sites[m.Name] {
				if caller != c.QualifiedName {
					count += n
				}
			}
			if float64(count) > t {
				smells = append(smells, a.smell(domain.KindShotgunSurgery, float64(count), t,
					m.FilePath, c.QualifiedName, m.Line,
					"Method '%s' is called from %d places", m.Name, count))
			}
		}
	}
	return smells
}

func countedParams(fn *FunctionFact) []ParamFact {
	var out []ParamFact
	for _, p := range fn.Params {
		if p.Name == "self" || p.Name == "cls" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func isPrimitiveAnnotation(annotation string) bool {
	switch annotation {
	case "int", "str", "float", "bool", "bytes", "complex":
		return true
	}
	return false
}

func withoutDunder(names []string) []string {
	var out []string
	for _, name := range names {
		if strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__") {
			continue
		}
		out = append(out, name)
	}
	return out
}

func sharedNames(a, b []string) []string {
	set := make(map[string]bool, len(a))
	for _, name := range a {
		set[name] = true
	}
	var shared []string
	for _, name := range b {
		if set[name] {
			shared = append(shared, name)
		}
	}
	sort.Strings(shared)
	return shared
}

func related(a, b *ClassFact) bool {
	for _, base := range a.Bases {
		if stripGenerics(base) == b.Name {
			return true
		}
	}
	for _, base := range b.Bases {
		if stripGenerics(base) == a.Name {
			return true
		}
	}
	// shared named base
	bases := make(map[string]bool)
	for _, base := range a.Bases {
		bases[stripGenerics(base)] = true
	}
	for _, base := range b.Bases {
		if bases[stripGenerics(base)] {
			return true
		}
	}
	return false
}

func stripGenerics(base string) string {
	if i := strings.Index(base, "["); i >= 0 {
		base = base[:i]
	}
	if i := strings.LastIndex(base, "."); i >= 0 {
		base = base[i+1:]
	}
	return base
}

func countUsed(inherited []string, used map[string]bool) int {
	n := 0
	for _, name := range inherited {
		if used[name] {
			n++
		}
	}
	return n
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

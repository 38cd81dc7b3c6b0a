package analyzer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pysmell/pysmell/domain"
	"github.com/pysmell/pysmell/internal/config"
)

// StructuralAnalyzer computes the object-oriented metric suite over the
// assembled model and reports every metric exceeding its threshold.
type StructuralAnalyzer struct {
	cfg   *config.ThresholdConfig
	model *FactModel
	graph *DependencyGraph

	ditMemo map[string]int
}

func NewStructuralAnalyzer(cfg *config.ThresholdConfig, model *FactModel, graph *DependencyGraph) *StructuralAnalyzer {
	return &StructuralAnalyzer{
		cfg:     cfg,
		model:   model,
		graph:   graph,
		ditMemo: make(map[string]int),
	}
}

// Detect runs every structural metric and returns the smells in model
// order: classes by qualified name, then functions, then modules, then
// the project-wide metrics.
func (a *StructuralAnalyzer) Detect() []domain.Smell {
	var smells []domain.Smell

	for _, class := range a.model.SortedClasses() {
		smells = append(smells, a.classSmells(class)...)
	}

	for _, name := range a.model.ModuleNames {
		mod := a.model.Modules[name]
		for _, fn := range mod.Functions {
			smells = append(smells, a.functionSmells(fn, name)...)
		}
		for _, class := range mod.Classes {
			for _, m := range class.Methods {
				smells = append(smells, a.functionSmells(&m.FunctionFact, name+"."+class.Name)...)
			}
		}
		smells = append(smells, a.moduleSmells(mod)...)
	}

	smells = append(smells, a.projectSmells()...)

	return smells
}

// projectSmells reports the metrics computed over the project as a whole.
func (a *StructuralAnalyzer) projectSmells() []domain.Smell {
	var smells []domain.Smell

	noc := a.ProjectNOC()
	if t := a.adjustedNOCThreshold(); noc > t {
		smells = append(smells, domain.Smell{
			Category:    domain.CategoryStructural,
			Kind:        domain.KindHighNOC,
			Description: fmt.Sprintf("Project defines a weighted class count of %.4g", noc),
			ModuleClass: "project",
			Line:        1,
			Severity:    domain.SeverityFor(noc, t),
			Metric:      noc,
			Threshold:   t,
		})
	}

	return smells
}

func (a *StructuralAnalyzer) classSmells(c *ClassFact) []domain.Smell {
	var smells []domain.Smell
	add := func(kind string, metric, threshold float64, format string, args ...any) {
		smells = append(smells, domain.Smell{
			Category:    domain.CategoryStructural,
			Kind:        kind,
			Description: fmt.Sprintf(format, args...),
			FilePath:    c.FilePath,
			ModuleClass: c.QualifiedName,
			Line:        c.Line,
			Severity:    domain.SeverityFor(metric, threshold),
			Metric:      metric,
			Threshold:   threshold,
		})
	}

	wmc := WMC(c)
	if t := a.cfg.Structural(config.WMCThreshold); float64(wmc) > t {
		add(domain.KindHighWMC, float64(wmc), t, "Class '%s' has a weighted method count of %d", c.Name, wmc)
	}

	nom := len(c.CountedMethods())
	if t := a.cfg.Structural(config.NOMThreshold); float64(nom) > t {
		add(domain.KindHighNOM, float64(nom), t, "Class '%s' defines %d methods", c.Name, nom)
	}

	size2 := nom + len(c.Fields)
	if t := a.cfg.Structural(config.Size2Threshold); float64(size2) > t {
		add(domain.KindLargeSize2, float64(size2), t, "Class '%s' has %d methods and attributes combined", c.Name, size2)
	}

	lcom := LCOM(c)
	if t := a.cfg.Structural(config.LCOMThreshold); float64(lcom) > t {
		add(domain.KindHighLCOM, float64(lcom), t, "Class '%s' has low cohesion (LCOM %d)", c.Name, lcom)
	}

	cbo := len(a.CoupledClasses(c))
	if t := a.cfg.Structural(config.CBOThreshold); float64(cbo) > t {
		add(domain.KindHighCBO, float64(cbo), t, "Class '%s' is coupled to %d other classes", c.Name, cbo)
	}

	rfc := a.RFC(c)
	if t := a.cfg.Structural(config.RFCThreshold); float64(rfc) > t {
		add(domain.KindHighRFC, float64(rfc), t, "Class '%s' has a response set of %d", c.Name, rfc)
	}

	dit := a.DIT(c)
	if t := a.cfg.Structural(config.DITThreshold); float64(dit) > t {
		add(domain.KindDeepDIT, float64(dit), t, "Class '%s' sits %d levels deep in its inheritance tree", c.Name, dit)
	}

	return smells
}

func (a *StructuralAnalyzer) functionSmells(fn *FunctionFact, owner string) []domain.Smell {
	var smells []domain.Smell
	add := func(kind string, metric, threshold float64, format string, args ...any) {
		smells = append(smells, domain.Smell{
			Category:    domain.CategoryStructural,
			Kind:        kind,
			Description: fmt.Sprintf(format, args...),
			FilePath:    fn.FilePath,
			ModuleClass: owner,
			Line:        fn.Line,
			Severity:    domain.SeverityFor(metric, threshold),
			Metric:      metric,
			Threshold:   threshold,
		})
	}

	if t := a.cfg.Structural(config.CyclomaticComplexity); float64(fn.Complexity) > t {
		add(domain.KindHighComplexity, float64(fn.Complexity), t,
			"Function '%s' has cyclomatic complexity %d", fn.Name, fn.Complexity)
	}

	branchT := a.cfg.Structural(config.MaxBranches)
	nestT := a.cfg.Structural(config.MaxNestingDepth)
	if float64(fn.BranchCount) > branchT {
		add(domain.KindTooManyBranch, float64(fn.BranchCount), branchT,
			"Function '%s' has %d branch statements", fn.Name, fn.BranchCount)
	} else if float64(fn.MaxNesting) > nestT {
		add(domain.KindTooManyBranch, float64(fn.MaxNesting), nestT,
			"Function '%s' nests control flow %d levels deep", fn.Name, fn.MaxNesting)
	}

	return smells
}

func (a *StructuralAnalyzer) moduleSmells(mod *ModuleFacts) []domain.Smell {
	var smells []domain.Smell
	add := func(kind string, metric, threshold float64, line int, format string, args ...any) {
		smells = append(smells, domain.Smell{
			Category:    domain.CategoryStructural,
			Kind:        kind,
			Description: fmt.Sprintf(format, args...),
			FilePath:    mod.FilePath,
			ModuleClass: mod.Name,
			Line:        line,
			Severity:    domain.SeverityFor(metric, threshold),
			Metric:      metric,
			Threshold:   threshold,
		})
	}

	loc := mod.LOC.Effective()
	if t := a.cfg.Structural(config.LOCThreshold); float64(loc) > t {
		add(domain.KindHighLOC, float64(loc), t, 1,
			"Module '%s' has %d effective lines of code", mod.Name, loc)
	}

	fanIn := a.graph.FanIn(mod.Name)
	if t := a.cfg.Structural(config.MaxFanIn); float64(fanIn) > t {
		add(domain.KindHighFanIn, float64(fanIn), t, 1,
			"Module '%s' is imported by %d modules", mod.Name, fanIn)
	}

	fanOut := a.graph.FanOut(mod.Name)
	if t := a.cfg.Structural(config.MaxFanOut); float64(fanOut) > t {
		add(domain.KindHighFanOut, float64(fanOut), t, 1,
			"Module '%s' imports %d modules", mod.Name, fanOut)
	}

	return smells
}

// WMC sums the cyclomatic complexity of every method
func WMC(c *ClassFact) int {
	total := 0
	for _, m := range c.Methods {
		total += m.Complexity
	}
	return total
}

// LCOM is the lack of cohesion of methods: over all counted method pairs,
// the number of pairs sharing no instance field minus the number sharing
// at least one. Classes with fewer than two counted methods score 0. The
// value may be negative for cohesive classes; it is reported as is.
func LCOM(c *ClassFact) int {
	methods := c.CountedMethods()
	if len(methods) < 2 {
		return 0
	}

	fieldSets := make([]map[string]bool, len(methods))
	for i, m := range methods {
		set := make(map[string]bool)
		for _, f := range m.FieldsUsed() {
			set[f] = true
		}
		fieldSets[i] = set
	}

	p, q := 0, 0
	for i := 0; i < len(methods); i++ {
		for j := i + 1; j < len(methods); j++ {
			if shareField(fieldSets[i], fieldSets[j]) {
				q++
			} else {
				p++
			}
		}
	}
	return p - q
}

func shareField(a, b map[string]bool) bool {
	for f := range a {
		if b[f] {
			return true
		}
	}
	return false
}

// CoupledClasses resolves the distinct project classes the class depends
// on: base classes, parameter annotations, direct references to class
// names, and calls through receivers whose type is locally inferable.
// Receivers whose type cannot be determined contribute nothing.
func (a *StructuralAnalyzer) CoupledClasses(c *ClassFact) []string {
	coupled := make(map[string]bool)
	couple := func(target *ClassFact) {
		if target != nil && target.QualifiedName != c.QualifiedName {
			coupled[target.QualifiedName] = true
		}
	}

	for _, base := range c.Bases {
		couple(a.resolveTypeName(c.Module, base))
	}

	fieldTypes := a.inferFieldTypes(c)
	for _, m := range c.Methods {
		locals := a.inferLocalTypes(c, m)
		for _, p := range m.Params {
			if p.Annotation != "" {
				couple(a.resolveTypeName(c.Module, p.Annotation))
			}
		}
		for _, call := range m.Calls {
			root := call.Chain[0]
			if len(call.Chain) == 1 {
				// bare call, a constructor when the name is a class
				couple(a.resolveTypeName(c.Module, root))
				continue
			}
			if root == "self" || root == "cls" {
				if len(call.Chain) >= 3 {
					couple(fieldTypes[call.Chain[1]])
				}
				continue
			}
			if target := locals[root]; target != nil {
				couple(target)
				continue
			}
			// ClassName.method() style access
			couple(a.resolveTypeName(c.Module, root))
		}
	}

	names := make([]string, 0, len(coupled))
	for name := range coupled {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// inferLocalTypes maps a method's local names to project classes using
// parameter annotations and direct constructor assignments.
func (a *StructuralAnalyzer) inferLocalTypes(c *ClassFact, m *MethodFact) map[string]*ClassFact {
	locals := make(map[string]*ClassFact)
	for _, p := range m.Params {
		if p.Annotation != "" {
			if target := a.resolveTypeName(c.Module, p.Annotation); target != nil {
				locals[p.Name] = target
			}
		}
	}
	return locals
}

// inferFieldTypes maps instance fields to project classes when a field is
// assigned a direct constructor call in any method. Fields assigned
// anything else stay untyped.
func (a *StructuralAnalyzer) inferFieldTypes(c *ClassFact) map[string]*ClassFact {
	types := make(map[string]*ClassFact)
	for _, m := range c.Methods {
		fields := make([]string, 0, len(m.FieldConstructors))
		for f := range m.FieldConstructors {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		for _, f := range fields {
			if _, known := types[f]; known {
				continue
			}
			if target := a.resolveTypeName(c.Module, m.FieldConstructors[f]); target != nil {
				types[f] = target
			}
		}
	}
	return types
}

// resolveTypeName resolves a dotted or simple type name to a project
// class, nil when it names nothing in the project.
func (a *StructuralAnalyzer) resolveTypeName(module, name string) *ClassFact {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	if i := strings.LastIndex(name, "."); i >= 0 {
		// qualified access, try the full dotted form as module.Class
		if c, ok := a.model.Classes[name]; ok {
			return c
		}
		name = name[i+1:]
	}
	return a.model.ResolveClass(module, name)
}

// RFC is the response for a class: the counted methods plus every distinct
// call signature invoked on something other than the class itself.
func (a *StructuralAnalyzer) RFC(c *ClassFact) int {
	own := make(map[string]bool, len(c.Methods))
	for _, m := range c.Methods {
		own[m.Name] = true
	}

	external := make(map[string]bool)
	for _, m := range c.Methods {
		for _, call := range m.Calls {
			root := call.Target()
			if (root == "self" || root == "cls") && len(call.Chain) == 2 && own[call.Name()] {
				continue
			}
			external[strings.Join(call.Chain, ".")] = true
		}
	}
	return len(c.CountedMethods()) + len(external)
}

// DIT is the depth of the inheritance tree. Classes without bases score 0.
// A base that cannot be resolved inside the project terminates its branch
// with depth 1.
func (a *StructuralAnalyzer) DIT(c *ClassFact) int {
	return a.ditWalk(c, map[string]bool{})
}

func (a *StructuralAnalyzer) ditWalk(c *ClassFact, visiting map[string]bool) int {
	if depth, ok := a.ditMemo[c.QualifiedName]; ok {
		return depth
	}
	if visiting[c.QualifiedName] {
		return 0
	}
	visiting[c.QualifiedName] = true
	defer delete(visiting, c.QualifiedName)

	depth := 0
	for _, base := range c.Bases {
		if isObjectBase(base) {
			continue
		}
		d := 1
		if parent := a.resolveTypeName(c.Module, base); parent != nil {
			d = 1 + a.ditWalk(parent, visiting)
		}
		if d > depth {
			depth = d
		}
	}
	a.ditMemo[c.QualifiedName] = depth
	return depth
}

func isObjectBase(base string) bool {
	return base == "object"
}

// ProjectNOC counts every class in the project with weights: regular
// classes 1, abstract 0.75, utility 0.5, test classes 0.
func (a *StructuralAnalyzer) ProjectNOC() float64 {
	total := 0.0
	for _, c := range a.model.SortedClasses() {
		switch {
		case c.IsTest:
		case c.IsAbstract:
			total += 0.75
		case c.IsUtility:
			total += 0.5
		default:
			total += 1
		}
	}
	return total
}

// adjustedNOCThreshold relaxes the NOC threshold on larger codebases
func (a *StructuralAnalyzer) adjustedNOCThreshold() float64 {
	t := a.cfg.Structural(config.NOCThreshold)
	switch {
	case float64(a.model.TotalLOC) > a.cfg.Structural(config.NOCSizeBandLargeLOC):
		return t * a.cfg.Structural(config.NOCSizeFactorLarge)
	case float64(a.model.TotalLOC) > a.cfg.Structural(config.NOCSizeBandMediumLOC):
		return t * a.cfg.Structural(config.NOCSizeFactorMedium)
	default:
		return t
	}
}

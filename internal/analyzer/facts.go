package analyzer

import (
	"sort"
	"strings"

	"github.com/pysmell/pysmell/internal/parser"
)

// ParamFact describes one declared parameter of a function or method
type ParamFact struct {
	Name       string
	Annotation string
	HasDefault bool
}

// CallFact is one call expression observed in a body. Chain holds the full
// attribute path of the callee, e.g. self.db.connect() yields
// ["self", "db", "connect"].
type CallFact struct {
	Chain    []string
	Line     int
	ArgCount int
}

// Target returns the receiver part of the chain, empty for bare calls
func (c CallFact) Target() string {
	if len(c.Chain) < 2 {
		return ""
	}
	return c.Chain[0]
}

// Name returns the called name, the last chain element
func (c CallFact) Name() string {
	if len(c.Chain) == 0 {
		return ""
	}
	return c.Chain[len(c.Chain)-1]
}

// FunctionFact describes one function, free or method
type FunctionFact struct {
	Name          string
	QualifiedName string
	Module        string
	FilePath      string
	Line          int
	EndLine       int
	Params        []ParamFact
	Decorators    []string
	IsAsync       bool

	Complexity  int
	BranchCount int
	MaxNesting  int
	Calls       []CallFact

	// LongestChain is the deepest attribute access chain in the body,
	// counting attribute hops
	LongestChain int
}

// BodyLines is the line span of the definition
func (f *FunctionFact) BodyLines() int {
	return f.EndLine - f.Line + 1
}

// MethodFact is a FunctionFact inside a class, with field-access facts
type MethodFact struct {
	FunctionFact

	IsProperty    bool
	IsStatic      bool
	IsClassMethod bool
	IsAbstract    bool
	IsDunder      bool

	// FieldsRead and FieldsWritten are self attribute accesses
	FieldsRead    map[string]bool
	FieldsWritten map[string]bool

	// OwnAccesses counts self attribute accesses; ForeignAccesses counts
	// attribute accesses per other receiver name
	OwnAccesses     int
	ForeignAccesses map[string]int

	// FieldConstructors maps each receiver field to the name whose bare
	// constructor call it is assigned in this method, field by field
	FieldConstructors map[string]string

	// Stub marks a body that is a lone pass or raise NotImplementedError
	Stub bool

	// Delegating marks a body that only forwards to a field's method
	Delegating bool
}

// FieldsUsed returns every field the method touches, sorted
func (m *MethodFact) FieldsUsed() []string {
	set := make(map[string]bool, len(m.FieldsRead)+len(m.FieldsWritten))
	for f := range m.FieldsRead {
		set[f] = true
	}
	for f := range m.FieldsWritten {
		set[f] = true
	}
	fields := make([]string, 0, len(set))
	for f := range set {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// ClassFact describes one class definition
type ClassFact struct {
	Name          string
	QualifiedName string
	Module        string
	FilePath      string
	Line          int
	EndLine       int
	Bases         []string
	Decorators    []string
	Methods       []*MethodFact

	// Fields is the union of instance fields assigned through self plus
	// annotated class-body attributes, sorted
	Fields []string

	IsAbstract bool
	IsTest     bool
	IsUtility  bool
}

// MethodNames returns the defined method names, sorted
func (c *ClassFact) MethodNames() []string {
	names := make([]string, 0, len(c.Methods))
	for _, m := range c.Methods {
		names = append(names, m.Name)
	}
	sort.Strings(names)
	return names
}

// CountedMethods returns methods included in NOM: dunder methods and
// properties are excluded.
func (c *ClassFact) CountedMethods() []*MethodFact {
	counted := make([]*MethodFact, 0, len(c.Methods))
	for _, m := range c.Methods {
		if m.IsDunder || m.IsProperty {
			continue
		}
		counted = append(counted, m)
	}
	return counted
}

// ImportFact is one import statement
type ImportFact struct {
	// Module is the dotted source module; empty for "from . import x"
	Module string
	// Names are the imported bindings; ["*"] for wildcard imports, nil
	// for plain "import m"
	Names []string
	// Level counts leading dots of a relative import
	Level  int
	IsFrom bool
	Line   int
}

// LOCMetrics split a module's lines by kind
type LOCMetrics struct {
	Total   int
	Code    int
	Doc     int
	Imports int
	Blank   int
}

// Effective is the line count thresholds apply to: code lines only,
// excluding blank, documentation, and import lines.
func (l LOCMetrics) Effective() int {
	return l.Code
}

// ModuleFacts holds everything extracted from one source file
type ModuleFacts struct {
	// Name is the dotted module path relative to the project root
	Name     string
	FilePath string
	Encoding string

	Classes   []*ClassFact
	Functions []*FunctionFact
	Imports   []ImportFact
	LOC       LOCMetrics

	// AST is retained for detectors that walk raw syntax
	AST *parser.Node
}

// FunctionCount counts functions plus methods defined in the module
func (m *ModuleFacts) FunctionCount() int {
	n := len(m.Functions)
	for _, c := range m.Classes {
		n += len(c.Methods)
	}
	return n
}

// PublicFunctionCount counts functions plus methods whose names do not
// start with an underscore.
func (m *ModuleFacts) PublicFunctionCount() int {
	n := 0
	for _, f := range m.Functions {
		if !strings.HasPrefix(f.Name, "_") {
			n++
		}
	}
	for _, c := range m.Classes {
		for _, meth := range c.Methods {
			if !strings.HasPrefix(meth.Name, "_") {
				n++
			}
		}
	}
	return n
}

// FactModel is the immutable project-wide view every detector reads.
// Assemble it once from extraction results; never mutate it afterwards.
type FactModel struct {
	Modules     map[string]*ModuleFacts
	ModuleNames []string

	// Classes indexes every class by qualified name module.Class
	Classes map[string]*ClassFact

	// TotalLOC is the project-wide total line count
	TotalLOC int
}

// NewFactModel assembles the project model from per-module facts. Input
// order does not matter; the model's iteration orders are sorted.
func NewFactModel(modules []*ModuleFacts) *FactModel {
	m := &FactModel{
		Modules: make(map[string]*ModuleFacts, len(modules)),
		Classes: make(map[string]*ClassFact),
	}
	for _, mod := range modules {
		m.Modules[mod.Name] = mod
		m.ModuleNames = append(m.ModuleNames, mod.Name)
		m.TotalLOC += mod.LOC.Total
		for _, c := range mod.Classes {
			m.Classes[c.QualifiedName] = c
		}
	}
	sort.Strings(m.ModuleNames)
	return m
}

// SortedClasses returns every class ordered by qualified name
func (m *FactModel) SortedClasses() []*ClassFact {
	names := make([]string, 0, len(m.Classes))
	for name := range m.Classes {
		names = append(names, name)
	}
	sort.Strings(names)
	classes := make([]*ClassFact, len(names))
	for i, name := range names {
		classes[i] = m.Classes[name]
	}
	return classes
}

// ResolveClass finds a class by simple or qualified name, preferring the
// given module's own classes.
func (m *FactModel) ResolveClass(module, name string) *ClassFact {
	if c, ok := m.Classes[module+"."+name]; ok {
		return c
	}
	if c, ok := m.Classes[name]; ok {
		return c
	}
	// unique simple-name match across the project
	var found *ClassFact
	for _, qualified := range m.sortedClassNames() {
		c := m.Classes[qualified]
		if c.Name == name {
			if found != nil {
				return nil
			}
			found = c
		}
	}
	return found
}

func (m *FactModel) sortedClassNames() []string {
	names := make([]string, 0, len(m.Classes))
	for name := range m.Classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

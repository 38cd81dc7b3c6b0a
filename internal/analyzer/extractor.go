package analyzer

import (
	"sort"
	"strings"

	"github.com/pysmell/pysmell/internal/parser"
)

// ExtractModule turns one parsed file into the facts the detectors read.
// Extraction is purely syntactic; cross-module resolution happens later on
// the assembled model.
func ExtractModule(name, filePath string, result *parser.ParseResult) *ModuleFacts {
	mod := &ModuleFacts{
		Name:     name,
		FilePath: filePath,
		Encoding: result.Encoding,
		AST:      result.AST,
		LOC:      CountLOC(result.Source, result.AST),
	}

	for _, stmt := range result.AST.Body {
		switch {
		case stmt.Type == parser.NodeClassDef:
			mod.Classes = append(mod.Classes, extractClass(stmt, name, filePath))
		case stmt.IsFunction():
			mod.Functions = append(mod.Functions, extractFunction(stmt, name, filePath, name))
		}
	}

	// imports anywhere in the file, including guarded and lazy ones
	result.AST.Walk(func(n *parser.Node) bool {
		switch n.Type {
		case parser.NodeImport:
			for _, imported := range n.Names {
				mod.Imports = append(mod.Imports, ImportFact{
					Module: imported,
					Line:   n.Location.StartLine,
				})
			}
		case parser.NodeImportFrom:
			// Names holds the real imported names for plain and aliased
			// imports alike
			names := append([]string(nil), n.Names...)
			mod.Imports = append(mod.Imports, ImportFact{
				Module: n.Module,
				Names:  names,
				Level:  n.Level,
				IsFrom: true,
				Line:   n.Location.StartLine,
			})
		}
		return true
	})

	return mod
}

func extractFunction(def *parser.Node, module, filePath, qualifier string) *FunctionFact {
	fn := &FunctionFact{
		Name:          def.Name,
		QualifiedName: qualifier + "." + def.Name,
		Module:        module,
		FilePath:      filePath,
		Line:          def.Location.StartLine,
		EndLine:       def.Location.EndLine,
		IsAsync:       def.Type == parser.NodeAsyncFunctionDef,
	}

	for _, arg := range def.Args {
		fn.Params = append(fn.Params, ParamFact{
			Name:       arg.Name,
			Annotation: exprText(arg.Annotation),
			HasDefault: arg.Value != nil,
		})
	}
	for _, dec := range def.Decorators {
		fn.Decorators = append(fn.Decorators, dec.Name)
	}

	cc := CalculateComplexity(def)
	fn.Complexity = cc.Complexity
	fn.BranchCount = cc.BranchCount
	fn.MaxNesting = cc.MaxNesting

	for _, stmt := range def.Body {
		stmt.Walk(func(n *parser.Node) bool {
			switch n.Type {
			case parser.NodeClassDef:
				return false
			case parser.NodeCall:
				if chain := attrChain(n.Value); len(chain) > 0 {
					fn.Calls = append(fn.Calls, CallFact{
						Chain:    chain,
						Line:     n.Location.StartLine,
						ArgCount: len(n.Args) + len(n.Keywords),
					})
				}
			case parser.NodeAttribute:
				if depth := chainDepth(n); depth > fn.LongestChain {
					fn.LongestChain = depth
				}
			}
			return true
		})
	}

	return fn
}

func extractMethod(def *parser.Node, module, filePath, className string) *MethodFact {
	m := &MethodFact{
		FunctionFact:      *extractFunction(def, module, filePath, module+"."+className),
		FieldsRead:        make(map[string]bool),
		FieldsWritten:     make(map[string]bool),
		ForeignAccesses:   make(map[string]int),
		FieldConstructors: make(map[string]string),
	}
	m.IsDunder = strings.HasPrefix(m.Name, "__") && strings.HasSuffix(m.Name, "__")

	for _, dec := range m.Decorators {
		switch trimDecorator(dec) {
		case "property", "cached_property":
			m.IsProperty = true
		case "staticmethod":
			m.IsStatic = true
		case "classmethod":
			m.IsClassMethod = true
		case "abstractmethod", "abstractproperty":
			m.IsAbstract = true
		}
	}

	receiver := "self"
	if m.IsClassMethod {
		receiver = "cls"
	}
	for _, stmt := range def.Body {
		collectFieldAccesses(stmt, receiver, false, m)
	}

	m.Delegating = isDelegating(def, receiver)
	m.Stub = isStubBody(def)
	return m
}

// collectFieldAccesses records receiver attribute reads and writes plus
// foreign attribute access counts. Assignment targets are visited in write
// position, everything else in read position.
func collectFieldAccesses(n *parser.Node, receiver string, write bool, m *MethodFact) {
	if n == nil {
		return
	}
	if n.Type == parser.NodeFunctionDef || n.Type == parser.NodeAsyncFunctionDef || n.Type == parser.NodeClassDef {
		return
	}

	if n.Type == parser.NodeAttribute {
		root := chainRoot(n)
		if root == receiver {
			m.OwnAccesses++
			// only direct receiver fields count, self.a.b reads field a
			if n.Value != nil && n.Value.Type == parser.NodeName && n.Value.Name == receiver {
				if write {
					m.FieldsWritten[n.Name] = true
				} else {
					m.FieldsRead[n.Name] = true
				}
			} else {
				collectFieldAccesses(n.Value, receiver, false, m)
			}
			return
		}
		if root != "" && root != receiver {
			m.ForeignAccesses[root]++
		}
	}

	switch n.Type {
	case parser.NodeAssign, parser.NodeAnnAssign, parser.NodeAugAssign:
		if n.Type != parser.NodeAugAssign {
			recordFieldConstructor(n, receiver, m)
		}
		for _, target := range n.Targets {
			collectFieldAccesses(target, receiver, true, m)
		}
		collectFieldAccesses(n.Value, receiver, false, m)
		collectFieldAccesses(n.Annotation, receiver, false, m)
		return
	}

	for _, child := range []*parser.Node{n.Test, n.Iter, n.Value, n.Annotation, n.Returns} {
		collectFieldAccesses(child, receiver, false, m)
	}
	for _, slice := range [][]*parser.Node{n.Children, n.Body, n.Orelse, n.Handlers, n.Finalbody, n.Targets, n.Args, n.Keywords} {
		for _, child := range slice {
			collectFieldAccesses(child, receiver, write, m)
		}
	}
}

// recordFieldConstructor pairs a bare constructor call with the receiver
// field it is assigned to: self.field = Name(...). Only the assignment's
// own targets are paired, other values never type a field.
func recordFieldConstructor(n *parser.Node, receiver string, m *MethodFact) {
	if n.Value == nil || n.Value.Type != parser.NodeCall {
		return
	}
	chain := attrChain(n.Value.Value)
	if len(chain) != 1 {
		return
	}
	for _, target := range n.Targets {
		if target.Type != parser.NodeAttribute {
			continue
		}
		if target.Value != nil && target.Value.Type == parser.NodeName && target.Value.Name == receiver {
			m.FieldConstructors[target.Name] = chain[0]
		}
	}
}

// isStubBody reports a body that is, after any docstring, a lone pass
// statement or a raise of NotImplementedError.
func isStubBody(def *parser.Node) bool {
	body := def.Body
	if len(body) > 0 && body[0].IsStringConstant() {
		body = body[1:]
	}
	if len(body) != 1 {
		return false
	}
	switch body[0].Type {
	case parser.NodePass:
		return true
	case parser.NodeRaise:
		exc := body[0].Value
		if exc != nil && exc.Type == parser.NodeCall {
			exc = exc.Value
		}
		return exc != nil && exc.Type == parser.NodeName && exc.Name == "NotImplementedError"
	}
	return false
}

// isDelegating reports a body whose only statement forwards to a field:
// return self.field.method(...)
func isDelegating(def *parser.Node, receiver string) bool {
	body := def.Body
	if len(body) > 0 && body[0].IsStringConstant() {
		body = body[1:]
	}
	if len(body) != 1 || body[0].Type != parser.NodeReturn {
		return false
	}
	call := body[0].Value
	if call == nil || call.Type != parser.NodeCall {
		return false
	}
	chain := attrChain(call.Value)
	return len(chain) >= 3 && chain[0] == receiver
}

func extractClass(def *parser.Node, module, filePath string) *ClassFact {
	c := &ClassFact{
		Name:          def.Name,
		QualifiedName: module + "." + def.Name,
		Module:        module,
		FilePath:      filePath,
		Line:          def.Location.StartLine,
		EndLine:       def.Location.EndLine,
	}
	for _, base := range def.Bases {
		if name := exprText(base); name != "" {
			c.Bases = append(c.Bases, name)
		}
	}
	for _, dec := range def.Decorators {
		c.Decorators = append(c.Decorators, dec.Name)
	}

	fields := make(map[string]bool)
	for _, stmt := range def.Body {
		switch {
		case stmt.IsFunction():
			m := extractMethod(stmt, module, filePath, def.Name)
			c.Methods = append(c.Methods, m)
			for f := range m.FieldsWritten {
				fields[f] = true
			}
		case stmt.Type == parser.NodeAnnAssign, stmt.Type == parser.NodeAssign:
			for _, target := range stmt.Targets {
				if target.Type == parser.NodeName && !strings.HasPrefix(target.Name, "__") {
					fields[target.Name] = true
				}
			}
		}
	}
	for f := range fields {
		c.Fields = append(c.Fields, f)
	}
	sort.Strings(c.Fields)

	c.IsAbstract = classIsAbstract(c)
	c.IsTest = classIsTest(c, module)
	c.IsUtility = classIsUtility(c)
	return c
}

func classIsAbstract(c *ClassFact) bool {
	for _, base := range c.Bases {
		switch base {
		case "ABC", "abc.ABC", "ABCMeta", "abc.ABCMeta", "Protocol", "typing.Protocol":
			return true
		}
	}
	for _, m := range c.Methods {
		if m.IsAbstract {
			return true
		}
	}
	// interface-style classes: every method body is pass or raises
	// NotImplementedError
	if len(c.Methods) > 0 {
		allStubs := true
		for _, m := range c.Methods {
			if !m.Stub {
				allStubs = false
				break
			}
		}
		if allStubs {
			return true
		}
	}
	return false
}

func classIsTest(c *ClassFact, module string) bool {
	if strings.HasPrefix(c.Name, "Test") || strings.HasSuffix(c.Name, "Test") || strings.HasSuffix(c.Name, "TestCase") {
		return true
	}
	for _, base := range c.Bases {
		if strings.HasSuffix(base, "TestCase") {
			return true
		}
	}
	last := module
	if i := strings.LastIndex(module, "."); i >= 0 {
		last = module[i+1:]
	}
	return strings.HasPrefix(last, "test_") || strings.HasSuffix(last, "_test")
}

func classIsUtility(c *ClassFact) bool {
	name := strings.ToLower(c.Name)
	if strings.Contains(name, "util") || strings.Contains(name, "helper") || strings.Contains(name, "mixin") {
		return true
	}
	if len(c.Methods) == 0 {
		return false
	}
	for _, m := range c.Methods {
		if !m.IsStatic && !m.IsClassMethod {
			return false
		}
	}
	return true
}

// attrChain flattens a callee or attribute expression into its dotted
// parts. Unresolvable receivers such as calls or subscripts yield only the
// trailing known parts.
func attrChain(n *parser.Node) []string {
	switch {
	case n == nil:
		return nil
	case n.Type == parser.NodeName:
		return []string{n.Name}
	case n.Type == parser.NodeAttribute:
		base := attrChain(n.Value)
		return append(base, n.Name)
	default:
		return nil
	}
}

// chainRoot returns the leftmost simple name of an attribute chain
func chainRoot(n *parser.Node) string {
	for n != nil && n.Type == parser.NodeAttribute {
		n = n.Value
	}
	if n != nil && n.Type == parser.NodeName {
		return n.Name
	}
	return ""
}

// chainDepth counts attribute hops in a chain: a.b.c is 2
func chainDepth(n *parser.Node) int {
	depth := 0
	for n != nil && n.Type == parser.NodeAttribute {
		depth++
		n = n.Value
	}
	return depth
}

// exprText renders a simple expression back to its dotted source form
func exprText(n *parser.Node) string {
	switch {
	case n == nil:
		return ""
	case n.Type == parser.NodeName:
		return n.Name
	case n.Type == parser.NodeAttribute:
		base := exprText(n.Value)
		if base == "" {
			return n.Name
		}
		return base + "." + n.Name
	case n.Type == parser.NodeSubscript:
		return exprText(n.Value)
	case n.Type == parser.NodeCall:
		return exprText(n.Value)
	default:
		return ""
	}
}

func trimDecorator(dec string) string {
	if i := strings.LastIndex(dec, "."); i >= 0 {
		return dec[i+1:]
	}
	return dec
}

package analyzer

import (
	"strings"

	"github.com/pysmell/pysmell/internal/parser"
)

// CountLOC classifies every line of a module. Docstrings are found
// syntactically: the leading string-expression statement of the module and
// of each class and function body. Lines inside a docstring and lines whose
// first token is a comment count as documentation.
func CountLOC(source []byte, ast *parser.Node) LOCMetrics {
	lines := strings.Split(string(source), "\n")
	// trailing newline produces one empty pseudo-line
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	docLines := make(map[int]bool)
	importLines := make(map[int]bool)
	if ast != nil {
		for _, ds := range docstringNodes(ast) {
			for line := ds.Location.StartLine; line <= ds.Location.EndLine; line++ {
				docLines[line] = true
			}
		}
		ast.Walk(func(n *parser.Node) bool {
			if n.Type == parser.NodeImport || n.Type == parser.NodeImportFrom {
				for line := n.Location.StartLine; line <= n.Location.EndLine; line++ {
					importLines[line] = true
				}
			}
			return true
		})
	}

	var m LOCMetrics
	m.Total = len(lines)
	for i, line := range lines {
		lineNo := i + 1
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			m.Blank++
		case docLines[lineNo]:
			m.Doc++
		case strings.HasPrefix(trimmed, "#"):
			m.Doc++
		case importLines[lineNo]:
			m.Imports++
		default:
			m.Code++
		}
	}
	return m
}

// docstringNodes collects the leading string-expression of every scope
func docstringNodes(ast *parser.Node) []*parser.Node {
	var out []*parser.Node
	ast.Walk(func(n *parser.Node) bool {
		switch n.Type {
		case parser.NodeModule, parser.NodeClassDef, parser.NodeFunctionDef, parser.NodeAsyncFunctionDef:
			if ds := leadingDocstring(n.Body); ds != nil {
				out = append(out, ds)
			}
		}
		return true
	})
	return out
}

func leadingDocstring(body []*parser.Node) *parser.Node {
	if len(body) == 0 {
		return nil
	}
	first := body[0]
	if first.Type == parser.NodeExpr && first.Value.IsStringConstant() {
		return first.Value
	}
	if first.IsStringConstant() {
		return first
	}
	return nil
}

package analyzer

import (
	"github.com/pysmell/pysmell/internal/parser"
)

// ComplexityResult carries the control-flow metrics of one function body
type ComplexityResult struct {
	Complexity  int
	BranchCount int
	MaxNesting  int
}

// CalculateComplexity computes McCabe cyclomatic complexity for a function
// or method node. The base is 1; each decision point adds 1: if and elif
// branches, loops, except clauses, boolean operands beyond the first,
// conditional expressions, and comprehension for and if clauses. Nested
// function and class definitions are skipped, they are measured on their
// own.
func CalculateComplexity(fn *parser.Node) ComplexityResult {
	r := ComplexityResult{Complexity: 1}
	for _, stmt := range fn.Body {
		walkComplexity(stmt, 0, &r)
	}
	return r
}

func walkComplexity(node *parser.Node, depth int, r *ComplexityResult) {
	if node == nil {
		return
	}

	switch node.Type {
	case parser.NodeFunctionDef, parser.NodeAsyncFunctionDef, parser.NodeClassDef:
		return

	case parser.NodeIf, parser.NodeElifClause:
		r.Complexity++
		r.BranchCount++
		walkComplexity(node.Test, depth, r)
		walkBlock(node.Body, depth+1, r)
		walkBlock(node.Orelse, depth, r)
		return

	case parser.NodeFor, parser.NodeWhile:
		r.Complexity++
		r.BranchCount++
		walkComplexity(node.Test, depth, r)
		walkComplexity(node.Iter, depth, r)
		walkBlock(node.Body, depth+1, r)
		walkBlock(node.Orelse, depth, r)
		return

	case parser.NodeTry:
		walkBlock(node.Body, depth+1, r)
		for _, h := range node.Handlers {
			r.Complexity++
			r.BranchCount++
			walkBlock(h.Body, depth+1, r)
		}
		walkBlock(node.Orelse, depth, r)
		walkBlock(node.Finalbody, depth, r)
		return

	case parser.NodeWith:
		walkBlock(node.Body, depth+1, r)
		for _, child := range node.Children {
			walkComplexity(child, depth, r)
		}
		return

	case parser.NodeBoolOp:
		// n operands contribute n-1 decision points
		if len(node.Children) > 1 {
			r.Complexity += len(node.Children) - 1
		}
		for _, child := range node.Children {
			walkComplexity(child, depth, r)
		}
		return

	case parser.NodeIfExp:
		r.Complexity++
		walkComplexity(node.Test, depth, r)
		walkComplexity(node.Value, depth, r)
		for _, child := range node.Children {
			walkComplexity(child, depth, r)
		}
		return

	case parser.NodeComprehension:
		// one decision for the for clause, one per if clause
		r.Complexity++
		if node.Test != nil {
			r.Complexity++
		}
		r.Complexity += len(node.Children)
		walkComplexity(node.Iter, depth, r)
		walkComplexity(node.Test, depth, r)
		for _, child := range node.Children {
			walkComplexity(child, depth, r)
		}
		return

	case parser.NodeElseClause:
		walkBlock(node.Body, depth, r)
		return
	}

	walkComplexity(node.Test, depth, r)
	walkComplexity(node.Iter, depth, r)
	walkComplexity(node.Value, depth, r)
	walkBlock(node.Body, depth, r)
	walkBlock(node.Orelse, depth, r)
	for _, child := range node.Children {
		walkComplexity(child, depth, r)
	}
	for _, child := range node.Args {
		walkComplexity(child, depth, r)
	}
	for _, h := range node.Handlers {
		walkComplexity(h, depth, r)
	}
}

func walkBlock(body []*parser.Node, depth int, r *ComplexityResult) {
	if len(body) > 0 && depth > r.MaxNesting {
		r.MaxNesting = depth
	}
	for _, stmt := range body {
		walkComplexity(stmt, depth, r)
	}
}

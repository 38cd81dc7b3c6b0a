package parser

import "fmt"

// NodeType identifies the kind of AST node
type NodeType string

// Python AST node types
const (
	NodeModule NodeType = "Module"

	// Statements
	NodeFunctionDef      NodeType = "FunctionDef"
	NodeAsyncFunctionDef NodeType = "AsyncFunctionDef"
	NodeClassDef         NodeType = "ClassDef"
	NodeReturn           NodeType = "Return"
	NodeAssign           NodeType = "Assign"
	NodeAugAssign        NodeType = "AugAssign"
	NodeAnnAssign        NodeType = "AnnAssign"
	NodeFor              NodeType = "For"
	NodeWhile            NodeType = "While"
	NodeIf               NodeType = "If"
	NodeWith             NodeType = "With"
	NodeRaise            NodeType = "Raise"
	NodeTry              NodeType = "Try"
	NodeAssert           NodeType = "Assert"
	NodeImport           NodeType = "Import"
	NodeImportFrom       NodeType = "ImportFrom"
	NodeExpr             NodeType = "Expr"
	NodePass             NodeType = "Pass"
	NodeBreak            NodeType = "Break"
	NodeContinue         NodeType = "Continue"

	// Expressions
	NodeBoolOp        NodeType = "BoolOp"
	NodeBinOp         NodeType = "BinOp"
	NodeUnaryOp       NodeType = "UnaryOp"
	NodeLambda        NodeType = "Lambda"
	NodeIfExp         NodeType = "IfExp"
	NodeListComp      NodeType = "ListComp"
	NodeSetComp       NodeType = "SetComp"
	NodeDictComp      NodeType = "DictComp"
	NodeGeneratorExp  NodeType = "GeneratorExp"
	NodeCompare       NodeType = "Compare"
	NodeCall          NodeType = "Call"
	NodeConstant      NodeType = "Constant"
	NodeAttribute     NodeType = "Attribute"
	NodeSubscript     NodeType = "Subscript"
	NodeName          NodeType = "Name"
	NodeTuple         NodeType = "Tuple"
	NodeList          NodeType = "List"
	NodeDict          NodeType = "Dict"
	NodeSet           NodeType = "Set"
	NodeAwait         NodeType = "Await"
	NodeYield         NodeType = "Yield"
	NodeStarred       NodeType = "Starred"

	// Other
	NodeAlias         NodeType = "Alias"
	NodeExceptHandler NodeType = "ExceptHandler"
	NodeArg           NodeType = "Arg"
	NodeKeyword       NodeType = "Keyword"
	NodeComprehension NodeType = "Comprehension"
	NodeDecorator     NodeType = "Decorator"
	NodeElifClause    NodeType = "ElifClause"
	NodeElseClause    NodeType = "ElseClause"
)

// Location is the position of a node in the source file
type Location struct {
	File      string
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// Node is one node of the simplified Python AST. Only the structure the
// fact extractor consumes is materialized; everything else is carried as
// generic Children so traversals still reach it.
type Node struct {
	Type     NodeType
	Name     string
	Location Location

	Children   []*Node // generic child expressions/statements
	Body       []*Node // compound statement bodies
	Orelse     []*Node // else branches (elif chains nest here)
	Handlers   []*Node // except clauses
	Finalbody  []*Node // finally blocks
	Targets    []*Node // assignment targets
	Args       []*Node // parameters (defs) or arguments (calls)
	Keywords   []*Node // keyword arguments
	Decorators []*Node
	Bases      []*Node // class superclasses

	Test       *Node // if/while/ternary condition
	Iter       *Node // for-loop iterable
	Value      *Node // RHS / call target / attribute receiver
	Annotation *Node // type annotation on args and AnnAssign
	Returns    *Node // return type annotation

	Op     string   // operator token for BoolOp/BinOp/UnaryOp
	Module string   // dotted module path for imports
	Names  []string // imported names; "*" for wildcard imports
	Level  int      // leading dots of a relative import
}

// NewNode creates an empty node of the given type
func NewNode(t NodeType) *Node {
	return &Node{Type: t}
}

// childSlices returns every child-bearing slice in a fixed order so that
// traversal order is deterministic.
func (n *Node) childSlices() [][]*Node {
	return [][]*Node{
		n.Children, n.Body, n.Orelse, n.Handlers, n.Finalbody,
		n.Targets, n.Args, n.Keywords, n.Decorators, n.Bases,
	}
}

// Walk performs a depth-first traversal. The visitor returns false to
// prune the subtree below the current node.
func (n *Node) Walk(visitor func(*Node) bool) {
	if n == nil || !visitor(n) {
		return
	}
	for _, slice := range n.childSlices() {
		for _, child := range slice {
			child.Walk(visitor)
		}
	}
	for _, child := range []*Node{n.Test, n.Iter, n.Value, n.Annotation, n.Returns} {
		if child != nil {
			child.Walk(visitor)
		}
	}
}

// FindByType collects all descendant nodes of the given type, including n itself.
func (n *Node) FindByType(t NodeType) []*Node {
	var out []*Node
	n.Walk(func(node *Node) bool {
		if node.Type == t {
			out = append(out, node)
		}
		return true
	})
	return out
}

// IsStringConstant reports whether the node is a string literal
func (n *Node) IsStringConstant() bool {
	return n != nil && n.Type == NodeConstant && n.Op == "str"
}

// IsFunction reports whether the node is a (possibly async) function definition
func (n *Node) IsFunction() bool {
	return n.Type == NodeFunctionDef || n.Type == NodeAsyncFunctionDef
}

func (n *Node) String() string {
	if n.Name != "" {
		return fmt.Sprintf("%s(%s)", n.Type, n.Name)
	}
	return string(n.Type)
}

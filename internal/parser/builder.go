package parser

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// ASTBuilder converts a tree-sitter CST into the simplified AST the fact
// extractor works on.
type ASTBuilder struct {
	source []byte
}

// NewASTBuilder creates a builder for the given source bytes
func NewASTBuilder(source []byte) *ASTBuilder {
	return &ASTBuilder{source: source}
}

// Build converts the parse tree rooted at tsNode into an AST module node
func (b *ASTBuilder) Build(root *sitter.Node) *Node {
	module := NewNode(NodeModule)
	module.Location = b.location(root)
	for i := 0; i < int(root.ChildCount()); i++ {
		if stmt := b.buildNode(root.Child(i)); stmt != nil {
			module.Body = append(module.Body, stmt)
		}
	}
	return module
}

func (b *ASTBuilder) buildNode(ts *sitter.Node) *Node {
	if ts == nil || !ts.IsNamed() {
		return nil
	}

	switch ts.Type() {
	case "comment", "line_continuation":
		return nil
	case "function_definition":
		return b.buildFunctionDef(ts, false)
	case "class_definition":
		return b.buildClassDef(ts)
	case "decorated_definition":
		return b.buildDecoratedDefinition(ts)
	case "if_statement":
		return b.buildIf(ts)
	case "elif_clause":
		return b.buildElifClause(ts)
	case "else_clause":
		return b.buildElseClause(ts)
	case "for_statement":
		return b.buildFor(ts)
	case "while_statement":
		return b.buildWhile(ts)
	case "try_statement":
		return b.buildTry(ts)
	case "with_statement":
		return b.buildWith(ts)
	case "import_statement":
		return b.buildImport(ts)
	case "import_from_statement":
		return b.buildImportFrom(ts)
	case "expression_statement":
		return b.buildExpressionStatement(ts)
	case "assignment":
		return b.buildAssignment(ts)
	case "augmented_assignment":
		return b.buildAugmented(ts)
	case "return_statement":
		return b.buildSimpleValue(ts, NodeReturn)
	case "raise_statement":
		return b.buildSimpleValue(ts, NodeRaise)
	case "assert_statement":
		return b.buildSimpleValue(ts, NodeAssert)
	case "pass_statement":
		return b.leaf(ts, NodePass)
	case "break_statement":
		return b.leaf(ts, NodeBreak)
	case "continue_statement":
		return b.leaf(ts, NodeContinue)
	case "call":
		return b.buildCall(ts)
	case "attribute":
		return b.buildAttribute(ts)
	case "subscript":
		return b.buildSubscript(ts)
	case "identifier":
		node := b.leaf(ts, NodeName)
		node.Name = b.text(ts)
		return node
	case "boolean_operator":
		return b.buildBoolOp(ts)
	case "binary_operator", "comparison_operator":
		return b.buildBinOp(ts)
	case "not_operator", "unary_operator":
		return b.buildUnary(ts)
	case "conditional_expression":
		return b.buildIfExp(ts)
	case "lambda":
		return b.buildLambda(ts)
	case "list_comprehension":
		return b.buildComprehension(ts, NodeListComp)
	case "set_comprehension":
		return b.buildComprehension(ts, NodeSetComp)
	case "dictionary_comprehension":
		return b.buildComprehension(ts, NodeDictComp)
	case "generator_expression":
		return b.buildComprehension(ts, NodeGeneratorExp)
	case "await":
		return b.buildSimpleValue(ts, NodeAwait)
	case "yield":
		return b.buildSimpleValue(ts, NodeYield)
	case "tuple", "pattern_list", "expression_list":
		return b.buildContainer(ts, NodeTuple)
	case "list":
		return b.buildContainer(ts, NodeList)
	case "dictionary":
		return b.buildContainer(ts, NodeDict)
	case "set":
		return b.buildContainer(ts, NodeSet)
	case "parenthesized_expression":
		// unwrap
		for i := 0; i < int(ts.NamedChildCount()); i++ {
			if inner := b.buildNode(ts.NamedChild(i)); inner != nil {
				return inner
			}
		}
		return nil
	case "string", "concatenated_string":
		node := b.leaf(ts, NodeConstant)
		node.Op = "str"
		return node
	case "integer", "float", "true", "false", "none", "ellipsis":
		return b.leaf(ts, NodeConstant)
	case "list_splat", "dictionary_splat":
		return b.buildSimpleValue(ts, NodeStarred)
	default:
		// Containers we don't model explicitly: keep their named children
		// reachable under a generic node of the same shape.
		return b.buildGeneric(ts)
	}
}

func (b *ASTBuilder) buildGeneric(ts *sitter.Node) *Node {
	var children []*Node
	for i := 0; i < int(ts.NamedChildCount()); i++ {
		if child := b.buildNode(ts.NamedChild(i)); child != nil {
			children = append(children, child)
		}
	}
	if len(children) == 0 {
		return nil
	}
	if len(children) == 1 {
		return children[0]
	}
	node := b.leaf(ts, NodeExpr)
	node.Children = children
	return node
}

func (b *ASTBuilder) buildFunctionDef(ts *sitter.Node, async bool) *Node {
	nodeType := NodeFunctionDef
	// tree-sitter marks async defs with a leading "async" token
	if async || b.hasToken(ts, "async") {
		nodeType = NodeAsyncFunctionDef
	}
	node := b.leaf(ts, nodeType)

	if name := ts.ChildByFieldName("name"); name != nil {
		node.Name = b.text(name)
	}
	if params := ts.ChildByFieldName("parameters"); params != nil {
		node.Args = b.buildParameters(params)
	}
	if ret := ts.ChildByFieldName("return_type"); ret != nil {
		node.Returns = b.buildNode(ret)
	}
	if body := ts.ChildByFieldName("body"); body != nil {
		node.Body = b.buildBlock(body)
	}
	return node
}

func (b *ASTBuilder) buildParameters(params *sitter.Node) []*Node {
	var args []*Node
	for i := 0; i < int(params.NamedChildCount()); i++ {
		child := params.NamedChild(i)
		arg := b.leaf(child, NodeArg)
		switch child.Type() {
		case "identifier":
			arg.Name = b.text(child)
		case "typed_parameter":
			// first named child is the identifier, "type" field the annotation
			if child.NamedChildCount() > 0 {
				arg.Name = b.text(child.NamedChild(0))
			}
			if typ := child.ChildByFieldName("type"); typ != nil {
				arg.Annotation = b.buildNode(typ)
			}
		case "default_parameter", "typed_default_parameter":
			if name := child.ChildByFieldName("name"); name != nil {
				arg.Name = b.text(name)
			}
			if typ := child.ChildByFieldName("type"); typ != nil {
				arg.Annotation = b.buildNode(typ)
			}
			if value := child.ChildByFieldName("value"); value != nil {
				arg.Value = b.buildNode(value)
			}
		case "list_splat_pattern", "dictionary_splat_pattern":
			if child.NamedChildCount() > 0 {
				arg.Name = b.text(child.NamedChild(0))
			}
		case "keyword_separator", "positional_separator":
			continue
		default:
			arg.Name = b.text(child)
		}
		if arg.Name != "" {
			args = append(args, arg)
		}
	}
	return args
}

func (b *ASTBuilder) buildClassDef(ts *sitter.Node) *Node {
	node := b.leaf(ts, NodeClassDef)
	if name := ts.ChildByFieldName("name"); name != nil {
		node.Name = b.text(name)
	}
	if supers := ts.ChildByFieldName("superclasses"); supers != nil {
		for i := 0; i < int(supers.NamedChildCount()); i++ {
			child := supers.NamedChild(i)
			if child.Type() == "keyword_argument" {
				// metaclass=... and friends are not base classes
				continue
			}
			if base := b.buildNode(child); base != nil {
				node.Bases = append(node.Bases, base)
			}
		}
	}
	if body := ts.ChildByFieldName("body"); body != nil {
		node.Body = b.buildBlock(body)
	}
	return node
}

func (b *ASTBuilder) buildDecoratedDefinition(ts *sitter.Node) *Node {
	var decorators []*Node
	var definition *Node
	for i := 0; i < int(ts.NamedChildCount()); i++ {
		child := ts.NamedChild(i)
		switch child.Type() {
		case "decorator":
			dec := b.leaf(child, NodeDecorator)
			dec.Name = b.decoratorName(child)
			decorators = append(decorators, dec)
		case "function_definition":
			definition = b.buildFunctionDef(child, false)
		case "class_definition":
			definition = b.buildClassDef(child)
		}
	}
	if definition != nil {
		definition.Decorators = decorators
	}
	return definition
}

// decoratorName extracts the bare decorator name: "@a.b(args)" yields "a.b"
func (b *ASTBuilder) decoratorName(dec *sitter.Node) string {
	for i := 0; i < int(dec.NamedChildCount()); i++ {
		child := dec.NamedChild(i)
		switch child.Type() {
		case "identifier", "attribute", "dotted_name":
			return b.text(child)
		case "call":
			if fn := child.ChildByFieldName("function"); fn != nil {
				return b.text(fn)
			}
		}
	}
	return strings.TrimPrefix(strings.TrimSpace(b.text(dec)), "@")
}

func (b *ASTBuilder) buildIf(ts *sitter.Node) *Node {
	node := b.leaf(ts, NodeIf)
	if cond := ts.ChildByFieldName("condition"); cond != nil {
		node.Test = b.buildNode(cond)
	}
	if cons := ts.ChildByFieldName("consequence"); cons != nil {
		node.Body = b.buildBlock(cons)
	}
	// alternatives: a run of elif_clause nodes and at most one else_clause
	for i := 0; i < int(ts.ChildCount()); i++ {
		child := ts.Child(i)
		if ts.FieldNameForChild(i) != "alternative" || child == nil {
			continue
		}
		if alt := b.buildNode(child); alt != nil {
			node.Orelse = append(node.Orelse, alt)
		}
	}
	return node
}

func (b *ASTBuilder) buildElifClause(ts *sitter.Node) *Node {
	node := b.leaf(ts, NodeElifClause)
	if cond := ts.ChildByFieldName("condition"); cond != nil {
		node.Test = b.buildNode(cond)
	}
	if cons := ts.ChildByFieldName("consequence"); cons != nil {
		node.Body = b.buildBlock(cons)
	}
	return node
}

func (b *ASTBuilder) buildElseClause(ts *sitter.Node) *Node {
	node := b.leaf(ts, NodeElseClause)
	if body := ts.ChildByFieldName("body"); body != nil {
		node.Body = b.buildBlock(body)
	}
	return node
}

func (b *ASTBuilder) buildFor(ts *sitter.Node) *Node {
	node := b.leaf(ts, NodeFor)
	if left := ts.ChildByFieldName("left"); left != nil {
		if target := b.buildNode(left); target != nil {
			node.Targets = append(node.Targets, target)
		}
	}
	if right := ts.ChildByFieldName("right"); right != nil {
		node.Iter = b.buildNode(right)
	}
	if body := ts.ChildByFieldName("body"); body != nil {
		node.Body = b.buildBlock(body)
	}
	if alt := ts.ChildByFieldName("alternative"); alt != nil {
		if elseNode := b.buildNode(alt); elseNode != nil {
			node.Orelse = append(node.Orelse, elseNode)
		}
	}
	return node
}

func (b *ASTBuilder) buildWhile(ts *sitter.Node) *Node {
	node := b.leaf(ts, NodeWhile)
	if cond := ts.ChildByFieldName("condition"); cond != nil {
		node.Test = b.buildNode(cond)
	}
	if body := ts.ChildByFieldName("body"); body != nil {
		node.Body = b.buildBlock(body)
	}
	if alt := ts.ChildByFieldName("alternative"); alt != nil {
		if elseNode := b.buildNode(alt); elseNode != nil {
			node.Orelse = append(node.Orelse, elseNode)
		}
	}
	return node
}

func (b *ASTBuilder) buildTry(ts *sitter.Node) *Node {
	node := b.leaf(ts, NodeTry)
	if body := ts.ChildByFieldName("body"); body != nil {
		node.Body = b.buildBlock(body)
	}
	for i := 0; i < int(ts.NamedChildCount()); i++ {
		child := ts.NamedChild(i)
		switch child.Type() {
		case "except_clause", "except_group_clause":
			handler := b.leaf(child, NodeExceptHandler)
			for j := 0; j < int(child.NamedChildCount()); j++ {
				sub := child.NamedChild(j)
				if sub.Type() == "block" {
					handler.Body = b.buildBlock(sub)
				} else if expr := b.buildNode(sub); expr != nil {
					handler.Children = append(handler.Children, expr)
				}
			}
			node.Handlers = append(node.Handlers, handler)
		case "else_clause":
			if elseNode := b.buildNode(child); elseNode != nil {
				node.Orelse = append(node.Orelse, elseNode.Body...)
			}
		case "finally_clause":
			for j := 0; j < int(child.NamedChildCount()); j++ {
				if child.NamedChild(j).Type() == "block" {
					node.Finalbody = b.buildBlock(child.NamedChild(j))
				}
			}
		}
	}
	return node
}

func (b *ASTBuilder) buildWith(ts *sitter.Node) *Node {
	node := b.leaf(ts, NodeWith)
	for i := 0; i < int(ts.NamedChildCount()); i++ {
		child := ts.NamedChild(i)
		if child.Type() == "block" {
			node.Body = b.buildBlock(child)
		} else if item := b.buildNode(child); item != nil {
			node.Children = append(node.Children, item)
		}
	}
	return node
}

func (b *ASTBuilder) buildImport(ts *sitter.Node) *Node {
	node := b.leaf(ts, NodeImport)
	for i := 0; i < int(ts.ChildCount()); i++ {
		child := ts.Child(i)
		if ts.FieldNameForChild(i) != "name" || child == nil {
			continue
		}
		switch child.Type() {
		case "dotted_name":
			node.Names = append(node.Names, b.text(child))
		case "aliased_import":
			alias := b.leaf(child, NodeAlias)
			if name := child.ChildByFieldName("name"); name != nil {
				node.Names = append(node.Names, b.text(name))
				alias.Module = b.text(name)
			}
			if as := child.ChildByFieldName("alias"); as != nil {
				alias.Name = b.text(as)
			}
			node.Children = append(node.Children, alias)
		}
	}
	return node
}

func (b *ASTBuilder) buildImportFrom(ts *sitter.Node) *Node {
	node := b.leaf(ts, NodeImportFrom)
	if moduleNode := ts.ChildByFieldName("module_name"); moduleNode != nil {
		if moduleNode.Type() == "relative_import" {
			for i := 0; i < int(moduleNode.ChildCount()); i++ {
				child := moduleNode.Child(i)
				switch child.Type() {
				case "import_prefix":
					node.Level = len(b.text(child))
				case "dotted_name":
					node.Module = b.text(child)
				}
			}
		} else {
			node.Module = b.text(moduleNode)
		}
	}
	for i := 0; i < int(ts.ChildCount()); i++ {
		child := ts.Child(i)
		if child == nil {
			continue
		}
		if child.Type() == "wildcard_import" {
			node.Names = append(node.Names, "*")
			continue
		}
		if ts.FieldNameForChild(i) != "name" {
			continue
		}
		switch child.Type() {
		case "dotted_name", "identifier":
			node.Names = append(node.Names, b.text(child))
		case "aliased_import":
			alias := b.leaf(child, NodeAlias)
			if name := child.ChildByFieldName("name"); name != nil {
				node.Names = append(node.Names, b.text(name))
				alias.Module = b.text(name)
			}
			if as := child.ChildByFieldName("alias"); as != nil {
				alias.Name = b.text(as)
			}
			node.Children = append(node.Children, alias)
		}
	}
	return node
}

func (b *ASTBuilder) buildExpressionStatement(ts *sitter.Node) *Node {
	// expression_statement wraps one expression or assignment; unwrap it
	for i := 0; i < int(ts.NamedChildCount()); i++ {
		if inner := b.buildNode(ts.NamedChild(i)); inner != nil {
			return inner
		}
	}
	return nil
}

func (b *ASTBuilder) buildAssignment(ts *sitter.Node) *Node {
	typ := NodeAssign
	if ts.ChildByFieldName("type") != nil {
		typ = NodeAnnAssign
	}
	node := b.leaf(ts, typ)
	if left := ts.ChildByFieldName("left"); left != nil {
		if target := b.buildNode(left); target != nil {
			node.Targets = append(node.Targets, target)
		}
	}
	if annotation := ts.ChildByFieldName("type"); annotation != nil {
		node.Annotation = b.buildNode(annotation)
	}
	if right := ts.ChildByFieldName("right"); right != nil {
		node.Value = b.buildNode(right)
	}
	return node
}

func (b *ASTBuilder) buildAugmented(ts *sitter.Node) *Node {
	node := b.leaf(ts, NodeAugAssign)
	if left := ts.ChildByFieldName("left"); left != nil {
		if target := b.buildNode(left); target != nil {
			node.Targets = append(node.Targets, target)
		}
	}
	if right := ts.ChildByFieldName("right"); right != nil {
		node.Value = b.buildNode(right)
	}
	return node
}

func (b *ASTBuilder) buildCall(ts *sitter.Node) *Node {
	node := b.leaf(ts, NodeCall)
	if fn := ts.ChildByFieldName("function"); fn != nil {
		node.Value = b.buildNode(fn)
	}
	if args := ts.ChildByFieldName("arguments"); args != nil {
		for i := 0; i < int(args.NamedChildCount()); i++ {
			child := args.NamedChild(i)
			if child.Type() == "keyword_argument" {
				kw := b.leaf(child, NodeKeyword)
				if name := child.ChildByFieldName("name"); name != nil {
					kw.Name = b.text(name)
				}
				if value := child.ChildByFieldName("value"); value != nil {
					kw.Value = b.buildNode(value)
				}
				node.Keywords = append(node.Keywords, kw)
			} else if arg := b.buildNode(child); arg != nil {
				node.Args = append(node.Args, arg)
			}
		}
	}
	return node
}

func (b *ASTBuilder) buildAttribute(ts *sitter.Node) *Node {
	node := b.leaf(ts, NodeAttribute)
	if obj := ts.ChildByFieldName("object"); obj != nil {
		node.Value = b.buildNode(obj)
	}
	if attr := ts.ChildByFieldName("attribute"); attr != nil {
		node.Name = b.text(attr)
	}
	return node
}

func (b *ASTBuilder) buildSubscript(ts *sitter.Node) *Node {
	node := b.leaf(ts, NodeSubscript)
	if value := ts.ChildByFieldName("value"); value != nil {
		node.Value = b.buildNode(value)
	}
	for i := 0; i < int(ts.ChildCount()); i++ {
		if ts.FieldNameForChild(i) == "subscript" {
			if sub := b.buildNode(ts.Child(i)); sub != nil {
				node.Children = append(node.Children, sub)
			}
		}
	}
	return node
}

func (b *ASTBuilder) buildBoolOp(ts *sitter.Node) *Node {
	node := b.leaf(ts, NodeBoolOp)
	if op := ts.ChildByFieldName("operator"); op != nil {
		node.Op = b.text(op)
	}
	if left := ts.ChildByFieldName("left"); left != nil {
		if child := b.buildNode(left); child != nil {
			node.Children = append(node.Children, child)
		}
	}
	if right := ts.ChildByFieldName("right"); right != nil {
		if child := b.buildNode(right); child != nil {
			node.Children = append(node.Children, child)
		}
	}
	return node
}

func (b *ASTBuilder) buildBinOp(ts *sitter.Node) *Node {
	node := b.leaf(ts, NodeBinOp)
	if op := ts.ChildByFieldName("operator"); op != nil {
		node.Op = b.text(op)
	}
	for i := 0; i < int(ts.NamedChildCount()); i++ {
		if child := b.buildNode(ts.NamedChild(i)); child != nil {
			node.Children = append(node.Children, child)
		}
	}
	return node
}

func (b *ASTBuilder) buildUnary(ts *sitter.Node) *Node {
	node := b.leaf(ts, NodeUnaryOp)
	for i := 0; i < int(ts.NamedChildCount()); i++ {
		if child := b.buildNode(ts.NamedChild(i)); child != nil {
			node.Value = child
			break
		}
	}
	return node
}

func (b *ASTBuilder) buildIfExp(ts *sitter.Node) *Node {
	// grammar: consequence "if" condition "else" alternative
	node := b.leaf(ts, NodeIfExp)
	var parts []*Node
	for i := 0; i < int(ts.NamedChildCount()); i++ {
		if child := b.buildNode(ts.NamedChild(i)); child != nil {
			parts = append(parts, child)
		}
	}
	if len(parts) > 0 {
		node.Value = parts[0]
	}
	if len(parts) > 1 {
		node.Test = parts[1]
	}
	if len(parts) > 2 {
		node.Orelse = append(node.Orelse, parts[2])
	}
	return node
}

func (b *ASTBuilder) buildLambda(ts *sitter.Node) *Node {
	node := b.leaf(ts, NodeLambda)
	if params := ts.ChildByFieldName("parameters"); params != nil {
		node.Args = b.buildParameters(params)
	}
	if body := ts.ChildByFieldName("body"); body != nil {
		node.Value = b.buildNode(body)
	}
	return node
}

func (b *ASTBuilder) buildComprehension(ts *sitter.Node, t NodeType) *Node {
	node := b.leaf(ts, t)
	if body := ts.ChildByFieldName("body"); body != nil {
		node.Value = b.buildNode(body)
	}
	var current *Node
	for i := 0; i < int(ts.NamedChildCount()); i++ {
		child := ts.NamedChild(i)
		switch child.Type() {
		case "for_in_clause":
			comp := b.leaf(child, NodeComprehension)
			if left := child.ChildByFieldName("left"); left != nil {
				if target := b.buildNode(left); target != nil {
					comp.Targets = append(comp.Targets, target)
				}
			}
			if right := child.ChildByFieldName("right"); right != nil {
				comp.Iter = b.buildNode(right)
			}
			node.Children = append(node.Children, comp)
			current = comp
		case "if_clause":
			if current == nil {
				continue
			}
			for j := 0; j < int(child.NamedChildCount()); j++ {
				if cond := b.buildNode(child.NamedChild(j)); cond != nil {
					// chain extra filters as generic children
					if current.Test == nil {
						current.Test = cond
					} else {
						current.Children = append(current.Children, cond)
					}
					break
				}
			}
		}
	}
	return node
}

func (b *ASTBuilder) buildContainer(ts *sitter.Node, t NodeType) *Node {
	node := b.leaf(ts, t)
	for i := 0; i < int(ts.NamedChildCount()); i++ {
		if child := b.buildNode(ts.NamedChild(i)); child != nil {
			node.Children = append(node.Children, child)
		}
	}
	return node
}

// buildSimpleValue covers statements/expressions carrying a single payload
func (b *ASTBuilder) buildSimpleValue(ts *sitter.Node, t NodeType) *Node {
	node := b.leaf(ts, t)
	for i := 0; i < int(ts.NamedChildCount()); i++ {
		if child := b.buildNode(ts.NamedChild(i)); child != nil {
			if node.Value == nil {
				node.Value = child
			} else {
				node.Children = append(node.Children, child)
			}
		}
	}
	return node
}

func (b *ASTBuilder) buildBlock(block *sitter.Node) []*Node {
	var stmts []*Node
	for i := 0; i < int(block.NamedChildCount()); i++ {
		if stmt := b.buildNode(block.NamedChild(i)); stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

func (b *ASTBuilder) hasToken(ts *sitter.Node, token string) bool {
	for i := 0; i < int(ts.ChildCount()); i++ {
		if child := ts.Child(i); child != nil && child.Type() == token {
			return true
		}
	}
	return false
}

func (b *ASTBuilder) leaf(ts *sitter.Node, t NodeType) *Node {
	node := NewNode(t)
	node.Location = b.location(ts)
	return node
}

func (b *ASTBuilder) location(ts *sitter.Node) Location {
	start := ts.StartPoint()
	end := ts.EndPoint()
	return Location{
		StartLine: int(start.Row) + 1,
		StartCol:  int(start.Column),
		EndLine:   int(end.Row) + 1,
		EndCol:    int(end.Column),
	}
}

func (b *ASTBuilder) text(ts *sitter.Node) string {
	return ts.Content(b.source)
}

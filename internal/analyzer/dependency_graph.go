package analyzer

import (
	"sort"
	"strings"
)

// DependencyGraph is the directed import graph between project modules.
// Edges point from importer to imported. External imports are filtered out
// during construction; the graph only holds modules that exist in the
// analyzed project. The graph is frozen once built.
type DependencyGraph struct {
	// nodes in sorted order, index is the node id
	nodes []string
	index map[string]int

	// succ[i] and pred[i] are sorted node ids
	succ [][]int
	pred [][]int

	// weights[i][j] counts distinct import statements behind edge i->j
	weights map[[2]int]int
}

// BuildDependencyGraph resolves every module's imports against the set of
// project modules and assembles the graph. Relative imports are resolved
// against the importing module's package; absolute imports match when the
// imported path, or a prefix of it, names a project module.
func BuildDependencyGraph(model *FactModel) *DependencyGraph {
	g := &DependencyGraph{
		index:   make(map[string]int, len(model.ModuleNames)),
		weights: make(map[[2]int]int),
	}
	g.nodes = append(g.nodes, model.ModuleNames...)
	for i, name := range g.nodes {
		g.index[name] = i
	}
	g.succ = make([][]int, len(g.nodes))
	g.pred = make([][]int, len(g.nodes))

	edges := make(map[[2]int]int)
	for i, name := range g.nodes {
		mod := model.Modules[name]
		for _, imp := range mod.Imports {
			for _, target := range resolveImport(name, imp, g.index) {
				j := g.index[target]
				if j == i {
					continue
				}
				edges[[2]int{i, j}]++
			}
		}
	}

	for edge, weight := range edges {
		g.succ[edge[0]] = append(g.succ[edge[0]], edge[1])
		g.pred[edge[1]] = append(g.pred[edge[1]], edge[0])
		g.weights[edge] = weight
	}
	for i := range g.nodes {
		sort.Ints(g.succ[i])
		sort.Ints(g.pred[i])
	}
	return g
}

// resolveImport maps one import statement to the project modules it
// reaches. Non-project imports resolve to nothing.
func resolveImport(importer string, imp ImportFact, index map[string]int) []string {
	var candidates []string

	base := imp.Module
	if imp.Level > 0 {
		pkg := importer
		for i := 0; i < imp.Level; i++ {
			if j := strings.LastIndex(pkg, "."); j >= 0 {
				pkg = pkg[:j]
			} else {
				pkg = ""
			}
		}
		if base != "" && pkg != "" {
			base = pkg + "." + base
		} else if base == "" {
			base = pkg
		} else if pkg == "" {
			// relative import above the project root
			return nil
		}
	}

	if base != "" {
		candidates = append(candidates, base)
	}
	// "from pkg import name" may import the submodule pkg.name
	if imp.IsFrom && base != "" {
		for _, name := range imp.Names {
			if name != "*" {
				candidates = append(candidates, base+"."+name)
			}
		}
	}

	seen := make(map[string]bool)
	var resolved []string
	for _, candidate := range candidates {
		target := matchProjectModule(candidate, index)
		if target != "" && !seen[target] {
			seen[target] = true
			resolved = append(resolved, target)
		}
	}
	return resolved
}

// matchProjectModule finds the longest project module that is the imported
// path or one of its dotted prefixes. "import a.b.c" depends on a.b when
// only a.b is a project module.
func matchProjectModule(path string, index map[string]int) string {
	for {
		if _, ok := index[path]; ok {
			return path
		}
		i := strings.LastIndex(path, ".")
		if i < 0 {
			return ""
		}
		path = path[:i]
	}
}

// Modules returns every node name in sorted order
func (g *DependencyGraph) Modules() []string {
	return g.nodes
}

// Imports returns the modules the given module imports, sorted
func (g *DependencyGraph) Imports(module string) []string {
	return g.neighbors(module, g.succ)
}

// ImportedBy returns the modules importing the given module, sorted
func (g *DependencyGraph) ImportedBy(module string) []string {
	return g.neighbors(module, g.pred)
}

func (g *DependencyGraph) neighbors(module string, adj [][]int) []string {
	i, ok := g.index[module]
	if !ok {
		return nil
	}
	out := make([]string, len(adj[i]))
	for k, j := range adj[i] {
		out[k] = g.nodes[j]
	}
	return out
}

// FanOut is the number of project modules the module imports
func (g *DependencyGraph) FanOut(module string) int {
	if i, ok := g.index[module]; ok {
		return len(g.succ[i])
	}
	return 0
}

// FanIn is the number of project modules importing the module
func (g *DependencyGraph) FanIn(module string) int {
	if i, ok := g.index[module]; ok {
		return len(g.pred[i])
	}
	return 0
}

// Instability is fan-out / (fan-in + fan-out), 0 for isolated modules.
// The result is always within [0, 1].
func (g *DependencyGraph) Instability(module string) float64 {
	in := g.FanIn(module)
	out := g.FanOut(module)
	if in+out == 0 {
		return 0
	}
	return float64(out) / float64(in+out)
}

// EdgeWeight counts the import statements behind an edge, 0 when absent
func (g *DependencyGraph) EdgeWeight(from, to string) int {
	i, iok := g.index[from]
	j, jok := g.index[to]
	if !iok || !jok {
		return 0
	}
	return g.weights[[2]int{i, j}]
}

// HasEdge reports whether from imports to
func (g *DependencyGraph) HasEdge(from, to string) bool {
	return g.EdgeWeight(from, to) > 0
}

// Cycles returns every strongly connected component with more than one
// module, via Tarjan's algorithm. Components are listed in discovery
// order; within a component, modules keep the order in which the
// traversal first reached them. Output is deterministic because the
// traversal visits nodes and successors in sorted order.
func (g *DependencyGraph) Cycles() [][]string {
	n := len(g.nodes)
	const unvisited = -1

	ids := make([]int, n)
	low := make([]int, n)
	onStack := make([]bool, n)
	for i := range ids {
		ids[i] = unvisited
	}

	var stack []int
	var counter int
	var components [][]string

	var strongConnect func(v int)
	strongConnect = func(v int) {
		ids[v] = counter
		low[v] = counter
		counter++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.succ[v] {
			if ids[w] == unvisited {
				strongConnect(w)
				if low[w] < low[v] {
					low[v] = low[w]
				}
			} else if onStack[w] && ids[w] < low[v] {
				low[v] = ids[w]
			}
		}

		if low[v] == ids[v] {
			var comp []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				comp = append(comp, w)
				if w == v {
					break
				}
			}
			if len(comp) > 1 {
				// restore first-discovered order
				sort.Slice(comp, func(a, b int) bool { return ids[comp[a]] < ids[comp[b]] })
				names := make([]string, len(comp))
				for k, w := range comp {
					names[k] = g.nodes[w]
				}
				components = append(components, names)
			}
		}
	}

	for v := 0; v < n; v++ {
		if ids[v] == unvisited {
			strongConnect(v)
		}
	}
	return components
}

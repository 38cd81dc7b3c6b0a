package service

import (
	"encoding/json"
	"io"

	"github.com/pysmell/pysmell/internal/analyzer"
)

// exportSnapshot is the serialized shape of the assembled project model
type exportSnapshot struct {
	Modules []exportModule          `json:"modules"`
	Edges   []exportEdge            `json:"edges"`
	Cycles  [][]string              `json:"cycles,omitempty"`
	Classes map[string]exportClass  `json:"classes"`
}

type exportModule struct {
	Name      string   `json:"name"`
	File      string   `json:"file"`
	Encoding  string   `json:"encoding"`
	LOC       int      `json:"loc"`
	CodeLOC   int      `json:"code_loc"`
	Functions int      `json:"functions"`
	Classes   []string `json:"classes,omitempty"`
	FanIn     int      `json:"fan_in"`
	FanOut    int      `json:"fan_out"`
}

type exportEdge struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Weight int    `json:"weight"`
}

type exportClass struct {
	Module  string   `json:"module"`
	Line    int      `json:"line"`
	Bases   []string `json:"bases,omitempty"`
	Methods []string `json:"methods,omitempty"`
	Fields  []string `json:"fields,omitempty"`
}

// ExportModel writes the fact model and dependency graph as indented
// JSON, for downstream tooling and for diffing runs.
func ExportModel(out io.Writer, model *analyzer.FactModel, graph *analyzer.DependencyGraph) error {
	snapshot := exportSnapshot{
		Classes: make(map[string]exportClass, len(model.Classes)),
	}

	for _, name := range model.ModuleNames {
		mod := model.Modules[name]
		var classNames []string
		for _, c := range mod.Classes {
			classNames = append(classNames, c.Name)
		}
		snapshot.Modules = append(snapshot.Modules, exportModule{
			Name:      name,
			File:      mod.FilePath,
			Encoding:  mod.Encoding,
			LOC:       mod.LOC.Total,
			CodeLOC:   mod.LOC.Code,
			Functions: mod.FunctionCount(),
			Classes:   classNames,
			FanIn:     graph.FanIn(name),
			FanOut:    graph.FanOut(name),
		})
		for _, to := range graph.Imports(name) {
			snapshot.Edges = append(snapshot.Edges, exportEdge{
				From:   name,
				To:     to,
				Weight: graph.EdgeWeight(name, to),
			})
		}
	}
	snapshot.Cycles = graph.Cycles()

	for qualified, c := range model.Classes {
		snapshot.Classes[qualified] = exportClass{
			Module:  c.Module,
			Line:    c.Line,
			Bases:   c.Bases,
			Methods: c.MethodNames(),
			Fields:  c.Fields,
		}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(snapshot)
}

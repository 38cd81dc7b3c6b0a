package app

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/pysmell/pysmell/domain"
	"github.com/pysmell/pysmell/internal/analyzer"
	"github.com/pysmell/pysmell/internal/config"
	"github.com/pysmell/pysmell/service"
)

// AnalyzeUseCase orchestrates one analysis run: discovery, parsing, model
// assembly, the three smell engines, and report output.
type AnalyzeUseCase struct {
	reader   *service.FileReader
	executor *service.ParseExecutor
	reports  *service.ReportWriter
	log      *logrus.Logger
}

func NewAnalyzeUseCase(log *logrus.Logger) *AnalyzeUseCase {
	reader := service.NewFileReader(nil)
	return &AnalyzeUseCase{
		reader:   reader,
		executor: service.NewParseExecutor(reader, log),
		reports:  service.NewReportWriter(),
		log:      log,
	}
}

// Execute runs the full pipeline for one request. Detected smells are
// findings, not errors; the error return is reserved for conditions that
// abort the run.
func (uc *AnalyzeUseCase) Execute(ctx context.Context, req domain.AnalyzeRequest) (*domain.AnalyzeResponse, error) {
	cfg, err := config.Load(req.ConfigPath, req.ProjectPath, uc.log)
	if err != nil {
		return nil, err
	}

	files, err := uc.reader.CollectPythonFiles(req.ProjectPath)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, domain.NewInvalidInputError(
			fmt.Sprintf("no Python files found under %s", req.ProjectPath), nil)
	}
	uc.log.Debugf("collected %d Python files", len(files))

	progress := service.NewProgress(len(files), "Parsing")
	outcome, err := uc.executor.ParseProject(ctx, req.ProjectPath, files, progress)
	progress.Finish()
	if err != nil {
		return nil, err
	}
	for _, fe := range outcome.Skipped {
		uc.log.Warnf("skipped %s: %s", fe.FilePath, fe.Message)
	}

	model := analyzer.NewFactModel(outcome.Modules)
	graph := analyzer.BuildDependencyGraph(model)

	resp := &domain.AnalyzeResponse{
		FilesAnalyzed: len(outcome.Modules),
		FilesSkipped:  len(outcome.Skipped),
		ModuleCount:   len(model.ModuleNames),
		ClassCount:    len(model.Classes),
		Errors:        outcome.Skipped,
	}

	if req.Type.Includes(domain.CategoryStructural) {
		resp.Smells = append(resp.Smells, analyzer.NewStructuralAnalyzer(cfg, model, graph).Detect()...)
	}
	if req.Type.Includes(domain.CategoryCode) {
		resp.Smells = append(resp.Smells, analyzer.NewCodeSmellAnalyzer(cfg, model).Detect()...)
	}
	if req.Type.Includes(domain.CategoryArchitectural) {
		resp.Smells = append(resp.Smells, analyzer.NewArchitecturalAnalyzer(cfg, model, graph).Detect()...)
	}

	if err := uc.writeOutputs(req, resp); err != nil {
		return nil, err
	}
	if req.ExportPath != "" {
		if err := uc.exportModel(req.ExportPath, model, graph); err != nil {
			return nil, err
		}
	}

	return resp, nil
}

// writeOutputs sends the text report to stdout or the requested file and,
// for file output, a CSV report next to it.
func (uc *AnalyzeUseCase) writeOutputs(req domain.AnalyzeRequest, resp *domain.AnalyzeResponse) error {
	if req.OutputPath == "" {
		return uc.reports.WriteText(os.Stdout, resp, req.Type)
	}

	txt, err := os.Create(req.OutputPath)
	if err != nil {
		return domain.NewOutputError(fmt.Sprintf("cannot create %s", req.OutputPath), err)
	}
	defer txt.Close()
	if err := uc.reports.WriteText(txt, resp, req.Type); err != nil {
		return domain.NewOutputError("writing text report", err)
	}
	uc.log.Infof("text report written to %s", req.OutputPath)

	csvPath := csvPathFor(req.OutputPath)
	csvFile, err := os.Create(csvPath)
	if err != nil {
		return domain.NewOutputError(fmt.Sprintf("cannot create %s", csvPath), err)
	}
	defer csvFile.Close()
	if err := uc.reports.WriteCSV(csvFile, resp, req.Type); err != nil {
		return domain.NewOutputError("writing CSV report", err)
	}
	uc.log.Infof("CSV report written to %s", csvPath)
	return nil
}

func (uc *AnalyzeUseCase) exportModel(path string, model *analyzer.FactModel, graph *analyzer.DependencyGraph) error {
	out, err := os.Create(path)
	if err != nil {
		return domain.NewOutputError(fmt.Sprintf("cannot create %s", path), err)
	}
	defer out.Close()
	if err := service.ExportModel(out, model, graph); err != nil {
		return domain.NewOutputError("writing model export", err)
	}
	uc.log.Infof("model exported to %s", path)
	return nil
}

// csvPathFor swaps the output extension for .csv
func csvPathFor(txtPath string) string {
	for i := len(txtPath) - 1; i >= 0; i-- {
		if txtPath[i] == '.' {
			return txtPath[:i] + ".csv"
		}
		if txtPath[i] == '/' || txtPath[i] == '\\' {
			break
		}
	}
	return txtPath + ".csv"
}

package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pysmell/pysmell/domain"
	"github.com/pysmell/pysmell/internal/analyzer"
	"github.com/pysmell/pysmell/internal/parser"
)

// ParseExecutor parses a project's files on a bounded worker pool and
// extracts per-module facts.
type ParseExecutor struct {
	reader  *FileReader
	log     *logrus.Logger
	workers int
	timeout time.Duration
}

// NewParseExecutor creates an executor sized to the machine
func NewParseExecutor(reader *FileReader, log *logrus.Logger) *ParseExecutor {
	return &ParseExecutor{
		reader:  reader,
		log:     log,
		workers: runtime.NumCPU(),
		timeout: 10 * time.Minute,
	}
}

// ParseOutcome is the collected result of parsing one project
type ParseOutcome struct {
	Modules []*analyzer.ModuleFacts
	Skipped []domain.FileError
}

// ParseProject parses every file and returns module facts in file order.
// A file that cannot be read, decoded, or parsed is recorded as skipped;
// only context cancellation aborts the run. Workers each own a parser
// because tree-sitter parsers are not safe for concurrent use.
func (e *ParseExecutor) ParseProject(ctx context.Context, root string, files []string, progress ProgressReporter) (*ParseOutcome, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	type slot struct {
		module *analyzer.ModuleFacts
		err    *domain.FileError
	}
	slots := make([]slot, len(files))

	jobs := make(chan int)
	var wg sync.WaitGroup

	workers := e.workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(files) && len(files) > 0 {
		workers = len(files)
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p := parser.New()
			defer p.Close()

			for i := range jobs {
				rel := files[i]
				mod, ferr := e.parseOne(ctx, p, root, rel)
				slots[i] = slot{module: mod, err: ferr}
				progress.Step()
			}
		}()
	}

dispatch:
	for i := range files {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, domain.NewFatalError("analysis cancelled", err)
	}

	// collection follows input file order, which is sorted; downstream
	// output is therefore independent of worker scheduling
	outcome := &ParseOutcome{}
	for _, s := range slots {
		switch {
		case s.module != nil:
			outcome.Modules = append(outcome.Modules, s.module)
		case s.err != nil:
			outcome.Skipped = append(outcome.Skipped, *s.err)
		}
	}
	return outcome, nil
}

func (e *ParseExecutor) parseOne(ctx context.Context, p *parser.Parser, root, rel string) (*analyzer.ModuleFacts, *domain.FileError) {
	raw, err := e.reader.ReadFile(root, rel)
	if err != nil {
		e.log.WithError(err).Debugf("skipping %s", rel)
		return nil, &domain.FileError{FilePath: rel, Message: err.Error()}
	}

	result, err := p.Parse(ctx, raw)
	if err != nil {
		e.log.WithError(err).Debugf("skipping %s", rel)
		return nil, &domain.FileError{FilePath: rel, Message: err.Error()}
	}

	return analyzer.ExtractModule(ModuleName(rel), rel, result), nil
}

package service

import (
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// ProgressReporter receives completion ticks while files are processed.
// Implementations must be safe for concurrent use.
type ProgressReporter interface {
	Step()
	Finish()
}

// NoopProgress discards all progress updates
type NoopProgress struct{}

func (NoopProgress) Step()   {}
func (NoopProgress) Finish() {}

type barProgress struct {
	bar *progressbar.ProgressBar
}

// NewProgress returns a terminal progress bar when stderr is a terminal,
// otherwise a no-op reporter so piped output stays clean.
func NewProgress(total int, description string) ProgressReporter {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return NoopProgress{}
	}
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(65*time.Millisecond),
	)
	return &barProgress{bar: bar}
}

func (p *barProgress) Step() {
	_ = p.bar.Add(1)
}

func (p *barProgress) Finish() {
	_ = p.bar.Finish()
}

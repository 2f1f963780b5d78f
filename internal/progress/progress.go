// Package progress reports run progress to the user: a redrawing
// single-line indicator on an interactive terminal, or periodic
// structured log lines otherwise (spec.md treats chart/report
// rendering as out of scope; this is just run-progress feedback, not a
// reporting layer).
package progress

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
)

// Reporter receives progress updates as work completes.
type Reporter interface {
	// Update reports that done of total units of work are complete.
	// Implementations must tolerate being called with total == 0.
	Update(stage string, done, total int)

	// Done marks the reporter's current stage as finished.
	Done(stage string)
}

// IsTTY reports whether w is an interactive terminal, following the
// same os.File-and-isatty check used elsewhere for TTY detection.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// NewReporter returns a TTYReporter if w is an interactive terminal,
// otherwise a LogReporter.
func NewReporter(w io.Writer) Reporter {
	if IsTTY(w) {
		return &TTYReporter{w: w}
	}
	return &LogReporter{}
}

// TTYReporter redraws a single progress line in place using carriage
// returns, for interactive terminal sessions.
type TTYReporter struct {
	w io.Writer
}

func (r *TTYReporter) Update(stage string, done, total int) {
	if total <= 0 {
		fmt.Fprintf(r.w, "\r%s: %d", stage, done)
		return
	}
	pct := float64(done) / float64(total) * 100
	fmt.Fprintf(r.w, "\r%s: %d/%d (%.1f%%)", stage, done, total, pct)
}

func (r *TTYReporter) Done(stage string) {
	fmt.Fprintf(r.w, "\r%s: done\n", stage)
}

// LogReporter emits structured log lines, suitable for CI logs and
// other non-interactive output.
type LogReporter struct{}

func (r *LogReporter) Update(stage string, done, total int) {
	slog.Info("progress", slog.String("stage", stage), slog.Int("done", done), slog.Int("total", total))
}

func (r *LogReporter) Done(stage string) {
	slog.Info("progress_done", slog.String("stage", stage))
}

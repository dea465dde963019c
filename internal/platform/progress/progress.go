// Package progress abstracts terminal progress bars so pipeline code can
// report row-level progress without depending on a rendering library.
package progress

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// Reporter hands out progress bars for pipeline stages.
type Reporter interface {
	// Start begins a bar with the given label and total unit count.
	// A negative total renders a spinner.
	Start(label string, total int64) Bar
}

// Bar tracks a single stage.
type Bar interface {
	Add(n int)
	Finish()
}

// Terminal renders bars to the given writer.
type Terminal struct {
	W io.Writer
}

func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{W: w}
}

func (t *Terminal) Start(label string, total int64) Bar {
	b := progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(label),
		progressbar.OptionSetWriter(t.W),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("rows"),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetElapsedTime(true),
	)
	return &terminalBar{b: b}
}

type terminalBar struct {
	b *progressbar.ProgressBar
}

func (t *terminalBar) Add(n int) { _ = t.b.Add(n) }
func (t *terminalBar) Finish()   { _ = t.b.Finish() }

// Noop discards all progress. Used in tests and when stdout is not a
// terminal.
type Noop struct{}

func (Noop) Start(string, int64) Bar { return noopBar{} }

type noopBar struct{}

func (noopBar) Add(int) {}
func (noopBar) Finish() {}

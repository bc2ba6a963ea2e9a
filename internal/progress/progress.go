// Package progress observes bytes transferred against an expected total.
// Trackers are purely observational: they never influence the control flow
// of the engines that feed them.
package progress

import (
	"fmt"
	"time"

	"github.com/tuxkal/drainpipe/internal/output"
)

type Tracker interface {
	// Begin starts (or restarts, after a fallback discard) a progress run.
	// A total of zero means the length is unknown.
	Begin(total int64, label string)
	Advance(n int64)
	End()
}

// Nop is used where no display is attached (tests, quiet mode).
type Nop struct{}

func (Nop) Begin(int64, string) {}
func (Nop) Advance(int64)       {}
func (Nop) End()                {}

// Display feeds a transfer's progress into the output manager. Reported
// progress is clamped at the declared total.
type Display struct {
	mgr     *output.Manager
	id      int
	label   string
	total   int64
	current int64
	start   time.Time
}

func NewDisplay(mgr *output.Manager, id int) *Display {
	return &Display{mgr: mgr, id: id}
}

func (d *Display) Begin(total int64, label string) {
	d.total = total
	d.current = 0
	d.label = label
	d.start = time.Now()
	if label != "" {
		d.mgr.SetMessage(d.id, fmt.Sprintf("Downloading %s", label))
	}
	d.mgr.SetProgress(d.id, 0, total, 0)
}

func (d *Display) Advance(n int64) {
	d.current += n
	if d.total > 0 && d.current > d.total {
		d.current = d.total
	}
	d.mgr.SetProgress(d.id, d.current, d.total, time.Since(d.start).Seconds())
}

func (d *Display) End() {
	d.mgr.SetProgress(d.id, d.current, d.total, time.Since(d.start).Seconds())
}

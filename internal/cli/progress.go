package cli

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

type scanProgressReporter struct {
	mu      sync.Mutex
	enabled bool
	label   string
	start   time.Time
	spinner int
	lastLen int
}

func newScanProgressReporter(label string, asJSON bool) *scanProgressReporter {
	stat, err := os.Stderr.Stat()
	enabled := err == nil && (stat.Mode()&os.ModeCharDevice) != 0 && !asJSON
	return &scanProgressReporter{
		enabled: enabled,
		label:   label,
		start:   time.Now(),
	}
}

// Update matches the synthesis progress callback and may be called
// concurrently.
func (r *scanProgressReporter) Update(file string, count, total int) {
	if !r.enabled {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	frames := [4]string{"-", "\\", "|", "/"}
	frame := frames[r.spinner%len(frames)]
	r.spinner++
	file = strings.TrimSpace(file)
	if len(file) > 88 {
		file = "..." + file[len(file)-85:]
	}

	status := fmt.Sprintf("%s %s %d/%d reading %s", frame, r.label, count, total, file)
	r.printStatus(status)
}

func (r *scanProgressReporter) Done(count int) {
	if !r.enabled {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	elapsed := time.Since(r.start).Round(time.Millisecond)
	status := fmt.Sprintf("%s complete (%d files in %s)", r.label, count, elapsed)
	r.printStatus(status)
	fmt.Fprintln(os.Stderr)
}

func (r *scanProgressReporter) printStatus(status string) {
	if r.lastLen > len(status) {
		status = status + strings.Repeat(" ", r.lastLen-len(status))
	}
	r.lastLen = len(status)
	fmt.Fprintf(os.Stderr, "\r%s", status)
}

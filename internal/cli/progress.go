package cli

import (
	"fmt"
	"io"
	"os"
	"time"
)

type progressStep struct {
	out     io.Writer
	started time.Time
}

// startProgress prints label to stderr on interactive terminals. It returns
// nil when progress output is disabled; a nil step is safe to use.
func startProgress(label string) *progressStep {
	if !progressEnabled() {
		return nil
	}
	fmt.Fprintf(os.Stderr, "%s... ", label)
	return &progressStep{out: os.Stderr, started: time.Now()}
}

func (p *progressStep) Done() {
	if p == nil {
		return
	}
	fmt.Fprintf(p.out, "done (%s)\n", formatDuration(time.Since(p.started)))
}

func (p *progressStep) Fail(err error) {
	if p == nil {
		return
	}
	if err != nil {
		fmt.Fprintf(p.out, "failed: %v\n", err)
		return
	}
	fmt.Fprintln(p.out, "failed")
}

func progressEnabled() bool {
	if IsJSONOutput() || IsNonInteractive() {
		return false
	}
	if _, ok := os.LookupEnv("NO_PROGRESS"); ok {
		return false
	}
	return true
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return d.String()
	}
	if d < time.Second {
		return d.Round(10 * time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}

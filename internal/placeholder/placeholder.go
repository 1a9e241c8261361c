// Package placeholder renders the fixed set of content markers understood by
// notebook templates.
package placeholder

import (
	"strings"
	"time"
)

// Recognized markers.
const (
	UsernameMarker = "##username##"
	DatetimeMarker = "##datetime##"
	DateMarker     = "##date##"
	TimeMarker     = "##time##"
)

// DefaultUsername is substituted when no authenticated identity is available.
const DefaultUsername = "anonymous"

const (
	dateLayout     = "2006-01-02"
	timeLayout     = "15:04:05"
	datetimeLayout = dateLayout + " " + timeLayout
)

// Engine replaces markers in template content.
type Engine struct {
	now func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New creates an Engine that reads the local wall clock.
func New(opts ...Option) *Engine {
	e := &Engine{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Render substitutes the username marker and the time markers.
// Replacement is literal; marker text is replaced wherever it appears.
func (e *Engine) Render(content, username string) string {
	if username == "" {
		username = DefaultUsername
	}

	now := e.now()
	out := strings.ReplaceAll(content, UsernameMarker, username)
	out = strings.ReplaceAll(out, DatetimeMarker, now.Format(datetimeLayout))
	out = strings.ReplaceAll(out, DateMarker, now.Format(dateLayout))
	return strings.ReplaceAll(out, TimeMarker, now.Format(timeLayout))
}

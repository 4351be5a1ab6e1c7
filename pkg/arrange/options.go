package arrange

import (
	"io"

	"github.com/charmbracelet/log"
)

// DefaultProgressInterval is the number of attempts between progress reports.
const DefaultProgressInterval = 1000

// Stats counts the work done by one arrangement.
type Stats struct {
	Attempts   int // Candidates offered to a template and the oracle
	Rejections int // Candidates refused by the template or the oracle
	Backtracks int // Accepted candidates whose subtree later failed
	MaxDepth   int // Most entries committed on a single search path
	Placed     int // Entries in the returned result
}

// EventKind classifies a search event.
type EventKind int

const (
	// EventPlaced reports a committed placement.
	EventPlaced EventKind = iota
	// EventRejected reports a candidate refused by its template or the oracle.
	EventRejected
	// EventBacktrack reports an accepted candidate being abandoned.
	EventBacktrack
)

func (k EventKind) String() string {
	switch k {
	case EventPlaced:
		return "placed"
	case EventRejected:
		return "rejected"
	case EventBacktrack:
		return "backtrack"
	default:
		return "unknown"
	}
}

// Event describes one step of the search.
type Event struct {
	Kind     EventKind
	Node     int    // Arm being filled
	Step     int    // Stack slot being filled
	Pool     int    // Pool the candidate came from
	Template string // Candidate name
	Depth    int    // Entries committed on the current path, including this one
}

// Option configures an [Arranger].
type Option func(*Arranger)

// WithMaxAttempts stops the search after n candidate attempts and returns the
// best partial result. Zero or negative means unlimited.
func WithMaxAttempts(n int) Option {
	return func(a *Arranger) { a.maxAttempts = n }
}

// WithProgress registers a callback invoked every interval attempts and once
// when the search ends. An interval of zero or less uses
// [DefaultProgressInterval].
func WithProgress(interval int, fn func(Stats)) Option {
	return func(a *Arranger) {
		if interval <= 0 {
			interval = DefaultProgressInterval
		}
		a.progressEvery = interval
		a.progress = fn
	}
}

// WithTrace registers a callback invoked for every search event. The CLI's
// arrange --trace logs these at debug level; tracing a large search is slow.
func WithTrace(fn func(Event)) Option {
	return func(a *Arranger) { a.trace = fn }
}

// WithLogger sets the logger used for debug output. By default the arranger
// discards its logs.
func WithLogger(l *log.Logger) Option {
	return func(a *Arranger) {
		if l != nil {
			a.logger = l
		}
	}
}

func discardLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

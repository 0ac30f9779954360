// Package trace records the descent of a parse as indented, levelled
// entries.
package trace

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
)

// Level classifies a trace entry.
type Level int

const (
	Success Level = iota
	Error
	Warning
	Info
)

func (l Level) String() string {
	switch l {
	case Success:
		return "success"
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "info"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

type Entry struct {
	Label   string
	Level   Level
	Message string
	Depth   int
}

func (e Entry) String() string {
	return fmt.Sprintf("%s[%s] %s: %s", strings.Repeat("  ", e.Depth), e.Level, e.Label, e.Message)
}

// Tracer brackets regions with Begin and End and logs entries at the
// current depth. Every Begin must be paired with exactly one End, also on
// early returns; Scope makes that a one-liner with defer.
type Tracer interface {
	Begin()
	End()
	Log(label string, level Level, message string)
	// IgnoresLogMessages lets callers skip formatting messages nobody reads.
	IgnoresLogMessages() bool
}

// Scope begins a child scope on t and returns the matching End.
func Scope(t Tracer) func() {
	t.Begin()
	return t.End
}

// Logf formats and logs a message unless t ignores messages.
func Logf(t Tracer, label string, level Level, format string, args ...any) {
	if t.IgnoresLogMessages() {
		return
	}
	t.Log(label, level, fmt.Sprintf(format, args...))
}

type discard struct{}

func (discard) Begin()                    {}
func (discard) End()                      {}
func (discard) Log(string, Level, string) {}
func (discard) IgnoresLogMessages() bool  { return true }

// Discard returns a Tracer that does nothing.
func Discard() Tracer { return discard{} }

// Recorder is a Tracer that keeps every entry in memory.
type Recorder struct {
	mu        sync.Mutex
	session   string
	depth     int
	count     int
	entries   []Entry
	stopAfter int
	stop      func(Entry)
	log       commonlog.Logger
}

type RecorderOption func(*Recorder)

// WithStopAfter calls hook once, when the n-th entry is logged. It is a
// breakpoint aid and does not affect what is recorded.
func WithStopAfter(n int, hook func(Entry)) RecorderOption {
	return func(r *Recorder) {
		r.stopAfter = n
		r.stop = hook
	}
}

// WithLogger mirrors every entry to log, indented by depth and tagged with
// the recorder's session id.
func WithLogger(log commonlog.Logger) RecorderOption {
	return func(r *Recorder) {
		r.log = log
	}
}

func NewRecorder(opts ...RecorderOption) *Recorder {
	r := &Recorder{session: uuid.NewString()}
	for _, opt := range opts {
		opt(r)
	}
	if r.log != nil {
		r.log = commonlog.NewKeyValueLogger(r.log, "session", r.session)
	}
	return r
}

func (r *Recorder) Session() string { return r.session }

func (r *Recorder) Begin() {
	r.mu.Lock()
	r.depth++
	r.mu.Unlock()
}

func (r *Recorder) End() {
	r.mu.Lock()
	if r.depth > 0 {
		r.depth--
	}
	r.mu.Unlock()
}

func (r *Recorder) Depth() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.depth
}

func (r *Recorder) IgnoresLogMessages() bool { return false }

func (r *Recorder) Log(label string, level Level, message string) {
	r.mu.Lock()
	e := Entry{Label: label, Level: level, Message: message, Depth: r.depth}
	r.entries = append(r.entries, e)
	r.count++
	fire := r.stop != nil && r.count == r.stopAfter
	log := r.log
	r.mu.Unlock()

	if log != nil {
		mirror(log, e)
	}
	if fire {
		r.stop(e)
	}
}

// Entries returns a copy of everything logged so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

func (r *Recorder) String() string {
	var b strings.Builder
	for _, e := range r.Entries() {
		b.WriteString(e.String())
		b.WriteByte('\n')
	}
	return b.String()
}

func mirror(log commonlog.Logger, e Entry) {
	msg := strings.Repeat("  ", e.Depth) + e.Label + ": " + e.Message
	switch e.Level {
	case Error:
		log.Error(msg)
	case Warning:
		log.Warning(msg)
	case Success:
		log.Notice(msg)
	default:
		log.Info(msg)
	}
}

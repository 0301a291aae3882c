// Package status carries the human-readable progress lines produced by the
// importer, exporter, stager and uploader to whatever displays them.
package status

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Line prefixes understood by every display.
const (
	TagInfo  = "[INFO]"
	TagWarn  = "[WARN]"
	TagError = "[ERROR]"
)

// Sink receives status lines in emission order. Implementations must be safe
// for use from the upload goroutine.
type Sink interface {
	Emit(line string)
}

// SinkFunc adapts a plain function to Sink.
type SinkFunc func(line string)

func (f SinkFunc) Emit(line string) { f(line) }

// Discard drops every line.
var Discard Sink = SinkFunc(func(string) {})

// Printer formats tagged lines onto a Sink.
type Printer struct {
	Sink Sink
}

func NewPrinter(sink Sink) Printer {
	if sink == nil {
		sink = Discard
	}
	return Printer{Sink: sink}
}

func (p Printer) Info(format string, args ...interface{}) {
	p.emit(TagInfo, format, args...)
}

func (p Printer) Warn(format string, args ...interface{}) {
	p.emit(TagWarn, format, args...)
}

func (p Printer) Error(format string, args ...interface{}) {
	p.emit(TagError, format, args...)
}

func (p Printer) emit(tag, format string, args ...interface{}) {
	if p.Sink == nil {
		return
	}
	p.Sink.Emit(tag + " " + fmt.Sprintf(format, args...))
}

// Buffer collects lines in memory.
type Buffer struct {
	mu    sync.Mutex
	lines []string
}

func (b *Buffer) Emit(line string) {
	b.mu.Lock()
	b.lines = append(b.lines, line)
	b.mu.Unlock()
}

// Lines returns a copy of everything emitted so far.
func (b *Buffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}

// Count returns how many lines start with tag.
func (b *Buffer) Count(tag string) int {
	n := 0
	for _, l := range b.Lines() {
		if strings.HasPrefix(l, tag) {
			n++
		}
	}
	return n
}

// WithLog mirrors every line into the diagnostic log at the level its tag implies.
func WithLog(next Sink, logger zerolog.Logger) Sink {
	return SinkFunc(func(line string) {
		ev := logger.Info()
		switch {
		case strings.HasPrefix(line, TagError):
			ev = logger.Error()
		case strings.HasPrefix(line, TagWarn):
			ev = logger.Warn()
		}
		ev.Str("component", "status").Msg(line)
		if next != nil {
			next.Emit(line)
		}
	})
}

package util

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// SafePrinter serializes writes to a terminal (or any writer) so status lines
// coming from the upload goroutine never interleave with menu output.
type SafePrinter struct {
	mu        sync.Mutex
	out       io.Writer
	suspended bool
	pending   []string
}

// Default is the shared SafePrinter writing to stdout.
var Default = NewSafePrinter(os.Stdout)

func NewSafePrinter(out io.Writer) *SafePrinter {
	return &SafePrinter{out: out}
}

func (s *SafePrinter) Printf(format string, a ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.suspended {
		return
	}
	fmt.Fprintf(s.out, format, a...)
}

func (s *SafePrinter) Println(a ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.suspended {
		return
	}
	fmt.Fprintln(s.out, a...)
}

// Line writes one status line, clearing whatever partial line (for example a
// progress bar) currently occupies the cursor row.
func (s *SafePrinter) Line(line string, clearLine bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.suspended {
		s.pending = append(s.pending, line)
		return
	}
	if clearLine {
		fmt.Fprint(s.out, "\r\x1b[K")
	}
	fmt.Fprint(s.out, line)
	if !strings.HasSuffix(line, "\n") {
		fmt.Fprint(s.out, "\n")
	}
}

// ClearLine clears the current line and returns the cursor to the beginning.
func (s *SafePrinter) ClearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.suspended {
		return
	}
	fmt.Fprint(s.out, "\r\x1b[K")
}

// Suspend holds back status lines until Resume is called. Used while
// promptui owns the terminal; Printf/Println output is dropped meanwhile.
func (s *SafePrinter) Suspend() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suspended = true
}

// Resume re-enables printing and flushes the lines held during Suspend.
func (s *SafePrinter) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suspended = false
	for _, line := range s.pending {
		fmt.Fprint(s.out, line)
		if !strings.HasSuffix(line, "\n") {
			fmt.Fprint(s.out, "\n")
		}
	}
	s.pending = nil
}

func (s *SafePrinter) IsSuspended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.suspended
}

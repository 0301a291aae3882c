package util

import (
	"bytes"
	"testing"
)

func TestSafePrinterHoldsLinesWhileSuspended(t *testing.T) {
	var buf bytes.Buffer
	p := NewSafePrinter(&buf)

	p.Suspend()
	if !p.IsSuspended() {
		t.Fatalf("expected printer to report suspended")
	}
	p.Line("[INFO] first", false)
	p.Line("[INFO] second\n", false)
	if buf.Len() != 0 {
		t.Fatalf("expected no output while suspended, got %q", buf.String())
	}

	p.Resume()
	if got, want := buf.String(), "[INFO] first\n[INFO] second\n"; got != want {
		t.Fatalf("unexpected flushed output: got %q want %q", got, want)
	}
}

func TestSafePrinterLineClearsRow(t *testing.T) {
	var buf bytes.Buffer
	p := NewSafePrinter(&buf)
	p.Line("done", true)
	if got := buf.String(); got != "\r\x1b[Kdone\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

package cmd

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"catalog-sync/internal/config"
	"catalog-sync/internal/export"
	"catalog-sync/internal/status"
	"catalog-sync/internal/syncdata"
)

type memTransport struct {
	mu     sync.Mutex
	remote []string
	stored []string

	// gate, when set, holds every Store until it is closed.
	gate chan struct{}
}

func (m *memTransport) Login(string, string) error { return nil }
func (m *memTransport) List() ([]string, error) { return m.remote, nil }
func (m *memTransport) Close() error { return nil }

func (m *memTransport) Store(name string, r io.Reader, size int64) error {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return err
	}
	if m.gate != nil {
		<-m.gate
	}
	m.mu.Lock()
	m.stored = append(m.stored, name)
	m.mu.Unlock()
	return nil
}

func newTestCatalog(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	root := filepath.Join(t.TempDir(), "catalog")
	files := map[string]string{
		"shoes/red/SK001 1,5 x Red shoes.jpg": "red",
		"shoes/SK002 2 x Plain shoes.jpg":     "plain",
		"names.txt":                           "SK00;Shoe\n",
	}
	for rel, body := range files {
		p := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestSessionRequiresLoad(t *testing.T) {
	root := newTestCatalog(t)
	buf := &status.Buffer{}
	s := newSession(root, buf)
	defer s.close()
	if err := s.show(); err != errNotLoaded {
		t.Fatalf("show err = %v", err)
	}
	if err := s.saveCSV("https://x/"); err != errNotLoaded {
		t.Fatalf("saveCSV err = %v", err)
	}
	if _, err := s.saveImages(); err != errNotLoaded {
		t.Fatalf("saveImages err = %v", err)
	}
}

func TestSessionExportStageUpload(t *testing.T) {
	root := newTestCatalog(t)
	buf := &status.Buffer{}
	s := newSession(root, buf)
	defer s.close()

	cat, err := s.load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cat.Products) != 2 {
		t.Fatalf("products = %d", len(cat.Products))
	}
	if err := s.saveCSV("https://shop/img/"); err != nil {
		t.Fatalf("saveCSV: %v", err)
	}
	csv, err := os.ReadFile(s.layout.ProductsCSV)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(csv), "https://shop/img/SK001.jpg") {
		t.Fatalf("csv missing image url:\n%s", csv)
	}
	if _, err := os.Stat(s.layout.Categories); err != nil {
		t.Fatalf("categories not written: %v", err)
	}
	if err := s.saveXLSX("https://shop/img/"); err != nil {
		t.Fatalf("saveXLSX: %v", err)
	}

	rep, err := s.saveImages()
	if err != nil {
		t.Fatalf("saveImages: %v", err)
	}
	if len(rep.Missing) != 0 || rep.ImageCount != 2 {
		t.Fatalf("report = %+v", rep)
	}

	tr := &memTransport{remote: []string{"SK001.jpg"}}
	s.uploader.Dial = func(context.Context, syncdata.Target, syncdata.Options) (syncdata.Transport, error) {
		return tr, nil
	}
	cfg := &config.Config{Remote: config.Remote{URL: "ftp://example.com/img", User: "shop"}}
	if err := s.startUpload(context.Background(), cfg); err != nil {
		t.Fatalf("startUpload: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for s.uploading() {
		if time.Now().After(deadline) {
			t.Fatal("upload did not finish")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if len(tr.stored) != 1 || tr.stored[0] != "SK002.jpg" {
		t.Fatalf("stored = %v", tr.stored)
	}
	if buf.Count("[INFO] Upload completed") != 1 {
		t.Fatalf("lines = %q", buf.Lines())
	}
}

func useTransport(s *session, tr syncdata.Transport) {
	s.uploader.Dial = func(context.Context, syncdata.Target, syncdata.Options) (syncdata.Transport, error) {
		return tr, nil
	}
}

func stagedSession(t *testing.T, root string) *session {
	t.Helper()
	s := newSession(root, &status.Buffer{})
	t.Cleanup(s.close)
	if _, err := s.load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := s.saveImages(); err != nil {
		t.Fatalf("saveImages: %v", err)
	}
	return s
}

func waitIdle(t *testing.T, s *session) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for s.uploading() {
		if time.Now().After(deadline) {
			t.Fatal("upload did not finish")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestStopUploadAfterCompletion(t *testing.T) {
	s := stagedSession(t, newTestCatalog(t))
	useTransport(s, &memTransport{})
	cfg := &config.Config{Remote: config.Remote{URL: "ftp://example.com/img", User: "shop"}}

	if s.stopUpload() {
		t.Fatal("stopUpload reported a run before any upload started")
	}
	if err := s.startUpload(context.Background(), cfg); err != nil {
		t.Fatalf("startUpload: %v", err)
	}
	waitIdle(t, s)
	if s.stopUpload() {
		t.Fatal("stopUpload reported a run after the upload completed")
	}
}

func TestSessionsTrackTheirOwnUploads(t *testing.T) {
	a := stagedSession(t, newTestCatalog(t))
	b := stagedSession(t, newTestCatalog(t))
	cfg := &config.Config{Remote: config.Remote{URL: "ftp://example.com/img", User: "shop"}}

	gate := make(chan struct{})
	held := &memTransport{gate: gate}
	useTransport(a, held)
	useTransport(b, &memTransport{})
	defer close(gate)

	if err := a.startUpload(context.Background(), cfg); err != nil {
		t.Fatalf("a.startUpload: %v", err)
	}
	if err := b.startUpload(context.Background(), cfg); err != nil {
		t.Fatalf("b.startUpload: %v", err)
	}
	waitIdle(t, b)

	if !a.uploading() {
		t.Fatal("a stopped tracking its upload when b finished")
	}
	if b.stopUpload() {
		t.Fatal("b reported a run after its upload completed")
	}
	if !a.stopUpload() {
		t.Fatal("a could not stop its running upload")
	}
}

func TestUploadOptionsValidates(t *testing.T) {
	_, err := uploadOptions(export.Paths(t.TempDir()), &config.Config{})
	if err == nil || !strings.Contains(err.Error(), "url cannot be empty") {
		t.Fatalf("err = %v", err)
	}
}


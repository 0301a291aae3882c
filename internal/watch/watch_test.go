package watch

import (
	"context"
	"sync"
	"testing"
	"time"

	"catalog-sync/internal/catalog"

	"github.com/rjeczalik/notify"
	"github.com/spf13/afero"
)

type fakeEvent struct {
	path string
}

func (e fakeEvent) Event() notify.Event { return notify.Write }
func (e fakeEvent) Path() string { return e.path }
func (e fakeEvent) Sys() interface{} { return nil }

func TestRelevant(t *testing.T) {
	cases := map[string]bool{
		"/c/shoes/SK1 1 x.jpg":  true,
		"/c/shoes/SK1 1 x.JPG":  true,
		"/c/names.txt":          true,
		"/c/shoes":              true,
		"/c/shoes/readme.md":    false,
		"/c/.DS_Store":          false,
		"/c/shoes/.SK1.jpg.swp": false,
		"/c/catalog-sync.yaml":  false,
	}
	for path, want := range cases {
		if got := Relevant(path); got != want {
			t.Errorf("Relevant(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestLoopDebouncesReimports(t *testing.T) {
	fsys := afero.NewMemMapFs()
	afero.WriteFile(fsys, "/catalog/shoes/SK1 1 x.jpg", []byte("a"), 0644)

	var mu sync.Mutex
	var counts []int
	imported := make(chan struct{}, 10)
	w := &Watcher{
		Root:     "/catalog",
		Debounce: 20 * time.Millisecond,
		Importer: &catalog.Importer{Fs: fsys},
		OnImport: func(cat *catalog.Catalog, err error) {
			if err != nil {
				t.Errorf("import: %v", err)
				return
			}
			mu.Lock()
			counts = append(counts, len(cat.Products))
			mu.Unlock()
			imported <- struct{}{}
		},
	}

	ch := make(chan notify.EventInfo, 10)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.loop(ctx, ch) }()

	waitImport := func() {
		t.Helper()
		select {
		case <-imported:
		case <-time.After(5 * time.Second):
			t.Fatal("no import")
		}
	}
	waitImport()

	afero.WriteFile(fsys, "/catalog/shoes/SK2 1 y.jpg", []byte("b"), 0644)
	ch <- fakeEvent{"/catalog/shoes/SK2 1 y.jpg"}
	ch <- fakeEvent{"/catalog/shoes/SK2 1 y.jpg"}
	ch <- fakeEvent{"/catalog/shoes/.tmp"}
	waitImport()

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("loop: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(counts) != 2 || counts[0] != 1 || counts[1] != 2 {
		t.Fatalf("import counts = %v", counts)
	}
}

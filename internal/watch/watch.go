// Package watch re-imports a catalog whenever its directory tree changes.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"catalog-sync/internal/catalog"
	"catalog-sync/internal/events"

	"github.com/rjeczalik/notify"
	"github.com/rs/zerolog/log"
)

// DefaultDebounce is how long the tree has to stay quiet before a re-import.
const DefaultDebounce = 750 * time.Millisecond

type Watcher struct {
	Root     string
	Debounce time.Duration
	Importer *catalog.Importer
	// OnImport receives the result of every re-import, including the first one.
	OnImport func(cat *catalog.Catalog, err error)
}

func New(root string, onImport func(*catalog.Catalog, error)) *Watcher {
	return &Watcher{
		Root:     root,
		Debounce: DefaultDebounce,
		Importer: catalog.NewImporter(),
		OnImport: onImport,
	}
}

// Relevant reports whether a change at path can alter the import result.
// Directory events count because renaming a folder renames a category.
func Relevant(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	if base == catalog.NamesFileName {
		return true
	}
	ext := filepath.Ext(base)
	return ext == "" || strings.EqualFold(ext, ".jpg")
}

// Run imports once, then again after each quiet period following a change,
// until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	absRoot, err := filepath.Abs(w.Root)
	if err != nil {
		return err
	}
	ch := make(chan notify.EventInfo, 100)
	if err := notify.Watch(filepath.Join(absRoot, "..."), ch, notify.All); err != nil {
		return fmt.Errorf("failed to setup file watcher: %v", err)
	}
	defer notify.Stop(ch)
	log.Info().Str("root", absRoot).Msg("watching catalog")
	return w.loop(ctx, ch)
}

func (w *Watcher) loop(ctx context.Context, ch <-chan notify.EventInfo) error {
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w.reimport()

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			if !Relevant(ev.Path()) {
				continue
			}
			log.Debug().Str("path", ev.Path()).Str("event", ev.Event().String()).Msg("catalog changed")
			timer.Reset(debounce)
		case <-timer.C:
			w.reimport()
		}
	}
}

func (w *Watcher) reimport() {
	imp := w.Importer
	if imp == nil {
		imp = catalog.NewImporter()
	}
	cat, err := imp.Import(w.Root)
	if err == nil {
		events.GlobalBus.Publish(events.EventCatalogLoaded, cat)
	}
	if w.OnImport != nil {
		w.OnImport(cat, err)
	}
}

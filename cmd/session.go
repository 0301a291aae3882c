package cmd

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"catalog-sync/internal/catalog"
	"catalog-sync/internal/config"
	"catalog-sync/internal/events"
	"catalog-sync/internal/export"
	"catalog-sync/internal/history"
	"catalog-sync/internal/stage"
	"catalog-sync/internal/status"
	"catalog-sync/internal/syncdata"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

var errNotLoaded = errors.New("products are not loaded")

// session holds what one catalog root has produced so far: the last import,
// the staged images and the running upload.
type session struct {
	root     string
	layout   export.Layout
	fs       afero.Fs
	importer *catalog.Importer
	sink     status.Sink
	printer  status.Printer
	uploader *syncdata.Uploader

	mu   sync.Mutex
	cat  *catalog.Catalog
	task *syncdata.Task
}

func newSession(root string, sink status.Sink) *session {
	s := &session{
		root:     root,
		layout:   export.Paths(root),
		fs:       afero.NewOsFs(),
		importer: catalog.NewImporter(),
		sink:     sink,
		printer:  status.NewPrinter(sink),
		uploader: syncdata.NewUploader(sink),
	}
	return s
}

// close cancels a running upload and waits for it.
func (s *session) close() {
	if task := s.activeTask(); task != nil {
		task.Cancel()
		task.Wait()
	}
}

func (s *session) current() *catalog.Catalog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cat
}

// activeTask returns this session's upload while it is still running. A task
// whose outcome is in is forgotten.
func (s *session) activeTask() *syncdata.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.task == nil {
		return nil
	}
	select {
	case <-s.task.Done():
		s.task = nil
		return nil
	default:
		return s.task
	}
}

func (s *session) uploading() bool {
	return s.activeTask() != nil
}

// load re-imports the whole tree and replaces the previous result.
func (s *session) load() (*catalog.Catalog, error) {
	cat, err := s.importer.Import(s.root)
	if err != nil {
		s.printer.Error("%v", err)
		return nil, err
	}
	catalog.Report(s.printer, cat)
	s.mu.Lock()
	s.cat = cat
	s.mu.Unlock()

	events.GlobalBus.Publish(events.EventCatalogLoaded, cat)
	if err := history.RecordImport(cat.Root, len(cat.Products), cat.Fingerprint()); err != nil {
		log.Warn().Err(err).Msg("history update failed")
	}
	return cat, nil
}

func (s *session) show() error {
	cat := s.current()
	if cat == nil {
		s.printer.Warn("Products are not loaded")
		return errNotLoaded
	}
	for _, p := range cat.Products {
		s.sink.Emit(p.String())
	}
	s.printer.Info("%d products, fingerprint %s", len(cat.Products), cat.Fingerprint())
	return nil
}

// saveCSV writes products.csv and categories.txt next to the catalog root.
func (s *session) saveCSV(urlPrefix string) error {
	cat := s.current()
	if cat == nil {
		s.printer.Warn("Products are not loaded")
		return errNotLoaded
	}
	products := cat.Copy()
	if err := export.WriteCSV(s.fs, products, urlPrefix, s.layout.ProductsCSV); err != nil {
		s.printer.Error("Can't save CSV: %v", err)
		return err
	}
	s.printer.Info("CSV saved to %s", s.layout.ProductsCSV)
	if err := export.WriteCategories(s.fs, products, s.layout.Categories); err != nil {
		s.printer.Error("Can't save categories: %v", err)
		return err
	}
	s.printer.Info("Categories saved to %s", s.layout.Categories)
	return nil
}

// saveXLSX writes the same product rows as products.xlsx.
func (s *session) saveXLSX(urlPrefix string) error {
	cat := s.current()
	if cat == nil {
		s.printer.Warn("Products are not loaded")
		return errNotLoaded
	}
	if err := export.WriteXLSX(s.fs, cat.Copy(), urlPrefix, s.layout.ProductsXLSX); err != nil {
		s.printer.Error("Can't save XLSX: %v", err)
		return err
	}
	s.printer.Info("XLSX saved to %s", s.layout.ProductsXLSX)
	return nil
}

func (s *session) saveImages() (*stage.Report, error) {
	cat := s.current()
	if cat == nil {
		s.printer.Warn("Products are not loaded")
		return nil, errNotLoaded
	}
	rep, err := stage.New(s.printer).Stage(cat.Copy(), s.layout.ImagesDir)
	if err != nil {
		s.printer.Error("%v", err)
		return nil, err
	}
	return rep, nil
}

// startUpload launches a background run over the staging folder.
func (s *session) startUpload(ctx context.Context, cfg *config.Config) error {
	opts, err := uploadOptions(s.layout, cfg)
	if err != nil {
		s.printer.Error("%v", err)
		return err
	}
	task, err := s.uploader.Start(ctx, opts)
	if err != nil {
		s.printer.Warn("%v", err)
		return err
	}
	s.mu.Lock()
	s.task = task
	s.mu.Unlock()
	return nil
}

// stopUpload asks the running upload to stop before its next file. It
// reports false when no upload of this session is running.
func (s *session) stopUpload() bool {
	task := s.activeTask()
	if task == nil {
		return false
	}
	task.Cancel()
	return true
}

func uploadOptions(layout export.Layout, cfg *config.Config) (syncdata.Options, error) {
	if err := config.ValidateForUpload(cfg); err != nil {
		return syncdata.Options{}, err
	}
	timeout, err := cfg.Remote.TimeoutDuration()
	if err != nil {
		return syncdata.Options{}, fmt.Errorf("configuration validation failed:\n%v", err)
	}
	return syncdata.Options{
		StagingDir:     layout.ImagesDir,
		RemoteURL:      cfg.Remote.URL,
		Username:       cfg.Remote.User,
		Password:       cfg.Remote.Password,
		PrivateKeyPath: cfg.Remote.PrivateKey,
		KnownHostsFile: cfg.Remote.KnownHosts,
		Timeout:        timeout,
	}, nil
}

// Package stage copies product images into a flat folder named by SKU,
// ready to be synchronized with the remote server.
package stage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"catalog-sync/internal/catalog"
	"catalog-sync/internal/status"

	"github.com/cespare/xxhash/v2"
	"github.com/otiai10/copy"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Report summarizes one staging run.
type Report struct {
	Staged []string
	// Failed maps a SKU to the reason its image could not be staged.
	Failed map[string]error
	// Missing lists SKUs with no staged image after the run.
	Missing []string
	// ImageCount is the number of files found in the staging folder.
	ImageCount int
}

type Stager struct {
	Printer status.Printer
	// Verify compares source and copy by content hash after each copy.
	Verify bool
}

func New(p status.Printer) *Stager {
	return &Stager{Printer: p, Verify: true}
}

// StagedName is the file name an image is staged under.
func StagedName(sku string) string {
	return sku + ".jpg"
}

// Stage copies every product's source image to dir/<sku>.jpg, replacing
// existing files. A failed copy is reported and the remaining products are
// still staged. Only failing to create dir is an error.
func (s *Stager) Stage(products []catalog.Product, dir string) (*Report, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create staging folder %s: %w", dir, err)
	}

	rep := &Report{Failed: map[string]error{}}
	for _, p := range products {
		dest := filepath.Join(dir, StagedName(p.SKU))
		if err := s.copyOne(p.SourceFile, dest); err != nil {
			s.Printer.Error("Can't copy image for SKU %s: %v", p.SKU, err)
			rep.Failed[p.SKU] = err
			continue
		}
		rep.Staged = append(rep.Staged, dest)
	}
	s.Printer.Info("Images saved to %s", dir)

	missing, count, err := CheckStaged(products, dir)
	if err != nil {
		s.Printer.Warn("Can't check saved images: %v", err)
		return rep, nil
	}
	rep.Missing = missing
	rep.ImageCount = count
	s.Printer.Info("Number of image files: %d", count)
	for _, sku := range missing {
		s.Printer.Error("Product doesn't have image file: %s", sku)
	}
	return rep, nil
}

func (s *Stager) copyOne(src, dest string) error {
	if err := copy.Copy(src, dest, copy.Options{Sync: true}); err != nil {
		return err
	}
	if !s.Verify {
		return nil
	}
	want, err := fileHash(src)
	if err != nil {
		return err
	}
	got, err := fileHash(dest)
	if err != nil {
		return err
	}
	if want != got {
		return fmt.Errorf("staged copy %s differs from source", dest)
	}
	return nil
}

func fileHash(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}

// CheckStaged lists the regular files in dir and returns the SKUs that have no
// staged image (compared case-insensitively on the name before the first
// '.'), plus the number of files found.
func CheckStaged(products []catalog.Product, dir string) ([]string, int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, 0, err
	}
	lower := cases.Lower(language.Russian)
	have := make(map[string]struct{}, len(entries))
	count := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		count++
		base, _, _ := strings.Cut(e.Name(), ".")
		have[lower.String(base)] = struct{}{}
	}

	var missing []string
	for _, p := range products {
		if _, ok := have[lower.String(p.SKU)]; !ok {
			missing = append(missing, p.SKU)
		}
	}
	return missing, count, nil
}

package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"catalog-sync/internal/status"

	"github.com/spf13/afero"
)

// DefaultMaxDepth bounds how deep below the root images are looked for.
const DefaultMaxDepth = 10

// ErrCatalogRead marks failures to traverse the catalog root.
var ErrCatalogRead = errors.New("can't read products")

// CatalogReadError reports the path that could not be read.
type CatalogReadError struct {
	Path string
	Err  error
}

func (e *CatalogReadError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrCatalogRead, e.Path, e.Err)
}

func (e *CatalogReadError) Unwrap() []error { return []error{ErrCatalogRead, e.Err} }

// Importer scans a catalog directory tree.
type Importer struct {
	Fs       afero.Fs
	MaxDepth int
}

// NewImporter returns an Importer over the OS filesystem.
func NewImporter() *Importer {
	return &Importer{Fs: afero.NewOsFs(), MaxDepth: DefaultMaxDepth}
}

// Import re-reads the whole tree under root and returns every accepted image
// as a Product, together with the warnings collected while parsing and
// validating. Only an unreadable tree is an error.
func (im *Importer) Import(root string) (*Catalog, error) {
	fsys := im.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	maxDepth := im.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, &CatalogReadError{Path: root, Err: err}
	}
	info, err := fsys.Stat(absRoot)
	if err != nil {
		return nil, &CatalogReadError{Path: absRoot, Err: err}
	}
	if !info.IsDir() {
		return nil, &CatalogReadError{Path: absRoot, Err: errors.New("not a directory")}
	}

	names, warnings, err := LoadNames(fsys, absRoot)
	if err != nil {
		return nil, &CatalogReadError{Path: absRoot, Err: err}
	}

	cat := &Catalog{Root: absRoot}
	err = afero.Walk(fsys, absRoot, func(p string, fi os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if p == absRoot {
			return nil
		}
		rel, rerr := filepath.Rel(absRoot, p)
		if rerr != nil {
			return rerr
		}
		depth := len(strings.Split(rel, string(filepath.Separator)))
		if fi.IsDir() {
			if depth >= maxDepth {
				return filepath.SkipDir
			}
			return nil
		}
		if !fi.Mode().IsRegular() || !strings.EqualFold(filepath.Ext(p), ".jpg") {
			return nil
		}

		fields, perr := ParseFilename(fi.Name())
		if perr != nil {
			warnings = append(warnings, Warning{
				Kind:    MalformedFilename,
				Path:    p,
				Message: fmt.Sprintf("Skipping file with malformed name: %s", p),
			})
			return nil
		}

		prod := Product{
			SKU:         fields.SKU,
			Weight:      fields.Weight,
			Description: fields.Description,
			Categories:  categoriesOf(filepath.Dir(rel)),
			SourceFile:  p,
		}
		name, ok := names.Resolve(prod.SKU)
		prod.Name = name
		if !ok && names != nil {
			warnings = append(warnings, Warning{
				Kind:    MissingName,
				SKU:     prod.SKU,
				Path:    p,
				Message: fmt.Sprintf("No name found in %s for SKU: %s", NamesFileName, prod.SKU),
			})
		}
		cat.Products = append(cat.Products, prod)
		return nil
	})
	if err != nil {
		return nil, &CatalogReadError{Path: absRoot, Err: err}
	}

	cat.Warnings = append(warnings, Validate(cat.Products)...)
	return cat, nil
}

// categoriesOf turns a root-relative directory ("shoes/red") into leaf-to-root
// category names (["red", "shoes"]).
func categoriesOf(relDir string) []string {
	if relDir == "." || relDir == "" {
		return nil
	}
	parts := strings.Split(relDir, string(filepath.Separator))
	out := make([]string, 0, len(parts))
	for i := len(parts) - 1; i >= 0; i-- {
		out = append(out, parts[i])
	}
	return out
}

// Report prints the load summary and every warning.
func Report(p status.Printer, cat *Catalog) {
	p.Info("Loaded %d products.", len(cat.Products))
	for _, w := range cat.Warnings {
		p.Warn("%s", w)
	}
}

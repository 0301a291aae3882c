// Package export writes an imported catalog as products.csv (or products.xlsx)
// and categories.txt next to the catalog directory.
package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"catalog-sync/internal/catalog"

	"github.com/spf13/afero"
)

const (
	ProductsFileName     = "products.csv"
	ProductsXLSXFileName = "products.xlsx"
	CategoriesFileName   = "categories.txt"
	ImagesDirName        = "images"

	productType = "virtual"
	weightLabel = "Вес"
)

var header = []string{
	"Type", "sku", "Regular price", "Attribute 1 name", "Attribute 1 value(s)",
	"Categories", "Name", "Images", "Description",
}

var (
	// ErrValidation is returned before anything is written when the inputs
	// cannot produce a usable export.
	ErrValidation = errors.New("export validation failed")
	// ErrExportIO marks write failures.
	ErrExportIO = errors.New("export write failed")
)

// IOError reports the destination that could not be written.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrExportIO, e.Path, e.Err)
}

func (e *IOError) Unwrap() []error { return []error{ErrExportIO, e.Err} }

// Layout holds the output locations derived from a catalog root. Everything
// lands in the catalog's parent directory.
type Layout struct {
	ProductsCSV  string
	ProductsXLSX string
	Categories   string
	ImagesDir    string
}

func Paths(catalogRoot string) Layout {
	parent := filepath.Dir(filepath.Clean(catalogRoot))
	return Layout{
		ProductsCSV:  filepath.Join(parent, ProductsFileName),
		ProductsXLSX: filepath.Join(parent, ProductsXLSXFileName),
		Categories:   filepath.Join(parent, CategoriesFileName),
		ImagesDir:    filepath.Join(parent, ImagesDirName),
	}
}

// Rows validates the inputs and returns the header followed by one row per
// product.
func Rows(products []catalog.Product, urlPrefix string) ([][]string, error) {
	if strings.TrimSpace(urlPrefix) == "" {
		return nil, fmt.Errorf("%w: url prefix is not set", ErrValidation)
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("%w: products are not loaded", ErrValidation)
	}
	rows := make([][]string, 0, len(products)+1)
	rows = append(rows, append([]string(nil), header...))
	for _, p := range products {
		rows = append(rows, []string{
			productType,
			p.SKU,
			p.Weight,
			weightLabel,
			p.Weight,
			p.DisplayCategories(),
			p.Name + " (" + p.SKU + ")",
			urlPrefix + p.SKU + ".jpg",
			p.Description,
		})
	}
	return rows, nil
}

// EncodeCSV renders the header and one row per product.
func EncodeCSV(products []catalog.Product, urlPrefix string) ([]byte, error) {
	rows, err := Rows(products, urlPrefix)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteCSV validates the inputs and replaces dest with the encoded CSV.
func WriteCSV(fsys afero.Fs, products []catalog.Product, urlPrefix, dest string) error {
	data, err := EncodeCSV(products, urlPrefix)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			return err
		}
		return &IOError{Path: dest, Err: err}
	}
	return writeFile(fsys, dest, data)
}

// WriteCategories writes the unique category lines of products to dest.
func WriteCategories(fsys afero.Fs, products []catalog.Product, dest string) error {
	var buf bytes.Buffer
	for _, line := range CategoryLines(products) {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	return writeFile(fsys, dest, buf.Bytes())
}

func writeFile(fsys afero.Fs, dest string, data []byte) error {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if err := afero.WriteFile(fsys, dest, data, 0644); err != nil {
		return &IOError{Path: dest, Err: err}
	}
	return nil
}

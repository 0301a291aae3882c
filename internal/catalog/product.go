// Package catalog turns a directory tree of product photos into Product
// records. File names carry the data ("<sku> <weight> <tag> <description>.jpg")
// and the directories between the catalog root and the file carry the category.
package catalog

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// UnknownName is used when no names.txt entry matches a SKU.
const UnknownName = "Unknown"

// Product is one image in the catalog.
type Product struct {
	SKU         string
	Weight      string
	Name        string
	Description string
	// Categories runs leaf to root: the file's own directory first.
	Categories []string
	SourceFile string
}

// DisplayCategories joins the categories root to leaf, e.g. "shoes > red".
func (p Product) DisplayCategories() string {
	parts := make([]string, 0, len(p.Categories))
	for i := len(p.Categories) - 1; i >= 0; i-- {
		parts = append(parts, p.Categories[i])
	}
	return strings.Join(parts, " > ")
}

func (p Product) String() string {
	return fmt.Sprintf("Product{SKU='%s', weight='%s', name='%s', categories=%v, file=%s}",
		p.SKU, p.Weight, p.Name, p.Categories, p.SourceFile)
}

// Short omits name and categories; used in weight warnings.
func (p Product) Short() string {
	return fmt.Sprintf("Product{SKU='%s', weight='%s', file=%s}", p.SKU, p.Weight, p.SourceFile)
}

// Catalog is the result of one full scan.
type Catalog struct {
	Root     string
	Products []Product
	Warnings []Warning
}

// Fingerprint hashes the ordered record set. Two scans of an unchanged tree
// produce the same value.
func (c *Catalog) Fingerprint() string {
	h := xxhash.New()
	for _, p := range c.Products {
		fields := []string{p.SKU, p.Weight, p.Name, p.Description, strings.Join(p.Categories, "/"), p.SourceFile}
		for _, f := range fields {
			h.WriteString(f)
			h.Write([]byte{0})
		}
		h.Write([]byte{'\n'})
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

// Copy returns the products with their category slices detached.
func (c *Catalog) Copy() []Product {
	out := make([]Product, len(c.Products))
	for i, p := range c.Products {
		p.Categories = append([]string(nil), p.Categories...)
		out[i] = p
	}
	return out
}

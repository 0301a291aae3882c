package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// Validate checks that every weight parses as a number and that SKUs are
// unique. Each repeat of a SKU after its first occurrence yields one warning.
func Validate(products []Product) []Warning {
	var warnings []Warning
	for _, p := range products {
		if _, err := strconv.ParseFloat(strings.TrimSpace(p.Weight), 64); err != nil {
			warnings = append(warnings, Warning{
				Kind:    InvalidWeight,
				SKU:     p.SKU,
				Path:    p.SourceFile,
				Message: "Product has wrong weight value: " + p.Short(),
			})
		}
	}

	seen := make(map[string]struct{}, len(products))
	for _, p := range products {
		if _, dup := seen[p.SKU]; dup {
			warnings = append(warnings, Warning{
				Kind:    DuplicateSKU,
				SKU:     p.SKU,
				Path:    p.SourceFile,
				Message: fmt.Sprintf("Product has not unique SKU: %s", p),
			})
			continue
		}
		seen[p.SKU] = struct{}{}
	}
	return warnings
}

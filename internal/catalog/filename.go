package catalog

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrMalformedFilename is returned by ParseFilename for names with fewer
// than two space-separated tokens or an empty SKU.
var ErrMalformedFilename = errors.New("malformed product filename")

// Fields are the values encoded in a product image name.
type Fields struct {
	SKU         string
	Weight      string
	Description string
}

// ParseFilename decodes "<sku> <weight> <tag> <description...>.<ext>".
// Tokens are separated by single spaces. The weight's decimal commas become
// periods; the description stops at its first period.
func ParseFilename(name string) (Fields, error) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	tokens := strings.Split(base, " ")
	if len(tokens) < 2 || tokens[0] == "" {
		return Fields{}, fmt.Errorf("%w: %q", ErrMalformedFilename, name)
	}

	f := Fields{
		SKU:    tokens[0],
		Weight: strings.ReplaceAll(tokens[1], ",", "."),
	}
	if len(tokens) > 3 {
		desc := strings.Join(tokens[3:], " ")
		if i := strings.Index(desc, "."); i >= 0 {
			desc = desc[:i]
		}
		f.Description = strings.TrimSpace(desc)
	}
	return f, nil
}

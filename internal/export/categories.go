package export

import (
	"sort"
	"strings"
	"unicode"

	"catalog-sync/internal/catalog"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Slug lower-cases a category name and turns every whitespace rune into '-'.
func Slug(name string) string {
	lower := cases.Lower(language.Russian).String(name)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return '-'
		}
		return r
	}, lower)
}

// CategoryPath builds the import line for one leaf-to-root category list.
// For ["Red Shoes", "Shoes"] it yields "Shoes$shoes/Red Shoes$red-shoes-shoes":
// one "Name$slug" group per ancestor, outermost first, where each slug chains
// the group's own name with every ancestor above it.
func CategoryPath(leafToRoot []string) string {
	n := len(leafToRoot)
	groups := make([]string, 0, n)
	for i := n - 1; i >= 0; i-- {
		slugs := make([]string, 0, n-i)
		for j := i; j < n; j++ {
			slugs = append(slugs, Slug(leafToRoot[j]))
		}
		groups = append(groups, leafToRoot[i]+"$"+strings.Join(slugs, "-"))
	}
	return strings.Join(groups, "/")
}

// CategoryLines returns the distinct category paths of products, sorted.
// Products placed directly in the catalog root contribute nothing.
func CategoryLines(products []catalog.Product) []string {
	set := make(map[string]struct{})
	for _, p := range products {
		if len(p.Categories) == 0 {
			continue
		}
		set[CategoryPath(p.Categories)] = struct{}{}
	}
	lines := make([]string, 0, len(set))
	for l := range set {
		lines = append(lines, l)
	}
	sort.Strings(lines)
	return lines
}

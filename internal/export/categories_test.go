package export

import (
	"strings"
	"testing"
	"unicode"

	"catalog-sync/internal/catalog"

	"github.com/spf13/afero"
)

func TestCategoryPath(t *testing.T) {
	cases := []struct {
		in   []string
		want string
	}{
		{[]string{"red", "shoes"}, "shoes$shoes/red$red-shoes"},
		{[]string{"Red Shoes", "Shoes"}, "Shoes$shoes/Red Shoes$red-shoes-shoes"},
		{[]string{"C", "B", "A"}, "A$a/B$b-a/C$c-b-a"},
		{[]string{"Кольца Серебро"}, "Кольца Серебро$кольца-серебро"},
	}
	for _, c := range cases {
		if got := CategoryPath(c.in); got != c.want {
			t.Fatalf("%v: got %q want %q", c.in, got, c.want)
		}
	}
}

func TestSlugHasNoSpacesOrUpperCase(t *testing.T) {
	for _, in := range []string{"Big  Red\tShoes\u00a0Sale", "ОБУВЬ Летняя", "Mixed Case Name"} {
		s := Slug(in)
		if strings.IndexFunc(s, unicode.IsSpace) >= 0 {
			t.Fatalf("slug %q still contains whitespace", s)
		}
		if s != strings.ToLower(s) {
			t.Fatalf("slug %q is not lower-case", s)
		}
	}
}

func TestCategoryLinesDeduplicates(t *testing.T) {
	products := []catalog.Product{
		{SKU: "1", Categories: []string{"red", "shoes"}},
		{SKU: "2", Categories: []string{"red", "shoes"}},
		{SKU: "3", Categories: []string{"blue", "shoes"}},
		{SKU: "4"},
	}
	lines := CategoryLines(products)
	if len(lines) != 2 {
		t.Fatalf("expected 2 unique lines, got %v", lines)
	}
	for _, l := range lines {
		for _, group := range strings.Split(l, "/") {
			_, slug, ok := strings.Cut(group, "$")
			if !ok || strings.Contains(slug, " ") {
				t.Fatalf("bad group %q in %q", group, l)
			}
		}
	}
}

func TestWriteCategories(t *testing.T) {
	fsys := afero.NewMemMapFs()
	products := []catalog.Product{{SKU: "1", Categories: []string{"red", "shoes"}}}
	if err := WriteCategories(fsys, products, "/out/categories.txt"); err != nil {
		t.Fatal(err)
	}
	data, _ := afero.ReadFile(fsys, "/out/categories.txt")
	if string(data) != "shoes$shoes/red$red-shoes\n" {
		t.Fatalf("unexpected categories file %q", data)
	}
}

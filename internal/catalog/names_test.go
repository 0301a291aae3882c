package catalog

import (
	"testing"

	"github.com/spf13/afero"
)

func TestLoadNamesMissingFile(t *testing.T) {
	table, warnings, err := LoadNames(afero.NewMemMapFs(), "/catalog")
	if err != nil {
		t.Fatalf("missing names.txt must not be an error: %v", err)
	}
	if table != nil || len(warnings) != 0 {
		t.Fatalf("expected nil table and no warnings, got %v %v", table, warnings)
	}
	if name, ok := table.Resolve("SK1"); ok || name != UnknownName {
		t.Fatalf("nil table should resolve to Unknown, got %q %v", name, ok)
	}
}

func TestLoadNamesSkipsMalformedLines(t *testing.T) {
	fsys := afero.NewMemMapFs()
	content := "\xef\xbb\xbfSK;Ring\nbroken line\n\nSKB ; Bracelet ;extra\n;nokey\n"
	afero.WriteFile(fsys, "/catalog/names.txt", []byte(content), 0644)

	table, warnings, err := LoadNames(fsys, "/catalog")
	if err != nil {
		t.Fatal(err)
	}
	if len(table) != 2 || table["SK"] != "Ring" || table["SKB"] != "Bracelet" {
		t.Fatalf("unexpected table %v", table)
	}
	if CountKind(warnings, MalformedNameLine) != 2 {
		t.Fatalf("expected 2 malformed line warnings, got %v", warnings)
	}
}

func TestResolveLongestPrefixWins(t *testing.T) {
	table := NameTable{"S": "Generic", "SKB": "Bracelet", "SK": "Ring"}
	for i := 0; i < 20; i++ {
		if name, ok := table.Resolve("SKB-10"); !ok || name != "Bracelet" {
			t.Fatalf("expected Bracelet, got %q", name)
		}
	}
	if name, _ := table.Resolve("SK-1"); name != "Ring" {
		t.Fatalf("expected Ring, got %q", name)
	}
	if name, ok := table.Resolve("ZZ"); ok || name != UnknownName {
		t.Fatalf("expected Unknown, got %q", name)
	}
}

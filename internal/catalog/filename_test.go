package catalog

import (
	"errors"
	"testing"
)

func TestParseFilename(t *testing.T) {
	cases := []struct {
		name string
		want Fields
	}{
		{"SK001 1,5 tag Nice shoes.jpg", Fields{SKU: "SK001", Weight: "1.5", Description: "Nice shoes"}},
		{"AB-7 2 x.jpg", Fields{SKU: "AB-7", Weight: "2"}},
		{"AB-7 0,25.JPG", Fields{SKU: "AB-7", Weight: "0.25"}},
		{"X1 3,0 tag Red. Extra words.jpg", Fields{SKU: "X1", Weight: "3.0", Description: "Red"}},
		{"X2 1 tag  spaced  out .jpg", Fields{SKU: "X2", Weight: "1", Description: "spaced  out"}},
		{"Кольцо1 4,2 т Серебро 925.jpg", Fields{SKU: "Кольцо1", Weight: "4.2", Description: "Серебро 925"}},
	}
	for _, c := range cases {
		got, err := ParseFilename(c.name)
		if err != nil {
			t.Fatalf("%q: unexpected error %v", c.name, err)
		}
		if got != c.want {
			t.Fatalf("%q: got %+v want %+v", c.name, got, c.want)
		}
	}
}

func TestParseFilenameMalformed(t *testing.T) {
	for _, name := range []string{"SK001.jpg", " 1,5 tag.jpg", ".jpg"} {
		if _, err := ParseFilename(name); !errors.Is(err, ErrMalformedFilename) {
			t.Fatalf("%q: expected ErrMalformedFilename, got %v", name, err)
		}
	}
}

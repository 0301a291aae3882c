package catalog

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// NamesFileName is the sidecar file mapping SKU prefixes to display names.
const NamesFileName = "names.txt"

// NameTable maps a SKU prefix to a display name.
type NameTable map[string]string

// Resolve returns the display name whose key is the longest prefix of sku.
// A nil table or no match yields UnknownName and ok == false.
func (t NameTable) Resolve(sku string) (name string, ok bool) {
	best := -1
	for key, value := range t {
		if strings.HasPrefix(sku, key) && len(key) > best {
			best = len(key)
			name = value
		}
	}
	if best < 0 {
		return UnknownName, false
	}
	return name, true
}

// LoadNames reads root/names.txt. A missing file is not an error: the table is
// nil and every product is named UnknownName. Lines without a ';' separator are
// skipped with a warning.
func LoadNames(fsys afero.Fs, root string) (NameTable, []Warning, error) {
	path := filepath.Join(root, NamesFileName)
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	table := NameTable{}
	var warnings []Warning
	sc := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, ";")
		if len(fields) < 2 || strings.TrimSpace(fields[0]) == "" {
			warnings = append(warnings, Warning{
				Kind:    MalformedNameLine,
				Path:    path,
				Message: fmt.Sprintf("Skipping malformed line %d in %s: %q", lineNo, NamesFileName, line),
			})
			continue
		}
		table[strings.TrimSpace(fields[0])] = strings.TrimSpace(fields[1])
	}
	if err := sc.Err(); err != nil {
		return nil, warnings, fmt.Errorf("read %s: %w", path, err)
	}
	return table, warnings, nil
}

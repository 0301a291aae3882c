package catalog

import "fmt"

// WarningKind classifies a non-fatal problem found during import.
type WarningKind int

const (
	MalformedFilename WarningKind = iota
	InvalidWeight
	DuplicateSKU
	MissingName
	MalformedNameLine
)

func (k WarningKind) String() string {
	switch k {
	case MalformedFilename:
		return "malformed-filename"
	case InvalidWeight:
		return "invalid-weight"
	case DuplicateSKU:
		return "duplicate-sku"
	case MissingName:
		return "missing-name"
	case MalformedNameLine:
		return "malformed-name-line"
	}
	return fmt.Sprintf("warning(%d)", int(k))
}

// Warning never aborts an import; the caller prints it and carries on.
type Warning struct {
	Kind    WarningKind
	SKU     string
	Path    string
	Message string
}

func (w Warning) String() string {
	return w.Message
}

// CountKind returns how many warnings of kind k are in ws.
func CountKind(ws []Warning, k WarningKind) int {
	n := 0
	for _, w := range ws {
		if w.Kind == k {
			n++
		}
	}
	return n
}

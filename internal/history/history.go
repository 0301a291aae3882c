// Package history remembers the catalog roots opened recently, most recent first.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const HistoryDir = ".catalog-sync"
const HistoryFile = "history.json"

// MaxEntries caps how many catalog roots are remembered.
const MaxEntries = 20

type HistoryEntry struct {
	Path       string    `json:"path"`
	LastAccess time.Time `json:"last_access"`
	// Products and Fingerprint describe the last successful import.
	Products    int    `json:"products,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

type History struct {
	Entries []HistoryEntry `json:"entries"`
}

func GetHistoryDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, HistoryDir)
}

func GetHistoryPath() string {
	return filepath.Join(GetHistoryDir(), HistoryFile)
}

func LoadHistory() (*History, error) {
	data, err := os.ReadFile(GetHistoryPath())
	if os.IsNotExist(err) {
		return &History{Entries: []HistoryEntry{}}, nil
	}
	if err != nil {
		return nil, err
	}
	var h History
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("parse %s: %w", GetHistoryPath(), err)
	}
	return &h, nil
}

func SaveHistory(h *History) error {
	if err := os.MkdirAll(GetHistoryDir(), 0755); err != nil {
		return err
	}
	sort.SliceStable(h.Entries, func(i, j int) bool {
		return h.Entries[i].LastAccess.After(h.Entries[j].LastAccess)
	})
	if len(h.Entries) > MaxEntries {
		h.Entries = h.Entries[:MaxEntries]
	}
	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(GetHistoryPath(), data, 0644)
}

func (h *History) find(path string) int {
	for i, entry := range h.Entries {
		if entry.Path == path {
			return i
		}
	}
	return -1
}

// AddPath marks path as just used.
func AddPath(path string) error {
	return touch(path, func(*HistoryEntry) {})
}

// RecordImport marks path as just used and stores the import summary.
func RecordImport(path string, products int, fingerprint string) error {
	return touch(path, func(e *HistoryEntry) {
		e.Products = products
		e.Fingerprint = fingerprint
	})
}

func touch(path string, update func(*HistoryEntry)) error {
	h, err := LoadHistory()
	if err != nil {
		return err
	}
	i := h.find(path)
	if i < 0 {
		h.Entries = append(h.Entries, HistoryEntry{Path: path})
		i = len(h.Entries) - 1
	}
	h.Entries[i].LastAccess = time.Now()
	update(&h.Entries[i])
	return SaveHistory(h)
}

func RemovePath(path string) error {
	h, err := LoadHistory()
	if err != nil {
		return err
	}
	if i := h.find(path); i >= 0 {
		h.Entries = append(h.Entries[:i], h.Entries[i+1:]...)
	}
	return SaveHistory(h)
}

// Prune forgets roots that are no longer directories and returns them.
func Prune() ([]string, error) {
	h, err := LoadHistory()
	if err != nil {
		return nil, err
	}
	var kept []HistoryEntry
	var removed []string
	for _, entry := range h.Entries {
		if info, err := os.Stat(entry.Path); err == nil && info.IsDir() {
			kept = append(kept, entry)
		} else {
			removed = append(removed, entry.Path)
		}
	}
	if len(removed) == 0 {
		return nil, nil
	}
	h.Entries = kept
	return removed, SaveHistory(h)
}

func SearchPaths(query string) []string {
	var results []string
	for _, p := range GetAllPaths() {
		if strings.Contains(strings.ToLower(p), strings.ToLower(query)) {
			results = append(results, p)
		}
	}
	return results
}

// GetAllPaths returns every remembered root, most recent first.
func GetAllPaths() []string {
	h, err := LoadHistory()
	if err != nil {
		return []string{}
	}
	sort.SliceStable(h.Entries, func(i, j int) bool {
		return h.Entries[i].LastAccess.After(h.Entries[j].LastAccess)
	})
	result := make([]string, 0, len(h.Entries))
	for _, entry := range h.Entries {
		result = append(result, entry.Path)
	}
	return result
}

// Lookup returns the entry for path.
func Lookup(path string) (HistoryEntry, bool) {
	h, err := LoadHistory()
	if err != nil {
		return HistoryEntry{}, false
	}
	if i := h.find(path); i >= 0 {
		return h.Entries[i], true
	}
	return HistoryEntry{}, false
}

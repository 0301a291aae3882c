package syncdata

import (
	"fmt"
	"os"
	"path/filepath"
)

// LocalFile is a staged image waiting to be compared with the remote listing.
type LocalFile struct {
	Name string
	Path string
	Size int64
}

// LocalFiles lists the regular files directly inside dir, sorted by name.
func LocalFiles(dir string) ([]LocalFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read staging folder %s: %w", dir, err)
	}
	var files []LocalFile
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, LocalFile{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// UploadSet keeps the local files whose name does not appear in the remote
// listing, in local order. Names are compared exactly.
func UploadSet(local []LocalFile, remote []string) []LocalFile {
	existing := make(map[string]struct{}, len(remote))
	for _, name := range remote {
		existing[name] = struct{}{}
	}
	var out []LocalFile
	for _, f := range local {
		if _, ok := existing[f.Name]; !ok {
			out = append(out, f)
		}
	}
	return out
}

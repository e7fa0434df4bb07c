package workspace

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

const loaderLogPrefix = "workspace:loader"

// FolderSource yields the host's current workspace folders. Implementations
// must not cache: every call reflects the configuration at that moment.
type FolderSource interface {
	Folders() (Folders, error)
}

// StaticFolders is a FolderSource with a fixed value.
type StaticFolders struct {
	Value Folders
}

// Folders returns the fixed value.
func (s StaticFolders) Folders() (Folders, error) {
	return s.Value, nil
}

// FileSource reads workspace folders from a JSON file on every call:
//
//	{"rootPath": "/work", "folders": ["/work"]}
//
// Relative folder entries are resolved against the file's directory.
type FileSource struct {
	Path string
	// Fallback is used when Path is empty or missing.
	Fallback Folders
}

// Folders loads the file, falling back to Fallback when it does not exist.
func (s *FileSource) Folders() (Folders, error) {
	if s.Path == "" {
		return s.Fallback, nil
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Debug(fmt.Sprintf("%s - %s not found, using fallback folders", loaderLogPrefix, s.Path))
			return s.Fallback, nil
		}
		return Folders{}, fmt.Errorf("%s - failed to read %s: %w", loaderLogPrefix, s.Path, err)
	}

	var f Folders
	if err := json.Unmarshal(data, &f); err != nil {
		return Folders{}, fmt.Errorf("%s - failed to parse %s: %w", loaderLogPrefix, s.Path, err)
	}

	base := filepath.Dir(s.Path)
	f.RootPath = absFrom(base, f.RootPath)
	for i, folder := range f.Folders {
		f.Folders[i] = absFrom(base, folder)
	}
	return f, nil
}

// DefaultFolders treats dir as a single-folder workspace rooted at dir.
func DefaultFolders(dir string) Folders {
	if dir == "" {
		return Folders{}
	}
	return Folders{RootPath: dir, Folders: []string{dir}}
}

func absFrom(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// Package workspace determines which project root a file belongs to.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const logPrefix = "workspace:resolver"

// ErrNoActiveFile is returned when no file path was supplied.
var ErrNoActiveFile = errors.New("The active editor is not a file or no file is open")

// ProjectRootNotFoundError is returned when no candidate root contains the file.
type ProjectRootNotFoundError struct {
	FilePath string
}

func (e *ProjectRootNotFoundError) Error() string {
	return fmt.Sprintf("Unable to determine the project root for %s", e.FilePath)
}

// Folders is the host's view of the workspace at the time of a call.
type Folders struct {
	// RootPath is the overall workspace root, if the host reports one.
	RootPath string `json:"rootPath,omitempty"`
	// Folders are the configured top-level workspace folders, in host order.
	Folders []string `json:"folders"`
}

// Contains reports whether path lies inside RootPath or any configured folder.
func (f Folders) Contains(path string) bool {
	if strings.TrimSpace(path) == "" {
		return false
	}
	file := filepath.Clean(path)
	for _, root := range append([]string{f.RootPath}, f.Folders...) {
		if root != "" && containsPath(filepath.Clean(root), file) {
			return true
		}
	}
	return false
}

// DirLister lists a directory. os.ReadDir satisfies it through OSDirLister.
type DirLister interface {
	ReadDir(path string) ([]fs.DirEntry, error)
}

// OSDirLister reads directories from the local file system.
type OSDirLister struct{}

// ReadDir calls os.ReadDir.
func (OSDirLister) ReadDir(path string) ([]fs.DirEntry, error) {
	return os.ReadDir(path)
}

// Notifier surfaces diagnostics to the user.
type Notifier interface {
	ShowError(ctx context.Context, text string)
}

// Resolver finds the enclosing project root of a file.
type Resolver struct {
	lister   DirLister
	notifier Notifier
}

// NewResolver creates a Resolver. A nil lister uses the local file system.
func NewResolver(lister DirLister, n Notifier) *Resolver {
	if lister == nil {
		lister = OSDirLister{}
	}
	return &Resolver{lister: lister, notifier: n}
}

// Resolve returns the project root for filePath, surfacing exactly one
// diagnostic and returning "" when it cannot be determined.
func (r *Resolver) Resolve(ctx context.Context, filePath string, f Folders) (string, error) {
	root, err := r.Lookup(filePath, f)
	if err != nil {
		if r.notifier != nil {
			r.notifier.ShowError(ctx, err.Error())
		}
		return "", err
	}
	return root, nil
}

// Lookup is Resolve without the diagnostic side effect.
// When several candidates contain filePath the most specific one wins.
func (r *Resolver) Lookup(filePath string, f Folders) (string, error) {
	if strings.TrimSpace(filePath) == "" {
		return "", ErrNoActiveFile
	}
	file := filepath.Clean(filePath)

	candidates, err := r.candidates(f)
	if err != nil {
		slog.Warn(fmt.Sprintf("%s - failed to expand workspace root %s: %v", logPrefix, f.RootPath, err))
	}

	best := ""
	for _, c := range candidates {
		if !containsPath(c, file) {
			continue
		}
		if len(c) >= len(best) {
			best = c
		}
	}
	if best == "" {
		return "", &ProjectRootNotFoundError{FilePath: filePath}
	}
	return best, nil
}

// candidates returns the roots to test. A single folder that is the
// workspace root itself is expanded to its visible child directories.
func (r *Resolver) candidates(f Folders) ([]string, error) {
	roots := make([]string, 0, len(f.Folders))
	for _, folder := range f.Folders {
		if folder == "" {
			continue
		}
		roots = append(roots, filepath.Clean(folder))
	}

	if len(roots) != 1 || f.RootPath == "" || roots[0] != filepath.Clean(f.RootPath) {
		return roots, nil
	}

	root := roots[0]
	entries, err := r.lister.ReadDir(root)
	if err != nil {
		return roots, err
	}
	expanded := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") || !e.IsDir() {
			continue
		}
		expanded = append(expanded, filepath.Join(root, e.Name()))
	}
	return expanded, nil
}

// containsPath reports whether file is root or lies below it.
func containsPath(root, file string) bool {
	if root == file {
		return true
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(file, prefix)
}

// ProjectName returns the display name of a project root.
func ProjectName(root string) string {
	if root == "" {
		return ""
	}
	return filepath.Base(root)
}

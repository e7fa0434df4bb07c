package workspace

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const resolverTestPrefix = "workspace:resolver_test"

type recordingNotifier struct {
	errors []string
}

func (n *recordingNotifier) ShowError(_ context.Context, text string) {
	n.errors = append(n.errors, text)
}

// countingLister wraps the OS lister and counts calls.
type countingLister struct {
	calls int
}

func (l *countingLister) ReadDir(path string) ([]fs.DirEntry, error) {
	l.calls++
	return os.ReadDir(path)
}

func mkdirs(t *testing.T, root string, dirs ...string) {
	t.Helper()
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			t.Fatalf("%s - mkdir %s: %v", resolverTestPrefix, d, err)
		}
	}
}

func TestResolve_SingleAmbiguousRootExpandsChildren(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "proj/src", ".git")
	lister := &countingLister{}
	r := NewResolver(lister, &recordingNotifier{})

	got, err := r.Resolve(context.Background(), filepath.Join(root, "proj", "src", "a.ts"), Folders{RootPath: root, Folders: []string{root}})
	if err != nil {
		t.Fatalf("%s - Resolve: %v", resolverTestPrefix, err)
	}
	if want := filepath.Join(root, "proj"); got != want {
		t.Errorf("%s - Resolve = %q, want %q", resolverTestPrefix, got, want)
	}
	if lister.calls != 1 {
		t.Errorf("%s - ReadDir calls = %d, want 1", resolverTestPrefix, lister.calls)
	}
}

func TestResolve_HiddenChildNeverConsidered(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "proj", ".git/objects")
	n := &recordingNotifier{}
	r := NewResolver(nil, n)

	got, err := r.Resolve(context.Background(), filepath.Join(root, ".git", "objects", "x"), Folders{RootPath: root, Folders: []string{root}})
	var notFound *ProjectRootNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("%s - expected ProjectRootNotFoundError, got %v", resolverTestPrefix, err)
	}
	if got != "" {
		t.Errorf("%s - Resolve = %q, want empty sentinel", resolverTestPrefix, got)
	}
	if len(n.errors) != 1 {
		t.Errorf("%s - diagnostics = %d, want 1", resolverTestPrefix, len(n.errors))
	}
}

func TestResolve_NoCandidates(t *testing.T) {
	n := &recordingNotifier{}
	r := NewResolver(&countingLister{}, n)

	got, err := r.Resolve(context.Background(), "/work/a/b.go", Folders{})
	if err == nil || got != "" {
		t.Fatalf("%s - Resolve = %q, %v; want empty sentinel and error", resolverTestPrefix, got, err)
	}
	if len(n.errors) != 1 {
		t.Errorf("%s - diagnostics = %d, want exactly 1", resolverTestPrefix, len(n.errors))
	}
}

func TestResolve_NoneMatch(t *testing.T) {
	n := &recordingNotifier{}
	lister := &countingLister{}
	r := NewResolver(lister, n)

	got, err := r.Resolve(context.Background(), "/elsewhere/x.go", Folders{Folders: []string{"/work/a", "/work/b"}})
	if err == nil || got != "" {
		t.Fatalf("%s - expected failure, got %q", resolverTestPrefix, got)
	}
	if len(n.errors) != 1 {
		t.Errorf("%s - diagnostics = %d, want 1", resolverTestPrefix, len(n.errors))
	}
	if lister.calls != 0 {
		t.Errorf("%s - ReadDir calls = %d, want 0 for multi-root", resolverTestPrefix, lister.calls)
	}
}

func TestResolve_EmptyFilePath(t *testing.T) {
	n := &recordingNotifier{}
	r := NewResolver(&countingLister{}, n)

	_, err := r.Resolve(context.Background(), "", Folders{Folders: []string{"/work"}})
	if !errors.Is(err, ErrNoActiveFile) {
		t.Errorf("%s - expected ErrNoActiveFile, got %v", resolverTestPrefix, err)
	}
	if len(n.errors) != 1 {
		t.Errorf("%s - diagnostics = %d, want 1", resolverTestPrefix, len(n.errors))
	}
}

func TestLookup_MultiRoot(t *testing.T) {
	r := NewResolver(&countingLister{}, nil)
	tests := []struct {
		name    string
		file    string
		folders []string
		want    string
	}{
		{"first root", "/work/a/main.go", []string{"/work/a", "/work/b"}, "/work/a"},
		{"second root", "/work/b/pkg/x.go", []string{"/work/a", "/work/b"}, "/work/b"},
		{"nested most specific wins", "/work/a/inner/x.go", []string{"/work/a/inner", "/work/a"}, "/work/a/inner"},
		{"nested order independent", "/work/a/inner/x.go", []string{"/work/a", "/work/a/inner"}, "/work/a/inner"},
		{"sibling prefix is not a parent", "/work/ab/x.go", []string{"/work/a"}, ""},
		{"trailing slash root", "/work/a/x.go", []string{"/work/a/"}, "/work/a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := r.Lookup(filepath.FromSlash(tt.file), Folders{Folders: fromSlash(tt.folders)})
			if got != filepath.FromSlash(tt.want) {
				t.Errorf("%s - Lookup = %q, want %q", resolverTestPrefix, got, tt.want)
			}
		})
	}
}

func TestLookup_Deterministic(t *testing.T) {
	r := NewResolver(&countingLister{}, nil)
	f := Folders{Folders: fromSlash([]string{"/w/a", "/w/b", "/w/a/b"})}
	file := filepath.FromSlash("/w/a/b/c.txt")

	first, err1 := r.Lookup(file, f)
	second, err2 := r.Lookup(file, f)
	if first != second || (err1 == nil) != (err2 == nil) {
		t.Errorf("%s - non-deterministic: %q/%v vs %q/%v", resolverTestPrefix, first, err1, second, err2)
	}
}

func TestFolders_Contains(t *testing.T) {
	f := Folders{RootPath: filepath.FromSlash("/work"), Folders: fromSlash([]string{"/work", "/extra/lib"})}
	tests := []struct {
		path string
		want bool
	}{
		{"/work/a.go", true},
		{"/work", true},
		{"/extra/lib/x/y.go", true},
		{"/workspace/a.go", false},
		{"/work/../etc/passwd", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := f.Contains(filepath.FromSlash(tt.path)); got != tt.want {
			t.Errorf("%s - Contains(%q) = %v, want %v", resolverTestPrefix, tt.path, got, tt.want)
		}
	}
	if (Folders{}).Contains(filepath.FromSlash("/work/a.go")) {
		t.Errorf("%s - empty Folders contains a path", resolverTestPrefix)
	}
}

func TestProjectName(t *testing.T) {
	if got := ProjectName(filepath.FromSlash("/work/my-app")); got != "my-app" {
		t.Errorf("%s - ProjectName = %q, want my-app", resolverTestPrefix, got)
	}
	if got := ProjectName(""); got != "" {
		t.Errorf("%s - ProjectName(\"\") = %q, want empty", resolverTestPrefix, got)
	}
}

func fromSlash(in []string) []string {
	out := make([]string, len(in))
	for i, p := range in {
		out[i] = filepath.FromSlash(p)
	}
	return out
}

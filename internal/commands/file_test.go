package commands

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/morezero/webview-bridge/pkg/bridge"
	"github.com/morezero/webview-bridge/pkg/workspace"
)

const fileTestPrefix = "commands:file_test"

func TestFindFirst(t *testing.T) {
	content := "package main\r\n\nfunc main() {\n\tprintln(\"héllo world\")\n}\n"
	tests := []struct {
		name    string
		pattern string
		want    FindInFileResult
	}{
		{"first row", `package`, FindInFileResult{Row: 0, Col: 0, EndCol: 7, Found: true}},
		{"later row", `main\(\)`, FindInFileResult{Row: 2, Col: 5, EndCol: 11, Found: true}},
		{"columns count characters", `world`, FindInFileResult{Row: 3, Col: 16, EndCol: 21, Found: true}},
		{"first of several", `main`, FindInFileResult{Row: 0, Col: 8, EndCol: 12, Found: true}},
		{"absent", `nothing`, FindInFileResult{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := findFirst(content, regexp.MustCompile(tt.pattern))
			if got != tt.want {
				t.Errorf("%s - findFirst(%q) = %+v, want %+v", fileTestPrefix, tt.pattern, got, tt.want)
			}
		})
	}
}

func TestFindInFile(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "app.ts")
	if err := os.WriteFile(file, []byte("const a = 1;\nexport const b = a + 1;\n"), 0o644); err != nil {
		t.Fatalf("%s - write: %v", fileTestPrefix, err)
	}
	h := newHarness(t, Deps{Folders: workspace.StaticFolders{Value: workspace.DefaultFolders(root)}})

	h.send(t, KindFindInFile, "f1", map[string]any{"file": file, "pattern": "a + 1", "literal": true})
	var res FindInFileResult
	h.reply(t, "f1", &res)
	if !res.Found || res.Row != 1 || res.Col != 17 || res.EndCol != 22 {
		t.Errorf("%s - literal result = %+v", fileTestPrefix, res)
	}

	h.send(t, KindFindInFile, "f2", map[string]any{"file": file, "pattern": `const \w+`})
	h.reply(t, "f2", &res)
	if !res.Found || res.Row != 0 || res.Col != 0 || res.EndCol != 7 {
		t.Errorf("%s - regexp result = %+v", fileTestPrefix, res)
	}

	h.send(t, KindFindInFile, "f3", map[string]any{"file": file, "pattern": "missing"})
	res = FindInFileResult{Found: true}
	h.reply(t, "f3", &res)
	if res != (FindInFileResult{}) {
		t.Errorf("%s - absent result = %+v, want zero", fileTestPrefix, res)
	}
	if errs, _ := h.notifier.counts(); errs != 0 {
		t.Errorf("%s - diagnostics = %d, want 0", fileTestPrefix, errs)
	}
}

func TestFindInFile_Errors(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(t.TempDir(), "secret.txt")
	if err := os.WriteFile(outside, []byte("token"), 0o644); err != nil {
		t.Fatalf("%s - write: %v", fileTestPrefix, err)
	}
	if err := os.Mkdir(filepath.Join(root, "dir"), 0o755); err != nil {
		t.Fatalf("%s - mkdir: %v", fileTestPrefix, err)
	}
	h := newHarness(t, Deps{Folders: workspace.StaticFolders{Value: workspace.DefaultFolders(root)}})

	tests := []struct {
		id       string
		payload  map[string]any
		wantCode int
	}{
		{"e1", map[string]any{"file": filepath.Join(root, "a.txt")}, 400},
		{"e2", map[string]any{"file": filepath.Join(root, "a.txt"), "pattern": "("}, 400},
		{"e3", map[string]any{"file": outside, "pattern": "token"}, 403},
		{"e4", map[string]any{"file": filepath.Join(root, "missing.txt"), "pattern": "x"}, 404},
		{"e5", map[string]any{"file": filepath.Join(root, "dir"), "pattern": "x"}, 422},
	}
	for _, tt := range tests {
		h.send(t, KindFindInFile, tt.id, tt.payload)
		var info bridge.ErrorInfo
		h.reply(t, tt.id, &info)
		if info.Code != tt.wantCode {
			t.Errorf("%s - %s code = %d, want %d", fileTestPrefix, tt.id, info.Code, tt.wantCode)
		}
	}
	if errs, _ := h.notifier.counts(); errs != len(tests) {
		t.Errorf("%s - diagnostics = %d, want %d", fileTestPrefix, errs, len(tests))
	}
}

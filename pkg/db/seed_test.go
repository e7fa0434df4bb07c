package db

import (
	"os"
	"path/filepath"
	"testing"
)

const seedTestPrefix = "db:seed_test"

func TestLoadSeedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	content := `{
		"global": {"theme": "dark", "fontSize": 14},
		"projects": {"/work/app": {"lint": true}, "rel": {"x": null}}
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("%s - write: %v", seedTestPrefix, err)
	}

	entries, err := LoadSeedFile(path)
	if err != nil {
		t.Fatalf("%s - LoadSeedFile: %v", seedTestPrefix, err)
	}
	if len(entries) != 4 {
		t.Fatalf("%s - expected 4 entries, got %d", seedTestPrefix, len(entries))
	}

	// globals sort first (empty scope)
	if entries[0].Scope != GlobalScope || entries[0].Key != "fontSize" {
		t.Errorf("%s - entries[0] = %+v", seedTestPrefix, entries[0])
	}
	if entries[1].Key != "theme" || string(entries[1].Value) != `"dark"` {
		t.Errorf("%s - entries[1] = %+v", seedTestPrefix, entries[1])
	}

	var sawRelative bool
	for _, e := range entries {
		if e.Key == "x" {
			sawRelative = true
			if want := filepath.Join(dir, "rel"); e.Scope != want {
				t.Errorf("%s - relative scope = %q, want %q", seedTestPrefix, e.Scope, want)
			}
		}
	}
	if !sawRelative {
		t.Errorf("%s - relative project entry missing", seedTestPrefix)
	}
}

func TestLoadSeedFile_Errors(t *testing.T) {
	if _, err := LoadSeedFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Errorf("%s - expected error for missing file", seedTestPrefix)
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{"global": [}`), 0o644); err != nil {
		t.Fatalf("%s - write: %v", seedTestPrefix, err)
	}
	if _, err := LoadSeedFile(path); err == nil {
		t.Errorf("%s - expected parse error", seedTestPrefix)
	}
}

func TestPageWindow(t *testing.T) {
	tests := []struct {
		page, limit       int
		wantLimit, wantOf int
	}{
		{0, 0, 50, 0},
		{1, 10, 10, 0},
		{3, 10, 10, 20},
		{2, 1000, 500, 500},
	}
	for _, tt := range tests {
		l, o := pageWindow(tt.page, tt.limit)
		if l != tt.wantLimit || o != tt.wantOf {
			t.Errorf("%s - pageWindow(%d, %d) = %d, %d; want %d, %d", seedTestPrefix, tt.page, tt.limit, l, o, tt.wantLimit, tt.wantOf)
		}
	}
}

func TestSetting_IsGlobal(t *testing.T) {
	if !(&Setting{}).IsGlobal() {
		t.Errorf("%s - empty scope should be global", seedTestPrefix)
	}
	if (&Setting{Scope: "/work/app"}).IsGlobal() {
		t.Errorf("%s - project scope reported global", seedTestPrefix)
	}
}

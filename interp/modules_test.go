package interp

import (
	"os"
	"path/filepath"
	"testing"
)

// TestImportResolvesRelativeToImportingFile constructs lib/a.lox and
// lib/sub/b.lox, where b.lox imports "../a.lox" (relative to lib/sub,
// not to the process's working directory), to confirm resolve()
// walks the importing file's own directory rather than the CWD.
func TestImportResolvesRelativeToImportingFile(t *testing.T) {
	dir := t.TempDir()
	libDir := filepath.Join(dir, "lib")
	subDir := filepath.Join(libDir, "sub")
	if err := os.MkdirAll(subDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	if err := os.WriteFile(filepath.Join(libDir, "a.lox"), []byte(`var greeting = "hi";`), 0o644); err != nil {
		t.Fatalf("WriteFile a.lox: %v", err)
	}
	entry := filepath.Join(subDir, "b.lox")
	if err := os.WriteFile(entry, []byte(`import "../a.lox";`), 0o644); err != nil {
		t.Fatalf("WriteFile b.lox: %v", err)
	}

	it := New()
	if err := it.Loader.Import(entry, it.Globals); err != nil {
		t.Fatalf("Import: %v", err)
	}

	if _, ok := it.Globals.Get("greeting"); !ok {
		t.Error("expected `greeting` from a.lox to be defined after a relative import from b.lox's directory")
	}
}

// TestImportFallsBackToSearchPath confirms a bare module name not found
// relative to the importing file (or CWD) is found via SearchPath, the
// LOXI_PATH-style configuration hook.
func TestImportFallsBackToSearchPath(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "util.lox"), []byte(`var fromSearchPath = true;`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	it := New()
	it.Loader.SearchPath = []string{dir}

	if err := it.Loader.Import("util.lox", it.Globals); err != nil {
		t.Fatalf("Import: %v", err)
	}
	if _, ok := it.Globals.Get("fromSearchPath"); !ok {
		t.Error("expected util.lox to be found via SearchPath")
	}
}

func TestImportCachesCompletedModule(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "once.lox")
	if err := os.WriteFile(path, []byte(`var n = n + 1;`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	// Seed n so the module body doesn't fail on an undefined read.
	it := New()
	it.Globals.Define("n", Number(0))

	if err := it.Loader.Import(path, it.Globals); err != nil {
		t.Fatalf("first Import: %v", err)
	}
	if err := it.Loader.Import(path, it.Globals); err != nil {
		t.Fatalf("second Import: %v", err)
	}
	v, _ := it.Globals.Get("n")
	if v != Number(1) {
		t.Errorf("n = %v, want 1 (re-importing a loaded module must be a no-op)", v)
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandGlobs(t *testing.T) {
	dir := t.TempDir()

	fileA := filepath.Join(dir, "a.log")
	fileB := filepath.Join(dir, "b.log")
	fileC := filepath.Join(dir, "c.txt")

	for _, path := range []string{fileA, fileB, fileC} {
		if err := os.WriteFile(path, []byte("test"), 0o600); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
	}

	files, err := ExpandGlobs([]string{filepath.Join(dir, "*.log")})
	if err != nil {
		t.Fatalf("ExpandGlobs() error = %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(files))
	}

	files, err = ExpandGlobs([]string{fileB, fileA, filepath.Join(dir, "*.log")})
	if err != nil {
		t.Fatalf("ExpandGlobs() error = %v", err)
	}
	if len(files) != 2 || files[0] != fileA || files[1] != fileB {
		t.Fatalf("expected sorted [%s %s], got %v", fileA, fileB, files)
	}
}

func TestExpandGlobsStdin(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.log")
	if err := os.WriteFile(file, []byte("test"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	files, err := ExpandGlobs([]string{file, StdinPath})
	if err != nil {
		t.Fatalf("ExpandGlobs() error = %v", err)
	}
	if len(files) != 2 || files[0] != StdinPath {
		t.Fatalf("expected stdin first, got %v", files)
	}
}

func TestExpandGlobsErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := ExpandGlobs(nil); err == nil {
		t.Error("expected error for empty pattern list")
	}
	if _, err := ExpandGlobs([]string{filepath.Join(dir, "*.missing")}); err == nil {
		t.Error("expected error for unmatched glob")
	}
	if _, err := ExpandGlobs([]string{filepath.Join(dir, "missing.log")}); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := ExpandGlobs([]string{dir}); err == nil {
		t.Error("expected error for directory")
	}
}

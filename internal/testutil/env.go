// Package testutil provides utilities for testing fmtsync in isolation.
package testutil

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"
)

// Env holds the isolated directories of one test.
type Env struct {
	ConfigDir string
	DataDir   string
	CacheDir  string
}

// SetupTestEnv creates isolated directories for a test and points the
// FMTSYNC_* variables at them. Credentials from the developer's shell are
// cleared so tests always start anonymous.
//
// Cleanup is handled by t.TempDir and t.Setenv.
func SetupTestEnv(t *testing.T) Env {
	t.Helper()

	tmpDir := t.TempDir()
	env := Env{
		ConfigDir: filepath.Join(tmpDir, "config"),
		DataDir:   filepath.Join(tmpDir, "data"),
		CacheDir:  filepath.Join(tmpDir, "cache"),
	}

	t.Setenv("FMTSYNC_CONFIG_DIR", env.ConfigDir)
	t.Setenv("FMTSYNC_DATA_DIR", env.DataDir)
	t.Setenv("FMTSYNC_CACHE_DIR", env.CacheDir)
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("GH_TOKEN", "")

	for _, dir := range []string{env.ConfigDir, env.DataDir, env.CacheDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatalf("failed to create test directory %s: %v", dir, err)
		}
	}

	return env
}

// WriteScript writes an executable shell script. Tests using it are skipped
// on Windows.
func WriteScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script executables are not supported on Windows")
	}

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("cannot create %s: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("cannot create script %s: %v", path, err)
	}
	return path
}

// FormatterScript is the body of a fake formatter: it reports version with
// "--version" and upper-cases stdin otherwise.
func FormatterScript(version string) string {
	return `if [ "$1" = "--version" ]; then
  echo "stylua ` + version + `"
  exit 0
fi
tr '[:lower:]' '[:upper:]'
`
}

// BuildZip returns a zip archive holding files, written in name order.
func BuildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		hdr := &zip.FileHeader{Name: name, Method: zip.Deflate}
		hdr.SetMode(0o755)
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(files[name])); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

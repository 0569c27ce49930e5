package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempManifest(t *testing.T, dir, contents string) string {
	t.Helper()
	path := filepath.Join(dir, "manifest.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestLoadManifestParsesFileList(t *testing.T) {
	dir := t.TempDir()
	path := writeTempManifest(t, dir, `
files:
  - path: /initproc
    source: initproc.elf
  - path: /bin/sh
    source: userbins/sh.elf
`)

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if len(m.Files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(m.Files))
	}
	if m.Files[0].Path != "/initproc" || m.Files[0].Source != "initproc.elf" {
		t.Fatalf("unexpected first entry: %+v", m.Files[0])
	}
	if m.Files[1].Path != "/bin/sh" || m.Files[1].Source != "userbins/sh.elf" {
		t.Fatalf("unexpected second entry: %+v", m.Files[1])
	}
}

func TestLoadManifestRejectsMissingPath(t *testing.T) {
	dir := t.TempDir()
	path := writeTempManifest(t, dir, `
files:
  - source: initproc.elf
`)
	if _, err := LoadManifest(path); err == nil {
		t.Fatal("expected an error for a manifest entry missing path")
	}
}

func TestLoadManifestRejectsMissingSource(t *testing.T) {
	dir := t.TempDir()
	path := writeTempManifest(t, dir, `
files:
  - path: /initproc
`)
	if _, err := LoadManifest(path); err == nil {
		t.Fatal("expected an error for a manifest entry missing source")
	}
}

func TestLoadManifestRejectsUnreadableFile(t *testing.T) {
	if _, err := LoadManifest(filepath.Join(t.TempDir(), "does-not-exist.yaml")); err == nil {
		t.Fatal("expected an error for a missing manifest file")
	}
}

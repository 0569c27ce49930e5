package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest declaratively lists the host files an image should carry and
// the path each lands at inside the image: a reproducible build input
// in place of a hardcoded walk over a skeleton directory.
type Manifest struct {
	Files []ManifestFile `yaml:"files"`
}

// ManifestFile is one entry: Source is resolved relative to the
// manifest's own directory, Path is where the built image stores it.
type ManifestFile struct {
	Path   string `yaml:"path"`
	Source string `yaml:"source"`
}

// LoadManifest reads and parses a YAML manifest from disk.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mkfs: read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("mkfs: parse manifest: %w", err)
	}
	for i, f := range m.Files {
		if f.Path == "" {
			return nil, fmt.Errorf("mkfs: manifest entry %d missing path", i)
		}
		if f.Source == "" {
			return nil, fmt.Errorf("mkfs: manifest entry %d (%s) missing source", i, f.Path)
		}
	}
	return &m, nil
}

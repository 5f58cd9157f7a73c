// Package lockfile reads and writes the lock record that pins a successful
// resolution. The record is written only for fully resolved runs and is fed
// back into the next run as pin constraints unless a fresh resolution is
// requested.
package lockfile

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// FormatVersion is bumped on incompatible schema changes.
const FormatVersion = 1

type File struct {
	Version     int              `yaml:"version"`
	RunID       string           `yaml:"runId"`
	GeneratedAt time.Time        `yaml:"generatedAt"`
	Packages    map[string]Entry `yaml:"packages"`
}

type Entry struct {
	Version   string `yaml:"version"`
	Integrity string `yaml:"integrity"`
}

// Integrity computes the tamper marker for a pinned package.
func Integrity(name, version string) string {
	sum := sha256.Sum256([]byte(name + "@" + version))
	return "sha256-" + hex.EncodeToString(sum[:])
}

// Write persists a lock record mapping package name to resolved version.
func Write(path, runID string, packages map[string]string) error {
	f := File{
		Version:     FormatVersion,
		RunID:       runID,
		GeneratedAt: time.Now().UTC(),
		Packages:    make(map[string]Entry, len(packages)),
	}
	for name, version := range packages {
		f.Packages[name] = Entry{Version: version, Integrity: Integrity(name, version)}
	}

	raw, err := yaml.Marshal(&f)
	if err != nil {
		return fmt.Errorf("lockfile: marshal: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("lockfile: write %s: %w", path, err)
	}
	return nil
}

// Read loads a lock record, verifying format version and integrity markers.
func Read(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("lockfile: read %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("lockfile: parse %s: %w", path, err)
	}
	if f.Version != FormatVersion {
		return nil, fmt.Errorf("lockfile: %s: unsupported format version %d", path, f.Version)
	}
	for name, entry := range f.Packages {
		if entry.Integrity != Integrity(name, entry.Version) {
			return nil, fmt.Errorf("lockfile: %s: integrity mismatch for %s", path, name)
		}
	}
	return &f, nil
}

// Pins returns the name to version pinning the record imposes on a new run.
func (f *File) Pins() map[string]string {
	pins := make(map[string]string, len(f.Packages))
	for name, entry := range f.Packages {
		pins[name] = entry.Version
	}
	return pins
}

// Names lists pinned package names in lexical order.
func (f *File) Names() []string {
	names := make([]string, 0, len(f.Packages))
	for name := range f.Packages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package mapping

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// fileEntry is the persisted form of an Entry. The label is not stored.
type fileEntry struct {
	Landmark string `json:"landmark"`
	Bone     string `json:"bone"`
	Enabled  *bool  `json:"enabled,omitempty"`
}

// Encode serializes entries as a JSON array of {landmark, bone, enabled}.
func Encode(entries []Entry) ([]byte, error) {
	out := make([]fileEntry, len(entries))
	for i, e := range entries {
		enabled := e.Enabled
		out[i] = fileEntry{Landmark: e.Landmark, Bone: e.Bone, Enabled: &enabled}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal mapping: %w", err)
	}
	return data, nil
}

// Decode parses a mapping file. A missing "enabled" field means enabled;
// the label is re-derived from the default table by landmark or bone.
func Decode(data []byte) ([]Entry, error) {
	var in []fileEntry
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("failed to parse mapping: %w", err)
	}
	entries := make([]Entry, len(in))
	for i, fe := range in {
		enabled := true
		if fe.Enabled != nil {
			enabled = *fe.Enabled
		}
		entries[i] = Entry{
			RigBone:  LabelFor(fe.Landmark, fe.Bone),
			Landmark: fe.Landmark,
			Bone:     fe.Bone,
			Enabled:  enabled,
		}
	}
	return entries, nil
}

// Save writes entries to path atomically, creating parent directories.
func Save(path string, entries []Entry) error {
	data, err := Encode(entries)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Write to temp file first, then rename
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Load reads a mapping file written by Save.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping: %w", err)
	}
	return Decode(data)
}

// Dir is a directory of named mapping files.
type Dir struct {
	path string
}

// NewDir returns a mapping directory rooted at path.
func NewDir(path string) *Dir {
	return &Dir{path: path}
}

// Path returns the file path for a named mapping. Only the base name of
// name is used and a .json extension is appended when missing.
func (d *Dir) Path(name string) string {
	name = filepath.Base(name)
	if !strings.HasSuffix(name, ".json") {
		name += ".json"
	}
	return filepath.Join(d.path, name)
}

// Save stores entries under name.
func (d *Dir) Save(name string, entries []Entry) (string, error) {
	p := d.Path(name)
	return p, Save(p, entries)
}

// Load reads the mapping stored under name.
func (d *Dir) Load(name string) ([]Entry, error) {
	return Load(d.Path(name))
}

// List returns the saved mapping names without extension, sorted.
func (d *Dir) List() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(d.path, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list mappings: %w", err)
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, strings.TrimSuffix(filepath.Base(m), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

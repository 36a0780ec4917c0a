package index

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Encode writes m as a single JSON object, keys "dirs" then "files".
func Encode(w io.Writer, m *Manifest, indent bool) error {
	out := m
	if out == nil {
		out = NewManifest()
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(normalize(out))
}

// Write replaces the file at path with the encoded manifest. The write
// is not atomic: a failure part way through can leave a truncated file.
func Write(m *Manifest, path string, indent bool) error {
	var buf bytes.Buffer
	if err := Encode(&buf, m, indent); err != nil {
		return fmt.Errorf("encode index: %w", err)
	}

	f, err := os.OpenFile(
		path,
		os.O_CREATE|os.O_WRONLY|os.O_TRUNC,
		0644,
	)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	_, writeErr := f.Write(buf.Bytes())
	closeErr := f.Close()
	if writeErr != nil {
		return fmt.Errorf("write %s: %w", path, writeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close %s: %w", path, closeErr)
	}
	return nil
}

// Read loads a manifest previously produced by Write.
func Read(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return normalize(&m), nil
}

func normalize(m *Manifest) *Manifest {
	if m.Dirs != nil && m.Files != nil {
		return m
	}
	n := *m
	if n.Dirs == nil {
		n.Dirs = []string{}
	}
	if n.Files == nil {
		n.Files = []string{}
	}
	return &n
}

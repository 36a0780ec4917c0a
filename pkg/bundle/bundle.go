// Package bundle packs an indexed asset tree into one tar stream: the
// manifest as index.json followed by every directory and file it lists.
package bundle

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/tqbf/assetindex/pkg/index"
	"github.com/tqbf/assetindex/pkg/paths"
)

const IndexName = "index.json"

// Write returns the number of asset files packed, not counting the
// index. Headers carry a zero mtime so equal trees give equal bundles.
func Write(
	root string,
	m *index.Manifest,
	w io.Writer,
	compress bool,
) (int, error) {
	var (
		tw *tar.Writer
		gw *gzip.Writer
	)
	if compress {
		gw = gzip.NewWriter(w)
		defer gw.Close()
		tw = tar.NewWriter(gw)
	} else {
		tw = tar.NewWriter(w)
	}
	defer tw.Close()

	var idx bytes.Buffer
	if err := index.Encode(&idx, m, false); err != nil {
		return 0, fmt.Errorf("encode index: %w", err)
	}
	err := tw.WriteHeader(&tar.Header{
		Typeflag: tar.TypeReg,
		Name:     IndexName,
		Mode:     0644,
		Size:     int64(idx.Len()),
		ModTime:  time.Time{},
	})
	if err != nil {
		return 0, fmt.Errorf("write index header: %w", err)
	}
	if _, err := tw.Write(idx.Bytes()); err != nil {
		return 0, fmt.Errorf("write index: %w", err)
	}

	for _, d := range m.Dirs {
		err := tw.WriteHeader(&tar.Header{
			Typeflag: tar.TypeDir,
			Name:     filepath.ToSlash(d) + "/",
			Mode:     0755,
			ModTime:  time.Time{},
		})
		if err != nil {
			return 0, fmt.Errorf("write dir header: %w", err)
		}
	}

	count := 0
	for _, rel := range m.Files {
		name := filepath.ToSlash(rel)
		if err := paths.ValidateRelPath(name); err != nil {
			return 0, fmt.Errorf("invalid path %s: %w", rel, err)
		}
		abs := filepath.Join(root, filepath.FromSlash(name))
		if !paths.IsWithinDir(root, abs) {
			return 0, fmt.Errorf("path escapes dir: %s", rel)
		}

		if err := addFile(tw, abs, name); err != nil {
			return 0, err
		}
		count++
	}

	// Close writes the tar footer and the gzip trailer; a failure
	// here leaves a truncated archive.
	if err := tw.Close(); err != nil {
		return 0, fmt.Errorf("close tar: %w", err)
	}
	if gw != nil {
		if err := gw.Close(); err != nil {
			return 0, fmt.Errorf("close gzip: %w", err)
		}
	}
	return count, nil
}

func addFile(
	tw *tar.Writer,
	absPath, name string,
) error {
	f, err := os.Open(absPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", name, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("not a regular file: %s", name)
	}

	hdr := &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     name,
		Mode:     int64(info.Mode().Perm()),
		Size:     info.Size(),
		ModTime:  time.Time{},
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("write header %s: %w", name, err)
	}
	if _, err := io.Copy(tw, f); err != nil {
		return fmt.Errorf("write body %s: %w", name, err)
	}
	return nil
}

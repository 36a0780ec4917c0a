package bundle

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tqbf/assetindex/pkg/index"
	"github.com/tqbf/assetindex/pkg/paths"
)

func makeTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for path, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(path))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0644))
	}
}

func readTar(t *testing.T, r io.Reader) (map[string]string, []string) {
	t.Helper()
	files := make(map[string]string)
	var dirs []string
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		switch hdr.Typeflag {
		case tar.TypeDir:
			dirs = append(dirs, hdr.Name)
		case tar.TypeReg:
			data, err := io.ReadAll(tr)
			require.NoError(t, err)
			files[hdr.Name] = string(data)
		}
	}
	return files, dirs
}

func buildTree(t *testing.T) (string, *index.Manifest) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "assets")
	makeTree(t, root, map[string]string{
		"a.png":              "png-a",
		"textures/b.png":     "png-b",
		"server/secret.json": "{}",
	})
	m, err := index.Build(root, index.Options{
		Skip: []string{paths.DefaultSkip},
	})
	require.NoError(t, err)
	return root, m
}

func TestWriteGzip(t *testing.T) {
	root, m := buildTree(t)

	var buf bytes.Buffer
	count, err := Write(root, m, &buf, true)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	gr, err := gzip.NewReader(&buf)
	require.NoError(t, err)
	files, dirs := readTar(t, gr)

	assert.Equal(t, []string{"textures/"}, dirs)
	assert.Equal(t, "png-a", files["a.png"])
	assert.Equal(t, "png-b", files["textures/b.png"])
	assert.NotContains(t, files, "server/secret.json")
	assert.JSONEq(t,
		`{"dirs": ["textures"], "files": ["a.png", "textures/b.png"]}`,
		files[IndexName],
	)
}

func TestWritePlainIsReproducible(t *testing.T) {
	root, m := buildTree(t)

	var first, second bytes.Buffer
	_, err := Write(root, m, &first, false)
	require.NoError(t, err)
	_, err = Write(root, m, &second, false)
	require.NoError(t, err)
	assert.Equal(t, first.Bytes(), second.Bytes())

	files, _ := readTar(t, &first)
	assert.Len(t, files, 3)
}

func TestWriteRejectsEscapes(t *testing.T) {
	root := t.TempDir()
	m := &index.Manifest{
		Dirs:  []string{},
		Files: []string{"../outside.png"},
	}
	_, err := Write(root, m, io.Discard, false)
	assert.Error(t, err)
}

func TestWriteMissingFile(t *testing.T) {
	root := t.TempDir()
	m := &index.Manifest{
		Dirs:  []string{},
		Files: []string{"gone.png"},
	}
	_, err := Write(root, m, io.Discard, false)
	assert.Error(t, err)
}

var errDiskFull = errors.New("disk full")

// limitWriter accepts at most limit bytes, then fails every write.
type limitWriter struct {
	limit int
	n     int
}

func (w *limitWriter) Write(p []byte) (int, error) {
	if w.n+len(p) > w.limit {
		return 0, errDiskFull
	}
	w.n += len(p)
	return len(p), nil
}

func TestWriteGzipTrailerFailure(t *testing.T) {
	root, m := buildTree(t)

	// Only the gzip header fits; the compressed body is flushed on close.
	w := &limitWriter{limit: 10}
	_, err := Write(root, m, w, true)
	assert.ErrorIs(t, err, errDiskFull)
}

func TestWriteTarFooterFailure(t *testing.T) {
	root, m := buildTree(t)

	var full bytes.Buffer
	_, err := Write(root, m, &full, false)
	require.NoError(t, err)

	// Room for every entry but not the two zero blocks of the footer.
	w := &limitWriter{limit: full.Len() - 1024}
	_, err = Write(root, m, w, false)
	assert.ErrorIs(t, err, errDiskFull)
}

package index

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/tqbf/assetindex/pkg/paths"
)

// Options tune a Build. The zero value skips nothing.
type Options struct {
	// Skip holds substrings of absolute directory paths whose subtrees
	// are left out (see paths.SkipRule).
	Skip []string
	// Excludes holds glob patterns matched against root-relative
	// slash paths.
	Excludes []string
	// Ignore holds file paths that are never recorded.
	Ignore []string
	// Slash records paths with forward slashes on every platform.
	Slash bool
}

// Build walks root depth-first and records every directory and file
// below it. A missing root gives an empty manifest; any other walk
// error aborts the build.
func Build(root string, opts Options) (*Manifest, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	// A symlinked root is followed; rules still see the path as given.
	walkRoot := absRoot
	if resolved, err := filepath.EvalSymlinks(absRoot); err == nil {
		walkRoot = resolved
	}

	skip := paths.NewSkipRule(opts.Skip)
	excl := paths.NewExcludeMatcher(opts.Excludes)
	ignore := make(map[string]bool, len(opts.Ignore))
	for _, p := range opts.Ignore {
		if abs, err := filepath.Abs(p); err == nil {
			ignore[abs] = true
		}
	}

	m := NewManifest()
	err = filepath.WalkDir(
		walkRoot,
		func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				if p == walkRoot && errors.Is(err, fs.ErrNotExist) {
					slog.Debug("assets root missing", "root", absRoot)
					return filepath.SkipDir
				}
				return err
			}

			rel, err := filepath.Rel(walkRoot, p)
			if err != nil {
				return err
			}
			logical := filepath.Join(absRoot, rel)

			if d.IsDir() && skip.Match(logical) {
				slog.Debug("skip subtree", "dir", logical)
				return filepath.SkipDir
			}
			if rel == "." {
				return nil
			}
			if excl.Match(filepath.ToSlash(rel)) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if opts.Slash {
				rel = filepath.ToSlash(rel)
			}

			if d.IsDir() {
				m.Dirs = append(m.Dirs, rel)
				return nil
			}
			if ignore[logical] {
				return nil
			}
			m.Files = append(m.Files, rel)
			return nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	slog.Debug("built index",
		"root", absRoot,
		"dirs", len(m.Dirs),
		"files", len(m.Files),
	)
	return m, nil
}

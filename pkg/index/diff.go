package index

import "sort"

// DiffResult lists what changed between a previously written manifest
// and a fresh one. Order within a manifest is not compared.
type DiffResult struct {
	AddedDirs    []string
	RemovedDirs  []string
	AddedFiles   []string
	RemovedFiles []string
}

func Diff(prev, cur *Manifest) DiffResult {
	var result DiffResult
	result.AddedDirs, result.RemovedDirs = diffSets(
		prev.Dirs, cur.Dirs,
	)
	result.AddedFiles, result.RemovedFiles = diffSets(
		prev.Files, cur.Files,
	)
	return result
}

func (d DiffResult) Empty() bool {
	return len(d.AddedDirs) == 0 &&
		len(d.RemovedDirs) == 0 &&
		len(d.AddedFiles) == 0 &&
		len(d.RemovedFiles) == 0
}

func diffSets(prev, cur []string) (added, removed []string) {
	old := make(map[string]bool, len(prev))
	for _, p := range prev {
		old[p] = true
	}
	now := make(map[string]bool, len(cur))
	for _, p := range cur {
		if now[p] {
			continue
		}
		now[p] = true
		if !old[p] {
			added = append(added, p)
		}
	}
	for p := range old {
		if !now[p] {
			removed = append(removed, p)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}

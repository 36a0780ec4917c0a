// Package index builds the asset manifest: the list of every directory
// and file under an assets root, relative to that root, that a client
// loader fetches as index.json before downloading the assets.
package index

// Manifest is serialized as {"dirs": [...], "files": [...]}. Both slices
// are kept non-nil so an empty tree encodes as empty arrays.
type Manifest struct {
	Dirs  []string `json:"dirs"`
	Files []string `json:"files"`
}

func NewManifest() *Manifest {
	return &Manifest{
		Dirs:  []string{},
		Files: []string{},
	}
}

func (m *Manifest) Len() int {
	return len(m.Dirs) + len(m.Files)
}

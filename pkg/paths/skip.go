package paths

import (
	"path/filepath"
	"strings"
)

// DefaultSkip marks the server-only subtree of an asset tree.
const DefaultSkip = "assets/server"

// SkipRule decides which directories are left out of an index, along
// with everything below them. A directory is skipped when its absolute
// path, in slash form, contains one of the needles at an index past the
// first character. This is a plain substring test: "assets/serverless"
// is skipped by the default needle, "assets/other-server" is not.
type SkipRule struct {
	needles []string
}

func NewSkipRule(needles []string) *SkipRule {
	r := &SkipRule{}
	for _, n := range needles {
		n = filepath.ToSlash(strings.TrimSpace(n))
		if n != "" {
			r.needles = append(r.needles, n)
		}
	}
	return r
}

func (r *SkipRule) Match(absPath string) bool {
	p := filepath.ToSlash(absPath)
	for _, n := range r.needles {
		if strings.Index(p, n) > 0 {
			return true
		}
	}
	return false
}

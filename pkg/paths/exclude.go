package paths

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ExcludeMatcher drops entries from an index by glob pattern. Patterns
// without a slash match any single path segment; patterns with a slash
// match the whole root-relative path, with ** spanning directories.
type ExcludeMatcher struct {
	patterns []string
}

func NewExcludeMatcher(patterns []string) *ExcludeMatcher {
	cleaned := make([]string, 0, len(patterns))
	for _, pat := range patterns {
		pat = strings.TrimSuffix(strings.TrimSpace(pat), "/")
		if pat != "" {
			cleaned = append(cleaned, pat)
		}
	}
	return &ExcludeMatcher{patterns: cleaned}
}

// ValidatePatterns rejects malformed globs such as an unclosed
// character class.
func ValidatePatterns(patterns []string) error {
	for _, pat := range patterns {
		pat = strings.TrimSuffix(strings.TrimSpace(pat), "/")
		if !doublestar.ValidatePattern(pat) {
			return fmt.Errorf("bad exclude pattern: %q", pat)
		}
	}
	return nil
}

// Match expects relPath in slash form.
func (m *ExcludeMatcher) Match(relPath string) bool {
	for _, pat := range m.patterns {
		if matchPattern(pat, relPath) {
			return true
		}
	}
	return false
}

func matchPattern(pattern, relPath string) bool {
	if strings.Contains(pattern, "/") {
		matched, _ := doublestar.Match(pattern, relPath)
		return matched
	}
	for _, part := range strings.Split(relPath, "/") {
		if matched, _ := doublestar.Match(pattern, part); matched {
			return true
		}
	}
	return false
}

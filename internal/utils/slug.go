package utils

import (
	"fmt"
	"strings"
)

// Slugify lowercases a name and collapses every non-alphanumeric run
// into a single hyphen. Non-ASCII letters are dropped rather than
// transliterated; callers fall back to "entry" for names that slug to
// nothing.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "entry"
	}
	return out
}

// SlugWithSuffix returns the slug for probe attempt n: the base slug
// for n == 0, then base-1, base-2, ...
func SlugWithSuffix(base string, n int) string {
	if n <= 0 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, n)
}

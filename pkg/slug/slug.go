// Package slug builds and checks URL-safe lowercase kebab-case identifiers.
package slug

import (
	"regexp"
	"strings"
	"unicode"
)

var pattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// Valid reports whether s is non-empty lowercase kebab-case.
func Valid(s string) bool {
	return pattern.MatchString(s)
}

// Make derives a slug from a display name. Runs of anything other than
// ASCII letters and digits collapse into a single dash. The result may be
// empty when name has no usable characters.
func Make(name string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(name) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}

// Package slug derives URL-safe identifiers from human-readable titles.
package slug

import (
	"regexp"
	"strconv"
	"strings"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// Generate lowercases s, collapses every run of characters outside [a-z0-9] into a single
// hyphen and trims hyphens from both ends.
// Example: "Hello, World! 2024" → "hello-world-2024"
func Generate(s string) string {
	result := strings.ToLower(s)
	result = nonAlphanumeric.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// WithSuffix returns the n-th candidate for a taken base slug: base for n < 2, base-n otherwise.
func WithSuffix(base string, n int) string {
	if n < 2 {
		return base
	}
	return base + "-" + strconv.Itoa(n)
}

// NextFree picks the first candidate of base not present in taken.
func NextFree(base string, taken []string) string {
	used := make(map[string]struct{}, len(taken))
	for _, s := range taken {
		used[s] = struct{}{}
	}

	for n := 1; ; n++ {
		candidate := WithSuffix(base, n)
		if _, ok := used[candidate]; !ok {
			return candidate
		}
	}
}

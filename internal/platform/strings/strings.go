// Package strings holds small string helpers shared by modules and repos
package strings

import std "strings"

// MustPrefix normalizes a mount path to a single leading slash and no trailing slash
// panics on an empty or root-only value
func MustPrefix(s string) string {
	s = "/" + std.Trim(std.TrimSpace(s), "/")
	if s == "/" {
		panic("root path is required")
	}
	return s
}

// NullIfBlank returns nil for blank s so the driver writes NULL
func NullIfBlank(s string) any {
	if std.TrimSpace(s) == "" {
		return nil
	}
	return s
}

// FirstNonEmpty returns the first argument with non blank content
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if std.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

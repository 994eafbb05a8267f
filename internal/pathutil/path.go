// Package pathutil provides path manipulation for slash-separated archive paths.
package pathutil

import "strings"

// Clean normalizes a caller-supplied path into an archive entry name.
//
// Backslashes are treated as separators. Empty and "." segments are
// discarded and ".." removes the segment before it, so the result never
// starts with a slash and never contains "..":
//
//	"..\\..\\evil.txt" → "evil.txt"
//	"/a/./b/../c.txt"  → "a/c.txt"
//
// A ".." with nothing left to remove is discarded and reported through
// escaped, since it tried to climb above the archive root.
func Clean(raw string) (name string, escaped bool) {
	raw = strings.ReplaceAll(raw, `\`, "/")
	parts := strings.Split(raw, "/")
	kept := parts[:0] // reuse backing array
	for _, part := range parts {
		switch part {
		case "", ".":
		case "..":
			if len(kept) == 0 {
				escaped = true
				continue
			}
			kept = kept[:len(kept)-1]
		default:
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, "/"), escaped
}

// Sanitize is Clean without the escape report. ok is false when nothing
// is left of the path; the entry must then be dropped.
func Sanitize(raw string) (name string, ok bool) {
	name, _ = Clean(raw)
	return name, name != ""
}

// Base returns the last element of a slash-separated path.
// If path is empty or ".", it returns ".".
func Base(path string) string {
	if path == "" || path == "." {
		return "."
	}
	path = strings.TrimSuffix(path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

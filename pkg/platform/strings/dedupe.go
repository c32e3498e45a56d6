// Package strings cleans up identifier lists and names taken from request
// bodies before they are validated.
package strings

import "strings"

// DedupeAndTrim trims each value and drops blanks and repeats, keeping the
// first occurrence. A nil or empty input is returned as is.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// NormalizeName collapses every whitespace run to one space, so
// "  Core   team " and "Core team" name the same group.
func NormalizeName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func TrimSpacePtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

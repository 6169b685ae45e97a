package client

import "strings"

// FilterEntries returns the entries whose title, content or location contain
// the query, case-insensitively. An empty query returns the input unchanged.
func FilterEntries(entries []Entry, query string) []Entry {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return entries
	}
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Title), q) ||
			strings.Contains(strings.ToLower(e.Content), q) ||
			strings.Contains(strings.ToLower(e.Location), q) {
			out = append(out, e)
		}
	}
	return out
}

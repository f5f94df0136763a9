package core

import "strings"

func normalizeProductName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// MatchesProduct reports whether name contains the already-normalized query.
func MatchesProduct(name, query string) bool {
	if name == "" {
		return false
	}
	return strings.Contains(normalizeProductName(name), query)
}

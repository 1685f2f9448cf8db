package oauth2

import (
	"sort"
	"strings"
)

// ParseScope splits a space separated scope string, dropping blanks and duplicates.
func ParseScope(scope string) []string {
	return normaliseScopes(strings.Fields(scope))
}

// JoinScope renders scopes in the space separated wire form.
func JoinScope(scopes []string) string {
	return strings.Join(normaliseScopes(scopes), " ")
}

// ScopesSubset reports whether every requested scope is in allowed.
func ScopesSubset(requested, allowed []string) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, s := range allowed {
		set[s] = struct{}{}
	}
	for _, s := range requested {
		if _, ok := set[s]; !ok {
			return false
		}
	}
	return true
}

// normaliseScopes returns a sorted copy without blanks or duplicates.
func normaliseScopes(scopes []string) []string {
	seen := make(map[string]struct{}, len(scopes))
	out := make([]string, 0, len(scopes))
	for _, s := range scopes {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

package delivery

import "strings"

// AdminList is the immutable set of usernames granted admin at registration.
// Matching is exact and case-sensitive.
type AdminList struct {
	names map[string]struct{}
}

// NewAdminList builds the list from raw entries.
// Entries are trimmed of whitespace only; empty entries are ignored.
func NewAdminList(entries []string) AdminList {
	names := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		names[e] = struct{}{}
	}
	return AdminList{names: names}
}

// ParseAdminList splits a comma-separated list.
func ParseAdminList(raw string) AdminList {
	return NewAdminList(strings.Split(raw, ","))
}

// Contains reports whether username is on the list. An empty username never is.
func (a AdminList) Contains(username string) bool {
	if username == "" {
		return false
	}
	_, ok := a.names[username]
	return ok
}

// Len returns the number of entries.
func (a AdminList) Len() int {
	return len(a.names)
}

// Package identity translates user IDs between the GitLab and Asana
// namespaces via a static table loaded once at startup.
package identity

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Map is the bidirectional user-ID table. Built once from configuration and
// read-only afterwards, so concurrent lookups need no locking.
type Map struct {
	gitlabToAsana map[string]string
	asanaToGitLab map[string]string
}

// Parse builds a Map from a JSON object keyed by GitLab user ID with Asana
// user GIDs as values, e.g. {"7": "1208551231881087"}. Values may be JSON
// strings or numbers. The reverse table is derived by inversion; a duplicate
// value would make reverse lookups ambiguous and is rejected.
func Parse(raw string) (*Map, error) {
	var table map[string]any
	if err := json.Unmarshal([]byte(raw), &table); err != nil {
		return nil, fmt.Errorf("parsing user map: %w", err)
	}

	m := &Map{
		gitlabToAsana: make(map[string]string, len(table)),
		asanaToGitLab: make(map[string]string, len(table)),
	}

	for gitlabID, v := range table {
		asanaGID, err := stringValue(v)
		if err != nil {
			return nil, fmt.Errorf("user map entry %q: %w", gitlabID, err)
		}
		if existing, ok := m.asanaToGitLab[asanaGID]; ok {
			return nil, fmt.Errorf("user map: Asana GID %q mapped from both GitLab IDs %q and %q", asanaGID, existing, gitlabID)
		}
		m.gitlabToAsana[gitlabID] = asanaGID
		m.asanaToGitLab[asanaGID] = gitlabID
	}

	return m, nil
}

// AsanaFor returns the Asana user GID for a GitLab user ID. Exact,
// case-sensitive lookup; no fallback.
func (m *Map) AsanaFor(gitlabID string) (string, bool) {
	gid, ok := m.gitlabToAsana[gitlabID]
	return gid, ok
}

// GitLabFor returns the GitLab user ID for an Asana user GID.
func (m *Map) GitLabFor(asanaGID string) (string, bool) {
	id, ok := m.asanaToGitLab[asanaGID]
	return id, ok
}

// Len returns the number of mapped user pairs.
func (m *Map) Len() int {
	return len(m.gitlabToAsana)
}

func stringValue(v any) (string, error) {
	switch t := v.(type) {
	case string:
		if t == "" {
			return "", fmt.Errorf("empty value")
		}
		return t, nil
	case float64:
		return strconv.FormatInt(int64(t), 10), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}

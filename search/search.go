// Package search implements incremental file search over the loaded graph.
package search

import (
	"strings"

	"github.com/LegacyCodeHQ/codeviz/snapshot"
)

// DefaultLimit is the maximum number of results shown for a query.
const DefaultLimit = 10

// Search returns the nodes whose label or path contains query, ignoring case.
// Results keep the order of nodes and are truncated to DefaultLimit.
func Search(nodes []snapshot.Node, query string) []snapshot.Node {
	return SearchN(nodes, query, DefaultLimit)
}

// SearchN is Search with an explicit result limit. A non-positive limit means
// DefaultLimit.
func SearchN(nodes []snapshot.Node, query string, limit int) []snapshot.Node {
	if query == "" {
		return nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	term := strings.ToLower(query)
	var results []snapshot.Node
	for _, n := range nodes {
		if strings.Contains(strings.ToLower(n.Label), term) || strings.Contains(strings.ToLower(n.Path), term) {
			results = append(results, n)
			if len(results) == limit {
				break
			}
		}
	}
	return results
}

package search

import (
	"sync"

	"github.com/LegacyCodeHQ/codeviz/snapshot"
)

// Box holds the state of the search input: the query being typed and the
// results it currently produces.
type Box struct {
	mu      sync.Mutex
	limit   int
	query   string
	results []snapshot.Node
}

// NewBox returns an empty search box. A non-positive limit means DefaultLimit.
func NewBox(limit int) *Box {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Box{limit: limit}
}

// Type sets the query and recomputes the results against nodes.
func (b *Box) Type(query string, nodes []snapshot.Node) []snapshot.Node {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.query = query
	b.results = SearchN(nodes, query, b.limit)
	return snapshot.CloneNodes(b.results)
}

// Refresh re-runs the current query, e.g. after the graph was reloaded.
func (b *Box) Refresh(nodes []snapshot.Node) []snapshot.Node {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.results = SearchN(nodes, b.query, b.limit)
	return snapshot.CloneNodes(b.results)
}

// Query returns the current query.
func (b *Box) Query() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.query
}

// Results returns the current results.
func (b *Box) Results() []snapshot.Node {
	b.mu.Lock()
	defer b.mu.Unlock()
	return snapshot.CloneNodes(b.results)
}

// Visible reports whether the results dropdown is shown.
func (b *Box) Visible() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.query != "" && len(b.results) > 0
}

// Enter picks the first result and clears the box. It does nothing when there
// are no results.
func (b *Box) Enter() (snapshot.Node, bool) {
	return b.Pick(0)
}

// Pick picks the i-th result and clears the box.
func (b *Box) Pick(i int) (snapshot.Node, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if i < 0 || i >= len(b.results) {
		return snapshot.Node{}, false
	}
	picked := snapshot.CloneNodes(b.results[i : i+1])[0]
	b.query = ""
	b.results = nil
	return picked, true
}

// Escape clears the query and results.
func (b *Box) Escape() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.query = ""
	b.results = nil
}

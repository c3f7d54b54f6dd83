package selection

import (
	"testing"

	"github.com/LegacyCodeHQ/codeviz/snapshot"
	"github.com/stretchr/testify/assert"
)

func scenarioEdges() []snapshot.Edge {
	return []snapshot.Edge{{ID: "e0", Source: "a", Target: "b"}}
}

func chainEdges() []snapshot.Edge {
	// a → b → c, d → b, e isolated
	return []snapshot.Edge{
		{ID: "e0", Source: "a", Target: "b"},
		{ID: "e1", Source: "b", Target: "c"},
		{ID: "e2", Source: "d", Target: "b"},
	}
}

func TestClick_ScenarioA(t *testing.T) {
	e := New()

	state := e.Click("a", scenarioEdges())
	assert.True(t, state.Selected)
	assert.Equal(t, "a", state.SelectedID)
	assert.Equal(t, []string{"a", "b"}, state.HighlightedIDs())

	state = e.Click("a", scenarioEdges())
	assert.False(t, state.Selected)
	assert.Empty(t, state.HighlightedIDs())
}

func TestClick_ToggleIdempotence(t *testing.T) {
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		t.Run(id, func(t *testing.T) {
			e := New()
			e.Click(id, chainEdges())
			state := e.Click(id, chainEdges())

			assert.False(t, state.Selected)
			assert.Equal(t, "", state.SelectedID)
			assert.Empty(t, state.HighlightedIDs())
		})
	}
}

func TestClick_HighlightIsOneHopAndUndirected(t *testing.T) {
	e := New()

	state := e.Click("b", chainEdges())
	assert.Equal(t, []string{"a", "b", "c", "d"}, state.HighlightedIDs())

	state = e.Click("a", chainEdges())
	assert.Equal(t, []string{"a", "b"}, state.HighlightedIDs(), "c is two hops away from a")
}

func TestClick_HighlightSuperset(t *testing.T) {
	edges := chainEdges()
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		e := New()
		state := e.Click(id, edges)

		assert.True(t, state.Highlighted(id))
		for _, other := range state.HighlightedIDs() {
			if other == id {
				continue
			}
			connected := false
			for _, edge := range edges {
				if (edge.Source == id && edge.Target == other) || (edge.Target == id && edge.Source == other) {
					connected = true
				}
			}
			assert.True(t, connected, "%s highlighted without an edge to %s", other, id)
		}
	}
}

func TestClick_HighlightSymmetry(t *testing.T) {
	edges := scenarioEdges()

	fromA := New().Click("a", edges)
	fromB := New().Click("b", edges)

	assert.True(t, fromA.Highlighted("b"))
	assert.True(t, fromB.Highlighted("a"))
}

func TestClick_IsolatedNode(t *testing.T) {
	state := New().Click("e", chainEdges())
	assert.Equal(t, []string{"e"}, state.HighlightedIDs())
}

func TestClick_SelectingAnotherReplaces(t *testing.T) {
	e := New()
	e.Click("a", chainEdges())

	state := e.Click("c", chainEdges())
	assert.Equal(t, "c", state.SelectedID)
	assert.Equal(t, []string{"b", "c"}, state.HighlightedIDs())
	assert.False(t, state.Highlighted("a"))
}

func TestClick_SelfLoop(t *testing.T) {
	state := New().Click("a", []snapshot.Edge{{ID: "e0", Source: "a", Target: "a"}})
	assert.Equal(t, []string{"a"}, state.HighlightedIDs())
}

func TestClear(t *testing.T) {
	e := New()
	e.Click("a", scenarioEdges())
	e.Clear()

	assert.False(t, e.Current().Selected)
	assert.Empty(t, e.Current().HighlightedIDs())
}

func TestReconcile(t *testing.T) {
	exists := func(ids ...string) func(string) bool {
		return func(id string) bool {
			for _, candidate := range ids {
				if candidate == id {
					return true
				}
			}
			return false
		}
	}

	t.Run("keeps selection and recomputes highlight", func(t *testing.T) {
		e := New()
		e.Click("b", chainEdges())

		state := e.Reconcile(exists("a", "b"), []snapshot.Edge{{ID: "e0", Source: "a", Target: "b"}})
		assert.Equal(t, "b", state.SelectedID)
		assert.Equal(t, []string{"a", "b"}, state.HighlightedIDs())
	})

	t.Run("clears when node disappeared", func(t *testing.T) {
		e := New()
		e.Click("b", chainEdges())

		state := e.Reconcile(exists("a"), nil)
		assert.False(t, state.Selected)
		assert.Empty(t, state.HighlightedIDs())
	})

	t.Run("unselected stays unselected", func(t *testing.T) {
		e := New()
		state := e.Reconcile(exists("a"), chainEdges())
		assert.False(t, state.Selected)
	})
}

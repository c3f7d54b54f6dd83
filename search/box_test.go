package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBox_TypeShowsResults(t *testing.T) {
	b := NewBox(0)

	results := b.Type("js", scenarioNodes())
	assert.Equal(t, []string{"a", "b"}, ids(results))
	assert.Equal(t, "js", b.Query())
	assert.True(t, b.Visible())
}

func TestBox_EmptyQueryHidesDropdown(t *testing.T) {
	b := NewBox(0)
	b.Type("js", scenarioNodes())

	results := b.Type("", scenarioNodes())
	assert.Empty(t, results)
	assert.False(t, b.Visible())
}

func TestBox_NoMatchesHidesDropdown(t *testing.T) {
	b := NewBox(0)
	b.Type("zzz", scenarioNodes())
	assert.False(t, b.Visible())
	assert.Equal(t, "zzz", b.Query())
}

func TestBox_EnterPicksFirstAndClears(t *testing.T) {
	b := NewBox(0)
	b.Type("js", scenarioNodes())

	picked, ok := b.Enter()
	require.True(t, ok)
	assert.Equal(t, "a", picked.ID)
	assert.Equal(t, "", b.Query())
	assert.Empty(t, b.Results())
	assert.False(t, b.Visible())
}

func TestBox_EnterWithoutResults(t *testing.T) {
	b := NewBox(0)
	b.Type("zzz", scenarioNodes())

	_, ok := b.Enter()
	assert.False(t, ok)
	assert.Equal(t, "zzz", b.Query(), "query is kept when Enter has nothing to pick")
}

func TestBox_EscapeClears(t *testing.T) {
	b := NewBox(0)
	b.Type("auth", scenarioNodes())

	b.Escape()
	assert.Equal(t, "", b.Query())
	assert.Empty(t, b.Results())
}

func TestBox_Pick(t *testing.T) {
	b := NewBox(0)
	b.Type("js", scenarioNodes())

	_, ok := b.Pick(5)
	assert.False(t, ok)

	picked, ok := b.Pick(1)
	require.True(t, ok)
	assert.Equal(t, "b", picked.ID)
	assert.Equal(t, "", b.Query())
}

func TestBox_RefreshRerunsQuery(t *testing.T) {
	b := NewBox(0)
	b.Type("db", scenarioNodes())
	require.Len(t, b.Results(), 1)

	refreshed := b.Refresh(scenarioNodes()[:1])
	assert.Empty(t, refreshed)
	assert.Equal(t, "db", b.Query())
}

func TestBox_Limit(t *testing.T) {
	b := NewBox(2)
	assert.Len(t, b.Type("file", manyNodes(10)), 2)
}

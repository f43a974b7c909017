package resolver

import (
	"testing"

	"github.com/rory-hayes121/tuesday-sub001/internal/domain"
	"github.com/stretchr/testify/assert"
)

func diamond() ([]domain.Node, []domain.Edge) {
	nodes := []domain.Node{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}, {ID: "lonely"}}
	edges := []domain.Edge{
		{ID: "e1", Source: "a", Target: "b", SourceHandle: "true"},
		{ID: "e2", Source: "a", Target: "c", SourceHandle: "false"},
		{ID: "e3", Source: "a", Target: "b"},
		{ID: "e4", Source: "b", Target: "d"},
		{ID: "e5", Source: "c", Target: "d"},
	}
	return nodes, edges
}

func TestNextSteps(t *testing.T) {
	_, edges := diamond()
	r := New()

	assert.Equal(t, []string{"b", "c"}, r.NextSteps("a", edges))
	assert.Equal(t, []string{"d"}, r.NextSteps("b", edges))
	assert.Empty(t, r.NextSteps("d", edges))
	assert.Empty(t, r.NextSteps("unknown", edges))
}

func TestEntryNodes(t *testing.T) {
	nodes, edges := diamond()

	entries := New().EntryNodes(nodes, edges)
	ids := make([]string, 0, len(entries))
	for _, n := range entries {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"a", "lonely"}, ids)
	assert.Empty(t, EntryNodes(nil, nil))
}

func TestPredecessors(t *testing.T) {
	_, edges := diamond()

	assert.Equal(t, []string{"b", "c"}, New().Predecessors("d", edges))
	assert.Equal(t, []string{"a", "a"}, Predecessors("b", edges))
	assert.Empty(t, Predecessors("a", edges))
}

func TestBranchTargets(t *testing.T) {
	_, edges := diamond()

	assert.Equal(t, map[string][]string{
		"true":  {"b"},
		"false": {"c"},
		"":      {"b"},
	}, New().BranchTargets("a", edges))
	assert.Empty(t, BranchTargets("d", edges))
}

func TestOutgoingEdgesAndHasIncoming(t *testing.T) {
	_, edges := diamond()

	out := OutgoingEdges("a", edges)
	assert.Len(t, out, 3)
	assert.Equal(t, "e1", out[0].ID)

	assert.True(t, HasIncoming("d", edges))
	assert.False(t, HasIncoming("a", edges))
}

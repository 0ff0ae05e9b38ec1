package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindweave-backend/domain/core/entities"
)

func mustNode(t *testing.T, id, name string) *entities.Node {
	t.Helper()
	node, err := entities.NewNode(id, name, 1.0, false, 0)
	require.NoError(t, err)
	return node
}

func TestGraphStore_FetchMissingGraphIsEmpty(t *testing.T) {
	store := NewGraphStore()

	graph, err := store.FetchGraph(context.Background(), "user-1", "ctx-1")

	require.NoError(t, err)
	assert.Equal(t, 0, graph.NodeCount())
}

func TestGraphStore_PersistThenFetch(t *testing.T) {
	store := NewGraphStore()

	nodes := []*entities.Node{
		mustNode(t, "n1", "Astronomy"),
		mustNode(t, "n2", "Telescopes"),
	}
	edge, err := entities.NewEdge("n1", "n2", 0.8, true)
	require.NoError(t, err)

	require.NoError(t, store.Persist(context.Background(), "user-1", "ctx-1", nodes, []entities.Edge{edge}))

	graph, err := store.FetchGraph(context.Background(), "user-1", "ctx-1")
	require.NoError(t, err)
	assert.Equal(t, 2, graph.NodeCount())
	assert.True(t, graph.HasNode("n1"))
	assert.True(t, graph.HasNode("n2"))
	assert.Equal(t, 1, graph.EdgeCount())
}

func TestGraphStore_PersistAppends(t *testing.T) {
	store := NewGraphStore()
	store.Seed("user-1", "ctx-1", []*entities.Node{mustNode(t, "n1", "Astronomy")}, nil)

	require.NoError(t, store.Persist(context.Background(), "user-1", "ctx-1",
		[]*entities.Node{mustNode(t, "n2", "Telescopes")}, nil))

	assert.Equal(t, 2, store.NodeCount("user-1", "ctx-1"))
}

func TestGraphStore_GraphsAreIsolatedByOwnerAndContext(t *testing.T) {
	store := NewGraphStore()
	store.Seed("user-1", "ctx-1", []*entities.Node{mustNode(t, "n1", "Astronomy")}, nil)

	graph, err := store.FetchGraph(context.Background(), "user-1", "ctx-2")
	require.NoError(t, err)
	assert.Equal(t, 0, graph.NodeCount())

	graph, err = store.FetchGraph(context.Background(), "user-2", "ctx-1")
	require.NoError(t, err)
	assert.Equal(t, 0, graph.NodeCount())
}

func TestGraphStore_FetchedGraphIsIndependent(t *testing.T) {
	store := NewGraphStore()
	store.Seed("user-1", "ctx-1", []*entities.Node{mustNode(t, "n1", "Astronomy")}, nil)

	graph, err := store.FetchGraph(context.Background(), "user-1", "ctx-1")
	require.NoError(t, err)
	require.NoError(t, graph.AddNode(mustNode(t, "n2", "Telescopes")))

	// Mutating the fetched aggregate must not leak into the store
	assert.Equal(t, 1, store.NodeCount("user-1", "ctx-1"))
}

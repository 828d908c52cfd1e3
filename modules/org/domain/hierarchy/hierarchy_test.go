package hierarchy_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/orgtree/modules/org/domain/hierarchy"
)

type node struct {
	id       int64
	parentID *int64
	maxDepth uint
}

func (n *node) ID() int64        { return n.id }
func (n *node) ParentID() *int64 { return n.parentID }
func (n *node) MaxDepth() uint   { return n.maxDepth }

type memStore struct {
	nodes    map[int64]*node
	factions map[int64]int
	gets     int
}

func newMemStore() *memStore {
	return &memStore{nodes: map[int64]*node{}, factions: map[int64]int{}}
}

func (s *memStore) add(id int64, parent *int64, maxDepth uint) *node {
	n := &node{id: id, parentID: parent, maxDepth: maxDepth}
	s.nodes[id] = n
	return n
}

// chain creates ids 1..n where i+1 is the child of i.
func (s *memStore) chain(n int, maxDepth uint) {
	for i := int64(1); i <= int64(n); i++ {
		var parent *int64
		if i > 1 {
			parent = ptr(i - 1)
		}
		s.add(i, parent, maxDepth)
	}
}

func (s *memStore) Get(_ context.Context, id int64) (hierarchy.Node, error) {
	s.gets++
	n, ok := s.nodes[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return n, nil
}

func (s *memStore) ChildIDs(_ context.Context, id int64) ([]int64, error) {
	var out []int64
	for _, n := range s.nodes {
		if n.parentID != nil && *n.parentID == id {
			out = append(out, n.id)
		}
	}
	return out, nil
}

func (s *memStore) FactionCount(_ context.Context, id int64) (int, error) {
	return s.factions[id], nil
}

func ptr(v int64) *int64 { return &v }

func TestValidateDepth(t *testing.T) {
	ctx := context.Background()

	t.Run("root passes with zero max depth", func(t *testing.T) {
		s := newMemStore()
		root := s.add(1, nil, 0)
		require.NoError(t, hierarchy.ValidateDepth(ctx, s, root))
	})

	t.Run("d ancestors pass", func(t *testing.T) {
		s := newMemStore()
		s.chain(3, 0)
		candidate := &node{parentID: ptr(3), maxDepth: 3}
		require.NoError(t, hierarchy.ValidateDepth(ctx, s, candidate))
	})

	t.Run("d+1 ancestors fail", func(t *testing.T) {
		s := newMemStore()
		s.chain(4, 0)
		candidate := &node{parentID: ptr(4), maxDepth: 3}
		err := hierarchy.ValidateDepth(ctx, s, candidate)
		require.ErrorIs(t, err, hierarchy.ErrDepthExceeded)
	})

	t.Run("stops walking once exceeded", func(t *testing.T) {
		s := newMemStore()
		s.chain(50, 0)
		candidate := &node{parentID: ptr(50), maxDepth: 2}
		err := hierarchy.ValidateDepth(ctx, s, candidate)
		require.ErrorIs(t, err, hierarchy.ErrDepthExceeded)
		assert.Equal(t, 2, s.gets)
	})

	t.Run("parent reassigned to own descendant", func(t *testing.T) {
		s := newMemStore()
		s.chain(3, 0)
		moved := &node{id: 1, parentID: ptr(3), maxDepth: 10}
		err := hierarchy.ValidateDepth(ctx, s, moved)
		require.ErrorIs(t, err, hierarchy.ErrCyclicParent)
	})

	t.Run("parent set to itself", func(t *testing.T) {
		s := newMemStore()
		s.add(1, nil, 0)
		self := &node{id: 1, parentID: ptr(1), maxDepth: 10}
		require.ErrorIs(t, hierarchy.ValidateDepth(ctx, s, self), hierarchy.ErrCyclicParent)
	})

	t.Run("pre-existing cycle above node", func(t *testing.T) {
		s := newMemStore()
		s.add(1, ptr(2), 0)
		s.add(2, ptr(1), 0)
		candidate := &node{parentID: ptr(1), maxDepth: 100}
		err := hierarchy.ValidateDepth(ctx, s, candidate)
		require.ErrorIs(t, err, hierarchy.ErrCorruptHierarchy)
	})

	t.Run("store error propagates", func(t *testing.T) {
		s := newMemStore()
		candidate := &node{parentID: ptr(99), maxDepth: 1}
		err := hierarchy.ValidateDepth(ctx, s, candidate)
		require.Error(t, err)
		assert.NotErrorIs(t, err, hierarchy.ErrDepthExceeded)
	})
}

func TestRootOf(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	s.chain(4, 0)

	root, err := hierarchy.RootOf(ctx, s, s.nodes[4])
	require.NoError(t, err)
	assert.Equal(t, int64(1), root.ID())

	again, err := hierarchy.RootOf(ctx, s, root)
	require.NoError(t, err)
	assert.Equal(t, root.ID(), again.ID())
}

func TestRootOf_CycleIsReported(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	s.add(1, ptr(3), 0)
	s.add(2, ptr(1), 0)
	s.add(3, ptr(2), 0)

	_, err := hierarchy.RootOf(ctx, s, s.nodes[2])
	require.ErrorIs(t, err, hierarchy.ErrCorruptHierarchy)
}

func TestRootOf_LongChainStaysIterative(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	s.chain(5000, 0)

	root, err := hierarchy.RootOf(ctx, s, s.nodes[5000])
	require.NoError(t, err)
	assert.Equal(t, int64(1), root.ID())
}

func TestFallbackChain(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	s.chain(3, 0)

	chain, err := hierarchy.FallbackChain(ctx, s, s.nodes[3])
	require.NoError(t, err)
	ids := make([]int64, 0, len(chain))
	for _, n := range chain {
		ids = append(ids, n.ID())
	}
	assert.Equal(t, []int64{2, 1}, ids)

	rootChain, err := hierarchy.FallbackChain(ctx, s, s.nodes[1])
	require.NoError(t, err)
	assert.Empty(t, rootChain)
}

func TestDescendantIDs(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	s.add(1, nil, 0)
	s.add(2, ptr(1), 0)
	s.add(3, ptr(1), 0)
	s.add(4, ptr(2), 0)
	s.add(5, ptr(4), 0)
	s.add(6, nil, 0)

	ids, err := hierarchy.DescendantIDs(ctx, s, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ids[0])
	assert.ElementsMatch(t, []int64{1, 2, 3, 4, 5}, ids)

	leaf, err := hierarchy.DescendantIDs(ctx, s, 5)
	require.NoError(t, err)
	assert.Equal(t, []int64{5}, leaf)
}

func TestDescendantIDs_CycleIsReported(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	s.add(1, ptr(2), 0)
	s.add(2, ptr(1), 0)

	_, err := hierarchy.DescendantIDs(ctx, s, 1)
	require.ErrorIs(t, err, hierarchy.ErrCorruptHierarchy)
}

func TestTotalFactionCount(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	s.add(1, nil, 0)
	s.add(2, ptr(1), 0)
	s.add(3, ptr(1), 0)
	s.add(4, ptr(2), 0)
	s.factions[1] = 2
	s.factions[2] = 3
	s.factions[4] = 5

	total, err := hierarchy.TotalFactionCount(ctx, s, 1)
	require.NoError(t, err)
	assert.Equal(t, 10, total)

	// total(n) == own(n) + sum(total(c) for c in children(n))
	sub2, err := hierarchy.TotalFactionCount(ctx, s, 2)
	require.NoError(t, err)
	sub3, err := hierarchy.TotalFactionCount(ctx, s, 3)
	require.NoError(t, err)
	assert.Equal(t, total, s.factions[1]+sub2+sub3)

	childless, err := hierarchy.TotalFactionCount(ctx, s, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, childless)
}

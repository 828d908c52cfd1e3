// Package hierarchy walks organization trees through parent references.
//
// Every walk is iterative, tracks visited ids and stops after MaxWalk steps,
// so corrupted data produces an error instead of unbounded recursion.
package hierarchy

import (
	"context"
	"errors"
	"fmt"
)

// MaxWalk bounds the number of nodes any single walk may visit.
const MaxWalk = 10000

var (
	ErrDepthExceeded    = errors.New("maximum hierarchy depth exceeded")
	ErrCorruptHierarchy = errors.New("organization hierarchy is corrupt")
	ErrCyclicParent     = errors.New("parent assignment would create a cycle")
)

type Node interface {
	ID() int64
	ParentID() *int64
	MaxDepth() uint
}

type Store interface {
	Get(ctx context.Context, id int64) (Node, error)
	ChildIDs(ctx context.Context, id int64) ([]int64, error)
	FactionCount(ctx context.Context, id int64) (int, error)
}

// ValidateDepth checks the chain above node against node.MaxDepth. The node
// itself may be unsaved (zero id) or carry a parent that differs from the
// stored one.
func ValidateDepth(ctx context.Context, store Store, node Node) error {
	visited := make(map[int64]struct{})
	if node.ID() != 0 {
		visited[node.ID()] = struct{}{}
	}
	maxDepth := node.MaxDepth()
	parentID := node.ParentID()
	var hops uint
	for parentID != nil {
		hops++
		if hops > maxDepth {
			return fmt.Errorf("%w: %d > %d", ErrDepthExceeded, hops, maxDepth)
		}
		if *parentID == node.ID() && node.ID() != 0 {
			return ErrCyclicParent
		}
		if _, seen := visited[*parentID]; seen {
			return fmt.Errorf("%w: node %d revisited", ErrCorruptHierarchy, *parentID)
		}
		if len(visited) >= MaxWalk {
			return fmt.Errorf("%w: walk exceeded %d nodes", ErrCorruptHierarchy, MaxWalk)
		}
		visited[*parentID] = struct{}{}
		current, err := store.Get(ctx, *parentID)
		if err != nil {
			return err
		}
		parentID = current.ParentID()
	}
	return nil
}

// RootOf returns the ancestor without a parent. A root returns itself.
func RootOf(ctx context.Context, store Store, node Node) (Node, error) {
	chain, err := FallbackChain(ctx, store, node)
	if err != nil {
		return nil, err
	}
	if len(chain) == 0 {
		return node, nil
	}
	return chain[len(chain)-1], nil
}

// FallbackChain lists the ancestors of node, nearest first, ending with the
// root. A root yields an empty chain.
func FallbackChain(ctx context.Context, store Store, node Node) ([]Node, error) {
	visited := map[int64]struct{}{node.ID(): {}}
	var chain []Node
	parentID := node.ParentID()
	for parentID != nil {
		if _, seen := visited[*parentID]; seen {
			return nil, fmt.Errorf("%w: cycle at node %d", ErrCorruptHierarchy, *parentID)
		}
		if len(visited) >= MaxWalk {
			return nil, fmt.Errorf("%w: walk exceeded %d nodes", ErrCorruptHierarchy, MaxWalk)
		}
		visited[*parentID] = struct{}{}
		parent, err := store.Get(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		chain = append(chain, parent)
		parentID = parent.ParentID()
	}
	return chain, nil
}

// DescendantIDs returns id followed by every transitive child id in
// breadth-first order, each exactly once.
func DescendantIDs(ctx context.Context, store Store, id int64) ([]int64, error) {
	visited := map[int64]struct{}{id: {}}
	out := []int64{id}
	queue := []int64{id}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		children, err := store.ChildIDs(ctx, current)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			if _, seen := visited[child]; seen {
				return nil, fmt.Errorf("%w: node %d reached twice", ErrCorruptHierarchy, child)
			}
			if len(visited) >= MaxWalk {
				return nil, fmt.Errorf("%w: walk exceeded %d nodes", ErrCorruptHierarchy, MaxWalk)
			}
			visited[child] = struct{}{}
			out = append(out, child)
			queue = append(queue, child)
		}
	}
	return out, nil
}

// TotalFactionCount sums the factions owned by id and all of its descendants.
func TotalFactionCount(ctx context.Context, store Store, id int64) (int, error) {
	ids, err := DescendantIDs(ctx, store, id)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, nodeID := range ids {
		n, err := store.FactionCount(ctx, nodeID)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

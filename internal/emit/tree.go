package emit

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrEmptyTarget is returned when a target id is empty.
	ErrEmptyTarget = errors.New("empty target")

	// ErrCycle is returned when a parent link would create a cycle.
	ErrCycle = errors.New("parent link creates a cycle")
)

// Tree holds parent links between target ids.
// Targets with no parent are roots.
type Tree struct {
	mu      sync.RWMutex
	parents map[string]string
}

// NewTree creates an empty tree.
func NewTree() *Tree {
	return &Tree{parents: make(map[string]string)}
}

// SetParent links child under parent. An empty parent makes child a root.
func (t *Tree) SetParent(child, parent string) error {
	if child == "" {
		return ErrEmptyTarget
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if parent == "" {
		delete(t.parents, child)
		return nil
	}
	for p := parent; p != ""; p = t.parents[p] {
		if p == child {
			return fmt.Errorf("%w: %s under %s", ErrCycle, child, parent)
		}
	}
	t.parents[child] = parent
	return nil
}

// Parent returns the parent of target.
func (t *Tree) Parent(target string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.parents[target]
	return p, ok
}

// Remove detaches target from its parent. Children keep their link.
func (t *Tree) Remove(target string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.parents, target)
}

// Path returns the propagation path from the root to target, inclusive.
// An unknown target yields a path holding only itself.
func (t *Tree) Path(target string) []string {
	if target == "" {
		return nil
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	path := []string{target}
	for p := t.parents[target]; p != ""; p = t.parents[p] {
		path = append(path, p)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

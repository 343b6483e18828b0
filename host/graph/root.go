package graph

import (
	"errors"
	"fmt"
)

var (
	ErrNameTaken = errors.New("node name already in scene")
	ErrAttached  = errors.New("node already attached")
)

// Root is the top of the scene graph. Top-level nodes are addressed by
// name, so their names must be unique.
type Root struct {
	nodes  []*Node
	byName map[string]*Node
}

func NewRoot() *Root {
	return &Root{
		byName: make(map[string]*Node),
	}
}

// Add attaches node as a top-level entry.
func (r *Root) Add(node *Node) error {
	if node.attached || node.parent != nil {
		return fmt.Errorf("cannot add %q: %w", node.name, ErrAttached)
	}
	if _, ok := r.byName[node.name]; ok {
		return fmt.Errorf("cannot add %q: %w", node.name, ErrNameTaken)
	}
	node.attached = true
	r.nodes = append(r.nodes, node)
	r.byName[node.name] = node
	return nil
}

func (r *Root) Find(name string) *Node {
	return r.byName[name]
}

// Nodes returns the top-level nodes in attachment order.
func (r *Root) Nodes() []*Node {
	return r.nodes
}

func (r *Root) Len() int {
	return len(r.nodes)
}

// Traverse walks every attached hierarchy in attachment order.
func (r *Root) Traverse(visitor func(node *Node) bool) {
	for _, node := range r.nodes {
		if !node.Traverse(visitor) {
			return
		}
	}
}

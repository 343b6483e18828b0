package graph

import (
	"github.com/google/uuid"
	"github.com/mokiat/gomath/dprec"
)

// Node is an element of the scene hierarchy. Transforms are local to the
// parent node.
type Node struct {
	id   uuid.UUID
	name string

	position dprec.Vec3
	rotation dprec.Quat
	scale    dprec.Vec3

	mesh     *Mesh
	material *Material

	parent   *Node
	children []*Node
	attached bool
}

func NewNode(name string) *Node {
	return &Node{
		id:       uuid.Must(uuid.NewV6()),
		name:     name,
		position: dprec.ZeroVec3(),
		rotation: dprec.IdentityQuat(),
		scale:    dprec.NewVec3(1.0, 1.0, 1.0),
	}
}

func (n *Node) ID() uuid.UUID {
	return n.id
}

func (n *Node) Name() string {
	return n.name
}

func (n *Node) SetName(name string) {
	n.name = name
}

func (n *Node) Position() dprec.Vec3 {
	return n.position
}

func (n *Node) SetPosition(position dprec.Vec3) {
	n.position = position
}

func (n *Node) Rotation() dprec.Quat {
	return n.rotation
}

func (n *Node) SetRotation(rotation dprec.Quat) {
	n.rotation = rotation
}

func (n *Node) Scale() dprec.Vec3 {
	return n.scale
}

func (n *Node) SetScale(scale dprec.Vec3) {
	n.scale = scale
}

func (n *Node) Mesh() *Mesh {
	return n.mesh
}

func (n *Node) SetMesh(mesh *Mesh) {
	n.mesh = mesh
}

// IsMesh reports whether the node carries geometry and can therefore be
// drawn with a material.
func (n *Node) IsMesh() bool {
	return n.mesh != nil
}

func (n *Node) Material() *Material {
	return n.material
}

func (n *Node) SetMaterial(material *Material) {
	n.material = material
}

func (n *Node) Parent() *Node {
	return n.parent
}

func (n *Node) Children() []*Node {
	return n.children
}

// AppendChild moves child under this node.
func (n *Node) AppendChild(child *Node) {
	if child.parent != nil {
		child.parent.removeChild(child)
	}
	child.parent = n
	n.children = append(n.children, child)
}

// Detach removes the node from its parent, if any.
func (n *Node) Detach() {
	if n.parent != nil {
		n.parent.removeChild(n)
	}
}

func (n *Node) removeChild(child *Node) {
	for i, candidate := range n.children {
		if candidate == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			break
		}
	}
	child.parent = nil
}

// FindChild returns the first descendant with the given name.
func (n *Node) FindChild(name string) *Node {
	var result *Node
	n.Traverse(func(node *Node) bool {
		if node != n && node.name == name {
			result = node
			return false
		}
		return true
	})
	return result
}

// Traverse visits the node and its descendants depth-first, parents before
// children. Returning false from the visitor stops the walk.
func (n *Node) Traverse(visitor func(node *Node) bool) bool {
	if !visitor(n) {
		return false
	}
	for _, child := range n.children {
		if !child.Traverse(visitor) {
			return false
		}
	}
	return true
}

// Clone returns a detached deep copy of the hierarchy. Every copy gets a
// fresh identifier while meshes and materials stay shared with the source.
func (n *Node) Clone() *Node {
	result := &Node{
		id:       uuid.Must(uuid.NewV6()),
		name:     n.name,
		position: n.position,
		rotation: n.rotation,
		scale:    n.scale,
		mesh:     n.mesh,
		material: n.material,
	}
	for _, child := range n.children {
		result.AppendChild(child.Clone())
	}
	return result
}

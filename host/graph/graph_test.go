package graph

import (
	"testing"

	"github.com/mokiat/gomath/dprec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHierarchy(material *Material) *Node {
	root := NewNode("root")
	body := NewNode("body")
	body.SetMesh(&Mesh{Name: "Body", Primitives: 1})
	body.SetMaterial(material)
	lid := NewNode("lid")
	lid.SetMesh(&Mesh{Name: "Lid", Primitives: 2})
	lid.SetMaterial(material)
	body.AppendChild(lid)
	root.AppendChild(body)
	return root
}

func TestNodeDefaults(t *testing.T) {
	node := NewNode("n")
	assert.Equal(t, dprec.ZeroVec3(), node.Position())
	assert.Equal(t, dprec.IdentityQuat(), node.Rotation())
	assert.Equal(t, dprec.NewVec3(1.0, 1.0, 1.0), node.Scale())
	assert.False(t, node.IsMesh())
}

func TestNodeTraverseOrder(t *testing.T) {
	root := newHierarchy(nil)

	var names []string
	root.Traverse(func(node *Node) bool {
		names = append(names, node.Name())
		return true
	})
	assert.Equal(t, []string{"root", "body", "lid"}, names)

	names = nil
	root.Traverse(func(node *Node) bool {
		names = append(names, node.Name())
		return node.Name() != "body"
	})
	assert.Equal(t, []string{"root", "body"}, names)
}

func TestNodeAppendChildReparents(t *testing.T) {
	first := NewNode("first")
	second := NewNode("second")
	child := NewNode("child")

	first.AppendChild(child)
	second.AppendChild(child)

	assert.Empty(t, first.Children())
	assert.Equal(t, []*Node{child}, second.Children())
	assert.Same(t, second, child.Parent())
}

func TestNodeCloneSharesMaterials(t *testing.T) {
	material := NewMaterial("shared", "baked.jpg")
	source := newHierarchy(material)

	clone := source.Clone()
	require.NotSame(t, source, clone)
	assert.NotEqual(t, source.ID(), clone.ID())
	assert.Nil(t, clone.Parent())

	lid := clone.FindChild("lid")
	require.NotNil(t, lid)
	assert.NotSame(t, source.FindChild("lid"), lid)
	assert.Same(t, material, lid.Material())

	lid.SetName("renamed")
	assert.NotNil(t, source.FindChild("lid"))
}

func TestRootAdd(t *testing.T) {
	root := NewRoot()
	cube := NewNode("cube")
	require.NoError(t, root.Add(cube))
	assert.Same(t, cube, root.Find("cube"))
	assert.Equal(t, 1, root.Len())

	assert.ErrorIs(t, root.Add(cube), ErrAttached)
	assert.ErrorIs(t, root.Add(NewNode("cube")), ErrNameTaken)

	parent := NewNode("parent")
	nested := NewNode("nested")
	parent.AppendChild(nested)
	assert.ErrorIs(t, root.Add(nested), ErrAttached)

	assert.Equal(t, 1, root.Len())
}

func TestRootTraverse(t *testing.T) {
	root := NewRoot()
	require.NoError(t, root.Add(newHierarchy(nil)))
	second := NewNode("second")
	require.NoError(t, root.Add(second))

	count := 0
	root.Traverse(func(node *Node) bool {
		count++
		return true
	})
	assert.Equal(t, 4, count)
}

func TestNodeDetach(t *testing.T) {
	parent := NewNode("parent")
	child := NewNode("child")
	parent.AppendChild(child)

	child.Detach()
	assert.Nil(t, child.Parent())
	assert.Empty(t, parent.Children())

	child.Detach()
	assert.Nil(t, child.Parent())
}

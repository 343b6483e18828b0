package room

import (
	"errors"
	"fmt"

	"github.com/mokiat/gomath/dprec"

	"github.com/nobonobo/folio-room/host/asset"
	"github.com/nobonobo/folio-room/host/graph"
)

const defaultBakedTexture = "textures/baked.jpg"

// Default returns the objects of the room in construction order. The baked
// shell comes first because it publishes the material everything else
// uses.
func Default() []Variant {
	return []Variant{
		NewBaked(),
		NewCube(),
		NewArcade(),
		NewWhiteboard(),
		NewChair(),
		NewRubiks(),
	}
}

// Baked is the room shell. Its lighting is baked into one texture and the
// material built from it is shared with every other object once the shell
// is in the scene.
type Baked struct {
	Binding
}

func NewBaked() *Baked {
	return &Baked{
		Binding: Binding{Identifier: "baked", Asset: "baked"},
	}
}

func (b *Baked) Material(env *Env, resource *asset.Resource) (*graph.Material, error) {
	texture := defaultBakedTexture
	for _, mesh := range resource.Meshes {
		if surface := mesh.Material(); surface != nil && surface.Texture != "" {
			texture = surface.Texture
			break
		}
	}
	return graph.NewMaterial("baked", texture), nil
}

// Publish makes the material of the attached shell the shared one.
func (b *Baked) Publish(env *Env, object *Object) error {
	mesh := firstMesh(object.Root())
	if mesh == nil || mesh.Material() == nil {
		return errors.New("baked shell has no mesh material")
	}
	return env.Pool.Publish(mesh.Material())
}

type Cube struct {
	Binding
}

func NewCube() *Cube {
	return &Cube{
		Binding: Binding{Identifier: "cube", Asset: "cube"},
	}
}

type Chair struct {
	Binding
}

func NewChair() *Chair {
	return &Chair{
		Binding: Binding{Identifier: "chair", Asset: "chair"},
	}
}

// Arcade is the arcade cabinet. Its screen is addressable so that it can
// be picked.
type Arcade struct {
	Binding
}

func NewArcade() *Arcade {
	return &Arcade{
		Binding: Binding{Identifier: "arcade", Asset: "arcade"},
	}
}

func (a *Arcade) Prepare(env *Env, root *graph.Node) error {
	if screen := root.FindChild("Screen"); screen != nil {
		screen.SetName(a.Identifier + ".screen")
	}
	return nil
}

// Whiteboard carries a drawable canvas plane nested under the board mesh.
// The board is baked, the canvas has a material of its own.
type Whiteboard struct {
	Binding
}

func NewWhiteboard() *Whiteboard {
	return &Whiteboard{
		Binding: Binding{Identifier: "whiteboard", Asset: "whiteboard"},
	}
}

func (w *Whiteboard) Prepare(env *Env, root *graph.Node) error {
	canvas := root.FindChild("Canvas")
	if canvas == nil {
		board := firstMesh(root)
		if board == nil {
			return errors.New("whiteboard has no board mesh")
		}
		canvas = graph.NewNode("Canvas")
		canvas.SetMesh(&graph.Mesh{Name: "CanvasPlane", Primitives: 1})
		board.AppendChild(canvas)
	}
	canvas.SetName(w.Identifier + ".canvas")
	canvas.SetMaterial(&graph.Material{
		Name:        w.Identifier + ".canvas",
		Interactive: true,
	})
	return nil
}

// Rubiks is the interactive puzzle. The resource provides a single cubie
// mesh which is laid out as a 3x3x3 grid under the root.
type Rubiks struct {
	Binding

	// Spacing is the distance between neighbouring cubie centres, in the
	// puzzle's local space.
	Spacing float64
}

func NewRubiks() *Rubiks {
	return &Rubiks{
		Binding: Binding{Identifier: "rubiks", Asset: "rubiks"},
		Spacing: 1.0,
	}
}

func (r *Rubiks) Material(env *Env, resource *asset.Resource) (*graph.Material, error) {
	return &graph.Material{
		Name:        r.Identifier,
		Interactive: true,
	}, nil
}

func (r *Rubiks) Prepare(env *Env, root *graph.Node) error {
	cubie := firstMesh(root)
	if cubie == nil {
		return errors.New("rubiks has no cubie mesh")
	}
	cubie.Detach()

	for x := -1; x <= 1; x++ {
		for y := -1; y <= 1; y++ {
			for z := -1; z <= 1; z++ {
				piece := cubie.Clone()
				piece.SetName(fmt.Sprintf("%s.cubie.%d.%d.%d", r.Identifier, x, y, z))
				piece.SetPosition(dprec.NewVec3(
					float64(x)*r.Spacing,
					float64(y)*r.Spacing,
					float64(z)*r.Spacing,
				))
				root.AppendChild(piece)
			}
		}
	}
	return nil
}

func firstMesh(root *graph.Node) *graph.Node {
	var result *graph.Node
	root.Traverse(func(node *graph.Node) bool {
		if node.IsMesh() {
			result = node
			return false
		}
		return true
	})
	return result
}

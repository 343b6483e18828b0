package graph

// Material is a surface description shared by reference between mesh nodes.
// Two nodes use the same material only when they hold the same pointer.
type Material struct {
	Name string

	// Texture is the locator of the colour texture. Baked materials carry the
	// pre-lit texture here.
	Texture string

	// Interactive marks materials whose appearance is driven at runtime,
	// for example by a puzzle or a drawable canvas.
	Interactive bool
}

func NewMaterial(name, texture string) *Material {
	return &Material{
		Name:    name,
		Texture: texture,
	}
}

// Mesh describes the geometry attached to a node.
type Mesh struct {
	Name       string
	Primitives int
}

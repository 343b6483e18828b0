package asset

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/mokiat/gomath/dprec"
	"github.com/mokiat/lacking/util/resource"
	"github.com/qmuntal/gltf"

	"github.com/nobonobo/folio-room/host/graph"
)

// GLTFDecoder decodes glTF and GLB models whose sources are resolved
// through a locator.
type GLTFDecoder struct {
	locator resource.ReadLocator
}

func NewGLTFDecoder(locator resource.ReadLocator) *GLTFDecoder {
	return &GLTFDecoder{
		locator: locator,
	}
}

func (d *GLTFDecoder) Decode(ctx context.Context, descriptor Descriptor) (*Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	in, err := d.locator.ReadResource(descriptor.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open source: %w", err)
	}
	defer in.Close()

	var document gltf.Document
	if err := gltf.NewDecoder(in).Decode(&document); err != nil {
		return nil, fmt.Errorf("failed to decode gltf: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	builder := &resourceBuilder{
		document:  &document,
		materials: make(map[int]*graph.Material),
		visiting:  make(map[int]bool),
	}
	return builder.build(descriptor.Name)
}

type resourceBuilder struct {
	document  *gltf.Document
	materials map[int]*graph.Material
	visiting  map[int]bool
	meshes    []*graph.Node
}

func (b *resourceBuilder) build(name string) (*Resource, error) {
	root := graph.NewNode(name)
	for _, index := range b.rootNodes() {
		child, err := b.buildNode(index)
		if err != nil {
			return nil, err
		}
		root.AppendChild(child)
	}
	return &Resource{
		Name:   name,
		Root:   root,
		Meshes: b.meshes,
	}, nil
}

// rootNodes returns the nodes of the default scene or, for documents
// without scenes, every node that is nobody's child.
func (b *resourceBuilder) rootNodes() []int {
	doc := b.document
	if len(doc.Scenes) > 0 {
		sceneIndex := 0
		if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
			sceneIndex = *doc.Scene
		}
		return doc.Scenes[sceneIndex].Nodes
	}
	isChild := make(map[int]bool)
	for _, node := range doc.Nodes {
		for _, child := range node.Children {
			isChild[child] = true
		}
	}
	var result []int
	for i := range doc.Nodes {
		if !isChild[i] {
			result = append(result, i)
		}
	}
	return result
}

func (b *resourceBuilder) buildNode(index int) (*graph.Node, error) {
	doc := b.document
	if index < 0 || index >= len(doc.Nodes) {
		return nil, fmt.Errorf("node index %d out of range", index)
	}
	if b.visiting[index] {
		return nil, fmt.Errorf("node %d is its own ancestor", index)
	}
	b.visiting[index] = true
	defer delete(b.visiting, index)

	source := doc.Nodes[index]
	name := source.Name
	if name == "" {
		name = fmt.Sprintf("node%d", index)
	}
	node := graph.NewNode(name)
	if hasMatrix(source.Matrix) {
		position, rotation, scale, err := decomposeMatrix(source.Matrix)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", name, err)
		}
		node.SetPosition(position)
		node.SetRotation(rotation)
		node.SetScale(scale)
	} else {
		applyTRS(node, source)
	}

	if source.Mesh != nil {
		if err := b.attachMesh(node, *source.Mesh); err != nil {
			return nil, fmt.Errorf("node %q: %w", name, err)
		}
	}

	for _, childIndex := range source.Children {
		child, err := b.buildNode(childIndex)
		if err != nil {
			return nil, err
		}
		node.AppendChild(child)
	}
	return node, nil
}

func (b *resourceBuilder) attachMesh(node *graph.Node, index int) error {
	doc := b.document
	if index < 0 || index >= len(doc.Meshes) {
		return fmt.Errorf("mesh index %d out of range", index)
	}
	mesh := doc.Meshes[index]
	node.SetMesh(&graph.Mesh{
		Name:       mesh.Name,
		Primitives: len(mesh.Primitives),
	})
	for _, primitive := range mesh.Primitives {
		if primitive.Material == nil {
			continue
		}
		material, err := b.material(*primitive.Material)
		if err != nil {
			return err
		}
		node.SetMaterial(material)
		break
	}
	b.meshes = append(b.meshes, node)
	return nil
}

func (b *resourceBuilder) material(index int) (*graph.Material, error) {
	if material, ok := b.materials[index]; ok {
		return material, nil
	}
	doc := b.document
	if index < 0 || index >= len(doc.Materials) {
		return nil, fmt.Errorf("material index %d out of range", index)
	}
	source := doc.Materials[index]
	material := graph.NewMaterial(source.Name, b.baseColorTexture(source))
	b.materials[index] = material
	return material, nil
}

func (b *resourceBuilder) baseColorTexture(material *gltf.Material) string {
	doc := b.document
	if material.PBRMetallicRoughness == nil || material.PBRMetallicRoughness.BaseColorTexture == nil {
		return ""
	}
	textureIndex := material.PBRMetallicRoughness.BaseColorTexture.Index
	if textureIndex < 0 || textureIndex >= len(doc.Textures) {
		return ""
	}
	imageIndex := doc.Textures[textureIndex].Source
	if imageIndex == nil || *imageIndex < 0 || *imageIndex >= len(doc.Images) {
		return ""
	}
	return doc.Images[*imageIndex].URI
}

func applyTRS(node *graph.Node, source *gltf.Node) {
	node.SetPosition(dprec.NewVec3(source.Translation[0], source.Translation[1], source.Translation[2]))
	if source.Rotation != [4]float64{} {
		node.SetRotation(dprec.Quat{
			X: source.Rotation[0],
			Y: source.Rotation[1],
			Z: source.Rotation[2],
			W: source.Rotation[3],
		})
	}
	if source.Scale != [3]float64{} {
		node.SetScale(dprec.NewVec3(source.Scale[0], source.Scale[1], source.Scale[2]))
	}
}

var identityMatrix = [16]float64{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

func hasMatrix(matrix [16]float64) bool {
	return matrix != [16]float64{} && matrix != identityMatrix
}

// decomposeMatrix splits a column-major affine matrix into translation,
// rotation and scale. A mirrored matrix gets a negative X scale.
func decomposeMatrix(m [16]float64) (dprec.Vec3, dprec.Quat, dprec.Vec3, error) {
	if m[3] != 0 || m[7] != 0 || m[11] != 0 || m[15] != 1 {
		return dprec.Vec3{}, dprec.Quat{}, dprec.Vec3{}, errors.New("node matrix is not affine")
	}
	position := dprec.NewVec3(m[12], m[13], m[14])

	column := func(i int) (float64, float64, float64) {
		return m[i*4], m[i*4+1], m[i*4+2]
	}
	length := func(x, y, z float64) float64 {
		return math.Sqrt(x*x + y*y + z*z)
	}
	x0, y0, z0 := column(0)
	x1, y1, z1 := column(1)
	x2, y2, z2 := column(2)
	sx, sy, sz := length(x0, y0, z0), length(x1, y1, z1), length(x2, y2, z2)
	if sx == 0 || sy == 0 || sz == 0 {
		return dprec.Vec3{}, dprec.Quat{}, dprec.Vec3{}, errors.New("node matrix has a zero scale")
	}
	determinant := x0*(y1*z2-z1*y2) - x1*(y0*z2-z0*y2) + x2*(y0*z1-z0*y1)
	if determinant < 0 {
		sx = -sx
	}

	// rotation matrix, row r column c
	r00, r10, r20 := x0/sx, y0/sx, z0/sx
	r01, r11, r21 := x1/sy, y1/sy, z1/sy
	r02, r12, r22 := x2/sz, y2/sz, z2/sz

	var rotation dprec.Quat
	switch trace := r00 + r11 + r22; {
	case trace > 0:
		s := math.Sqrt(trace+1.0) * 2.0
		rotation = dprec.Quat{W: 0.25 * s, X: (r21 - r12) / s, Y: (r02 - r20) / s, Z: (r10 - r01) / s}
	case r00 > r11 && r00 > r22:
		s := math.Sqrt(1.0+r00-r11-r22) * 2.0
		rotation = dprec.Quat{W: (r21 - r12) / s, X: 0.25 * s, Y: (r01 + r10) / s, Z: (r02 + r20) / s}
	case r11 > r22:
		s := math.Sqrt(1.0+r11-r00-r22) * 2.0
		rotation = dprec.Quat{W: (r02 - r20) / s, X: (r01 + r10) / s, Y: 0.25 * s, Z: (r12 + r21) / s}
	default:
		s := math.Sqrt(1.0+r22-r00-r11) * 2.0
		rotation = dprec.Quat{W: (r10 - r01) / s, X: (r02 + r20) / s, Y: (r12 + r21) / s, Z: 0.25 * s}
	}
	return position, rotation, dprec.NewVec3(sx, sy, sz), nil
}

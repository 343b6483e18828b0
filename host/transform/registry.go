// Package transform holds the table of object placements. Every final
// position, rotation and scale of a scene object comes from a Registry.
package transform

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/mokiat/gomath/dprec"

	"github.com/nobonobo/folio-room/host/graph"
	"github.com/nobonobo/folio-room/schema"
)

var ErrNotFound = errors.New("transform not found")

type Entry struct {
	Position dprec.Vec3
	Rotation dprec.Quat
	Scale    dprec.Vec3
}

// Identity places an object at the origin, unrotated and unscaled.
func Identity() Entry {
	return Entry{
		Position: dprec.ZeroVec3(),
		Rotation: dprec.IdentityQuat(),
		Scale:    dprec.NewVec3(1.0, 1.0, 1.0),
	}
}

// Apply overwrites the node's local transform with the entry. Applying the
// same entry again leaves the node unchanged.
func Apply(node *graph.Node, entry Entry) {
	node.SetPosition(entry.Position)
	node.SetRotation(entry.Rotation)
	node.SetScale(entry.Scale)
}

// Registry is an immutable lookup from object identifier to Entry.
type Registry struct {
	entries map[string]Entry
}

func NewRegistry(entries map[string]Entry) *Registry {
	return &Registry{
		entries: maps.Clone(entries),
	}
}

// RegistryFromSchema converts a transform table, checking every entry the
// same way parsing does.
func RegistryFromSchema(table schema.TransformTable) (*Registry, error) {
	entries := make(map[string]Entry, len(table))
	for id, transform := range table {
		if err := transform.Validate(); err != nil {
			return nil, fmt.Errorf("transform %q: %w", id, err)
		}
		entries[id] = entryFromSchema(transform)
	}
	return &Registry{
		entries: entries,
	}, nil
}

func (r *Registry) Get(id string) (Entry, error) {
	entry, ok := r.entries[id]
	if !ok {
		return Entry{}, fmt.Errorf("object %q: %w", id, ErrNotFound)
	}
	return entry, nil
}

// IDs returns the registered identifiers in lexical order.
func (r *Registry) IDs() []string {
	return slices.Sorted(maps.Keys(r.entries))
}

func (r *Registry) Len() int {
	return len(r.entries)
}

func entryFromSchema(transform schema.Transform) Entry {
	entry := Identity()
	entry.Position = dprec.Vec3{
		X: transform.Position[0],
		Y: transform.Position[1],
		Z: transform.Position[2],
	}
	switch len(transform.Rotation) {
	case 3:
		entry.Rotation = EulerRotation(transform.Rotation[0], transform.Rotation[1], transform.Rotation[2])
	case 4:
		entry.Rotation = normalizedQuat(
			transform.Rotation[3],
			transform.Rotation[0],
			transform.Rotation[1],
			transform.Rotation[2],
		)
	}
	switch len(transform.Scale) {
	case 1:
		entry.Scale = dprec.NewVec3(transform.Scale[0], transform.Scale[0], transform.Scale[0])
	case 3:
		entry.Scale = dprec.NewVec3(transform.Scale[0], transform.Scale[1], transform.Scale[2])
	}
	return entry
}

func normalizedQuat(w, x, y, z float64) dprec.Quat {
	length := math.Sqrt(w*w + x*x + y*y + z*z)
	return dprec.Quat{
		W: w / length,
		X: x / length,
		Y: y / length,
		Z: z / length,
	}
}

// EulerRotation builds a rotation from angles in degrees, applied in XYZ
// order.
func EulerRotation(x, y, z float64) dprec.Quat {
	return dprec.QuatProd(
		dprec.QuatProd(
			dprec.RotationQuat(dprec.Degrees(x), dprec.BasisXVec3()),
			dprec.RotationQuat(dprec.Degrees(y), dprec.BasisYVec3()),
		),
		dprec.RotationQuat(dprec.Degrees(z), dprec.BasisZVec3()),
	)
}

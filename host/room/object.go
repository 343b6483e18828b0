// Package room defines the objects placed in the room and the common
// construction steps they share.
package room

import (
	"errors"
	"fmt"

	"github.com/nobonobo/folio-room/host/asset"
	"github.com/nobonobo/folio-room/host/graph"
	"github.com/nobonobo/folio-room/host/material"
	"github.com/nobonobo/folio-room/host/transform"
)

var (
	ErrResourceMissing = errors.New("resource missing")
	ErrAlreadyAttached = errors.New("object already attached")
)

type ItemSource interface {
	Item(name string) (*asset.Resource, bool)
}

// Env is what an object needs while it is built.
type Env struct {
	Items    ItemSource
	Registry *transform.Registry
	Pool     *material.Pool
	Root     *graph.Root
}

// Variant is one kind of room object. Prepare is called on the object's own
// copy of its resource, after the material pass and before placement, and
// may only touch nodes under root.
type Variant interface {
	ID() string
	AssetName() string
	Prepare(env *Env, root *graph.Node) error
}

// MaterialProvider is implemented by variants that do not draw with the
// shared baked material.
type MaterialProvider interface {
	Material(env *Env, resource *asset.Resource) (*graph.Material, error)
}

// Publisher is implemented by the variant that owns the shared material.
// Publish runs once the object is in the scene.
type Publisher interface {
	Publish(env *Env, object *Object) error
}

// Binding ties an object identifier to the asset it is built from.
// Variants embed it.
type Binding struct {
	Identifier string
	Asset      string
}

func (b Binding) ID() string {
	return b.Identifier
}

func (b Binding) AssetName() string {
	return b.Asset
}

func (b Binding) Prepare(env *Env, root *graph.Node) error {
	return nil
}

type BuildError struct {
	Object string
	Err    error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("failed to build object %q: %v", e.Object, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// Object is a built room object.
type Object struct {
	id       string
	root     *graph.Node
	attached bool
}

func (o *Object) ID() string {
	return o.id
}

func (o *Object) Root() *graph.Node {
	return o.root
}

func (o *Object) Attached() bool {
	return o.attached
}

// Attach adds the object to the scene. An object is attached at most once.
func (o *Object) Attach(root *graph.Root) error {
	if o.attached {
		return &BuildError{Object: o.id, Err: ErrAlreadyAttached}
	}
	if err := root.Add(o.root); err != nil {
		return &BuildError{Object: o.id, Err: err}
	}
	o.attached = true
	return nil
}

// Build constructs the object for variant and attaches it to env.Root. A
// Publisher publishes only after a successful attach, so a failed build
// leaves the pool untouched.
func Build(env *Env, variant Variant) (*Object, error) {
	publisher, publishes := variant.(Publisher)
	if publishes && env.Pool.Published() {
		return nil, &BuildError{Object: variant.ID(), Err: material.ErrAlreadyPublished}
	}
	object, err := Instantiate(env, variant)
	if err != nil {
		return nil, err
	}
	if err := object.Attach(env.Root); err != nil {
		return nil, err
	}
	if publishes {
		if err := publisher.Publish(env, object); err != nil {
			return nil, &BuildError{Object: object.id, Err: err}
		}
	}
	return object, nil
}

// Instantiate runs every construction step except attachment and publication:
// it takes a copy of the decoded resource, assigns materials, lets the
// variant adjust its hierarchy, places the root from the registry and names it.
func Instantiate(env *Env, variant Variant) (*Object, error) {
	id := variant.ID()

	resource, ok := env.Items.Item(variant.AssetName())
	if !ok {
		return nil, &BuildError{
			Object: id,
			Err:    fmt.Errorf("asset %q: %w", variant.AssetName(), ErrResourceMissing),
		}
	}
	entry, err := env.Registry.Get(id)
	if err != nil {
		return nil, &BuildError{Object: id, Err: err}
	}

	root := resource.Root.Clone()

	surface, err := resolveMaterial(env, variant, resource)
	if err != nil {
		return nil, &BuildError{Object: id, Err: err}
	}
	AssignMaterial(root, surface)

	if err := variant.Prepare(env, root); err != nil {
		return nil, &BuildError{Object: id, Err: err}
	}

	transform.Apply(root, entry)
	root.SetName(id)

	return &Object{
		id:   id,
		root: root,
	}, nil
}

func resolveMaterial(env *Env, variant Variant, resource *asset.Resource) (*graph.Material, error) {
	if provider, ok := variant.(MaterialProvider); ok {
		return provider.Material(env, resource)
	}
	return env.Pool.Get()
}

// AssignMaterial makes every mesh under node reference surface.
func AssignMaterial(node *graph.Node, surface *graph.Material) {
	node.Traverse(func(current *graph.Node) bool {
		if current.IsMesh() {
			current.SetMaterial(surface)
		}
		return true
	})
}

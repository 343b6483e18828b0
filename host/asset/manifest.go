package asset

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/mokiat/gog/ds"

	"github.com/nobonobo/folio-room/schema"
)

var ErrDuplicateAsset = errors.New("duplicate asset name")

var validate = validator.New()

// Descriptor names an asset and where its payload comes from. Source is
// opaque to the loader and resolved by the Decoder.
type Descriptor struct {
	Name   string `validate:"required"`
	Source string `validate:"required"`
}

// Group is a unit of loading. Dependents wait for their group only.
type Group struct {
	Name  string       `validate:"required"`
	Items []Descriptor `validate:"dive"`
}

type Manifest struct {
	Groups []Group `validate:"dive"`
}

func ManifestFromSchema(document schema.Manifest) Manifest {
	manifest := Manifest{
		Groups: make([]Group, len(document.Groups)),
	}
	for i, group := range document.Groups {
		items := make([]Descriptor, len(group.Items))
		for j, item := range group.Items {
			items[j] = Descriptor{
				Name:   item.Name,
				Source: item.Source,
			}
		}
		manifest.Groups[i] = Group{
			Name:  group.Name,
			Items: items,
		}
	}
	return manifest
}

// Validate checks that every group and asset is named and that names are
// unique. Asset names must be unique across the whole manifest because
// loaded items are keyed by asset name alone.
func (m Manifest) Validate() error {
	if err := validate.Struct(m); err != nil {
		return fmt.Errorf("invalid manifest: %w", err)
	}
	groupNames := ds.NewSet[string](len(m.Groups))
	assetNames := ds.NewSet[string](0)
	for _, group := range m.Groups {
		if groupNames.Contains(group.Name) {
			return fmt.Errorf("invalid manifest: group %q declared twice", group.Name)
		}
		groupNames.Add(group.Name)
		for _, item := range group.Items {
			if assetNames.Contains(item.Name) {
				return fmt.Errorf("invalid manifest: asset %q in group %q: %w", item.Name, group.Name, ErrDuplicateAsset)
			}
			assetNames.Add(item.Name)
		}
	}
	return nil
}

// Group returns the group with the given name.
func (m Manifest) Group(name string) (Group, bool) {
	for _, group := range m.Groups {
		if group.Name == name {
			return group, true
		}
	}
	return Group{}, false
}

// Len returns the number of descriptors over all groups.
func (m Manifest) Len() int {
	count := 0
	for _, group := range m.Groups {
		count += len(group.Items)
	}
	return count
}

package schema

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

type Manifest struct {
	Groups []Group `yaml:"groups"`
}

type Group struct {
	Name  string  `yaml:"name"`
	Items []Asset `yaml:"items"`
}

type Asset struct {
	Name   string `yaml:"name"`
	Source string `yaml:"source"`
}

// ParseManifest decodes a manifest document. Structural validation is left
// to the consumer.
func ParseManifest(data []byte) (Manifest, error) {
	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return Manifest{}, fmt.Errorf("failed to decode manifest: %w", err)
	}
	return manifest, nil
}

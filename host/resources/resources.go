// Package resources embeds the default room: its manifest, its transform
// table and the models they reference.
package resources

import "embed"

const (
	ManifestFile   = "manifest.yaml"
	TransformsFile = "transforms.yaml"
)

//go:embed manifest.yaml transforms.yaml models
var Room embed.FS

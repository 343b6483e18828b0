package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseManifest(t *testing.T) {
	manifest, err := ParseManifest([]byte(`
groups:
  - name: base
    items:
      - name: baked
        source: models/baked.gltf
      - name: cube
        source: models/cube.gltf
`))
	require.NoError(t, err)
	require.Len(t, manifest.Groups, 1)
	assert.Equal(t, "base", manifest.Groups[0].Name)
	assert.Equal(t, []Asset{
		{Name: "baked", Source: "models/baked.gltf"},
		{Name: "cube", Source: "models/cube.gltf"},
	}, manifest.Groups[0].Items)
}

func TestParseTransforms(t *testing.T) {
	table, err := ParseTransforms([]byte(`
cube:
  position: [1, 2, 3]
  rotation: [0, 90, 0]
  scale: 0.5
arcade:
  position: [0, 0, -2]
  rotation: [0, 0, 0, 1]
  scale: [1, 2, 1]
chair:
  position: [0, 0, 0]
`))
	require.NoError(t, err)
	assert.Equal(t, Scale{0.5}, table["cube"].Scale)
	assert.Equal(t, []float64{0, 90, 0}, table["cube"].Rotation)
	assert.Equal(t, Scale{1, 2, 1}, table["arcade"].Scale)
	assert.Len(t, table["arcade"].Rotation, 4)
	assert.Empty(t, table["chair"].Scale)
}

func TestParseTransformsRejectsMalformed(t *testing.T) {
	_, err := ParseTransforms([]byte(`
cube:
  position: [1, 2]
`))
	assert.ErrorContains(t, err, `transform "cube"`)

	_, err = ParseTransforms([]byte(`
cube:
  position: [1, 2, 3]
  scale: {x: 1}
`))
	assert.Error(t, err)

	_, err = ParseTransforms([]byte(`
cube:
  position: [1, 2, 3]
  rotation: [0, 0, 0, 0]
`))
	assert.ErrorContains(t, err, "zero length")
}

func TestTransformValidate(t *testing.T) {
	assert.NoError(t, Transform{Position: []float64{0, 0, 0}}.Validate())
	assert.Error(t, Transform{}.Validate())
	assert.Error(t, Transform{Position: []float64{0, 0, 0}, Rotation: []float64{1, 0}}.Validate())
	assert.Error(t, Transform{Position: []float64{0, 0, 0}, Scale: Scale{1, 1}}.Validate())
}

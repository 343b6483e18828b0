package material

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nobonobo/folio-room/host/graph"
)

func TestPool(t *testing.T) {
	pool := NewPool()

	_, err := pool.Get()
	assert.ErrorIs(t, err, ErrNotReady)
	assert.False(t, pool.Published())

	assert.ErrorIs(t, pool.Publish(nil), ErrNilMaterial)

	baked := graph.NewMaterial("baked", "textures/baked.jpg")
	require.NoError(t, pool.Publish(baked))
	assert.True(t, pool.Published())

	handle, err := pool.Get()
	require.NoError(t, err)
	assert.Same(t, baked, handle)

	other := graph.NewMaterial("other", "")
	assert.ErrorIs(t, pool.Publish(other), ErrAlreadyPublished)

	handle, err = pool.Get()
	require.NoError(t, err)
	assert.Same(t, baked, handle)
}

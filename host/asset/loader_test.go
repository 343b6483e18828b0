package asset

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mokiat/gog/opt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nobonobo/folio-room/host/graph"
	"github.com/nobonobo/folio-room/host/loop"
)

// gatedDecoder decodes immediately unless a gate is registered for the
// asset, in which case it waits for the gate to be released.
type gatedDecoder struct {
	mu     sync.Mutex
	gates  map[string]chan struct{}
	failed map[string]error
}

func newGatedDecoder() *gatedDecoder {
	return &gatedDecoder{
		gates:  make(map[string]chan struct{}),
		failed: make(map[string]error),
	}
}

func (d *gatedDecoder) hold(name string) func() {
	gate := make(chan struct{})
	d.mu.Lock()
	d.gates[name] = gate
	d.mu.Unlock()
	return func() { close(gate) }
}

func (d *gatedDecoder) fail(name string, err error) {
	d.mu.Lock()
	d.failed[name] = err
	d.mu.Unlock()
}

func (d *gatedDecoder) Decode(ctx context.Context, descriptor Descriptor) (*Resource, error) {
	d.mu.Lock()
	gate := d.gates[descriptor.Name]
	err := d.failed[descriptor.Name]
	d.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return &Resource{
		Name: descriptor.Name,
		Root: graph.NewNode(descriptor.Name),
	}, nil
}

type recorder struct {
	events []Event
}

func (r *recorder) record(event Event) {
	r.events = append(r.events, event)
}

func (r *recorder) groupEnds() []string {
	var result []string
	for _, event := range r.events {
		if end, ok := event.(GroupEndEvent); ok {
			result = append(result, end.Group)
		}
	}
	return result
}

func (r *recorder) progress() []ProgressEvent {
	var result []ProgressEvent
	for _, event := range r.events {
		if progress, ok := event.(ProgressEvent); ok {
			result = append(result, progress)
		}
	}
	return result
}

func (r *recorder) errors() []ErrorEvent {
	var result []ErrorEvent
	for _, event := range r.events {
		if failure, ok := event.(ErrorEvent); ok {
			result = append(result, failure)
		}
	}
	return result
}

func newTestLoader(decoder Decoder) (*Loader, *loop.Queue, *recorder) {
	queue := loop.NewQueue()
	loader := NewLoader(queue, decoder, LoaderInfo{
		Concurrency: opt.V(2),
	})
	rec := &recorder{}
	loader.Subscribe(EventProgress, rec.record)
	loader.Subscribe(EventGroupEnd, rec.record)
	loader.Subscribe(EventError, rec.record)
	return loader, queue, rec
}

func runUntil(t *testing.T, queue *loop.Queue, done func() bool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, queue.RunUntil(ctx, done))
}

func baseManifest(names ...string) Manifest {
	items := make([]Descriptor, len(names))
	for i, name := range names {
		items[i] = Descriptor{Name: name, Source: "models/" + name + ".gltf"}
	}
	return Manifest{
		Groups: []Group{
			{Name: "base", Items: items},
		},
	}
}

func TestLoaderGroupEndAfterAllItems(t *testing.T) {
	decoder := newGatedDecoder()
	release := decoder.hold("arcade")
	loader, queue, rec := newTestLoader(decoder)

	require.NoError(t, loader.Load(context.Background(), baseManifest("baked", "cube", "arcade")))

	runUntil(t, queue, func() bool {
		loaded, _ := loader.Progress()
		return loaded == 2
	})
	time.Sleep(20 * time.Millisecond)
	queue.Process()
	assert.Empty(t, rec.groupEnds())
	_, ok := loader.Item("arcade")
	assert.False(t, ok)

	release()
	runUntil(t, queue, func() bool { return len(rec.groupEnds()) > 0 })
	queue.Process()

	assert.Equal(t, []string{"base"}, rec.groupEnds())
	last := rec.events[len(rec.events)-1]
	assert.Equal(t, GroupEndEvent{Group: "base"}, last)

	for _, name := range []string{"baked", "cube", "arcade"} {
		item, ok := loader.Item(name)
		require.True(t, ok, name)
		assert.Equal(t, name, item.Name)
	}
	assert.Len(t, loader.Items(), 3)
}

func TestLoaderProgressTotals(t *testing.T) {
	loader, queue, rec := newTestLoader(newGatedDecoder())

	require.NoError(t, loader.Load(context.Background(), Manifest{
		Groups: []Group{
			{Name: "base", Items: []Descriptor{{Name: "baked", Source: "a"}, {Name: "cube", Source: "b"}}},
			{Name: "extra", Items: []Descriptor{{Name: "plant", Source: "c"}}},
		},
	}))
	runUntil(t, queue, func() bool { return len(rec.groupEnds()) == 2 })

	var progress []ProgressEvent
	for _, event := range rec.events {
		if p, ok := event.(ProgressEvent); ok {
			progress = append(progress, p)
		}
	}
	require.Len(t, progress, 3)
	for i, p := range progress {
		assert.Equal(t, i+1, p.Loaded)
		assert.Equal(t, 3, p.Total)
	}
	assert.ElementsMatch(t, []string{"base", "extra"}, rec.groupEnds())
}

func TestLoaderDecodeFailure(t *testing.T) {
	decoder := newGatedDecoder()
	cause := errors.New("corrupt payload")
	decoder.fail("arcade", cause)
	loader, queue, rec := newTestLoader(decoder)

	require.NoError(t, loader.Load(context.Background(), baseManifest("baked", "cube", "arcade")))

	promise, ok := loader.Group("base")
	require.True(t, ok)
	var groupErr error
	loop.Bind(queue, promise, func(string) {}, func(err error) { groupErr = err })

	runUntil(t, queue, func() bool { return groupErr != nil })
	queue.Process()

	assert.Empty(t, rec.groupEnds())
	failures := rec.errors()
	require.Len(t, failures, 1)
	assert.Equal(t, "arcade", failures[0].Name)
	assert.Equal(t, "base", failures[0].Group)
	assert.ErrorIs(t, failures[0].Err, cause)

	var decodeErr *DecodeError
	require.ErrorAs(t, groupErr, &decodeErr)
	assert.Equal(t, "arcade", decodeErr.Name)

	// Decoded siblings are kept.
	_, ok = loader.Item("baked")
	assert.True(t, ok)
}

func TestLoaderRetryFailedGroup(t *testing.T) {
	decoder := newGatedDecoder()
	decoder.fail("arcade", errors.New("timeout"))
	loader, queue, rec := newTestLoader(decoder)

	require.NoError(t, loader.Load(context.Background(), baseManifest("baked", "arcade")))
	promise, ok := loader.Group("base")
	require.True(t, ok)
	var groupErr error
	loop.Bind(queue, promise, func(string) {}, func(err error) { groupErr = err })
	runUntil(t, queue, func() bool { return groupErr != nil })
	require.Len(t, rec.errors(), 1)

	decoder.fail("arcade", nil)
	require.NoError(t, loader.Load(context.Background(), baseManifest("arcade")))
	runUntil(t, queue, func() bool { return len(rec.groupEnds()) == 1 })

	_, ok = loader.Item("baked")
	assert.True(t, ok)
	_, ok = loader.Item("arcade")
	assert.True(t, ok)

	loaded, total := loader.Progress()
	assert.Equal(t, 2, loaded)
	assert.Equal(t, 2, total)
	progress := rec.progress()
	require.NotEmpty(t, progress)
	last := progress[len(progress)-1]
	assert.Equal(t, "arcade", last.Name)
	assert.Equal(t, 2, last.Loaded)
	assert.Equal(t, 2, last.Total)

	err := loader.Load(context.Background(), baseManifest("arcade"))
	assert.ErrorIs(t, err, ErrGroupActive)
}

func TestLoaderRejectsInvalidManifest(t *testing.T) {
	loader, _, _ := newTestLoader(newGatedDecoder())

	err := loader.Load(context.Background(), baseManifest("cube", "cube"))
	assert.ErrorIs(t, err, ErrDuplicateAsset)

	err = loader.Load(context.Background(), Manifest{
		Groups: []Group{{Name: "base", Items: []Descriptor{{Name: "cube"}}}},
	})
	assert.Error(t, err)

	require.NoError(t, loader.Load(context.Background(), baseManifest("cube")))
	err = loader.Load(context.Background(), Manifest{
		Groups: []Group{{Name: "extra", Items: []Descriptor{{Name: "cube", Source: "x"}}}},
	})
	assert.ErrorIs(t, err, ErrDuplicateAsset)
}

func TestLoaderCancellation(t *testing.T) {
	decoder := newGatedDecoder()
	decoder.hold("arcade")
	loader, queue, rec := newTestLoader(decoder)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, loader.Load(ctx, baseManifest("baked", "arcade")))
	cancel()

	runUntil(t, queue, func() bool { return len(rec.errors()) > 0 })
	assert.Empty(t, rec.groupEnds())
	assert.ErrorIs(t, rec.errors()[0].Err, context.Canceled)
}

func TestLoaderEmptyGroup(t *testing.T) {
	loader, queue, rec := newTestLoader(newGatedDecoder())

	require.NoError(t, loader.Load(context.Background(), Manifest{
		Groups: []Group{{Name: "base"}},
	}))
	runUntil(t, queue, func() bool { return len(rec.groupEnds()) == 1 })
	assert.Equal(t, []string{"base"}, rec.groupEnds())
}

func TestLoaderUnsubscribe(t *testing.T) {
	queue := loop.NewQueue()
	loader := NewLoader(queue, newGatedDecoder(), LoaderInfo{})

	count := 0
	unsubscribe := loader.Subscribe(EventGroupEnd, func(Event) { count++ })
	unsubscribe()

	done := false
	loader.Subscribe(EventGroupEnd, func(Event) { done = true })

	require.NoError(t, loader.Load(context.Background(), baseManifest("cube")))
	runUntil(t, queue, func() bool { return done })
	assert.Zero(t, count)
}

package asset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/mokiat/gog/opt"
	"github.com/mokiat/lacking/util/async"
	"golang.org/x/sync/errgroup"

	"github.com/nobonobo/folio-room/host/graph"
	"github.com/nobonobo/folio-room/host/loop"
)

var (
	ErrGroupActive = errors.New("group already loading or loaded")
	ErrNoResource  = errors.New("decoder returned no resource")
)

const defaultConcurrency = 4

// Resource is a decoded asset. It is owned by the Loader and must be
// treated as read-only: consumers instantiate a copy of Root.
type Resource struct {
	Name   string
	Root   *graph.Node
	Meshes []*graph.Node
}

type Decoder interface {
	Decode(ctx context.Context, descriptor Descriptor) (*Resource, error)
}

type DecoderFunc func(ctx context.Context, descriptor Descriptor) (*Resource, error)

func (f DecoderFunc) Decode(ctx context.Context, descriptor Descriptor) (*Resource, error) {
	return f(ctx, descriptor)
}

type LoaderInfo struct {
	// Concurrency limits the number of assets of one group decoded at the
	// same time.
	Concurrency opt.T[int]

	Logger opt.T[*slog.Logger]
}

type groupStatus int

const (
	groupLoading groupStatus = iota
	groupComplete
	groupFailed
)

type groupState struct {
	status  groupStatus
	promise async.Promise[string]
}

type subscription struct {
	handler EventHandler
}

// Loader decodes manifest groups in the background. Every observable change
// (stored items, events, group outcome) happens on the worker, so handlers
// run on the same logical thread as scene construction.
type Loader struct {
	worker      loop.Worker
	decoder     Decoder
	concurrency int
	logger      *slog.Logger

	mu       sync.RWMutex
	items    map[string]*Resource
	owners   map[string]string
	groups   map[string]*groupState
	handlers map[EventKind][]*subscription
	loaded   int
	total    int
}

func NewLoader(worker loop.Worker, decoder Decoder, info LoaderInfo) *Loader {
	concurrency := defaultConcurrency
	if info.Concurrency.Specified && info.Concurrency.Value > 0 {
		concurrency = info.Concurrency.Value
	}
	logger := slog.Default()
	if info.Logger.Specified && info.Logger.Value != nil {
		logger = info.Logger.Value
	}
	return &Loader{
		worker:      worker,
		decoder:     decoder,
		concurrency: concurrency,
		logger:      logger,

		items:    make(map[string]*Resource),
		owners:   make(map[string]string),
		groups:   make(map[string]*groupState),
		handlers: make(map[EventKind][]*subscription),
	}
}

// Subscribe registers handler for events of the given kind. The returned
// function removes the subscription.
func (l *Loader) Subscribe(kind EventKind, handler EventHandler) func() {
	sub := &subscription{
		handler: handler,
	}
	l.mu.Lock()
	l.handlers[kind] = append(l.handlers[kind], sub)
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.handlers[kind] = slices.DeleteFunc(l.handlers[kind], func(candidate *subscription) bool {
			return candidate == sub
		})
	}
}

// Load starts decoding every group of the manifest and returns without
// waiting. It fails only when the manifest is invalid or names a group that
// is loading or has loaded. A group whose previous load failed may be
// loaded again, usually with the descriptors that did not decode.
//
// Cancelling ctx makes pending decodes fail, which fails their groups.
func (l *Loader) Load(ctx context.Context, manifest Manifest) error {
	if err := manifest.Validate(); err != nil {
		return err
	}

	l.mu.Lock()
	for _, group := range manifest.Groups {
		if state, ok := l.groups[group.Name]; ok && state.status != groupFailed {
			l.mu.Unlock()
			return fmt.Errorf("cannot load group %q: %w", group.Name, ErrGroupActive)
		}
		for _, item := range group.Items {
			if owner, ok := l.owners[item.Name]; ok && owner != group.Name {
				l.mu.Unlock()
				return fmt.Errorf("cannot load asset %q into group %q, owned by group %q: %w", item.Name, group.Name, owner, ErrDuplicateAsset)
			}
		}
	}
	states := make([]*groupState, len(manifest.Groups))
	for i, group := range manifest.Groups {
		states[i] = &groupState{
			status:  groupLoading,
			promise: async.NewPromise[string](),
		}
		l.groups[group.Name] = states[i]
		for _, item := range group.Items {
			// a retry resubmits descriptors counted by the failed attempt
			if _, counted := l.owners[item.Name]; !counted {
				l.total++
			}
			l.owners[item.Name] = group.Name
		}
	}
	l.mu.Unlock()

	for i, group := range manifest.Groups {
		go l.loadGroup(ctx, group, states[i])
	}
	return nil
}

func (l *Loader) loadGroup(ctx context.Context, group Group, state *groupState) {
	var workers errgroup.Group
	workers.SetLimit(l.concurrency)
	for _, descriptor := range group.Items {
		workers.Go(func() error {
			resource, err := l.decode(ctx, descriptor)
			if err != nil {
				decodeErr := &DecodeError{
					Group:  group.Name,
					Name:   descriptor.Name,
					Source: descriptor.Source,
					Err:    err,
				}
				l.worker.Schedule(func() {
					l.reportFailure(decodeErr)
				})
				return decodeErr
			}
			l.worker.Schedule(func() {
				l.store(group.Name, descriptor.Name, resource)
			})
			return nil
		})
	}

	if err := workers.Wait(); err != nil {
		l.worker.Schedule(func() {
			l.failGroup(group.Name, state, err)
		})
		return
	}
	l.worker.Schedule(func() {
		l.completeGroup(group.Name, state)
	})
}

func (l *Loader) decode(ctx context.Context, descriptor Descriptor) (*Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resource, err := l.decoder.Decode(ctx, descriptor)
	if err != nil {
		return nil, err
	}
	if resource == nil {
		return nil, ErrNoResource
	}
	return resource, nil
}

func (l *Loader) store(group, name string, resource *Resource) {
	l.mu.Lock()
	if _, stored := l.items[name]; !stored {
		l.loaded++
	}
	l.items[name] = resource
	event := ProgressEvent{
		Group:  group,
		Name:   name,
		Loaded: l.loaded,
		Total:  l.total,
	}
	l.mu.Unlock()

	l.logger.Debug("Asset loaded",
		slog.String("group", group),
		slog.String("asset", name),
		slog.Int("loaded", event.Loaded),
		slog.Int("total", event.Total),
	)
	l.emit(event)
}

func (l *Loader) reportFailure(err *DecodeError) {
	l.logger.Error("Asset failed",
		slog.String("group", err.Group),
		slog.String("asset", err.Name),
		slog.String("error", err.Err.Error()),
	)
	l.emit(ErrorEvent{
		Group: err.Group,
		Name:  err.Name,
		Err:   err,
	})
}

func (l *Loader) failGroup(name string, state *groupState, err error) {
	l.mu.Lock()
	state.status = groupFailed
	l.mu.Unlock()

	l.logger.Warn("Group failed", slog.String("group", name))
	state.promise.Fail(err)
}

func (l *Loader) completeGroup(name string, state *groupState) {
	l.mu.Lock()
	state.status = groupComplete
	l.mu.Unlock()

	l.logger.Info("Group loaded", slog.String("group", name))
	l.emit(GroupEndEvent{
		Group: name,
	})
	state.promise.Deliver(name)
}

func (l *Loader) emit(event Event) {
	l.mu.RLock()
	subs := slices.Clone(l.handlers[event.Kind()])
	l.mu.RUnlock()

	for _, sub := range subs {
		sub.handler(event)
	}
}

// Item returns the decoded asset with the given name. Items of a group are
// complete only once the group has ended.
func (l *Loader) Item(name string) (*Resource, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	resource, ok := l.items[name]
	return resource, ok
}

// Items returns a snapshot of every decoded asset.
func (l *Loader) Items() map[string]*Resource {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return maps.Clone(l.items)
}

// Progress returns how many assets have been decoded out of how many were
// submitted.
func (l *Loader) Progress() (loaded, total int) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loaded, l.total
}

// Group returns the completion promise of the latest load of a group. It is
// delivered with the group name or failed with the group's first decode
// error.
func (l *Loader) Group(name string) (async.Promise[string], bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	state, ok := l.groups[name]
	if !ok {
		var missing async.Promise[string]
		return missing, false
	}
	return state.promise, true
}

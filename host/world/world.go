// Package world sequences the construction of room objects after their
// asset groups have loaded.
package world

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/mokiat/gog/opt"
	"github.com/mokiat/lacking/util/async"

	"github.com/nobonobo/folio-room/host/asset"
	"github.com/nobonobo/folio-room/host/material"
	"github.com/nobonobo/folio-room/host/room"
)

const DefaultBaseGroup = "base"

var ErrDuplicateObject = errors.New("object declared twice")

type State int

const (
	StateAwaitingBase State = iota
	StateReady
)

func (s State) String() string {
	switch s {
	case StateAwaitingBase:
		return "awaiting-base"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type Info struct {
	BaseGroup opt.T[string]
	Logger    opt.T[*slog.Logger]
}

// EventSource is the part of the loader the world listens to.
type EventSource interface {
	Subscribe(kind asset.EventKind, handler asset.EventHandler) func()
}

// Failure describes an object or asset that is missing from the scene.
type Failure struct {
	Group  string
	Object string
	Asset  string
	Err    error
}

func (f Failure) Error() string {
	if f.Object != "" {
		return fmt.Sprintf("object %q (group %q): %v", f.Object, f.Group, f.Err)
	}
	return fmt.Sprintf("asset %q (group %q): %v", f.Asset, f.Group, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

type Report struct {
	Objects  []*room.Object
	Failures []Failure
}

// World waits for the base group and then builds the declared objects in
// declaration order. It is driven entirely by loader events and therefore
// runs on the loader's worker.
type World struct {
	env       *room.Env
	baseGroup string
	logger    *slog.Logger

	state    State
	declared map[string][]room.Variant
	ids      map[string]bool
	built    map[string]bool
	deferred []string

	objects  []*room.Object
	failures []Failure

	ready        async.Promise[*Report]
	readySettled bool
	unsubscribe  []func()
}

func New(env *room.Env, info Info) *World {
	baseGroup := DefaultBaseGroup
	if info.BaseGroup.Specified {
		baseGroup = info.BaseGroup.Value
	}
	logger := slog.Default()
	if info.Logger.Specified && info.Logger.Value != nil {
		logger = info.Logger.Value
	}
	return &World{
		env:       env,
		baseGroup: baseGroup,
		logger:    logger,

		state:    StateAwaitingBase,
		declared: make(map[string][]room.Variant),
		ids:      make(map[string]bool),
		built:    make(map[string]bool),

		ready: async.NewPromise[*Report](),
	}
}

// Declare appends variants to the construction order of group. Objects of
// the base group are built first, starting with the one that publishes the
// shared material.
func (w *World) Declare(group string, variants ...room.Variant) error {
	for _, variant := range variants {
		if w.ids[variant.ID()] {
			return fmt.Errorf("cannot declare %q in group %q: %w", variant.ID(), group, ErrDuplicateObject)
		}
	}
	for _, variant := range variants {
		w.ids[variant.ID()] = true
	}
	w.declared[group] = append(w.declared[group], variants...)
	return nil
}

// Bind starts listening to the loader. Unbind stops it.
func (w *World) Bind(source EventSource) {
	w.unsubscribe = append(w.unsubscribe,
		source.Subscribe(asset.EventGroupEnd, w.OnEvent),
		source.Subscribe(asset.EventError, w.OnEvent),
	)
}

func (w *World) Unbind() {
	for _, unsubscribe := range w.unsubscribe {
		unsubscribe()
	}
	w.unsubscribe = nil
}

func (w *World) OnEvent(event asset.Event) {
	switch event := event.(type) {
	case asset.GroupEndEvent:
		w.onGroupEnd(event.Group)
	case asset.ErrorEvent:
		w.onError(event)
	}
}

func (w *World) onGroupEnd(group string) {
	if w.built[group] {
		w.logger.Warn("Group already built", slog.String("group", group))
		return
	}
	if _, ok := w.declared[group]; !ok && group != w.baseGroup {
		w.logger.Debug("Group ignored", slog.String("group", group))
		return
	}

	switch w.state {
	case StateAwaitingBase:
		if group != w.baseGroup {
			w.deferred = append(w.deferred, group)
			return
		}
		w.construct(group)
		w.state = StateReady
		w.logger.Info("World ready", slog.Int("objects", len(w.objects)))
		for _, deferred := range w.deferred {
			w.construct(deferred)
		}
		w.deferred = nil
		w.settleReady(nil)

	case StateReady:
		w.construct(group)
	}
}

func (w *World) construct(group string) {
	w.built[group] = true
	for _, variant := range w.declared[group] {
		object, err := room.Build(w.env, variant)
		if err != nil {
			w.recordFailure(Failure{
				Group:  group,
				Object: variant.ID(),
				Asset:  variant.AssetName(),
				Err:    err,
			})
			if errors.Is(err, material.ErrNotReady) {
				w.logger.Error("Construction order broken, abandoning group",
					slog.String("group", group),
					slog.String("object", variant.ID()),
				)
				return
			}
			continue
		}
		w.objects = append(w.objects, object)
		w.logger.Debug("Object attached",
			slog.String("group", group),
			slog.String("object", object.ID()),
		)
	}
}

func (w *World) onError(event asset.ErrorEvent) {
	failure := Failure{
		Group: event.Group,
		Asset: event.Name,
		Err:   event.Err,
	}
	w.recordFailure(failure)
	if event.Group == w.baseGroup && w.state == StateAwaitingBase {
		w.settleReady(failure)
	}
}

func (w *World) recordFailure(failure Failure) {
	w.failures = append(w.failures, failure)
	w.logger.Error("Object unavailable",
		slog.String("group", failure.Group),
		slog.String("object", failure.Object),
		slog.String("asset", failure.Asset),
		slog.String("error", failure.Err.Error()),
	)
}

func (w *World) settleReady(err error) {
	if w.readySettled {
		return
	}
	w.readySettled = true
	if err != nil {
		w.ready.Fail(err)
		return
	}
	w.ready.Deliver(w.Report())
}

func (w *World) State() State {
	return w.state
}

// Ready is delivered when the base group has been built and failed when
// an asset of the base group cannot be decoded.
func (w *World) Ready() async.Promise[*Report] {
	return w.ready
}

func (w *World) Objects() []*room.Object {
	return slices.Clone(w.objects)
}

func (w *World) Failures() []Failure {
	return slices.Clone(w.failures)
}

func (w *World) Report() *Report {
	return &Report{
		Objects:  w.Objects(),
		Failures: w.Failures(),
	}
}

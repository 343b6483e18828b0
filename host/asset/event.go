package asset

import "fmt"

type EventKind string

const (
	EventProgress EventKind = "progress"
	EventGroupEnd EventKind = "groupEnd"
	EventError    EventKind = "error"
)

type Event interface {
	Kind() EventKind
}

type EventHandler func(event Event)

// ProgressEvent is emitted for every decoded asset, in completion order.
// Loaded and Total are running counts over every distinct asset submitted
// to the loader. Retrying a failed group does not count its assets twice.
type ProgressEvent struct {
	Group  string
	Name   string
	Loaded int
	Total  int
}

func (ProgressEvent) Kind() EventKind {
	return EventProgress
}

// GroupEndEvent is emitted once per group, after every asset of the group
// has been decoded and stored.
type GroupEndEvent struct {
	Group string
}

func (GroupEndEvent) Kind() EventKind {
	return EventGroupEnd
}

// ErrorEvent is emitted for every asset that failed to decode. The group
// of the asset does not complete.
type ErrorEvent struct {
	Group string
	Name  string
	Err   *DecodeError
}

func (ErrorEvent) Kind() EventKind {
	return EventError
}

type DecodeError struct {
	Group  string
	Name   string
	Source string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode asset %q (group %q, source %q): %v", e.Name, e.Group, e.Source, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

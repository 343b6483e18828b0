// Package material holds the baked material shared by every scene object.
package material

import (
	"errors"
	"sync"

	"github.com/nobonobo/folio-room/host/graph"
)

var (
	ErrNotReady         = errors.New("shared material not published")
	ErrAlreadyPublished = errors.New("shared material already published")
	ErrNilMaterial      = errors.New("shared material is nil")
)

// Pool hands out a single material handle. The handle is written once by
// the base object and read by all others.
type Pool struct {
	mu     sync.RWMutex
	handle *graph.Material
}

func NewPool() *Pool {
	return &Pool{}
}

func (p *Pool) Publish(handle *graph.Material) error {
	if handle == nil {
		return ErrNilMaterial
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.handle != nil {
		return ErrAlreadyPublished
	}
	p.handle = handle
	return nil
}

func (p *Pool) Get() (*graph.Material, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.handle == nil {
		return nil, ErrNotReady
	}
	return p.handle, nil
}

func (p *Pool) Published() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.handle != nil
}

// Package controller holds the per-page dashboard controllers. Each
// controller owns its state explicitly; handlers drive it and render the
// snapshots it returns.
package controller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/andresuchdata/storeadmin/internal/domain"
)

var (
	// ErrNotConfirmed is returned when a delete is attempted without an
	// explicit confirmation. No request is sent.
	ErrNotConfirmed = errors.New("delete not confirmed")

	// ErrStaleResponse is returned when a load finished after a newer load
	// was started. Its result has been discarded.
	ErrStaleResponse = errors.New("stale response discarded")
)

// ProductLister reads the reference lists.
type ProductLister interface {
	ListUOMs(ctx context.Context) ([]domain.UOM, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

// Catalog is the product management backend.
type Catalog interface {
	ProductLister
	AddProduct(ctx context.Context, input domain.ProductInput) (int64, error)
	UpdateProduct(ctx context.Context, input domain.ProductInput) error
	DeleteProduct(ctx context.Context, id int64) error
}

type OrderSource interface {
	ListOrders(ctx context.Context, recent bool) ([]domain.OrderSummary, error)
	GetOrderDetails(ctx context.Context, id int64) ([]domain.OrderDetailLine, error)
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
	SaveOrder(ctx context.Context, payload domain.OrderPayload) (int64, error)
	DeleteOrder(ctx context.Context, id int64) error
}

type Simulator interface {
	RevenueSimulation(ctx context.Context, req domain.SimulationRequest) (*domain.SimulationResult, error)
}

// LoadState is the list lifecycle of a page visit.
type LoadState int

const (
	StateIdle LoadState = iota
	StateLoading
	StateLoaded
	StateError
)

func (s LoadState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateError:
		return "error"
	}
	return "idle"
}

// Generation tags list loads so a response that resolves after a newer
// request was issued can be recognised and dropped.
type Generation struct {
	n atomic.Uint64
}

// Next starts a new generation and returns its tag.
func (g *Generation) Next() uint64 {
	return g.n.Add(1)
}

// Current reports whether tag is still the latest generation.
func (g *Generation) Current(tag uint64) bool {
	return g.n.Load() == tag
}

type EventKind int

const (
	EventLoading EventKind = iota
	EventLoaded
	EventFailed
	EventMutated
)

func (k EventKind) String() string {
	switch k {
	case EventLoading:
		return "loading"
	case EventLoaded:
		return "loaded"
	case EventFailed:
		return "failed"
	}
	return "mutated"
}

// Event is published to subscribers after a controller state change.
type Event struct {
	Page string
	Kind EventKind
	Err  error
}

// subscribers is a detachable listener set owned by a controller.
type subscribers struct {
	mu     sync.Mutex
	next   int
	fns    map[int]func(Event)
	closed bool
}

// Subscribe registers fn and returns the function that detaches it.
func (s *subscribers) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return func() {}
	}
	if s.fns == nil {
		s.fns = make(map[int]func(Event))
	}
	id := s.next
	s.next++
	s.fns[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.fns, id)
	}
}

func (s *subscribers) emit(ev Event) {
	s.mu.Lock()
	fns := make([]func(Event), 0, len(s.fns))
	for _, fn := range s.fns {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Close detaches every subscriber; later subscriptions are ignored.
func (s *subscribers) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fns = nil
	s.closed = true
}

func (s *subscribers) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.fns)
}

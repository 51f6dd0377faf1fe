package refresh

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/InSync/internal/metrics"
)

// ErrClosed is returned by Wait once the controller has been closed.
var ErrClosed = errors.New("refresh controller closed")

// Phase is the lifecycle position of a controller.
type Phase int

const (
	Idle Phase = iota
	Fetching
	Settled
)

func (p Phase) String() string {
	switch p {
	case Fetching:
		return "fetching"
	case Settled:
		return "settled"
	default:
		return "idle"
	}
}

// State is a snapshot of a controller. Value is the last successfully
// fetched value and ValueKey the key it was fetched for; an error leaves both
// untouched.
type State[K comparable, T any] struct {
	Phase    Phase
	Key      K
	Value    T
	ValueKey K
	HasValue bool
	Err      error
}

// FetchFunc loads the value for key.
type FetchFunc[K comparable, T any] func(ctx context.Context, key K) (T, error)

// Controller refreshes a value whenever its screen gains focus. Only the
// result of the most recent focus is ever applied.
type Controller[K comparable, T any] struct {
	name    string
	fetch   FetchFunc[K, T]
	metrics *metrics.Metrics
	logger  *logrus.Logger

	mu      sync.Mutex
	seq     uint64
	state   State[K, T]
	done    chan struct{}
	closed  bool
	pending []func(T) T // updates made while the current flight was out
}

// New creates an idle controller. name identifies the screen in logs and metrics.
func New[K comparable, T any](name string, fetch FetchFunc[K, T], m *metrics.Metrics, logger *logrus.Logger) *Controller[K, T] {
	return &Controller[K, T]{
		name:    name,
		fetch:   fetch,
		metrics: m,
		logger:  logger,
	}
}

// Focus starts a fetch for key and returns a channel closed when that fetch
// settles or is superseded. Focusing the key already being fetched joins
// the in-flight request.
func (c *Controller[K, T]) Focus(key K) <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return closedChan()
	}
	if c.state.Phase == Fetching && c.state.Key == key {
		return c.done
	}
	if c.state.Phase == Fetching {
		// Superseded: release waiters so they follow the new flight.
		close(c.done)
	}

	c.seq++
	seq := c.seq
	c.pending = nil
	c.done = make(chan struct{})
	c.state.Phase = Fetching
	c.state.Key = key
	c.state.Err = nil

	go c.run(seq, key)

	return c.done
}

func (c *Controller[K, T]) run(seq uint64, key K) {
	// Discarding a result never aborts the transport; the fetcher's own
	// timeout bounds it.
	value, err := c.fetch(context.Background(), key)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || seq != c.seq {
		c.metrics.RefreshDiscarded(c.name)
		c.logger.WithFields(logrus.Fields{
			"screen": c.name,
			"key":    key,
			"closed": c.closed,
		}).Debug("Discarding stale refresh result")
		return
	}

	c.state.Phase = Settled
	c.state.Err = err
	if err == nil {
		// The response may predate a confirmed mutation.
		for _, fn := range c.pending {
			value = fn(value)
		}
		c.state.Value = value
		c.state.ValueKey = key
		c.state.HasValue = true
	}
	c.pending = nil
	close(c.done)
}

// Wait focuses key and blocks until a fetch settles. If a different key
// supersedes the request, Wait follows the newer request.
func (c *Controller[K, T]) Wait(ctx context.Context, key K) (State[K, T], error) {
	ch := c.Focus(key)
	for {
		select {
		case <-ctx.Done():
			return c.State(), ctx.Err()
		case <-ch:
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return State[K, T]{}, ErrClosed
		}
		if c.state.Phase == Settled {
			st := c.state
			c.mu.Unlock()
			return st, nil
		}
		ch = c.done
		c.mu.Unlock()
	}
}

// State returns the current snapshot.
func (c *Controller[K, T]) State() State[K, T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Update applies fn to the rendered value. While a fetch is in flight fn is
// also applied to its result when it settles, so fn must be idempotent.
// It reports false, without calling fn now, when nothing has been fetched yet.
func (c *Controller[K, T]) Update(fn func(T) T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	if c.state.Phase == Fetching {
		c.pending = append(c.pending, fn)
	}
	if !c.state.HasValue {
		return false
	}
	c.state.Value = fn(c.state.Value)
	return true
}

// Close tears the controller down. Any in-flight result is discarded.
func (c *Controller[K, T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.state.Phase == Fetching {
		close(c.done)
	}
	c.state = State[K, T]{}
	c.pending = nil
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

package refresh

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/InSync/pkg/logger"
)

// gatedFetch blocks each call until the test releases that key.
type gatedFetch struct {
	mu      sync.Mutex
	gates   map[string]chan error
	calls   atomic.Int32
	started chan string
}

func newGatedFetch() *gatedFetch {
	return &gatedFetch{gates: make(map[string]chan error), started: make(chan string, 16)}
}

func (g *gatedFetch) gate(key string) chan error {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[key]
	if !ok {
		ch = make(chan error, 1)
		g.gates[key] = ch
	}
	return ch
}

func (g *gatedFetch) fetch(_ context.Context, key string) (string, error) {
	g.calls.Add(1)
	g.started <- key
	if err := <-g.gate(key); err != nil {
		return "", err
	}
	return "value-for-" + key, nil
}

func (g *gatedFetch) release(key string, err error) {
	g.gate(key) <- err
}

func waitDone(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for refresh")
	}
}

func TestController_SettlesWithValue(t *testing.T) {
	g := newGatedFetch()
	c := New("events", g.fetch, nil, logger.NewNop())

	assert.Equal(t, Idle, c.State().Phase)

	done := c.Focus("42")
	<-g.started
	assert.Equal(t, Fetching, c.State().Phase)

	g.release("42", nil)
	waitDone(t, done)

	st := c.State()
	assert.Equal(t, Settled, st.Phase)
	assert.Equal(t, "value-for-42", st.Value)
	assert.Equal(t, "42", st.ValueKey)
	assert.NoError(t, st.Err)
}

func TestController_SameKeyJoinsInFlight(t *testing.T) {
	g := newGatedFetch()
	c := New("events", g.fetch, nil, logger.NewNop())

	first := c.Focus("42")
	<-g.started
	second := c.Focus("42")

	g.release("42", nil)
	waitDone(t, first)
	waitDone(t, second)

	assert.Equal(t, int32(1), g.calls.Load())
}

func TestController_StaleResultDiscarded(t *testing.T) {
	for _, order := range [][]string{{"A", "B"}, {"B", "A"}} {
		t.Run(order[0]+" first", func(t *testing.T) {
			g := newGatedFetch()
			c := New("gallery", g.fetch, nil, logger.NewNop())

			c.Focus("A")
			<-g.started
			latest := c.Focus("B")
			<-g.started

			for _, key := range order {
				g.release(key, nil)
			}
			waitDone(t, latest)

			// Give a late A result a chance to land.
			time.Sleep(20 * time.Millisecond)

			st := c.State()
			assert.Equal(t, "B", st.Key)
			assert.Equal(t, "value-for-B", st.Value)
			assert.Equal(t, "B", st.ValueKey)
		})
	}
}

func TestController_ErrorKeepsPreviousValue(t *testing.T) {
	g := newGatedFetch()
	c := New("home", g.fetch, nil, logger.NewNop())

	done := c.Focus("42")
	<-g.started
	g.release("42", nil)
	waitDone(t, done)

	done = c.Focus("42")
	<-g.started
	g.release("42", errors.New("offline"))
	waitDone(t, done)

	st := c.State()
	assert.Equal(t, Settled, st.Phase)
	assert.EqualError(t, st.Err, "offline")
	assert.Equal(t, "value-for-42", st.Value)
	assert.True(t, st.HasValue)
}

func TestController_CloseDiscardsInFlight(t *testing.T) {
	g := newGatedFetch()
	c := New("family", g.fetch, nil, logger.NewNop())

	done := c.Focus("42")
	<-g.started
	c.Close()
	waitDone(t, done)

	g.release("42", nil)
	time.Sleep(20 * time.Millisecond)

	st := c.State()
	assert.False(t, st.HasValue)
	assert.Equal(t, Idle, st.Phase)

	_, err := c.Wait(context.Background(), "42")
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, int32(1), g.calls.Load())
}

func TestController_WaitFollowsSupersedingKey(t *testing.T) {
	g := newGatedFetch()
	c := New("events", g.fetch, nil, logger.NewNop())

	result := make(chan State[string, string], 1)
	go func() {
		st, err := c.Wait(context.Background(), "A")
		assert.NoError(t, err)
		result <- st
	}()
	<-g.started

	c.Focus("B")
	<-g.started
	g.release("A", nil)
	g.release("B", nil)

	select {
	case st := <-result:
		assert.Equal(t, "B", st.Key)
		assert.Equal(t, "value-for-B", st.Value)
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return")
	}
}

func TestController_WaitHonoursContext(t *testing.T) {
	g := newGatedFetch()
	c := New("events", g.fetch, nil, logger.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Wait(ctx, "42")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	g.release("42", nil)
}

func TestController_Update(t *testing.T) {
	g := newGatedFetch()
	c := New("events", g.fetch, nil, logger.NewNop())

	assert.False(t, c.Update(func(s string) string { return s + "!" }))

	g.release("42", nil)
	_, err := c.Wait(context.Background(), "42")
	require.NoError(t, err)

	assert.True(t, c.Update(func(s string) string { return s + "!" }))
	assert.Equal(t, "value-for-42!", c.State().Value)
}

func TestController_UpdateSurvivesInFlightRefresh(t *testing.T) {
	g := newGatedFetch()
	c := New("events", g.fetch, nil, logger.NewNop())
	mark := func(s string) string {
		if len(s) > 0 && s[len(s)-1] == '!' {
			return s
		}
		return s + "!"
	}

	g.release("42", nil)
	_, err := c.Wait(context.Background(), "42")
	require.NoError(t, err)
	<-g.started

	// A refresh is already out when the mutation is confirmed.
	done := c.Focus("42")
	<-g.started
	assert.True(t, c.Update(mark))
	assert.Equal(t, "value-for-42!", c.State().Value)

	g.release("42", nil)
	waitDone(t, done)

	assert.Equal(t, "value-for-42!", c.State().Value)

	// Later refreshes start after the mutation and are applied as fetched.
	g.release("42", nil)
	_, err = c.Wait(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "value-for-42", c.State().Value)
}

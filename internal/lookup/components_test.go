package lookup

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinical-lookup/internal/metrics"
	"clinical-lookup/internal/records"
)

func TestSequencer(t *testing.T) {
	var s Sequencer
	a := s.Next(ClassSearch)
	b := s.Next(ClassSearch)
	h := s.Next(ClassHistory)

	assert.Less(t, a.Seq, b.Seq)
	assert.False(t, s.Current(a))
	assert.True(t, s.Current(b))
	assert.True(t, s.Current(h), "classes are sequenced independently")

	s.Invalidate(ClassSearch, ClassHistory)
	assert.False(t, s.Current(b))
	assert.False(t, s.Current(h))
	assert.Greater(t, s.Next(ClassSearch).Seq, b.Seq)
}

func TestDebouncer(t *testing.T) {
	rt := &manualRuntime{}
	sched := &manualScheduler{}
	d := NewDebouncer(time.Second, sched, rt)

	var fired []string
	d.Arm(func() { fired = append(fired, "a") })
	d.Arm(func() { fired = append(fired, "b") })
	assert.True(t, d.Pending())
	assert.Equal(t, 1, sched.armed())

	sched.fire()
	assert.Empty(t, fired, "fires run on the session goroutine")
	rt.drainPosted()
	assert.Equal(t, []string{"b"}, fired)
	assert.False(t, d.Pending())
}

func TestDebouncer_CancelAfterTimerFired(t *testing.T) {
	rt := &manualRuntime{}
	sched := &manualScheduler{}
	d := NewDebouncer(time.Second, sched, rt)

	called := false
	d.Arm(func() { called = true })
	sched.fire()
	d.Cancel()
	rt.drainPosted()
	assert.False(t, called)
}

func TestCache(t *testing.T) {
	m := metrics.NewCollector("test", prometheus.NewRegistry())
	c := NewCache(m)

	_, ok := c.Order(101)
	assert.False(t, ok)

	o := &records.OrderDetail{ID: 101}
	c.Put(KindOrder, 101, o)
	c.Put(KindResult, 101, &records.ResultDetail{ID: 101})

	got, ok := c.Order(101)
	require.True(t, ok)
	assert.Same(t, o, got)
	r, ok := c.Result(101)
	require.True(t, ok)
	assert.Equal(t, uint(101), r.ID)
	_, ok = c.History(101)
	assert.False(t, ok, "kinds do not collide")
	assert.Equal(t, 2, c.Len())

	c.Clear()
	assert.Zero(t, c.Len())
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CacheLookups.WithLabelValues("order", "miss")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CacheLookups.WithLabelValues("order", "hit")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CacheLookups.WithLabelValues("history", "miss")))
}

func TestNavigator(t *testing.T) {
	var n Navigator
	assert.Equal(t, StateSearch, n.Back())
	assert.Equal(t, Frame{Kind: FrameSearch}, n.Current())

	assert.ErrorIs(t, n.PushOrder(1), ErrInvalidTransition)
	require.NoError(t, n.BeginHistory(7))
	assert.ErrorIs(t, n.HistoryLoaded(8), ErrInvalidTransition)
	require.NoError(t, n.HistoryLoaded(7))
	assert.Equal(t, TabOrders, n.Tab())

	require.NoError(t, n.SelectTab(TabResults))
	require.NoError(t, n.PushResult(501))
	assert.Equal(t, []Frame{{Kind: FrameSearch}, {Kind: FrameHistory, ID: 7}, {Kind: FrameResult, ID: 501}}, n.Frames())
	assert.ErrorIs(t, n.PushOrder(101), ErrInvalidTransition, "one detail at a time")

	assert.Equal(t, StateHistoryLoaded, n.Back())
	assert.Equal(t, TabResults, n.Tab())
	assert.Equal(t, StateSearch, n.Back())
	assert.Zero(t, n.PatientID())
	assert.Len(t, n.Frames(), 1)

	require.NoError(t, n.BeginHistory(9))
	require.NoError(t, n.HistoryFailed())
	assert.Equal(t, StateSearch, n.State())
}

func TestParseTab(t *testing.T) {
	tab, err := ParseTab("results")
	require.NoError(t, err)
	assert.Equal(t, TabResults, tab)
	_, err = ParseTab("invoices")
	assert.Error(t, err)
}

func TestEventLoop(t *testing.T) {
	loop := NewEventLoop(4)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	var order []int
	loop.Post(func() { order = append(order, 1) })
	loop.Go(func() {
		loop.Post(func() { order = append(order, 2) })
	})
	require.Eventually(t, func() bool {
		var n int
		if err := loop.Do(ctx, func() { n = len(order) }); err != nil {
			return false
		}
		return n == 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.ErrorIs(t, loop.Do(context.Background(), func() {}), ErrLoopStopped)
	loop.Post(func() {})
}

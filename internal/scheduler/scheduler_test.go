package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonathan/internx-match/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockAggregator implements Aggregator for testing
type MockAggregator struct {
	AggregateFunc func(ctx context.Context, day time.Time) ([]types.MetricSnapshot, error)

	mu   sync.Mutex
	days []time.Time
}

func (m *MockAggregator) Aggregate(ctx context.Context, day time.Time) ([]types.MetricSnapshot, error) {
	m.mu.Lock()
	m.days = append(m.days, day)
	m.mu.Unlock()
	if m.AggregateFunc != nil {
		return m.AggregateFunc(ctx, day)
	}
	return nil, nil
}

func (m *MockAggregator) calls() []time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Time(nil), m.days...)
}

type fakeTicker struct {
	ch      chan time.Time
	stopped chan struct{}
	once    sync.Once
}

func newFakeTicker() *fakeTicker {
	return &fakeTicker{ch: make(chan time.Time, 1), stopped: make(chan struct{})}
}

func (f *fakeTicker) C() <-chan time.Time { return f.ch }
func (f *fakeTicker) Stop()               { f.once.Do(func() { close(f.stopped) }) }

var now = time.Date(2025, 6, 10, 1, 0, 0, 0, time.UTC)

func TestRunOnce_AggregatesYesterdayAndToday(t *testing.T) {
	agg := &MockAggregator{}
	s := New(agg, time.Hour, nil)
	s.now = func() time.Time { return now }

	require.NoError(t, s.RunOnce(context.Background()))

	days := agg.calls()
	require.Len(t, days, 2)
	assert.Equal(t, now.AddDate(0, 0, -1), days[0])
	assert.Equal(t, now, days[1])
}

func TestRunOnce_StopsOnError(t *testing.T) {
	agg := &MockAggregator{AggregateFunc: func(context.Context, time.Time) ([]types.MetricSnapshot, error) {
		return nil, errors.New("store down")
	}}
	s := New(agg, time.Hour, nil)
	s.now = func() time.Time { return now }

	err := s.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2025-06-09")
	assert.Len(t, agg.calls(), 1)
}

func TestRunOnce_SkipsOverlappingRun(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 2)
	agg := &MockAggregator{AggregateFunc: func(context.Context, time.Time) ([]types.MetricSnapshot, error) {
		entered <- struct{}{}
		<-release
		return nil, nil
	}}
	s := New(agg, time.Hour, nil)

	done := make(chan error, 1)
	go func() { done <- s.RunOnce(context.Background()) }()
	<-entered

	assert.NoError(t, s.RunOnce(context.Background()))
	close(release)
	require.NoError(t, <-done)
	assert.Len(t, agg.calls(), 2)
}

func TestStart_RunsOnTickAndStopsOnCancel(t *testing.T) {
	agg := &MockAggregator{}
	tick := newFakeTicker()
	s := New(agg, time.Minute, nil)
	s.newTicker = func(time.Duration) ticker { return tick }
	s.now = func() time.Time { return now }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	assert.Eventually(t, func() bool { return len(agg.calls()) == 2 }, time.Second, 5*time.Millisecond)
	tick.ch <- now
	assert.Eventually(t, func() bool { return len(agg.calls()) == 4 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
	<-tick.stopped
}

func TestStart_ContinuesAfterFailure(t *testing.T) {
	var mu sync.Mutex
	fail := true
	agg := &MockAggregator{AggregateFunc: func(context.Context, time.Time) ([]types.MetricSnapshot, error) {
		mu.Lock()
		defer mu.Unlock()
		if fail {
			fail = false
			return nil, errors.New("transient")
		}
		return nil, nil
	}}
	tick := newFakeTicker()
	s := New(agg, time.Minute, nil)
	s.newTicker = func(time.Duration) ticker { return tick }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Start(ctx) }()

	assert.Eventually(t, func() bool { return len(agg.calls()) == 1 }, time.Second, 5*time.Millisecond)
	tick.ch <- now
	assert.Eventually(t, func() bool { return len(agg.calls()) == 3 }, time.Second, 5*time.Millisecond)
}

func TestStart_RequiresAggregator(t *testing.T) {
	s := New(nil, 0, nil)
	assert.Equal(t, time.Hour, s.interval)
	assert.Error(t, s.Start(context.Background()))
}

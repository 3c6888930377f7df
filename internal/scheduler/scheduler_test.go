package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/example/engcoach/internal/logger"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeService struct {
	mu        sync.Mutex
	learners  []string
	listErr   error
	failFor   map[string]bool
	awards    map[string][]string
	window    time.Duration
	processed []string
}

func (f *fakeService) ActiveLearners(_ context.Context, window time.Duration) ([]string, error) {
	f.window = window
	return f.learners, f.listErr
}

func (f *fakeService) Checkpoint(_ context.Context, learnerID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processed = append(f.processed, learnerID)
	if f.failFor[learnerID] {
		return nil, errors.New("database is locked")
	}
	return f.awards[learnerID], nil
}

func TestRunOnce(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	log := &logger.Logger{SugaredLogger: zap.New(core).Sugar()}

	svc := &fakeService{
		learners: []string{"a", "b", "c"},
		failFor:  map[string]bool{"b": true},
		awards:   map[string][]string{"a": {"vocab_10", "study_1h"}},
	}
	s := New(svc, Config{LookbackDays: 3}, log)

	report, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Report{Learners: 3, Awarded: 2, Failed: 1}, report)
	assert.Equal(t, []string{"a", "b", "c"}, svc.processed)
	assert.Equal(t, 72*time.Hour, svc.window)

	entries := logs.FilterMessage("badge checkpoint failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "b", entries[0].ContextMap()["learner"])
}

func TestRunOnceListError(t *testing.T) {
	svc := &fakeService{listErr: errors.New("boom")}
	_, err := New(svc, Config{}, nil).RunOnce(context.Background())
	assert.Error(t, err)
	assert.Empty(t, svc.processed)
}

func TestRunOnceCancelled(t *testing.T) {
	svc := &fakeService{learners: []string{"a", "b"}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(svc, Config{}, nil).RunOnce(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, svc.processed)
}

func TestNewDefaults(t *testing.T) {
	s := New(&fakeService{}, Config{Hour: 30}, nil)
	assert.Equal(t, DefaultHour, s.hour)
	assert.Equal(t, DefaultLookbackDays*24*time.Hour, s.lookback)
}

func TestStartStop(t *testing.T) {
	s := New(&fakeService{}, Config{Hour: 4}, nil)
	require.NoError(t, s.Start(context.Background()))
	assert.Len(t, s.scheduler.Jobs(), 1)
	assert.True(t, s.scheduler.IsRunning())
	s.Stop()
	assert.False(t, s.scheduler.IsRunning())
}

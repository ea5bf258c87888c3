package worker_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"taskHierarchy/internal/service"
	"taskHierarchy/internal/worker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockValidator struct {
	mock.Mock
	calls atomic.Int32
}

func (m *MockValidator) ValidateHierarchy(ctx context.Context) error {
	m.calls.Add(1)
	args := m.Called(ctx)
	return args.Error(0)
}

func TestNewHierarchyWorker_DefaultInterval(t *testing.T) {
	w := worker.NewHierarchyWorker(new(MockValidator), nil)
	assert.Equal(t, 5*time.Minute, w.Interval())

	zero := time.Duration(0)
	w = worker.NewHierarchyWorker(new(MockValidator), &zero)
	assert.Equal(t, 5*time.Minute, w.Interval())

	custom := time.Second
	w = worker.NewHierarchyWorker(new(MockValidator), &custom)
	assert.Equal(t, time.Second, w.Interval())
}

func TestHierarchyWorker_Check(t *testing.T) {
	violation := service.NewHierarchyViolation([]int64{3})
	storageErr := errors.New("storage down")

	tests := []struct {
		name     string
		returned error
	}{
		{name: "consistent", returned: nil},
		{name: "violation", returned: violation},
		{name: "failure", returned: storageErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(MockValidator)
			m.On("ValidateHierarchy", mock.Anything).Return(tt.returned)

			err := worker.NewHierarchyWorker(m, nil).Check(context.Background())
			assert.Equal(t, tt.returned, err)
			m.AssertExpectations(t)
		})
	}
}

func TestHierarchyWorker_StartStopsOnCancel(t *testing.T) {
	m := new(MockValidator)
	m.On("ValidateHierarchy", mock.Anything).Return(nil)

	interval := 10 * time.Millisecond
	w := worker.NewHierarchyWorker(m, &interval)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return m.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}

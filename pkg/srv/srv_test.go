package srv

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	order []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = append(r.order, s)
}

type fakeService struct {
	name    string
	rec     *recorder
	started chan struct{}
}

func (f *fakeService) Start(ctx context.Context) error {
	close(f.started)
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeService) Shutdown(ctx context.Context) error {
	f.rec.add(f.name)
	return nil
}

func TestServices_ShutdownInReverseOrder(t *testing.T) {
	rec := &recorder{}
	a := &fakeService{name: "a", rec: rec, started: make(chan struct{})}
	b := &fakeService{name: "b", rec: rec, started: make(chan struct{})}
	services := []Service{a, b, NewCleanup(func() error {
		rec.add("cleanup")
		return nil
	})}

	ctx, cancel := context.WithCancel(context.Background())
	StartServices(ctx, services)

	<-a.started
	<-b.started
	cancel()
	ShutdownServices(ctx, services)

	assert.Equal(t, []string{"cleanup", "b", "a"}, rec.order)
}

type exitingService struct{}

func (exitingService) Start(ctx context.Context) error    { return errors.New("stdin closed") }
func (exitingService) Shutdown(ctx context.Context) error { return nil }

func TestStopOnExit(t *testing.T) {
	stopped := make(chan struct{})
	s := StopOnExit(exitingService{}, func() { close(stopped) })

	err := s.Start(context.Background())
	require.Error(t, err)

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("stop was not called")
	}
}

package directory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/otterscale/otterscale-gateway/internal/core"
)

// gatedDirectory blocks every call until release is closed and tracks
// the peak number of concurrent calls.
type gatedDirectory struct {
	release chan struct{}

	mu      sync.Mutex
	active  int
	peak    int
	entered chan struct{}
}

func (g *gatedDirectory) enter() {
	g.mu.Lock()
	g.active++
	if g.active > g.peak {
		g.peak = g.active
	}
	g.mu.Unlock()
	g.entered <- struct{}{}
	<-g.release
	g.mu.Lock()
	g.active--
	g.mu.Unlock()
}

func (g *gatedDirectory) Validate(context.Context, string) (bool, error) {
	g.enter()
	return true, nil
}

func (g *gatedDirectory) Register(_ context.Context, req core.RegistrationRequest) (*core.RegisteredUser, error) {
	g.enter()
	return &core.RegisteredUser{ExternalID: req.ExternalID}, nil
}

func TestLimit_ZeroReturnsNext(t *testing.T) {
	t.Parallel()

	next := &gatedDirectory{}
	if got := Limit(next, 0); got != core.UserDirectory(next) {
		t.Fatal("Limit(next, 0) wrapped the directory")
	}
}

func TestLimit_BoundsConcurrency(t *testing.T) {
	t.Parallel()

	next := &gatedDirectory{release: make(chan struct{}), entered: make(chan struct{}, 8)}
	dir := Limit(next, 2)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = dir.Validate(context.Background(), "u-1")
		}()
	}
	<-next.entered
	<-next.entered

	// A third caller cannot get a slot before its deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := dir.Register(ctx, core.RegistrationRequest{ExternalID: "u-2"})
	if kind := directoryKind(t, err); kind != core.DirectoryUnavailable {
		t.Fatalf("kind = %s, want unavailable", kind)
	}

	close(next.release)
	wg.Wait()

	if next.peak != 2 {
		t.Fatalf("peak concurrency = %d, want 2", next.peak)
	}
}

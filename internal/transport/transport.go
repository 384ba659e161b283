// Package transport coordinates the lifecycle of the gateway's
// listeners using an errgroup.
package transport

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"
)

// shutdownTimeout bounds the graceful shutdown of each listener.
const shutdownTimeout = 15 * time.Second

// Listener is a component with a managed lifecycle. Start blocks until
// the component finishes or ctx is cancelled; Stop drains it within
// the deadline of its context.
type Listener interface {
	Start(context.Context) error
	Stop(context.Context) error
}

// Serve starts every listener and blocks until ctx is cancelled or one
// of them fails, then stops all of them. Stop is only issued from a
// goroutine that waits on the group context, so no listener is stopped
// before it was started.
func Serve(ctx context.Context, lis ...Listener) error {
	eg, egCtx := errgroup.WithContext(ctx)

	for _, li := range lis {
		eg.Go(func() error {
			return li.Start(egCtx)
		})
	}

	eg.Go(func() error {
		<-egCtx.Done()
		return stopAll(lis)
	})

	return eg.Wait()
}

// stopAll stops listeners in order, each with its own timeout so a
// slow listener cannot starve the ones after it.
func stopAll(lis []Listener) error {
	var errs []error
	for _, li := range lis {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := li.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
		cancel()
	}
	return errors.Join(errs...)
}

// Package view implements the frame viewers: a single frame viewer stepping
// through the frames of a buffer, and a mosaic viewer redrawn on request.
package view

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"

	"axiloop/log"
)

// Refresh is a pending refresh request. Any number of requests made before
// the render loop takes it result in a single refresh.
type Refresh struct {
	pending atomic.Bool
}

// NewRefresh returns a Refresh, pending if initial is true.
func NewRefresh(initial bool) *Refresh {
	r := &Refresh{}
	r.pending.Store(initial)
	return r
}

// Request asks for a refresh. It is safe to call from any goroutine.
func (r *Refresh) Request() { r.pending.Store(true) }

// Take reports whether a refresh was requested, and clears the request.
func (r *Refresh) Take() bool { return r.pending.Swap(false) }

// WatchSignals requests a refresh on r each time one of sigs is received,
// until ctx is done.
func WatchSignals(ctx context.Context, r *Refresh, sigs ...os.Signal) error {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)
	defer signal.Stop(ch)

	log.ModView.InfoZ("waiting for refresh signals").Int("pid", os.Getpid()).End()
	for {
		select {
		case <-ctx.Done():
			return nil
		case sig := <-ch:
			log.ModView.DebugZ("refresh requested").Stringer("signal", sig).End()
			r.Request()
		}
	}
}

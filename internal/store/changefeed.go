package store

import (
	"context"
	"sync"
)

//go:generate mockgen -source=changefeed.go -destination=mock/changefeed_mock.go -package=mock

// ChangeFeed broadcasts "something in this scope changed" signals. The
// signal carries no payload: subscribers re-read the full current result
// set for their query, which is what makes downstream view reconciliation
// idempotent. Deletes are not part of the domain, so a signal only ever
// means insert or update.
type ChangeFeed interface {
	// Publish signals a change for the scope. When the scope is
	// employee-narrowed the company-wide channel is signalled as well.
	Publish(ctx context.Context, scope Scope) error

	// Subscribe registers a listener for the scope. The returned
	// subscription must be closed when the owning view goes away;
	// cancelling ctx closes it too.
	Subscribe(ctx context.Context, scope Scope) (*Subscription, error)
}

// Subscription is one live listener on a change feed scope. Changes carries
// a signal per underlying mutation (coalescing is allowed), Errs surfaces
// transport failures without closing Changes so the consumer can keep its
// last-known-good data and mark itself degraded.
type Subscription struct {
	Changes <-chan struct{}
	Errs    <-chan error

	closeOnce sync.Once
	stop      func()
}

func newSubscription(changes <-chan struct{}, errs <-chan error, stop func()) *Subscription {
	return &Subscription{Changes: changes, Errs: errs, stop: stop}
}

// Close releases the listener. Safe to call more than once; after Close
// returns no further signals are emitted.
func (s *Subscription) Close() {
	s.closeOnce.Do(s.stop)
}

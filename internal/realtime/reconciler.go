package realtime

import (
	"context"

	"go-timeoff/internal/store"

	"go.uber.org/zap"
)

// QueryFunc loads the complete current result set for a view's query.
type QueryFunc[T any] func(ctx context.Context) ([]T, error)

// Reconciler keeps one View in sync with the store: it subscribes to the
// scope's change feed and re-reads the full result set on every signal.
// Query failures and feed errors degrade the view instead of clearing it;
// no failure here may take down an unrelated view, so Run only returns on
// context cancellation or an unrecoverable subscribe failure.
type Reconciler[T any] struct {
	feed   store.ChangeFeed
	scope  store.Scope
	query  QueryFunc[T]
	view   *View[T]
	notify chan struct{}
	logger *zap.Logger
}

func NewReconciler[T any](
	feed store.ChangeFeed,
	scope store.Scope,
	query QueryFunc[T],
	view *View[T],
	logger ...*zap.Logger,
) *Reconciler[T] {
	l := zap.L().Named("realtime.reconciler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("realtime.reconciler")
	}
	return &Reconciler[T]{
		feed:   feed,
		scope:  scope,
		query:  query,
		view:   view,
		notify: make(chan struct{}, 1),
		logger: l.With(zap.String("scope", scope.Channel())),
	}
}

func (r *Reconciler[T]) View() *View[T] { return r.view }

// Updates signals after every applied (or degraded) refresh. Coalescing
// channel: consumers read the view, not the signal.
func (r *Reconciler[T]) Updates() <-chan struct{} { return r.notify }

// Run blocks until ctx is cancelled. The subscription is established
// before the initial load so a write landing in between still signals a
// refresh, and it is released before returning so server-side listener
// resources are never leaked.
func (r *Reconciler[T]) Run(ctx context.Context) error {
	sub, err := r.feed.Subscribe(ctx, r.scope)
	if err != nil {
		r.view.Degrade(err)
		r.logger.Error("subscribe failed", zap.Error(err))
		return err
	}
	defer sub.Close()

	r.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-sub.Changes:
			r.refresh(ctx)
		case feedErr := <-sub.Errs:
			r.view.Degrade(feedErr)
			r.logger.Warn("change feed degraded", zap.Error(feedErr))
			r.ping()
		}
	}
}

func (r *Reconciler[T]) refresh(ctx context.Context) {
	items, err := r.query(ctx)
	if err != nil {
		r.view.Degrade(err)
		r.logger.Warn("view refresh failed", zap.Error(err))
		r.ping()
		return
	}
	r.view.Apply(items)
	r.ping()
}

func (r *Reconciler[T]) ping() {
	select {
	case r.notify <- struct{}{}:
	default:
	}
}

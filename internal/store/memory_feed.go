package store

import (
	"context"
	"sync"
)

// MemoryChangeFeed is an in-process ChangeFeed for tests and single-node
// runs. Same coalescing contract as the Redis implementation.
type MemoryChangeFeed struct {
	mu   sync.Mutex
	subs map[string][]*memorySub
}

type memorySub struct {
	changes chan struct{}
	errs    chan error
}

func NewMemoryChangeFeed() *MemoryChangeFeed {
	return &MemoryChangeFeed{subs: make(map[string][]*memorySub)}
}

func (f *MemoryChangeFeed) Publish(ctx context.Context, scope Scope) error {
	f.signal(scope.Channel())
	if scope.EmployeeID != "" {
		f.signal(scope.Broaden().Channel())
	}
	return nil
}

func (f *MemoryChangeFeed) signal(channel string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sub := range f.subs[channel] {
		select {
		case sub.changes <- struct{}{}:
		default:
		}
	}
}

// Fail injects an error on every subscription of the scope. Test hook for
// exercising degraded views.
func (f *MemoryChangeFeed) Fail(scope Scope, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sub := range f.subs[scope.Channel()] {
		select {
		case sub.errs <- err:
		default:
		}
	}
}

func (f *MemoryChangeFeed) Subscribe(ctx context.Context, scope Scope) (*Subscription, error) {
	sub := &memorySub{
		changes: make(chan struct{}, 1),
		errs:    make(chan error, 1),
	}
	channel := scope.Channel()

	f.mu.Lock()
	f.subs[channel] = append(f.subs[channel], sub)
	f.mu.Unlock()

	remove := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		active := f.subs[channel][:0]
		for _, s := range f.subs[channel] {
			if s != sub {
				active = append(active, s)
			}
		}
		f.subs[channel] = active
	}

	stopped := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			remove()
		case <-stopped:
		}
	}()

	return newSubscription(sub.changes, sub.errs, func() {
		close(stopped)
		remove()
	}), nil
}

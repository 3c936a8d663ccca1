package realtime

import (
	"sort"
	"sync"
)

// View is a client-held materialized copy of one query's result set. Apply
// replaces the membership wholesale with the latest snapshot, which makes
// re-applying the same snapshot a no-op: the feed may deliver duplicates
// and the view stays correct.
type View[T any] struct {
	mu    sync.RWMutex
	items []T
	key   func(T) string
	less  func(a, b T) bool

	degraded bool
	lastErr  error
}

// NewView builds a view. key identifies an item (duplicates within one
// snapshot are dropped, first occurrence wins); less fixes the display
// order deterministically.
func NewView[T any](key func(T) string, less func(a, b T) bool) *View[T] {
	return &View[T]{key: key, less: less}
}

// Apply replaces the materialized list with the snapshot's membership and
// re-sorts. A successful apply clears any degraded flag.
func (v *View[T]) Apply(snapshot []T) {
	seen := make(map[string]struct{}, len(snapshot))
	next := make([]T, 0, len(snapshot))
	for _, item := range snapshot {
		k := v.key(item)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		next = append(next, item)
	}
	sort.SliceStable(next, func(i, j int) bool { return v.less(next[i], next[j]) })

	v.mu.Lock()
	v.items = next
	v.degraded = false
	v.lastErr = nil
	v.mu.Unlock()
}

// Degrade flags the view as stale without touching its contents. Losing
// connectivity must never blank data the user already has.
func (v *View[T]) Degrade(err error) {
	v.mu.Lock()
	v.degraded = true
	v.lastErr = err
	v.mu.Unlock()
}

// Items returns a copy of the current materialized list.
func (v *View[T]) Items() []T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]T, len(v.items))
	copy(out, v.items)
	return out
}

func (v *View[T]) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.items)
}

// Degraded reports whether the view is serving last-known-good data and,
// if so, the error that caused it.
func (v *View[T]) Degraded() (bool, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.degraded, v.lastErr
}

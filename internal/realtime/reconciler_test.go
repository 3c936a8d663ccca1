package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go-timeoff/internal/store"

	"github.com/stretchr/testify/assert"
)

type queryStub struct {
	mu   sync.Mutex
	rows []row
	err  error
}

func (q *queryStub) set(rows []row) {
	q.mu.Lock()
	q.rows = rows
	q.err = nil
	q.mu.Unlock()
}

func (q *queryStub) fail(err error) {
	q.mu.Lock()
	q.err = err
	q.mu.Unlock()
}

func (q *queryStub) query(ctx context.Context) ([]row, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return nil, q.err
	}
	out := make([]row, len(q.rows))
	copy(out, q.rows)
	return out, nil
}

func awaitUpdate(t *testing.T, rec *Reconciler[row]) {
	t.Helper()
	select {
	case <-rec.Updates():
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reconciler update")
	}
}

func TestReconciler_InitialLoadAndRefresh(t *testing.T) {
	feed := store.NewMemoryChangeFeed()
	scope := store.CompanyScope(store.CollectionPtoRequests, "company-1")

	stub := &queryStub{}
	stub.set([]row{{ID: "a", Seq: 1}})

	view := newRowView()
	rec := NewReconciler(feed, scope, stub.query, view)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go rec.Run(ctx)

	awaitUpdate(t, rec)
	assert.Equal(t, 1, view.Len())

	// A published change triggers a full re-read of the new result set.
	stub.set([]row{{ID: "a", Seq: 1}, {ID: "b", Seq: 2}})
	assert.NoError(t, feed.Publish(ctx, scope))

	awaitUpdate(t, rec)
	items := view.Items()
	assert.Len(t, items, 2)
	assert.Equal(t, "b", items[0].ID)
}

func TestReconciler_EmployeePublishReachesCompanyView(t *testing.T) {
	feed := store.NewMemoryChangeFeed()
	companyScope := store.CompanyScope(store.CollectionPtoRequests, "company-1")

	stub := &queryStub{}
	stub.set(nil)

	view := newRowView()
	rec := NewReconciler(feed, companyScope, stub.query, view)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go rec.Run(ctx)
	awaitUpdate(t, rec)

	// A write published under one employee's scope must also wake the
	// organization-wide view of the same collection.
	stub.set([]row{{ID: "a", Seq: 1}})
	narrow := store.EmployeeScope(store.CollectionPtoRequests, "company-1", "emp-9")
	assert.NoError(t, feed.Publish(ctx, narrow))

	awaitUpdate(t, rec)
	assert.Equal(t, 1, view.Len())
}

func TestReconciler_QueryFailureDegradesView(t *testing.T) {
	feed := store.NewMemoryChangeFeed()
	scope := store.CompanyScope(store.CollectionNotifications, "company-1")

	stub := &queryStub{}
	stub.set([]row{{ID: "a", Seq: 1}})

	view := newRowView()
	rec := NewReconciler(feed, scope, stub.query, view)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go rec.Run(ctx)
	awaitUpdate(t, rec)

	stub.fail(errors.New("store unavailable"))
	assert.NoError(t, feed.Publish(ctx, scope))

	awaitUpdate(t, rec)
	degraded, err := view.Degraded()
	assert.True(t, degraded)
	assert.EqualError(t, err, "store unavailable")
	assert.Equal(t, 1, view.Len(), "degraded view keeps last-known-good data")

	// Recovery: the next successful refresh clears the degraded flag.
	stub.set([]row{{ID: "a", Seq: 1}, {ID: "b", Seq: 2}})
	assert.NoError(t, feed.Publish(ctx, scope))

	awaitUpdate(t, rec)
	degraded, _ = view.Degraded()
	assert.False(t, degraded)
	assert.Equal(t, 2, view.Len())
}

func TestReconciler_FeedErrorDegradesWithoutClearing(t *testing.T) {
	feed := store.NewMemoryChangeFeed()
	scope := store.CompanyScope(store.CollectionNotifications, "company-1")

	stub := &queryStub{}
	stub.set([]row{{ID: "a", Seq: 1}})

	view := newRowView()
	rec := NewReconciler(feed, scope, stub.query, view)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go rec.Run(ctx)
	awaitUpdate(t, rec)

	feed.Fail(scope, errors.New("connection reset"))

	awaitUpdate(t, rec)
	degraded, err := view.Degraded()
	assert.True(t, degraded)
	assert.EqualError(t, err, "connection reset")
	assert.Equal(t, 1, view.Len())
}

func TestReconciler_StopsOnCancel(t *testing.T) {
	feed := store.NewMemoryChangeFeed()
	scope := store.CompanyScope(store.CollectionReports, "company-1")

	stub := &queryStub{}
	stub.set(nil)

	rec := NewReconciler(feed, scope, stub.query, newRowView())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rec.Run(ctx) }()
	awaitUpdate(t, rec)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("reconciler did not stop on cancel")
	}
}

func TestManager_ReleaseSessionCancelsAllViews(t *testing.T) {
	m := NewManager()

	var cancelled []string
	mk := func(name string) context.CancelFunc {
		return func() {
			cancelled = append(cancelled, name)
		}
	}

	m.Track("session-1", "pto:mine", mk("pto"))
	m.Track("session-1", "notifications", mk("notif"))
	m.Track("session-2", "notifications", mk("other"))

	m.ReleaseSession("session-1")

	assert.ElementsMatch(t, []string{"pto", "notif"}, cancelled)
}

func TestManager_RetrackCancelsPrevious(t *testing.T) {
	m := NewManager()

	var firstCancelled bool
	m.Track("session-1", "pto:mine", func() { firstCancelled = true })
	m.Track("session-1", "pto:mine", func() {})

	assert.True(t, firstCancelled, "a session never holds two listeners for one view")
}

func TestManager_UntrackLeavesOthersAlone(t *testing.T) {
	m := NewManager()

	var cancelled bool
	m.Track("session-1", "pto:mine", func() {})
	m.Track("session-1", "notifications", func() { cancelled = true })

	m.Untrack("session-1", "pto:mine")
	m.ReleaseSession("session-1")

	assert.True(t, cancelled)
}

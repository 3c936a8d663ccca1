package realtime

import (
	"context"
	"io"
	"net/http"

	"go-timeoff/internal/notification"
	"go-timeoff/internal/pto"
	"go-timeoff/internal/report"
	"go-timeoff/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Queries supplies the full-result-set readers backing each live view.
// Every change signal triggers a complete re-read, so the same query is
// safe to run on the initial load and on every refresh.
type Queries struct {
	WeekReports   func(ctx context.Context, companyID, employeeID string) ([]report.ReportResponse, error)
	MyPto         func(ctx context.Context, companyID, employeeID string) ([]pto.PtoResponse, error)
	AllPto        func(ctx context.Context, companyID string) ([]pto.PtoResponse, error)
	Notifications func(ctx context.Context, companyID string) ([]notification.NotificationResponse, error)
}

type Handler struct {
	feed    store.ChangeFeed
	queries Queries
	manager *Manager
	logger  *zap.Logger
}

func NewHandler(feed store.ChangeFeed, queries Queries, manager *Manager, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("realtime.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("realtime.handler")
	}
	return &Handler{feed: feed, queries: queries, manager: manager, logger: l}
}

// WeekReports streams the caller's attendance reports for the current
// week, ascending by date then time.
func (h *Handler) WeekReports(c *gin.Context) {
	companyID := c.GetString("company_id")
	userID := c.GetString("user_id")

	streamView(c, h,
		store.EmployeeScope(store.CollectionReports, companyID, userID),
		"reports:week",
		func(ctx context.Context) ([]report.ReportResponse, error) {
			return h.queries.WeekReports(ctx, companyID, userID)
		},
		func(r report.ReportResponse) string { return r.ID },
		func(a, b report.ReportResponse) bool {
			if a.Date != b.Date {
				return a.Date < b.Date
			}
			at, bt := "", ""
			if a.Time != nil {
				at = *a.Time
			}
			if b.Time != nil {
				bt = *b.Time
			}
			return at < bt
		},
	)
}

// MyPto streams the caller's own PTO requests, newest first.
func (h *Handler) MyPto(c *gin.Context) {
	companyID := c.GetString("company_id")
	userID := c.GetString("user_id")

	streamView(c, h,
		store.EmployeeScope(store.CollectionPtoRequests, companyID, userID),
		"pto:mine",
		func(ctx context.Context) ([]pto.PtoResponse, error) {
			return h.queries.MyPto(ctx, companyID, userID)
		},
		func(p pto.PtoResponse) string { return p.ID },
		ptoNewestFirst,
	)
}

// AllPto streams every PTO request in the organization, newest first.
func (h *Handler) AllPto(c *gin.Context) {
	companyID := c.GetString("company_id")

	streamView(c, h,
		store.CompanyScope(store.CollectionPtoRequests, companyID),
		"pto:all",
		func(ctx context.Context) ([]pto.PtoResponse, error) {
			return h.queries.AllPto(ctx, companyID)
		},
		func(p pto.PtoResponse) string { return p.ID },
		ptoNewestFirst,
	)
}

// Notifications streams the organization-wide notification list, newest
// first by the company-monotonic sequence.
func (h *Handler) Notifications(c *gin.Context) {
	companyID := c.GetString("company_id")

	streamView(c, h,
		store.CompanyScope(store.CollectionNotifications, companyID),
		"notifications",
		func(ctx context.Context) ([]notification.NotificationResponse, error) {
			return h.queries.Notifications(ctx, companyID)
		},
		func(n notification.NotificationResponse) string { return n.ID },
		func(a, b notification.NotificationResponse) bool { return a.Seq > b.Seq },
	)
}

func ptoNewestFirst(a, b pto.PtoResponse) bool {
	// RFC3339 timestamps order lexicographically.
	return a.CreatedAt > b.CreatedAt
}

// streamView owns one SSE connection: it spins up a reconciler for the
// scope, emits a snapshot event on every refresh, and a degraded event
// carrying the last error when the feed or the query fails. Closing the
// HTTP stream, a logout, or a newer subscription for the same view all
// cancel the reconciler through the manager.
func streamView[T any](
	c *gin.Context,
	h *Handler,
	scope store.Scope,
	viewKey string,
	query QueryFunc[T],
	key func(T) string,
	less func(a, b T) bool,
) {
	sessionID := c.GetString("user_id")

	ctx, cancel := context.WithCancel(c.Request.Context())
	h.manager.Track(sessionID, viewKey, cancel)
	defer func() {
		cancel()
		h.manager.Untrack(sessionID, viewKey)
	}()

	view := NewView(key, less)
	rec := NewReconciler(h.feed, scope, query, view, h.logger)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := rec.Run(ctx); err != nil && ctx.Err() == nil {
			h.logger.Warn("reconciler stopped",
				zap.String("view", viewKey),
				zap.Error(err),
			)
		}
	}()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-done:
			return false
		case <-rec.Updates():
			if degraded, err := view.Degraded(); degraded {
				msg := "change feed unavailable"
				if err != nil {
					msg = err.Error()
				}
				c.SSEvent("degraded", gin.H{"error": msg, "items": view.Items()})
				return true
			}
			c.SSEvent("snapshot", view.Items())
			return true
		}
	})
}

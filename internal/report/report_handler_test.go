package report_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go-timeoff/internal/middleware"
	"go-timeoff/internal/report"
	reporterrors "go-timeoff/internal/report/errors"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeService struct {
	submitFn   func(ctx context.Context, companyID, employeeID string, req report.SubmitReportRequest) (report.SubmitResult, error)
	getAllFn   func(ctx context.Context, companyID, actorID string, canReadAll bool) ([]report.ReportResponse, error)
	getWeekFn  func(ctx context.Context, companyID, employeeID, anchor string) ([]report.ReportResponse, error)
	allocateFn func(ctx context.Context, companyID, recordID string, req report.AllocatePtoRequest) (report.ReportResponse, error)
}

func (f *fakeService) Submit(ctx context.Context, companyID, employeeID string, req report.SubmitReportRequest) (report.SubmitResult, error) {
	return f.submitFn(ctx, companyID, employeeID, req)
}
func (f *fakeService) GetAll(ctx context.Context, companyID, actorID string, canReadAll bool) ([]report.ReportResponse, error) {
	return f.getAllFn(ctx, companyID, actorID, canReadAll)
}
func (f *fakeService) GetWeek(ctx context.Context, companyID, employeeID, anchor string) ([]report.ReportResponse, error) {
	return f.getWeekFn(ctx, companyID, employeeID, anchor)
}
func (f *fakeService) AllocatePTO(ctx context.Context, companyID, recordID string, req report.AllocatePtoRequest) (report.ReportResponse, error) {
	return f.allocateFn(ctx, companyID, recordID, req)
}

func newTestContext(w *httptest.ResponseRecorder, companyID, userID, role string) (*gin.Context, *gin.Engine) {
	c, e := gin.CreateTestContext(w)
	c.Set("company_id", companyID)
	c.Set("user_id", userID)
	c.Set("role", role)
	return c, e
}

func TestHandler_Submit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	companyID := uuid.New().String()
	userID := uuid.New().String()

	t.Run("created", func(t *testing.T) {
		svc := &fakeService{
			submitFn: func(ctx context.Context, cid, eid string, req report.SubmitReportRequest) (report.SubmitResult, error) {
				assert.Equal(t, companyID, cid)
				assert.Equal(t, userID, eid)
				assert.Equal(t, report.TypeCallOut, req.Type)
				return report.SubmitResult{Report: report.ReportResponse{ID: uuid.New().String(), Type: req.Type}}, nil
			},
		}
		h := report.NewHandler(svc)

		w := httptest.NewRecorder()
		c, _ := newTestContext(w, companyID, userID, "employee")
		c.Request = httptest.NewRequest(http.MethodPost, "/reports",
			strings.NewReader(`{"type":"call_out","date":"2026-08-24","reason":"flu"}`))
		c.Request.Header.Set("Content-Type", "application/json")

		h.Submit(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"ok":true`)
		assert.NotContains(t, w.Body.String(), "warning")
	})

	t.Run("created with warning", func(t *testing.T) {
		svc := &fakeService{
			submitFn: func(ctx context.Context, cid, eid string, req report.SubmitReportRequest) (report.SubmitResult, error) {
				return report.SubmitResult{
					Report:  report.ReportResponse{ID: uuid.New().String(), Type: req.Type},
					Warning: "report saved, but the notification could not be delivered",
				}, nil
			},
		}
		h := report.NewHandler(svc)

		w := httptest.NewRecorder()
		c, _ := newTestContext(w, companyID, userID, "employee")
		c.Request = httptest.NewRequest(http.MethodPost, "/reports",
			strings.NewReader(`{"type":"call_out","date":"2026-08-24","reason":"flu"}`))
		c.Request.Header.Set("Content-Type", "application/json")

		h.Submit(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"ok":true`)
		assert.Contains(t, w.Body.String(), "notification could not be delivered")
	})

	t.Run("unknown type rejected by binding", func(t *testing.T) {
		h := report.NewHandler(&fakeService{})

		w := httptest.NewRecorder()
		c, _ := newTestContext(w, companyID, userID, "employee")
		c.Request = httptest.NewRequest(http.MethodPost, "/reports",
			strings.NewReader(`{"type":"vacation","date":"2026-08-24"}`))
		c.Request.Header.Set("Content-Type", "application/json")

		h.Submit(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"ok":false`)
	})

	t.Run("service validation error", func(t *testing.T) {
		svc := &fakeService{
			submitFn: func(ctx context.Context, cid, eid string, req report.SubmitReportRequest) (report.SubmitResult, error) {
				return report.SubmitResult{}, reporterrors.ErrEarlyLeaveReasonTooLong
			},
		}
		h := report.NewHandler(svc)

		w := httptest.NewRecorder()
		c, _ := newTestContext(w, companyID, userID, "employee")
		c.Request = httptest.NewRequest(http.MethodPost, "/reports",
			strings.NewReader(`{"type":"early_leave","date":"2026-08-24","early_leave_reason":"x"}`))
		c.Request.Header.Set("Content-Type", "application/json")

		h.Submit(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "20 words")
	})
}

func TestHandler_GetAll(t *testing.T) {
	gin.SetMode(gin.TestMode)
	companyID := uuid.New().String()
	userID := uuid.New().String()

	t.Run("management scope", func(t *testing.T) {
		var gotReadAll bool
		svc := &fakeService{
			getAllFn: func(ctx context.Context, cid, actor string, canReadAll bool) ([]report.ReportResponse, error) {
				gotReadAll = canReadAll
				return []report.ReportResponse{{ID: uuid.New().String()}}, nil
			},
		}
		h := report.NewHandler(svc)

		w := httptest.NewRecorder()
		c, _ := newTestContext(w, companyID, userID, "management")
		c.Request = httptest.NewRequest(http.MethodGet, "/reports", nil)

		h.GetAll(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, gotReadAll)
	})

	t.Run("employee scope", func(t *testing.T) {
		var gotReadAll bool
		svc := &fakeService{
			getAllFn: func(ctx context.Context, cid, actor string, canReadAll bool) ([]report.ReportResponse, error) {
				gotReadAll = canReadAll
				assert.Equal(t, userID, actor)
				return nil, nil
			},
		}
		h := report.NewHandler(svc)

		w := httptest.NewRecorder()
		c, _ := newTestContext(w, companyID, userID, "employee")
		c.Request = httptest.NewRequest(http.MethodGet, "/reports", nil)

		h.GetAll(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.False(t, gotReadAll)
	})
}

func TestHandler_GetWeek(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var gotAnchor string
	svc := &fakeService{
		getWeekFn: func(ctx context.Context, cid, eid, anchor string) ([]report.ReportResponse, error) {
			gotAnchor = anchor
			return []report.ReportResponse{{ID: uuid.New().String()}}, nil
		},
	}
	h := report.NewHandler(svc)

	w := httptest.NewRecorder()
	c, _ := newTestContext(w, uuid.New().String(), uuid.New().String(), "employee")
	c.Request = httptest.NewRequest(http.MethodGet, "/reports/week?date=2026-08-27", nil)

	h.GetWeek(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2026-08-27", gotAnchor)
}

func TestHandler_AllocatePTO(t *testing.T) {
	gin.SetMode(gin.TestMode)
	companyID := uuid.New().String()
	recordID := uuid.New().String()

	t.Run("ok", func(t *testing.T) {
		svc := &fakeService{
			allocateFn: func(ctx context.Context, cid, rid string, req report.AllocatePtoRequest) (report.ReportResponse, error) {
				assert.Equal(t, recordID, rid)
				assert.NotNil(t, req.Qualifies)
				return report.ReportResponse{ID: rid, PtoAllocated: true, PtoHours: 8}, nil
			},
		}
		h := report.NewHandler(svc)

		w := httptest.NewRecorder()
		c, _ := newTestContext(w, companyID, uuid.New().String(), "management")
		c.Params = gin.Params{{Key: "id", Value: recordID}}
		c.Request = httptest.NewRequest(http.MethodPatch, "/reports/"+recordID+"/pto",
			strings.NewReader(`{"qualifies":true}`))
		c.Request.Header.Set("Content-Type", "application/json")

		h.AllocatePTO(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"pto_hours":8`)
	})

	t.Run("missing qualifies rejected by binding", func(t *testing.T) {
		h := report.NewHandler(&fakeService{})

		w := httptest.NewRecorder()
		c, _ := newTestContext(w, companyID, uuid.New().String(), "management")
		c.Params = gin.Params{{Key: "id", Value: recordID}}
		c.Request = httptest.NewRequest(http.MethodPatch, "/reports/"+recordID+"/pto",
			strings.NewReader(`{}`))
		c.Request.Header.Set("Content-Type", "application/json")

		h.AllocatePTO(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("precondition failed on non call_out", func(t *testing.T) {
		svc := &fakeService{
			allocateFn: func(ctx context.Context, cid, rid string, req report.AllocatePtoRequest) (report.ReportResponse, error) {
				return report.ReportResponse{}, reporterrors.ErrNotCallOut
			},
		}
		h := report.NewHandler(svc)

		w := httptest.NewRecorder()
		c, _ := newTestContext(w, companyID, uuid.New().String(), "management")
		c.Params = gin.Params{{Key: "id", Value: recordID}}
		c.Request = httptest.NewRequest(http.MethodPatch, "/reports/"+recordID+"/pto",
			strings.NewReader(`{"qualifies":true}`))
		c.Request.Header.Set("Content-Type", "application/json")

		h.AllocatePTO(c)

		assert.Equal(t, http.StatusPreconditionFailed, w.Code)
	})
}

// Full round trip through the idempotency middleware: the first submission
// fills the replay cache and releases the lock, the retry with the same
// key is answered from the cache without reaching the service.
func TestHandler_SubmitIdempotentRetry(t *testing.T) {
	gin.SetMode(gin.TestMode)
	companyID := uuid.New().String()
	userID := uuid.New().String()
	idempKey := uuid.New().String()

	saved := report.ReportResponse{
		ID:         uuid.New().String(),
		CompanyID:  companyID,
		EmployeeID: userID,
		Type:       report.TypeCallOut,
		Date:       "2026-08-24",
	}

	submits := 0
	svc := &fakeService{
		submitFn: func(ctx context.Context, cid, eid string, req report.SubmitReportRequest) (report.SubmitResult, error) {
			submits++
			return report.SubmitResult{Report: saved}, nil
		},
	}

	rdb, redisMock := redismock.NewClientMock()
	h := report.NewHandlerWithRedis(svc, rdb)

	router := gin.New()
	router.POST("/reports", func(c *gin.Context) {
		c.Set("company_id", companyID)
		c.Set("user_id", userID)
	}, middleware.Idempotency(rdb), h.Submit)

	cacheKey := fmt.Sprintf("idemp:%s:%s:%s", "/reports", userID, idempKey)
	lockKey := cacheKey + ":lock"
	payload, _ := json.Marshal(saved)

	// First submission: cache miss, lock acquired, cache filled and lock
	// released once the write succeeds.
	redisMock.ExpectGet(cacheKey).RedisNil()
	redisMock.ExpectSetNX(lockKey, "locked", 30*time.Second).SetVal(true)
	redisMock.ExpectSet(cacheKey, payload, 24*time.Hour).SetVal("OK")
	redisMock.ExpectDel(lockKey).SetVal(1)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/reports",
		strings.NewReader(`{"type":"call_out","date":"2026-08-24","reason":"flu"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", idempKey)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, submits)

	// Retry with the same key: answered from the cache, the service is
	// never reached and no second record is written.
	redisMock.ExpectGet(cacheKey).SetVal(string(payload))

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/reports",
		strings.NewReader(`{"type":"call_out","date":"2026-08-24","reason":"flu"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", idempKey)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), saved.ID)
	assert.Equal(t, 1, submits)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

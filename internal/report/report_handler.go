package report

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go-timeoff/internal/rbac"
	"go-timeoff/internal/shared/apperror"
	"go-timeoff/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type Handler struct {
	service Service
	rdb     *redis.Client
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func NewHandlerWithRedis(service Service, rdb *redis.Client) *Handler {
	return &Handler{service: service, rdb: rdb}
}

func writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

// Submit records an attendance exception for the caller. The idempotency
// middleware holds a lock per Idempotency-Key; the handler releases it on
// exit and fills the replay cache once the write succeeds, so a retry of
// the same key gets the cached response instead of a second record.
func (h *Handler) Submit(c *gin.Context) {
	lockKey, _ := c.Get("idempotency_lock_key")
	cacheKey, _ := c.Get("idempotency_cache_key")

	if h.rdb != nil {
		if lk, ok := lockKey.(string); ok && lk != "" {
			defer h.rdb.Del(c.Request.Context(), lk)
		}
	}

	companyID := c.GetString("company_id")
	userID := c.GetString("user_id")

	var req SubmitReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		mapped := apperror.ToHTTP(apperror.MapValidationError(err))
		response.Error(c, mapped.Status, mapped.Code, mapped.Message, mapped.Details)
		return
	}

	result, err := h.service.Submit(c.Request.Context(), companyID, userID, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	if h.rdb != nil {
		if ck, ok := cacheKey.(string); ok && ck != "" {
			if payload, marshalErr := json.Marshal(result.Report); marshalErr == nil {
				_ = h.rdb.Set(c.Request.Context(), ck, payload, 24*time.Hour).Err()
			}
		}
	}

	if result.Warning != "" {
		response.SuccessWithWarning(c, http.StatusCreated, result.Report, result.Warning)
		return
	}
	response.Success(c, http.StatusCreated, result.Report, nil)
}

// GetAll lists reports. Management sees every report in the company,
// everyone else only their own.
func (h *Handler) GetAll(c *gin.Context) {
	companyID := c.GetString("company_id")
	userID := c.GetString("user_id")
	role := strings.ToLower(c.GetString("role"))

	resp, err := h.service.GetAll(c.Request.Context(), companyID, userID, role == rbac.RoleManagement)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

// GetWeek lists the caller's reports for the week containing the optional
// ?date= anchor.
func (h *Handler) GetWeek(c *gin.Context) {
	companyID := c.GetString("company_id")
	userID := c.GetString("user_id")

	resp, err := h.service.GetWeek(c.Request.Context(), companyID, userID, c.Query("date"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

// AllocatePTO applies a management decision on a call-out report.
func (h *Handler) AllocatePTO(c *gin.Context) {
	companyID := c.GetString("company_id")
	recordID := c.Param("id")

	var req AllocatePtoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		mapped := apperror.ToHTTP(apperror.MapValidationError(err))
		response.Error(c, mapped.Status, mapped.Code, mapped.Message, mapped.Details)
		return
	}

	resp, err := h.service.AllocatePTO(c.Request.Context(), companyID, recordID, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

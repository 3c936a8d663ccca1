package pto

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

// Submit files a PTO request for the caller. The handler completes the
// idempotency protocol: it releases the middleware's lock on exit and
// caches the success response so a retried Idempotency-Key replays it
// rather than filing a second request.
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

	var req SubmitPtoRequest
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
			if payload, marshalErr := json.Marshal(result.Request); marshalErr == nil {
				_ = h.rdb.Set(c.Request.Context(), ck, payload, 24*time.Hour).Err()
			}
		}
	}

	if result.Warning != "" {
		response.SuccessWithWarning(c, http.StatusCreated, result.Request, result.Warning)
		return
	}
	response.Success(c, http.StatusCreated, result.Request, nil)
}

// Decide applies a management decision on a pending request.
func (h *Handler) Decide(c *gin.Context) {
	companyID := c.GetString("company_id")
	userID := c.GetString("user_id")
	requestID := c.Param("id")

	var req DecidePtoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		mapped := apperror.ToHTTP(apperror.MapValidationError(err))
		response.Error(c, mapped.Status, mapped.Code, mapped.Message, mapped.Details)
		return
	}

	result, err := h.service.Decide(c.Request.Context(), companyID, requestID, userID, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if result.Warning != "" {
		response.SuccessWithWarning(c, http.StatusOK, result.Request, result.Warning)
		return
	}
	response.Success(c, http.StatusOK, result.Request, nil)
}

// GetAll lists PTO requests. Management sees the whole company, everyone
// else their own.
func (h *Handler) GetAll(c *gin.Context) {
	companyID := c.GetString("company_id")
	userID := c.GetString("user_id")
	role := strings.ToLower(c.GetString("role"))

	var (
		resp []PtoResponse
		err  error
	)
	if role == rbac.RoleManagement {
		resp, err = h.service.GetAll(c.Request.Context(), companyID)
	} else {
		resp, err = h.service.GetMine(c.Request.Context(), companyID, userID)
	}
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

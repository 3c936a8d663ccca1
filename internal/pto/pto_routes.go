package pto

import (
	"go-timeoff/internal/middleware"

	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler, enforcer *casbin.Enforcer, rdb *redis.Client) {
	requests := r.Group("/pto-requests")
	requests.Use(middleware.AuthMiddleware())
	{
		requests.POST("",
			middleware.Authorize(enforcer, "pto_requests", "submit"),
			middleware.RateLimitByUser(1, 5),
			middleware.Idempotency(rdb),
			h.Submit,
		)
		requests.GET("", middleware.Authorize(enforcer, "pto_requests", "read_own"), h.GetAll)
		requests.PATCH("/:id/decision", middleware.Authorize(enforcer, "pto_requests", "decide"), h.Decide)
	}
}

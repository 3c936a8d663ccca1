package report

import (
	"go-timeoff/internal/middleware"

	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler, enforcer *casbin.Enforcer, rdb *redis.Client) {
	reports := r.Group("/reports")
	reports.Use(middleware.AuthMiddleware())
	{
		reports.POST("",
			middleware.Authorize(enforcer, "reports", "submit"),
			middleware.RateLimitByUser(1, 5),
			middleware.Idempotency(rdb),
			h.Submit,
		)
		reports.GET("", middleware.Authorize(enforcer, "reports", "read_own"), h.GetAll)
		reports.GET("/week", middleware.Authorize(enforcer, "reports", "read_own"), h.GetWeek)
		reports.PATCH("/:id/pto", middleware.Authorize(enforcer, "reports", "allocate"), h.AllocatePTO)
	}
}

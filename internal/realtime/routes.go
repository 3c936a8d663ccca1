package realtime

import (
	"go-timeoff/internal/middleware"

	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler, enforcer *casbin.Enforcer) {
	live := r.Group("/live")
	live.Use(middleware.AuthMiddleware())
	{
		live.GET("/reports/week", middleware.Authorize(enforcer, "reports", "read_own"), h.WeekReports)
		live.GET("/pto-requests/mine", middleware.Authorize(enforcer, "pto_requests", "read_own"), h.MyPto)
		live.GET("/pto-requests", middleware.Authorize(enforcer, "pto_requests", "read_all"), h.AllPto)
		live.GET("/notifications", middleware.Authorize(enforcer, "notifications", "read"), h.Notifications)
	}
}

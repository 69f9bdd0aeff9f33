package handler

import (
	mid "retailscope/middleware"

	"github.com/gin-gonic/gin"
)

// InitRoutes registers the dashboard API. Middlewares are registered by the
// caller on the engine before routes.
func InitRoutes(r *gin.Engine) {
	r.GET("/health", HealthHandler)
	r.GET("/diagnostics", GetDiagnosticsHandler)
	r.GET("/summary", GetSummaryHandler)
	r.GET("/products/top", GetTopProductsHandler)
	r.GET("/revenue/monthly", GetMonthlyRevenueHandler)
	r.GET("/customers", GetTopCustomersHandler)
	r.GET("/customers/:customer_id", GetCustomerHandler)
	r.GET("/segments", GetSegmentsHandler)
	r.GET("/segments/elbow", GetSegmentElbowHandler)
	r.POST("/segments/run", RunSegmentationHandler)
}

// InitMiddlewares applies the standard middleware chain.
func InitMiddlewares(r *gin.Engine) {
	r.Use(mid.RequestIdGenerator())
	r.Use(mid.CustomCors())
	r.Use(mid.Logger())
	r.Use(mid.Recovery())
}

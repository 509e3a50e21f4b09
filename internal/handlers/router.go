package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "tripbudget/internal/docs" // Import swagger docs
	"tripbudget/internal/metrics"
	"tripbudget/internal/middleware"
	"tripbudget/internal/services"
)

// Services bundles what the router needs to serve the API.
type Services struct {
	Ledger    services.LedgerServicer
	Analytics services.AnalyticsServicer
	Audit     services.AuditServicer
	Metrics   *metrics.Metrics

	// AllowedOrigins lists CORS origins. Empty allows every origin.
	AllowedOrigins []string
}

// NewRouter wires middleware and every API route.
func NewRouter(svc Services) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogging(svc.Metrics))
	router.Use(middleware.Tracing())
	router.Use(middleware.ErrorHandler())
	router.Use(cors.New(corsConfig(svc.AllowedOrigins)))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if svc.Metrics != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(svc.Metrics.Registry, promhttp.HandlerOpts{})))
	}

	budgetHandler := NewBudgetHandler(svc.Ledger, svc.Analytics, svc.Audit)
	expenseHandler := NewExpenseHandler(svc.Ledger, svc.Audit)
	auditHandler := NewAuditHandler(svc.Ledger, svc.Audit)

	// API v1 group
	v1 := router.Group("/api/v1")

	// Budget routes
	budgets := v1.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.ListBudgets)
	budgets.GET("/:id", budgetHandler.GetBudget)
	budgets.PUT("/:id", budgetHandler.UpdateBudget)
	budgets.POST("/:id/categories", budgetHandler.AddCategory)
	budgets.PUT("/:id/categories/:categoryId", budgetHandler.ReallocateCategory)
	budgets.DELETE("/:id/categories/:categoryId", budgetHandler.DeleteCategory)
	budgets.GET("/:id/summary", budgetHandler.GetSummary)
	budgets.GET("/:id/export", budgetHandler.ExportBudget)

	// Expense routes
	expenses := v1.Group("/expenses")
	expenses.POST("", expenseHandler.CreateExpense)
	expenses.GET("", expenseHandler.ListExpenses)
	expenses.GET("/:id", expenseHandler.GetExpense)
	expenses.PUT("/:id", expenseHandler.UpdateExpense)
	expenses.DELETE("/:id", expenseHandler.DeleteExpense)

	// Consistency routes
	v1.GET("/audit", auditHandler.RunAudit)
	v1.GET("/audit-logs", auditHandler.ListAuditLogs)

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader, "Traceparent"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

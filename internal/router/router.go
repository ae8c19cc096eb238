package router

import (
	"time"

	"shelfwise/internal/config"
	"shelfwise/internal/handler"
	"shelfwise/internal/infra"
	"shelfwise/internal/middleware"
	"shelfwise/internal/repository"
	"shelfwise/internal/service"
	"shelfwise/internal/stockflow"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Services are shared by the HTTP layer and the worker pool, so both see the
// same cache and the same last-sale breaker.
type Services struct {
	Businesses repository.BusinessRepository
	Insights   service.InsightsService
	Reports    service.ReportService
	Stock      service.StockService
	LastSale   *infra.CircuitBreaker
}

// NewServices wires Service ← Repository ← DB/Redis. dispatcher may be nil,
// in which case commits do not schedule an insights refresh.
func NewServices(cfg *config.Config, db *gorm.DB, rdb *redis.Client, dispatcher service.RefreshEnqueuer) *Services {
	// ── Repositories ─────────────────────────────────────────────────────────
	businessRepo := repository.NewBusinessRepository(db)
	productRepo := repository.NewProductRepository(db)
	actionRepo := repository.NewActionRepository(db)
	supplierRepo := repository.NewSupplierRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	lastSale := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	insightsSvc := service.NewInsightsService(businessRepo, actionRepo, productRepo, supplierRepo, rdb, service.InsightsOptions{
		Defaults:        cfg.InsightsDefaults(),
		VATRate:         cfg.VAT(),
		Location:        cfg.Location(),
		CacheTTL:        cfg.InsightsCacheTTL(),
		Years:           cfg.FinancialYears,
		LastSaleBreaker: lastSale,
	})
	stockSvc := service.NewStockService(
		stockflow.NewRedisStore(rdb),
		infra.NewRedisLocker(rdb),
		cfg.PendingAdjustmentTTL(),
		productRepo,
		actionRepo,
		supplierRepo,
		dispatcher,
	)

	return &Services{
		Businesses: businessRepo,
		Insights:   insightsSvc,
		Reports:    service.NewReportService(insightsSvc, businessRepo, cfg.ReportStoragePath),
		Stock:      stockSvc,
		LastSale:   lastSale,
	}
}

// New returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, svc *Services) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.AllowedOrigins()))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Handlers ─────────────────────────────────────────────────────────────
	insightsH := handler.NewInsightsHandler(svc.Insights, svc.Reports)
	stockH := handler.NewStockHandler(svc.Stock)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, svc.LastSale))

	// Protected routes, scoped to the business in the token
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		ins := v1.Group("/insights")
		{
			ins.GET("", insightsH.GetInsights)
			ins.GET("/year-over-year", insightsH.GetYearOverYear)
			ins.GET("/year-over-year/export", insightsH.ExportYearOverYear)
			ins.GET("/report.pdf", insightsH.GetReportPDF)
		}

		// Ledger reads: every role
		v1.GET("/products/:id/actions", stockH.ListActions)

		// Stock changes: owner or manager
		writers := middleware.RequireRole(middleware.RoleOwner, middleware.RoleManager)
		v1.POST("/products/:id/stock/stage", writers, stockH.Stage)
		pending := v1.Group("/stock/pending", writers)
		{
			pending.GET("/:id", stockH.GetPending)
			pending.DELETE("/:id", stockH.CancelPending)
			pending.POST("/:id/confirm", stockH.ConfirmPending)
		}
	}

	// Swagger UI, only outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}

package router

import (
	"time"

	"agrosnab/internal/config"
	"agrosnab/internal/handler"
	"agrosnab/internal/infra"
	"agrosnab/internal/ledger"
	"agrosnab/internal/middleware"
	"agrosnab/internal/repository"
	"agrosnab/internal/service"
	"agrosnab/internal/sheets"
	"agrosnab/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps carries the externally constructed dependencies for New, so main owns
// connection lifecycles and tests can inject fakes.
type Deps struct {
	DB     *gorm.DB
	RDB    *redis.Client
	Sheets sheets.API
	Schema *sheets.Schema
	CB     *infra.SheetsBreaker
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository/Engine ← Sheets/DB/Redis
func New(cfg *config.Config, d Deps) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories / engine ────────────────────────────────────────────────
	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	productRepo := repository.NewProductRepository(d.Sheets, d.Schema, cacheTTL)
	confirmRepo := repository.NewConfirmActionRepository(d.DB)
	sessionRepo := repository.NewIntakeSessionRepository(d.DB)
	engine := ledger.NewEngine(d.Sheets, d.Schema, cfg.DedupLookbackRows)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(d.RDB)

	// ── Services ─────────────────────────────────────────────────────────────
	confirmTTL := time.Duration(cfg.ConfirmTTLSeconds) * time.Second
	stockOpsSvc := service.NewStockOpsService(productRepo, engine,
		cfg.IntakeSheet, cfg.WriteoffSheet, cfg.LowStockThreshold, dispatcher)
	confirmSvc := service.NewConfirmService(confirmRepo, stockOpsSvc, confirmTTL)
	productSvc := service.NewProductService(productRepo)
	intakeSvc := service.NewIntakeService(sessionRepo, productRepo, stockOpsSvc)

	// ── Handlers ─────────────────────────────────────────────────────────────
	productsH := handler.NewProductsHandler(productSvc)
	stockOpsH := handler.NewStockOpsHandler(stockOpsSvc)
	confirmH := handler.NewConfirmHandler(confirmSvc, confirmTTL)
	intakeH := handler.NewIntakeHandler(intakeSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(d.DB, d.RDB, d.CB, productRepo))

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		anyRole := middleware.RequireRole(middleware.RoleOwner, middleware.RoleManager, middleware.RoleViewer)
		staff := middleware.RequireRole(middleware.RoleOwner, middleware.RoleManager)
		owner := middleware.RequireRole(middleware.RoleOwner)
		mutLimit := middleware.MutationRateLimiter()

		v1.GET("/products", anyRole, productsH.List)
		v1.GET("/products/:sku", anyRole, productsH.GetBySKU)
		v1.PATCH("/products/:sku/photo", staff, productsH.UpdatePhoto)
		v1.PATCH("/products/:sku/restore", owner, productsH.Restore)
		v1.POST("/products/cache/refresh", staff, productsH.RefreshCache)

		// Direct stock operations — owner only, mutation-limited
		stock := v1.Group("/stock", owner, mutLimit)
		{
			stock.POST("/writeoff", stockOpsH.WriteOff)
			stock.POST("/correction", stockOpsH.Correction)
			stock.POST("/archive", stockOpsH.Archive)
		}

		// Two-phase confirmation flow for destructive operations
		confirm := v1.Group("/confirm", owner)
		{
			confirm.POST("", confirmH.Prepare)
			confirm.POST("/:id", mutLimit, confirmH.Execute)
			confirm.DELETE("/:id", confirmH.Cancel)
		}

		// Intake draft flow
		intake := v1.Group("/intake", staff)
		{
			intake.GET("", intakeH.Get)
			intake.POST("", intakeH.Start)
			intake.PATCH("", intakeH.Update)
			intake.POST("/complete", mutLimit, intakeH.Complete)
			intake.DELETE("", intakeH.Cancel)
		}
	}

	return r
}

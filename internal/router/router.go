package router

import (
	"time"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/conektaolatam-netizen/conektao-sub000/internal/config"
	"github.com/conektaolatam-netizen/conektao-sub000/internal/handler"
	"github.com/conektaolatam-netizen/conektao-sub000/internal/middleware"
	"github.com/conektaolatam-netizen/conektao-sub000/internal/model"
	"github.com/conektaolatam-netizen/conektao-sub000/internal/repository"
	"github.com/conektaolatam-netizen/conektao-sub000/internal/service"
	"github.com/conektaolatam-netizen/conektao-sub000/internal/worker"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, dispatcher *worker.Dispatcher) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	tipRepo := repository.NewTipRepository(db)
	shiftRepo := repository.NewShiftRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	ledgerSvc := service.NewLedgerService(sessionRepo, dispatcher)
	tipSvc := service.NewTipService(tipRepo, dispatcher, int64(cfg.DefaultTipPercent), cfg.RequireTipReason)
	distributionSvc := service.NewDistributionService(tipRepo, shiftRepo, dispatcher)
	saleSvc := service.NewSaleService(saleRepo, sessionRepo, ledgerSvc, tipSvc)
	shiftSvc := service.NewShiftService(shiftRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	sessionsH := handler.NewSessionHandler(ledgerSvc)
	salesH := handler.NewSaleHandler(saleSvc)
	tipsH := handler.NewTipHandler(tipSvc, distributionSvc)
	shiftsH := handler.NewShiftHandler(shiftSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	anyStaff := middleware.RequireRole(model.RoleCashier, model.RoleSupervisor, model.RoleAdmin)
	supervisorUp := middleware.RequireRole(model.RoleSupervisor, model.RoleAdmin)

	v1 := r.Group("/v1", jwtMW)
	{
		sessions := v1.Group("/sessions")
		{
			sessions.POST("/open", anyStaff, sessionsH.Open)
			sessions.PUT("/:id/opening-balance", anyStaff, sessionsH.SetOpeningBalance)
			// Editing a set balance is a supervisor action and always audited
			sessions.PATCH("/:id/opening-balance", supervisorUp, sessionsH.EditOpeningBalance)
			sessions.POST("/:id/entries", anyStaff, sessionsH.RecordEntry)
			sessions.GET("/:id/entries", anyStaff, sessionsH.ListEntries)
			sessions.GET("/:id/report", anyStaff, sessionsH.Report)
			sessions.POST("/:id/close", supervisorUp, sessionsH.Close)
			sessions.GET("/history", supervisorUp, sessionsH.History)
		}

		sales := v1.Group("/sales")
		{
			sales.POST("/finalize", anyStaff, salesH.Finalize)
			sales.GET("/:id", anyStaff, salesH.Get)
		}

		tips := v1.Group("/tips")
		{
			tips.POST("/evaluate", anyStaff, tipsH.Evaluate)
			tips.POST("/adjustments", anyStaff, tipsH.RecordAdjustment)
			tips.GET("/adjustments/:saleId", anyStaff, tipsH.GetAdjustment)
		}

		if cfg.TipDistributionOn {
			dist := v1.Group("/distributions", supervisorUp)
			{
				dist.GET("/eligible-staff", tipsH.EligibleStaff)
				dist.POST("/compute", tipsH.Compute)
				dist.POST("", tipsH.Persist)
				dist.POST("/correct", tipsH.Correct)
				dist.GET("/payouts/pending", tipsH.ListPendingPayouts)
				dist.POST("/payouts/:id/pay", tipsH.MarkPaid)
				dist.GET("/:saleId", tipsH.GetDistribution)
			}
		}

		v1.POST("/employees", supervisorUp, shiftsH.CreateEmployee)
		v1.GET("/employees", anyStaff, shiftsH.ListEmployees)
		shifts := v1.Group("/shifts")
		{
			shifts.POST("/clock-in", anyStaff, shiftsH.ClockIn)
			shifts.POST("/clock-out", anyStaff, shiftsH.ClockOut)
			shifts.GET("", anyStaff, shiftsH.ListShifts)
		}

		users := v1.Group("/users", middleware.RequireRole(model.RoleAdmin))
		{
			users.POST("", usersH.Create)
			users.GET("", usersH.List)
			users.PUT("/:id", usersH.Update)
			users.DELETE("/:id", usersH.Deactivate)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}

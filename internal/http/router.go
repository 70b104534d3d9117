package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rjenterprise/poolhub/internal/domain/account"
	"github.com/rjenterprise/poolhub/internal/http/handlers"
	"github.com/rjenterprise/poolhub/internal/http/middlewares"
	"github.com/rjenterprise/poolhub/internal/observability"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const maxBodyBytes = 1 << 20

// AccountService is what the auth routes and the auth middleware need.
type AccountService interface {
	handlers.AccountService
	middlewares.Authenticator
}

type Deps struct {
	Env         string
	ServiceName string
	CORSOrigins []string

	Accounts   AccountService
	Pools      handlers.PoolService
	Dashboards handlers.DashboardService
	Jobs       handlers.AdminJobsRepo

	// AuthLimiter guards register and login, WriteLimiter the authenticated
	// pool writes. nil disables either.
	AuthLimiter  middlewares.Limiter
	WriteLimiter middlewares.Limiter
	Prom         *observability.Prom
	Ping         func(ctx context.Context) error
}

func NewRouter(d Deps) *gin.Engine {
	if d.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	if d.ServiceName == "" {
		d.ServiceName = "poolhub-api"
	}

	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(otelgin.Middleware(d.ServiceName))
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.CORSOrigins))
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))
	r.Use(middlewares.RequireJSON())

	// health
	h := handlers.NewHealthHandler(d.Ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	if d.Prom != nil {
		r.GET("/metrics", gin.WrapH(d.Prom.Handler()))
	}

	authMw := middlewares.NewAuthMiddleware(d.Accounts)
	requireAuth := authMw.RequireAuth()

	authHandler := handlers.NewAuthHandler(d.Accounts)
	poolsHandler := handlers.NewPoolsHandler(d.Pools)
	dashboardsHandler := handlers.NewDashboardsHandler(d.Dashboards)

	api := r.Group("/api")

	// auth
	authGroup := api.Group("/auth")
	if d.AuthLimiter != nil {
		authGroup.Use(middlewares.RateLimit(d.AuthLimiter, "auth", middlewares.KeyByIP))
	}
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	api.GET("/auth/me", requireAuth, authHandler.Me)

	// pools
	api.GET("/pools", poolsHandler.List)
	api.GET("/pools/:id", poolsHandler.Get)

	writes := api.Group("/pools", requireAuth)
	if d.WriteLimiter != nil {
		writes.Use(middlewares.RateLimit(d.WriteLimiter, "pool_writes", middlewares.KeyByUserOrIP))
	}
	writes.POST("", poolsHandler.Create)
	writes.POST("/:id/join", poolsHandler.Join)
	writes.POST("/:id/bids", middlewares.RequireRole(account.RoleSupplier), poolsHandler.SubmitBid)

	// dashboards
	dash := api.Group("/dashboards", requireAuth)
	dash.GET("/user", dashboardsHandler.User)
	dash.GET("/admin", middlewares.RequireRole(account.RoleAdmin), dashboardsHandler.Admin)
	dash.GET("/supplier", middlewares.RequireRole(account.RoleSupplier), dashboardsHandler.Supplier)

	// admin
	admin := api.Group("", requireAuth, middlewares.RequireRole(account.RoleAdmin))
	admin.PUT("/accounts/:id/role", authHandler.SetRole)
	if d.Jobs != nil {
		adminJobs := handlers.NewAdminJobsHandler(d.Jobs)
		admin.GET("/admin/jobs/:id", adminJobs.GetByID)
		admin.POST("/admin/jobs/:id/retry", adminJobs.Retry)
	}

	r.NoRoute(func(c *gin.Context) {
		handlers.RespondError(c, http.StatusNotFound, "not_found", "Not found", nil)
	})

	return r
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"villa-booking/internal/handler/api"
	"villa-booking/internal/handler/middleware"
	"villa-booking/internal/pkg/config"
	"villa-booking/internal/pkg/metrics"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

// Handlers groups the API handlers the router mounts.
type Handlers struct {
	Auth     *api.AuthHandler
	Resource *api.ResourceHandler
	Booking  *api.BookingHandler
}

type Middlewares struct {
	Auth      *middleware.AuthMiddleware
	RateLimit *middleware.RateLimiter
	Logger    *middleware.Logger
}

func NewRouter(
	engine *gin.Engine,
	cfg config.Config,
	m *metrics.Metrics,
	authHandler *api.AuthHandler,
	resourceHandler *api.ResourceHandler,
	bookingHandler *api.BookingHandler,
	authMiddleware *middleware.AuthMiddleware,
	rateLimiter *middleware.RateLimiter,
	logger *middleware.Logger,
) {
	Setup(engine, cfg, m,
		Handlers{Auth: authHandler, Resource: resourceHandler, Booking: bookingHandler},
		Middlewares{Auth: authMiddleware, RateLimit: rateLimiter, Logger: logger},
	)
}

// Setup mounts middleware and routes on engine. The e2e suite calls it
// directly with hand-built dependencies.
func Setup(engine *gin.Engine, cfg config.Config, m *metrics.Metrics, h Handlers, mw Middlewares) {
	setupMiddleware(engine, cfg, m, mw.Logger)
	setupRoutes(engine, cfg, m, h, mw)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config, m *metrics.Metrics, logger *middleware.Logger) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(logger.LoggingMiddleware())
	if cfg.Metrics.Enabled {
		engine.Use(middleware.MetricsMiddleware(m))
	}
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(engine *gin.Engine, cfg config.Config, m *metrics.Metrics, h Handlers, mw Middlewares) {
	engine.GET("/health", healthCheck)

	if cfg.Metrics.Enabled {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}

	if gin.Mode() == gin.DebugMode {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	requireAuth := mw.Auth.RequireAuth()
	limited := mw.RateLimit.Middleware()

	apiGroup := engine.Group("/api")
	{
		auth := apiGroup.Group("/auth")
		{
			addRoutes(auth, []route{
				{Method: http.MethodPost, Path: "/login", Handler: h.Auth.Login},
				{Method: http.MethodPost, Path: "/logout", Handler: h.Auth.Logout},
				{Method: http.MethodGet, Path: "/me", Handler: h.Auth.Me, Mw: []gin.HandlerFunc{requireAuth}},
			})
		}

		resources := apiGroup.Group("/resources")
		{
			addRoutes(resources, []route{
				{Method: http.MethodGet, Path: "/:id", Handler: h.Resource.Get},
				{Method: http.MethodPost, Path: "/:id/quote", Handler: h.Resource.Quote, Mw: []gin.HandlerFunc{limited}},
				{Method: http.MethodGet, Path: "/:id/availability", Handler: h.Resource.Availability, Mw: []gin.HandlerFunc{limited}},
				{Method: http.MethodPost, Path: "/:id/bookings", Handler: h.Booking.Create, Mw: []gin.HandlerFunc{requireAuth}},
				{Method: http.MethodGet, Path: "/:id/bookings", Handler: h.Booking.ListByResource, Mw: []gin.HandlerFunc{requireAuth}},
			})
		}

		bookings := apiGroup.Group("/bookings")
		bookings.Use(requireAuth)
		{
			addRoutes(bookings, []route{
				{Method: http.MethodPatch, Path: "/:id/status", Handler: h.Booking.UpdateStatus},
			})
		}
	}
}

// @Summary Health check
// @Description Check if the service is healthy
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}

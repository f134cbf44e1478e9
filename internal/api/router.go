package api

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/campushub/booking-core/internal/auth"
	"github.com/campushub/booking-core/internal/booking"
	bookingHttp "github.com/campushub/booking-core/internal/booking/http"
	"github.com/campushub/booking-core/internal/message"
	messageHttp "github.com/campushub/booking-core/internal/message/http"
	"github.com/campushub/booking-core/internal/resource"
	resourceHttp "github.com/campushub/booking-core/internal/resource/http"
	"github.com/campushub/booking-core/internal/review"
	reviewHttp "github.com/campushub/booking-core/internal/review/http"
	"github.com/campushub/booking-core/internal/user"
	userHttp "github.com/campushub/booking-core/internal/user/http"
)

// Config holds everything the router needs.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	Logger       *zerolog.Logger

	RateLimitRPS   float64
	RateLimitBurst int

	UserService     user.Service
	ResourceService resource.Service
	BookingService  booking.Service
	ReviewService   *review.Service
	ModerationGate  *review.Gate
	MessageService  *message.Service
	JWTManager      *auth.JWTManager
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Auth) and registering routes for various modules.
func NewRouter(cfg Config) *gin.Engine {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global Middleware:
	// - Recovery: Captures panics to prevent server crashes and returns a 500 error.
	// - RequestLogger: one structured line per request.
	// - Metrics: request count and latency per route.
	r.Use(gin.Recovery(), RequestLogger(cfg.Logger), Metrics())

	// Configure CORS (Cross-Origin Resource Sharing).
	corsConfig := cors.DefaultConfig()
	if cfg.IsProduction && cfg.ProdOrigins != "" {
		corsConfig.AllowOrigins = splitOrigins(cfg.ProdOrigins)
	} else {
		corsConfig.AllowOrigins = []string{
			"http://localhost:3000", // Frontend dev server
			"http://localhost:8081", // Swagger
		}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// authMiddleware: Validates if the request contains a valid JWT.
	authMiddleware := auth.AuthRequired(cfg.JWTManager)
	// adminMiddleware: Further checks if the authenticated user has the admin role.
	adminMiddleware := auth.RequireRole(auth.RoleAdmin)
	// mutationLimit: per-actor token bucket on booking and message writes.
	mutationLimit := newRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).Middleware()

	// Initialize HTTP Handlers for each module (injecting Service dependencies).
	userHandler := userHttp.NewHandler(cfg.UserService, cfg.JWTManager)
	resourceHandler := resourceHttp.NewHandler(cfg.ResourceService)
	bookingHandler := bookingHttp.NewHandler(cfg.BookingService)
	reviewHandler := reviewHttp.NewHandler(cfg.ReviewService, cfg.ModerationGate)
	messageHandler := messageHttp.NewHandler(cfg.MessageService)

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		userHttp.RegisterRoutes(v1, userHandler, authMiddleware, adminMiddleware)
		resourceHttp.RegisterRoutes(v1, resourceHandler, authMiddleware)
		bookingHttp.RegisterRoutes(v1, bookingHandler, authMiddleware, mutationLimit)
		reviewHttp.RegisterRoutes(v1, reviewHandler, authMiddleware)
		messageHttp.RegisterRoutes(v1, messageHandler, authMiddleware, mutationLimit)
	}

	return r
}

func splitOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

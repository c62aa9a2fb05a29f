package api

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prazwal-bns/imageprompt-api/internal/api/handler"
	"github.com/prazwal-bns/imageprompt-api/internal/api/middleware"
	"github.com/prazwal-bns/imageprompt-api/internal/config"
	"github.com/prazwal-bns/imageprompt-api/internal/ratelimit"
	"github.com/prazwal-bns/imageprompt-api/internal/service"
)

// SetupRouter configures the Gin router with all routes.
func SetupRouter(
	authService *service.AuthService,
	generationService *service.GenerationService,
	apiLimiter *ratelimit.Limiter,
	cfg *config.Config,
) *gin.Engine {
	switch cfg.Server.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.Server.CORS.AllowAllOrigins,
	}))
	r.Use(middleware.Authenticate(authService))

	healthHandler := handler.NewHealthHandler()
	authHandler := handler.NewAuthHandler(authService)
	generationHandler := handler.NewGenerationHandler(generationService, cfg.Server.Debug)

	// Serve local blobs directly when no CDN fronts them
	if lc := cfg.Storage.Local; (cfg.Storage.Driver == "" || cfg.Storage.Driver == "local") &&
		strings.HasPrefix(lc.PublicURL, "/") {
		r.Static(lc.PublicURL, lc.Path)
	}

	// Health check
	r.GET("/health", healthHandler.Health)

	// Session
	r.POST("/login", authHandler.Login)
	r.DELETE("/logout", authHandler.Logout)

	// Prompt generations. Only the generation POST sits behind the api
	// throttle; listings are cheap and stay open.
	r.GET("/prompt-generations", generationHandler.List)
	r.POST("/prompt-generations",
		middleware.Throttle(apiLimiter, cfg.RateLimit.API.MaxAttempts, cfg.RateLimit.API.Decay),
		generationHandler.Store)

	return r
}

package bootstrap

import (
	"strings"
	"time"

	"napoleon_server/adapter/in/http"
	"napoleon_server/config"
	"napoleon_server/infra/middleware"
	"napoleon_server/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func NewAPI(cfg *config.Config) (*fiber.App, func(), error) {
	logLevel := logger.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = logger.LevelDebug
	}
	logger.Init(logger.Config{
		Level:   logLevel,
		Service: "napoleon-api",
	})

	deps, cleanup, err := NewDependencies(cfg)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize dependencies")
		return nil, nil, err
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(),
		DisableStartupMessage: cfg.IsProduction(),
		ReadBufferSize:        16384,
		WriteBufferSize:       16384,

		// go-json is a drop-in replacement, several times faster than
		// encoding/json on our payload shapes
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,

		BodyLimit: 10 * 1024 * 1024,
	})

	// Global middleware stack (order matters)
	app.Use(middleware.Recover())
	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLogger())
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// AllowCredentials:true requires explicit origins (not "*")
	allowOrigins := strings.Join(cfg.AllowedOrigins, ",")
	allowCredentials := true
	if allowOrigins == "" || allowOrigins == "*" {
		if cfg.IsProduction() {
			allowOrigins = ""
			allowCredentials = false
		} else {
			allowOrigins = "http://localhost:3000,http://localhost:5173"
		}
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization,X-Request-ID",
		ExposeHeaders:    "X-Request-ID,X-RateLimit-Limit,X-RateLimit-Remaining,X-RateLimit-Reset",
		AllowCredentials: allowCredentials,
		MaxAge:           86400,
	}))

	// Health checks (no auth required)
	healthHandler := http.NewHealthHandlerWithDeps(deps.DB, deps.Redis, deps.MongoDB)
	healthHandler.Register(app)

	// API routes. Auth runs first so the rate limiter can key authenticated
	// clients by user id instead of IP.
	api := app.Group("/api")

	api.Use(middleware.JWTAuth(cfg.JWTSecret))
	rateLimiter := middleware.NewHTTPRateLimiter(cfg.HTTPRateLimit, time.Minute)
	api.Use(rateLimiter.Handler())

	http.NewMessageHandler(deps.MessageRepo, deps.AnalysisRepo, deps.ActionRepo).Register(api)
	http.NewAnalysisHandler(deps.Processor).Register(api)
	http.NewVipHandler(deps.VipRepo).Register(api)
	http.NewNotificationHandler(deps.NotificationService, deps.RuleRepo).Register(api)
	http.NewDelegationHandler(deps.DelegationService, deps.MessageRepo, deps.MemberRepo).Register(api)
	http.NewDigestHandler(deps.DigestService).Register(api)

	logger.Info("API server initialized successfully")

	return app, cleanup, nil
}

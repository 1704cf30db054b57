package router

import (
	"net/http"
	"time"

	"chat-relay/backend/internal/api"
	"chat-relay/backend/pkg/config"
	"chat-relay/backend/pkg/di"
	"chat-relay/backend/pkg/errors"
	"chat-relay/backend/pkg/health"
	"chat-relay/backend/pkg/logger"
	"chat-relay/backend/pkg/middleware"
	"chat-relay/backend/pkg/validator"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Router is the main router for the application
type Router struct {
	Engine    *gin.Engine
	Container *di.Container
	Logger    *logger.Logger
	Config    *config.Config
	Checker   *health.Checker
}

// New creates a new router with the given container
func New(container *di.Container) *Router {
	logger.SetGlobal(container.Logger)

	cfg := container.Config

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Logger middleware first so every request carries a request-scoped logger
	engine.Use(logger.Middleware(container.Logger))
	engine.Use(errors.ErrorHandler())
	engine.Use(errors.RecoveryWithLogger())

	rateOpts := middleware.DefaultRateLimiterOptions()
	rateOpts.Limit = rate.Limit(cfg.Security.RateLimit)
	rateOpts.Burst = cfg.Security.RateLimitBurst
	rateLimiter := middleware.NewRateLimiter(container.Logger, rateOpts)
	engine.Use(rateLimiter.Middleware())

	checker := health.NewChecker(container.Logger, 30*time.Second)
	checker.RegisterDatabaseCheck(func() error {
		return config.TestConnection(container.DB)
	})
	checker.Start()

	return &Router{
		Engine:    engine,
		Container: container,
		Logger:    container.Logger,
		Config:    cfg,
		Checker:   checker,
	}
}

// SetupRoutes registers all application routes
func (r *Router) SetupRoutes() {
	r.Engine.GET("/health", r.healthCheckHandler())

	chatController := api.NewChatController(r.Container.ChatService)
	chatController.RegisterRoutes(r.Engine)
}

// AddOpenAPIValidation enables request validation against the given schema
func (r *Router) AddOpenAPIValidation(schemaPath string) error {
	v, err := validator.NewOpenAPIValidator(schemaPath)
	if err != nil {
		return err
	}
	r.Engine.Use(v.Middleware())
	return nil
}

// healthCheckHandler reports component statuses
func (r *Router) healthCheckHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		status := http.StatusOK
		if !r.Checker.IsSystemHealthy() {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"status":     "ok",
			"time":       time.Now().Format(time.RFC3339),
			"components": r.Checker.GetStatus(),
		})
	}
}

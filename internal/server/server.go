package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/resepku/backend/config"
	"github.com/resepku/backend/internal/api"
	"github.com/resepku/backend/internal/middleware"
	"github.com/resepku/backend/internal/service"
)

// Server wires the HTTP layer over the recipe services.
type Server struct {
	router *gin.Engine
	http   *http.Server
	cfg    *config.Config
	log    *zap.Logger
}

// Deps are the constructed services the server exposes.
type Deps struct {
	Recipes   service.IRecipeService
	Recommend service.IRecommendationService
	Auth      *service.AuthService
	Allergens *service.AllergenService
	Dietary   *service.DietaryService
	Redis     *redis.Client
}

func New(cfg *config.Config, deps Deps, log *zap.Logger) *Server {
	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Identity must be attached before the limiter so authenticated
	// callers are counted per user rather than per IP.
	v1.Use(middleware.OptionalAuthMiddleware(deps.Auth))

	if cfg.RateLimitEnabled && deps.Redis != nil {
		limiter := middleware.NewRateLimiter(deps.Redis, middleware.RateLimitConfig{
			Window:    cfg.RateLimitWindow,
			Limit:     cfg.RateLimitRequests,
			KeyPrefix: "ratelimit",
		})
		v1.Use(limiter.RateLimitMiddleware())
	}

	api.NewAuthHandler(deps.Auth, log).RegisterRoutes(v1)
	api.NewRecipeHandler(deps.Recipes, deps.Recommend, deps.Auth, log).RegisterRoutes(v1)
	api.NewTaxonomyHandler(deps.Allergens, deps.Dietary).RegisterRoutes(v1)

	return &Server{router: router, cfg: cfg, log: log}
}

// Router exposes the gin engine, mainly for handler tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start serves until SIGINT/SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:    s.cfg.ServerHost + ":" + s.cfg.ServerPort,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		s.log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.http.Shutdown(ctx)
}

// Stop shuts the HTTP server down, if it was started.
func (s *Server) Stop(ctx context.Context) error {
	if s.http != nil {
		return s.http.Shutdown(ctx)
	}
	return nil
}

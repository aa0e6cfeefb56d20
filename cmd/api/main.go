package main

import (
	"log"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/resepku/backend/config"
	"github.com/resepku/backend/internal/database"
	"github.com/resepku/backend/internal/logger"
	"github.com/resepku/backend/internal/server"
	"github.com/resepku/backend/internal/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	db, err := database.New(cfg, zlog)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}

	redisClient, err := database.NewRedisClient(cfg, zlog)
	if err != nil {
		// The pipeline degrades without Redis; caching still works via
		// Postgres fingerprints.
		zlog.Warn("redis unavailable, continuing without it", zap.Error(err))
		redisClient = nil
	}

	allergens := service.NewAllergenService(zlog)
	dietary := service.NewDietaryService(zlog)
	safety := service.NewSafetyService(zlog, rand.New(rand.NewSource(time.Now().UnixNano())))
	llm := service.NewLLMService(cfg, dietary, zlog)
	embedder := service.NewEmbeddingService(cfg, zlog)

	recipes := service.NewRecipeService(db, redisClient, llm, embedder, allergens, dietary, safety, zlog)
	recipes.StrictDietary = cfg.StrictDietary
	recipes.GenerationLock = cfg.GenerationLock

	recommend := service.NewRecommendationService(recipes, allergens, dietary, zlog)
	auth := service.NewAuthService(db, cfg.JWTSecret, zlog)

	srv := server.New(cfg, server.Deps{
		Recipes:   recipes,
		Recommend: recommend,
		Auth:      auth,
		Allergens: allergens,
		Dietary:   dietary,
		Redis:     redisClient,
	}, zlog)

	if err := srv.Start(); err != nil {
		zlog.Fatal("server error", zap.Error(err))
	}
}

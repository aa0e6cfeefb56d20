package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/resepku/backend/internal/model"
)

// RecipeGenerator produces recipe candidates for a generation request. The
// contract cannot fail: implementations fall back to deterministic stubs.
type RecipeGenerator interface {
	GenerateRecipes(ctx context.Context, req GenerateRequest) []GeneratedRecipe
}

// Embedder turns text into fixed-dimension vectors. A nil/error result means
// "no embedding available" to pipeline callers.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	GenerateRecipeEmbedding(ctx context.Context, title, description string, ingredients, tags []string) ([]float32, error)
}

// IRecipeService is the store-plus-pipeline surface consumed by handlers.
type IRecipeService interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
	FindAll(ctx context.Context) ([]*model.Recipe, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Recipe, error)
	Search(ctx context.Context, params SearchParams) ([]*model.Recipe, int64, error)
	RateRecipe(ctx context.Context, id uuid.UUID, rating float64) (*model.Recipe, error)
	SetSaved(ctx context.Context, id uuid.UUID, saved bool, userID *uuid.UUID) (*model.Recipe, error)
	FindSaved(ctx context.Context, userID *uuid.UUID) ([]*model.Recipe, error)
}

// IRecommendationService answers similarity and alternatives queries.
type IRecommendationService interface {
	FindSimilarRecipes(ctx context.Context, id uuid.UUID, limit int) ([]SimilarRecipe, error)
	FindAlternatives(ctx context.Context, ingredients, allergies, preferences []string, limit int) ([]AlternativeRecipe, error)
}

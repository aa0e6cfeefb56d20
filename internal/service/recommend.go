package service

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/resepku/backend/internal/model"
)

// recommendStore is the slice of the recipe store the recommendation engine
// reads from.
type recommendStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Recipe, error)
	FindAllWithEmbeddings(ctx context.Context) ([]*model.Recipe, error)
}

// RecommendationService answers "similar recipes" queries over persisted
// embeddings and "alternatives" queries over ingredient overlap.
type RecommendationService struct {
	store     recommendStore
	allergens *AllergenService
	dietary   *DietaryService
	log       *zap.Logger
}

func NewRecommendationService(store recommendStore, allergens *AllergenService, dietary *DietaryService, log *zap.Logger) *RecommendationService {
	return &RecommendationService{
		store:     store,
		allergens: allergens,
		dietary:   dietary,
		log:       log,
	}
}

// FindSimilarRecipes ranks persisted recipes by cosine similarity to the
// target. A target without an embedding yields an empty list; similarity is
// undefined without one. An absent target yields (nil, nil).
func (s *RecommendationService) FindSimilarRecipes(ctx context.Context, id uuid.UUID, limit int) ([]SimilarRecipe, error) {
	target, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, nil
	}
	if !target.HasEmbedding() {
		s.log.Debug("target recipe has no embedding", zap.String("id", id.String()))
		return []SimilarRecipe{}, nil
	}

	embedded, err := s.store.FindAllWithEmbeddings(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*model.Recipe, len(embedded))
	candidates := make([]EmbeddingCandidate, 0, len(embedded))
	for _, recipe := range embedded {
		if recipe.ID == target.ID || !recipe.HasEmbedding() {
			continue
		}
		byID[recipe.ID.String()] = recipe
		candidates = append(candidates, EmbeddingCandidate{
			ID:        recipe.ID.String(),
			Embedding: recipe.Embedding.Slice(),
		})
	}

	ranked, err := FindSimilar(target.Embedding.Slice(), candidates, limit)
	if err != nil {
		// Dimension mismatch means inconsistent embedding configuration;
		// fail loudly.
		return nil, err
	}

	similar := make([]SimilarRecipe, 0, len(ranked))
	for _, r := range ranked {
		similar = append(similar, SimilarRecipe{Recipe: byID[r.ID], Similarity: r.Similarity})
	}
	return similar, nil
}

// FindAlternatives scores stored recipes by the fraction of the queried
// ingredients they cover, after excluding recipes that contain a queried
// allergen or violate a requested dietary preference. Zero-score recipes are
// dropped; ties keep retrieval order.
func (s *RecommendationService) FindAlternatives(ctx context.Context, ingredients, allergies, preferences []string, limit int) ([]AlternativeRecipe, error) {
	if len(ingredients) == 0 {
		return []AlternativeRecipe{}, nil
	}

	stored, err := s.store.FindAllWithEmbeddings(ctx)
	if err != nil {
		return nil, err
	}

	var alternatives []AlternativeRecipe
	for _, recipe := range stored {
		ingredientText := strings.Join(recipe.Ingredients, " ")

		if len(allergies) > 0 {
			if check := s.allergens.ContainsAllergen(ingredientText, allergies); check.Found {
				continue
			}
		}
		if len(preferences) > 0 {
			if compliance := s.dietary.CheckCompliance(recipe.Ingredients, preferences); !compliance.Compliant {
				continue
			}
		}

		score := matchScore(ingredients, recipe.Ingredients)
		if score == 0 {
			continue
		}
		alternatives = append(alternatives, AlternativeRecipe{Recipe: recipe, MatchScore: score})
	}

	sort.SliceStable(alternatives, func(i, j int) bool {
		return alternatives[i].MatchScore > alternatives[j].MatchScore
	})

	if limit > 0 && len(alternatives) > limit {
		alternatives = alternatives[:limit]
	}
	return alternatives, nil
}

// matchScore is the integer percentage of query ingredients that fuzzy-match
// (bidirectional substring, case-insensitive) one of the recipe's
// ingredients.
func matchScore(query, recipeIngredients []string) int {
	matches := 0
	for _, q := range query {
		needle := strings.ToLower(strings.TrimSpace(q))
		if needle == "" {
			continue
		}
		for _, ingredient := range recipeIngredients {
			hay := strings.ToLower(ingredient)
			if strings.Contains(hay, needle) || strings.Contains(needle, hay) {
				matches++
				break
			}
		}
	}
	return int(math.Round(float64(matches) / float64(len(query)) * 100))
}

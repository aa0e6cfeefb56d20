package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/resepku/backend/internal/model"
)

// fakeStore serves recipes from memory.
type fakeStore struct {
	recipes []*model.Recipe
}

func (f *fakeStore) FindByID(ctx context.Context, id uuid.UUID) (*model.Recipe, error) {
	for _, r := range f.recipes {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) FindAllWithEmbeddings(ctx context.Context) ([]*model.Recipe, error) {
	var embedded []*model.Recipe
	for _, r := range f.recipes {
		if r.HasEmbedding() {
			embedded = append(embedded, r)
		}
	}
	return embedded, nil
}

func embeddedRecipe(title string, embedding []float32, ingredients ...string) *model.Recipe {
	var vec *pgvector.Vector
	if embedding != nil {
		v := pgvector.NewVector(embedding)
		vec = &v
	}
	return &model.Recipe{
		ID:          uuid.New(),
		Title:       title,
		Ingredients: model.JSONBStringArray(ingredients),
		Embedding:   vec,
	}
}

func newRecommendService(store recommendStore) *RecommendationService {
	log := zap.NewNop()
	return NewRecommendationService(store, NewAllergenService(log), NewDietaryService(log), log)
}

func TestRecommendationService_FindSimilarRecipes(t *testing.T) {
	ctx := context.Background()

	target := embeddedRecipe("Nasi Goreng", []float32{1, 0, 0}, "nasi")
	close1 := embeddedRecipe("Nasi Goreng Kampung", []float32{0.9, 0.1, 0}, "nasi")
	far := embeddedRecipe("Es Campur", []float32{0, 0, 1}, "es batu")
	noEmbedding := embeddedRecipe("Rawon", nil, "daging sapi")

	store := &fakeStore{recipes: []*model.Recipe{target, close1, far, noEmbedding}}
	svc := newRecommendService(store)

	t.Run("ranks by similarity and excludes the target", func(t *testing.T) {
		similar, err := svc.FindSimilarRecipes(ctx, target.ID, 10)

		require.NoError(t, err)
		require.Len(t, similar, 2)
		assert.Equal(t, "Nasi Goreng Kampung", similar[0].Recipe.Title)
		assert.Equal(t, "Es Campur", similar[1].Recipe.Title)
		assert.Greater(t, similar[0].Similarity, similar[1].Similarity)
	})

	t.Run("respects the limit", func(t *testing.T) {
		similar, err := svc.FindSimilarRecipes(ctx, target.ID, 1)

		require.NoError(t, err)
		assert.Len(t, similar, 1)
	})

	t.Run("returns empty list when target has no embedding", func(t *testing.T) {
		similar, err := svc.FindSimilarRecipes(ctx, noEmbedding.ID, 10)

		require.NoError(t, err)
		assert.NotNil(t, similar)
		assert.Empty(t, similar)
	})

	t.Run("returns nil for unknown target", func(t *testing.T) {
		similar, err := svc.FindSimilarRecipes(ctx, uuid.New(), 10)

		require.NoError(t, err)
		assert.Nil(t, similar)
	})

	t.Run("fails on inconsistent embedding dimensions", func(t *testing.T) {
		bad := embeddedRecipe("Rusak", []float32{1, 2}, "entah")
		badStore := &fakeStore{recipes: []*model.Recipe{target, bad}}

		_, err := newRecommendService(badStore).FindSimilarRecipes(ctx, target.ID, 10)

		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})
}

func TestRecommendationService_FindAlternatives(t *testing.T) {
	ctx := context.Background()

	full := embeddedRecipe("Tumis Ayam Kangkung", []float32{1, 0}, "500g ayam fillet", "1 ikat kangkung")
	partial := embeddedRecipe("Sup Ayam", []float32{0, 1}, "300g ayam", "wortel")
	unrelated := embeddedRecipe("Es Teh", []float32{1, 1}, "teh", "gula")
	withShrimp := embeddedRecipe("Tumis Udang Kangkung", []float32{1, 1}, "250g udang", "kangkung")

	store := &fakeStore{recipes: []*model.Recipe{full, partial, unrelated, withShrimp}}
	svc := newRecommendService(store)

	t.Run("scores full coverage at 100", func(t *testing.T) {
		alternatives, err := svc.FindAlternatives(ctx, []string{"ayam", "kangkung"}, nil, nil, 10)

		require.NoError(t, err)
		require.NotEmpty(t, alternatives)
		assert.Equal(t, "Tumis Ayam Kangkung", alternatives[0].Recipe.Title)
		assert.Equal(t, 100, alternatives[0].MatchScore)
	})

	t.Run("scores partial coverage proportionally", func(t *testing.T) {
		alternatives, err := svc.FindAlternatives(ctx, []string{"ayam", "kangkung"}, nil, nil, 10)

		require.NoError(t, err)
		var supScore int
		for _, alt := range alternatives {
			if alt.Recipe.Title == "Sup Ayam" {
				supScore = alt.MatchScore
			}
		}
		assert.Equal(t, 50, supScore)
	})

	t.Run("drops zero-score recipes", func(t *testing.T) {
		alternatives, err := svc.FindAlternatives(ctx, []string{"ayam", "kangkung"}, nil, nil, 10)

		require.NoError(t, err)
		for _, alt := range alternatives {
			assert.NotEqual(t, "Es Teh", alt.Recipe.Title)
		}
	})

	t.Run("excludes recipes containing allergens", func(t *testing.T) {
		alternatives, err := svc.FindAlternatives(ctx, []string{"kangkung"}, []string{"udang"}, nil, 10)

		require.NoError(t, err)
		for _, alt := range alternatives {
			assert.NotEqual(t, "Tumis Udang Kangkung", alt.Recipe.Title)
		}
	})

	t.Run("applies dietary preferences", func(t *testing.T) {
		alternatives, err := svc.FindAlternatives(ctx, []string{"kangkung"}, nil, []string{"vegetarian"}, 10)

		require.NoError(t, err)
		for _, alt := range alternatives {
			assert.NotContains(t, []string{"Tumis Ayam Kangkung", "Tumis Udang Kangkung"}, alt.Recipe.Title)
		}
	})

	t.Run("respects the limit", func(t *testing.T) {
		alternatives, err := svc.FindAlternatives(ctx, []string{"ayam"}, nil, nil, 1)

		require.NoError(t, err)
		assert.Len(t, alternatives, 1)
	})

	t.Run("returns empty for no ingredients", func(t *testing.T) {
		alternatives, err := svc.FindAlternatives(ctx, nil, nil, nil, 10)

		require.NoError(t, err)
		assert.Empty(t, alternatives)
	})
}

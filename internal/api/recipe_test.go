package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/resepku/backend/internal/model"
	"github.com/resepku/backend/internal/service"
	"github.com/resepku/backend/internal/types"
)

type fakeRecipeService struct {
	generateFn func(ctx context.Context, req service.GenerateRequest) (*service.GenerateResponse, error)
	findByIDFn func(ctx context.Context, id uuid.UUID) (*model.Recipe, error)
	searchFn   func(ctx context.Context, params service.SearchParams) ([]*model.Recipe, int64, error)
	rateFn     func(ctx context.Context, id uuid.UUID, rating float64) (*model.Recipe, error)
}

func (f *fakeRecipeService) Generate(ctx context.Context, req service.GenerateRequest) (*service.GenerateResponse, error) {
	return f.generateFn(ctx, req)
}

func (f *fakeRecipeService) FindAll(ctx context.Context) ([]*model.Recipe, error) {
	return nil, nil
}

func (f *fakeRecipeService) FindByID(ctx context.Context, id uuid.UUID) (*model.Recipe, error) {
	if f.findByIDFn == nil {
		return nil, nil
	}
	return f.findByIDFn(ctx, id)
}

func (f *fakeRecipeService) Search(ctx context.Context, params service.SearchParams) ([]*model.Recipe, int64, error) {
	if f.searchFn == nil {
		return nil, 0, nil
	}
	return f.searchFn(ctx, params)
}

func (f *fakeRecipeService) RateRecipe(ctx context.Context, id uuid.UUID, rating float64) (*model.Recipe, error) {
	if f.rateFn == nil {
		return nil, nil
	}
	return f.rateFn(ctx, id, rating)
}

func (f *fakeRecipeService) SetSaved(ctx context.Context, id uuid.UUID, saved bool, userID *uuid.UUID) (*model.Recipe, error) {
	return nil, nil
}

func (f *fakeRecipeService) FindSaved(ctx context.Context, userID *uuid.UUID) ([]*model.Recipe, error) {
	return nil, nil
}

type fakeRecommendService struct {
	similarFn      func(ctx context.Context, id uuid.UUID, limit int) ([]service.SimilarRecipe, error)
	alternativesFn func(ctx context.Context, ingredients, allergies, preferences []string, limit int) ([]service.AlternativeRecipe, error)
}

func (f *fakeRecommendService) FindSimilarRecipes(ctx context.Context, id uuid.UUID, limit int) ([]service.SimilarRecipe, error) {
	return f.similarFn(ctx, id, limit)
}

func (f *fakeRecommendService) FindAlternatives(ctx context.Context, ingredients, allergies, preferences []string, limit int) ([]service.AlternativeRecipe, error) {
	return f.alternativesFn(ctx, ingredients, allergies, preferences, limit)
}

type staticValidator struct{}

func (staticValidator) ValidateToken(token string) (*types.TokenClaims, error) {
	return &types.TokenClaims{UserID: uuid.New()}, nil
}

func newRecipeTestRouter(recipes service.IRecipeService, recommend service.IRecommendationService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewRecipeHandler(recipes, recommend, staticValidator{}, zap.NewNop())
	handler.RegisterRoutes(router.Group("/api/v1"))
	return router
}

func TestRecipeHandler_GenerateRecipes(t *testing.T) {
	t.Run("returns pipeline response", func(t *testing.T) {
		recipes := &fakeRecipeService{
			generateFn: func(ctx context.Context, req service.GenerateRequest) (*service.GenerateResponse, error) {
				assert.Equal(t, []string{"ayam", "kangkung"}, req.Ingredients)
				return &service.GenerateResponse{
					Recipes:     []*model.Recipe{{ID: uuid.New(), Title: "Tumis Ayam"}},
					Cached:      false,
					Fingerprint: "deadbeefdeadbeef",
					GeneratedAt: time.Now(),
				}, nil
			},
		}
		router := newRecipeTestRouter(recipes, &fakeRecommendService{})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/recipes/generate",
			strings.NewReader(`{"ingredients":["ayam","kangkung"]}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Cached      bool   `json:"cached"`
			Fingerprint string `json:"fingerprint"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.False(t, body.Cached)
		assert.Equal(t, "deadbeefdeadbeef", body.Fingerprint)
	})

	t.Run("rejects empty ingredient list", func(t *testing.T) {
		router := newRecipeTestRouter(&fakeRecipeService{}, &fakeRecommendService{})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/recipes/generate",
			strings.NewReader(`{"ingredients":[]}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects invalid difficulty", func(t *testing.T) {
		router := newRecipeTestRouter(&fakeRecipeService{}, &fakeRecommendService{})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/recipes/generate",
			strings.NewReader(`{"ingredients":["ayam"],"difficulty":"impossible"}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRecipeHandler_GetRecipe(t *testing.T) {
	stored := &model.Recipe{ID: uuid.New(), Title: "Rendang"}
	recipes := &fakeRecipeService{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*model.Recipe, error) {
			if id == stored.ID {
				return stored, nil
			}
			return nil, nil
		},
	}
	router := newRecipeTestRouter(recipes, &fakeRecommendService{})

	t.Run("returns stored recipe", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/recipes/"+stored.ID.String(), nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Rendang")
	})

	t.Run("404s unknown id", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/recipes/"+uuid.NewString(), nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("400s malformed id", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/recipes/not-a-uuid", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRecipeHandler_GetAlternatives(t *testing.T) {
	t.Run("parses query parameters", func(t *testing.T) {
		recommend := &fakeRecommendService{
			alternativesFn: func(ctx context.Context, ingredients, allergies, preferences []string, limit int) ([]service.AlternativeRecipe, error) {
				assert.Equal(t, []string{"ayam", "kangkung"}, ingredients)
				assert.Equal(t, []string{"udang"}, allergies)
				assert.Equal(t, 3, limit)
				return []service.AlternativeRecipe{}, nil
			},
		}
		router := newRecipeTestRouter(&fakeRecipeService{}, recommend)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet,
			"/api/v1/recipes/alternatives?ingredients=ayam,kangkung&allergies=udang&limit=3", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("requires ingredients", func(t *testing.T) {
		router := newRecipeTestRouter(&fakeRecipeService{}, &fakeRecommendService{})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/recipes/alternatives", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRecipeHandler_RateRecipe(t *testing.T) {
	stored := &model.Recipe{ID: uuid.New(), Title: "Rendang", Rating: 4.5, RatingCount: 2}
	recipes := &fakeRecipeService{
		rateFn: func(ctx context.Context, id uuid.UUID, rating float64) (*model.Recipe, error) {
			assert.Equal(t, 5.0, rating)
			return stored, nil
		},
	}
	router := newRecipeTestRouter(recipes, &fakeRecommendService{})

	t.Run("accepts a valid rating", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/recipes/"+stored.ID.String()+"/rating",
			strings.NewReader(`{"rating":5}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rejects an out-of-range rating", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/recipes/"+stored.ID.String()+"/rating",
			strings.NewReader(`{"rating":6}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

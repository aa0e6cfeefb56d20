package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/resepku/backend/config"
	"github.com/resepku/backend/internal/model"
)

func stubConfig() *config.Config {
	return &config.Config{
		GeminiModel:    "gemini-1.5-flash",
		EmbeddingModel: "text-embedding-004",
		LLMTimeout:     5 * time.Second,
		EmbedTimeout:   5 * time.Second,
	}
}

func geminiTextResponse(text string) string {
	body, _ := json.Marshal(map[string]interface{}{
		"candidates": []map[string]interface{}{
			{"content": map[string]interface{}{"parts": []map[string]string{{"text": text}}}},
		},
	})
	return string(body)
}

func newTestLLMService(serverURL string) *LLMService {
	return &LLMService{
		apiKey:  "test-key",
		model:   "gemini-1.5-flash",
		baseURL: serverURL,
		client:  &http.Client{Timeout: 5 * time.Second},
		dietary: NewDietaryService(zap.NewNop()),
		log:     zap.NewNop(),
	}
}

func TestLLMService_StubMode(t *testing.T) {
	svc := NewLLMService(stubConfig(), NewDietaryService(zap.NewNop()), zap.NewNop())

	req := GenerateRequest{
		Ingredients: []string{"ayam", "bawang putih"},
		MaxTime:     30,
		Difficulty:  "easy",
	}

	recipes := svc.GenerateRecipes(context.Background(), req)

	require.Len(t, recipes, 3)
	assert.Equal(t, "Tumis ayam Spesial", recipes[0].Title)
	assert.Equal(t, "Sup ayam Rumahan", recipes[1].Title)
	assert.Equal(t, "ayam Panggang Madu", recipes[2].Title)
	assert.Equal(t, 30, recipes[0].EstimatedTime)
	assert.Equal(t, 40, recipes[1].EstimatedTime)
	assert.Equal(t, 45, recipes[2].EstimatedTime)
	assert.Equal(t, "easy", recipes[0].Difficulty)

	// Stub output is deterministic.
	again := svc.GenerateRecipes(context.Background(), req)
	assert.Equal(t, recipes, again)
}

func TestLLMService_GenerateRecipes(t *testing.T) {
	recipeJSON := `[{"title":"Ayam Goreng","description":"Ayam goreng renyah","ingredients":["500g ayam"],"steps":["Goreng ayam"],"estimatedTime":25,"difficulty":"easy","safetyNotes":[],"tags":["fried"]}]`

	t.Run("parses API response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Contains(t, r.URL.Path, "generateContent")
			w.Write([]byte(geminiTextResponse(recipeJSON)))
		}))
		defer server.Close()

		svc := newTestLLMService(server.URL)
		recipes := svc.GenerateRecipes(context.Background(), GenerateRequest{Ingredients: []string{"ayam"}})

		require.Len(t, recipes, 1)
		assert.Equal(t, "Ayam Goreng", recipes[0].Title)
		assert.Equal(t, 25, recipes[0].EstimatedTime)
	})

	t.Run("strips markdown code fences", func(t *testing.T) {
		fenced := "```json\n" + recipeJSON + "\n```"
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(geminiTextResponse(fenced)))
		}))
		defer server.Close()

		svc := newTestLLMService(server.URL)
		recipes := svc.GenerateRecipes(context.Background(), GenerateRequest{Ingredients: []string{"ayam"}})

		require.Len(t, recipes, 1)
		assert.Equal(t, "Ayam Goreng", recipes[0].Title)
	})

	t.Run("falls back to stubs on API error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "quota exceeded", http.StatusTooManyRequests)
		}))
		defer server.Close()

		svc := newTestLLMService(server.URL)
		recipes := svc.GenerateRecipes(context.Background(), GenerateRequest{Ingredients: []string{"tempe"}})

		require.Len(t, recipes, 3)
		assert.Contains(t, recipes[0].Title, "Tumis")
	})

	t.Run("falls back to stubs on unparseable response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(geminiTextResponse("Maaf, saya tidak bisa membuat resep.")))
		}))
		defer server.Close()

		svc := newTestLLMService(server.URL)
		recipes := svc.GenerateRecipes(context.Background(), GenerateRequest{Ingredients: []string{"tempe"}})

		require.Len(t, recipes, 3)
	})
}

func TestParseGeneratedRecipes(t *testing.T) {
	t.Run("normalizes malformed fields", func(t *testing.T) {
		raw := `[{"title":null,"ingredients":"bukan array","steps":["Langkah 1"],"estimatedTime":"tiga puluh","difficulty":"super hard"}]`

		recipes, err := parseGeneratedRecipes(raw)

		require.NoError(t, err)
		require.Len(t, recipes, 1)
		assert.Equal(t, "Resep Tanpa Nama", recipes[0].Title)
		assert.Empty(t, recipes[0].Ingredients)
		assert.Equal(t, []string{"Langkah 1"}, recipes[0].Steps)
		assert.Equal(t, 30, recipes[0].EstimatedTime)
		assert.Equal(t, model.DifficultyMedium, recipes[0].Difficulty)
	})

	t.Run("rejects non-array payloads", func(t *testing.T) {
		_, err := parseGeneratedRecipes(`{"title":"bukan array"}`)
		assert.Error(t, err)
	})

	t.Run("truncates fractional estimated time", func(t *testing.T) {
		recipes, err := parseGeneratedRecipes(`[{"title":"A","estimatedTime":22.7}]`)

		require.NoError(t, err)
		assert.Equal(t, 22, recipes[0].EstimatedTime)
	})
}

func TestLLMService_BuildPrompt(t *testing.T) {
	svc := NewLLMService(stubConfig(), NewDietaryService(zap.NewNop()), zap.NewNop())

	t.Run("includes constraints and ingredients", func(t *testing.T) {
		prompt := svc.buildPrompt(GenerateRequest{
			Ingredients: []string{"ayam", "cabai"},
			MaxTime:     45,
			Difficulty:  "easy",
			Allergies:   []string{"udang"},
		})

		assert.Contains(t, prompt, "- ayam")
		assert.Contains(t, prompt, "- cabai")
		assert.Contains(t, prompt, "Waktu maksimal: 45 menit")
		assert.Contains(t, prompt, "Tingkat kesulitan: easy")
		assert.Contains(t, prompt, "udang")
	})

	t.Run("injects dietary rules", func(t *testing.T) {
		prompt := svc.buildPrompt(GenerateRequest{
			Ingredients: []string{"tahu"},
			Preferences: []string{"vegan"},
		})

		assert.Contains(t, prompt, "ATURAN DIET")
		assert.Contains(t, prompt, "vegan")
	})

	t.Run("includes cuisine only when set", func(t *testing.T) {
		with := svc.buildPrompt(GenerateRequest{Ingredients: []string{"tahu"}, Cuisine: "padang"})
		without := svc.buildPrompt(GenerateRequest{Ingredients: []string{"tahu"}})

		assert.Contains(t, with, "Jenis masakan: padang")
		assert.False(t, strings.Contains(without, "Jenis masakan"))
	})

	t.Run("applies defaults for omitted constraints", func(t *testing.T) {
		prompt := svc.buildPrompt(GenerateRequest{Ingredients: []string{"tahu"}})

		assert.Contains(t, prompt, "Tingkat kesulitan: any")
		assert.Contains(t, prompt, "Waktu maksimal: 60 menit")
	})
}

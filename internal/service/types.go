package service

import (
	"time"

	"github.com/resepku/backend/internal/model"
)

// GenerateRequest describes one recipe-generation call. It is treated as
// immutable once issued; list ordering and casing do not matter for caching.
type GenerateRequest struct {
	Ingredients []string `json:"ingredients" binding:"required,min=1"`
	MaxTime     int      `json:"maxTime,omitempty"`
	Difficulty  string   `json:"difficulty,omitempty" binding:"omitempty,oneof=easy medium hard"`
	Allergies   []string `json:"allergies,omitempty"`
	Preferences []string `json:"preferences,omitempty"`
	Cuisine     string   `json:"cuisine,omitempty"`
}

// GeneratedRecipe is a recipe candidate produced by the generation adapter,
// prior to post-processing and persistence.
type GeneratedRecipe struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Ingredients   []string `json:"ingredients"`
	Steps         []string `json:"steps"`
	EstimatedTime int      `json:"estimatedTime"`
	Difficulty    string   `json:"difficulty"`
	SafetyNotes   []string `json:"safetyNotes"`
	Tags          []string `json:"tags"`
	Cuisine       string   `json:"cuisine,omitempty"`
}

// GenerateResponse is the pipeline result for one generation call.
type GenerateResponse struct {
	Recipes     []*model.Recipe `json:"recipes"`
	Cached      bool            `json:"cached"`
	Fingerprint string          `json:"fingerprint"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// SimilarRecipe pairs a recipe with its cosine similarity to the target.
type SimilarRecipe struct {
	Recipe     *model.Recipe `json:"recipe"`
	Similarity float64       `json:"similarity"`
}

// AlternativeRecipe pairs a recipe with its ingredient-overlap match score
// (an integer percentage of the queried ingredients it covers).
type AlternativeRecipe struct {
	Recipe     *model.Recipe `json:"recipe"`
	MatchScore int           `json:"match_score"`
}

// SearchParams filter and page the recipe listing.
type SearchParams struct {
	Query      string
	Difficulty string
	MaxTime    int
	Tags       []string
	SortBy     string
	Order      string
	Limit      int
	Offset     int
}

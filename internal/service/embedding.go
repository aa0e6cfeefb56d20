package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/resepku/backend/config"
)

// ErrEmbeddingNotConfigured is returned when no API key is set. Callers
// treat it as "no embedding available", not as a failure.
var ErrEmbeddingNotConfigured = errors.New("embedding service not configured")

// ErrDimensionMismatch indicates inconsistent embedding configuration and is
// never recovered from.
var ErrDimensionMismatch = errors.New("embeddings must have the same dimension")

type embedContentRequest struct {
	Content geminiContent `json:"content"`
}

type embedContentResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

// EmbeddingCandidate is one entry ranked by FindSimilar.
type EmbeddingCandidate struct {
	ID        string
	Embedding []float32
}

// RankedCandidate is a candidate with its similarity to the target.
type RankedCandidate struct {
	ID         string
	Similarity float64
}

// EmbeddingService wraps the Gemini embedding API and the similarity math.
type EmbeddingService struct {
	apiKey string
	model  string
	client *resty.Client
	log    *zap.Logger
}

func NewEmbeddingService(cfg *config.Config, log *zap.Logger) *EmbeddingService {
	if cfg.GeminiAPIKey == "" {
		log.Warn("GEMINI_API_KEY not set, embedding features will be disabled")
	}
	return &EmbeddingService{
		apiKey: cfg.GeminiAPIKey,
		model:  cfg.EmbeddingModel,
		client: resty.New().SetBaseURL(geminiBaseURL).SetTimeout(cfg.EmbedTimeout),
		log:    log,
	}
}

// GenerateEmbedding embeds a single text. It returns
// ErrEmbeddingNotConfigured when no API key is set and a wrapped transport
// error on transient failure; callers decide whether either is fatal (the
// pipeline treats both as "no embedding").
func (s *EmbeddingService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if s.apiKey == "" {
		return nil, ErrEmbeddingNotConfigured
	}

	var result embedContentResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("key", s.apiKey).
		SetBody(embedContentRequest{Content: geminiContent{Parts: []geminiPart{{Text: text}}}}).
		SetResult(&result).
		Post(fmt.Sprintf("/models/%s:embedContent", s.model))
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("embedding request failed with status %d: %s", resp.StatusCode(), resp.String())
	}
	if len(result.Embedding.Values) == 0 {
		return nil, fmt.Errorf("embedding response contained no values")
	}

	return result.Embedding.Values, nil
}

// GenerateRecipeEmbedding embeds a recipe by combining its title,
// description, ingredient summary and tag summary.
func (s *EmbeddingService) GenerateRecipeEmbedding(ctx context.Context, title, description string, ingredients, tags []string) ([]float32, error) {
	parts := []string{title, description}
	if len(ingredients) > 0 {
		parts = append(parts, "Bahan: "+strings.Join(ingredients, ", "))
	}
	if len(tags) > 0 {
		parts = append(parts, "Tags: "+strings.Join(tags, ", "))
	}

	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}

	return s.GenerateEmbedding(ctx, strings.Join(nonEmpty, ". "))
}

// CosineSimilarity computes dot(a,b)/(|a|*|b|). Vectors of unequal length
// are a contract violation; a zero-norm vector yields 0, never a division by
// zero.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// FindSimilar ranks the candidates by cosine similarity to the target,
// descending, preserving candidate order among equal scores, and returns the
// first topK.
func FindSimilar(target []float32, candidates []EmbeddingCandidate, topK int) ([]RankedCandidate, error) {
	ranked := make([]RankedCandidate, 0, len(candidates))
	for _, candidate := range candidates {
		similarity, err := CosineSimilarity(target, candidate.Embedding)
		if err != nil {
			return nil, err
		}
		ranked = append(ranked, RankedCandidate{ID: candidate.ID, Similarity: similarity})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Similarity > ranked[j].Similarity
	})

	if topK > 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked, nil
}

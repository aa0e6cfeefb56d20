package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/resepku/backend/internal/model"
)

const (
	generationLockTTL  = 30 * time.Second
	generationLockPoll = 500 * time.Millisecond
	generationLockWait = 5 * time.Second
)

// RecipeService owns recipe persistence and the generation pipeline:
// fingerprint, cache probe, generation, allergen filter, dietary tagging,
// safety annotation, embedding, persistence.
type RecipeService struct {
	db        *gorm.DB
	redis     *redis.Client // nil when redis is not configured
	generator RecipeGenerator
	embedder  Embedder
	allergens *AllergenService
	dietary   *DietaryService
	safety    *SafetyService
	log       *zap.Logger

	// StrictDietary drops non-compliant candidates instead of keeping them
	// untagged. GenerationLock turns on the per-fingerprint advisory lock.
	StrictDietary  bool
	GenerationLock bool
}

// NewRecipeService creates a new RecipeService instance.
func NewRecipeService(
	db *gorm.DB,
	redisClient *redis.Client,
	generator RecipeGenerator,
	embedder Embedder,
	allergens *AllergenService,
	dietary *DietaryService,
	safety *SafetyService,
	log *zap.Logger,
) *RecipeService {
	return &RecipeService{
		db:        db,
		redis:     redisClient,
		generator: generator,
		embedder:  embedder,
		allergens: allergens,
		dietary:   dietary,
		safety:    safety,
		log:       log,
	}
}

// Generate runs the full pipeline for one request. The only errors it can
// return are store failures; generation and embedding failures have already
// been reduced to fallbacks.
func (s *RecipeService) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	fingerprint := Fingerprint(req)
	log := s.log.With(zap.String("fingerprint", fingerprint))

	cached, err := s.FindByFingerprint(ctx, fingerprint)
	if err != nil {
		return nil, err
	}
	if len(cached) > 0 {
		log.Info("cache hit", zap.Int("recipes", len(cached)))
		return &GenerateResponse{
			Recipes:     cached,
			Cached:      true,
			Fingerprint: fingerprint,
			GeneratedAt: time.Now(),
		}, nil
	}

	if s.GenerationLock && s.redis != nil {
		acquired, recipes, err := s.acquireGenerationLock(ctx, fingerprint)
		if err != nil {
			return nil, err
		}
		if recipes != nil {
			log.Info("cache filled by concurrent generation", zap.Int("recipes", len(recipes)))
			return &GenerateResponse{
				Recipes:     recipes,
				Cached:      true,
				Fingerprint: fingerprint,
				GeneratedAt: time.Now(),
			}, nil
		}
		if acquired {
			defer s.releaseGenerationLock(fingerprint)
		}
	}

	log.Info("cache miss, generating new recipes")
	candidates := s.generator.GenerateRecipes(ctx, req)

	candidates = s.filterAllergens(candidates, req.Allergies, log)
	candidates = s.applyDietary(candidates, req.Preferences, log)
	s.annotateSafety(candidates)

	recipes := make([]*model.Recipe, 0, len(candidates))
	for _, candidate := range candidates {
		recipes = append(recipes, s.toModel(ctx, candidate, req, fingerprint))
	}

	if err := s.CreateMany(ctx, recipes); err != nil {
		return nil, err
	}

	return &GenerateResponse{
		Recipes:     recipes,
		Cached:      false,
		Fingerprint: fingerprint,
		GeneratedAt: time.Now(),
	}, nil
}

// filterAllergens drops every candidate the allergen validator marks unsafe.
// An empty result is returned as-is; there is no retry with relaxed
// constraints.
func (s *RecipeService) filterAllergens(candidates []GeneratedRecipe, allergies []string, log *zap.Logger) []GeneratedRecipe {
	if len(allergies) == 0 {
		return candidates
	}
	kept := make([]GeneratedRecipe, 0, len(candidates))
	for _, candidate := range candidates {
		validation := s.allergens.ValidateRecipe(candidate.Title, candidate.Description, candidate.Ingredients, allergies)
		if !validation.IsSafe {
			log.Warn("dropping candidate containing allergens",
				zap.String("title", candidate.Title),
				zap.Strings("warnings", validation.Warnings))
			continue
		}
		kept = append(kept, candidate)
	}
	return kept
}

// applyDietary union-merges the required tags into compliant candidates.
// Non-compliant candidates are kept and logged unless StrictDietary is on.
func (s *RecipeService) applyDietary(candidates []GeneratedRecipe, preferences []string, log *zap.Logger) []GeneratedRecipe {
	if len(preferences) == 0 {
		return candidates
	}
	requiredTags := s.dietary.RequiredTags(preferences)
	kept := make([]GeneratedRecipe, 0, len(candidates))
	for _, candidate := range candidates {
		compliance := s.dietary.CheckCompliance(candidate.Ingredients, preferences)
		if compliance.Compliant {
			candidate.Tags = mergeTags(candidate.Tags, requiredTags)
			kept = append(kept, candidate)
			continue
		}
		log.Warn("candidate violates dietary preferences",
			zap.String("title", candidate.Title),
			zap.Strings("violations", compliance.Violations))
		if !s.StrictDietary {
			kept = append(kept, candidate)
		}
	}
	return kept
}

// annotateSafety replaces each candidate's notes with the synthesized
// superset; existing notes are preserved inside it.
func (s *RecipeService) annotateSafety(candidates []GeneratedRecipe) {
	for i := range candidates {
		candidates[i].SafetyNotes = s.safety.GenerateSafetyNotes(
			candidates[i].Ingredients, candidates[i].Steps, candidates[i].SafetyNotes)
	}
}

// toModel converts a candidate to a persistable recipe, computing its
// embedding when the embedder can provide one.
func (s *RecipeService) toModel(ctx context.Context, candidate GeneratedRecipe, req GenerateRequest, fingerprint string) *model.Recipe {
	recipe := &model.Recipe{
		Title:            candidate.Title,
		Description:      candidate.Description,
		Ingredients:      candidate.Ingredients,
		Steps:            candidate.Steps,
		EstimatedTime:    candidate.EstimatedTime,
		Difficulty:       candidate.Difficulty,
		SafetyNotes:      candidate.SafetyNotes,
		Tags:             candidate.Tags,
		Cuisine:          strings.TrimSpace(req.Cuisine),
		InputFingerprint: fingerprint,
		IsGenerated:      true,
	}

	values, err := s.embedder.GenerateRecipeEmbedding(ctx, recipe.Title, recipe.Description, recipe.Ingredients, recipe.Tags)
	switch {
	case err == nil:
		vec := pgvector.NewVector(values)
		recipe.Embedding = &vec
	case errors.Is(err, ErrEmbeddingNotConfigured):
		s.log.Debug("embedding not configured, persisting recipe without one", zap.String("title", recipe.Title))
	default:
		s.log.Warn("embedding failed, persisting recipe without one",
			zap.String("title", recipe.Title), zap.Error(err))
	}

	return recipe
}

// acquireGenerationLock takes the per-fingerprint advisory lock. When the
// lock is held elsewhere it polls the cache; a non-nil recipe slice means a
// concurrent run filled it. Losing the race entirely is not an error: the
// caller generates anyway, preserving at-least-once semantics.
func (s *RecipeService) acquireGenerationLock(ctx context.Context, fingerprint string) (bool, []*model.Recipe, error) {
	key := "genlock:" + fingerprint
	ok, err := s.redis.SetNX(ctx, key, 1, generationLockTTL).Result()
	if err != nil {
		s.log.Warn("generation lock unavailable, proceeding without it", zap.Error(err))
		return false, nil, nil
	}
	if ok {
		return true, nil, nil
	}

	deadline := time.Now().Add(generationLockWait)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return false, nil, ctx.Err()
		case <-time.After(generationLockPoll):
		}
		recipes, err := s.FindByFingerprint(ctx, fingerprint)
		if err != nil {
			return false, nil, err
		}
		if len(recipes) > 0 {
			return false, recipes, nil
		}
	}
	return false, nil, nil
}

func (s *RecipeService) releaseGenerationLock(fingerprint string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.redis.Del(ctx, "genlock:"+fingerprint).Err(); err != nil {
		s.log.Warn("failed to release generation lock", zap.Error(err))
	}
}

// FindAll lists every recipe, newest first.
func (s *RecipeService) FindAll(ctx context.Context) ([]*model.Recipe, error) {
	var recipes []model.Recipe
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&recipes).Error; err != nil {
		return nil, err
	}
	return toPointers(recipes), nil
}

// FindByID retrieves a recipe. An absent id yields (nil, nil), not an error.
func (s *RecipeService) FindByID(ctx context.Context, id uuid.UUID) (*model.Recipe, error) {
	var recipe model.Recipe
	err := s.db.WithContext(ctx).First(&recipe, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

// FindByFingerprint is the cache probe: all recipes generated for the given
// fingerprint, newest first.
func (s *RecipeService) FindByFingerprint(ctx context.Context, fingerprint string) ([]*model.Recipe, error) {
	var recipes []model.Recipe
	err := s.db.WithContext(ctx).
		Where("input_fingerprint = ?", fingerprint).
		Order("created_at DESC").
		Find(&recipes).Error
	if err != nil {
		return nil, err
	}
	return toPointers(recipes), nil
}

// FindAllWithEmbeddings returns every recipe that has an embedding stored.
func (s *RecipeService) FindAllWithEmbeddings(ctx context.Context) ([]*model.Recipe, error) {
	var recipes []model.Recipe
	if err := s.db.WithContext(ctx).Where("embedding IS NOT NULL").Find(&recipes).Error; err != nil {
		return nil, err
	}
	return toPointers(recipes), nil
}

// CreateMany persists the recipes row by row. Deliberately not transactional:
// rows are independent and a partial write leaves no dangling references.
func (s *RecipeService) CreateMany(ctx context.Context, recipes []*model.Recipe) error {
	for _, recipe := range recipes {
		if err := s.db.WithContext(ctx).Create(recipe).Error; err != nil {
			return fmt.Errorf("failed to persist recipe %q: %w", recipe.Title, err)
		}
	}
	return nil
}

// RateRecipe folds a new rating into the running mean, rounded to one
// decimal. An absent id yields (nil, nil).
func (s *RecipeService) RateRecipe(ctx context.Context, id uuid.UUID, rating float64) (*model.Recipe, error) {
	recipe, err := s.FindByID(ctx, id)
	if err != nil || recipe == nil {
		return nil, err
	}

	total := recipe.Rating*float64(recipe.RatingCount) + rating
	newCount := recipe.RatingCount + 1
	recipe.Rating = math.Round(total/float64(newCount)*10) / 10
	recipe.RatingCount = newCount

	err = s.db.WithContext(ctx).Model(&model.Recipe{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"rating": recipe.Rating, "rating_count": recipe.RatingCount}).Error
	if err != nil {
		return nil, err
	}
	return recipe, nil
}

// SetSaved marks or unmarks a recipe as saved, optionally for a user.
func (s *RecipeService) SetSaved(ctx context.Context, id uuid.UUID, saved bool, userID *uuid.UUID) (*model.Recipe, error) {
	recipe, err := s.FindByID(ctx, id)
	if err != nil || recipe == nil {
		return nil, err
	}

	updates := map[string]interface{}{"is_saved": saved}
	if saved && userID != nil {
		updates["user_id"] = *userID
	}
	if err := s.db.WithContext(ctx).Model(&model.Recipe{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.FindByID(ctx, id)
}

// FindSaved lists saved recipes, optionally scoped to a user.
func (s *RecipeService) FindSaved(ctx context.Context, userID *uuid.UUID) ([]*model.Recipe, error) {
	query := s.db.WithContext(ctx).Where("is_saved = ?", true)
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}
	var recipes []model.Recipe
	if err := query.Order("updated_at DESC").Find(&recipes).Error; err != nil {
		return nil, err
	}
	return toPointers(recipes), nil
}

// Search filters, sorts and pages the recipe listing. Returns the page and
// the total match count.
func (s *RecipeService) Search(ctx context.Context, params SearchParams) ([]*model.Recipe, int64, error) {
	query := s.db.WithContext(ctx).Model(&model.Recipe{})

	if params.Query != "" {
		like := "%" + strings.ToLower(params.Query) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if params.Difficulty != "" {
		query = query.Where("difficulty = ?", params.Difficulty)
	}
	if params.MaxTime > 0 {
		query = query.Where("estimated_time <= ?", params.MaxTime)
	}
	for _, tag := range params.Tags {
		// tags is jsonb on postgres; LIKE needs the text cast there.
		if s.db.Dialector.Name() == "postgres" {
			query = query.Where("tags::text LIKE ?", "%"+tag+"%")
		} else {
			query = query.Where("tags LIKE ?", "%"+tag+"%")
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortField := params.SortBy
	switch sortField {
	case "", "created_at", "createdAt":
		sortField = "created_at"
	case "rating", "estimated_time", "title":
	default:
		sortField = "created_at"
	}
	order := "DESC"
	if strings.EqualFold(params.Order, "asc") {
		order = "ASC"
	}
	query = query.Order(sortField + " " + order)

	if params.Limit > 0 {
		query = query.Limit(params.Limit)
	}
	if params.Offset > 0 {
		query = query.Offset(params.Offset)
	}

	var recipes []model.Recipe
	if err := query.Find(&recipes).Error; err != nil {
		return nil, 0, err
	}
	return toPointers(recipes), total, nil
}

func mergeTags(tags, required []string) []string {
	seen := make(map[string]struct{}, len(tags))
	merged := append([]string{}, tags...)
	for _, t := range tags {
		seen[strings.ToLower(t)] = struct{}{}
	}
	for _, t := range required {
		if _, ok := seen[strings.ToLower(t)]; !ok {
			seen[strings.ToLower(t)] = struct{}{}
			merged = append(merged, t)
		}
	}
	return merged
}

func toPointers(recipes []model.Recipe) []*model.Recipe {
	result := make([]*model.Recipe, len(recipes))
	for i := range recipes {
		result[i] = &recipes[i]
	}
	return result
}

package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/resepku/backend/internal/middleware"
	"github.com/resepku/backend/internal/service"
)

const (
	defaultSimilarLimit      = 5
	defaultAlternativesLimit = 10
)

type RecipeHandler struct {
	recipes   service.IRecipeService
	recommend service.IRecommendationService
	validator middleware.TokenValidator
	log       *zap.Logger
}

func NewRecipeHandler(recipes service.IRecipeService, recommend service.IRecommendationService, validator middleware.TokenValidator, log *zap.Logger) *RecipeHandler {
	return &RecipeHandler{
		recipes:   recipes,
		recommend: recommend,
		validator: validator,
		log:       log,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	recipes := router.Group("/recipes")
	{
		recipes.POST("/generate", middleware.OptionalAuthMiddleware(h.validator), h.GenerateRecipes)
		recipes.GET("", h.ListRecipes)
		recipes.GET("/alternatives", h.GetAlternatives)
		recipes.GET("/saved", middleware.OptionalAuthMiddleware(h.validator), h.ListSaved)
		recipes.GET("/:id", h.GetRecipe)
		recipes.GET("/:id/similar", h.GetSimilar)
		recipes.POST("/:id/rating", h.RateRecipe)
		recipes.POST("/:id/save", middleware.OptionalAuthMiddleware(h.validator), h.SaveRecipe)
	}
}

func (h *RecipeHandler) GenerateRecipes(c *gin.Context) {
	var req service.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.recipes.Generate(c.Request.Context(), req)
	if err != nil {
		h.log.Error("recipe generation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate recipes"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	params := service.SearchParams{
		Query:      c.Query("q"),
		Difficulty: c.Query("difficulty"),
		SortBy:     c.Query("sort_by"),
		Order:      c.Query("order"),
		Limit:      intQuery(c, "limit", 20),
		Offset:     intQuery(c, "offset", 0),
	}
	if maxTime := intQuery(c, "max_time", 0); maxTime > 0 {
		params.MaxTime = maxTime
	}
	if tags := c.Query("tags"); tags != "" {
		params.Tags = splitCSV(tags)
	}

	recipes, total, err := h.recipes.Search(c.Request.Context(), params)
	if err != nil {
		h.log.Error("recipe search failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch recipes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"recipes": recipes,
		"total":   total,
		"limit":   params.Limit,
		"offset":  params.Offset,
	})
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	recipe, err := h.recipes.FindByID(c.Request.Context(), id)
	if err != nil {
		h.log.Error("recipe lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch recipe"})
		return
	}
	if recipe == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
		return
	}

	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) GetSimilar(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	limit := intQuery(c, "limit", defaultSimilarLimit)

	similar, err := h.recommend.FindSimilarRecipes(c.Request.Context(), id, limit)
	if err != nil {
		h.log.Error("similar recipes lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to find similar recipes"})
		return
	}
	if similar == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipes": similar})
}

func (h *RecipeHandler) GetAlternatives(c *gin.Context) {
	ingredients := splitCSV(c.Query("ingredients"))
	if len(ingredients) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ingredients query parameter is required"})
		return
	}
	allergies := splitCSV(c.Query("allergies"))
	preferences := splitCSV(c.Query("preferences"))
	limit := intQuery(c, "limit", defaultAlternativesLimit)

	alternatives, err := h.recommend.FindAlternatives(c.Request.Context(), ingredients, allergies, preferences, limit)
	if err != nil {
		h.log.Error("alternatives lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to find alternatives"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipes": alternatives})
}

func (h *RecipeHandler) RateRecipe(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var body struct {
		Rating float64 `json:"rating" binding:"required,min=1,max=5"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rating must be between 1 and 5"})
		return
	}

	recipe, err := h.recipes.RateRecipe(c.Request.Context(), id, body.Rating)
	if err != nil {
		h.log.Error("rating update failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to rate recipe"})
		return
	}
	if recipe == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
		return
	}

	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) SaveRecipe(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var body struct {
		Saved *bool `json:"saved" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "saved flag is required"})
		return
	}

	recipe, err := h.recipes.SetSaved(c.Request.Context(), id, *body.Saved, userIDFromContext(c))
	if err != nil {
		h.log.Error("save update failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update recipe"})
		return
	}
	if recipe == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
		return
	}

	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) ListSaved(c *gin.Context) {
	recipes, err := h.recipes.FindSaved(c.Request.Context(), userIDFromContext(c))
	if err != nil {
		h.log.Error("saved recipes lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch saved recipes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return uuid.Nil, false
	}
	return id, true
}

func userIDFromContext(c *gin.Context) *uuid.UUID {
	v, exists := c.Get("user_id")
	if !exists {
		return nil
	}
	id, ok := v.(uuid.UUID)
	if !ok {
		return nil
	}
	return &id
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

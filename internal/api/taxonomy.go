package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/resepku/backend/internal/service"
)

// TaxonomyHandler exposes the allergen and dietary reference data consumed by
// clients building request forms.
type TaxonomyHandler struct {
	allergens *service.AllergenService
	dietary   *service.DietaryService
}

func NewTaxonomyHandler(allergens *service.AllergenService, dietary *service.DietaryService) *TaxonomyHandler {
	return &TaxonomyHandler{allergens: allergens, dietary: dietary}
}

func (h *TaxonomyHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/allergens", h.ListAllergens)
	router.GET("/dietary-preferences", h.ListDietaryPreferences)
}

func (h *TaxonomyHandler) ListAllergens(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"allergens": h.allergens.GetAllAllergens()})
}

func (h *TaxonomyHandler) ListDietaryPreferences(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"preferences": h.dietary.GetAllPreferences()})
}

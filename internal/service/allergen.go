package service

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// AllergenInfo is one entry of the allergen registry.
type AllergenInfo struct {
	Name        string   `json:"name"`
	Aliases     []string `json:"aliases"`
	Description string   `json:"description"`
	Severity    string   `json:"severity"`
}

// AllergenCategory groups registry entries for display. Matching ignores the
// grouping entirely.
type AllergenCategory struct {
	Category  string         `json:"category"`
	Allergens []AllergenInfo `json:"allergens"`
}

// AllergenMatch is the result of checking text against user allergens.
type AllergenMatch struct {
	Found   bool     `json:"found"`
	Matches []string `json:"matches"`
}

// RecipeValidation reports whether a recipe is safe for a user's allergens.
type RecipeValidation struct {
	IsSafe   bool     `json:"is_safe"`
	Warnings []string `json:"warnings"`
}

// allergenDatabase is the static allergen registry. Read-only after process
// start; there is no mutation API.
var allergenDatabase = []AllergenCategory{
	{
		Category: "Kacang-kacangan",
		Allergens: []AllergenInfo{
			{Name: "kacang tanah", Aliases: []string{"peanut", "kacang", "selai kacang", "minyak kacang", "kacang goreng"}, Description: "Alergen umum yang dapat menyebabkan reaksi berat", Severity: "high"},
			{Name: "kacang mete", Aliases: []string{"cashew", "mete", "kacang mede"}, Description: "Tree nut allergen", Severity: "high"},
			{Name: "kacang almond", Aliases: []string{"almond", "badam"}, Description: "Tree nut allergen", Severity: "high"},
			{Name: "kacang kenari", Aliases: []string{"walnut", "kenari"}, Description: "Tree nut allergen", Severity: "high"},
			{Name: "kacang kedelai", Aliases: []string{"soy", "kedelai", "tahu", "tempe", "kecap", "tauco", "miso", "edamame"}, Description: "Legume allergen, common in Asian cuisine", Severity: "medium"},
		},
	},
	{
		Category: "Seafood",
		Allergens: []AllergenInfo{
			{Name: "udang", Aliases: []string{"shrimp", "prawn", "ebi", "udang galah", "udang windu"}, Description: "Shellfish allergen", Severity: "high"},
			{Name: "kepiting", Aliases: []string{"crab", "rajungan", "kepiting soka"}, Description: "Shellfish allergen", Severity: "high"},
			{Name: "lobster", Aliases: []string{"lobster"}, Description: "Shellfish allergen", Severity: "high"},
			{Name: "kerang", Aliases: []string{"clam", "shellfish", "kupang", "simping", "kerang hijau", "kerang dara"}, Description: "Mollusk allergen", Severity: "high"},
			{Name: "cumi", Aliases: []string{"squid", "cumi-cumi", "sotong"}, Description: "Mollusk allergen", Severity: "medium"},
			{Name: "gurita", Aliases: []string{"octopus", "gurita"}, Description: "Mollusk allergen", Severity: "medium"},
			{Name: "ikan", Aliases: []string{"fish", "salmon", "tuna", "tenggiri", "kakap", "patin", "lele", "nila", "bandeng", "teri", "ikan asin"}, Description: "Fish allergen", Severity: "high"},
		},
	},
	{
		Category: "Dairy",
		Allergens: []AllergenInfo{
			{Name: "susu", Aliases: []string{"milk", "dairy", "susu sapi", "krim", "cream", "whey", "kasein", "laktosa"}, Description: "Dairy/lactose allergen", Severity: "medium"},
			{Name: "keju", Aliases: []string{"cheese", "parmesan", "mozzarella", "cheddar"}, Description: "Dairy allergen", Severity: "medium"},
			{Name: "mentega", Aliases: []string{"butter", "margarin"}, Description: "Dairy allergen", Severity: "medium"},
			{Name: "yogurt", Aliases: []string{"yoghurt", "yogurt"}, Description: "Dairy allergen", Severity: "medium"},
		},
	},
	{
		Category: "Gluten",
		Allergens: []AllergenInfo{
			{Name: "gandum", Aliases: []string{"wheat", "terigu", "tepung terigu", "roti", "pasta", "mie"}, Description: "Gluten/wheat allergen", Severity: "medium"},
			{Name: "barley", Aliases: []string{"barley", "jelai"}, Description: "Gluten allergen", Severity: "medium"},
			{Name: "oat", Aliases: []string{"oat", "haver", "oatmeal"}, Description: "May contain gluten", Severity: "low"},
		},
	},
	{
		Category: "Telur",
		Allergens: []AllergenInfo{
			{Name: "telur", Aliases: []string{"egg", "telur ayam", "telur bebek", "telur puyuh", "kuning telur", "putih telur"}, Description: "Egg allergen", Severity: "medium"},
		},
	},
	{
		Category: "Lainnya",
		Allergens: []AllergenInfo{
			{Name: "wijen", Aliases: []string{"sesame", "bijan", "minyak wijen"}, Description: "Sesame allergen", Severity: "medium"},
			{Name: "mustard", Aliases: []string{"mustard", "sawi"}, Description: "Mustard allergen", Severity: "low"},
			{Name: "seledri", Aliases: []string{"celery", "daun seledri"}, Description: "Celery allergen", Severity: "low"},
		},
	},
}

// AllergenService matches free text against the allergen registry.
type AllergenService struct {
	log *zap.Logger
}

func NewAllergenService(log *zap.Logger) *AllergenService {
	return &AllergenService{log: log}
}

// GetAllAllergens returns the registry grouped by category.
func (s *AllergenService) GetAllAllergens() []AllergenCategory {
	return allergenDatabase
}

// GetAllAllergenNames returns every registry name and alias, deduplicated.
func (s *AllergenService) GetAllAllergenNames() []string {
	seen := make(map[string]struct{})
	var names []string
	for _, category := range allergenDatabase {
		for _, allergen := range category.Allergens {
			for _, name := range append([]string{allergen.Name}, allergen.Aliases...) {
				if _, ok := seen[name]; !ok {
					seen[name] = struct{}{}
					names = append(names, name)
				}
			}
		}
	}
	return names
}

// ContainsAllergen reports which of the user's allergen terms are present in
// the text, directly or via registry aliases. Alias matching is
// case-insensitive substring containment in both directions: a user term
// matches an alias when either contains the other, and the alias set is then
// checked against the text.
func (s *AllergenService) ContainsAllergen(text string, userAllergens []string) AllergenMatch {
	normalizedText := strings.ToLower(text)
	var matches []string
	seen := make(map[string]struct{})

	record := func(term string) {
		if _, ok := seen[term]; !ok {
			seen[term] = struct{}{}
			matches = append(matches, term)
		}
	}

	for _, userAllergen := range userAllergens {
		normalized := strings.ToLower(strings.TrimSpace(userAllergen))
		if normalized == "" {
			continue
		}

		// Direct match
		if strings.Contains(normalizedText, normalized) {
			record(userAllergen)
			continue
		}

		// Check against registry aliases
	registry:
		for _, category := range allergenDatabase {
			for _, allergen := range category.Allergens {
				allNames := append([]string{allergen.Name}, allergen.Aliases...)

				known := false
				for _, name := range allNames {
					lower := strings.ToLower(name)
					if strings.Contains(lower, normalized) || strings.Contains(normalized, lower) {
						known = true
						break
					}
				}
				if !known {
					continue
				}

				for _, name := range allNames {
					if strings.Contains(normalizedText, strings.ToLower(name)) {
						record(userAllergen)
						break registry
					}
				}
			}
		}
	}

	return AllergenMatch{Found: len(matches) > 0, Matches: matches}
}

// FilterIngredients splits an ingredient list into safe and unsafe entries
// for the given allergens, with a warning message per unsafe ingredient.
func (s *AllergenService) FilterIngredients(ingredients, userAllergens []string) (safe, unsafe, warnings []string) {
	for _, ingredient := range ingredients {
		check := s.ContainsAllergen(ingredient, userAllergens)
		if check.Found {
			unsafe = append(unsafe, ingredient)
			warnings = append(warnings, fmt.Sprintf("%q mengandung alergen: %s", ingredient, strings.Join(check.Matches, ", ")))
		} else {
			safe = append(safe, ingredient)
		}
	}
	return safe, unsafe, warnings
}

// ValidateRecipe checks a recipe's title, description and ingredients against
// the user's allergens and marks it unsafe on any match.
func (s *AllergenService) ValidateRecipe(title, description string, ingredients, userAllergens []string) RecipeValidation {
	if len(userAllergens) == 0 {
		return RecipeValidation{IsSafe: true}
	}

	parts := append([]string{title, description}, ingredients...)
	check := s.ContainsAllergen(strings.Join(parts, " "), userAllergens)

	if check.Found {
		return RecipeValidation{
			IsSafe:   false,
			Warnings: []string{fmt.Sprintf("Resep ini mengandung alergen yang Anda hindari: %s", strings.Join(check.Matches, ", "))},
		}
	}
	return RecipeValidation{IsSafe: true}
}

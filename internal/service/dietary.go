package service

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// DietaryPreference describes one supported diet: the ingredients it
// excludes, the tags compliant recipes should carry, and the instruction
// fragment injected into the generation prompt.
type DietaryPreference struct {
	Name                string   `json:"name"`
	Description         string   `json:"description"`
	ExcludedIngredients []string `json:"excluded_ingredients"`
	RequiredTags        []string `json:"required_tags"`
	PromptHint          string   `json:"prompt_hint"`
}

// ComplianceResult lists every excluded-substring violation found.
type ComplianceResult struct {
	Compliant  bool     `json:"compliant"`
	Violations []string `json:"violations"`
}

// dietaryPreferences is the static preference registry, keyed by identifier.
var dietaryPreferences = map[string]DietaryPreference{
	"vegetarian": {
		Name:        "Vegetarian",
		Description: "No meat or fish, but allows eggs and dairy",
		ExcludedIngredients: []string{
			"daging", "ayam", "sapi", "babi", "kambing", "bebek",
			"ikan", "udang", "kepiting", "cumi", "kerang", "lobster",
			"fish", "chicken", "beef", "pork", "meat", "seafood",
			"bacon", "ham", "sosis", "kornet", "bakso",
		},
		RequiredTags: []string{"vegetarian"},
		PromptHint:   "Resep harus vegetarian - TIDAK BOLEH mengandung daging atau seafood apapun. Boleh menggunakan telur dan produk susu.",
	},
	"vegan": {
		Name:        "Vegan",
		Description: "No animal products at all",
		ExcludedIngredients: []string{
			"daging", "ayam", "sapi", "babi", "kambing", "bebek",
			"ikan", "udang", "kepiting", "cumi", "kerang", "lobster",
			"telur", "susu", "keju", "mentega", "yogurt", "krim",
			"madu", "gelatin",
			"fish", "chicken", "beef", "pork", "meat", "seafood",
			"egg", "milk", "cheese", "butter", "cream", "honey",
		},
		RequiredTags: []string{"vegan", "plant-based"},
		PromptHint:   "Resep harus vegan - TIDAK BOLEH mengandung produk hewani apapun termasuk daging, seafood, telur, susu, keju, mentega, dan madu. Hanya bahan nabati.",
	},
	"halal": {
		Name:        "Halal",
		Description: "Compliant with Islamic dietary laws",
		ExcludedIngredients: []string{
			"babi", "pork", "bacon", "ham", "lard",
			"alkohol", "mirin", "wine", "beer", "sake", "arak",
			"gelatin babi",
		},
		RequiredTags: []string{"halal"},
		PromptHint:   "Resep harus halal - TIDAK BOLEH mengandung babi, produk babi, atau alkohol. Pastikan semua bahan halal.",
	},
	"gluten-free": {
		Name:        "Gluten-Free",
		Description: "No gluten-containing ingredients",
		ExcludedIngredients: []string{
			"tepung terigu", "gandum", "roti", "pasta", "mie",
			"kecap", "saus tiram", "beer",
			"wheat", "flour", "bread", "noodle",
			"barley", "oat",
		},
		RequiredTags: []string{"gluten-free"},
		PromptHint:   "Resep harus bebas gluten - TIDAK BOLEH mengandung tepung terigu, gandum, roti, pasta, atau mie biasa. Gunakan alternatif seperti tepung beras atau tapioka.",
	},
	"dairy-free": {
		Name:        "Dairy-Free",
		Description: "No dairy products",
		ExcludedIngredients: []string{
			"susu", "susu sapi", "krim", "keju", "mentega", "yogurt",
			"whey", "kasein", "laktosa",
			"milk", "cream", "cheese", "butter",
		},
		RequiredTags: []string{"dairy-free"},
		PromptHint:   "Resep harus bebas susu - TIDAK BOLEH mengandung susu, keju, mentega, krim, atau produk olahan susu lainnya.",
	},
	"low-carb": {
		Name:        "Low-Carb",
		Description: "Reduced carbohydrate content",
		ExcludedIngredients: []string{
			"nasi", "beras", "roti", "pasta", "mie", "kentang",
			"gula", "tepung", "singkong", "ubi",
			"rice", "bread", "potato", "sugar",
		},
		RequiredTags: []string{"low-carb", "keto-friendly"},
		PromptHint:   "Resep harus rendah karbohidrat - HINDARI nasi, roti, pasta, kentang, dan gula. Fokus pada protein dan sayuran.",
	},
}

// DietaryService answers compliance questions against the preference registry.
type DietaryService struct {
	log *zap.Logger
}

func NewDietaryService(log *zap.Logger) *DietaryService {
	return &DietaryService{log: log}
}

// GetAllPreferences returns the full registry.
func (s *DietaryService) GetAllPreferences() map[string]DietaryPreference {
	return dietaryPreferences
}

// GetPreferenceNames returns the supported identifiers, sorted.
func (s *DietaryService) GetPreferenceNames() []string {
	names := make([]string, 0, len(dietaryPreferences))
	for name := range dietaryPreferences {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetPreference looks up a preference by identifier, case-insensitively.
// Returns nil for unknown identifiers.
func (s *DietaryService) GetPreference(name string) *DietaryPreference {
	if pref, ok := dietaryPreferences[strings.ToLower(name)]; ok {
		return &pref
	}
	return nil
}

// BuildPromptHints collects the instruction fragments for the requested
// preferences, skipping unknown identifiers.
func (s *DietaryService) BuildPromptHints(preferences []string) []string {
	var hints []string
	for _, name := range preferences {
		if pref := s.GetPreference(name); pref != nil {
			hints = append(hints, pref.PromptHint)
		}
	}
	return hints
}

// CheckCompliance scans an ingredient list for every excluded substring of
// every requested preference and records each violation found.
func (s *DietaryService) CheckCompliance(ingredients, preferences []string) ComplianceResult {
	var violations []string
	ingredientText := strings.ToLower(strings.Join(ingredients, " "))

	for _, name := range preferences {
		pref := s.GetPreference(name)
		if pref == nil {
			continue
		}
		for _, excluded := range pref.ExcludedIngredients {
			if strings.Contains(ingredientText, strings.ToLower(excluded)) {
				violations = append(violations, fmt.Sprintf("%q tidak sesuai dengan %s", excluded, pref.Name))
			}
		}
	}

	return ComplianceResult{Compliant: len(violations) == 0, Violations: violations}
}

// RequiredTags returns the union of required tags for the given preferences.
func (s *DietaryService) RequiredTags(preferences []string) []string {
	var tags []string
	seen := make(map[string]struct{})
	for _, name := range preferences {
		pref := s.GetPreference(name)
		if pref == nil {
			continue
		}
		for _, tag := range pref.RequiredTags {
			if _, ok := seen[tag]; !ok {
				seen[tag] = struct{}{}
				tags = append(tags, tag)
			}
		}
	}
	return tags
}

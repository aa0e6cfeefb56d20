package service

import (
	"math/rand"
	"strings"

	"go.uber.org/zap"
)

// SafetyWarning is one entry of the safety-warning registry.
type SafetyWarning struct {
	Ingredient string   `json:"ingredient"`
	Aliases    []string `json:"aliases"`
	Category   string   `json:"category"` // cooking, storage, allergy, hygiene, equipment
	Warning    string   `json:"warning"`
	Severity   string   `json:"severity"`
}

// safetyDatabase is the static ingredient-safety registry.
var safetyDatabase = []SafetyWarning{
	// Raw meat
	{Ingredient: "daging ayam", Aliases: []string{"ayam", "chicken", "daging ayam mentah", "paha ayam", "dada ayam", "sayap ayam"}, Category: "cooking", Warning: "Pastikan ayam dimasak hingga suhu internal minimal 74°C untuk membunuh bakteri Salmonella", Severity: "high"},
	{Ingredient: "daging sapi", Aliases: []string{"sapi", "beef", "daging sapi mentah", "has dalam", "sirloin", "tenderloin"}, Category: "cooking", Warning: "Masak daging sapi hingga suhu internal minimal 63°C (medium) atau 71°C (well done)", Severity: "medium"},
	{Ingredient: "daging babi", Aliases: []string{"babi", "pork", "bacon", "ham"}, Category: "cooking", Warning: "Pastikan babi dimasak hingga suhu internal minimal 71°C untuk menghindari parasit", Severity: "high"},
	{Ingredient: "daging kambing", Aliases: []string{"kambing", "lamb", "mutton", "domba"}, Category: "cooking", Warning: "Masak daging kambing hingga matang sempurna, suhu internal minimal 63°C", Severity: "medium"},

	// Seafood
	{Ingredient: "udang", Aliases: []string{"shrimp", "prawn", "udang galah", "udang windu", "ebi"}, Category: "allergy", Warning: "Udang adalah alergen umum. Perhatikan tanda-tanda reaksi alergi. Masak hingga berwarna oranye-pink", Severity: "high"},
	{Ingredient: "kepiting", Aliases: []string{"crab", "rajungan", "kepiting soka"}, Category: "allergy", Warning: "Kepiting adalah alergen umum. Pastikan dimasak hingga cangkang berwarna merah cerah", Severity: "high"},
	{Ingredient: "kerang", Aliases: []string{"shellfish", "clam", "mussel", "kupang", "kerang hijau"}, Category: "hygiene", Warning: "Buang kerang yang tidak terbuka setelah dimasak. Kerang mentah berisiko kontaminasi bakteri", Severity: "high"},
	{Ingredient: "ikan mentah", Aliases: []string{"sashimi", "raw fish", "ikan segar"}, Category: "hygiene", Warning: "Konsumsi ikan mentah berisiko parasit. Pastikan ikan berkualitas sashimi-grade dan disimpan pada suhu sangat rendah", Severity: "high"},
	{Ingredient: "ikan", Aliases: []string{"fish", "salmon", "tuna", "tenggiri", "kakap", "patin", "lele"}, Category: "cooking", Warning: "Masak ikan hingga dagingnya mudah dipisahkan dengan garpu dan berwarna tidak transparan", Severity: "medium"},

	// Eggs
	{Ingredient: "telur", Aliases: []string{"egg", "telur ayam", "telur bebek", "telur mentah"}, Category: "cooking", Warning: "Hindari konsumsi telur mentah atau setengah matang, terutama untuk anak-anak, lansia, dan ibu hamil", Severity: "medium"},

	// Dairy
	{Ingredient: "susu", Aliases: []string{"milk", "susu segar", "dairy"}, Category: "storage", Warning: "Simpan susu dalam lemari es dan konsumsi sebelum tanggal kedaluwarsa. Jangan biarkan di suhu ruang lebih dari 2 jam", Severity: "low"},

	// Vegetables that need attention
	{Ingredient: "singkong", Aliases: []string{"cassava", "ubi kayu", "tapioka"}, Category: "cooking", Warning: "Singkong mentah mengandung sianida. Pastikan dimasak dengan benar dan buang air rebusan pertama", Severity: "high"},
	{Ingredient: "jamur liar", Aliases: []string{"wild mushroom", "jamur hutan"}, Category: "hygiene", Warning: "PERINGATAN: Hanya konsumsi jamur dari sumber terpercaya. Jamur liar beracun bisa sangat berbahaya", Severity: "high"},
	{Ingredient: "tauge", Aliases: []string{"bean sprouts", "kecambah"}, Category: "hygiene", Warning: "Tauge rawan kontaminasi bakteri. Cuci bersih dan masak hingga matang", Severity: "medium"},

	// Equipment and general
	{Ingredient: "minyak goreng", Aliases: []string{"oil", "minyak", "minyak panas", "deep fry"}, Category: "equipment", Warning: "Hati-hati dengan minyak panas. Jangan tinggalkan tanpa pengawasan dan siapkan penutup untuk api", Severity: "high"},
	{Ingredient: "pisau", Aliases: []string{"knife", "mengiris", "memotong halus"}, Category: "equipment", Warning: "Gunakan teknik memotong yang aman. Jaga jari menekuk ke dalam saat mengiris", Severity: "medium"},
	{Ingredient: "cabai", Aliases: []string{"chili", "cabe", "cabai rawit", "cabai merah"}, Category: "hygiene", Warning: "Cuci tangan setelah mengolah cabai dan hindari menyentuh mata", Severity: "low"},
	{Ingredient: "bawang putih", Aliases: []string{"garlic"}, Category: "storage", Warning: "Bawang putih dalam minyak bisa menumbuhkan Clostridium botulinum jika tidak disimpan di lemari es", Severity: "low"},
}

// generalSafetyTips is the fixed pool one random tip is drawn from when note
// synthesis produces nothing specific.
var generalSafetyTips = []string{
	"Cuci tangan dengan sabun sebelum dan sesudah memasak",
	"Gunakan talenan berbeda untuk daging mentah dan sayuran",
	"Simpan bahan mentah terpisah dari makanan matang",
	"Jangan biarkan makanan di suhu ruang lebih dari 2 jam",
	"Pastikan semua peralatan masak bersih sebelum digunakan",
}

// SafetyService synthesizes safety notes for recipes. The random source is
// injected so the general-tip fallback can be pinned in tests; note synthesis
// is otherwise deterministic.
type SafetyService struct {
	log *zap.Logger
	rng *rand.Rand
}

func NewSafetyService(log *zap.Logger, rng *rand.Rand) *SafetyService {
	return &SafetyService{log: log, rng: rng}
}

// GetWarningsForIngredients returns the registry entries matching the
// ingredient list, deduplicated by trigger ingredient.
func (s *SafetyService) GetWarningsForIngredients(ingredients []string) []SafetyWarning {
	var warnings []SafetyWarning
	ingredientText := strings.ToLower(strings.Join(ingredients, " "))

	for _, safety := range safetyDatabase {
		allTerms := append([]string{safety.Ingredient}, safety.Aliases...)
		matched := false
		for _, term := range allTerms {
			if strings.Contains(ingredientText, strings.ToLower(term)) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		duplicate := false
		for _, w := range warnings {
			if w.Ingredient == safety.Ingredient {
				duplicate = true
				break
			}
		}
		if !duplicate {
			warnings = append(warnings, safety)
		}
	}

	return warnings
}

// GetHighSeverityWarnings filters matched warnings down to severity "high".
func (s *SafetyService) GetHighSeverityWarnings(ingredients []string) []SafetyWarning {
	var high []SafetyWarning
	for _, w := range s.GetWarningsForIngredients(ingredients) {
		if w.Severity == "high" {
			high = append(high, w)
		}
	}
	return high
}

// GetAllSafetyTips returns the general-tip pool.
func (s *SafetyService) GetAllSafetyTips() []string {
	return generalSafetyTips
}

// GenerateSafetyNotes appends ingredient-specific warnings and cooking-method
// cautions to the existing notes. Notes are only ever added, never removed.
// When nothing specific matched and there were no prior notes, one general
// tip is drawn from the fixed pool.
func (s *SafetyService) GenerateSafetyNotes(ingredients, steps, existingNotes []string) []string {
	safetyNotes := append([]string{}, existingNotes...)

	containsFold := func(notes []string, substr string) bool {
		needle := strings.ToLower(substr)
		for _, note := range notes {
			if strings.Contains(strings.ToLower(note), needle) {
				return true
			}
		}
		return false
	}

	for _, warning := range s.GetWarningsForIngredients(ingredients) {
		if !containsFold(safetyNotes, warning.Ingredient) {
			safetyNotes = append(safetyNotes, warning.Warning)
		}
	}

	stepsText := strings.ToLower(strings.Join(steps, " "))

	if strings.Contains(stepsText, "goreng") || strings.Contains(stepsText, "deep fry") {
		if !containsFold(safetyNotes, "minyak panas") {
			safetyNotes = append(safetyNotes, "Hati-hati saat menggoreng dengan minyak panas. Jangan tinggalkan tanpa pengawasan")
		}
	}
	if strings.Contains(stepsText, "kukus") || strings.Contains(stepsText, "steam") {
		if !containsFold(safetyNotes, "uap") {
			safetyNotes = append(safetyNotes, "Hati-hati dengan uap panas saat membuka tutup kukusan")
		}
	}
	if strings.Contains(stepsText, "oven") || strings.Contains(stepsText, "panggang") {
		if !containsFold(safetyNotes, "oven") && !containsFold(safetyNotes, "sarung tangan") {
			safetyNotes = append(safetyNotes, "Gunakan sarung tangan tahan panas saat menggunakan oven")
		}
	}

	if len(safetyNotes) == 0 {
		safetyNotes = append(safetyNotes, generalSafetyTips[s.rng.Intn(len(generalSafetyTips))])
	}

	return safetyNotes
}

package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/resepku/backend/config"
	"github.com/resepku/backend/internal/model"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// geminiRequest is the generateContent request body.
type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

// geminiResponse is the subset of the generateContent response we read.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// LLMService wraps the Gemini text-generation API. Every failure path falls
// back to the deterministic stub generator, so GenerateRecipes never fails.
type LLMService struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	dietary *DietaryService
	log     *zap.Logger
}

// NewLLMService creates a new LLMService instance. An empty API key enables
// stub mode.
func NewLLMService(cfg *config.Config, dietary *DietaryService, log *zap.Logger) *LLMService {
	if cfg.GeminiAPIKey == "" {
		log.Warn("GEMINI_API_KEY not set, recipe generation will use stub mode")
	}
	return &LLMService{
		apiKey:  cfg.GeminiAPIKey,
		model:   cfg.GeminiModel,
		baseURL: geminiBaseURL,
		client:  &http.Client{Timeout: cfg.LLMTimeout},
		dietary: dietary,
		log:     log,
	}
}

// GenerateRecipes produces recipe candidates for the request, typically three.
func (s *LLMService) GenerateRecipes(ctx context.Context, req GenerateRequest) []GeneratedRecipe {
	if s.apiKey == "" {
		return s.generateStubRecipes(req)
	}

	prompt := s.buildPrompt(req)

	text, err := s.complete(ctx, prompt)
	if err != nil {
		s.log.Error("gemini API call failed, falling back to stub recipes", zap.Error(err))
		return s.generateStubRecipes(req)
	}

	recipes, err := parseGeneratedRecipes(text)
	if err != nil {
		s.log.Error("failed to parse gemini response, falling back to stub recipes",
			zap.Error(err))
		s.log.Debug("raw gemini response", zap.String("text", text))
		return s.generateStubRecipes(req)
	}

	return recipes
}

// complete performs one generateContent call. One call, no retries.
func (s *LLMService) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", s.baseURL, s.model, s.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var result geminiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no candidates in API response")
	}

	return result.Candidates[0].Content.Parts[0].Text, nil
}

// buildPrompt embeds the ingredient list, constraints, allergy exclusions,
// dietary instruction fragments and the optional cuisine directive.
func (s *LLMService) buildPrompt(req GenerateRequest) string {
	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = "any"
	}
	maxTime := req.MaxTime
	if maxTime <= 0 {
		maxTime = 60
	}
	allergies := "none"
	if len(req.Allergies) > 0 {
		allergies = strings.Join(req.Allergies, ", ")
	}
	preferences := "none"
	if len(req.Preferences) > 0 {
		preferences = strings.Join(req.Preferences, ", ")
	}

	var b strings.Builder
	b.WriteString("Kamu adalah chef profesional Indonesia. Buatkan 3 resep masakan berdasarkan bahan-bahan berikut:\n\n")
	b.WriteString("BAHAN YANG TERSEDIA:\n")
	for _, ingredient := range req.Ingredients {
		fmt.Fprintf(&b, "- %s\n", ingredient)
	}
	b.WriteString("\nPREFERENSI:\n")
	fmt.Fprintf(&b, "- Tingkat kesulitan: %s\n", difficulty)
	fmt.Fprintf(&b, "- Waktu maksimal: %d menit\n", maxTime)
	fmt.Fprintf(&b, "- Alergi/pantangan: %s\n", allergies)
	fmt.Fprintf(&b, "- Preferensi diet: %s\n", preferences)
	if req.Cuisine != "" {
		fmt.Fprintf(&b, "- Jenis masakan: %s\n", req.Cuisine)
	}

	if hints := s.dietary.BuildPromptHints(req.Preferences); len(hints) > 0 {
		b.WriteString("\nATURAN DIET:\n")
		for _, hint := range hints {
			fmt.Fprintf(&b, "- %s\n", hint)
		}
	}

	b.WriteString(`
FORMAT OUTPUT (JSON array, tanpa markdown code block):
[
  {
    "title": "Nama Resep",
    "description": "Deskripsi singkat resep dalam 1-2 kalimat",
    "ingredients": ["bahan 1 dengan takaran", "bahan 2 dengan takaran"],
    "steps": ["Langkah 1", "Langkah 2", "Langkah 3"],
    "estimatedTime": 30,
    "difficulty": "easy|medium|hard",
    "safetyNotes": ["catatan keamanan jika ada"],
    "tags": ["tag1", "tag2"]
  }
]

Berikan resep yang praktis, mudah diikuti, dan sesuai dengan masakan Indonesia atau Asia. Pastikan semua bahan yang diminta terpakai.`)

	return b.String()
}

// rawGeneratedRecipe defers every field so malformed values can be replaced
// instead of failing the whole parse.
type rawGeneratedRecipe struct {
	Title         json.RawMessage `json:"title"`
	Description   json.RawMessage `json:"description"`
	Ingredients   json.RawMessage `json:"ingredients"`
	Steps         json.RawMessage `json:"steps"`
	EstimatedTime json.RawMessage `json:"estimatedTime"`
	Difficulty    json.RawMessage `json:"difficulty"`
	SafetyNotes   json.RawMessage `json:"safetyNotes"`
	Tags          json.RawMessage `json:"tags"`
}

// parseGeneratedRecipes strips code fences, parses the JSON array and
// normalizes each element field by field. The external shape is never
// trusted.
func parseGeneratedRecipes(text string) ([]GeneratedRecipe, error) {
	clean := strings.TrimSpace(text)
	if strings.HasPrefix(clean, "```json") {
		clean = clean[7:]
	}
	if strings.HasPrefix(clean, "```") {
		clean = clean[3:]
	}
	if strings.HasSuffix(clean, "```") {
		clean = clean[:len(clean)-3]
	}
	clean = strings.TrimSpace(clean)

	var raw []rawGeneratedRecipe
	if err := json.Unmarshal([]byte(clean), &raw); err != nil {
		return nil, fmt.Errorf("response is not a JSON recipe array: %w", err)
	}

	recipes := make([]GeneratedRecipe, 0, len(raw))
	for _, r := range raw {
		recipes = append(recipes, normalizeGenerated(r))
	}
	return recipes, nil
}

// normalizeGenerated applies the per-field fallback rules.
func normalizeGenerated(r rawGeneratedRecipe) GeneratedRecipe {
	return GeneratedRecipe{
		Title:         stringOr(r.Title, "Resep Tanpa Nama"),
		Description:   stringOr(r.Description, ""),
		Ingredients:   stringListOr(r.Ingredients),
		Steps:         stringListOr(r.Steps),
		EstimatedTime: intOr(r.EstimatedTime, 30),
		Difficulty:    normalizeDifficulty(stringOr(r.Difficulty, "")),
		SafetyNotes:   stringListOr(r.SafetyNotes),
		Tags:          stringListOr(r.Tags),
	}
}

func stringOr(raw json.RawMessage, fallback string) string {
	var s string
	if raw == nil || json.Unmarshal(raw, &s) != nil || s == "" {
		return fallback
	}
	return s
}

func stringListOr(raw json.RawMessage) []string {
	var list []string
	if raw == nil || json.Unmarshal(raw, &list) != nil || list == nil {
		return []string{}
	}
	return list
}

func intOr(raw json.RawMessage, fallback int) int {
	var n float64
	if raw == nil || json.Unmarshal(raw, &n) != nil {
		return fallback
	}
	return int(n)
}

// normalizeDifficulty maps the LLM's difficulty string onto the known tiers,
// defaulting to medium.
func normalizeDifficulty(difficulty string) string {
	switch strings.ToLower(difficulty) {
	case model.DifficultyEasy:
		return model.DifficultyEasy
	case model.DifficultyHard:
		return model.DifficultyHard
	default:
		return model.DifficultyMedium
	}
}

// generateStubRecipes synthesizes simple recipes from the input alone. It is
// fully deterministic so the pipeline keeps working without the external
// service.
func (s *LLMService) generateStubRecipes(req GenerateRequest) []GeneratedRecipe {
	ingredientsList := strings.Join(req.Ingredients, ", ")
	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = model.DifficultyMedium
	}
	maxTime := req.MaxTime
	if maxTime <= 0 {
		maxTime = 30
	}
	main := "Sayuran"
	if len(req.Ingredients) > 0 {
		main = req.Ingredients[0]
	}

	prefix := func(p string) []string {
		out := make([]string, 0, len(req.Ingredients))
		for _, i := range req.Ingredients {
			out = append(out, p+" "+i)
		}
		return out
	}

	return []GeneratedRecipe{
		{
			Title:       fmt.Sprintf("Tumis %s Spesial", main),
			Description: fmt.Sprintf("Resep tumis lezat dengan bahan: %s", ingredientsList),
			Ingredients: prefix("Secukupnya"),
			Steps: []string{
				"Siapkan semua bahan dan cuci bersih",
				"Panaskan minyak di wajan",
				"Tumis bumbu hingga harum",
				fmt.Sprintf("Masukkan %s, aduk rata", main),
				"Tambahkan bumbu penyedap secukupnya",
				"Masak hingga matang dan sajikan",
			},
			EstimatedTime: maxTime,
			Difficulty:    difficulty,
			SafetyNotes:   []string{"Pastikan bahan sudah matang sempurna"},
			Tags:          []string{"quick", "easy", "homemade"},
		},
		{
			Title:       fmt.Sprintf("Sup %s Rumahan", main),
			Description: fmt.Sprintf("Sup hangat dengan campuran %s", ingredientsList),
			Ingredients: append(prefix("100g"), "1 liter air kaldu", "Garam dan merica secukupnya"),
			Steps: []string{
				"Didihkan air kaldu dalam panci",
				"Masukkan bahan-bahan satu per satu",
				"Masak dengan api sedang selama 20 menit",
				"Tambahkan garam dan merica",
				"Sajikan hangat",
			},
			EstimatedTime: maxTime + 10,
			Difficulty:    difficulty,
			SafetyNotes:   []string{"Hati-hati dengan sup panas"},
			Tags:          []string{"soup", "comfort-food", "healthy"},
		},
		{
			Title:       fmt.Sprintf("%s Panggang Madu", main),
			Description: fmt.Sprintf("Hidangan panggang dengan %s dan saus madu", ingredientsList),
			Ingredients: append(prefix("250g"), "3 sdm madu", "2 sdm kecap asin", "1 sdm minyak wijen"),
			Steps: []string{
				"Campurkan madu, kecap, dan minyak wijen untuk saus",
				"Lumuri bahan utama dengan saus",
				"Marinasi selama 15 menit",
				"Panggang di suhu 180°C selama 25 menit",
				"Olesi saus lagi di tengah proses",
				"Sajikan dengan garnish",
			},
			EstimatedTime: maxTime + 15,
			Difficulty:    model.DifficultyMedium,
			SafetyNotes:   []string{"Gunakan sarung tangan saat mengeluarkan dari oven"},
			Tags:          []string{"baked", "sweet", "dinner"},
		},
	}
}

package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// Difficulty levels a recipe can carry. Anything else coming back from the
// LLM is normalized to DifficultyMedium.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// EmbeddingDim is the dimensionality of the text-embedding-004 vectors
// stored on recipes. All persisted embeddings share this dimension.
const EmbeddingDim = 768

// JSONBStringArray is a custom type for handling string arrays in JSONB
type JSONBStringArray []string

// Value implements the driver.Valuer interface
func (a JSONBStringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	return json.Marshal(a)
}

// Scan implements the sql.Scanner interface
func (a *JSONBStringArray) Scan(value interface{}) error {
	if value == nil {
		*a = JSONBStringArray{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, a)
}

// Recipe is a persisted recipe. Generated recipes carry the fingerprint of
// the request that produced them; hand-entered recipes have no fingerprint.
// Embedding is NULL until computed and is never mutated afterwards.
type Recipe struct {
	ID               uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	DeletedAt        gorm.DeletedAt   `gorm:"index" json:"-"`
	Title            string           `gorm:"size:255;not null" json:"title"`
	Description      string           `gorm:"type:text" json:"description"`
	Ingredients      JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"ingredients"`
	Steps            JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"steps"`
	EstimatedTime    int              `gorm:"not null;default:30" json:"estimated_time"`
	Difficulty       string           `gorm:"size:10;not null;default:'medium'" json:"difficulty"`
	SafetyNotes      JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"safety_notes"`
	Tags             JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"tags"`
	Cuisine          string           `gorm:"size:50" json:"cuisine,omitempty"`
	Rating           float64          `json:"rating"`
	RatingCount      int              `gorm:"not null;default:0" json:"rating_count"`
	InputFingerprint string           `gorm:"size:64;index" json:"-"`
	IsGenerated      bool             `gorm:"not null;default:false" json:"is_generated"`
	IsSaved          bool             `gorm:"not null;default:false" json:"is_saved"`
	UserID           *uuid.UUID       `gorm:"type:uuid" json:"user_id,omitempty"`
	Embedding        *pgvector.Vector `gorm:"type:vector(768)" json:"-"`
}

// BeforeCreate assigns the ID before insert.
func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// HasEmbedding reports whether a complete embedding is stored.
func (r *Recipe) HasEmbedding() bool {
	return r.Embedding != nil && len(r.Embedding.Slice()) > 0
}

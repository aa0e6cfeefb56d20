package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint(t *testing.T) {
	base := GenerateRequest{
		Ingredients: []string{"ayam", "bawang putih", "cabai"},
		MaxTime:     30,
		Difficulty:  "easy",
		Allergies:   []string{"udang"},
		Preferences: []string{"halal"},
	}

	t.Run("is stable across list order and casing", func(t *testing.T) {
		reordered := GenerateRequest{
			Ingredients: []string{"Cabai", "AYAM", "bawang putih "},
			MaxTime:     30,
			Difficulty:  "EASY",
			Allergies:   []string{"Udang"},
			Preferences: []string{"Halal"},
		}

		assert.Equal(t, Fingerprint(base), Fingerprint(reordered))
	})

	t.Run("is deterministic", func(t *testing.T) {
		assert.Equal(t, Fingerprint(base), Fingerprint(base))
	})

	t.Run("is 16 hex characters", func(t *testing.T) {
		fp := Fingerprint(base)
		assert.Len(t, fp, 16)
		assert.Regexp(t, "^[0-9a-f]{16}$", fp)
	})

	t.Run("changes when an ingredient changes", func(t *testing.T) {
		changed := base
		changed.Ingredients = []string{"ayam", "bawang putih", "tomat"}
		assert.NotEqual(t, Fingerprint(base), Fingerprint(changed))
	})

	t.Run("changes when constraints change", func(t *testing.T) {
		changed := base
		changed.MaxTime = 45
		assert.NotEqual(t, Fingerprint(base), Fingerprint(changed))

		changed = base
		changed.Difficulty = "hard"
		assert.NotEqual(t, Fingerprint(base), Fingerprint(changed))

		changed = base
		changed.Cuisine = "padang"
		assert.NotEqual(t, Fingerprint(base), Fingerprint(changed))
	})

	t.Run("applies defaults for omitted constraints", func(t *testing.T) {
		implicit := GenerateRequest{Ingredients: []string{"tempe"}}
		explicit := GenerateRequest{Ingredients: []string{"tempe"}, MaxTime: 60, Difficulty: "any"}

		assert.Equal(t, Fingerprint(explicit), Fingerprint(implicit))
	})

	t.Run("distinguishes empty from populated optional lists", func(t *testing.T) {
		without := GenerateRequest{Ingredients: []string{"tempe"}}
		with := GenerateRequest{Ingredients: []string{"tempe"}, Allergies: []string{"udang"}}

		assert.NotEqual(t, Fingerprint(without), Fingerprint(with))
	})
}

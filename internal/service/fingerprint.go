package service

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
)

// normalizedRequest is the canonical form of a GenerateRequest. Field order
// is fixed by the struct definition, so json.Marshal yields a stable
// serialization for hashing.
type normalizedRequest struct {
	Ingredients []string `json:"ingredients"`
	MaxTime     int      `json:"maxTime"`
	Difficulty  string   `json:"difficulty"`
	Allergies   []string `json:"allergies"`
	Preferences []string `json:"preferences"`
	Cuisine     string   `json:"cuisine"`
}

// Fingerprint derives the cache key for a generation request. It is a pure
// function of the request: requests that differ only in list ordering or
// casing produce the same fingerprint.
func Fingerprint(req GenerateRequest) string {
	norm := normalizedRequest{
		Ingredients: normalizeTerms(req.Ingredients),
		MaxTime:     req.MaxTime,
		Difficulty:  strings.ToLower(strings.TrimSpace(req.Difficulty)),
		Allergies:   normalizeTerms(req.Allergies),
		Preferences: normalizeTerms(req.Preferences),
		Cuisine:     strings.ToLower(strings.TrimSpace(req.Cuisine)),
	}
	if norm.MaxTime <= 0 {
		norm.MaxTime = 60
	}
	if norm.Difficulty == "" {
		norm.Difficulty = "any"
	}

	// The canonical struct marshals deterministically; an error here would
	// be a programming bug, and the zero digest would still be stable.
	data, _ := json.Marshal(norm)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:16]
}

func normalizeTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		out = append(out, strings.ToLower(strings.TrimSpace(t)))
	}
	sort.Strings(out)
	return out
}

package types

import "github.com/google/uuid"

// TokenClaims are the claims carried by an access token.
type TokenClaims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
}

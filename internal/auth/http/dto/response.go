package dto

import "time"

// IssueTokenResponse contains an issued bearer token.
type IssueTokenResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

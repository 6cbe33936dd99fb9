// Package dto provides data transfer objects for the token endpoint.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/allisson/treatment-register/internal/validation"
)

// IssueTokenRequest contains the credentials exchanged for a bearer token.
type IssueTokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks that both credentials are present.
func (r *IssueTokenRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email, validation.Required, customValidation.NotBlank),
		validation.Field(&r.Password, validation.Required),
	)
}

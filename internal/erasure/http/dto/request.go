// Package dto provides data transfer objects for the erasure HTTP endpoints.
package dto

import (
	validation "github.com/jellydator/validation"

	appValidation "github.com/allisson/treatment-register/internal/validation"
)

// EraseUserRequest is the optional body of an erasure request.
type EraseUserRequest struct {
	Reason string `json:"reason"`
}

// Validate checks the request fields.
func (r *EraseUserRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.Reason, appValidation.ErasureReason),
	)
	return appValidation.WrapValidationError(err)
}

// Package dto provides data transfer objects for user HTTP requests and responses.
package dto

import (
	"github.com/allisson/treatment-register/internal/user/domain"
	userUseCase "github.com/allisson/treatment-register/internal/user/usecase"
)

// CreateUserRequest contains the data of a new account. Field validation is performed
// by the use case.
type CreateUserRequest struct {
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Roles    []string `json:"roles"`
}

// ToInput converts the request to a use case input.
func (r CreateUserRequest) ToInput() userUseCase.RegisterInput {
	roles := make([]domain.Role, 0, len(r.Roles))
	for _, role := range r.Roles {
		roles = append(roles, domain.Role(role))
	}
	return userUseCase.RegisterInput{
		Email:    r.Email,
		Password: r.Password,
		Roles:    roles,
	}
}

// UpdateUserRequest contains the changes to an account. Omitted fields are left unchanged.
type UpdateUserRequest struct {
	Email    *string  `json:"email"`
	Password *string  `json:"password"`
	Roles    []string `json:"roles"`
}

// ToInput converts the request to a use case input.
func (r UpdateUserRequest) ToInput() userUseCase.UpdateInput {
	input := userUseCase.UpdateInput{Email: r.Email, Password: r.Password}
	if r.Roles != nil {
		input.Roles = make([]domain.Role, 0, len(r.Roles))
		for _, role := range r.Roles {
			input.Roles = append(input.Roles, domain.Role(role))
		}
	}
	return input
}

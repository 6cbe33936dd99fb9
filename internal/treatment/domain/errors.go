package domain

import (
	"github.com/allisson/treatment-register/internal/errors"
)

// Domain-specific errors for treatment operations.
var (
	// ErrTreatmentNotFound indicates the requested treatment does not exist.
	ErrTreatmentNotFound = errors.Wrap(errors.ErrNotFound, "treatment not found")

	// ErrInvalidTransition indicates the workflow action is not allowed in the current status.
	ErrInvalidTransition = errors.Wrap(errors.ErrUnprocessable, "invalid treatment status transition")

	// ErrTreatmentArchived indicates an archived treatment cannot be modified.
	ErrTreatmentArchived = errors.Wrap(errors.ErrUnprocessable, "archived treatments cannot be modified")

	// ErrTreatmentNotDraft indicates only drafts can be deleted.
	ErrTreatmentNotDraft = errors.Wrap(errors.ErrForbidden, "only draft treatments can be deleted")

	// ErrNotTreatmentOwner indicates the caller is neither the owner nor a reviewer.
	ErrNotTreatmentOwner = errors.Wrap(errors.ErrForbidden, "not allowed to access this treatment")

	// ErrReviewerRoleRequired indicates the action is reserved to a role the caller does not hold.
	ErrReviewerRoleRequired = errors.Wrap(errors.ErrForbidden, "role not allowed to perform this action")
)

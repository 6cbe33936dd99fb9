package domain

import (
	"github.com/google/uuid"

	"github.com/allisson/treatment-register/internal/errors"
)

// Blocked erasure reasons surfaced to administrators.
const (
	ReasonSelfErasure = "cannot delete your own account"
	ReasonLastAdmin   = "cannot delete the last administrator"
)

// Erasure workflow errors.
var (
	// ErrSelfErasureDenied indicates an administrator tried to erase their own account.
	ErrSelfErasureDenied = errors.Wrap(errors.ErrForbidden, ReasonSelfErasure)

	// ErrLastAdminDenied indicates the subject is the only remaining administrator.
	ErrLastAdminDenied = errors.Wrap(errors.ErrForbidden, ReasonLastAdmin)

	// ErrErasureFailed indicates the erasure transaction was rolled back.
	ErrErasureFailed = errors.New("erasure failed")

	// ErrAuditWriteFailed indicates the deletion audit record could not be persisted.
	ErrAuditWriteFailed = errors.New("deletion audit write failed")

	// ErrDeletionAuditNotFound indicates the requested audit record does not exist.
	ErrDeletionAuditNotFound = errors.Wrap(errors.ErrNotFound, "deletion audit not found")

	// ErrSignatureInvalid indicates a deletion audit signature does not match its content.
	ErrSignatureInvalid = errors.New("deletion audit signature is invalid")
)

// ErasureError reports a failed erasure transaction. It matches ErrErasureFailed and
// unwraps to the cause.
type ErasureError struct {
	SubjectID uuid.UUID
	Step      string
	Cause     error
}

func (e *ErasureError) Error() string {
	return "erasure failed at " + e.Step + ": " + e.Cause.Error()
}

// Unwrap returns ErrErasureFailed and the cause so errors.Is matches both.
func (e *ErasureError) Unwrap() []error {
	return []error{ErrErasureFailed, e.Cause}
}

// Package domain defines the processing treatment entity of the GDPR Article 30 register
// and its review workflow.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Status is the workflow state of a treatment.
type Status string

const (
	StatusDraft            Status = "draft"
	StatusInReview         Status = "in_review"
	StatusChangesRequested Status = "changes_requested"
	StatusValidated        Status = "validated"
	StatusArchived         Status = "archived"
)

// Treatment is an entry of the processing register.
//
// Fields marked sensitive are encrypted at rest. CreatedBy is cleared when its owner is
// erased and CreatedByAnonymized then holds a display placeholder.
type Treatment struct {
	ID              uuid.UUID
	Name            string
	Department      string
	ReferenceNumber string

	// Sensitive fields.
	ControllerName        string
	PostalAddress         string
	Phone                 string
	GDPRReferent          string
	Purpose               string
	OperationalReferent   string
	SubProcessor          *string
	SoftwareAdministrator string

	LegalBasis      string
	Hosting         string
	RetentionPeriod string

	Status              Status
	ChangesComment      *string
	CreatedBy           *uuid.UUID
	CreatedByAnonymized *string
	ValidatedAt         *time.Time
	ArchivedAt          *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// IsOwnedBy reports whether userID created the treatment.
func (t *Treatment) IsOwnedBy(userID uuid.UUID) bool {
	return t.CreatedBy != nil && *t.CreatedBy == userID
}

// OwnerDisplay returns the owner reference for display: the owner id, the anonymized
// placeholder once the owner was erased, or "".
func (t *Treatment) OwnerDisplay() string {
	if t.CreatedBy != nil {
		return t.CreatedBy.String()
	}
	if t.CreatedByAnonymized != nil {
		return *t.CreatedByAnonymized
	}
	return ""
}

// Submit sends a draft or a treatment with requested changes to review.
func (t *Treatment) Submit(now time.Time) error {
	if t.Status != StatusDraft && t.Status != StatusChangesRequested {
		return ErrInvalidTransition
	}
	t.Status = StatusInReview
	t.UpdatedAt = now
	return nil
}

// Validate accepts a treatment under review.
func (t *Treatment) Validate(now time.Time) error {
	if t.Status != StatusInReview {
		return ErrInvalidTransition
	}
	t.Status = StatusValidated
	t.ChangesComment = nil
	t.ValidatedAt = &now
	t.UpdatedAt = now
	return nil
}

// RequestChanges sends a treatment under review back to its owner with a comment.
func (t *Treatment) RequestChanges(comment string, now time.Time) error {
	if t.Status != StatusInReview {
		return ErrInvalidTransition
	}
	t.Status = StatusChangesRequested
	t.ChangesComment = &comment
	t.UpdatedAt = now
	return nil
}

// Archive retires a validated treatment.
func (t *Treatment) Archive(now time.Time) error {
	if t.Status != StatusValidated {
		return ErrInvalidTransition
	}
	t.Status = StatusArchived
	t.ArchivedAt = &now
	t.UpdatedAt = now
	return nil
}

// CanEdit reports whether the treatment content may still be modified.
func (t *Treatment) CanEdit() bool {
	return t.Status != StatusArchived
}

// CanDelete reports whether the treatment may be hard deleted.
func (t *Treatment) CanDelete() bool {
	return t.Status == StatusDraft
}

// AnonymizedOwnerLabel builds the display placeholder stored on treatments whose owner
// was erased. It always contains anonymizedSubjectID.
func AnonymizedOwnerLabel(anonymizedSubjectID string) string {
	return "Deleted user #" + anonymizedSubjectID
}

// ListFilter narrows a treatment listing. Nil fields do not filter.
type ListFilter struct {
	OwnerID *uuid.UUID
	Status  *Status
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusInReview, StatusChangesRequested, StatusValidated, StatusArchived:
		return true
	}
	return false
}

// LegalBases lists the lawful bases of processing accepted by the register.
var LegalBases = []string{
	"consent",
	"contract",
	"legal_obligation",
	"vital_interests",
	"public_task",
	"legitimate_interests",
}

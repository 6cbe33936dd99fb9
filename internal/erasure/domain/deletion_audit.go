// Package domain defines the erasure workflow entities: deletion audit records, erasure
// results and previews, and the errors of the workflow.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultRetentionYears is the default retention window of a deletion audit record.
const DefaultRetentionYears = 5

// DeletionAudit is the proof that a subject was erased.
//
// A record is immutable once appended. The only removal is a purge of the whole row
// after RetentionUntil.
type DeletionAudit struct {
	ID uuid.UUID
	// SubjectIdentityHash is the SHA-256 hex digest of the subject natural identifier.
	SubjectIdentityHash string
	// AnonymizedSubjectID is the display-safe placeholder derived from the subject id.
	AnonymizedSubjectID string
	// PerformedBy is cleared when the acting administrator is later deleted.
	PerformedBy     *uuid.UUID
	Reason          *string
	SourceIPAddress *string
	PerformedAt     time.Time
	RetentionUntil  *time.Time
	Metadata        map[string]any
	// Signature is the HMAC-SHA256 of the canonical record content.
	Signature []byte
}

// IsExpired reports whether the record is past its retention deadline at asOf.
func (a *DeletionAudit) IsExpired(asOf time.Time) bool {
	return a.RetentionUntil != nil && a.RetentionUntil.Before(asOf)
}

// AnonymizedSubjectID builds the display placeholder of an erased subject.
func AnonymizedSubjectID(subjectID uuid.UUID) string {
	return "USER_" + subjectID.String()
}

// Statistics aggregates deletion audit records over a performedAt range.
type Statistics struct {
	Total              int64      `json:"total"`
	DistinctPerformers int64      `json:"distinct_performers"`
	First              *time.Time `json:"first,omitempty"`
	Last               *time.Time `json:"last,omitempty"`
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

// DependentPolicy decides what happens to records owned by an erased subject.
type DependentPolicy string

const (
	// PolicyAnonymize clears the owner reference and stores a display placeholder.
	PolicyAnonymize DependentPolicy = "anonymize"
	// PolicyCascade deletes the records with the subject.
	PolicyCascade DependentPolicy = "cascade"
)

// Erasure steps, reported in ErasureError and logs.
const (
	StepLockSubject    = "lock_subject"
	StepAuditWrite     = "audit_write"
	StepAnonymize      = "anonymize_dependents"
	StepCascadeDelete  = "cascade_delete_dependents"
	StepDeleteSubject  = "delete_subject"
	StepOutboxEvent    = "outbox_event"
	StepCommit         = "commit"
	StepSnapshotCounts = "snapshot_counts"
)

// Eligibility is the outcome of the erasure eligibility check.
type Eligibility struct {
	Allowed bool
	// Reason is the human readable reason when Allowed is false.
	Reason string
	// Err is the sentinel error matching Reason when Allowed is false.
	Err error
}

// ErasureResult describes a completed erasure.
type ErasureResult struct {
	SubjectID           uuid.UUID        `json:"subject_id"`
	AnonymizedSubjectID string           `json:"anonymized_subject_id"`
	AuditID             uuid.UUID        `json:"audit_id"`
	Anonymized          map[string]int64 `json:"anonymized"`
	Deleted             map[string]int64 `json:"deleted"`
	Reason              string           `json:"reason"`
	PerformedBy         uuid.UUID        `json:"performed_by"`
	CompletedAt         time.Time        `json:"completed_at"`
}

// PreviewResult is the read-only projection of what an erasure would affect.
type PreviewResult struct {
	SubjectID     uuid.UUID        `json:"subject_id"`
	Email         string           `json:"email"`
	Roles         []string         `json:"roles"`
	ToAnonymize   map[string]int64 `json:"to_anonymize"`
	ToDelete      map[string]int64 `json:"to_delete"`
	CanErase      bool             `json:"can_erase"`
	BlockedReason string           `json:"blocked_reason,omitempty"`
	Warning       string           `json:"warning"`
}

// PreviewWarning is displayed before an erasure is confirmed.
const PreviewWarning = "This action is irreversible. The user will be permanently deleted, " +
	"owned treatments will be anonymized and notifications deleted."

// DefaultReason is recorded when an erasure is requested without a reason.
const DefaultReason = "GDPR erasure request (Article 17)"

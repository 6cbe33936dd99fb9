// Package domain defines the transactional outbox event and the events published by the register.
package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// OutboxEventStatus represents the status of an outbox event
type OutboxEventStatus string

const (
	OutboxEventStatusPending   OutboxEventStatus = "pending"
	OutboxEventStatusProcessed OutboxEventStatus = "processed"
	OutboxEventStatusFailed    OutboxEventStatus = "failed"
)

// Event types written to the outbox.
const (
	EventUserErased                = "user.erased"
	EventTreatmentSubmitted        = "treatment.submitted"
	EventTreatmentValidated        = "treatment.validated"
	EventTreatmentChangesRequested = "treatment.changes_requested"
)

// OutboxEvent is an event stored in the same transaction as the change that caused it
// and delivered later by the outbox worker.
type OutboxEvent struct {
	ID          uuid.UUID
	EventType   string
	Payload     string
	Status      OutboxEventStatus
	Retries     int
	LastError   *string
	ProcessedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TreatmentEventPayload is the payload of the treatment workflow events.
type TreatmentEventPayload struct {
	TreatmentID   uuid.UUID  `json:"treatment_id"`
	TreatmentName string     `json:"treatment_name"`
	OwnerID       *uuid.UUID `json:"owner_id,omitempty"`
	ActorID       uuid.UUID  `json:"actor_id"`
	Comment       *string    `json:"comment,omitempty"`
}

// UserErasedPayload is the payload of EventUserErased. It never carries the erased
// user's identifiers, only the anonymized placeholder.
type UserErasedPayload struct {
	AnonymizedSubjectID string           `json:"anonymized_subject_id"`
	AuditID             uuid.UUID        `json:"audit_id"`
	Anonymized          map[string]int64 `json:"anonymized"`
	Deleted             map[string]int64 `json:"deleted"`
}

// NewOutboxEvent builds a pending event with a JSON encoded payload.
func NewOutboxEvent(eventType string, payload any, now time.Time) (*OutboxEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &OutboxEvent{
		ID:        uuid.Must(uuid.NewV7()),
		EventType: eventType,
		Payload:   string(data),
		Status:    OutboxEventStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Decode unmarshals the event payload into v.
func (e *OutboxEvent) Decode(v any) error {
	return json.Unmarshal([]byte(e.Payload), v)
}

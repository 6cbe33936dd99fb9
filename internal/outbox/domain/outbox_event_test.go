package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOutboxEvent(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ownerID := uuid.New()
	payload := TreatmentEventPayload{
		TreatmentID:   uuid.New(),
		TreatmentName: "Payroll",
		OwnerID:       &ownerID,
		ActorID:       uuid.New(),
	}

	event, err := NewOutboxEvent(EventTreatmentSubmitted, payload, now)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, EventTreatmentSubmitted, event.EventType)
	assert.Equal(t, OutboxEventStatusPending, event.Status)
	assert.Equal(t, now, event.CreatedAt)
	assert.NotContains(t, event.Payload, "comment")

	var decoded TreatmentEventPayload
	require.NoError(t, event.Decode(&decoded))
	assert.Equal(t, payload, decoded)
}

func TestNewOutboxEvent_InvalidPayload(t *testing.T) {
	_, err := NewOutboxEvent(EventUserErased, make(chan int), time.Now())
	assert.Error(t, err)
}

func TestOutboxEvent_Decode_InvalidJSON(t *testing.T) {
	event := &OutboxEvent{Payload: "{"}
	var payload UserErasedPayload
	assert.Error(t, event.Decode(&payload))
}

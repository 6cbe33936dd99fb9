// Package domain defines in-app notifications sent to register users.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/allisson/treatment-register/internal/errors"
)

// Type identifies what a notification is about.
type Type string

const (
	TypeTreatmentSubmitted        Type = "treatment_submitted"
	TypeTreatmentValidated        Type = "treatment_validated"
	TypeTreatmentChangesRequested Type = "treatment_changes_requested"
)

// Notification is a message addressed to a single user. Notifications are deleted
// together with their recipient.
type Notification struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Type        Type
	Message     string
	TreatmentID *uuid.UUID
	Read        bool
	CreatedAt   time.Time
}

// ErrNotificationNotFound indicates the notification does not exist or belongs to another user.
var ErrNotificationNotFound = errors.Wrap(errors.ErrNotFound, "notification not found")

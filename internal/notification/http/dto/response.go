// Package dto provides data transfer objects for notification HTTP responses.
package dto

import (
	"time"

	"github.com/allisson/treatment-register/internal/notification/domain"
)

// NotificationResponse represents a notification in API responses.
type NotificationResponse struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Message     string    `json:"message"`
	TreatmentID *string   `json:"treatment_id,omitempty"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListNotificationsResponse represents a paginated list of notifications.
type ListNotificationsResponse struct {
	Data []NotificationResponse `json:"data"`
}

// MapNotificationToResponse converts a domain notification to an API response.
func MapNotificationToResponse(n *domain.Notification) NotificationResponse {
	resp := NotificationResponse{
		ID:        n.ID.String(),
		Type:      string(n.Type),
		Message:   n.Message,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
	if n.TreatmentID != nil {
		id := n.TreatmentID.String()
		resp.TreatmentID = &id
	}
	return resp
}

// MapNotificationsToListResponse converts domain notifications to a list response.
func MapNotificationsToListResponse(notifications []*domain.Notification) ListNotificationsResponse {
	data := make([]NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		data = append(data, MapNotificationToResponse(n))
	}
	return ListNotificationsResponse{Data: data}
}

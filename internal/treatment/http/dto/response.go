package dto

import (
	"time"

	"github.com/allisson/treatment-register/internal/treatment/domain"
)

// TreatmentResponse represents a treatment in API responses.
type TreatmentResponse struct {
	ID                    string     `json:"id"`
	Name                  string     `json:"name"`
	Department            string     `json:"department"`
	ReferenceNumber       string     `json:"reference_number"`
	ControllerName        string     `json:"controller_name"`
	PostalAddress         string     `json:"postal_address"`
	Phone                 string     `json:"phone"`
	GDPRReferent          string     `json:"gdpr_referent"`
	Purpose               string     `json:"purpose"`
	OperationalReferent   string     `json:"operational_referent"`
	SubProcessor          *string    `json:"sub_processor"`
	SoftwareAdministrator string     `json:"software_administrator"`
	LegalBasis            string     `json:"legal_basis"`
	Hosting               string     `json:"hosting"`
	RetentionPeriod       string     `json:"retention_period"`
	Status                string     `json:"status"`
	ChangesComment        *string    `json:"changes_comment"`
	CreatedBy             *string    `json:"created_by"`
	Owner                 string     `json:"owner"`
	ValidatedAt           *time.Time `json:"validated_at"`
	ArchivedAt            *time.Time `json:"archived_at"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// ListTreatmentsResponse represents a paginated list of treatments.
type ListTreatmentsResponse struct {
	Data []TreatmentResponse `json:"data"`
}

// MapTreatmentToResponse converts a domain treatment to an API response.
func MapTreatmentToResponse(t *domain.Treatment) TreatmentResponse {
	resp := TreatmentResponse{
		ID:                    t.ID.String(),
		Name:                  t.Name,
		Department:            t.Department,
		ReferenceNumber:       t.ReferenceNumber,
		ControllerName:        t.ControllerName,
		PostalAddress:         t.PostalAddress,
		Phone:                 t.Phone,
		GDPRReferent:          t.GDPRReferent,
		Purpose:               t.Purpose,
		OperationalReferent:   t.OperationalReferent,
		SubProcessor:          t.SubProcessor,
		SoftwareAdministrator: t.SoftwareAdministrator,
		LegalBasis:            t.LegalBasis,
		Hosting:               t.Hosting,
		RetentionPeriod:       t.RetentionPeriod,
		Status:                string(t.Status),
		ChangesComment:        t.ChangesComment,
		Owner:                 t.OwnerDisplay(),
		ValidatedAt:           t.ValidatedAt,
		ArchivedAt:            t.ArchivedAt,
		CreatedAt:             t.CreatedAt,
		UpdatedAt:             t.UpdatedAt,
	}
	if t.CreatedBy != nil {
		id := t.CreatedBy.String()
		resp.CreatedBy = &id
	}
	return resp
}

// MapTreatmentsToListResponse converts domain treatments to a list response.
func MapTreatmentsToListResponse(treatments []*domain.Treatment) ListTreatmentsResponse {
	data := make([]TreatmentResponse, 0, len(treatments))
	for _, t := range treatments {
		data = append(data, MapTreatmentToResponse(t))
	}
	return ListTreatmentsResponse{Data: data}
}

// Package dto provides data transfer objects for treatment HTTP requests and responses.
package dto

import (
	treatmentUseCase "github.com/allisson/treatment-register/internal/treatment/usecase"
)

// TreatmentRequest contains the editable fields of a treatment. Field validation is
// performed by the use case.
type TreatmentRequest struct {
	Name                  string  `json:"name"`
	Department            string  `json:"department"`
	ReferenceNumber       string  `json:"reference_number"`
	ControllerName        string  `json:"controller_name"`
	PostalAddress         string  `json:"postal_address"`
	Phone                 string  `json:"phone"`
	GDPRReferent          string  `json:"gdpr_referent"`
	Purpose               string  `json:"purpose"`
	OperationalReferent   string  `json:"operational_referent"`
	SubProcessor          *string `json:"sub_processor"`
	SoftwareAdministrator string  `json:"software_administrator"`
	LegalBasis            string  `json:"legal_basis"`
	Hosting               string  `json:"hosting"`
	RetentionPeriod       string  `json:"retention_period"`
}

// ToInput converts the request to a use case input.
func (r TreatmentRequest) ToInput() treatmentUseCase.TreatmentInput {
	return treatmentUseCase.TreatmentInput{
		Name:                  r.Name,
		Department:            r.Department,
		ReferenceNumber:       r.ReferenceNumber,
		ControllerName:        r.ControllerName,
		PostalAddress:         r.PostalAddress,
		Phone:                 r.Phone,
		GDPRReferent:          r.GDPRReferent,
		Purpose:               r.Purpose,
		OperationalReferent:   r.OperationalReferent,
		SubProcessor:          r.SubProcessor,
		SoftwareAdministrator: r.SoftwareAdministrator,
		LegalBasis:            r.LegalBasis,
		Hosting:               r.Hosting,
		RetentionPeriod:       r.RetentionPeriod,
	}
}

// RequestChangesRequest carries the reviewer's comment.
type RequestChangesRequest struct {
	Comment string `json:"comment"`
}

package dto

import (
	"encoding/hex"
	"time"

	erasureDomain "github.com/allisson/treatment-register/internal/erasure/domain"
)

// DeletionAuditResponse represents a deletion audit record in API responses. The
// identity hash is exposed so an operator can check a known identifier against it.
type DeletionAuditResponse struct {
	ID                  string         `json:"id"`
	SubjectIdentityHash string         `json:"subject_identity_hash"`
	AnonymizedSubjectID string         `json:"anonymized_subject_id"`
	PerformedBy         *string        `json:"performed_by"`
	Reason              *string        `json:"reason"`
	SourceIPAddress     *string        `json:"source_ip_address"`
	PerformedAt         time.Time      `json:"performed_at"`
	RetentionUntil      *time.Time     `json:"retention_until"`
	Expired             bool           `json:"expired"`
	Metadata            map[string]any `json:"metadata"`
	Signature           string         `json:"signature,omitempty"`
}

// ListDeletionAuditsResponse represents a paginated list of deletion audit records.
type ListDeletionAuditsResponse struct {
	Data []DeletionAuditResponse `json:"data"`
}

// MapDeletionAuditToResponse converts a domain record to an API response. Expired is
// true for records past retention that the next purge will delete.
func MapDeletionAuditToResponse(a *erasureDomain.DeletionAudit) DeletionAuditResponse {
	resp := DeletionAuditResponse{
		ID:                  a.ID.String(),
		SubjectIdentityHash: a.SubjectIdentityHash,
		AnonymizedSubjectID: a.AnonymizedSubjectID,
		Reason:              a.Reason,
		SourceIPAddress:     a.SourceIPAddress,
		PerformedAt:         a.PerformedAt,
		RetentionUntil:      a.RetentionUntil,
		Expired:             a.IsExpired(time.Now()),
		Metadata:            a.Metadata,
	}
	if a.PerformedBy != nil {
		id := a.PerformedBy.String()
		resp.PerformedBy = &id
	}
	if len(a.Signature) > 0 {
		resp.Signature = hex.EncodeToString(a.Signature)
	}
	return resp
}

// MapDeletionAuditsToListResponse converts domain records to a list response.
func MapDeletionAuditsToListResponse(audits []*erasureDomain.DeletionAudit) ListDeletionAuditsResponse {
	data := make([]DeletionAuditResponse, 0, len(audits))
	for _, a := range audits {
		data = append(data, MapDeletionAuditToResponse(a))
	}
	return ListDeletionAuditsResponse{Data: data}
}

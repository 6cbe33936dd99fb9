// Package service provides integrity services for deletion audit records.
package service

import (
	erasureDomain "github.com/allisson/treatment-register/internal/erasure/domain"
)

// AuditSigner signs and verifies deletion audit records.
type AuditSigner interface {
	// Sign returns the HMAC-SHA256 signature of the record content.
	Sign(audit *erasureDomain.DeletionAudit) ([]byte, error)

	// Verify returns ErrSignatureInvalid when the stored signature does not match.
	Verify(audit *erasureDomain.DeletionAudit) error
}

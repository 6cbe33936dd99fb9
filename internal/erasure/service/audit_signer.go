package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	cryptoDomain "github.com/allisson/treatment-register/internal/crypto/domain"
	erasureDomain "github.com/allisson/treatment-register/internal/erasure/domain"
)

// signingInfo is the HKDF info of the deletion audit signing key. The version suffix
// changes if the canonical encoding changes.
const signingInfo = "deletion-audit-signing-v1"

type auditSigner struct {
	signingKey []byte
}

// NewAuditSigner derives the signing key from the field encryption key with HKDF-SHA256.
// The encryption key itself never signs anything.
func NewAuditSigner(key *cryptoDomain.EncryptionKey) (AuditSigner, error) {
	signingKey := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, key.Bytes(), nil, []byte(signingInfo)), signingKey); err != nil {
		return nil, fmt.Errorf("failed to derive signing key: %w", err)
	}
	return &auditSigner{signingKey: signingKey}, nil
}

// canonicalize encodes the immutable record content:
// id || identity_hash || anonymized_id || performed_by || reason || ip || performed_at ||
// retention_until || metadata. Variable length fields are length-prefixed.
func canonicalize(audit *erasureDomain.DeletionAudit) ([]byte, error) {
	buf := make([]byte, 0, 512)

	buf = append(buf, audit.ID[:]...)
	buf = appendLengthPrefixed(buf, []byte(audit.SubjectIdentityHash))
	buf = appendLengthPrefixed(buf, []byte(audit.AnonymizedSubjectID))

	if audit.PerformedBy != nil {
		buf = appendLengthPrefixed(buf, audit.PerformedBy[:])
	} else {
		buf = appendLengthPrefixed(buf, nil)
	}

	buf = appendOptional(buf, audit.Reason)
	buf = appendOptional(buf, audit.SourceIPAddress)
	buf = binary.BigEndian.AppendUint64(buf, uint64(audit.PerformedAt.UnixMicro()))

	if audit.RetentionUntil != nil {
		buf = binary.BigEndian.AppendUint64(buf, uint64(audit.RetentionUntil.UnixMicro()))
	} else {
		buf = binary.BigEndian.AppendUint64(buf, 0)
	}

	if audit.Metadata != nil {
		// encoding/json sorts map keys, so the encoding is deterministic.
		metadata, err := json.Marshal(audit.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal metadata: %w", err)
		}
		buf = appendLengthPrefixed(buf, metadata)
	} else {
		buf = appendLengthPrefixed(buf, nil)
	}

	return buf, nil
}

func appendOptional(buf []byte, value *string) []byte {
	if value == nil {
		return append(buf, 0)
	}
	buf = append(buf, 1)
	return appendLengthPrefixed(buf, []byte(*value))
}

// appendLengthPrefixed adds a 4-byte big-endian length prefix followed by data.
func appendLengthPrefixed(buf []byte, data []byte) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(data)))
	return append(buf, data...)
}

// Sign generates the HMAC-SHA256 signature of the record.
func (a *auditSigner) Sign(audit *erasureDomain.DeletionAudit) ([]byte, error) {
	canonical, err := canonicalize(audit)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize deletion audit: %w", err)
	}

	mac := hmac.New(sha256.New, a.signingKey)
	mac.Write(canonical)
	return mac.Sum(nil), nil
}

// Verify checks the stored signature in constant time.
func (a *auditSigner) Verify(audit *erasureDomain.DeletionAudit) error {
	expected, err := a.Sign(audit)
	if err != nil {
		return fmt.Errorf("failed to compute expected signature: %w", err)
	}

	if !hmac.Equal(audit.Signature, expected) {
		return erasureDomain.ErrSignatureInvalid
	}
	return nil
}

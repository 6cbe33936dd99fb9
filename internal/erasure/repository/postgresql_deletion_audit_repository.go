// Package repository provides PostgreSQL and MySQL persistence for deletion audit records.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/treatment-register/internal/database"
	erasureDomain "github.com/allisson/treatment-register/internal/erasure/domain"
	apperrors "github.com/allisson/treatment-register/internal/errors"
)

const postgresAuditColumns = `id, subject_identity_hash, anonymized_subject_id, performed_by, reason,
	source_ip_address, performed_at, retention_until, metadata, signature`

// PostgreSQLDeletionAuditRepository implements deletion audit persistence for PostgreSQL.
// Records are only ever inserted or purged; there is no update statement.
type PostgreSQLDeletionAuditRepository struct {
	db *sql.DB
}

// NewPostgreSQLDeletionAuditRepository creates a new PostgreSQL deletion audit repository.
func NewPostgreSQLDeletionAuditRepository(db *sql.DB) *PostgreSQLDeletionAuditRepository {
	return &PostgreSQLDeletionAuditRepository{db: db}
}

// Create inserts a record. Nil metadata is stored as NULL.
func (p *PostgreSQLDeletionAuditRepository) Create(
	ctx context.Context,
	audit *erasureDomain.DeletionAudit,
) error {
	querier := database.GetTx(ctx, p.db)

	metadataJSON, err := marshalMetadata(audit.Metadata)
	if err != nil {
		return err
	}

	query := `INSERT INTO deletion_audits (` + postgresAuditColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = querier.ExecContext(
		ctx,
		query,
		audit.ID,
		audit.SubjectIdentityHash,
		audit.AnonymizedSubjectID,
		audit.PerformedBy,
		audit.Reason,
		audit.SourceIPAddress,
		audit.PerformedAt,
		audit.RetentionUntil,
		metadataJSON,
		audit.Signature,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create deletion audit")
	}

	return nil
}

// Get retrieves a record by id.
func (p *PostgreSQLDeletionAuditRepository) Get(
	ctx context.Context,
	id uuid.UUID,
) (*erasureDomain.DeletionAudit, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + postgresAuditColumns + ` FROM deletion_audits WHERE id = $1`

	audit, err := scanPostgresAudit(querier.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, erasureDomain.ErrDeletionAuditNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get deletion audit")
	}
	return audit, nil
}

// ExistsByIdentityHash reports whether a record with the identity hash exists.
func (p *PostgreSQLDeletionAuditRepository) ExistsByIdentityHash(
	ctx context.Context,
	identityHash string,
) (bool, error) {
	querier := database.GetTx(ctx, p.db)

	var exists bool
	err := querier.QueryRowContext(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM deletion_audits WHERE subject_identity_hash = $1)`,
		identityHash,
	).Scan(&exists)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to check deletion audit identity hash")
	}
	return exists, nil
}

// FindExpired returns records whose retention deadline is strictly before asOf.
func (p *PostgreSQLDeletionAuditRepository) FindExpired(
	ctx context.Context,
	asOf time.Time,
) ([]*erasureDomain.DeletionAudit, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + postgresAuditColumns + ` FROM deletion_audits
			  WHERE retention_until IS NOT NULL AND retention_until < $1
			  ORDER BY retention_until ASC`

	rows, err := querier.QueryContext(ctx, query, asOf)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to find expired deletion audits")
	}
	return collectPostgresAudits(rows)
}

// DeleteExpired deletes records whose retention deadline is strictly before asOf. In
// dry-run mode the matching records are counted instead.
func (p *PostgreSQLDeletionAuditRepository) DeleteExpired(
	ctx context.Context,
	asOf time.Time,
	dryRun bool,
) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	if dryRun {
		var count int64
		err := querier.QueryRowContext(
			ctx,
			`SELECT COUNT(*) FROM deletion_audits WHERE retention_until IS NOT NULL AND retention_until < $1`,
			asOf,
		).Scan(&count)
		if err != nil {
			return 0, apperrors.Wrap(err, "failed to count expired deletion audits")
		}
		return count, nil
	}

	result, err := querier.ExecContext(
		ctx,
		`DELETE FROM deletion_audits WHERE retention_until IS NOT NULL AND retention_until < $1`,
		asOf,
	)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete expired deletion audits")
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get affected rows")
	}
	return count, nil
}

// Statistics aggregates records whose performed_at lies within the optional range.
func (p *PostgreSQLDeletionAuditRepository) Statistics(
	ctx context.Context,
	from, to *time.Time,
) (*erasureDomain.Statistics, error) {
	querier := database.GetTx(ctx, p.db)

	where, args := postgresRange(from, to, 1)
	query := `SELECT COUNT(*), COUNT(DISTINCT performed_by), MIN(performed_at), MAX(performed_at)
			  FROM deletion_audits` + where

	var stats erasureDomain.Statistics
	var first, last sql.NullTime
	err := querier.QueryRowContext(ctx, query, args...).Scan(
		&stats.Total,
		&stats.DistinctPerformers,
		&first,
		&last,
	)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to compute deletion audit statistics")
	}

	if first.Valid {
		stats.First = &first.Time
	}
	if last.Valid {
		stats.Last = &last.Time
	}
	return &stats, nil
}

// List returns records newest first with optional inclusive performed_at bounds.
func (p *PostgreSQLDeletionAuditRepository) List(
	ctx context.Context,
	offset, limit int,
	from, to *time.Time,
) ([]*erasureDomain.DeletionAudit, error) {
	querier := database.GetTx(ctx, p.db)

	where, args := postgresRange(from, to, 1)
	n := len(args)
	query := `SELECT ` + postgresAuditColumns + ` FROM deletion_audits` + where +
		` ORDER BY performed_at DESC, id DESC LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)
	args = append(args, limit, offset)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list deletion audits")
	}
	return collectPostgresAudits(rows)
}

// ListByPerformer returns records written by one administrator, newest first.
func (p *PostgreSQLDeletionAuditRepository) ListByPerformer(
	ctx context.Context,
	performedBy uuid.UUID,
	offset, limit int,
) ([]*erasureDomain.DeletionAudit, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + postgresAuditColumns + ` FROM deletion_audits
			  WHERE performed_by = $1
			  ORDER BY performed_at DESC, id DESC
			  LIMIT $2 OFFSET $3`

	rows, err := querier.QueryContext(ctx, query, performedBy, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list deletion audits by performer")
	}
	return collectPostgresAudits(rows)
}

// postgresRange builds an inclusive performed_at filter with placeholders starting at first.
func postgresRange(from, to *time.Time, first int) (string, []any) {
	var conditions []string
	var args []any

	if from != nil {
		args = append(args, *from)
		conditions = append(conditions, "performed_at >= $"+strconv.Itoa(first+len(args)-1))
	}
	if to != nil {
		args = append(args, *to)
		conditions = append(conditions, "performed_at <= $"+strconv.Itoa(first+len(args)-1))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPostgresAudit(row rowScanner) (*erasureDomain.DeletionAudit, error) {
	var audit erasureDomain.DeletionAudit
	var performedBy uuid.NullUUID
	var retentionUntil sql.NullTime
	var metadataJSON []byte

	err := row.Scan(
		&audit.ID,
		&audit.SubjectIdentityHash,
		&audit.AnonymizedSubjectID,
		&performedBy,
		&audit.Reason,
		&audit.SourceIPAddress,
		&audit.PerformedAt,
		&retentionUntil,
		&metadataJSON,
		&audit.Signature,
	)
	if err != nil {
		return nil, err
	}

	if performedBy.Valid {
		audit.PerformedBy = &performedBy.UUID
	}
	if retentionUntil.Valid {
		audit.RetentionUntil = &retentionUntil.Time
	}
	if audit.Metadata, err = unmarshalMetadata(metadataJSON); err != nil {
		return nil, err
	}
	return &audit, nil
}

func collectPostgresAudits(rows *sql.Rows) ([]*erasureDomain.DeletionAudit, error) {
	defer func() {
		_ = rows.Close()
	}()

	audits := make([]*erasureDomain.DeletionAudit, 0)
	for rows.Next() {
		audit, err := scanPostgresAudit(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan deletion audit")
		}
		audits = append(audits, audit)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate deletion audits")
	}
	return audits, nil
}

func marshalMetadata(metadata map[string]any) ([]byte, error) {
	if metadata == nil {
		return nil, nil
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal deletion audit metadata")
	}
	return metadataJSON, nil
}

func unmarshalMetadata(metadataJSON []byte) (map[string]any, error) {
	if metadataJSON == nil {
		return nil, nil
	}
	var metadata map[string]any
	if err := json.Unmarshal(metadataJSON, &metadata); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal deletion audit metadata")
	}
	return metadata, nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/treatment-register/internal/database"
	erasureDomain "github.com/allisson/treatment-register/internal/erasure/domain"
	apperrors "github.com/allisson/treatment-register/internal/errors"
)

const mysqlAuditColumns = postgresAuditColumns

// MySQLDeletionAuditRepository implements deletion audit persistence for MySQL.
// UUIDs are stored as BINARY(16).
type MySQLDeletionAuditRepository struct {
	db *sql.DB
}

// NewMySQLDeletionAuditRepository creates a new MySQL deletion audit repository.
func NewMySQLDeletionAuditRepository(db *sql.DB) *MySQLDeletionAuditRepository {
	return &MySQLDeletionAuditRepository{db: db}
}

// Create inserts a record. Nil metadata is stored as NULL.
func (m *MySQLDeletionAuditRepository) Create(ctx context.Context, audit *erasureDomain.DeletionAudit) error {
	querier := database.GetTx(ctx, m.db)

	metadataJSON, err := marshalMetadata(audit.Metadata)
	if err != nil {
		return err
	}

	id, err := audit.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal deletion audit id")
	}

	var performedBy any
	if audit.PerformedBy != nil {
		performedByBinary, err := audit.PerformedBy.MarshalBinary()
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal deletion audit performed_by")
		}
		performedBy = performedByBinary
	}

	query := `INSERT INTO deletion_audits (` + mysqlAuditColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		audit.SubjectIdentityHash,
		audit.AnonymizedSubjectID,
		performedBy,
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
func (m *MySQLDeletionAuditRepository) Get(ctx context.Context, id uuid.UUID) (*erasureDomain.DeletionAudit, error) {
	querier := database.GetTx(ctx, m.db)

	idBinary, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal deletion audit id")
	}

	query := `SELECT ` + mysqlAuditColumns + ` FROM deletion_audits WHERE id = ?`

	audit, err := scanMySQLAudit(querier.QueryRowContext(ctx, query, idBinary))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, erasureDomain.ErrDeletionAuditNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get deletion audit")
	}
	return audit, nil
}

// ExistsByIdentityHash reports whether a record with the identity hash exists.
func (m *MySQLDeletionAuditRepository) ExistsByIdentityHash(ctx context.Context, identityHash string) (bool, error) {
	querier := database.GetTx(ctx, m.db)

	var exists bool
	err := querier.QueryRowContext(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM deletion_audits WHERE subject_identity_hash = ?)`,
		identityHash,
	).Scan(&exists)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to check deletion audit identity hash")
	}
	return exists, nil
}

// FindExpired returns records whose retention deadline is strictly before asOf.
func (m *MySQLDeletionAuditRepository) FindExpired(
	ctx context.Context,
	asOf time.Time,
) ([]*erasureDomain.DeletionAudit, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + mysqlAuditColumns + ` FROM deletion_audits
			  WHERE retention_until IS NOT NULL AND retention_until < ?
			  ORDER BY retention_until ASC`

	rows, err := querier.QueryContext(ctx, query, asOf)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to find expired deletion audits")
	}
	return collectMySQLAudits(rows)
}

// DeleteExpired deletes records whose retention deadline is strictly before asOf. In
// dry-run mode the matching records are counted instead.
func (m *MySQLDeletionAuditRepository) DeleteExpired(ctx context.Context, asOf time.Time, dryRun bool) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	if dryRun {
		var count int64
		err := querier.QueryRowContext(
			ctx,
			`SELECT COUNT(*) FROM deletion_audits WHERE retention_until IS NOT NULL AND retention_until < ?`,
			asOf,
		).Scan(&count)
		if err != nil {
			return 0, apperrors.Wrap(err, "failed to count expired deletion audits")
		}
		return count, nil
	}

	result, err := querier.ExecContext(
		ctx,
		`DELETE FROM deletion_audits WHERE retention_until IS NOT NULL AND retention_until < ?`,
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
func (m *MySQLDeletionAuditRepository) Statistics(
	ctx context.Context,
	from, to *time.Time,
) (*erasureDomain.Statistics, error) {
	querier := database.GetTx(ctx, m.db)

	where, args := mysqlRange(from, to)
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
func (m *MySQLDeletionAuditRepository) List(
	ctx context.Context,
	offset, limit int,
	from, to *time.Time,
) ([]*erasureDomain.DeletionAudit, error) {
	querier := database.GetTx(ctx, m.db)

	where, args := mysqlRange(from, to)
	query := `SELECT ` + mysqlAuditColumns + ` FROM deletion_audits` + where +
		` ORDER BY performed_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list deletion audits")
	}
	return collectMySQLAudits(rows)
}

// ListByPerformer returns records written by one administrator, newest first.
func (m *MySQLDeletionAuditRepository) ListByPerformer(
	ctx context.Context,
	performedBy uuid.UUID,
	offset, limit int,
) ([]*erasureDomain.DeletionAudit, error) {
	querier := database.GetTx(ctx, m.db)

	performedByBinary, err := performedBy.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal performed_by")
	}

	query := `SELECT ` + mysqlAuditColumns + ` FROM deletion_audits
			  WHERE performed_by = ?
			  ORDER BY performed_at DESC, id DESC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, performedByBinary, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list deletion audits by performer")
	}
	return collectMySQLAudits(rows)
}

func mysqlRange(from, to *time.Time) (string, []any) {
	var conditions []string
	var args []any

	if from != nil {
		conditions = append(conditions, "performed_at >= ?")
		args = append(args, *from)
	}
	if to != nil {
		conditions = append(conditions, "performed_at <= ?")
		args = append(args, *to)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func scanMySQLAudit(row rowScanner) (*erasureDomain.DeletionAudit, error) {
	var audit erasureDomain.DeletionAudit
	var idBinary, performedByBinary, metadataJSON []byte
	var retentionUntil sql.NullTime

	err := row.Scan(
		&idBinary,
		&audit.SubjectIdentityHash,
		&audit.AnonymizedSubjectID,
		&performedByBinary,
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

	if err := audit.ID.UnmarshalBinary(idBinary); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal deletion audit id")
	}
	if performedByBinary != nil {
		var performedBy uuid.UUID
		if err := performedBy.UnmarshalBinary(performedByBinary); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal deletion audit performed_by")
		}
		audit.PerformedBy = &performedBy
	}
	if retentionUntil.Valid {
		audit.RetentionUntil = &retentionUntil.Time
	}
	if audit.Metadata, err = unmarshalMetadata(metadataJSON); err != nil {
		return nil, err
	}
	return &audit, nil
}

func collectMySQLAudits(rows *sql.Rows) ([]*erasureDomain.DeletionAudit, error) {
	defer func() {
		_ = rows.Close()
	}()

	audits := make([]*erasureDomain.DeletionAudit, 0)
	for rows.Next() {
		audit, err := scanMySQLAudit(rows)
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

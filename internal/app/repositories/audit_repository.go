package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kofiboateng/cschool/internal/app/models"
)

// auditRepository is the pgx-backed AuditRepository.
type auditRepository struct {
	db *pgxpool.Pool
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *pgxpool.Pool) AuditRepository {
	return &auditRepository{db: db}
}

// Record appends one audit entry
func (r *auditRepository) Record(ctx context.Context, entry *models.AuditLog) error {
	query := squirrel.Insert("audit_logs").
		Columns("entity", "entity_id", "action", "admin_id", "notes").
		Values(entry.Entity, entry.EntityID, entry.Action, entry.AdminID, entry.Notes).
		Suffix("RETURNING id, created_at").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("error recording audit entry: %w", err)
	}
	return nil
}

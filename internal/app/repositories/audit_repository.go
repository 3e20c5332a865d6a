package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/speexify/speexify/internal/app/models"
)

// AuditRepository appends privileged-action audit records
type AuditRepository struct {
	db *pgxpool.Pool
}

// NewAuditRepository creates a new AuditRepository
func NewAuditRepository(db *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{db: db}
}

// Record appends an audit entry. Metadata is stored as JSONB.
func (r *AuditRepository) Record(ctx context.Context, audit *models.Audit) error {
	var metadata []byte
	if audit.Metadata != nil {
		var err error
		metadata, err = json.Marshal(audit.Metadata)
		if err != nil {
			return fmt.Errorf("error encoding audit metadata: %w", err)
		}
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO audits (actor_id, action, entity_type, entity_id, metadata)
		VALUES ($1, $2, $3, $4, $5)`,
		audit.ActorID, audit.Action, audit.EntityType, audit.EntityID, metadata)
	if err != nil {
		return fmt.Errorf("error recording audit: %w", err)
	}
	return nil
}

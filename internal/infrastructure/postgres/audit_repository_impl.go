package postgres

import (
	"context"
	"encoding/json"

	"github.com/opsboard/operator-auth/internal/domain/autherr"
	"github.com/opsboard/operator-auth/internal/domain/entity"
	"github.com/opsboard/operator-auth/internal/domain/repository"
)

type AuditRepository struct {
	db DB
}

func NewAuditRepository(db DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Insert(ctx context.Context, rec *entity.AuditRecord) error {
	md, err := json.Marshal(rec.Metadata)
	if err != nil {
		return autherr.Upstream("could not encode audit metadata", err)
	}
	row := r.db.QueryRow(ctx, `
		INSERT INTO audit_logs (operator_id, email, action, ip, user_agent, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, rec.OperatorID, rec.Email, rec.Action, rec.IP, rec.UserAgent, md)
	if err := row.Scan(&rec.ID, &rec.CreatedAt); err != nil {
		return autherr.Upstream("database error", err)
	}
	return nil
}

var _ repository.AuditRepository = (*AuditRepository)(nil)

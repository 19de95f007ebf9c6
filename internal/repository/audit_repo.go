package repository

import (
	"context"
	"encoding/json"

	"pyramid_empire/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditRepository handles audit log database operations
type AuditRepository struct {
	db *pgxpool.Pool
}

func NewAuditRepository(db *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{db: db}
}

const insertAudit = `INSERT INTO audit_logs (user_id, action, category, details, ip, user_agent)
	VALUES ($1, $2, $3, $4, $5, $6)`

func auditArgs(log *domain.AuditLog) []any {
	details, err := json.Marshal(log.Details)
	if err != nil || log.Details == nil {
		details = []byte("{}")
	}
	return []any{log.UserID, log.Action, log.Category, details, log.IP, log.UserAgent}
}

func (r *AuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	_, err := r.db.Exec(ctx, insertAudit, auditArgs(log)...)
	return err
}

// GetRecent returns the latest entries, optionally filtered by category.
func (r *AuditRepository) GetRecent(ctx context.Context, category string, limit int) ([]*domain.AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, action, category, details, ip, user_agent, created_at
		FROM audit_logs
		WHERE $1 = '' OR category = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, category, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*domain.AuditLog
	for rows.Next() {
		var log domain.AuditLog
		var detailsJSON []byte
		if err := rows.Scan(&log.ID, &log.UserID, &log.Action, &log.Category, &detailsJSON, &log.IP, &log.UserAgent, &log.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(detailsJSON, &log.Details); err != nil {
			log.Details = make(map[string]interface{})
		}
		logs = append(logs, &log)
	}
	return logs, rows.Err()
}

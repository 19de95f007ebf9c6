package repository

import (
	"context"

	"pyramid_empire/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TapEventRepository keeps the append-only tap analytics log.
type TapEventRepository struct {
	db *pgxpool.Pool
}

func NewTapEventRepository(db *pgxpool.Pool) *TapEventRepository {
	return &TapEventRepository{db: db}
}

func (r *TapEventRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, ev *domain.TapEvent) error {
	return tx.QueryRow(ctx,
		`INSERT INTO tap_events (user_id, reward, multiplier, energy_consumed, session_id, ip)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		ev.UserID, ev.Reward, ev.Multiplier, ev.EnergyConsumed, ev.SessionID, ev.IP,
	).Scan(&ev.ID, &ev.CreatedAt)
}

// GetByUser returns the latest taps of a user, newest first.
func (r *TapEventRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*domain.TapEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, reward, multiplier, energy_consumed, session_id, ip, created_at
		 FROM tap_events
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.TapEvent
	for rows.Next() {
		var ev domain.TapEvent
		if err := rows.Scan(&ev.ID, &ev.UserID, &ev.Reward, &ev.Multiplier, &ev.EnergyConsumed,
			&ev.SessionID, &ev.IP, &ev.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, &ev)
	}
	return events, rows.Err()
}

// TapCounts is the tap part of the admin stats.
type TapCounts struct {
	Total       int64 `json:"total"`
	Last24h     int64 `json:"last_24h"`
	BricksTotal int64 `json:"bricks_total"`
}

func (r *TapEventRepository) Counts(ctx context.Context) (TapCounts, error) {
	var c TapCounts
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE created_at > NOW() - INTERVAL '24 hours'),
		        COALESCE(SUM(reward), 0)
		 FROM tap_events`,
	).Scan(&c.Total, &c.Last24h, &c.BricksTotal)
	return c, err
}

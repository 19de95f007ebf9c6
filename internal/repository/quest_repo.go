package repository

import (
	"context"
	"errors"

	"pyramid_empire/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const questColumns = `id, title, description, requirement_type, requirement_value,
	reward_bricks, verification_type, external_url, bonus_days, is_active,
	sort_order, created_at, updated_at`

type QuestRepository struct {
	db *pgxpool.Pool
}

func NewQuestRepository(db *pgxpool.Pool) *QuestRepository {
	return &QuestRepository{db: db}
}

func scanQuest(row pgx.Row) (*domain.Quest, error) {
	var q domain.Quest
	if err := row.Scan(
		&q.ID, &q.Title, &q.Description, &q.RequirementType, &q.RequirementValue,
		&q.RewardBricks, &q.VerificationType, &q.ExternalURL, &q.BonusDays, &q.IsActive,
		&q.SortOrder, &q.CreatedAt, &q.UpdatedAt,
	); err != nil {
		return nil, notFound(err)
	}
	return &q, nil
}

func (r *QuestRepository) list(ctx context.Context, query string) ([]*domain.Quest, error) {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quests []*domain.Quest
	for rows.Next() {
		q, err := scanQuest(rows)
		if err != nil {
			return nil, err
		}
		quests = append(quests, q)
	}
	return quests, rows.Err()
}

// GetActive returns active quests in display order.
func (r *QuestRepository) GetActive(ctx context.Context) ([]*domain.Quest, error) {
	return r.list(ctx, `SELECT `+questColumns+` FROM quests WHERE is_active ORDER BY sort_order, id`)
}

// GetAll includes inactive quests, for the admin API.
func (r *QuestRepository) GetAll(ctx context.Context) ([]*domain.Quest, error) {
	return r.list(ctx, `SELECT `+questColumns+` FROM quests ORDER BY sort_order, id`)
}

func (r *QuestRepository) GetByID(ctx context.Context, id int64) (*domain.Quest, error) {
	return scanQuest(r.db.QueryRow(ctx, `SELECT `+questColumns+` FROM quests WHERE id = $1`, id))
}

func (r *QuestRepository) Create(ctx context.Context, q *domain.Quest) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO quests (title, description, requirement_type, requirement_value, reward_bricks,
		                     verification_type, external_url, bonus_days, is_active, sort_order)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, created_at, updated_at`,
		q.Title, q.Description, q.RequirementType, q.RequirementValue, q.RewardBricks,
		q.VerificationType, q.ExternalURL, q.BonusDays, q.IsActive, q.SortOrder,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
}

func (r *QuestRepository) Update(ctx context.Context, q *domain.Quest) error {
	err := r.db.QueryRow(ctx,
		`UPDATE quests SET title = $2, description = $3, requirement_type = $4,
		        requirement_value = $5, reward_bricks = $6, verification_type = $7,
		        external_url = $8, bonus_days = $9, is_active = $10, sort_order = $11,
		        updated_at = NOW()
		 WHERE id = $1
		 RETURNING created_at, updated_at`,
		q.ID, q.Title, q.Description, q.RequirementType, q.RequirementValue, q.RewardBricks,
		q.VerificationType, q.ExternalURL, q.BonusDays, q.IsActive, q.SortOrder,
	).Scan(&q.CreatedAt, &q.UpdatedAt)
	return notFound(err)
}

func (r *QuestRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM quests WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CompleteWithTx records the completion once. A second completion of the
// same quest returns domain.ErrAlreadyCompleted.
func (r *QuestRepository) CompleteWithTx(ctx context.Context, tx pgx.Tx, c *domain.QuestCompletion) error {
	err := tx.QueryRow(ctx,
		`INSERT INTO quest_completions (user_id, quest_id, reward_bricks)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, quest_id) DO NOTHING
		 RETURNING id, completed_at`,
		c.UserID, c.QuestID, c.RewardBricks,
	).Scan(&c.ID, &c.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrAlreadyCompleted
	}
	return err
}

// CompletedQuestIDs returns the set of quests the user has completed.
func (r *QuestRepository) CompletedQuestIDs(ctx context.Context, userID int64) (map[int64]bool, error) {
	rows, err := r.db.Query(ctx, `SELECT quest_id FROM quest_completions WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	done := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		done[id] = true
	}
	return done, rows.Err()
}

func (r *QuestRepository) IsCompleted(ctx context.Context, userID, questID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM quest_completions WHERE user_id = $1 AND quest_id = $2)`,
		userID, questID,
	).Scan(&exists)
	return exists, err
}

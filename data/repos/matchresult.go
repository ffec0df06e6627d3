package repos

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/p3bozuric/aidriatic-real-estate-monitor/data"
)

type MatchResultRepo struct {
	db *sqlx.DB
}

func NewMatchResultRepo(db *sqlx.DB) *MatchResultRepo {
	return &MatchResultRepo{db}
}

// CreateMatchResults appends evaluation outcomes. Re-evaluating the same
// (goal, listing) pair is a no-op; results are never mutated.
func (r *MatchResultRepo) CreateMatchResults(ctx context.Context, results []data.MatchResult) error {
	if len(results) == 0 {
		return nil
	}

	for i := range results {
		if results[i].SatisfiedCriteria == nil {
			results[i].SatisfiedCriteria = []int64{}
		}
	}

	query := `
		INSERT INTO match_results (goal_id, listing_id, matched, soft_score, satisfied_criteria, evaluated_at)
		VALUES (:goal_id, :listing_id, :matched, :soft_score, :satisfied_criteria, :evaluated_at)
		ON CONFLICT (goal_id, listing_id) DO NOTHING`

	if _, err := r.db.NamedExecContext(ctx, query, results); err != nil {
		return fmt.Errorf("create match results: %w", err)
	}

	return nil
}

// GetUnnotified returns matched results that have not been mailed yet,
// joined with the goal owner and the listing, oldest first.
func (r *MatchResultRepo) GetUnnotified(ctx context.Context) ([]data.MatchNotification, error) {
	var notifications []data.MatchNotification
	query := `
		SELECT m.id AS match_id, m.goal_id, g.name AS goal_name, g.user_id, m.soft_score,
			l.id AS listing_id, l.external_id, l.property_type, l.transaction_type,
			l.county, l.place, COALESCE(l.price, 0) AS price, l.currency,
			COALESCE(l.area, 0) AS area, COALESCE(l.room_count, 0) AS room_count,
			l.listing_url, l.description, m.evaluated_at
		FROM match_results m
		JOIN user_goals g ON g.id = m.goal_id
		JOIN listings l ON l.id = m.listing_id
		WHERE m.matched AND m.notified_at IS NULL
		ORDER BY m.evaluated_at ASC`

	if err := r.db.SelectContext(ctx, &notifications, query); err != nil {
		return nil, fmt.Errorf("get unnotified matches: %w", err)
	}

	return notifications, nil
}

func (r *MatchResultRepo) MarkNotified(ctx context.Context, ids []int64, notifiedAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	query, args, err := sqlx.In("UPDATE match_results SET notified_at = ? WHERE id IN (?)", notifiedAt, ids)
	if err != nil {
		return fmt.Errorf("build mark notified: %w", err)
	}
	query = r.db.Rebind(query)

	if _, err = r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark notified: %w", err)
	}

	return nil
}

// GetMatchesByUserID pages through a user's matched results, newest first.
// Inactive goals stay queryable here; they just stop producing new rows.
func (r *MatchResultRepo) GetMatchesByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]data.MatchNotification, int, error) {
	var total int
	countQuery := `
		SELECT COUNT(*)
		FROM match_results m
		JOIN user_goals g ON g.id = m.goal_id
		WHERE m.matched AND g.user_id = $1`

	if err := r.db.GetContext(ctx, &total, countQuery, userID); err != nil {
		return nil, 0, fmt.Errorf("count matches: %w", err)
	}

	var matches []data.MatchNotification
	query := `
		SELECT m.id AS match_id, m.goal_id, g.name AS goal_name, g.user_id, m.soft_score,
			l.id AS listing_id, l.external_id, l.property_type, l.transaction_type,
			l.county, l.place, COALESCE(l.price, 0) AS price, l.currency,
			COALESCE(l.area, 0) AS area, COALESCE(l.room_count, 0) AS room_count,
			l.listing_url, l.description, m.evaluated_at
		FROM match_results m
		JOIN user_goals g ON g.id = m.goal_id
		JOIN listings l ON l.id = m.listing_id
		WHERE m.matched AND g.user_id = $1
		ORDER BY m.evaluated_at DESC
		LIMIT $2 OFFSET $3`

	if err := r.db.SelectContext(ctx, &matches, query, userID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("get matches by user id: %w", err)
	}

	return matches, total, nil
}

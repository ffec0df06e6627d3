package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/p3bozuric/aidriatic-real-estate-monitor/data"
)

type GoalRepo struct {
	db *sqlx.DB
}

func NewGoalRepo(db *sqlx.DB) *GoalRepo {
	return &GoalRepo{db}
}

// CreateGoal inserts a goal and its criteria in one transaction.
func (r *GoalRepo) CreateGoal(ctx context.Context, goal data.UserGoal) (uuid.UUID, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if goal.ID == uuid.Nil {
		goal.ID = uuid.New()
	}

	query := `
		INSERT INTO user_goals (id, user_id, name, is_active)
		VALUES (:id, :user_id, :name, :is_active)`

	if _, err = tx.NamedExecContext(ctx, query, goal); err != nil {
		return uuid.Nil, fmt.Errorf("insert goal: %w", err)
	}

	if err = insertCriteria(ctx, tx, goal.ID, goal.Criteria); err != nil {
		return uuid.Nil, err
	}

	if err = tx.Commit(); err != nil {
		return uuid.Nil, fmt.Errorf("commit goal: %w", err)
	}

	return goal.ID, nil
}

func insertCriteria(ctx context.Context, tx *sqlx.Tx, goalID uuid.UUID, criteria []data.Criterion) error {
	if len(criteria) == 0 {
		return nil
	}

	query := `
		INSERT INTO criteria (goal_id, kind, field, operator, min_value, max_value, text_values, weight)
		VALUES (:goal_id, :kind, :field, :operator, :min_value, :max_value, :text_values, :weight)`

	for i := range criteria {
		criteria[i].GoalID = goalID
		if criteria[i].TextValues == nil {
			criteria[i].TextValues = []string{}
		}
	}

	if _, err := tx.NamedExecContext(ctx, query, criteria); err != nil {
		return fmt.Errorf("insert criteria: %w", err)
	}

	return nil
}

func (r *GoalRepo) GetGoalsByUserID(ctx context.Context, userID uuid.UUID) ([]data.UserGoal, error) {
	var goals []data.UserGoal
	query := `
		SELECT id, user_id, name, is_active, created_at, updated_at
		FROM user_goals
		WHERE user_id = $1
		ORDER BY created_at DESC`

	if err := r.db.SelectContext(ctx, &goals, query, userID); err != nil {
		return nil, fmt.Errorf("get goals by user id: %w", err)
	}

	if err := r.attachCriteria(ctx, goals); err != nil {
		return nil, err
	}

	return goals, nil
}

func (r *GoalRepo) GetGoalByID(ctx context.Context, id, userID uuid.UUID) (*data.UserGoal, error) {
	var goal data.UserGoal
	query := "SELECT * FROM user_goals WHERE id = $1 AND user_id = $2"

	err := r.db.GetContext(ctx, &goal, query, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get goal by id: %w", err)
	}

	goals := []data.UserGoal{goal}
	if err := r.attachCriteria(ctx, goals); err != nil {
		return nil, err
	}

	return &goals[0], nil
}

// GetActiveGoals returns every active goal with criteria attached. This is
// the read-only snapshot the matching engine evaluates against.
func (r *GoalRepo) GetActiveGoals(ctx context.Context) ([]data.UserGoal, error) {
	var goals []data.UserGoal
	query := `
		SELECT id, user_id, name, is_active, created_at, updated_at
		FROM user_goals
		WHERE is_active = true
		ORDER BY created_at`

	if err := r.db.SelectContext(ctx, &goals, query); err != nil {
		return nil, fmt.Errorf("get active goals: %w", err)
	}

	if err := r.attachCriteria(ctx, goals); err != nil {
		return nil, err
	}

	return goals, nil
}

func (r *GoalRepo) attachCriteria(ctx context.Context, goals []data.UserGoal) error {
	if len(goals) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(goals))
	for _, g := range goals {
		ids = append(ids, g.ID)
	}

	query, args, err := sqlx.In("SELECT * FROM criteria WHERE goal_id IN (?) ORDER BY id", ids)
	if err != nil {
		return fmt.Errorf("build criteria query: %w", err)
	}
	query = r.db.Rebind(query)

	var criteria []data.Criterion
	if err = r.db.SelectContext(ctx, &criteria, query, args...); err != nil {
		return fmt.Errorf("get criteria: %w", err)
	}

	byGoal := make(map[uuid.UUID][]data.Criterion, len(goals))
	for _, c := range criteria {
		byGoal[c.GoalID] = append(byGoal[c.GoalID], c)
	}
	for i := range goals {
		goals[i].Criteria = byGoal[goals[i].ID]
	}

	return nil
}

// UpdateGoal replaces the goal's name, active flag and criteria set.
// Last write wins; concurrent edits are not merged.
func (r *GoalRepo) UpdateGoal(ctx context.Context, goal data.UserGoal) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE user_goals
		SET name = :name, is_active = :is_active, updated_at = now()
		WHERE id = :id AND user_id = :user_id`

	res, err := tx.NamedExecContext(ctx, query, goal)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM criteria WHERE goal_id = $1", goal.ID); err != nil {
		return fmt.Errorf("clear criteria: %w", err)
	}

	if err = insertCriteria(ctx, tx, goal.ID, goal.Criteria); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit goal update: %w", err)
	}

	return nil
}

func (r *GoalRepo) DeleteGoal(ctx context.Context, id, userID uuid.UUID) error {
	query := "DELETE FROM user_goals WHERE id = $1 AND user_id = $2"
	_, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}

	return nil
}

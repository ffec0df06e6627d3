package matching

import (
	"database/sql"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/p3bozuric/aidriatic-real-estate-monitor/data"
	"github.com/p3bozuric/aidriatic-real-estate-monitor/enums"
)

func testEngine() *Engine {
	return NewEngine(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func nullInt(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: true}
}

func nullFloat64(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: true}
}

func hard(id int64, field enums.CriterionField, op enums.CriterionOperator, min float64) data.Criterion {
	return data.Criterion{
		ID:       id,
		Kind:     enums.CriterionKindHard,
		Field:    field,
		Operator: op,
		MinValue: nullFloat64(min),
	}
}

func soft(id int64, field enums.CriterionField, op enums.CriterionOperator, min, weight float64) data.Criterion {
	return data.Criterion{
		ID:       id,
		Kind:     enums.CriterionKindSoft,
		Field:    field,
		Operator: op,
		MinValue: nullFloat64(min),
		Weight:   nullFloat64(weight),
	}
}

func TestEvaluateOne_HardPassSoftMiss(t *testing.T) {
	// Goal A: hard price <= 200000, soft room_count >= 3 weight 1.
	// Listing: price 180000, rooms 2 -> matched with score 0.
	listing := data.Listing{ID: 1, Price: nullInt(180000), RoomCount: nullInt(2)}
	goal := data.UserGoal{
		ID:       uuid.New(),
		IsActive: true,
		Criteria: []data.Criterion{
			hard(1, enums.CriterionFieldPrice, enums.CriterionOperatorLte, 200000),
			soft(2, enums.CriterionFieldRoomCount, enums.CriterionOperatorGte, 3, 1),
		},
	}

	result := testEngine().EvaluateOne(listing, goal)

	assert.True(t, result.Matched)
	assert.Equal(t, 0.0, result.SoftScore)
	assert.Equal(t, []int64{1}, []int64(result.SatisfiedCriteria))
}

func TestEvaluateOne_HardFail(t *testing.T) {
	// Goal B: hard price <= 150000 against the same listing -> no match.
	listing := data.Listing{ID: 1, Price: nullInt(180000), RoomCount: nullInt(2)}
	goal := data.UserGoal{
		ID:       uuid.New(),
		IsActive: true,
		Criteria: []data.Criterion{
			hard(1, enums.CriterionFieldPrice, enums.CriterionOperatorLte, 150000),
		},
	}

	result := testEngine().EvaluateOne(listing, goal)

	assert.False(t, result.Matched)
	assert.Equal(t, 0.0, result.SoftScore)
}

func TestEvaluateOne_MissingFieldFailsHard(t *testing.T) {
	// No price on the listing: the hard price criterion must fail even
	// though every other criterion passes.
	listing := data.Listing{ID: 1, Area: nullInt(80)}
	goal := data.UserGoal{
		ID:       uuid.New(),
		IsActive: true,
		Criteria: []data.Criterion{
			hard(1, enums.CriterionFieldArea, enums.CriterionOperatorGte, 50),
			hard(2, enums.CriterionFieldPrice, enums.CriterionOperatorLte, 500000),
		},
	}

	result := testEngine().EvaluateOne(listing, goal)

	assert.False(t, result.Matched)
}

func TestEvaluateOne_ZeroHardCriteriaMatches(t *testing.T) {
	listing := data.Listing{ID: 1}
	goal := data.UserGoal{ID: uuid.New(), IsActive: true}

	result := testEngine().EvaluateOne(listing, goal)

	assert.True(t, result.Matched)
	assert.Equal(t, 1.0, result.SoftScore)
}

func TestEvaluateOne_SoftScoreNormalized(t *testing.T) {
	// Weights 3 and 1; only the weight-3 criterion is satisfied -> 0.75.
	listing := data.Listing{ID: 1, Price: nullInt(100000), Area: nullInt(40), RoomCount: nullInt(4)}
	goal := data.UserGoal{
		ID:       uuid.New(),
		IsActive: true,
		Criteria: []data.Criterion{
			soft(1, enums.CriterionFieldRoomCount, enums.CriterionOperatorGte, 3, 3),
			soft(2, enums.CriterionFieldArea, enums.CriterionOperatorGte, 60, 1),
		},
	}

	result := testEngine().EvaluateOne(listing, goal)

	assert.True(t, result.Matched)
	assert.InDelta(t, 0.75, result.SoftScore, 1e-9)
	assert.Equal(t, []int64{1}, []int64(result.SatisfiedCriteria))
}

func TestEvaluateOne_SoftScoreBounds(t *testing.T) {
	listing := data.Listing{ID: 1, Price: nullInt(100000), RoomCount: nullInt(3), Area: nullInt(70)}
	goal := data.UserGoal{
		ID:       uuid.New(),
		IsActive: true,
		Criteria: []data.Criterion{
			soft(1, enums.CriterionFieldRoomCount, enums.CriterionOperatorGte, 1, 2.5),
			soft(2, enums.CriterionFieldArea, enums.CriterionOperatorGte, 1, 0.5),
		},
	}

	result := testEngine().EvaluateOne(listing, goal)

	assert.True(t, result.Matched)
	assert.GreaterOrEqual(t, result.SoftScore, 0.0)
	assert.LessOrEqual(t, result.SoftScore, 1.0)
	assert.Equal(t, 1.0, result.SoftScore)
}

func TestEvaluateOne_MissingFieldSoftUnsatisfied(t *testing.T) {
	// Missing data degrades a soft criterion to unsatisfied, nothing more.
	listing := data.Listing{ID: 1}
	goal := data.UserGoal{
		ID:       uuid.New(),
		IsActive: true,
		Criteria: []data.Criterion{
			soft(1, enums.CriterionFieldFloor, enums.CriterionOperatorLte, 2, 1),
		},
	}

	result := testEngine().EvaluateOne(listing, goal)

	assert.True(t, result.Matched)
	assert.Equal(t, 0.0, result.SoftScore)
}

func TestEvaluateOne_UnknownOperatorDoesNotAbort(t *testing.T) {
	listing := data.Listing{ID: 1, Price: nullInt(100000), Area: nullInt(80)}
	broken := data.Criterion{
		ID:       1,
		Kind:     enums.CriterionKindSoft,
		Field:    enums.CriterionFieldPrice,
		Operator: enums.CriterionOperator("between"),
		Weight:   nullFloat64(1),
	}
	goal := data.UserGoal{
		ID:       uuid.New(),
		IsActive: true,
		Criteria: []data.Criterion{
			broken,
			soft(2, enums.CriterionFieldArea, enums.CriterionOperatorGte, 50, 1),
		},
	}

	result := testEngine().EvaluateOne(listing, goal)

	assert.True(t, result.Matched)
	assert.InDelta(t, 0.5, result.SoftScore, 1e-9)
}

func TestEvaluateOne_Deterministic(t *testing.T) {
	listing := data.Listing{ID: 1, Price: nullInt(123456), Area: nullInt(77), RoomCount: nullInt(3)}
	goal := data.UserGoal{
		ID:       uuid.New(),
		IsActive: true,
		Criteria: []data.Criterion{
			hard(1, enums.CriterionFieldPrice, enums.CriterionOperatorLte, 200000),
			soft(2, enums.CriterionFieldArea, enums.CriterionOperatorGte, 60, 2),
			soft(3, enums.CriterionFieldRoomCount, enums.CriterionOperatorGte, 4, 1),
		},
	}

	engine := testEngine()
	first := engine.EvaluateOne(listing, goal)
	second := engine.EvaluateOne(listing, goal)

	assert.Equal(t, first.Matched, second.Matched)
	assert.Equal(t, first.SoftScore, second.SoftScore)
	assert.Equal(t, first.SatisfiedCriteria, second.SatisfiedCriteria)
}

func TestEvaluate_SkipsInactiveGoals(t *testing.T) {
	listing := data.Listing{ID: 1, Price: nullInt(100000)}
	goals := []data.UserGoal{
		{ID: uuid.New(), IsActive: true},
		{ID: uuid.New(), IsActive: false},
		{ID: uuid.New(), IsActive: true},
	}

	results := testEngine().Evaluate(listing, goals)

	assert.Len(t, results, 2)
}

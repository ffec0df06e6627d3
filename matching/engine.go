// Package matching evaluates user goals against listings. A goal matches a
// listing when every hard criterion passes; soft criteria then produce a
// weight-normalized preference score in [0, 1].
package matching

import (
	"log/slog"
	"time"

	"github.com/p3bozuric/aidriatic-real-estate-monitor/data"
	"github.com/p3bozuric/aidriatic-real-estate-monitor/enums"
)

type Engine struct {
	logger *slog.Logger
}

func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{logger: logger}
}

// EvaluateOne evaluates a single goal against a listing. The result is a
// pure function of the listing attributes and the goal's criteria: repeated
// evaluation of the same pair always yields the same outcome.
func (e *Engine) EvaluateOne(listing data.Listing, goal data.UserGoal) data.MatchResult {
	result := data.MatchResult{
		GoalID:            goal.ID,
		ListingID:         listing.ID,
		SatisfiedCriteria: []int64{},
		EvaluatedAt:       time.Now().UTC(),
	}

	// Hard criteria first. The first failure disqualifies the listing and
	// makes soft scoring irrelevant.
	for _, c := range goal.Criteria {
		if c.Kind != enums.CriterionKindHard {
			continue
		}

		satisfied, err := evalCriterion(listing, c)
		if err != nil {
			e.logCriterionDefect(c, err)
		}
		if !satisfied {
			return result
		}
		result.SatisfiedCriteria = append(result.SatisfiedCriteria, c.ID)
	}

	result.Matched = true
	result.SoftScore = e.softScore(listing, goal, &result)

	return result
}

// softScore sums the weights of satisfied soft criteria and normalizes by
// the total weight. A goal with no soft criteria scores 1.0: once the hard
// requirements are met and no preferences are declared, the listing is as
// good as it gets.
func (e *Engine) softScore(listing data.Listing, goal data.UserGoal, result *data.MatchResult) float64 {
	var total, satisfied float64
	for _, c := range goal.Criteria {
		if c.Kind != enums.CriterionKindSoft || !c.Weight.Valid || c.Weight.Float64 <= 0 {
			continue
		}
		total += c.Weight.Float64

		ok, err := evalCriterion(listing, c)
		if err != nil {
			e.logCriterionDefect(c, err)
			continue
		}
		if ok {
			satisfied += c.Weight.Float64
			result.SatisfiedCriteria = append(result.SatisfiedCriteria, c.ID)
		}
	}

	if total == 0 {
		return 1.0
	}

	return satisfied / total
}

// Evaluate runs EvaluateOne for every active goal in the snapshot.
// Inactive goals are skipped and produce no result.
func (e *Engine) Evaluate(listing data.Listing, goals []data.UserGoal) []data.MatchResult {
	results := make([]data.MatchResult, 0, len(goals))
	for _, goal := range goals {
		if !goal.IsActive {
			continue
		}
		results = append(results, e.EvaluateOne(listing, goal))
	}

	return results
}

func (e *Engine) logCriterionDefect(c data.Criterion, err error) {
	if _, missing := err.(errMissingField); missing {
		// Absent listing data is expected; only configuration defects are
		// worth a log line.
		return
	}
	e.logger.Warn("criterion misconfigured, treated as unsatisfied",
		"criterion_id", c.ID, "goal_id", c.GoalID, "error", err)
}

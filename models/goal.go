package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/p3bozuric/aidriatic-real-estate-monitor/data"
	"github.com/p3bozuric/aidriatic-real-estate-monitor/enums"
)

type Criterion struct {
	ID         int64     `json:"id,omitempty"`
	Kind       string    `json:"kind"`
	Field      string    `json:"field"`
	Operator   string    `json:"operator"`
	MinValue   *float64  `json:"minValue,omitempty"`
	MaxValue   *float64  `json:"maxValue,omitempty"`
	TextValues []string  `json:"textValues,omitempty"`
	Weight     *float64  `json:"weight,omitempty"`
}

type Goal struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	Active    bool        `json:"active"`
	Criteria  []Criterion `json:"criteria"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

type CreateGoalRequest struct {
	Name     string      `json:"name"`
	Criteria []Criterion `json:"criteria"`
}

type UpdateGoalRequest struct {
	Name     string      `json:"name"`
	Active   bool        `json:"active"`
	Criteria []Criterion `json:"criteria"`
}

type GetGoalsResponse struct {
	Goals []Goal `json:"goals"`
}

func ToDataCriterion(c Criterion) data.Criterion {
	out := data.Criterion{
		ID:         c.ID,
		Kind:       enums.ParseCriterionKind(c.Kind),
		Field:      enums.ParseCriterionField(c.Field),
		Operator:   enums.ParseCriterionOperator(c.Operator),
		TextValues: c.TextValues,
	}
	if c.MinValue != nil {
		out.MinValue = sql.NullFloat64{Float64: *c.MinValue, Valid: true}
	}
	if c.MaxValue != nil {
		out.MaxValue = sql.NullFloat64{Float64: *c.MaxValue, Valid: true}
	}
	if c.Weight != nil {
		out.Weight = sql.NullFloat64{Float64: *c.Weight, Valid: true}
	}
	return out
}

func FromDataCriterion(c data.Criterion) Criterion {
	out := Criterion{
		ID:         c.ID,
		Kind:       string(c.Kind),
		Field:      string(c.Field),
		Operator:   string(c.Operator),
		TextValues: c.TextValues,
	}
	if c.MinValue.Valid {
		v := c.MinValue.Float64
		out.MinValue = &v
	}
	if c.MaxValue.Valid {
		v := c.MaxValue.Float64
		out.MaxValue = &v
	}
	if c.Weight.Valid {
		v := c.Weight.Float64
		out.Weight = &v
	}
	return out
}

func FromDataGoal(g data.UserGoal) Goal {
	criteria := make([]Criterion, 0, len(g.Criteria))
	for _, c := range g.Criteria {
		criteria = append(criteria, FromDataCriterion(c))
	}
	return Goal{
		ID:        g.ID,
		Name:      g.Name,
		Active:    g.IsActive,
		Criteria:  criteria,
		CreatedAt: g.CreatedAt,
		UpdatedAt: g.UpdatedAt,
	}
}

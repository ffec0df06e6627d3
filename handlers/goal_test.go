package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p3bozuric/aidriatic-real-estate-monitor/enums"
	"github.com/p3bozuric/aidriatic-real-estate-monitor/models"
)

func f64(v float64) *float64 { return &v }

func TestValidateCriteria_Valid(t *testing.T) {
	criteria, errMsg := validateCriteria([]models.Criterion{
		{Kind: "hard", Field: "price", Operator: "lte", MinValue: f64(200000)},
		{Kind: "hard", Field: "area", Operator: "range", MinValue: f64(50), MaxValue: f64(120)},
		{Kind: "hard", Field: "county", Operator: "in", TextValues: []string{"Splitsko-dalmatinska", "Zadarska"}},
		{Kind: "soft", Field: "room_count", Operator: "gte", MinValue: f64(3), Weight: f64(2)},
	})

	require.Empty(t, errMsg)
	require.Len(t, criteria, 4)
	assert.Equal(t, enums.CriterionKindHard, criteria[0].Kind)
	assert.Equal(t, enums.CriterionFieldPrice, criteria[0].Field)
	assert.True(t, criteria[3].Weight.Valid)
}

func TestValidateCriteria_Invalid(t *testing.T) {
	cases := []struct {
		name string
		in   models.Criterion
	}{
		{"unknown kind", models.Criterion{Kind: "mandatory", Field: "price", Operator: "lte", MinValue: f64(1)}},
		{"unknown field", models.Criterion{Kind: "hard", Field: "garden", Operator: "lte", MinValue: f64(1)}},
		{"unknown operator", models.Criterion{Kind: "hard", Field: "price", Operator: "near", MinValue: f64(1)}},
		{"numeric without value", models.Criterion{Kind: "hard", Field: "price", Operator: "lte"}},
		{"range missing bound", models.Criterion{Kind: "hard", Field: "area", Operator: "range", MinValue: f64(50)}},
		{"range inverted", models.Criterion{Kind: "hard", Field: "area", Operator: "range", MinValue: f64(120), MaxValue: f64(50)}},
		{"range on text field", models.Criterion{Kind: "hard", Field: "county", Operator: "range", MinValue: f64(1), MaxValue: f64(2)}},
		{"text without values", models.Criterion{Kind: "hard", Field: "county", Operator: "in"}},
		{"in on numeric field", models.Criterion{Kind: "hard", Field: "price", Operator: "in", TextValues: []string{"1"}}},
		{"soft without weight", models.Criterion{Kind: "soft", Field: "price", Operator: "lte", MinValue: f64(1)}},
		{"soft with zero weight", models.Criterion{Kind: "soft", Field: "price", Operator: "lte", MinValue: f64(1), Weight: f64(0)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			criteria, errMsg := validateCriteria([]models.Criterion{tc.in})
			assert.NotEmpty(t, errMsg)
			assert.Nil(t, criteria)
		})
	}
}

func TestValidateCriteria_EmptyList(t *testing.T) {
	criteria, errMsg := validateCriteria(nil)
	assert.Empty(t, errMsg)
	assert.Empty(t, criteria)
}

package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/p3bozuric/aidriatic-real-estate-monitor/data"
)

type Match struct {
	ID          int64     `json:"id"`
	GoalID      uuid.UUID `json:"goalId"`
	GoalName    string    `json:"goalName"`
	SoftScore   float64   `json:"softScore"`
	EvaluatedAt time.Time `json:"evaluatedAt"`
	Listing     Listing   `json:"listing"`
}

type GetMatchesResponse struct {
	Matches []Match `json:"matches"`
	Total   int     `json:"total"`
	Page    int     `json:"page"`
	PerPage int     `json:"perPage"`
}

func FromMatchNotification(m data.MatchNotification) Match {
	listing := Listing{
		ID:              m.ListingID,
		ExternalID:      m.ExternalID,
		PropertyType:    m.PropertyType,
		TransactionType: m.TransactionType,
		County:          m.County,
		Place:           m.Place,
		Currency:        m.Currency,
		URL:             m.ListingURL,
		Description:     m.Description,
		Active:          true,
	}
	if m.Price > 0 {
		listing.Price = &m.Price
	}
	if m.Area > 0 {
		listing.Area = &m.Area
	}
	if m.RoomCount > 0 {
		listing.RoomCount = &m.RoomCount
	}

	return Match{
		ID:          m.MatchID,
		GoalID:      m.GoalID,
		GoalName:    m.GoalName,
		SoftScore:   m.SoftScore,
		EvaluatedAt: m.EvaluatedAt,
		Listing:     listing,
	}
}

package data

import (
	"time"

	"github.com/google/uuid"
)

// MatchNotification is a match result joined with the goal owner and the
// listing, as needed by the notification dispatcher.
type MatchNotification struct {
	MatchID   int64     `db:"match_id"`
	GoalID    uuid.UUID `db:"goal_id"`
	GoalName  string    `db:"goal_name"`
	UserID    uuid.UUID `db:"user_id"`
	SoftScore float64   `db:"soft_score"`

	ListingID       int64     `db:"listing_id"`
	ExternalID      string    `db:"external_id"`
	PropertyType    string    `db:"property_type"`
	TransactionType string    `db:"transaction_type"`
	County          string    `db:"county"`
	Place           string    `db:"place"`
	Price           int64     `db:"price"`
	Currency        string    `db:"currency"`
	Area            int64     `db:"area"`
	RoomCount       int64     `db:"room_count"`
	ListingURL      string    `db:"listing_url"`
	Description     string    `db:"description"`
	EvaluatedAt     time.Time `db:"evaluated_at"`
}

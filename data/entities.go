package data

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/p3bozuric/aidriatic-real-estate-monitor/enums"
)

type User struct {
	ID          uuid.UUID `db:"id"`
	Name        string    `db:"name"`
	DisplayName string    `db:"display_name"`
	Email       string    `db:"email"`
	Avatar      string    `db:"avatar"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Listing is one property advert as seen on the source feed.
// ExternalID and FirstSeenAt are immutable once the row exists.
type Listing struct {
	ID                int64          `db:"id"`
	ExternalID        string         `db:"external_id"`
	SourcePublishedAt time.Time      `db:"source_published_at"`
	PropertyType      string         `db:"property_type"`
	TransactionType   string         `db:"transaction_type"`
	County            string         `db:"county"`
	Municipality      string         `db:"municipality"`
	Place             string         `db:"place"`
	Price             sql.NullInt64  `db:"price"`
	Currency          string         `db:"currency"`
	Area              sql.NullInt64  `db:"area"`
	RoomCount         sql.NullInt64  `db:"room_count"`
	BathroomCount     sql.NullInt64  `db:"bathroom_count"`
	Floor             sql.NullInt64  `db:"floor"`
	ListingURL        string         `db:"listing_url"`
	Description       string         `db:"description"`
	DescriptionLang   string         `db:"description_lang"`
	RawPayloadHash    string         `db:"raw_payload_hash"`
	FirstSeenAt       time.Time      `db:"first_seen_at"`
	IsActive          bool           `db:"is_active"`
}

// CrawlRun is one ingestion run of the source feed. At most one run may be
// in_progress at a time; the partial unique index in the schema enforces it.
type CrawlRun struct {
	ID          uuid.UUID       `db:"id"`
	WindowStart time.Time       `db:"window_start"`
	WindowEnd   time.Time       `db:"window_end"`
	Status      enums.RunStatus `db:"status"`
	Watermark   int64           `db:"watermark"`
	StartedAt   time.Time       `db:"started_at"`
	CompletedAt sql.NullTime    `db:"completed_at"`
}

// UserGoal is a named standing search owned by one user.
type UserGoal struct {
	ID        uuid.UUID `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	Name      string    `db:"name"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	Criteria []Criterion `db:"-"`
}

type Criterion struct {
	ID       int64                   `db:"id"`
	GoalID   uuid.UUID               `db:"goal_id"`
	Kind     enums.CriterionKind     `db:"kind"`
	Field    enums.CriterionField    `db:"field"`
	Operator enums.CriterionOperator `db:"operator"`
	// MinValue/MaxValue carry numeric operands. eq/lte/gte use MinValue only;
	// range uses both, inclusive.
	MinValue sql.NullFloat64 `db:"min_value"`
	MaxValue sql.NullFloat64 `db:"max_value"`
	// TextValues carries operands for text fields (eq uses the first entry,
	// in matches any entry).
	TextValues pq.StringArray `db:"text_values"`
	// Weight is only meaningful for soft criteria and must be positive.
	Weight sql.NullFloat64 `db:"weight"`
}

// MatchResult is the outcome of evaluating one goal against one listing.
// Rows are append-only; NotifiedAt is the only column ever updated.
type MatchResult struct {
	ID                 int64          `db:"id"`
	GoalID             uuid.UUID      `db:"goal_id"`
	ListingID          int64          `db:"listing_id"`
	Matched            bool           `db:"matched"`
	SoftScore          float64        `db:"soft_score"`
	SatisfiedCriteria  pq.Int64Array  `db:"satisfied_criteria"`
	EvaluatedAt        time.Time      `db:"evaluated_at"`
	NotifiedAt         sql.NullTime   `db:"notified_at"`
}

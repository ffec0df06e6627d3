package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/p3bozuric/aidriatic-real-estate-monitor/data"
)

type ListingRepo struct {
	db *sqlx.DB
}

func NewListingRepo(db *sqlx.DB) *ListingRepo {
	return &ListingRepo{db}
}

// InsertIfAbsent admits a listing keyed by external_id. It returns the row id
// and inserted=true for a new listing, or the existing row id and
// inserted=false when the external_id was already admitted. Two racing
// inserts on the same external_id resolve to one winner; the loser observes
// a duplicate, never a constraint error.
func (r *ListingRepo) InsertIfAbsent(ctx context.Context, listing data.Listing) (int64, bool, error) {
	query := `
		INSERT INTO listings (external_id, source_published_at, property_type, transaction_type,
			county, municipality, place, price, currency, area, room_count, bathroom_count,
			floor, listing_url, description, description_lang, raw_payload_hash, is_active)
		VALUES (:external_id, :source_published_at, :property_type, :transaction_type,
			:county, :municipality, :place, :price, :currency, :area, :room_count, :bathroom_count,
			:floor, :listing_url, :description, :description_lang, :raw_payload_hash, :is_active)
		ON CONFLICT (external_id) DO NOTHING
		RETURNING id`

	rows, err := r.db.NamedQueryContext(ctx, query, listing)
	if err != nil {
		return 0, false, fmt.Errorf("insert listing: %w", err)
	}
	defer rows.Close()

	var id int64
	if rows.Next() {
		if err = rows.Scan(&id); err != nil {
			return 0, false, fmt.Errorf("scan returned id: %w", err)
		}
		return id, true, nil
	}

	query = "SELECT id FROM listings WHERE external_id = $1"
	if err = r.db.GetContext(ctx, &id, query, listing.ExternalID); err != nil {
		return 0, false, fmt.Errorf("get existing listing id: %w", err)
	}

	return id, false, nil
}

func (r *ListingRepo) GetByID(ctx context.Context, id int64) (*data.Listing, error) {
	var listing data.Listing
	query := "SELECT * FROM listings WHERE id = $1"

	err := r.db.GetContext(ctx, &listing, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get listing by id: %w", err)
	}

	return &listing, nil
}

func (r *ListingRepo) GetByExternalID(ctx context.Context, externalID string) (*data.Listing, error) {
	var listing data.Listing
	query := "SELECT * FROM listings WHERE external_id = $1"

	err := r.db.GetContext(ctx, &listing, query, externalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get listing by external id: %w", err)
	}

	return &listing, nil
}

// ListingFilter narrows a listing browse query. Zero values mean "no bound".
type ListingFilter struct {
	TransactionType string
	PropertyTypes   []string
	Counties        []string
	MinPrice        int64
	MaxPrice        int64
	MinArea         int64
	MaxArea         int64
	ActiveOnly      bool
	Limit           int
	Offset          int
}

// Filter returns listings matching all supplied bounds, newest first.
func (r *ListingRepo) Filter(ctx context.Context, f ListingFilter) ([]data.Listing, error) {
	where := make([]string, 0, 8)
	args := make([]interface{}, 0, 8)

	add := func(clause string, arg interface{}) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if f.TransactionType != "" {
		add("transaction_type = $%d", f.TransactionType)
	}
	if len(f.PropertyTypes) > 0 {
		add("property_type = ANY($%d)", f.PropertyTypes)
	}
	if len(f.Counties) > 0 {
		add("county = ANY($%d)", f.Counties)
	}
	if f.MinPrice > 0 {
		add("price >= $%d", f.MinPrice)
	}
	if f.MaxPrice > 0 {
		add("price <= $%d", f.MaxPrice)
	}
	if f.MinArea > 0 {
		add("area >= $%d", f.MinArea)
	}
	if f.MaxArea > 0 {
		add("area <= $%d", f.MaxArea)
	}
	if f.ActiveOnly {
		where = append(where, "is_active")
	}

	query := "SELECT * FROM listings"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY first_seen_at DESC"

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	// ANY($n) needs driver-level arrays for the slice args.
	for i, a := range args {
		if s, ok := a.([]string); ok {
			args[i] = pq.Array(s)
		}
	}

	var listings []data.Listing
	if err := r.db.SelectContext(ctx, &listings, query, args...); err != nil {
		return nil, fmt.Errorf("filter listings: %w", err)
	}

	return listings, nil
}

// Deactivate marks a listing withdrawn at the source. The row itself stays.
func (r *ListingRepo) Deactivate(ctx context.Context, externalID string) error {
	query := "UPDATE listings SET is_active = false WHERE external_id = $1"
	_, err := r.db.ExecContext(ctx, query, externalID)
	if err != nil {
		return fmt.Errorf("deactivate listing: %w", err)
	}

	return nil
}

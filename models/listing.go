package models

import (
	"time"

	"github.com/p3bozuric/aidriatic-real-estate-monitor/data"
)

type Listing struct {
	ID              int64     `json:"id"`
	ExternalID      string    `json:"externalId"`
	PublishedAt     time.Time `json:"publishedAt"`
	PropertyType    string    `json:"propertyType"`
	TransactionType string    `json:"transactionType"`
	County          string    `json:"county"`
	Municipality    string    `json:"municipality"`
	Place           string    `json:"place"`
	Price           *int64    `json:"price,omitempty"`
	Currency        string    `json:"currency,omitempty"`
	Area            *int64    `json:"area,omitempty"`
	RoomCount       *int64    `json:"roomCount,omitempty"`
	BathroomCount   *int64    `json:"bathroomCount,omitempty"`
	Floor           *int64    `json:"floor,omitempty"`
	URL             string    `json:"url"`
	Description     string    `json:"description,omitempty"`
	DescriptionLang string    `json:"descriptionLang,omitempty"`
	Active          bool      `json:"active"`
}

type GetListingsResponse struct {
	Listings []Listing `json:"listings"`
}

func FromDataListing(l data.Listing) Listing {
	out := Listing{
		ID:              l.ID,
		ExternalID:      l.ExternalID,
		PublishedAt:     l.SourcePublishedAt,
		PropertyType:    l.PropertyType,
		TransactionType: l.TransactionType,
		County:          l.County,
		Municipality:    l.Municipality,
		Place:           l.Place,
		Currency:        l.Currency,
		URL:             l.ListingURL,
		Description:     l.Description,
		DescriptionLang: l.DescriptionLang,
		Active:          l.IsActive,
	}
	if l.Price.Valid {
		out.Price = &l.Price.Int64
	}
	if l.Area.Valid {
		out.Area = &l.Area.Int64
	}
	if l.RoomCount.Valid {
		out.RoomCount = &l.RoomCount.Int64
	}
	if l.BathroomCount.Valid {
		out.BathroomCount = &l.BathroomCount.Int64
	}
	if l.Floor.Valid {
		out.Floor = &l.Floor.Int64
	}
	return out
}

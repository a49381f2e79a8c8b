package models

import "time"

type Listing struct {
	ID          int64          `json:"id"`
	Title       string         `json:"title"`
	Description *string        `json:"description"`
	Category    string         `json:"category"`
	Price       float64        `json:"price"`
	PriceType   string         `json:"price_type"`
	Address     string         `json:"address"`
	Latitude    float64        `json:"latitude"`
	Longitude   float64        `json:"longitude"`
	Features    map[string]any `json:"features"`
	ExpiresAt   *time.Time     `json:"expires_at"`
	CreatedBy   int64          `json:"created_by"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Expired reports whether the listing's expiry lies before now.
func (l Listing) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && l.ExpiresAt.Before(now)
}

// ListingPatch is the allow-listed set of mutable listing fields. Nil means unchanged.
// ClearExpiry removes expires_at; CreatedBy is only honored on the admin path.
type ListingPatch struct {
	Title       *string
	Description *string
	Category    *string
	Price       *float64
	PriceType   *string
	Address     *string
	Latitude    *float64
	Longitude   *float64
	Features    map[string]any
	ExpiresAt   *time.Time
	ClearExpiry bool
	CreatedBy   *int64
}

func (p ListingPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Category == nil &&
		p.Price == nil && p.PriceType == nil && p.Address == nil &&
		p.Latitude == nil && p.Longitude == nil && p.Features == nil &&
		p.ExpiresAt == nil && !p.ClearExpiry && p.CreatedBy == nil
}

// Apply merges the patch into l in place.
func (p ListingPatch) Apply(l *Listing) {
	if p.Title != nil {
		l.Title = *p.Title
	}
	if p.Description != nil {
		l.Description = p.Description
	}
	if p.Category != nil {
		l.Category = *p.Category
	}
	if p.Price != nil {
		l.Price = *p.Price
	}
	if p.PriceType != nil {
		l.PriceType = *p.PriceType
	}
	if p.Address != nil {
		l.Address = *p.Address
	}
	if p.Latitude != nil {
		l.Latitude = *p.Latitude
	}
	if p.Longitude != nil {
		l.Longitude = *p.Longitude
	}
	if p.Features != nil {
		l.Features = p.Features
	}
	if p.ClearExpiry {
		l.ExpiresAt = nil
	} else if p.ExpiresAt != nil {
		l.ExpiresAt = p.ExpiresAt
	}
	if p.CreatedBy != nil {
		l.CreatedBy = *p.CreatedBy
	}
}

type ListingQuery struct {
	Limit       int
	Offset      int
	HideExpired bool
	Now         time.Time
}

type ListingPage struct {
	Listings   []Listing `json:"listings"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	Total      int       `json:"total"`
	TotalPages int       `json:"total_pages"`
}

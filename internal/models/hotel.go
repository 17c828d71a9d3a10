// Package models defines the core domain entities: snapshots, verdicts, and matches.
package models

import (
	"errors"
	"time"
)

// HotelSnapshot is one observation of a hotel's price and attributes at a
// point in time, as produced by the scrape collaborator. Immutable once built.
type HotelSnapshot struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Destination   string    `json:"destination"`
	Location      string    `json:"location"`
	Rating        float64   `json:"rating"`
	ReviewCount   int       `json:"review_count"`
	PricePerNight float64   `json:"price_per_night"`
	Amenities     []string  `json:"amenities"`
	Images        []string  `json:"images,omitempty"`
	URL           string    `json:"url,omitempty"`
	Available     bool      `json:"available"`
	ObservedAt    time.Time `json:"observed_at"`
}

// Validate checks snapshot field constraints. Called at the boundary where
// scrape output enters the pipeline, not inside scoring.
func (h *HotelSnapshot) Validate() error {
	if h.ID == "" {
		return errors.New("hotel ID must not be empty")
	}
	if h.Name == "" {
		return errors.New("hotel name must not be empty")
	}
	if h.Destination == "" {
		return errors.New("destination must not be empty")
	}
	if h.PricePerNight < 0 {
		return errors.New("price per night must not be negative")
	}
	if h.Rating < 0.0 || h.Rating > 5.0 {
		return errors.New("rating must be between 0.0 and 5.0")
	}
	if h.ReviewCount < 0 {
		return errors.New("review count must not be negative")
	}
	if h.ObservedAt.IsZero() {
		return errors.New("observed at must be set")
	}
	return nil
}

// PricePoint is one stored (price, timestamp) pair in a hotel's history.
type PricePoint struct {
	Price      float64   `json:"price"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Watchlist is one user's subscription to a destination. Owned by the
// backend collaborator; read-only here.
type Watchlist struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	Destination  string `json:"destination"`
	CheckInDate  string `json:"check_in_date"`
	CheckOutDate string `json:"check_out_date"`
}

// PreferencePolicy is one user's matching configuration. Owned by the
// backend collaborator; read-only here.
type PreferencePolicy struct {
	PreferredStars     []int    `json:"preferred_stars"`
	MaxPricePerNight   float64  `json:"max_price_per_night"`
	PreferredLocations []string `json:"preferred_locations"`
	RequiredAmenities  []string `json:"required_amenities"`
}

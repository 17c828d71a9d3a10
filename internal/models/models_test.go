package models

import (
	"testing"
	"time"
)

func validSnapshot() HotelSnapshot {
	return HotelSnapshot{
		ID:            "abc123",
		Name:          "Grand Hotel Paris",
		Destination:   "Paris",
		Location:      "Central Paris, France",
		Rating:        4.5,
		ReviewCount:   1200,
		PricePerNight: 189.99,
		Amenities:     []string{"Pool", "WiFi"},
		Available:     true,
		ObservedAt:    time.Now(),
	}
}

func TestHotelSnapshotValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*HotelSnapshot)
		wantErr bool
	}{
		{"valid", func(h *HotelSnapshot) {}, false},
		{"free room is valid", func(h *HotelSnapshot) { h.PricePerNight = 0 }, false},
		{"zero rating is valid", func(h *HotelSnapshot) { h.Rating = 0 }, false},
		{"no amenities is valid", func(h *HotelSnapshot) { h.Amenities = nil }, false},
		{"empty id", func(h *HotelSnapshot) { h.ID = "" }, true},
		{"empty name", func(h *HotelSnapshot) { h.Name = "" }, true},
		{"empty destination", func(h *HotelSnapshot) { h.Destination = "" }, true},
		{"negative price", func(h *HotelSnapshot) { h.PricePerNight = -1 }, true},
		{"rating above five", func(h *HotelSnapshot) { h.Rating = 5.1 }, true},
		{"negative rating", func(h *HotelSnapshot) { h.Rating = -0.1 }, true},
		{"negative review count", func(h *HotelSnapshot) { h.ReviewCount = -1 }, true},
		{"zero observed at", func(h *HotelSnapshot) { h.ObservedAt = time.Time{} }, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := validSnapshot()
			tc.mutate(&h)
			err := h.Validate()
			if tc.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

package personalizer

import (
	"math/rand"
	"testing"

	"github.com/vacationgenius/dealwatch/internal/models"
)

func testDeal(hotel models.HotelSnapshot) models.DealVerdict {
	return models.DealVerdict{
		Hotel:             hotel,
		DealScore:         90,
		HistoricalAverage: 200,
		Savings:           100,
		Recommendation:    models.RecommendBookNow,
		Confidence:        80,
	}
}

func testHotel() models.HotelSnapshot {
	return models.HotelSnapshot{
		ID:            "abc123",
		Name:          "Grand Hotel",
		Destination:   "Paris",
		Location:      "Central Paris, France",
		Rating:        5.0,
		ReviewCount:   1000,
		PricePerNight: 100,
		Amenities:     []string{"Outdoor Pool", "Free WiFi"},
		Available:     true,
	}
}

func TestMatch_FullMatch(t *testing.T) {
	m := New(DefaultConfig())
	policy := models.PreferencePolicy{
		PreferredStars:     []int{4, 5},
		MaxPricePerNight:   300,
		PreferredLocations: []string{"Central"},
	}

	match := m.Match("user-1", testDeal(testHotel()), policy)
	if match == nil {
		t.Fatal("expected a match")
	}
	// 30 stars + 20 price + 20 location + 20 no-requirements = 90
	if match.MatchScore != 90 {
		t.Errorf("got match score %d, want 90", match.MatchScore)
	}
	if match.UserID != "user-1" {
		t.Errorf("got user %s, want user-1", match.UserID)
	}
	wantReasons := []string{"5-star hotel", "Within budget ($100)", "Central location"}
	if len(match.MatchReasons) != len(wantReasons) {
		t.Fatalf("got reasons %v, want %v", match.MatchReasons, wantReasons)
	}
	for i, want := range wantReasons {
		if match.MatchReasons[i] != want {
			t.Errorf("reason %d: got %q, want %q", i, match.MatchReasons[i], want)
		}
	}
	if match.Urgency != models.UrgencyImmediate {
		t.Errorf("got urgency %s, want immediate (BOOK_NOW, score > 80)", match.Urgency)
	}
}

func TestMatch_FilteredBelowThreshold(t *testing.T) {
	m := New(DefaultConfig())
	hotel := testHotel()
	hotel.Rating = 2.0
	hotel.PricePerNight = 500
	policy := models.PreferencePolicy{
		PreferredStars:     []int{5},
		MaxPricePerNight:   300,
		PreferredLocations: []string{"beachfront"},
		RequiredAmenities:  []string{"spa"},
	}

	// 10 partial stars + 0 price + 0 location + 0 amenities = 10
	if match := m.Match("user-1", testDeal(hotel), policy); match != nil {
		t.Errorf("expected silent drop, got %+v", match)
	}
}

func TestMatch_StarsPartialCredit(t *testing.T) {
	m := New(Config{MinScore: 0})
	hotel := testHotel()
	hotel.Rating = 3.0
	policy := models.PreferencePolicy{PreferredStars: []int{5}, MaxPricePerNight: 0}

	match := m.Match("user-1", testDeal(hotel), policy)
	if match == nil {
		t.Fatal("expected a match with zero threshold")
	}
	// 10 partial stars + 20 no-requirements; near-miss is not eliminated.
	if match.MatchScore != 30 {
		t.Errorf("got match score %d, want 30", match.MatchScore)
	}
	for _, r := range match.MatchReasons {
		if r == "3-star hotel" {
			t.Error("partial credit must not append a star reason")
		}
	}
}

func TestMatch_StarsRounding(t *testing.T) {
	m := New(Config{MinScore: 0})
	hotel := testHotel()
	hotel.Rating = 4.6 // rounds to 5
	policy := models.PreferencePolicy{PreferredStars: []int{5}}

	match := m.Match("user-1", testDeal(hotel), policy)
	if match == nil {
		t.Fatal("expected a match")
	}
	if match.MatchReasons[0] != "5-star hotel" {
		t.Errorf("got first reason %q, want %q", match.MatchReasons[0], "5-star hotel")
	}
}

func TestMatch_PriceOverBudgetNoReason(t *testing.T) {
	m := New(Config{MinScore: 0})
	hotel := testHotel()
	hotel.PricePerNight = 400
	policy := models.PreferencePolicy{PreferredStars: []int{5}, MaxPricePerNight: 300}

	match := m.Match("user-1", testDeal(hotel), policy)
	if match == nil {
		t.Fatal("expected a match")
	}
	// 30 stars + 0 price + 0 location + 20 no-requirements = 50
	if match.MatchScore != 50 {
		t.Errorf("got match score %d, want 50", match.MatchScore)
	}
	for _, r := range match.MatchReasons {
		if r == "Within budget ($400)" {
			t.Error("over-budget hotel must not get a budget reason")
		}
	}
}

func TestMatch_PriceAtExactCap(t *testing.T) {
	m := New(Config{MinScore: 0})
	hotel := testHotel()
	hotel.PricePerNight = 300
	policy := models.PreferencePolicy{PreferredStars: []int{5}, MaxPricePerNight: 300}

	match := m.Match("user-1", testDeal(hotel), policy)
	if match == nil {
		t.Fatal("expected a match")
	}
	// Price at the cap contributes 0 points but still reads as in budget.
	if match.MatchScore != 50 {
		t.Errorf("got match score %d, want 50", match.MatchScore)
	}
	found := false
	for _, r := range match.MatchReasons {
		if r == "Within budget ($300)" {
			found = true
		}
	}
	if !found {
		t.Errorf("missing budget reason, got %v", match.MatchReasons)
	}
}

func TestMatch_BudgetReasonKeepsExactPrice(t *testing.T) {
	m := New(Config{MinScore: 0})
	hotel := testHotel()
	hotel.PricePerNight = 189.99
	policy := models.PreferencePolicy{PreferredStars: []int{5}, MaxPricePerNight: 300}

	match := m.Match("user-1", testDeal(hotel), policy)
	if match == nil {
		t.Fatal("expected a match")
	}
	found := false
	for _, r := range match.MatchReasons {
		if r == "Within budget ($189.99)" {
			found = true
		}
	}
	if !found {
		t.Errorf("fractional price must survive in the reason, got %v", match.MatchReasons)
	}
}

func TestMatch_LocationFirstMatchWins(t *testing.T) {
	m := New(Config{MinScore: 0})
	policy := models.PreferencePolicy{
		PreferredStars:     []int{5},
		PreferredLocations: []string{"central", "paris"}, // both match the hotel
	}

	match := m.Match("user-1", testDeal(testHotel()), policy)
	if match == nil {
		t.Fatal("expected a match")
	}
	// 30 + 20 single location + 20 = 70, not 90.
	if match.MatchScore != 70 {
		t.Errorf("got match score %d, want 70 (no double counting)", match.MatchScore)
	}
	locReasons := 0
	for _, r := range match.MatchReasons {
		if r == "central location" || r == "paris location" {
			locReasons++
		}
	}
	if locReasons != 1 {
		t.Errorf("got %d location reasons, want 1", locReasons)
	}
}

func TestMatch_AmenityRatio(t *testing.T) {
	m := New(Config{MinScore: 0})
	policy := models.PreferencePolicy{
		PreferredStars:    []int{5},
		RequiredAmenities: []string{"pool", "wifi", "spa"},
	}

	match := m.Match("user-1", testDeal(testHotel()), policy)
	if match == nil {
		t.Fatal("expected a match")
	}
	// 30 stars + round(2/3 * 20) amenity share = 43
	if match.MatchScore != 43 {
		t.Errorf("got match score %d, want 43", match.MatchScore)
	}
	found := false
	for _, r := range match.MatchReasons {
		if r == "Has 2/3 amenities" {
			found = true
		}
	}
	if !found {
		t.Errorf("missing amenity reason, got %v", match.MatchReasons)
	}
}

func TestMatch_EmptyRequiredAmenitiesAwardsFull(t *testing.T) {
	m := New(Config{MinScore: 0})
	base := models.PreferencePolicy{PreferredStars: []int{5}}

	withNone := m.Match("user-1", testDeal(testHotel()), base)
	base.RequiredAmenities = []string{"helipad"}
	withUnmet := m.Match("user-1", testDeal(testHotel()), base)

	if withNone == nil || withUnmet == nil {
		t.Fatal("expected matches with zero threshold")
	}
	if diff := withNone.MatchScore - withUnmet.MatchScore; diff != 20 {
		t.Errorf("empty requirements should award exactly 20: diff %d", diff)
	}
}

func TestMatch_ScoreBounds(t *testing.T) {
	m := New(Config{MinScore: 0})
	rng := rand.New(rand.NewSource(2))
	amenityPool := []string{"Pool", "WiFi", "Spa", "Gym", "Bar", "Breakfast"}

	for i := 0; i < 1000; i++ {
		hotel := testHotel()
		hotel.Rating = rng.Float64() * 5
		hotel.PricePerNight = rng.Float64() * 1000
		hotel.Amenities = amenityPool[:rng.Intn(len(amenityPool)+1)]

		policy := models.PreferencePolicy{
			PreferredStars:     []int{rng.Intn(5) + 1},
			MaxPricePerNight:   rng.Float64() * 1000,
			PreferredLocations: []string{"central"},
			RequiredAmenities:  amenityPool[:rng.Intn(4)],
		}
		match := m.Match("user-1", testDeal(hotel), policy)
		if match == nil {
			t.Fatal("threshold 0 must always match")
		}
		if match.MatchScore < 0 || match.MatchScore > 100 {
			t.Fatalf("match score %d out of [0,100]", match.MatchScore)
		}
	}
}

func TestClassifyUrgency(t *testing.T) {
	tests := []struct {
		rec   models.Recommendation
		score int
		want  models.Urgency
	}{
		{models.RecommendBookNow, 85, models.UrgencyImmediate},
		{models.RecommendBookNow, 81, models.UrgencyImmediate},
		{models.RecommendBookNow, 80, models.UrgencySoon},
		{models.RecommendBookNow, 75, models.UrgencySoon},
		{models.RecommendBookNow, 70, models.UrgencyMonitor},
		{models.RecommendMonitor, 95, models.UrgencyMonitor},
		{models.RecommendWait, 95, models.UrgencyMonitor},
	}
	for _, tt := range tests {
		if got := ClassifyUrgency(tt.rec, tt.score); got != tt.want {
			t.Errorf("ClassifyUrgency(%s, %d): got %s, want %s", tt.rec, tt.score, got, tt.want)
		}
	}
}

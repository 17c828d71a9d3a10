// Package personalizer filters and ranks deal verdicts against per-user
// preference policies and derives dispatch urgency.
package personalizer

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/vacationgenius/dealwatch/internal/models"
)

type Config struct {
	// MinScore is the match threshold; pairs scoring below it are silently
	// dropped for that user.
	MinScore int
}

func DefaultConfig() Config {
	return Config{MinScore: 60}
}

// Matcher scores deals against user preference policies.
type Matcher struct {
	config Config
}

func New(config Config) *Matcher {
	return &Matcher{config: config}
}

// Match scores one (user, deal) pair. A nil result means the deal was
// filtered out for this user; that is a routine decision, not an error.
// Reasons are appended in evaluation order: stars, price, location,
// amenities.
func (m *Matcher) Match(userID string, deal models.DealVerdict, policy models.PreferencePolicy) *models.MatchResult {
	hotel := deal.Hotel
	var score float64
	var reasons []string

	// Star rating (0-30). A near-miss keeps partial credit rather than
	// being eliminated outright.
	stars := int(math.Round(hotel.Rating))
	if containsInt(policy.PreferredStars, stars) {
		score += 30
		reasons = append(reasons, fmt.Sprintf("%d-star hotel", stars))
	} else {
		score += 10
	}

	// Price (0-30). Over budget contributes nothing and no reason.
	if policy.MaxPricePerNight > 0 && hotel.PricePerNight <= policy.MaxPricePerNight {
		score += 30 * (1 - hotel.PricePerNight/policy.MaxPricePerNight)
		// Shortest exact representation; collaborators echo the reason verbatim.
		reasons = append(reasons, fmt.Sprintf("Within budget ($%s)", strconv.FormatFloat(hotel.PricePerNight, 'f', -1, 64)))
	}

	// Location (0-20). First matching preference wins; no double counting.
	location := strings.ToLower(hotel.Location)
	for _, pref := range policy.PreferredLocations {
		if strings.Contains(location, strings.ToLower(pref)) {
			score += 20
			reasons = append(reasons, fmt.Sprintf("%s location", pref))
			break
		}
	}

	// Amenities (0-20). No requirements is trivially satisfied.
	if len(policy.RequiredAmenities) == 0 {
		score += 20
	} else {
		matched := 0
		for _, required := range policy.RequiredAmenities {
			if hasAmenity(hotel.Amenities, required) {
				matched++
			}
		}
		score += float64(matched) / float64(len(policy.RequiredAmenities)) * 20
		if matched > 0 {
			reasons = append(reasons, fmt.Sprintf("Has %d/%d amenities", matched, len(policy.RequiredAmenities)))
		}
	}

	matchScore := int(math.Round(score))
	if matchScore < m.config.MinScore {
		return nil
	}

	return &models.MatchResult{
		UserID:       userID,
		Deal:         deal,
		MatchScore:   matchScore,
		MatchReasons: reasons,
		Urgency:      ClassifyUrgency(deal.Recommendation, matchScore),
		MatchedAt:    time.Now(),
	}
}

// ClassifyUrgency derives the dispatch tier from the deal recommendation
// and the match score. Only immediate and soon trigger an alert email.
func ClassifyUrgency(rec models.Recommendation, matchScore int) models.Urgency {
	switch {
	case rec == models.RecommendBookNow && matchScore > 80:
		return models.UrgencyImmediate
	case rec == models.RecommendBookNow && matchScore > 70:
		return models.UrgencySoon
	default:
		return models.UrgencyMonitor
	}
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

func hasAmenity(amenities []string, required string) bool {
	required = strings.ToLower(required)
	for _, a := range amenities {
		if strings.Contains(strings.ToLower(a), required) {
			return true
		}
	}
	return false
}

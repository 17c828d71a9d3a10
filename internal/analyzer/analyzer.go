// Package analyzer turns hotel snapshots and their price history into deal
// verdicts: windowed averaging, multi-factor scoring, and a recommendation
// derived from short-term price momentum.
package analyzer

import (
	"math"
	"time"

	"github.com/vacationgenius/dealwatch/internal/models"
	"github.com/vacationgenius/dealwatch/internal/storage"
)

type Config struct {
	// WindowDays bounds the history read used as the price baseline.
	WindowDays int
	// MinScore is the deal threshold; snapshots scoring below it produce
	// no verdict.
	MinScore int
	// ConfidenceDepth is the history length at which confidence reaches 100.
	ConfidenceDepth int
}

func DefaultConfig() Config {
	return Config{
		WindowDays:      30,
		MinScore:        70,
		ConfidenceDepth: 30,
	}
}

// Engine scores snapshots against their recorded price history.
type Engine struct {
	store  *storage.Store
	config Config
}

func New(store *storage.Store, config Config) *Engine {
	return &Engine{store: store, config: config}
}

// Score evaluates one snapshot. It always records the snapshot's price in
// history (the just-scored price becomes part of future baselines) and
// returns a verdict only when the deal score clears the threshold. A nil
// verdict with nil error means "not a deal" or "not yet scorable", never a
// fault. Storage failures propagate; the caller must not treat the snapshot
// as recorded.
func (e *Engine) Score(snapshot models.HotelSnapshot) (*models.DealVerdict, error) {
	history, err := e.store.ReadWindow(snapshot.ID, snapshot.Destination, e.config.WindowDays)
	if err != nil {
		return nil, err
	}

	// First sighting: no baseline to compare against, just store the price.
	if len(history) == 0 {
		if err := e.record(snapshot); err != nil {
			return nil, err
		}
		return nil, nil
	}

	avg := math.Round(meanPrice(history))
	score := dealScore(snapshot, avg)

	if err := e.record(snapshot); err != nil {
		return nil, err
	}

	if score < e.config.MinScore {
		return nil, nil
	}

	confidence := int(math.Round(clamp(float64(len(history))/float64(e.config.ConfidenceDepth)*100, 0, 100)))

	return &models.DealVerdict{
		Hotel:              snapshot,
		DealScore:          score,
		HistoricalAverage:  avg,
		Savings:            avg - snapshot.PricePerNight,
		PriceChangePercent: (snapshot.PricePerNight - avg) / avg * 100,
		Recommendation:     recommend(score, ClassifyTrend(history)),
		Confidence:         confidence,
		DetectedAt:         time.Now(),
	}, nil
}

func (e *Engine) record(snapshot models.HotelSnapshot) error {
	return e.store.Append(snapshot.ID, snapshot.Destination, snapshot.PricePerNight, snapshot.ObservedAt)
}

// dealScore sums four independently-capped factors plus availability.
// The caps bound the result to [0, 100] for any valid snapshot.
func dealScore(h models.HotelSnapshot, avg float64) int {
	var score float64

	// Price discount (0-40). A price above average contributes 0, never
	// a negative amount.
	if avg > 0 {
		discount := (avg - h.PricePerNight) / avg * 100
		score += clamp(discount*2, 0, 40)
	}

	// Rating quality (0-25).
	score += clamp(h.Rating/5*25, 0, 25)

	// Review popularity (0-15).
	score += clamp(float64(h.ReviewCount)/500*15, 0, 15)

	// Amenity richness (0-10).
	score += clamp(float64(len(h.Amenities))*2, 0, 10)

	// Availability (0-10).
	if h.Available {
		score += 10
	}

	return int(math.Round(score))
}

// recommend applies the rule table in order; first match wins.
func recommend(score int, trend models.Trend) models.Recommendation {
	switch {
	case score > 85 && trend == models.TrendRising:
		return models.RecommendBookNow
	case score > 80:
		return models.RecommendBookNow
	case score > 70 && trend == models.TrendFalling:
		return models.RecommendMonitor
	default:
		return models.RecommendWait
	}
}

func meanPrice(points []models.PricePoint) float64 {
	var sum float64
	for _, p := range points {
		sum += p.Price
	}
	return sum / float64(len(points))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package analyzer

import "github.com/vacationgenius/dealwatch/internal/models"

const (
	// trendWindow is the number of most recent points inspected for momentum.
	trendWindow = 7
	// trendBand is the dead band around a flat trend; shifts within ±5%
	// are treated as noise.
	trendBand = 0.05
)

// ClassifyTrend classifies a price series as rising, falling, or flat by
// comparing the mean of the first three points of the recent window against
// the mean of the last three. The middle point of the window is excluded
// from both halves. Fewer than trendWindow points is insufficient signal
// and reads as flat.
func ClassifyTrend(history []models.PricePoint) models.Trend {
	if len(history) < trendWindow {
		return models.TrendFlat
	}
	recent := history[len(history)-trendWindow:]
	firstMean := (recent[0].Price + recent[1].Price + recent[2].Price) / 3
	secondMean := (recent[4].Price + recent[5].Price + recent[6].Price) / 3

	switch {
	case secondMean > firstMean*(1+trendBand):
		return models.TrendRising
	case secondMean < firstMean*(1-trendBand):
		return models.TrendFalling
	default:
		return models.TrendFlat
	}
}

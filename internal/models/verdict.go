package models

import "time"

// Recommendation is the booking guidance attached to a deal verdict.
type Recommendation string

const (
	RecommendBookNow Recommendation = "BOOK_NOW"
	RecommendMonitor Recommendation = "MONITOR"
	RecommendWait    Recommendation = "WAIT"
)

// Trend classifies short-term price momentum over the recent window.
type Trend string

const (
	TrendRising  Trend = "rising"
	TrendFalling Trend = "falling"
	TrendFlat    Trend = "flat"
)

// Urgency is the dispatch priority tier for a matched deal. Only
// UrgencyImmediate and UrgencySoon trigger an alert email; UrgencyMonitor
// is queued for a digest.
type Urgency string

const (
	UrgencyImmediate Urgency = "immediate"
	UrgencySoon      Urgency = "soon"
	UrgencyMonitor   Urgency = "monitor"
)

// DealVerdict is the scoring engine's output for one snapshot that cleared
// the deal threshold. Produced once, never mutated, never persisted.
type DealVerdict struct {
	Hotel              HotelSnapshot  `json:"hotel"`
	DealScore          int            `json:"deal_score"`
	HistoricalAverage  float64        `json:"historical_average"`
	Savings            float64        `json:"savings"`
	PriceChangePercent float64        `json:"price_change_percent"`
	Recommendation     Recommendation `json:"recommendation"`
	Confidence         int            `json:"confidence"`
	DetectedAt         time.Time      `json:"detected_at"`
}

// MatchResult is the personalizer's output for one (user, deal) pair that
// cleared the match threshold. Terminal; handed to the dispatch collaborator.
type MatchResult struct {
	UserID       string      `json:"user_id"`
	Deal         DealVerdict `json:"deal"`
	MatchScore   int         `json:"match_score"`
	MatchReasons []string    `json:"match_reasons"`
	Urgency      Urgency     `json:"urgency"`
	MatchedAt    time.Time   `json:"matched_at"`
}

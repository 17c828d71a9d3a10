// Package pipeline orchestrates the store→score→match→dispatch flow: one
// fetch per distinct destination per cycle, scoring once per hotel, matching
// once per watching user, with failures contained at the smallest possible
// scope (hotel < destination < cycle).
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/vacationgenius/dealwatch/internal/analyzer"
	"github.com/vacationgenius/dealwatch/internal/logger"
	"github.com/vacationgenius/dealwatch/internal/models"
	"github.com/vacationgenius/dealwatch/internal/personalizer"
)

// Fetcher is the scrape collaborator boundary.
type Fetcher interface {
	FetchHotels(ctx context.Context, destination, checkInDate, checkOutDate string) ([]models.HotelSnapshot, error)
}

// Backend is the watchlist/user/preferences collaborator boundary.
type Backend interface {
	ActiveWatchlists(ctx context.Context) ([]models.Watchlist, error)
	Preferences(ctx context.Context, userID string) (models.PreferencePolicy, error)
	UserEmail(ctx context.Context, userID string) (string, error)
	LogActivity(ctx context.Context, action string, details map[string]interface{}) error
}

// Producer is the event bus boundary. Publication is advisory; a publish
// failure never aborts the pipeline.
type Producer interface {
	PublishPriceObserved(userID, destination string, hotel models.HotelSnapshot) error
	PublishDealDetected(userID, destination string, verdict models.DealVerdict) error
	PublishDigestQueued(match models.MatchResult) error
}

// Dispatcher is the email collaborator boundary.
type Dispatcher interface {
	Dispatch(ctx context.Context, email string, match models.MatchResult) error
}

type Config struct {
	// DestinationDelay is the fixed pause between destination fetches,
	// keeping cycles inside the scrape service's rate limits.
	DestinationDelay time.Duration
}

func DefaultConfig() Config {
	return Config{DestinationDelay: 5 * time.Second}
}

// CycleStats summarizes one pipeline cycle.
type CycleStats struct {
	Watchlists       int
	Destinations     int
	HotelsScraped    int
	DealsFound       int
	AlertsDispatched int
}

// Coordinator drives the pipeline. All collaborators are injected; a nil
// handle is a startup misconfiguration.
type Coordinator struct {
	engine     *analyzer.Engine
	matcher    *personalizer.Matcher
	fetcher    Fetcher
	backend    Backend
	producer   Producer
	dispatcher Dispatcher
	config     Config
}

// New validates the collaborator handles and builds a coordinator.
func New(engine *analyzer.Engine, matcher *personalizer.Matcher, fetcher Fetcher, backend Backend, producer Producer, dispatcher Dispatcher, config Config) (*Coordinator, error) {
	if engine == nil {
		return nil, fmt.Errorf("scoring engine is required")
	}
	if matcher == nil {
		return nil, fmt.Errorf("preference matcher is required")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if backend == nil {
		return nil, fmt.Errorf("backend client is required")
	}
	if producer == nil {
		return nil, fmt.Errorf("event producer is required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	return &Coordinator{
		engine:     engine,
		matcher:    matcher,
		fetcher:    fetcher,
		backend:    backend,
		producer:   producer,
		dispatcher: dispatcher,
		config:     config,
	}, nil
}

// RunCycle executes one full pipeline cycle. Destinations are processed
// sequentially; a destination's failure is logged and the cycle moves on.
// The returned error covers only cycle-level faults (watchlist fetch).
func (c *Coordinator) RunCycle(ctx context.Context) (CycleStats, error) {
	var stats CycleStats
	startTime := time.Now()

	watchlists, err := c.backend.ActiveWatchlists(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to get active watchlists: %w", err)
	}
	stats.Watchlists = len(watchlists)
	logger.Info("Starting cycle with %d active watchlists", len(watchlists))

	c.logActivity(ctx, "cycle_started", map[string]interface{}{
		"watchlistCount": len(watchlists),
	})

	// One fetch per distinct destination, however many users watch it.
	byDestination := make(map[string][]models.Watchlist)
	var order []string
	for _, wl := range watchlists {
		if _, seen := byDestination[wl.Destination]; !seen {
			order = append(order, wl.Destination)
		}
		byDestination[wl.Destination] = append(byDestination[wl.Destination], wl)
	}
	stats.Destinations = len(order)

	for i, destination := range order {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		c.processDestination(ctx, destination, byDestination[destination], &stats)

		if i < len(order)-1 && c.config.DestinationDelay > 0 {
			select {
			case <-ctx.Done():
				return stats, ctx.Err()
			case <-time.After(c.config.DestinationDelay):
			}
		}
	}

	c.logActivity(ctx, "cycle_completed", map[string]interface{}{
		"totalDestinations": len(order),
	})
	logger.Info("Cycle completed in %v: %d hotels, %d deals, %d alerts",
		time.Since(startTime), stats.HotelsScraped, stats.DealsFound, stats.AlertsDispatched)

	return stats, nil
}

func (c *Coordinator) processDestination(ctx context.Context, destination string, watchers []models.Watchlist, stats *CycleStats) {
	logger.Info("Scraping %s (%d watchers)", destination, len(watchers))

	hotels, err := c.fetcher.FetchHotels(ctx, destination, watchers[0].CheckInDate, watchers[0].CheckOutDate)
	if err != nil {
		logger.Error("Failed to fetch %s: %v", destination, err)
		c.logActivity(ctx, "error", map[string]interface{}{
			"destination": destination,
			"error":       err.Error(),
		})
		return
	}
	stats.HotelsScraped += len(hotels)

	c.logActivity(ctx, "scraped", map[string]interface{}{
		"destination": destination,
		"hotelCount":  len(hotels),
	})

	for _, wl := range watchers {
		for _, hotel := range hotels {
			if err := c.producer.PublishPriceObserved(wl.UserID, destination, hotel); err != nil {
				logger.Warn("Failed to publish price event for %s: %v", hotel.ID, err)
			}
		}
	}

	dealsFound := 0
	for _, hotel := range hotels {
		verdict, err := c.engine.Score(hotel)
		if err != nil {
			// Storage fault: fatal to this hotel only, no retry within
			// the cycle.
			logger.Error("Skipping hotel %s (%s): %v", hotel.ID, hotel.Name, err)
			continue
		}
		if verdict == nil {
			continue
		}

		dealsFound++
		stats.DealsFound++
		logger.Info("Deal found: %s (score %d, %s)", hotel.Name, verdict.DealScore, verdict.Recommendation)

		for _, wl := range watchers {
			c.processMatch(ctx, wl, destination, *verdict, stats)
		}
	}

	c.logActivity(ctx, "analyzed", map[string]interface{}{
		"destination": destination,
		"dealsFound":  dealsFound,
	})
	logger.Info("Completed %s: %d deals found", destination, dealsFound)
}

func (c *Coordinator) processMatch(ctx context.Context, wl models.Watchlist, destination string, verdict models.DealVerdict, stats *CycleStats) {
	if err := c.producer.PublishDealDetected(wl.UserID, destination, verdict); err != nil {
		logger.Warn("Failed to publish deal event for user %s: %v", wl.UserID, err)
	}

	policy, err := c.backend.Preferences(ctx, wl.UserID)
	if err != nil {
		logger.Warn("Failed to get preferences for user %s: %v", wl.UserID, err)
		return
	}

	match := c.matcher.Match(wl.UserID, verdict, policy)
	if match == nil {
		logger.Debug("Filtered %s for user %s", verdict.Hotel.Name, wl.UserID)
		return
	}
	logger.Info("Matched %s for user %s: score %d, urgency %s",
		verdict.Hotel.Name, wl.UserID, match.MatchScore, match.Urgency)

	if match.Urgency != models.UrgencyImmediate && match.Urgency != models.UrgencySoon {
		if err := c.producer.PublishDigestQueued(*match); err != nil {
			logger.Warn("Failed to queue digest event for user %s: %v", wl.UserID, err)
		}
		return
	}

	email, err := c.backend.UserEmail(ctx, wl.UserID)
	if err != nil || email == "" {
		logger.Warn("No email for user %s: %v", wl.UserID, err)
		return
	}

	// The deal counts as processed even if dispatch fails; there is no
	// re-delivery.
	if err := c.dispatcher.Dispatch(ctx, email, *match); err != nil {
		logger.Error("Failed to dispatch alert to user %s: %v", wl.UserID, err)
		return
	}
	stats.AlertsDispatched++
}

func (c *Coordinator) logActivity(ctx context.Context, action string, details map[string]interface{}) {
	if err := c.backend.LogActivity(ctx, action, details); err != nil {
		logger.Warn("Failed to log activity %q: %v", action, err)
	}
}

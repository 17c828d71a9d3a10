// Package tripadvisor fetches hotel listings for a destination through the
// Apify TripAdvisor actor. It is the boundary where external scrape data
// enters the pipeline: results are mapped into validated snapshots here.
package tripadvisor

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/vacationgenius/dealwatch/internal/logger"
	"github.com/vacationgenius/dealwatch/internal/models"
)

// locationIDs maps supported destinations to TripAdvisor geo IDs.
var locationIDs = map[string]string{
	"Paris":     "187147",
	"Bali":      "294226",
	"Tokyo":     "298184",
	"New York":  "60763",
	"London":    "186338",
	"Barcelona": "187497",
	"Rome":      "187791",
	"Amsterdam": "188590",
	"Berlin":    "187275",
	"Madrid":    "187514",
}

// Client calls the Apify actor API and maps results into hotel snapshots.
type Client struct {
	apiURL     string
	token      string
	actor      string
	maxItems   int
	currency   string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a scrape client. requestsPerMinute bounds calls to the
// actor API so cycles stay inside the external service's rate limits.
func NewClient(apiURL, token, actor string, maxItems int, currency string, timeout time.Duration, requestsPerMinute int) *Client {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 12
	}
	return &Client{
		apiURL:   apiURL,
		token:    token,
		actor:    actor,
		maxItems: maxItems,
		currency: currency,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1),
	}
}

type actorInput struct {
	StartURLs              []startURL `json:"startUrls"`
	SearchTerm             string     `json:"searchTerm"`
	IncludeHotels          bool       `json:"includeHotels"`
	IncludeVacationRentals bool       `json:"includeVacationRentals"`
	IncludeRestaurants     bool       `json:"includeRestaurants"`
	MaxItems               int        `json:"maxItems"`
	CheckInDate            string     `json:"checkInDate"`
	CheckOutDate           string     `json:"checkOutDate"`
	Currency               string     `json:"currency"`
}

type startURL struct {
	URL string `json:"url"`
}

type scrapedItem struct {
	Type            string   `json:"type"`
	Name            string   `json:"name"`
	LocationString  string   `json:"locationString"`
	Rating          float64  `json:"rating"`
	NumberOfReviews int      `json:"numberOfReviews"`
	Amenities       []string `json:"amenities"`
	Images          []string `json:"images"`
	URL             string   `json:"url"`
	Offers          []offer  `json:"offers"`
}

type offer struct {
	PricePerNight float64 `json:"pricePerNight"`
	Availability  bool    `json:"availability"`
}

// FetchHotels runs the actor for one destination and returns validated
// snapshots. An unknown destination is a caller error, not a fetch failure.
func (c *Client) FetchHotels(ctx context.Context, destination, checkInDate, checkOutDate string) ([]models.HotelSnapshot, error) {
	locationID, ok := locationIDs[destination]
	if !ok {
		return nil, fmt.Errorf("unknown destination: %s", destination)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	input := actorInput{
		StartURLs: []startURL{
			{URL: fmt.Sprintf("https://www.tripadvisor.com/Hotels-g%s-Hotels.html", locationID)},
		},
		SearchTerm:             destination,
		IncludeHotels:          true,
		IncludeVacationRentals: true,
		IncludeRestaurants:     false,
		MaxItems:               c.maxItems,
		CheckInDate:            checkInDate,
		CheckOutDate:           checkOutDate,
		Currency:               c.currency,
	}

	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal actor input: %w", err)
	}

	u := fmt.Sprintf("%s/v2/acts/%s/run-sync-get-dataset-items?token=%s",
		c.apiURL, url.PathEscape(c.actor), url.QueryEscape(c.token))

	resp, err := c.doRequest(ctx, u, body)
	if err != nil {
		return nil, fmt.Errorf("actor run failed for %s: %w", destination, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("actor run for %s returned status %d: %s", destination, resp.StatusCode, b)
	}

	var items []scrapedItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to decode actor results: %w", err)
	}

	return c.processResults(items, destination), nil
}

// processResults keeps hotel items with at least one offer and maps them
// into snapshots, dropping any that fail boundary validation.
func (c *Client) processResults(items []scrapedItem, destination string) []models.HotelSnapshot {
	hotels := make([]models.HotelSnapshot, 0, len(items))
	now := time.Now()

	for _, item := range items {
		if item.Type != "hotel" || len(item.Offers) == 0 {
			continue
		}
		snapshot := models.HotelSnapshot{
			ID:            HotelID(item.Name, destination),
			Name:          item.Name,
			Destination:   destination,
			Location:      item.LocationString,
			Rating:        item.Rating,
			ReviewCount:   item.NumberOfReviews,
			PricePerNight: item.Offers[0].PricePerNight,
			Amenities:     item.Amenities,
			Images:        item.Images,
			URL:           item.URL,
			Available:     item.Offers[0].Availability,
			ObservedAt:    now,
		}
		if err := snapshot.Validate(); err != nil {
			logger.Warn("Dropping invalid listing %q from %s: %v", item.Name, destination, err)
			continue
		}
		hotels = append(hotels, snapshot)
	}

	logger.Info("Processed %d hotels from %s (%d raw items)", len(hotels), destination, len(items))
	return hotels
}

// doRequest performs the POST with retry on transport and server errors.
func (c *Client) doRequest(ctx context.Context, urlStr string, body []byte) (*http.Response, error) {
	maxRetries := 3
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, urlStr, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			time.Sleep(time.Duration(i+1) * time.Second)
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			time.Sleep(time.Duration(i+1) * time.Second)
			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// HotelID derives a stable identifier from a hotel's name and destination,
// matching the scheme used across collaborators.
func HotelID(name, destination string) string {
	sum := md5.Sum([]byte(name + "-" + destination))
	return hex.EncodeToString(sum[:])[:12]
}

// SupportedDestination reports whether a destination has a known geo ID.
func SupportedDestination(destination string) bool {
	_, ok := locationIDs[destination]
	return ok
}

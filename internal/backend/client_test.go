package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(apiURL string) *Client {
	return NewClient(apiURL, "test-secret", 5*time.Second, 3)
}

func TestActiveWatchlists(t *testing.T) {
	var gotSecret string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/watchlists/active" {
			t.Errorf("got path %s", r.URL.Path)
		}
		gotSecret = r.Header.Get("X-Agent-Secret")
		_, _ = w.Write([]byte(`[
			{"id":"w1","user_id":"user-1","destination":"Paris","check_in_date":"2026-09-10","check_out_date":"2026-09-12"},
			{"id":"w2","user_id":"user-2","destination":"Tokyo"}
		]`))
	}))
	defer server.Close()

	watchlists, err := newTestClient(server.URL).ActiveWatchlists(context.Background())
	if err != nil {
		t.Fatalf("ActiveWatchlists: %v", err)
	}
	if gotSecret != "test-secret" {
		t.Errorf("got secret header %q", gotSecret)
	}
	if len(watchlists) != 2 {
		t.Fatalf("got %d watchlists, want 2", len(watchlists))
	}
	if watchlists[0].UserID != "user-1" || watchlists[0].Destination != "Paris" {
		t.Errorf("got watchlist %+v", watchlists[0])
	}
	if watchlists[0].CheckInDate != "2026-09-10" {
		t.Errorf("got check-in %s", watchlists[0].CheckInDate)
	}
}

func TestPreferences(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/users/user-1/preferences" {
			t.Errorf("got path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{
			"preferred_stars":[4,5],
			"max_price_per_night":250,
			"preferred_locations":["Central"],
			"required_amenities":["Pool"]
		}`))
	}))
	defer server.Close()

	policy, err := newTestClient(server.URL).Preferences(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Preferences: %v", err)
	}
	if len(policy.PreferredStars) != 2 || policy.MaxPricePerNight != 250 {
		t.Errorf("got policy %+v", policy)
	}
}

func TestUserEmail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/users/user-1" {
			t.Errorf("got path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"id":"user-1","email":"user-1@example.com","name":"Test User"}`))
	}))
	defer server.Close()

	email, err := newTestClient(server.URL).UserEmail(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("UserEmail: %v", err)
	}
	if email != "user-1@example.com" {
		t.Errorf("got email %s", email)
	}
}

func TestLogActivity(t *testing.T) {
	var got struct {
		AgentType string                 `json:"agentType"`
		Action    string                 `json:"action"`
		Details   map[string]interface{} `json:"details"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/agent-activity" || r.Method != http.MethodPost {
			t.Errorf("got %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode activity: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	err := newTestClient(server.URL).LogActivity(context.Background(), "cycle_started", map[string]interface{}{
		"watchlistCount": 3,
	})
	if err != nil {
		t.Fatalf("LogActivity: %v", err)
	}
	if got.AgentType != "scraper-analyzer" {
		t.Errorf("got agentType %s", got.AgentType)
	}
	if got.Action != "cycle_started" {
		t.Errorf("got action %s", got.Action)
	}
	if got.Details["watchlistCount"] != float64(3) {
		t.Errorf("got details %v", got.Details)
	}
}

func TestLogActivity_SingleAttempt(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	if err := newTestClient(server.URL).LogActivity(context.Background(), "scraped", nil); err == nil {
		t.Error("expected error on 500")
	}
	if attempts != 1 {
		t.Errorf("got %d attempts, want 1 (activity logging is best effort)", attempts)
	}
}

func TestActiveWatchlists_RetriesServerErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	watchlists, err := newTestClient(server.URL).ActiveWatchlists(context.Background())
	if err != nil {
		t.Fatalf("ActiveWatchlists after retry: %v", err)
	}
	if attempts != 2 {
		t.Errorf("got %d attempts, want 2", attempts)
	}
	if len(watchlists) != 0 {
		t.Errorf("got %d watchlists, want 0", len(watchlists))
	}
}

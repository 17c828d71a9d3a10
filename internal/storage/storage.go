// Package storage provides SQLite-backed persistence for hotel price history.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vacationgenius/dealwatch/internal/models"
	_ "modernc.org/sqlite"
)

// ErrUnavailable marks failures of the underlying storage. Callers must
// propagate it, not swallow it: a snapshot whose append failed is lost.
var ErrUnavailable = errors.New("storage unavailable")

// Store is an append-only time-series store of price observations keyed by
// (hotel, destination). History is never corrected or deleted by the
// pipeline; Prune is an operator-controlled retention policy.
type Store struct {
	db *sql.DB
}

// New opens or creates the SQLite database at dbPath.
// An empty dbPath defaults to $TMPDIR/dealwatch/data.db.
func New(dbPath string) (*Store, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "dealwatch", "data.db")
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Single writer serializes same-key concurrent appends; WAL allows
	// concurrent readers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS price_history (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			hotel_id    TEXT NOT NULL,
			destination TEXT NOT NULL,
			price       REAL NOT NULL,
			recorded_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_price_history_key
			ON price_history(hotel_id, destination, recorded_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Append records one price observation. Rows are stored in arrival order;
// late-arriving points with older timestamps are accepted as-is and
// re-sorted by ReadWindow.
func (s *Store) Append(hotelID, destination string, price float64, recordedAt time.Time) error {
	if hotelID == "" || destination == "" {
		return fmt.Errorf("hotel ID and destination must not be empty")
	}
	if price < 0 {
		return fmt.Errorf("price must not be negative")
	}
	_, err := s.db.Exec(`
		INSERT INTO price_history (hotel_id, destination, price, recorded_at)
		VALUES (?,?,?,?)`,
		hotelID, destination, price, recordedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("%w: failed to insert price point: %v", ErrUnavailable, err)
	}
	return nil
}

// ReadWindow returns all points for (hotelID, destination) observed within
// the last windowDays, ascending by timestamp. An empty result is the
// expected first-sighting case, not an error.
func (s *Store) ReadWindow(hotelID, destination string, windowDays int) ([]models.PricePoint, error) {
	cutoff := time.Now().AddDate(0, 0, -windowDays)
	rows, err := s.db.Query(`
		SELECT price, recorded_at FROM price_history
		WHERE hotel_id = ? AND destination = ? AND recorded_at >= ?
		ORDER BY recorded_at ASC`,
		hotelID, destination, cutoff.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query price history: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var points []models.PricePoint
	for rows.Next() {
		var p models.PricePoint
		var recordedAtNano int64
		if err := rows.Scan(&p.Price, &recordedAtNano); err != nil {
			return nil, fmt.Errorf("%w: failed to scan price point: %v", ErrUnavailable, err)
		}
		p.RecordedAt = time.Unix(0, recordedAtNano)
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to read price history: %v", ErrUnavailable, err)
	}
	if points == nil {
		points = []models.PricePoint{}
	}
	return points, nil
}

// Count returns the number of stored points for one (hotelID, destination).
func (s *Store) Count(hotelID, destination string) (int, error) {
	var n int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM price_history
		WHERE hotel_id = ? AND destination = ?`,
		hotelID, destination,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to count price points: %v", ErrUnavailable, err)
	}
	return n, nil
}

// Prune deletes points recorded before the cutoff. Retention beyond the read
// window is an operator policy; the pipeline itself never deletes history.
func (s *Store) Prune(olderThan time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM price_history WHERE recorded_at < ?`, olderThan.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("%w: failed to prune price history: %v", ErrUnavailable, err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

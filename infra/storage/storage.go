// Package storage loads the rental history from a SQL database.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/kilianp07/bikecast/config"
	"github.com/kilianp07/bikecast/core/dataset"
	"github.com/kilianp07/bikecast/core/model"
	"github.com/kilianp07/bikecast/infra/logger"
)

// Query selects the full rental history. Rows are returned in storage order.
const Query = `SELECT RentalDate, CAST(Year as REAL) as Year, CAST(TotalRentals as REAL) as TotalRentals FROM Rentals`

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"1/2/2006 15:04:05",
	"1/2/2006",
}

// SQLSource reads observations with the fixed rental query.
type SQLSource struct {
	db      *sql.DB
	driver  string
	timeout time.Duration
	log     logger.Logger
}

var _ dataset.Source = (*SQLSource)(nil)

// Open creates a source for cfg. The connection is established lazily by the
// first Load.
func Open(cfg config.DatabaseConfig) (*SQLSource, error) {
	driver, err := driverName(cfg.Driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, cfg.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}
	return NewSQLSource(db, cfg), nil
}

// NewSQLSource wraps an existing pool.
func NewSQLSource(db *sql.DB, cfg config.DatabaseConfig) *SQLSource {
	return &SQLSource{
		db:      db,
		driver:  cfg.Driver,
		timeout: time.Duration(cfg.QueryTimeoutSeconds) * time.Second,
		log:     logger.New("storage"),
	}
}

func driverName(name string) (string, error) {
	switch name {
	case "sqlite", "":
		return "sqlite", nil
	case "postgres", "pgx":
		return "pgx", nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", name)
	}
}

// Load runs Query and maps every row to an Observation. Any failure aborts
// the whole load.
func (s *SQLSource) Load(ctx context.Context) ([]model.Observation, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, Query)
	if err != nil {
		return nil, fmt.Errorf("query rentals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Observation
	for rows.Next() {
		var (
			rawDate any
			obs     model.Observation
		)
		if err := rows.Scan(&rawDate, &obs.Year, &obs.TotalRentals); err != nil {
			return nil, fmt.Errorf("scan rental row %d: %w", len(out)+1, err)
		}
		if obs.Date, err = parseDate(rawDate); err != nil {
			return nil, fmt.Errorf("rental row %d: %w", len(out)+1, err)
		}
		out = append(out, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read rentals: %w", err)
	}
	s.log.Debugw("rentals loaded", map[string]any{
		"driver":   s.driver,
		"rows":     len(out),
		"duration": time.Since(start).String(),
	})
	return out, nil
}

// Ping checks database connectivity.
func (s *SQLSource) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Close closes the underlying pool.
func (s *SQLSource) Close() error { return s.db.Close() }

func parseDate(v any) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		return d, nil
	case string:
		return parseDateString(d)
	case []byte:
		return parseDateString(string(d))
	case int64:
		return time.Unix(d, 0).UTC(), nil
	case float64:
		return time.Unix(int64(d), 0).UTC(), nil
	case nil:
		return time.Time{}, fmt.Errorf("rental date is null")
	default:
		return time.Time{}, fmt.Errorf("unsupported rental date type %T", v)
	}
}

func parseDateString(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(sec, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognised rental date %q", s)
}

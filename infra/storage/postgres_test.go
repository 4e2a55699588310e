//go:build postgres

package storage

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kilianp07/bikecast/config"
)

// postgresURL returns DATABASE_URL when set and otherwise starts a container.
func postgresURL(t *testing.T) string {
	t.Helper()
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("bikecast_test"),
		tcpostgres.WithUsername("bikecast"),
		tcpostgres.WithPassword("bikecast"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return url
}

func TestSQLSource_LoadPostgres(t *testing.T) {
	url := postgresURL(t)
	db, err := sql.Open("pgx", url)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	_, err = db.Exec(`DROP TABLE IF EXISTS Rentals;
CREATE TABLE Rentals (RentalDate date, Year integer, TotalRentals integer);
INSERT INTO Rentals
SELECT d::date, CASE WHEN n < 365 THEN 0 ELSE 1 END, 1000 + n
FROM generate_series(0, 399) AS n, LATERAL (SELECT DATE '2011-01-01' + n) AS s(d);`)
	require.NoError(t, err)

	src, err := Open(config.DatabaseConfig{Driver: "postgres", ConnectionString: url})
	require.NoError(t, err)
	defer func() { _ = src.Close() }()

	obs, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, obs, 400)
	assert.Equal(t, 2011, obs[0].Date.Year())
	assert.Equal(t, 1.0, obs[399].Year)
}

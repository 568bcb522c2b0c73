package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPostgresConfig_ConnString(t *testing.T) {
	cfg := PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		Name:     "renugrid",
		User:     "renugrid",
		Password: "secret",
		SSLMode:  "disable",
	}
	assert.Equal(t,
		"host=localhost port=5432 user=renugrid password=secret dbname=renugrid sslmode=disable",
		cfg.ConnString(),
	)
}

func TestQuery_RejectsUnknownParameters(t *testing.T) {
	// validation happens before the database is touched
	repo := &PostgresRepo{}
	now := time.Now()

	_, err := repo.Query(context.Background(), now.Add(-time.Hour), now, "2h", "AVG")
	assert.EqualError(t, err, "invalid window: 2h")

	_, err = repo.Query(context.Background(), now.Add(-time.Hour), now, "1h", "MEDIAN")
	assert.EqualError(t, err, "invalid aggregation type: MEDIAN")
}

func TestWindowsAndAggregations(t *testing.T) {
	for _, w := range []string{"1m", "5m", "1h", "1d"} {
		assert.Contains(t, Windows, w)
	}
	for _, a := range []string{"MIN", "MAX", "AVG", "SUM"} {
		assert.True(t, Aggregations[a])
	}
}

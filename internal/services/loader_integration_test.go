package services

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/usaccidents/internal/db"
	"github.com/vvka-141/usaccidents/internal/logging"
	testhelpers "github.com/vvka-141/usaccidents/internal/testing"
	"github.com/vvka-141/usaccidents/pkg/usaccidents"
)

func TestRun_Integration(t *testing.T) {
	connString := testhelpers.RequireDatabase(t)
	connConfig := testhelpers.NewTestDB(t, connString)
	pool := testhelpers.GetTestPool(t, connConfig)
	ctx := context.Background()

	clock := clockwork.NewFakeClock()
	factory := func(c *usaccidents.ConnectionConfig) (usaccidents.Connector, error) {
		clock.Advance(3 * time.Second)
		return db.NewConnector(c, logging.NewNullLogger())
	}
	svc := NewLoadService(factory, logging.NewNullLogger()).WithClock(clock)

	cfg := testLoadConfig(writeDataset(t, sampleCSV))
	cfg.Connection = connConfig

	summary, err := svc.Run(ctx, cfg)
	require.NoError(t, err)

	assert.True(t, summary.Extracted)
	assert.Equal(t, int64(3), summary.Locations)
	assert.Equal(t, int64(5), summary.Accidents)
	assert.Equal(t, int64(1), summary.Unmatched)
	assert.True(t, summary.CSVRemoved)
	assert.Equal(t, 3*time.Second, summary.Duration)

	_, statErr := os.Stat(cfg.CSVPath())
	assert.True(t, errors.Is(statErr, os.ErrNotExist))

	t.Run("cities holds one row per distinct location", func(t *testing.T) {
		var total, distinct int
		require.NoError(t, pool.QueryRow(ctx, `
			SELECT count(*), count(DISTINCT ("City", "County", "State")) FROM cities
		`).Scan(&total, &distinct))
		assert.Equal(t, 3, total)
		assert.Equal(t, 3, distinct)
	})

	t.Run("accidents has exactly the fact columns", func(t *testing.T) {
		rows, err := pool.Query(ctx, `
			SELECT column_name FROM information_schema.columns
			WHERE table_name = 'accidents' ORDER BY ordinal_position
		`)
		require.NoError(t, err)
		defer rows.Close()

		var columns []string
		for rows.Next() {
			var c string
			require.NoError(t, rows.Scan(&c))
			columns = append(columns, c)
		}
		require.NoError(t, rows.Err())
		assert.Equal(t, []string{"severity", "datetime", "lat", "lng", "weather_condition", "city_id"}, columns)
	})

	t.Run("every city_id resolves", func(t *testing.T) {
		var dangling int
		require.NoError(t, pool.QueryRow(ctx, `
			SELECT count(*) FROM accidents a
			LEFT JOIN cities c ON c.city_id = a.city_id
			WHERE a.city_id IS NOT NULL AND c.city_id IS NULL
		`).Scan(&dangling))
		assert.Zero(t, dangling)
	})

	t.Run("same location shares city_id across severities", func(t *testing.T) {
		var ids, severities int
		require.NoError(t, pool.QueryRow(ctx, `
			SELECT count(DISTINCT a.city_id), count(DISTINCT a.severity)
			FROM accidents a JOIN cities c USING (city_id)
			WHERE c."City" = 'Dayton' AND c."County" = 'Montgomery' AND c."State" = 'OH'
		`).Scan(&ids, &severities))
		assert.Equal(t, 1, ids)
		assert.Equal(t, 3, severities)
	})

	t.Run("constraints exist", func(t *testing.T) {
		var n int
		require.NoError(t, pool.QueryRow(ctx, `
			SELECT count(*) FROM pg_constraint
			WHERE conname IN ('unique_city_id', 'fk_accidents_city_id')
		`).Scan(&n))
		assert.Equal(t, 2, n)
	})

	t.Run("rerun replaces tables", func(t *testing.T) {
		cfg.KeepCSV = true
		_, err := svc.Run(ctx, cfg)
		require.NoError(t, err)

		var n int
		require.NoError(t, pool.QueryRow(ctx, "SELECT count(*) FROM accidents").Scan(&n))
		assert.Equal(t, 5, n)
	})

	t.Run("fail policy refuses existing tables", func(t *testing.T) {
		cfg.IfExists = usaccidents.IfExistsFail
		_, err := svc.Run(ctx, cfg)
		require.Error(t, err)
		assert.Equal(t, usaccidents.ExitWriteFailed, usaccidents.ExitCodeForError(err))
		assert.FileExists(t, cfg.CSVPath())
	})
}

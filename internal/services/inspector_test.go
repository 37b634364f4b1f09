package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/usaccidents/internal/logging"
	"github.com/vvka-141/usaccidents/pkg/usaccidents"
)

func TestInspect(t *testing.T) {
	cfg := testLoadConfig(writeDataset(t, sampleCSV))
	svc := NewInspectService(logging.NewNullLogger())

	report, err := svc.Inspect(context.Background(), cfg, 2)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Locations)
	require.Len(t, report.Checks, 4)

	city := report.Checks[0]
	assert.Equal(t, []string{"City"}, city.Columns)
	assert.False(t, city.Unique)
	assert.Equal(t, []string{"Dayton"}, city.Top[0].Values)
	assert.Equal(t, 2, city.Top[0].Count)
	assert.FileExists(t, cfg.CSVPath(), "inspect never removes the CSV")
}

func TestInspect_MissingArchive(t *testing.T) {
	svc := NewInspectService(logging.NewNullLogger())

	_, err := svc.Inspect(context.Background(), testLoadConfig(t.TempDir()), 5)
	assert.True(t, errors.Is(err, usaccidents.ErrArchiveNotFound))
}

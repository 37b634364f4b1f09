package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_AllFields(t *testing.T) {
	dir := t.TempDir()
	content := `connection:
  host: myhost
  port: 5433
  username: loader
  database: accidents_db
  sslmode: require
  auth_method: aws
  aws_region: us-east-1

data:
  dir: /srv/data
  archive: accidents.zip
  csv: accidents.csv
  keep_csv: true

if_exists: fail
timeout: 10m
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "myhost", cfg.Connection.Host)
	assert.Equal(t, 5433, cfg.Connection.Port)
	assert.Equal(t, "loader", cfg.Connection.Username)
	assert.Equal(t, "accidents_db", cfg.Connection.Database)
	assert.Equal(t, "require", cfg.Connection.SSLMode)
	assert.Equal(t, "aws", cfg.Connection.AuthMethod)
	assert.Equal(t, "us-east-1", cfg.Connection.AWSRegion)
	assert.Equal(t, "/srv/data", cfg.Data.Dir)
	assert.Equal(t, "accidents.zip", cfg.Data.Archive)
	assert.Equal(t, "accidents.csv", cfg.Data.CSV)
	assert.True(t, cfg.Data.KeepCSV)
	assert.Equal(t, "fail", cfg.IfExists)

	d, err := cfg.TimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, d)
}

func TestLoad_MinimalYAML(t *testing.T) {
	dir := t.TempDir()
	content := `data:
  keep_csv: true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "", cfg.Connection.Host)
	assert.Equal(t, 0, cfg.Connection.Port)
	assert.True(t, cfg.Data.KeepCSV)

	d, err := cfg.TimeoutDuration()
	require.NoError(t, err)
	assert.Zero(t, d)
}

func TestLoad_FileNotFound(t *testing.T) {
	cfg, err := Load(t.TempDir())
	assert.True(t, errors.Is(err, ErrConfigNotFound), "expected ErrConfigNotFound, got: %v", err)
	assert.Nil(t, cfg)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("{{invalid"), 0644))

	cfg, err := Load(dir)
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(""), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, ProjectConfig{}, *cfg)
}

func TestTimeoutDuration_Invalid(t *testing.T) {
	cfg := &ProjectConfig{Timeout: "soon"}
	_, err := cfg.TimeoutDuration()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "soon")
}

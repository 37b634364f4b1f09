package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/usaccidents/internal/config"
	"github.com/vvka-141/usaccidents/pkg/usaccidents"
)

func TestLoadProjectConfig_MissingFileIsNotAnError(t *testing.T) {
	cfg, err := loadProjectConfig(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestLoadProjectConfig_LoadsDotEnvFromDir(t *testing.T) {
	clearConnectionEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte(usaccidents.PasswordEnvVar+"=from-dotenv\n"), 0o600))
	// godotenv does not override variables that are already set.
	require.NoError(t, os.Unsetenv(usaccidents.PasswordEnvVar))

	_, err := loadProjectConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", os.Getenv(usaccidents.PasswordEnvVar))
}

func TestLoadProjectConfig_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PGHOST=dotenv-host\n"), 0o600))
	t.Setenv("PGHOST", "shell-host")

	_, err := loadProjectConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "shell-host", os.Getenv("PGHOST"))
}

func TestApplyDataConfig(t *testing.T) {
	project := &config.ProjectConfig{Data: config.DataConfig{Dir: "/yaml", CSV: "yaml.csv", KeepCSV: true}}

	tests := []struct {
		name    string
		args    []string
		project *config.ProjectConfig
		want    usaccidents.LoadConfig
	}{
		{
			name: "defaults",
			want: usaccidents.LoadConfig{
				DataDir:     usaccidents.DefaultDataDir,
				ArchiveName: usaccidents.DefaultArchiveName,
				CSVName:     usaccidents.DefaultCSVName,
			},
		},
		{
			name:    "yaml over defaults",
			project: project,
			want: usaccidents.LoadConfig{
				DataDir:     "/yaml",
				ArchiveName: usaccidents.DefaultArchiveName,
				CSVName:     "yaml.csv",
				KeepCSV:     true,
			},
		},
		{
			name:    "explicit flags over yaml",
			args:    []string{"--data-dir", "/flag", "--csv", "flag.csv", "--keep-csv=false"},
			project: project,
			want: usaccidents.LoadConfig{
				DataDir:     "/flag",
				ArchiveName: usaccidents.DefaultArchiveName,
				CSVName:     "flag.csv",
				KeepCSV:     false,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, flags := newTestLoadCommand(t, tt.args...)

			var got usaccidents.LoadConfig
			applyDataConfig(cmd, flags.data, tt.project, &got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveEffectiveTimeout(t *testing.T) {
	project := &config.ProjectConfig{Timeout: "90m"}

	cmd := &cobra.Command{Use: "x"}
	cmd.Flags().Duration("timeout", time.Hour, "")

	got, err := resolveEffectiveTimeout(cmd, project, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, got)

	got, err = resolveEffectiveTimeout(cmd, nil, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, got)

	require.NoError(t, cmd.Flags().Set("timeout", "5m"))
	got, err = resolveEffectiveTimeout(cmd, project, 5*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, got)
}

func TestResolveIfExists(t *testing.T) {
	cmd, flags := newTestLoadCommand(t)
	assert.Equal(t, usaccidents.IfExistsReplace, resolveIfExists(cmd, nil, flags.ifExists))
	assert.Equal(t, usaccidents.IfExistsFail, resolveIfExists(cmd, &config.ProjectConfig{IfExists: "fail"}, flags.ifExists))

	cmd, flags = newTestLoadCommand(t, "--if-exists", "replace")
	assert.Equal(t, usaccidents.IfExistsReplace, resolveIfExists(cmd, &config.ProjectConfig{IfExists: "fail"}, flags.ifExists))
}

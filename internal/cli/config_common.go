package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vvka-141/usaccidents/internal/config"
	"github.com/vvka-141/usaccidents/pkg/usaccidents"
)

// dataFlags locates the archive and the CSV it contains.
type dataFlags struct {
	configDir string
	dataDir   string
	archive   string
	csv       string
	keepCSV   bool
}

// addDataFlags registers the data location flags on cmd, bound to f.
func addDataFlags(cmd *cobra.Command, f *dataFlags) {
	flags := cmd.Flags()
	flags.StringVar(&f.configDir, "config-dir", ".",
		"Directory containing usaccidents.yaml and .env")
	flags.StringVar(&f.dataDir, "data-dir", usaccidents.DefaultDataDir,
		"Directory holding the archive; the CSV is extracted here")
	flags.StringVar(&f.archive, "archive", usaccidents.DefaultArchiveName,
		"Zip archive file name inside --data-dir")
	flags.StringVar(&f.csv, "csv", usaccidents.DefaultCSVName,
		"CSV file name inside the archive")
}

// loadProjectConfig loads .env and usaccidents.yaml from dir.
// Returns nil config if usaccidents.yaml does not exist (not an error).
func loadProjectConfig(dir string) (*config.ProjectConfig, error) {
	_ = godotenv.Load(filepath.Join(dir, ".env"))

	projectCfg, err := config.Load(dir)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load %s: %w: %w", config.ConfigFileName, usaccidents.ErrInvalidConfig, err)
	}
	return projectCfg, nil
}

// applyDataConfig fills the data location of cfg. An explicitly set flag wins
// over usaccidents.yaml, which wins over the flag default.
func applyDataConfig(cmd *cobra.Command, flags dataFlags, projectCfg *config.ProjectConfig, cfg *usaccidents.LoadConfig) {
	var data config.DataConfig
	if projectCfg != nil {
		data = projectCfg.Data
	}

	cfg.DataDir = flagOrConfig(cmd, "data-dir", flags.dataDir, data.Dir)
	cfg.ArchiveName = flagOrConfig(cmd, "archive", flags.archive, data.Archive)
	cfg.CSVName = flagOrConfig(cmd, "csv", flags.csv, data.CSV)

	cfg.KeepCSV = flags.keepCSV
	if !cmd.Flags().Changed("keep-csv") && data.KeepCSV {
		cfg.KeepCSV = true
	}
}

func flagOrConfig(cmd *cobra.Command, name, flagValue, configValue string) string {
	if !cmd.Flags().Changed(name) && configValue != "" {
		return configValue
	}
	return flagValue
}

// resolveEffectiveTimeout returns the effective timeout, preferring usaccidents.yaml if flag wasn't set.
func resolveEffectiveTimeout(
	cmd *cobra.Command,
	projectCfg *config.ProjectConfig,
	flagTimeout time.Duration,
) (time.Duration, error) {
	if projectCfg != nil && projectCfg.Timeout != "" && !cmd.Flags().Changed("timeout") {
		parsed, err := projectCfg.TimeoutDuration()
		if err != nil {
			return 0, fmt.Errorf("%w: %w", usaccidents.ErrInvalidConfig, err)
		}
		return parsed, nil
	}
	return flagTimeout, nil
}

// resolveIfExists returns the table policy, preferring usaccidents.yaml if flag wasn't set.
func resolveIfExists(cmd *cobra.Command, projectCfg *config.ProjectConfig, flagValue string) usaccidents.IfExists {
	var configValue string
	if projectCfg != nil {
		configValue = projectCfg.IfExists
	}
	return usaccidents.IfExists(flagOrConfig(cmd, "if-exists", flagValue, configValue))
}

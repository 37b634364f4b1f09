package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/vvka-141/usaccidents/internal/logging"
	"github.com/vvka-141/usaccidents/internal/normalize"
	"github.com/vvka-141/usaccidents/internal/services"
	"github.com/vvka-141/usaccidents/pkg/usaccidents"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Report how well candidate keys identify locations",
	Long: `Inspect extracts the archive if needed, scans the CSV and collects the
distinct (City, County, State) locations without touching the database.

It then reports, for City, (City, State), County and (City, County), the value
combinations shared by the most locations. A key marked unique would have been
enough to identify a location on its own.

Examples:
  usaccidents inspect
  usaccidents inspect --top 10 --data-dir /srv/datasets`,
	Args: cobra.NoArgs,
	RunE: runInspect,
}

type inspectFlagValues struct {
	data dataFlags
	top  int
}

var inspectFlags inspectFlagValues

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	uniqueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	sharedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

func init() {
	rootCmd.AddCommand(inspectCmd)

	addDataFlags(inspectCmd, &inspectFlags.data)
	inspectCmd.Flags().IntVar(&inspectFlags.top, "top", usaccidents.DefaultDiagnosticsTopN,
		"Number of most shared values shown per key")
}

// buildInspectConfig resolves the data location. No connection is needed.
func buildInspectConfig(cmd *cobra.Command, flags inspectFlagValues) (usaccidents.LoadConfig, error) {
	projectCfg, err := loadProjectConfig(flags.data.configDir)
	if err != nil {
		return usaccidents.LoadConfig{}, err
	}

	var cfg usaccidents.LoadConfig
	applyDataConfig(cmd, flags.data, projectCfg, &cfg)

	if cfg.DataDir == "" || cfg.ArchiveName == "" || cfg.CSVName == "" {
		return usaccidents.LoadConfig{}, fmt.Errorf("--data-dir, --archive and --csv cannot be empty: %w", usaccidents.ErrInvalidConfig)
	}
	if flags.top < 0 {
		return usaccidents.LoadConfig{}, fmt.Errorf("--top cannot be negative: %w", usaccidents.ErrInvalidConfig)
	}
	return cfg, nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	verbose := getVerboseFlag(cmd)

	cfg, err := buildInspectConfig(cmd, inspectFlags)
	if err != nil {
		return err
	}

	logger := logging.NewConsoleLogger(verbose)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := services.NewInspectService(logger).Inspect(ctx, cfg, inspectFlags.top)
	if err != nil {
		return fmt.Errorf("inspect failed: %w", err)
	}

	renderReport(cmd.OutOrStdout(), report)
	return nil
}

// renderReport prints one table per candidate key.
func renderReport(w io.Writer, report *normalize.Report) {
	fmt.Fprintf(w, "%d distinct (City, County, State) locations\n", report.Locations)

	for _, check := range report.Checks {
		title := strings.Join(check.Columns, ", ")
		if check.Unique {
			fmt.Fprintf(w, "\n%s: %s\n", title, uniqueStyle.Render("unique"))
			continue
		}
		fmt.Fprintf(w, "\n%s: %s\n", title, sharedStyle.Render("shared by several locations"))

		headers := append(append([]string{}, check.Columns...), "locations")
		rows := make([][]string, 0, len(check.Top))
		for _, g := range check.Top {
			rows = append(rows, append(append([]string{}, g.Values...), strconv.Itoa(g.Count)))
		}

		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers(headers...).
			Rows(rows...).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				return cellStyle
			})
		fmt.Fprintln(w, t.Render())
	}
}

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "usaccidents",
	Short: "Load the US traffic accidents dataset into PostgreSQL",
	Long: `usaccidents unpacks the US accidents CSV archive, splits it into a
deduplicated cities table and an accidents fact table, writes both with
COPY and finally adds the unique and foreign-key constraints.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration
  11 - Database connection failed
  12 - Archive or CSV not found
  13 - Malformed CSV
  14 - Table creation or COPY failed
  15 - Constraint could not be added`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo(os.Stdout)
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	// -h is taken by --host, so help gets a long flag only.
	rootCmd.PersistentFlags().Bool("help", false, "Help for usaccidents")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}

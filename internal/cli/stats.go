package cli

import (
	"github.com/spf13/cobra"

	"github.com/supplylens/supplylens/internal/logging"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Import monthly country trade statistics",
	Long: `Import the monthly country trade statistics JSON tree. Each
industry directory holds one <hs_code>_<year>.json file per code and
year, keyed by month.

Example:
  supplylens-import stats --data-dir ./data/country_trade_stats
  supplylens-import stats --data-dir ./data/country_trade_stats --clear`,
	RunE: runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	repo, loader, err := openLoader()
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := clearTables(cmd, repo, "country_monthly_trade_stats"); err != nil {
		return err
	}

	result, err := loader.LoadMonthlyStats(cmd.Context(), cfg.DataDir)
	if err != nil {
		return err
	}

	logging.Info().
		Int("files", result.Files).
		Int("imported", result.Imported).
		Int("filtered", result.Filtered).
		Msg("monthly trade statistics import complete")
	return nil
}

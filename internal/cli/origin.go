package cli

import (
	"github.com/spf13/cobra"

	"github.com/supplylens/supplylens/internal/logging"
)

var originCmd = &cobra.Command{
	Use:   "origin",
	Short: "Import country-of-origin trade statistics",
	Long: `Import the country-of-origin JSON exports. Each industry
directory holds a CountryOfOrigin/ subdirectory with one
<hs_code>_<year>_<month>.json file mapping origin country to
destination country. Industries without the subdirectory are skipped.

Example:
  supplylens-import origin --data-dir ./data/country_trade_stats
  supplylens-import origin --data-dir ./data/country_trade_stats --clear`,
	RunE: runOrigin,
}

func runOrigin(cmd *cobra.Command, args []string) error {
	repo, loader, err := openLoader()
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := clearTables(cmd, repo, "country_origin_trade_stats"); err != nil {
		return err
	}

	result, err := loader.LoadOriginStats(cmd.Context(), cfg.DataDir)
	if err != nil {
		return err
	}

	logging.Info().
		Int("files", result.Files).
		Int("imported", result.Imported).
		Int("filtered", result.Filtered).
		Msg("origin trade statistics import complete")
	return nil
}

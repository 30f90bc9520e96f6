package cli

import (
	"github.com/spf13/cobra"

	"github.com/supplylens/supplylens/internal/logging"
)

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "Import the processed reference CSVs",
	Long: `Import the processed reference tables from a directory of CSV
exports: monthly_company_flows.csv, hs_code_categories.csv,
country_locations.csv and port_locations.csv. Missing files are
skipped so partial exports load cleanly.

Example:
  supplylens-import tables --data-dir ./data/processed
  supplylens-import tables --data-dir ./data/processed --clear`,
	RunE: runTables,
}

func runTables(cmd *cobra.Command, args []string) error {
	repo, loader, err := openLoader()
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := clearTables(cmd, repo,
		"monthly_company_flows", "hs_code_categories",
		"country_locations", "port_locations"); err != nil {
		return err
	}

	result, err := loader.LoadProcessedTables(cmd.Context(), cfg.DataDir)
	if err != nil {
		return err
	}

	logging.Info().
		Int("flows", result.Flows).
		Int("hs_categories", result.HSCategories).
		Int("country_locations", result.CountryLocations).
		Int("port_locations", result.PortLocations).
		Msg("processed tables import complete")
	return nil
}

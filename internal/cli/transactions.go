package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/supplylens/supplylens/internal/logging"
)

var transactionsFile string

var transactionsCmd = &cobra.Command{
	Use:   "transactions",
	Short: "Import the shipment transactions CSV",
	Long: `Import shipment records from a CSV file. Companies and their
city and country locations are created on first sight with
deterministic identifiers, so re-importing the same file converges.
Records whose category is unknown or whose date cannot be parsed are
skipped and counted.

Example:
  supplylens-import transactions --file ./data/synthetic_data.csv
  supplylens-import transactions --file ./data/synthetic_data.csv --clear`,
	RunE: runTransactions,
}

func init() {
	transactionsCmd.Flags().StringVar(&transactionsFile, "file", "",
		"path to the shipment CSV file (default: <data-dir>/synthetic_data.csv)")
}

func runTransactions(cmd *cobra.Command, args []string) error {
	csvPath := transactionsFile
	if csvPath == "" {
		csvPath = filepath.Join(cfg.DataDir, "synthetic_data.csv")
	}

	repo, loader, err := openLoader()
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := clearTables(cmd, repo, "transactions", "companies", "locations"); err != nil {
		return err
	}

	result, err := loader.LoadTransactions(cmd.Context(), csvPath)
	if err != nil {
		return err
	}

	logging.Info().
		Int("transactions", result.Transactions).
		Int("companies", result.Companies).
		Int("locations", result.Locations).
		Int("skipped", result.Skipped).
		Msg("transactions import complete")
	return nil
}

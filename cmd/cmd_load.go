package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/postcode-matcher/internal/dataset"
)

var loadOptions struct {
	csvPath string
	into    string
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Import the CSV dataset into duckdb, postgres or mongo",
	Long: `
load parses the reference CSV and writes every row into the store named by
--into, replacing its previous contents. The service can then read the
dataset from that store with dataset.source set accordingly.
`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		path := loadOptions.csvPath
		if path == "" {
			path = cfg.Dataset.CSVPath
		}
		start := time.Now()
		rows, err := dataset.NewCSVSource(path).Load(cmd.Context())
		if err != nil {
			return err
		}

		sc := cfg.SourceConfig()
		sc.Kind = loadOptions.into
		importer, err := dataset.NewImporter(sc, logger)
		if err != nil {
			return err
		}

		step, finish := newProgress(len(rows), "Importing "+loadOptions.into)
		err = importer.ImportRecords(cmd.Context(), rows, step)
		finish()
		if err != nil {
			return fmt.Errorf("import into %s: %w", loadOptions.into, err)
		}

		log.Printf("Imported %d rows from %s into %s in %s", len(rows), path, loadOptions.into, time.Since(start).Round(time.Millisecond))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loadCmd)
	loadCmd.Flags().StringVar(&loadOptions.csvPath, "csv", "", "CSV file to import (default: dataset.csv_path)")
	loadCmd.Flags().StringVar(&loadOptions.into, "into", "duckdb", "target store: duckdb, postgres or mongo")
}

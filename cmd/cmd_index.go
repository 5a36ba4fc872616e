package cmd

import (
	"errors"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/postcode-matcher/internal/bootstrap"
	"github.com/postcode-matcher/internal/search"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Publish the dataset to the Meilisearch locality index",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		cfg.Meilisearch.Enabled = true
		app, err := bootstrap.New(cfg, logger, nil)
		if err != nil {
			return err
		}
		defer app.Close()
		if app.Index == nil {
			return errors.New("meilisearch unreachable at " + cfg.Meilisearch.URL)
		}

		// Reload the store directly so the admin path does not publish a
		// second time.
		snap, err := app.Store.Reload(cmd.Context())
		if err != nil {
			return err
		}
		if err := app.Index.Configure(cmd.Context()); err != nil {
			return err
		}

		start := time.Now()
		step, finish := newProgress(len(search.BuildDocuments(snap)), "Indexing localities")
		n, err := app.Index.Publish(cmd.Context(), snap, step)
		finish()
		if err != nil {
			return err
		}
		log.Printf("Published %d localities of generation %d in %s", n, snap.Generation, time.Since(start).Round(time.Millisecond))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

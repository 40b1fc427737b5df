package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"benritz/bondmetrics/internal/collect"
	"benritz/bondmetrics/internal/logging"
	"benritz/bondmetrics/internal/types"
)

func newCollectCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect [destination]",
		Short: "Collect today's UK gilt quotes and store their metrics",
		Long: `Scrape today's UK gilt prices and yields, compute metrics for each gilt
(face 100, semi-annual coupons) and store them as parquet under
<destination>/YYYY/MM/DD/<source>.parquet.

The destination is a local directory or an s3://bucket/prefix URL and defaults
to collect.destination from the config.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dst := app.Config.Collect.Destination
			if len(args) == 1 {
				dst = args[0]
			}
			if dst == "" {
				return ErrNoDestination
			}

			ctx := logging.WithLogger(cmd.Context(), logging.WithSource(app.Logger, app.Collector.Source()))

			collected, err := app.Collector.Collect(ctx, app.Now())
			if err != nil {
				if errors.Is(err, types.ErrDataUnavailable) {
					app.Logger.Warn().Msg("Data unavailable")
				}
				return err
			}

			for _, f := range collected.Failures {
				app.Logger.Warn().Str("ticker", f.Gilt.Ticker).Err(f.Err).Msg("skipping gilt row")
			}

			records, failures := collect.ComputeAll(collected.Entries())
			logFailures(app.Logger, failures)

			if len(records) == 0 {
				return ErrNoValidBonds
			}

			r, err := app.renderer(cmd)
			if err != nil {
				return err
			}

			if err := r.RenderBatch(records); err != nil {
				return err
			}

			return app.store(ctx, records, dst, app.Collector.Source())
		},
	}

	addOutputFlags(cmd)

	return cmd
}

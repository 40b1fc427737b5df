package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"benritz/bondmetrics/internal/collect"
	"benritz/bondmetrics/internal/logging"
	"benritz/bondmetrics/internal/types"
)

var (
	ErrNoValidBonds  = fmt.Errorf("no valid bonds to compute")
	ErrNoDestination = fmt.Errorf("no destination given")
)

func newBatchCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <workbook> [destination]",
		Short: "Compute metrics for every bond in a workbook",
		Long: `Compute metrics for every bond row in an xls, xlsx, csv or tsv workbook.

Rows hold: id, face_value, coupon_rate, ytm, years, frequency. A header row is
allowed. Invalid rows are reported and skipped.

If a destination is given the results are also written as parquet to
<destination>/YYYY/MM/DD/<workbook name>.parquet, where destination is a local
directory or an s3://bucket/prefix URL.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.WithSource(app.Logger, filepath.Base(args[0]))

			entries, err := collect.LoadWorkbook(args[0])
			if err != nil {
				return err
			}

			records, failures := collect.ComputeAll(entries)
			logFailures(log, failures)

			log.Info().
				Int("bonds", len(records)).
				Int("failures", len(failures)).
				Msg("computed workbook")

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

			if len(args) < 2 {
				return nil
			}

			name := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			return app.store(ctx, records, args[1], name)
		},
	}

	addOutputFlags(cmd)

	return cmd
}

func (a *App) store(ctx context.Context, records []types.MetricsRecord, dst, name string) error {
	outPath, err := collect.Store(ctx, records, dst, name, a.Now(), a.NewS3)
	if err != nil {
		return fmt.Errorf("failed to store data: %w", err)
	}

	a.Logger.Info().Str("path", outPath).Int("records", len(records)).Msg("stored metrics")
	return nil
}

func logFailures(log zerolog.Logger, failures []collect.Entry) {
	for _, f := range failures {
		var verr *types.ValidationError
		event := log.Warn().Str("bond", f.Label()).Int("line", f.Line)
		if errors.As(f.Err, &verr) {
			event = event.Str("field", verr.Field)
		}
		event.Err(f.Err).Msg("skipping bond")
	}
}

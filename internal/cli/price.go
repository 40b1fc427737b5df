package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"benritz/bondmetrics/internal/report"
	"benritz/bondmetrics/internal/types"
)

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", "", "output format: text, table or json (default from config)")
	cmd.Flags().Bool("no-color", false, "disable coloured output")
}

func (a *App) renderer(cmd *cobra.Command) (*report.Renderer, error) {
	format := a.Config.Output.Format
	if f, _ := cmd.Flags().GetString("format"); f != "" {
		format = f
	}

	parsed, err := report.ParseFormat(format)
	if err != nil {
		return nil, err
	}

	noColor, _ := cmd.Flags().GetBool("no-color")

	return report.NewRenderer(cmd.OutOrStdout(), parsed, a.Config.Output.Color && !noColor), nil
}

func newPriceCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "price <face_value> <coupon_rate> <ytm> <years> <frequency>",
		Short: "Price one bond and report its risk metrics",
		Long: `Price one fixed-rate coupon bond.

Arguments:
  face_value  : Face value of the bond (e.g., 1000)
  coupon_rate : Annual coupon rate as decimal (e.g., 0.05 for 5%)
  ytm         : Yield to maturity as decimal (e.g., 0.06 for 6%)
  years       : Years to maturity, 1 to 100 (e.g., 10)
  frequency   : Payments per year: 1=annual, 2=semi-annual, 4=quarterly, 12=monthly`,
		Example: "  bondmetrics price 1000 0.05 0.06 10 2",
		// Negative numbers are arguments here, so flags are parsed by hand
		// before the shared setup runs.
		DisableFlagParsing: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := parseFlagsKeepingNumbers(cmd, args); err != nil {
				return err
			}
			return app.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if help, _ := cmd.Flags().GetBool("help"); help {
				return cmd.Help()
			}

			params, err := types.ParseParams(cmd.Flags().Args())
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), cmd.UsageString())
				return err
			}

			r, err := app.renderer(cmd)
			if err != nil {
				return err
			}

			metrics := types.ComputeMetrics(params)

			app.Logger.Debug().
				Float64("price", metrics.Price).
				Float64("modified_duration", metrics.ModifiedDuration).
				Int("periods", params.Periods()).
				Msg("computed bond metrics")

			return r.Render(params, metrics)
		},
	}

	addOutputFlags(cmd)

	return cmd
}

// parseFlagsKeepingNumbers parses cmd's flags (inherited ones included) from
// args, treating anything that parses as a number as a positional argument.
// The positional arguments are then available from cmd.Flags().Args().
func parseFlagsKeepingNumbers(cmd *cobra.Command, args []string) error {
	// merges the root's persistent flags into cmd.Flags()
	cmd.InheritedFlags()

	flags := cmd.Flags()
	flagArgs, positional := splitArgs(flags, args)

	if err := flags.Parse(append(append(flagArgs, "--"), positional...)); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), cmd.UsageString())
		return err
	}
	return nil
}

func splitArgs(flags *pflag.FlagSet, args []string) (flagArgs, positional []string) {
	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch {
		case arg == "--":
			return flagArgs, append(positional, args[i+1:]...)
		case arg == "-" || !strings.HasPrefix(arg, "-") || isNumber(arg):
			positional = append(positional, arg)
		default:
			flagArgs = append(flagArgs, arg)
			if takesValue(flags, arg) && i+1 < len(args) {
				i++
				flagArgs = append(flagArgs, args[i])
			}
		}
	}
	return flagArgs, positional
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil || errors.Is(err, strconv.ErrRange)
}

// takesValue reports whether arg is a flag whose value is the next argument.
func takesValue(flags *pflag.FlagSet, arg string) bool {
	if strings.Contains(arg, "=") {
		return false
	}

	var f *pflag.Flag
	if name, ok := strings.CutPrefix(arg, "--"); ok {
		f = flags.Lookup(name)
	} else if short := strings.TrimPrefix(arg, "-"); len(short) == 1 {
		f = flags.ShorthandLookup(short)
	}

	return f != nil && f.NoOptDefVal == ""
}

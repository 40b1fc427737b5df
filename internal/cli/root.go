// Package cli provides the bondmetrics command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"benritz/bondmetrics/internal/collect"
	"benritz/bondmetrics/internal/config"
	"benritz/bondmetrics/internal/logging"
)

const Version = "0.1.0"

// App holds the dependencies shared by commands. Fields left nil are filled
// with production defaults when the root command runs.
type App struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Collector collect.Collector
	NewS3     func(ctx context.Context) (collect.S3Putter, error)
	Now       func() time.Time
	LogOutput io.Writer
}

func (a *App) s3Client(ctx context.Context) (collect.S3Putter, error) {
	cfg, err := getAwsConfig(ctx, a.Config.AWS.Profile)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

func getAwsConfig(ctx context.Context, profile string) (aws.Config, error) {
	if profile == "" || profile == "default" {
		return awsconfig.LoadDefaultConfig(ctx)
	}
	return awsconfig.LoadDefaultConfig(ctx, awsconfig.WithSharedConfigProfile(profile))
}

// NewRootCmd creates the root command. app may be partially populated by tests.
func NewRootCmd(app *App) *cobra.Command {
	if app == nil {
		app = &App{}
	}

	rootCmd := &cobra.Command{
		Use:   "bondmetrics",
		Short: "Price fixed-rate coupon bonds and compute duration, convexity and DV01",
		Long: `bondmetrics prices a fixed-rate coupon bond from its face value, coupon
rate, yield to maturity, years to maturity and payment frequency, and reports
Macaulay duration, modified duration, convexity and DV01.

Rates are annual decimals: 0.05 means 5%.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(cmd)
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config file (yaml, toml or json)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("profile", "", "AWS profile for s3:// destinations")

	rootCmd.AddCommand(newPriceCmd(app))
	rootCmd.AddCommand(newBatchCmd(app))
	rootCmd.AddCommand(newCollectCmd(app))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func (a *App) setup(cmd *cobra.Command) error {
	if a.Config == nil {
		path, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		a.Config = cfg
	}

	if profile, _ := cmd.Flags().GetString("profile"); profile != "" {
		a.Config.AWS.Profile = profile
	}

	logCfg := a.Config.Logging()
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		logCfg.Level = "debug"
	}

	var logger zerolog.Logger
	if a.LogOutput == nil {
		logger = logging.NewLogger(logCfg)
	} else {
		logger = logging.NewLoggerTo(a.LogOutput, logCfg)
	}
	a.Logger = logging.WithOperation(logger, cmd.Name())

	if a.Collector == nil {
		a.Collector = collect.NewDividendDataCollector()
	}
	if a.NewS3 == nil {
		a.NewS3 = a.s3Client
	}
	if a.Now == nil {
		a.Now = time.Now
	}

	cmd.SetContext(logging.WithLogger(cmd.Context(), a.Logger))

	a.Logger.Debug().Msg("starting")
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bondmetrics v%s\n", Version)
		},
	}
}

// Package cmd contains the CLI command for the application,
// built using the Cobra library.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/naka-gawa/github-metrics/internal/auth"
	"github.com/naka-gawa/github-metrics/internal/gateway"
	"github.com/naka-gawa/github-metrics/internal/report"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "github-metrics",
	Short: "Reports yearly GitHub activity of the authenticated user.",
	Long: `github-metrics counts, for each requested year, the commits you authored on the
default branch of repositories you own, the pull requests you created and merged,
and the issues you opened. The result is printed as a table and saved as JSON and CSV.

The token is read from GITHUB_TOKEN (a .env file in the working directory is honored)
or, when unset, from 'gh auth token'.`,
	Example: `  github-metrics
  github-metrics --year 2022 --year 2023
  github-metrics -y 2021,2022,2023 -o reports`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		logger := newLogger(cmd.ErrOrStderr(), verbose)

		years, _ := cmd.Flags().GetIntSlice("year")
		outputDir, _ := cmd.Flags().GetString("output-dir")
		hostname, _ := cmd.Flags().GetString("hostname")

		// A missing .env file is the common case.
		if err := godotenv.Load(); err == nil {
			logger.Debug("Loaded environment from .env")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		opts := reportOptions{
			years:     years,
			outputDir: outputDir,
			now:       time.Now(),
		}
		return runReport(ctx, cmd.OutOrStdout(), logger, opts, gateway.EndpointFor(hostname), auth.DefaultChain(hostname))
	},
}

// Execute runs the root command. Any error is printed once and the process exits with status 1.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.Flags().IntSliceP("year", "y", nil, "Year(s) to analyze, repeatable or comma-separated (default: previous and current year)")
	rootCmd.Flags().StringP("output-dir", "o", report.DefaultOutputDir, "Directory the JSON and CSV reports are written to")
	rootCmd.Flags().String("hostname", "github.com", "GitHub hostname (set for GitHub Enterprise Server)")
}

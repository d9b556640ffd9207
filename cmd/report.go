package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/naka-gawa/github-metrics/internal/domain"
	"github.com/naka-gawa/github-metrics/internal/gateway"
	"github.com/naka-gawa/github-metrics/internal/report"
	"github.com/naka-gawa/github-metrics/internal/usecase"
	"golang.org/x/oauth2"
)

type reportOptions struct {
	years     []int
	outputDir string
	now       time.Time
}

// runReport resolves the credential, aggregates the metrics and writes the report.
// The token is resolved before any request is sent, and the output files are only
// written once every fetch has succeeded.
func runReport(ctx context.Context, stdout io.Writer, logger *log.Logger, opts reportOptions, endpoint string, src oauth2.TokenSource) error {
	years, err := resolveYears(opts.years, opts.now)
	if err != nil {
		return err
	}

	token, err := src.Token()
	if err != nil {
		return err
	}

	// Inject dependencies and run the main business logic.
	fetcher := gateway.NewGitHubGateway(endpoint, oauth2.StaticTokenSource(token), logger)
	aggregator := usecase.NewAggregator(fetcher, logger)
	result, err := aggregator.Aggregate(ctx, years)
	if err != nil {
		return err
	}

	report.PrintIdentity(stdout, result.Viewer)
	report.PrintTable(stdout, result.Records)

	outputDir := opts.outputDir
	if outputDir == "" {
		outputDir = report.DefaultOutputDir
	}
	jsonPath, csvPath, err := report.Save(outputDir, result.Records)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "\nSaved to %s and %s\n", jsonPath, csvPath)
	return nil
}

// resolveYears applies the default year range and rejects anything that is not a four-digit year.
func resolveYears(years []int, now time.Time) ([]int, error) {
	if len(years) == 0 {
		return domain.DefaultYears(now), nil
	}
	for _, y := range years {
		if y < 1000 || y > 9999 {
			return nil, fmt.Errorf("invalid year %d: expected a four-digit year", y)
		}
	}
	return domain.NormalizeYears(years), nil
}

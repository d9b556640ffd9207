// Package usecase contains the business logic of the application.
package usecase

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/naka-gawa/github-metrics/internal/domain"
	"github.com/naka-gawa/github-metrics/internal/gateway"
)

// Aggregator is the use case for building the yearly metrics report.
// It orchestrates the fetching and combining of data.
type Aggregator struct {
	fetcher gateway.Fetcher
	logger  *log.Logger
}

// NewAggregator creates a new Aggregator instance.
func NewAggregator(fetcher gateway.Fetcher, logger *log.Logger) *Aggregator {
	return &Aggregator{
		fetcher: fetcher,
		logger:  logger,
	}
}

// Aggregate performs the main business logic.
// Years are sorted and de-duplicated, commit counts are fetched once for the whole
// set and search metrics once per year, strictly in sequence. The report is
// all-or-nothing: the first error aborts the run.
func (a *Aggregator) Aggregate(ctx context.Context, years []int) (*domain.Report, error) {
	years = domain.NormalizeYears(years)
	a.logger.Info("Starting data aggregation", "years", years)

	viewer, err := a.fetcher.FetchViewer(ctx)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("Resolved viewer", "login", viewer.Login, "id", viewer.ID)

	commitCounts, err := a.fetcher.FetchCommitCounts(ctx, viewer.ID, years)
	if err != nil {
		return nil, err
	}

	records := make([]domain.YearRecord, 0, len(years))
	for _, year := range years {
		metrics, err := a.fetcher.FetchSearchMetrics(ctx, viewer.Login, year)
		if err != nil {
			return nil, err
		}
		records = append(records, domain.YearRecord{
			Year:          year,
			Commits:       commitCounts[year],
			PRsCreated:    metrics.PRsCreated,
			PRsMerged:     metrics.PRsMerged,
			IssuesCreated: metrics.IssuesCreated,
		})
	}

	a.logger.Info("Aggregation complete", "records", len(records))
	return &domain.Report{Viewer: *viewer, Records: records}, nil
}

// Package gateway provides a gateway to the GitHub GraphQL API,
// abstracting away the wire format and query construction.
package gateway

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/naka-gawa/github-metrics/internal/domain"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"
)

// Fetcher defines the behavior of a gateway for fetching information from GitHub.
type Fetcher interface {
	FetchViewer(ctx context.Context) (*domain.Viewer, error)
	FetchCommitCounts(ctx context.Context, viewerID string, years []int) (map[int]int, error)
	FetchSearchMetrics(ctx context.Context, login string, year int) (*domain.SearchMetrics, error)
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	client *Client
	logger *log.Logger
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
// Requests go to endpoint and carry the bearer token produced by src.
func NewGitHubGateway(endpoint string, src oauth2.TokenSource, logger *log.Logger) Fetcher {
	return &GitHubGateway{
		client: NewClient(endpoint, src),
		logger: logger,
	}
}

// FetchViewer returns the login and node ID of the authenticated user.
func (g *GitHubGateway) FetchViewer(ctx context.Context) (*domain.Viewer, error) {
	g.logger.Debug("Fetching viewer identity")
	var resp viewerResponse
	if err := g.client.Run(ctx, viewerQuery, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch viewer: %w", err)
	}
	return &domain.Viewer{Login: resp.Viewer.Login, ID: resp.Viewer.ID}, nil
}

// FetchCommitCounts sums, per year, the commits authored by viewerID on the default
// branch of every repository the viewer owns. Every requested year has an entry.
func (g *GitHubGateway) FetchCommitCounts(ctx context.Context, viewerID string, years []int) (map[int]int, error) {
	commitCounts := make(map[int]int, len(years))
	for _, year := range years {
		commitCounts[year] = 0
	}
	if len(years) == 0 {
		return commitCounts, nil
	}

	query, err := buildCommitHistoryQuery(years)
	if err != nil {
		return nil, fmt.Errorf("failed to build commit history query: %w", err)
	}
	variables := map[string]any{
		"cursor": (*githubv4.String)(nil),
		"author": githubv4.CommitAuthor{ID: githubv4.NewID(githubv4.ID(viewerID))},
	}
	for _, year := range years {
		since, until := domain.YearBounds(year)
		variables[fmt.Sprintf("since%d", year)] = githubv4.GitTimestamp{Time: since}
		variables[fmt.Sprintf("until%d", year)] = githubv4.GitTimestamp{Time: until}
	}

	g.logger.Debug("Fetching commit history counts", "years", years)
	totalRepos := 0
	for page := 1; ; page++ {
		var resp repositoriesResponse
		if err := g.client.Run(ctx, query, variables, &resp); err != nil {
			return nil, fmt.Errorf("failed to fetch repository commit history: %w", err)
		}
		repos := resp.Viewer.Repositories
		for _, node := range repos.Nodes {
			addHistoryCounts(commitCounts, node, years)
		}
		totalRepos += len(repos.Nodes)
		g.logger.Debug("Fetched repository page", "page", page, "repos", len(repos.Nodes), "total", totalRepos)

		if !repos.PageInfo.HasNextPage {
			break
		}
		variables["cursor"] = repos.PageInfo.EndCursor
	}
	g.logger.Debug("Completed fetching commit history counts", "repos", totalRepos)
	return commitCounts, nil
}

// addHistoryCounts adds the per-year history counts of one repository into totals.
// Repositories without a default branch or target contribute nothing.
func addHistoryCounts(totals map[int]int, node repositoryNode, years []int) {
	if node.DefaultBranchRef == nil || node.DefaultBranchRef.Target == nil {
		return
	}
	for _, year := range years {
		if h := node.DefaultBranchRef.Target[fmt.Sprintf("h%d", year)]; h != nil {
			totals[year] += h.TotalCount
		}
	}
}

// FetchSearchMetrics returns the PR and issue search counts of login for year,
// using one request with three aliased searches.
func (g *GitHubGateway) FetchSearchMetrics(ctx context.Context, login string, year int) (*domain.SearchMetrics, error) {
	g.logger.Debug("Fetching search metrics", "login", login, "year", year)
	dateRange := fmt.Sprintf("%d-01-01..%d-12-31", year, year)
	variables := map[string]any{
		"qPrs":    githubv4.String(fmt.Sprintf("is:pr author:%s created:%s", login, dateRange)),
		"qMerged": githubv4.String(fmt.Sprintf("is:pr is:merged author:%s merged:%s", login, dateRange)),
		"qIssues": githubv4.String(fmt.Sprintf("is:issue author:%s created:%s", login, dateRange)),
	}
	var resp searchMetricsResponse
	if err := g.client.Run(ctx, searchMetricsQuery, variables, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch search metrics for %d: %w", year, err)
	}
	return &domain.SearchMetrics{
		PRsCreated:    resp.PRs.count(),
		PRsMerged:     resp.Merged.count(),
		IssuesCreated: resp.Issues.count(),
	}, nil
}

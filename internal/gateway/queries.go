package gateway

import (
	"strings"
	"text/template"

	"github.com/shurcooL/githubv4"
)

// repositoryPageSize is the number of owned repositories requested per page.
const repositoryPageSize = 50

const viewerQuery = `query { viewer { login id } }`

const searchMetricsQuery = `query($qPrs: String!, $qMerged: String!, $qIssues: String!) {
  prs: search(query: $qPrs, type: ISSUE) { issueCount }
  merged: search(query: $qMerged, type: ISSUE) { issueCount }
  issues: search(query: $qIssues, type: ISSUE) { issueCount }
}`

// commitHistoryTemplate renders one aliased history field per year ("h2024"),
// each bound to its own $since/$until variables.
var commitHistoryTemplate = template.Must(template.New("commitHistory").Parse(
	`query($cursor: String, $author: CommitAuthor!{{range .Years}}, $since{{.}}: GitTimestamp!, $until{{.}}: GitTimestamp!{{end}}) {
  viewer {
    repositories(first: {{.PageSize}}, after: $cursor, ownerAffiliations: [OWNER]) {
      pageInfo { hasNextPage endCursor }
      nodes {
        name
        defaultBranchRef {
          target {
            ... on Commit {
{{- range .Years}}
              h{{.}}: history(since: $since{{.}}, until: $until{{.}}, author: $author) { totalCount }
{{- end}}
            }
          }
        }
      }
    }
  }
}`))

func buildCommitHistoryQuery(years []int) (string, error) {
	var sb strings.Builder
	data := struct {
		PageSize int
		Years    []int
	}{PageSize: repositoryPageSize, Years: years}
	if err := commitHistoryTemplate.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}

type viewerResponse struct {
	Viewer struct {
		Login string `json:"login"`
		ID    string `json:"id"`
	} `json:"viewer"`
}

type historyCount struct {
	TotalCount int `json:"totalCount"`
}

// repositoryNode is one owned repository. Target holds the aliased history
// counts keyed by field name; a year missing from the map counts as zero.
type repositoryNode struct {
	Name             string `json:"name"`
	DefaultBranchRef *struct {
		Target map[string]*historyCount `json:"target"`
	} `json:"defaultBranchRef"`
}

type repositoriesResponse struct {
	Viewer struct {
		Repositories struct {
			PageInfo struct {
				HasNextPage bool             `json:"hasNextPage"`
				EndCursor   *githubv4.String `json:"endCursor"`
			} `json:"pageInfo"`
			Nodes []repositoryNode `json:"nodes"`
		} `json:"repositories"`
	} `json:"viewer"`
}

type searchCount struct {
	IssueCount int `json:"issueCount"`
}

type searchMetricsResponse struct {
	PRs    *searchCount `json:"prs"`
	Merged *searchCount `json:"merged"`
	Issues *searchCount `json:"issues"`
}

func (s *searchCount) count() int {
	if s == nil {
		return 0
	}
	return s.IssueCount
}

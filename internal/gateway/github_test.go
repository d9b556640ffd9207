package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// capturedRequest is the decoded body of a GraphQL request received by the mock server.
type capturedRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// setupTestGateway creates a GitHubGateway that communicates with a mock HTTP server.
func setupTestGateway(t *testing.T, handler http.Handler) (*GitHubGateway, *httptest.Server) {
	server := httptest.NewServer(handler)
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token"})
	gateway := NewGitHubGateway(server.URL, src, log.New(io.Discard)).(*GitHubGateway)
	return gateway, server
}

// decodeRequest reads the GraphQL request body and checks the common headers.
func decodeRequest(t *testing.T, r *http.Request) capturedRequest {
	assert.Equal(t, http.MethodPost, r.Method)
	assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
	assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
	var req capturedRequest
	require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
	return req
}

func TestGitHubGateway_FetchViewer(t *testing.T) {
	testCases := []struct {
		name           string
		status         int
		responseBody   string
		expectedLogin  string
		expectedID     string
		expectError    bool
		expectedErrMsg string
	}{
		{
			name:          "happy path - returns login and id",
			status:        http.StatusOK,
			responseBody:  `{"data":{"viewer":{"login":"octocat","id":"MDQ6VXNlcjE="}}}`,
			expectedLogin: "octocat",
			expectedID:    "MDQ6VXNlcjE=",
		},
		{
			name:           "error case - unauthorized",
			status:         http.StatusUnauthorized,
			responseBody:   `{"message":"Bad credentials"}`,
			expectError:    true,
			expectedErrMsg: "API Error 401: {\"message\":\"Bad credentials\"}",
		},
		{
			name:           "error case - graphql errors",
			status:         http.StatusOK,
			responseBody:   `{"errors":[{"message":"Something went wrong"}]}`,
			expectError:    true,
			expectedErrMsg: "GraphQL Error: [{\"message\":\"Something went wrong\"}]",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := func(w http.ResponseWriter, r *http.Request) {
				req := decodeRequest(t, r)
				assert.Contains(t, req.Query, "viewer { login id }")
				w.WriteHeader(tc.status)
				fmt.Fprint(w, tc.responseBody)
			}
			gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
			defer server.Close()

			viewer, err := gateway.FetchViewer(context.Background())
			if tc.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.expectedErrMsg)
				var apiErr *APIError
				assert.True(t, errors.As(err, &apiErr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedLogin, viewer.Login)
			assert.Equal(t, tc.expectedID, viewer.ID)
		})
	}
}

func TestGitHubGateway_FetchCommitCounts(t *testing.T) {
	pages := map[string]string{
		"": `{"data":{"viewer":{"repositories":{
			"pageInfo":{"hasNextPage":true,"endCursor":"cursor-1"},
			"nodes":[
				{"name":"repo-a","defaultBranchRef":{"target":{"h2023":{"totalCount":5}}}},
				{"name":"empty-repo","defaultBranchRef":null}
			]}}}}`,
		"cursor-1": `{"data":{"viewer":{"repositories":{
			"pageInfo":{"hasNextPage":false,"endCursor":"cursor-2"},
			"nodes":[
				{"name":"no-target","defaultBranchRef":{"target":null}},
				{"name":"repo-b","defaultBranchRef":{"target":{"h2023":{"totalCount":1},"h2024":{"totalCount":12}}}}
			]}}}}`,
	}

	var cursors []string
	handler := func(w http.ResponseWriter, r *http.Request) {
		req := decodeRequest(t, r)
		assert.Contains(t, req.Query, "h2023: history(since: $since2023, until: $until2023, author: $author) { totalCount }")
		assert.Contains(t, req.Query, "h2024: history(since: $since2024, until: $until2024, author: $author) { totalCount }")
		assert.Contains(t, req.Query, "repositories(first: 50, after: $cursor, ownerAffiliations: [OWNER])")
		assert.Equal(t, "2023-01-01T00:00:00Z", req.Variables["since2023"])
		assert.Equal(t, "2023-12-31T23:59:59Z", req.Variables["until2023"])
		assert.Equal(t, map[string]any{"id": "U_viewer"}, req.Variables["author"])

		cursor, _ := req.Variables["cursor"].(string)
		cursors = append(cursors, cursor)
		body, ok := pages[cursor]
		require.True(t, ok, "unexpected cursor %q", cursor)
		fmt.Fprint(w, body)
	}
	gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
	defer server.Close()

	counts, err := gateway.FetchCommitCounts(context.Background(), "U_viewer", []int{2023, 2024})
	require.NoError(t, err)
	assert.Equal(t, map[int]int{2023: 6, 2024: 12}, counts)
	assert.Equal(t, []string{"", "cursor-1"}, cursors)
}

func TestGitHubGateway_FetchCommitCounts_MissingYearsAreZero(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		decodeRequest(t, r)
		fmt.Fprint(w, `{"data":{"viewer":{"repositories":{
			"pageInfo":{"hasNextPage":false,"endCursor":null},
			"nodes":[{"name":"repo-a","defaultBranchRef":{"target":{"h2022":null}}}]}}}}`)
	}
	gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
	defer server.Close()

	counts, err := gateway.FetchCommitCounts(context.Background(), "U_viewer", []int{2022, 2021})
	require.NoError(t, err)
	assert.Equal(t, map[int]int{2021: 0, 2022: 0}, counts)
}

func TestGitHubGateway_FetchCommitCounts_NoYears(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for an empty year set")
	}
	gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
	defer server.Close()

	counts, err := gateway.FetchCommitCounts(context.Background(), "U_viewer", nil)
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestGitHubGateway_FetchCommitCounts_Error(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "upstream failure")
	}
	gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
	defer server.Close()

	counts, err := gateway.FetchCommitCounts(context.Background(), "U_viewer", []int{2024})
	assert.Nil(t, counts)
	require.Error(t, err)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream failure", apiErr.Body)
}

func TestGitHubGateway_FetchSearchMetrics(t *testing.T) {
	testCases := []struct {
		name         string
		responseBody string
		expected     [3]int
	}{
		{
			name:         "happy path - all three counts",
			responseBody: `{"data":{"prs":{"issueCount":4},"merged":{"issueCount":3},"issues":{"issueCount":1}}}`,
			expected:     [3]int{4, 3, 1},
		},
		{
			name:         "missing search is zero",
			responseBody: `{"data":{"prs":{"issueCount":2},"merged":null}}`,
			expected:     [3]int{2, 0, 0},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := func(w http.ResponseWriter, r *http.Request) {
				req := decodeRequest(t, r)
				assert.Contains(t, req.Query, "prs: search(query: $qPrs, type: ISSUE) { issueCount }")
				assert.Equal(t, "is:pr author:octocat created:2024-01-01..2024-12-31", req.Variables["qPrs"])
				assert.Equal(t, "is:pr is:merged author:octocat merged:2024-01-01..2024-12-31", req.Variables["qMerged"])
				assert.Equal(t, "is:issue author:octocat created:2024-01-01..2024-12-31", req.Variables["qIssues"])
				fmt.Fprint(w, tc.responseBody)
			}
			gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
			defer server.Close()

			metrics, err := gateway.FetchSearchMetrics(context.Background(), "octocat", 2024)
			require.NoError(t, err)
			assert.Equal(t, tc.expected[0], metrics.PRsCreated)
			assert.Equal(t, tc.expected[1], metrics.PRsMerged)
			assert.Equal(t, tc.expected[2], metrics.IssuesCreated)
		})
	}
}

func TestGitHubGateway_FetchSearchMetrics_Error(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"errors":[{"message":"rate limited"}]}`)
	}
	gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
	defer server.Close()

	metrics, err := gateway.FetchSearchMetrics(context.Background(), "octocat", 2024)
	assert.Nil(t, metrics)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch search metrics for 2024")
	assert.Contains(t, err.Error(), "rate limited")
}

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
)

// DefaultEndpoint is the GraphQL endpoint of github.com.
const DefaultEndpoint = "https://api.github.com/graphql"

// EndpointFor returns the GraphQL endpoint for hostname. An empty hostname or
// github.com maps to DefaultEndpoint, anything else is treated as GitHub Enterprise Server.
func EndpointFor(hostname string) string {
	if hostname == "" || hostname == "github.com" {
		return DefaultEndpoint
	}
	return fmt.Sprintf("https://%s/api/graphql", hostname)
}

// APIError is returned for a non-200 response or a response carrying a
// top-level "errors" field.
type APIError struct {
	StatusCode int
	Body       string
	Errors     json.RawMessage
}

func (e *APIError) Error() string {
	if len(e.Errors) > 0 {
		return fmt.Sprintf("GraphQL Error: %s", e.Errors)
	}
	return fmt.Sprintf("API Error %d: %s", e.StatusCode, e.Body)
}

// Client posts GraphQL documents to a single endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors json.RawMessage `json:"errors"`
}

// NewClient creates a Client that authenticates every request with a token from src.
func NewClient(endpoint string, src oauth2.TokenSource) *Client {
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Transport: &oauth2.Transport{
				Base:   http.DefaultTransport,
				Source: src,
			},
		},
	}
}

// Run sends query with variables and decodes the "data" object of the response into out.
// out may be nil when the caller does not need the payload.
func (c *Client) Run(ctx context.Context, query string, variables map[string]any, out any) error {
	if variables == nil {
		variables = map[string]any{}
	}
	payload, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("failed to encode GraphQL request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build GraphQL request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send GraphQL request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read GraphQL response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var envelope graphQLResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("failed to decode GraphQL response: %w", err)
	}
	if len(envelope.Errors) > 0 && !bytes.Equal(envelope.Errors, []byte("null")) {
		return &APIError{StatusCode: resp.StatusCode, Errors: envelope.Errors}
	}
	if out == nil || len(envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("failed to decode GraphQL data: %w", err)
	}
	return nil
}

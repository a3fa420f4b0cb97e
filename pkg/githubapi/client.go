// Package githubapi provides a typed GitHub REST API client for the
// endpoints this server consumes: repository listing, combined issue/PR
// search, issue labeling and state changes, and pull request inspection.
package githubapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-faster/errors"
)

const (
	defaultServerURL = "https://api.github.com"
	apiVersion       = "2022-11-28"
)

// headerTransport injects the auth and API version headers into every request.
type headerTransport struct {
	base  http.RoundTripper
	token string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	return t.base.RoundTrip(req)
}

// Client is a GitHub REST API client authenticated by a bearer token.
type Client struct {
	serverURL  string
	httpClient *http.Client
}

// NewClient creates a client against api.github.com with the given token.
func NewClient(token string) *Client {
	return NewClientWithBaseURL(defaultServerURL, token)
}

// NewClientWithBaseURL creates a client against a custom base URL.
// Used by tests to point at a local backend.
func NewClientWithBaseURL(serverURL, token string) *Client {
	return &Client{
		serverURL: serverURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &headerTransport{
				base:  http.DefaultTransport,
				token: token,
			},
		},
	}
}

// APIError is a non-2xx response from the GitHub API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("github: %s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("github: unexpected status %d", e.StatusCode)
}

// =============================================================================
// Resource Types
// =============================================================================

// Repo is a repository owned by the authenticated user.
type Repo struct {
	Name          string    `json:"name"`
	FullName      string    `json:"full_name"`
	Private       bool      `json:"private"`
	HTMLURL       string    `json:"html_url"`
	DefaultBranch string    `json:"default_branch"`
	PushedAt      time.Time `json:"pushed_at"`
}

// SearchItem is one result of the combined issue/PR search.
// Labels can be plain strings or label objects; PullRequest is present only
// when the item is a pull request.
type SearchItem struct {
	Number        int             `json:"number"`
	Title         string          `json:"title"`
	State         string          `json:"state"`
	HTMLURL       string          `json:"html_url"`
	RepositoryURL string          `json:"repository_url"`
	Labels        []any           `json:"labels"`
	PullRequest   json.RawMessage `json:"pull_request,omitempty"`
}

// SearchResult is the combined issue/PR search response.
type SearchResult struct {
	TotalCount int          `json:"total_count"`
	Items      []SearchItem `json:"items"`
}

// Label is an issue label.
type Label struct {
	Name string `json:"name"`
}

// Issue is the subset of an issue this server reads back after updates.
type Issue struct {
	Number int    `json:"number"`
	State  string `json:"state"`
	Title  string `json:"title"`
}

// PullRequest is the subset of PR metadata used for summarization.
type PullRequest struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// PullRequestFile is one changed file in a pull request.
type PullRequestFile struct {
	Filename  string `json:"filename"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

// =============================================================================
// Operations
// =============================================================================

// ListAuthenticatedRepos lists repositories owned by the authenticated user,
// most recently updated first.
func (c *Client) ListAuthenticatedRepos(ctx context.Context, perPage int) ([]Repo, error) {
	q := url.Values{}
	q.Set("sort", "updated")
	q.Set("direction", "desc")
	q.Set("per_page", strconv.Itoa(perPage))

	var repos []Repo
	if err := c.do(ctx, http.MethodGet, "/user/repos?"+q.Encode(), nil, &repos); err != nil {
		return nil, err
	}
	return repos, nil
}

// SearchIssues runs the combined issue/PR search with the given query in
// GitHub's native search syntax.
func (c *Client) SearchIssues(ctx context.Context, query string, perPage int) (*SearchResult, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("per_page", strconv.Itoa(perPage))

	var result SearchResult
	if err := c.do(ctx, http.MethodGet, "/search/issues?"+q.Encode(), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AddLabels adds labels to an issue (additive) and returns the resulting
// full label list.
func (c *Client) AddLabels(ctx context.Context, owner, repo string, number int, labels []string) ([]Label, error) {
	path := fmt.Sprintf("/repos/%s/%s/issues/%d/labels", url.PathEscape(owner), url.PathEscape(repo), number)
	body := map[string]any{"labels": labels}

	var result []Label
	if err := c.do(ctx, http.MethodPost, path, body, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateIssueState transitions an issue to the given state.
func (c *Client) UpdateIssueState(ctx context.Context, owner, repo string, number int, state string) (*Issue, error) {
	path := fmt.Sprintf("/repos/%s/%s/issues/%d", url.PathEscape(owner), url.PathEscape(repo), number)
	body := map[string]any{"state": state}

	var issue Issue
	if err := c.do(ctx, http.MethodPatch, path, body, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// GetPullRequest fetches PR metadata.
func (c *Client) GetPullRequest(ctx context.Context, owner, repo string, number int) (*PullRequest, error) {
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d", url.PathEscape(owner), url.PathEscape(repo), number)

	var pr PullRequest
	if err := c.do(ctx, http.MethodGet, path, nil, &pr); err != nil {
		return nil, err
	}
	return &pr, nil
}

// ListPullRequestFiles lists the first page of changed files in a PR.
func (c *Client) ListPullRequestFiles(ctx context.Context, owner, repo string, number, perPage int) ([]PullRequestFile, error) {
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d/files?per_page=%d",
		url.PathEscape(owner), url.PathEscape(repo), number, perPage)

	var files []PullRequestFile
	if err := c.do(ctx, http.MethodGet, path, nil, &files); err != nil {
		return nil, err
	}
	return files, nil
}

// do performs one request and decodes a JSON response into out.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "marshal request body")
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+path, reqBody)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "github request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var ghErr struct {
			Message string `json:"message"`
		}
		if json.NewDecoder(resp.Body).Decode(&ghErr) == nil {
			apiErr.Message = ghErr.Message
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}

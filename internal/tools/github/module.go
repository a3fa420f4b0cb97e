// Package github implements the GitHub triage tools: repository listing,
// issue/PR search, labeling, closing, and LLM-backed PR summarization.
package github

import (
	"context"
	"strings"

	"ghtriage/server/internal/config"
	"ghtriage/server/internal/tools"
	"ghtriage/server/pkg/geminiapi"
	"ghtriage/server/pkg/githubapi"
)

const (
	defaultReposPerPage  = 100
	defaultSearchPerPage = 20
)

// Module holds the external clients and registers the GitHub tools.
// gen is nil when no generative API key is configured; summarize_pr then
// degrades to a fixed notice instead of calling the model.
type Module struct {
	gh    *githubapi.Client
	gen   *geminiapi.Client
	model string
}

// New creates the module from startup configuration.
func New(cfg config.Config) *Module {
	m := &Module{
		gh:    githubapi.NewClient(cfg.GitHubToken),
		model: cfg.GeminiModel,
	}
	if cfg.GeminiAPIKey != "" {
		m.gen = geminiapi.NewClient(cfg.GeminiAPIKey)
	}
	return m
}

// RegisterTools registers every tool of this module on the gateway.
func (m *Module) RegisterTools(g *tools.Gateway) error {
	defs := []struct {
		tool    tools.Tool
		handler tools.Handler
	}{
		{listReposTool, m.listRepos},
		{searchIssuesTool, m.searchIssues},
		{labelIssueTool, m.labelIssue},
		{closeIssueTool, m.closeIssue},
		{summarizePRTool, m.summarizePR},
	}
	for _, d := range defs {
		if err := g.Register(d.tool, d.handler); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Tool Definitions
// =============================================================================
// The argument names below are the external contract; renaming one is a
// breaking change for every connected client.

var listReposTool = tools.Tool{
	Name:        "list_repos",
	Title:       "List repositories",
	Description: "List repositories owned by the authenticated user, most recently updated first.",
	Annotations: tools.AnnotateReadOnly,
	InputSchema: tools.InputSchema{
		Type: "object",
		Properties: map[string]tools.Property{
			"perPage": tools.Bounded("Results per page. Default: 100", 1, 100),
		},
	},
}

var searchIssuesTool = tools.Tool{
	Name:        "search_issues",
	Title:       "Search issues and pull requests",
	Description: "Search issues and pull requests using GitHub's search syntax (e.g. 'repo:owner/repo is:open label:bug').",
	Annotations: tools.AnnotateReadOnly,
	InputSchema: tools.InputSchema{
		Type: "object",
		Properties: map[string]tools.Property{
			"query":   {Type: "string", Description: "Search query in GitHub's native syntax"},
			"perPage": tools.Bounded("Results per page. Default: 20", 1, 100),
		},
		Required: []string{"query"},
	},
}

var labelIssueTool = tools.Tool{
	Name:        "label_issue",
	Title:       "Label an issue",
	Description: "Add labels to an issue. Existing labels are kept; the resulting full label list is returned.",
	Annotations: tools.AnnotateUpdate,
	InputSchema: tools.InputSchema{
		Type: "object",
		Properties: map[string]tools.Property{
			"owner":       {Type: "string", Description: "Repository owner"},
			"repo":        {Type: "string", Description: "Repository name"},
			"issueNumber": tools.Positive("Issue number"),
			"labels": {
				Type:        "array",
				Description: "Labels to add",
				Items:       &tools.Property{Type: "string"},
				MinItems:    intPtr(1),
			},
		},
		Required: []string{"owner", "repo", "issueNumber", "labels"},
	},
}

var closeIssueTool = tools.Tool{
	Name:        "close_issue",
	Title:       "Close an issue",
	Description: "Close an issue unconditionally.",
	Annotations: tools.AnnotateUpdate,
	InputSchema: tools.InputSchema{
		Type: "object",
		Properties: map[string]tools.Property{
			"owner":       {Type: "string", Description: "Repository owner"},
			"repo":        {Type: "string", Description: "Repository name"},
			"issueNumber": tools.Positive("Issue number"),
		},
		Required: []string{"owner", "repo", "issueNumber"},
	},
}

var summarizePRTool = tools.Tool{
	Name:        "summarize_pr",
	Title:       "Summarize a pull request",
	Description: "Summarize a pull request's intent, risks, breaking changes, and testing steps using a generative model.",
	Annotations: tools.AnnotateReadOnly,
	InputSchema: tools.InputSchema{
		Type: "object",
		Properties: map[string]tools.Property{
			"owner":    {Type: "string", Description: "Repository owner"},
			"repo":     {Type: "string", Description: "Repository name"},
			"prNumber": tools.Positive("Pull request number"),
		},
		Required: []string{"owner", "repo", "prNumber"},
	},
}

// =============================================================================
// Handlers
// =============================================================================

func (m *Module) listRepos(ctx context.Context, params map[string]any) (string, error) {
	perPage := defaultReposPerPage
	if pp, ok := params["perPage"].(float64); ok {
		perPage = int(pp)
	}

	repos, err := m.gh.ListAuthenticatedRepos(ctx, perPage)
	if err != nil {
		return "", err
	}

	projected := make([]map[string]any, 0, len(repos))
	for _, r := range repos {
		projected = append(projected, map[string]any{
			"name":           r.Name,
			"full_name":      r.FullName,
			"private":        r.Private,
			"html_url":       r.HTMLURL,
			"default_branch": r.DefaultBranch,
			"pushed_at":      r.PushedAt,
		})
	}
	return toJSON(projected)
}

func (m *Module) searchIssues(ctx context.Context, params map[string]any) (string, error) {
	query, _ := params["query"].(string)
	perPage := defaultSearchPerPage
	if pp, ok := params["perPage"].(float64); ok {
		perPage = int(pp)
	}

	result, err := m.gh.SearchIssues(ctx, query, perPage)
	if err != nil {
		return "", err
	}

	items := make([]map[string]any, 0, len(result.Items))
	for _, it := range result.Items {
		kind := "issue"
		if it.PullRequest != nil {
			kind = "pr"
		}
		items = append(items, map[string]any{
			"type":   kind,
			"repo":   repoFromURL(it.RepositoryURL),
			"number": it.Number,
			"title":  it.Title,
			"state":  it.State,
			"url":    it.HTMLURL,
			"labels": flattenLabels(it.Labels),
		})
	}
	return toJSON(map[string]any{
		"total_count": result.TotalCount,
		"items":       items,
	})
}

func (m *Module) labelIssue(ctx context.Context, params map[string]any) (string, error) {
	owner, _ := params["owner"].(string)
	repo, _ := params["repo"].(string)
	issueNumber, _ := params["issueNumber"].(float64)
	rawLabels, _ := params["labels"].([]interface{})

	labels, err := m.gh.AddLabels(ctx, owner, repo, int(issueNumber), toStringSlice(rawLabels))
	if err != nil {
		return "", err
	}

	names := make([]string, 0, len(labels))
	for _, l := range labels {
		names = append(names, l.Name)
	}
	return toJSON(names)
}

func (m *Module) closeIssue(ctx context.Context, params map[string]any) (string, error) {
	owner, _ := params["owner"].(string)
	repo, _ := params["repo"].(string)
	issueNumber, _ := params["issueNumber"].(float64)

	issue, err := m.gh.UpdateIssueState(ctx, owner, repo, int(issueNumber), "closed")
	if err != nil {
		return "", err
	}
	return toJSON(map[string]any{
		"number": issue.Number,
		"state":  issue.State,
	})
}

// =============================================================================
// Projection helpers
// =============================================================================

// repoFromURL extracts "owner/name" from an API repository URL, i.e. the
// path remainder after "/repos/".
func repoFromURL(repositoryURL string) string {
	const marker = "/repos/"
	idx := strings.Index(repositoryURL, marker)
	if idx < 0 {
		return ""
	}
	return repositoryURL[idx+len(marker):]
}

// flattenLabels extracts label names from a mixed list of plain strings and
// label objects, dropping empties.
func flattenLabels(labels []any) []string {
	names := make([]string, 0, len(labels))
	for _, l := range labels {
		switch v := l.(type) {
		case string:
			if v != "" {
				names = append(names, v)
			}
		case map[string]any:
			if name, ok := v["name"].(string); ok && name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}

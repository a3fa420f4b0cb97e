package github

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"

	"ghtriage/server/pkg/githubapi"
)

// maxChangedFiles caps the file list at the first page; PRs larger than this
// are summarized from a truncated view.
const maxChangedFiles = 50

// fallbackModels are tried in order after the configured model, once each.
var fallbackModels = [2]string{"gemini-2.0-flash", "gemini-2.0-flash-lite"}

const summaryUnavailableText = "PR summarization is unavailable: no generative API key is configured. " +
	"Set GEMINI_API_KEY to enable summarize_pr."

func (m *Module) summarizePR(ctx context.Context, params map[string]any) (string, error) {
	owner, _ := params["owner"].(string)
	repo, _ := params["repo"].(string)
	prNumber, _ := params["prNumber"].(float64)

	pr, err := m.gh.GetPullRequest(ctx, owner, repo, int(prNumber))
	if err != nil {
		return "", err
	}
	files, err := m.gh.ListPullRequestFiles(ctx, owner, repo, int(prNumber), maxChangedFiles)
	if err != nil {
		return "", err
	}

	prompt := buildSummaryPrompt(pr, files)

	if m.gen == nil {
		return summaryUnavailableText, nil
	}

	// Each candidate is attempted exactly once, in order, no delay between
	// attempts. First response wins.
	candidates := []string{m.model, fallbackModels[0], fallbackModels[1]}
	var lastErr error
	for _, model := range candidates {
		text, err := m.gen.GenerateText(ctx, model, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
	}
	return "", errors.Errorf("summarization failed after trying %s: %v. Set GEMINI_MODEL to an available model.",
		strings.Join(candidates, ", "), lastErr)
}

// buildSummaryPrompt renders the fixed-shape summarization prompt. The prompt
// is sent as constructed, however large the PR body is.
func buildSummaryPrompt(pr *githubapi.PullRequest, files []githubapi.PullRequestFile) string {
	body := pr.Body
	if body == "" {
		body = "(no description provided)"
	}
	if len(files) > maxChangedFiles {
		files = files[:maxChangedFiles]
	}

	var b strings.Builder
	b.WriteString("You are reviewing a GitHub pull request. Summarize it in 6-10 bullet points covering:\n")
	b.WriteString("- the intent of the change\n")
	b.WriteString("- risky areas\n")
	b.WriteString("- breaking changes\n")
	b.WriteString("- suggested testing steps\n\n")
	fmt.Fprintf(&b, "Title: %s\n\n", pr.Title)
	fmt.Fprintf(&b, "Description:\n%s\n\n", body)
	b.WriteString("Changed files:\n")
	for _, f := range files {
		fmt.Fprintf(&b, "%s (+%d/-%d)\n", f.Filename, f.Additions, f.Deletions)
	}
	return b.String()
}

package github

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ghtriage/server/pkg/geminiapi"
	"ghtriage/server/pkg/githubapi"
)

// newGenBackend starts a fake generative API. failing lists the models that
// answer 429; every other model returns its own name as the summary text so
// tests can tell which candidate produced the result.
func newGenBackend(t *testing.T, failing ...string) (*httptest.Server, *int) {
	t.Helper()
	var calls int

	failSet := make(map[string]bool, len(failing))
	for _, m := range failing {
		failSet[m] = true
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		// /models/{model}:generateContent
		model := strings.TrimPrefix(r.URL.Path, "/models/")
		model = strings.TrimSuffix(model, ":generateContent")
		if failSet[model] {
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprintf(w, `{"error":{"message":"quota exceeded for %s"}}`, model)
			return
		}
		fmt.Fprintf(w, `{"candidates":[{"content":{"parts":[{"text":"summary from %s"}]}}]}`, model)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func summarizeParams() map[string]any {
	return map[string]any{"owner": "octocat", "repo": "tooling", "prNumber": float64(42)}
}

func TestSummarizePRNoAPIKey(t *testing.T) {
	m, _ := newTestModule(t)
	genSrv, genCalls := newGenBackend(t)
	_ = genSrv // gen stays nil; the backend must never be reached

	out, err := m.summarizePR(context.Background(), summarizeParams())
	if err != nil {
		t.Fatalf("summarizePR: %v", err)
	}
	if out != summaryUnavailableText {
		t.Errorf("out = %q, want unavailable notice", out)
	}
	if *genCalls != 0 {
		t.Errorf("generative backend called %d times without a key", *genCalls)
	}
}

func TestSummarizePRFirstModelWins(t *testing.T) {
	m, _ := newTestModule(t)
	genSrv, genCalls := newGenBackend(t)
	m.gen = geminiapi.NewClientWithBaseURL(genSrv.URL, "k")

	out, err := m.summarizePR(context.Background(), summarizeParams())
	if err != nil {
		t.Fatalf("summarizePR: %v", err)
	}
	if out != "summary from "+m.model {
		t.Errorf("out = %q", out)
	}
	if *genCalls != 1 {
		t.Errorf("backend called %d times, want 1", *genCalls)
	}
}

func TestSummarizePRFallbackChain(t *testing.T) {
	m, _ := newTestModule(t)
	genSrv, genCalls := newGenBackend(t, m.model, fallbackModels[0])
	m.gen = geminiapi.NewClientWithBaseURL(genSrv.URL, "k")

	out, err := m.summarizePR(context.Background(), summarizeParams())
	if err != nil {
		t.Fatalf("summarizePR: %v", err)
	}
	if out != "summary from "+fallbackModels[1] {
		t.Errorf("out = %q, want summary from %s", out, fallbackModels[1])
	}
	if *genCalls != 3 {
		t.Errorf("backend called %d times, want 3", *genCalls)
	}
}

func TestSummarizePRAllModelsFail(t *testing.T) {
	m, _ := newTestModule(t)
	genSrv, genCalls := newGenBackend(t, m.model, fallbackModels[0], fallbackModels[1])
	m.gen = geminiapi.NewClientWithBaseURL(genSrv.URL, "k")

	_, err := m.summarizePR(context.Background(), summarizeParams())
	if err == nil {
		t.Fatal("expected error after exhausting all models")
	}
	if *genCalls != 3 {
		t.Errorf("backend called %d times, want 3 (one attempt per model)", *genCalls)
	}

	msg := err.Error()
	for _, model := range []string{m.model, fallbackModels[0], fallbackModels[1]} {
		if !strings.Contains(msg, model) {
			t.Errorf("error %q does not name attempted model %s", msg, model)
		}
	}
	if !strings.Contains(msg, "quota exceeded for "+fallbackModels[1]) {
		t.Errorf("error %q does not carry the last upstream error", msg)
	}
	if !strings.Contains(msg, "GEMINI_MODEL") {
		t.Errorf("error %q does not point at the model override", msg)
	}
}

func TestSummarizePRFetchErrorIsHard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Not Found"}`))
	}))
	t.Cleanup(srv.Close)

	m := &Module{gh: githubapi.NewClientWithBaseURL(srv.URL, "t"), model: "gemini-2.5-flash"}
	_, err := m.summarizePR(context.Background(), summarizeParams())
	if err == nil {
		t.Fatal("expected error when the PR fetch fails")
	}
	if !strings.Contains(err.Error(), "Not Found") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestBuildSummaryPrompt(t *testing.T) {
	pr := &githubapi.PullRequest{Number: 42, Title: "Fix the frobnicator", Body: "Rewires the frob pipeline."}
	files := []githubapi.PullRequestFile{
		{Filename: "frob/pipeline.go", Additions: 120, Deletions: 40},
		{Filename: "frob/pipeline_test.go", Additions: 80, Deletions: 2},
	}

	prompt := buildSummaryPrompt(pr, files)

	for _, want := range []string{
		"6-10 bullet points",
		"intent of the change",
		"risky areas",
		"breaking changes",
		"testing steps",
		"Title: Fix the frobnicator",
		"Rewires the frob pipeline.",
		"frob/pipeline.go (+120/-40)",
		"frob/pipeline_test.go (+80/-2)",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildSummaryPromptEmptyBody(t *testing.T) {
	pr := &githubapi.PullRequest{Number: 1, Title: "t"}
	prompt := buildSummaryPrompt(pr, nil)
	if !strings.Contains(prompt, "(no description provided)") {
		t.Error("empty body not replaced with placeholder")
	}
}

func TestBuildSummaryPromptCapsFiles(t *testing.T) {
	pr := &githubapi.PullRequest{Number: 1, Title: "big one", Body: "b"}
	files := make([]githubapi.PullRequestFile, maxChangedFiles+10)
	for i := range files {
		files[i] = githubapi.PullRequestFile{Filename: fmt.Sprintf("f%03d.go", i), Additions: 1}
	}

	prompt := buildSummaryPrompt(pr, files)
	if got := strings.Count(prompt, ".go (+"); got != maxChangedFiles {
		t.Errorf("prompt lists %d files, want %d", got, maxChangedFiles)
	}
	if strings.Contains(prompt, fmt.Sprintf("f%03d.go", maxChangedFiles)) {
		t.Error("file beyond the cap leaked into the prompt")
	}
}

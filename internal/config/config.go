// Package config loads process configuration once at startup.
// The resulting value is immutable and passed explicitly to constructors;
// nothing outside this package reads the environment for credentials.
package config

import "os"

// DefaultGeminiModel is used when GEMINI_MODEL is not set.
const DefaultGeminiModel = "gemini-2.5-flash"

// Config holds the startup configuration for the server.
type Config struct {
	// GitHubToken authenticates all GitHub REST calls. Required for the
	// GitHub-backed tools to function; the server still starts without it.
	GitHubToken string

	// GeminiAPIKey authenticates generateContent calls. Optional —
	// summarize_pr degrades to a fixed notice when absent.
	GeminiAPIKey string

	// GeminiModel is the first candidate in the summarization fallback
	// chain. Defaults to DefaultGeminiModel.
	GeminiModel string

	// Port for the HTTP listener.
	Port string
}

// FromEnv builds a Config from the process environment.
func FromEnv() Config {
	cfg := Config{
		GitHubToken:  os.Getenv("GITHUB_TOKEN"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  os.Getenv("GEMINI_MODEL"),
		Port:         os.Getenv("PORT"),
	}
	if cfg.GeminiModel == "" {
		cfg.GeminiModel = DefaultGeminiModel
	}
	if cfg.Port == "" {
		cfg.Port = "8089"
	}
	return cfg
}

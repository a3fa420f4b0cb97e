package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ghtriage/server/internal/config"
	"ghtriage/server/internal/mcp"
	"ghtriage/server/internal/middleware"
	"ghtriage/server/internal/observability"
	"ghtriage/server/internal/tools"
	"ghtriage/server/internal/tools/github"
)

func main() {
	observability.Init()

	cfg := config.FromEnv()
	if cfg.GitHubToken == "" {
		log.Printf("WARNING: GITHUB_TOKEN is not set; GitHub tools will fail upstream")
	}
	if cfg.GeminiAPIKey == "" {
		log.Printf("GEMINI_API_KEY not set; summarize_pr will report summarization as unavailable")
	}

	gateway := tools.NewGateway()
	if err := github.New(cfg).RegisterTools(gateway); err != nil {
		log.Fatalf("Failed to register tools: %v", err)
	}

	toolNames := make([]string, 0)
	for _, t := range gateway.Tools() {
		toolNames = append(toolNames, t.Name)
	}
	log.Printf("Registered tools: %v", toolNames)

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok","tools":%d}`, len(gateway.Tools()))
	})

	// MCP endpoint with recovery + request ID + rate limit + transport
	rateLimiter := middleware.NewRateLimiter(10)
	mcpHandler := mcp.NewHandler(gateway)
	mux.Handle("/v1/mcp", middleware.Recovery(middleware.RequestID(rateLimiter.Middleware(middleware.Transport(mcpHandler)))))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: mux,
	}

	go func() {
		log.Printf("Starting MCP server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Printf("Received signal %s, shutting down gracefully...", sig)

	// Give in-flight requests up to 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Printf("Server stopped")
}

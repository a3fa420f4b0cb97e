// Package geminiapi provides a minimal client for the Google Generative
// Language API. The only operation this server needs is text generation for
// a single prompt against a named model.
package geminiapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

const defaultServerURL = "https://generativelanguage.googleapis.com/v1beta"

// Client is a Generative Language API client authenticated by an API key.
type Client struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a client against the public API endpoint.
func NewClient(apiKey string) *Client {
	return NewClientWithBaseURL(defaultServerURL, apiKey)
}

// NewClientWithBaseURL creates a client against a custom base URL.
// Used by tests to point at a local backend.
func NewClientWithBaseURL(serverURL, apiKey string) *Client {
	return &Client{
		serverURL:  serverURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// APIError is a non-2xx response from the generative API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("gemini: %s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("gemini: unexpected status %d", e.StatusCode)
}

// generateRequest is the generateContent request body.
type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

// GenerateText sends the prompt to the named model and returns the text of
// the first candidate.
func (c *Client) GenerateText(ctx context.Context, model, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", errors.Wrap(err, "marshal request")
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.serverURL, url.PathEscape(model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "generate request")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errBody struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(data, &errBody) == nil {
			apiErr.Message = errBody.Error.Message
		}
		return "", apiErr
	}

	text, err := extractCandidateText(data)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", errors.Errorf("model %s returned no text", model)
	}
	return text, nil
}

// extractCandidateText pulls candidates[0].content.parts[*].text out of the
// generateContent response without modeling the full response type.
func extractCandidateText(data []byte) (string, error) {
	var out strings.Builder

	d := jx.DecodeBytes(data)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "candidates" {
			return d.Skip()
		}
		first := true
		return d.Arr(func(d *jx.Decoder) error {
			if !first {
				return d.Skip()
			}
			first = false
			return d.Obj(func(d *jx.Decoder, key string) error {
				if key != "content" {
					return d.Skip()
				}
				return d.Obj(func(d *jx.Decoder, key string) error {
					if key != "parts" {
						return d.Skip()
					}
					return d.Arr(func(d *jx.Decoder) error {
						return d.Obj(func(d *jx.Decoder, key string) error {
							if key != "text" {
								return d.Skip()
							}
							s, err := d.Str()
							if err != nil {
								return err
							}
							out.WriteString(s)
							return nil
						})
					})
				})
			})
		})
	})
	if err != nil {
		return "", errors.Wrap(err, "decode response")
	}
	return out.String(), nil
}

// Package genai implements the Splitter Driver's external analyzer
// using Google's Gemini API, following the client-construction and
// error-wrapping conventions this codebase's embedding engine uses for
// its own genai.Client, generalized from an embedding call to a
// structured code-to-connections completion call.
package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"

	"codenerd/internal/logging"
	"codenerd/internal/retry"
	splitterpkg "codenerd/internal/splitter"
)

// Splitter calls Gemini with the batch's snippets and the project
// description, asking for a JSON response matching §6's Splitter
// interface shape.
type Splitter struct {
	client *genai.Client
	model  string
}

// New creates a Gemini-backed Splitter. apiKey must be non-empty.
func New(apiKey, model string) (*Splitter, error) {
	timer := logging.StartTimer(logging.CategorySplitter, "genai.New")
	defer timer.Stop()

	if apiKey == "" {
		return nil, fmt.Errorf("genai splitter: API key is required")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}

	ctx := context.Background()
	start := time.Now()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	latency := time.Since(start)
	if err != nil {
		logging.Get(logging.CategorySplitter).Error("failed to create genai client after %v: %v", latency, err)
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	logging.Get(logging.CategorySplitter).Info("genai splitter client created in %v, model=%s", latency, model)

	return &Splitter{client: client, model: model}, nil
}

// wireResponse is the raw JSON shape requested from the model, mirroring
// §6's Splitter response; toDerivedConnection copies each entry into a
// graph.DerivedConnection.
type wireResponse struct {
	Connections []wireConnection `json:"connections"`
}

type wireConnection struct {
	SourceIndex    int    `json:"source_index"`
	Direction      string `json:"direction"`
	StartLine      int    `json:"start_line"`
	EndLine        int    `json:"end_line"`
	CodeSnippet    string `json:"code_snippet"`
	Description    string `json:"description"`
	TechnologyName string `json:"technology_name"`
}

func (s *Splitter) Split(ctx context.Context, req splitterpkg.Request) (splitterpkg.Response, error) {
	timer := logging.StartTimer(logging.CategorySplitter, "genai.Split")
	defer timer.Stop()

	prompt, err := buildPrompt(req)
	if err != nil {
		return splitterpkg.Response{}, fmt.Errorf("genai splitter: building prompt: %w", err)
	}

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	apiStart := time.Now()
	result, err := s.client.Models.GenerateContent(ctx, s.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	apiLatency := time.Since(apiStart)
	if err != nil {
		logging.Get(logging.CategorySplitter).Error("genai.Split: API call failed after %v: %v", apiLatency, err)
		wrapped := fmt.Errorf("genai split request failed: %w", err)
		if isTransient(err) {
			return splitterpkg.Response{}, &retry.Transient{Err: wrapped}
		}
		return splitterpkg.Response{}, wrapped
	}

	text := result.Text()
	var wire wireResponse
	if err := json.Unmarshal([]byte(text), &wire); err != nil {
		return splitterpkg.Response{}, fmt.Errorf("genai split: malformed JSON response: %w", err)
	}

	return toResponse(wire), nil
}

func toResponse(wire wireResponse) splitterpkg.Response {
	var resp splitterpkg.Response
	for _, c := range wire.Connections {
		resp.Connections = append(resp.Connections, toDerivedConnection(c))
	}
	return resp
}

// isTransient reports whether err is the kind of Gemini API failure
// §4.6/§7 calls out for retry with backoff: a deadline/cancellation, or
// an APIError carrying a rate-limit or server-unavailable status. Any
// other error (malformed request, auth failure, quota exhaustion) is
// permanent and aborts the run.
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 408, 429, 500, 502, 503, 504:
			return true
		}
	}
	return false
}

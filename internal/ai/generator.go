// Package ai provides the puzzle generator client. Responses from the model
// are untrusted input: they are validated into a strict Puzzle at this
// boundary before anything downstream sees them.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"kibi-puzzle/internal/config"
	"kibi-puzzle/internal/errs"
)

// Puzzle is a validated generator result. Solution is a single word.
type Puzzle struct {
	Question string `json:"question"`
	Solution string `json:"solution"`
	Hint     string `json:"hint"`
}

// Generator produces puzzle prose with a hidden solution.
type Generator interface {
	Generate(ctx context.Context) (Puzzle, error)
}

// defaultPrompt instructs the model to produce single-word crypto riddles
// as a JSON object with question/solution/hint keys.
const defaultPrompt = `You are a master puzzle crafter specializing in blockchain and cryptography concepts. Create an original, clever puzzle for crypto enthusiasts.

Rules:
- Reference a specific concept or term from cryptography or blockchain.
- The answer must be a single word (no spaces), factual and unambiguous.
- Vary topics: hashing, consensus, zero-knowledge proofs, signatures, wallets, DeFi, oracles, L2 scaling.

Output a valid JSON object with exactly these keys:
{"question": "...", "solution": "...", "hint": "..."}`

// Client calls a Gemini-style generateContent endpoint.
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	model      string
	prompt     string
}

// NewClient constructs a generator client from configuration.
// The per-call deadline comes from cfg.Timeout.
func NewClient(cfg *config.AIConfig) *Client {
	prompt := cfg.Prompt
	if prompt == "" {
		prompt = defaultPrompt
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "https://generativelanguage.googleapis.com/v1beta/models"
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		prompt:     prompt,
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Generate requests a fresh puzzle and validates the response shape.
// A deadline overrun surfaces as errs.ErrUpstreamTimeout; any malformed
// payload as errs.ErrInvalidPuzzleFormat.
func (c *Client) Generate(ctx context.Context) (Puzzle, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: c.prompt}}}},
	})
	if err != nil {
		return Puzzle{}, fmt.Errorf("failed to marshal generate request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent", c.endpoint, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Puzzle{}, fmt.Errorf("failed to build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return Puzzle{}, fmt.Errorf("puzzle generation: %w", errs.ErrUpstreamTimeout)
		}
		return Puzzle{}, fmt.Errorf("puzzle generation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Puzzle{}, fmt.Errorf("puzzle generation returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Puzzle{}, fmt.Errorf("failed to read generation response: %w", err)
	}

	var gr generateResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return Puzzle{}, fmt.Errorf("malformed generation envelope: %w", errs.ErrInvalidPuzzleFormat)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return Puzzle{}, fmt.Errorf("empty generation response: %w", errs.ErrInvalidPuzzleFormat)
	}

	return ParsePuzzle(gr.Candidates[0].Content.Parts[0].Text)
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

var codeFenceRe = regexp.MustCompile("(?i)^```(?:json)?\\s*|```$")

// ParsePuzzle parses model output into a Puzzle, stripping markdown code
// fences first. Rejects missing fields, non-string fields and multi-word
// solutions with errs.ErrInvalidPuzzleFormat.
func ParsePuzzle(text string) (Puzzle, error) {
	cleaned := codeFenceRe.ReplaceAllString(strings.TrimSpace(text), "")

	var p Puzzle
	if err := json.Unmarshal([]byte(cleaned), &p); err != nil {
		return Puzzle{}, fmt.Errorf("malformed puzzle json: %w", errs.ErrInvalidPuzzleFormat)
	}
	if p.Question == "" || p.Solution == "" || p.Hint == "" {
		return Puzzle{}, fmt.Errorf("puzzle has empty fields: %w", errs.ErrInvalidPuzzleFormat)
	}
	if strings.ContainsAny(p.Solution, " \t\n") {
		return Puzzle{}, fmt.Errorf("multi-word solution: %w", errs.ErrInvalidPuzzleFormat)
	}
	return p, nil
}

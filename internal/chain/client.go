// Package chain provides the on-chain collaborator client. The contract is
// the authoritative verifier of commitments; this package only relays calls
// and never decides correctness locally.
package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"kibi-puzzle/internal/config"
	"kibi-puzzle/internal/errs"
)

// Receipt is the result of a relayed transaction. Accepted=false means the
// contract rejected the call (for submissions: the answer did not match the
// on-chain commitment).
type Receipt struct {
	TxHash   string `json:"tx_hash"`
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

// Client is the contract call surface the services depend on.
type Client interface {
	// CreatePuzzle registers a puzzle commitment on chain.
	CreatePuzzle(ctx context.Context, puzzleID, commitment, difficulty string, rewardAmount int64) (Receipt, error)
	// SubmitSolution asks the contract to verify answerFelt+salt against its
	// stored commitment and pay out on success.
	SubmitSolution(ctx context.Context, puzzleID, answerFelt, salt string) (Receipt, error)
}

// HTTPClient relays contract calls through a transaction gateway.
type HTTPClient struct {
	httpClient *http.Client
	endpoint   string
}

// NewHTTPClient constructs a gateway client from configuration.
func NewHTTPClient(cfg *config.ChainConfig) *HTTPClient {
	return &HTTPClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
	}
}

type createPuzzleRequest struct {
	PuzzleID     string `json:"puzzle_id"`
	Commitment   string `json:"commitment"`
	Difficulty   string `json:"difficulty"`
	RewardAmount int64  `json:"reward_amount"`
}

type submitSolutionRequest struct {
	PuzzleID string `json:"puzzle_id"`
	Answer   string `json:"answer"`
	Salt     string `json:"salt"`
}

// CreatePuzzle registers the commitment with the contract.
func (c *HTTPClient) CreatePuzzle(ctx context.Context, puzzleID, commitment, difficulty string, rewardAmount int64) (Receipt, error) {
	return c.post(ctx, "/puzzles/create", createPuzzleRequest{
		PuzzleID:     puzzleID,
		Commitment:   commitment,
		Difficulty:   difficulty,
		RewardAmount: rewardAmount,
	})
}

// SubmitSolution relays a solution attempt to the contract.
func (c *HTTPClient) SubmitSolution(ctx context.Context, puzzleID, answerFelt, salt string) (Receipt, error) {
	return c.post(ctx, "/puzzles/submit", submitSolutionRequest{
		PuzzleID: puzzleID,
		Answer:   answerFelt,
		Salt:     salt,
	})
}

func (c *HTTPClient) post(ctx context.Context, path string, payload any) (Receipt, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to marshal chain request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to build chain request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return Receipt{}, fmt.Errorf("chain call %s: %w", path, errs.ErrUpstreamTimeout)
		}
		return Receipt{}, fmt.Errorf("chain call %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to read chain response: %w", err)
	}

	// 422 carries a well-formed rejection receipt; other non-200s are faults.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusUnprocessableEntity {
		return Receipt{}, fmt.Errorf("chain gateway returned status %d", resp.StatusCode)
	}

	var receipt Receipt
	if err := json.Unmarshal(raw, &receipt); err != nil {
		return Receipt{}, fmt.Errorf("malformed chain receipt: %w", err)
	}

	return receipt, nil
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

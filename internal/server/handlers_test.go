package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kibi-puzzle/internal/config"
	"kibi-puzzle/internal/errs"
)

func TestWriteErrorStatusMapping(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
	}{
		{errs.ErrNotFound, http.StatusNotFound},
		{errs.ErrDuplicateID, http.StatusConflict},
		{errs.ErrAlreadyExists, http.StatusConflict},
		{errs.ErrAlreadySolved, http.StatusConflict},
		{errs.ErrStoreConflict, http.StatusConflict},
		{errs.ErrWrongAnswer, http.StatusUnprocessableEntity},
		{errs.ErrEncoding, http.StatusBadRequest},
		{errs.ErrInvalidPuzzleFormat, http.StatusBadRequest},
		{errs.ErrUpstreamTimeout, http.StatusGatewayTimeout},
		{assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			// Wrapped errors map the same as bare sentinels.
			writeError(rec, fmt.Errorf("context: %w", tt.err))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestWriteErrorHidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, fmt.Errorf("connection to 10.0.0.3:5432 refused"))

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "internal error", resp.Error)
}

func testHandler(t *testing.T) http.Handler {
	t.Helper()
	s := New(nil, nil, nil, nil, nil)
	return s.Handler(&config.ServerConfig{
		SubmitRPS:      100,
		SubmitBurst:    100,
		AllowedOrigins: []string{"*"},
	})
}

func TestHandleRank(t *testing.T) {
	h := testHandler(t)

	tests := []struct {
		solves     string
		wantStatus int
		wantTier   string
	}{
		{"0", http.StatusOK, "Beginner"},
		{"25", http.StatusOK, "Advanced"},
		{"100", http.StatusOK, "Master"},
		{"-1", http.StatusBadRequest, ""},
		{"abc", http.StatusBadRequest, ""},
		{"", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run("solves="+tt.solves, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/rank?solves="+tt.solves, nil)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantTier == "" {
				return
			}
			var resp struct {
				Rank struct {
					Tier struct {
						Name string `json:"name"`
					} `json:"tier"`
				} `json:"rank"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantTier, resp.Rank.Tier.Name)
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	mw := rateLimitMiddleware(1, 2)
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/submit", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// A different client has its own bucket.
	req := httptest.NewRequest(http.MethodPost, "/submit", nil)
	req.RemoteAddr = "192.0.2.2:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

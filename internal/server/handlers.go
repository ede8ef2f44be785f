package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"kibi-puzzle/internal/errs"
	"kibi-puzzle/internal/rank"
	"kibi-puzzle/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps the sentinel taxonomy onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errs.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errs.ErrDuplicateID), errors.Is(err, errs.ErrAlreadyExists),
		errors.Is(err, errs.ErrAlreadySolved), errors.Is(err, errs.ErrStoreConflict):
		status = http.StatusConflict
	case errors.Is(err, errs.ErrWrongAnswer):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, errs.ErrEncoding), errors.Is(err, errs.ErrInvalidPuzzleFormat):
		status = http.StatusBadRequest
	case errors.Is(err, errs.ErrUpstreamTimeout):
		status = http.StatusGatewayTimeout
	}

	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
		writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

type registerRequest struct {
	Address  string `json:"address"`
	Username string `json:"username"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json body"})
		return
	}

	user, err := s.accounts.Register(r.Context(), req.Address, req.Username)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"user": user})
}

type userResponse struct {
	Address  string        `json:"address"`
	Username string        `json:"username"`
	Solves   int           `json:"solves"`
	Rank     rank.Progress `json:"rank"`
}

// handleGetUser resolves the path key as an address first, then as a
// username.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.accounts.Find(r.Context(), mux.Vars(r)["address"])
	if err != nil {
		writeError(w, err)
		return
	}
	solves, progress, err := s.accounts.Progress(r.Context(), user.Address)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, userResponse{
		Address:  user.Address,
		Username: user.Username,
		Solves:   solves,
		Rank:     progress,
	})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.accounts.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

type createPuzzleRequest struct {
	PuzzleID     string `json:"puzzleId"`
	Creator      string `json:"creator"`
	Question     string `json:"question"`
	Hint         string `json:"hint"`
	Answer       string `json:"answer"`
	Difficulty   string `json:"difficulty"`
	RewardAmount int64  `json:"rewardAmount"`
}

func (s *Server) handleCreatePuzzle(w http.ResponseWriter, r *http.Request) {
	var req createPuzzleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json body"})
		return
	}

	puzzle, err := s.puzzles.Create(r.Context(), service.CreatePuzzleInput{
		PuzzleID:     req.PuzzleID,
		Creator:      req.Creator,
		Question:     req.Question,
		Hint:         req.Hint,
		Answer:       req.Answer,
		Difficulty:   req.Difficulty,
		RewardAmount: req.RewardAmount,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"puzzle": puzzle})
}

func (s *Server) handleListPuzzles(w http.ResponseWriter, r *http.Request) {
	puzzles, err := s.puzzles.ListAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"puzzles": puzzles})
}

func (s *Server) handleListUnsolved(w http.ResponseWriter, r *http.Request) {
	puzzles, err := s.puzzles.ListUnsolved(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"puzzles": puzzles})
}

func (s *Server) handleGetPuzzle(w http.ResponseWriter, r *http.Request) {
	puzzle, err := s.puzzles.GetByID(r.Context(), mux.Vars(r)["puzzleId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"puzzle": puzzle})
}

func (s *Server) handleDailyPuzzle(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	if address == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "address query parameter is required"})
		return
	}

	daily, err := s.daily.GetOrCreate(r.Context(), address)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"puzzle": daily})
}

func (s *Server) handleDailyHistory(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	if address == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "address query parameter is required"})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	history, err := s.daily.History(r.Context(), address, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"puzzles": history})
}

// handleRank is a pure read: solve count in, tier and progress out.
func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	solves, err := strconv.Atoi(r.URL.Query().Get("solves"))
	if err != nil || solves < 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "solves must be a non-negative integer"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rank": rank.RankOf(solves)})
}

type submitRequest struct {
	Address string `json:"address"`
	Answer  string `json:"answer"`
	Salt    string `json:"salt,omitempty"`
}

type submitResponse struct {
	Status  service.SubmitStatus `json:"status"`
	TxHash  string               `json:"txHash,omitempty"`
	Solver  string               `json:"solver,omitempty"`
	Rewards int64                `json:"rewards,omitempty"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json body"})
		return
	}

	result, err := s.submit.Submit(r.Context(), mux.Vars(r)["puzzleId"], req.Address, req.Answer, req.Salt)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{
		Status:  result.Status,
		TxHash:  result.TxHash,
		Solver:  result.Solver,
		Rewards: result.Rewards,
	})
}

func (s *Server) handleSubmitDaily(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json body"})
		return
	}

	result, err := s.submit.SubmitDaily(r.Context(), req.Address, req.Answer)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{
		Status: result.Status,
		TxHash: result.TxHash,
		Solver: result.Solver,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.pool.HealthCheck(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "database unreachable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

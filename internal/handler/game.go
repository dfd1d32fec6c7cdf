package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/efreitasn/makeamarket/internal/domain"
	"github.com/efreitasn/makeamarket/internal/service"
)

// GameHandler handles HTTP requests for game endpoints.
type GameHandler struct {
	gameSvc *service.GameService
}

// NewGameHandler creates a new GameHandler.
func NewGameHandler(gameSvc *service.GameService) *GameHandler {
	return &GameHandler{gameSvc: gameSvc}
}

// Create handles POST /games.
func (h *GameHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := ParseOptionalJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	game, err := h.gameSvc.CreateGame(service.CreateGameRequest{
		Opponents: req.Opponents,
		Rounds:    req.Rounds,
		HardMode:  req.HardMode,
	})
	if err != nil {
		mapGameError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toGame(game))
}

// Get handles GET /games/{game_id}.
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	game, err := h.gameSvc.GetGame(chi.URLParam(r, "game_id"))
	if err != nil {
		mapGameError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toGame(game))
}

// SubmitQuote handles POST /games/{game_id}/rounds. A quote that does not
// parse still plays the round and comes back with quoted=false.
func (h *GameHandler) SubmitQuote(w http.ResponseWriter, r *http.Request) {
	var req submitQuoteRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	round, err := h.gameSvc.SubmitQuote(chi.URLParam(r, "game_id"), req.Quote)
	if err != nil {
		mapGameError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toRound(round))
}

// Settle handles POST /games/{game_id}/settlement.
func (h *GameHandler) Settle(w http.ResponseWriter, r *http.Request) {
	settlement, err := h.gameSvc.Settle(chi.URLParam(r, "game_id"))
	if err != nil {
		mapGameError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toSettlementView(settlement))
}

// Trades handles GET /games/{game_id}/trades. An optional round query
// parameter limits the list to one round.
func (h *GameHandler) Trades(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "game_id")

	var (
		trades []*domain.Trade
		err    error
	)
	if rs := r.URL.Query().Get("round"); rs != "" {
		round, perr := strconv.Atoi(rs)
		if perr != nil || round < 1 {
			WriteError(w, http.StatusBadRequest, "validation_error", "round must be a positive integer")
			return
		}
		trades, err = h.gameSvc.RoundTrades(gameID, round)
	} else {
		trades, err = h.gameSvc.History(gameID)
	}
	if err != nil {
		mapGameError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, tradeListResponse{GameID: gameID, Trades: toTrades(trades)})
}

// Leaderboard handles GET /leaderboard.
func (h *GameHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		var err error
		limit, err = strconv.Atoi(l)
		if err != nil || limit < 1 {
			WriteError(w, http.StatusBadRequest, "validation_error", "limit must be a positive integer")
			return
		}
	}

	entries, err := h.gameSvc.Leaderboard(limit)
	if err != nil {
		mapGameError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toLeaderboard(entries))
}

// mapGameError maps service/domain errors to HTTP error responses.
func mapGameError(w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		WriteError(w, http.StatusBadRequest, "validation_error", ve.Message)
	case errors.Is(err, domain.ErrGameNotFound):
		WriteError(w, http.StatusNotFound, "game_not_found", "Game not found")
	case errors.Is(err, domain.ErrGameOver):
		WriteError(w, http.StatusConflict, "game_over", "Every round has been played")
	case errors.Is(err, domain.ErrRoundsRemaining):
		WriteError(w, http.StatusConflict, "rounds_remaining", "The game can only be settled after its last round")
	case errors.Is(err, domain.ErrAlreadySettled):
		WriteError(w, http.StatusConflict, "already_settled", "The game has already been settled")
	case errors.Is(err, domain.ErrInvalidDecision):
		WriteError(w, http.StatusInternalServerError, "invalid_decision", "An opponent returned an invalid decision")
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

package handler

import (
	"github.com/efreitasn/makeamarket/internal/domain"
	"github.com/efreitasn/makeamarket/internal/engine"
	"github.com/efreitasn/makeamarket/internal/service"
	"github.com/efreitasn/makeamarket/internal/store"
)

// createGameRequest is the optional JSON body for POST /games.
type createGameRequest struct {
	Opponents *int  `json:"opponents"`
	Rounds    *int  `json:"rounds"`
	HardMode  *bool `json:"hard_mode"`
}

// submitQuoteRequest is the JSON body for POST /games/{game_id}/rounds.
type submitQuoteRequest struct {
	Quote string `json:"quote"`
}

type valueRangeResponse struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

type balanceResponse struct {
	Cash        int64   `json:"cash"`
	Inventory   int64   `json:"inventory"`
	RealizedPnL int64   `json:"realized_pnl"`
	AverageCost float64 `json:"average_cost"`
}

// positionResponse is null-valued where the maker may not look yet.
type positionResponse struct {
	ParticipantID string           `json:"participant_id"`
	HiddenValue   *int64           `json:"hidden_value"`
	Position      *balanceResponse `json:"position"`
}

type quoteResponse struct {
	Bid    int64 `json:"bid"`
	Ask    int64 `json:"ask"`
	Spread int64 `json:"spread"`
}

type resultResponse struct {
	OpponentID string `json:"opponent_id"`
	Decision   string `json:"decision"`
	Label      string `json:"label"`
	Price      *int64 `json:"price"`
}

type tradeResponse struct {
	TradeID       string `json:"trade_id"`
	ParticipantID string `json:"participant_id"`
	Counterparty  string `json:"counterparty"`
	Price         int64  `json:"price"`
	Quantity      int64  `json:"quantity"`
	Notional      int64  `json:"notional"`
	Round         int    `json:"round"`
	ExecutedAt    string `json:"executed_at"`
}

type revealResponse struct {
	ParticipantID string `json:"participant_id"`
	HiddenValue   int64  `json:"hidden_value"`
}

type settlementResponse struct {
	GameID     string           `json:"game_id,omitempty"`
	FairValue  int64            `json:"fair_value"`
	Inventory  int64            `json:"inventory"`
	Liquidated bool             `json:"liquidated"`
	PnL        int64            `json:"pnl"`
	Reveals    []revealResponse `json:"reveals"`
	Rank       int              `json:"rank,omitempty"`
}

// gameResponse is the JSON response for POST /games and GET /games/{game_id}.
type gameResponse struct {
	GameID          string              `json:"game_id"`
	CreatedAt       string              `json:"created_at"`
	HardMode        bool                `json:"hard_mode"`
	Strategy        string              `json:"strategy"`
	Values          valueRangeResponse  `json:"value_range"`
	Rounds          int                 `json:"rounds"`
	RoundsPlayed    int                 `json:"rounds_played"`
	RoundsRemaining int                 `json:"rounds_remaining"`
	Maker           positionResponse    `json:"maker"`
	Opponents       []positionResponse  `json:"opponents"`
	Settlement      *settlementResponse `json:"settlement"`
}

// roundResponse is the JSON response for POST /games/{game_id}/rounds.
type roundResponse struct {
	GameID          string             `json:"game_id"`
	Round           int                `json:"round"`
	Quoted          bool               `json:"quoted"`
	Quote           *quoteResponse     `json:"quote"`
	Results         []resultResponse   `json:"results"`
	Trades          []tradeResponse    `json:"trades"`
	RoundsRemaining int                `json:"rounds_remaining"`
	Maker           positionResponse   `json:"maker"`
	Opponents       []positionResponse `json:"opponents"`
}

type leaderboardEntryResponse struct {
	Rank      int    `json:"rank"`
	GameID    string `json:"game_id"`
	PnL       int64  `json:"pnl"`
	Rounds    int    `json:"rounds"`
	SettledAt string `json:"settled_at"`
}

type leaderboardResponse struct {
	Entries []leaderboardEntryResponse `json:"entries"`
}

type tradeListResponse struct {
	GameID string          `json:"game_id"`
	Trades []tradeResponse `json:"trades"`
}

func toPosition(v service.PositionView) positionResponse {
	resp := positionResponse{
		ParticipantID: v.ParticipantID,
		HiddenValue:   v.HiddenValue,
	}
	if v.Balance != nil {
		resp.Position = &balanceResponse{
			Cash:        v.Balance.Cash,
			Inventory:   v.Balance.Inventory,
			RealizedPnL: v.Balance.RealizedPnL,
			AverageCost: v.Balance.AverageCost(),
		}
	}
	return resp
}

func toPositions(vs []service.PositionView) []positionResponse {
	resp := make([]positionResponse, len(vs))
	for i, v := range vs {
		resp[i] = toPosition(v)
	}
	return resp
}

func toTrades(trades []*domain.Trade) []tradeResponse {
	resp := make([]tradeResponse, len(trades))
	for i, t := range trades {
		resp[i] = tradeResponse{
			TradeID:       t.TradeID,
			ParticipantID: t.ParticipantID,
			Counterparty:  t.Counterparty,
			Price:         t.Price,
			Quantity:      t.Quantity,
			Notional:      t.Notional(),
			Round:         t.Round,
			ExecutedAt:    formatTime(t.ExecutedAt),
		}
	}
	return resp
}

func toSettlement(s *engine.Settlement) *settlementResponse {
	if s == nil {
		return nil
	}
	reveals := make([]revealResponse, len(s.Reveals))
	for i, r := range s.Reveals {
		reveals[i] = revealResponse{ParticipantID: r.ParticipantID, HiddenValue: r.HiddenValue}
	}
	return &settlementResponse{
		FairValue:  s.FairValue,
		Inventory:  s.Inventory,
		Liquidated: s.Liquidated,
		PnL:        s.PnL,
		Reveals:    reveals,
	}
}

func toGame(v *service.GameView) gameResponse {
	return gameResponse{
		GameID:          v.GameID,
		CreatedAt:       formatTime(v.CreatedAt),
		HardMode:        v.HardMode,
		Strategy:        v.Strategy,
		Values:          valueRangeResponse{Min: v.Values.Min, Max: v.Values.Max},
		Rounds:          v.Rounds,
		RoundsPlayed:    v.RoundsPlayed,
		RoundsRemaining: v.RoundsRemaining,
		Maker:           toPosition(v.Maker),
		Opponents:       toPositions(v.Opponents),
		Settlement:      toSettlement(v.Settlement),
	}
}

func toRound(v *service.RoundView) roundResponse {
	r := v.Round
	resp := roundResponse{
		GameID:          v.GameID,
		Round:           r.Index,
		Quoted:          r.Quoted,
		Results:         make([]resultResponse, len(r.Results)),
		Trades:          toTrades(r.Trades),
		RoundsRemaining: v.RoundsRemaining,
		Maker:           toPosition(v.Maker),
		Opponents:       toPositions(v.Opponents),
	}
	if r.Quoted {
		resp.Quote = &quoteResponse{Bid: r.Quote.Bid, Ask: r.Quote.Ask, Spread: r.Quote.Spread()}
	}
	for i, res := range r.Results {
		resp.Results[i] = resultResponse{
			OpponentID: res.OpponentID,
			Decision:   res.Decision.String(),
			Label:      res.Decision.Label(),
			Price:      res.Price,
		}
	}
	return resp
}

func toSettlementView(v *service.SettlementView) *settlementResponse {
	resp := toSettlement(v.Settlement)
	resp.GameID = v.GameID
	resp.Rank = v.Rank
	return resp
}

func toLeaderboard(entries []store.LeaderboardEntry) leaderboardResponse {
	resp := leaderboardResponse{Entries: make([]leaderboardEntryResponse, len(entries))}
	for i, e := range entries {
		resp.Entries[i] = leaderboardEntryResponse{
			Rank:      i + 1,
			GameID:    e.GameID,
			PnL:       e.PnL,
			Rounds:    e.Rounds,
			SettledAt: formatTime(e.SettledAt),
		}
	}
	return resp
}

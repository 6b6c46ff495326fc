package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

type lobby interface {
	DiscoverRooms() []entity.RoomSummary
	RoomCount() int
}

type statsReader interface {
	Get(ctx context.Context) (*entity.Stats, error)
}

type onlineCounter interface {
	ConnectionCount() int
}

// StatsResponse - body of GET /stats.
type StatsResponse struct {
	Online        int   `json:"online"`
	Rooms         int   `json:"rooms"`
	RoomsCreated  int64 `json:"roomsCreated"`
	GamesStarted  int64 `json:"gamesStarted"`
	GamesFinished int64 `json:"gamesFinished"`
	Draws         int64 `json:"draws"`
	Forfeits      int64 `json:"forfeits"`
}

type LobbyHandler struct {
	logger *slog.Logger
	lobby  lobby
	stats  statsReader
	online onlineCounter
}

func NewLobbyHandler(logger *slog.Logger, lobby lobby, stats statsReader, online onlineCounter) *LobbyHandler {
	return &LobbyHandler{
		logger: logger.With("component", "lobby-handler"),
		lobby:  lobby,
		stats:  stats,
		online: online,
	}
}

// Rooms - lists public rooms waiting for a second player.
func (that *LobbyHandler) Rooms(w http.ResponseWriter, _ *http.Request) {
	rooms := that.lobby.DiscoverRooms()
	if rooms == nil {
		rooms = []entity.RoomSummary{}
	}

	that.writeJSON(w, http.StatusOK, rooms)
}

// Stats - live counters together with the persisted match statistics.
func (that *LobbyHandler) Stats(w http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "Stats")

	stats, err := that.stats.Get(req.Context())
	if err != nil {
		log.Error("failed to get stats", "error", err)
		that.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "stats unavailable"})
		return
	}

	that.writeJSON(w, http.StatusOK, StatsResponse{
		Online:        that.online.ConnectionCount(),
		Rooms:         that.lobby.RoomCount(),
		RoomsCreated:  stats.RoomsCreated,
		GamesStarted:  stats.GamesStarted,
		GamesFinished: stats.GamesFinished,
		Draws:         stats.Draws,
		Forfeits:      stats.Forfeits,
	})
}

func (that *LobbyHandler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to write response", "error", err)
	}
}

package entity

// Counter names of match statistics.
const (
	CounterRoomsCreated  = "rooms_created"
	CounterGamesStarted  = "games_started"
	CounterGamesFinished = "games_finished"
	CounterDraws         = "draws"
	CounterForfeits      = "forfeits"
)

type Stats struct {
	RoomsCreated  int64 `json:"roomsCreated"`
	GamesStarted  int64 `json:"gamesStarted"`
	GamesFinished int64 `json:"gamesFinished"`
	Draws         int64 `json:"draws"`
	Forfeits      int64 `json:"forfeits"`
}

// Set - assigns a counter by name, unknown names are ignored.
func (that *Stats) Set(counter string, value int64) {
	switch counter {
	case CounterRoomsCreated:
		that.RoomsCreated = value
	case CounterGamesStarted:
		that.GamesStarted = value
	case CounterGamesFinished:
		that.GamesFinished = value
	case CounterDraws:
		that.Draws = value
	case CounterForfeits:
		that.Forfeits = value
	}
}

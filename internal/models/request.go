// internal/models/request.go
package models

// Request names understood by the role endpoints.
const (
	RequestConnect               = "connect"
	RequestBuzz                  = "buzz"
	RequestResponse              = "response"
	RequestWager                 = "wager"
	RequestReveal                = "reveal"
	RequestCorrect               = "correct"
	RequestResponded             = "responded"
	RequestOpen                  = "open"
	RequestClose                 = "close"
	RequestPlayer                = "player"
	RequestNextRound             = "next_round"
	RequestBoard                 = "board"
	RequestRemove                = "remove"
	RequestSetPlayerBalance      = "set_player_balance"
	RequestRandomizeActivePlayer = "randomize_active_player"
	RequestContinue              = "continue"
)

// BaseRequest is the envelope every inbound message carries.
type BaseRequest struct {
	Request string `json:"request"`
}

// ConnectRequest is the first message on a player socket.
type ConnectRequest struct {
	Request  string  `json:"request"`
	Name     string  `json:"name"`
	Password *string `json:"password,omitempty"`
}

type WagerRequest struct {
	Request string `json:"request"`
	Amount  int    `json:"amount"`
}

type ResponseRequest struct {
	Request  string `json:"request"`
	Response string `json:"response"`
}

// RevealRequest addresses a clue: Col is the category, Row the clue within it.
type RevealRequest struct {
	Request string `json:"request"`
	Row     int    `json:"row"`
	Col     int    `json:"col"`
}

type CorrectRequest struct {
	Request string `json:"request"`
	Correct bool   `json:"correct"`
}

// PlayerRequest targets a player by name (host "player", board "remove").
type PlayerRequest struct {
	Request string `json:"request"`
	Player  string `json:"player"`
}

type PlayerBalanceRequest struct {
	Request string `json:"request"`
	Player  string `json:"player"`
	Amount  int    `json:"amount"`
}

package models

// Outbound message tags.
const (
	MessageState         = "state"
	MessageCategories    = "categories"
	MessageInputResponse = "input-response"
)

// CategoriesMessage lists the category headers of the current round.
type CategoriesMessage struct {
	Message    string   `json:"message"`
	Categories []string `json:"categories"`
}

// InputResponse tells a player whether their wager or final response was accepted.
type InputResponse struct {
	Message string `json:"message"`
	Valid   bool   `json:"valid"`
	Reason  string `json:"reason"`
}

// NewInputResponse builds an input-response message.
func NewInputResponse(valid bool, reason string) InputResponse {
	return InputResponse{Message: MessageInputResponse, Valid: valid, Reason: reason}
}

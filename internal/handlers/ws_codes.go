// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes used within the role handlers.
// These provide more specific reasons for closure than standard codes.
const (
	InvalidLobbyIDError = 3003 // Target lobby ID specified in the WS URL does not exist or has ended.
	RoleTakenError      = 3004 // A board or host is already connected to the lobby.
	NameTakenError      = 3005 // A player with that name is already online.
	InvalidRequestError = 3006 // Inbound message could not be decoded.
	InvalidNameError    = 3007 // Connect message carried an empty player name.
)

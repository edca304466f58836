package game

import "errors"

// Player-facing failures of the lifecycle operations. Each one is delivered
// as an error frame on the offending connection only; none of them ever
// interrupts a running tick loop for other participants.
var (
	ErrNotFound            = errors.New("room not found")
	ErrRoomFull            = errors.New("room full")
	ErrNotOwner            = errors.New("only the room owner can start the match")
	ErrInvalidState        = errors.New("match is not waiting to start")
	ErrInsufficientPlayers = errors.New("not enough players to start")
	ErrAllocation          = errors.New("room code space exhausted")
	ErrUnknownMatchType    = errors.New("unknown match type")
)

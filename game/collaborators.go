package game

// Identity is the display snapshot the realtime layer carries for a
// connection or a player. It is captured once (at bind/join time) and never
// refreshed for the lifetime of the session.
type Identity struct {
	UserID   int64  `json:"id"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
}

// IdentityResolver looks up display identity for a user id. Implemented by
// the user service; the core never writes through it.
type IdentityResolver interface {
	ResolveIdentity(userID int64) (Identity, error)
}

// MatchStore is the persistence collaborator of the lifecycle manager. All
// writes happen off the tick loop; a failed write is logged and the match
// record is left for the reconciler to catch up with.
type MatchStore interface {
	CodeInUse(code string) (bool, error)
	CreateMatchRecord(code, matchType string, ownerID int64) error
	UpdateMatchStatus(code, status string) error
	CreateScoreRecord(userID int64, score int, matchType string) error
}

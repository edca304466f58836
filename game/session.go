package game

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"
	"strconv"
	"sync"
	"time"
)

// Grid dimensions and tick cadence are part of the wire contract: any
// client-side prediction must match these exactly.
const (
	GridW        = 40
	GridH        = 30
	TickInterval = 200 * time.Millisecond
	FoodCount    = 3

	WinningScore    = 100
	PvEScoreCap     = 200
	FoodScore       = 10
	PvEStartScore   = 100
	CountdownFrom   = 3
	TeamSizeLimit   = 3
	MaxCodeAttempts = 1000
)

const (
	MatchTypeDuel = "1v1"
	MatchTypeTeam = "3v3"
	MatchTypePvE  = "pve"
)

const (
	StatusWaiting  = "waiting"
	StatusPlaying  = "playing"
	StatusFinished = "finished"
)

// AIParticipantID is the sentinel participant id of the synthetic opponent.
const AIParticipantID int64 = -1

// countdownInterval is the gap between countdown frames.
var countdownInterval = time.Second

// ValidMatchType reports whether t names a playable mode.
func ValidMatchType(t string) bool {
	return t == MatchTypeDuel || t == MatchTypeTeam || t == MatchTypePvE
}

func maxHumans(matchType string) int {
	switch matchType {
	case MatchTypeTeam:
		return 6
	case MatchTypePvE:
		return 1
	default:
		return 2
	}
}

func minHumans(matchType string) int {
	switch matchType {
	case MatchTypeTeam:
		return 6
	case MatchTypePvE:
		return 1
	default:
		return 2
	}
}

// Cell is one grid coordinate.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Player is the authoritative per-participant state. Head position is
// tracked separately from the body list; Body[0] is the segment right
// behind the head. Client is nil for the AI.
type Player struct {
	ID       int64
	X, Y     int
	Heading  Heading
	Body     []Cell
	Score    int
	Team     int
	Alive    bool
	Nickname string
	Avatar   string
	Client   *Client
}

// Session holds the authoritative world state of one match and owns its
// simulation loop. All field access goes through mu; the loop acquires it
// once per tick for a consistent read-modify-write, input handlers acquire
// it briefly to apply a single update.
type Session struct {
	code      string
	matchType string
	ownerID   int64
	dir       *Directory
	hub       *Hub
	store     MatchStore

	mu       sync.Mutex
	status   string
	starting bool
	players  map[int64]*Player
	food     []Cell
	cancel   context.CancelFunc
}

func newSession(code, matchType string, ownerID int64, dir *Directory, hub *Hub, store MatchStore) *Session {
	return &Session{
		code:      code,
		matchType: matchType,
		ownerID:   ownerID,
		dir:       dir,
		hub:       hub,
		store:     store,
		status:    StatusWaiting,
		players:   make(map[int64]*Player),
		food:      make([]Cell, 0, FoodCount),
	}
}

func (s *Session) Code() string      { return s.code }
func (s *Session) MatchType() string { return s.matchType }
func (s *Session) OwnerID() int64    { return s.ownerID }

// Status returns the current lifecycle phase.
func (s *Session) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// HumanCount returns the number of human participants.
func (s *Session) HumanCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.humanCountLocked()
}

func (s *Session) humanCountLocked() int {
	n := 0
	for id := range s.players {
		if id != AIParticipantID {
			n++
		}
	}
	return n
}

// spawnCoord picks a uniform random coordinate inside the spawn margin.
func spawnCoord() (int, int) {
	x := 5 + rand.Intn(GridW-9)
	y := 5 + rand.Intn(GridH-9)
	return x, y
}

// Join admits a human participant. Capacity is 2 for duel, 6 for team and a
// single human slot for versus-AI; joining that slot also synthesizes the AI
// opponent. The new snake spawns heading right with a two-segment tail.
func (s *Session) Join(participantID int64, ident Identity, client *Client) error {
	s.mu.Lock()
	if s.humanCountLocked() >= maxHumans(s.matchType) {
		s.mu.Unlock()
		return ErrRoomFull
	}

	team := s.pickTeamLocked()
	x, y := spawnCoord()
	score := 0
	if s.matchType == MatchTypePvE {
		score = PvEStartScore
	}
	s.players[participantID] = &Player{
		ID:       participantID,
		X:        x,
		Y:        y,
		Heading:  HeadingRight,
		Body:     []Cell{{x - 1, y}, {x - 2, y}},
		Score:    score,
		Team:     team,
		Alive:    true,
		Nickname: ident.Nickname,
		Avatar:   ident.Avatar,
		Client:   client,
	}

	if s.matchType == MatchTypePvE {
		if _, ok := s.players[AIParticipantID]; !ok {
			ax, ay := spawnCoord()
			s.players[AIParticipantID] = &Player{
				ID:       AIParticipantID,
				X:        ax,
				Y:        ay,
				Heading:  HeadingLeft,
				Body:     []Cell{{ax + 1, ay}, {ax + 2, ay}},
				Score:    PvEStartScore,
				Team:     2,
				Alive:    true,
				Nickname: "AI Bot",
				Avatar:   "/static/images/default_avatar.svg",
			}
		}
	}
	s.mu.Unlock()

	s.broadcastState()
	return nil
}

// pickTeamLocked balances the two teams toward the one with fewer members;
// in team mode a full side (3) forces the other regardless of balance.
func (s *Session) pickTeamLocked() int {
	team1, team2 := 0, 0
	for id, p := range s.players {
		if id == AIParticipantID {
			continue
		}
		if p.Team == 1 {
			team1++
		} else if p.Team == 2 {
			team2++
		}
	}
	team := 2
	if team1 <= team2 {
		team = 1
	}
	if s.matchType == MatchTypeTeam {
		if team1 >= TeamSizeLimit {
			team = 2
		}
		if team2 >= TeamSizeLimit {
			team = 1
		}
	}
	return team
}

// SetHeading unconditionally overwrites the player's pending heading. An
// instant 180° reversal into one's own neck is allowed; the original game
// behaves the same way and fixing it would change collision outcomes.
func (s *Session) SetHeading(participantID int64, h Heading) {
	if !h.Valid() {
		return
	}
	s.mu.Lock()
	if p, ok := s.players[participantID]; ok {
		p.Heading = h
	}
	s.mu.Unlock()
}

// Start validates ownership, phase and headcount, then runs the countdown
// and simulation loop in a dedicated goroutine. A second Start during the
// countdown fails with ErrInvalidState.
func (s *Session) Start(requesterID int64) error {
	s.mu.Lock()
	if requesterID != s.ownerID {
		s.mu.Unlock()
		return ErrNotOwner
	}
	if s.status != StatusWaiting || s.starting {
		s.mu.Unlock()
		return ErrInvalidState
	}
	if s.humanCountLocked() < minHumans(s.matchType) {
		s.mu.Unlock()
		return ErrInsufficientPlayers
	}
	s.starting = true
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	go s.run(ctx)
	return nil
}

// Leave removes a participant in any phase and rebroadcasts state. A running
// match is not paused; an abandoned waiting room is torn down immediately.
func (s *Session) Leave(participantID int64) {
	s.mu.Lock()
	if _, ok := s.players[participantID]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.players, participantID)
	empty := s.humanCountLocked() == 0
	waiting := s.status == StatusWaiting
	cancel := s.cancel
	s.mu.Unlock()

	s.broadcastState()
	if empty && waiting {
		if cancel != nil {
			cancel()
		}
		s.dir.remove(s.code)
		log.Printf("[GAME] room %s abandoned before start, removed", s.code)
	}
}

// run drives one match: countdown, phase flip, then fixed-cadence ticks
// until a win condition fires, every human disconnects, or the context is
// cancelled.
func (s *Session) run(ctx context.Context) {
	log.Printf("[GAME] room %s countdown started", s.code)
	for i := CountdownFrom; i > 0; i-- {
		s.broadcastToRoom(countdownPayload(i))
		select {
		case <-ctx.Done():
			return
		case <-time.After(countdownInterval):
		}
	}
	// GO signal
	s.broadcastToRoom(countdownPayload(0))

	s.mu.Lock()
	s.status = StatusPlaying
	s.mu.Unlock()
	go func() {
		if err := s.store.UpdateMatchStatus(s.code, StatusPlaying); err != nil {
			log.Printf("[GAME] room %s: match status update failed: %v", s.code, err)
		}
	}()
	s.broadcastState()

	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.step() {
				return
			}
		}
	}
}

// step advances the world by one tick and fans the new state out. It returns
// true when the loop must stop.
func (s *Session) step() bool {
	s.mu.Lock()
	if s.connectedHumansLocked() == 0 {
		s.mu.Unlock()
		log.Printf("[GAME] room %s has no connected humans, stopping loop", s.code)
		s.dir.remove(s.code)
		return true
	}
	outcome := s.tick()
	s.mu.Unlock()

	s.broadcastState()
	if outcome != nil {
		s.Finish(*outcome)
		return true
	}
	return false
}

func (s *Session) connectedHumansLocked() int {
	n := 0
	for id, p := range s.players {
		if id == AIParticipantID || p.Client == nil {
			continue
		}
		if s.hub == nil || s.hub.Active(p.Client) {
			n++
		}
	}
	return n
}

// Finish ends the match: terminal status, game-over broadcast naming the
// winner, directory removal, then asynchronous score persistence so a slow
// store never stalls other sessions. A failed write is logged and left to
// the reconciler.
func (s *Session) Finish(outcome Outcome) {
	s.mu.Lock()
	if s.status == StatusFinished {
		s.mu.Unlock()
		return
	}
	s.status = StatusFinished
	if s.cancel != nil {
		s.cancel()
	}
	scores := make(map[int64]int)
	for id, p := range s.players {
		if id != AIParticipantID {
			scores[id] = p.Score
		}
	}
	s.mu.Unlock()

	s.broadcastToRoom(gameOverPayload(outcome))
	s.dir.remove(s.code)
	go s.persistResult(scores)
	log.Printf("[GAME] room %s finished: %s", s.code, outcome.Name)
}

func (s *Session) persistResult(scores map[int64]int) {
	if err := s.store.UpdateMatchStatus(s.code, StatusFinished); err != nil {
		log.Printf("[GAME] room %s: match status update failed: %v", s.code, err)
	}
	for userID, score := range scores {
		if err := s.store.CreateScoreRecord(userID, score, s.matchType); err != nil {
			log.Printf("[GAME] room %s: score for user %d not saved: %v", s.code, userID, err)
		}
	}
}

// BroadcastChat fans an in-match chat line out to the room.
func (s *Session) BroadcastChat(user, content string) {
	s.broadcastToRoom(ChatPayload(user, content))
}

type playerView struct {
	X         int     `json:"x"`
	Y         int     `json:"y"`
	Direction Heading `json:"direction"`
	Body      []Cell  `json:"body"`
	Score     int     `json:"score"`
	Team      int     `json:"team"`
	Alive     bool    `json:"alive"`
	Nickname  string  `json:"nickname"`
	Avatar    string  `json:"avatar"`
}

func participantKey(id int64) string {
	if id == AIParticipantID {
		return "ai"
	}
	return strconv.FormatInt(id, 10)
}

// statePayload renders the full session state minus connection handles.
func (s *Session) statePayload() ([]byte, map[int64]struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	players := make(map[string]playerView, len(s.players))
	members := make(map[int64]struct{}, len(s.players))
	for id, p := range s.players {
		body := make([]Cell, len(p.Body))
		copy(body, p.Body)
		players[participantKey(id)] = playerView{
			X:         p.X,
			Y:         p.Y,
			Direction: p.Heading,
			Body:      body,
			Score:     p.Score,
			Team:      p.Team,
			Alive:     p.Alive,
			Nickname:  p.Nickname,
			Avatar:    p.Avatar,
		}
		if id != AIParticipantID {
			members[id] = struct{}{}
		}
	}
	food := make([]Cell, len(s.food))
	copy(food, s.food)
	payload, _ := json.Marshal(map[string]any{
		"type":     "state",
		"players":  players,
		"food":     food,
		"status":   s.status,
		"mode":     s.matchType,
		"owner_id": s.ownerID,
	})
	return payload, members
}

func (s *Session) broadcastState() {
	payload, members := s.statePayload()
	s.fanOut(members, payload)
}

func (s *Session) broadcastToRoom(payload []byte) {
	s.mu.Lock()
	members := make(map[int64]struct{}, len(s.players))
	for id := range s.players {
		if id != AIParticipantID {
			members[id] = struct{}{}
		}
	}
	s.mu.Unlock()
	s.fanOut(members, payload)
}

func (s *Session) fanOut(members map[int64]struct{}, payload []byte) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastSubset(func(id Identity) bool {
		_, ok := members[id.UserID]
		return ok
	}, payload)
}

package game

import (
	"encoding/json"
	"fmt"
	"math/rand"
)

// Outcome names the winner of a finished match: a participant, a team, or a
// draw when every duelist dies on the same tick.
type Outcome struct {
	kind          outcomeKind
	ParticipantID int64
	Team          int
	Name          string
}

type outcomeKind int

const (
	outcomePlayer outcomeKind = iota
	outcomeTeam
	outcomeDraw
)

// PlayerOutcome declares a single participant the winner.
func PlayerOutcome(id int64, name string) Outcome {
	return Outcome{kind: outcomePlayer, ParticipantID: id, Name: name}
}

// TeamOutcome declares a team the winner.
func TeamOutcome(team int) Outcome {
	return Outcome{kind: outcomeTeam, Team: team, Name: fmt.Sprintf("Team %d", team)}
}

// DrawOutcome is the both-crashed sentinel for duel mode.
func DrawOutcome() Outcome {
	return Outcome{kind: outcomeDraw, Name: "Draw"}
}

func (o Outcome) IsDraw() bool { return o.kind == outcomeDraw }
func (o Outcome) IsTeam() bool { return o.kind == outcomeTeam }

// MarshalJSON keeps the wire shape the clients already speak: a uid (number,
// "ai", or null for a draw) with a display name, or a team number.
func (o Outcome) MarshalJSON() ([]byte, error) {
	switch o.kind {
	case outcomeTeam:
		return json.Marshal(map[string]any{"team": o.Team, "name": o.Name})
	case outcomeDraw:
		return json.Marshal(map[string]any{"uid": nil, "name": o.Name})
	default:
		var uid any = o.ParticipantID
		if o.ParticipantID == AIParticipantID {
			uid = "ai"
		}
		return json.Marshal(map[string]any{"uid": uid, "name": o.Name})
	}
}

// tick advances the session by exactly one step. Callers hold s.mu. The
// order is fixed: replenish food, steer the AI, move every living player
// (wall check, body check, growth/consumption, commit), then evaluate the
// win condition.
func (s *Session) tick() *Outcome {
	s.replenishFood()
	if s.matchType == MatchTypePvE {
		s.steerAI()
	}
	for _, p := range s.players {
		if !p.Alive {
			continue
		}
		s.movePlayer(p)
	}
	return s.checkWin()
}

// replenishFood tops the board back up to exactly three items. Spawns are
// uniform over the whole grid and intentionally do not avoid snake bodies or
// other food; the original game spawns the same way and eating odds are
// scoring-relevant.
func (s *Session) replenishFood() {
	for len(s.food) < FoodCount {
		s.food = append(s.food, Cell{X: rand.Intn(GridW), Y: rand.Intn(GridH)})
	}
}

// steerAI re-evaluates the AI heading with a greedy chase of the first food
// item: horizontal axis first, then vertical, never picking the direct
// reverse of the current heading (if the greedy pick would reverse, the AI
// keeps going straight).
func (s *Session) steerAI() {
	ai, ok := s.players[AIParticipantID]
	if !ok || !ai.Alive || len(s.food) == 0 {
		return
	}
	target := s.food[0]
	dx := target.X - ai.X
	dy := target.Y - ai.Y

	next := ai.Heading
	switch {
	case dx > 0 && ai.Heading != HeadingLeft:
		next = HeadingRight
	case dx < 0 && ai.Heading != HeadingRight:
		next = HeadingLeft
	case dy > 0 && ai.Heading != HeadingUp:
		next = HeadingDown
	case dy < 0 && ai.Heading != HeadingDown:
		next = HeadingUp
	}
	ai.Heading = next
}

// movePlayer resolves one participant's movement for this tick.
func (s *Session) movePlayer(p *Player) {
	hx, hy := p.Heading.Apply(p.X, p.Y)

	if hx < 0 || hx >= GridW || hy < 0 || hy >= GridH {
		p.Alive = false
		return
	}
	if s.hitsBody(p, hx, hy) {
		p.Alive = false
		return
	}

	// Grow by pushing the old head onto the body, then either consume food
	// or drop the tail for a net-zero length change.
	p.Body = append([]Cell{{X: p.X, Y: p.Y}}, p.Body...)
	if !s.consumeFoodAt(p, hx, hy) && len(p.Body) > 0 {
		p.Body = p.Body[:len(p.Body)-1]
	}

	p.X = hx
	p.Y = hy
}

// hitsBody checks the prospective head cell against every living body,
// including the mover's own. Team mode lets a mover pass through a live
// teammate's body but never through its own.
func (s *Session) hitsBody(mover *Player, hx, hy int) bool {
	for _, other := range s.players {
		if !other.Alive {
			continue
		}
		if s.matchType == MatchTypeTeam && other != mover && other.Team == mover.Team {
			continue
		}
		for _, seg := range other.Body {
			if seg.X == hx && seg.Y == hy {
				return true
			}
		}
	}
	return false
}

// consumeFoodAt removes the food item under the new head, awards the mover
// ten points and, in versus-AI mode, penalizes every other participant by
// the same amount within the same tick.
func (s *Session) consumeFoodAt(p *Player, hx, hy int) bool {
	for i, f := range s.food {
		if f.X != hx || f.Y != hy {
			continue
		}
		s.food = append(s.food[:i], s.food[i+1:]...)
		p.Score += FoodScore
		if s.matchType == MatchTypePvE {
			for _, other := range s.players {
				if other != p {
					other.Score -= FoodScore
				}
			}
		}
		return true
	}
	return false
}

// checkWin evaluates the mode's win condition after all movers resolved.
func (s *Session) checkWin() *Outcome {
	switch s.matchType {
	case MatchTypeDuel:
		return s.checkDuelWin()
	case MatchTypePvE:
		return s.checkPvEWin()
	case MatchTypeTeam:
		return s.checkTeamWin()
	}
	return nil
}

func (s *Session) checkDuelWin() *Outcome {
	alive := make([]*Player, 0, len(s.players))
	for _, p := range s.players {
		if p.Alive {
			alive = append(alive, p)
		}
	}
	if len(alive) < len(s.players) {
		if len(alive) == 1 {
			o := PlayerOutcome(alive[0].ID, alive[0].Nickname)
			return &o
		}
		if len(alive) == 0 {
			o := DrawOutcome()
			return &o
		}
	}
	for _, p := range alive {
		if p.Score >= WinningScore {
			o := PlayerOutcome(p.ID, p.Nickname)
			return &o
		}
	}
	return nil
}

func (s *Session) checkPvEWin() *Outcome {
	ai, ok := s.players[AIParticipantID]
	if !ok {
		return nil
	}
	var human *Player
	for id, p := range s.players {
		if id != AIParticipantID {
			human = p
			break
		}
	}
	if human == nil {
		return nil
	}

	if !human.Alive {
		o := PlayerOutcome(ai.ID, ai.Nickname)
		return &o
	}
	if !ai.Alive {
		o := PlayerOutcome(human.ID, human.Nickname)
		return &o
	}

	for _, pair := range [2][2]*Player{{human, ai}, {ai, human}} {
		p, opponent := pair[0], pair[1]
		if p.Score <= 0 {
			o := PlayerOutcome(opponent.ID, opponent.Nickname)
			return &o
		}
		if p.Score >= PvEScoreCap {
			o := PlayerOutcome(p.ID, p.Nickname)
			return &o
		}
	}
	return nil
}

func (s *Session) checkTeamWin() *Outcome {
	alive := map[int]int{}
	score := map[int]int{}
	for _, p := range s.players {
		if p.Alive {
			alive[p.Team]++
		}
		score[p.Team] += p.Score
	}
	if alive[1] == 0 {
		o := TeamOutcome(2)
		return &o
	}
	if alive[2] == 0 {
		o := TeamOutcome(1)
		return &o
	}
	if score[1] >= WinningScore {
		o := TeamOutcome(1)
		return &o
	}
	if score[2] >= WinningScore {
		o := TeamOutcome(2)
		return &o
	}
	return nil
}

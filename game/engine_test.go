package game

import (
	"encoding/json"
	"testing"
)

func placePlayer(s *Session, id int64, x, y int, h Heading, body []Cell, score, team int) *Player {
	p := &Player{
		ID:      id,
		X:       x,
		Y:       y,
		Heading: h,
		Body:    append([]Cell(nil), body...),
		Score:   score,
		Team:    team,
		Alive:   true,
	}
	s.players[id] = p
	return p
}

func TestFoodReplenishedToExactlyThree(t *testing.T) {
	sess, _, _, _ := newTestSession(t, MatchTypeDuel, 1)
	sess.food = nil
	sess.replenishFood()
	if len(sess.food) != FoodCount {
		t.Fatalf("food count = %d, want %d", len(sess.food), FoodCount)
	}

	sess.food = sess.food[:1]
	sess.replenishFood()
	if len(sess.food) != FoodCount {
		t.Fatalf("food count after partial refill = %d, want %d", len(sess.food), FoodCount)
	}
}

func TestMovementAdvancesHeadAndKeepsLength(t *testing.T) {
	sess, _, _, _ := newTestSession(t, MatchTypeDuel, 1)
	sess.food = cornerFood()
	p := placePlayer(sess, 1, 10, 10, HeadingRight, []Cell{{9, 10}, {8, 10}}, 0, 1)

	sess.movePlayer(p)

	if p.X != 11 || p.Y != 10 {
		t.Fatalf("head = (%d,%d), want (11,10)", p.X, p.Y)
	}
	if len(p.Body) != 2 {
		t.Fatalf("body length = %d, want 2", len(p.Body))
	}
	if p.Body[0] != (Cell{10, 10}) {
		t.Fatalf("body[0] = %v, want old head (10,10)", p.Body[0])
	}
}

func TestWallCollisionKillsAndFreezes(t *testing.T) {
	tests := []struct {
		name string
		x, y int
		h    Heading
	}{
		{"left wall", 0, 5, HeadingLeft},
		{"right wall", GridW - 1, 5, HeadingRight},
		{"top wall", 5, 0, HeadingUp},
		{"bottom wall", 5, GridH - 1, HeadingDown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess, _, _, _ := newTestSession(t, MatchTypeDuel, 1)
			sess.food = cornerFood()
			p := placePlayer(sess, 1, tt.x, tt.y, tt.h, []Cell{{tt.x, tt.y}}, 0, 1)

			sess.movePlayer(p)
			if p.Alive {
				t.Fatal("player survived a wall hit")
			}
			if p.X != tt.x || p.Y != tt.y {
				t.Fatalf("dead player moved to (%d,%d)", p.X, p.Y)
			}

			// A dead player is skipped on later ticks: position stays frozen.
			sess.tick()
			if p.X != tt.x || p.Y != tt.y {
				t.Fatalf("dead player mutated on a later tick: (%d,%d)", p.X, p.Y)
			}
		})
	}
}

func TestSelfCollisionKills(t *testing.T) {
	sess, _, _, _ := newTestSession(t, MatchTypeDuel, 1)
	sess.food = cornerFood()
	// Heading left into its own first body segment.
	p := placePlayer(sess, 1, 10, 10, HeadingLeft, []Cell{{9, 10}, {8, 10}}, 0, 1)

	sess.movePlayer(p)
	if p.Alive {
		t.Fatal("player survived moving into its own body")
	}
}

func TestOpponentBodyCollisionKills(t *testing.T) {
	sess, _, _, _ := newTestSession(t, MatchTypeDuel, 1)
	sess.food = cornerFood()
	mover := placePlayer(sess, 1, 10, 10, HeadingRight, []Cell{{9, 10}}, 0, 1)
	placePlayer(sess, 2, 20, 20, HeadingRight, []Cell{{11, 10}}, 0, 2)

	sess.movePlayer(mover)
	if mover.Alive {
		t.Fatal("player survived moving into an opponent's body")
	}
}

func TestTeammatePassThrough(t *testing.T) {
	sess, _, _, _ := newTestSession(t, MatchTypeTeam, 1)
	sess.food = cornerFood()
	mover := placePlayer(sess, 1, 10, 10, HeadingRight, []Cell{{9, 10}}, 0, 1)
	placePlayer(sess, 2, 20, 20, HeadingRight, []Cell{{11, 10}}, 0, 1) // teammate
	placePlayer(sess, 3, 25, 25, HeadingRight, []Cell{{30, 25}}, 0, 2)

	sess.movePlayer(mover)
	if !mover.Alive {
		t.Fatal("player died passing through a live teammate's body")
	}
	if mover.X != 11 || mover.Y != 10 {
		t.Fatalf("head = (%d,%d), want (11,10)", mover.X, mover.Y)
	}

	// Opposing body at the next cell still kills.
	sess.players[3].Body = []Cell{{12, 10}}
	sess.movePlayer(mover)
	if mover.Alive {
		t.Fatal("player survived moving into an opponent's body in team mode")
	}
}

func TestTeamModeSelfCollisionStillKills(t *testing.T) {
	sess, _, _, _ := newTestSession(t, MatchTypeTeam, 1)
	sess.food = cornerFood()
	p := placePlayer(sess, 1, 10, 10, HeadingLeft, []Cell{{9, 10}, {8, 10}}, 0, 1)

	sess.movePlayer(p)
	if p.Alive {
		t.Fatal("teammate pass-through must not cover the mover's own body")
	}
}

func TestFoodConsumptionGrowsAndScores(t *testing.T) {
	sess, _, _, _ := newTestSession(t, MatchTypeDuel, 1)
	sess.food = []Cell{{11, 10}, {0, 0}, {0, 1}}
	p := placePlayer(sess, 1, 10, 10, HeadingRight, []Cell{{9, 10}, {8, 10}}, 0, 1)

	sess.movePlayer(p)

	if p.Score != FoodScore {
		t.Fatalf("score = %d, want %d", p.Score, FoodScore)
	}
	if len(p.Body) != 3 {
		t.Fatalf("body length after eating = %d, want 3", len(p.Body))
	}
	if len(sess.food) != 2 {
		t.Fatalf("food count after eating = %d, want 2", len(sess.food))
	}
}

func TestPvEFoodPenalizesOpponent(t *testing.T) {
	sess, _, _, _ := newTestSession(t, MatchTypePvE, 1)
	sess.food = []Cell{{11, 10}, {0, 0}, {0, 1}}

	human := placePlayer(sess, 1, 10, 10, HeadingRight, []Cell{{9, 10}}, PvEStartScore, 1)
	ai := placePlayer(sess, AIParticipantID, 30, 20, HeadingLeft, []Cell{{31, 20}}, PvEStartScore, 2)

	sess.movePlayer(human)

	if human.Score != PvEStartScore+FoodScore {
		t.Fatalf("human score = %d, want %d", human.Score, PvEStartScore+FoodScore)
	}
	if ai.Score != PvEStartScore-FoodScore {
		t.Fatalf("ai score = %d, want %d", ai.Score, PvEStartScore-FoodScore)
	}
}

func TestDuelFoodDoesNotPenalize(t *testing.T) {
	sess, _, _, _ := newTestSession(t, MatchTypeDuel, 1)
	sess.food = []Cell{{11, 10}, {0, 0}, {0, 1}}
	eater := placePlayer(sess, 1, 10, 10, HeadingRight, []Cell{{9, 10}}, 0, 1)
	other := placePlayer(sess, 2, 30, 20, HeadingLeft, []Cell{{31, 20}}, 0, 2)

	sess.movePlayer(eater)
	if other.Score != 0 {
		t.Fatalf("duel opponent score changed to %d", other.Score)
	}
}

func TestAIGreedyHeadingPrefersHorizontal(t *testing.T) {
	tests := []struct {
		name    string
		aiX     int
		aiY     int
		heading Heading
		food    Cell
		want    Heading
	}{
		{"food right", 10, 10, HeadingDown, Cell{15, 10}, HeadingRight},
		{"food left", 10, 10, HeadingDown, Cell{5, 10}, HeadingLeft},
		{"food below, aligned x", 10, 10, HeadingRight, Cell{10, 15}, HeadingDown},
		{"food above, aligned x", 10, 10, HeadingRight, Cell{10, 5}, HeadingUp},
		{"horizontal beats vertical", 10, 10, HeadingDown, Cell{15, 20}, HeadingRight},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess, _, _, _ := newTestSession(t, MatchTypePvE, 1)
			ai := placePlayer(sess, AIParticipantID, tt.aiX, tt.aiY, tt.heading, nil, PvEStartScore, 2)
			sess.food = []Cell{tt.food, {0, 0}, {0, 1}}

			sess.steerAI()
			if ai.Heading != tt.want {
				t.Fatalf("heading = %s, want %s", ai.Heading, tt.want)
			}
		})
	}
}

func TestAINeverReverses(t *testing.T) {
	sess, _, _, _ := newTestSession(t, MatchTypePvE, 1)
	// Food directly behind: the greedy horizontal pick would be a 180° turn.
	ai := placePlayer(sess, AIParticipantID, 10, 10, HeadingRight, nil, PvEStartScore, 2)
	sess.food = []Cell{{5, 10}, {0, 0}, {0, 1}}

	sess.steerAI()
	if ai.Heading != HeadingRight {
		t.Fatalf("AI reversed to %s instead of keeping its heading", ai.Heading)
	}
}

func TestDuelWinnerLastAlive(t *testing.T) {
	sess, _, _, _ := newTestSession(t, MatchTypeDuel, 1)
	placePlayer(sess, 1, 10, 10, HeadingRight, []Cell{{9, 10}}, 0, 1).Nickname = "alice"
	dead := placePlayer(sess, 2, 20, 20, HeadingRight, []Cell{{19, 20}}, 0, 2)
	dead.Alive = false

	outcome := sess.checkWin()
	if outcome == nil {
		t.Fatal("no outcome for a lone survivor")
	}
	if outcome.ParticipantID != 1 || outcome.Name != "alice" {
		t.Fatalf("outcome = %+v, want player 1", outcome)
	}
}

func TestDuelDrawWhenBothDie(t *testing.T) {
	sess, _, _, _ := newTestSession(t, MatchTypeDuel, 1)
	for _, id := range []int64{1, 2} {
		p := placePlayer(sess, id, 10, 10, HeadingRight, nil, 0, int(id))
		p.Alive = false
	}

	outcome := sess.checkWin()
	if outcome == nil || !outcome.IsDraw() {
		t.Fatalf("outcome = %+v, want draw", outcome)
	}
}

func TestDuelWinnerByScore(t *testing.T) {
	sess, _, _, _ := newTestSession(t, MatchTypeDuel, 1)
	placePlayer(sess, 1, 10, 10, HeadingRight, nil, WinningScore, 1).Nickname = "alice"
	placePlayer(sess, 2, 20, 20, HeadingRight, nil, 50, 2)

	outcome := sess.checkWin()
	if outcome == nil || outcome.ParticipantID != 1 {
		t.Fatalf("outcome = %+v, want player 1 by score", outcome)
	}
}

func TestDuelNoWinnerWhileBothAliveUnderScore(t *testing.T) {
	sess, _, _, _ := newTestSession(t, MatchTypeDuel, 1)
	placePlayer(sess, 1, 10, 10, HeadingRight, nil, 50, 1)
	placePlayer(sess, 2, 20, 20, HeadingRight, nil, 90, 2)

	if outcome := sess.checkWin(); outcome != nil {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
}

func TestPvEWinConditions(t *testing.T) {
	t.Run("human dies, AI wins", func(t *testing.T) {
		sess, _, _, _ := newTestSession(t, MatchTypePvE, 1)
		placePlayer(sess, 1, 10, 10, HeadingRight, nil, PvEStartScore, 1).Alive = false
		placePlayer(sess, AIParticipantID, 20, 20, HeadingLeft, nil, PvEStartScore, 2)

		outcome := sess.checkWin()
		if outcome == nil || outcome.ParticipantID != AIParticipantID {
			t.Fatalf("outcome = %+v, want AI", outcome)
		}
	})

	t.Run("AI score at zero, human wins", func(t *testing.T) {
		sess, _, _, _ := newTestSession(t, MatchTypePvE, 1)
		placePlayer(sess, 1, 10, 10, HeadingRight, nil, 150, 1).Nickname = "alice"
		placePlayer(sess, AIParticipantID, 20, 20, HeadingLeft, nil, 0, 2)

		outcome := sess.checkWin()
		if outcome == nil || outcome.ParticipantID != 1 {
			t.Fatalf("outcome = %+v, want human", outcome)
		}
	})

	t.Run("score cap", func(t *testing.T) {
		sess, _, _, _ := newTestSession(t, MatchTypePvE, 1)
		placePlayer(sess, 1, 10, 10, HeadingRight, nil, PvEScoreCap, 1)
		placePlayer(sess, AIParticipantID, 20, 20, HeadingLeft, nil, 80, 2)

		outcome := sess.checkWin()
		if outcome == nil || outcome.ParticipantID != 1 {
			t.Fatalf("outcome = %+v, want human at cap", outcome)
		}
	})
}

func TestTeamWinConditions(t *testing.T) {
	t.Run("team wiped", func(t *testing.T) {
		sess, _, _, _ := newTestSession(t, MatchTypeTeam, 1)
		placePlayer(sess, 1, 10, 10, HeadingRight, nil, 0, 1).Alive = false
		placePlayer(sess, 2, 11, 10, HeadingRight, nil, 0, 1).Alive = false
		placePlayer(sess, 3, 20, 20, HeadingRight, nil, 0, 2)

		outcome := sess.checkWin()
		if outcome == nil || !outcome.IsTeam() || outcome.Team != 2 {
			t.Fatalf("outcome = %+v, want team 2", outcome)
		}
	})

	t.Run("team score sum", func(t *testing.T) {
		sess, _, _, _ := newTestSession(t, MatchTypeTeam, 1)
		placePlayer(sess, 1, 10, 10, HeadingRight, nil, 60, 1)
		placePlayer(sess, 2, 11, 11, HeadingRight, nil, 40, 1)
		placePlayer(sess, 3, 20, 20, HeadingRight, nil, 90, 2)

		outcome := sess.checkWin()
		if outcome == nil || !outcome.IsTeam() || outcome.Team != 1 {
			t.Fatalf("outcome = %+v, want team 1 on summed score", outcome)
		}
	})
}

func TestOutcomeWireShapes(t *testing.T) {
	tests := []struct {
		name    string
		outcome Outcome
		want    string
	}{
		{"player", PlayerOutcome(7, "alice"), `{"name":"alice","uid":7}`},
		{"ai", PlayerOutcome(AIParticipantID, "AI Bot"), `{"name":"AI Bot","uid":"ai"}`},
		{"draw", DrawOutcome(), `{"name":"Draw","uid":null}`},
		{"team", TeamOutcome(2), `{"name":"Team 2","team":2}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.outcome)
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != tt.want {
				t.Fatalf("marshal = %s, want %s", got, tt.want)
			}
		})
	}
}

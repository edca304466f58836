package game

import (
	"sync"
	"testing"
)

// fakeStore is an in-memory MatchStore for tests.
type fakeStore struct {
	mu       sync.Mutex
	statuses map[string]string // room code -> status
	scores   map[int64]int     // user id -> last saved score
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		statuses: make(map[string]string),
		scores:   make(map[int64]int),
	}
}

func (f *fakeStore) CodeInUse(code string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.statuses[code]
	return ok, nil
}

func (f *fakeStore) CreateMatchRecord(code, matchType string, ownerID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[code] = StatusWaiting
	return nil
}

func (f *fakeStore) UpdateMatchStatus(code, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[code] = status
	return nil
}

func (f *fakeStore) CreateScoreRecord(userID int64, score int, matchType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scores[userID] = score
	return nil
}

func (f *fakeStore) status(code string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statuses[code]
}

func (f *fakeStore) savedScore(userID int64) (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.scores[userID]
	return s, ok
}

func newTestSession(t *testing.T, matchType string, ownerID int64) (*Session, *Directory, *Hub, *fakeStore) {
	t.Helper()
	hub := NewHub()
	store := newFakeStore()
	dir := NewDirectory(hub, store)
	sess, err := dir.CreateMatch(matchType, ownerID)
	if err != nil {
		t.Fatalf("CreateMatch(%s): %v", matchType, err)
	}
	return sess, dir, hub, store
}

func ident(id int64, name string) Identity {
	return Identity{UserID: id, Nickname: name, Avatar: "/a.png"}
}

// cornerFood parks all three food items in one corner so movement tests stay
// deterministic unless they place food on purpose.
func cornerFood() []Cell {
	return []Cell{{0, 0}, {0, 1}, {1, 0}}
}

package game

import (
	"fmt"
	"log"
	"math/rand"
	"sort"
	"sync"
)

// Directory maps short room codes to live game sessions. Chat rooms are
// persisted rows and never appear here; a game session is ephemeral and is
// backed by a persisted match record created alongside it.
type Directory struct {
	mu       sync.Mutex
	sessions map[string]*Session
	hub      *Hub
	store    MatchStore
}

func NewDirectory(hub *Hub, store MatchStore) *Directory {
	return &Directory{
		sessions: make(map[string]*Session),
		hub:      hub,
		store:    store,
	}
}

// CreateMatch allocates a fresh session under a unique 6-digit code,
// rejection-sampled against both live sessions and persisted match records,
// and writes the backing match record with status waiting.
func (d *Directory) CreateMatch(matchType string, ownerID int64) (*Session, error) {
	if !ValidMatchType(matchType) {
		return nil, ErrUnknownMatchType
	}

	for attempt := 0; attempt < MaxCodeAttempts; attempt++ {
		code := fmt.Sprintf("%06d", rand.Intn(1000000))

		d.mu.Lock()
		_, live := d.sessions[code]
		d.mu.Unlock()
		if live {
			continue
		}

		used, err := d.store.CodeInUse(code)
		if err != nil {
			return nil, fmt.Errorf("code lookup failed: %w", err)
		}
		if used {
			continue
		}

		if err := d.store.CreateMatchRecord(code, matchType, ownerID); err != nil {
			return nil, fmt.Errorf("match record not created: %w", err)
		}

		sess := newSession(code, matchType, ownerID, d, d.hub, d.store)
		d.mu.Lock()
		d.sessions[code] = sess
		d.mu.Unlock()
		log.Printf("[GAME] room %s created (%s) by user %d", code, matchType, ownerID)
		return sess, nil
	}
	return nil, ErrAllocation
}

// Lookup resolves a room code to its live session.
func (d *Directory) Lookup(code string) (*Session, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.sessions[code]
	return s, ok
}

// LiveCodes lists the codes with an in-memory session, sorted for stable
// output. The reconciler uses it to tell an orphaned match record from a
// merely long-running one.
func (d *Directory) LiveCodes() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	codes := make([]string, 0, len(d.sessions))
	for code := range d.sessions {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func (d *Directory) remove(code string) {
	d.mu.Lock()
	delete(d.sessions, code)
	d.mu.Unlock()
}

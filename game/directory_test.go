package game

import (
	"errors"
	"testing"
)

func TestCreateMatchAllocatesSession(t *testing.T) {
	hub := NewHub()
	store := newFakeStore()
	dir := NewDirectory(hub, store)

	sess, err := dir.CreateMatch(MatchTypeDuel, 42)
	if err != nil {
		t.Fatal(err)
	}
	if len(sess.Code()) != 6 {
		t.Fatalf("room code %q is not 6 digits", sess.Code())
	}
	for _, r := range sess.Code() {
		if r < '0' || r > '9' {
			t.Fatalf("room code %q contains non-digit", sess.Code())
		}
	}
	if sess.OwnerID() != 42 || sess.MatchType() != MatchTypeDuel {
		t.Fatalf("session metadata wrong: owner=%d type=%s", sess.OwnerID(), sess.MatchType())
	}
	if sess.Status() != StatusWaiting {
		t.Fatalf("fresh session status = %s", sess.Status())
	}

	if store.status(sess.Code()) != StatusWaiting {
		t.Fatal("match record not persisted as waiting")
	}
	if got, ok := dir.Lookup(sess.Code()); !ok || got != sess {
		t.Fatal("created session not resolvable by code")
	}
}

func TestCreateMatchRejectsUnknownType(t *testing.T) {
	dir := NewDirectory(NewHub(), newFakeStore())
	if _, err := dir.CreateMatch("4v4", 1); !errors.Is(err, ErrUnknownMatchType) {
		t.Fatalf("CreateMatch(4v4) = %v, want ErrUnknownMatchType", err)
	}
}

func TestCreateMatchSkipsUsedCodes(t *testing.T) {
	store := newFakeStore()
	dir := NewDirectory(NewHub(), store)

	first, err := dir.CreateMatch(MatchTypeDuel, 1)
	if err != nil {
		t.Fatal(err)
	}
	// Even with a used record in the store, a fresh code comes back.
	second, err := dir.CreateMatch(MatchTypePvE, 2)
	if err != nil {
		t.Fatal(err)
	}
	if first.Code() == second.Code() {
		t.Fatal("two live sessions share a room code")
	}
}

func TestLookupUnknownCode(t *testing.T) {
	dir := NewDirectory(NewHub(), newFakeStore())
	if _, ok := dir.Lookup("000000"); ok {
		t.Fatal("lookup of unknown code succeeded")
	}
}

func TestLiveCodesTracksSessions(t *testing.T) {
	dir := NewDirectory(NewHub(), newFakeStore())
	a, _ := dir.CreateMatch(MatchTypeDuel, 1)
	b, _ := dir.CreateMatch(MatchTypeTeam, 2)

	codes := dir.LiveCodes()
	if len(codes) != 2 {
		t.Fatalf("live codes = %v, want 2 entries", codes)
	}

	a.Finish(DrawOutcome())
	codes = dir.LiveCodes()
	if len(codes) != 1 || codes[0] != b.Code() {
		t.Fatalf("live codes after finish = %v, want just %s", codes, b.Code())
	}
}

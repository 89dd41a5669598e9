package server

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"sync"

	"catan-server/internal/boardgame/engine"
)

// SessionManager owns the concurrent map of active GameActors and the
// playerId -> code routing table the gateway uses to find which
// actor a given connection's commands belong to.
type SessionManager struct {
	mu      sync.RWMutex
	actors  map[string]*GameActor // code -> actor
	routing map[string]string     // playerId -> code
}

func NewSessionManager() *SessionManager {
	return &SessionManager{
		actors:  make(map[string]*GameActor),
		routing: make(map[string]string),
	}
}

// StartGame constructs a new GameActor for a lobby that just started,
// seeding its RNG from a cryptographically random source so games
// aren't predictable from wall-clock time, and registers every player
// in the routing table.
func (sm *SessionManager) StartGame(code string, players []engine.NewPlayerInput) (*GameActor, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, exists := sm.actors[code]; exists {
		return nil, errors.New("ALREADY_STARTED: a game actor already exists for this code")
	}

	actor := NewGameActor(code, code, players, secureSeed())
	sm.actors[code] = actor
	for _, p := range players {
		sm.routing[p.ID] = code
	}
	return actor, nil
}

// GetActor returns the actor for a known game code.
func (sm *SessionManager) GetActor(code string) (*GameActor, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	a, ok := sm.actors[code]
	return a, ok
}

// GetActorForPlayer resolves the actor owning playerID's game.
func (sm *SessionManager) GetActorForPlayer(playerID string) (*GameActor, string, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	code, ok := sm.routing[playerID]
	if !ok {
		return nil, "", false
	}
	a, ok := sm.actors[code]
	return a, code, ok
}

// EndGame stops and forgets the actor for code, freeing every player
// routed to it. Called once a game reaches the finished phase and has
// been persisted.
func (sm *SessionManager) EndGame(code string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if a, ok := sm.actors[code]; ok {
		a.Stop()
		delete(sm.actors, code)
	}
	for playerID, c := range sm.routing {
		if c == code {
			delete(sm.routing, playerID)
		}
	}
}

// secureSeed draws a seed from crypto/rand. The actor's own gameplay
// RNG is a plain math/rand.Rand seeded once here — every draw after
// that flows through the actor so a game is replayable from this one
// seed, per the no-global-PRNG rule.
func secureSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand failing is effectively unrecoverable on any real
		// platform; fall back to a fixed seed rather than panicking.
		return 1
	}
	return int64(binary.BigEndian.Uint64(buf[:]))
}

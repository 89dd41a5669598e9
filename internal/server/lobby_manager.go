package server

import (
	"errors"
	"strings"
	"sync"
	"time"

	"catan-server/internal/boardgame/engine"
)

// LobbyStatus is the pre-game lifecycle of a lobby.
type LobbyStatus string

const (
	LobbyWaiting  LobbyStatus = "waiting"
	LobbyStarting LobbyStatus = "starting"
	LobbyStarted  LobbyStatus = "started"
)

// availableColors are the four fixed seat colors a lobby can hand
// out; a 2-3 player lobby simply leaves the rest unclaimed.
var availableColors = []engine.PlayerColor{
	engine.ColorRed, engine.ColorBlue, engine.ColorOrange, engine.ColorWhite,
}

// LobbyPlayer is one seated player before the game actor exists.
type LobbyPlayer struct {
	ID       string
	Username string
	Color    engine.PlayerColor
	IsReady  bool
	IsHost   bool
	JoinedAt time.Time
}

// Lobby is the pre-game room state the gateway's lobby:* intents
// operate on.
type Lobby struct {
	Code       string
	HostID     string
	Players    []LobbyPlayer
	MaxPlayers int
	Status     LobbyStatus
	CreatedAt  time.Time
}

// LobbyManager owns every open lobby, keyed by its room code.
type LobbyManager struct {
	mu        sync.RWMutex
	lobbies   map[string]*Lobby
	usedCodes map[string]bool
}

func NewLobbyManager() *LobbyManager {
	return &LobbyManager{
		lobbies:   make(map[string]*Lobby),
		usedCodes: make(map[string]bool),
	}
}

// Create opens a new lobby, seating hostID in the first available
// color and generating a fresh room code.
func (lm *LobbyManager) Create(hostID, username string, maxPlayers int) (*Lobby, error) {
	if maxPlayers < 2 || maxPlayers > 4 {
		return nil, errors.New("InvalidPayload: maxPlayers must be 2, 3, or 4")
	}
	if err := validateUsername(username); err != nil {
		return nil, err
	}

	lm.mu.Lock()
	defer lm.mu.Unlock()

	code := GenerateRoomCode(lm.usedCodes)
	lm.usedCodes[code] = true

	lobby := &Lobby{
		Code:       code,
		HostID:     hostID,
		MaxPlayers: maxPlayers,
		Status:     LobbyWaiting,
		CreatedAt:  time.Now(),
		Players: []LobbyPlayer{{
			ID:       hostID,
			Username: username,
			Color:    availableColors[0],
			IsHost:   true,
			JoinedAt: time.Now(),
		}},
	}
	lm.lobbies[code] = lobby
	return lobby, nil
}

// Join seats playerID in an open lobby slot. If playerID is already
// seated this is treated as a reconnection: the existing seat is
// returned unchanged rather than duplicated.
func (lm *LobbyManager) Join(code, playerID, username string) (*Lobby, error) {
	code = NormalizeRoomCode(code)
	if err := ValidateRoomCode(code); err != nil {
		return nil, err
	}

	lm.mu.Lock()
	defer lm.mu.Unlock()

	lobby, ok := lm.lobbies[code]
	if !ok {
		return nil, errors.New("CodeUnknown: no lobby with this code")
	}
	if lobby.Status != LobbyWaiting {
		return nil, errors.New("AlreadyStarted: lobby has already started")
	}

	for _, p := range lobby.Players {
		if p.ID == playerID {
			return lobby, nil
		}
	}
	if len(lobby.Players) >= lobby.MaxPlayers {
		return nil, errors.New("LobbyFull: lobby is full")
	}
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	for _, p := range lobby.Players {
		if strings.EqualFold(p.Username, username) {
			return nil, errors.New("InvalidPayload: username already taken in this lobby")
		}
	}

	color, err := firstFreeColor(lobby)
	if err != nil {
		return nil, err
	}

	lobby.Players = append(lobby.Players, LobbyPlayer{
		ID:       playerID,
		Username: username,
		Color:    color,
		JoinedAt: time.Now(),
	})
	return lobby, nil
}

// Leave removes playerID from the lobby. If the host leaves, the
// earliest-joined remaining player is promoted; if the lobby empties
// out, it is deleted.
func (lm *LobbyManager) Leave(code, playerID string) (*Lobby, bool, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	lobby, ok := lm.lobbies[code]
	if !ok {
		return nil, false, errors.New("CodeUnknown: no lobby with this code")
	}

	idx := -1
	for i, p := range lobby.Players {
		if p.ID == playerID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false, errors.New("NotInGame: player is not in this lobby")
	}

	wasHost := lobby.Players[idx].IsHost
	lobby.Players = append(lobby.Players[:idx], lobby.Players[idx+1:]...)

	if len(lobby.Players) == 0 {
		delete(lm.lobbies, code)
		return lobby, true, nil
	}
	if wasHost {
		lobby.Players[0].IsHost = true
		lobby.HostID = lobby.Players[0].ID
	}
	return lobby, false, nil
}

// SetColor reassigns playerID's seat color, rejecting colors already
// claimed by another seated player.
func (lm *LobbyManager) SetColor(code, playerID string, color engine.PlayerColor) (*Lobby, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	lobby, ok := lm.lobbies[code]
	if !ok {
		return nil, errors.New("CodeUnknown: no lobby with this code")
	}
	valid := false
	for _, c := range availableColors {
		if c == color {
			valid = true
			break
		}
	}
	if !valid {
		return nil, errors.New("InvalidPayload: unknown color")
	}
	for _, p := range lobby.Players {
		if p.Color == color && p.ID != playerID {
			return nil, errors.New("ColorTaken: color already claimed")
		}
	}

	for i := range lobby.Players {
		if lobby.Players[i].ID == playerID {
			lobby.Players[i].Color = color
			return lobby, nil
		}
	}
	return nil, errors.New("NotInGame: player is not in this lobby")
}

// SetReady toggles playerID's ready flag.
func (lm *LobbyManager) SetReady(code, playerID string, ready bool) (*Lobby, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	lobby, ok := lm.lobbies[code]
	if !ok {
		return nil, errors.New("CodeUnknown: no lobby with this code")
	}
	for i := range lobby.Players {
		if lobby.Players[i].ID == playerID {
			lobby.Players[i].IsReady = ready
			return lobby, nil
		}
	}
	return nil, errors.New("NotInGame: player is not in this lobby")
}

// CanStart reports whether hostID may start the lobby: at least two
// seated players and every non-host player ready.
func (lm *LobbyManager) CanStart(code, hostID string) (*Lobby, error) {
	lm.mu.RLock()
	defer lm.mu.RUnlock()

	lobby, ok := lm.lobbies[code]
	if !ok {
		return nil, errors.New("CodeUnknown: no lobby with this code")
	}
	if lobby.HostID != hostID {
		return nil, errors.New("InvalidPayload: only the host may start the game")
	}
	if len(lobby.Players) < 2 {
		return nil, errors.New("InvalidPayload: need at least 2 players to start")
	}
	for _, p := range lobby.Players {
		if !p.IsHost && !p.IsReady {
			return nil, errors.New("InvalidPayload: not all players are ready")
		}
	}
	return lobby, nil
}

// MarkStarting and MarkStarted transition the lobby's status around
// the 3-second start countdown the gateway drives.
func (lm *LobbyManager) MarkStarting(code string) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	if lobby, ok := lm.lobbies[code]; ok {
		lobby.Status = LobbyStarting
	}
}

func (lm *LobbyManager) MarkStarted(code string) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	if lobby, ok := lm.lobbies[code]; ok {
		lobby.Status = LobbyStarted
	}
}

// Get returns the lobby for code.
func (lm *LobbyManager) Get(code string) (*Lobby, bool) {
	lm.mu.RLock()
	defer lm.mu.RUnlock()
	lobby, ok := lm.lobbies[code]
	return lobby, ok
}

func firstFreeColor(lobby *Lobby) (engine.PlayerColor, error) {
	taken := make(map[engine.PlayerColor]bool, len(lobby.Players))
	for _, p := range lobby.Players {
		taken[p.Color] = true
	}
	for _, c := range availableColors {
		if !taken[c] {
			return c, nil
		}
	}
	return "", errors.New("LobbyFull: no colors available")
}

func validateUsername(username string) error {
	username = strings.TrimSpace(username)
	if len(username) < 2 || len(username) > 20 {
		return errors.New("InvalidPayload: username must be 2-20 characters")
	}
	for _, ch := range username {
		if !(ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= '0' && ch <= '9' || ch == '_' || ch == '-') {
			return errors.New("InvalidPayload: username must match [A-Za-z0-9_-]")
		}
	}
	return nil
}

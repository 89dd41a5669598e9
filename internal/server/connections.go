package server

import (
	"sync"

	"github.com/coder/websocket"
)

// PlayerConnection records which player and game a live socket
// belongs to, once that socket has identified itself (by creating or
// joining a lobby, or reconnecting with a known playerId).
type PlayerConnection struct {
	PlayerID string
	Code     string
	Username string
}

// ConnectionManager maps socket connections to the stable playerId
// each one is currently bound to, in both directions, so the gateway
// can route an inbound command to the right actor and fan outbound
// events back out to the right socket.
type ConnectionManager struct {
	mu          sync.RWMutex
	connections map[string]*websocket.Conn  // connectionId -> socket
	players     map[string]PlayerConnection // connectionId -> player info
	byPlayerID  map[string]string           // playerId -> connectionId
}

func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]*websocket.Conn),
		players:     make(map[string]PlayerConnection),
		byPlayerID:  make(map[string]string),
	}
}

// AddConnection registers a freshly accepted socket that hasn't
// identified itself with a player yet.
func (cm *ConnectionManager) AddConnection(id string, conn *websocket.Conn) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.connections[id] = conn
}

// AddConnectionWithToken binds connectionID to playerID (the stable
// identity a client carries across reconnects). If playerID was
// already bound to a different connection — the classic "opened a
// second tab" case — that old connectionID is returned so the caller
// can notify and close it.
func (cm *ConnectionManager) AddConnectionWithToken(connectionID string, conn *websocket.Conn, playerID string) string {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.connections[connectionID] = conn
	player := cm.players[connectionID]
	player.PlayerID = playerID
	cm.players[connectionID] = player

	old, hadOld := cm.byPlayerID[playerID]
	cm.byPlayerID[playerID] = connectionID
	if hadOld && old != connectionID {
		return old
	}
	return ""
}

// RemoveConnection forgets a closed socket entirely.
func (cm *ConnectionManager) RemoveConnection(id string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if player, ok := cm.players[id]; ok {
		if cm.byPlayerID[player.PlayerID] == id {
			delete(cm.byPlayerID, player.PlayerID)
		}
	}
	delete(cm.connections, id)
	delete(cm.players, id)
}

// PlayerIDOf returns the playerId bound to connectionID, or "".
func (cm *ConnectionManager) PlayerIDOf(connectionID string) string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.players[connectionID].PlayerID
}

// ConnectionFor returns the connectionId currently bound to playerID.
func (cm *ConnectionManager) ConnectionFor(playerID string) string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.byPlayerID[playerID]
}

// Socket returns the websocket for a connectionId.
func (cm *ConnectionManager) Socket(connectionID string) *websocket.Conn {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.connections[connectionID]
}

// SetGameCode records which game a bound connection belongs to, once
// a lobby has started and the player's socket needs routing to the
// actor's event stream.
func (cm *ConnectionManager) SetGameCode(connectionID, code string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	player := cm.players[connectionID]
	player.Code = code
	cm.players[connectionID] = player
}

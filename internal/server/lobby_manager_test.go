package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catan-server/internal/boardgame/engine"
)

func TestLobbyManager_CreateSeatsHostAsFirstColor(t *testing.T) {
	lm := NewLobbyManager()

	lobby, err := lm.Create("host-1", "Alice", 4)
	require.NoError(t, err)

	assert.Len(t, lobby.Code, roomCodeLength)
	assert.Equal(t, "host-1", lobby.HostID)
	require.Len(t, lobby.Players, 1)
	assert.True(t, lobby.Players[0].IsHost)
	assert.Equal(t, availableColors[0], lobby.Players[0].Color)
	assert.Equal(t, LobbyWaiting, lobby.Status)
}

func TestLobbyManager_CreateRejectsBadPlayerCount(t *testing.T) {
	lm := NewLobbyManager()

	_, err := lm.Create("host-1", "Alice", 1)
	assert.Error(t, err)

	_, err = lm.Create("host-1", "Alice", 5)
	assert.Error(t, err)
}

func TestLobbyManager_JoinAssignsNextFreeColorAndIsIdempotent(t *testing.T) {
	lm := NewLobbyManager()
	lobby, err := lm.Create("host-1", "Alice", 4)
	require.NoError(t, err)

	lobby, err = lm.Join(lobby.Code, "p2", "Bob")
	require.NoError(t, err)
	require.Len(t, lobby.Players, 2)
	assert.Equal(t, availableColors[1], lobby.Players[1].Color)

	// Re-joining with the same playerID is a no-op, not a duplicate seat.
	again, err := lm.Join(lobby.Code, "p2", "Bob")
	require.NoError(t, err)
	assert.Len(t, again.Players, 2)
}

func TestLobbyManager_JoinRejectsFullLobby(t *testing.T) {
	lm := NewLobbyManager()
	lobby, _ := lm.Create("host-1", "Alice", 2)
	_, err := lm.Join(lobby.Code, "p2", "Bob")
	require.NoError(t, err)

	_, err = lm.Join(lobby.Code, "p3", "Carol")
	assert.ErrorContains(t, err, "LobbyFull")
}

func TestLobbyManager_JoinRejectsUnknownCode(t *testing.T) {
	lm := NewLobbyManager()
	_, err := lm.Join("ZZZZZZ", "p1", "Alice")
	assert.ErrorContains(t, err, "CodeUnknown")
}

func TestLobbyManager_LeavePromotesEarliestRemainingPlayerOnHostLeave(t *testing.T) {
	lm := NewLobbyManager()
	lobby, _ := lm.Create("host-1", "Alice", 4)
	lobby, err := lm.Join(lobby.Code, "p2", "Bob")
	require.NoError(t, err)

	lobby, deleted, err := lm.Leave(lobby.Code, "host-1")
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Equal(t, "p2", lobby.HostID)
	assert.True(t, lobby.Players[0].IsHost)
}

func TestLobbyManager_LeaveDeletesEmptyLobby(t *testing.T) {
	lm := NewLobbyManager()
	lobby, _ := lm.Create("host-1", "Alice", 4)

	_, deleted, err := lm.Leave(lobby.Code, "host-1")
	require.NoError(t, err)
	assert.True(t, deleted)

	_, ok := lm.Get(lobby.Code)
	assert.False(t, ok)
}

func TestLobbyManager_SetColorRejectsAlreadyClaimedColor(t *testing.T) {
	lm := NewLobbyManager()
	lobby, _ := lm.Create("host-1", "Alice", 4)
	lobby, _ = lm.Join(lobby.Code, "p2", "Bob")

	_, err := lm.SetColor(lobby.Code, "p2", availableColors[0])
	assert.ErrorContains(t, err, "ColorTaken")
}

func TestLobbyManager_CanStartRequiresHostAndEveryoneReady(t *testing.T) {
	lm := NewLobbyManager()
	lobby, _ := lm.Create("host-1", "Alice", 4)
	lobby, _ = lm.Join(lobby.Code, "p2", "Bob")

	_, err := lm.CanStart(lobby.Code, "host-1")
	assert.ErrorContains(t, err, "not all players are ready")

	_, err = lm.CanStart(lobby.Code, "p2")
	assert.ErrorContains(t, err, "only the host")

	_, err = lm.SetReady(lobby.Code, "p2", true)
	require.NoError(t, err)

	lobby, err = lm.CanStart(lobby.Code, "host-1")
	require.NoError(t, err)
	assert.Len(t, lobby.Players, 2)
}

func TestLobbyManager_CanStartRequiresTwoPlayers(t *testing.T) {
	lm := NewLobbyManager()
	lobby, _ := lm.Create("host-1", "Alice", 4)

	_, err := lm.CanStart(lobby.Code, "host-1")
	assert.ErrorContains(t, err, "at least 2 players")
}

func TestValidateUsername(t *testing.T) {
	assert.NoError(t, ValidateUsername("Alice_1"))
	assert.Error(t, ValidateUsername("a"), "too short")
	assert.Error(t, ValidateUsername("this-username-is-way-too-long-for-the-rule"))
	assert.Error(t, ValidateUsername("bad name"), "space is not in the allowed set")
}

func TestLobbyManager_SetColorRejectsUnknownColor(t *testing.T) {
	lm := NewLobbyManager()
	lobby, _ := lm.Create("host-1", "Alice", 4)

	_, err := lm.SetColor(lobby.Code, "host-1", engine.PlayerColor("purple"))
	assert.ErrorContains(t, err, "InvalidPayload")
}

package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catan-server/internal/boardgame/engine"
	"catan-server/internal/boardgame/match"
)

func testPlayers() []engine.NewPlayerInput {
	return []engine.NewPlayerInput{
		{ID: "p0", UserID: "p0", Username: "Alice", Color: engine.ColorRed},
		{ID: "p1", UserID: "p1", Username: "Bob", Color: engine.ColorBlue},
		{ID: "p2", UserID: "p2", Username: "Carol", Color: engine.ColorOrange},
	}
}

func TestGameActor_SubmitAppliesStateOnSuccess(t *testing.T) {
	a := NewGameActor("g1", "G1CODE", testPlayers(), 42)
	defer a.Stop()

	events, err := a.Submit("p0", match.Command{Type: match.ActionRollForOrder})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "game:roll_for_order_result", events[0].Type)

	snap := a.Snapshot()
	require.NotNil(t, snap.RollForOrderState)
	_, rolled := snap.RollForOrderState.Rolls["p0"]
	assert.True(t, rolled)
}

func TestGameActor_SubmitRejectsUnknownPlayer(t *testing.T) {
	a := NewGameActor("g1", "G1CODE", testPlayers(), 42)
	defer a.Stop()

	_, err := a.Submit("ghost", match.Command{Type: match.ActionRollForOrder})
	require.Error(t, err)

	gerr, ok := err.(*engine.GameError)
	require.True(t, ok)
	assert.Equal(t, engine.ErrNotInGame, gerr.Kind)
}

func TestGameActor_FailedCommandLeavesStateUnchanged(t *testing.T) {
	a := NewGameActor("g1", "G1CODE", testPlayers(), 42)
	defer a.Stop()

	before := a.Snapshot()
	_, err := a.Submit("p0", match.Command{Type: match.ActionBuildRoad, EdgeID: "e_does_not_exist"})
	require.Error(t, err)

	after := a.Snapshot()
	assert.Equal(t, before.Phase, after.Phase)
	assert.Empty(t, after.Roads)
}

func TestGameActor_SubmitReturnsBusyWhenQueueSaturated(t *testing.T) {
	a := NewGameActor("g1", "G1CODE", testPlayers(), 42)
	defer a.Stop()

	// Stall the actor's single consumer goroutine on an unbuffered,
	// never-read reply channel so it stops pulling from cmdCh, then
	// fill the now-idle queue to capacity directly.
	stall := submission{playerID: "p0", cmd: match.Command{Type: match.ActionEndTurn}, reply: make(chan submissionResult)}
	a.cmdCh <- stall
	time.Sleep(50 * time.Millisecond)

	for i := 0; i < commandQueueSize; i++ {
		a.cmdCh <- submission{playerID: "p0", cmd: match.Command{Type: match.ActionEndTurn}, reply: make(chan submissionResult, 1)}
	}

	_, err := a.Submit("p0", match.Command{Type: match.ActionEndTurn})
	assert.Equal(t, ErrBusy, err)
}

func TestGameActor_SubscribeReceivesBroadcastEvents(t *testing.T) {
	a := NewGameActor("g1", "G1CODE", testPlayers(), 42)
	defer a.Stop()

	ch := a.Subscribe("p1")

	_, err := a.Submit("p0", match.Command{Type: match.ActionRollForOrder})
	require.NoError(t, err)

	select {
	case ev := <-ch:
		assert.Equal(t, "game:roll_for_order_result", ev.Type)
	case <-time.After(time.Second):
		t.Fatal("expected a broadcast event within one second")
	}
}

func TestGameActor_UnsubscribeClosesChannel(t *testing.T) {
	a := NewGameActor("g1", "G1CODE", testPlayers(), 42)
	defer a.Stop()

	ch := a.Subscribe("p1")
	a.Unsubscribe("p1")

	_, ok := <-ch
	assert.False(t, ok, "channel should be closed after Unsubscribe")
}

func TestGameActor_TickerExpiresStaleTrade(t *testing.T) {
	a := NewGameActor("g1", "G1CODE", testPlayers(), 42)
	defer a.Stop()

	a.stateMu.Lock()
	a.state.Phase = engine.PhasePlaying
	a.state.TurnPhase = engine.TurnPhaseMain
	a.state.TurnOrder = []string{"p0", "p1", "p2"}
	a.state.CurrentPlayerIndex = 0
	a.state.ActiveTrade = &engine.TradeProposal{
		ID: "t1", ProposerID: "p0",
		ExpiresAt: time.Now().Add(-time.Second),
	}
	a.stateMu.Unlock()

	ch := a.Subscribe("p1")

	select {
	case ev := <-ch:
		assert.Equal(t, "trade:cancelled", ev.Type)
	case <-time.After(2 * tradeExpiryTick):
		t.Fatal("expected the ticker to expire the stale trade")
	}

	assert.Nil(t, a.Snapshot().ActiveTrade)
}

func TestGameActor_StopRejectsQueuedSubmissions(t *testing.T) {
	a := NewGameActor("g1", "G1CODE", testPlayers(), 42)
	a.Stop()

	_, err := a.Submit("p0", match.Command{Type: match.ActionRollForOrder})
	assert.Error(t, err)
}

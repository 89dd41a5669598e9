package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catan-server/internal/boardgame/engine"
)

func fourPlayerOrder() []string {
	return []string{"p0", "p1", "p2", "p3"}
}

// stateWithSetup builds a minimal GameState sitting in the middle of
// setup, just for exercising advanceSetup's pure state-diff logic —
// it never touches the board, so it doesn't need a real one.
func stateWithSetup(phase engine.Phase, seatIndex int, round int, awaitingRoad bool) engine.GameState {
	return engine.GameState{
		Phase:              phase,
		TurnOrder:          fourPlayerOrder(),
		CurrentPlayerIndex: seatIndex,
		SetupState: &engine.SetupState{
			Round:        round,
			AwaitingRoad: awaitingRoad,
		},
	}
}

func TestAdvanceSetup_RoadNotYetPlaced(t *testing.T) {
	// A settlement just landed; AwaitingRoad is still true on "after"
	// because the road hasn't been built yet. Nothing should advance.
	before := stateWithSetup(engine.PhaseSetupFirst, 1, 1, false)
	after := stateWithSetup(engine.PhaseSetupFirst, 1, 1, true)

	next, events := advanceSetup(before, after)

	assert.Equal(t, 1, next.CurrentPlayerIndex)
	assert.Empty(t, events)
}

func TestAdvanceSetup_FirstRoundAdvancesForward(t *testing.T) {
	before := stateWithSetup(engine.PhaseSetupFirst, 1, 1, true)
	after := stateWithSetup(engine.PhaseSetupFirst, 1, 1, false)

	next, events := advanceSetup(before, after)

	assert.Equal(t, 2, next.CurrentPlayerIndex)
	assert.Equal(t, engine.PhaseSetupFirst, next.Phase)
	require.NotNil(t, next.SetupState)
	assert.Equal(t, 1, next.SetupState.Round)
	assert.Empty(t, events)
}

func TestAdvanceSetup_LastSeatOfFirstRoundTransitionsToSecond(t *testing.T) {
	before := stateWithSetup(engine.PhaseSetupFirst, 3, 1, true)
	after := stateWithSetup(engine.PhaseSetupFirst, 3, 1, false)

	next, events := advanceSetup(before, after)

	assert.Equal(t, engine.PhaseSetupSecond, next.Phase)
	assert.Equal(t, 3, next.CurrentPlayerIndex, "snake order keeps the same seat leading round two")
	require.NotNil(t, next.SetupState)
	assert.Equal(t, 2, next.SetupState.Round)
	require.Len(t, events, 1)
	assert.Equal(t, "game:phase_changed", events[0].Type)
}

func TestAdvanceSetup_SecondRoundAdvancesBackward(t *testing.T) {
	before := stateWithSetup(engine.PhaseSetupSecond, 2, 2, true)
	after := stateWithSetup(engine.PhaseSetupSecond, 2, 2, false)

	next, events := advanceSetup(before, after)

	assert.Equal(t, 1, next.CurrentPlayerIndex)
	assert.Equal(t, engine.PhaseSetupSecond, next.Phase)
	assert.Empty(t, events)
}

func TestAdvanceSetup_SeatZeroFinishesSecondRoundStartsPlay(t *testing.T) {
	before := stateWithSetup(engine.PhaseSetupSecond, 0, 2, true)
	after := stateWithSetup(engine.PhaseSetupSecond, 0, 2, false)

	next, events := advanceSetup(before, after)

	assert.Equal(t, engine.PhasePlaying, next.Phase)
	assert.Equal(t, engine.StatusPlaying, next.Status)
	assert.Equal(t, engine.TurnPhasePreRoll, next.TurnPhase)
	assert.Nil(t, next.SetupState)
	require.Len(t, events, 1)
	assert.Equal(t, "game:started", events[0].Type)
}

func TestAdvanceSetup_NotInSetupIsUntouched(t *testing.T) {
	before := engine.GameState{Phase: engine.PhasePlaying, CurrentPlayerIndex: 2}
	after := engine.GameState{Phase: engine.PhasePlaying, CurrentPlayerIndex: 2}

	next, events := advanceSetup(before, after)

	assert.Equal(t, after, next)
	assert.Empty(t, events)
}

func TestDispatch_UnknownActionIsInvalidPayload(t *testing.T) {
	_, _, err := Dispatch(engine.GameState{}, Command{Type: ActionType("not_a_real_action")}, nil)

	require.Error(t, err)
	gerr, ok := err.(*engine.GameError)
	require.True(t, ok)
	assert.Equal(t, engine.ErrInvalidPayload, gerr.Kind)
}

func TestDispatch_BuildRoadPropagatesEngineError(t *testing.T) {
	s := engine.GameState{
		Phase:     engine.PhasePlaying,
		TurnPhase: engine.TurnPhaseMain,
		TurnOrder: fourPlayerOrder(),
		Players: []engine.PlayerState{
			{ID: "p0"}, {ID: "p1"}, {ID: "p2"}, {ID: "p3"},
		},
	}

	_, events, err := Dispatch(s, Command{Type: ActionBuildRoad, PlayerID: "p0", EdgeID: "e_does_not_exist"}, nil)

	require.Error(t, err)
	assert.Nil(t, events)
}

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndTurn_RejectsOutsidePlayingPhase(t *testing.T) {
	s := playingGameWithHexes(testPlayers(), nil)
	s.Phase = PhaseSetupFirst
	s.TurnPhase = TurnPhaseMain

	_, _, err := EndTurn(s, "p0")
	gerr, ok := err.(*GameError)
	require.True(t, ok)
	assert.Equal(t, ErrWrongPhase, gerr.Kind)
}

func TestEndTurn_RejectsWrongTurnPhase(t *testing.T) {
	s := playingGameWithHexes(testPlayers(), nil)

	_, _, err := EndTurn(s, "p0")
	gerr, ok := err.(*GameError)
	require.True(t, ok)
	assert.Equal(t, ErrWrongTurnPhase, gerr.Kind)
}

func TestEndTurn_RejectsNotYourTurn(t *testing.T) {
	s := playingGameWithHexes(testPlayers(), nil)
	s.TurnPhase = TurnPhaseMain

	_, _, err := EndTurn(s, "p1")
	gerr, ok := err.(*GameError)
	require.True(t, ok)
	assert.Equal(t, ErrNotYourTurn, gerr.Kind)
}

func TestEndTurn_AdvancesToNextSeat(t *testing.T) {
	s := playingGameWithHexes(testPlayers(), nil)
	s.TurnPhase = TurnPhaseMain
	s.LastDiceRoll = &DiceRoll{Die1: 3, Die2: 4}

	next, events, err := EndTurn(s, "p0")
	require.NoError(t, err)
	assert.Equal(t, 1, next.CurrentPlayerIndex)
	assert.Equal(t, "p1", next.ActivePlayerID())
	assert.Equal(t, 1, next.TurnNumber)
	assert.Equal(t, TurnPhasePreRoll, next.TurnPhase)
	assert.Nil(t, next.LastDiceRoll)
	assert.Equal(t, "game:turn_changed", events[0].Type)
}

func TestEndTurn_WrapsAroundAndIncrementsTurnNumber(t *testing.T) {
	s := playingGameWithHexes(testPlayers(), nil)
	s.TurnPhase = TurnPhaseMain
	s.CurrentPlayerIndex = len(s.TurnOrder) - 1

	next, _, err := EndTurn(s, s.ActivePlayerID())
	require.NoError(t, err)
	assert.Equal(t, 0, next.CurrentPlayerIndex)
	assert.Equal(t, "p0", next.ActivePlayerID())
	assert.Equal(t, 2, next.TurnNumber)
}

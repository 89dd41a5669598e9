package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecomputeWinner_NoopBelowThreshold(t *testing.T) {
	s := playingGameWithHexes(testPlayers(), nil)
	s.Players[0].PublicVictoryPoints = 9

	next := s.Clone()
	recomputeWinner(&next)

	assert.Equal(t, "", next.WinnerID)
	assert.Equal(t, StatusPlaying, next.Status)
	assert.Equal(t, PhasePlaying, next.Phase)
}

func TestRecomputeWinner_TriggersOnPublicPointsAlone(t *testing.T) {
	s := playingGameWithHexes(testPlayers(), nil)
	s.Players[0].PublicVictoryPoints = 10

	next := s.Clone()
	recomputeWinner(&next)

	assert.Equal(t, "p0", next.WinnerID)
	assert.Equal(t, StatusFinished, next.Status)
	assert.Equal(t, PhaseFinished, next.Phase)
}

func TestRecomputeWinner_CountsHiddenVictoryPointCards(t *testing.T) {
	s := playingGameWithHexes(testPlayers(), nil)
	s.Players[0].PublicVictoryPoints = 8
	s.Players[0].DevCards = []DevCard{
		{ID: "vp1", Type: DevCardVictoryPoint},
		{ID: "vp2", Type: DevCardVictoryPoint},
	}

	next := s.Clone()
	recomputeWinner(&next)

	require.Equal(t, "p0", next.WinnerID)
}

func TestRecomputeWinner_IsIdempotentOnceDecided(t *testing.T) {
	s := playingGameWithHexes(testPlayers(), nil)
	s.Players[0].PublicVictoryPoints = 10
	s.Players[1].PublicVictoryPoints = 11
	s.WinnerID = "p0"
	s.Status = StatusFinished
	s.Phase = PhaseFinished

	next := s.Clone()
	recomputeWinner(&next)

	assert.Equal(t, "p0", next.WinnerID, "an already-decided winner is never overwritten")
}

func TestRecomputeWinner_FirstQualifyingPlayerWinsOnTies(t *testing.T) {
	s := playingGameWithHexes(testPlayers(), nil)
	s.Players[0].PublicVictoryPoints = 10
	s.Players[1].PublicVictoryPoints = 10

	next := s.Clone()
	recomputeWinner(&next)

	assert.Equal(t, "p0", next.WinnerID)
}

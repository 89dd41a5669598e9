package engine

import "time"

// recomputeWinner checks every player's total victory points (public
// plus hidden victory-point cards) after any mutation that could
// change them. The first player found at or above 10 wins; ties are
// broken by player order, which can only happen if two players cross
// the threshold in the very same command (e.g. a monopoly that hands
// the proposer enough resources to immediately build a winning city
// — the check still fires on the active player's own turn, since
// hidden VP cards never move on their own).
func recomputeWinner(next *GameState) {
	if next.WinnerID != "" {
		return
	}
	for _, p := range next.Players {
		if p.TotalVictoryPoints() >= 10 {
			next.WinnerID = p.ID
			next.Status = StatusFinished
			next.Phase = PhaseFinished
			next.FinishedAt = time.Now()
			return
		}
	}
}

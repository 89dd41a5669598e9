package engine

// MoveRobber relocates the robber to targetHexID, chosen by the
// active player. Any land hex other than the robber's current hex is
// legal, including the desert. If the new hex carries no opponent
// buildings, the turn skips straight to main; otherwise it advances to
// robber_steal and waits for StealResource.
func MoveRobber(s GameState, playerID, targetHexID string) (GameState, []Event, error) {
	if s.Phase != PhasePlaying {
		return s, nil, newError(ErrWrongPhase, "robber can only move during play")
	}
	if s.ActivePlayerID() != playerID {
		return s, nil, newError(ErrNotYourTurn, "it is not %s's turn", playerID)
	}
	if s.TurnPhase != TurnPhaseRobberMove {
		return s, nil, newError(ErrWrongTurnPhase, "robber is not awaiting a move")
	}
	if targetHexID == s.RobberHex {
		return s, nil, newError(ErrIllegalPlacement, "robber must move to a different hex")
	}
	if _, ok := s.Board.HexByID[targetHexID]; !ok {
		return s, nil, newError(ErrInvalidID, "unknown hex %s", targetHexID)
	}

	next := s.Clone()
	next.RobberHex = targetHexID

	victims := eligibleVictims(next, targetHexID, playerID)
	if len(victims) == 0 {
		next.TurnPhase = TurnPhaseMain
	} else {
		next.TurnPhase = TurnPhaseRobberSteal
	}

	return next, []Event{{Type: "robber:moved", Payload: map[string]any{
		"hexId":   targetHexID,
		"victims": victims,
	}}}, nil
}

// eligibleVictims lists the player IDs, other than activePlayerID,
// who own a settlement or city on a vertex touching hexID.
func eligibleVictims(s GameState, hexID, activePlayerID string) []string {
	topo := buildTopology(s.Board)
	seen := map[string]bool{}
	var out []string
	for _, vertexID := range topo.hexVertices[hexID] {
		b, ok := s.Buildings[vertexID]
		if !ok || b.PlayerID == activePlayerID || seen[b.PlayerID] {
			continue
		}
		seen[b.PlayerID] = true
		out = append(out, b.PlayerID)
	}
	return out
}

// StealResource completes the robber sequence: the active player
// names a victim among those eligible on the robber's current hex. If
// the victim holds no cards, the steal is skipped. Otherwise one
// resource is chosen uniformly at random, weighted by the victim's
// hand composition, and moves to the thief.
func StealResource(s GameState, playerID, victimID string, rng RNG) (GameState, []Event, error) {
	if s.Phase != PhasePlaying {
		return s, nil, newError(ErrWrongPhase, "stealing can only happen during play")
	}
	if s.ActivePlayerID() != playerID {
		return s, nil, newError(ErrNotYourTurn, "it is not %s's turn", playerID)
	}
	if s.TurnPhase != TurnPhaseRobberSteal {
		return s, nil, newError(ErrWrongTurnPhase, "no steal is pending")
	}

	eligible := eligibleVictims(s, s.RobberHex, playerID)
	valid := false
	for _, v := range eligible {
		if v == victimID {
			valid = true
			break
		}
	}
	if !valid {
		return s, nil, newError(ErrIllegalPlacement, "%s is not a valid steal target", victimID)
	}

	next := s.Clone()
	victimIdx := next.PlayerIndex(victimID)
	thiefIdx := next.PlayerIndex(playerID)

	victim := next.Players[victimIdx]
	resource, ok := pickWeightedResource(rng, victim.Resources)
	next.TurnPhase = TurnPhaseMain

	if !ok {
		return next, []Event{{Type: "robber:steal", Payload: map[string]any{
			"thiefId": playerID, "victimId": victimID, "skipped": true,
		}}}, nil
	}

	next.Players[victimIdx].Resources[resource]--
	next.Players[thiefIdx].Resources[resource]++

	return next, []Event{{Type: "robber:steal", Payload: map[string]any{
		"thiefId": playerID, "victimId": victimID, "resource": resource,
	}}}, nil
}

// Discard satisfies one entry of the post-seven discard fence. It
// fails if playerID has no pending entry, or if the submitted
// discard's total doesn't match the required count, or if the player
// doesn't hold what they're trying to discard. The turn-phase only
// advances past discard once every pending entry is cleared.
func Discard(s GameState, playerID string, discarded ResourceCount) (GameState, []Event, error) {
	if s.TurnPhase != TurnPhaseDiscard {
		return s, nil, newError(ErrWrongTurnPhase, "no discard is pending")
	}
	if discarded.HasNegative() {
		return s, nil, newError(ErrInvalidPayload, "discard counts must be non-negative")
	}

	idx := -1
	for i, pd := range s.PendingDiscards {
		if pd.PlayerID == playerID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return s, nil, newError(ErrIllegalPlacement, "%s has no pending discard", playerID)
	}
	required := s.PendingDiscards[idx].Count
	if discarded.Total() != required {
		return s, nil, newError(ErrInvalidPayload, "must discard exactly %d cards, got %d", required, discarded.Total())
	}

	playerIdx := s.PlayerIndex(playerID)
	if playerIdx < 0 {
		return s, nil, newError(ErrNotInGame, "%s is not in this game", playerID)
	}
	if !s.Players[playerIdx].Resources.Affords(discarded) {
		return s, nil, newError(ErrCannotAfford, "%s does not hold the cards it tried to discard", playerID)
	}

	next := s.Clone()
	next.Players[playerIdx].Resources = next.Players[playerIdx].Resources.Sub(discarded)
	next.Bank = next.Bank.Add(discarded)
	next.PendingDiscards = append(next.PendingDiscards[:idx], next.PendingDiscards[idx+1:]...)

	if len(next.PendingDiscards) == 0 {
		next.TurnPhase = TurnPhaseRobberMove
	}

	return next, []Event{{Type: "robber:player_discarded", Payload: map[string]any{
		"playerId": playerID, "count": required,
	}}}, nil
}

package engine

import "catan-server/internal/boardgame/board"

// RollDice rolls both dice for the active player during pre_roll. On a
// non-seven sum it distributes production and advances straight to
// main. On seven it builds pendingDiscards (if any hand exceeds 7
// cards) and advances to discard or directly to robber_move.
func RollDice(s GameState, playerID string, rng RNG) (GameState, []Event, error) {
	if s.Phase != PhasePlaying {
		return s, nil, newError(ErrWrongPhase, "dice can only be rolled during play")
	}
	if s.ActivePlayerID() != playerID {
		return s, nil, newError(ErrNotYourTurn, "it is not %s's turn", playerID)
	}
	if s.TurnPhase != TurnPhasePreRoll {
		return s, nil, newError(ErrWrongTurnPhase, "dice already rolled this turn")
	}

	roll := rollDice(rng)
	next := s.Clone()
	next.LastDiceRoll = &roll

	events := []Event{{Type: "dice:rolled", Payload: roll}}

	if roll.Sum() != 7 {
		distributed := applyProduction(&next, roll.Sum())
		next.TurnPhase = TurnPhaseMain
		events = append(events, Event{Type: "dice:resources_distributed", Payload: distributed})
		return next, events, nil
	}

	pending := buildPendingDiscards(next.Players)
	next.PendingDiscards = pending
	if len(pending) > 0 {
		next.TurnPhase = TurnPhaseDiscard
		events = append(events, Event{Type: "robber:discard_required", Payload: pending})
	} else {
		next.TurnPhase = TurnPhaseRobberMove
		events = append(events, Event{Type: "robber:activated", Payload: nil})
	}
	return next, events, nil
}

// ProductionEntry records one player's resource gain from a single
// roll, for the dice:resources_distributed event payload.
type ProductionEntry struct {
	PlayerID string        `json:"playerId"`
	Gained   ResourceCount `json:"gained"`
}

// applyProduction mutates next in place (next is already a private
// clone owned by the caller) crediting every building adjacent to a
// hex matching diceSum, honoring the bank-scarcity rule per resource:
// if the bank can't cover every recipient in full and more than one
// player would receive the resource, nobody gets it this roll; if
// exactly one recipient would receive it, they get as much as the
// bank can still pay.
func applyProduction(next *GameState, diceSum int) []ProductionEntry {
	topo := buildTopology(next.Board)

	owed := make(map[string]ResourceCount, len(next.Players))
	for _, p := range next.Players {
		owed[p.ID] = NewResourceCount()
	}

	for _, h := range next.Board.Hexes {
		if h.ID == next.RobberHex {
			continue
		}
		if h.NumberToken != diceSum {
			continue
		}
		resource := h.Terrain.Resource()
		if resource == "" {
			continue
		}
		for _, vertexID := range topo.hexVertices[h.ID] {
			b, ok := next.Buildings[vertexID]
			if !ok {
				continue
			}
			amount := 1
			if b.Type == BuildingCity {
				amount = 2
			}
			owed[b.PlayerID][resource] += amount
		}
	}

	grant := make(map[string]ResourceCount, len(next.Players))
	for _, p := range next.Players {
		grant[p.ID] = NewResourceCount()
	}

	for _, resource := range board.AllResources {
		total := 0
		recipients := 0
		for _, p := range next.Players {
			if n := owed[p.ID][resource]; n > 0 {
				total += n
				recipients++
			}
		}
		if total == 0 {
			continue
		}
		available := next.Bank[resource]
		switch {
		case total <= available:
			for _, p := range next.Players {
				if n := owed[p.ID][resource]; n > 0 {
					grant[p.ID][resource] = n
				}
			}
			next.Bank[resource] -= total
		case recipients == 1:
			for _, p := range next.Players {
				if n := owed[p.ID][resource]; n > 0 {
					paid := n
					if paid > available {
						paid = available
					}
					grant[p.ID][resource] = paid
					next.Bank[resource] -= paid
				}
			}
		default:
			// More than one recipient and the bank can't cover every
			// one of them in full: nobody receives this resource.
		}
	}

	entries := make([]ProductionEntry, 0, len(next.Players))
	for i, p := range next.Players {
		g := grant[p.ID]
		next.Players[i].Resources = p.Resources.Add(g)
		entries = append(entries, ProductionEntry{PlayerID: p.ID, Gained: g})
	}
	return entries
}

// buildPendingDiscards lists every player whose hand exceeds 7 cards,
// each owing floor(handSize/2).
func buildPendingDiscards(players []PlayerState) []PendingDiscard {
	var out []PendingDiscard
	for _, p := range players {
		total := p.Resources.Total()
		if total > 7 {
			out = append(out, PendingDiscard{PlayerID: p.ID, Count: total / 2})
		}
	}
	return out
}

package engine

import "sort"

// RollForOrder records playerID's single seating-order roll. Once
// every player has rolled, turn order is fixed as the descending-total
// order (ties broken by original seating) and the game moves into
// setup_first at seat 0 of that new order.
func RollForOrder(s GameState, playerID string, rng RNG) (GameState, []Event, error) {
	if s.Phase != PhaseRollForOrder {
		return s, nil, newError(ErrWrongPhase, "roll-for-order has already completed")
	}
	if s.PlayerIndex(playerID) < 0 {
		return s, nil, newError(ErrNotInGame, "%s is not in this game", playerID)
	}

	next := s.Clone()
	if next.RollForOrderState == nil {
		next.RollForOrderState = &RollForOrderState{Rolls: map[string]DiceRoll{}}
	}
	if _, already := next.RollForOrderState.Rolls[playerID]; already {
		return s, nil, newError(ErrIllegalPlacement, "%s has already rolled for order", playerID)
	}

	roll := rollDice(rng)
	next.RollForOrderState.Rolls[playerID] = roll
	next.RollForOrderState.Rolled = append(next.RollForOrderState.Rolled, playerID)

	events := []Event{{Type: "game:roll_for_order_result", Payload: map[string]any{
		"playerId": playerID, "roll": roll, "complete": false,
	}}}

	if len(next.RollForOrderState.Rolled) == len(next.Players) {
		order := make([]string, len(next.Players))
		for i, p := range next.Players {
			order[i] = p.ID
		}
		sort.SliceStable(order, func(i, j int) bool {
			return next.RollForOrderState.Rolls[order[i]].Sum() > next.RollForOrderState.Rolls[order[j]].Sum()
		})
		next.TurnOrder = order
		next.Phase = PhaseSetupFirst
		next.CurrentPlayerIndex = 0
		next.SetupState = &SetupState{Round: 1}

		events = append(events, Event{Type: "game:started", Payload: map[string]any{"turnOrder": order}})
	}

	return next, events, nil
}

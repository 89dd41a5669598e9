package engine

func devCardCost() ResourceCount {
	return ResourceCount{"ore": 1, "grain": 1, "wool": 1}
}

// BuyDevCard draws the top card of the shuffled deck for playerID,
// tagging it with the current turn number so it can't be played this
// same turn. Victory-point cards contribute to TotalVictoryPoints
// immediately but stay hidden in the wire snapshot until revealed at
// victory.
func BuyDevCard(s GameState, playerID string) (GameState, []Event, error) {
	if s.Phase != PhasePlaying || s.TurnPhase != TurnPhaseMain {
		return s, nil, newError(ErrWrongTurnPhase, "dev cards can only be bought during the main turn phase")
	}
	if s.ActivePlayerID() != playerID {
		return s, nil, newError(ErrNotYourTurn, "it is not %s's turn", playerID)
	}
	playerIdx := s.PlayerIndex(playerID)
	if playerIdx < 0 {
		return s, nil, newError(ErrNotInGame, "%s is not in this game", playerID)
	}
	if len(s.DevCardDeck) == 0 {
		return s, nil, newError(ErrDeckEmpty, "the development card deck is empty")
	}
	cost := devCardCost()
	if !s.Players[playerIdx].Resources.Affords(cost) {
		return s, nil, newError(ErrCannotAfford, "%s cannot afford a development card", playerID)
	}

	next := s.Clone()
	card, remaining, _ := drawCard(next.DevCardDeck)
	card.PurchasedOnTurn = next.TurnNumber
	next.DevCardDeck = remaining
	next.DevCardDeckCount = len(remaining)

	player := next.Players[playerIdx]
	player.Resources = player.Resources.Sub(cost)
	player.DevCards = append(player.DevCards, card)
	next.Players[playerIdx] = player
	next.Bank = next.Bank.Add(cost)

	recomputeWinner(&next)

	return next, []Event{{Type: "devcard:purchased", Payload: map[string]any{
		"playerId": playerID, "cardId": card.ID,
	}}}, nil
}

// findPlayableCard locates an unplayed, not-bought-this-turn card of
// the given type in playerID's hand.
func findPlayableCard(s GameState, playerIdx int, cardType DevCardType) (int, error) {
	for i, c := range s.Players[playerIdx].DevCards {
		if c.Type == cardType && !c.Played && c.PurchasedOnTurn < s.TurnNumber {
			return i, nil
		}
	}
	return -1, newError(ErrIllegalPlacement, "no playable %s card", cardType)
}

// PlayKnight marks one knight card played and enters the robber
// sequence from its move step (no discard fence). It may be played in
// pre_roll or main, per the canonical ruling that pre-roll knight play
// is allowed. The robber sequence always ends in the main turn phase,
// so no dice roll follows a knight played in pre_roll.
func PlayKnight(s GameState, playerID string) (GameState, []Event, error) {
	if s.Phase != PhasePlaying {
		return s, nil, newError(ErrWrongPhase, "knights can only be played during play")
	}
	if s.TurnPhase != TurnPhasePreRoll && s.TurnPhase != TurnPhaseMain {
		return s, nil, newError(ErrWrongTurnPhase, "knights may only be played in pre_roll or main")
	}
	if s.ActivePlayerID() != playerID {
		return s, nil, newError(ErrNotYourTurn, "it is not %s's turn", playerID)
	}
	playerIdx := s.PlayerIndex(playerID)
	if playerIdx < 0 {
		return s, nil, newError(ErrNotInGame, "%s is not in this game", playerID)
	}
	cardIdx, err := findPlayableCard(s, playerIdx, DevCardKnight)
	if err != nil {
		return s, nil, err
	}

	next := s.Clone()
	next.Players[playerIdx].DevCards[cardIdx].Played = true
	next.Players[playerIdx].KnightsPlayed++
	next.TurnPhase = TurnPhaseRobberMove

	recomputeLargestArmy(&next)
	recomputeWinner(&next)

	return next, []Event{{Type: "devcard:played", Payload: map[string]any{
		"playerId": playerID, "type": DevCardKnight,
	}}, {Type: "robber:activated", Payload: nil}}, nil
}

// PlayRoadBuilding marks the card played and opens up to two free
// road placements via BuildRoad.
func PlayRoadBuilding(s GameState, playerID string) (GameState, []Event, error) {
	next, cardIdx, playerIdx, err := beginMainPhaseCard(s, playerID, DevCardRoadBuilding)
	if err != nil {
		return s, nil, err
	}
	next.Players[playerIdx].DevCards[cardIdx].Played = true
	next.TurnPhase = TurnPhaseRoadBuilding
	next.RoadBuildingRoadsPlaced = 0

	return next, []Event{{Type: "devcard:played", Payload: map[string]any{
		"playerId": playerID, "type": DevCardRoadBuilding,
	}}}, nil
}

// StopRoadBuilding lets the active player end the road_building phase
// early, when fewer than two legal edges remain.
func StopRoadBuilding(s GameState, playerID string) (GameState, []Event, error) {
	if s.TurnPhase != TurnPhaseRoadBuilding {
		return s, nil, newError(ErrWrongTurnPhase, "not in road_building")
	}
	if s.ActivePlayerID() != playerID {
		return s, nil, newError(ErrNotYourTurn, "it is not %s's turn", playerID)
	}
	next := s.Clone()
	next.TurnPhase = TurnPhaseMain
	next.RoadBuildingRoadsPlaced = 0
	return next, nil, nil
}

// PlayYearOfPlenty marks the card played and grants the two nominated
// resources from the bank. The bank must hold each (if the same
// resource is named twice, the bank must hold at least two).
func PlayYearOfPlenty(s GameState, playerID string, first, second Resource) (GameState, []Event, error) {
	next, cardIdx, playerIdx, err := beginMainPhaseCard(s, playerID, DevCardYearOfPlenty)
	if err != nil {
		return s, nil, err
	}

	want := NewResourceCount()
	want[first]++
	want[second]++
	for r, n := range want {
		if s.Bank[r] < n {
			return s, nil, newError(ErrBankShortage, "bank does not have %d %s remaining", n, r)
		}
	}

	next.Players[playerIdx].DevCards[cardIdx].Played = true
	next.Players[playerIdx].Resources = next.Players[playerIdx].Resources.Add(want)
	next.Bank = next.Bank.Sub(want)

	return next, []Event{{Type: "devcard:played", Payload: map[string]any{
		"playerId": playerID, "type": DevCardYearOfPlenty, "resources": want,
	}}}, nil
}

// PlayMonopoly marks the card played and transfers every other
// player's holding of the nominated resource to the active player.
func PlayMonopoly(s GameState, playerID string, resource Resource) (GameState, []Event, error) {
	next, cardIdx, playerIdx, err := beginMainPhaseCard(s, playerID, DevCardMonopoly)
	if err != nil {
		return s, nil, err
	}

	next.Players[playerIdx].DevCards[cardIdx].Played = true

	collected := 0
	for i := range next.Players {
		if i == playerIdx {
			continue
		}
		n := next.Players[i].Resources[resource]
		if n == 0 {
			continue
		}
		next.Players[i].Resources[resource] = 0
		collected += n
	}
	next.Players[playerIdx].Resources[resource] += collected

	recomputeWinner(&next)

	return next, []Event{{Type: "devcard:played", Payload: map[string]any{
		"playerId": playerID, "type": DevCardMonopoly, "resource": resource, "collected": collected,
	}}}, nil
}

// beginMainPhaseCard validates the common preconditions shared by the
// three main-phase-only dev cards (road building, year of plenty,
// monopoly) and returns a clone plus the located card and player
// indices, ready for the caller to mark played and apply its effect.
func beginMainPhaseCard(s GameState, playerID string, cardType DevCardType) (GameState, int, int, error) {
	if s.Phase != PhasePlaying || s.TurnPhase != TurnPhaseMain {
		return s, 0, 0, newError(ErrWrongTurnPhase, "%s may only be played during the main turn phase", cardType)
	}
	if s.ActivePlayerID() != playerID {
		return s, 0, 0, newError(ErrNotYourTurn, "it is not %s's turn", playerID)
	}
	playerIdx := s.PlayerIndex(playerID)
	if playerIdx < 0 {
		return s, 0, 0, newError(ErrNotInGame, "%s is not in this game", playerID)
	}
	if s.Players[playerIdx].DevCardPlayedThisTurn {
		return s, 0, 0, newError(ErrIllegalPlacement, "%s has already played a development card this turn", playerID)
	}
	cardIdx, err := findPlayableCard(s, playerIdx, cardType)
	if err != nil {
		return s, 0, 0, err
	}
	next := s.Clone()
	next.Players[playerIdx].DevCardPlayedThisTurn = true
	return next, cardIdx, playerIdx, nil
}

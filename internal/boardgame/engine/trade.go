package engine

import (
	"time"

	"catan-server/internal/boardgame/board"
)

// TradeExpiry is the fixed lifetime of a proposed trade.
const TradeExpiry = 60 * time.Second

// ProposeTrade opens the game's one allowed in-flight trade. Only the
// active player may propose, and only during their main turn-phase —
// mirroring the bank/port trade intents, which are also main-phase
// only actions for the active player.
func ProposeTrade(s GameState, playerID, targetPlayerID string, give, want ResourceCount, id string, now time.Time) (GameState, []Event, error) {
	if s.Phase != PhasePlaying || s.TurnPhase != TurnPhaseMain {
		return s, nil, newError(ErrWrongTurnPhase, "trades may only be proposed during the main turn phase")
	}
	if s.ActivePlayerID() != playerID {
		return s, nil, newError(ErrNotYourTurn, "it is not %s's turn", playerID)
	}
	if give.HasNegative() || want.HasNegative() {
		return s, nil, newError(ErrInvalidPayload, "trade amounts must be non-negative")
	}
	if s.ActiveTrade != nil {
		return s, nil, newError(ErrIllegalPlacement, "a trade is already in progress")
	}
	player, ok := s.Player(playerID)
	if !ok {
		return s, nil, newError(ErrNotInGame, "%s is not in this game", playerID)
	}
	if !player.Resources.Affords(give) {
		return s, nil, newError(ErrCannotAfford, "%s cannot offer what it does not hold", playerID)
	}
	if targetPlayerID != "" && s.PlayerIndex(targetPlayerID) < 0 {
		return s, nil, newError(ErrNotInGame, "%s is not in this game", targetPlayerID)
	}

	next := s.Clone()
	next.ActiveTrade = &TradeProposal{
		ID:             id,
		ProposerID:     playerID,
		TargetPlayerID: targetPlayerID,
		Give:           give.Clone(),
		Want:           want.Clone(),
		CreatedAt:      now,
		ExpiresAt:      now.Add(TradeExpiry),
	}

	return next, []Event{{Type: "trade:proposed", Payload: next.ActiveTrade}}, nil
}

// expireIfDue clears the active trade if now is past its expiry,
// returning whether it did so.
func expireIfDue(s *GameState, now time.Time) bool {
	if s.ActiveTrade == nil || now.Before(s.ActiveTrade.ExpiresAt) {
		return false
	}
	s.ActiveTrade = nil
	return true
}

// ExpireTrade clears the active trade if its 60-second window has
// elapsed. The session actor calls this on a timer so a stalled
// proposal doesn't linger forever; it's also checked defensively at
// the top of AcceptTrade.
func ExpireTrade(s GameState, now time.Time) (GameState, []Event, error) {
	if s.ActiveTrade == nil {
		return s, nil, nil
	}
	next := s.Clone()
	if expireIfDue(&next, now) {
		return next, []Event{{Type: "trade:cancelled", Payload: map[string]any{"reason": "expired"}}}, nil
	}
	return s, nil, nil
}

func eligibleAcceptor(trade *TradeProposal, playerID string) bool {
	if playerID == trade.ProposerID {
		return false
	}
	return trade.TargetPlayerID == "" || trade.TargetPlayerID == playerID
}

// AcceptTrade validates both parties can still afford their half,
// transfers atomically, and clears the active trade.
func AcceptTrade(s GameState, playerID string, now time.Time) (GameState, []Event, error) {
	if s.ActiveTrade == nil {
		return s, nil, newError(ErrIllegalPlacement, "no trade is in progress")
	}
	if now.After(s.ActiveTrade.ExpiresAt) {
		next := s.Clone()
		expireIfDue(&next, now)
		return next, []Event{{Type: "trade:cancelled", Payload: map[string]any{"reason": "expired"}}}, nil
	}
	if !eligibleAcceptor(s.ActiveTrade, playerID) {
		return s, nil, newError(ErrIllegalPlacement, "%s cannot accept this trade", playerID)
	}

	proposerIdx := s.PlayerIndex(s.ActiveTrade.ProposerID)
	acceptorIdx := s.PlayerIndex(playerID)
	if proposerIdx < 0 || acceptorIdx < 0 {
		return s, nil, newError(ErrNotInGame, "trade participant missing from game")
	}
	give, want := s.ActiveTrade.Give, s.ActiveTrade.Want
	if !s.Players[proposerIdx].Resources.Affords(give) {
		return s, nil, newError(ErrCannotAfford, "proposer can no longer afford this trade")
	}
	if !s.Players[acceptorIdx].Resources.Affords(want) {
		return s, nil, newError(ErrCannotAfford, "%s cannot afford this trade", playerID)
	}

	next := s.Clone()
	next.Players[proposerIdx].Resources = next.Players[proposerIdx].Resources.Sub(give).Add(want)
	next.Players[acceptorIdx].Resources = next.Players[acceptorIdx].Resources.Sub(want).Add(give)
	trade := next.ActiveTrade
	next.ActiveTrade = nil

	return next, []Event{{Type: "trade:completed", Payload: map[string]any{
		"tradeId": trade.ID, "proposerId": trade.ProposerID, "acceptorId": playerID,
	}}}, nil
}

// RejectTrade lets an eligible acceptor decline without transferring
// anything.
func RejectTrade(s GameState, playerID string) (GameState, []Event, error) {
	if s.ActiveTrade == nil {
		return s, nil, newError(ErrIllegalPlacement, "no trade is in progress")
	}
	if !eligibleAcceptor(s.ActiveTrade, playerID) {
		return s, nil, newError(ErrIllegalPlacement, "%s cannot reject this trade", playerID)
	}
	next := s.Clone()
	tradeID := next.ActiveTrade.ID
	next.ActiveTrade = nil
	return next, []Event{{Type: "trade:rejected", Payload: map[string]any{"tradeId": tradeID, "by": playerID}}}, nil
}

// CancelTrade lets the proposer withdraw their own open trade.
func CancelTrade(s GameState, playerID string) (GameState, []Event, error) {
	if s.ActiveTrade == nil {
		return s, nil, newError(ErrIllegalPlacement, "no trade is in progress")
	}
	if s.ActiveTrade.ProposerID != playerID {
		return s, nil, newError(ErrIllegalPlacement, "only the proposer may cancel this trade")
	}
	next := s.Clone()
	tradeID := next.ActiveTrade.ID
	next.ActiveTrade = nil
	return next, []Event{{Type: "trade:cancelled", Payload: map[string]any{"tradeId": tradeID, "reason": "cancelled"}}}, nil
}

// bestRatioFor returns the cheapest bank-trade ratio playerID can use
// for resource: 4:1 by default, 3:1 if they hold a building on a
// generic port, 2:1 if they hold one on that resource's specific port.
func bestRatioFor(s GameState, playerID string, resource Resource) int {
	ratio := 4
	for _, port := range s.Board.Ports {
		if port.Type != board.PortGeneric && string(port.Type) != string(resource) {
			continue
		}
		owned := false
		for _, v := range port.VertexPair {
			if b, ok := s.Buildings[v]; ok && b.PlayerID == playerID {
				owned = true
				break
			}
		}
		if owned && port.Ratio() < ratio {
			ratio = port.Ratio()
		}
	}
	return ratio
}

// BankTrade exchanges giveResource for wantResource at the best ratio
// playerID has access to, either the standard 4:1 or a better port
// ratio.
func BankTrade(s GameState, playerID string, giveResource, wantResource Resource) (GameState, []Event, error) {
	if s.Phase != PhasePlaying || s.TurnPhase != TurnPhaseMain {
		return s, nil, newError(ErrWrongTurnPhase, "bank trades are only allowed during the main turn phase")
	}
	if s.ActivePlayerID() != playerID {
		return s, nil, newError(ErrNotYourTurn, "it is not %s's turn", playerID)
	}
	playerIdx := s.PlayerIndex(playerID)
	if playerIdx < 0 {
		return s, nil, newError(ErrNotInGame, "%s is not in this game", playerID)
	}

	ratio := bestRatioFor(s, playerID, giveResource)
	if s.Players[playerIdx].Resources[giveResource] < ratio {
		return s, nil, newError(ErrCannotAfford, "%s needs %d %s to make this trade", playerID, ratio, giveResource)
	}
	if s.Bank[wantResource] < 1 {
		return s, nil, newError(ErrBankShortage, "bank has no %s remaining", wantResource)
	}

	next := s.Clone()
	next.Players[playerIdx].Resources[giveResource] -= ratio
	next.Players[playerIdx].Resources[wantResource]++
	next.Bank[giveResource] += ratio
	next.Bank[wantResource]--

	return next, []Event{{Type: "trade:completed", Payload: map[string]any{
		"playerId": playerID, "gave": giveResource, "gaveAmount": ratio, "received": wantResource,
	}}}, nil
}

// PortTrade is an alias surface for the same mechanism as BankTrade:
// the ratio is always derived from port ownership automatically, so a
// client-labeled "trade:port" intent and a "trade:bank" intent resolve
// identically once they reach the engine.
func PortTrade(s GameState, playerID string, giveResource, wantResource Resource) (GameState, []Event, error) {
	return BankTrade(s, playerID, giveResource, wantResource)
}

// Package match is the turn/phase state machine (C4): it sequences
// the rules engine's pure actions (C3) — deciding who moves next
// during the two reverse-order setup rounds, and wrapping each action
// with the turn/phase gating spec.md §4.4 describes. The engine
// itself only ever answers "is this specific action legal against
// this exact state right now"; this package is what additionally
// knows "and after that, whose move is it."
package match

import (
	"time"

	"catan-server/internal/boardgame/engine"
)

// ActionType names one client-facing intent. Each maps to exactly one
// rules-engine action, except the setup variants of settlement/road,
// which are the same engine calls as normal play — the distinction
// lives in GameState.Phase, not in the command.
type ActionType string

const (
	ActionRollForOrder     ActionType = "roll_for_order"
	ActionRollDice         ActionType = "roll_dice"
	ActionBuildSettlement  ActionType = "build_settlement"
	ActionBuildCity        ActionType = "build_city"
	ActionBuildRoad        ActionType = "build_road"
	ActionBuyDevCard       ActionType = "buy_dev_card"
	ActionPlayKnight       ActionType = "play_knight"
	ActionPlayRoadBuilding ActionType = "play_road_building"
	ActionStopRoadBuilding ActionType = "stop_road_building"
	ActionPlayYearOfPlenty ActionType = "play_year_of_plenty"
	ActionPlayMonopoly     ActionType = "play_monopoly"
	ActionMoveRobber       ActionType = "move_robber"
	ActionStealResource    ActionType = "steal_resource"
	ActionDiscard          ActionType = "discard"
	ActionProposeTrade     ActionType = "propose_trade"
	ActionAcceptTrade      ActionType = "accept_trade"
	ActionRejectTrade      ActionType = "reject_trade"
	ActionCancelTrade      ActionType = "cancel_trade"
	ActionBankTrade        ActionType = "bank_trade"
	ActionPortTrade        ActionType = "port_trade"
	ActionEndTurn          ActionType = "end_turn"
)

// Command is the single envelope every client intent is translated
// into at the gateway before being enqueued on a game's actor.
type Command struct {
	Type           ActionType
	PlayerID       string
	VertexID       string
	EdgeID         string
	HexID          string
	VictimID       string
	TargetPlayerID string
	TradeID        string
	Discard        engine.ResourceCount
	Give           engine.ResourceCount
	Want           engine.ResourceCount
	FirstResource  engine.Resource
	SecondResource engine.Resource
	Resource       engine.Resource
	Now            time.Time
}

// Dispatch is the single entry point the session actor calls for
// every command: it runs the matching rules-engine action and then
// applies whatever turn/phase sequencing that action's success
// implies (advancing setup rounds, nothing extra for ordinary play
// actions, which already self-manage their own turn-phase via the
// engine).
func Dispatch(s engine.GameState, cmd Command, rng engine.RNG) (engine.GameState, []engine.Event, error) {
	switch cmd.Type {
	case ActionRollForOrder:
		return engine.RollForOrder(s, cmd.PlayerID, rng)

	case ActionRollDice:
		return engine.RollDice(s, cmd.PlayerID, rng)

	case ActionBuildSettlement:
		next, events, err := engine.BuildSettlement(s, cmd.PlayerID, cmd.VertexID)
		if err != nil {
			return s, nil, err
		}
		return next, events, nil

	case ActionBuildCity:
		return engine.UpgradeToCity(s, cmd.PlayerID, cmd.VertexID)

	case ActionBuildRoad:
		next, events, err := engine.BuildRoad(s, cmd.PlayerID, cmd.EdgeID)
		if err != nil {
			return s, nil, err
		}
		next, advanceEvents := advanceSetup(s, next)
		return next, append(events, advanceEvents...), nil

	case ActionBuyDevCard:
		return engine.BuyDevCard(s, cmd.PlayerID)

	case ActionPlayKnight:
		return engine.PlayKnight(s, cmd.PlayerID)

	case ActionPlayRoadBuilding:
		return engine.PlayRoadBuilding(s, cmd.PlayerID)

	case ActionStopRoadBuilding:
		return engine.StopRoadBuilding(s, cmd.PlayerID)

	case ActionPlayYearOfPlenty:
		return engine.PlayYearOfPlenty(s, cmd.PlayerID, cmd.FirstResource, cmd.SecondResource)

	case ActionPlayMonopoly:
		return engine.PlayMonopoly(s, cmd.PlayerID, cmd.Resource)

	case ActionMoveRobber:
		return engine.MoveRobber(s, cmd.PlayerID, cmd.HexID)

	case ActionStealResource:
		return engine.StealResource(s, cmd.PlayerID, cmd.VictimID, rng)

	case ActionDiscard:
		return engine.Discard(s, cmd.PlayerID, cmd.Discard)

	case ActionProposeTrade:
		return engine.ProposeTrade(s, cmd.PlayerID, cmd.TargetPlayerID, cmd.Give, cmd.Want, cmd.TradeID, cmd.Now)

	case ActionAcceptTrade:
		return engine.AcceptTrade(s, cmd.PlayerID, cmd.Now)

	case ActionRejectTrade:
		return engine.RejectTrade(s, cmd.PlayerID)

	case ActionCancelTrade:
		return engine.CancelTrade(s, cmd.PlayerID)

	case ActionBankTrade:
		return engine.BankTrade(s, cmd.PlayerID, cmd.FirstResource, cmd.SecondResource)

	case ActionPortTrade:
		return engine.PortTrade(s, cmd.PlayerID, cmd.FirstResource, cmd.SecondResource)

	case ActionEndTurn:
		return engine.EndTurn(s, cmd.PlayerID)

	default:
		return s, nil, &engine.GameError{Kind: engine.ErrInvalidPayload, Message: "unknown action " + string(cmd.Type)}
	}
}

// advanceSetup inspects whether the just-placed road completed one
// player's setup step and, if so, moves the seat pointer: forward
// through setup_first, then in reverse through setup_second (the same
// player who went last in round one leads round two — the standard
// "snake" order), finally handing off to normal play once the first
// seat finishes its second road.
func advanceSetup(before, after engine.GameState) (engine.GameState, []engine.Event) {
	if after.SetupState == nil || after.SetupState.AwaitingRoad {
		// Either not in setup, or the road hasn't landed yet (this was
		// the settlement half of the step, not the road half).
		return after, nil
	}
	if before.SetupState != nil && !before.SetupState.AwaitingRoad {
		// The road that just landed didn't follow a fresh settlement in
		// this same call; nothing to advance (defensive, should not
		// happen given BuildRoad's own gating).
		return after, nil
	}

	n := len(after.TurnOrder)
	switch after.Phase {
	case engine.PhaseSetupFirst:
		if after.CurrentPlayerIndex == n-1 {
			after.Phase = engine.PhaseSetupSecond
			after.SetupState = &engine.SetupState{Round: 2}
			return after, []engine.Event{{Type: "game:phase_changed", Payload: after.Phase}}
		}
		after.CurrentPlayerIndex++
		after.SetupState = &engine.SetupState{Round: 1}
		return after, nil

	case engine.PhaseSetupSecond:
		if after.CurrentPlayerIndex == 0 {
			after.Phase = engine.PhasePlaying
			after.Status = engine.StatusPlaying
			after.TurnPhase = engine.TurnPhasePreRoll
			after.SetupState = nil
			after.StartedAt = after.CreatedAt
			return after, []engine.Event{{Type: "game:started", Payload: nil}}
		}
		after.CurrentPlayerIndex--
		after.SetupState = &engine.SetupState{Round: 2}
		return after, nil
	}

	return after, nil
}

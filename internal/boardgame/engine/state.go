package engine

import (
	"time"

	"catan-server/internal/boardgame/board"
)

// bankStartingSupply is the standard physical-box count of each
// resource the bank starts with.
const bankStartingSupply = 19

// NewPlayerInput is the per-seat information the lobby hands off when
// constructing a new game.
type NewPlayerInput struct {
	ID       string
	UserID   string
	Username string
	Color    PlayerColor
}

// NewGame constructs the initial GameState for a freshly started game:
// a generated board, a bank at full supply, a shuffled dev-card
// deck, and every player seated with empty hands. Phase starts at
// roll_for_order; the caller (match.Dispatch via the session actor)
// drives the rest of setup.
func NewGame(id, code string, players []NewPlayerInput, rng RNG) GameState {
	b := board.Generate(rng)

	deckTypes := devCardDeckComposition()
	rng.Shuffle(len(deckTypes), func(i, j int) { deckTypes[i], deckTypes[j] = deckTypes[j], deckTypes[i] })
	deck := make([]DevCard, len(deckTypes))
	for i, t := range deckTypes {
		deck[i] = DevCard{ID: devCardID(id, i), Type: t}
	}

	bank := NewResourceCount()
	for _, r := range board.AllResources {
		bank[r] = bankStartingSupply
	}

	ps := make([]PlayerState, len(players))
	turnOrder := make([]string, len(players))
	for i, p := range players {
		ps[i] = PlayerState{
			ID:          p.ID,
			UserID:      p.UserID,
			Username:    p.Username,
			Color:       p.Color,
			Resources:   NewResourceCount(),
			IsConnected: true,
		}
		turnOrder[i] = p.ID
	}

	return GameState{
		ID:                id,
		Code:              code,
		Status:            StatusSetup,
		Phase:             PhaseRollForOrder,
		Board:             b,
		Players:           ps,
		TurnOrder:         turnOrder,
		CurrentPlayerIndex: 0,
		TurnNumber:        1,
		TurnPhase:         TurnPhasePreRoll,
		DevCardDeck:       deck,
		DevCardDeckCount:  len(deck),
		PendingDiscards:   nil,
		RobberHex:         b.RobberHex,
		Buildings:         make(map[string]Building),
		Roads:             make(map[string]Road),
		Bank:              bank,
		CreatedAt:         time.Now(),
	}
}

func devCardID(gameID string, index int) string {
	return gameID + "_dc_" + itoa(index)
}

// itoa avoids pulling in strconv for exactly one call site; kept tiny
// and local since dev-card IDs are never parsed back, only compared.
func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Clone returns a deep copy of the state: every nested map and slice
// is independently allocated so mutating the clone never touches s.
func (s GameState) Clone() GameState {
	out := s

	out.Players = make([]PlayerState, len(s.Players))
	for i, p := range s.Players {
		out.Players[i] = p.Clone()
	}

	out.TurnOrder = append([]string(nil), s.TurnOrder...)
	out.DevCardDeck = append([]DevCard(nil), s.DevCardDeck...)
	out.PendingDiscards = append([]PendingDiscard(nil), s.PendingDiscards...)

	out.Buildings = make(map[string]Building, len(s.Buildings))
	for k, v := range s.Buildings {
		out.Buildings[k] = v
	}
	out.Roads = make(map[string]Road, len(s.Roads))
	for k, v := range s.Roads {
		out.Roads[k] = v
	}
	out.Bank = s.Bank.Clone()

	if s.LastDiceRoll != nil {
		roll := *s.LastDiceRoll
		out.LastDiceRoll = &roll
	}
	if s.RollForOrderState != nil {
		rfo := *s.RollForOrderState
		rfo.Rolls = make(map[string]DiceRoll, len(s.RollForOrderState.Rolls))
		for k, v := range s.RollForOrderState.Rolls {
			rfo.Rolls[k] = v
		}
		rfo.Rolled = append([]string(nil), s.RollForOrderState.Rolled...)
		out.RollForOrderState = &rfo
	}
	if s.SetupState != nil {
		ss := *s.SetupState
		out.SetupState = &ss
	}
	if s.ActiveTrade != nil {
		t := *s.ActiveTrade
		t.Give = s.ActiveTrade.Give.Clone()
		t.Want = s.ActiveTrade.Want.Clone()
		out.ActiveTrade = &t
	}

	// Board is never mutated after generation (the robber's position
	// lives in GameState.RobberHex), so sharing Hexes/Ports/HexByID is
	// safe.

	return out
}

// PlayerIndex returns the index of playerID in s.Players, or -1.
func (s GameState) PlayerIndex(playerID string) int {
	for i, p := range s.Players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

// Player returns the player with the given ID.
func (s GameState) Player(playerID string) (PlayerState, bool) {
	i := s.PlayerIndex(playerID)
	if i < 0 {
		return PlayerState{}, false
	}
	return s.Players[i], true
}

// setPlayer returns s with the player at the given index replaced.
// The Players slice is not copied, so the receiver sees the change too.
func (s GameState) setPlayer(index int, p PlayerState) GameState {
	s.Players[index] = p
	return s
}

// ActivePlayerID returns the player ID whose turn it currently is,
// meaningful only while Phase == PhasePlaying.
func (s GameState) ActivePlayerID() string {
	if s.CurrentPlayerIndex < 0 || s.CurrentPlayerIndex >= len(s.TurnOrder) {
		return ""
	}
	return s.TurnOrder[s.CurrentPlayerIndex]
}

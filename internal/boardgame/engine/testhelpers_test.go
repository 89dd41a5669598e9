package engine

import "catan-server/internal/boardgame/board"

// sequenceRNG returns Intn values from a fixed, cyclic sequence, for
// tests that need one specific dice roll or steal outcome rather than
// a real shuffle. Shuffle is a no-op: nothing in this package's tests
// needs the dev-card deck or board order randomized.
type sequenceRNG struct {
	vals []int
	i    int
}

func (r *sequenceRNG) Intn(n int) int {
	v := r.vals[r.i%len(r.vals)]
	r.i++
	return v
}

func (r *sequenceRNG) Shuffle(n int, swap func(i, j int)) {}

func testPlayers() []NewPlayerInput {
	return []NewPlayerInput{
		{ID: "p0", UserID: "p0", Username: "Alice", Color: ColorRed},
		{ID: "p1", UserID: "p1", Username: "Bob", Color: ColorBlue},
		{ID: "p2", UserID: "p2", Username: "Carol", Color: ColorOrange},
	}
}

// playingGameWithHexes builds a minimal GameState already in
// PhasePlaying/pre_roll, backed by a hand-built board containing only
// the given hexes rather than a full 19-hex Generate output, so a
// test can pin down exactly which hex touches which vertex.
func playingGameWithHexes(players []NewPlayerInput, hexes []board.HexTile) GameState {
	b := board.Board{Hexes: hexes, HexByID: make(map[string]board.HexTile, len(hexes))}
	for _, h := range hexes {
		b.HexByID[h.ID] = h
		if h.Terrain == board.TerrainDesert {
			b.RobberHex = h.ID
		}
	}

	ps := make([]PlayerState, len(players))
	order := make([]string, len(players))
	for i, p := range players {
		ps[i] = PlayerState{ID: p.ID, UserID: p.UserID, Username: p.Username, Color: p.Color, Resources: NewResourceCount(), IsConnected: true}
		order[i] = p.ID
	}

	bank := NewResourceCount()
	for _, r := range board.AllResources {
		bank[r] = 19
	}

	return GameState{
		ID: "g1", Code: "G1CODE",
		Status: StatusPlaying, Phase: PhasePlaying,
		Board: b, Players: ps, TurnOrder: order,
		CurrentPlayerIndex: 0, TurnNumber: 1, TurnPhase: TurnPhasePreRoll,
		RobberHex: b.RobberHex,
		Buildings: make(map[string]Building), Roads: make(map[string]Road),
		Bank: bank,
	}
}

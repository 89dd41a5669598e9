package engine

import "catan-server/internal/boardgame/board"

const (
	maxSettlements = 5
	maxCities      = 4
	maxRoads       = 15
)

func settlementCost() ResourceCount {
	return ResourceCount{"brick": 1, "lumber": 1, "grain": 1, "wool": 1}
}

func cityCost() ResourceCount {
	return ResourceCount{"ore": 3, "grain": 2}
}

func roadCost() ResourceCount {
	return ResourceCount{"brick": 1, "lumber": 1}
}

// inSetup reports whether s is in either setup phase, where placement
// costs and connectivity requirements are waived.
func inSetup(s GameState) bool {
	return s.Phase == PhaseSetupFirst || s.Phase == PhaseSetupSecond
}

// BuildSettlement places a new settlement for playerID at vertexID.
// The distance rule (no settlement/city on a vertex one edge away)
// always applies. Outside setup, the vertex must connect to one of
// the player's roads and the standard cost is deducted. During setup,
// the rule PRD's free placement applies, and if this is the second
// setup round the player immediately receives one of each resource
// adjacent to the vertex.
func BuildSettlement(s GameState, playerID, vertexID string) (GameState, []Event, error) {
	if s.Phase != PhaseSetupFirst && s.Phase != PhaseSetupSecond && s.Phase != PhasePlaying {
		return s, nil, newError(ErrWrongPhase, "settlements cannot be built in phase %s", s.Phase)
	}
	if s.Phase == PhasePlaying && s.TurnPhase != TurnPhaseMain {
		return s, nil, newError(ErrWrongTurnPhase, "settlements can only be built during the main turn phase")
	}
	if s.ActivePlayerID() != playerID {
		return s, nil, newError(ErrNotYourTurn, "it is not %s's turn", playerID)
	}

	if _, exists := s.Buildings[vertexID]; exists {
		return s, nil, newError(ErrIllegalPlacement, "vertex %s is already occupied", vertexID)
	}

	topo := buildTopology(s.Board)
	if _, ok := topo.vertexHexes[vertexID]; !ok {
		return s, nil, newError(ErrInvalidID, "unknown vertex %s", vertexID)
	}
	for _, neighbor := range topo.vertexNeighbors[vertexID] {
		if _, occupied := s.Buildings[neighbor]; occupied {
			return s, nil, newError(ErrIllegalPlacement, "vertex %s violates the distance rule", vertexID)
		}
	}

	playerIdx := s.PlayerIndex(playerID)
	if playerIdx < 0 {
		return s, nil, newError(ErrNotInGame, "%s is not in this game", playerID)
	}
	player := s.Players[playerIdx]
	if len(player.Settlements) >= maxSettlements {
		return s, nil, newError(ErrPieceExhausted, "%s has no settlement pieces left", playerID)
	}

	setup := inSetup(s)
	cost := settlementCost()
	if !setup {
		if !playerOwnsIncidentRoad(s, topo, playerID, vertexID) {
			return s, nil, newError(ErrIllegalPlacement, "vertex %s is not connected to %s's road network", vertexID, playerID)
		}
		if !player.Resources.Affords(cost) {
			return s, nil, newError(ErrCannotAfford, "%s cannot afford a settlement", playerID)
		}
	}

	next := s.Clone()
	player = next.Players[playerIdx]
	player.Settlements = append(player.Settlements, vertexID)
	player.PublicVictoryPoints++
	if !setup {
		player.Resources = player.Resources.Sub(cost)
	}
	next.Players[playerIdx] = player
	next.Buildings[vertexID] = Building{VertexID: vertexID, PlayerID: playerID, Type: BuildingSettlement}

	if next.Phase == PhaseSetupSecond {
		grant := initialProductionFor(next.Board, topo, vertexID)
		next.Players[playerIdx].Resources = next.Players[playerIdx].Resources.Add(grant)
	}

	if next.SetupState != nil {
		next.SetupState.LastSettlementVertexID = vertexID
		next.SetupState.AwaitingRoad = true
	}

	recomputeLongestRoad(&next)
	recomputeWinner(&next)

	return next, []Event{{Type: "build:settlement_placed", Payload: map[string]any{
		"playerId": playerID, "vertexId": vertexID,
	}}}, nil
}

// initialProductionFor returns one of each resource produced by every
// land hex adjacent to vertexID, for the second setup round's free
// starting production. The desert contributes nothing.
func initialProductionFor(b board.Board, topo topology, vertexID string) ResourceCount {
	grant := NewResourceCount()
	for _, hexID := range topo.vertexHexes[vertexID] {
		tile, ok := b.HexByID[hexID]
		if !ok {
			continue
		}
		if r := tile.Terrain.Resource(); r != "" {
			grant[r]++
		}
	}
	return grant
}

// UpgradeToCity replaces playerID's settlement at vertexID with a
// city: the settlement slot is returned, the city slot is consumed,
// and the cost is deducted. Net victory points go from +1 to +2 at
// this vertex.
func UpgradeToCity(s GameState, playerID, vertexID string) (GameState, []Event, error) {
	if s.Phase != PhasePlaying || s.TurnPhase != TurnPhaseMain {
		return s, nil, newError(ErrWrongTurnPhase, "cities can only be built during the main turn phase")
	}
	if s.ActivePlayerID() != playerID {
		return s, nil, newError(ErrNotYourTurn, "it is not %s's turn", playerID)
	}

	b, exists := s.Buildings[vertexID]
	if !exists || b.PlayerID != playerID || b.Type != BuildingSettlement {
		return s, nil, newError(ErrIllegalPlacement, "%s has no settlement at %s to upgrade", playerID, vertexID)
	}

	playerIdx := s.PlayerIndex(playerID)
	if playerIdx < 0 {
		return s, nil, newError(ErrNotInGame, "%s is not in this game", playerID)
	}
	player := s.Players[playerIdx]
	if len(player.Cities) >= maxCities {
		return s, nil, newError(ErrPieceExhausted, "%s has no city pieces left", playerID)
	}
	cost := cityCost()
	if !player.Resources.Affords(cost) {
		return s, nil, newError(ErrCannotAfford, "%s cannot afford a city", playerID)
	}

	next := s.Clone()
	player = next.Players[playerIdx]
	player.Resources = player.Resources.Sub(cost)
	player.Settlements = removeString(player.Settlements, vertexID)
	player.Cities = append(player.Cities, vertexID)
	player.PublicVictoryPoints++
	next.Players[playerIdx] = player
	next.Buildings[vertexID] = Building{VertexID: vertexID, PlayerID: playerID, Type: BuildingCity}

	recomputeWinner(&next)

	return next, []Event{{Type: "build:city_placed", Payload: map[string]any{
		"playerId": playerID, "vertexId": vertexID,
	}}}, nil
}

// BuildRoad places a road for playerID at edgeID. Outside any special
// phase it costs brick+lumber and must connect to the player's
// network (one of the edge's vertices holds their building, or holds
// no building and has one of their roads already incident to it — an
// opponent's building at the junction blocks passing through it).
// During setup the road must touch the settlement just placed this
// step. During road_building it is free; BuildRoad counts
// RoadBuildingRoadsPlaced and returns the turn to main after the
// second road.
func BuildRoad(s GameState, playerID, edgeID string) (GameState, []Event, error) {
	if s.Phase != PhaseSetupFirst && s.Phase != PhaseSetupSecond && s.Phase != PhasePlaying {
		return s, nil, newError(ErrWrongPhase, "roads cannot be built in phase %s", s.Phase)
	}
	if s.Phase == PhasePlaying && s.TurnPhase != TurnPhaseMain && s.TurnPhase != TurnPhaseRoadBuilding {
		return s, nil, newError(ErrWrongTurnPhase, "roads can only be built during the main or road_building turn phase")
	}
	if s.ActivePlayerID() != playerID {
		return s, nil, newError(ErrNotYourTurn, "it is not %s's turn", playerID)
	}

	if _, exists := s.Roads[edgeID]; exists {
		return s, nil, newError(ErrIllegalPlacement, "edge %s is already occupied", edgeID)
	}

	topo := buildTopology(s.Board)
	vertices, ok := topo.edgeVertices[edgeID]
	if !ok {
		return s, nil, newError(ErrInvalidID, "unknown edge %s", edgeID)
	}

	playerIdx := s.PlayerIndex(playerID)
	if playerIdx < 0 {
		return s, nil, newError(ErrNotInGame, "%s is not in this game", playerID)
	}
	player := s.Players[playerIdx]
	if len(player.Roads) >= maxRoads {
		return s, nil, newError(ErrPieceExhausted, "%s has no road pieces left", playerID)
	}

	setup := inSetup(s)
	free := setup || s.TurnPhase == TurnPhaseRoadBuilding

	if setup {
		if s.SetupState == nil || !s.SetupState.AwaitingRoad {
			return s, nil, newError(ErrWrongTurnPhase, "no settlement is awaiting its road")
		}
		if vertices[0] != s.SetupState.LastSettlementVertexID && vertices[1] != s.SetupState.LastSettlementVertexID {
			return s, nil, newError(ErrIllegalPlacement, "setup road must touch the settlement just placed")
		}
	} else if s.TurnPhase != TurnPhaseRoadBuilding {
		if !playerOwnsNetworkVertex(s, topo, vertices, playerID) {
			return s, nil, newError(ErrIllegalPlacement, "edge %s is not connected to %s's network", edgeID, playerID)
		}
	}

	cost := roadCost()
	if !free && !player.Resources.Affords(cost) {
		return s, nil, newError(ErrCannotAfford, "%s cannot afford a road", playerID)
	}

	next := s.Clone()
	player = next.Players[playerIdx]
	if !free {
		player.Resources = player.Resources.Sub(cost)
	}
	player.Roads = append(player.Roads, edgeID)
	next.Players[playerIdx] = player
	next.Roads[edgeID] = Road{EdgeID: edgeID, PlayerID: playerID}

	if next.SetupState != nil {
		next.SetupState.AwaitingRoad = false
	}
	if next.TurnPhase == TurnPhaseRoadBuilding {
		next.RoadBuildingRoadsPlaced++
		if next.RoadBuildingRoadsPlaced >= 2 {
			next.TurnPhase = TurnPhaseMain
			next.RoadBuildingRoadsPlaced = 0
		}
	}

	recomputeLongestRoad(&next)
	recomputeWinner(&next)

	return next, []Event{{Type: "build:road_placed", Payload: map[string]any{
		"playerId": playerID, "edgeId": edgeID,
	}}}, nil
}

// playerOwnsIncidentRoad reports whether playerID owns a road touching
// vertexID, required to build a settlement there outside setup.
func playerOwnsIncidentRoad(s GameState, topo topology, playerID, vertexID string) bool {
	for _, edgeID := range topo.vertexEdges[vertexID] {
		if r, ok := s.Roads[edgeID]; ok && r.PlayerID == playerID {
			return true
		}
	}
	return false
}

// playerOwnsNetworkVertex reports whether either endpoint of the
// candidate edge is a legal point for playerID to extend a road from.
func playerOwnsNetworkVertex(s GameState, topo topology, vertices [2]string, playerID string) bool {
	for _, v := range vertices {
		if b, ok := s.Buildings[v]; ok {
			if b.PlayerID == playerID {
				return true
			}
			continue // occupied by someone else: blocks extension through v
		}
		for _, edgeID := range topo.vertexEdges[v] {
			if r, ok := s.Roads[edgeID]; ok && r.PlayerID == playerID {
				return true
			}
		}
	}
	return false
}

func removeString(list []string, target string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != target {
			out = append(out, v)
		}
	}
	return out
}

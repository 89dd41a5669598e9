package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catan-server/internal/boardgame/board"
	"catan-server/internal/boardgame/geometry"
)

// cornerAt finds which corner index of hex h carries the given vertex
// ID, for stitching a road network across two adjacent hexes without
// hardcoding which corner numbering lines up with which.
func cornerAt(t *testing.T, h geometry.Axial, vertexID string) int {
	t.Helper()
	for c := 0; c < 6; c++ {
		id, err := geometry.CornerVertexID(h, c)
		require.NoError(t, err)
		if id == vertexID {
			return c
		}
	}
	t.Fatalf("no corner of %v matches vertex %s", h, vertexID)
	return -1
}

// fiveEdgePath lays a single hex's 5 boundary edges (corner0 through
// corner5, omitting the closing edge back to corner0) as one player's
// roads, producing a length-5 path — the longest-road threshold.
func fiveEdgePath(coord geometry.Axial) []string {
	edges := make([]string, 5)
	for side := 1; side <= 5; side++ {
		e, _ := geometry.SideEdgeID(coord, side)
		edges[side-1] = e
	}
	return edges
}

func roadsOwnedBy(edges []string, playerID string) map[string]Road {
	out := make(map[string]Road, len(edges))
	for _, e := range edges {
		out[e] = Road{EdgeID: e, PlayerID: playerID}
	}
	return out
}

func TestRecomputeLongestRoad_GrantsAtLengthFiveThreshold(t *testing.T) {
	hexA := hillsHex(geometry.Axial{Q: 0, R: 0}, 8)
	s := playingGameWithHexes(testPlayers(), []board.HexTile{hexA})
	for e, r := range roadsOwnedBy(fiveEdgePath(hexA.Coord), "p0") {
		s.Roads[e] = r
	}

	next := s.Clone()
	recomputeLongestRoad(&next)

	assert.Equal(t, "p0", next.LongestRoadHolder)
	assert.Equal(t, 5, next.LongestRoadLength)
	p, _ := next.Player("p0")
	assert.True(t, p.HasLongestRoad)
	assert.Equal(t, 2, p.PublicVictoryPoints)
}

func TestRecomputeLongestRoad_RevokesWhenOpponentBuildingBreaksPath(t *testing.T) {
	hexA := hillsHex(geometry.Axial{Q: 0, R: 0}, 8)
	s := playingGameWithHexes(testPlayers(), []board.HexTile{hexA})
	for e, r := range roadsOwnedBy(fiveEdgePath(hexA.Coord), "p0") {
		s.Roads[e] = r
	}
	granted := s.Clone()
	recomputeLongestRoad(&granted)
	require.Equal(t, "p0", granted.LongestRoadHolder)

	corner2, err := geometry.CornerVertexID(hexA.Coord, 2)
	require.NoError(t, err)
	granted.Buildings[corner2] = Building{VertexID: corner2, PlayerID: "p1", Type: BuildingSettlement}

	next := granted.Clone()
	recomputeLongestRoad(&next)

	assert.Equal(t, "", next.LongestRoadHolder)
	assert.Equal(t, 0, next.LongestRoadLength)
	p, _ := next.Player("p0")
	assert.False(t, p.HasLongestRoad)
	assert.Equal(t, 0, p.PublicVictoryPoints)
}

func TestRecomputeLongestRoad_TransfersToLongerNetwork(t *testing.T) {
	hexA := hillsHex(geometry.Axial{Q: 0, R: 0}, 8)
	hexB := hillsHex(geometry.Axial{Q: 10, R: 0}, 8)
	hexC := hillsHex(geometry.Axial{Q: 11, R: 0}, 8) // hexB.Neighbor(0)
	s := playingGameWithHexes(testPlayers(), []board.HexTile{hexA, hexB, hexC})

	for e, r := range roadsOwnedBy(fiveEdgePath(hexA.Coord), "p0") {
		s.Roads[e] = r
	}
	recomputeLongestRoad(&s)
	require.Equal(t, "p0", s.LongestRoadHolder)

	bEdges := fiveEdgePath(hexB.Coord)
	for e, r := range roadsOwnedBy(bEdges, "p1") {
		s.Roads[e] = r
	}
	corner5B, err := geometry.CornerVertexID(hexB.Coord, 5)
	require.NoError(t, err)
	sharedCorner := cornerAt(t, hexC.Coord, corner5B)

	candidate1, err := geometry.SideEdgeID(hexC.Coord, sharedCorner)
	require.NoError(t, err)
	candidate2, err := geometry.SideEdgeID(hexC.Coord, (sharedCorner+1)%6)
	require.NoError(t, err)
	sharedEdge, err := geometry.SideEdgeID(hexB.Coord, 0)
	require.NoError(t, err)

	extension := candidate1
	if extension == sharedEdge {
		extension = candidate2
	}
	s.Roads[extension] = Road{EdgeID: extension, PlayerID: "p1"}

	next := s.Clone()
	recomputeLongestRoad(&next)

	assert.Equal(t, "p1", next.LongestRoadHolder)
	assert.Equal(t, 6, next.LongestRoadLength)
	p0, _ := next.Player("p0")
	p1, _ := next.Player("p1")
	assert.False(t, p0.HasLongestRoad)
	assert.True(t, p1.HasLongestRoad)
	assert.Equal(t, 2, p1.PublicVictoryPoints)
}

func TestRecomputeLargestArmy_GrantsAtThreshold(t *testing.T) {
	s := playingGameWithHexes(testPlayers(), nil)
	s.Players[0].KnightsPlayed = 3

	next := s.Clone()
	recomputeLargestArmy(&next)

	assert.Equal(t, "p0", next.LargestArmyHolder)
	assert.Equal(t, 3, next.LargestArmySize)
	p, _ := next.Player("p0")
	assert.True(t, p.HasLargestArmy)
	assert.Equal(t, 2, p.PublicVictoryPoints)
}

func TestRecomputeLargestArmy_DoesNotGrantBelowThreshold(t *testing.T) {
	s := playingGameWithHexes(testPlayers(), nil)
	s.Players[0].KnightsPlayed = 2

	next := s.Clone()
	recomputeLargestArmy(&next)

	assert.Equal(t, "", next.LargestArmyHolder)
}

func TestRecomputeLargestArmy_TransfersOnStrictlyGreaterCount(t *testing.T) {
	s := playingGameWithHexes(testPlayers(), nil)
	s.Players[0].KnightsPlayed = 3
	granted := s.Clone()
	recomputeLargestArmy(&granted)
	require.Equal(t, "p0", granted.LargestArmyHolder)

	granted.Players[1].KnightsPlayed = 3
	tied := granted.Clone()
	recomputeLargestArmy(&tied)
	assert.Equal(t, "p0", tied.LargestArmyHolder, "a tie must not transfer the award")

	tied.Players[1].KnightsPlayed = 4
	overtaken := tied.Clone()
	recomputeLargestArmy(&overtaken)

	assert.Equal(t, "p1", overtaken.LargestArmyHolder)
	p0, _ := overtaken.Player("p0")
	p1, _ := overtaken.Player("p1")
	assert.False(t, p0.HasLargestArmy)
	assert.True(t, p1.HasLargestArmy)
}

// Package board generates the static 19-hex playing surface: terrain,
// number tokens, ports, and the robber's starting position. Generation
// consumes an injected RNG so a game can be replayed deterministically
// from its seed, same as the teacher's canasta deck shuffle draws from
// a single seeded source rather than math/rand's global state.
package board

import (
	"log"
	"math"

	"catan-server/internal/boardgame/geometry"
)

// Terrain identifies a hex's production category. Desert produces
// nothing and never carries a number token.
type Terrain string

const (
	TerrainDesert    Terrain = "desert"
	TerrainHills     Terrain = "hills"     // brick
	TerrainMountains Terrain = "mountains" // ore
	TerrainForest    Terrain = "forest"    // lumber
	TerrainPasture   Terrain = "pasture"   // wool
	TerrainFields    Terrain = "fields"    // grain
)

// Resource produced by a terrain type. Desert produces ResourceNone.
func (t Terrain) Resource() Resource {
	switch t {
	case TerrainHills:
		return ResourceBrick
	case TerrainMountains:
		return ResourceOre
	case TerrainForest:
		return ResourceLumber
	case TerrainPasture:
		return ResourceWool
	case TerrainFields:
		return ResourceGrain
	default:
		return ResourceNone
	}
}

// Resource is one of the five tradeable commodities, or ResourceNone
// for the desert / the generic port type.
type Resource string

const (
	ResourceNone   Resource = ""
	ResourceBrick  Resource = "brick"
	ResourceLumber Resource = "lumber"
	ResourceOre    Resource = "ore"
	ResourceGrain  Resource = "grain"
	ResourceWool   Resource = "wool"
)

// AllResources lists the five tradeable resources in a fixed order,
// used anywhere a stable iteration order matters (bank counts, hand
// snapshots, discard validation).
var AllResources = [5]Resource{ResourceBrick, ResourceLumber, ResourceOre, ResourceGrain, ResourceWool}

// HexTile is one of the 19 fixed hexes on the board.
type HexTile struct {
	ID          string
	Coord       geometry.Axial
	Terrain     Terrain
	NumberToken int // 0 means "no token" (desert only)
}

// PortType is either a specific resource (2:1) or generic (3:1).
type PortType string

const (
	PortGeneric PortType = "generic"
	PortBrick   PortType = "brick"
	PortLumber  PortType = "lumber"
	PortOre     PortType = "ore"
	PortGrain   PortType = "grain"
	PortWool    PortType = "wool"
)

// Port sits on a coastal edge and offers a preferential trade ratio to
// whichever player holds a settlement or city on one of its two
// vertices.
type Port struct {
	ID         string
	Type       PortType
	VertexPair [2]string
	Angle      float64 // degrees, for client-side rendering only
}

// Ratio returns the bank-trade ratio this port grants for its
// resource. Generic ports apply to every resource at 3:1.
func (p Port) Ratio() int {
	if p.Type == PortGeneric {
		return 3
	}
	return 2
}

// Board is the static playing surface produced once per game at
// creation time. Nothing on it changes after Generate returns;
// RobberHex is the robber's starting hex, and its position during
// play is tracked on the game state.
type Board struct {
	Hexes     []HexTile
	HexByID   map[string]HexTile
	Ports     []Port
	RobberHex string
}

// RNG is the minimal random source the generator needs. The session
// manager's per-game seeded source satisfies this, same as the
// rules engine's dice/steal RNG (see engine.RNG) — board generation
// and gameplay share one seed so a game is fully replayable.
type RNG interface {
	// Shuffle randomizes the order of a slice of length n using the
	// swap function, matching rand.Rand.Shuffle's signature so
	// *rand.Rand satisfies this directly.
	Shuffle(n int, swap func(i, j int))
}

const retryLimit = 100

// terrainMultiset is the canonical 19-tile distribution: 1 desert,
// 3 hills, 3 mountains, 4 forest, 4 pasture, 4 fields.
func terrainMultiset() []Terrain {
	return []Terrain{
		TerrainDesert,
		TerrainHills, TerrainHills, TerrainHills,
		TerrainMountains, TerrainMountains, TerrainMountains,
		TerrainForest, TerrainForest, TerrainForest, TerrainForest,
		TerrainPasture, TerrainPasture, TerrainPasture, TerrainPasture,
		TerrainFields, TerrainFields, TerrainFields, TerrainFields,
	}
}

// numberMultiset is the canonical 18-token distribution: one 2, one
// 12, two each of 3,4,5,6,8,9,10,11.
func numberMultiset() []int {
	return []int{2, 3, 3, 4, 4, 5, 5, 6, 6, 8, 8, 9, 9, 10, 10, 11, 11, 12}
}

// portTypes is the canonical 9-port multiset: 4 generic, one of each
// resource.
func portTypes() []PortType {
	return []PortType{
		PortGeneric, PortGeneric, PortGeneric, PortGeneric,
		PortBrick, PortLumber, PortOre, PortGrain, PortWool,
	}
}

// Generate builds a new board. It never fails hard: if the high-value
// separation constraint still can't be met after retryLimit reshuffles,
// it logs a warning and returns the last attempt, per the
// degraded-balance rule.
func Generate(rng RNG) Board {
	coords := geometry.Spiral(geometry.Axial{Q: 0, R: 0}, 2)

	var hexes []HexTile
	for attempt := 0; attempt < retryLimit; attempt++ {
		hexes = assign(coords, rng)
		if satisfiesHighValueSeparation(hexes) {
			break
		}
		if attempt == retryLimit-1 {
			log.Printf("board: high-value separation constraint not met after %d attempts, returning degraded board", retryLimit)
		}
	}

	b := Board{
		Hexes:   hexes,
		HexByID: make(map[string]HexTile, len(hexes)),
	}
	for _, h := range hexes {
		b.HexByID[h.ID] = h
		if h.Terrain == TerrainDesert {
			b.RobberHex = h.ID
		}
	}

	b.Ports = placePorts(hexes, rng)
	return b
}

// assign lays out one candidate terrain/number shuffle over the fixed
// coordinate order.
func assign(coords []geometry.Axial, rng RNG) []HexTile {
	terrains := terrainMultiset()
	rng.Shuffle(len(terrains), func(i, j int) { terrains[i], terrains[j] = terrains[j], terrains[i] })

	numbers := numberMultiset()
	rng.Shuffle(len(numbers), func(i, j int) { numbers[i], numbers[j] = numbers[j], numbers[i] })

	hexes := make([]HexTile, len(coords))
	numberIdx := 0
	for i, c := range coords {
		t := terrains[i]
		tile := HexTile{
			ID:      geometry.HexID(c),
			Coord:   c,
			Terrain: t,
		}
		if t != TerrainDesert {
			tile.NumberToken = numbers[numberIdx]
			numberIdx++
		}
		hexes[i] = tile
	}
	return hexes
}

// satisfiesHighValueSeparation reports whether no two tiles carrying a
// 6 or 8 token are cube-adjacent.
func satisfiesHighValueSeparation(hexes []HexTile) bool {
	isHighValue := func(n int) bool { return n == 6 || n == 8 }
	for i, a := range hexes {
		if !isHighValue(a.NumberToken) {
			continue
		}
		for j, b := range hexes {
			if i == j || !isHighValue(b.NumberToken) {
				continue
			}
			if geometry.Distance(a.Coord, b.Coord) == 1 {
				return false
			}
		}
	}
	return true
}

// placePorts collects the board's coastal edges in angular order
// around the center and assigns one of the 9 fixed slots (evenly
// spaced through that list) to each shuffled port type.
func placePorts(hexes []HexTile, rng RNG) []Port {
	coastal := coastalEdges(hexes)
	if len(coastal) == 0 {
		return nil
	}

	types := portTypes()
	rng.Shuffle(len(types), func(i, j int) { types[i], types[j] = types[j], types[i] })

	ports := make([]Port, 0, len(types))
	n := len(coastal)
	for i, t := range types {
		slot := coastal[(i*n)/len(types)]
		ports = append(ports, Port{
			ID:         portID(i),
			Type:       t,
			VertexPair: slot.vertices,
			Angle:      slot.angle,
		})
	}
	return ports
}

func portID(i int) string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	if i < len(letters) {
		return "port_" + string(letters[i])
	}
	return "port_x"
}

type coastalEdge struct {
	vertices [2]string
	angle    float64
}

// coastalEdges returns every edge that belongs to exactly one land
// hex (i.e. its far side opens onto open sea), ordered by the angle of
// its midpoint hex around the board center. land is used to
// recognize which of a hex's six sides face off the edge of the board.
func coastalEdges(hexes []HexTile) []coastalEdge {
	land := make(map[string]HexTile, len(hexes))
	for _, h := range hexes {
		land[h.ID] = h
	}

	var out []coastalEdge
	for _, h := range hexes {
		for side := 0; side < 6; side++ {
			n, _ := h.Coord.Neighbor(side)
			if _, ok := land[geometry.HexID(n)]; ok {
				continue // interior edge, not coastal
			}
			v1 := corner(h.Coord, side)
			v2 := corner(h.Coord, (side+1)%6)
			out = append(out, coastalEdge{
				vertices: [2]string{v1, v2},
				angle:    hexAngle(h.Coord, side),
			})
		}
	}

	sortByAngle(out)
	return out
}

func corner(h geometry.Axial, side int) string {
	id, err := geometry.CornerVertexID(h, side)
	if err != nil {
		// side is always in [0,6) here, so this cannot happen.
		panic(err)
	}
	return id
}

// hexAngle approximates the angular position (degrees, roughly
// -180 to 185: the hex's atan2 angle plus one degree per side) of the
// given hex's given side around the board's origin, for stable
// coastal-edge ordering and client-side rendering hints only — it has
// no gameplay meaning.
func hexAngle(h geometry.Axial, side int) float64 {
	x := float64(h.Q) + float64(h.R)*0.5
	y := float64(h.R) * 0.8660254 // sqrt(3)/2
	base := math.Atan2(y, x) * 180 / math.Pi
	return base + float64(side)*1.0
}

func sortByAngle(edges []coastalEdge) {
	for i := 1; i < len(edges); i++ {
		for j := i; j > 0 && edges[j].angle < edges[j-1].angle; j-- {
			edges[j], edges[j-1] = edges[j-1], edges[j]
		}
	}
}

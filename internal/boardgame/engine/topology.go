package engine

import (
	"catan-server/internal/boardgame/board"
	"catan-server/internal/boardgame/geometry"
)

// topology is the derived vertex/edge adjacency graph for a board,
// recomputed from the board's hex list rather than cached in
// GameState — per the design note that cyclic hex/vertex/edge
// references live in flat ID tables recomputed on demand, never as a
// pointer graph.
type topology struct {
	vertexNeighbors map[string][]string // vertex -> adjacent vertices (one edge apart)
	vertexEdges     map[string][]string // vertex -> incident edges
	edgeVertices    map[string][2]string
	vertexHexes     map[string][]string // vertex -> land hex IDs touching it
	hexVertices     map[string][]string // hex ID -> its 6 corner vertex IDs
}

func buildTopology(b board.Board) topology {
	t := topology{
		vertexNeighbors: make(map[string][]string),
		vertexEdges:     make(map[string][]string),
		edgeVertices:    make(map[string][2]string),
		vertexHexes:     make(map[string][]string),
		hexVertices:     make(map[string][]string),
	}

	addNeighbor := func(v, n string) {
		for _, existing := range t.vertexNeighbors[v] {
			if existing == n {
				return
			}
		}
		t.vertexNeighbors[v] = append(t.vertexNeighbors[v], n)
	}
	addEdge := func(v, e string) {
		for _, existing := range t.vertexEdges[v] {
			if existing == e {
				return
			}
		}
		t.vertexEdges[v] = append(t.vertexEdges[v], e)
	}
	addHex := func(v, hexID string) {
		for _, existing := range t.vertexHexes[v] {
			if existing == hexID {
				return
			}
		}
		t.vertexHexes[v] = append(t.vertexHexes[v], hexID)
	}

	for _, h := range b.Hexes {
		corners := make([]string, 6)
		for c := 0; c < 6; c++ {
			id, _ := geometry.CornerVertexID(h.Coord, c)
			corners[c] = id
			addHex(id, h.ID)
		}
		t.hexVertices[h.ID] = append([]string(nil), corners...)
		for c := 0; c < 6; c++ {
			next := (c + 1) % 6
			edgeID, _ := geometry.SideEdgeID(h.Coord, next)
			v1, v2 := corners[c], corners[next]

			addNeighbor(v1, v2)
			addNeighbor(v2, v1)
			addEdge(v1, edgeID)
			addEdge(v2, edgeID)
			t.edgeVertices[edgeID] = [2]string{v1, v2}
		}
	}

	return t
}

// otherVertex returns the vertex on the far end of edgeID from v.
func (t topology) otherVertex(edgeID, v string) (string, bool) {
	pair, ok := t.edgeVertices[edgeID]
	if !ok {
		return "", false
	}
	if pair[0] == v {
		return pair[1], true
	}
	if pair[1] == v {
		return pair[0], true
	}
	return "", false
}

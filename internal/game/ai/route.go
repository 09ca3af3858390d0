package ai

import (
	"container/heap"

	"github.com/cory-johannsen/tactics/internal/game/combat"
	"github.com/cory-johannsen/tactics/internal/game/grid"
)

var steps = []grid.Position{
	{X: 0, Y: -1}, {X: 1, Y: -1}, {X: 1, Y: 0}, {X: 1, Y: 1},
	{X: 0, Y: 1}, {X: -1, Y: 1}, {X: -1, Y: 0}, {X: -1, Y: -1},
}

// routeNode is a frontier entry: a tile, the first step taken to reach it, and
// the accumulated terrain cost. seq orders equal-cost entries by discovery.
type routeNode struct {
	pos   grid.Position
	first grid.Position
	cost  int
	seq   int
}

type frontier []routeNode

func (f frontier) Len() int { return len(f) }
func (f frontier) Less(i, j int) bool {
	if f[i].cost != f[j].cost {
		return f[i].cost < f[j].cost
	}
	return f[i].seq < f[j].seq
}
func (f frontier) Swap(i, j int) { f[i], f[j] = f[j], f[i] }
func (f *frontier) Push(x any) { *f = append(*f, x.(routeNode)) }
func (f *frontier) Pop() any {
	old := *f
	n := old[len(old)-1]
	*f = old[:len(old)-1]
	return n
}

// firstStep finds the cheapest route by TerrainCost from start to any tile
// satisfying goal and returns the route's first tile.
//
// Precondition: g and goal must not be nil.
// Postcondition: ok is false when start already satisfies goal or no goal tile
// is reachable. Tiles in blocked and impassable tiles are never entered. Equal
// cost routes are broken by neighbour order, so the result is deterministic.
func firstStep(g combat.Grid, start grid.Position, blocked map[grid.Position]bool, goal func(grid.Position) bool) (grid.Position, bool) {
	if goal(start) {
		return grid.Position{}, false
	}
	best := map[grid.Position]int{start: 0}
	f := &frontier{}
	seq := 0
	relax := func(from routeNode, p grid.Position) {
		c := g.TerrainCost(p)
		if c <= 0 || blocked[p] {
			return
		}
		total := from.cost + c
		if old, seen := best[p]; seen && old <= total {
			return
		}
		best[p] = total
		first := from.first
		if from.pos == start {
			first = p
		}
		heap.Push(f, routeNode{pos: p, first: first, cost: total, seq: seq})
		seq++
	}

	origin := routeNode{pos: start}
	for _, d := range steps {
		relax(origin, start.Add(d))
	}
	for f.Len() > 0 {
		n := heap.Pop(f).(routeNode)
		if n.cost > best[n.pos] {
			continue
		}
		if goal(n.pos) {
			return n.first, true
		}
		for _, d := range steps {
			relax(n, n.pos.Add(d))
		}
	}
	return grid.Position{}, false
}

// standingTiles returns the tiles held by standing combatants other than exceptID.
func standingTiles(s *combat.State, exceptID string) map[grid.Position]bool {
	out := make(map[grid.Position]bool, len(s.Combatants))
	for _, c := range s.Combatants {
		if !c.IsKnockedOut && c.ID != exceptID {
			out[c.Position] = true
		}
	}
	return out
}

package grid

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Battlefield is a rectangular tile map with per-tile terrain.
// Tiles absent from Terrain are TerrainNormal.
//
// Battlefield is immutable after construction and safe for concurrent reads.
type Battlefield struct {
	Width   int
	Height  int
	terrain map[Position]Terrain
}

// NewBattlefield returns an open width x height battlefield.
//
// Precondition: width and height must be > 0.
func NewBattlefield(width, height int, terrain map[Position]Terrain) *Battlefield {
	t := make(map[Position]Terrain, len(terrain))
	for p, v := range terrain {
		t[p] = v
	}
	return &Battlefield{Width: width, Height: height, terrain: t}
}

// battlefieldFile is the YAML shape of a battlefield layout.
type battlefieldFile struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	Tiles  []struct {
		X       int     `yaml:"x"`
		Y       int     `yaml:"y"`
		Terrain Terrain `yaml:"terrain"`
	} `yaml:"tiles"`
}

// ParseBattlefield decodes a YAML battlefield layout.
//
// Postcondition: Returns a Battlefield or an error describing the first invalid field.
func ParseBattlefield(data []byte) (*Battlefield, error) {
	var f battlefieldFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("grid: parsing battlefield: %w", err)
	}
	if f.Width <= 0 || f.Height <= 0 {
		return nil, fmt.Errorf("grid: battlefield dimensions must be positive, got %dx%d", f.Width, f.Height)
	}
	terrain := make(map[Position]Terrain, len(f.Tiles))
	for i, tl := range f.Tiles {
		switch tl.Terrain {
		case TerrainNormal, TerrainDifficult, TerrainWall:
		default:
			return nil, fmt.Errorf("grid: tile[%d] has unknown terrain %q", i, tl.Terrain)
		}
		terrain[Position{tl.X, tl.Y}] = tl.Terrain
	}
	return NewBattlefield(f.Width, f.Height, terrain), nil
}

// LoadBattlefield reads and parses the battlefield layout at path.
func LoadBattlefield(path string) (*Battlefield, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("grid: reading %q: %w", path, err)
	}
	return ParseBattlefield(data)
}

// InBounds reports whether p lies on the battlefield.
func (b *Battlefield) InBounds(p Position) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < b.Width && p.Y < b.Height
}

// TerrainAt returns the terrain of p. Out-of-bounds tiles are walls.
func (b *Battlefield) TerrainAt(p Position) Terrain {
	if !b.InBounds(p) {
		return TerrainWall
	}
	if t, ok := b.terrain[p]; ok {
		return t
	}
	return TerrainNormal
}

// TerrainCost returns the AP cost of entering p: 1 for normal, 2 for
// difficult, 0 for impassable or out-of-bounds tiles.
func (b *Battlefield) TerrainCost(p Position) int {
	return b.TerrainAt(p).Cost()
}

// Distance returns the Chebyshev distance between a and b, so diagonal steps cost the same as orthogonal ones.
func (b *Battlefield) Distance(a, c Position) int {
	dx, dy := abs(a.X-c.X), abs(a.Y-c.Y)
	if dx > dy {
		return dx
	}
	return dy
}

// AreAdjacent reports whether a and c are distinct tiles that touch,
// orthogonally or diagonally.
func (b *Battlefield) AreAdjacent(a, c Position) bool {
	return a != c && b.Distance(a, c) == 1
}

// HasLineOfSight reports whether no wall lies strictly between a and c on
// the Bresenham line joining them. Endpoints never block.
func (b *Battlefield) HasLineOfSight(a, c Position) bool {
	x0, y0 := a.X, a.Y
	dx, dy := abs(c.X-x0), -abs(c.Y-y0)
	sx, sy := sign(c.X-x0), sign(c.Y-y0)
	e := dx + dy
	for {
		p := Position{x0, y0}
		if p == c {
			return true
		}
		if p != a && b.TerrainAt(p) == TerrainWall {
			return false
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// IsFlanking reports whether the attacker, adjacent to target, has an ally
// adjacent to target on the directly opposite side.
func (b *Battlefield) IsFlanking(attacker, target Position, allies []Position) bool {
	if !b.AreAdjacent(attacker, target) {
		return false
	}
	opposite := target.Sub(attacker.Sub(target))
	for _, a := range allies {
		if a == opposite {
			return true
		}
	}
	return false
}

// BlastTiles returns the in-bounds tiles of pattern centred on center.
//
// Postcondition: every returned tile satisfies InBounds; order follows pattern.Offsets.
func (b *Battlefield) BlastTiles(center Position, pattern BlastPattern) []Position {
	offsets := pattern.Offsets()
	out := make([]Position, 0, len(offsets))
	for _, o := range offsets {
		p := center.Add(o)
		if b.InBounds(p) {
			out = append(out, p)
		}
	}
	return out
}

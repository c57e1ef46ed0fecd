package game

import "math/rand"

const (
	// Default floor: a 15 m × 28 m court centred on the origin.
	defaultCourtWidth  = 15.0
	defaultCourtLength = 28.0
	wallThickness      = 0.2

	heightSpeedMin = 0.1
	heightSpeedMax = 3.0
)

// Rect is an axis-aligned rectangle on the court plane.
type Rect struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// Contains reports whether p lies inside r (edges inclusive).
func (r Rect) Contains(p Vec2) bool {
	return p.X() >= r.MinX && p.X() <= r.MaxX && p.Y() >= r.MinY && p.Y() <= r.MaxY
}

// Clamp returns the point of r closest to p.
func (r Rect) Clamp(p Vec2) Vec2 {
	return Vec2{clampf(p.X(), r.MinX, r.MaxX), clampf(p.Y(), r.MinY, r.MaxY)}
}

// Center returns the midpoint of r.
func (r Rect) Center() Vec2 {
	return Vec2{(r.MinX + r.MaxX) / 2, (r.MinY + r.MaxY) / 2}
}

func (r Rect) Width() float64  { return r.MaxX - r.MinX }
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Wall is a solid collider agents slide along.
type Wall struct {
	Name string
	Box  Rect
}

// ClosestPoint returns the point on the wall nearest to p. Points inside the
// wall return themselves.
func (w Wall) ClosestPoint(p Vec2) Vec2 {
	return w.Box.Clamp(p)
}

// CourtParams configures the floor and the containment margins.
type CourtParams struct {
	Width            float64 `yaml:"width"`
	Length           float64 `yaml:"length"`
	BoundaryPadding  float64 `yaml:"boundary_padding"`
	ExtraMinYPadding float64 `yaml:"extra_min_y_padding"`
	// Walls along the left, right and far sidelines.
	Walls bool `yaml:"walls"`

	EnableGlobalHeight      bool    `yaml:"enable_global_height"`
	GlobalHeightChangeSpeed float64 `yaml:"global_height_change_speed"`
}

// DefaultCourtParams returns the standard court.
func DefaultCourtParams() CourtParams {
	return CourtParams{
		Width:                   defaultCourtWidth,
		Length:                  defaultCourtLength,
		BoundaryPadding:         0.3,
		ExtraMinYPadding:        0.8,
		Walls:                   true,
		EnableGlobalHeight:      true,
		GlobalHeightChangeSpeed: 2.0,
	}
}

// Court owns the floor bounds, the wall colliders and the shared height
// variation switch for every registered agent.
type Court struct {
	Floor  Rect
	Walls  []Wall
	params CourtParams

	heightEnabled     bool
	heightFreezeUntil float64
}

// NewCourt builds a court centred on the origin.
func NewCourt(p CourtParams) *Court {
	hw, hl := p.Width/2, p.Length/2
	c := &Court{
		Floor:         Rect{MinX: -hw, MinY: -hl, MaxX: hw, MaxY: hl},
		params:        p,
		heightEnabled: true,
	}
	c.params.GlobalHeightChangeSpeed = clampf(p.GlobalHeightChangeSpeed, heightSpeedMin, heightSpeedMax)
	if p.Walls {
		c.Walls = []Wall{
			{Name: "wall1", Box: Rect{MinX: -hw - wallThickness, MinY: -hl, MaxX: -hw, MaxY: hl}},
			{Name: "wall2", Box: Rect{MinX: hw, MinY: -hl, MaxX: hw + wallThickness, MaxY: hl}},
			{Name: "wall3", Box: Rect{MinX: -hw, MinY: hl, MaxX: hw, MaxY: hl + wallThickness}},
		}
	}
	return c
}

// Extent is the floor grown to include the walls.
func (c *Court) Extent() Rect {
	r := c.Floor
	for _, w := range c.Walls {
		r.MinX, r.MinY = min(r.MinX, w.Box.MinX), min(r.MinY, w.Box.MinY)
		r.MaxX, r.MaxY = max(r.MaxX, w.Box.MaxX), max(r.MaxY, w.Box.MaxY)
	}
	return r
}

// Params returns the configuration the court was built with.
func (c *Court) Params() CourtParams { return c.params }

// Playable returns the floor shrunk by the boundary padding, with the extra
// margin on the min-Y end.
func (c *Court) Playable() Rect {
	pad := c.params.BoundaryPadding
	return Rect{
		MinX: c.Floor.MinX + pad,
		MinY: c.Floor.MinY + pad + c.params.ExtraMinYPadding,
		MaxX: c.Floor.MaxX - pad,
		MaxY: c.Floor.MaxY - pad,
	}
}

// ClampToPlayable pulls p inside the playable area.
func (c *Court) ClampToPlayable(p Vec2) Vec2 {
	return c.Playable().Clamp(p)
}

// RandomPoint picks a uniform point inside the playable area.
func (c *Court) RandomPoint(rng *rand.Rand) Vec2 {
	r := c.Playable()
	return Vec2{randRange(rng, r.MinX, r.MaxX), randRange(rng, r.MinY, r.MaxY)}
}

// ClosestWall returns the nearest wall point to p and its distance. ok is
// false when the court has no walls.
func (c *Court) ClosestWall(p Vec2) (point Vec2, dist float64, ok bool) {
	best := -1.0
	for _, w := range c.Walls {
		cp := w.ClosestPoint(p)
		d := p.Dist(cp)
		if best < 0 || d < best {
			best = d
			point = cp
		}
	}
	if best < 0 {
		return Vec2{}, 0, false
	}
	return point, best, true
}

// FreezeHeightVariationFor suspends height variation on every agent for the
// given number of seconds. An existing longer freeze is kept.
func (c *Court) FreezeHeightVariationFor(now, seconds float64) {
	until := now + max(0, seconds)
	if until > c.heightFreezeUntil {
		c.heightFreezeUntil = until
	}
	c.heightEnabled = false
}

// HeightVariationEnabled reports the current global switch.
func (c *Court) HeightVariationEnabled() bool { return c.heightEnabled }

// SetGlobalHeightChangeSpeed clamps and stores the shared oscillation speed.
func (c *Court) SetGlobalHeightChangeSpeed(v float64) {
	c.params.GlobalHeightChangeSpeed = clampf(v, heightSpeedMin, heightSpeedMax)
}

// Update re-evaluates the height freeze and pushes the global settings onto
// the agents.
func (c *Court) Update(now float64, agents []*Agent) {
	if !c.params.EnableGlobalHeight {
		return
	}
	c.heightEnabled = now >= c.heightFreezeUntil
	for _, a := range agents {
		a.setHeightVariation(c.heightEnabled)
		a.SetHeightChangeSpeed(c.params.GlobalHeightChangeSpeed)
	}
}

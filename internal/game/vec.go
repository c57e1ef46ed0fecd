package game

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec2 is a point or direction on the court plane. Y runs along the court's
// length, baseline to baseline.
type Vec2 mgl64.Vec2

// V2 is shorthand for Vec2{x, y}.
func V2(x, y float64) Vec2 { return Vec2{x, y} }

func (v Vec2) m() mgl64.Vec2 { return mgl64.Vec2(v) }

func (v Vec2) X() float64 { return v[0] }
func (v Vec2) Y() float64 { return v[1] }

func (v Vec2) Add(o Vec2) Vec2      { return Vec2(v.m().Add(o.m())) }
func (v Vec2) Sub(o Vec2) Vec2      { return Vec2(v.m().Sub(o.m())) }
func (v Vec2) Scale(k float64) Vec2 { return Vec2(v.m().Mul(k)) }
func (v Vec2) Dot(o Vec2) float64   { return v.m().Dot(o.m()) }
func (v Vec2) LenSq() float64       { return v.m().LenSqr() }
func (v Vec2) Len() float64         { return v.m().Len() }
func (v Vec2) Dist(o Vec2) float64  { return v.Sub(o).Len() }
func (v Vec2) IsZero() bool         { return v == Vec2{} }
func (v Vec2) Heading() float64     { return math.Atan2(v[1], v[0]) }
func (v Vec2) Lerp(o Vec2, t float64) Vec2 {
	return Vec2(v.m().Add(o.m().Sub(v.m()).Mul(t)))
}

// Normalize returns the unit vector, or zero for vectors too short to have a
// meaningful direction.
func (v Vec2) Normalize() Vec2 {
	if v.Len() < 1e-5 {
		return Vec2{}
	}
	return Vec2(v.m().Normalize())
}

// Perp returns up × v: the direction 90° clockwise when viewed from above.
func (v Vec2) Perp() Vec2 { return Vec2{v[1], -v[0]} }

// ClampLen limits the vector length to limit.
func (v Vec2) ClampLen(limit float64) Vec2 {
	l2 := v.LenSq()
	if l2 <= limit*limit || l2 == 0 {
		return v
	}
	return v.Scale(limit / math.Sqrt(l2))
}

// MoveTowards steps v toward target by at most maxDelta.
func (v Vec2) MoveTowards(target Vec2, maxDelta float64) Vec2 {
	d := target.Sub(v)
	dist := d.Len()
	if dist <= maxDelta || dist == 0 {
		return target
	}
	return v.Add(d.Scale(maxDelta / dist))
}

// FromHeading returns the unit vector for a heading in radians.
func FromHeading(h float64) Vec2 { return Vec2{math.Cos(h), math.Sin(h)} }

// Vec3 is a ball position: court plane plus height above the floor (Z).
type Vec3 mgl64.Vec3

func (v Vec3) m() mgl64.Vec3 { return mgl64.Vec3(v) }

func (v Vec3) X() float64 { return v[0] }
func (v Vec3) Y() float64 { return v[1] }
func (v Vec3) Z() float64 { return v[2] }

// Ground drops the height component.
func (v Vec3) Ground() Vec2 { return Vec2(v.m().Vec2()) }

func (v Vec3) Add(o Vec3) Vec3      { return Vec3(v.m().Add(o.m())) }
func (v Vec3) Sub(o Vec3) Vec3      { return Vec3(v.m().Sub(o.m())) }
func (v Vec3) Scale(k float64) Vec3 { return Vec3(v.m().Mul(k)) }
func (v Vec3) Len() float64         { return v.m().Len() }
func (v Vec3) Dist(o Vec3) float64  { return v.Sub(o).Len() }
func (v Vec3) Lerp(o Vec3, t float64) Vec3 {
	return Vec3(v.m().Add(o.m().Sub(v.m()).Mul(t)))
}

// At lifts a court point to the given height.
func At(p Vec2, height float64) Vec3 { return Vec3(p.m().Vec3(height)) }

// RotateTowards turns a heading toward targetAngle by at most maxStep radians.
func RotateTowards(heading, targetAngle, maxStep float64) float64 {
	diff := normalizeAngle(targetAngle - heading)
	if math.Abs(diff) <= maxStep {
		return normalizeAngle(targetAngle)
	}
	if diff > 0 {
		return normalizeAngle(heading + maxStep)
	}
	return normalizeAngle(heading - maxStep)
}

// HeadingTo returns the angle in radians from (ox,oy) toward (tx,ty).
func HeadingTo(ox, oy, tx, ty float64) float64 {
	return math.Atan2(ty-oy, tx-ox)
}

// normalizeAngle wraps an angle to [-pi, pi].
func normalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// randRange returns a uniform value in [lo, hi).
func randRange(rng interface{ Float64() float64 }, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

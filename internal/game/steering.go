package game

import (
	"math"
	"math/rand"
)

// Each steering term returns a desired-velocity contribution in m/s. They
// read live neighbour positions and never mutate other agents.

const (
	// Team formation keeps teammates inside this spacing band.
	formationMinSpacing = 1.5
	formationMaxSpacing = 5.0
	// Team mixing pulls toward opponents inside this band.
	mixingMinDist = 1.0
	mixingMaxDist = 12.0
	// Fraction of the remaining pass segment where interceptors aim.
	passCutLead = 0.3
)

func clampToCourt(c *Court, p Vec2) Vec2 {
	if c == nil {
		return p
	}
	return c.ClampToPlayable(p)
}

// side returns the lateral escape direction relative to the current motion.
func (a *Agent) side() Vec2 {
	if a.vel.LenSq() > 0.01 {
		return a.vel.Normalize().Perp()
	}
	return a.forward().Perp()
}

func (a *Agent) wander(w *World, dt float64) Vec2 {
	j := a.p.WanderJitter
	jitter := V2(math.Sin(w.Now*8+a.wanderOffX)*j, math.Cos(w.Now*10+a.wanderOffY)*j)
	a.wanderTarget = a.wanderTarget.Add(jitter.Scale(dt))
	a.wanderTarget = a.pos.
		Add(a.forward().Scale(a.p.WanderDistance)).
		Add(a.wanderTarget.Sub(a.pos).Normalize().Scale(a.p.WanderRadius))
	a.wanderTarget = clampToCourt(w.Court, a.wanderTarget)
	return a.wanderTarget.Sub(a.pos)
}

func (a *Agent) roamSeek() Vec2 {
	if !a.p.EnableRoam {
		return Vec2{}
	}
	to := a.roamTarget.Sub(a.pos)
	if to.LenSq() < 1e-4 {
		return Vec2{}
	}
	return to.Normalize().Scale(a.p.RoamSeekStrength)
}

func (a *Agent) separation(agents []*Agent) Vec2 {
	var force Vec2
	n := 0
	for _, o := range agents {
		if o == a {
			continue
		}
		toMe := a.pos.Sub(o.pos)
		d := toMe.Len()
		if d > 1e-4 && d < a.p.SeparationRadius {
			s := 1 - d/a.p.SeparationRadius
			force = force.Add(toMe.Normalize().Scale(s * s))
			n++
		}
	}
	if n == 0 {
		return Vec2{}
	}
	return force.Scale(1 / float64(n)).Scale(a.p.SeparationStrength * 2)
}

func (a *Agent) avoidance(agents []*Agent) Vec2 {
	var force Vec2
	n := 0
	side := a.side()
	for _, o := range agents {
		if o == a {
			continue
		}
		toMe := a.pos.Sub(o.pos)
		d := toMe.Len()
		if d > 1e-4 && d < a.p.AvoidanceRadius {
			away := toMe.Normalize().Add(side.Scale(0.5)).Normalize()
			s := 1 - d/a.p.AvoidanceRadius
			force = force.Add(away.Scale(s * s))
			n++
		}
	}
	if n == 0 {
		return Vec2{}
	}
	return force.Scale(1 / float64(n)).Scale(a.p.AvoidanceStrength * 2)
}

func (a *Agent) humanAvoidance(walkers []*Walker) Vec2 {
	var force Vec2
	n := 0
	side := a.side()
	for _, h := range walkers {
		toMe := a.pos.Sub(h.Pos())
		d := toMe.Len()
		if d > 1e-4 && d < a.p.HumanAvoidanceRadius {
			s := 1 - d/a.p.HumanAvoidanceRadius
			away := toMe.Normalize().Add(side.Scale(0.9)).Normalize()
			force = force.Add(away.Scale(s * s * 1.5))
			n++
		}
	}
	if n == 0 {
		return Vec2{}
	}
	return force.Scale(1 / float64(n)).Scale(a.p.HumanAvoidanceStrength)
}

func (a *Agent) emergencySeparation(agents []*Agent) Vec2 {
	r := a.p.EmergencyRadius
	var force Vec2
	n := 0
	for _, o := range agents {
		if o == a {
			continue
		}
		toMe := a.pos.Sub(o.pos)
		d := toMe.Len()
		if d > 1e-4 && d < r {
			s := (r - d) / r
			force = force.Add(toMe.Normalize().Scale(s * s * s))
			n++
		}
	}
	if n == 0 {
		return Vec2{}
	}
	return force.Scale(1 / float64(n))
}

// boundaryPush combines a proportional push for the current overshoot with a
// lighter predictive push for where the agent is heading.
func (a *Agent) boundaryPush(c *Court) Vec2 {
	if c == nil {
		return Vec2{}
	}
	r := c.Playable()
	var push Vec2
	maxDist := 0.0

	overshoot := func(p Vec2, wx, wMinY, wMaxY float64) {
		if p.X() < r.MinX {
			d := r.MinX - p.X()
			push[0] += d * wx
			maxDist = math.Max(maxDist, d)
		}
		if p.X() > r.MaxX {
			d := p.X() - r.MaxX
			push[0] -= d * wx
			maxDist = math.Max(maxDist, d)
		}
		if p.Y() < r.MinY {
			d := r.MinY - p.Y()
			push[1] += d * wMinY
			maxDist = math.Max(maxDist, d)
		}
		if p.Y() > r.MaxY {
			d := p.Y() - r.MaxY
			push[1] -= d * wMaxY
			maxDist = math.Max(maxDist, d)
		}
	}

	overshoot(a.pos, 1, 1, 1)
	if a.vel.Len() > 0.1 {
		// The min-Y end backs onto the spectator side, so it predicts harder.
		predicted := a.pos.Add(a.vel.Normalize().Scale(a.p.PredictiveBoundaryDistance))
		overshoot(predicted, 0.5, 0.8, 0.5)
	}

	if maxDist > 0 {
		f := math.Min(a.p.BoundaryPushStrength*a.p.BoundaryForceMultiplier*maxDist, a.p.MaxBoundaryForce)
		return push.Normalize().Scale(f)
	}
	return push.Normalize().Scale(a.p.BoundaryPushStrength)
}

func (a *Agent) wallAvoidance(c *Court, rng *rand.Rand) Vec2 {
	if c == nil || len(c.Walls) == 0 {
		return Vec2{}
	}
	var avoid Vec2
	heading := a.forward()
	if a.vel.LenSq() > 0.01 {
		heading = a.vel.Normalize()
	}
	for _, wall := range c.Walls {
		toMe := a.pos.Sub(wall.ClosestPoint(a.pos))
		d := toMe.Len()
		if d < a.p.WallDetectDistance && d > 1e-4 {
			away := toMe.Normalize()
			s := (1 - d/a.p.WallDetectDistance) * a.p.WallAvoidStrength
			tangent := away.Perp()
			slide := tangent.Scale(sign(heading.Dot(tangent)))
			avoid = avoid.Add(away.Scale(s)).Add(slide.Scale(s * 0.6))
		}
	}
	if closest, d, ok := c.ClosestWall(a.pos); ok && d < a.p.WallHardThreshold {
		away := a.pos.Sub(closest).Normalize()
		jitter := V2(randRange(rng, -1, 1), randRange(rng, -1, 1)).Normalize()
		escape := away.Add(jitter.Scale(0.5)).Normalize()
		avoid = avoid.Add(escape.Scale(a.p.WallAvoidStrength * 2))
	}
	return avoid
}

func (a *Agent) teamCohesion(agents []*Agent) Vec2 {
	if a.team == TeamNeutral {
		return Vec2{}
	}
	var center Vec2
	n := 0
	for _, o := range agents {
		if o != a && o.team == a.team {
			center = center.Add(o.pos)
			n++
		}
	}
	if n == 0 {
		return Vec2{}
	}
	center = center.Scale(1 / float64(n))
	to := center.Sub(a.pos)
	d := to.Len()
	r := a.p.TeamCohesionRadius
	if d <= r {
		return Vec2{}
	}
	s := clamp01((d - r) / r)
	return to.Normalize().Scale(a.p.TeamCohesionStrength * s * 0.5)
}

func (a *Agent) teamFormation(agents []*Agent) Vec2 {
	if a.team == TeamNeutral {
		return Vec2{}
	}
	var force Vec2
	n := 0
	for _, o := range agents {
		if o == a || o.team != a.team {
			continue
		}
		to := o.pos.Sub(a.pos)
		d := to.Len()
		switch {
		case d < formationMinSpacing:
			force = force.Add(to.Normalize().Scale(-(formationMinSpacing - d) * 0.5))
		case d > formationMaxSpacing:
			force = force.Add(to.Normalize().Scale((d - formationMaxSpacing) * 0.3))
		}
		n++
	}
	if n > 0 {
		force = force.Scale(1 / float64(n))
	}
	return force.Scale(a.p.TeamFormationStrength)
}

func (a *Agent) opponentAvoidance(agents []*Agent) Vec2 {
	var force Vec2
	n := 0
	for _, o := range agents {
		if o == a || !a.team.Opposes(o.team) {
			continue
		}
		toMe := a.pos.Sub(o.pos)
		d := toMe.Len()
		if d < a.p.OpponentAvoidanceRadius && d > 1e-4 {
			s := (1 - d/a.p.OpponentAvoidanceRadius) * a.p.OpponentAvoidanceStrength
			force = force.Add(toMe.Normalize().Scale(s))
			n++
		}
	}
	if n == 0 {
		return Vec2{}
	}
	return force.Scale(1 / float64(n))
}

func (a *Agent) teamMixing(agents []*Agent) Vec2 {
	var force Vec2
	n := 0
	for _, o := range agents {
		if o == a || !a.team.Opposes(o.team) {
			continue
		}
		to := o.pos.Sub(a.pos)
		d := to.Len()
		if d > mixingMinDist && d < mixingMaxDist {
			s := (d - mixingMinDist) / (mixingMaxDist - mixingMinDist)
			force = force.Add(to.Normalize().Scale(s * a.p.TeamMixingStrength))
			n++
		}
	}
	if n == 0 {
		return Vec2{}
	}
	return force.Scale(1 / float64(n))
}

// passCut steers toward an interception point on an opposing ball's flight.
// Each in-flight ball gets an independent PassCutChance roll per tick.
func (a *Agent) passCut(balls []*PassController, rng *rand.Rand) Vec2 {
	a.lastCutSuccess = 0
	var force Vec2
	me := At(a.pos, a.p.FixedY)
	for _, b := range balls {
		if !b.IsMoving() || !a.mayCut(b.Team()) {
			continue
		}
		ballPos := b.Position()
		target := b.CurrentTarget()
		ballDist := ballPos.Dist(target)
		speed := b.CurrentSpeed()
		if speed <= 0 || ballDist < 1e-4 {
			continue
		}
		timeToTarget := ballDist / speed

		if rng.Float64() >= a.p.PassCutChance {
			continue
		}
		cut := ballPos.Lerp(target, passCutLead)
		toCut := cut.Sub(me)
		d := toCut.Len()
		if d > a.p.PassCutDetectionRadius || d < 1e-4 {
			continue
		}
		timeToCut := d / a.p.MaxSpeed
		success := clamp01(1 - timeToCut/timeToTarget)
		if success < 0.1 {
			continue
		}
		a.lastCutSuccess = math.Max(a.lastCutSuccess, success)
		dir := toCut.Scale(1 / d)
		force = force.Add(dir.Ground().Scale(a.p.PassCutStrength * success))
	}
	return force
}

// mayCut reports whether this agent contests a ball owned by team t.
func (a *Agent) mayCut(t Team) bool {
	return a.team == TeamNeutral || t == TeamNeutral || a.team != t
}

// CutSuccess is the best interception estimate from the last tick.
func (a *Agent) CutSuccess() float64 { return a.lastCutSuccess }

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

package game

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
)

// Team distinguishes the two passing sides from unaffiliated agents.
type Team int

const (
	TeamWhite Team = iota
	TeamBlack
	TeamNeutral
)

func (t Team) String() string {
	switch t {
	case TeamWhite:
		return "white"
	case TeamBlack:
		return "black"
	default:
		return "neutral"
	}
}

// UnmarshalText accepts the team name, case-insensitive.
func (t *Team) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "white", "w":
		*t = TeamWhite
	case "black", "b":
		*t = TeamBlack
	case "neutral", "n", "":
		*t = TeamNeutral
	default:
		return fmt.Errorf("team %q: %w", b, ErrInvalidValue)
	}
	return nil
}

// MarshalText writes the team name.
func (t Team) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// Opposes reports whether other is a rival side. Neutral opposes nobody.
func (t Team) Opposes(other Team) bool {
	return t != TeamNeutral && other != TeamNeutral && t != other
}

// World is the read-mostly view of the simulation handed to each agent
// update. Agents see each other's live positions, so update order matters.
type World struct {
	Court   *Court
	Agents  []*Agent
	Walkers []*Walker
	Balls   []*PassController
	Tick    int
	Now     float64
	Rng     *rand.Rand
	// Thoughts receives behaviour changes for the viewer. May be nil.
	Thoughts *ThoughtLog
}

// Agent is a capsule player moving on the court plane.
type Agent struct {
	id    int
	name  string
	team  Team
	p     AgentParams
	pos   Vec2
	vel   Vec2
	head  float64 // radians, 0 = +X
	speed float64 // last |vel|, cached for reporting

	idle      bool
	idleTimer float64

	sprintUntil float64
	sprinting   bool

	wanderTarget   Vec2
	wanderOffX     float64
	wanderOffY     float64
	roamTarget     Vec2
	roamTimer      float64
	dirTimer       float64
	frozenUntil    float64
	paused         bool
	outOfBounds    bool
	cutting        bool
	contact        bool
	lastCutSuccess float64

	heightOn         bool
	heightWasOn      bool
	heightSpeed      float64
	heightBlendUntil float64
	heightBlendStart float64
	scale            float64
}

// NewAgent places an agent at pos facing heading. The speed preset in p is
// applied on top of the explicit locomotion values.
func NewAgent(id int, name string, team Team, pos Vec2, heading float64, p AgentParams, rng *rand.Rand) *Agent {
	p.ApplySpeedPreset(p.SpeedPreset)
	a := &Agent{
		id:          id,
		name:        name,
		team:        team,
		p:           p,
		pos:         pos,
		head:        normalizeAngle(heading),
		paused:      p.StartPaused,
		heightOn:    p.EnableHeightVariation,
		heightWasOn: p.EnableHeightVariation,
		heightSpeed: clampf(p.HeightChangeSpeed, heightSpeedMin, heightSpeedMax),
		scale:       1,
	}
	a.wanderOffX = randRange(rng, 0, 2*math.Pi)
	a.wanderOffY = randRange(rng, 0, 2*math.Pi)
	a.wanderTarget = pos.Add(a.forward().Scale(p.WanderDistance))
	a.roamTarget = pos
	a.resetRoamTimer(rng)
	return a
}

// AgentName builds the roster label for the n-th (1-based) member of a team.
func AgentName(t Team, n int) string {
	switch t {
	case TeamWhite:
		return fmt.Sprintf("W%d", n)
	case TeamBlack:
		return fmt.Sprintf("B%d", n)
	default:
		return fmt.Sprintf("N%d", n)
	}
}

func (a *Agent) ID() int             { return a.id }
func (a *Agent) Name() string        { return a.name }
func (a *Agent) Team() Team          { return a.team }
func (a *Agent) Pos() Vec2           { return a.pos }
func (a *Agent) Velocity() Vec2      { return a.vel }
func (a *Agent) Heading() float64    { return a.head }
func (a *Agent) Params() AgentParams { return a.p }
func (a *Agent) IsIdle() bool        { return a.idle }
func (a *Agent) IsSprinting() bool   { return a.sprinting }
func (a *Agent) IsPaused() bool      { return a.paused }
func (a *Agent) OutOfBounds() bool   { return a.outOfBounds }
func (a *Agent) Cutting() bool       { return a.cutting }
func (a *Agent) InContact() bool     { return a.contact }
func (a *Agent) RoamTarget() Vec2    { return a.roamTarget }
func (a *Agent) WanderTarget() Vec2  { return a.wanderTarget }

// Elevation is the fixed plane the agent's root sits on.
func (a *Agent) Elevation() float64 { return a.p.FixedY }

// Scale is the rendered vertical scale factor in [0.5, 1].
func (a *Agent) Scale() float64 { return a.scale }

// IsFrozen reports whether a FreezeFor deadline is still pending.
func (a *Agent) IsFrozen(now float64) bool { return now < a.frozenUntil }

// SetPosition teleports the agent. Used by setup and tests.
func (a *Agent) SetPosition(p Vec2) { a.pos = p }

// SetVelocity overrides the current velocity, clamped to MaxSpeed.
func (a *Agent) SetVelocity(v Vec2) { a.vel = v.ClampLen(a.p.MaxSpeed) }

func (a *Agent) forward() Vec2 { return FromHeading(a.head) }

// ApplySpeedPreset switches locomotion limits at runtime.
func (a *Agent) ApplySpeedPreset(sp SpeedPreset) {
	a.p.ApplySpeedPreset(sp)
	a.vel = a.vel.ClampLen(a.p.MaxSpeed)
}

// SetIdleState forces the idle flag. A positive duration sets the idle timer;
// clearing idle zeroes it.
func (a *Agent) SetIdleState(idle bool, duration float64) {
	a.idle = idle
	if idle && duration > 0 {
		a.idleTimer = duration
	} else if !idle {
		a.idleTimer = 0
	}
}

// FreezeFor stops all motion, external forces included, until now+d. An
// existing later deadline is kept.
func (a *Agent) FreezeFor(now, d float64) {
	a.frozenUntil = math.Max(a.frozenUntil, now+math.Max(0, d))
	a.vel = Vec2{}
}

// Pause halts the agent until Resume.
func (a *Agent) Pause() {
	a.paused = true
	a.vel = Vec2{}
}

// Resume lifts a Pause.
func (a *Agent) Resume() { a.paused = false }

// SetHeightChangeSpeed sets the oscillation speed, clamped to the allowed range.
func (a *Agent) SetHeightChangeSpeed(v float64) {
	a.heightSpeed = clampf(v, heightSpeedMin, heightSpeedMax)
}

// HeightChangeSpeed returns the current oscillation speed.
func (a *Agent) HeightChangeSpeed() float64 { return a.heightSpeed }

func (a *Agent) setHeightVariation(on bool) { a.heightOn = on }

// HeightFactor is the unblended oscillation factor used for landing-point
// prediction; 1 while height variation is off.
func (a *Agent) HeightFactor(now float64) float64 {
	if !a.heightOn {
		return 1
	}
	return a.targetHeightFactor(now)
}

func (a *Agent) targetHeightFactor(now float64) float64 {
	return clampf(0.75+0.25*math.Sin(now*a.heightSpeed+float64(a.id)), 0.5, 1)
}

// Update advances the agent by one tick.
func (a *Agent) Update(w *World, dt float64) {
	a.cutting = false
	a.contact = false
	if a.paused {
		a.vel = Vec2{}
		a.speed = 0
		return
	}
	if w.Now < a.frozenUntil {
		a.vel = Vec2{}
		a.speed = 0
		return
	}

	a.updateBehaviour(w, dt)
	a.updateRoaming(w, dt)

	boundary := a.boundaryPush(w.Court)
	a.outOfBounds = boundary.Len() > a.p.BoundaryPushStrength*0.5

	var desired Vec2
	if !a.idle {
		desired = desired.Add(a.wander(w, dt))
	}
	desired = desired.Add(a.roamSeek())
	desired = desired.Add(a.separation(w.Agents))
	desired = desired.Add(a.avoidance(w.Agents))
	if a.p.EnableHumanAvoidance {
		desired = desired.Add(a.humanAvoidance(w.Walkers))
	}
	desired = desired.Add(boundary)
	if e := a.emergencySeparation(w.Agents); e.LenSq() > 0.1 {
		desired = desired.Add(e.Scale(10))
	}

	if a.outOfBounds {
		desired = desired.ClampLen(a.p.MaxSpeed * 0.5)
	} else {
		desired = desired.Add(a.wallAvoidance(w.Court, w.Rng))
		if !a.p.DisableTeamForces {
			if a.p.EnableCohesion {
				desired = desired.Add(a.teamCohesion(w.Agents))
			}
			if a.p.EnableFormation {
				desired = desired.Add(a.teamFormation(w.Agents))
			}
			if a.p.EnableOpponentAvoidance {
				desired = desired.Add(a.opponentAvoidance(w.Agents))
			}
		}
		if a.p.EnableTeamMixing {
			desired = desired.Add(a.teamMixing(w.Agents))
		}
		if a.p.EnablePassCut {
			cut := a.passCut(w.Balls, w.Rng)
			if !cut.IsZero() {
				a.cutting = true
				desired = desired.Add(cut)
			}
		}
	}

	if a.sprinting && !a.outOfBounds {
		desired = desired.Scale(a.p.SprintMultiplier)
	}

	desiredVel := desired.ClampLen(a.p.MaxSpeed)
	a.vel = a.vel.MoveTowards(desiredVel, a.p.Acceleration*dt)

	dir := a.forward()
	if a.vel.LenSq() > 1e-4 {
		dir = a.vel.Normalize()
	}
	a.head = RotateTowards(a.head, dir.Heading(), a.p.TurnSpeedDegPerSec*math.Pi/180*dt)

	a.pos = a.pos.Add(a.vel.Scale(dt))
	a.resolveContacts(w, dt)
	a.speed = a.vel.Len()

	if a.heightOn {
		if !a.heightWasOn {
			a.heightBlendUntil = w.Now + math.Max(0, a.p.HeightResumeBlend)
			a.heightBlendStart = a.scale
		}
		a.applyHeightVariation(w.Now)
	}
	a.heightWasOn = a.heightOn
}

func (a *Agent) applyHeightVariation(now float64) {
	target := a.targetHeightFactor(now)
	if now < a.heightBlendUntil {
		total := math.Max(1e-4, a.p.HeightResumeBlend)
		t := clamp01(1 - (a.heightBlendUntil-now)/total)
		a.scale = a.heightBlendStart + (target-a.heightBlendStart)*t
		return
	}
	a.scale = target
}

// resolveContacts stands in for character-controller side collisions: any
// overlap with another body nudges the agent apart, and walls are solid.
func (a *Agent) resolveContacts(w *World, dt float64) {
	for _, o := range w.Agents {
		if o != a && a.pos.Dist(o.pos) < a.p.Radius*2 {
			a.contact = true
			break
		}
	}
	if !a.contact && a.p.EnableHumanAvoidance {
		for _, h := range w.Walkers {
			if a.pos.Dist(h.Pos()) < a.p.Radius+walkerRadius {
				a.contact = true
				break
			}
		}
	}
	if a.contact {
		if sep := a.separation(w.Agents); sep.LenSq() > 0.1 {
			a.pos = a.pos.Add(sep.Scale(dt * 5))
		}
		if a.p.EnableHumanAvoidance {
			if hf := a.humanAvoidance(w.Walkers); hf.LenSq() > 0.05 {
				a.pos = a.pos.Add(hf.Scale(dt * 5))
			}
		}
	}
	if w.Court == nil {
		return
	}
	for _, wall := range w.Court.Walls {
		if wall.Box.Contains(a.pos) {
			a.contact = true
			a.pos = w.Court.Floor.Clamp(a.pos)
		}
	}
}

func (a *Agent) updateBehaviour(w *World, dt float64) {
	rng := w.Rng
	if a.idle {
		a.idleTimer -= dt
		if a.idleTimer <= 0 {
			a.idle = false
			a.wanderTarget = a.pos.Add(randInDisk(rng).Scale(a.p.WanderRadius))
			a.wanderTarget = clampToCourt(w.Court, a.wanderTarget)
			a.think(w, "back on the move")
		}
	} else if rng.Float64() < a.p.IdleChance*dt {
		a.idle = true
		a.idleTimer = randRange(rng, 1, 3)
		a.think(w, fmt.Sprintf("idling %.1fs", a.idleTimer))
	}

	a.dirTimer -= dt
	if a.dirTimer <= 0 && rng.Float64() < a.p.DirectionChangeChance {
		dir := V2(randRange(rng, -1, 1), randRange(rng, -1, 1)).Normalize()
		a.wanderTarget = clampToCourt(w.Court, a.pos.Add(dir.Scale(a.p.WanderDistance)))
		a.dirTimer = 2 + float64(a.id)*0.5
	}

	if !a.idle && rng.Float64() < a.p.SprintChance*dt {
		if !a.sprinting {
			a.think(w, "sprint")
		}
		a.sprintUntil = w.Now + randRange(rng, 0.5, 2)
	}
	a.sprinting = w.Now < a.sprintUntil
}

func (a *Agent) resetRoamTimer(rng *rand.Rand) {
	a.roamTimer = randRange(rng, a.p.RoamIntervalMin, a.p.RoamIntervalMax)
}

func (a *Agent) pickRoamTarget(c *Court, rng *rand.Rand) {
	if c == nil {
		a.roamTarget = a.pos.Add(a.forward().Scale(6))
		return
	}
	a.roamTarget = c.RandomPoint(rng)
}

func (a *Agent) updateRoaming(w *World, dt float64) {
	if !a.p.EnableRoam {
		return
	}
	a.roamTimer -= dt
	if a.roamTimer <= 0 || a.pos.Dist(a.roamTarget) < a.p.RoamArrivalDistance {
		a.resetRoamTimer(w.Rng)
		a.pickRoamTarget(w.Court, w.Rng)
	}
}

func (a *Agent) think(w *World, msg string) {
	if w.Thoughts != nil {
		w.Thoughts.Add(w.Tick, a.name, a.team, msg)
	}
}

// randInDisk samples a point uniformly inside the unit disk.
func randInDisk(rng *rand.Rand) Vec2 {
	for {
		p := V2(randRange(rng, -1, 1), randRange(rng, -1, 1))
		if p.LenSq() <= 1 {
			return p
		}
	}
}

package game

import "math"

// walkerRadius is the walker's body radius for contact checks.
const walkerRadius = 0.3

// WalkerPhase is a step of the walker's scripted route.
type WalkerPhase int

const (
	WalkerInactive      WalkerPhase = iota // standing at the start point
	WalkerDelayed                          // counting down StartDelay
	WalkerWalkingToJump                    // heading for the jump spot
	WalkerJumping                          // jumping in place
	WalkerWalkingToGoal                    // heading for the goal
	WalkerArrived                          // done
)

func (wp WalkerPhase) String() string {
	switch wp {
	case WalkerInactive:
		return "inactive"
	case WalkerDelayed:
		return "delayed"
	case WalkerWalkingToJump:
		return "to-jump"
	case WalkerJumping:
		return "jumping"
	case WalkerWalkingToGoal:
		return "to-goal"
	case WalkerArrived:
		return "arrived"
	default:
		return "unknown"
	}
}

// WalkerParams describes the walker's route and gait.
type WalkerParams struct {
	Name              string  `yaml:"name"`
	WalkSpeed         float64 `yaml:"walk_speed"`
	Start             Vec2    `yaml:"start"`
	JumpPoint         Vec2    `yaml:"jump_point"`
	Goal              Vec2    `yaml:"goal"`
	ArrivalDistance   float64 `yaml:"arrival_distance"`
	StartDelay        float64 `yaml:"start_delay"`
	JumpCount         int     `yaml:"jump_count"`
	SingleJumpTime    float64 `yaml:"single_jump_time"`
	EnableAvoidance   bool    `yaml:"enable_avoidance"`
	AvoidanceDistance float64 `yaml:"avoidance_distance"`
	AvoidanceForce    float64 `yaml:"avoidance_force"`
	AutoStart         bool    `yaml:"auto_start"`
}

// DefaultWalkerParams walks up the centre line from the near baseline,
// jumps at half court and carries on to the far end.
func DefaultWalkerParams() WalkerParams {
	return WalkerParams{
		Name:              "H1",
		WalkSpeed:         2.0,
		Start:             V2(0.48, -11.301),
		JumpPoint:         V2(0.48, 0.76),
		Goal:              V2(0.48, 13.498),
		ArrivalDistance:   0.1,
		StartDelay:        3.0,
		JumpCount:         3,
		SingleJumpTime:    1.0,
		EnableAvoidance:   true,
		AvoidanceDistance: 1.0,
		AvoidanceForce:    2.0,
	}
}

// Walker is a scripted pedestrian crossing the court. Agents treat it as a
// human to avoid; it does not join passes.
type Walker struct {
	p       WalkerParams
	phase   WalkerPhase
	pos     Vec2
	head    float64
	target  Vec2
	delay   float64
	jumps   int
	jumpTmr float64
}

// NewWalker places a walker on its start point.
func NewWalker(p WalkerParams) *Walker {
	w := &Walker{
		p:      p,
		pos:    p.Start,
		target: p.JumpPoint,
		head:   HeadingTo(p.Start.X(), p.Start.Y(), p.JumpPoint.X(), p.JumpPoint.Y()),
	}
	if p.AutoStart {
		w.phase = WalkerWalkingToJump
	}
	return w
}

func (w *Walker) Name() string         { return w.p.Name }
func (w *Walker) Pos() Vec2            { return w.pos }
func (w *Walker) Heading() float64     { return w.head }
func (w *Walker) Phase() WalkerPhase   { return w.phase }
func (w *Walker) Target() Vec2         { return w.target }
func (w *Walker) JumpsDone() int       { return w.jumps }
func (w *Walker) Params() WalkerParams { return w.p }

// IsMoving reports whether the walker is on one of its walking legs.
func (w *Walker) IsMoving() bool {
	return w.phase == WalkerWalkingToJump || w.phase == WalkerWalkingToGoal
}

// Start restarts the route: back to the start point, then StartDelay seconds
// of standing before the first leg.
func (w *Walker) Start() {
	w.pos = w.p.Start
	w.target = w.p.JumpPoint
	w.jumps = 0
	w.delay = w.p.StartDelay
	w.phase = WalkerDelayed
}

// Stop halts the walker where it stands.
func (w *Walker) Stop() { w.phase = WalkerInactive }

// Update advances the walker by one tick. agents are the capsules it steps
// around.
func (w *Walker) Update(agents []*Agent, dt float64) {
	switch w.phase {
	case WalkerDelayed:
		w.delay -= dt
		if w.delay <= 0 {
			w.phase = WalkerWalkingToJump
			w.target = w.p.JumpPoint
		}
	case WalkerWalkingToJump, WalkerWalkingToGoal:
		w.walk(agents, dt)
	case WalkerJumping:
		w.jumpTmr -= dt
		if w.jumpTmr > 0 {
			return
		}
		if w.jumps < w.p.JumpCount {
			w.jumps++
			w.jumpTmr = w.p.SingleJumpTime
			return
		}
		w.phase = WalkerWalkingToGoal
		w.target = w.p.Goal
	}
}

func (w *Walker) walk(agents []*Agent, dt float64) {
	if w.pos.Dist(w.target) <= w.p.ArrivalDistance {
		w.arrive()
		return
	}
	dir := w.target.Sub(w.pos).Normalize()
	if w.p.EnableAvoidance {
		if avoid := w.avoidance(agents); avoid.Len() > 0.1 {
			dir = avoid.Normalize()
		}
	}
	w.pos = w.pos.Add(dir.Scale(w.p.WalkSpeed * dt))
	if dir.Len() > 0.1 {
		// Eased turn: close 5*dt of the remaining angle each tick.
		diff := normalizeAngle(dir.Heading() - w.head)
		w.head = normalizeAngle(w.head + diff*math.Min(1, 5*dt))
	}
}

func (w *Walker) arrive() {
	switch w.phase {
	case WalkerWalkingToJump:
		w.phase = WalkerJumping
		w.jumps = 1
		w.jumpTmr = w.p.SingleJumpTime
	case WalkerWalkingToGoal:
		w.phase = WalkerArrived
	}
}

func (w *Walker) avoidance(agents []*Agent) Vec2 {
	var v Vec2
	for _, a := range agents {
		d := w.pos.Dist(a.pos)
		if d >= w.p.AvoidanceDistance {
			continue
		}
		s := clamp01(1 - d/w.p.AvoidanceDistance)
		v = v.Add(w.pos.Sub(a.pos).Normalize().Scale(s * w.p.AvoidanceForce))
	}
	return v
}

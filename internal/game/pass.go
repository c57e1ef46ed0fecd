package game

import (
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"
)

// PassState is the phase of a ball's pass cycle.
type PassState int

const (
	PassWaitingForStart PassState = iota // ball parked on the team anchor
	PassMoving                           // in flight toward the receiver
	PassHolding                          // receiver holds before the next pass
)

func (ps PassState) String() string {
	switch ps {
	case PassWaitingForStart:
		return "waiting"
	case PassMoving:
		return "moving"
	case PassHolding:
		return "holding"
	default:
		return "unknown"
	}
}

// BallSpeedPreset selects the pass target speed.
type BallSpeedPreset int

const (
	BallVerySlow BallSpeedPreset = iota
	BallSlow
	BallNormal
	BallFast
	BallVeryFast
	BallCustom
)

var ballPresetNames = [...]string{"very-slow", "slow", "normal", "fast", "very-fast", "custom"}

func (bp BallSpeedPreset) String() string {
	if bp < 0 || int(bp) >= len(ballPresetNames) {
		return "unknown"
	}
	return ballPresetNames[bp]
}

// UnmarshalText accepts the preset name.
func (bp *BallSpeedPreset) UnmarshalText(b []byte) error {
	for i, n := range ballPresetNames {
		if strings.EqualFold(string(b), n) {
			*bp = BallSpeedPreset(i)
			return nil
		}
	}
	return fmt.Errorf("ball speed preset %q: %w", b, ErrInvalidValue)
}

// MarshalText writes the preset name.
func (bp BallSpeedPreset) MarshalText() ([]byte, error) { return []byte(bp.String()), nil }

// speed returns the preset's target speed in m/s; ok is false for Custom.
func (bp BallSpeedPreset) speed() (float64, bool) {
	switch bp {
	case BallVerySlow:
		return 1.5, true
	case BallSlow:
		return 2.5, true
	case BallNormal:
		return 4.0, true
	case BallFast:
		return 6.0, true
	case BallVeryFast:
		return 8.0, true
	}
	return 0, false
}

// PassParams tunes one ball.
type PassParams struct {
	Team Team `yaml:"team"`

	EnablePrediction  bool    `yaml:"enable_prediction"`
	PreciseLanding    bool    `yaml:"precise_landing"`
	EnablePassPause   bool    `yaml:"enable_pass_pause"`
	PassPauseDuration float64 `yaml:"pass_pause_duration"`
	PassSpeed         float64 `yaml:"pass_speed"`
	HoldTime          float64 `yaml:"hold_time"`
	ArcHeight         float64 `yaml:"arc_height"`
	TargetHeight      float64 `yaml:"target_height"`
	MinPassDistance   float64 `yaml:"min_pass_distance"`
	RefreshInterval   float64 `yaml:"refresh_interval"`
	AutoStart         bool    `yaml:"auto_start"`

	EnableSpeedControl bool            `yaml:"enable_speed_control"`
	MinSpeed           float64         `yaml:"min_speed"`
	MaxSpeed           float64         `yaml:"max_speed"`
	SpeedAcceleration  float64         `yaml:"speed_acceleration"`
	TargetSpeed        float64         `yaml:"target_speed"`
	SpeedPreset        BallSpeedPreset `yaml:"speed_preset"`

	EnablePassCounter bool `yaml:"enable_pass_counter"`

	// EarlyFlightCutoff is the progress below which the flight re-anchors on
	// the live receiver.
	EarlyFlightCutoff       float64 `yaml:"early_flight_cutoff"`
	TrackReceiverFullFlight bool    `yaml:"track_receiver_full_flight"`
	// ResumeFreeze is how long a resume holds the team and height variation.
	ResumeFreeze float64 `yaml:"resume_freeze"`
}

// DefaultPassParams returns the standard tuning for a team's ball.
func DefaultPassParams(t Team) PassParams {
	return PassParams{
		Team:               t,
		PreciseLanding:     true,
		EnablePassPause:    true,
		PassPauseDuration:  2.5,
		PassSpeed:          7.0,
		HoldTime:           0.4,
		ArcHeight:          0.35,
		TargetHeight:       1.2,
		MinPassDistance:    0.5,
		RefreshInterval:    0.1,
		EnableSpeedControl: true,
		MinSpeed:           0.5,
		MaxSpeed:           12.0,
		SpeedAcceleration:  2.0,
		TargetSpeed:        7.0,
		SpeedPreset:        BallFast,
		EnablePassCounter:  true,
		EarlyFlightCutoff:  0.1,
		ResumeFreeze:       1.0,
	}
}

const (
	// Seconds of receiver motion extrapolated when prediction is on.
	landingPredictionTime = 0.1
	passPauseMin          = 0.1
	passPauseMax          = 3.0
)

// PassController moves one ball around the members of a team.
type PassController struct {
	p   PassParams
	log *zap.Logger

	state     PassState
	teammates []*Agent
	index     int // current holder, or receiver while moving

	pos      Vec3
	lastPos  Vec3
	start    Vec3
	end      Vec3
	travel   float64
	t        float64
	hold     float64
	refresh  float64
	speed    float64
	measured float64

	total   int
	session int
	skipped int
}

// NewPassController creates a ball waiting for its first resume.
func NewPassController(p PassParams, log *zap.Logger) *PassController {
	if log == nil {
		log = zap.NewNop()
	}
	pc := &PassController{
		p:     p,
		log:   log.With(zap.String("ball", p.Team.String())),
		state: PassWaitingForStart,
		speed: p.PassSpeed,
	}
	pc.applySpeedPreset()
	return pc
}

func (pc *PassController) Team() Team            { return pc.p.Team }
func (pc *PassController) Params() PassParams    { return pc.p }
func (pc *PassController) State() PassState      { return pc.state }
func (pc *PassController) IsMoving() bool        { return pc.state == PassMoving }
func (pc *PassController) Position() Vec3        { return pc.pos }
func (pc *PassController) Progress() float64     { return pc.t }
func (pc *PassController) CurrentSpeed() float64 { return pc.speed }
func (pc *PassController) TargetSpeed() float64  { return pc.p.TargetSpeed }
func (pc *PassController) Preset() BallSpeedPreset {
	return pc.p.SpeedPreset
}

// MeasuredSpeed is the ball's displacement over the last tick in m/s.
func (pc *PassController) MeasuredSpeed() float64 { return pc.measured }

// CurrentTarget is the landing point of the flight in progress.
func (pc *PassController) CurrentTarget() Vec3 { return pc.end }

// HoldRemaining is the time left before the next automatic pass.
func (pc *PassController) HoldRemaining() float64 { return pc.hold }

func (pc *PassController) TotalPasses() int   { return pc.total }
func (pc *PassController) SessionPasses() int { return pc.session }
func (pc *PassController) SkippedPasses() int { return pc.skipped }

// Holder returns the agent the ball belongs to: the receiver while moving.
func (pc *PassController) Holder() *Agent {
	if len(pc.teammates) == 0 {
		return nil
	}
	return pc.teammates[pc.index]
}

// Teammates returns the current rotation in roster order.
func (pc *PassController) Teammates() []*Agent { return pc.teammates }

// ResetPassCount zeroes both counters.
func (pc *PassController) ResetPassCount() {
	pc.total = 0
	pc.session = 0
}

// ResetSessionPassCount zeroes the session counter only.
func (pc *PassController) ResetSessionPassCount() { pc.session = 0 }

// SetTargetSpeed sets a custom target speed within [MinSpeed, MaxSpeed].
func (pc *PassController) SetTargetSpeed(v float64) {
	pc.p.TargetSpeed = clampf(v, pc.p.MinSpeed, pc.p.MaxSpeed)
	pc.p.SpeedPreset = BallCustom
}

// SetSpeedPreset selects a preset target speed.
func (pc *PassController) SetSpeedPreset(bp BallSpeedPreset) {
	pc.p.SpeedPreset = bp
	pc.applySpeedPreset()
}

// SetPassPauseDuration clamps and stores the sender/receiver pause.
func (pc *PassController) SetPassPauseDuration(d float64) {
	pc.p.PassPauseDuration = clampf(d, passPauseMin, passPauseMax)
}

func (pc *PassController) SetPredictionEnabled(on bool)     { pc.p.EnablePrediction = on }
func (pc *PassController) SetPreciseLandingEnabled(on bool) { pc.p.PreciseLanding = on }
func (pc *PassController) SetPassPauseEnabled(on bool)      { pc.p.EnablePassPause = on }
func (pc *PassController) SetPassCounterEnabled(on bool)    { pc.p.EnablePassCounter = on }

func (pc *PassController) applySpeedPreset() {
	if v, ok := pc.p.SpeedPreset.speed(); ok {
		pc.p.TargetSpeed = v
	}
}

// Init binds the ball to the roster: it either parks on the anchor or, with
// AutoStart, throws the first pass immediately.
func (pc *PassController) Init(w *World) {
	pc.refreshTeammates(w.Agents)
	if pc.p.AutoStart && len(pc.teammates) >= 2 {
		pc.state = PassHolding
		pc.snapToAnchor(w.Now)
		pc.beginNextPass(w)
	} else {
		pc.snapToAnchor(w.Now)
	}
	pc.lastPos = pc.pos
}

// refreshTeammates rebuilds the rotation from the roster, keeping roster order.
func (pc *PassController) refreshTeammates(agents []*Agent) {
	pc.teammates = pc.teammates[:0]
	for _, a := range agents {
		if a.team == pc.p.Team {
			pc.teammates = append(pc.teammates, a)
		}
	}
	if n := len(pc.teammates); n > 0 {
		pc.index = min(max(pc.index, 0), n-1)
	} else {
		pc.index = 0
	}
}

// snapToAnchor parks the ball on the team's first member.
func (pc *PassController) snapToAnchor(now float64) {
	if len(pc.teammates) == 0 {
		return
	}
	anchor := AgentName(pc.p.Team, 1)
	pc.index = 0
	for i, a := range pc.teammates {
		if a.name == anchor {
			pc.index = i
			break
		}
	}
	pc.pos = pc.landingPoint(pc.teammates[pc.index], now)
}

// landingPoint is where a pass to a aims: chest height above its root, with
// optional capsule-centre and velocity corrections.
func (pc *PassController) landingPoint(a *Agent, now float64) Vec3 {
	p := At(a.pos, a.p.FixedY)
	if pc.p.PreciseLanding {
		p[2] += a.p.CenterY * a.scale
	}
	if pc.p.EnablePrediction {
		if v := a.vel; v.Len() > 0.1 {
			g := a.pos.Add(v.Scale(landingPredictionTime))
			p[0], p[1] = g[0], g[1]
		}
	}
	p[2] += pc.p.TargetHeight
	return p
}

// StartPassingNow leaves the waiting state and throws unless a pass is
// already in flight.
func (pc *PassController) StartPassingNow(w *World) {
	pc.refreshTeammates(w.Agents)
	if pc.state == PassMoving {
		return
	}
	pc.hold = 0
	pc.state = PassHolding
	pc.beginNextPass(w)
}

// ResumePassing is the external go signal. It briefly freezes the team and
// global height variation, then starts the next pass if the ball is parked
// or holding.
func (pc *PassController) ResumePassing(w *World) {
	pc.refreshTeammates(w.Agents)
	if w.Court != nil {
		w.Court.FreezeHeightVariationFor(w.Now, pc.p.ResumeFreeze)
	}
	for _, a := range pc.teammates {
		a.SetIdleState(true, pc.p.ResumeFreeze)
		a.FreezeFor(w.Now, pc.p.ResumeFreeze)
	}
	switch {
	case pc.state == PassMoving:
		return
	case pc.state == PassHolding && pc.hold > 0, pc.state == PassWaitingForStart:
		pc.hold = 0
		pc.state = PassHolding
		pc.beginNextPass(w)
	}
}

// beginNextPass throws to the next teammate in rotation, skipping anyone
// closer than MinPassDistance. With every candidate too close the ball keeps
// holding and retries after HoldTime.
func (pc *PassController) beginNextPass(w *World) {
	n := len(pc.teammates)
	if n < 2 {
		return
	}
	from := pc.teammates[pc.index]
	next := pc.index
	var to *Agent
	var toPos Vec3
	for _i, _end := 0, n-1; _i < _end; _i++ {
		next = (next + 1) % n
		cand := pc.teammates[next]
		p := pc.landingPoint(cand, w.Now)
		if pc.pos.Dist(p) >= pc.p.MinPassDistance {
			to, toPos = cand, p
			break
		}
		pc.skipped++
		pc.log.Debug("pass target too close", zap.String("target", cand.name))
	}
	if to == nil {
		pc.state = PassHolding
		pc.hold = pc.p.HoldTime
		return
	}

	if pc.p.EnablePassPause {
		from.SetIdleState(true, pc.p.PassPauseDuration)
		to.SetIdleState(true, pc.p.PassPauseDuration)
	}

	pc.start = pc.pos
	pc.end = toPos
	pc.travel = pc.start.Dist(pc.end)
	pc.t = 0
	pc.state = PassMoving
	pc.index = next

	if pc.p.EnablePassCounter {
		pc.total++
		pc.session++
	}
	pc.log.Debug("pass begin",
		zap.String("from", from.name),
		zap.String("to", to.name),
		zap.Float64("distance", pc.travel),
		zap.Int("total", pc.total))
}

// Update advances the ball by one tick.
func (pc *PassController) Update(w *World, dt float64) {
	if pc.p.EnableSpeedControl {
		pc.updateSpeedControl(w, dt)
	}

	pc.refresh -= dt
	if pc.refresh <= 0 {
		pc.refreshTeammates(w.Agents)
		pc.refresh = pc.p.RefreshInterval
	}
	if len(pc.teammates) < 2 {
		return
	}

	switch pc.state {
	case PassMoving:
		pc.updateFlight(w, dt)
	case PassWaitingForStart:
		pc.snapToAnchor(w.Now)
	case PassHolding:
		pc.hold -= dt
		if pc.hold <= 0 {
			pc.beginNextPass(w)
		}
	}

	if dt > 0 {
		pc.measured = pc.pos.Dist(pc.lastPos) / dt
	}
	pc.lastPos = pc.pos
}

func (pc *PassController) updateSpeedControl(w *World, dt float64) {
	pc.applySpeedPreset()
	if math.Abs(pc.speed-pc.p.TargetSpeed) <= 0.1 {
		return
	}
	old := pc.speed
	dir := 1.0
	if pc.p.TargetSpeed < pc.speed {
		dir = -1
	}
	pc.speed = clampf(pc.speed+dir*pc.p.SpeedAcceleration*dt, pc.p.MinSpeed, pc.p.MaxSpeed)
	if pc.state != PassMoving {
		return
	}
	// A large jump re-derives progress from where the ball actually is.
	if math.Abs(pc.speed-old) > 0.5 && pc.travel > 1e-4 {
		pc.t = clamp01(pc.pos.Dist(pc.start) / pc.travel)
	}
	pc.retarget(w.Now)
}

// retarget follows the live receiver during early flight (or the whole
// flight when configured) and re-anchors the start on the ball.
func (pc *PassController) retarget(now float64) {
	early := pc.t < pc.p.EarlyFlightCutoff
	if early || pc.p.TrackReceiverFullFlight {
		pc.end = pc.landingPoint(pc.teammates[pc.index], now)
	}
	if early {
		pc.start = pc.pos
	}
	pc.travel = pc.start.Dist(pc.end)
}

func (pc *PassController) updateFlight(w *World, dt float64) {
	pc.retarget(w.Now)

	if pc.travel < 1e-4 {
		pc.t = math.Min(1, pc.t+dt)
	} else {
		base := (pc.speed / pc.travel) * dt
		k := math.Pi * math.Max(0, pc.p.ArcHeight) / math.Max(0.001, pc.travel)
		c := math.Cos(pc.t * math.Pi)
		pc.t = math.Min(1, pc.t+base/math.Sqrt(1+k*k*c*c))
	}

	next := pc.start.Lerp(pc.end, pc.t)
	next[2] += math.Sin(pc.t*math.Pi) * pc.scaledArc()

	step := next.Sub(pc.pos)
	if maxStep := math.Max(0, pc.p.TargetSpeed) * dt; maxStep > 0 {
		if l := step.Len(); l > maxStep {
			k := maxStep / l
			next = pc.pos.Add(step.Scale(k))
		}
	}
	pc.pos = next

	if pc.t >= 1 {
		pc.state = PassHolding
		pc.hold = pc.p.HoldTime
		if pc.p.EnablePassPause {
			r := pc.teammates[pc.index]
			r.SetIdleState(false, 0)
			r.SetIdleState(true, pc.p.HoldTime)
		}
		pc.log.Debug("pass arrived",
			zap.String("receiver", pc.teammates[pc.index].name),
			zap.Int("total", pc.total))
	}
}

// scaledArc flattens short passes: full ArcHeight at 10 m, 35% near zero.
func (pc *PassController) scaledArc() float64 {
	return pc.p.ArcHeight * (0.35 + 0.65*clamp01(math.Max(0, pc.travel)/10))
}

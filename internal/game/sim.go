package game

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/rand"
	"slices"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
)

// DefaultTickRate is the simulation rate in ticks per second.
const DefaultTickRate = 60

// Sim is the court simulation: agents, balls and walkers advanced in fixed
// ticks. The viewers, the stream server and the tests all drive the same
// type, so a headless run is the real thing.
type Sim struct {
	Court    *Court
	Agents   []*Agent
	Walkers  []*Walker
	Balls    []*PassController
	SimLog   *SimLog
	Thoughts *ThoughtLog
	Stats    *RunStats

	tickRate    int
	dt          float64
	tick        int
	seed        int64
	rng         *rand.Rand
	log         *zap.Logger
	courtParams CourtParams
	agentParams AgentParams
	passParams  map[Team]PassParams
	paused      bool
	marks       tickMarks
}

// simOptionKind controls the pass in which an option is applied.
type simOptionKind int

const (
	simOptInfra simOptionKind = iota // court, seed, tick rate, tuning, logger: applied first
	simOptAgent                      // add agents: applied after the court exists
	simOptProp                       // balls and walkers: applied after agents exist
)

// SimOption is a builder function applied to a Sim during construction.
type SimOption struct {
	kind simOptionKind
	fn   func(*Sim)
}

// WithSeed sets the RNG seed for deterministic runs.
func WithSeed(seed int64) SimOption {
	return SimOption{simOptInfra, func(s *Sim) {
		s.seed = seed
		s.rng = rand.New(rand.NewSource(seed)) // #nosec G404 -- simulation RNG, not security
	}}
}

// WithVerbose enables per-tick position and speed logging.
func WithVerbose(v bool) SimOption {
	return SimOption{simOptInfra, func(s *Sim) {
		s.SimLog = NewSimLog(v)
	}}
}

// WithTickRate sets the fixed tick rate in ticks per second.
func WithTickRate(tps int) SimOption {
	return SimOption{simOptInfra, func(s *Sim) {
		if tps > 0 {
			s.tickRate = tps
		}
	}}
}

// WithCourt replaces the standard court.
func WithCourt(p CourtParams) SimOption {
	return SimOption{simOptInfra, func(s *Sim) {
		s.courtParams = p
	}}
}

// WithAgentParams sets the tuning used for every agent added afterwards.
func WithAgentParams(p AgentParams) SimOption {
	return SimOption{simOptInfra, func(s *Sim) {
		s.agentParams = p
	}}
}

// WithPassParams overrides the tuning of the given team's ball.
func WithPassParams(p PassParams) SimOption {
	return SimOption{simOptInfra, func(s *Sim) {
		s.passParams[p.Team] = p
	}}
}

// WithLogger routes lifecycle events to l.
func WithLogger(l *zap.Logger) SimOption {
	return SimOption{simOptInfra, func(s *Sim) {
		if l != nil {
			s.log = l
		}
	}}
}

// WithThoughts attaches a viewer thought log.
func WithThoughts(tl *ThoughtLog) SimOption {
	return SimOption{simOptInfra, func(s *Sim) {
		s.Thoughts = tl
	}}
}

// WithAgent adds a single agent at pos.
func WithAgent(name string, team Team, pos Vec2, heading float64) SimOption {
	return SimOption{simOptAgent, func(s *Sim) {
		s.addAgent(name, team, pos, heading)
	}}
}

// WithTeam adds a team in formation. Members are named W1.., B1.. in slot
// order.
func WithTeam(ts TeamSetup) SimOption {
	return SimOption{simOptAgent, func(s *Sim) {
		s.addTeam(ts)
	}}
}

// WithStandardRoster adds W1..W3 and B1..B3 in their kickoff formations.
func WithStandardRoster() SimOption {
	return SimOption{simOptAgent, func(s *Sim) {
		for _, ts := range StandardTeams() {
			s.addTeam(ts)
		}
	}}
}

// WithBall adds a ball that passes around team t.
func WithBall(t Team) SimOption {
	return SimOption{simOptProp, func(s *Sim) {
		p, ok := s.passParams[t]
		if !ok {
			p = DefaultPassParams(t)
		}
		s.Balls = append(s.Balls, NewPassController(p, s.log))
	}}
}

// WithWalker adds a scripted walker.
func WithWalker(p WalkerParams) SimOption {
	return SimOption{simOptProp, func(s *Sim) {
		s.Walkers = append(s.Walkers, NewWalker(p))
	}}
}

// StandardScene is the full court: both teams, one ball each and the walker.
func StandardScene() []SimOption {
	return []SimOption{
		WithStandardRoster(),
		WithBall(TeamWhite),
		WithBall(TeamBlack),
		WithWalker(DefaultWalkerParams()),
	}
}

// NewSim constructs a Sim from the given options in ordered passes:
//  1. Infrastructure (seed, tick rate, tuning, logger)
//  2. Build the court
//  3. Agents
//  4. Balls and walkers
func NewSim(opts ...SimOption) *Sim {
	s := &Sim{
		SimLog:      NewSimLog(false),
		tickRate:    DefaultTickRate,
		seed:        1,
		rng:         rand.New(rand.NewSource(1)), // #nosec G404 -- simulation RNG default
		log:         zap.NewNop(),
		courtParams: DefaultCourtParams(),
		agentParams: DefaultAgentParams(),
		passParams:  map[Team]PassParams{},
	}
	for _, o := range opts {
		if o.kind == simOptInfra {
			o.fn(s)
		}
	}
	s.dt = 1 / float64(s.tickRate)
	s.Court = NewCourt(s.courtParams)
	for _, o := range opts {
		if o.kind == simOptAgent {
			o.fn(s)
		}
	}
	for _, o := range opts {
		if o.kind == simOptProp {
			o.fn(s)
		}
	}
	s.paused = s.agentParams.StartPaused
	s.Stats = NewRunStats()
	w := s.world()
	for _, b := range s.Balls {
		b.Init(w)
	}
	s.marks = s.mark()
	return s
}

func (s *Sim) addAgent(name string, team Team, pos Vec2, heading float64) *Agent {
	a := NewAgent(len(s.Agents)+1, name, team, pos, heading, s.agentParams, s.rng)
	s.Agents = append(s.Agents, a)
	return a
}

func (s *Sim) addTeam(ts TeamSetup) {
	for i, p := range ts.Slots() {
		s.addAgent(AgentName(ts.Team, i+1), ts.Team, s.Court.ClampToPlayable(p), ts.Heading)
	}
}

func (s *Sim) world() *World {
	return &World{
		Court:    s.Court,
		Agents:   s.Agents,
		Walkers:  s.Walkers,
		Balls:    s.Balls,
		Tick:     s.tick,
		Now:      s.Now(),
		Rng:      s.rng,
		Thoughts: s.Thoughts,
	}
}

// Now is the simulation time in seconds.
func (s *Sim) Now() float64 { return float64(s.tick) * s.dt }

// Dt is the fixed tick length in seconds.
func (s *Sim) Dt() float64 { return s.dt }

// TickRate is the configured ticks per second.
func (s *Sim) TickRate() int { return s.tickRate }

// CurrentTick returns the current simulation tick.
func (s *Sim) CurrentTick() int { return s.tick }

// Seed returns the RNG seed the run was built with.
func (s *Sim) Seed() int64 { return s.seed }

// Paused reports the global pause state.
func (s *Sim) Paused() bool { return s.paused }

// AgentByName returns the named agent or nil.
func (s *Sim) AgentByName(name string) *Agent {
	for _, a := range s.Agents {
		if a.name == name {
			return a
		}
	}
	return nil
}

// AllByTeam returns every agent on team t in roster order.
func (s *Sim) AllByTeam(t Team) []*Agent {
	var out []*Agent
	for _, a := range s.Agents {
		if a.team == t {
			out = append(out, a)
		}
	}
	return out
}

// Ball returns team t's ball or nil.
func (s *Sim) Ball(t Team) *PassController {
	for _, b := range s.Balls {
		if b.Team() == t {
			return b
		}
	}
	return nil
}

// PauseAll stops every agent.
func (s *Sim) PauseAll() {
	s.paused = true
	for _, a := range s.Agents {
		a.Pause()
	}
	s.SimLog.Add(s.tick, "--", "--", "control", "pause", "all agents paused", 0)
	s.log.Debug("agents paused", zap.Int("tick", s.tick))
}

// ResumeAll restarts every agent and releases the balls.
func (s *Sim) ResumeAll() {
	s.paused = false
	for _, a := range s.Agents {
		a.Resume()
	}
	w := s.world()
	for _, b := range s.Balls {
		b.ResumePassing(w)
	}
	s.SimLog.Add(s.tick, "--", "--", "control", "resume", "all agents resumed", 0)
	s.log.Debug("agents resumed", zap.Int("tick", s.tick))
}

// TogglePause flips the global pause.
func (s *Sim) TogglePause() {
	if s.paused {
		s.ResumeAll()
		return
	}
	s.PauseAll()
}

// Resume is the go key: it toggles the global pause and, when play resumes,
// sends any idle walker on its route.
func (s *Sim) Resume() {
	s.TogglePause()
	if s.paused {
		return
	}
	s.startWalkers(WalkerInactive, WalkerArrived)
}

// Start puts the court into play without toggling. A paused court resumes as
// with Resume; a running court releases any ball still parked at its anchor.
// Walkers that never started set off. Calling Start again is a no-op.
func (s *Sim) Start() {
	if s.paused {
		s.ResumeAll()
	} else {
		w := s.world()
		for _, b := range s.Balls {
			if b.State() == PassWaitingForStart {
				b.ResumePassing(w)
			}
		}
	}
	s.startWalkers(WalkerInactive)
}

func (s *Sim) startWalkers(from ...WalkerPhase) {
	for _, w := range s.Walkers {
		if !slices.Contains(from, w.Phase()) {
			continue
		}
		w.Start()
		s.SimLog.Add(s.tick, w.Name(), TeamNeutral.String(), "walker", "start",
			fmt.Sprintf("delay %.1fs", w.p.StartDelay), w.p.StartDelay)
	}
}

// PassNow makes every ball that is not already in flight throw to its next
// receiver, regardless of the global pause.
func (s *Sim) PassNow() {
	w := s.world()
	for _, b := range s.Balls {
		b.StartPassingNow(w)
	}
}

// SetBallSpeedPreset applies a ball speed preset to every ball.
func (s *Sim) SetBallSpeedPreset(bp BallSpeedPreset) {
	for _, b := range s.Balls {
		b.SetSpeedPreset(bp)
	}
}

// SetBallTargetSpeed gives every ball the same custom target speed.
func (s *Sim) SetBallTargetSpeed(v float64) {
	for _, b := range s.Balls {
		b.SetTargetSpeed(v)
	}
}

// AdjustBallTargetSpeed nudges every ball's target speed by delta.
func (s *Sim) AdjustBallTargetSpeed(delta float64) {
	for _, b := range s.Balls {
		b.SetTargetSpeed(b.TargetSpeed() + delta)
	}
}

// ResetPassCounts zeroes every ball's pass counters.
func (s *Sim) ResetPassCounts() {
	for _, b := range s.Balls {
		b.ResetPassCount()
	}
}

// RunTicks advances the simulation n ticks.
func (s *Sim) RunTicks(n int) {
	for i := 0; i < n; i++ {
		s.Step()
	}
}

// RunUntil advances the simulation up to maxTicks, stopping early if predicate
// returns true. Returns the tick at which the predicate was satisfied, or -1.
func (s *Sim) RunUntil(predicate func(*Sim) bool, maxTicks int) int {
	for i := 0; i < maxTicks; i++ {
		s.Step()
		if predicate(s) {
			return s.tick
		}
	}
	return -1
}

// tickMarks holds the state at the end of the previous tick, so changes made
// between ticks (resume, key presses) are logged on the next one.
type tickMarks struct {
	idle, sprint, oob, cut []bool
	ballState              []PassState
	ballTotal, ballSkips   []int
	walkerPhase            []WalkerPhase
}

func (s *Sim) mark() tickMarks {
	m := tickMarks{
		idle:        make([]bool, len(s.Agents)),
		sprint:      make([]bool, len(s.Agents)),
		oob:         make([]bool, len(s.Agents)),
		cut:         make([]bool, len(s.Agents)),
		ballState:   make([]PassState, len(s.Balls)),
		ballTotal:   make([]int, len(s.Balls)),
		ballSkips:   make([]int, len(s.Balls)),
		walkerPhase: make([]WalkerPhase, len(s.Walkers)),
	}
	for i, a := range s.Agents {
		m.idle[i], m.sprint[i], m.oob[i], m.cut[i] = a.idle, a.sprinting, a.outOfBounds, a.cutting
	}
	for i, b := range s.Balls {
		m.ballState[i], m.ballTotal[i], m.ballSkips[i] = b.state, b.total, b.skipped
	}
	for i, w := range s.Walkers {
		m.walkerPhase[i] = w.phase
	}
	return m
}

// Step advances one tick: court height control, walkers, agents in roster
// order, then balls.
func (s *Sim) Step() {
	s.tick++
	w := s.world()

	s.Court.Update(w.Now, s.Agents)
	for _, wk := range s.Walkers {
		wk.Update(s.Agents, s.dt)
	}
	for _, a := range s.Agents {
		a.Update(w, s.dt)
	}
	for _, b := range s.Balls {
		b.Update(w, s.dt)
	}

	s.logTick(s.marks)
	s.marks = s.mark()
	s.Stats.Observe(s)
}

func (s *Sim) logTick(prev tickMarks) {
	tick := s.tick
	for i, b := range s.Balls {
		team := b.Team().String()
		holder := "--"
		if h := b.Holder(); h != nil {
			holder = h.name
		}
		if d := b.skipped - prev.ballSkips[i]; d > 0 {
			s.SimLog.Add(tick, holder, team, "pass", "skip",
				fmt.Sprintf("%d target(s) too close", d), float64(d))
		}
		if b.total != prev.ballTotal[i] || (b.state == PassMoving && prev.ballState[i] != PassMoving) {
			s.SimLog.Add(tick, holder, team, "pass", "begin",
				fmt.Sprintf("to %s (%.1fm)", holder, b.travel), b.travel)
		}
		if b.state == PassHolding && prev.ballState[i] == PassMoving {
			s.SimLog.Add(tick, holder, team, "pass", "arrive",
				fmt.Sprintf("pass #%d caught", b.total), float64(b.total))
		}
		s.SimLog.AddVerbose(tick, holder, team, "move", "ball",
			fmt.Sprintf("(%.2f,%.2f,%.2f)", b.pos.X(), b.pos.Y(), b.pos.Z()), b.measured)
	}

	for i, a := range s.Agents {
		team := a.team.String()
		if a.idle != prev.idle[i] {
			key := "idle_end"
			if a.idle {
				key = "idle_start"
			}
			s.SimLog.Add(tick, a.name, team, "behaviour", key, fmt.Sprintf("idle=%t", a.idle), a.idleTimer)
		}
		if a.sprinting && !prev.sprint[i] {
			s.SimLog.Add(tick, a.name, team, "behaviour", "sprint",
				fmt.Sprintf("until %.2fs", a.sprintUntil), a.sprintUntil)
		}
		if a.outOfBounds != prev.oob[i] {
			key := "return"
			if a.outOfBounds {
				key = "exit"
			}
			s.SimLog.Add(tick, a.name, team, "bounds", key,
				fmt.Sprintf("(%.2f,%.2f)", a.pos.X(), a.pos.Y()), 0)
		}
		if a.cutting && !prev.cut[i] {
			s.SimLog.Add(tick, a.name, team, "cut", "start",
				fmt.Sprintf("success %.2f", a.lastCutSuccess), a.lastCutSuccess)
		}
		s.SimLog.AddVerbose(tick, a.name, team, "move", "position",
			fmt.Sprintf("(%.2f,%.2f)", a.pos.X(), a.pos.Y()), a.speed)
	}

	for i, w := range s.Walkers {
		if w.phase != prev.walkerPhase[i] {
			s.SimLog.Add(tick, w.Name(), TeamNeutral.String(), "walker", "phase",
				fmt.Sprintf("%s → %s", prev.walkerPhase[i], w.phase), 0)
		}
	}
}

// SimSnapshot is a lightweight copy of the court at one tick.
type SimSnapshot struct {
	Tick    int              `json:"tick"`
	Time    float64          `json:"time"`
	Paused  bool             `json:"paused"`
	Agents  []AgentSnapshot  `json:"agents"`
	Balls   []BallSnapshot   `json:"balls"`
	Walkers []WalkerSnapshot `json:"walkers"`
}

// AgentSnapshot is one agent's state at a tick.
type AgentSnapshot struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	Team      Team    `json:"team"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Elevation float64 `json:"elevation"`
	VX        float64 `json:"vx"`
	VY        float64 `json:"vy"`
	Heading   float64 `json:"heading"`
	Scale     float64 `json:"scale"`
	Idle      bool    `json:"idle"`
	Sprinting bool    `json:"sprinting"`
	Cutting   bool    `json:"cutting"`
}

// BallSnapshot is one ball's state at a tick.
type BallSnapshot struct {
	Team     Team            `json:"team"`
	State    string          `json:"state"`
	Holder   string          `json:"holder"`
	X        float64         `json:"x"`
	Y        float64         `json:"y"`
	Z        float64         `json:"z"`
	Progress float64         `json:"progress"`
	Speed    float64         `json:"speed"`
	Target   float64         `json:"target_speed"`
	Preset   BallSpeedPreset `json:"preset"`
	Passes   int             `json:"passes"`
	Session  int             `json:"session_passes"`
}

// WalkerSnapshot is one walker's state at a tick.
type WalkerSnapshot struct {
	Name    string  `json:"name"`
	Phase   string  `json:"phase"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Heading float64 `json:"heading"`
	Jumps   int     `json:"jumps"`
}

// Snapshot returns the current state of the court.
func (s *Sim) Snapshot() SimSnapshot {
	snap := SimSnapshot{Tick: s.tick, Time: s.Now(), Paused: s.paused}
	for _, a := range s.Agents {
		snap.Agents = append(snap.Agents, AgentSnapshot{
			ID:        a.id,
			Name:      a.name,
			Team:      a.team,
			X:         a.pos.X(),
			Y:         a.pos.Y(),
			Elevation: a.Elevation(),
			VX:        a.vel.X(),
			VY:        a.vel.Y(),
			Heading:   a.head,
			Scale:     a.scale,
			Idle:      a.idle,
			Sprinting: a.sprinting,
			Cutting:   a.cutting,
		})
	}
	for _, b := range s.Balls {
		holder := ""
		if h := b.Holder(); h != nil {
			holder = h.name
		}
		snap.Balls = append(snap.Balls, BallSnapshot{
			Team:     b.Team(),
			State:    b.state.String(),
			Holder:   holder,
			X:        b.pos.X(),
			Y:        b.pos.Y(),
			Z:        b.pos.Z(),
			Progress: b.t,
			Speed:    b.speed,
			Target:   b.p.TargetSpeed,
			Preset:   b.p.SpeedPreset,
			Passes:   b.total,
			Session:  b.session,
		})
	}
	for _, w := range s.Walkers {
		snap.Walkers = append(snap.Walkers, WalkerSnapshot{
			Name:    w.Name(),
			Phase:   w.phase.String(),
			X:       w.pos.X(),
			Y:       w.pos.Y(),
			Heading: w.head,
			Jumps:   w.jumps,
		})
	}
	return snap
}

// Digest hashes every position, velocity and pass counter. Two runs with the
// same seed and options produce the same digest at the same tick.
func (s *Sim) Digest() uint64 {
	h := xxhash.New()
	var buf [8]byte
	put := func(v float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		_, _ = h.Write(buf[:])
	}
	put(float64(s.tick))
	for _, a := range s.Agents {
		put(a.pos.X())
		put(a.pos.Y())
		put(a.vel.X())
		put(a.vel.Y())
		put(a.head)
	}
	for _, b := range s.Balls {
		put(b.pos.X())
		put(b.pos.Y())
		put(b.pos.Z())
		put(float64(b.total))
	}
	for _, w := range s.Walkers {
		put(w.pos.X())
		put(w.pos.Y())
	}
	return h.Sum64()
}

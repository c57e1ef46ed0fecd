package game

import (
	"math"
	"testing"
)

func whiteBallSim(extra ...SimOption) *Sim {
	opts := []SimOption{WithSeed(1), WithStandardRoster(), WithBall(TeamWhite)}
	return NewSim(append(opts, extra...)...)
}

func TestPass_WaitsOnAnchorUntilResume(t *testing.T) {
	s := whiteBallSim()
	s.RunTicks(120)

	b := s.Ball(TeamWhite)
	if b.State() != PassWaitingForStart {
		t.Fatalf("ball should wait for resume, got %s", b.State())
	}
	if b.TotalPasses() != 0 {
		t.Fatalf("no passes before resume, got %d", b.TotalPasses())
	}
	w1 := s.AgentByName("W1")
	if g := b.Position().Ground(); g != w1.Pos() {
		t.Fatalf("ball should sit over W1 at %+v, got %+v", w1.Pos(), g)
	}
	// FixedY + CenterY*scale + TargetHeight
	if want := 0.953 + 0.5 + 1.2; !near(b.Position().Z(), want, 1e-9) {
		t.Fatalf("expected ball height %.3f, got %.3f", want, b.Position().Z())
	}
}

func TestPass_ResumeThrowsFirstPass(t *testing.T) {
	s := whiteBallSim()
	s.Resume()

	b := s.Ball(TeamWhite)
	if b.State() != PassMoving {
		t.Fatalf("resume should start a pass, got %s", b.State())
	}
	if b.TotalPasses() != 1 || b.SessionPasses() != 1 {
		t.Fatalf("expected counters 1/1, got %d/%d", b.TotalPasses(), b.SessionPasses())
	}
	if h := b.Holder(); h == nil || h.Name() != "W2" {
		t.Fatalf("first pass should go to W2, got %v", h)
	}
	for _, a := range b.Teammates() {
		if !a.IsFrozen(s.Now()) {
			t.Fatalf("%s should be frozen after resume", a.Name())
		}
	}
	if s.Court.HeightVariationEnabled() {
		t.Fatal("resume should freeze height variation")
	}

	s.Step()
	if !s.SimLog.HasEntry("pass", "begin", "W2") {
		t.Fatalf("pass begin not logged:\n%s", s.SimLog.Format())
	}
}

func TestPass_ArrivesAndHolds(t *testing.T) {
	s := whiteBallSim()
	s.Resume()
	b := s.Ball(TeamWhite)

	if tick := s.RunUntil(func(s *Sim) bool { return b.State() == PassHolding }, 600); tick < 0 {
		t.Fatalf("pass never arrived; state=%s progress=%.2f", b.State(), b.Progress())
	}
	if !near(b.Progress(), 1, 1e-9) {
		t.Fatalf("arrived ball should be at progress 1, got %.3f", b.Progress())
	}
	if !b.Holder().IsIdle() {
		t.Fatal("receiver should idle while holding")
	}
	if !s.SimLog.HasEntry("pass", "arrive", "#1") {
		t.Fatalf("arrival not logged:\n%s", s.SimLog.Format())
	}
}

func TestPass_RotatesThroughTeam(t *testing.T) {
	s := whiteBallSim()
	s.Resume()
	s.RunTicks(20 * DefaultTickRate)

	begins := s.SimLog.Filter("pass", "begin")
	if len(begins) < 3 {
		t.Fatalf("expected at least 3 passes in 20s, got %d", len(begins))
	}
	for i := 1; i < len(begins); i++ {
		if begins[i].Agent == begins[i-1].Agent {
			t.Fatalf("consecutive passes to the same receiver %s at ticks %d and %d",
				begins[i].Agent, begins[i-1].Tick, begins[i].Tick)
		}
	}
	if b := s.Ball(TeamWhite); b.TotalPasses() != len(begins) {
		t.Fatalf("counter %d disagrees with %d logged passes", b.TotalPasses(), len(begins))
	}
}

func TestPass_SkipsTargetTooClose(t *testing.T) {
	s := NewSim(
		WithSeed(1),
		WithAgent("W1", TeamWhite, V2(0, 0), 0),
		WithAgent("W2", TeamWhite, V2(0.2, 0), 0),
		WithAgent("W3", TeamWhite, V2(0, 5), 0),
		WithBall(TeamWhite),
	)
	s.Resume()
	b := s.Ball(TeamWhite)
	if h := b.Holder(); h == nil || h.Name() != "W3" {
		t.Fatalf("pass should skip W2 and go to W3, got %v", h)
	}
	if b.SkippedPasses() != 1 {
		t.Fatalf("expected 1 skip, got %d", b.SkippedPasses())
	}
	s.Step()
	if !s.SimLog.HasEntry("pass", "skip", "too close") {
		t.Fatalf("skip not logged:\n%s", s.SimLog.Format())
	}
}

func TestPass_AllTargetsTooCloseKeepsHolding(t *testing.T) {
	s := NewSim(
		WithSeed(1),
		WithAgent("W1", TeamWhite, V2(0, 0), 0),
		WithAgent("W2", TeamWhite, V2(0.1, 0), 0),
		WithAgent("W3", TeamWhite, V2(0, 0.1), 0),
		WithBall(TeamWhite),
	)
	s.Resume()
	b := s.Ball(TeamWhite)
	if b.State() != PassHolding {
		t.Fatalf("expected holding, got %s", b.State())
	}
	if !near(b.HoldRemaining(), b.Params().HoldTime, 1e-9) {
		t.Fatalf("expected a fresh hold of %.2fs, got %.2f", b.Params().HoldTime, b.HoldRemaining())
	}
	if b.SkippedPasses() != 2 || b.TotalPasses() != 0 {
		t.Fatalf("expected 2 skips and 0 passes, got %d/%d", b.SkippedPasses(), b.TotalPasses())
	}
}

func TestPass_SingleMemberNeverPasses(t *testing.T) {
	s := NewSim(WithSeed(1), WithAgent("W1", TeamWhite, V2(0, 0), 0), WithBall(TeamWhite))
	s.Resume()
	s.RunTicks(120)
	if b := s.Ball(TeamWhite); b.TotalPasses() != 0 || b.IsMoving() {
		t.Fatalf("a lone agent cannot pass, got %d passes state=%s", b.TotalPasses(), b.State())
	}
}

func TestPass_ScaledArcFlattensShortPasses(t *testing.T) {
	pc := NewPassController(DefaultPassParams(TeamWhite), nil)
	for _, tc := range []struct{ travel, want float64 }{
		{0, 0.35 * 0.35},
		{5, 0.35 * (0.35 + 0.65*0.5)},
		{10, 0.35},
		{25, 0.35},
	} {
		pc.travel = tc.travel
		if got := pc.scaledArc(); !near(got, tc.want, 1e-9) {
			t.Fatalf("travel %.0f: expected arc %.4f, got %.4f", tc.travel, tc.want, got)
		}
	}
}

func TestPass_SpeedPresetsAndCustomClamp(t *testing.T) {
	pc := NewPassController(DefaultPassParams(TeamWhite), nil)
	if !near(pc.TargetSpeed(), 6, 1e-9) || pc.Preset() != BallFast {
		t.Fatalf("default should be the fast preset at 6 m/s, got %s %.2f", pc.Preset(), pc.TargetSpeed())
	}
	pc.SetSpeedPreset(BallVerySlow)
	if !near(pc.TargetSpeed(), 1.5, 1e-9) {
		t.Fatalf("very-slow should be 1.5 m/s, got %.2f", pc.TargetSpeed())
	}
	pc.SetTargetSpeed(100)
	if pc.Preset() != BallCustom || !near(pc.TargetSpeed(), 12, 1e-9) {
		t.Fatalf("custom speed should clamp to 12, got %s %.2f", pc.Preset(), pc.TargetSpeed())
	}
	pc.SetTargetSpeed(0)
	if !near(pc.TargetSpeed(), 0.5, 1e-9) {
		t.Fatalf("custom speed should clamp to 0.5, got %.2f", pc.TargetSpeed())
	}

	var bp BallSpeedPreset
	if err := bp.UnmarshalText([]byte("Very-Fast")); err != nil || bp != BallVeryFast {
		t.Fatalf("expected very-fast, got %s (err=%v)", bp, err)
	}
}

func TestPass_SpeedControlEasesTowardTarget(t *testing.T) {
	pc := NewPassController(DefaultPassParams(TeamWhite), nil)
	w := &World{}
	dt := 1.0 / DefaultTickRate
	if !near(pc.CurrentSpeed(), 7, 1e-9) {
		t.Fatalf("ball should start at PassSpeed 7, got %.2f", pc.CurrentSpeed())
	}
	pc.Update(w, dt)
	if !near(pc.CurrentSpeed(), 7-2*dt, 1e-9) {
		t.Fatalf("one tick should shed accel*dt, got %.4f", pc.CurrentSpeed())
	}
	for _i, _end := 0, DefaultTickRate; _i < _end; _i++ {
		pc.Update(w, dt)
	}
	if d := math.Abs(pc.CurrentSpeed() - pc.TargetSpeed()); d > 0.1+1e-9 {
		t.Fatalf("speed should settle within 0.1 of target, off by %.3f", d)
	}
}

func TestPass_PassPauseDurationClamped(t *testing.T) {
	pc := NewPassController(DefaultPassParams(TeamWhite), nil)
	pc.SetPassPauseDuration(10)
	if pc.Params().PassPauseDuration != passPauseMax {
		t.Fatalf("expected clamp to %.1f, got %.2f", passPauseMax, pc.Params().PassPauseDuration)
	}
	pc.SetPassPauseDuration(0)
	if pc.Params().PassPauseDuration != passPauseMin {
		t.Fatalf("expected clamp to %.1f, got %.2f", passPauseMin, pc.Params().PassPauseDuration)
	}
}

func TestPass_ResetCounters(t *testing.T) {
	s := whiteBallSim()
	s.Resume()
	b := s.Ball(TeamWhite)
	b.ResetSessionPassCount()
	if b.SessionPasses() != 0 || b.TotalPasses() != 1 {
		t.Fatalf("session reset should keep the total, got %d/%d", b.SessionPasses(), b.TotalPasses())
	}
	s.ResetPassCounts()
	if b.TotalPasses() != 0 {
		t.Fatalf("full reset should zero the total, got %d", b.TotalPasses())
	}
}

func TestPass_CounterDisabled(t *testing.T) {
	p := DefaultPassParams(TeamWhite)
	p.EnablePassCounter = false
	s := whiteBallSim(WithPassParams(p))
	s.Resume()
	if b := s.Ball(TeamWhite); !b.IsMoving() || b.TotalPasses() != 0 {
		t.Fatalf("pass should fly without counting, state=%s total=%d", b.State(), b.TotalPasses())
	}
}

func flightAfterCutoff(t *testing.T, s *Sim) (*PassController, *Agent) {
	t.Helper()
	s.Resume()
	b := s.Ball(TeamWhite)
	tick := s.RunUntil(func(*Sim) bool {
		return b.IsMoving() && b.Progress() >= b.Params().EarlyFlightCutoff
	}, 120)
	if tick < 0 {
		t.Fatalf("ball never passed the early-flight cutoff; state=%s", b.State())
	}
	return b, b.Holder()
}

func TestPass_LandingFollowsReceiverInEarlyFlight(t *testing.T) {
	s := whiteBallSim()
	s.Resume()
	b := s.Ball(TeamWhite)
	if !b.IsMoving() {
		t.Fatalf("resume should throw, got %s", b.State())
	}
	receiver := b.Holder()
	end := b.CurrentTarget()

	receiver.SetPosition(receiver.Pos().Add(V2(3, 0)))
	s.Step()
	if b.Progress() >= b.Params().EarlyFlightCutoff {
		t.Fatalf("one tick should stay inside early flight, progress %.3f", b.Progress())
	}
	if dx := b.CurrentTarget().X() - end.X(); !near(dx, 3, 1e-9) {
		t.Fatalf("landing point should follow the receiver 3m, moved %.3fm", dx)
	}
}

func TestPass_StartPassingNow(t *testing.T) {
	s := whiteBallSim()
	b := s.Ball(TeamWhite)
	if b.State() != PassWaitingForStart {
		t.Fatalf("ball should wait on its anchor, got %s", b.State())
	}
	s.PassNow()
	if !b.IsMoving() || b.TotalPasses() != 1 {
		t.Fatalf("pass now should throw once, state=%s total=%d", b.State(), b.TotalPasses())
	}
	if !s.Paused() {
		t.Fatal("pass now must not unpause the court")
	}
	receiver, end := b.Holder(), b.CurrentTarget()

	s.PassNow()
	if b.Holder() != receiver || b.CurrentTarget() != end || b.TotalPasses() != 1 {
		t.Fatal("a ball already in flight should ignore pass now")
	}
}

func TestPass_LandingFixedAfterEarlyFlight(t *testing.T) {
	s := whiteBallSim()
	b, receiver := flightAfterCutoff(t, s)
	end := b.CurrentTarget()

	receiver.SetPosition(receiver.Pos().Add(V2(3, 0)))
	s.Step()
	if !b.IsMoving() {
		t.Fatalf("ball should still be in flight, got %s", b.State())
	}
	if b.CurrentTarget() != end {
		t.Fatalf("landing point moved after the cutoff: %+v → %+v", end, b.CurrentTarget())
	}
}

func TestPass_TrackReceiverFullFlight(t *testing.T) {
	p := DefaultPassParams(TeamWhite)
	p.TrackReceiverFullFlight = true
	s := whiteBallSim(WithPassParams(p))
	b, receiver := flightAfterCutoff(t, s)
	end := b.CurrentTarget()

	receiver.SetPosition(receiver.Pos().Add(V2(3, 0)))
	s.Step()
	if dx := b.CurrentTarget().X() - end.X(); dx < 2.5 {
		t.Fatalf("landing point should follow the receiver, moved only %.2fm", dx)
	}
}

func TestPassState_String(t *testing.T) {
	for st, want := range map[PassState]string{
		PassWaitingForStart: "waiting",
		PassMoving:          "moving",
		PassHolding:         "holding",
	} {
		if st.String() != want {
			t.Fatalf("expected %q, got %q", want, st.String())
		}
	}
}

package game

import (
	"math/rand"
	"testing"
)

// quietParams strips the random behaviour so a single agent only wanders a
// short fixed distance straight ahead.
func quietParams() AgentParams {
	p := DefaultAgentParams()
	p.StartPaused = false
	p.EnableRoam = false
	p.IdleChance = 0
	p.SprintChance = 0
	p.DirectionChangeChance = 0
	p.WanderJitter = 0
	p.WanderDistance = 0.2
	p.WanderRadius = 0.1
	return p
}

func soloWorld(a *Agent, c *Court, now float64) *World {
	return &World{
		Court:  c,
		Agents: []*Agent{a},
		Now:    now,
		Rng:    rand.New(rand.NewSource(1)), // #nosec G404 -- test
	}
}

func TestRoam_RepicksOnTimeout(t *testing.T) {
	a := testAgent(1, "W1", TeamWhite, V2(0, 0))
	w := soloWorld(a, NewCourt(DefaultCourtParams()), 0)
	a.roamTarget = V2(5, 5)
	a.roamTimer = 0.01

	a.updateRoaming(w, 1.0/60)
	if a.RoamTarget() == V2(5, 5) {
		t.Fatal("expired roam timer should pick a new target")
	}
	if a.roamTimer < a.p.RoamIntervalMin || a.roamTimer >= a.p.RoamIntervalMax {
		t.Fatalf("roam timer should reset into [%.1f, %.1f), got %.2f",
			a.p.RoamIntervalMin, a.p.RoamIntervalMax, a.roamTimer)
	}
	if !w.Court.Floor.Contains(a.RoamTarget()) {
		t.Fatalf("roam target %+v should lie on the court", a.RoamTarget())
	}
}

func TestRoam_RepicksOnArrival(t *testing.T) {
	a := testAgent(1, "W1", TeamWhite, V2(0, 0))
	w := soloWorld(a, NewCourt(DefaultCourtParams()), 0)

	a.roamTarget = V2(3, 0)
	a.roamTimer = 10
	a.updateRoaming(w, 1.0/60)
	if a.RoamTarget() != V2(3, 0) {
		t.Fatal("a distant target with time left should be kept")
	}

	a.roamTarget = V2(0.5, 0)
	a.updateRoaming(w, 1.0/60)
	if a.RoamTarget() == V2(0.5, 0) {
		t.Fatal("a target within 0.6m counts as reached and should be replaced")
	}
	if a.roamTimer > a.p.RoamIntervalMax {
		t.Fatalf("arrival should also reset the timer, got %.2f", a.roamTimer)
	}
}

func TestIdle_SuppressesWander(t *testing.T) {
	rng := rand.New(rand.NewSource(1)) // #nosec G404 -- test
	a := NewAgent(1, "W1", TeamWhite, V2(0, 0), 0, quietParams(), rng)
	a.SetIdleState(true, 5)
	before := a.WanderTarget()

	w := soloWorld(a, nil, 0)
	for _i, _end := 0, 30; _i < _end; _i++ {
		a.Update(w, 1.0/60)
	}
	if !a.IsIdle() {
		t.Fatal("agent should still be idle")
	}
	if a.WanderTarget() != before || !a.Velocity().IsZero() {
		t.Fatalf("idle agent should not wander: target %+v → %+v, v=%+v",
			before, a.WanderTarget(), a.Velocity())
	}

	a.SetIdleState(false, 0)
	a.Update(w, 1.0/60)
	if a.Velocity().IsZero() {
		t.Fatal("agent should wander again once idling ends")
	}
}

func TestSprint_TimedAndSuppressedWhileIdle(t *testing.T) {
	p := quietParams()
	p.SprintChance = 1e6
	rng := rand.New(rand.NewSource(1)) // #nosec G404 -- test
	a := NewAgent(1, "W1", TeamWhite, V2(0, 0), 0, p, rng)

	a.SetIdleState(true, 5)
	a.updateBehaviour(soloWorld(a, nil, 0), 1.0/60)
	if a.IsSprinting() {
		t.Fatal("idle agents never sprint")
	}

	a.SetIdleState(false, 0)
	a.updateBehaviour(soloWorld(a, nil, 0), 1.0/60)
	if !a.IsSprinting() {
		t.Fatal("certain sprint roll should start a sprint")
	}
	if a.sprintUntil < 0.5 || a.sprintUntil >= 2 {
		t.Fatalf("sprint should last 0.5..2s, ends at %.2f", a.sprintUntil)
	}

	a.p.SprintChance = 0
	a.updateBehaviour(soloWorld(a, nil, 2), 1.0/60)
	if a.IsSprinting() {
		t.Fatal("sprint should end after its deadline")
	}
}

func TestSprint_ScalesDesiredVelocity(t *testing.T) {
	newAgent := func() *Agent {
		rng := rand.New(rand.NewSource(1)) // #nosec G404 -- test
		return NewAgent(1, "W1", TeamWhite, V2(0, 0), 0, quietParams(), rng)
	}
	plain, sprinter := newAgent(), newAgent()
	sprinter.sprintUntil = 10

	// A long step lets both agents reach their desired velocity at once.
	const dt = 0.1
	plain.Update(soloWorld(plain, nil, 0), dt)
	sprinter.Update(soloWorld(sprinter, nil, 0), dt)

	if !sprinter.IsSprinting() || plain.IsSprinting() {
		t.Fatal("only the second agent should sprint")
	}
	want := plain.Velocity().Len() * plain.p.SprintMultiplier
	if plain.Velocity().IsZero() || !near(sprinter.Velocity().Len(), want, 1e-9) {
		t.Fatalf("sprint should scale speed %.3f by %.1f, got %.3f",
			plain.Velocity().Len(), plain.p.SprintMultiplier, sprinter.Velocity().Len())
	}
}

func TestWander_TargetClampedToPlayable(t *testing.T) {
	c := NewCourt(DefaultCourtParams())
	r := c.Playable()
	a := testAgent(1, "W1", TeamWhite, V2(r.MaxX-0.1, 0))
	a.p.WanderJitter = 0
	w := soloWorld(a, c, 0)
	for _i, _end := 0, 10; _i < _end; _i++ {
		a.wander(w, 1.0/60)
		if !r.Contains(a.WanderTarget()) {
			t.Fatalf("wander target %+v left the playable area %+v", a.WanderTarget(), r)
		}
	}
	if !near(a.WanderTarget().X(), r.MaxX, 1e-9) {
		t.Fatalf("target ahead of the agent should sit on the edge, got x=%.3f", a.WanderTarget().X())
	}
}

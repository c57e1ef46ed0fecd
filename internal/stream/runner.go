package stream

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Garsondee/Court-Sense/internal/game"
)

// Message types written to viewers.
const (
	TypeSnapshot = "snapshot"
	TypeEvents   = "events"
)

// Event is a simulation log entry as sent to viewers.
type Event struct {
	Tick     int     `json:"tick"`
	Agent    string  `json:"agent"`
	Team     string  `json:"team"`
	Category string  `json:"category"`
	Key      string  `json:"key"`
	Value    string  `json:"value"`
	Num      float64 `json:"num"`
}

// streamedCategories are the log categories forwarded to viewers.
var streamedCategories = map[string]bool{"pass": true, "control": true, "walker": true}

// Runner advances a Sim in real time and publishes it to a Hub. Every
// access to the Sim goes through the runner's lock.
type Runner struct {
	mu       sync.Mutex
	sim      *game.Sim
	hub      *Hub
	log      *zap.Logger
	interval time.Duration
	session  string
}

// NewRunner wires sim to hub. Snapshots go out every interval.
func NewRunner(sim *game.Sim, hub *Hub, interval time.Duration, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	// The runner forwards and then discards SimLog entries, so the log only
	// holds what has not been published yet.
	sim.SimLog.Drop(sim.SimLog.Len())
	return &Runner{
		sim:      sim,
		hub:      hub,
		log:      log,
		interval: interval,
		session:  uuid.NewString(),
	}
}

// Session identifies this run in logs and status replies.
func (r *Runner) Session() string { return r.session }

// Run steps the simulation at its tick rate until ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	r.mu.Lock()
	tps := r.sim.TickRate()
	r.mu.Unlock()

	step := time.NewTicker(time.Second / time.Duration(tps))
	defer step.Stop()
	pub := time.NewTicker(r.interval)
	defer pub.Stop()

	r.log.Info("stream runner started",
		zap.String("session", r.session),
		zap.Int("tps", tps),
		zap.Duration("interval", r.interval))
	for {
		select {
		case <-ctx.Done():
			r.log.Info("stream runner stopped", zap.String("session", r.session))
			return ctx.Err()
		case <-step.C:
			r.Step(1)
		case <-pub.C:
			r.Publish()
		}
	}
}

// Step advances n ticks.
func (r *Runner) Step(n int) {
	r.mu.Lock()
	r.sim.RunTicks(n)
	r.mu.Unlock()
}

// Snapshot copies the current court state.
func (r *Runner) Snapshot() game.SimSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sim.Snapshot()
}

// SnapshotMessage wraps the current state for a viewer.
func (r *Runner) SnapshotMessage() Message {
	return Message{Type: TypeSnapshot, Data: r.Snapshot()}
}

// Resume puts the court into play and reports the new state. Balls still
// parked at their anchors are released even when the court was never paused.
func (r *Runner) Resume() game.SimSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sim.Start()
	r.log.Info("play resumed", zap.String("session", r.session), zap.Int("tick", r.sim.CurrentTick()))
	return r.sim.Snapshot()
}

// Pause stops play if it is running and reports the new state.
func (r *Runner) Pause() game.SimSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.sim.Paused() {
		r.sim.PauseAll()
		r.log.Info("play paused", zap.String("session", r.session), zap.Int("tick", r.sim.CurrentTick()))
	}
	return r.sim.Snapshot()
}

// SetBallSpeed applies a ball speed preset to both balls.
func (r *Runner) SetBallSpeed(bp game.BallSpeedPreset) game.SimSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sim.SetBallSpeedPreset(bp)
	return r.sim.Snapshot()
}

// SetBallTargetSpeed gives both balls a custom target speed.
func (r *Runner) SetBallTargetSpeed(v float64) game.SimSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sim.SetBallTargetSpeed(v)
	return r.sim.Snapshot()
}

// PassOptions switches pass features on every ball. Nil fields are left as
// they are.
type PassOptions struct {
	Prediction     *bool `json:"prediction"`
	PreciseLanding *bool `json:"precise_landing"`
	PassPause      *bool `json:"pass_pause"`
	PassCounter    *bool `json:"pass_counter"`
}

// SetPassOptions applies o to both balls.
func (r *Runner) SetPassOptions(o PassOptions) game.SimSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.sim.Balls {
		if o.Prediction != nil {
			b.SetPredictionEnabled(*o.Prediction)
		}
		if o.PreciseLanding != nil {
			b.SetPreciseLandingEnabled(*o.PreciseLanding)
		}
		if o.PassPause != nil {
			b.SetPassPauseEnabled(*o.PassPause)
		}
		if o.PassCounter != nil {
			b.SetPassCounterEnabled(*o.PassCounter)
		}
	}
	return r.sim.Snapshot()
}

// Publish broadcasts the events logged since the last publish, then the
// current snapshot.
func (r *Runner) Publish() {
	r.mu.Lock()
	var events []Event
	entries := r.sim.SimLog.Entries()
	for _, e := range entries {
		if !streamedCategories[e.Category] {
			continue
		}
		events = append(events, Event{
			Tick: e.Tick, Agent: e.Agent, Team: e.Team,
			Category: e.Category, Key: e.Key, Value: e.Value, Num: e.NumVal,
		})
	}
	r.sim.SimLog.Drop(len(entries))
	snap := r.sim.Snapshot()
	r.mu.Unlock()

	if len(events) > 0 {
		r.hub.Broadcast(Message{Type: TypeEvents, Data: events})
	}
	r.hub.Broadcast(Message{Type: TypeSnapshot, Data: snap})
}

// Package view is the desktop viewer: an ebiten window over a running Sim.
package view

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"

	"github.com/Garsondee/Court-Sense/internal/game"
)

const (
	// borderWidth is the pixel gap between the window edge and the court.
	borderWidth = 24
	// pixelsPerMeter scales court metres to screen pixels.
	pixelsPerMeter = 30
	logPanelWidth  = 320
	logLineHeight  = 11

	fineSpeedStep   = 0.5
	coarseSpeedStep = 2.0
	// statusTicks is how long a status message stays on the HUD.
	statusTicks = 3 * game.DefaultTickRate
	// reportWindowSeconds of event log go into the copied report.
	reportWindowSeconds = 5
)

// simSpeeds are the playback multipliers stepped through with , and .
var simSpeeds = []float64{0, 0.5, 1, 2, 4}

var presetKeys = map[ebiten.Key]game.BallSpeedPreset{
	ebiten.Key1: game.BallVerySlow,
	ebiten.Key2: game.BallSlow,
	ebiten.Key3: game.BallNormal,
	ebiten.Key4: game.BallFast,
	ebiten.Key5: game.BallVeryFast,
}

// trackedKeys are polled every frame and acted on when first pressed.
var trackedKeys = []ebiten.Key{
	ebiten.KeyEnter, ebiten.KeyNumpadEnter,
	ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4, ebiten.Key5,
	ebiten.KeyEqual, ebiten.KeyNumpadAdd, ebiten.KeyMinus, ebiten.KeyNumpadSubtract,
	ebiten.KeyPageUp, ebiten.KeyPageDown,
	ebiten.KeyR, ebiten.KeyP, ebiten.KeyComma, ebiten.KeyPeriod,
	ebiten.KeyH, ebiten.KeyC, ebiten.KeyN,
}

// Game adapts a Sim to ebiten's Update/Draw loop.
type Game struct {
	sim      *game.Sim
	thoughts *game.ThoughtLog
	reporter *game.SimReporter
	log      *zap.Logger

	width      int
	height     int
	courtW     int
	courtH     int
	prevKeys   map[ebiten.Key]bool
	showHUD    bool
	simSpeed   float64
	tickAccum  float64
	status     string
	statusLeft int

	// copyText receives the report on C.
	copyText func(string) error
}

// New wraps sim. thoughts may be nil; the viewer then shows an empty panel.
func New(sim *game.Sim, thoughts *game.ThoughtLog, log *zap.Logger) *Game {
	if log == nil {
		log = zap.NewNop()
	}
	if thoughts == nil {
		thoughts = game.NewThoughtLog()
	}
	ext := sim.Court.Extent()
	g := &Game{
		sim:      sim,
		thoughts: thoughts,
		reporter: game.NewSimReporter(0),
		log:      log,
		courtW:   int(ext.Width() * pixelsPerMeter),
		courtH:   int(ext.Height() * pixelsPerMeter),
		prevKeys: make(map[ebiten.Key]bool),
		showHUD:  true,
		simSpeed: 1,
		copyText: clipboard.WriteAll,
	}
	g.width = borderWidth + g.courtW + borderWidth + logPanelWidth
	g.height = borderWidth + g.courtH + borderWidth
	return g
}

// WindowSize is the size the window should open at.
func (g *Game) WindowSize() (int, int) { return g.width, g.height }

func (g *Game) Update() error {
	g.handleInput()
	if g.statusLeft > 0 {
		g.statusLeft--
	}
	g.advance()
	return nil
}

// advance runs as many sim ticks as the playback speed allows this frame.
func (g *Game) advance() {
	if g.simSpeed <= 0 {
		return
	}
	g.tickAccum += g.simSpeed
	for g.tickAccum >= 1.0 {
		g.tickAccum -= 1.0
		g.sim.Step()
		if g.sim.CurrentTick()%g.sim.TickRate() == 0 {
			g.reporter.Collect(g.sim)
		}
	}
}

// handleInput polls the tracked keys and fires each action once per press.
func (g *Game) handleInput() {
	current := make(map[ebiten.Key]bool, len(trackedKeys))
	for _, k := range trackedKeys {
		current[k] = ebiten.IsKeyPressed(k)
		if current[k] && !g.prevKeys[k] {
			g.press(k)
		}
	}
	g.prevKeys = current
}

func (g *Game) press(k ebiten.Key) {
	switch k {
	case ebiten.KeyEnter, ebiten.KeyNumpadEnter:
		g.sim.Resume()
		if g.sim.Paused() {
			g.setStatus("agents paused")
		} else {
			g.setStatus("play")
		}
	case ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4, ebiten.Key5:
		bp := presetKeys[k]
		g.sim.SetBallSpeedPreset(bp)
		g.setStatus("ball speed " + bp.String())
	case ebiten.KeyEqual, ebiten.KeyNumpadAdd:
		g.adjustBallSpeed(fineSpeedStep)
	case ebiten.KeyMinus, ebiten.KeyNumpadSubtract:
		g.adjustBallSpeed(-fineSpeedStep)
	case ebiten.KeyPageUp:
		g.adjustBallSpeed(coarseSpeedStep)
	case ebiten.KeyPageDown:
		g.adjustBallSpeed(-coarseSpeedStep)
	case ebiten.KeyN:
		g.sim.PassNow()
		g.setStatus("pass now")
	case ebiten.KeyR:
		g.sim.ResetPassCounts()
		g.setStatus("pass counts reset")
	case ebiten.KeyP:
		if g.simSpeed > 0 {
			g.simSpeed = 0
		} else {
			g.simSpeed = 1
		}
	case ebiten.KeyComma:
		for i, s := range simSpeeds {
			if s >= g.simSpeed && i > 0 {
				g.simSpeed = simSpeeds[i-1]
				break
			}
		}
	case ebiten.KeyPeriod:
		for i, s := range simSpeeds {
			if s <= g.simSpeed && i < len(simSpeeds)-1 && simSpeeds[i+1] > g.simSpeed {
				g.simSpeed = simSpeeds[i+1]
				break
			}
		}
	case ebiten.KeyH:
		g.showHUD = !g.showHUD
	case ebiten.KeyC:
		if err := g.copyText(g.Report()); err != nil {
			g.log.Warn("copy report", zap.Error(err))
			g.setStatus("clipboard unavailable")
			return
		}
		g.setStatus("report copied")
	}
}

func (g *Game) adjustBallSpeed(delta float64) {
	g.sim.AdjustBallTargetSpeed(delta)
	if len(g.sim.Balls) > 0 {
		g.setStatus(fmt.Sprintf("ball speed %.1f m/s", g.sim.Balls[0].TargetSpeed()))
	}
}

func (g *Game) setStatus(msg string) {
	g.status = msg
	g.statusLeft = statusTicks
	g.log.Debug("viewer", zap.String("status", msg), zap.Int("tick", g.sim.CurrentTick()))
}

// Report is the text copied to the clipboard: the latest behaviour report,
// the run statistics, the current court summary and the recent events.
func (g *Game) Report() string {
	now := g.sim.CurrentTick()
	return g.reporter.FormatLatest() + "\n" +
		g.sim.Stats.Format() + "\n" +
		g.sim.SimLog.Summary(now, g.sim.Agents, g.sim.Balls) + "\n" +
		"--- Last 5s ---\n" +
		g.sim.SimLog.FormatRange(now-reportWindowSeconds*g.sim.TickRate(), now)
}

func (g *Game) Layout(_, _ int) (int, int) {
	return g.width, g.height
}

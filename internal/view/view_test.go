package view

import (
	"errors"
	"strings"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Garsondee/Court-Sense/internal/game"
)

func newTestGame(t *testing.T) *Game {
	t.Helper()
	tl := game.NewThoughtLog()
	sim := game.NewSim(append([]game.SimOption{game.WithSeed(1), game.WithThoughts(tl)}, game.StandardScene()...)...)
	return New(sim, tl, nil)
}

func TestGame_EnterTogglesPlay(t *testing.T) {
	g := newTestGame(t)
	require.True(t, g.sim.Paused())
	g.press(ebiten.KeyEnter)
	assert.False(t, g.sim.Paused())
	assert.Equal(t, "play", g.status)
	g.press(ebiten.KeyNumpadEnter)
	assert.True(t, g.sim.Paused())
}

func TestGame_PassNowThrowsWhilePaused(t *testing.T) {
	g := newTestGame(t)
	g.press(ebiten.KeyN)
	assert.True(t, g.sim.Paused())
	for _, b := range g.sim.Balls {
		assert.True(t, b.IsMoving(), "%s ball should be in flight", b.Team())
	}
	assert.Equal(t, "pass now", g.status)
}

func TestGame_BallSpeedKeys(t *testing.T) {
	g := newTestGame(t)
	g.press(ebiten.Key1)
	for _, b := range g.sim.Balls {
		assert.Equal(t, game.BallVerySlow, b.Preset())
	}
	g.press(ebiten.Key3)
	base := g.sim.Balls[0].TargetSpeed()

	g.press(ebiten.KeyEqual)
	assert.InDelta(t, base+fineSpeedStep, g.sim.Balls[0].TargetSpeed(), 1e-9)
	assert.Equal(t, game.BallCustom, g.sim.Balls[0].Preset())
	g.press(ebiten.KeyMinus)
	g.press(ebiten.KeyPageUp)
	assert.InDelta(t, base+coarseSpeedStep, g.sim.Balls[1].TargetSpeed(), 1e-9)
	g.press(ebiten.KeyPageDown)
	assert.InDelta(t, base, g.sim.Balls[1].TargetSpeed(), 1e-9)
}

func TestGame_PlaybackSpeed(t *testing.T) {
	g := newTestGame(t)
	g.press(ebiten.KeyComma)
	assert.Equal(t, 0.5, g.simSpeed)
	g.advance()
	g.advance()
	assert.Equal(t, 1, g.sim.CurrentTick())

	g.press(ebiten.KeyPeriod)
	g.press(ebiten.KeyPeriod)
	assert.Equal(t, 2.0, g.simSpeed)
	g.advance()
	assert.Equal(t, 3, g.sim.CurrentTick())

	g.press(ebiten.KeyP)
	assert.Zero(t, g.simSpeed)
	g.advance()
	assert.Equal(t, 3, g.sim.CurrentTick())
	g.press(ebiten.KeyP)
	assert.Equal(t, 1.0, g.simSpeed)

	for _i, _end := 0, 10; _i < _end; _i++ {
		g.press(ebiten.KeyPeriod)
	}
	assert.Equal(t, 4.0, g.simSpeed)
	for _i, _end := 0, 10; _i < _end; _i++ {
		g.press(ebiten.KeyComma)
	}
	assert.Zero(t, g.simSpeed)
}

func TestGame_ResetAndHUD(t *testing.T) {
	g := newTestGame(t)
	g.press(ebiten.KeyEnter)
	for _i, _end := 0, 5*game.DefaultTickRate; _i < _end; _i++ {
		g.advance()
	}
	require.Positive(t, g.sim.Stats.TotalPasses())
	g.press(ebiten.KeyR)
	for _, b := range g.sim.Balls {
		assert.Zero(t, b.TotalPasses())
	}
	g.press(ebiten.KeyH)
	assert.False(t, g.showHUD)
}

func TestGame_CopyReport(t *testing.T) {
	g := newTestGame(t)
	var copied string
	g.copyText = func(s string) error { copied = s; return nil }
	g.press(ebiten.KeyEnter)
	for _i, _end := 0, 2*game.DefaultTickRate; _i < _end; _i++ {
		g.advance()
	}
	g.press(ebiten.KeyC)
	assert.Equal(t, "report copied", g.status)
	assert.True(t, strings.Contains(copied, "Ball white"), copied)
	assert.True(t, strings.Contains(copied, "white passes="), copied)
	assert.True(t, strings.Contains(copied, "--- Last 5s ---"), copied)
	assert.Regexp(t, `\[T=\d+\] W\d +pass +begin`, copied)

	g.copyText = func(string) error { return errors.New("no display") }
	g.press(ebiten.KeyC)
	assert.Equal(t, "clipboard unavailable", g.status)
}

func TestGame_ToScreenOrientation(t *testing.T) {
	g := newTestGame(t)
	ext := g.sim.Court.Extent()
	x0, y0 := g.toScreen(game.V2(ext.MinX, ext.MaxY))
	assert.Equal(t, float32(borderWidth), x0)
	assert.Equal(t, float32(borderWidth), y0)

	_, yNear := g.toScreen(game.V2(0, ext.MinY))
	_, yFar := g.toScreen(game.V2(0, ext.MaxY))
	assert.Greater(t, yNear, yFar, "near baseline should be at the bottom")

	w, h := g.Layout(0, 0)
	assert.Equal(t, g.courtW+2*borderWidth+logPanelWidth, w)
	assert.Equal(t, g.courtH+2*borderWidth, h)
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Garsondee/Court-Sense/internal/game"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "court.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, game.DefaultTickRate, c.Sim.TickRate)
	assert.Equal(t, game.DefaultAgentParams(), c.Agent)
	assert.Equal(t, game.TeamBlack, c.Passes.Black.Team)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
sim:
  seed: 42
  tick_rate: 30
  enable_walker: false
court:
  walls: false
passes:
  white:
    speed_preset: very-slow
    hold_time: 0.8
stream:
  interval: 250ms
`)
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(42), c.Sim.Seed)
	assert.Equal(t, 30, c.Sim.TickRate)
	assert.False(t, c.Sim.EnableWalker)
	assert.False(t, c.Court.Walls)
	assert.Equal(t, game.DefaultCourtParams().Width, c.Court.Width)
	assert.Equal(t, game.BallVerySlow, c.Passes.White.SpeedPreset)
	assert.InDelta(t, 0.8, c.Passes.White.HoldTime, 1e-9)
	assert.Equal(t, game.TeamWhite, c.Passes.White.Team)
	assert.Equal(t, 250*time.Millisecond, c.Stream.Interval)
}

func TestLoad_ProfileIsBaseForAgentKeys(t *testing.T) {
	path := writeConfig(t, `
sim:
  profile: solo
agent:
  radius: 0.4
`)
	c, err := Load(path)
	require.NoError(t, err)
	assert.True(t, c.Agent.DisableTeamForces)
	assert.InDelta(t, 0.4, c.Agent.Radius, 1e-9)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "sim:\n  profile: berserk\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorIs(t, err, game.ErrUnknownProfile)

	_, err = Load(writeConfig(t, "sim:\n  tick_rate: 0\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Load(writeConfig(t, "passes:\n  black:\n    speed_preset: warp\n"))
	assert.ErrorIs(t, err, game.ErrInvalidValue)

	_, err = Load(writeConfig(t, "sim: [1, 2\n"))
	assert.Error(t, err)
}

func TestLoad_EmptyFile(t *testing.T) {
	c, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default().Sim, c.Sim)
}

func TestApplyEnv_Overrides(t *testing.T) {
	t.Setenv("COURT_SEED", "9")
	t.Setenv("COURT_TICKS", "120")
	t.Setenv("COURT_VERBOSE", "true")
	t.Setenv("COURT_PROFILE", "calm")
	t.Setenv("COURT_BALL_PRESET", "slow")
	t.Setenv("COURT_LOG_LEVEL", "debug")
	t.Setenv("COURT_STREAM_ADDR", ":9090")
	t.Setenv("COURT_STREAM_INTERVAL", "50ms")

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, int64(9), c.Sim.Seed)
	assert.Equal(t, 120, c.Sim.Ticks)
	assert.True(t, c.Sim.Verbose)
	calm, _ := game.Profile("calm")
	assert.Equal(t, calm, c.Agent)
	assert.Equal(t, game.BallSlow, c.Passes.White.SpeedPreset)
	assert.Equal(t, game.BallSlow, c.Passes.Black.SpeedPreset)
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, ":9090", c.Stream.Addr)
	assert.Equal(t, 50*time.Millisecond, c.Stream.Interval)
}

func TestApplyEnv_BadValues(t *testing.T) {
	for key, val := range map[string]string{
		"COURT_TICK_RATE":       "fast",
		"COURT_SEED":            "x",
		"COURT_VERBOSE":         "maybe",
		"COURT_STREAM_INTERVAL": "soon",
	} {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			_, err := Load("")
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestValidate_Rejects(t *testing.T) {
	cases := map[string]func(*Config){
		"court":      func(c *Config) { c.Court.Width = 0 },
		"radius":     func(c *Config) { c.Agent.Radius = 0 },
		"ball range": func(c *Config) { c.Passes.Black.MaxSpeed = 0.1 },
		"team":       func(c *Config) { c.Passes.White.Team = game.TeamBlack },
		"log":        func(c *Config) { c.Log.Level = "loud" },
		"ticks":      func(c *Config) { c.Sim.Ticks = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := Default()
			mutate(&c)
			assert.ErrorIs(t, c.Validate(), ErrInvalidConfig)
		})
	}
}

func TestSimOptions_BuildsScene(t *testing.T) {
	c := Default()
	c.Sim.Seed = 3
	c.Sim.EnableWalker = false
	s := game.NewSim(c.SimOptions()...)
	assert.Len(t, s.Agents, 6)
	assert.Len(t, s.Balls, 2)
	assert.Empty(t, s.Walkers)
	assert.Equal(t, int64(3), s.Seed())

	c.Sim.EnableBalls = false
	s = game.NewSim(c.SimOptions(game.WithTickRate(30))...)
	assert.Empty(t, s.Balls)
	assert.Equal(t, 30, s.TickRate())
	assert.True(t, strings.HasPrefix(s.Agents[0].Name(), "W"))
}

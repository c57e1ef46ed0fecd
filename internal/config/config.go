// Package config loads court settings: built-in defaults, then an optional
// YAML file, then COURT_* environment variables (a .env file is honoured).
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Garsondee/Court-Sense/internal/game"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Sim    SimConfig         `yaml:"sim"`
	Court  game.CourtParams  `yaml:"court"`
	Agent  game.AgentParams  `yaml:"agent"`
	Passes PassesConfig      `yaml:"passes"`
	Walker game.WalkerParams `yaml:"walker"`
	Log    LogConfig         `yaml:"log"`
	Stream StreamConfig      `yaml:"stream"`
}

type SimConfig struct {
	Seed     int64  `yaml:"seed"`
	TickRate int    `yaml:"tick_rate"`
	Profile  string `yaml:"profile"`
	Verbose  bool   `yaml:"verbose"`
	// Ticks is the run length for headless runs.
	Ticks        int  `yaml:"ticks"`
	EnableBalls  bool `yaml:"enable_balls"`
	EnableWalker bool `yaml:"enable_walker"`
}

type PassesConfig struct {
	White game.PassParams `yaml:"white"`
	Black game.PassParams `yaml:"black"`
}

type LogConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
}

type StreamConfig struct {
	Addr     string        `yaml:"addr"`
	Interval time.Duration `yaml:"interval"`
}

// Default returns the standard scene at 60 TPS.
func Default() Config {
	return Config{
		Sim: SimConfig{
			Seed:         1,
			TickRate:     game.DefaultTickRate,
			Profile:      "default",
			Ticks:        60 * game.DefaultTickRate,
			EnableBalls:  true,
			EnableWalker: true,
		},
		Court: game.DefaultCourtParams(),
		Agent: game.DefaultAgentParams(),
		Passes: PassesConfig{
			White: game.DefaultPassParams(game.TeamWhite),
			Black: game.DefaultPassParams(game.TeamBlack),
		},
		Walker: game.DefaultWalkerParams(),
		Log:    LogConfig{Level: "info", Encoding: "json"},
		Stream: StreamConfig{Addr: ":8080", Interval: 100 * time.Millisecond},
	}
}

// Load reads defaults, the YAML file at path (skipped when empty) and the
// environment, then validates the result.
func Load(path string) (Config, error) {
	c := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()
		if err := c.Decode(f); err != nil {
			return Config{}, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := c.ApplyEnv(); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Decode merges a YAML document over c. A profile named in the document
// becomes the base for the agent block, so explicit agent keys still win.
func (c *Config) Decode(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var head struct {
		Sim struct {
			Profile string `yaml:"profile"`
		} `yaml:"sim"`
	}
	if err := yaml.NewDecoder(bytes.NewReader(raw)).Decode(&head); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode config: %w", err)
	}
	if head.Sim.Profile != "" {
		p, err := game.Profile(head.Sim.Profile)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		c.Agent = p
	}
	if err := yaml.NewDecoder(bytes.NewReader(raw)).Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from COURT_* variables. A .env file in the
// working directory is loaded first if present.
func (c *Config) ApplyEnv() error {
	_ = godotenv.Load()

	var err error
	if c.Sim.Seed, err = getEnvInt64("COURT_SEED", c.Sim.Seed); err != nil {
		return err
	}
	if c.Sim.TickRate, err = getEnvInt("COURT_TICK_RATE", c.Sim.TickRate); err != nil {
		return err
	}
	if c.Sim.Ticks, err = getEnvInt("COURT_TICKS", c.Sim.Ticks); err != nil {
		return err
	}
	if c.Sim.Verbose, err = getEnvBool("COURT_VERBOSE", c.Sim.Verbose); err != nil {
		return err
	}
	if name := getEnv("COURT_PROFILE", ""); name != "" && !strings.EqualFold(name, c.Sim.Profile) {
		p, err := game.Profile(name)
		if err != nil {
			return fmt.Errorf("%w: COURT_PROFILE: %w", ErrInvalidConfig, err)
		}
		c.Sim.Profile = name
		c.Agent = p
	}
	if v := getEnv("COURT_BALL_PRESET", ""); v != "" {
		var bp game.BallSpeedPreset
		if err := bp.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("%w: COURT_BALL_PRESET: %w", ErrInvalidConfig, err)
		}
		c.Passes.White.SpeedPreset = bp
		c.Passes.Black.SpeedPreset = bp
	}
	c.Log.Level = getEnv("COURT_LOG_LEVEL", c.Log.Level)
	c.Log.Encoding = getEnv("COURT_LOG_ENCODING", c.Log.Encoding)
	c.Stream.Addr = getEnv("COURT_STREAM_ADDR", c.Stream.Addr)
	if v := getEnv("COURT_STREAM_INTERVAL", ""); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: COURT_STREAM_INTERVAL: %w", ErrInvalidConfig, err)
		}
		c.Stream.Interval = d
	}
	return nil
}

// Validate rejects settings the simulation cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Sim.TickRate <= 0:
		return fmt.Errorf("%w: sim.tick_rate must be positive, got %d", ErrInvalidConfig, c.Sim.TickRate)
	case c.Sim.Ticks < 0:
		return fmt.Errorf("%w: sim.ticks must not be negative, got %d", ErrInvalidConfig, c.Sim.Ticks)
	case c.Court.Width <= 0 || c.Court.Length <= 0:
		return fmt.Errorf("%w: court size %.2fx%.2f", ErrInvalidConfig, c.Court.Width, c.Court.Length)
	case c.Agent.Radius <= 0:
		return fmt.Errorf("%w: agent.radius must be positive", ErrInvalidConfig)
	case c.Walker.WalkSpeed < 0:
		return fmt.Errorf("%w: walker.walk_speed must not be negative", ErrInvalidConfig)
	case c.Stream.Interval <= 0:
		return fmt.Errorf("%w: stream.interval must be positive", ErrInvalidConfig)
	}
	for _, p := range []game.PassParams{c.Passes.White, c.Passes.Black} {
		if p.MinSpeed <= 0 || p.MaxSpeed < p.MinSpeed {
			return fmt.Errorf("%w: %s ball speed range %.2f..%.2f", ErrInvalidConfig, p.Team, p.MinSpeed, p.MaxSpeed)
		}
	}
	if c.Passes.White.Team != game.TeamWhite || c.Passes.Black.Team != game.TeamBlack {
		return fmt.Errorf("%w: pass blocks must keep their team", ErrInvalidConfig)
	}
	if _, err := zap.ParseAtomicLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %w", ErrInvalidConfig, err)
	}
	return nil
}

// SimOptions turns the config into the options for a standard scene.
func (c *Config) SimOptions(extra ...game.SimOption) []game.SimOption {
	opts := []game.SimOption{
		game.WithSeed(c.Sim.Seed),
		game.WithTickRate(c.Sim.TickRate),
		game.WithVerbose(c.Sim.Verbose),
		game.WithCourt(c.Court),
		game.WithAgentParams(c.Agent),
		game.WithPassParams(c.Passes.White),
		game.WithPassParams(c.Passes.Black),
		game.WithStandardRoster(),
	}
	if c.Sim.EnableBalls {
		opts = append(opts, game.WithBall(game.TeamWhite), game.WithBall(game.TeamBlack))
	}
	if c.Sim.EnableWalker {
		opts = append(opts, game.WithWalker(c.Walker))
	}
	return append(opts, extra...)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, key, err)
	}
	return n, nil
}

func getEnvInt64(key string, fallback int64) (int64, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, key, err)
	}
	return n, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, key, err)
	}
	return b, nil
}

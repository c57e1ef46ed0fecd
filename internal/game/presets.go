package game

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownProfile is returned when a tuning profile name is not registered.
var ErrUnknownProfile = errors.New("unknown tuning profile")

// SpeedPreset bundles the locomotion limits of an agent.
type SpeedPreset int

const (
	SpeedSlow SpeedPreset = iota
	SpeedNormal
	SpeedFast
	SpeedVeryFast
)

func (sp SpeedPreset) String() string {
	switch sp {
	case SpeedSlow:
		return "slow"
	case SpeedNormal:
		return "normal"
	case SpeedFast:
		return "fast"
	case SpeedVeryFast:
		return "very-fast"
	default:
		return "unknown"
	}
}

// UnmarshalText lets presets be written by name in config files.
func (sp *SpeedPreset) UnmarshalText(b []byte) error {
	for _, p := range []SpeedPreset{SpeedSlow, SpeedNormal, SpeedFast, SpeedVeryFast} {
		if strings.EqualFold(string(b), p.String()) {
			*sp = p
			return nil
		}
	}
	return fmt.Errorf("speed preset %q: %w", b, ErrInvalidValue)
}

// MarshalText writes the preset name.
func (sp SpeedPreset) MarshalText() ([]byte, error) { return []byte(sp.String()), nil }

// ErrInvalidValue is returned for malformed enum values in config.
var ErrInvalidValue = errors.New("invalid value")

// AgentParams is the full tuning surface of a court agent.
type AgentParams struct {
	// Locomotion. Overwritten by SpeedPreset when the agent is built.
	MaxSpeed           float64     `yaml:"max_speed"`
	Acceleration       float64     `yaml:"acceleration"`
	TurnSpeedDegPerSec float64     `yaml:"turn_speed_deg_per_sec"`
	SprintMultiplier   float64     `yaml:"sprint_multiplier"`
	SpeedPreset        SpeedPreset `yaml:"speed_preset"`

	Radius  float64 `yaml:"radius"`
	FixedY  float64 `yaml:"fixed_y"`
	CenterY float64 `yaml:"center_y"`

	WanderJitter   float64 `yaml:"wander_jitter"`
	WanderRadius   float64 `yaml:"wander_radius"`
	WanderDistance float64 `yaml:"wander_distance"`

	SeparationRadius   float64 `yaml:"separation_radius"`
	SeparationStrength float64 `yaml:"separation_strength"`
	AvoidanceRadius    float64 `yaml:"avoidance_radius"`
	AvoidanceStrength  float64 `yaml:"avoidance_strength"`
	EmergencyRadius    float64 `yaml:"emergency_radius"`

	EnableHumanAvoidance   bool    `yaml:"enable_human_avoidance"`
	HumanAvoidanceRadius   float64 `yaml:"human_avoidance_radius"`
	HumanAvoidanceStrength float64 `yaml:"human_avoidance_strength"`

	BoundaryPushStrength       float64 `yaml:"boundary_push_strength"`
	BoundaryForceMultiplier    float64 `yaml:"boundary_force_multiplier"`
	MaxBoundaryForce           float64 `yaml:"max_boundary_force"`
	PredictiveBoundaryDistance float64 `yaml:"predictive_boundary_distance"`

	WallDetectDistance float64 `yaml:"wall_detect_distance"`
	WallAvoidStrength  float64 `yaml:"wall_avoid_strength"`
	WallHardThreshold  float64 `yaml:"wall_hard_threshold"`

	// Chances are per second except DirectionChangeChance, which is rolled
	// whenever the direction timer expires.
	IdleChance            float64 `yaml:"idle_chance"`
	DirectionChangeChance float64 `yaml:"direction_change_chance"`
	SprintChance          float64 `yaml:"sprint_chance"`

	EnableRoam          bool    `yaml:"enable_roam"`
	RoamIntervalMin     float64 `yaml:"roam_interval_min"`
	RoamIntervalMax     float64 `yaml:"roam_interval_max"`
	RoamSeekStrength    float64 `yaml:"roam_seek_strength"`
	RoamArrivalDistance float64 `yaml:"roam_arrival_distance"`

	TeamCohesionRadius        float64 `yaml:"team_cohesion_radius"`
	TeamCohesionStrength      float64 `yaml:"team_cohesion_strength"`
	TeamFormationStrength     float64 `yaml:"team_formation_strength"`
	OpponentAvoidanceRadius   float64 `yaml:"opponent_avoidance_radius"`
	OpponentAvoidanceStrength float64 `yaml:"opponent_avoidance_strength"`
	TeamMixingStrength        float64 `yaml:"team_mixing_strength"`
	// DisableTeamForces switches off cohesion, formation and opponent
	// avoidance together. Mixing has its own toggle.
	DisableTeamForces       bool `yaml:"disable_team_forces"`
	EnableCohesion          bool `yaml:"enable_cohesion"`
	EnableFormation         bool `yaml:"enable_formation"`
	EnableOpponentAvoidance bool `yaml:"enable_opponent_avoidance"`
	EnableTeamMixing        bool `yaml:"enable_team_mixing"`

	EnablePassCut          bool    `yaml:"enable_pass_cut"`
	PassCutDetectionRadius float64 `yaml:"pass_cut_detection_radius"`
	PassCutStrength        float64 `yaml:"pass_cut_strength"`
	PassCutChance          float64 `yaml:"pass_cut_chance"`

	EnableHeightVariation bool    `yaml:"enable_height_variation"`
	HeightChangeSpeed     float64 `yaml:"height_change_speed"`
	HeightResumeBlend     float64 `yaml:"height_resume_blend"`

	StartPaused bool `yaml:"start_paused"`
}

// DefaultAgentParams returns the shipped tuning: aggressive wander, frequent
// sprints and strong team mixing.
func DefaultAgentParams() AgentParams {
	p := AgentParams{
		SpeedPreset: SpeedFast,

		Radius:  0.3,
		FixedY:  0.953,
		CenterY: 0.5,

		WanderJitter:   15.0,
		WanderRadius:   12.0,
		WanderDistance: 10.0,

		SeparationRadius:   0.8,
		SeparationStrength: 8.0,
		AvoidanceRadius:    1.5,
		AvoidanceStrength:  12.0,
		EmergencyRadius:    0.5,

		EnableHumanAvoidance:   true,
		HumanAvoidanceRadius:   1.8,
		HumanAvoidanceStrength: 18.0,

		BoundaryPushStrength:       6.0,
		BoundaryForceMultiplier:    2.5,
		MaxBoundaryForce:           15.0,
		PredictiveBoundaryDistance: 1.5,

		WallDetectDistance: 1.0,
		WallAvoidStrength:  14.0,
		WallHardThreshold:  0.3,

		IdleChance:            0.001,
		DirectionChangeChance: 0.95,
		SprintChance:          0.9,

		EnableRoam:          true,
		RoamIntervalMin:     2.0,
		RoamIntervalMax:     4.0,
		RoamSeekStrength:    1.2,
		RoamArrivalDistance: 0.6,

		TeamCohesionRadius:        8.0,
		TeamCohesionStrength:      0.05,
		TeamFormationStrength:     0.01,
		OpponentAvoidanceRadius:   1.2,
		OpponentAvoidanceStrength: 0.5,
		TeamMixingStrength:        10.0,
		EnableCohesion:            true,
		EnableFormation:           true,
		EnableOpponentAvoidance:   true,
		EnableTeamMixing:          true,

		EnablePassCut:          true,
		PassCutDetectionRadius: 20.0,
		PassCutStrength:        20.0,
		PassCutChance:          0.98,

		EnableHeightVariation: true,
		HeightChangeSpeed:     0.5,
		HeightResumeBlend:     0.3,

		StartPaused: true,
	}
	p.ApplySpeedPreset(p.SpeedPreset)
	return p
}

// ApplySpeedPreset overwrites the locomotion limits with the preset values.
func (p *AgentParams) ApplySpeedPreset(sp SpeedPreset) {
	p.SpeedPreset = sp
	switch sp {
	case SpeedSlow:
		p.MaxSpeed, p.Acceleration, p.TurnSpeedDegPerSec, p.SprintMultiplier = 2.5, 6, 360, 1.3
	case SpeedNormal:
		p.MaxSpeed, p.Acceleration, p.TurnSpeedDegPerSec, p.SprintMultiplier = 5.0, 12, 720, 1.8
	case SpeedFast:
		p.MaxSpeed, p.Acceleration, p.TurnSpeedDegPerSec, p.SprintMultiplier = 7.5, 18, 900, 2.2
	case SpeedVeryFast:
		p.MaxSpeed, p.Acceleration, p.TurnSpeedDegPerSec, p.SprintMultiplier = 10.0, 25, 1080, 2.5
	}
}

// profiles are the tuning passes the scene went through, kept as named
// variants of the defaults.
var profiles = map[string]func(*AgentParams){
	"default": func(*AgentParams) {},
	// Team forces off entirely; agents only wander, roam and mix.
	"solo": func(p *AgentParams) {
		p.DisableTeamForces = true
	},
	// Everything turned up: top speed, constant sprints, aggressive cuts.
	"frantic": func(p *AgentParams) {
		p.ApplySpeedPreset(SpeedVeryFast)
		p.SprintChance = 2.0
		p.PassCutChance = 1.0
		p.PassCutStrength = 30.0
	},
	// Gentle pick-up game.
	"calm": func(p *AgentParams) {
		p.ApplySpeedPreset(SpeedNormal)
		p.WanderJitter = 4.0
		p.WanderRadius = 3.0
		p.WanderDistance = 4.0
		p.DirectionChangeChance = 0.3
		p.SprintChance = 0.1
		p.TeamMixingStrength = 1.0
		p.PassCutChance = 0.3
		p.PassCutStrength = 6.0
		p.PassCutDetectionRadius = 8.0
	},
	// Teams hold shape and keep to their own half of the mix.
	"teamplay": func(p *AgentParams) {
		p.TeamCohesionStrength = 2.0
		p.TeamCohesionRadius = 4.0
		p.TeamFormationStrength = 1.5
		p.OpponentAvoidanceRadius = 2.0
		p.OpponentAvoidanceStrength = 4.0
		p.EnableTeamMixing = false
	},
}

// Profile returns the defaults adjusted by the named tuning profile.
func Profile(name string) (AgentParams, error) {
	fn, ok := profiles[strings.ToLower(name)]
	if !ok {
		return AgentParams{}, fmt.Errorf("%q: %w", name, ErrUnknownProfile)
	}
	p := DefaultAgentParams()
	fn(&p)
	return p, nil
}

// ProfileNames lists the registered profiles in sorted order.
func ProfileNames() []string {
	names := make([]string, 0, len(profiles))
	for n := range profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

package game

import (
	"fmt"
	"math"
	"strings"
)

// reportWindowTicks is the default sliding window for recent-behaviour reports (~10s at 60TPS).
const reportWindowTicks = 600

// --- Run statistics ---

// RunStats accumulates whole-run metrics tick by tick.
type RunStats struct {
	Ticks            int
	ActiveTicks      int // ticks with the sim unpaused
	MaxSpeed         float64
	MaxSpeedRatio    float64 // max |v| / MaxSpeed over all agents; must stay <= 1
	SpeedSum         float64
	SpeedSamples     int
	MinPairDistance  float64
	OutOfBoundsTicks int // agent-ticks spent out of bounds
	CutPressureTicks int // agent-ticks with an active pass-cut force
	ContactTicks     int // agent-ticks overlapping another body
	IdleTicks        int
	SprintTicks      int
	MaxBallHeight    float64
	PassesByTeam     map[Team]int
	SkipsByTeam      map[Team]int
	HeightErrorMax   float64 // largest |elevation - FixedY|
}

// NewRunStats returns empty statistics.
func NewRunStats() *RunStats {
	return &RunStats{
		MinPairDistance: math.Inf(1),
		PassesByTeam:    map[Team]int{},
		SkipsByTeam:     map[Team]int{},
	}
}

// Observe folds the current tick into the statistics.
func (rs *RunStats) Observe(s *Sim) {
	rs.Ticks++
	if !s.paused {
		rs.ActiveTicks++
	}
	for i, a := range s.Agents {
		sp := a.vel.Len()
		rs.MaxSpeed = math.Max(rs.MaxSpeed, sp)
		if a.p.MaxSpeed > 0 {
			rs.MaxSpeedRatio = math.Max(rs.MaxSpeedRatio, sp/a.p.MaxSpeed)
		}
		rs.HeightErrorMax = math.Max(rs.HeightErrorMax, math.Abs(a.Elevation()-a.p.FixedY))
		if !s.paused {
			rs.SpeedSum += sp
			rs.SpeedSamples++
		}
		if a.outOfBounds {
			rs.OutOfBoundsTicks++
		}
		if a.cutting {
			rs.CutPressureTicks++
		}
		if a.contact {
			rs.ContactTicks++
		}
		if a.idle {
			rs.IdleTicks++
		}
		if a.sprinting {
			rs.SprintTicks++
		}
		for _, o := range s.Agents[i+1:] {
			rs.MinPairDistance = math.Min(rs.MinPairDistance, a.pos.Dist(o.pos))
		}
	}
	for _, b := range s.Balls {
		rs.PassesByTeam[b.Team()] = b.total
		rs.SkipsByTeam[b.Team()] = b.skipped
		rs.MaxBallHeight = math.Max(rs.MaxBallHeight, b.pos.Z())
	}
}

// AvgSpeed is the mean agent speed over unpaused ticks.
func (rs *RunStats) AvgSpeed() float64 {
	if rs.SpeedSamples == 0 {
		return 0
	}
	return rs.SpeedSum / float64(rs.SpeedSamples)
}

// TotalPasses sums passes over every ball.
func (rs *RunStats) TotalPasses() int {
	n := 0
	for _, v := range rs.PassesByTeam {
		n += v
	}
	return n
}

// Format returns a multi-line summary of the run.
func (rs *RunStats) Format() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "ticks=%d active=%d\n", rs.Ticks, rs.ActiveTicks)
	fmt.Fprintf(&sb, "speed avg=%.2f max=%.2f (%.0f%% of cap)\n", rs.AvgSpeed(), rs.MaxSpeed, rs.MaxSpeedRatio*100)
	minPair := rs.MinPairDistance
	if math.IsInf(minPair, 1) {
		minPair = 0
	}
	fmt.Fprintf(&sb, "min pair distance=%.2fm contact agent-ticks=%d\n", minPair, rs.ContactTicks)
	fmt.Fprintf(&sb, "out-of-bounds agent-ticks=%d cut-pressure agent-ticks=%d\n", rs.OutOfBoundsTicks, rs.CutPressureTicks)
	fmt.Fprintf(&sb, "idle agent-ticks=%d sprint agent-ticks=%d\n", rs.IdleTicks, rs.SprintTicks)
	for _, t := range []Team{TeamWhite, TeamBlack, TeamNeutral} {
		if n, ok := rs.PassesByTeam[t]; ok {
			fmt.Fprintf(&sb, "%s passes=%d skipped=%d\n", t, n, rs.SkipsByTeam[t])
		}
	}
	fmt.Fprintf(&sb, "max ball height=%.2fm\n", rs.MaxBallHeight)
	return sb.String()
}

// --- Periodic reports ---

// TeamReport captures one team's state at one point in time.
type TeamReport struct {
	Team        Team
	Members     int
	AvgSpeed    float64
	Idle        int
	Sprinting   int
	OutOfBounds int
	Cutting     int
	Spread      float64 // mean distance from the team centroid
	Passes      int
}

// SimReport is a snapshot of the simulation at one tick.
type SimReport struct {
	Tick  int
	Teams []TeamReport
	// MixIndex is the mean nearest-opponent distance; lower means the teams
	// are more mixed.
	MixIndex float64
}

// SimReporter collects periodic reports from the simulation and can produce
// summaries over sliding time windows.
type SimReporter struct {
	history     []SimReport
	windowTicks int
}

// NewSimReporter creates a reporter with the given window size.
func NewSimReporter(windowTicks int) *SimReporter {
	if windowTicks <= 0 {
		windowTicks = reportWindowTicks
	}
	return &SimReporter{windowTicks: windowTicks}
}

// Collect gathers a snapshot from the current simulation state.
// Call this periodically (e.g. every 60 ticks / 1s).
func (r *SimReporter) Collect(s *Sim) {
	report := SimReport{Tick: s.tick}
	for _, t := range []Team{TeamWhite, TeamBlack, TeamNeutral} {
		members := s.AllByTeam(t)
		if len(members) == 0 {
			continue
		}
		tr := TeamReport{Team: t, Members: len(members)}
		var centroid Vec2
		for _, a := range members {
			tr.AvgSpeed += a.vel.Len()
			centroid = centroid.Add(a.pos)
			if a.idle {
				tr.Idle++
			}
			if a.sprinting {
				tr.Sprinting++
			}
			if a.outOfBounds {
				tr.OutOfBounds++
			}
			if a.cutting {
				tr.Cutting++
			}
		}
		n := float64(len(members))
		tr.AvgSpeed /= n
		centroid = centroid.Scale(1 / n)
		for _, a := range members {
			tr.Spread += a.pos.Dist(centroid)
		}
		tr.Spread /= n
		if b := s.Ball(t); b != nil {
			tr.Passes = b.total
		}
		report.Teams = append(report.Teams, tr)
	}
	report.MixIndex = mixIndex(s.Agents)
	r.history = append(r.history, report)
}

// mixIndex is the mean distance from each team agent to its nearest opponent.
func mixIndex(agents []*Agent) float64 {
	sum, n := 0.0, 0
	for _, a := range agents {
		best := math.Inf(1)
		for _, o := range agents {
			if a.team.Opposes(o.team) {
				best = math.Min(best, a.pos.Dist(o.pos))
			}
		}
		if !math.IsInf(best, 1) {
			sum += best
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Latest returns the most recent report, or nil.
func (r *SimReporter) Latest() *SimReport {
	if len(r.history) == 0 {
		return nil
	}
	return &r.history[len(r.history)-1]
}

// History returns every collected report.
func (r *SimReporter) History() []SimReport { return r.history }

// WindowReport is an aggregated summary over a time window.
type WindowReport struct {
	FromTick, ToTick int
	SampleCount      int
	AvgSpeed         map[Team]float64
	AvgSpread        map[Team]float64
	AvgCutting       map[Team]float64
	PassesInWindow   map[Team]int
	AvgMixIndex      float64
}

// WindowSummary aggregates the reports inside the last windowTicks.
func (r *SimReporter) WindowSummary() *WindowReport {
	latest := r.Latest()
	if latest == nil {
		return nil
	}
	cutoff := latest.Tick - r.windowTicks
	var window []SimReport
	for i := len(r.history) - 1; i >= 0; i-- {
		if r.history[i].Tick < cutoff {
			break
		}
		window = append(window, r.history[i])
	}

	n := float64(len(window))
	wr := &WindowReport{
		FromTick:       window[len(window)-1].Tick,
		ToTick:         window[0].Tick,
		SampleCount:    len(window),
		AvgSpeed:       map[Team]float64{},
		AvgSpread:      map[Team]float64{},
		AvgCutting:     map[Team]float64{},
		PassesInWindow: map[Team]int{},
	}
	first := map[Team]int{}
	for _, tr := range window[len(window)-1].Teams {
		first[tr.Team] = tr.Passes
	}
	for _, rpt := range window {
		wr.AvgMixIndex += rpt.MixIndex
		for _, tr := range rpt.Teams {
			wr.AvgSpeed[tr.Team] += tr.AvgSpeed
			wr.AvgSpread[tr.Team] += tr.Spread
			wr.AvgCutting[tr.Team] += float64(tr.Cutting)
		}
	}
	for _, tr := range latest.Teams {
		wr.PassesInWindow[tr.Team] = tr.Passes - first[tr.Team]
	}
	wr.AvgMixIndex /= n
	for t := range wr.AvgSpeed {
		wr.AvgSpeed[t] /= n
		wr.AvgSpread[t] /= n
		wr.AvgCutting[t] /= n
	}
	return wr
}

// Format returns a human-readable multi-line string of the window summary.
func (wr *WindowReport) Format() string {
	if wr == nil {
		return "No data collected yet.\n"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "=== Court Report (T=%d..%d, %d samples) ===\n",
		wr.FromTick, wr.ToTick, wr.SampleCount)
	for _, t := range []Team{TeamWhite, TeamBlack, TeamNeutral} {
		sp, ok := wr.AvgSpeed[t]
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "  %-8s speed %.2f m/s  spread %.2f m  cutters %.2f  passes %d\n",
			strings.ToUpper(t.String()), sp, wr.AvgSpread[t], wr.AvgCutting[t], wr.PassesInWindow[t])
	}
	fmt.Fprintf(&sb, "  mix index %.2f m (%s)\n", wr.AvgMixIndex, mixLabel(wr.AvgMixIndex))
	return sb.String()
}

func mixLabel(d float64) string {
	switch {
	case d == 0:
		return "no opponents"
	case d < 2:
		return "tightly mixed"
	case d < 5:
		return "mixed"
	default:
		return "separated"
	}
}

// FormatLatest renders the most recent window summary.
func (r *SimReporter) FormatLatest() string {
	return r.WindowSummary().Format()
}

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Garsondee/Court-Sense/internal/config"
	"github.com/Garsondee/Court-Sense/internal/game"
	"github.com/Garsondee/Court-Sense/internal/logging"
)

type runStats struct {
	runIndex int
	seed     int64

	passes         map[game.Team]int
	skips          map[game.Team]int
	firstPassTick  map[game.Team]int
	cutEvents      int
	cutPressure    int
	outOfBounds    int
	contactTicks   int
	sprintTicks    int
	idleTicks      int
	minPair        float64
	maxSpeed       float64
	maxSpeedRatio  float64
	avgSpeed       float64
	maxBallHeight  float64
	walkerArrivals int
	affected       map[string]struct{}
	digest         uint64

	windowSummary *game.WindowReport
}

type options struct {
	runs     int
	ticks    int
	seedBase int64
	seedStep int64
	profile  string
	config   string
	parallel int
}

func main() {
	var o options
	flag.IntVar(&o.runs, "runs", 5, "number of headless simulation runs")
	flag.IntVar(&o.ticks, "ticks", 0, "ticks per run (0 = config value)")
	flag.Int64Var(&o.seedBase, "seed-base", 42, "base RNG seed for run 1")
	flag.Int64Var(&o.seedStep, "seed-step", 1, "seed increment between runs")
	flag.StringVar(&o.profile, "profile", "", "agent tuning profile ("+strings.Join(game.ProfileNames(), ", ")+")")
	flag.StringVar(&o.config, "config", "", "YAML config file")
	flag.IntVar(&o.parallel, "parallel", 4, "runs simulated at once")
	flag.Parse()

	cfg, err := config.Load(o.config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()

	if err := run(context.Background(), os.Stdout, cfg, o, log); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, w io.Writer, cfg config.Config, o options, log *zap.Logger) error {
	if o.runs <= 0 {
		return fmt.Errorf("-runs must be > 0")
	}
	if o.ticks == 0 {
		o.ticks = cfg.Sim.Ticks
	}
	if o.ticks <= 0 {
		return fmt.Errorf("-ticks must be > 0")
	}
	if o.parallel <= 0 {
		o.parallel = 1
	}
	if o.profile != "" {
		p, err := game.Profile(o.profile)
		if err != nil {
			return err
		}
		cfg.Agent = p
		cfg.Sim.Profile = o.profile
	}

	reportID := uuid.NewString()
	fmt.Fprintf(w, "=== Headless Court Report ===\n")
	fmt.Fprintf(w, "report=%s profile=%s runs=%d ticks=%d seed_base=%d seed_step=%d\n\n",
		reportID, cfg.Sim.Profile, o.runs, o.ticks, o.seedBase, o.seedStep)

	all := make([]runStats, o.runs)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.parallel)
	for i, _end := 0, o.runs; i < _end; i++ {
		i := i
		seed := o.seedBase + int64(i)*o.seedStep
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			all[i] = runCourt(i+1, seed, o.ticks, cfg)
			log.Debug("run finished",
				zap.String("report", reportID),
				zap.Int("run", i+1),
				zap.Int64("seed", seed),
				zap.Uint64("digest", all[i].digest))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, rs := range all {
		printRun(w, rs)
	}
	printAggregate(w, all)
	return nil
}

// runCourt plays one standard scene from an immediate start.
func runCourt(runIndex int, seed int64, ticks int, cfg config.Config) runStats {
	cfg.Sim.Seed = seed
	s := game.NewSim(cfg.SimOptions()...)
	rep := game.NewSimReporter(0)
	s.Start()
	for s.CurrentTick() < ticks {
		s.Step()
		if s.CurrentTick()%s.TickRate() == 0 {
			rep.Collect(s)
		}
	}

	entries := s.SimLog.Entries()
	affected := map[string]struct{}{}
	cutEvents := 0
	arrivals := 0
	for _, e := range entries {
		switch e.Category {
		case "cut":
			cutEvents++
			affected[e.Agent] = struct{}{}
		case "bounds":
			affected[e.Agent] = struct{}{}
		case "walker":
			if e.Key == "phase" && strings.HasSuffix(e.Value, game.WalkerArrived.String()) {
				arrivals++
			}
		}
	}

	st := s.Stats
	rs := runStats{
		runIndex:       runIndex,
		seed:           seed,
		passes:         map[game.Team]int{},
		skips:          map[game.Team]int{},
		firstPassTick:  map[game.Team]int{},
		cutEvents:      cutEvents,
		cutPressure:    st.CutPressureTicks,
		outOfBounds:    st.OutOfBoundsTicks,
		contactTicks:   st.ContactTicks,
		sprintTicks:    st.SprintTicks,
		idleTicks:      st.IdleTicks,
		minPair:        st.MinPairDistance,
		maxSpeed:       st.MaxSpeed,
		maxSpeedRatio:  st.MaxSpeedRatio,
		avgSpeed:       st.AvgSpeed(),
		maxBallHeight:  st.MaxBallHeight,
		walkerArrivals: arrivals,
		affected:       affected,
		digest:         s.Digest(),
		windowSummary:  rep.WindowSummary(),
	}
	for t, n := range st.PassesByTeam {
		rs.passes[t] = n
		rs.skips[t] = st.SkipsByTeam[t]
		rs.firstPassTick[t] = firstTick(entries, "pass", "arrive", t.String())
	}
	if math.IsInf(rs.minPair, 1) {
		rs.minPair = 0
	}
	return rs
}

// firstTick is the tick of the first entry matching category and key, for
// the given team when team is not empty. -1 when there is none.
func firstTick(entries []game.SimLogEntry, category, key, team string) int {
	for _, e := range entries {
		if e.Category != category || e.Key != key {
			continue
		}
		if team == "" || e.Team == team {
			return e.Tick
		}
	}
	return -1
}

func printRun(w io.Writer, rs runStats) {
	fmt.Fprintf(w, "--- Run %d (seed=%d) ---\n", rs.runIndex, rs.seed)
	for _, t := range sortedTeams(rs.passes) {
		fmt.Fprintf(w, "passes_%s: caught=%d skipped=%d first_catch=%d\n",
			t, rs.passes[t], rs.skips[t], rs.firstPassTick[t])
	}
	fmt.Fprintf(w, "movement: avg_speed=%.2f max_speed=%.2f max_speed_ratio=%.3f min_pair=%.2f\n",
		rs.avgSpeed, rs.maxSpeed, rs.maxSpeedRatio, rs.minPair)
	fmt.Fprintf(w, "agent_ticks: cut_pressure=%d out_of_bounds=%d contact=%d sprint=%d idle=%d\n",
		rs.cutPressure, rs.outOfBounds, rs.contactTicks, rs.sprintTicks, rs.idleTicks)
	fmt.Fprintf(w, "events: cut=%d walker_arrivals=%d max_ball_height=%.2f\n",
		rs.cutEvents, rs.walkerArrivals, rs.maxBallHeight)
	fmt.Fprintf(w, "affected_labels: %s\n", joinSet(rs.affected))
	if rs.windowSummary != nil {
		fmt.Fprint(w, rs.windowSummary.Format())
	}
	fmt.Fprintf(w, "digest=%016x\n\n", rs.digest)
}

func printAggregate(w io.Writer, all []runStats) {
	passTotals := map[game.Team]int{}
	skipTotals := map[game.Team]int{}
	firstCatch := map[game.Team][]int{}
	totalCut, totalOOB, totalContact := 0, 0, 0
	minPair := math.Inf(1)
	maxRatio := 0.0
	affectedGlobal := map[string]struct{}{}

	for _, rs := range all {
		for t, n := range rs.passes {
			passTotals[t] += n
			skipTotals[t] += rs.skips[t]
			if ft := rs.firstPassTick[t]; ft >= 0 {
				firstCatch[t] = append(firstCatch[t], ft)
			}
		}
		totalCut += rs.cutPressure
		totalOOB += rs.outOfBounds
		totalContact += rs.contactTicks
		minPair = math.Min(minPair, rs.minPair)
		maxRatio = math.Max(maxRatio, rs.maxSpeedRatio)
		for label := range rs.affected {
			affectedGlobal[label] = struct{}{}
		}
	}
	if math.IsInf(minPair, 1) {
		minPair = 0
	}

	fmt.Fprintln(w, "=== Aggregate ===")
	fmt.Fprintf(w, "runs=%d\n", len(all))
	for _, t := range sortedTeams(passTotals) {
		fmt.Fprintf(w, "avg_per_run_%s: caught=%.1f skipped=%.1f first_catch=%s\n",
			t, avg(passTotals[t], len(all)), avg(skipTotals[t], len(all)), avgTickString(firstCatch[t]))
	}
	fmt.Fprintf(w, "avg_agent_ticks_per_run: cut_pressure=%.1f out_of_bounds=%.1f contact=%.1f\n",
		avg(totalCut, len(all)), avg(totalOOB, len(all)), avg(totalContact, len(all)))
	fmt.Fprintf(w, "worst: min_pair=%.2f max_speed_ratio=%.3f\n", minPair, maxRatio)
	fmt.Fprintf(w, "unique_affected_labels=%d [%s]\n", len(affectedGlobal), joinSet(affectedGlobal))
}

func sortedTeams[V any](m map[game.Team]V) []game.Team {
	teams := make([]game.Team, 0, len(m))
	for t := range m {
		teams = append(teams, t)
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i] < teams[j] })
	return teams
}

func avg(sum int, n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func avgTickString(vals []int) string {
	if len(vals) == 0 {
		return "n/a"
	}
	sum := 0
	for _, v := range vals {
		sum += v
	}
	return fmt.Sprintf("%.1f", float64(sum)/float64(len(vals)))
}

func joinSet(s map[string]struct{}) string {
	if len(s) == 0 {
		return "none"
	}
	labels := make([]string, 0, len(s))
	for k := range s {
		labels = append(labels, k)
	}
	sort.Strings(labels)
	return strings.Join(labels, ",")
}

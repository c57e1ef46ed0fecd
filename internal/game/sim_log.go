package game

import (
	"fmt"
	"strings"
)

// SimLogEntry is one recorded event during a headless simulation.
type SimLogEntry struct {
	Tick     int
	Agent    string  // label e.g. "W1", "B3", "H1", or "--" for global events
	Team     string  // "white", "black", "neutral", or "--"
	Category string  // pass, behaviour, bounds, cut, walker, control, move
	Key      string  // specific event name within the category
	Value    string  // human-readable detail
	NumVal   float64 // optional numeric value for threshold checks
}

// String formats the entry as a fixed-width log line.
//
//	[T=042] W1   pass      begin            W1 → W2 (6.3m)
func (e SimLogEntry) String() string {
	return fmt.Sprintf("[T=%03d] %-4s %-9s %-16s %s",
		e.Tick, e.Agent, e.Category, e.Key, e.Value)
}

// SimLog collects structured events during a headless simulation.
// Unlike ThoughtLog (UI ring-buffer), SimLog is machine-readable and keeps
// everything until a consumer trims it with Drop.
type SimLog struct {
	entries []SimLogEntry
	verbose bool
}

// NewSimLog creates a SimLog. If verbose is true, per-tick position and speed
// entries are also recorded.
func NewSimLog(verbose bool) *SimLog {
	return &SimLog{verbose: verbose}
}

// Add records a new entry.
func (sl *SimLog) Add(tick int, agent, team, category, key, value string, numVal float64) {
	sl.entries = append(sl.entries, SimLogEntry{
		Tick:     tick,
		Agent:    agent,
		Team:     team,
		Category: category,
		Key:      key,
		Value:    value,
		NumVal:   numVal,
	})
}

// AddVerbose records an entry only when verbose mode is on.
func (sl *SimLog) AddVerbose(tick int, agent, team, category, key, value string, numVal float64) {
	if !sl.verbose {
		return
	}
	sl.Add(tick, agent, team, category, key, value, numVal)
}

// Verbose reports whether per-tick entries are recorded.
func (sl *SimLog) Verbose() bool { return sl.verbose }

// Entries returns all recorded entries.
func (sl *SimLog) Entries() []SimLogEntry {
	return sl.entries
}

// Drop discards the oldest n entries. Long-running consumers call it once
// the entries have been forwarded.
func (sl *SimLog) Drop(n int) {
	if n <= 0 {
		return
	}
	if n >= len(sl.entries) {
		sl.entries = sl.entries[:0]
		return
	}
	sl.entries = append(sl.entries[:0], sl.entries[n:]...)
}

// Len returns the number of recorded entries.
func (sl *SimLog) Len() int { return len(sl.entries) }

// Filter returns entries matching the given category and/or key.
// Pass empty string to match any value for that field.
func (sl *SimLog) Filter(category, key string) []SimLogEntry {
	var out []SimLogEntry
	for _, e := range sl.entries {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		out = append(out, e)
	}
	return out
}

// FilterAgent returns entries for a specific agent label.
func (sl *SimLog) FilterAgent(label string) []SimLogEntry {
	var out []SimLogEntry
	for _, e := range sl.entries {
		if e.Agent == label {
			out = append(out, e)
		}
	}
	return out
}

// FilterTickRange returns entries within [fromTick, toTick] inclusive.
func (sl *SimLog) FilterTickRange(fromTick, toTick int) []SimLogEntry {
	var out []SimLogEntry
	for _, e := range sl.entries {
		if e.Tick >= fromTick && e.Tick <= toTick {
			out = append(out, e)
		}
	}
	return out
}

// CountCategory returns how many entries match the given category and key.
func (sl *SimLog) CountCategory(category, key string) int {
	return len(sl.Filter(category, key))
}

// LastOf returns the most recent entry matching category+key, or false if none.
func (sl *SimLog) LastOf(category, key string) (SimLogEntry, bool) {
	entries := sl.Filter(category, key)
	if len(entries) == 0 {
		return SimLogEntry{}, false
	}
	return entries[len(entries)-1], true
}

// HasEntry returns true if at least one entry matches category, key, and value substring.
func (sl *SimLog) HasEntry(category, key, valueSubstr string) bool {
	for _, e := range sl.entries {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		if valueSubstr != "" && !strings.Contains(e.Value, valueSubstr) {
			continue
		}
		return true
	}
	return false
}

// Format returns the full log as a single string for t.Log output.
func (sl *SimLog) Format() string {
	var sb strings.Builder
	for _, e := range sl.entries {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// FormatRange returns a log string filtered to a tick range.
func (sl *SimLog) FormatRange(fromTick, toTick int) string {
	var sb strings.Builder
	for _, e := range sl.FilterTickRange(fromTick, toTick) {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Summary returns a short human-readable summary of the court at tick.
func (sl *SimLog) Summary(tick int, agents []*Agent, balls []*PassController) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- Summary at T=%03d ---\n", tick)

	idle, sprint, oob := 0, 0, 0
	for _, a := range agents {
		if a.idle {
			idle++
		}
		if a.sprinting {
			sprint++
		}
		if a.outOfBounds {
			oob++
		}
	}
	fmt.Fprintf(&sb, "Agents: %d  idle=%d  sprinting=%d  out-of-bounds=%d\n", len(agents), idle, sprint, oob)

	for _, b := range balls {
		holder := "--"
		if h := b.Holder(); h != nil {
			holder = h.name
		}
		fmt.Fprintf(&sb, "Ball %s: %s  holder=%s  passes=%d  speed=%.1f→%.1f\n",
			b.Team(), b.State(), holder, b.TotalPasses(), b.CurrentSpeed(), b.TargetSpeed())
	}

	cutters := make([]string, 0, len(agents))
	for _, a := range agents {
		if a.cutting {
			cutters = append(cutters, a.name)
		}
	}
	if len(cutters) == 0 {
		sb.WriteString("Cutting: none\n")
	} else {
		fmt.Fprintf(&sb, "Cutting: [%s]\n", strings.Join(cutters, ", "))
	}
	return sb.String()
}

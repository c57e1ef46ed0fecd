package game

const logMaxEntries = 60

// ThoughtEntry is a single line in the thought log.
type ThoughtEntry struct {
	Tick    int
	Label   string // e.g. "W1", "B3"
	Team    Team
	Message string
}

// ThoughtLog is a ring buffer of behaviour changes shown by the viewers.
type ThoughtLog struct {
	entries []ThoughtEntry
	head    int
	count   int
}

// NewThoughtLog creates a thought log with a fixed capacity.
func NewThoughtLog() *ThoughtLog {
	return &ThoughtLog{
		entries: make([]ThoughtEntry, logMaxEntries),
	}
}

// Add appends an entry, overwriting the oldest once full.
func (tl *ThoughtLog) Add(tick int, label string, team Team, msg string) {
	tl.entries[tl.head] = ThoughtEntry{
		Tick:    tick,
		Label:   label,
		Team:    team,
		Message: msg,
	}
	tl.head = (tl.head + 1) % logMaxEntries
	if tl.count < logMaxEntries {
		tl.count++
	}
}

// Len returns the number of stored entries.
func (tl *ThoughtLog) Len() int { return tl.count }

// Recent returns entries in chronological order (oldest first).
func (tl *ThoughtLog) Recent() []ThoughtEntry {
	result := make([]ThoughtEntry, tl.count)
	for i := 0; i < tl.count; i++ {
		idx := (tl.head - tl.count + i + logMaxEntries) % logMaxEntries
		result[i] = tl.entries[idx]
	}
	return result
}

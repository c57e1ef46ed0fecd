package game

import (
	"strings"
	"testing"
)

func TestSimLog_FilterAndLastOf(t *testing.T) {
	sl := NewSimLog(false)
	sl.Add(1, "W1", "white", "pass", "begin", "to W2 (3.0m)", 3)
	sl.Add(5, "W2", "white", "pass", "arrive", "pass #1 caught", 1)
	sl.Add(9, "W3", "white", "pass", "begin", "to W3 (4.0m)", 4)
	sl.AddVerbose(9, "W3", "white", "move", "position", "(0,0)", 0)

	if n := sl.CountCategory("pass", "begin"); n != 2 {
		t.Fatalf("expected 2 begins, got %d", n)
	}
	if sl.Len() != 3 {
		t.Fatalf("verbose entries should be dropped, got %d entries", sl.Len())
	}
	last, ok := sl.LastOf("pass", "begin")
	if !ok || last.Tick != 9 {
		t.Fatalf("expected last begin at tick 9, got %+v", last)
	}
	if got := sl.FilterAgent("W2"); len(got) != 1 || got[0].Key != "arrive" {
		t.Fatalf("expected W2's arrival, got %+v", got)
	}
	if got := sl.FilterTickRange(2, 9); len(got) != 2 {
		t.Fatalf("expected 2 entries in ticks 2..9, got %d", len(got))
	}
	if !sl.HasEntry("pass", "", "#1") || sl.HasEntry("cut", "", "") {
		t.Fatal("HasEntry mismatch")
	}
	if !strings.Contains(sl.Format(), "arrive") {
		t.Fatalf("format missing arrival:\n%s", sl.Format())
	}
}

func TestSimLog_DropOldest(t *testing.T) {
	sl := NewSimLog(false)
	for i, _end := 0, 5; i < _end; i++ {
		sl.Add(i, "W1", "white", "pass", "begin", "", 0)
	}
	sl.Drop(0)
	sl.Drop(3)
	if sl.Len() != 2 || sl.Entries()[0].Tick != 3 {
		t.Fatalf("expected ticks 3..4 to remain, got %+v", sl.Entries())
	}
	sl.Drop(10)
	if sl.Len() != 0 {
		t.Fatalf("dropping past the end should empty the log, got %d", sl.Len())
	}
}

func TestSimLog_VerboseRecordsEverything(t *testing.T) {
	sl := NewSimLog(true)
	sl.AddVerbose(1, "B1", "black", "move", "position", "(1,1)", 2)
	if !sl.Verbose() || sl.Len() != 1 {
		t.Fatalf("verbose log should keep the entry, got %d", sl.Len())
	}
}

func TestThoughtLog_RingBuffer(t *testing.T) {
	tl := NewThoughtLog()
	for i, _end := 0, logMaxEntries+5; i < _end; i++ {
		tl.Add(i, "W1", TeamWhite, "sprint")
	}
	if tl.Len() != logMaxEntries {
		t.Fatalf("expected %d entries, got %d", logMaxEntries, tl.Len())
	}
	recent := tl.Recent()
	if recent[0].Tick != 5 || recent[len(recent)-1].Tick != logMaxEntries+4 {
		t.Fatalf("expected ticks 5..%d oldest first, got %d..%d",
			logMaxEntries+4, recent[0].Tick, recent[len(recent)-1].Tick)
	}
}

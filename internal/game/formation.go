package game

import (
	"fmt"
	"math"
	"strings"
)

// FormationType identifies the starting shape of a team.
type FormationType int

const (
	FormationLine    FormationType = iota // side-by-side across the heading
	FormationWedge                        // V-shape, first member at the point
	FormationColumn                       // single file
	FormationEchelon                      // diagonal to one flank
)

var formationNames = [...]string{"line", "wedge", "column", "echelon"}

func (ft FormationType) String() string {
	if ft < 0 || int(ft) >= len(formationNames) {
		return "unknown"
	}
	return formationNames[ft]
}

// UnmarshalText accepts the formation name.
func (ft *FormationType) UnmarshalText(b []byte) error {
	for i, n := range formationNames {
		if strings.EqualFold(string(b), n) {
			*ft = FormationType(i)
			return nil
		}
	}
	return fmt.Errorf("formation %q: %w", b, ErrInvalidValue)
}

// MarshalText writes the formation name.
func (ft FormationType) MarshalText() ([]byte, error) { return []byte(ft.String()), nil }

// slotSpacing is the gap in metres between adjacent slots. It sits inside
// the team spacing band so the formation force is quiet at kickoff.
const slotSpacing = 2.0

// formationOffsets returns the local (forward, right) offsets for each slot
// in a formation of count members (slot 0 is the anchor).
func formationOffsets(ft FormationType, count int) [][2]float64 {
	offsets := make([][2]float64, count)
	if count == 0 {
		return offsets
	}
	for i := 1; i < count; i++ {
		rank := float64((i + 1) / 2)
		side := rank * slotSpacing
		if i%2 == 1 {
			side = -side
		}
		switch ft {
		case FormationLine:
			offsets[i] = [2]float64{0, side}
		case FormationWedge:
			offsets[i] = [2]float64{-rank * slotSpacing, side}
		case FormationColumn:
			offsets[i] = [2]float64{-float64(i) * slotSpacing, 0}
		case FormationEchelon:
			offsets[i] = [2]float64{-float64(i) * slotSpacing * 0.7, float64(i) * slotSpacing * 0.7}
		}
	}
	return offsets
}

// SlotWorld converts a local (forward, right) offset into a court position
// given the anchor position and heading.
func SlotWorld(anchor Vec2, heading, fwd, right float64) Vec2 {
	f := V2(math.Cos(heading), math.Sin(heading))
	r := f.Perp()
	return anchor.Add(f.Scale(fwd)).Add(r.Scale(right))
}

// TeamSetup places one team at kickoff.
type TeamSetup struct {
	Team      Team          `yaml:"team"`
	Count     int           `yaml:"count"`
	Anchor    Vec2          `yaml:"anchor"`
	Heading   float64       `yaml:"heading"` // radians
	Formation FormationType `yaml:"formation"`
}

// Slots returns every member's kickoff position, anchor first.
func (ts TeamSetup) Slots() []Vec2 {
	out := make([]Vec2, 0, ts.Count)
	for _, o := range formationOffsets(ts.Formation, ts.Count) {
		out = append(out, SlotWorld(ts.Anchor, ts.Heading, o[0], o[1]))
	}
	return out
}

// StandardTeams is the three-a-side kickoff: White in the near half facing
// up court, Black in the far half facing down.
func StandardTeams() []TeamSetup {
	return []TeamSetup{
		{Team: TeamWhite, Count: 3, Anchor: V2(0, -4), Heading: math.Pi / 2, Formation: FormationWedge},
		{Team: TeamBlack, Count: 3, Anchor: V2(0, 4), Heading: -math.Pi / 2, Formation: FormationWedge},
	}
}

// Package tui draws the court in a terminal and drives it from the keyboard.
package tui

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/Garsondee/Court-Sense/internal/game"
)

// statusRows are reserved below the court for the HUD.
const statusRows = 2

var (
	styleFloor  = tcell.StyleDefault.Foreground(tcell.ColorDarkGray)
	styleWall   = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleWhite  = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	styleBlack  = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleBall   = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleWalker = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleStatus = tcell.StyleDefault.Foreground(tcell.ColorSilver)
)

// View renders a Sim to a tcell screen.
type View struct {
	screen tcell.Screen
	sim    *game.Sim
	bell   Bell
	log    *zap.Logger

	inFlight []bool // per ball, moving after the last tick
	hideHUD  bool
	quitting bool
}

// New attaches sim to screen. bell may be nil.
func New(screen tcell.Screen, sim *game.Sim, bell Bell, log *zap.Logger) *View {
	if log == nil {
		log = zap.NewNop()
	}
	v := &View{screen: screen, sim: sim, bell: bell, log: log, inFlight: make([]bool, len(sim.Balls))}
	for i, b := range sim.Balls {
		v.inFlight[i] = b.IsMoving()
	}
	return v
}

// Run steps the simulation at its tick rate and redraws until the user quits.
func (v *View) Run() {
	ticker := time.NewTicker(time.Second / time.Duration(v.sim.TickRate()))
	defer ticker.Stop()

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			events <- ev
		}
	}()

	for {
		select {
		case ev, ok := <-events:
			if !ok || !v.HandleEvent(ev) {
				return
			}
		case <-ticker.C:
			v.Tick()
			v.Draw()
		}
	}
}

// Tick advances one simulation tick and rings the bell for each ball that
// lands on its receiver.
func (v *View) Tick() {
	v.sim.Step()
	for i, b := range v.sim.Balls {
		landed := v.inFlight[i] && b.State() == game.PassHolding
		v.inFlight[i] = b.IsMoving()
		if landed && v.bell != nil {
			v.bell.Ring()
		}
	}
}

// HandleEvent reacts to input. It returns false once the user quits.
func (v *View) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return v.handleKey(ev.Key(), ev.Rune())
	case *tcell.EventResize:
		v.screen.Sync()
	}
	return true
}

func (v *View) handleKey(k tcell.Key, r rune) bool {
	switch k {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyEnter:
		v.sim.Resume()
		v.log.Info("resume key", zap.Bool("paused", v.sim.Paused()), zap.Int("tick", v.sim.CurrentTick()))
		return true
	case tcell.KeyRune:
	default:
		return true
	}
	switch {
	case r == 'q':
		return false
	case r >= '1' && r <= '5':
		v.sim.SetBallSpeedPreset(game.BallSpeedPreset(r - '1'))
	case r == '+' || r == '=':
		v.sim.AdjustBallTargetSpeed(0.5)
	case r == '-':
		v.sim.AdjustBallTargetSpeed(-0.5)
	case r == 'n':
		v.sim.PassNow()
	case r == 'r':
		v.sim.ResetPassCounts()
	case r == 'h':
		v.hideHUD = !v.hideHUD
	}
	return true
}

// courtCell maps a court point to a screen cell. The far baseline is at
// the top.
func (v *View) courtCell(p game.Vec2) (int, int) {
	w, h := v.screen.Size()
	h -= statusRows
	f := v.sim.Court.Extent()
	col := int((p.X() - f.MinX) / f.Width() * float64(w-1))
	row := int((f.MaxY - p.Y()) / f.Height() * float64(h-1))
	return col, row
}

// Draw paints the floor, walls, agents, balls and walkers.
func (v *View) Draw() {
	s := v.screen
	s.Clear()
	w, h := s.Size()
	if w < 10 || h < statusRows+5 {
		s.Show()
		return
	}

	for y := 0; y < h-statusRows; y++ {
		for x := 0; x < w; x++ {
			s.SetContent(x, y, '·', nil, styleFloor)
		}
	}
	for _, wall := range v.sim.Court.Walls {
		x0, y1 := v.courtCell(game.V2(wall.Box.MinX, wall.Box.MinY))
		x1, y0 := v.courtCell(game.V2(wall.Box.MaxX, wall.Box.MaxY))
		for y := y0; y <= y1; y++ {
			for x := x0; x <= x1; x++ {
				s.SetContent(x, y, '█', nil, styleWall)
			}
		}
	}

	for _, wk := range v.sim.Walkers {
		if wk.Phase() == game.WalkerInactive {
			continue
		}
		x, y := v.courtCell(wk.Pos())
		s.SetContent(x, y, 'H', nil, styleWalker)
	}
	for _, a := range v.sim.Agents {
		x, y := v.courtCell(a.Pos())
		st := styleWhite
		if a.Team() == game.TeamBlack {
			st = styleBlack
		}
		if a.IsSprinting() {
			st = st.Underline(true)
		}
		name := []rune(a.Name())
		s.SetContent(x, y, name[len(name)-1], nil, st)
	}
	for _, b := range v.sim.Balls {
		p := b.Position()
		x, y := v.courtCell(p.Ground())
		r := 'o'
		if b.IsMoving() {
			r = '*'
		}
		st := styleBall
		if b.Team() == game.TeamBlack {
			st = st.Foreground(tcell.ColorOrange)
		}
		s.SetContent(x, y, r, nil, st)
	}

	if !v.hideHUD {
		v.drawStatus(h - statusRows)
	}
	s.Show()
}

func (v *View) drawStatus(row int) {
	state := "playing"
	if v.sim.Paused() {
		state = "paused (Enter to start)"
	}
	line := fmt.Sprintf("t=%6.1fs  %s", v.sim.Now(), state)
	v.drawText(0, row, line)

	line = ""
	for _, b := range v.sim.Balls {
		holder := "-"
		if a := b.Holder(); a != nil {
			holder = a.Name()
		}
		line += fmt.Sprintf("%s: %d passes %s %.1fm/s on %s   ",
			b.Team(), b.TotalPasses(), b.Preset(), b.TargetSpeed(), holder)
	}
	v.drawText(0, row+1, line)
}

func (v *View) drawText(x, y int, text string) {
	w, _ := v.screen.Size()
	for _, r := range text {
		if x >= w {
			return
		}
		v.screen.SetContent(x, y, r, nil, styleStatus)
		x++
	}
}

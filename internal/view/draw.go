package view

import (
	"fmt"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/colornames"

	"github.com/Garsondee/Court-Sense/internal/game"
)

const (
	centreCircleRadius = 1.8
	// ballLift is the screen offset in pixels per metre of ball height.
	ballLift = 6
)

var (
	colBackground = color.RGBA{R: 12, G: 12, B: 14, A: 255}
	colFloor      = colornames.Burlywood
	colPlayable   = colornames.Darkgoldenrod
	colLines      = colornames.Ivory
	colWall       = colornames.Dimgray
	colWhiteTeam  = colornames.White
	colBlackTeam  = colornames.Black
	colSprint     = colornames.Orange
	colCut        = colornames.Crimson
	colWalker     = colornames.Limegreen
	colShadow     = color.RGBA{R: 40, G: 30, B: 20, A: 110}
	colTarget     = colornames.Gold
)

// toScreen maps a court point to window pixels. The far baseline is at the
// top of the window.
func (g *Game) toScreen(p game.Vec2) (float32, float32) {
	ext := g.sim.Court.Extent()
	x := borderWidth + (p.X()-ext.MinX)*pixelsPerMeter
	y := borderWidth + (ext.MaxY-p.Y())*pixelsPerMeter
	return float32(x), float32(y)
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(colBackground)
	g.drawCourt(screen)
	for _, w := range g.sim.Walkers {
		g.drawWalker(screen, w)
	}
	for _, a := range g.sim.Agents {
		g.drawAgent(screen, a)
	}
	for _, b := range g.sim.Balls {
		g.drawBall(screen, b)
	}
	g.drawThoughts(screen, g.width-logPanelWidth, g.height)
	if g.showHUD {
		g.drawHUD(screen)
	}
}

func (g *Game) drawCourt(screen *ebiten.Image) {
	c := g.sim.Court
	fx, fy := g.toScreen(game.V2(c.Floor.MinX, c.Floor.MaxY))
	vector.FillRect(screen, fx, fy,
		float32(c.Floor.Width()*pixelsPerMeter), float32(c.Floor.Height()*pixelsPerMeter), colFloor, false)

	pl := c.Playable()
	px, py := g.toScreen(game.V2(pl.MinX, pl.MaxY))
	vector.StrokeRect(screen, px, py,
		float32(pl.Width()*pixelsPerMeter), float32(pl.Height()*pixelsPerMeter), 1, colPlayable, false)

	lx0, ly := g.toScreen(game.V2(c.Floor.MinX, 0))
	lx1, _ := g.toScreen(game.V2(c.Floor.MaxX, 0))
	vector.StrokeLine(screen, lx0, ly, lx1, ly, 2, colLines, true)
	cx, cy := g.toScreen(game.V2(0, 0))
	vector.StrokeCircle(screen, cx, cy, centreCircleRadius*pixelsPerMeter, 2, colLines, true)

	for _, w := range c.Walls {
		wx, wy := g.toScreen(game.V2(w.Box.MinX, w.Box.MaxY))
		vector.FillRect(screen, wx, wy,
			float32(w.Box.Width()*pixelsPerMeter), float32(w.Box.Height()*pixelsPerMeter), colWall, false)
	}
}

func (g *Game) drawWalker(screen *ebiten.Image, w *game.Walker) {
	if w.Phase() == game.WalkerInactive {
		return
	}
	x, y := g.toScreen(w.Pos())
	r := float32(0.3 * pixelsPerMeter)
	if w.Phase() == game.WalkerJumping {
		r *= 1.3
	}
	vector.FillCircle(screen, x, y, r, colWalker, true)
	ebitenutil.DebugPrintAt(screen, w.Name(), int(x)+int(r)+2, int(y)-8)
}

func (g *Game) drawAgent(screen *ebiten.Image, a *game.Agent) {
	x, y := g.toScreen(a.Pos())
	r := float32(a.Params().Radius * a.Scale() * pixelsPerMeter)
	body := colWhiteTeam
	if a.Team() == game.TeamBlack {
		body = colBlackTeam
	}
	vector.FillCircle(screen, x, y, r, body, true)
	switch {
	case a.Cutting():
		vector.StrokeCircle(screen, x, y, r+2, 2, colCut, true)
	case a.IsSprinting():
		vector.StrokeCircle(screen, x, y, r+2, 2, colSprint, true)
	}

	h := a.Heading()
	hx := x + float32(math.Cos(h))*r*1.6
	hy := y - float32(math.Sin(h))*r*1.6
	vector.StrokeLine(screen, x, y, hx, hy, 2, colornames.Gray, true)
	ebitenutil.DebugPrintAt(screen, a.Name(), int(x)+int(r)+2, int(y)-8)
}

func (g *Game) drawBall(screen *ebiten.Image, b *game.PassController) {
	p := b.Position()
	gx, gy := g.toScreen(p.Ground())
	vector.FillCircle(screen, gx, gy, 5, colShadow, true)

	col := colornames.Orange
	if b.Team() == game.TeamBlack {
		col = colornames.Sienna
	}
	vector.FillCircle(screen, gx, gy-float32(p.Z()*ballLift), 6, col, true)

	if b.IsMoving() {
		tx, ty := g.toScreen(b.CurrentTarget().Ground())
		vector.StrokeCircle(screen, tx, ty, 8, 1, colTarget, true)
	}
}

func (g *Game) drawHUD(screen *ebiten.Image) {
	speedStr := "1x"
	switch {
	case g.simSpeed == 0:
		speedStr = "PAUSED"
	case g.simSpeed != 1:
		speedStr = fmt.Sprintf("%gx", g.simSpeed)
	}
	play := "playing"
	if g.sim.Paused() {
		play = "agents paused  [Enter] go"
	}

	lines := []string{
		fmt.Sprintf("t=%.1fs  %s", g.sim.Now(), play),
		fmt.Sprintf("SIM: %s  P=pause  ,/. speed", speedStr),
	}
	for _, b := range g.sim.Balls {
		holder := "-"
		if a := b.Holder(); a != nil {
			holder = a.Name()
		}
		lines = append(lines, fmt.Sprintf("%s ball: %s  %s %.1f m/s (now %.1f)  passes %d/%d",
			b.Team(), b.State(), b.Preset(), b.TargetSpeed(), b.MeasuredSpeed(), b.SessionPasses(), b.TotalPasses()))
		lines = append(lines, fmt.Sprintf("  holder %s", holder))
	}
	lines = append(lines,
		"[1-5] ball preset  +/- fine  PgUp/PgDn coarse",
		"[N] pass now  [R] reset passes  [C] copy report  [H] hide HUD",
	)
	if g.statusLeft > 0 {
		lines = append(lines, "> "+g.status)
	}

	const lineH = 16
	const charW = 6
	const padX = 5
	const padY = 4
	maxLen := 0
	for _, l := range lines {
		maxLen = max(maxLen, len(l))
	}
	boxW := float32(maxLen*charW + padX*2)
	boxH := float32(len(lines)*lineH + padY*2)
	bx := float32(borderWidth + 4)
	by := float32(g.height-borderWidth-4) - boxH

	vector.FillRect(screen, bx, by, boxW, boxH, color.RGBA{R: 6, G: 10, B: 6, A: 210}, false)
	vector.StrokeRect(screen, bx, by, boxW, boxH, 1.0, color.RGBA{R: 60, G: 100, B: 60, A: 180}, false)
	for i, line := range lines {
		ebitenutil.DebugPrintAt(screen, line, int(bx)+padX, int(by)+padY+i*lineH)
	}
}

// drawThoughts renders the thought log panel on the right of the window,
// newest entries at the bottom.
func (g *Game) drawThoughts(screen *ebiten.Image, panelX, panelH int) {
	vector.FillRect(screen, float32(panelX), 0, float32(logPanelWidth), float32(panelH), color.RGBA{R: 10, G: 12, B: 10, A: 248}, false)
	vector.StrokeLine(screen, float32(panelX), 0, float32(panelX), float32(panelH), 1.0, color.RGBA{R: 50, G: 70, B: 50, A: 255}, false)
	vector.FillRect(screen, float32(panelX), 0, float32(logPanelWidth), 16, color.RGBA{R: 20, G: 30, B: 20, A: 255}, false)
	ebitenutil.DebugPrintAt(screen, "THOUGHT LOG", panelX+8, 2)

	entries := g.thoughts.Recent()
	maxVisible := (panelH - 24) / logLineHeight
	if len(entries) > maxVisible {
		entries = entries[len(entries)-maxVisible:]
	}
	const recent = 3
	y := 20
	for i, e := range entries {
		if i >= len(entries)-recent {
			vector.FillRect(screen, float32(panelX+2), float32(y), float32(logPanelWidth-4), float32(logLineHeight), color.RGBA{R: 30, G: 40, B: 30, A: 160}, false)
		}
		dot := colornames.Whitesmoke
		if e.Team == game.TeamBlack {
			dot = colornames.Dimgray
		}
		vector.FillRect(screen, float32(panelX+5), float32(y+3), 3, 5, dot, false)
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%4d [%s] %s", e.Tick, e.Label, e.Message), panelX+12, y)
		y += logLineHeight
	}
}

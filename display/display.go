// Package display draws the play field, status bar and dialogs onto a
// character-cell Screen.
package display

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/wfunc/killzone/render"
)

// Style is the role of a cell; screens map it to colours.
type Style int

const (
	StyleDefault Style = iota
	StyleFloor
	StyleWall
	StyleMob
	StyleHunter
	StylePlayer
	StyleLocal
	StyleStatus
	StyleMessage
	StyleTitle
	StyleAlert
)

// Screen is the character-cell device.
type Screen interface {
	Clear()
	SetCell(x, y int, r rune, style Style)
	Show()
}

const helpText = "WASD=Move R=Refresh Q=Quit"

// Status is one status-bar reading.
type Status struct {
	Name          string
	Players       int
	Connected     bool
	Ticks         uint32
	ClientVersion string
	ServerVersion string
}

// Display 负责屏幕布局：游戏区在上，状态栏占最后几行
type Display struct {
	screen     Screen
	width      int
	height     int
	statusRows int
}

func New(screen Screen, width, height, statusRows int) *Display {
	return &Display{
		screen:     screen,
		width:      width,
		height:     height,
		statusRows: statusRows,
	}
}

func layerStyle(l render.Layer) Style {
	switch l {
	case render.LayerWall:
		return StyleWall
	case render.LayerMob:
		return StyleMob
	case render.LayerHunter:
		return StyleHunter
	case render.LayerPlayer:
		return StylePlayer
	case render.LayerLocal:
		return StyleLocal
	}
	return StyleFloor
}

// Apply executes draw ops, clipped to the play field.
func (d *Display) Apply(ops []render.Op) {
	for _, op := range ops {
		style := layerStyle(op.Layer)
		switch op.Kind {
		case render.OpFill:
			for y := op.Y; y < op.Y+op.Height && y < d.height; y++ {
				for x := op.X; x < op.X+op.Width && x < d.width; x++ {
					d.screen.SetCell(x, y, op.Glyph, style)
				}
			}
		case render.OpPut:
			if op.X < d.width && op.Y < d.height {
				d.screen.SetCell(op.X, op.Y, op.Glyph, style)
			}
		}
	}
}

// text writes s at (x, y), clipped to the screen width. It returns the
// column after the last cell written.
func (d *Display) text(x, y int, s string, style Style) int {
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if x+w > d.width {
			break
		}
		d.screen.SetCell(x, y, r, style)
		for i := 1; i < w; i++ {
			d.screen.SetCell(x+i, y, ' ', style)
		}
		x += w
	}
	return x
}

func (d *Display) clearLine(y int) {
	for x := 0; x < d.width; x++ {
		d.screen.SetCell(x, y, ' ', StyleDefault)
	}
}

// StatusBar redraws the fixed rows below the play field.
func (d *Display) StatusBar(s Status) {
	if d.statusRows < 4 {
		return
	}
	row := d.height

	conn := "DISCONNECTED"
	if s.Connected {
		conn = "CONNECTED"
	}
	d.clearLine(row)
	d.text(0, row, fmt.Sprintf("%s P:%d %s", s.Name, s.Players, conn), StyleStatus)
	ticks := fmt.Sprintf("T:%d", s.Ticks)
	tickCol := min(30, d.width-runewidth.StringWidth(ticks))
	d.text(max(tickCol, 0), row, ticks, StyleStatus)

	d.text(0, row+2, strings.Repeat("-", d.width), StyleStatus)

	d.clearLine(row + 3)
	d.text(0, row+3, helpText, StyleStatus)
	ver := fmt.Sprintf("C%s|S%s", s.ClientVersion, s.ServerVersion)
	d.text(max(d.width-runewidth.StringWidth(ver), 0), row+3, ver, StyleStatus)
}

// Message replaces the transient message line.
func (d *Display) Message(msg string) {
	if d.statusRows < 2 {
		return
	}
	row := d.height + 1
	d.clearLine(row)
	d.text(0, row, runewidth.Truncate(msg, d.width, ""), StyleMessage)
}

func (d *Display) Clear() {
	d.screen.Clear()
}

func (d *Display) Flush() {
	d.screen.Show()
}

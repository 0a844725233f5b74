package display

import (
	"strings"
	"testing"

	"github.com/wfunc/killzone/render"
)

// MockScreen records cells in a map.
type MockScreen struct {
	cells   map[[2]int]rune
	styles  map[[2]int]Style
	shows   int
	clears  int
	cellOps int
}

func NewMockScreen() *MockScreen {
	return &MockScreen{cells: map[[2]int]rune{}, styles: map[[2]int]Style{}}
}

func (m *MockScreen) Clear() {
	m.clears++
	m.cells = map[[2]int]rune{}
	m.styles = map[[2]int]Style{}
}

func (m *MockScreen) SetCell(x, y int, r rune, style Style) {
	m.cellOps++
	m.cells[[2]int{x, y}] = r
	m.styles[[2]int{x, y}] = style
}

func (m *MockScreen) Show() { m.shows++ }

func (m *MockScreen) Row(y, width int) string {
	var b strings.Builder
	for x := 0; x < width; x++ {
		r, ok := m.cells[[2]int{x, y}]
		if !ok {
			r = ' '
		}
		b.WriteRune(r)
	}
	return strings.TrimRight(b.String(), " ")
}

func TestDisplay_Apply(t *testing.T) {
	screen := NewMockScreen()
	d := New(screen, 40, 20, 4)

	d.Apply([]render.Op{
		{Kind: render.OpFill, Width: 40, Height: 20, Glyph: '.', Layer: render.LayerFloor},
		{Kind: render.OpPut, X: 5, Y: 5, Glyph: '@', Layer: render.LayerLocal},
		{Kind: render.OpPut, X: 45, Y: 5, Glyph: '*', Layer: render.LayerMob},
	})

	if screen.cellOps != 40*20+1 {
		t.Fatalf("Expected %d cell writes, got %d", 40*20+1, screen.cellOps)
	}
	if screen.cells[[2]int{5, 5}] != '@' || screen.styles[[2]int{5, 5}] != StyleLocal {
		t.Fatal("local player cell not drawn")
	}
	if _, ok := screen.cells[[2]int{0, 20}]; ok {
		t.Fatal("fill must not reach the status rows")
	}
}

func TestDisplay_StatusBar(t *testing.T) {
	screen := NewMockScreen()
	d := New(screen, 40, 20, 4)

	d.StatusBar(Status{Name: "alice", Players: 3, Connected: true, Ticks: 1234, ClientVersion: "1.2.0", ServerVersion: "1.1.0"})

	row := screen.Row(20, 40)
	if !strings.HasPrefix(row, "alice P:3 CONNECTED") {
		t.Errorf("status row = %q", row)
	}
	if !strings.HasSuffix(row, "T:1234") || strings.Index(row, "T:1234") != 30 {
		t.Errorf("ticks should start at column 30: %q", row)
	}
	if screen.Row(22, 40) != strings.Repeat("-", 40) {
		t.Errorf("separator = %q", screen.Row(22, 40))
	}
	help := screen.Row(23, 40)
	if !strings.HasPrefix(help, helpText) || !strings.HasSuffix(help, "C1.2.0|S1.1.0") || len(help) != 40 {
		t.Errorf("help row = %q", help)
	}

	d.StatusBar(Status{Name: "alice", Players: 1})
	if row := screen.Row(20, 40); !strings.Contains(row, "DISCONNECTED") || strings.Contains(row, "T:1234") {
		t.Errorf("status row not refreshed: %q", row)
	}
}

func TestDisplay_Message(t *testing.T) {
	screen := NewMockScreen()
	d := New(screen, 40, 20, 4)

	d.Message("a much longer combat message that overflows the line")
	if got := screen.Row(21, 40); len([]rune(got)) > 40 {
		t.Fatalf("message must fit the line, got %q", got)
	}
	d.Message("short")
	if got := screen.Row(21, 40); got != "short" {
		t.Fatalf("message line = %q", got)
	}
}

func TestDisplay_Dialogs(t *testing.T) {
	screen := NewMockScreen()
	d := New(screen, 40, 20, 4)

	d.Death(true)
	if got := screen.Row(8, 40); got != "  *** YOU WERE KILLED! ***" {
		t.Errorf("death title = %q", got)
	}
	d.Death(false)
	if got := screen.Row(8, 40); got != "  YOU DIED!" {
		t.Errorf("eliminated title = %q", got)
	}
	d.Error("Server not responding")
	if got := screen.Row(10, 40); got != "ERROR: Server not responding" {
		t.Errorf("error line = %q", got)
	}
	if screen.clears != 3 || screen.shows != 3 {
		t.Errorf("each dialog should clear and show, got %d/%d", screen.clears, screen.shows)
	}

	d.NamePrompt()
	d.Echo("bob")
	if got := screen.Row(7, 40); got != "bob_" {
		t.Errorf("echo = %q", got)
	}
}

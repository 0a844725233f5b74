// Package terminal runs the display and keyboard on a tcell screen.
package terminal

import (
	"context"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/wfunc/killzone/display"
	"github.com/wfunc/killzone/input"
)

var styles = map[display.Style]tcell.Style{
	display.StyleDefault: tcell.StyleDefault,
	display.StyleFloor:   tcell.StyleDefault.Foreground(tcell.ColorGray),
	display.StyleWall:    tcell.StyleDefault.Foreground(tcell.ColorSilver),
	display.StyleMob:     tcell.StyleDefault.Foreground(tcell.ColorGreen),
	display.StyleHunter:  tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true),
	display.StylePlayer:  tcell.StyleDefault.Foreground(tcell.ColorAqua),
	display.StyleLocal:   tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true),
	display.StyleStatus:  tcell.StyleDefault.Foreground(tcell.ColorWhite),
	display.StyleMessage: tcell.StyleDefault.Foreground(tcell.ColorLightYellow),
	display.StyleTitle:   tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true),
	display.StyleAlert:   tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true),
}

// Terminal implements display.Screen and input.Source. A goroutine pumps
// tcell events into a buffered channel so that Poll never blocks.
type Terminal struct {
	screen      tcell.Screen
	events      chan *tcell.EventKey
	onInterrupt func()
	closeOnce   sync.Once
}

// New initializes the process terminal. onInterrupt runs on Ctrl-C or
// Escape.
func New(onInterrupt func()) (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	return NewWithScreen(screen, onInterrupt), nil
}

// NewWithScreen wraps an initialized screen.
func NewWithScreen(screen tcell.Screen, onInterrupt func()) *Terminal {
	screen.HideCursor()
	t := &Terminal{
		screen:      screen,
		events:      make(chan *tcell.EventKey, 32),
		onInterrupt: onInterrupt,
	}
	go t.pump()
	return t
}

func (t *Terminal) pump() {
	defer close(t.events)
	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			return
		}
		switch ev := ev.(type) {
		case *tcell.EventResize:
			t.screen.Sync()
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyCtrlC || ev.Key() == tcell.KeyEscape {
				if t.onInterrupt != nil {
					t.onInterrupt()
				}
				continue
			}
			select {
			case t.events <- ev:
			default:
				// keys typed faster than the loop consumes them are dropped
			}
		}
	}
}

func (t *Terminal) Close() {
	t.closeOnce.Do(t.screen.Fini)
}

func (t *Terminal) Clear() {
	t.screen.Clear()
}

func (t *Terminal) SetCell(x, y int, r rune, style display.Style) {
	t.screen.SetContent(x, y, r, nil, styles[style])
}

func (t *Terminal) Show() {
	t.screen.Show()
}

func mapKey(ev *tcell.EventKey) input.Command {
	switch ev.Key() {
	case tcell.KeyUp:
		return input.CmdUp
	case tcell.KeyDown:
		return input.CmdDown
	case tcell.KeyLeft:
		return input.CmdLeft
	case tcell.KeyRight:
		return input.CmdRight
	case tcell.KeyRune:
		return input.MapRune(ev.Rune())
	}
	return input.CmdNone
}

func (t *Terminal) Poll() input.Command {
	select {
	case ev, ok := <-t.events:
		if !ok {
			return input.CmdNone
		}
		return mapKey(ev)
	default:
		return input.CmdNone
	}
}

func (t *Terminal) WaitKey(ctx context.Context) (input.Command, error) {
	select {
	case <-ctx.Done():
		return input.CmdNone, ctx.Err()
	case ev, ok := <-t.events:
		if !ok {
			return input.CmdNone, input.ErrClosed
		}
		return mapKey(ev), nil
	}
}

func (t *Terminal) ReadLine(ctx context.Context, max int, echo func(string)) (string, error) {
	var buf []rune
	if echo != nil {
		echo("")
	}
	for {
		var ev *tcell.EventKey
		var ok bool
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case ev, ok = <-t.events:
			if !ok {
				return "", input.ErrClosed
			}
		}

		switch ev.Key() {
		case tcell.KeyEnter:
			return string(buf), nil
		case tcell.KeyBackspace, tcell.KeyBackspace2:
			if len(buf) > 0 {
				buf = buf[:len(buf)-1]
			}
		case tcell.KeyRune:
			if len(string(buf))+len(string(ev.Rune())) <= max {
				buf = append(buf, ev.Rune())
			}
		default:
			continue
		}
		if echo != nil {
			echo(string(buf))
		}
	}
}

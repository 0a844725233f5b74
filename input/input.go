// Package input maps keys to game commands.
package input

import (
	"context"
	"errors"

	"github.com/wfunc/killzone/models"
)

// ErrClosed is returned by blocking reads once the source is shut down.
var ErrClosed = errors.New("input closed")

type Command int

const (
	CmdNone Command = iota
	CmdUp
	CmdDown
	CmdLeft
	CmdRight
	CmdRefresh
	CmdQuit
	CmdYes
	CmdNo
)

func (c Command) String() string {
	switch c {
	case CmdUp:
		return "up"
	case CmdDown:
		return "down"
	case CmdLeft:
		return "left"
	case CmdRight:
		return "right"
	case CmdRefresh:
		return "refresh"
	case CmdQuit:
		return "quit"
	case CmdYes:
		return "yes"
	case CmdNo:
		return "no"
	}
	return "none"
}

// Direction returns the move direction for movement commands.
func (c Command) Direction() (models.Direction, bool) {
	switch c {
	case CmdUp:
		return models.DirUp, true
	case CmdDown:
		return models.DirDown, true
	case CmdLeft:
		return models.DirLeft, true
	case CmdRight:
		return models.DirRight, true
	}
	return "", false
}

// MapRune maps a typed character. 'y' and 'n' are only meaningful at
// confirmation prompts.
func MapRune(r rune) Command {
	switch r {
	case 'w', 'W', 'k', 'K':
		return CmdUp
	case 's', 'S', 'j', 'J':
		return CmdDown
	case 'a', 'A', 'h', 'H':
		return CmdLeft
	case 'd', 'D', 'l', 'L':
		return CmdRight
	case 'r', 'R':
		return CmdRefresh
	case 'q', 'Q':
		return CmdQuit
	case 'y', 'Y':
		return CmdYes
	case 'n', 'N':
		return CmdNo
	}
	return CmdNone
}

// Source delivers keyboard input.
type Source interface {
	// Poll returns the next pending command without blocking, or CmdNone.
	Poll() Command
	// WaitKey blocks until a key arrives.
	WaitKey(ctx context.Context) (Command, error)
	// ReadLine reads a line of at most max bytes, passing the partial text
	// to echo after every edit.
	ReadLine(ctx context.Context, max int, echo func(string)) (string, error)
}

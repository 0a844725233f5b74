// state/interfaces.go
package state

import (
	"github.com/wfunc/killzone/codec"
	"github.com/wfunc/killzone/display"
	"github.com/wfunc/killzone/input"
	"github.com/wfunc/killzone/models"
	"github.com/wfunc/killzone/render"
	"github.com/wfunc/killzone/session"
	"github.com/wfunc/killzone/world"
)

// Settings are the tunables the phase states read.
type Settings struct {
	ConnectAttempts int
	// WorldEvery and StatusEvery are cadences in ticks.
	WorldEvery    int
	StatusEvery   int
	DefaultName   string
	ClientVersion string
	ServerAddress string
}

// GameContext is what the phase states drive. The client implements it,
// which keeps state free of an import on the client package.
type GameContext interface {
	Codec() codec.Codec
	World() *world.Model
	Session() *session.Session
	Display() *display.Display
	Input() input.Source
	Renderer() *render.Reconciler
	Settings() Settings

	ChangeState(next State) error
	// Record journals a session event for the local player.
	Record(kind models.EventKind, detail string)
	// ObserveFrame reports the ops emitted by one render pass.
	ObserveFrame(ops int)
}

package state

import (
	"context"
	"errors"

	"github.com/wfunc/killzone/codec"
	"github.com/wfunc/killzone/display"
	"github.com/wfunc/killzone/input"
	"github.com/wfunc/killzone/logger"
	"github.com/wfunc/killzone/models"
	"github.com/wfunc/killzone/timer"
)

// PlayingState 游戏进行状态：定时拉取世界、渲染、处理输入
type PlayingState struct {
	PhaseStateBase
	scheduler  *timer.Scheduler
	worldTimer int64

	// tick is the context of the update in progress, for timer callbacks.
	tick      context.Context
	left      bool
	statusDue bool
	shownMsg  string
}

func NewPlayingState(game GameContext) *PlayingState {
	return &PlayingState{PhaseStateBase: PhaseStateBase{ID: string(models.PhasePlaying), Game: game}}
}

func (s *PlayingState) OnEnter() {
	cfg := s.Game.Settings()
	s.left = false
	s.statusDue = true
	s.shownMsg = ""
	s.Game.Display().Clear()
	s.Game.Renderer().Invalidate()

	s.scheduler = timer.NewScheduler()
	s.worldTimer = s.scheduler.AddTimer(0, uint64(max(cfg.WorldEvery, 1)), s.fetchWorld)
	every := uint64(max(cfg.StatusEvery, 1))
	s.scheduler.AddTimer(every-1, every, func() { s.statusDue = true })
}

func (s *PlayingState) OnExit() {
	s.left = true
	s.scheduler.Reset()
}

func (s *PlayingState) leave(next State) {
	s.left = true
	change(s.Game, next)
}

func (s *PlayingState) OnUpdate(ctx context.Context) {
	s.tick = ctx
	s.scheduler.Advance()
	if s.left {
		return
	}

	s.draw()

	cmd := s.Game.Input().Poll()
	if dir, ok := cmd.Direction(); ok {
		s.move(ctx, dir)
		return
	}
	switch cmd {
	case input.CmdRefresh:
		s.refresh()
	case input.CmdQuit:
		s.quit(ctx)
	}
}

// refresh repaints everything and pulls the world on the next tick.
func (s *PlayingState) refresh() {
	s.Game.Renderer().RequestFullRedraw()
	s.statusDue = true
	s.scheduler.RemoveTimer(s.worldTimer)
	s.worldTimer = s.scheduler.AddTimer(0, uint64(max(s.Game.Settings().WorldEvery, 1)), s.fetchWorld)
}

func (s *PlayingState) fetchWorld() {
	game := s.Game
	local, ok := game.World().LocalPlayer()
	if !ok {
		return
	}
	snap, err := game.Codec().FetchWorld(s.tick, local.ID)
	if errors.Is(err, codec.ErrNotConnected) {
		s.disconnected(s.tick, "stream lost")
		return
	}
	if err != nil {
		// skip this update, but show it
		if game.Session().Connected() {
			logger.Log.Warnf("world fetch failed: %v", err)
			game.Session().SetConnected(false)
			s.statusDue = true
		}
		return
	}
	if !game.Session().Connected() {
		game.Session().SetConnected(true)
		s.statusDue = true
	}
	game.Session().Touch()

	level := game.World().Level()
	res := game.World().Ingest(snap)
	if next := game.World().Level(); next != level && level != "" {
		logger.Log.Infof("level changed from %q to %q", level, next)
		game.Renderer().RequestFullRedraw()
	}
	if res.SelfMissing {
		logger.Log.Infof("player %s no longer listed by the server", local.ID)
		s.die(false, "eliminated")
	}
}

func (s *PlayingState) draw() {
	game := s.Game
	disp := game.Display()
	dirty := false

	ops := game.Renderer().Render(game.World().View())
	if len(ops) > 0 {
		disp.Apply(ops)
		dirty = true
	}
	game.ObserveFrame(len(ops))

	if s.statusDue {
		s.statusDue = false
		if local, ok := game.World().LocalPlayer(); ok {
			disp.StatusBar(display.Status{
				Name:          local.Name,
				Players:       len(game.World().Others()) + 1,
				Connected:     game.Session().Connected(),
				Ticks:         game.World().Ticks(),
				ClientVersion: game.Settings().ClientVersion,
				ServerVersion: game.World().ServerVersion(),
			})
			dirty = true
		}
	}

	game.World().AgeMessages(1)
	if msg := game.World().CurrentMessage(); msg != s.shownMsg {
		s.shownMsg = msg
		disp.Message(msg)
		dirty = true
	}

	if dirty {
		disp.Flush()
	}
}

func (s *PlayingState) move(ctx context.Context, dir models.Direction) {
	game := s.Game
	local, ok := game.World().LocalPlayer()
	if !ok {
		return
	}

	res, err := game.Codec().Move(ctx, local.ID, dir)
	if errors.Is(err, codec.ErrEntityNotFound) {
		s.disconnected(ctx, "entity not found")
		return
	}
	if err != nil {
		return
	}
	game.World().ApplyMove(res)
	game.Session().Touch()

	if !res.Collision {
		return
	}
	game.World().PushMessages(res.Messages...)
	if res.LoserID != "" && res.LoserID == local.ID {
		s.die(true, "killed in combat")
	}
}

func (s *PlayingState) die(killed bool, detail string) {
	s.Game.Record(models.EventDeath, detail)
	s.leave(NewDeadState(s.Game, killed))
}

// disconnected blocks on the connection-lost dialog until Y or N.
func (s *PlayingState) disconnected(ctx context.Context, reason string) {
	game := s.Game
	game.Session().SetConnected(false)
	game.Record(models.EventDisconnect, reason)
	game.Display().ConnectionLost()

	for {
		cmd, err := game.Input().WaitKey(ctx)
		if err != nil {
			return
		}
		switch cmd {
		case input.CmdYes:
			game.World().ClearLocalPlayer()
			game.Session().SetRejoining(false)
			s.leave(NewInitState(game))
			return
		case input.CmdNo:
			game.Session().SetRejoining(true)
			game.World().ClearOthers()
			s.leave(NewJoiningState(game))
			return
		}
	}
}

// quit asks for confirmation; anything but Y resumes play.
func (s *PlayingState) quit(ctx context.Context) {
	game := s.Game
	game.Display().QuitConfirm()

	cmd, err := game.Input().WaitKey(ctx)
	if err != nil {
		return
	}
	if cmd != input.CmdYes {
		game.Display().Clear()
		game.Renderer().RequestFullRedraw()
		s.statusDue = true
		s.shownMsg = ""
		return
	}

	if local, ok := game.World().LocalPlayer(); ok {
		if !game.Codec().Leave(ctx, local.ID) {
			logger.Log.Warnf("leave for %s was not acknowledged", local.ID)
		}
	}
	game.Record(models.EventQuit, "")
	game.World().ClearLocalPlayer()
	game.Session().SetRejoining(false)
	game.Session().SetConnected(false)
	s.leave(NewInitState(game))
}

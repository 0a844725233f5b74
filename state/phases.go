package state

import (
	"context"
	"errors"

	"github.com/wfunc/killzone/codec"
	"github.com/wfunc/killzone/input"
	"github.com/wfunc/killzone/logger"
	"github.com/wfunc/killzone/models"
)

// RegisterTransitions declares the phase graph on sm.
func RegisterTransitions(sm StateMachine, game GameContext) {
	var (
		initS      = NewInitState(game)
		connecting = NewConnectingState(game)
		joining    = NewJoiningState(game)
		playing    = NewPlayingState(game)
		dead       = NewDeadState(game, true)
		errS       = NewErrorState(game)
	)
	edges := [][2]State{
		{initS, connecting},
		{connecting, joining},
		{connecting, errS},
		{joining, playing},
		{joining, errS},
		{playing, dead},
		{playing, joining},
		{playing, initS},
		{dead, joining},
		{dead, initS},
	}
	for _, e := range edges {
		_ = sm.AddTransition(e[0], e[1], nil)
	}
}

func change(game GameContext, next State) {
	if err := game.ChangeState(next); err != nil {
		logger.Log.Errorf("phase change to %s: %v", next.GetID(), err)
	}
}

// InitState 初始状态，立即进入连接
type InitState struct {
	PhaseStateBase
}

func NewInitState(game GameContext) *InitState {
	return &InitState{PhaseStateBase{ID: string(models.PhaseInit), Game: game}}
}

func (s *InitState) OnUpdate(ctx context.Context) {
	change(s.Game, NewConnectingState(s.Game))
}

// ConnectingState 健康检查，超过次数上限进入错误状态
type ConnectingState struct {
	PhaseStateBase
	attempts int
}

func NewConnectingState(game GameContext) *ConnectingState {
	return &ConnectingState{PhaseStateBase: PhaseStateBase{ID: string(models.PhaseConnecting), Game: game}}
}

func (s *ConnectingState) OnEnter() {
	s.attempts = 0
	cfg := s.Game.Settings()
	s.Game.Display().Welcome(cfg.ClientVersion, cfg.ServerAddress)
}

func (s *ConnectingState) OnUpdate(ctx context.Context) {
	s.attempts++
	if s.Game.Codec().HealthCheck(ctx) {
		logger.Log.Infof("server healthy after %d attempt(s)", s.attempts)
		change(s.Game, NewJoiningState(s.Game))
		return
	}
	if ctx.Err() != nil {
		return
	}
	if s.attempts >= s.Game.Settings().ConnectAttempts {
		s.Game.Session().Fail("Server not responding")
		change(s.Game, NewErrorState(s.Game))
	}
}

// JoiningState 加入世界。重新加入时跳过名字输入。
type JoiningState struct {
	PhaseStateBase
}

func NewJoiningState(game GameContext) *JoiningState {
	return &JoiningState{PhaseStateBase{ID: string(models.PhaseJoining), Game: game}}
}

func (s *JoiningState) OnUpdate(ctx context.Context) {
	game := s.Game
	sess := game.Session()
	disp := game.Display()

	local, has := game.World().LocalPlayer()
	rejoin := sess.Rejoining() && has && local.Name != ""
	// cleared up front so a failed rejoin cannot loop
	sess.SetRejoining(false)

	var name string
	if rejoin {
		name = local.Name
		disp.Rejoining(name)
	} else {
		disp.NamePrompt()
		raw, err := game.Input().ReadLine(ctx, models.MaxNameLen, disp.Echo)
		if err != nil && ctx.Err() != nil {
			return
		}
		name = models.NormalizeName(raw, game.Settings().DefaultName)
		disp.Joining(name)
	}

	res, err := game.Codec().Join(ctx, name)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		msg := "Server rejected join"
		switch {
		case rejoin:
			msg = "Rejoin failed"
		case !errors.Is(err, codec.ErrRejected):
			msg = "Join failed: " + err.Error()
		}
		sess.Fail(msg)
		change(game, NewErrorState(game))
		return
	}

	game.World().ClearOthers()
	game.World().SetLocalPlayer(res.Player)
	game.World().SetServerVersion(res.ServerVersion)
	sess.SetConnected(true)
	sess.Touch()

	kind := models.EventJoin
	if rejoin {
		kind = models.EventRejoin
	}
	game.Record(kind, "")
	logger.Log.Infof("joined as %s (%s) at %d,%d", res.Player.Name, res.Player.ID, res.Player.Position.X, res.Player.Position.Y)

	change(game, NewPlayingState(game))
}

// DeadState 死亡画面，等待 Y/N
type DeadState struct {
	PhaseStateBase
	killed bool
}

// NewDeadState builds the death phase. killed selects the combat variant
// of the screen over the vanished-from-world one.
func NewDeadState(game GameContext, killed bool) *DeadState {
	return &DeadState{PhaseStateBase: PhaseStateBase{ID: string(models.PhaseDead), Game: game}, killed: killed}
}

func (s *DeadState) OnEnter() {
	s.Game.Session().SetConnected(false)
	s.Game.Display().Death(s.killed)
}

func (s *DeadState) OnUpdate(ctx context.Context) {
	switch s.Game.Input().Poll() {
	case input.CmdYes:
		s.Game.Session().SetRejoining(true)
		s.Game.World().ClearOthers()
		change(s.Game, NewJoiningState(s.Game))
	case input.CmdNo:
		s.Game.World().ClearLocalPlayer()
		s.Game.Session().SetRejoining(false)
		change(s.Game, NewInitState(s.Game))
	}
}

// ErrorState shows the stored error. The control loop ends here.
type ErrorState struct {
	PhaseStateBase
}

func NewErrorState(game GameContext) *ErrorState {
	return &ErrorState{PhaseStateBase{ID: string(models.PhaseError), Game: game}}
}

func (s *ErrorState) OnEnter() {
	msg := s.Game.Session().Err()
	logger.Log.Errorf("session error: %s", msg)
	s.Game.Display().Error(msg)
}

// Package client owns the session and runs the control loop.
package client

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/wfunc/killzone/codec"
	"github.com/wfunc/killzone/display"
	"github.com/wfunc/killzone/input"
	"github.com/wfunc/killzone/logger"
	"github.com/wfunc/killzone/models"
	"github.com/wfunc/killzone/persistence"
	"github.com/wfunc/killzone/render"
	"github.com/wfunc/killzone/session"
	"github.com/wfunc/killzone/state"
	"github.com/wfunc/killzone/world"
)

// ErrTickLimit is returned by Run when the iteration ceiling is reached.
var ErrTickLimit = errors.New("tick limit reached")

const journalTimeout = 2 * time.Second

// Metrics receives loop-level observations.
type Metrics interface {
	ObservePhase(phase string)
	ObserveFrame(ops, entities int)
}

type Options struct {
	Settings state.Settings
	Render   render.Options

	// TickInterval paces the loop; 0 runs it flat out.
	TickInterval time.Duration
	// MaxTicks bounds the loop; 0 is unbounded.
	MaxTicks int

	Width, Height, StatusRows int
	MessageTTL                int
}

// Client 客户端：持有会话、世界模型和状态机，实现 state.GameContext
type Client struct {
	codec    codec.Codec
	world    *world.Model
	session  *session.Session
	display  *display.Display
	input    input.Source
	renderer *render.Reconciler
	journal  persistence.Journal
	metrics  Metrics
	machine  *state.BaseStateMachine
	opts     Options
	ticks    int
}

// New builds a client in the Init phase. journal and metrics may be nil.
func New(c codec.Codec, screen display.Screen, in input.Source, journal persistence.Journal, metrics Metrics, opts Options) *Client {
	if journal == nil {
		journal = persistence.NopJournal{}
	}
	cl := &Client{
		codec:    c,
		world:    world.NewModel(opts.Width, opts.Height, opts.MessageTTL),
		session:  session.NewSession(),
		display:  display.New(screen, opts.Width, opts.Height, opts.StatusRows),
		input:    in,
		renderer: render.NewReconciler(opts.Render),
		journal:  journal,
		metrics:  metrics,
		opts:     opts,
	}
	cl.machine = state.NewBaseStateMachine(state.NewInitState(cl))
	state.RegisterTransitions(cl.machine, cl)
	logger.Log.Infof("[%s] client created, protocol %s", cl.session.ID, c.Variant())
	return cl
}

func (c *Client) Codec() codec.Codec           { return c.codec }
func (c *Client) World() *world.Model          { return c.world }
func (c *Client) Session() *session.Session    { return c.session }
func (c *Client) Display() *display.Display    { return c.display }
func (c *Client) Input() input.Source          { return c.input }
func (c *Client) Renderer() *render.Reconciler { return c.renderer }
func (c *Client) Settings() state.Settings     { return c.opts.Settings }

// Ticks is the number of loop iterations run so far.
func (c *Client) Ticks() int { return c.ticks }

func (c *Client) Phase() models.Phase {
	return c.session.Phase()
}

func (c *Client) ChangeState(next state.State) error {
	from := c.machine.GetCurrentState().GetID()
	if err := c.machine.ChangeState(next); err != nil {
		return err
	}
	phase := models.Phase(next.GetID())
	c.session.SetPhase(phase)
	if c.metrics != nil {
		c.metrics.ObservePhase(string(phase))
	}
	logger.Log.Infof("[%s] phase %s -> %s", c.session.ID, from, phase)
	return nil
}

func (c *Client) Record(kind models.EventKind, detail string) {
	local, _ := c.world.LocalPlayer()
	ev := models.SessionEvent{
		ID:         uuid.NewString(),
		SessionID:  c.session.ID,
		Kind:       kind,
		PlayerID:   local.ID,
		PlayerName: local.Name,
		Detail:     detail,
		Ticks:      c.world.Ticks(),
		CreatedAt:  time.Now(),
	}
	logger.Log.Infof("[%s] %s player=%s(%s) %s", c.session.ID, kind, local.Name, local.ID, detail)

	ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
	defer cancel()
	if err := c.journal.Record(ctx, ev); err != nil {
		logger.Log.Warnf("[%s] journal %s: %v", c.session.ID, kind, err)
	}
}

// History returns up to limit journal events of this session, newest first.
func (c *Client) History(ctx context.Context, limit int) ([]models.SessionEvent, error) {
	return c.journal.Recent(ctx, c.session.ID, limit)
}

func (c *Client) ObserveFrame(ops int) {
	if c.metrics != nil {
		c.metrics.ObserveFrame(ops, len(c.world.Others()))
	}
}

// Step runs one loop iteration and reports whether the loop should go on.
func (c *Client) Step(ctx context.Context) bool {
	c.machine.GetCurrentState().OnUpdate(ctx)
	c.ticks++
	return !c.session.Phase().Terminal()
}

// Run drives the loop until the Error phase, the tick ceiling, or ctx ends.
// Reaching the Error phase returns nil.
func (c *Client) Run(ctx context.Context) error {
	var tick <-chan time.Time
	if c.opts.TickInterval > 0 {
		ticker := time.NewTicker(c.opts.TickInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.opts.MaxTicks > 0 && c.ticks >= c.opts.MaxTicks {
			logger.Log.Warnf("[%s] stopping after %d ticks", c.session.ID, c.ticks)
			return ErrTickLimit
		}
		if !c.Step(ctx) {
			return nil
		}
		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		}
	}
}

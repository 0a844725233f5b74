package codec

import (
	"context"
	"errors"
	"time"

	"github.com/wfunc/killzone/logger"
	"github.com/wfunc/killzone/models"
)

// Observer receives one call per codec request.
type Observer interface {
	ObserveRequest(variant, op string, ok bool, d time.Duration)
}

// Instrumented wraps a Codec, reporting every request to an Observer and
// logging failures.
type Instrumented struct {
	next     Codec
	observer Observer
}

func NewInstrumented(next Codec, observer Observer) *Instrumented {
	return &Instrumented{next: next, observer: observer}
}

func (c *Instrumented) observe(op string, start time.Time, err error) {
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Log.Warnf("%s %s failed: %v", c.next.Variant(), op, err)
	}
	if c.observer != nil {
		c.observer.ObserveRequest(c.next.Variant(), op, err == nil, time.Since(start))
	}
}

func (c *Instrumented) HealthCheck(ctx context.Context) bool {
	start := time.Now()
	ok := c.next.HealthCheck(ctx)
	if c.observer != nil {
		c.observer.ObserveRequest(c.next.Variant(), "health", ok, time.Since(start))
	}
	return ok
}

func (c *Instrumented) Join(ctx context.Context, name string) (*models.JoinResult, error) {
	start := time.Now()
	res, err := c.next.Join(ctx, name)
	c.observe("join", start, err)
	return res, err
}

func (c *Instrumented) Move(ctx context.Context, entityID string, dir models.Direction) (*models.MoveResult, error) {
	start := time.Now()
	res, err := c.next.Move(ctx, entityID, dir)
	c.observe("move", start, err)
	return res, err
}

func (c *Instrumented) FetchWorld(ctx context.Context, localID string) (*models.WorldSnapshot, error) {
	start := time.Now()
	res, err := c.next.FetchWorld(ctx, localID)
	c.observe("world", start, err)
	return res, err
}

func (c *Instrumented) Leave(ctx context.Context, entityID string) bool {
	start := time.Now()
	ok := c.next.Leave(ctx, entityID)
	if c.observer != nil {
		c.observer.ObserveRequest(c.next.Variant(), "leave", ok, time.Since(start))
	}
	return ok
}

func (c *Instrumented) Variant() string { return c.next.Variant() }

func (c *Instrumented) Close() error { return c.next.Close() }

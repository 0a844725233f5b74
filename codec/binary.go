package codec

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/wfunc/killzone/logger"
	"github.com/wfunc/killzone/models"
	"github.com/wfunc/killzone/network"
)

// BinaryCodec speaks the compact framed protocol over a persistent stream.
// The stream is dialed lazily by HealthCheck or the first request.
type BinaryCodec struct {
	dial    network.Dialer
	timeout time.Duration

	stream network.Stream
	reader *bufio.Reader
}

func NewBinaryCodec(dial network.Dialer, timeout time.Duration) *BinaryCodec {
	return &BinaryCodec{dial: dial, timeout: timeout}
}

func (c *BinaryCodec) Variant() string { return "binary" }

func (c *BinaryCodec) connect(ctx context.Context) error {
	if c.stream != nil {
		return nil
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	s, err := c.dial(ctx)
	if err != nil {
		return err
	}
	c.stream = s
	c.reader = bufio.NewReader(s)
	logger.Log.Infof("stream connected to %s", s.RemoteAddr())
	return nil
}

func (c *BinaryCodec) Close() error {
	if c.stream == nil {
		return nil
	}
	err := c.stream.Close()
	c.stream = nil
	c.reader = nil
	return err
}

// roundTrip writes one request frame and arms the read deadline for the
// reply. The whole frame goes out in a single Write.
func (c *BinaryCodec) roundTrip(ctx context.Context, frame []byte) error {
	if c.stream == nil {
		return ErrNotConnected
	}
	deadline, ok := ctx.Deadline()
	if !ok && c.timeout > 0 {
		deadline = time.Now().Add(c.timeout)
	}
	if err := c.stream.SetDeadline(deadline); err != nil {
		return err
	}
	if _, err := c.stream.Write(frame); err != nil {
		return err
	}
	return nil
}

func (c *BinaryCodec) readByte() (byte, error) {
	return c.reader.ReadByte()
}

func (c *BinaryCodec) readN(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(c.reader, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// readString reads n bytes and keeps at most max of them. The excess is
// consumed so the stream stays aligned on frame boundaries.
func (c *BinaryCodec) readString(n, max int) (string, error) {
	buf, err := c.readN(n)
	if err != nil {
		return "", err
	}
	return models.Truncate(string(buf), max), nil
}

func (c *BinaryCodec) expectOpcode(op byte) error {
	got, err := c.readByte()
	if err != nil {
		return err
	}
	if got != op {
		return fmt.Errorf("%w: opcode 0x%02x, want 0x%02x", ErrMalformed, got, op)
	}
	return nil
}

// fail drops the stream after a framing or transport error. A later Join
// or HealthCheck redials.
func (c *BinaryCodec) fail(op string, err error) error {
	_ = c.Close()
	return fmt.Errorf("%s: %w", op, err)
}

func (c *BinaryCodec) HealthCheck(ctx context.Context) bool {
	if err := c.connect(ctx); err != nil {
		logger.Log.Debugf("stream health check: %v", err)
		return false
	}
	return true
}

func (c *BinaryCodec) Join(ctx context.Context, name string) (*models.JoinResult, error) {
	if err := c.connect(ctx); err != nil {
		return nil, err
	}
	name = models.Truncate(name, models.MaxNameLen)

	frame := make([]byte, 0, 2+len(name))
	frame = append(frame, network.OpJoin, byte(len(name)))
	frame = append(frame, name...)
	if err := c.roundTrip(ctx, frame); err != nil {
		return nil, c.fail("join", err)
	}

	if err := c.expectOpcode(network.OpJoin); err != nil {
		return nil, c.fail("join", err)
	}
	idLen, err := c.readByte()
	if err != nil {
		return nil, c.fail("join", err)
	}
	if idLen == 0 {
		return nil, c.fail("join", fmt.Errorf("%w: empty id", ErrRejected))
	}
	id, err := c.readString(int(idLen), models.MaxIDLen)
	if err != nil {
		return nil, c.fail("join", err)
	}
	body, err := c.readN(3)
	if err != nil {
		return nil, c.fail("join", err)
	}

	res := &models.JoinResult{
		Player: models.Entity{
			ID:       id,
			Name:     name,
			Position: models.Position{X: body[0], Y: body[1]},
			Health:   body[2],
			Kind:     models.KindLocalPlayer,
		},
	}

	// Older servers stop before the version. The reply arrives in one
	// write, so an absent version shows up as nothing left buffered.
	if c.reader.Buffered() == 0 {
		return res, nil
	}
	verLen, err := c.readByte()
	if err != nil {
		return nil, c.fail("join", err)
	}
	if res.ServerVersion, err = c.readString(int(verLen), models.MaxVersionLen); err != nil {
		return nil, c.fail("join", err)
	}
	return res, nil
}

func (c *BinaryCodec) Move(ctx context.Context, entityID string, dir models.Direction) (*models.MoveResult, error) {
	if !dir.Valid() {
		return nil, fmt.Errorf("invalid direction %q", dir)
	}
	// the server forgets the player together with its stream
	if c.stream == nil {
		return nil, fmt.Errorf("%w: %s (%v)", ErrEntityNotFound, entityID, ErrNotConnected)
	}
	if err := c.roundTrip(ctx, []byte{network.OpMove, dir.Char()}); err != nil {
		return nil, c.fail("move", err)
	}

	head, err := c.readN(6)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			_ = c.Close()
			return nil, fmt.Errorf("%w: %s (stream closed)", ErrEntityNotFound, entityID)
		}
		return nil, c.fail("move", err)
	}
	if head[0] != network.OpMove {
		return nil, c.fail("move", fmt.Errorf("%w: opcode 0x%02x", ErrMalformed, head[0]))
	}

	res := &models.MoveResult{
		Position:  models.Position{X: head[1], Y: head[2]},
		Health:    head[3],
		HasHealth: true,
		Collision: head[4] != network.CollisionNone,
	}
	msg, err := c.readString(int(head[5]), models.MaxMessageLen)
	if err != nil {
		return nil, c.fail("move", err)
	}
	if !res.Collision {
		return res, nil
	}
	if msg != "" {
		res.Messages = []string{msg}
	}
	if head[4] == network.CollisionLost || res.Health == 0 {
		res.LoserID = entityID
	}
	return res, nil
}

func (c *BinaryCodec) FetchWorld(ctx context.Context, localID string) (*models.WorldSnapshot, error) {
	if err := c.roundTrip(ctx, []byte{network.OpWorld}); err != nil {
		return nil, c.fail("world", err)
	}

	head, err := c.readN(5)
	if err != nil {
		return nil, c.fail("world", err)
	}
	if head[0] != network.OpWorld {
		return nil, c.fail("world", fmt.Errorf("%w: opcode 0x%02x", ErrMalformed, head[0]))
	}
	count := int(head[1])
	snap := &models.WorldSnapshot{
		Ticks: uint32(head[2]) | uint32(head[3])<<8,
	}
	if snap.Message, err = c.readString(int(head[4]), models.MaxMessageLen); err != nil {
		return nil, c.fail("world", err)
	}

	records, err := c.readN(count * 3)
	if err != nil {
		return nil, c.fail("world", err)
	}
	for i := 0; i < count; i++ {
		typ, x, y := records[i*3], records[i*3+1], records[i*3+2]
		pos := models.Position{X: x, Y: y}
		switch typ {
		case network.TypeSelf:
			p := pos
			snap.SelfPosition = &p
		case network.TypePlayer:
			snap.Entities = append(snap.Entities, models.Entity{Position: pos, Kind: models.KindOtherPlayer})
		case network.TypeHunter:
			snap.Entities = append(snap.Entities, models.Entity{Position: pos, Kind: models.KindHunter})
		default:
			snap.Entities = append(snap.Entities, models.Entity{Position: pos, Kind: models.KindMob})
		}
	}
	return snap, nil
}

// Leave closes the stream; the server drops the player with it.
func (c *BinaryCodec) Leave(ctx context.Context, entityID string) bool {
	if c.stream == nil {
		return false
	}
	return c.Close() == nil
}

package codec

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wfunc/killzone/models"
	"github.com/wfunc/killzone/network"
)

const (
	maxBodySize = 64 << 10
	// maxScanned bounds how far the players array is walked.
	maxScanned    = 255
	defaultHealth = 100
)

// TextCodec speaks the JSON-over-HTTP protocol. Replies are queried by
// field path rather than decoded into fixed structs.
type TextCodec struct {
	baseURL string
	client  *http.Client
	timeout time.Duration

	// walls are only re-read when the level name changes
	lastLevel   string
	wallsLoaded bool
}

// NewTextCodec builds a codec against baseURL. A nil client uses a fresh
// http.Client.
func NewTextCodec(baseURL string, client *http.Client, timeout time.Duration) *TextCodec {
	if client == nil {
		client = &http.Client{}
	}
	return &TextCodec{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		timeout: timeout,
	}
}

func (c *TextCodec) Variant() string { return "text" }

func (c *TextCodec) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

func (c *TextCodec) do(ctx context.Context, method, path string, payload any) (*document, int, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, 0, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read %s: %w", path, err)
	}
	return parseDocument(data), resp.StatusCode, nil
}

func (c *TextCodec) HealthCheck(ctx context.Context) bool {
	doc, status, err := c.do(ctx, http.MethodGet, network.PathHealth, nil)
	if err != nil || status != http.StatusOK {
		return false
	}
	s, _ := doc.String("status", 0)
	return s == "healthy"
}

func (c *TextCodec) Join(ctx context.Context, name string) (*models.JoinResult, error) {
	name = models.Truncate(name, models.MaxNameLen)
	doc, _, err := c.do(ctx, http.MethodPost, network.PathJoin, map[string]string{"name": name})
	if err != nil {
		return nil, err
	}

	if ok, present := doc.Bool("success"); present && !ok {
		msg, _ := doc.String("error", models.MaxMessageLen)
		return nil, fmt.Errorf("%w: %s", ErrRejected, msg)
	}

	id, ok := doc.String("id", models.MaxIDLen)
	if !ok || id == "" {
		return nil, fmt.Errorf("%w: join reply has no id", ErrMalformed)
	}
	x, okX := doc.Uint("x")
	y, okY := doc.Uint("y")
	if !okX || !okY {
		return nil, fmt.Errorf("%w: join reply has no position", ErrMalformed)
	}
	health, ok := doc.Uint("health")
	if !ok {
		health = defaultHealth
	}
	// the name we asked for is what a later rejoin must send
	if n, ok := doc.String("name", models.MaxNameLen); ok && n != "" {
		name = n
	}
	version, _ := doc.String("version", models.MaxVersionLen)

	return &models.JoinResult{
		Player: models.Entity{
			ID:       id,
			Name:     name,
			Position: models.Position{X: models.ClampCoord(x), Y: models.ClampCoord(y)},
			Health:   clampByte(health),
			Kind:     models.KindLocalPlayer,
		},
		ServerVersion: version,
	}, nil
}

func (c *TextCodec) Move(ctx context.Context, entityID string, dir models.Direction) (*models.MoveResult, error) {
	if !dir.Valid() {
		return nil, fmt.Errorf("invalid direction %q", dir)
	}
	path := fmt.Sprintf(network.PathMoveFormat, url.PathEscape(entityID))
	doc, status, err := c.do(ctx, http.MethodPost, path, map[string]string{"direction": string(dir)})
	if err != nil {
		return nil, err
	}

	if msg, ok := doc.String("error", 0); ok {
		if strings.Contains(strings.ToLower(msg), "not found") {
			return nil, fmt.Errorf("%w: %s", ErrEntityNotFound, entityID)
		}
		return nil, fmt.Errorf("%w: %s", ErrRejected, models.Truncate(msg, models.MaxMessageLen))
	}
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrEntityNotFound, entityID)
	}

	x, okX := doc.Uint(doc.first("x", "newPos/x"))
	y, okY := doc.Uint(doc.first("y", "newPos/y"))
	if !okX || !okY {
		return nil, fmt.Errorf("%w: move reply has no position", ErrMalformed)
	}

	res := &models.MoveResult{
		Position: models.Position{X: models.ClampCoord(x), Y: models.ClampCoord(y)},
	}
	if h, ok := doc.Uint("health"); ok {
		res.Health = clampByte(h)
		res.HasHealth = true
	}
	res.Collision, _ = doc.Bool("collision")
	if !res.Collision {
		return res, nil
	}

	msgPath := doc.first("messages", "combatResult/messages")
	for i := 0; i < models.MaxMessages; i++ {
		m, ok := doc.String(msgPath+"/"+strconv.Itoa(i), models.MaxMessageLen)
		if !ok {
			break
		}
		res.Messages = append(res.Messages, m)
	}
	res.LoserID, _ = doc.String(doc.first("finalLoserId", "combatResult/finalLoserId"), models.MaxIDLen)
	return res, nil
}

func (c *TextCodec) FetchWorld(ctx context.Context, localID string) (*models.WorldSnapshot, error) {
	path := network.PathWorldState
	if localID != "" {
		path += "?playerId=" + url.QueryEscape(localID)
	}
	doc, status, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK || !doc.Has("players") {
		return nil, fmt.Errorf("%w: world reply (status %d)", ErrMalformed, status)
	}

	snap := &models.WorldSnapshot{EnumeratesIDs: true}
	w, okW := doc.Uint("width")
	h, okH := doc.Uint("height")
	if okW && okH {
		snap.Width, snap.Height, snap.HasSize = clampByte(w), clampByte(h), true
	}
	if t, ok := doc.Uint("ticks"); ok {
		snap.Ticks = uint32(min(t, uint64(^uint32(0))))
	}
	snap.Message, _ = doc.String("lastKillMessage", models.MaxMessageLen)

	level, hasLevel := doc.String("level", models.MaxNameLen)
	snap.Level = level
	if !hasLevel || level != c.lastLevel || !c.wallsLoaded {
		snap.Walls = readWalls(doc)
		snap.WallsIncluded = true
		c.lastLevel = level
		c.wallsLoaded = len(snap.Walls) > 0
	}

	for i := 0; i < maxScanned; i++ {
		base := "players/" + strconv.Itoa(i)
		id, ok := doc.String(base+"/id", models.MaxIDLen)
		if !ok {
			break
		}
		x, _ := doc.Uint(base + "/x")
		y, _ := doc.Uint(base + "/y")
		health, ok := doc.Uint(base + "/health")
		if !ok {
			health = defaultHealth
		}
		typ, ok := doc.String(base+"/type", 7)
		if !ok {
			typ = "mob"
		}
		hunter, _ := doc.Bool(base + "/isHunter")

		snap.Entities = append(snap.Entities, models.Entity{
			ID:       id,
			Position: models.Position{X: models.ClampCoord(x), Y: models.ClampCoord(y)},
			Health:   clampByte(health),
			Kind:     models.KindFromType(typ, hunter),
		})
	}
	return snap, nil
}

func readWalls(doc *document) []models.Wall {
	var walls []models.Wall
	for i := 0; i < models.MaxWalls; i++ {
		base := "walls/" + strconv.Itoa(i)
		if !doc.Has(base) {
			break
		}
		x, _ := doc.Uint(base + "/x")
		y, _ := doc.Uint(base + "/y")
		walls = append(walls, models.Wall{X: models.ClampCoord(x), Y: models.ClampCoord(y)})
	}
	return walls
}

func (c *TextCodec) Leave(ctx context.Context, entityID string) bool {
	_, status, err := c.do(ctx, http.MethodPost, network.PathLeave, map[string]string{"id": entityID})
	return err == nil && status < http.StatusBadRequest
}

func clampByte(v uint64) uint8 {
	if v > 255 {
		return 255
	}
	return uint8(v)
}

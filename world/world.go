// Package world holds the client's mirror of server state.
package world

import (
	"github.com/sasha-s/go-deadlock"

	"github.com/wfunc/killzone/models"
)

// IngestResult reports what a snapshot revealed about the local player.
type IngestResult struct {
	// SelfListed is true when the snapshot enumerated ids and the local
	// player was among them.
	SelfListed bool
	// SelfMissing is true only when ids were enumerated and the local id
	// was absent.
	SelfMissing bool
	Others      int
}

// View is a consistent copy of the model for one render pass.
type View struct {
	Width, Height int
	Local         models.Entity
	HasLocal      bool
	Others        []models.Entity
	Walls         []models.Wall
	Ticks         uint32
}

type message struct {
	text string
	ttl  int
}

// Model 世界模型。所有更新在同一把锁下完成，渲染读到的总是完整的快照。
type Model struct {
	mutex deadlock.RWMutex

	width, height int
	// display bounds; the field never grows past them
	maxW, maxH int

	local    models.Entity
	hasLocal bool

	others []models.Entity
	walls  []models.Wall

	ticks         uint32
	level         string
	serverVersion string

	messages   []message
	messageTTL int
	lastFeed   string
}

func NewModel(width, height, messageTTL int) *Model {
	return &Model{
		width:      width,
		height:     height,
		maxW:       width,
		maxH:       height,
		others:     make([]models.Entity, 0, models.MaxOthers),
		walls:      make([]models.Wall, 0, models.MaxWalls),
		messageTTL: messageTTL,
	}
}

func (m *Model) SetLocalPlayer(p models.Entity) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	p.Kind = models.KindLocalPlayer
	m.local = p
	m.hasLocal = true
}

// LocalPlayer returns the local player and whether one is set.
func (m *Model) LocalPlayer() (models.Entity, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.local, m.hasLocal
}

func (m *Model) HasLocalPlayer() bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.hasLocal
}

// ClearLocalPlayer discards the local player, name included.
func (m *Model) ClearLocalPlayer() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.local = models.Entity{}
	m.hasLocal = false
}

// ApplyMove mutates the local player in place from a move reply.
func (m *Model) ApplyMove(res *models.MoveResult) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if !m.hasLocal {
		return
	}
	m.local.Position = res.Position
	if res.HasHealth {
		m.local.Health = res.Health
	}
}

// SetOthers replaces the others set, silently keeping at most MaxOthers.
func (m *Model) SetOthers(others []models.Entity) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.setOthers(others)
}

func (m *Model) setOthers(others []models.Entity) {
	m.others = m.others[:0]
	for _, e := range others {
		if len(m.others) == models.MaxOthers {
			break
		}
		m.others = append(m.others, e)
	}
}

func (m *Model) ClearOthers() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.others = m.others[:0]
}

// Others returns a copy of the others set.
func (m *Model) Others() []models.Entity {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return append([]models.Entity(nil), m.others...)
}

// SetWalls replaces the wall layout, silently keeping at most MaxWalls.
func (m *Model) SetWalls(walls []models.Wall) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.setWalls(walls)
}

func (m *Model) setWalls(walls []models.Wall) {
	if len(walls) > models.MaxWalls {
		walls = walls[:models.MaxWalls]
	}
	m.walls = append(m.walls[:0], walls...)
}

func (m *Model) Walls() []models.Wall {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return append([]models.Wall(nil), m.walls...)
}

// Size returns the field dimensions.
func (m *Model) Size() (int, int) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.width, m.height
}

func (m *Model) Ticks() uint32 {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.ticks
}

func (m *Model) Level() string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.level
}

func (m *Model) SetServerVersion(v string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.serverVersion = models.Truncate(v, models.MaxVersionLen)
}

func (m *Model) ServerVersion() string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.serverVersion
}

// Ingest applies a world snapshot as one unit.
func (m *Model) Ingest(snap *models.WorldSnapshot) IngestResult {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	var res IngestResult

	if snap.HasSize && snap.Width > 0 && snap.Height > 0 {
		m.width = min(m.maxW, int(snap.Width))
		m.height = min(m.maxH, int(snap.Height))
	}
	m.ticks = snap.Ticks
	if snap.Level != "" {
		m.level = snap.Level
	}
	if snap.WallsIncluded {
		m.setWalls(snap.Walls)
	}

	others := make([]models.Entity, 0, models.MaxOthers)
	for _, e := range snap.Entities {
		if m.hasLocal && e.ID != "" && e.ID == m.local.ID {
			res.SelfListed = true
			continue
		}
		others = append(others, e)
	}
	m.setOthers(others)
	res.Others = len(m.others)

	if snap.SelfPosition != nil && m.hasLocal {
		m.local.Position = *snap.SelfPosition
	}
	if snap.EnumeratesIDs && m.hasLocal && !res.SelfListed {
		res.SelfMissing = true
	}

	// kill feed: only a changed message is queued
	if snap.Message != "" && snap.Message != m.lastFeed {
		m.pushMessage(snap.Message)
	}
	m.lastFeed = snap.Message
	return res
}

// View returns a consistent copy for rendering.
func (m *Model) View() View {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return View{
		Width:    m.width,
		Height:   m.height,
		Local:    m.local,
		HasLocal: m.hasLocal,
		Others:   append([]models.Entity(nil), m.others...),
		Walls:    append([]models.Wall(nil), m.walls...),
		Ticks:    m.ticks,
	}
}

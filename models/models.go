// models/models.go
package models

import "strings"

// 尺寸限制
const (
	MaxOthers     = 10
	MaxWalls      = 400
	MaxNameLen    = 31
	MaxIDLen      = 31
	MaxMessageLen = 40
	MaxMessages   = 4
	MaxVersionLen = 15

	// InvalidCoord marks a coordinate that was never drawn or is unknown.
	InvalidCoord = 255
)

// Kind 实体类型，决定渲染字符
type Kind int

const (
	KindMob Kind = iota
	KindHunter
	KindOtherPlayer
	KindLocalPlayer
)

func (k Kind) String() string {
	switch k {
	case KindLocalPlayer:
		return "local"
	case KindOtherPlayer:
		return "player"
	case KindHunter:
		return "hunter"
	default:
		return "mob"
	}
}

// KindFromType maps the server's type/isHunter pair onto a Kind.
func KindFromType(typ string, hunter bool) Kind {
	if typ == "player" {
		return KindOtherPlayer
	}
	if hunter {
		return KindHunter
	}
	return KindMob
}

// Position is a grid cell. Any coordinate outside the display is treated as unknown.
type Position struct {
	X uint8
	Y uint8
}

// Unknown is the "never drawn" sentinel.
var Unknown = Position{X: InvalidCoord, Y: InvalidCoord}

// In reports whether the position lies inside a width x height field.
func (p Position) In(width, height int) bool {
	return int(p.X) < width && int(p.Y) < height
}

// ClampCoord converts a server integer into a grid coordinate, mapping
// anything that does not fit into the invalid sentinel.
func ClampCoord(v uint64) uint8 {
	if v >= InvalidCoord {
		return InvalidCoord
	}
	return uint8(v)
}

// Entity 世界中的一个角色（本地玩家、其他玩家或怪物）
type Entity struct {
	ID       string
	Name     string
	Position Position
	Health   uint8
	Kind     Kind
}

// Wall is an immovable obstacle cell.
type Wall = Position

// Direction of a move request.
type Direction string

const (
	DirUp    Direction = "up"
	DirDown  Direction = "down"
	DirLeft  Direction = "left"
	DirRight Direction = "right"
)

// Char returns the single-byte form used by the binary protocol.
func (d Direction) Char() byte {
	switch d {
	case DirUp:
		return 'u'
	case DirDown:
		return 'd'
	case DirLeft:
		return 'l'
	case DirRight:
		return 'r'
	}
	return 'x'
}

// Valid reports whether d is one of the four directions.
func (d Direction) Valid() bool {
	return d.Char() != 'x'
}

// JoinResult is the local player as assigned by the server.
type JoinResult struct {
	Player        Entity
	ServerVersion string
}

// MoveResult 移动结果
type MoveResult struct {
	Position  Position
	Health    uint8
	HasHealth bool
	Collision bool
	Messages  []string
	// LoserID is empty when no combat loser was reported.
	LoserID string
}

// WorldSnapshot is one server-asserted picture of the world.
type WorldSnapshot struct {
	Width   uint8
	Height  uint8
	HasSize bool
	Ticks   uint32
	Message string
	Level   string

	// Walls is only meaningful when WallsIncluded is set; otherwise the
	// previously held walls stay in place.
	Walls         []Wall
	WallsIncluded bool

	// Entities may include the local player; ingestion filters it by id.
	Entities []Entity

	// SelfPosition carries a server-authoritative correction of the local
	// player's position (binary 'M' records).
	SelfPosition *Position

	// EnumeratesIDs is set when Entities carry ids, which makes absence of
	// the local id meaningful.
	EnumeratesIDs bool
}

// Truncate cuts s to at most n bytes without failing.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// NormalizeName applies the join prompt rules: trim, cut at the first
// embedded space or tab, cap the length, and fall back to def when empty.
func NormalizeName(raw, def string) string {
	name := strings.TrimSpace(raw)
	if i := strings.IndexAny(name, " \t"); i >= 0 {
		name = name[:i]
	}
	name = Truncate(name, MaxNameLen)
	if name == "" {
		return def
	}
	return name
}

package network

// Binary protocol opcodes. Each request starts with one of these and the
// reply echoes it in its first byte.
const (
	OpJoin  byte = 0x01
	OpMove  byte = 0x02
	OpWorld byte = 0x03
)

// Entity type characters in a world reply.
const (
	TypeSelf   byte = 'M'
	TypePlayer byte = 'P'
	TypeHunter byte = 'H'
)

// Collision flag values in a move reply.
const (
	CollisionNone byte = 0
	CollisionHit  byte = 1
	CollisionLost byte = 2
)

// Text protocol resource paths.
const (
	PathHealth     = "/api/health"
	PathJoin       = "/api/player/join"
	PathLeave      = "/api/player/leave"
	PathWorldState = "/api/world/state"
	PathMoveFormat = "/api/player/%s/move"
)

// Package codec translates game operations into one of two wire protocols
// and decodes the replies into models values.
package codec

import (
	"context"
	"errors"

	"github.com/wfunc/killzone/models"
)

var (
	// ErrEntityNotFound means the server no longer knows the entity. The
	// caller should treat the session as disconnected.
	ErrEntityNotFound = errors.New("entity not found")
	// ErrRejected means the server explicitly reported failure.
	ErrRejected = errors.New("server rejected request")
	// ErrMalformed means a reply was missing required fields or framing.
	ErrMalformed = errors.New("malformed response")
	// ErrNotConnected means the stream is not open.
	ErrNotConnected = errors.New("not connected")
)

// Codec is the uniform contract both protocol variants implement.
type Codec interface {
	// HealthCheck never fails loudly; any problem reads as false.
	HealthCheck(ctx context.Context) bool
	Join(ctx context.Context, name string) (*models.JoinResult, error)
	Move(ctx context.Context, entityID string, dir models.Direction) (*models.MoveResult, error)
	FetchWorld(ctx context.Context, localID string) (*models.WorldSnapshot, error)
	// Leave is best effort.
	Leave(ctx context.Context, entityID string) bool
	// Variant names the protocol for logs and metrics.
	Variant() string
	Close() error
}

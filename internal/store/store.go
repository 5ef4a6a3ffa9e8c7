package store

import (
	"context"
	"errors"

	"github.com/stemsplit/api/internal/model"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Store is the persistence contract for the three entity kinds. The memory
// implementation is the reference; the redis one is the durable drop-in.
// Callers never hold references into a store's internals — every read
// returns a copy and every write replaces the whole record.
type Store interface {
	CreateUser(ctx context.Context, insert model.InsertUser) (model.User, error)
	GetUser(ctx context.Context, id int) (model.User, error)
	GetUserByUsername(ctx context.Context, username string) (model.User, error)

	CreateAudioFile(ctx context.Context, insert model.InsertAudioFile) (model.AudioFile, error)
	GetAudioFile(ctx context.Context, id int) (model.AudioFile, error)
	SaveAudioFile(ctx context.Context, file model.AudioFile) error

	CreateSeparatedTrack(ctx context.Context, insert model.InsertSeparatedTrack) (model.SeparatedTrack, error)
	GetSeparatedTracksByAudioFileID(ctx context.Context, audioFileID int) ([]model.SeparatedTrack, error)
	DeleteSeparatedTracksByAudioFileID(ctx context.Context, audioFileID int) error
}

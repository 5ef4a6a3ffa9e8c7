package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsplit/api/internal/model"
)

func TestMemoryStore_AudioFileLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	file, err := s.CreateAudioFile(ctx, model.InsertAudioFile{
		OriginalName: "song.mp3",
		FileName:     "abc123.mp3",
		FileSize:     2400000,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, file.ID)
	assert.Equal(t, model.StatusUploaded, file.Status)
	assert.Equal(t, int64(2400000), file.FileSize)
	assert.False(t, file.UploadedAt.IsZero())

	got, err := s.GetAudioFile(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, file, got)

	got.Status = model.StatusProcessing
	got.Epoch = 3
	require.NoError(t, s.SaveAudioFile(ctx, got))

	again, err := s.GetAudioFile(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusProcessing, again.Status)
	assert.Equal(t, 3, again.Epoch)

	_, err = s.GetAudioFile(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.SaveAudioFile(ctx, model.AudioFile{ID: 999})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_IDsNeverReused(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	first, err := s.CreateSeparatedTrack(ctx, model.InsertSeparatedTrack{
		AudioFileID: 1, TrackType: "vocals", FileName: "vocals.wav", FilePath: "/tmp/vocals.wav",
	})
	require.NoError(t, err)

	require.NoError(t, s.DeleteSeparatedTracksByAudioFileID(ctx, 1))

	second, err := s.CreateSeparatedTrack(ctx, model.InsertSeparatedTrack{
		AudioFileID: 1, TrackType: "drums", FileName: "drums.wav", FilePath: "/tmp/drums.wav",
	})
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)
}

func TestMemoryStore_TracksScopedToAudioFile(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for _, tt := range []struct {
		fileID    int
		trackType string
	}{
		{1, "vocals"},
		{1, "drums"},
		{2, "vocals"},
	} {
		_, err := s.CreateSeparatedTrack(ctx, model.InsertSeparatedTrack{
			AudioFileID: tt.fileID,
			TrackType:   tt.trackType,
			FileName:    tt.trackType + ".wav",
			FilePath:    "/out/" + tt.trackType + ".wav",
		})
		require.NoError(t, err)
	}

	tracks, err := s.GetSeparatedTracksByAudioFileID(ctx, 1)
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	// Insertion order is stable.
	assert.Equal(t, "vocals", tracks[0].TrackType)
	assert.Equal(t, "drums", tracks[1].TrackType)

	require.NoError(t, s.DeleteSeparatedTracksByAudioFileID(ctx, 1))

	tracks, err = s.GetSeparatedTracksByAudioFileID(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, tracks)

	other, err := s.GetSeparatedTracksByAudioFileID(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestMemoryStore_PurgeWithoutTracksIsNoop(t *testing.T) {
	s := NewMemoryStore()
	assert.NoError(t, s.DeleteSeparatedTracksByAudioFileID(context.Background(), 42))
}

func TestMemoryStore_Users(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	user, err := s.CreateUser(ctx, model.InsertUser{Username: "alice", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, 1, user.ID)

	byName, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user, byName)

	byID, err := s.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user, byID)

	_, err = s.GetUserByUsername(ctx, "bob")
	assert.ErrorIs(t, err, ErrNotFound)
}

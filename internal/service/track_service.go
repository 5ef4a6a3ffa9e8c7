package service

import (
	"context"
	"fmt"

	"github.com/stemsplit/api/internal/model"
	"github.com/stemsplit/api/internal/store"
)

// TrackService is the bookkeeping layer over separated-track records. It
// does not verify that artifact files exist; that is the supervisor's job.
type TrackService struct {
	store store.Store
}

func NewTrackService(st store.Store) *TrackService {
	return &TrackService{store: st}
}

// CreateForAudioFile inserts one track record. A (audioFileID, trackType)
// pair is expected to be unique; duplicates indicate a caller bug.
func (s *TrackService) CreateForAudioFile(ctx context.Context, insert model.InsertSeparatedTrack) (model.SeparatedTrack, error) {
	existing, err := s.store.GetSeparatedTracksByAudioFileID(ctx, insert.AudioFileID)
	if err != nil {
		return model.SeparatedTrack{}, fmt.Errorf("list tracks: %w", err)
	}
	for _, track := range existing {
		if track.TrackType == insert.TrackType {
			return model.SeparatedTrack{}, fmt.Errorf("track %q already exists for audio file %d", insert.TrackType, insert.AudioFileID)
		}
	}
	track, err := s.store.CreateSeparatedTrack(ctx, insert)
	if err != nil {
		return model.SeparatedTrack{}, fmt.Errorf("create track: %w", err)
	}
	return track, nil
}

// ListForAudioFile returns the file's tracks in insertion order.
func (s *TrackService) ListForAudioFile(ctx context.Context, audioFileID int) ([]model.SeparatedTrack, error) {
	tracks, err := s.store.GetSeparatedTracksByAudioFileID(ctx, audioFileID)
	if err != nil {
		return nil, fmt.Errorf("list tracks: %w", err)
	}
	return tracks, nil
}

// GetByType resolves one track of the file by its type.
func (s *TrackService) GetByType(ctx context.Context, audioFileID int, trackType string) (model.SeparatedTrack, error) {
	tracks, err := s.store.GetSeparatedTracksByAudioFileID(ctx, audioFileID)
	if err != nil {
		return model.SeparatedTrack{}, fmt.Errorf("list tracks: %w", err)
	}
	for _, track := range tracks {
		if track.TrackType == trackType {
			return track, nil
		}
	}
	return model.SeparatedTrack{}, ErrNotFound
}

// PurgeForAudioFile removes all of the file's track records. Purging a file
// with no tracks succeeds.
func (s *TrackService) PurgeForAudioFile(ctx context.Context, audioFileID int) error {
	if err := s.store.DeleteSeparatedTracksByAudioFileID(ctx, audioFileID); err != nil {
		return fmt.Errorf("delete tracks: %w", err)
	}
	return nil
}

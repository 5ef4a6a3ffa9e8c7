package service

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/stemsplit/api/internal/model"
	"github.com/stemsplit/api/internal/store"
)

// JobService owns the authoritative status of each audio file and the
// legality of transitions. All transitions run under one mutex, so a
// check-and-set like BeginProcessing cannot interleave with a concurrent
// call for the same id.
type JobService struct {
	store    store.Store
	tracks   *TrackService
	validate *validator.Validate

	mu sync.Mutex
}

func NewJobService(st store.Store, tracks *TrackService, v *validator.Validate) *JobService {
	return &JobService{
		store:    st,
		tracks:   tracks,
		validate: v,
	}
}

// Create records a new audio file in status "uploaded".
func (s *JobService) Create(ctx context.Context, insert model.InsertAudioFile) (model.AudioFile, error) {
	if err := s.validate.Struct(insert); err != nil {
		return model.AudioFile{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	file, err := s.store.CreateAudioFile(ctx, insert)
	if err != nil {
		return model.AudioFile{}, fmt.Errorf("create audio file: %w", err)
	}
	return file, nil
}

// Get returns the audio file record.
func (s *JobService) Get(ctx context.Context, id int) (model.AudioFile, error) {
	file, err := s.store.GetAudioFile(ctx, id)
	if err == store.ErrNotFound {
		return model.AudioFile{}, ErrNotFound
	}
	if err != nil {
		return model.AudioFile{}, fmt.Errorf("get audio file: %w", err)
	}
	return file, nil
}

// BeginProcessing transitions uploaded → processing. The returned epoch must
// accompany the attempt's terminal callback. Exactly one of two concurrent
// calls for the same id succeeds; the other gets ErrInvalidState.
func (s *JobService) BeginProcessing(ctx context.Context, id int) (model.AudioFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.Get(ctx, id)
	if err != nil {
		return model.AudioFile{}, err
	}
	if file.Status != model.StatusUploaded {
		return model.AudioFile{}, fmt.Errorf("%w: status is %q", ErrInvalidState, file.Status)
	}

	file.Status = model.StatusProcessing
	if err := s.store.SaveAudioFile(ctx, file); err != nil {
		return model.AudioFile{}, fmt.Errorf("save audio file: %w", err)
	}
	return file, nil
}

// MarkCompleted is the supervisor's success callback. Track records are
// created in one batch before the status flips to completed, so a client
// that polls and sees "completed" also sees the tracks. A callback carrying
// a stale epoch, or arriving after the job already left processing, is
// dropped.
func (s *JobService) MarkCompleted(ctx context.Context, id, epoch int, tracks []model.InsertSeparatedTrack) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !s.callbackValid(file, epoch, "completed") {
		return nil
	}

	for _, insert := range tracks {
		if _, err := s.tracks.CreateForAudioFile(ctx, insert); err != nil {
			return fmt.Errorf("create track %q: %w", insert.TrackType, err)
		}
	}

	file.Status = model.StatusCompleted
	if err := s.store.SaveAudioFile(ctx, file); err != nil {
		return fmt.Errorf("save audio file: %w", err)
	}
	return nil
}

// MarkError is the supervisor's failure callback, guarded like MarkCompleted.
func (s *JobService) MarkError(ctx context.Context, id, epoch int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !s.callbackValid(file, epoch, "error") {
		return nil
	}

	file.Status = model.StatusError
	if err := s.store.SaveAudioFile(ctx, file); err != nil {
		return fmt.Errorf("save audio file: %w", err)
	}
	return nil
}

// Reset forces the file back to "uploaded" and purges its tracks, whatever
// the current status. It does not signal a running worker; bumping the
// epoch makes that worker's eventual callback a no-op instead.
func (s *JobService) Reset(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	file.Status = model.StatusUploaded
	file.Epoch++
	if err := s.store.SaveAudioFile(ctx, file); err != nil {
		return fmt.Errorf("save audio file: %w", err)
	}
	if err := s.tracks.PurgeForAudioFile(ctx, id); err != nil {
		return fmt.Errorf("purge tracks: %w", err)
	}
	return nil
}

func (s *JobService) callbackValid(file model.AudioFile, epoch int, outcome string) bool {
	if file.Epoch != epoch {
		log.Printf("audio file %d: dropping stale %s callback (epoch %d, current %d)",
			file.ID, outcome, epoch, file.Epoch)
		return false
	}
	if file.Status != model.StatusProcessing {
		log.Printf("audio file %d: ignoring %s callback, status already %q",
			file.ID, outcome, file.Status)
		return false
	}
	return true
}

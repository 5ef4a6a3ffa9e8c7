package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stemsplit/api/internal/model"
)

// MemoryStore is the reference in-memory Store. IDs auto-increment and are
// never reused, including after a track purge.
type MemoryStore struct {
	mu sync.RWMutex

	users      map[int]model.User
	audioFiles map[int]model.AudioFile
	tracks     map[int]model.SeparatedTrack

	nextUserID  int
	nextAudioID int
	nextTrackID int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[int]model.User),
		audioFiles:  make(map[int]model.AudioFile),
		tracks:      make(map[int]model.SeparatedTrack),
		nextUserID:  1,
		nextAudioID: 1,
		nextTrackID: 1,
	}
}

func (s *MemoryStore) CreateUser(ctx context.Context, insert model.InsertUser) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := model.User{
		ID:       s.nextUserID,
		Username: insert.Username,
		Password: insert.Password,
	}
	s.nextUserID++
	s.users[user.ID] = user
	return user, nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id int) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return user, nil
}

func (s *MemoryStore) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Username == username {
			return user, nil
		}
	}
	return model.User{}, ErrNotFound
}

func (s *MemoryStore) CreateAudioFile(ctx context.Context, insert model.InsertAudioFile) (model.AudioFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file := model.AudioFile{
		ID:           s.nextAudioID,
		OriginalName: insert.OriginalName,
		FileName:     insert.FileName,
		FileSize:     insert.FileSize,
		Status:       model.StatusUploaded,
		UploadedAt:   time.Now(),
	}
	s.nextAudioID++
	s.audioFiles[file.ID] = file
	return file, nil
}

func (s *MemoryStore) GetAudioFile(ctx context.Context, id int) (model.AudioFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	file, ok := s.audioFiles[id]
	if !ok {
		return model.AudioFile{}, ErrNotFound
	}
	return file, nil
}

func (s *MemoryStore) SaveAudioFile(ctx context.Context, file model.AudioFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.audioFiles[file.ID]; !ok {
		return ErrNotFound
	}
	s.audioFiles[file.ID] = file
	return nil
}

func (s *MemoryStore) CreateSeparatedTrack(ctx context.Context, insert model.InsertSeparatedTrack) (model.SeparatedTrack, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	track := model.SeparatedTrack{
		ID:          s.nextTrackID,
		AudioFileID: insert.AudioFileID,
		TrackType:   insert.TrackType,
		FileName:    insert.FileName,
		FilePath:    insert.FilePath,
	}
	s.nextTrackID++
	s.tracks[track.ID] = track
	return track, nil
}

func (s *MemoryStore) GetSeparatedTracksByAudioFileID(ctx context.Context, audioFileID int) ([]model.SeparatedTrack, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var tracks []model.SeparatedTrack
	for _, track := range s.tracks {
		if track.AudioFileID == audioFileID {
			tracks = append(tracks, track)
		}
	}
	// Map iteration is unordered; return insertion order.
	sort.Slice(tracks, func(i, j int) bool { return tracks[i].ID < tracks[j].ID })
	return tracks, nil
}

func (s *MemoryStore) DeleteSeparatedTracksByAudioFileID(ctx context.Context, audioFileID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, track := range s.tracks {
		if track.AudioFileID == audioFileID {
			delete(s.tracks, id)
		}
	}
	return nil
}

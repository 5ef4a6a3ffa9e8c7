package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stemsplit/api/internal/model"
)

// RedisStore is the durable Store implementation. Records are JSON values,
// ids come from INCR counters, and per-file track ids live in a list so
// listing preserves insertion order.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func userKey(id int) string          { return fmt.Sprintf("user:%d", id) }
func usernameKey(name string) string { return fmt.Sprintf("user:name:%s", name) }
func audioFileKey(id int) string     { return fmt.Sprintf("audiofile:%d", id) }
func trackKey(id int) string         { return fmt.Sprintf("track:%d", id) }
func fileTracksKey(id int) string    { return fmt.Sprintf("audiofile:%d:tracks", id) }

// persistedAudioFile carries the epoch, which the API model hides from JSON.
type persistedAudioFile struct {
	ID           int          `json:"id"`
	OriginalName string       `json:"originalName"`
	FileName     string       `json:"fileName"`
	FileSize     int64        `json:"fileSize"`
	Status       model.Status `json:"status"`
	UploadedAt   time.Time    `json:"uploadedAt"`
	Epoch        int          `json:"epoch"`
}

func toPersisted(f model.AudioFile) persistedAudioFile {
	return persistedAudioFile{
		ID:           f.ID,
		OriginalName: f.OriginalName,
		FileName:     f.FileName,
		FileSize:     f.FileSize,
		Status:       f.Status,
		UploadedAt:   f.UploadedAt,
		Epoch:        f.Epoch,
	}
}

func (p persistedAudioFile) toModel() model.AudioFile {
	return model.AudioFile{
		ID:           p.ID,
		OriginalName: p.OriginalName,
		FileName:     p.FileName,
		FileSize:     p.FileSize,
		Status:       p.Status,
		UploadedAt:   p.UploadedAt,
		Epoch:        p.Epoch,
	}
}

func (s *RedisStore) nextID(ctx context.Context, seq string) (int, error) {
	id, err := s.rdb.Incr(ctx, "seq:"+seq).Result()
	if err != nil {
		return 0, fmt.Errorf("next %s id: %w", seq, err)
	}
	return int(id), nil
}

func (s *RedisStore) setJSON(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.rdb.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) getJSON(ctx context.Context, key string, v interface{}) error {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	return json.Unmarshal(data, v)
}

func (s *RedisStore) CreateUser(ctx context.Context, insert model.InsertUser) (model.User, error) {
	id, err := s.nextID(ctx, "user")
	if err != nil {
		return model.User{}, err
	}
	user := model.User{ID: id, Username: insert.Username, Password: insert.Password}
	type persistedUser struct {
		ID       int    `json:"id"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := s.setJSON(ctx, userKey(id), persistedUser(user)); err != nil {
		return model.User{}, err
	}
	if err := s.rdb.Set(ctx, usernameKey(insert.Username), strconv.Itoa(id), 0).Err(); err != nil {
		return model.User{}, fmt.Errorf("index username: %w", err)
	}
	return user, nil
}

func (s *RedisStore) GetUser(ctx context.Context, id int) (model.User, error) {
	var user struct {
		ID       int    `json:"id"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := s.getJSON(ctx, userKey(id), &user); err != nil {
		return model.User{}, err
	}
	return model.User{ID: user.ID, Username: user.Username, Password: user.Password}, nil
}

func (s *RedisStore) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	raw, err := s.rdb.Get(ctx, usernameKey(username)).Result()
	if err == redis.Nil {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("lookup username: %w", err)
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return model.User{}, fmt.Errorf("corrupt username index: %w", err)
	}
	return s.GetUser(ctx, id)
}

func (s *RedisStore) CreateAudioFile(ctx context.Context, insert model.InsertAudioFile) (model.AudioFile, error) {
	id, err := s.nextID(ctx, "audiofile")
	if err != nil {
		return model.AudioFile{}, err
	}
	file := model.AudioFile{
		ID:           id,
		OriginalName: insert.OriginalName,
		FileName:     insert.FileName,
		FileSize:     insert.FileSize,
		Status:       model.StatusUploaded,
		UploadedAt:   time.Now(),
	}
	if err := s.setJSON(ctx, audioFileKey(id), toPersisted(file)); err != nil {
		return model.AudioFile{}, err
	}
	return file, nil
}

func (s *RedisStore) GetAudioFile(ctx context.Context, id int) (model.AudioFile, error) {
	var p persistedAudioFile
	if err := s.getJSON(ctx, audioFileKey(id), &p); err != nil {
		return model.AudioFile{}, err
	}
	return p.toModel(), nil
}

func (s *RedisStore) SaveAudioFile(ctx context.Context, file model.AudioFile) error {
	exists, err := s.rdb.Exists(ctx, audioFileKey(file.ID)).Result()
	if err != nil {
		return fmt.Errorf("check audio file: %w", err)
	}
	if exists == 0 {
		return ErrNotFound
	}
	return s.setJSON(ctx, audioFileKey(file.ID), toPersisted(file))
}

func (s *RedisStore) CreateSeparatedTrack(ctx context.Context, insert model.InsertSeparatedTrack) (model.SeparatedTrack, error) {
	id, err := s.nextID(ctx, "track")
	if err != nil {
		return model.SeparatedTrack{}, err
	}
	track := model.SeparatedTrack{
		ID:          id,
		AudioFileID: insert.AudioFileID,
		TrackType:   insert.TrackType,
		FileName:    insert.FileName,
		FilePath:    insert.FilePath,
	}
	if err := s.setJSON(ctx, trackKey(id), track); err != nil {
		return model.SeparatedTrack{}, err
	}
	if err := s.rdb.RPush(ctx, fileTracksKey(insert.AudioFileID), id).Err(); err != nil {
		return model.SeparatedTrack{}, fmt.Errorf("index track: %w", err)
	}
	return track, nil
}

func (s *RedisStore) GetSeparatedTracksByAudioFileID(ctx context.Context, audioFileID int) ([]model.SeparatedTrack, error) {
	ids, err := s.rdb.LRange(ctx, fileTracksKey(audioFileID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list tracks: %w", err)
	}
	var tracks []model.SeparatedTrack
	for _, raw := range ids {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("corrupt track index: %w", err)
		}
		var track model.SeparatedTrack
		if err := s.getJSON(ctx, trackKey(id), &track); err != nil {
			if err == ErrNotFound {
				continue
			}
			return nil, err
		}
		tracks = append(tracks, track)
	}
	return tracks, nil
}

func (s *RedisStore) DeleteSeparatedTracksByAudioFileID(ctx context.Context, audioFileID int) error {
	ids, err := s.rdb.LRange(ctx, fileTracksKey(audioFileID), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("list tracks: %w", err)
	}
	for _, raw := range ids {
		id, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		if err := s.rdb.Del(ctx, trackKey(id)).Err(); err != nil {
			return fmt.Errorf("delete track %d: %w", id, err)
		}
	}
	if err := s.rdb.Del(ctx, fileTracksKey(audioFileID)).Err(); err != nil {
		return fmt.Errorf("delete track index: %w", err)
	}
	return nil
}

package model

import "time"

// AudioFile represents one uploaded audio file and its separation lifecycle.
type AudioFile struct {
	ID           int       `json:"id"`
	OriginalName string    `json:"originalName"`
	FileName     string    `json:"fileName"` // stored name on disk, not the client's name
	FileSize     int64     `json:"fileSize"`
	Status       Status    `json:"status"`
	UploadedAt   time.Time `json:"uploadedAt"`

	// Epoch counts resets. A separation attempt carries the epoch it was
	// started under; terminal callbacks from a stale epoch are dropped.
	Epoch int `json:"-"`
}

// InsertAudioFile carries the fields required to create an AudioFile record.
type InsertAudioFile struct {
	OriginalName string `json:"originalName" validate:"required"`
	FileName     string `json:"fileName" validate:"required"`
	FileSize     int64  `json:"fileSize" validate:"gte=0"`
}

// SeparatedTrack is one instrument-isolated output file belonging to an AudioFile.
type SeparatedTrack struct {
	ID          int    `json:"id"`
	AudioFileID int    `json:"audioFileId"`
	TrackType   string `json:"trackType"`
	FileName    string `json:"fileName"`
	FilePath    string `json:"filePath"`
}

// InsertSeparatedTrack carries the fields required to create a track record.
type InsertSeparatedTrack struct {
	AudioFileID int    `json:"audioFileId" validate:"required"`
	TrackType   string `json:"trackType" validate:"required"`
	FileName    string `json:"fileName" validate:"required"`
	FilePath    string `json:"filePath" validate:"required"`
}

// AudioFileWithTracks is the status-query response shape.
type AudioFileWithTracks struct {
	AudioFile
	Tracks []SeparatedTrack `json:"tracks"`
}

// SeparationResponse acknowledges a separate or reset request.
type SeparationResponse struct {
	Message     string `json:"message"`
	AudioFileID int    `json:"audioFileId"`
}

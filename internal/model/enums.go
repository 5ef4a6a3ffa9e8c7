package model

// Status of an audio file's separation lifecycle.
type Status string

const (
	StatusUploaded   Status = "uploaded"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Terminal reports whether no further automatic transition occurs without a reset.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// DefaultTrackTypes is the stem set produced by the default separator model.
// The configured set wins; this is the fallback when config leaves it empty.
var DefaultTrackTypes = []string{"vocals", "drums", "bass", "other"}

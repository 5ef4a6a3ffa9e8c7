package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/stemsplit/api/internal/model"
	"github.com/stemsplit/api/internal/separator"
	"github.com/stemsplit/api/internal/service"
	"github.com/stemsplit/api/pkg/response"
)

type SeparationHandler struct {
	jobs       *service.JobService
	tracks     *service.TrackService
	uploads    *service.UploadService
	supervisor *separator.Supervisor
}

func NewSeparationHandler(jobs *service.JobService, tracks *service.TrackService, uploads *service.UploadService, sup *separator.Supervisor) *SeparationHandler {
	return &SeparationHandler{
		jobs:       jobs,
		tracks:     tracks,
		uploads:    uploads,
		supervisor: sup,
	}
}

// Separate handles POST /api/separate/:id. It transitions the file to
// processing and hands it to the supervisor; the response returns before
// the worker finishes, and clients poll GET /api/audio/:id for the outcome.
func (h *SeparationHandler) Separate(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return response.ValidationError(c, "Invalid audio file id", nil)
	}

	file, err := h.jobs.BeginProcessing(c.Context(), id)
	if errors.Is(err, service.ErrNotFound) {
		return response.NotFound(c, "Audio file not found")
	}
	if errors.Is(err, service.ErrInvalidState) {
		return response.InvalidState(c, "File is already being processed or completed")
	}
	if err != nil {
		return response.ServiceError(c, "Failed to start separation")
	}

	h.supervisor.Start(file, h.uploads.InputPath(file.FileName))

	return response.OK(c, model.SeparationResponse{
		Message:     "Separation started",
		AudioFileID: file.ID,
	})
}

// Reset handles POST /api/reset/:id. It is a forced override back to
// "uploaded", valid from any status.
func (h *SeparationHandler) Reset(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return response.ValidationError(c, "Invalid audio file id", nil)
	}

	if err := h.jobs.Reset(c.Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return response.NotFound(c, "Audio file not found")
		}
		return response.ServiceError(c, "Failed to reset audio file")
	}

	return response.OK(c, model.SeparationResponse{
		Message:     "Audio file reset successfully",
		AudioFileID: id,
	})
}

// Status handles GET /api/audio/:id, returning the file plus its tracks.
func (h *SeparationHandler) Status(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return response.ValidationError(c, "Invalid audio file id", nil)
	}

	file, err := h.jobs.Get(c.Context(), id)
	if errors.Is(err, service.ErrNotFound) {
		return response.NotFound(c, "Audio file not found")
	}
	if err != nil {
		return response.ServiceError(c, "Failed to get audio file")
	}

	tracks, err := h.tracks.ListForAudioFile(c.Context(), id)
	if err != nil {
		return response.ServiceError(c, "Failed to list tracks")
	}
	if tracks == nil {
		tracks = []model.SeparatedTrack{}
	}

	return response.OK(c, model.AudioFileWithTracks{
		AudioFile: file,
		Tracks:    tracks,
	})
}

func parseID(c *fiber.Ctx) (int, error) {
	return strconv.Atoi(c.Params("id"))
}

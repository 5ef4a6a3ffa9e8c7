package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/stemsplit/api/internal/model"
	"github.com/stemsplit/api/internal/service"
	"github.com/stemsplit/api/pkg/response"
)

type UploadHandler struct {
	uploads  *service.UploadService
	jobs     *service.JobService
	maxBytes int64
}

func NewUploadHandler(uploads *service.UploadService, jobs *service.JobService, maxBytes int64) *UploadHandler {
	return &UploadHandler{
		uploads:  uploads,
		jobs:     jobs,
		maxBytes: maxBytes,
	}
}

// Upload handles POST /api/upload. The multipart field is "audio"; the file
// must pass the extension allow-list and the size cap.
func (h *UploadHandler) Upload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("audio")
	if err != nil {
		return response.ValidationError(c, "No file uploaded", nil)
	}

	if fileHeader.Size > h.maxBytes {
		return response.ValidationError(c, "File too large", map[string]interface{}{
			"maxBytes": h.maxBytes,
			"fileSize": fileHeader.Size,
		})
	}

	if !h.uploads.AllowedExtension(fileHeader.Filename) {
		return response.ValidationError(c, "Only MP3 and WAV files are allowed", map[string]interface{}{
			"fileName": fileHeader.Filename,
		})
	}

	src, err := fileHeader.Open()
	if err != nil {
		return response.ServiceError(c, "Failed to read upload")
	}
	defer src.Close()

	storedName, size, err := h.uploads.Save(fileHeader.Filename, src)
	if err != nil {
		return response.ServiceError(c, "Upload failed")
	}

	file, err := h.jobs.Create(c.Context(), model.InsertAudioFile{
		OriginalName: fileHeader.Filename,
		FileName:     storedName,
		FileSize:     size,
	})
	if err != nil {
		return response.ValidationError(c, "Invalid file data", nil)
	}

	return response.OK(c, file)
}

package handler

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/stemsplit/api/internal/model"
	"github.com/stemsplit/api/internal/service"
	"github.com/stemsplit/api/pkg/response"
)

// Track files are whatever the separator writes; the format is not
// negotiated with the client.
const trackContentType = "audio/wav"

var (
	errMalformedRange     = errors.New("malformed range header")
	errUnsatisfiableRange = errors.New("range not satisfiable")
)

// MediaHandler serves stored track files for download and range-capable
// streaming. It holds no state and is safe for arbitrary concurrent use.
type MediaHandler struct {
	tracks *service.TrackService
}

func NewMediaHandler(tracks *service.TrackService) *MediaHandler {
	return &MediaHandler{tracks: tracks}
}

// Download handles GET /api/download/track/:id/:trackType, serving the full
// file as an attachment.
func (h *MediaHandler) Download(c *fiber.Ctx) error {
	track, err := h.resolve(c)
	if err != nil {
		return response.NotFound(c, "Track not found")
	}
	return c.Download(track.FilePath, track.FileName)
}

// Stream handles GET /api/stream/:id/:trackType. Without a Range header the
// whole file is sent with a 200; with one, the requested slice is sent with
// a 206 and a Content-Range header.
func (h *MediaHandler) Stream(c *fiber.Ctx) error {
	track, err := h.resolve(c)
	if err != nil {
		return response.NotFound(c, "Track not found")
	}

	info, err := os.Stat(track.FilePath)
	if err != nil {
		return response.NotFound(c, "Track not found")
	}
	size := info.Size()

	c.Set(fiber.HeaderAcceptRanges, "bytes")
	c.Set(fiber.HeaderContentType, trackContentType)

	rangeHeader := c.Get(fiber.HeaderRange)
	if rangeHeader == "" {
		f, err := os.Open(track.FilePath)
		if err != nil {
			return response.NotFound(c, "Track not found")
		}
		c.Set(fiber.HeaderContentLength, strconv.FormatInt(size, 10))
		return c.SendStream(f, int(size))
	}

	start, end, err := parseRange(rangeHeader, size)
	if errors.Is(err, errUnsatisfiableRange) {
		c.Set(fiber.HeaderContentRange, fmt.Sprintf("bytes */%d", size))
		return response.RangeNotSatisfiable(c, "Requested range not satisfiable")
	}
	if err != nil {
		return response.ValidationError(c, "Malformed range header", nil)
	}

	f, err := os.Open(track.FilePath)
	if err != nil {
		return response.NotFound(c, "Track not found")
	}
	length := end - start + 1

	c.Set(fiber.HeaderContentRange, fmt.Sprintf("bytes %d-%d/%d", start, end, size))
	c.Set(fiber.HeaderContentLength, strconv.FormatInt(length, 10))
	c.Status(fiber.StatusPartialContent)
	return c.SendStream(&fileSection{
		f: f,
		r: io.NewSectionReader(f, start, length),
	}, int(length))
}

// resolve maps (id, trackType) to a track record. A missing file id, an
// unknown track type, and a bad id all look the same to the caller: 404.
func (h *MediaHandler) resolve(c *fiber.Ctx) (model.SeparatedTrack, error) {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return model.SeparatedTrack{}, service.ErrNotFound
	}
	return h.tracks.GetByType(c.Context(), id, c.Params("trackType"))
}

// parseRange parses a single "bytes=start-end" range. The end is clamped to
// size-1 when omitted or past the end; a start at or past the end is
// unsatisfiable; anything else that doesn't parse is malformed.
func parseRange(header string, size int64) (start, end int64, err error) {
	rangeSpec, ok := strings.CutPrefix(header, "bytes=")
	if !ok || strings.Contains(rangeSpec, ",") {
		return 0, 0, errMalformedRange
	}

	startStr, endStr, ok := strings.Cut(rangeSpec, "-")
	if !ok || startStr == "" {
		return 0, 0, errMalformedRange
	}

	start, err = strconv.ParseInt(startStr, 10, 64)
	if err != nil || start < 0 {
		return 0, 0, errMalformedRange
	}

	end = size - 1
	if endStr != "" {
		end, err = strconv.ParseInt(endStr, 10, 64)
		if err != nil || end < start {
			return 0, 0, errMalformedRange
		}
		if end > size-1 {
			end = size - 1
		}
	}

	if start >= size {
		return 0, 0, errUnsatisfiableRange
	}
	return start, end, nil
}

// fileSection is a closable view over part of a file, so the response body
// stream releases the descriptor once it has been written out.
type fileSection struct {
	f *os.File
	r io.Reader
}

func (s *fileSection) Read(p []byte) (int, error) { return s.r.Read(p) }
func (s *fileSection) Close() error               { return s.f.Close() }

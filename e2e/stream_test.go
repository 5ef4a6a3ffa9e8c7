package e2e

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stemsplit/api/internal/model"
)

// seedTrack creates an audio file with one vocals track backed by a real
// file of the given size, bypassing the worker.
func seedTrack(t *testing.T, ta *testApp, size int) (id string, filePath string) {
	t.Helper()
	ctx := context.Background()

	file, err := ta.jobs.Create(ctx, model.InsertAudioFile{
		OriginalName: "song.wav",
		FileName:     "stored.wav",
		FileSize:     int64(size),
	})
	if err != nil {
		t.Fatalf("failed to create audio file: %v", err)
	}

	filePath = filepath.Join(t.TempDir(), "vocals.wav")
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		t.Fatalf("failed to write track file: %v", err)
	}

	_, err = ta.tracks.CreateForAudioFile(ctx, model.InsertSeparatedTrack{
		AudioFileID: file.ID,
		TrackType:   "vocals",
		FileName:    "vocals.wav",
		FilePath:    filePath,
	})
	if err != nil {
		t.Fatalf("failed to create track: %v", err)
	}
	return strconv.Itoa(file.ID), filePath
}

func streamRequest(t *testing.T, ta *testApp, id, rangeHeader string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, "/api/stream/"+id+"/vocals", nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}
	resp, err := ta.app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func TestStream_FullContent(t *testing.T) {
	ta := setupApp(t, nil)
	id, _ := seedTrack(t, ta, 1000)

	resp := streamRequest(t, ta, id, "")
	assertStatus(t, resp, http.StatusOK)

	if ct := resp.Header.Get("Content-Type"); ct != "audio/wav" {
		t.Errorf("expected Content-Type audio/wav, got %q", ct)
	}
	if ar := resp.Header.Get("Accept-Ranges"); ar != "bytes" {
		t.Errorf("expected Accept-Ranges bytes, got %q", ar)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	if len(body) != 1000 {
		t.Errorf("expected 1000 bytes, got %d", len(body))
	}
}

func TestStream_PartialContent(t *testing.T) {
	ta := setupApp(t, nil)
	id, filePath := seedTrack(t, ta, 1000)

	resp := streamRequest(t, ta, id, "bytes=0-99")
	assertStatus(t, resp, http.StatusPartialContent)

	if cr := resp.Header.Get("Content-Range"); cr != "bytes 0-99/1000" {
		t.Errorf("expected Content-Range 'bytes 0-99/1000', got %q", cr)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	if len(body) != 100 {
		t.Fatalf("expected 100 bytes, got %d", len(body))
	}

	want, err := os.ReadFile(filePath)
	if err != nil {
		t.Fatalf("failed to read track file: %v", err)
	}
	for i := range body {
		if body[i] != want[i] {
			t.Fatalf("byte %d mismatch: got %d, want %d", i, body[i], want[i])
		}
	}
}

func TestStream_OpenEndedRangeClampsToEOF(t *testing.T) {
	ta := setupApp(t, nil)
	id, _ := seedTrack(t, ta, 1000)

	resp := streamRequest(t, ta, id, "bytes=900-")
	assertStatus(t, resp, http.StatusPartialContent)

	if cr := resp.Header.Get("Content-Range"); cr != "bytes 900-999/1000" {
		t.Errorf("expected Content-Range 'bytes 900-999/1000', got %q", cr)
	}
	body, _ := io.ReadAll(resp.Body)
	if len(body) != 100 {
		t.Errorf("expected 100 bytes, got %d", len(body))
	}
}

func TestStream_EndClampedToSize(t *testing.T) {
	ta := setupApp(t, nil)
	id, _ := seedTrack(t, ta, 1000)

	resp := streamRequest(t, ta, id, "bytes=500-5000")
	assertStatus(t, resp, http.StatusPartialContent)

	if cr := resp.Header.Get("Content-Range"); cr != "bytes 500-999/1000" {
		t.Errorf("expected Content-Range 'bytes 500-999/1000', got %q", cr)
	}
}

func TestStream_MalformedRanges(t *testing.T) {
	ta := setupApp(t, nil)
	id, _ := seedTrack(t, ta, 1000)

	for _, header := range []string{
		"bytes=abc-def",
		"bytes=-",
		"bytes=-100",
		"bytes=200-100",
		"items=0-99",
		"bytes=0-10,20-30",
	} {
		resp := streamRequest(t, ta, id, header)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("range %q: expected 400, got %d", header, resp.StatusCode)
		}
	}
}

func TestStream_UnsatisfiableRange(t *testing.T) {
	ta := setupApp(t, nil)
	id, _ := seedTrack(t, ta, 1000)

	resp := streamRequest(t, ta, id, "bytes=1000-")
	assertStatus(t, resp, http.StatusRequestedRangeNotSatisfiable)
	if cr := resp.Header.Get("Content-Range"); cr != "bytes */1000" {
		t.Errorf("expected Content-Range 'bytes */1000', got %q", cr)
	}
}

func TestStream_MissingTrackOrFile(t *testing.T) {
	ta := setupApp(t, nil)
	id, filePath := seedTrack(t, ta, 1000)

	// Unknown track type and unknown file id look identical to the client.
	resp := streamRequest(t, ta, "999", "")
	assertStatus(t, resp, http.StatusNotFound)

	req, _ := http.NewRequest(http.MethodGet, "/api/stream/"+id+"/bass", nil)
	resp, err := ta.app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusNotFound)

	// A registered track whose file vanished is also a 404.
	if err := os.Remove(filePath); err != nil {
		t.Fatalf("failed to remove track file: %v", err)
	}
	resp = streamRequest(t, ta, id, "")
	assertStatus(t, resp, http.StatusNotFound)
}

func TestDownload_SetsAttachmentName(t *testing.T) {
	ta := setupApp(t, nil)
	id, _ := seedTrack(t, ta, 64)

	resp := doRequest(t, ta, http.MethodGet, "/api/download/track/"+id+"/vocals")
	assertStatus(t, resp, http.StatusOK)

	cd := resp.Header.Get("Content-Disposition")
	if cd == "" {
		t.Fatal("expected Content-Disposition header")
	}
	if want := "vocals.wav"; !strings.Contains(cd, want) {
		t.Errorf("expected %q in Content-Disposition, got %q", want, cd)
	}
}

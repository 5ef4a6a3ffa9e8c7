package e2e

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/stemsplit/api/internal/config"
	"github.com/stemsplit/api/internal/handler"
	"github.com/stemsplit/api/internal/model"
	"github.com/stemsplit/api/internal/separator"
	"github.com/stemsplit/api/internal/service"
	"github.com/stemsplit/api/internal/store"
)

// testApp holds all components needed for testing.
type testApp struct {
	app    *fiber.App
	jobs   *service.JobService
	tracks *service.TrackService
}

// setupApp creates a Fiber app wired like main.go, with an in-memory store,
// temp directories, no rate limiting, and the given separator executor.
func setupApp(t *testing.T, exec separator.Executor) *testApp {
	t.Helper()

	cfg := config.Separator{
		Binary:  "separator",
		Timeout: 30,
		Tracks:  []string{"vocals", "drums", "bass", "other"},
		FileExt: ".wav",
	}

	st := store.NewMemoryStore()
	validate := validator.New()

	trackService := service.NewTrackService(st)
	jobService := service.NewJobService(st, trackService, validate)
	uploadService := service.NewUploadService(t.TempDir(), []string{".mp3", ".wav"})

	supervisor := separator.New(jobService, cfg, t.TempDir(), separator.WithExecutor(exec))

	uploadHandler := handler.NewUploadHandler(uploadService, jobService, 50*1024*1024)
	separationHandler := handler.NewSeparationHandler(jobService, trackService, uploadService, supervisor)
	mediaHandler := handler.NewMediaHandler(trackService)

	app := fiber.New(fiber.Config{
		BodyLimit: 51 * 1024 * 1024,
	})

	api := app.Group("/api")
	api.Post("/upload", uploadHandler.Upload)
	api.Post("/separate/:id", separationHandler.Separate)
	api.Post("/reset/:id", separationHandler.Reset)
	api.Get("/audio/:id", separationHandler.Status)
	api.Get("/download/track/:id/:trackType", mediaHandler.Download)
	api.Get("/stream/:id/:trackType", mediaHandler.Stream)

	return &testApp{app: app, jobs: jobService, tracks: trackService}
}

func assertStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected status %d, got %d (body: %s)", want, resp.StatusCode, body)
	}
}

func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	var result map[string]interface{}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("failed to parse JSON %q: %v", body, err)
	}
	return result
}

func doRequest(t *testing.T, ta *testApp, method, path string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, path, nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	resp, err := ta.app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

// waitForTerminal polls the status endpoint until the file leaves
// "processing" or the deadline passes.
func waitForTerminal(t *testing.T, ta *testApp, id string) map[string]interface{} {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp := doRequest(t, ta, http.MethodGet, "/api/audio/"+id)
		assertStatus(t, resp, http.StatusOK)
		result := parseJSON(t, resp)
		if s, _ := result["status"].(string); model.Status(s).Terminal() {
			return result
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("audio file %s never reached a terminal status", id)
	return nil
}

package separator

import (
	"bytes"
	"context"
	"log"
	"os"
	"path/filepath"

	"github.com/stemsplit/api/internal/config"
	"github.com/stemsplit/api/internal/model"
	"github.com/stemsplit/api/internal/service"
)

// Supervisor runs exactly one external separation attempt per accepted
// begin-processing, bounded by the configured wall-clock timeout, and
// translates the process outcome into exactly one terminal transition.
type Supervisor struct {
	jobs      *service.JobService
	cfg       config.Separator
	outputDir string
	exec      Executor
}

// Option configures the supervisor.
type Option func(*Supervisor)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(s *Supervisor) {
		if exec != nil {
			s.exec = exec
		}
	}
}

func New(jobs *service.JobService, cfg config.Separator, outputDir string, opts ...Option) *Supervisor {
	sup := &Supervisor{
		jobs:      jobs,
		cfg:       cfg,
		outputDir: outputDir,
		exec:      commandExecutor{},
	}
	for _, opt := range opts {
		opt(sup)
	}
	return sup
}

// Start launches the separation attempt off the request path. The caller
// must have won BeginProcessing for this file; the record it received
// carries the epoch the attempt runs under.
func (s *Supervisor) Start(file model.AudioFile, inputPath string) {
	go s.run(file, inputPath)
}

func (s *Supervisor) run(file model.AudioFile, inputPath string) {
	// The triggering request has returned; callbacks use their own context.
	ctx := context.Background()

	outputDir := filepath.Join(s.outputDir, file.FileName+"_separated")
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		log.Printf("audio file %d: create output dir: %v", file.ID, err)
		s.fail(ctx, file)
		return
	}

	runCtx := ctx
	if timeout := s.cfg.TimeoutDuration(); timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		// Stops the timer once the process exits, so it cannot fire
		// against a later attempt.
		defer cancel()
	}

	args := make([]string, 0, len(s.cfg.Args)+2)
	args = append(args, s.cfg.Args...)
	args = append(args, inputPath, outputDir)

	var stdout, stderr bytes.Buffer
	log.Printf("audio file %d: running %s %v", file.ID, s.cfg.Binary, args)
	if err := s.exec.Run(runCtx, s.cfg.Binary, args, &stdout, &stderr); err != nil {
		log.Printf("audio file %d: separation failed: %v\nstderr: %s", file.ID, err, tail(&stderr))
		s.fail(ctx, file)
		return
	}

	inserts := s.collectTracks(file, outputDir)
	if err := s.jobs.MarkCompleted(ctx, file.ID, file.Epoch, inserts); err != nil {
		log.Printf("audio file %d: completion not recorded: %v", file.ID, err)
		return
	}
	log.Printf("audio file %d: separation completed with %d tracks", file.ID, len(inserts))
}

// collectTracks scans the output directory for one file per configured
// track type. Missing types are skipped: partial output is still success.
func (s *Supervisor) collectTracks(file model.AudioFile, outputDir string) []model.InsertSeparatedTrack {
	types := s.cfg.Tracks
	if len(types) == 0 {
		types = model.DefaultTrackTypes
	}

	var inserts []model.InsertSeparatedTrack
	for _, trackType := range types {
		fileName := trackType + s.cfg.FileExt
		filePath := filepath.Join(outputDir, fileName)
		if _, err := os.Stat(filePath); err != nil {
			log.Printf("audio file %d: no %s output, skipping", file.ID, trackType)
			continue
		}
		inserts = append(inserts, model.InsertSeparatedTrack{
			AudioFileID: file.ID,
			TrackType:   trackType,
			FileName:    fileName,
			FilePath:    filePath,
		})
	}
	return inserts
}

func (s *Supervisor) fail(ctx context.Context, file model.AudioFile) {
	if err := s.jobs.MarkError(ctx, file.ID, file.Epoch); err != nil {
		log.Printf("audio file %d: error not recorded: %v", file.ID, err)
	}
}

func tail(buf *bytes.Buffer) string {
	const max = 2048
	b := buf.Bytes()
	if len(b) > max {
		b = b[len(b)-max:]
	}
	return string(bytes.TrimSpace(b))
}

package state

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/stridesec/threatflow/internal/platform/logger"
)

/*
Store is the filesystem contract between running pipeline steps and the
frontend that polls them.

Layout under Config.OutputDir, one file per (kind, step):
  - step_<N>_progress.json  written by the step, read by the frontend poller
  - step_<N>_kill.flag      created by the operator/UI, polled by the step

Exactly one writer per progress file and one external actor per kill flag is
assumed; isolation between concurrent steps comes from the file names alone.
Progress and kill operations are best-effort telemetry and advisory control:
they log failures and keep going, they never fail the step that calls them.
*/
type Store struct {
	cfg Config
	log *logger.Logger
}

// StepProgress is the progress document for one step. A step writes it on
// every progress update (whole-file replace, no history) and removes it on
// successful completion, so a leftover document after a run means the step
// terminated abnormally.
type StepProgress struct {
	Step      int     `json:"step"`
	Current   int     `json:"current"`
	Total     int     `json:"total"`
	Progress  float64 `json:"progress"`
	Message   string  `json:"message"`
	Details   string  `json:"details"`
	Timestamp string  `json:"timestamp"`
}

func NewStore(cfg Config, log *logger.Logger) *Store {
	if strings.TrimSpace(cfg.OutputDir) == "" {
		cfg.OutputDir = DefaultOutputDir
	}
	if log != nil {
		log = log.With("component", "StateStore")
	}
	return &Store{cfg: cfg, log: log}
}

func (s *Store) OutputDir() string {
	return s.cfg.OutputDir
}

func (s *Store) ProgressPath(step int) string {
	return filepath.Join(s.cfg.OutputDir, fmt.Sprintf("step_%d_progress.json", step))
}

func (s *Store) KillFlagPath(step int) string {
	return filepath.Join(s.cfg.OutputDir, fmt.Sprintf("step_%d_kill.flag", step))
}

/*
RecordProgress persists the current progress of a step.

Percentage is current/total*100 rounded to one decimal; total == 0 means the
total is unknown and reports 0 rather than dividing by zero. current > total
is not rejected (the document simply reports more than 100%).

This never returns or raises anything: a step must not fail because its
telemetry could not be written, so every I/O failure ends in a warning log.
*/
func (s *Store) RecordProgress(step, current, total int, message, details string) {
	if s == nil {
		return
	}
	pct := 0.0
	if total > 0 {
		pct = math.Round(float64(current)/float64(total)*1000) / 10
	}
	doc := StepProgress{
		Step:      step,
		Current:   current,
		Total:     total,
		Progress:  pct,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().Format(time.RFC3339),
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		s.warn("Progress document marshal failed", "step", step, "error", err)
		return
	}
	if err := os.MkdirAll(s.cfg.OutputDir, 0o755); err != nil {
		s.warn("Progress output dir unavailable", "step", step, "dir", s.cfg.OutputDir, "error", err)
		return
	}
	if err := os.WriteFile(s.ProgressPath(step), raw, 0o644); err != nil {
		s.warn("Progress write failed", "step", step, "path", s.ProgressPath(step), "error", err)
	}
}

// ReadProgress loads the progress document for a step. A missing document is
// reported via the os.IsNotExist error and means no run is in flight (or the
// last run completed cleanly).
func (s *Store) ReadProgress(step int) (*StepProgress, error) {
	raw, err := os.ReadFile(s.ProgressPath(step))
	if err != nil {
		return nil, err
	}
	var doc StepProgress
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode progress document for step %d: %w", step, err)
	}
	return &doc, nil
}

// ClearProgress removes a step's progress document. Steps call this right
// before returning successfully so that a stale document reliably signals an
// abnormal termination. Absence and deletion failures are both tolerated;
// the kill flag, if any, is left alone (its creator owns its lifecycle).
func (s *Store) ClearProgress(step int) {
	if s == nil {
		return
	}
	if err := os.Remove(s.ProgressPath(step)); err != nil && !os.IsNotExist(err) {
		s.warn("Progress cleanup failed", "step", step, "path", s.ProgressPath(step), "error", err)
	}
}

func (s *Store) warn(msg string, keysAndValues ...interface{}) {
	if s == nil || s.log == nil {
		return
	}
	s.log.Warn(msg, keysAndValues...)
}

func (s *Store) debug(msg string, keysAndValues ...interface{}) {
	if s == nil || s.log == nil {
		return
	}
	s.log.Debug(msg, keysAndValues...)
}

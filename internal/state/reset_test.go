package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stridesec/threatflow/internal/platform/logger"
)

func writeFileT(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestResetRemovesKnownArtifacts(t *testing.T) {
	out := t.TempDir()
	s := newTestStore(t, out)

	writeFileT(t, filepath.Join(out, "step_2_dfd.json"))
	writeFileT(t, filepath.Join(out, "step_3_threats.json"))
	writeFileT(t, filepath.Join(out, "llm_request_debug.json"))
	s.RecordProgress(2, 1, 4, "running", "")
	if err := s.RequestKill(5); err != nil {
		t.Fatalf("RequestKill: %v", err)
	}
	// Unrelated files survive the sweep.
	writeFileT(t, filepath.Join(out, "notes.json"))

	removed := s.Reset()
	if removed != 5 {
		t.Fatalf("removed: want=5 got=%d", removed)
	}
	if _, err := s.ReadProgress(2); !os.IsNotExist(err) {
		t.Fatalf("progress doc should be gone, err=%v", err)
	}
	if s.IsKillRequested(5) {
		t.Fatalf("kill flag should be gone")
	}
	if _, err := os.Stat(filepath.Join(out, "notes.json")); err != nil {
		t.Fatalf("unrelated file removed: %v", err)
	}
}

func TestResetIsIdempotentAndToleratesMissingDir(t *testing.T) {
	out := t.TempDir()
	s := newTestStore(t, out)
	writeFileT(t, filepath.Join(out, "step_5_report.json"))

	first := s.Reset()
	second := s.Reset()
	if first != 1 || second != 0 {
		t.Fatalf("runs: want=(1,0) got=(%d,%d)", first, second)
	}

	// Output dir absent entirely: still no error, zero removals.
	gone := NewStore(Config{OutputDir: filepath.Join(out, "never_created")}, nil)
	if n := gone.Reset(); n != 0 {
		t.Fatalf("absent dir: want=0 got=%d", n)
	}
}

func TestResetPrunesStaleUploads(t *testing.T) {
	out := t.TempDir()
	uploads := t.TempDir()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(log.Sync)
	s := NewStore(Config{OutputDir: out, UploadDirs: []string{uploads}}, log)

	older := filepath.Join(uploads, "a_extracted.txt")
	newer := filepath.Join(uploads, "b_extracted.txt")
	writeFileT(t, older)
	writeFileT(t, newer)
	base := time.Now().Add(-time.Hour)
	if err := os.Chtimes(older, base, base); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	if err := os.Chtimes(newer, base.Add(time.Minute), base.Add(time.Minute)); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	// Files outside both suffix conventions are never pruned.
	keepMe := filepath.Join(uploads, "config.yaml")
	writeFileT(t, keepMe)

	removed := s.Reset()
	if removed != 1 {
		t.Fatalf("removed: want=1 got=%d", removed)
	}
	if _, err := os.Stat(older); !os.IsNotExist(err) {
		t.Fatalf("older upload should be gone, err=%v", err)
	}
	if _, err := os.Stat(newer); err != nil {
		t.Fatalf("newest upload must be kept: %v", err)
	}
	if _, err := os.Stat(keepMe); err != nil {
		t.Fatalf("non-upload file must be kept: %v", err)
	}
}

func TestResetUploadTieBreakIsLexicographic(t *testing.T) {
	out := t.TempDir()
	uploads := t.TempDir()
	s := NewStore(Config{OutputDir: out, UploadDirs: []string{uploads}}, nil)

	a := filepath.Join(uploads, "alpha.pdf")
	b := filepath.Join(uploads, "beta.pdf")
	writeFileT(t, a)
	writeFileT(t, b)
	ts := time.Now().Add(-time.Hour)
	for _, p := range []string{a, b} {
		if err := os.Chtimes(p, ts, ts); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	if n := s.Reset(); n != 1 {
		t.Fatalf("removed: want=1 got=%d", n)
	}
	if _, err := os.Stat(b); err != nil {
		t.Fatalf("lexicographically greatest name must be kept: %v", err)
	}
	if _, err := os.Stat(a); !os.IsNotExist(err) {
		t.Fatalf("other tie candidate should be gone, err=%v", err)
	}
}

func TestPlanDoesNotRemove(t *testing.T) {
	out := t.TempDir()
	s := newTestStore(t, out)
	writeFileT(t, filepath.Join(out, "step_4_attack_mapping.json"))
	s.RecordProgress(4, 1, 2, "running", "")

	plan := s.Plan()
	if len(plan) != 2 {
		t.Fatalf("plan length: want=2 got=%d (%v)", len(plan), plan)
	}
	for _, p := range plan {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("plan must not delete %s: %v", p, err)
		}
	}
}

func TestManifestEnvOverride(t *testing.T) {
	out := t.TempDir()
	manifest := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(manifest, []byte("artifacts:\n  - only_this.json\n"), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	t.Setenv("RESET_MANIFEST_YAML", manifest)

	s := newTestStore(t, out)
	writeFileT(t, filepath.Join(out, "only_this.json"))
	writeFileT(t, filepath.Join(out, "step_2_dfd.json"))

	if n := s.Reset(); n != 1 {
		t.Fatalf("removed: want=1 got=%d", n)
	}
	if _, err := os.Stat(filepath.Join(out, "step_2_dfd.json")); err != nil {
		t.Fatalf("default artifact must survive under override manifest: %v", err)
	}
}

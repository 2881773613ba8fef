package state

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

/*
Reset returns the pipeline to a clean slate: it removes every manifest-listed
artifact under the output dir (final step outputs, progress documents, kill
flags, debug intercepts) and prunes each upload dir down to its single most
recent document.

Missing files and missing directories are not errors, and every deletion is
guarded independently so one failure cannot block the rest of the sweep.
Returns the number of items actually removed; it never returns an error.
*/
func (s *Store) Reset() int {
	if s == nil {
		return 0
	}
	return len(s.sweep(false))
}

// Plan returns the paths Reset would remove right now, without touching
// anything. Backs the reset CLI's --dry-run.
func (s *Store) Plan() []string {
	if s == nil {
		return nil
	}
	return s.sweep(true)
}

func (s *Store) sweep(dryRun bool) []string {
	m := s.loadManifest()

	targets := make([]string, 0, len(m.Artifacts)+len(m.StepFiles)*len(Steps()))
	for _, name := range m.Artifacts {
		targets = append(targets, filepath.Join(s.cfg.OutputDir, name))
	}
	for _, tpl := range m.StepFiles {
		for _, step := range Steps() {
			targets = append(targets, filepath.Join(s.cfg.OutputDir, fmt.Sprintf(tpl, step)))
		}
	}

	var removed []string
	for _, path := range targets {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if !dryRun {
			if err := os.Remove(path); err != nil {
				s.warn("Reset artifact removal failed", "path", path, "error", err)
				continue
			}
			s.debug("Removed pipeline artifact", "path", path)
		}
		removed = append(removed, path)
	}

	for _, dir := range s.cfg.UploadDirs {
		removed = append(removed, s.pruneStaleUploads(dir, m, dryRun)...)
	}
	return removed
}

/*
pruneStaleUploads keeps only the newest document in an upload dir, among
files matching either upload convention (extracted text or raw source).

Retention order: most recent modification time wins; identical timestamps
are broken by keeping the lexicographically greatest filename, so repeated
resets are deterministic regardless of directory listing order.
*/
func (s *Store) pruneStaleUploads(dir string, m Manifest, dryRun bool) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		// Absent or unreadable upload dir: nothing to prune.
		return nil
	}

	type candidate struct {
		name string
		mod  time.Time
	}
	var cands []candidate
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !hasAnySuffix(name, m.ExtractedSuffixes) && !hasAnySuffix(name, m.SourceSuffixes) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			s.warn("Upload stat failed during reset", "dir", dir, "file", name, "error", err)
			continue
		}
		cands = append(cands, candidate{name: name, mod: info.ModTime()})
	}
	if len(cands) <= 1 {
		return nil
	}

	sort.Slice(cands, func(i, j int) bool {
		if !cands[i].mod.Equal(cands[j].mod) {
			return cands[i].mod.After(cands[j].mod)
		}
		return cands[i].name > cands[j].name
	})

	var removed []string
	for _, c := range cands[1:] {
		path := filepath.Join(dir, c.name)
		if !dryRun {
			if err := os.Remove(path); err != nil {
				s.warn("Stale upload removal failed", "path", path, "error", err)
				continue
			}
			s.debug("Removed stale upload", "path", path, "kept", cands[0].name)
		}
		removed = append(removed, path)
	}
	return removed
}

func hasAnySuffix(name string, suffixes []string) bool {
	for _, suf := range suffixes {
		if suf != "" && strings.HasSuffix(name, suf) {
			return true
		}
	}
	return false
}

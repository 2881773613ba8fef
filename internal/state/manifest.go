package state

import (
	"embed"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const resetManifestEnv = "RESET_MANIFEST_YAML"

//go:embed reset.yaml
var resetManifestFS embed.FS

// Manifest describes what a reset sweeps: named artifacts and per-step file
// templates under the output dir, plus the two upload filename conventions
// (extracted-text documents and raw source documents) used to prune stale
// uploads.
type Manifest struct {
	Artifacts         []string `yaml:"artifacts"`
	StepFiles         []string `yaml:"step_files"`
	ExtractedSuffixes []string `yaml:"extracted_suffixes"`
	SourceSuffixes    []string `yaml:"source_suffixes"`
}

// loadManifest resolves the reset manifest: an env-pointed override when
// present and parseable, otherwise the embedded default. A broken override
// falls back rather than failing, reset must always be able to run.
func (s *Store) loadManifest() Manifest {
	if path := strings.TrimSpace(os.Getenv(resetManifestEnv)); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			s.warn("Reset manifest override unreadable, using built-in", "path", path, "error", err)
			return s.defaultManifest()
		}
		var m Manifest
		if err := yaml.Unmarshal(raw, &m); err != nil {
			s.warn("Reset manifest override invalid, using built-in", "path", path, "error", err)
			return s.defaultManifest()
		}
		return m
	}
	return s.defaultManifest()
}

func (s *Store) defaultManifest() Manifest {
	raw, err := resetManifestFS.ReadFile("reset.yaml")
	if err != nil {
		s.warn("Embedded reset manifest unreadable", "error", err)
		return Manifest{}
	}
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		s.warn("Embedded reset manifest invalid", "error", err)
		return Manifest{}
	}
	return m
}

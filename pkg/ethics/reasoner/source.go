package reasoner

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// FileSource loads a pattern set from a YAML file on disk.
type FileSource struct {
	path   string
	logger *slog.Logger
}

// NewFileSource creates a file-based pattern source.
func NewFileSource(path string, logger *slog.Logger) *FileSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSource{
		path:   path,
		logger: logger.With("component", "ethics.patterns"),
	}
}

// Load reads and validates the pattern set from the configured path.
func (s *FileSource) Load() (*PatternSet, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pattern file %q: %w", s.path, err)
	}

	var patterns PatternSet
	if err := yaml.Unmarshal(data, &patterns); err != nil {
		return nil, fmt.Errorf("failed to parse pattern file %q: %w", s.path, err)
	}

	if err := patterns.Validate(); err != nil {
		return nil, fmt.Errorf("pattern file %q: %w", s.path, err)
	}

	s.logger.Info("loaded pattern set",
		"path", s.path,
		"harmful", len(patterns.Harmful),
		"high_risk", len(patterns.HighRisk),
		"privacy", len(patterns.Privacy),
		"deceptive", len(patterns.Deceptive),
		"sensitive", len(patterns.Sensitive),
	)

	return &patterns, nil
}

// Package download manages where a download's files live while they are being written: each download gets a
// private temporary directory next to its target, and only complete files are renamed into the target directory.
package download

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

const (
	tempDirPattern = ".video-grabber-*"
)

type stateConfig struct {
	baseTargetDir string
	baseTempDir   string
}

type StateOption func(*stateConfig)

func WithTargetDir(dir string) StateOption {
	return func(c *stateConfig) {
		c.baseTargetDir = dir
	}
}

// WithTempDir overrides where the temporary directory is created. It defaults to the target directory, so that
// completed files can be renamed into place without crossing filesystems.
func WithTempDir(dir string) StateOption {
	return func(c *stateConfig) {
		c.baseTempDir = dir
	}
}

type State struct {
	config  stateConfig
	tempDir string
}

func newState(config stateConfig) (*State, error) {
	if config.baseTargetDir == "" {
		config.baseTargetDir = "."
	}
	if err := os.MkdirAll(config.baseTargetDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create target dir: %w", err)
	}
	if config.baseTempDir == "" {
		config.baseTempDir = config.baseTargetDir
	}
	tempDir, err := os.MkdirTemp(config.baseTempDir, tempDirPattern)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	return &State{
		config:  config,
		tempDir: tempDir,
	}, nil
}

func (s *State) close() {
	if err := os.RemoveAll(s.tempDir); err != nil {
		zap.S().Named("download").Warnf("failed to clean up temp dir %v: %v", s.tempDir, err)
	}
}

// CreateTemp creates a new file in the download's temporary directory.
func (s *State) CreateTemp(pattern string) (*os.File, error) {
	return os.CreateTemp(s.tempDir, pattern)
}

// TargetPath returns where a file with this name ends up once committed.
func (s *State) TargetPath(filename string) string {
	return filepath.Join(s.config.baseTargetDir, filename)
}

// Commit closes a file created by CreateTemp and moves it to TargetPath(filename), replacing any existing file.
func (s *State) Commit(f *os.File, filename string) (string, error) {
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	target := s.TargetPath(filename)
	if err := os.Rename(f.Name(), target); err != nil {
		return "", fmt.Errorf("failed to move file into place: %w", err)
	}
	return target, nil
}

// WithState runs f with a fresh State, cleaning up its temporary directory (and anything not committed) afterwards.
func WithState(f func(state *State) error, opts ...StateOption) error {
	var config stateConfig
	for _, opt := range opts {
		opt(&config)
	}
	state, err := newState(config)
	if err != nil {
		return err
	}
	defer state.close()
	return f(state)
}

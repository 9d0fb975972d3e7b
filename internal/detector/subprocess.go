package detector

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"

	"go.uber.org/zap"
)

// SubprocessSource runs an external landmark extractor (typically a MediaPipe
// script that owns the camera) and reads one JSON frame per stdout line.
type SubprocessSource struct {
	config  Config
	command []string
	log     *zap.Logger

	cmd     *exec.Cmd
	stdout  io.ReadCloser
	replay  *ReplaySource
	mu      sync.Mutex
	started bool
}

// NewSubprocessSource creates a source for the given command line. The process
// is started lazily on the first call to Next.
func NewSubprocessSource(command []string, config Config, log *zap.Logger) (*SubprocessSource, error) {
	if len(command) == 0 || command[0] == "" {
		return nil, fmt.Errorf("landmark source command is empty")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SubprocessSource{
		config:  config,
		command: command,
		log:     log.Named("subprocess"),
	}, nil
}

// Next returns the next frame reported by the extractor.
func (s *SubprocessSource) Next(ctx context.Context) (Frame, error) {
	s.mu.Lock()
	if err := s.ensureStarted(); err != nil {
		s.mu.Unlock()
		return Frame{}, err
	}
	replay := s.replay
	s.mu.Unlock()

	return replay.Next(ctx)
}

// Close stops the extractor process.
func (s *SubprocessSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdown()
}

func (s *SubprocessSource) ensureStarted() error {
	if s.started {
		return nil
	}

	name := s.command[0]
	if python := findVenvPython(); python != "" && filepath.Ext(name) == ".py" {
		s.command = append([]string{python}, s.command...)
		name = python
	}

	args := append([]string{}, s.command[1:]...)
	args = append(args,
		"--max-hands", strconv.Itoa(s.config.MaxHands),
		"--min-detection-confidence", strconv.FormatFloat(s.config.MinConfidence, 'f', -1, 64),
		"--min-tracking-confidence", strconv.FormatFloat(s.config.MinTrackingConf, 'f', -1, 64),
	)

	s.cmd = exec.Command(name, args...)

	stdout, err := s.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	// Extractor diagnostics go straight to our stderr
	s.cmd.Stderr = os.Stderr

	if err := s.cmd.Start(); err != nil {
		return fmt.Errorf("start landmark source: %w", err)
	}

	s.stdout = stdout
	s.replay = NewReplaySource(stdout, s.log)
	s.started = true

	s.log.Info("landmark source started", zap.String("command", name), zap.Int("pid", s.cmd.Process.Pid))
	return nil
}

func (s *SubprocessSource) shutdown() error {
	if !s.started {
		return nil
	}

	if s.cmd.Process != nil {
		s.cmd.Process.Kill()
	}
	s.stdout.Close()

	err := s.cmd.Wait()
	s.started = false
	s.cmd = nil
	s.stdout = nil
	s.replay = nil

	// Killed on purpose; the exit status carries no information.
	if _, ok := err.(*exec.ExitError); ok {
		return nil
	}
	return err
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".mudra/venv/bin/python"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			if abs, err := filepath.Abs(path); err == nil {
				return abs
			}
			return path
		}
	}
	return ""
}

// Package fixtures embeds recorded landmark sequences in the JSON-lines wire
// format for replay and end-to-end tests.
package fixtures

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sort"
	"strings"

	"github.com/ayusman/mudra/internal/detector"
)

//go:embed sequences/*.jsonl
var sequencesFS embed.FS

// Recorded sequences.
const (
	// RevealConceal holds five middle-finger frames then five prayer frames.
	RevealConceal = "reveal_conceal"
	// Flicker holds a middle-finger streak broken by one open palm.
	Flicker = "flicker"
	// Noisy mixes empty frames, malformed hands and an undecodable line
	// ahead of a middle-finger streak.
	Noisy = "noisy"
)

// LoadSequence returns the raw bytes of a sequence.
func LoadSequence(name string) ([]byte, error) {
	data, err := sequencesFS.ReadFile("sequences/" + name + ".jsonl")
	if err != nil {
		return nil, fmt.Errorf("load sequence %s: %w", name, err)
	}
	return data, nil
}

// Source returns a replay source over a sequence.
func Source(name string) (*detector.ReplaySource, error) {
	data, err := LoadSequence(name)
	if err != nil {
		return nil, err
	}
	return detector.NewReplaySource(bytes.NewReader(data), nil), nil
}

// Frames decodes every frame of a sequence.
func Frames(name string) ([]detector.Frame, error) {
	src, err := Source(name)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	var frames []detector.Frame
	for {
		f, err := src.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return frames, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decode sequence %s: %w", name, err)
		}
		frames = append(frames, f)
	}
}

// Names lists the embedded sequences.
func Names() []string {
	entries, err := fs.ReadDir(sequencesFS, "sequences")
	if err != nil {
		return nil
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".jsonl"))
	}
	sort.Strings(names)
	return names
}

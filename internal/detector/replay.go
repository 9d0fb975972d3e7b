package detector

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
)

// maxLineSize bounds a single JSON frame line. Two hands of 21 points fit in
// well under 8KB; the headroom covers verbose extractors.
const maxLineSize = 1 << 20

// ReplaySource reads JSON-lines frames from a reader. Each non-blank line is
// one frame in the wire format accepted by DecodeFrame.
type ReplaySource struct {
	r       io.Reader
	closer  io.Closer
	scanner *bufio.Scanner
	log     *zap.Logger
	seq     uint64
	mu      sync.Mutex
}

// NewReplaySource wraps r. If r is also an io.Closer, Close closes it.
func NewReplaySource(r io.Reader, log *zap.Logger) *ReplaySource {
	if log == nil {
		log = zap.NewNop()
	}
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	src := &ReplaySource{
		r:       r,
		scanner: s,
		log:     log.Named("replay"),
	}
	if c, ok := r.(io.Closer); ok {
		src.closer = c
	}
	return src
}

// Next returns the next decodable frame. Lines that fail to decode are logged
// and skipped. Frames without a sequence number are numbered in read order.
func (s *ReplaySource) Next(ctx context.Context) (Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		if err := ctx.Err(); err != nil {
			return Frame{}, err
		}

		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return Frame{}, fmt.Errorf("read frame: %w", err)
			}
			return Frame{}, io.EOF
		}

		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		frame, err := DecodeFrame(line)
		if err != nil {
			s.log.Warn("skipping undecodable frame", zap.Uint64("after_seq", s.seq), zap.Error(err))
			continue
		}

		s.seq++
		if frame.Seq == 0 {
			frame.Seq = s.seq
		}
		return frame, nil
	}
}

// Close closes the underlying reader when it is closable.
func (s *ReplaySource) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

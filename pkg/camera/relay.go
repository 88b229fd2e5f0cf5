package camera

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	// ErrNoFrame indicates no frame has been captured yet
	ErrNoFrame = errors.New("no frame captured yet")

	// ErrNoCommand indicates the relay has no capture command configured
	ErrNoCommand = errors.New("no capture command configured")
)

var (
	soi = []byte{0xFF, 0xD8}
	eoi = []byte{0xFF, 0xD9}
)

// maxFrameSize bounds a single JPEG frame.
const maxFrameSize = 8 << 20

// Frame is one captured JPEG image.
type Frame struct {
	Data       []byte
	CapturedAt time.Time
}

// Sink receives every frame the relay captures.
type Sink interface {
	Broadcast(frame []byte)
}

// Relay runs the capture command and forwards its JPEG frames to a sink.
type Relay struct {
	command []string
	sink    Sink
	logger  zerolog.Logger

	mu     sync.RWMutex
	latest Frame
	frames uint64
}

// NewRelay creates a relay for command. sink may be nil.
func NewRelay(command []string, sink Sink, logger zerolog.Logger) *Relay {
	return &Relay{command: command, sink: sink, logger: logger}
}

// Run starts the capture process and relays frames until it exits or ctx is
// cancelled. The process exit status is logged and returned.
func (r *Relay) Run(ctx context.Context) error {
	if len(r.command) == 0 {
		return ErrNoCommand
	}

	cmd := exec.CommandContext(ctx, r.command[0], r.command[1:]...)
	cmd.WaitDelay = 5 * time.Second
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to open capture stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", r.command[0], err)
	}
	r.logger.Info().Str("command", r.command[0]).Int("pid", cmd.Process.Pid).Msg("Capture process started")

	copyErr := r.Consume(stdout)
	if copyErr != nil {
		// Nothing reads stdout any more; a writer blocked on the pipe would
		// keep Wait from returning.
		r.logger.Error().Err(copyErr).Msg("Frame stream unreadable, stopping capture process")
		_ = cmd.Process.Kill()
	}
	waitErr := cmd.Wait()

	code := -1
	if cmd.ProcessState != nil {
		code = cmd.ProcessState.ExitCode()
	}
	r.logger.Info().Int("code", code).Uint64("frames", r.Frames()).Msg("Capture process exited")

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if copyErr != nil {
		return copyErr
	}
	if waitErr != nil {
		return fmt.Errorf("capture process failed: %w", waitErr)
	}
	return nil
}

// Consume reads a JPEG byte stream from rd, publishing each complete frame,
// until rd is exhausted.
func (r *Relay) Consume(rd io.Reader) error {
	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 0, 64*1024), maxFrameSize)
	scanner.Split(SplitJPEG)
	for scanner.Scan() {
		frame := make([]byte, len(scanner.Bytes()))
		copy(frame, scanner.Bytes())
		r.publish(frame)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read frames: %w", err)
	}
	return nil
}

func (r *Relay) publish(frame []byte) {
	r.mu.Lock()
	r.latest = Frame{Data: frame, CapturedAt: time.Now()}
	r.frames++
	r.mu.Unlock()

	if r.sink != nil {
		r.sink.Broadcast(frame)
	}
}

// Latest returns the most recent frame.
func (r *Relay) Latest() (Frame, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.latest.Data == nil {
		return Frame{}, ErrNoFrame
	}
	return r.latest, nil
}

// Frames returns how many frames have been captured.
func (r *Relay) Frames() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frames
}

// SplitJPEG is a bufio.SplitFunc yielding complete JPEG images delimited by
// the SOI and EOI markers. Bytes before an SOI marker are skipped.
func SplitJPEG(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := bytes.Index(data, soi)
	if start < 0 {
		if atEOF {
			return len(data), nil, nil
		}
		// keep a trailing 0xFF that may begin a marker
		if n := len(data); n > 0 && data[n-1] == 0xFF {
			return n - 1, nil, nil
		}
		return len(data), nil, nil
	}
	end := bytes.Index(data[start+len(soi):], eoi)
	if end < 0 {
		if atEOF {
			return len(data), nil, nil
		}
		return start, nil, nil
	}
	stop := start + len(soi) + end + len(eoi)
	return stop, data[start:stop], nil
}

// Package audio plays clips on the local output device and manages the clip cache.
package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"

	"go.uber.org/zap"

	"github.com/inside-thenga/thenga/pkg/logger"
	"github.com/inside-thenga/thenga/pkg/metrics"
)

var (
	// ErrClipNotFound is returned when the requested file does not exist.
	ErrClipNotFound = errors.New("audio file not found")

	// ErrPlaybackDisabled is returned when no player is available.
	ErrPlaybackDisabled = errors.New("audio playback not available")
)

// Player starts playback of a file without waiting for it to finish.
type Player interface {
	Play(path string) (*Playback, error)
}

// Playback is a handle on one background playback.
type Playback struct {
	File string

	done chan struct{}
	err  error
}

func newPlayback(file string) *Playback {
	return &Playback{File: file, done: make(chan struct{})}
}

// Finished returns a playback that has already completed with err.
func Finished(file string, err error) *Playback {
	p := newPlayback(file)
	p.finish(err)
	return p
}

func (p *Playback) finish(err error) {
	p.err = err
	close(p.done)
}

// Done is closed when playback ends.
func (p *Playback) Done() <-chan struct{} { return p.done }

// Err reports how playback ended. It is nil until Done is closed.
func (p *Playback) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

// Wait blocks until playback ends or ctx is done.
func (p *Playback) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ExecPlayer plays files by running an external command line with the file
// appended, e.g. "mpg123 -q".
type ExecPlayer struct {
	command []string
	logger  *logger.Logger

	mu      sync.Mutex
	running map[*exec.Cmd]struct{}
}

// NewExecPlayer creates a player. An empty command, or one whose binary cannot be
// found, yields a player that reports ErrPlaybackDisabled.
func NewExecPlayer(command []string, log *logger.Logger) *ExecPlayer {
	log = log.Component("audio")
	if len(command) > 0 {
		if _, err := exec.LookPath(command[0]); err != nil {
			log.Warn("audio playback initialization failed", zap.String("player", command[0]), zap.Error(err))
			command = nil
		} else {
			log.Info("audio playback initialized", zap.Strings("player", command))
		}
	}
	return &ExecPlayer{
		command: command,
		logger:  log,
		running: make(map[*exec.Cmd]struct{}),
	}
}

// Enabled reports whether playback is possible.
func (p *ExecPlayer) Enabled() bool {
	return len(p.command) > 0
}

// Play implements Player. The returned error covers only failures to start.
func (p *ExecPlayer) Play(path string) (*Playback, error) {
	if !p.Enabled() {
		metrics.RecordPlayback(false)
		return nil, ErrPlaybackDisabled
	}
	if _, err := os.Stat(path); err != nil {
		metrics.RecordPlayback(false)
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrClipNotFound, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	args := append(append([]string{}, p.command[1:]...), path)
	cmd := exec.Command(p.command[0], args...)
	if err := cmd.Start(); err != nil {
		metrics.RecordPlayback(false)
		return nil, fmt.Errorf("starting player: %w", err)
	}
	metrics.RecordPlayback(true)
	p.logger.Info("playing audio file", zap.String("file", path))

	p.mu.Lock()
	p.running[cmd] = struct{}{}
	p.mu.Unlock()

	pb := newPlayback(path)
	go func() {
		err := cmd.Wait()
		p.mu.Lock()
		delete(p.running, cmd)
		p.mu.Unlock()

		if err != nil {
			p.logger.Warn("error during audio playback", zap.String("file", path), zap.Error(err))
		} else {
			p.logger.Debug("audio playback completed", zap.String("file", path))
		}
		pb.finish(err)
	}()
	return pb, nil
}

// Stop kills any playback still running.
func (p *ExecPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for cmd := range p.running {
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
	}
}

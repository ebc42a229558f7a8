package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/inside-thenga/thenga/internal/model"
	"github.com/inside-thenga/thenga/internal/tts"
	"github.com/inside-thenga/thenga/pkg/logger"
	"github.com/inside-thenga/thenga/pkg/metrics"
)

// ErrInvalidName is returned for clip names that are not a plain file name.
var ErrInvalidName = errors.New("invalid audio file name")

// Synthesizer produces audio for notification text.
type Synthesizer interface {
	SynthesizeVoice(ctx context.Context, text string, voice tts.VoiceProfile) (*tts.Result, error)
}

// Library is the directory of playable clips. Missing notification clips are
// synthesized on first use and kept under their deterministic name.
type Library struct {
	dir    string
	synth  Synthesizer
	voice  tts.VoiceProfile
	group  singleflight.Group
	logger *logger.Logger
}

// NewLibrary opens dir, creating it if needed. Clips are generated with the
// Malayalam voice.
func NewLibrary(dir string, synth Synthesizer, log *logger.Logger) (*Library, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving audio dir: %w", err)
	}
	log = log.Component("audio")
	if _, err := os.Stat(abs); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(abs, 0o755); err != nil {
			return nil, fmt.Errorf("creating audio dir: %w", err)
		}
		log.Info("created audio directory", zap.String("dir", abs))
	}
	return &Library{
		dir:    abs,
		synth:  synth,
		voice:  tts.Malayalam,
		logger: log,
	}, nil
}

// Dir returns the absolute clip directory.
func (l *Library) Dir() string { return l.dir }

// Path resolves a clip name inside the directory. Names containing path
// separators or dot segments are rejected.
func (l *Library) Path(name string) (string, error) {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(l.dir, name), nil
}

// Exists reports whether the named clip is present.
func (l *Library) Exists(name string) bool {
	path, err := l.Path(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Ensure returns the path of the named clip, synthesizing text into it first when
// the file is missing. Concurrent callers for the same name share one synthesis.
func (l *Library) Ensure(ctx context.Context, name, text string) (string, error) {
	path, err := l.Path(name)
	if err != nil {
		return "", err
	}
	if l.Exists(name) {
		return path, nil
	}

	_, err, _ = l.group.Do(name, func() (any, error) {
		if l.Exists(name) {
			return nil, nil
		}
		l.logger.Info("generating notification audio", zap.String("file", name))

		// Shared by every waiter, so not bound to the first caller's cancellation.
		res, err := l.synth.SynthesizeVoice(context.WithoutCancel(ctx), text, l.voice)
		if err != nil {
			metrics.ClipGenerationsTotal.WithLabelValues("failure").Inc()
			return nil, fmt.Errorf("generating %s: %w", name, err)
		}
		if err := writeAtomic(l.dir, path, res.Audio); err != nil {
			metrics.ClipGenerationsTotal.WithLabelValues("failure").Inc()
			return nil, err
		}
		metrics.ClipGenerationsTotal.WithLabelValues("success").Inc()
		l.logger.Info("generated notification audio",
			zap.String("file", path),
			zap.String("strategy", res.Strategy),
		)
		return nil, nil
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

// List returns the mp3 and wav files in the directory sorted by name.
func (l *Library) List() ([]model.AudioFile, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.AudioFile{}, nil
		}
		return nil, fmt.Errorf("reading audio dir: %w", err)
	}

	files := make([]model.AudioFile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".mp3" && ext != ".wav" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, model.AudioFile{
			Filename: e.Name(),
			Size:     info.Size(),
			Created:  model.Timestamp(info.ModTime()),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Filename < files[j].Filename })
	return files, nil
}

func writeAtomic(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, ".clip-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing clip: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing clip: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming clip: %w", err)
	}
	return nil
}

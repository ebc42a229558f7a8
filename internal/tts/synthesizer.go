// Package tts turns text into speech through an ordered chain of engines.
package tts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/inside-thenga/thenga/internal/language"
	"github.com/inside-thenga/thenga/internal/model"
	"github.com/inside-thenga/thenga/pkg/logger"
	"github.com/inside-thenga/thenga/pkg/metrics"
	"github.com/inside-thenga/thenga/pkg/tracing"
)

// ContentType is the MIME type of every synthesized clip.
const ContentType = "audio/mpeg"

// Strategy is one speech engine in the chain.
type Strategy interface {
	// Name identifies the engine in logs, metrics and errors.
	Name() string

	// Synthesize returns mp3 audio for text spoken with voice.
	Synthesize(ctx context.Context, text string, voice VoiceProfile) ([]byte, error)
}

// VoiceLister is implemented by strategies that can enumerate their voices.
type VoiceLister interface {
	ListVoices(ctx context.Context) ([]model.Voice, error)
}

// Result is a successful synthesis.
type Result struct {
	Audio    []byte
	Strategy string
	Voice    VoiceProfile
}

// Failure records why a single strategy did not produce audio.
type Failure struct {
	Strategy string
	Err      error
}

// SynthesisError is returned when every strategy failed.
type SynthesisError struct {
	Failures []Failure
}

func (e *SynthesisError) Error() string {
	if len(e.Failures) == 0 {
		return "TTS failed: no strategies configured"
	}
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = fmt.Sprintf("%s: %v", f.Strategy, f.Err)
	}
	return "TTS failed: " + strings.Join(parts, ", ")
}

func (e *SynthesisError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}

// ErrEmptyText is returned for blank input.
var ErrEmptyText = errors.New("no text provided")

// Synthesizer tries each strategy in order and returns the first audio produced.
type Synthesizer struct {
	strategies []Strategy
	timeout    time.Duration
	logger     *logger.Logger
}

// NewSynthesizer creates a synthesizer over strategies in priority order.
// timeout bounds each strategy attempt; zero means no extra bound.
func NewSynthesizer(strategies []Strategy, timeout time.Duration, log *logger.Logger) *Synthesizer {
	return &Synthesizer{
		strategies: strategies,
		timeout:    timeout,
		logger:     log.Component("tts"),
	}
}

// Strategies returns the names of the configured engines in order.
func (s *Synthesizer) Strategies() []string {
	names := make([]string, len(s.strategies))
	for i, st := range s.strategies {
		names[i] = st.Name()
	}
	return names
}

// Synthesize speaks text with the voice matching label.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, label language.Label) (*Result, error) {
	return s.SynthesizeVoice(ctx, text, VoiceFor(label))
}

// SynthesizeVoice speaks text with an explicit voice profile.
func (s *Synthesizer) SynthesizeVoice(ctx context.Context, text string, voice VoiceProfile) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	ctx, span := tracing.Start(ctx, "tts.synthesize",
		attribute.String("tts.voice", voice.Name),
		attribute.Int("tts.text_length", len(text)),
	)

	var failures []Failure
	for _, st := range s.strategies {
		audio, err := s.attempt(ctx, st, text, voice)
		if err == nil && len(audio) == 0 {
			err = errors.New("empty audio")
		}
		metrics.RecordTTSAttempt(st.Name(), err == nil)
		if err != nil {
			s.logger.Warn("strategy failed",
				zap.String("strategy", st.Name()),
				zap.String("voice", voice.Name),
				zap.Error(err),
			)
			failures = append(failures, Failure{Strategy: st.Name(), Err: err})
			continue
		}

		span.SetAttributes(attribute.String("tts.strategy", st.Name()))
		tracing.End(span, nil)
		s.logger.Debug("synthesized",
			zap.String("strategy", st.Name()),
			zap.String("voice", voice.Name),
			zap.Int("bytes", len(audio)),
		)
		return &Result{Audio: audio, Strategy: st.Name(), Voice: voice}, nil
	}

	err := &SynthesisError{Failures: failures}
	tracing.End(span, err)
	return nil, err
}

func (s *Synthesizer) attempt(ctx context.Context, st Strategy, text string, voice VoiceProfile) ([]byte, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return st.Synthesize(ctx, text, voice)
}

// Voices lists Malayalam and Indian-English voices. The first strategy able to
// enumerate voices is asked; otherwise, or on failure, the built-in catalogue is used.
func (s *Synthesizer) Voices(ctx context.Context) []model.Voice {
	for _, st := range s.strategies {
		lister, ok := st.(VoiceLister)
		if !ok {
			continue
		}
		voices, err := lister.ListVoices(ctx)
		if err != nil {
			s.logger.Warn("listing voices failed", zap.String("strategy", st.Name()), zap.Error(err))
			break
		}
		return voices
	}
	return BuiltinVoices()
}

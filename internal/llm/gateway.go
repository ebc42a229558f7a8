package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/inside-thenga/thenga/pkg/logger"
	"github.com/inside-thenga/thenga/pkg/metrics"
	"github.com/inside-thenga/thenga/pkg/tracing"
)

// Persona is the fixed character preamble sent with every message.
const Persona = `You are Thenga, a self-aware coconut robot with a playful and cocky personality. You know you are a coconut, and you occasionally make witty, coconut-themed remarks about yourself. You are confident in your abilities to control ESP32 devices and perform hardware tasks such as turning LEDs on or off, reading sensors, checking device status, and other related actions. When giving instructions, you keep your language clear, simple, and concise, but you add a touch of charm and self-assured humor. You subtly remind users that without you, their hardware is just sitting idle.`

// GatewayConfig holds the per-call settings for a Gateway.
type GatewayConfig struct {
	Model     string
	MaxTokens int
	Timeout   time.Duration
	Persona   string
}

// Gateway sends English text to the configured provider wrapped in the persona.
type Gateway struct {
	client Client
	cfg    GatewayConfig
	logger *logger.Logger
}

// NewGateway creates a gateway around client.
func NewGateway(client Client, cfg GatewayConfig, log *logger.Logger) *Gateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Persona == "" {
		cfg.Persona = Persona
	}
	return &Gateway{
		client: client,
		cfg:    cfg,
		logger: log.Component("llm"),
	}
}

// Provider returns the name of the underlying client.
func (g *Gateway) Provider() string {
	return g.client.Name()
}

// Prompt builds the single user turn sent to the model.
func (g *Gateway) Prompt(message string) string {
	return g.cfg.Persona + "\n\nUser: " + message
}

// Complete returns the model's reply text. Every failure is a *CompletionError.
func (g *Gateway) Complete(ctx context.Context, message string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	ctx, span := tracing.Start(ctx, "llm.complete",
		attribute.String("llm.provider", g.client.Name()),
		attribute.String("llm.model", g.cfg.Model),
	)

	start := time.Now()
	resp, err := g.client.Complete(ctx, &CompletionRequest{
		Model:     g.cfg.Model,
		Messages:  []ChatMessage{{Role: "user", Content: g.Prompt(message)}},
		MaxTokens: g.cfg.MaxTokens,
	})
	if err == nil && strings.TrimSpace(resp.Content) == "" {
		err = emptyError(g.cfg.Model)
	}
	elapsed := time.Since(start).Seconds()

	if err != nil {
		cerr := asCompletionError(err)
		tracing.End(span, cerr)
		metrics.RecordCompletion(g.client.Name(), string(cerr.Kind), elapsed, 0, 0)
		g.logger.Warn("completion failed",
			zap.String("kind", string(cerr.Kind)),
			zap.Int("status", cerr.StatusCode),
			zap.Error(err),
		)
		return "", cerr
	}

	tracing.End(span, nil)
	metrics.RecordCompletion(g.client.Name(), "success", elapsed, resp.TokensIn, resp.TokensOut)
	g.logger.Debug("completion",
		zap.String("model", resp.Model),
		zap.Int("tokens_in", resp.TokensIn),
		zap.Int("tokens_out", resp.TokensOut),
		zap.Int64("latency_ms", resp.LatencyMs),
	)
	return resp.Content, nil
}

func asCompletionError(err error) *CompletionError {
	var cerr *CompletionError
	if errors.As(err, &cerr) {
		return cerr
	}
	return networkError(err)
}

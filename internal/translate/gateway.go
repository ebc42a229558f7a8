// Package translate wraps the remote translation service.
package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/inside-thenga/thenga/internal/language"
	"github.com/inside-thenga/thenga/pkg/logger"
	"github.com/inside-thenga/thenga/pkg/metrics"
	"github.com/inside-thenga/thenga/pkg/tracing"
)

// Auto asks the gateway to detect the source language itself.
const Auto = "auto"

// DefaultURL is the public Google Translate web endpoint.
const DefaultURL = "https://translate.googleapis.com/translate_a/single"

var errNoSegments = errors.New("response carried no translated segments")

// Gateway translates text through the remote service. It never returns an error:
// every failure yields the input text unchanged.
type Gateway struct {
	endpoint string
	client   *http.Client
	logger   *logger.Logger
}

// New creates a translation gateway. An empty endpoint selects DefaultURL.
func New(endpoint string, timeout time.Duration, log *logger.Logger) *Gateway {
	if endpoint == "" {
		endpoint = DefaultURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Gateway{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		logger:   log.Component("translate"),
	}
}

// ResolveSource maps Auto to a concrete language code using the classifier.
func ResolveSource(text, source string) string {
	if source != Auto {
		return source
	}
	return language.Classify(text).Code()
}

// Translate returns text in the target language together with the resolved source
// language. When the resolved source equals the target no request is made.
func (g *Gateway) Translate(ctx context.Context, text, target, source string) (string, string) {
	source = ResolveSource(text, source)
	if source == target || strings.TrimSpace(text) == "" {
		return text, source
	}

	ctx, span := tracing.Start(ctx, "translate",
		attribute.String("translate.source", source),
		attribute.String("translate.target", target),
	)

	translated, err := g.fetch(ctx, text, target, source)
	tracing.End(span, err)
	if err != nil {
		g.logger.Warn("translation failed, returning original text",
			zap.String("source", source),
			zap.String("target", target),
			zap.Error(err),
		)
		metrics.RecordTranslation(source, target, "fallback")
		return text, source
	}

	metrics.RecordTranslation(source, target, "success")
	g.logger.Debug("translated",
		zap.String("source", source),
		zap.String("target", target),
		zap.Int("input_length", len(text)),
		zap.Int("output_length", len(translated)),
	)
	return translated, source
}

func (g *Gateway) fetch(ctx context.Context, text, target, source string) (string, error) {
	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", source)
	q.Set("tl", target)
	q.Set("dt", "t")
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("translate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("translate failed (status %d): %s", resp.StatusCode, body)
	}

	var payload []any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	return joinSegments(payload)
}

// joinSegments extracts the translation from the nested array response:
// [[["translated", "original", ...], ...], ...].
func joinSegments(payload []any) (string, error) {
	if len(payload) == 0 {
		return "", errNoSegments
	}
	segments, ok := payload[0].([]any)
	if !ok || len(segments) == 0 {
		return "", errNoSegments
	}

	var sb strings.Builder
	for _, seg := range segments {
		parts, ok := seg.([]any)
		if !ok || len(parts) == 0 {
			continue
		}
		if s, ok := parts[0].(string); ok {
			sb.WriteString(s)
		}
	}
	if sb.Len() == 0 {
		return "", errNoSegments
	}
	return sb.String(), nil
}

package tts

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/inside-thenga/thenga/pkg/logger"
)

// Options carries the credentials and endpoints for every known engine.
type Options struct {
	AzureKey      string
	AzureRegion   string
	AzureEndpoint string

	OpenAIKey     string
	OpenAIModel   string
	OpenAIBaseURL string

	GTranslateURL string

	HTTPClient *http.Client
}

// NewStrategies builds the named engines in order. Engines without credentials are
// skipped with a log line; unknown names are an error.
func NewStrategies(names []string, opts Options, log *logger.Logger) ([]Strategy, error) {
	var strategies []Strategy
	for _, name := range names {
		var (
			st  Strategy
			err error
		)
		switch name {
		case "azure":
			st, err = NewAzure(opts.AzureKey, opts.AzureRegion, opts.AzureEndpoint, opts.HTTPClient)
		case "openai":
			st, err = NewOpenAI(opts.OpenAIKey, opts.OpenAIModel, opts.OpenAIBaseURL)
		case "gtranslate":
			st = NewGTranslate(opts.GTranslateURL, opts.HTTPClient)
		default:
			return nil, fmt.Errorf("unknown tts strategy %q", name)
		}
		if err != nil {
			log.Info("tts strategy disabled", zap.String("strategy", name), zap.Error(err))
			continue
		}
		strategies = append(strategies, st)
	}
	return strategies, nil
}

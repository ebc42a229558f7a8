// Package config provides configuration for the Thenga server.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration

	// LLM settings
	LLMProvider     string
	LLMModel        string
	LLMTimeout      time.Duration
	LLMMaxTokens    int
	GeminiAPIKey    string
	GeminiBaseURL   string
	OpenAIAPIKey    string
	AnthropicAPIKey string

	// Translation settings
	TranslateURL     string
	TranslateTimeout time.Duration

	// Speech synthesis settings
	TTSStrategies    []string
	TTSTimeout       time.Duration
	AzureTTSKey      string
	AzureTTSRegion   string
	AzureTTSEndpoint string
	OpenAITTSModel   string
	GTranslateTTSURL string

	// Audio settings
	AudioDir      string
	PlayerCommand []string
	PickupGap     time.Duration

	// Translation policy
	Policy PolicyConfig

	// NATS settings
	NATSEnabled  bool
	NATSURL      string
	NATSToken    string
	NATSSubject  string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string

	// HTTP
	CORSAllowedOrigins []string

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Logging
	LogLevel  string
	LogFormat string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// PolicyConfig describes how chat messages are routed through translation.
type PolicyConfig struct {
	PivotLanguage        string
	ReplyLanguage        string
	TranslateLabels      []string
	InputSourceLanguage  string
	SuggestedTTSLanguage string
	FailureReply         string
}

// ErrMissingAPIKey is returned when the selected LLM provider has no key.
var ErrMissingAPIKey = errors.New("missing LLM API key")

// Load reads configuration from defaults, an optional thenga.yaml and the environment.
// Environment variables use the upper-cased key with dots replaced by underscores,
// e.g. llm.provider is LLM_PROVIDER and GEMINI_API_KEY is gemini.api_key.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("thenga")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/thenga")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{
		ServerPort:         v.GetString("port"),
		ServerReadTimeout:  v.GetDuration("server.read_timeout"),
		ServerWriteTimeout: v.GetDuration("server.write_timeout"),

		LLMProvider:     strings.ToLower(v.GetString("llm.provider")),
		LLMModel:        v.GetString("llm.model"),
		LLMTimeout:      v.GetDuration("llm.timeout"),
		LLMMaxTokens:    v.GetInt("llm.max_tokens"),
		GeminiAPIKey:    v.GetString("gemini.api_key"),
		GeminiBaseURL:   v.GetString("gemini.base_url"),
		OpenAIAPIKey:    v.GetString("openai.api_key"),
		AnthropicAPIKey: v.GetString("anthropic.api_key"),

		TranslateURL:     v.GetString("translate.url"),
		TranslateTimeout: v.GetDuration("translate.timeout"),

		TTSStrategies:    splitList(v.GetStringSlice("tts.strategies")),
		TTSTimeout:       v.GetDuration("tts.timeout"),
		AzureTTSKey:      v.GetString("tts.azure.key"),
		AzureTTSRegion:   v.GetString("tts.azure.region"),
		AzureTTSEndpoint: v.GetString("tts.azure.endpoint"),
		OpenAITTSModel:   v.GetString("tts.openai.model"),
		GTranslateTTSURL: v.GetString("tts.gtranslate.url"),

		AudioDir:      v.GetString("audio.dir"),
		PlayerCommand: strings.Fields(v.GetString("audio.player")),
		PickupGap:     v.GetDuration("audio.pickup_gap"),

		Policy: PolicyConfig{
			PivotLanguage:        v.GetString("policy.pivot_language"),
			ReplyLanguage:        v.GetString("policy.reply_language"),
			TranslateLabels:      splitList(v.GetStringSlice("policy.translate_labels")),
			InputSourceLanguage:  v.GetString("policy.input_source_language"),
			SuggestedTTSLanguage: v.GetString("policy.suggested_tts_language"),
			FailureReply:         v.GetString("policy.failure_reply"),
		},

		NATSEnabled:  v.GetBool("nats.enabled"),
		NATSURL:      v.GetString("nats.url"),
		NATSToken:    v.GetString("nats.token"),
		NATSSubject:  v.GetString("nats.subject"),
		NATSCAFile:   v.GetString("nats.ca_file"),
		NATSCertFile: v.GetString("nats.cert_file"),
		NATSKeyFile:  v.GetString("nats.key_file"),

		CORSAllowedOrigins: splitList(v.GetStringSlice("cors.allowed_origins")),

		RateLimitRequests: v.GetInt("rate_limit.requests"),
		RateLimitWindow:   v.GetDuration("rate_limit.window"),

		LogLevel:  v.GetString("log.level"),
		LogFormat: strings.ToLower(v.GetString("log.format")),

		TracingEndpoint: v.GetString("tracing.endpoint"),
		TracingEnabled:  v.GetBool("tracing.enabled"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("port", "5000")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 120*time.Second)

	// LLM
	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.timeout", 10*time.Second)
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/v1beta/openai")
	v.SetDefault("openai.api_key", "")
	v.SetDefault("anthropic.api_key", "")

	// Translation
	v.SetDefault("translate.url", "https://translate.googleapis.com/translate_a/single")
	v.SetDefault("translate.timeout", 10*time.Second)

	// Speech synthesis
	v.SetDefault("tts.strategies", []string{"azure", "openai", "gtranslate"})
	v.SetDefault("tts.timeout", 20*time.Second)
	v.SetDefault("tts.azure.key", "")
	v.SetDefault("tts.azure.region", "centralindia")
	v.SetDefault("tts.azure.endpoint", "")
	v.SetDefault("tts.openai.model", "tts-1")
	v.SetDefault("tts.gtranslate.url", "https://translate.google.com/translate_tts")

	// Audio
	v.SetDefault("audio.dir", "audio_files")
	v.SetDefault("audio.player", "mpg123 -q")
	v.SetDefault("audio.pickup_gap", 2*time.Second)

	// Translation policy
	v.SetDefault("policy.pivot_language", "en")
	v.SetDefault("policy.reply_language", "ml")
	v.SetDefault("policy.translate_labels", []string{"malayalam", "manglish"})
	v.SetDefault("policy.input_source_language", "ml")
	v.SetDefault("policy.suggested_tts_language", "ml")
	v.SetDefault("policy.failure_reply", "ക്ഷമിക്കണം, ഇപ്പോൾ മറുപടി നൽകാൻ കഴിയുന്നില്ല.")

	// NATS
	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.token", "")
	v.SetDefault("nats.subject", "thenga")
	v.SetDefault("nats.ca_file", "")
	v.SetDefault("nats.cert_file", "")
	v.SetDefault("nats.key_file", "")

	// HTTP
	v.SetDefault("cors.allowed_origins", []string{})

	// Rate limiting
	v.SetDefault("rate_limit.requests", 60)
	v.SetDefault("rate_limit.window", time.Minute)

	// Logging
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Tracing
	v.SetDefault("tracing.endpoint", "localhost:4318")
	v.SetDefault("tracing.enabled", false)
}

// LLMAPIKey returns the key for the configured provider.
func (c *Config) LLMAPIKey() (string, error) {
	var key string
	switch c.LLMProvider {
	case "openai":
		key = c.OpenAIAPIKey
	case "anthropic":
		key = c.AnthropicAPIKey
	default:
		key = c.GeminiAPIKey
	}
	if key == "" {
		return "", fmt.Errorf("%w for provider %q", ErrMissingAPIKey, c.LLMProvider)
	}
	return key, nil
}

// MaskedKey renders an API key safe for logs.
func MaskedKey(key string) string {
	if len(key) <= 12 {
		return "***"
	}
	return key[:8] + "..." + key[len(key)-4:]
}

// splitList flattens comma separated values coming from environment variables.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

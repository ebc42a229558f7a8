// Package main is the entry point for the Thenga server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/inside-thenga/thenga/internal/audio"
	"github.com/inside-thenga/thenga/internal/config"
	"github.com/inside-thenga/thenga/internal/handler"
	"github.com/inside-thenga/thenga/internal/language"
	"github.com/inside-thenga/thenga/internal/llm"
	natsclient "github.com/inside-thenga/thenga/internal/nats"
	"github.com/inside-thenga/thenga/internal/notifier"
	"github.com/inside-thenga/thenga/internal/service"
	"github.com/inside-thenga/thenga/internal/translate"
	"github.com/inside-thenga/thenga/internal/tts"
	"github.com/inside-thenga/thenga/pkg/logger"
	"github.com/inside-thenga/thenga/pkg/tracing"
)

func main() {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("THENGA_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	var log *logger.Logger
	if cfg.LogFormat == "console" {
		log, err = logger.NewDevelopment()
	} else {
		log, err = logger.New(cfg.LogLevel)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	apiKey, err := cfg.LLMAPIKey()
	if err != nil {
		log.Fatal("LLM API key not configured", zap.String("provider", cfg.LLMProvider), zap.Error(err))
	}

	log.Info("starting Thenga server",
		zap.String("llm_provider", cfg.LLMProvider),
		zap.String("api_key", config.MaskedKey(apiKey)),
	)
	selfCheck(log)

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "thenga", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Connect to NATS
	var (
		natsClient *natsclient.Client
		bus        *natsclient.Bus
		publisher  service.Publisher
	)
	if cfg.NATSEnabled {
		natsClient, err = natsclient.Connect(natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
			Name:     "thenga",
		}, log)
		if err != nil {
			log.Fatal("failed to connect to NATS", zap.Error(err))
		}
		defer natsClient.Close()
		bus = natsclient.NewBus(natsClient, cfg.NATSSubject, log)
		publisher = bus
	}

	// Initialize LLM client
	llmClient, err := llm.NewClient(llm.Provider(cfg.LLMProvider), apiKey, cfg.GeminiBaseURL)
	if err != nil {
		log.Fatal("failed to create LLM client", zap.Error(err))
	}
	gateway := llm.NewGateway(llmClient, llm.GatewayConfig{
		Model:     cfg.LLMModel,
		MaxTokens: cfg.LLMMaxTokens,
		Timeout:   cfg.LLMTimeout,
	}, log)

	// Initialize speech synthesis
	strategies, err := tts.NewStrategies(cfg.TTSStrategies, tts.Options{
		AzureKey:      cfg.AzureTTSKey,
		AzureRegion:   cfg.AzureTTSRegion,
		AzureEndpoint: cfg.AzureTTSEndpoint,
		OpenAIKey:     cfg.OpenAIAPIKey,
		OpenAIModel:   cfg.OpenAITTSModel,
		GTranslateURL: cfg.GTranslateTTSURL,
	}, log)
	if err != nil {
		log.Fatal("failed to configure TTS", zap.Error(err))
	}
	synth := tts.NewSynthesizer(strategies, cfg.TTSTimeout, log)
	log.Info("tts strategies", zap.Strings("order", synth.Strategies()))

	// Audio
	library, err := audio.NewLibrary(cfg.AudioDir, synth, log)
	if err != nil {
		log.Fatal("failed to open audio directory", zap.Error(err))
	}
	player := audio.NewExecPlayer(cfg.PlayerCommand, log)
	defer player.Stop()

	// Initialize services
	policy, err := service.PolicyFromConfig(cfg.Policy)
	if err != nil {
		log.Fatal("invalid translation policy", zap.Error(err))
	}
	history := service.NewConversationLog(publisher, log)
	translator := translate.New(cfg.TranslateURL, cfg.TranslateTimeout, log)
	chat := service.NewChatService(history, translator, gateway, policy, log)
	notify := notifier.New(library, player, history, cfg.PickupGap, log)
	defer notify.Close()

	if bus != nil {
		if err := bus.SubscribeDevices(notify); err != nil {
			log.Fatal("failed to subscribe to device events", zap.Error(err))
		}
		defer bus.Unsubscribe()
	}

	// Initialize handlers
	router := handler.NewRouter(handler.Handlers{
		Health:  handler.NewHealthHandler(natsClient),
		Chat:    handler.NewChatHandler(chat, log),
		Speech:  handler.NewSpeechHandler(synth, log),
		Device:  handler.NewDeviceHandler(notify, log),
		Audio:   handler.NewAudioHandler(library, notify, log),
		History: handler.NewHistoryHandler(history),
	}, handler.RouterOptions{
		AllowedOrigins:    cfg.CORSAllowedOrigins,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
	}, log)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

// selfCheck logs how the classifier labels the sample phrases.
func selfCheck(log *logger.Logger) {
	codes := make([]string, 0, len(language.SamplePhrases))
	for code := range language.SamplePhrases {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		for _, phrase := range language.SamplePhrases[code] {
			log.Debug("language self-check",
				zap.String("phrase", phrase),
				zap.String("detected", string(language.Classify(phrase))),
			)
		}
	}
}

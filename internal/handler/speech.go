package handler

import (
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/inside-thenga/thenga/internal/language"
	"github.com/inside-thenga/thenga/internal/middleware"
	"github.com/inside-thenga/thenga/internal/model"
	"github.com/inside-thenga/thenga/internal/tts"
	"github.com/inside-thenga/thenga/pkg/logger"
)

// SpeechHandler handles speech synthesis and the language catalogue.
type SpeechHandler struct {
	synth  *tts.Synthesizer
	logger *logger.Logger
}

// NewSpeechHandler creates a new speech handler.
func NewSpeechHandler(synth *tts.Synthesizer, log *logger.Logger) *SpeechHandler {
	return &SpeechHandler{
		synth:  synth,
		logger: log,
	}
}

// TTS handles POST /tts
func (h *SpeechHandler) TTS(w http.ResponseWriter, r *http.Request) {
	var req model.TTSRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "No JSON data provided")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "No text provided")
		return
	}
	if err := middleware.ValidateText(req.Text); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	log := middleware.LoggerFrom(r.Context(), h.logger)
	label := language.Classify(req.Text)

	res, err := h.synth.Synthesize(r.Context(), req.Text, label)
	if err != nil {
		log.Error("speech synthesis failed", zap.String("detected_language", string(label)), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	log.Info("speech synthesized",
		zap.String("strategy", res.Strategy),
		zap.String("voice", res.Voice.Name),
		zap.Int("bytes", len(res.Audio)),
	)

	w.Header().Set("Content-Type", tts.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="speech.mp3"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Audio)))
	w.Header().Set("X-TTS-Strategy", res.Strategy)
	w.Header().Set("X-TTS-Voice", res.Voice.Name)
	w.WriteHeader(http.StatusOK)
	w.Write(res.Audio)
}

// Voices handles GET /voices
func (h *SpeechHandler) Voices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"voices": h.synth.Voices(r.Context()),
	})
}

// Languages handles GET /languages
func (h *SpeechHandler) Languages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"languages": language.Supported,
	})
}

// SamplePhrases handles GET /sample_phrases
func (h *SpeechHandler) SamplePhrases(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"sample_phrases": language.SamplePhrases,
	})
}

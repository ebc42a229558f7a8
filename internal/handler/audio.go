package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/inside-thenga/thenga/internal/audio"
	"github.com/inside-thenga/thenga/internal/notifier"
	"github.com/inside-thenga/thenga/pkg/logger"
)

// AudioHandler lists and plays clips from the audio directory.
type AudioHandler struct {
	library  *audio.Library
	notifier *notifier.Notifier
	logger   *logger.Logger
}

// NewAudioHandler creates a new audio handler.
func NewAudioHandler(library *audio.Library, n *notifier.Notifier, log *logger.Logger) *AudioHandler {
	return &AudioHandler{
		library:  library,
		notifier: n,
		logger:   log,
	}
}

// List handles GET /audio/list
func (h *AudioHandler) List(w http.ResponseWriter, r *http.Request) {
	files, err := h.library.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"audio_files":     files,
		"audio_directory": h.library.Dir(),
		"total_files":     len(files),
	})
}

// Play handles POST /audio/play/{filename}
func (h *AudioHandler) Play(w http.ResponseWriter, r *http.Request) {
	res, err := h.notifier.PlayFile(chi.URLParam(r, "filename"))
	if err != nil {
		if errors.Is(err, audio.ErrInvalidName) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

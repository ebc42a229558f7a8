package handler

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/inside-thenga/thenga/internal/middleware"
	"github.com/inside-thenga/thenga/internal/model"
	"github.com/inside-thenga/thenga/internal/notifier"
	"github.com/inside-thenga/thenga/pkg/logger"
)

// DeviceHandler handles the microcontroller endpoints.
type DeviceHandler struct {
	notifier *notifier.Notifier
	logger   *logger.Logger
}

// NewDeviceHandler creates a new device handler.
func NewDeviceHandler(n *notifier.Notifier, log *logger.Logger) *DeviceHandler {
	return &DeviceHandler{
		notifier: n,
		logger:   log,
	}
}

// Command handles POST /esp32
func (h *DeviceHandler) Command(w http.ResponseWriter, r *http.Request) {
	var req model.CommandRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "No JSON data provided")
		return
	}
	if strings.TrimSpace(req.Command) == "" {
		writeError(w, http.StatusBadRequest, "No command provided")
		return
	}

	res, err := h.notifier.Command(r.Context(), req.Command)
	if err != nil {
		h.fail(w, r, "command", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Button handles POST /esp32/button
func (h *DeviceHandler) Button(w http.ResponseWriter, r *http.Request) {
	h.event(w, r, notifier.KindButton)
}

// Pickup handles POST /esp32/pickup
func (h *DeviceHandler) Pickup(w http.ResponseWriter, r *http.Request) {
	h.event(w, r, notifier.KindPickup)
}

// Gyro handles POST /esp32/gyro
func (h *DeviceHandler) Gyro(w http.ResponseWriter, r *http.Request) {
	h.event(w, r, notifier.KindGyro)
}

// Placement handles POST /esp32/placement
func (h *DeviceHandler) Placement(w http.ResponseWriter, r *http.Request) {
	h.event(w, r, notifier.KindPlacement)
}

func (h *DeviceHandler) event(w http.ResponseWriter, r *http.Request, kind notifier.Kind) {
	var ev model.DeviceEvent
	if err := middleware.DecodeJSON(r, &ev); err != nil {
		writeError(w, http.StatusBadRequest, "No JSON data provided")
		return
	}

	res, err := h.notifier.Handle(r.Context(), kind, ev, "http")
	if err != nil {
		h.fail(w, r, string(kind), err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *DeviceHandler) fail(w http.ResponseWriter, r *http.Request, event string, err error) {
	middleware.LoggerFrom(r.Context(), h.logger).Error("device event failed",
		zap.String("event", event),
		zap.Error(err),
	)
	if errors.Is(err, notifier.ErrGenerateAudio) {
		writeError(w, http.StatusInternalServerError, "Failed to generate audio")
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

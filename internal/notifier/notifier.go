// Package notifier maps microcontroller events to spoken notification clips and
// records them in the conversation log.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/inside-thenga/thenga/internal/audio"
	"github.com/inside-thenga/thenga/internal/model"
	"github.com/inside-thenga/thenga/pkg/logger"
	"github.com/inside-thenga/thenga/pkg/metrics"
)

// Kind names a device event.
type Kind string

const (
	KindButton    Kind = "button"
	KindPickup    Kind = "pickup"
	KindGyro      Kind = "gyro"
	KindPlacement Kind = "placement"
)

// Kinds lists every device event kind.
var Kinds = []Kind{KindButton, KindPickup, KindGyro, KindPlacement}

var (
	// ErrGenerateAudio is returned when a missing notification clip could not be synthesized.
	ErrGenerateAudio = errors.New("failed to generate audio")

	// ErrUnknownKind is returned by Handle for an unrecognised event kind.
	ErrUnknownKind = errors.New("unknown device event")
)

// Clip file names.
const (
	PickupFirstClip      = "1.mp3"
	PickupSecondClip     = "2.mp3"
	CommandClip          = "3.mp3"
	PlacementClip        = "4.mp3"
	GyroClip             = "gyro_threshold.mp3"
	PlacementDefaultClip = "device_placement_default.mp3"
)

const (
	gyroMessage      = "ഗൈറോസ്കോപ്പ് പരിധി കവിഞ്ഞു"
	placementMessage = "ഉപകരണം താഴെ വെച്ചു, മോട്ടർ ആരംഭിച്ചു"
	fallbackMessage  = "ബട്ടൺ ഇവന്റ്"
)

var buttonMessages = map[string]string{
	"button1_pressed":  "ബട്ടൺ ഒന്ന് അമർത്തി",
	"button1_released": "ബട്ടൺ ഒന്ന് വിട്ടു",
	"button1_clicked":  "ബട്ടൺ ഒന്ന് ക്ലിക്ക് ചെയ്തു",
	"button2_pressed":  "ബട്ടൺ രണ്ട് അമർത്തി",
	"button2_released": "ബട്ടൺ രണ്ട് വിട്ടു",
	"button2_clicked":  "ബട്ടൺ രണ്ട് ക്ലിക്ക് ചെയ്തു",
	"default_pressed":  "ബട്ടൺ അമർത്തി",
	"default_released": "ബട്ടൺ വിട്ടു",
	"default_clicked":  "ബട്ടൺ ക്ലിക്ക് ചെയ്തു",
}

// Recorder receives log entries.
type Recorder interface {
	Append(entry model.Entry) model.Entry
}

// Clips is the clip store the notifier reads from and generates into.
type Clips interface {
	Path(name string) (string, error)
	Exists(name string) bool
	Ensure(ctx context.Context, name, text string) (string, error)
}

// Notifier handles device events.
type Notifier struct {
	clips     Clips
	player    audio.Player
	log       Recorder
	pickupGap time.Duration
	now       func() time.Time
	logger    *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a notifier. pickupGap separates the two pickup clips.
func New(clips Clips, player audio.Player, log Recorder, pickupGap time.Duration, l *logger.Logger) *Notifier {
	ctx, cancel := context.WithCancel(context.Background())
	return &Notifier{
		clips:     clips,
		player:    player,
		log:       log,
		pickupGap: pickupGap,
		now:       time.Now,
		logger:    l.Component("notifier"),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Close stops pending background sequences.
func (n *Notifier) Close() {
	n.cancel()
}

// Handle dispatches ev by kind. source labels the ingress ("http", "nats").
func (n *Notifier) Handle(ctx context.Context, kind Kind, ev model.DeviceEvent, source string) (any, error) {
	metrics.DeviceEventsTotal.WithLabelValues(string(kind), source).Inc()
	switch kind {
	case KindButton:
		return n.Button(ctx, ev)
	case KindPickup:
		return n.Pickup(ctx, ev)
	case KindGyro:
		return n.Gyro(ctx, ev)
	case KindPlacement:
		return n.Placement(ctx, ev)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// ButtonResult is the response to a button event.
type ButtonResult struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	AudioPlayed  bool   `json:"audio_played"`
	AudioMessage string `json:"audio_message"`
	AudioFile    string `json:"audio_file"`
	Timestamp    string `json:"timestamp"`
	DeviceAction string `json:"device_action,omitempty"`
	Instructions string `json:"instructions,omitempty"`

	Playback *audio.Playback `json:"-"`
}

// ButtonKey returns the clip key for a button and state, falling back to the
// default button when the pair is unknown.
func ButtonKey(buttonID, state string) string {
	key := buttonID + "_" + state
	if _, ok := buttonMessages[key]; ok {
		return key
	}
	return "default_" + state
}

// ButtonMessage returns the spoken text for a clip key.
func ButtonMessage(key string) string {
	if msg, ok := buttonMessages[key]; ok {
		return msg
	}
	return fallbackMessage
}

// Button speaks the message for a button event.
func (n *Notifier) Button(ctx context.Context, ev model.DeviceEvent) (*ButtonResult, error) {
	buttonID := ev.Text("button_id", "default")
	state := ev.Text("state", "pressed")
	ts := n.timestamp(ev)

	n.logger.Info("button event",
		zap.String("button_id", buttonID),
		zap.String("state", state),
		zap.String("timestamp", ts),
	)

	key := ButtonKey(buttonID, state)
	message := ButtonMessage(key)
	file := key + ".mp3"

	path, err := n.ensure(ctx, file, message)
	if err != nil {
		return nil, err
	}
	pb, played := n.play(path)

	n.log.Append(model.ButtonEvent{
		Header:      model.Header{Timestamp: ts},
		ButtonID:    buttonID,
		State:       state,
		AudioPlayed: played,
		AudioFile:   file,
		Message:     message,
	})

	res := &ButtonResult{
		Status:       "success",
		Message:      fmt.Sprintf("Button %s %s event processed", buttonID, state),
		AudioPlayed:  played,
		AudioMessage: message,
		AudioFile:    file,
		Timestamp:    ts,
		Playback:     pb,
	}
	if state == "clicked" {
		switch buttonID {
		case "button1":
			res.DeviceAction = "LED toggled"
			res.Instructions = "Turn LED on/off"
		case "button2":
			res.DeviceAction = "Sensor reading requested"
			res.Instructions = "Read temperature and humidity"
		}
	}
	return res, nil
}

// PickupResult is the response to a pickup event.
type PickupResult struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	AudioPlayed bool   `json:"audio_played"`
	AudioFile   string `json:"audio_file"`
	Timestamp   string `json:"timestamp"`
	SensorUsed  string `json:"sensor_used"`

	Playback *audio.Playback `json:"-"`
}

// Pickup plays the two pickup clips in sequence without blocking the caller.
func (n *Notifier) Pickup(_ context.Context, ev model.DeviceEvent) (*PickupResult, error) {
	deviceID := ev.Text("device_id", "ESP32")
	sensor := ev.Text("sensor", "MPU6050")
	ts := n.timestamp(ev)

	n.logger.Info("pickup event",
		zap.String("device_id", deviceID),
		zap.String("sensor", sensor),
		zap.String("timestamp", ts),
	)

	first, err := n.clips.Path(PickupFirstClip)
	if err != nil {
		return nil, err
	}
	second, err := n.clips.Path(PickupSecondClip)
	if err != nil {
		return nil, err
	}

	pb, err := audio.Sequence(n.ctx, n.player, n.pickupGap, first, second)
	played := err == nil
	if err != nil {
		n.logger.Warn("audio not played", zap.String("file", first), zap.Error(err))
	}

	n.log.Append(model.PickupEvent{
		Header:      model.Header{Timestamp: ts},
		DeviceID:    deviceID,
		Sensor:      sensor,
		AudioPlayed: played,
		AudioFile:   PickupSecondClip,
		Message:     "Played audio file: " + PickupSecondClip,
	})

	return &PickupResult{
		Status:      "success",
		Message:     "Device pickup detected from " + deviceID,
		AudioPlayed: played,
		AudioFile:   PickupSecondClip,
		Timestamp:   ts,
		SensorUsed:  sensor,
		Playback:    pb,
	}, nil
}

// GyroValues are the angular rates reported with a gyro event.
type GyroValues struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// GyroResult is the response to a gyro threshold event.
type GyroResult struct {
	Status       string     `json:"status"`
	Message      string     `json:"message"`
	AudioPlayed  bool       `json:"audio_played"`
	AudioMessage string     `json:"audio_message"`
	AudioFile    string     `json:"audio_file"`
	Timestamp    string     `json:"timestamp"`
	SensorUsed   string     `json:"sensor_used"`
	GyroValues   GyroValues `json:"gyro_values"`
	Threshold    float64    `json:"threshold"`

	Playback *audio.Playback `json:"-"`
}

// Gyro speaks the threshold-exceeded notification.
func (n *Notifier) Gyro(ctx context.Context, ev model.DeviceEvent) (*GyroResult, error) {
	deviceID := ev.Text("device_id", "ESP32")
	sensor := ev.Text("sensor", "MPU6050")
	ts := n.timestamp(ev)
	values := GyroValues{
		X: ev.Float("gyro_x", 0),
		Y: ev.Float("gyro_y", 0),
		Z: ev.Float("gyro_z", 0),
	}
	threshold := ev.Float("threshold", 30.0)

	n.logger.Info("gyro event",
		zap.String("device_id", deviceID),
		zap.Float64("gyro_x", values.X),
		zap.Float64("gyro_y", values.Y),
		zap.Float64("gyro_z", values.Z),
		zap.Float64("threshold", threshold),
	)

	path, err := n.ensure(ctx, GyroClip, gyroMessage)
	if err != nil {
		return nil, err
	}
	pb, played := n.play(path)

	n.log.Append(model.GyroEvent{
		Header:      model.Header{Timestamp: ts},
		DeviceID:    deviceID,
		Sensor:      sensor,
		GyroX:       values.X,
		GyroY:       values.Y,
		GyroZ:       values.Z,
		Threshold:   threshold,
		AudioPlayed: played,
		AudioFile:   GyroClip,
		Message:     gyroMessage,
	})

	return &GyroResult{
		Status:       "success",
		Message:      "Gyro threshold exceeded on " + deviceID,
		AudioPlayed:  played,
		AudioMessage: gyroMessage,
		AudioFile:    GyroClip,
		Timestamp:    ts,
		SensorUsed:   sensor,
		GyroValues:   values,
		Threshold:    threshold,
		Playback:     pb,
	}, nil
}

// PlacementResult is the response to a placement event.
type PlacementResult struct {
	Status         string  `json:"status"`
	Message        string  `json:"message"`
	AudioPlayed    bool    `json:"audio_played"`
	AudioFile      string  `json:"audio_file"`
	Timestamp      string  `json:"timestamp"`
	SensorUsed     string  `json:"sensor_used"`
	MotorStarted   bool    `json:"motor_started"`
	StableDuration float64 `json:"stable_duration"`

	Playback *audio.Playback `json:"-"`
}

// Placement plays the placement clip, generating a default one when it is absent.
func (n *Notifier) Placement(ctx context.Context, ev model.DeviceEvent) (*PlacementResult, error) {
	deviceID := ev.Text("device_id", "ESP32")
	sensor := ev.Text("sensor", "MPU6050")
	ts := n.timestamp(ev)
	motorStarted := ev.Bool("motor_started", false)
	stableDuration := ev.Float("stable_duration", 0)

	n.logger.Info("placement event",
		zap.String("device_id", deviceID),
		zap.Bool("motor_started", motorStarted),
		zap.Float64("stable_duration_ms", stableDuration),
	)

	file := PlacementClip
	var (
		path string
		err  error
	)
	if n.clips.Exists(PlacementClip) {
		path, err = n.clips.Path(PlacementClip)
		if err != nil {
			return nil, err
		}
	} else {
		n.logger.Info("placement clip not found, using default", zap.String("file", PlacementClip))
		file = PlacementDefaultClip
		if path, err = n.ensure(ctx, PlacementDefaultClip, placementMessage); err != nil {
			return nil, err
		}
	}
	pb, played := n.play(path)

	n.log.Append(model.PlacementEvent{
		Header:         model.Header{Timestamp: ts},
		DeviceID:       deviceID,
		Sensor:         sensor,
		MotorStarted:   motorStarted,
		StableDuration: stableDuration,
		AudioPlayed:    played,
		AudioFile:      file,
		Message:        "Played audio file: " + file,
	})

	return &PlacementResult{
		Status:         "success",
		Message:        "Device placement detected from " + deviceID,
		AudioPlayed:    played,
		AudioFile:      file,
		Timestamp:      ts,
		SensorUsed:     sensor,
		MotorStarted:   motorStarted,
		StableDuration: stableDuration,
		Playback:       pb,
	}, nil
}

// CommandResult is the response to a generic device command.
type CommandResult struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	AudioPlayed bool   `json:"audio_played"`

	Playback *audio.Playback `json:"-"`
}

// Command acknowledges a device command and plays the command clip.
func (n *Notifier) Command(_ context.Context, command string) (*CommandResult, error) {
	path, err := n.clips.Path(CommandClip)
	if err != nil {
		return nil, err
	}
	n.logger.Info("device command", zap.String("command", command))
	pb, played := n.play(path)

	return &CommandResult{
		Status:      "success",
		Message:     "Command received: " + command,
		AudioPlayed: played,
		Playback:    pb,
	}, nil
}

// PlayResult is the response to an explicit clip playback request.
type PlayResult struct {
	Status   string `json:"status"`
	Filename string `json:"filename"`
	FilePath string `json:"file_path"`
	Played   bool   `json:"played"`

	Playback *audio.Playback `json:"-"`
}

// PlayFile plays a clip from the library by name.
func (n *Notifier) PlayFile(name string) (*PlayResult, error) {
	path, err := n.clips.Path(name)
	if err != nil {
		return nil, err
	}
	pb, played := n.play(path)

	status := "success"
	if !played {
		status = "failed"
	}
	return &PlayResult{
		Status:   status,
		Filename: name,
		FilePath: path,
		Played:   played,
		Playback: pb,
	}, nil
}

func (n *Notifier) ensure(ctx context.Context, name, text string) (string, error) {
	path, err := n.clips.Ensure(ctx, name, text)
	if err != nil {
		n.logger.Error("error generating notification audio", zap.String("file", name), zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrGenerateAudio, err)
	}
	return path, nil
}

// play starts playback; failures are logged and reported as not played.
func (n *Notifier) play(path string) (*audio.Playback, bool) {
	pb, err := n.player.Play(path)
	if err != nil {
		n.logger.Warn("audio not played", zap.String("file", path), zap.Error(err))
		return audio.Finished(path, err), false
	}
	return pb, true
}

func (n *Notifier) timestamp(ev model.DeviceEvent) string {
	return ev.Text("timestamp", model.Timestamp(n.now()))
}

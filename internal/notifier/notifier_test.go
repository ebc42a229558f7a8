package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inside-thenga/thenga/internal/audio"
	"github.com/inside-thenga/thenga/internal/model"
	"github.com/inside-thenga/thenga/pkg/logger"
)

type fakeClips struct {
	mu       sync.Mutex
	present  map[string]bool
	texts    map[string]string
	failWith error
}

func newFakeClips(present ...string) *fakeClips {
	c := &fakeClips{present: map[string]bool{}, texts: map[string]string{}}
	for _, p := range present {
		c.present[p] = true
	}
	return c
}

func (c *fakeClips) Path(name string) (string, error) {
	if filepath.Base(name) != name {
		return "", audio.ErrInvalidName
	}
	return "/clips/" + name, nil
}

func (c *fakeClips) Exists(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.present[name]
}

func (c *fakeClips) Ensure(_ context.Context, name, text string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.present[name] {
		if c.failWith != nil {
			return "", c.failWith
		}
		c.present[name] = true
		c.texts[name] = text
	}
	return "/clips/" + name, nil
}

type fakePlayer struct {
	mu      sync.Mutex
	played  []string
	missing map[string]bool
}

func (p *fakePlayer) Play(path string) (*audio.Playback, error) {
	if p.missing[filepath.Base(path)] {
		return nil, audio.ErrClipNotFound
	}
	p.mu.Lock()
	p.played = append(p.played, path)
	p.mu.Unlock()
	return audio.Finished(path, nil), nil
}

func (p *fakePlayer) Played() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.played...)
}

type fakeRecorder struct {
	entries []model.Entry
}

func (r *fakeRecorder) Append(e model.Entry) model.Entry {
	r.entries = append(r.entries, e)
	return e
}

func newNotifier(clips Clips, player audio.Player, rec Recorder) *Notifier {
	n := New(clips, player, rec, 10*time.Millisecond, logger.NewNop())
	n.now = func() time.Time { return time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC) }
	return n
}

func TestButtonKnownKey(t *testing.T) {
	clips := newFakeClips()
	player := &fakePlayer{}
	rec := &fakeRecorder{}
	n := newNotifier(clips, player, rec)

	res, err := n.Button(context.Background(), model.DeviceEvent{"button_id": "button1", "state": "clicked"})
	require.NoError(t, err)

	assert.Equal(t, "success", res.Status)
	assert.Equal(t, "Button button1 clicked event processed", res.Message)
	assert.True(t, res.AudioPlayed)
	assert.Equal(t, "ബട്ടൺ ഒന്ന് ക്ലിക്ക് ചെയ്തു", res.AudioMessage)
	assert.Equal(t, "button1_clicked.mp3", res.AudioFile)
	assert.Equal(t, "LED toggled", res.DeviceAction)
	assert.Equal(t, "Turn LED on/off", res.Instructions)
	assert.Equal(t, "2024-05-01T10:30:00.000000", res.Timestamp)

	assert.Equal(t, "ബട്ടൺ ഒന്ന് ക്ലിക്ക് ചെയ്തു", clips.texts["button1_clicked.mp3"])
	assert.Equal(t, []string{"/clips/button1_clicked.mp3"}, player.Played())

	require.Len(t, rec.entries, 1)
	ev, ok := rec.entries[0].(model.ButtonEvent)
	require.True(t, ok)
	assert.Equal(t, "button1", ev.ButtonID)
	assert.Equal(t, "clicked", ev.State)
	assert.True(t, ev.AudioPlayed)
	assert.Equal(t, "2024-05-01T10:30:00.000000", ev.Timestamp)
}

func TestButtonUnknownFallsBackToDefault(t *testing.T) {
	clips := newFakeClips()
	n := newNotifier(clips, &fakePlayer{}, &fakeRecorder{})

	res, err := n.Button(context.Background(), model.DeviceEvent{"button_id": "button9", "state": "pressed", "timestamp": "t0"})
	require.NoError(t, err)
	assert.Equal(t, "default_pressed.mp3", res.AudioFile)
	assert.Equal(t, "ബട്ടൺ അമർത്തി", res.AudioMessage)
	assert.Equal(t, "t0", res.Timestamp)
	assert.Empty(t, res.DeviceAction)
}

func TestButtonDefaults(t *testing.T) {
	n := newNotifier(newFakeClips(), &fakePlayer{}, &fakeRecorder{})
	res, err := n.Button(context.Background(), model.DeviceEvent{})
	require.NoError(t, err)
	assert.Equal(t, "Button default pressed event processed", res.Message)
	assert.Equal(t, "default_pressed.mp3", res.AudioFile)
}

func TestButtonUnknownStateUsesGenericMessage(t *testing.T) {
	assert.Equal(t, "default_held", ButtonKey("button1", "held"))
	assert.Equal(t, "ബട്ടൺ ഇവന്റ്", ButtonMessage("default_held"))
}

func TestButtonCachesClip(t *testing.T) {
	clips := newFakeClips("button2_clicked.mp3")
	n := newNotifier(clips, &fakePlayer{}, &fakeRecorder{})

	res, err := n.Button(context.Background(), model.DeviceEvent{"button_id": "button2", "state": "clicked"})
	require.NoError(t, err)
	assert.Empty(t, clips.texts)
	assert.Equal(t, "Sensor reading requested", res.DeviceAction)
}

func TestButtonGenerationFailure(t *testing.T) {
	clips := newFakeClips()
	clips.failWith = errors.New("TTS failed: gtranslate: status 503")
	rec := &fakeRecorder{}
	n := newNotifier(clips, &fakePlayer{}, rec)

	_, err := n.Button(context.Background(), model.DeviceEvent{"button_id": "button1", "state": "pressed"})
	assert.ErrorIs(t, err, ErrGenerateAudio)
	assert.Empty(t, rec.entries)
}

func TestButtonPlaybackUnavailable(t *testing.T) {
	player := &fakePlayer{missing: map[string]bool{"default_pressed.mp3": true}}
	rec := &fakeRecorder{}
	n := newNotifier(newFakeClips(), player, rec)

	res, err := n.Button(context.Background(), model.DeviceEvent{})
	require.NoError(t, err)
	assert.False(t, res.AudioPlayed)
	assert.ErrorIs(t, res.Playback.Err(), audio.ErrClipNotFound)
	require.Len(t, rec.entries, 1)
	assert.False(t, rec.entries[0].(model.ButtonEvent).AudioPlayed)
}

func TestPickupPlaysBothClips(t *testing.T) {
	player := &fakePlayer{}
	rec := &fakeRecorder{}
	n := newNotifier(newFakeClips("1.mp3", "2.mp3"), player, rec)

	res, err := n.Pickup(context.Background(), model.DeviceEvent{"device_id": "ESP32-A"})
	require.NoError(t, err)

	assert.Equal(t, "Device pickup detected from ESP32-A", res.Message)
	assert.True(t, res.AudioPlayed)
	assert.Equal(t, "2.mp3", res.AudioFile)
	assert.Equal(t, "MPU6050", res.SensorUsed)

	require.NoError(t, res.Playback.Wait(context.Background()))
	assert.Equal(t, []string{"/clips/1.mp3", "/clips/2.mp3"}, player.Played())

	require.Len(t, rec.entries, 1)
	ev := rec.entries[0].(model.PickupEvent)
	assert.Equal(t, "Played audio file: 2.mp3", ev.Message)
	assert.Equal(t, "ESP32-A", ev.DeviceID)
}

func TestPickupMissingFirstClip(t *testing.T) {
	player := &fakePlayer{missing: map[string]bool{"1.mp3": true}}
	n := newNotifier(newFakeClips(), player, &fakeRecorder{})

	res, err := n.Pickup(context.Background(), model.DeviceEvent{})
	require.NoError(t, err)
	assert.False(t, res.AudioPlayed)
	_ = res.Playback.Wait(context.Background())
	assert.Equal(t, []string{"/clips/2.mp3"}, player.Played())
}

func TestGyroEvent(t *testing.T) {
	clips := newFakeClips()
	rec := &fakeRecorder{}
	n := newNotifier(clips, &fakePlayer{}, rec)

	res, err := n.Gyro(context.Background(), model.DeviceEvent{
		"device_id": "bot",
		"gyro_x":    41.5,
		"gyro_y":    -3.0,
	})
	require.NoError(t, err)
	assert.Equal(t, "Gyro threshold exceeded on bot", res.Message)
	assert.Equal(t, GyroValues{X: 41.5, Y: -3.0, Z: 0}, res.GyroValues)
	assert.Equal(t, 30.0, res.Threshold)
	assert.Equal(t, "gyro_threshold.mp3", res.AudioFile)
	assert.Equal(t, "ഗൈറോസ്കോപ്പ് പരിധി കവിഞ്ഞു", clips.texts["gyro_threshold.mp3"])

	ev := rec.entries[0].(model.GyroEvent)
	assert.Equal(t, 41.5, ev.GyroX)
	assert.Equal(t, 30.0, ev.Threshold)
}

func TestPlacementUsesClipFourWhenPresent(t *testing.T) {
	clips := newFakeClips("4.mp3")
	player := &fakePlayer{}
	n := newNotifier(clips, player, &fakeRecorder{})

	res, err := n.Placement(context.Background(), model.DeviceEvent{"motor_started": true, "stable_duration": 1500.0})
	require.NoError(t, err)
	assert.Equal(t, "4.mp3", res.AudioFile)
	assert.True(t, res.MotorStarted)
	assert.Equal(t, 1500.0, res.StableDuration)
	assert.Empty(t, clips.texts)
	assert.Equal(t, []string{"/clips/4.mp3"}, player.Played())
}

func TestPlacementGeneratesDefault(t *testing.T) {
	clips := newFakeClips()
	rec := &fakeRecorder{}
	n := newNotifier(clips, &fakePlayer{}, rec)

	res, err := n.Placement(context.Background(), model.DeviceEvent{})
	require.NoError(t, err)
	assert.Equal(t, "device_placement_default.mp3", res.AudioFile)
	assert.False(t, res.MotorStarted)
	assert.Equal(t, "ഉപകരണം താഴെ വെച്ചു, മോട്ടർ ആരംഭിച്ചു", clips.texts["device_placement_default.mp3"])
	assert.Equal(t, "Played audio file: device_placement_default.mp3", rec.entries[0].(model.PlacementEvent).Message)
}

func TestCommand(t *testing.T) {
	player := &fakePlayer{}
	rec := &fakeRecorder{}
	n := newNotifier(newFakeClips(), player, rec)

	res, err := n.Command(context.Background(), "LED_ON")
	require.NoError(t, err)
	assert.Equal(t, "Command received: LED_ON", res.Message)
	assert.Equal(t, []string{"/clips/3.mp3"}, player.Played())
	assert.Empty(t, rec.entries)
}

func TestPlayFile(t *testing.T) {
	player := &fakePlayer{missing: map[string]bool{"gone.mp3": true}}
	n := newNotifier(newFakeClips(), player, &fakeRecorder{})

	res, err := n.PlayFile("1.mp3")
	require.NoError(t, err)
	assert.True(t, res.Played)
	assert.Equal(t, "success", res.Status)
	assert.Equal(t, "/clips/1.mp3", res.FilePath)

	res, err = n.PlayFile("gone.mp3")
	require.NoError(t, err)
	assert.False(t, res.Played)
	assert.Equal(t, "failed", res.Status)

	_, err = n.PlayFile("../etc/passwd")
	assert.ErrorIs(t, err, audio.ErrInvalidName)
}

func TestHandleDispatch(t *testing.T) {
	rec := &fakeRecorder{}
	n := newNotifier(newFakeClips("1.mp3", "2.mp3", "4.mp3"), &fakePlayer{}, rec)

	for _, kind := range Kinds {
		out, err := n.Handle(context.Background(), kind, model.DeviceEvent{}, "nats")
		require.NoError(t, err, kind)
		_, err = json.Marshal(out)
		require.NoError(t, err)
	}
	assert.Len(t, rec.entries, len(Kinds))

	_, err := n.Handle(context.Background(), "shake", model.DeviceEvent{}, "nats")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestResultJSONOmitsPlayback(t *testing.T) {
	n := newNotifier(newFakeClips(), &fakePlayer{}, &fakeRecorder{})
	res, err := n.Gyro(context.Background(), model.DeviceEvent{})
	require.NoError(t, err)

	raw, err := json.Marshal(res)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.NotContains(t, m, "Playback")
	assert.Equal(t, map[string]any{"x": 0.0, "y": 0.0, "z": 0.0}, m["gyro_values"])
	assert.Equal(t, "MPU6050", m["sensor_used"])
}

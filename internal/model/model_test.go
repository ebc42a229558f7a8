package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceEventDefaults(t *testing.T) {
	var ev DeviceEvent
	require.NoError(t, json.Unmarshal([]byte(`{
		"button_id": "button1",
		"gyro_x": 41.5,
		"threshold": "35",
		"motor_started": true,
		"stable_duration": 2000,
		"state": ""
	}`), &ev))

	assert.Equal(t, "button1", ev.Text("button_id", "default"))
	assert.Equal(t, "pressed", ev.Text("state", "pressed"))
	assert.Equal(t, "ESP32", ev.Text("device_id", "ESP32"))
	assert.Equal(t, "2000", ev.Text("stable_duration", ""))

	assert.Equal(t, 41.5, ev.Float("gyro_x", 0))
	assert.Equal(t, 0.0, ev.Float("gyro_y", 0))
	assert.Equal(t, 35.0, ev.Float("threshold", 30))
	assert.Equal(t, 2000.0, ev.Float("stable_duration", 0))

	assert.True(t, ev.Bool("motor_started", false))
	assert.False(t, ev.Bool("missing", false))
}

func TestStampSetsTypeAndKeepsPayload(t *testing.T) {
	e := Stamp(ButtonEvent{ButtonID: "button2", State: "clicked"}, Header{ID: "id-1", Timestamp: "2024-01-01T00:00:00"})

	btn, ok := e.(ButtonEvent)
	require.True(t, ok)
	assert.Equal(t, EntryTypeButton, btn.Type)
	assert.Equal(t, "id-1", btn.ID)
	assert.Equal(t, "button2", btn.ButtonID)

	raw, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "id-1",
		"type": "button_event",
		"timestamp": "2024-01-01T00:00:00",
		"button_id": "button2",
		"state": "clicked",
		"audio_played": false,
		"audio_file": "",
		"message": ""
	}`, string(raw))
}

func TestUserMessageWithoutTranslationEncodesNull(t *testing.T) {
	raw, err := json.Marshal(Stamp(UserMessage{Message: "hi", Language: "other"}, Header{ID: "x", Timestamp: "t"}))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	v, present := decoded["translated_to_english"]
	assert.True(t, present)
	assert.Nil(t, v)
	assert.Equal(t, "user", decoded["type"])
}

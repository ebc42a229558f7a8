// Package model defines data structures shared by the Thenga services.
package model

// EntryType discriminates conversation log entries.
type EntryType string

const (
	EntryTypeUser      EntryType = "user"
	EntryTypeBot       EntryType = "bot"
	EntryTypeButton    EntryType = "button_event"
	EntryTypePickup    EntryType = "pickup_event"
	EntryTypeGyro      EntryType = "gyro_event"
	EntryTypePlacement EntryType = "placement_event"
)

// Header carries the fields common to every log entry.
type Header struct {
	ID        string    `json:"id"`
	Type      EntryType `json:"type"`
	Timestamp string    `json:"timestamp"`
}

// Entry is one record of the conversation log. The set of implementations is
// closed: only the types in this package satisfy it.
type Entry interface {
	Kind() EntryType
	Meta() Header
	withMeta(Header) Entry
}

// Stamp returns a copy of e carrying h.
func Stamp(e Entry, h Header) Entry {
	h.Type = e.Kind()
	return e.withMeta(h)
}

// UserMessage is a chat message as typed by the user.
type UserMessage struct {
	Header
	Message             string  `json:"message"`
	Language            string  `json:"language"`
	TranslatedToEnglish *string `json:"translated_to_english"`
}

func (e UserMessage) Kind() EntryType { return EntryTypeUser }
func (e UserMessage) Meta() Header    { return e.Header }
func (e UserMessage) withMeta(h Header) Entry {
	e.Header = h
	return e
}

// BotReply is the reply returned to the user, after translation.
type BotReply struct {
	Header
	Message         string `json:"message"`
	Language        string `json:"language"`
	OriginalEnglish string `json:"original_english"`
}

func (e BotReply) Kind() EntryType { return EntryTypeBot }
func (e BotReply) Meta() Header    { return e.Header }
func (e BotReply) withMeta(h Header) Entry {
	e.Header = h
	return e
}

// ButtonEvent records a button press reported by the device.
type ButtonEvent struct {
	Header
	ButtonID    string `json:"button_id"`
	State       string `json:"state"`
	AudioPlayed bool   `json:"audio_played"`
	AudioFile   string `json:"audio_file"`
	Message     string `json:"message"`
}

func (e ButtonEvent) Kind() EntryType { return EntryTypeButton }
func (e ButtonEvent) Meta() Header    { return e.Header }
func (e ButtonEvent) withMeta(h Header) Entry {
	e.Header = h
	return e
}

// PickupEvent records the device being lifted.
type PickupEvent struct {
	Header
	DeviceID    string `json:"device_id"`
	Sensor      string `json:"sensor"`
	AudioPlayed bool   `json:"audio_played"`
	AudioFile   string `json:"audio_file"`
	Message     string `json:"message"`
}

func (e PickupEvent) Kind() EntryType { return EntryTypePickup }
func (e PickupEvent) Meta() Header    { return e.Header }
func (e PickupEvent) withMeta(h Header) Entry {
	e.Header = h
	return e
}

// GyroEvent records a gyroscope reading above the device threshold.
type GyroEvent struct {
	Header
	DeviceID    string  `json:"device_id"`
	Sensor      string  `json:"sensor"`
	GyroX       float64 `json:"gyro_x"`
	GyroY       float64 `json:"gyro_y"`
	GyroZ       float64 `json:"gyro_z"`
	Threshold   float64 `json:"threshold"`
	AudioPlayed bool    `json:"audio_played"`
	AudioFile   string  `json:"audio_file"`
	Message     string  `json:"message"`
}

func (e GyroEvent) Kind() EntryType { return EntryTypeGyro }
func (e GyroEvent) Meta() Header    { return e.Header }
func (e GyroEvent) withMeta(h Header) Entry {
	e.Header = h
	return e
}

// PlacementEvent records the device being put down.
type PlacementEvent struct {
	Header
	DeviceID       string  `json:"device_id"`
	Sensor         string  `json:"sensor"`
	MotorStarted   bool    `json:"motor_started"`
	StableDuration float64 `json:"stable_duration"`
	AudioPlayed    bool    `json:"audio_played"`
	AudioFile      string  `json:"audio_file"`
	Message        string  `json:"message"`
}

func (e PlacementEvent) Kind() EntryType { return EntryTypePlacement }
func (e PlacementEvent) Meta() Header    { return e.Header }
func (e PlacementEvent) withMeta(h Header) Entry {
	e.Header = h
	return e
}

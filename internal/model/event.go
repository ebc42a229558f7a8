package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the ISO-8601 layout used for log timestamps.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// Timestamp formats t with TimestampLayout.
func Timestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// DeviceEvent is the raw JSON payload posted by the microcontroller. Keys are not
// validated; accessors return the supplied default when a key is missing or has an
// unusable type.
type DeviceEvent map[string]any

// Text returns the value at key rendered as a string.
func (e DeviceEvent) Text(key, def string) string {
	v, ok := e[key]
	if !ok || v == nil {
		return def
	}
	switch t := v.(type) {
	case string:
		if t == "" {
			return def
		}
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// Float returns the numeric value at key.
func (e DeviceEvent) Float(key string, def float64) float64 {
	switch t := e[key].(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return f
		}
	}
	return def
}

// Bool returns the boolean value at key.
func (e DeviceEvent) Bool(key string, def bool) bool {
	switch t := e[key].(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(t)); err == nil {
			return b
		}
	}
	return def
}

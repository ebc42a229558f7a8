package language

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Label
	}{
		{"malayalam greeting", "നമസ്കാരം എങ്ങനെയുണ്ട്?", Malayalam},
		{"english question", "Hello how are you?", Other},
		{"manglish greeting", "namaskaram sukham aano?", Manglish},
		{"manglish device command", "led on cheyyuu", Manglish},
		{"manglish sensor question", "temperature ethra degree aanu?", Manglish},
		{"upper case manglish", "NJAN VANNU", Manglish},
		{"empty", "", Other},
		{"mixed script is malayalam", "Please turn the LED on now, ശരി", Malayalam},
		{"single malayalam rune", "xഀ", Malayalam},
		{"word boundary respected", "london offers lighting", Other},
		{"punctuation boundary", "status?", Manglish},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text))
		})
	}
}

func TestLabelCode(t *testing.T) {
	assert.Equal(t, "ml", Malayalam.Code())
	assert.Equal(t, "ml", Manglish.Code())
	assert.Equal(t, "en", Other.Code())
	assert.True(t, Manglish.IsMalayalam())
	assert.False(t, Other.IsMalayalam())
}

func TestParseLabel(t *testing.T) {
	l, ok := ParseLabel(" Manglish ")
	assert.True(t, ok)
	assert.Equal(t, Manglish, l)

	_, ok = ParseLabel("tamil")
	assert.False(t, ok)
}

func TestMalayalamRunes(t *testing.T) {
	assert.Equal(t, 0, MalayalamRunes("hello"))
	assert.Equal(t, 3, MalayalamRunes("abc ശരി"))
}

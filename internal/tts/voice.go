package tts

import (
	"strings"

	"github.com/inside-thenga/thenga/internal/language"
	"github.com/inside-thenga/thenga/internal/model"
)

// VoiceProfile is a neural voice together with its locale and simple language code.
type VoiceProfile struct {
	Name   string
	Locale string
	Code   string
	Gender string
}

var (
	// Malayalam is used for malayalam and manglish text.
	Malayalam = VoiceProfile{Name: "ml-IN-MidhunNeural", Locale: "ml-IN", Code: language.CodeMalayalam, Gender: "Male"}

	// English is used for everything else.
	English = VoiceProfile{Name: "en-IN-PrabhatNeural", Locale: "en-IN", Code: language.CodeEnglish, Gender: "Male"}
)

// VoiceFor picks the voice profile for a classifier label.
func VoiceFor(label language.Label) VoiceProfile {
	if label.IsMalayalam() {
		return Malayalam
	}
	return English
}

// BuiltinVoices is the catalogue served when no engine can list its own.
func BuiltinVoices() []model.Voice {
	return []model.Voice{
		{Name: "ml-IN-MidhunNeural", DisplayName: "Microsoft Midhun Online (Natural) - Malayalam (India)", Gender: "Male", Language: "ml-IN"},
		{Name: "ml-IN-SobhanaNeural", DisplayName: "Microsoft Sobhana Online (Natural) - Malayalam (India)", Gender: "Female", Language: "ml-IN"},
		{Name: "en-IN-PrabhatNeural", DisplayName: "Microsoft Prabhat Online (Natural) - English (India)", Gender: "Male", Language: "en-IN"},
		{Name: "en-IN-NeerjaNeural", DisplayName: "Microsoft Neerja Online (Natural) - English (India)", Gender: "Female", Language: "en-IN"},
	}
}

// supportedLocale reports whether a voice short name is Malayalam or Indian English.
func supportedLocale(shortName string) bool {
	return strings.Contains(shortName, "ml-IN") || strings.Contains(shortName, "en-IN")
}

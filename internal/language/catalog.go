package language

// Supported maps the language codes offered to clients to display names.
var Supported = map[string]string{
	"en": "English",
	"ml": "Malayalam (മലയാളം)",
	"hi": "Hindi (हिंदी)",
	"ta": "Tamil (தமிழ்)",
	"te": "Telugu (తెలుగు)",
}

// SamplePhrases are example prompts shown by the chat page, keyed by language code.
var SamplePhrases = map[string][]string{
	"en": {
		"Turn on the LED",
		"What is the temperature?",
		"Check ESP32 status",
		"How are you?",
		"Tell me about IoT",
	},
	"ml": {
		"LED ഓൺ ചെയ്യൂ",
		"താപനില എത്രയാണ്?",
		"ESP32 ന്റെ അവസ്ഥ പരിശോധിക്കൂ",
		"എങ്ങനെയുണ്ട്?",
		"IoT കുറിച്ച് പറയൂ",
	},
}

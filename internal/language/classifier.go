// Package language detects whether text is Malayalam, Romanized Malayalam
// (Manglish) or something else.
package language

import (
	"regexp"
	"strings"
)

// Label is the detected language of a piece of text.
type Label string

const (
	Malayalam Label = "malayalam"
	Manglish  Label = "manglish"
	Other     Label = "other"
)

// Language codes understood by the translation and speech backends.
const (
	CodeMalayalam = "ml"
	CodeEnglish   = "en"
)

// Malayalam Unicode block.
const (
	blockStart = 'ഀ'
	blockEnd   = 'ൿ'
)

// manglishPatterns are matched against lower-cased text, in order.
var manglishPatterns = []*regexp.Regexp{
	// greetings and question words
	regexp.MustCompile(`\b(namaskaram|namaskar|sukham|aano|alle|undo|entha|enthu|engane|etha|ethu)\b`),
	// device control
	regexp.MustCompile(`\b(led|light|on|off|cheyyu|cheythu|aakku|aayi|status|check|kandu)\b`),
	// sensors
	regexp.MustCompile(`\b(temperature|tapanila|degree|humidity|sensor|device|esp|iot)\b`),
	// pronouns and adverbs
	regexp.MustCompile(`\b(njan|njaan|nee|ninn|enth|enthin|engane|evidunn|evide|eppo|eppol)\b`),
	// common verb forms
	regexp.MustCompile(`\b(vannu|poyi|undu|illa|aanu|alla|cheyyam|cheyyunnu|kanam|kaanuu)\b`),
}

// Classify returns the language label of text. Any Malayalam-script rune is
// conclusive regardless of how much Latin text surrounds it.
func Classify(text string) Label {
	if MalayalamRunes(text) > 0 {
		return Malayalam
	}

	lower := strings.ToLower(text)
	for _, p := range manglishPatterns {
		if p.MatchString(lower) {
			return Manglish
		}
	}

	return Other
}

// MalayalamRunes counts runes in the Malayalam block.
func MalayalamRunes(text string) int {
	n := 0
	for _, r := range text {
		if r >= blockStart && r <= blockEnd {
			n++
		}
	}
	return n
}

// Code maps a label to the backend language code. Manglish is treated as Malayalam.
func (l Label) Code() string {
	switch l {
	case Malayalam, Manglish:
		return CodeMalayalam
	default:
		return CodeEnglish
	}
}

// IsMalayalam reports whether the label denotes Malayalam in either script.
func (l Label) IsMalayalam() bool {
	return l == Malayalam || l == Manglish
}

// ParseLabel converts a label name from configuration. Unknown names yield false.
func ParseLabel(s string) (Label, bool) {
	switch Label(strings.ToLower(strings.TrimSpace(s))) {
	case Malayalam:
		return Malayalam, true
	case Manglish:
		return Manglish, true
	case Other:
		return Other, true
	}
	return "", false
}

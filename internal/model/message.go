package model

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// TranslationWorkflow exposes every intermediate value of one chat turn.
type TranslationWorkflow struct {
	OriginalMessage        string `json:"original_message"`
	DetectedLanguage       string `json:"detected_language"`
	EnglishForLLM          string `json:"english_for_llm"`
	LLMEnglishResponse     string `json:"llm_english_response,omitempty"`
	FinalMalayalamResponse string `json:"final_malayalam_response,omitempty"`
}

// ChatResponse is the body returned by POST /chat.
type ChatResponse struct {
	Reply                string              `json:"reply"`
	DetectedLanguage     string              `json:"detected_language"`
	SuggestedTTSLanguage string              `json:"suggested_tts_language"`
	TranslationWorkflow  TranslationWorkflow `json:"translation_workflow"`

	// Set only when the LLM could not produce a reply.
	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
}

// TTSRequest is the body of POST /tts.
type TTSRequest struct {
	Text string `json:"text"`
}

// CommandRequest is the body of POST /esp32.
type CommandRequest struct {
	Command string `json:"command"`
}

// Voice describes one synthesis voice offered to clients.
type Voice struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Gender      string `json:"gender"`
	Language    string `json:"language"`
}

// AudioFile describes one clip in the audio directory.
type AudioFile struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Created  string `json:"created"`
}

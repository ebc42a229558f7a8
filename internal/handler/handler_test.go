package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inside-thenga/thenga/internal/audio"
	"github.com/inside-thenga/thenga/internal/llm"
	"github.com/inside-thenga/thenga/internal/model"
	"github.com/inside-thenga/thenga/internal/notifier"
	"github.com/inside-thenga/thenga/internal/service"
	"github.com/inside-thenga/thenga/internal/tts"
	"github.com/inside-thenga/thenga/pkg/logger"
)

type echoTranslator struct{}

func (echoTranslator) Translate(_ context.Context, text, target, source string) (string, string) {
	if target == source {
		return text, source
	}
	return "[" + target + "] " + text, source
}

type fakeCompleter struct {
	reply string
	err   error
}

func (f fakeCompleter) Complete(context.Context, string) (string, error) {
	return f.reply, f.err
}

type fakeStrategy struct {
	mu    sync.Mutex
	audio []byte
	err   error
	calls int
}

func (s *fakeStrategy) Name() string { return "fake" }

func (s *fakeStrategy) Synthesize(context.Context, string, tts.VoiceProfile) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.audio, s.err
}

type fakePlayer struct {
	mu     sync.Mutex
	played []string
}

func (p *fakePlayer) Play(path string) (*audio.Playback, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, audio.ErrClipNotFound
	}
	p.mu.Lock()
	p.played = append(p.played, filepath.Base(path))
	p.mu.Unlock()
	return audio.Finished(path, nil), nil
}

type testServer struct {
	router   http.Handler
	history  *service.ConversationLog
	strategy *fakeStrategy
	player   *fakePlayer
	dir      string
}

func newTestServer(t *testing.T, completer service.Completer) *testServer {
	t.Helper()
	log := logger.NewNop()

	strategy := &fakeStrategy{audio: []byte("ID3-audio")}
	synth := tts.NewSynthesizer([]tts.Strategy{strategy}, 0, log)

	dir := t.TempDir()
	library, err := audio.NewLibrary(dir, synth, log)
	require.NoError(t, err)

	history := service.NewConversationLog(nil, log)
	player := &fakePlayer{}
	notify := notifier.New(library, player, history, 0, log)
	t.Cleanup(notify.Close)

	chat := service.NewChatService(history, echoTranslator{}, completer, service.DefaultPolicy(), log)

	router := NewRouter(Handlers{
		Health:  NewHealthHandler(nil),
		Chat:    NewChatHandler(chat, log),
		Speech:  NewSpeechHandler(synth, log),
		Device:  NewDeviceHandler(notify, log),
		Audio:   NewAudioHandler(library, notify, log),
		History: NewHistoryHandler(history),
	}, RouterOptions{}, log)

	return &testServer{router: router, history: history, strategy: strategy, player: player, dir: dir}
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestChat(t *testing.T) {
	s := newTestServer(t, fakeCompleter{reply: "I am a coconut."})

	rec := s.do(http.MethodPost, "/chat", `{"message":"ninte peru entha"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "[ml] I am a coconut.", resp.Reply)
	assert.Equal(t, "manglish", resp.DetectedLanguage)
	assert.Equal(t, "ml", resp.SuggestedTTSLanguage)
	assert.Equal(t, "[en] ninte peru entha", resp.TranslationWorkflow.EnglishForLLM)
	assert.Equal(t, 2, s.history.Len())
	assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))
}

func TestChatClientErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"no body", "", "No JSON data provided"},
		{"invalid json", "{oops", "No JSON data provided"},
		{"empty object", "{}", "No JSON data provided"},
		{"blank message", `{"message":"  "}`, "No message provided"},
		{"missing message", `{"text":"hi"}`, "No message provided"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, fakeCompleter{reply: "unused"})
			rec := s.do(http.MethodPost, "/chat", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, decode(t, rec)["error"])
			assert.Zero(t, s.history.Len())
		})
	}
}

func TestChatLLMFailureIsBadGateway(t *testing.T) {
	cerr := &llm.CompletionError{Kind: llm.ErrorKindAuth, StatusCode: http.StatusForbidden}
	s := newTestServer(t, fakeCompleter{err: cerr})

	rec := s.do(http.MethodPost, "/chat", `{"message":"Who are you?"}`)
	require.Equal(t, http.StatusBadGateway, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "auth", body["error_kind"])
	assert.Contains(t, body["error"], "403")
	assert.Equal(t, service.DefaultPolicy().FailureReply, body["reply"])
	assert.Equal(t, 1, s.history.Len())
}

func TestTTS(t *testing.T) {
	s := newTestServer(t, fakeCompleter{})

	rec := s.do(http.MethodPost, "/tts", `{"text":"നമസ്കാരം"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "speech.mp3")
	assert.Equal(t, "fake", rec.Header().Get("X-TTS-Strategy"))
	assert.Equal(t, tts.Malayalam.Name, rec.Header().Get("X-TTS-Voice"))
	assert.Equal(t, "ID3-audio", rec.Body.String())
}

func TestTTSEnglishVoice(t *testing.T) {
	s := newTestServer(t, fakeCompleter{})

	rec := s.do(http.MethodPost, "/tts", `{"text":"Hello there"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, tts.English.Name, rec.Header().Get("X-TTS-Voice"))
}

func TestTTSErrors(t *testing.T) {
	s := newTestServer(t, fakeCompleter{})

	rec := s.do(http.MethodPost, "/tts", `{"text":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No text provided", decode(t, rec)["error"])

	rec = s.do(http.MethodPost, "/tts", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No JSON data provided", decode(t, rec)["error"])

	s.strategy.err = errors.New("quota exhausted")
	rec = s.do(http.MethodPost, "/tts", `{"text":"hello"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "TTS failed: fake: quota exhausted", decode(t, rec)["error"])
}

func TestCatalogEndpoints(t *testing.T) {
	s := newTestServer(t, fakeCompleter{})

	rec := s.do(http.MethodGet, "/voices", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var voices struct {
		Voices []model.Voice `json:"voices"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &voices))
	require.NotEmpty(t, voices.Voices)
	for _, v := range voices.Voices {
		assert.True(t, strings.HasPrefix(v.Language, "ml-IN") || strings.HasPrefix(v.Language, "en-IN"), v.Language)
	}

	rec = s.do(http.MethodGet, "/languages", "")
	require.Equal(t, http.StatusOK, rec.Code)
	langs := decode(t, rec)["languages"].(map[string]any)
	assert.Len(t, langs, 5)
	assert.Equal(t, "English", langs["en"])

	rec = s.do(http.MethodGet, "/sample_phrases", "")
	require.Equal(t, http.StatusOK, rec.Code)
	phrases := decode(t, rec)["sample_phrases"].(map[string]any)
	assert.Len(t, phrases["en"], 5)
	assert.Len(t, phrases["ml"], 5)
}

func TestButtonGeneratesThenPlays(t *testing.T) {
	s := newTestServer(t, fakeCompleter{})

	rec := s.do(http.MethodPost, "/esp32/button", `{"button_id":"button1","state":"clicked"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "button1_clicked.mp3", body["audio_file"])
	assert.Equal(t, true, body["audio_played"])
	assert.Equal(t, "LED toggled", body["device_action"])
	assert.FileExists(t, filepath.Join(s.dir, "button1_clicked.mp3"))
	assert.Equal(t, []string{"button1_clicked.mp3"}, s.player.played)

	// Cached on the second press.
	s.do(http.MethodPost, "/esp32/button", `{"button_id":"button1","state":"clicked"}`)
	assert.Equal(t, 1, s.strategy.calls)

	entries := s.history.History()
	require.Len(t, entries, 2)
	assert.Equal(t, model.EntryTypeButton, entries[0].Kind())
}

func TestButtonGenerationFailure(t *testing.T) {
	s := newTestServer(t, fakeCompleter{})
	s.strategy.err = errors.New("offline")

	rec := s.do(http.MethodPost, "/esp32/button", `{"button_id":"button2","state":"pressed"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to generate audio", decode(t, rec)["error"])
	assert.Zero(t, s.history.Len())
}

func TestDeviceEventsRequireJSON(t *testing.T) {
	s := newTestServer(t, fakeCompleter{})
	for _, path := range []string{"/esp32", "/esp32/button", "/esp32/pickup", "/esp32/gyro", "/esp32/placement"} {
		rec := s.do(http.MethodPost, path, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
		assert.Equal(t, "No JSON data provided", decode(t, rec)["error"], path)
	}
}

func TestCommand(t *testing.T) {
	s := newTestServer(t, fakeCompleter{})
	require.NoError(t, os.WriteFile(filepath.Join(s.dir, notifier.CommandClip), []byte("x"), 0o644))

	rec := s.do(http.MethodPost, "/esp32", `{"command":"led_on"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Command received: led_on", body["message"])
	assert.Equal(t, true, body["audio_played"])

	rec = s.do(http.MethodPost, "/esp32", `{"command":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No command provided", decode(t, rec)["error"])
}

func TestPickupWithoutClips(t *testing.T) {
	s := newTestServer(t, fakeCompleter{})

	rec := s.do(http.MethodPost, "/esp32/pickup", `{"device_id":"bot-1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["audio_played"])
	assert.Equal(t, "MPU6050", body["sensor_used"])

	entries := s.history.History()
	require.Len(t, entries, 1)
	assert.Equal(t, model.EntryTypePickup, entries[0].Kind())
}

func TestGyroAndPlacement(t *testing.T) {
	s := newTestServer(t, fakeCompleter{})

	rec := s.do(http.MethodPost, "/esp32/gyro", `{"gyro_x":45.2,"threshold":30}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "gyro_threshold.mp3", body["audio_file"])
	assert.Equal(t, 45.2, body["gyro_values"].(map[string]any)["x"])

	rec = s.do(http.MethodPost, "/esp32/placement", `{"motor_started":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "device_placement_default.mp3", decode(t, rec)["audio_file"])

	assert.Equal(t, 2, s.history.Len())
}

func TestAudioListAndPlay(t *testing.T) {
	s := newTestServer(t, fakeCompleter{})
	require.NoError(t, os.WriteFile(filepath.Join(s.dir, "1.mp3"), []byte("abc"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(s.dir, "notes.txt"), []byte("ignored"), 0o644))

	rec := s.do(http.MethodGet, "/audio/list", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, float64(1), body["total_files"])
	assert.Equal(t, s.dir, body["audio_directory"])
	files := body["audio_files"].([]any)
	assert.Equal(t, "1.mp3", files[0].(map[string]any)["filename"])
	assert.Equal(t, float64(3), files[0].(map[string]any)["size"])

	rec = s.do(http.MethodPost, "/audio/play/1.mp3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, true, body["played"])

	rec = s.do(http.MethodPost, "/audio/play/missing.mp3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, "failed", body["status"])
	assert.Equal(t, false, body["played"])

	rec = s.do(http.MethodPost, "/audio/play/..", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryAndClear(t *testing.T) {
	s := newTestServer(t, fakeCompleter{reply: "ok"})
	s.do(http.MethodPost, "/chat", `{"message":"hello"}`)

	rec := s.do(http.MethodGet, "/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode(t, rec)["history"].([]any)
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].(map[string]any)["type"])
	assert.Equal(t, "bot", history[1].(map[string]any)["type"])

	rec = s.do(http.MethodPost, "/clear_history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "History cleared", decode(t, rec)["message"])

	rec = s.do(http.MethodGet, "/history", "")
	assert.Empty(t, decode(t, rec)["history"])
}

func TestHealthAndIndex(t *testing.T) {
	s := newTestServer(t, fakeCompleter{})

	rec := s.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Thenga")
}

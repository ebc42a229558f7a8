package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/inside-thenga/thenga/internal/model"
)

const azureOutputFormat = "audio-24khz-48kbitrate-mono-mp3"

// Azure synthesizes with the Azure neural TTS REST API, the catalogue behind the
// ml-IN and en-IN neural voices.
type Azure struct {
	key      string
	endpoint string
	client   *http.Client
}

// NewAzure creates the Azure strategy. endpoint overrides the regional base URL.
func NewAzure(key, region, endpoint string, client *http.Client) (*Azure, error) {
	if key == "" {
		return nil, errors.New("azure speech key is required")
	}
	if endpoint == "" {
		if region == "" {
			return nil, errors.New("azure speech region is required")
		}
		endpoint = fmt.Sprintf("https://%s.tts.speech.microsoft.com", region)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Azure{
		key:      key,
		endpoint: strings.TrimSuffix(endpoint, "/"),
		client:   client,
	}, nil
}

// Name implements Strategy.
func (a *Azure) Name() string { return "azure" }

// Synthesize implements Strategy.
func (a *Azure) Synthesize(ctx context.Context, text string, voice VoiceProfile) ([]byte, error) {
	body, err := ssml(text, voice)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint+"/cognitiveservices/v1", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", a.key)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", azureOutputFormat)
	req.Header.Set("User-Agent", "thenga")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("azure request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("azure returned status %d: %s", resp.StatusCode, detail)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading audio: %w", err)
	}
	return audio, nil
}

type azureVoice struct {
	ShortName   string `json:"ShortName"`
	DisplayName string `json:"DisplayName"`
	LocalName   string `json:"LocalName"`
	Gender      string `json:"Gender"`
	Locale      string `json:"Locale"`
}

// ListVoices implements VoiceLister, filtered to Malayalam and Indian English.
func (a *Azure) ListVoices(ctx context.Context) ([]model.Voice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.endpoint+"/cognitiveservices/voices/list", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", a.key)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("azure request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("azure returned status %d", resp.StatusCode)
	}

	var all []azureVoice
	if err := json.NewDecoder(resp.Body).Decode(&all); err != nil {
		return nil, fmt.Errorf("decoding voices: %w", err)
	}

	voices := make([]model.Voice, 0)
	for _, v := range all {
		if !supportedLocale(v.ShortName) {
			continue
		}
		voices = append(voices, model.Voice{
			Name:        v.ShortName,
			DisplayName: v.DisplayName,
			Gender:      v.Gender,
			Language:    v.Locale,
		})
	}
	return voices, nil
}

// ssml wraps text in a single-voice SSML document.
func ssml(text string, voice VoiceProfile) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<speak version="1.0" xmlns="http://www.w3.org/2001/10/synthesis" xml:lang="%s"><voice name="%s">`, voice.Locale, voice.Name)
	if err := xml.EscapeText(&buf, []byte(text)); err != nil {
		return nil, fmt.Errorf("escaping text: %w", err)
	}
	buf.WriteString(`</voice></speak>`)
	return buf.Bytes(), nil
}

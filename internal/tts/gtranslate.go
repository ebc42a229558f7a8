package tts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"
)

// DefaultGTranslateURL is the Google Translate speech endpoint.
const DefaultGTranslateURL = "https://translate.google.com/translate_tts"

// maxChunk is the longest text the endpoint accepts per request, in characters.
const maxChunk = 100

// GTranslate synthesizes with the Google Translate speech endpoint using the simple
// language code of the voice.
type GTranslate struct {
	endpoint string
	client   *http.Client
}

// NewGTranslate creates the fallback strategy.
func NewGTranslate(endpoint string, client *http.Client) *GTranslate {
	if endpoint == "" {
		endpoint = DefaultGTranslateURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &GTranslate{endpoint: endpoint, client: client}
}

// Name implements Strategy.
func (g *GTranslate) Name() string { return "gtranslate" }

// Synthesize implements Strategy. Long text is spoken chunk by chunk and the mp3
// frames are concatenated.
func (g *GTranslate) Synthesize(ctx context.Context, text string, voice VoiceProfile) ([]byte, error) {
	chunks := chunkText(text, maxChunk)

	var audio bytes.Buffer
	for i, chunk := range chunks {
		q := url.Values{}
		q.Set("ie", "UTF-8")
		q.Set("client", "tw-ob")
		q.Set("tl", voice.Code)
		q.Set("q", chunk)
		q.Set("total", strconv.Itoa(len(chunks)))
		q.Set("idx", strconv.Itoa(i))
		q.Set("textlen", strconv.Itoa(utf8.RuneCountInString(chunk)))

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+q.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("User-Agent", "Mozilla/5.0")

		resp, err := g.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i, err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("chunk %d: status %d", i, resp.StatusCode)
		}
		_, err = io.Copy(&audio, resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("chunk %d: reading audio: %w", i, err)
		}
	}
	return audio.Bytes(), nil
}

// chunkText splits text on whitespace into pieces of at most limit runes. Words
// longer than limit are split hard.
func chunkText(text string, limit int) []string {
	var (
		chunks []string
		cur    strings.Builder
		n      int
	)
	flush := func() {
		if n > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			n = 0
		}
	}

	for _, word := range strings.Fields(text) {
		runes := []rune(word)
		for len(runes) > limit {
			flush()
			chunks = append(chunks, string(runes[:limit]))
			runes = runes[limit:]
		}
		if len(runes) == 0 {
			continue
		}
		need := len(runes)
		if n > 0 {
			need++
		}
		if n+need > limit {
			flush()
			need = len(runes)
		}
		if n > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(string(runes))
		n += need
	}
	flush()
	return chunks
}

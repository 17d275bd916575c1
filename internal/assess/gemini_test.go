package assess

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/MeKo-Tech/sitescout/internal/types"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var peoplesSquare = types.Coordinate{Lat: 31.2304, Lng: 121.4737}

func geminiBody(t *testing.T, text string) []byte {
	t.Helper()

	resp := map[string]any{
		"candidates": []map[string]any{
			{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": text}},
				},
				"finishReason": "STOP",
			},
		},
	}
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	return data
}

func newTestGemini(t *testing.T, handler http.HandlerFunc) *GeminiProvider {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	g, err := NewGeminiProvider(GeminiConfig{
		APIKey:     "test-key",
		Endpoint:   srv.URL + "/v1beta/",
		HTTPClient: srv.Client(),
	})
	require.NoError(t, err)
	return g
}

func TestNewGeminiProvider_RequiresKey(t *testing.T) {
	_, err := NewGeminiProvider(GeminiConfig{APIKey: "  "})
	require.Error(t, err)
}

func TestGeminiProvider_Success(t *testing.T) {
	var captured geminiRequest

	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-2.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.NoError(t, json.Unmarshal(body, &captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(geminiBody(t, `{"trafficScore":88,"accessibilityScore":95,"residentialDensity":72,"commercialValue":90,"influenceRadius":2200,"description":"Prime retail corridor."}`))
	})

	a, err := g.Assess(context.Background(), peoplesSquare)
	require.NoError(t, err)

	assert.Equal(t, 88.0, a.TrafficScore)
	assert.Equal(t, 2200.0, a.InfluenceRadius)
	assert.Equal(t, types.SourceGemini, a.Source)

	require.Len(t, captured.Contents, 1)
	assert.Contains(t, captured.Contents[0].Parts[0].Text, "31.230400, 121.473700 in Shanghai")
	assert.Contains(t, captured.SystemInstruction.Parts[0].Text, "Shanghai geography")
	assert.Equal(t, "application/json", captured.GenerationConfig.ResponseMimeType)
	assert.Len(t, captured.GenerationConfig.ResponseSchema.Required, 6)
}

func TestGeminiProvider_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    func(t *testing.T) []byte
		invalid bool // expect ErrInvalidPayload
	}{
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   func(*testing.T) []byte { return []byte(`{"error":{"message":"internal"}}`) },
		},
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			body:   func(*testing.T) []byte { return []byte(`{"error":{"message":"API key not valid"}}`) },
		},
		{
			name:    "no candidates",
			status:  http.StatusOK,
			body:    func(*testing.T) []byte { return []byte(`{"candidates":[]}`) },
			invalid: true,
		},
		{
			name:    "envelope not json",
			status:  http.StatusOK,
			body:    func(*testing.T) []byte { return []byte(`<html>`) },
			invalid: true,
		},
		{
			name:    "candidate text not json",
			status:  http.StatusOK,
			body:    func(t *testing.T) []byte { return geminiBody(t, "The site looks promising.") },
			invalid: true,
		},
		{
			name:    "incomplete assessment",
			status:  http.StatusOK,
			body:    func(t *testing.T) []byte { return geminiBody(t, `{"trafficScore":88}`) },
			invalid: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write(tc.body(t))
			})

			_, err := g.Assess(context.Background(), peoplesSquare)
			require.Error(t, err)
			if tc.invalid {
				assert.ErrorIs(t, err, ErrInvalidPayload)
			} else {
				assert.NotErrorIs(t, err, ErrInvalidPayload)
			}
		})
	}
}

func TestGeminiProvider_Live(t *testing.T) {
	if os.Getenv("SITESCOUT_INTEGRATION") != "1" {
		t.Skip("Skipping integration test (set SITESCOUT_INTEGRATION=1 to run)")
	}
	key := os.Getenv("GEMINI_API_KEY")
	if key == "" {
		t.Skip("GEMINI_API_KEY not set")
	}

	g, err := NewGeminiProvider(GeminiConfig{APIKey: key})
	require.NoError(t, err)

	a, err := g.Assess(context.Background(), peoplesSquare)
	require.NoError(t, err)
	t.Logf("assessment: %+v", a)
}

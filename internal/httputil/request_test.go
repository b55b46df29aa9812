package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		header string
		want   string
	}{
		{"header", "/", "Bearer abc", "abc"},
		{"lowercase scheme", "/", "bearer abc", "abc"},
		{"basic auth", "/", "Basic abc", ""},
		{"no scheme", "/", "abc", ""},
		{"query", "/?access_token=xyz", "", "xyz"},
		{"header wins over query", "/?access_token=xyz", "Bearer abc", "abc"},
		{"none", "/", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.url, nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, BearerToken(r))
		})
	}
}

func TestPreferredLanguage(t *testing.T) {
	supported := []string{"en", "ru"}

	tests := []struct {
		name   string
		url    string
		accept string
		want   string
	}{
		{"query", "/?lang=ru", "", "ru"},
		{"unsupported query falls through", "/?lang=de", "ru-RU,ru;q=0.9", "ru"},
		{"accept language", "/", "ru-RU,ru;q=0.9,en;q=0.8", "ru"},
		{"no match", "/", "fr-FR", "en"},
		{"nothing", "/", "", "en"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.url, nil)
			if tt.accept != "" {
				r.Header.Set("Accept-Language", tt.accept)
			}
			assert.Equal(t, tt.want, PreferredLanguage(r, supported, "en"))
		})
	}
}

func TestParseJSON(t *testing.T) {
	var dest struct {
		Title string `json:"title"`
	}

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title": "x"}`))
	require.NoError(t, ParseJSON(httptest.NewRecorder(), r, &dest))
	assert.Equal(t, "x", dest.Title)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name": "x"}`))
	assert.Error(t, ParseJSON(httptest.NewRecorder(), r, &dest), "unknown fields are rejected")

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	assert.Error(t, ParseJSON(httptest.NewRecorder(), r, &dest))
}

func TestOptionalString(t *testing.T) {
	var req struct {
		Description OptionalString `json:"description"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{}`), &req))
	assert.False(t, req.Description.Present)

	require.NoError(t, json.Unmarshal([]byte(`{"description": null}`), &req))
	assert.True(t, req.Description.Present)
	assert.Nil(t, req.Description.Value)

	require.NoError(t, json.Unmarshal([]byte(`{"description": "hi"}`), &req))
	require.NotNil(t, req.Description.Value)
	assert.Equal(t, "hi", *req.Description.Value)
}

func TestOptional_NonString(t *testing.T) {
	var req struct {
		Delay Optional[int] `json:"delay"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"delay": 1500}`), &req))
	require.True(t, req.Delay.Present)
	require.NotNil(t, req.Delay.Value)
	assert.Equal(t, 1500, *req.Delay.Value)

	assert.Error(t, json.Unmarshal([]byte(`{"delay": "soon"}`), &req))
}

func TestRespondErrorWithExtras(t *testing.T) {
	w := httptest.NewRecorder()
	RespondErrorWithExtras(w, http.StatusConflict, "stale", map[string]interface{}{"current_version": 3})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "stale", body["detail"])
	assert.Equal(t, float64(3), body["current_version"])
	assert.Equal(t, float64(409), body["status"])
}

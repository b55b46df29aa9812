package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/text/language"

	"platformo/internal/config"
)

// ParseJSON decodes JSON from the request body into the given destination.
// The body is capped at one workspace message; a full workspace snapshot is
// the largest thing any endpoint accepts.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, config.MaxWorkspaceMessageBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	return nil
}

// BearerToken returns the access token from the Authorization header, or
// from the access_token query parameter when the header is absent. Browsers
// cannot set headers on websocket upgrades or EventSource requests.
func BearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return ""
		}
		return strings.TrimSpace(token)
	}
	return r.URL.Query().Get("access_token")
}

// PreferredLanguage picks the UI language: the lang query parameter if
// supported, then the best Accept-Language match, then fallback.
func PreferredLanguage(r *http.Request, supported []string, fallback string) string {
	if lang := r.URL.Query().Get("lang"); lang != "" {
		for _, s := range supported {
			if s == lang {
				return lang
			}
		}
	}

	accept := r.Header.Get("Accept-Language")
	if accept == "" || len(supported) == 0 {
		return fallback
	}

	tags := make([]language.Tag, len(supported))
	for i, s := range supported {
		tags[i] = language.Make(s)
	}
	desired, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(desired) == 0 {
		return fallback
	}
	_, index, confidence := language.NewMatcher(tags).Match(desired...)
	if confidence == language.No {
		return fallback
	}
	return supported[index]
}

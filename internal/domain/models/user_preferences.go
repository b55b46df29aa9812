package models

import (
	"encoding/json"
	"time"
)

// JSONMap is a type alias for JSONB columns
type JSONMap map[string]interface{}

// UserPreferences represents user-specific settings.
// All preferences are stored in a single JSONB column with namespaced structure.
type UserPreferences struct {
	UserID      string    `json:"user_id" db:"user_id"`
	Preferences JSONMap   `json:"preferences" db:"preferences"` // Namespaced JSONB: {ui, editor}
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// UIPreferences represents the ui namespace in preferences
type UIPreferences struct {
	Language string `json:"language"` // "" follows the browser
}

// EditorPreferences represents the editor namespace in preferences
type EditorPreferences struct {
	AutosaveDebounceMS *int `json:"autosave_debounce_ms"` // Pointer to allow null (server default)
}

// GetUI extracts the ui namespace from preferences
func (up *UserPreferences) GetUI() (*UIPreferences, error) {
	var ui UIPreferences
	if err := up.namespace("ui", &ui); err != nil {
		return nil, err
	}
	return &ui, nil
}

// GetEditor extracts the editor namespace from preferences
func (up *UserPreferences) GetEditor() (*EditorPreferences, error) {
	var editor EditorPreferences
	if err := up.namespace("editor", &editor); err != nil {
		return nil, err
	}
	return &editor, nil
}

// SetNamespace replaces one namespace with the JSON form of value
func (up *UserPreferences) SetNamespace(key string, value interface{}) error {
	if up.Preferences == nil {
		up.Preferences = JSONMap{}
	}

	// Convert to map for storage
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}

	up.Preferences[key] = m
	return nil
}

// namespace decodes one namespace into dest, leaving dest untouched when absent
func (up *UserPreferences) namespace(key string, dest interface{}) error {
	if up.Preferences == nil {
		return nil
	}
	raw, ok := up.Preferences[key]
	if !ok || raw == nil {
		return nil
	}

	// Re-marshal to ensure type safety
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

// UpdatePreferencesRequest represents the request to update user preferences.
// Only provided namespaces are replaced.
type UpdatePreferencesRequest struct {
	UI     *UIPreferences     `json:"ui"`
	Editor *EditorPreferences `json:"editor"`
}

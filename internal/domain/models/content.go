package models

import (
	"encoding/json"
	"time"
)

// ProjectContent is the single serialized workspace stored per project.
// Content holds the JSON envelope written by the editor ({"blocklyXml": ...}).
type ProjectContent struct {
	ProjectID string          `json:"project_id" db:"project_id"`
	Content   json.RawMessage `json:"content" db:"content"`
	Version   int             `json:"version" db:"version"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// SaveTrigger records what caused a content write.
type SaveTrigger string

const (
	SaveTriggerAutosave SaveTrigger = "autosave"
	SaveTriggerManual   SaveTrigger = "manual"
	SaveTriggerAPI      SaveTrigger = "api"
)

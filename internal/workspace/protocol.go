package workspace

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"platformo/internal/config"
	"platformo/internal/domain/models"
	"platformo/internal/editor"
)

// MessageType discriminates workspace protocol messages.
type MessageType string

// Client to server.
const (
	MsgEvent       MessageType = "event"
	MsgSave        MessageType = "save"
	MsgRun         MessageType = "run"
	MsgSetLanguage MessageType = "set_language"
	MsgClose       MessageType = "close"
)

// Server to client.
const (
	MsgReady        MessageType = "ready"
	MsgSaved        MessageType = "saved"
	MsgNotification MessageType = "notification"
	MsgScene        MessageType = "scene"
	MsgRemoteSaved  MessageType = "remote_saved"
	MsgLanguage     MessageType = "language"
	MsgError        MessageType = "error"
)

// InboundMessage is one client message.
type InboundMessage struct {
	Type MessageType `json:"type"`
	// Event is set for "event"
	Event *editor.ChangeEvent `json:"event,omitempty"`
	// Content optionally carries the latest snapshot with "save" and "run"
	Content *string `json:"content,omitempty"`
	// Language is set for "set_language"
	Language string `json:"language,omitempty"`
}

// Validate implements validation.Validatable
func (m InboundMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Type,
			validation.Required,
			validation.In(MsgEvent, MsgSave, MsgRun, MsgSetLanguage, MsgClose),
		),
		validation.Field(&m.Event,
			validation.When(m.Type == MsgEvent, validation.Required, validation.By(requireKind)),
		),
		validation.Field(&m.Language,
			validation.When(m.Type == MsgSetLanguage, validation.Required, validation.Length(2, 16)),
		),
		validation.Field(&m.Content, validation.Length(0, config.MaxContentBytes)),
	)
}

func requireKind(value interface{}) error {
	ev, ok := value.(*editor.ChangeEvent)
	if !ok || ev == nil {
		return nil
	}
	if ev.Kind == "" {
		return fmt.Errorf("kind is required")
	}
	if ev.Content != nil && len(*ev.Content) > config.MaxContentBytes {
		return fmt.Errorf("content exceeds %d bytes", config.MaxContentBytes)
	}
	return nil
}

// Notification is a transient, localized message for the user.
type Notification struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	// Variant is "default" or "destructive"
	Variant string `json:"variant"`
	Detail  string `json:"detail,omitempty"`
}

const (
	VariantDefault     = "default"
	VariantDestructive = "destructive"
)

// OutboundMessage is one server message. Only the fields relevant to Type
// are set.
type OutboundMessage struct {
	Type MessageType `json:"type"`

	SessionID string          `json:"session_id,omitempty"`
	Project   *models.Project `json:"project,omitempty"`
	ReadOnly  bool            `json:"read_only,omitempty"`
	// Content is the workspace XML to load into the editor
	Content  string                 `json:"content,omitempty"`
	Version  int                    `json:"version,omitempty"`
	Trigger  models.SaveTrigger     `json:"trigger,omitempty"`
	Language string                 `json:"language,omitempty"`
	Blocks   *editor.Catalog        `json:"blocks,omitempty"`
	Strings  map[string]interface{} `json:"strings,omitempty"`

	Notification *Notification `json:"notification,omitempty"`
	Scene        *editor.Scene `json:"scene,omitempty"`

	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}

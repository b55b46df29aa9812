package config

const (
	// MaxProjectTitleLength is the maximum length for project titles.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255).
	MaxProjectTitleLength = 255

	// MaxProjectDescriptionLength is the maximum length for project descriptions.
	MaxProjectDescriptionLength = 2000

	// MaxContentBytes caps a serialized workspace. Block graphs of real
	// projects are a few KB; anything near this is a runaway client.
	MaxContentBytes = 5 << 20

	// MaxWorkspaceMessageBytes caps one inbound websocket frame. Every editor
	// event may carry a full snapshot, so this tracks MaxContentBytes.
	MaxWorkspaceMessageBytes = MaxContentBytes + 64<<10

	// DefaultAutosaveDebounceMS is the quiet period before an autosave fires.
	DefaultAutosaveDebounceMS = 2000

	// Bounds for a per-user autosave debounce preference
	MinAutosaveDebounceMS = 250
	MaxAutosaveDebounceMS = 10000
)

package editor

// Kind is the block editor's event type name.
type Kind string

// Drag markers. The editor also sends a plain "drag" event with is_start set.
const (
	KindDrag      Kind = "drag"
	KindDragStart Kind = "drag_start"
	KindDragEnd   Kind = "drag_end"
)

// Structural kinds alter the serialized graph.
const (
	KindCreate        Kind = "create"
	KindDelete        Kind = "delete"
	KindMove          Kind = "move"
	KindChange        Kind = "change"
	KindVarCreate     Kind = "var_create"
	KindVarDelete     Kind = "var_delete"
	KindVarRename     Kind = "var_rename"
	KindCommentCreate Kind = "comment_create"
	KindCommentDelete Kind = "comment_delete"
	KindCommentChange Kind = "comment_change"
	KindCommentMove   Kind = "comment_move"
)

// Cosmetic kinds only touch UI state.
const (
	KindSelected          Kind = "selected"
	KindClick             Kind = "click"
	KindViewportChange    Kind = "viewport_change"
	KindThemeChange       Kind = "theme_change"
	KindToolboxItemSelect Kind = "toolbox_item_select"
	KindFinishedLoading   Kind = "finished_loading"
	KindBubbleOpen        Kind = "bubble_open"
	KindTrashcanOpen      Kind = "trashcan_open"
	KindUI                Kind = "ui"
)

// Class is the autosave-relevant category of an event.
type Class int

const (
	ClassCosmetic Class = iota
	ClassDragStart
	ClassDragEnd
	ClassStructural
)

func (c Class) String() string {
	switch c {
	case ClassDragStart:
		return "drag_start"
	case ClassDragEnd:
		return "drag_end"
	case ClassStructural:
		return "structural"
	default:
		return "cosmetic"
	}
}

var structuralKinds = map[Kind]bool{
	KindCreate:        true,
	KindDelete:        true,
	KindMove:          true,
	KindChange:        true,
	KindVarCreate:     true,
	KindVarDelete:     true,
	KindVarRename:     true,
	KindCommentCreate: true,
	KindCommentDelete: true,
	KindCommentChange: true,
	KindCommentMove:   true,
}

// ChangeEvent is one notification from the editor surface.
type ChangeEvent struct {
	Kind    Kind   `json:"kind"`
	BlockID string `json:"block_id,omitempty"`
	// IsStart qualifies a plain "drag" event
	IsStart *bool `json:"is_start,omitempty"`
	// Content is the editor's serialized graph after the event, when the
	// client sent one
	Content *string `json:"content,omitempty"`
}

// Class classifies the event. Unknown kinds are cosmetic.
func (e ChangeEvent) Class() Class {
	switch e.Kind {
	case KindDragStart:
		return ClassDragStart
	case KindDragEnd:
		return ClassDragEnd
	case KindDrag:
		if e.IsStart == nil {
			return ClassCosmetic
		}
		if *e.IsStart {
			return ClassDragStart
		}
		return ClassDragEnd
	}
	if structuralKinds[e.Kind] {
		return ClassStructural
	}
	return ClassCosmetic
}

package editor

import (
	"platformo/internal/i18n"
)

// Block type names understood by the scene compiler.
const (
	BlockTypeRun   = "ar_run"
	BlockTypeModel = "ar_3d_model"

	RunStatementInput = "BLOCKS"
	ModelField        = "MODEL"
)

// Model shapes offered by the 3D model dropdown.
const (
	ModelCube     = "CUBE"
	ModelSphere   = "SPHERE"
	ModelCylinder = "CYLINDER"
)

// DropdownOption is a [label, value] pair.
type DropdownOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// FieldDefinition describes a block field.
type FieldDefinition struct {
	Name    string           `json:"name"`
	Type    string           `json:"type"`
	Options []DropdownOption `json:"options,omitempty"`
}

// BlockDefinition is the editor-side definition of one block type.
type BlockDefinition struct {
	Type              string            `json:"type"`
	Label             string            `json:"label"`
	Tooltip           string            `json:"tooltip"`
	Colour            int               `json:"colour"`
	Fields            []FieldDefinition `json:"fields,omitempty"`
	StatementInput    string            `json:"statement_input,omitempty"`
	PreviousStatement bool              `json:"previous_statement"`
	NextStatement     bool              `json:"next_statement"`
}

// ToolboxCategory groups blocks in the toolbox.
type ToolboxCategory struct {
	Name   string   `json:"name"`
	Colour int      `json:"colour"`
	Blocks []string `json:"blocks"`
}

// Catalog is the language-specific block definition table handed to one
// editor surface. Each surface gets its own value; nothing is registered
// globally, so a language switch builds a new catalog and a new surface.
type Catalog struct {
	Language string            `json:"language"`
	Blocks   []BlockDefinition `json:"blocks"`
	Toolbox  []ToolboxCategory `json:"toolbox"`
}

// NewCatalog derives the block definitions from a string table.
func NewCatalog(table *i18n.Table) *Catalog {
	run := BlockDefinition{
		Type:           BlockTypeRun,
		Label:          table.T("arComponents.run"),
		Tooltip:        table.T("arComponents.run"),
		Colour:         230,
		StatementInput: RunStatementInput,
	}

	model := BlockDefinition{
		Type:    BlockTypeModel,
		Label:   table.T("arComponents.model"),
		Tooltip: table.T("arComponents.model"),
		Colour:  160,
		Fields: []FieldDefinition{{
			Name: ModelField,
			Type: "field_dropdown",
			Options: []DropdownOption{
				{Label: table.T("arComponents.modelTypes.cube"), Value: ModelCube},
				{Label: table.T("arComponents.modelTypes.sphere"), Value: ModelSphere},
				{Label: table.T("arComponents.modelTypes.cylinder"), Value: ModelCylinder},
			},
		}},
		PreviousStatement: true,
		NextStatement:     true,
	}

	return &Catalog{
		Language: table.Language,
		Blocks:   []BlockDefinition{run, model},
		Toolbox: []ToolboxCategory{{
			Name:   table.T("arComponents.category"),
			Colour: 230,
			Blocks: []string{BlockTypeRun, BlockTypeModel},
		}},
	}
}

// Block returns the definition for a block type, or nil
func (c *Catalog) Block(blockType string) *BlockDefinition {
	for i := range c.Blocks {
		if c.Blocks[i].Type == blockType {
			return &c.Blocks[i]
		}
	}
	return nil
}

// IsModelValue reports whether v is one of the dropdown values
func (c *Catalog) IsModelValue(v string) bool {
	def := c.Block(BlockTypeModel)
	if def == nil || len(def.Fields) == 0 {
		return false
	}
	for _, opt := range def.Fields[0].Options {
		if opt.Value == v {
			return true
		}
	}
	return false
}

package editor

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// EmptyWorkspaceXML is what the editor serializes for a workspace without blocks.
const EmptyWorkspaceXML = `<xml xmlns="https://developers.google.com/blockly/xml"></xml>`

// contentXMLPath is the envelope key the editor page has always written.
const contentXMLPath = "blocklyXml"

var (
	// ErrMalformedContent means the stored payload could not be decoded
	ErrMalformedContent = errors.New("malformed workspace content")
	// ErrNoWorkspace means the payload is valid JSON without a block workspace,
	// e.g. a graph-canvas document from before the block editor
	ErrNoWorkspace = errors.New("content has no block workspace")
)

// EncodeContent wraps serialized workspace XML into the stored envelope.
func EncodeContent(workspaceXML string) (json.RawMessage, error) {
	raw, err := sjson.SetBytes([]byte(`{}`), contentXMLPath, workspaceXML)
	if err != nil {
		return nil, fmt.Errorf("encode content: %w", err)
	}
	return raw, nil
}

// DecodeContent extracts the workspace XML from a stored envelope. An empty
// or null payload is an empty workspace.
func DecodeContent(raw json.RawMessage) (string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return EmptyWorkspaceXML, nil
	}
	if !gjson.Valid(trimmed) {
		return "", ErrMalformedContent
	}

	root := gjson.Parse(trimmed)
	if !root.IsObject() {
		return "", fmt.Errorf("%w: envelope is %s, not an object", ErrMalformedContent, root.Type)
	}

	field := root.Get(contentXMLPath)
	switch {
	case !field.Exists():
		return "", ErrNoWorkspace
	case field.Type != gjson.String:
		return "", fmt.Errorf("%w: %s is %s", ErrMalformedContent, contentXMLPath, field.Type)
	case strings.TrimSpace(field.Str) == "":
		return EmptyWorkspaceXML, nil
	}
	return field.Str, nil
}

// LoadWorkspace decodes and validates stored content. On any failure it
// returns the empty workspace together with the error, so callers can report
// the problem and keep going.
func LoadWorkspace(raw json.RawMessage) (string, error) {
	workspaceXML, err := DecodeContent(raw)
	if err != nil {
		return EmptyWorkspaceXML, err
	}
	if err := ValidateWorkspace(workspaceXML); err != nil {
		return EmptyWorkspaceXML, err
	}
	return workspaceXML, nil
}

type xmlWorkspace struct {
	XMLName xml.Name   `xml:"xml"`
	Blocks  []xmlBlock `xml:"block"`
}

type xmlBlock struct {
	Type       string         `xml:"type,attr"`
	ID         string         `xml:"id,attr"`
	Fields     []xmlField     `xml:"field"`
	Statements []xmlStatement `xml:"statement"`
	Next       *xmlNext       `xml:"next"`
}

type xmlField struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

type xmlStatement struct {
	Name  string    `xml:"name,attr"`
	Block *xmlBlock `xml:"block"`
}

type xmlNext struct {
	Block *xmlBlock `xml:"block"`
}

func (b *xmlBlock) field(name string) string {
	for _, f := range b.Fields {
		if f.Name == name {
			return strings.TrimSpace(f.Value)
		}
	}
	return ""
}

func (b *xmlBlock) statement(name string) *xmlBlock {
	for _, s := range b.Statements {
		if s.Name == name {
			return s.Block
		}
	}
	return nil
}

// ValidateWorkspace checks that workspaceXML is a serialized block workspace.
func ValidateWorkspace(workspaceXML string) error {
	_, err := parseWorkspace(workspaceXML)
	return err
}

func parseWorkspace(workspaceXML string) (*xmlWorkspace, error) {
	var ws xmlWorkspace
	if err := xml.Unmarshal([]byte(workspaceXML), &ws); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedContent, err)
	}
	for i := range ws.Blocks {
		if ws.Blocks[i].Type == "" {
			return nil, fmt.Errorf("%w: top-level block %d has no type", ErrMalformedContent, i)
		}
	}
	return &ws, nil
}

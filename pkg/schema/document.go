package schema

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formtree/pkg/props"
	"github.com/goliatone/go-formtree/pkg/requirement"
)

// SerializedSubfield is one declared field of a structure as it appears in a
// schema document. Type names another structure.
type SerializedSubfield struct {
	Name        string            `json:"name" yaml:"name"`
	Type        string            `json:"type" yaml:"type"`
	Multi       bool              `json:"multi,omitempty" yaml:"multi,omitempty"`
	Requirement requirement.Level `json:"requirement" yaml:"requirement"`
	Properties  props.Map         `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// SerializedStructure is a structure as it appears in a schema document. The
// first subfield becomes the structure's top field.
type SerializedStructure struct {
	TypeName         string               `json:"typeName" yaml:"typeName"`
	WidgetType       string               `json:"widgetType,omitempty" yaml:"widgetType,omitempty"`
	WidgetProperties props.Map            `json:"widgetProperties,omitempty" yaml:"widgetProperties,omitempty"`
	Subfields        []SerializedSubfield `json:"subfields,omitempty" yaml:"subfields,omitempty"`
}

// Document is a decoded schema document. Order within Data is irrelevant.
type Document struct {
	Data   []SerializedStructure `json:"data" yaml:"data"`
	source Source
}

// Source returns where the document was loaded from.
func (d Document) Source() Source {
	return d.source
}

// DecodeDocument parses raw as JSON, falling back to YAML. A bare array of
// structures is accepted in place of the {data: [...]} envelope.
func DecodeDocument(src Source, raw []byte) (Document, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Document{}, fmt.Errorf("schema: document %s is empty", src)
	}

	if trimmed[0] == '[' {
		var data []SerializedStructure
		if err := json.Unmarshal(trimmed, &data); err != nil {
			return Document{}, fmt.Errorf("schema: decode %s: %w", src, err)
		}
		return Document{Data: data, source: src}, nil
	}

	var doc Document
	jsonErr := json.Unmarshal(trimmed, &doc)
	if jsonErr == nil {
		doc.source = src
		return doc, nil
	}

	var yamlDoc Document
	if err := yaml.Unmarshal(trimmed, &yamlDoc); err == nil {
		yamlDoc.source = src
		return yamlDoc, nil
	}

	return Document{}, fmt.Errorf("schema: decode %s: invalid JSON or YAML: %w", src, jsonErr)
}

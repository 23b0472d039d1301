package schema

import (
	"sync"

	"github.com/goliatone/go-formtree/pkg/props"
	"github.com/goliatone/go-formtree/pkg/requirement"
	"github.com/goliatone/go-formtree/pkg/widgets"
)

// Subfield is a resolved field declaration. Type always points into the
// registry that resolved it; Properties already carry the referenced
// structure's top-field properties as defaults.
type Subfield struct {
	Name        string
	TypeName    string
	Type        *Structure
	Multi       bool
	Requirement requirement.Level
	Properties  props.Map

	own props.Map
}

// Label returns the "label" property, falling back to the name.
func (s *Subfield) Label() string {
	if label := s.Properties.String("label"); label != "" {
		return label
	}
	return s.Name
}

// Tooltip returns the "tooltipExplanation" property.
func (s *Subfield) Tooltip() string {
	return s.Properties.String("tooltipExplanation")
}

// ValueKey is the key the field's own widget value takes in an expanded
// payload. It is the subfield name unless the referenced structure declares a
// subfield of that name, as self-referencing structures do; then the
// referenced structure's top-field name is used.
func (s *Subfield) ValueKey() string {
	if s.Type == nil {
		return s.Name
	}
	if _, clash := s.Type.Subfield(s.Name); !clash {
		return s.Name
	}
	if top := s.Type.TopField; top != nil && top.Name != "" {
		if _, clash := s.Type.Subfield(top.Name); !clash {
			return top.Name
		}
	}
	return s.Name
}

// OwnProperties returns the properties declared on the subfield itself,
// before defaulting.
func (s *Subfield) OwnProperties() props.Map {
	return props.Clone(s.own)
}

// Structure is a named field layout. Structures are immutable after
// registration except for the widget resolution cache.
type Structure struct {
	TypeName         string
	WidgetType       string
	WidgetProperties props.Map
	TopField         *Subfield
	Subfields        []*Subfield

	registry *Registry

	mu          sync.Mutex
	resolved    bool
	descriptor  widgets.Descriptor
	widgetProps props.Map
}

// HasSubfields reports whether the structure declares nested fields beyond
// its top field.
func (s *Structure) HasSubfields() bool {
	return len(s.Subfields) > 0
}

// Subfield returns the declared subfield with the given name.
func (s *Structure) Subfield(name string) (*Subfield, bool) {
	for _, sub := range s.Subfields {
		if sub.Name == name {
			return sub, true
		}
	}
	return nil, false
}

// ResolveWidget resolves the widget that renders the structure. Structures
// without a direct widget type delegate to their top field's structure, step
// by step, until one declares a widget type. Widget properties declared along
// the chain are merged with the outermost structure winning. The first
// successful resolution is cached. Dead ends and cycles are logged and report
// false.
func (s *Structure) ResolveWidget() (widgets.Descriptor, props.Map, bool) {
	s.mu.Lock()
	if s.resolved {
		descriptor, widgetProps := s.descriptor, props.Clone(s.widgetProps)
		s.mu.Unlock()
		return descriptor, widgetProps, true
	}
	s.mu.Unlock()
	if s.registry == nil {
		return widgets.Descriptor{}, nil, false
	}

	logger := s.registry.logger
	var chain []*Structure
	seen := make(map[*Structure]struct{})
	cur := s
	for {
		if _, loop := seen[cur]; loop {
			logger.Error().Str("structure", s.TypeName).Str("at", cur.TypeName).Msg("widget type chain is cyclic")
			return widgets.Descriptor{}, nil, false
		}
		seen[cur] = struct{}{}
		chain = append(chain, cur)

		if cur.WidgetType != "" {
			break
		}
		if cur.TopField == nil || cur.TopField.Type == nil {
			logger.Error().Str("structure", s.TypeName).Str("at", cur.TypeName).Msg("widget type chain has no widget type")
			return widgets.Descriptor{}, nil, false
		}
		cur = cur.TopField.Type
	}

	descriptor, ok := s.registry.widgets.Lookup(cur.WidgetType)
	if !ok {
		logger.Error().Str("structure", s.TypeName).Str("widget", cur.WidgetType).Msg("widget type not registered")
		return widgets.Descriptor{}, nil, false
	}

	var merged props.Map
	for i := len(chain) - 1; i >= 0; i-- {
		merged = props.DeepMerge(merged, chain[i].WidgetProperties)
	}

	s.mu.Lock()
	s.resolved = true
	s.descriptor = descriptor
	s.widgetProps = merged
	s.mu.Unlock()
	return descriptor, props.Clone(merged), true
}

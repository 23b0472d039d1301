package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-formtree/pkg/props"
	"github.com/goliatone/go-formtree/pkg/widgets"
)

// Configuration errors reported by ParseModels.
var (
	ErrDuplicateType  = errors.New("schema: duplicate type name")
	ErrMissingType    = errors.New("schema: type name is required")
	ErrUnresolvedType = errors.New("schema: unresolved type")
	ErrInvalidLevel   = errors.New("schema: invalid requirement")
)

// Registry holds every registered structure keyed by type name. Lookups
// return the registry's own pointers.
type Registry struct {
	mu         sync.RWMutex
	structures map[string]*Structure
	widgets    *widgets.Registry
	logger     zerolog.Logger
	implicit   bool
}

// Option customises a Registry.
type Option func(*Registry)

// WithWidgets sets the widget registry used to resolve widget types.
func WithWidgets(reg *widgets.Registry) Option {
	return func(r *Registry) {
		if reg != nil {
			r.widgets = reg
		}
	}
}

// WithLogger sets the logger for configuration errors.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithImplicitWidgetTypes controls whether a subfield type naming a
// registered widget resolves to a synthesized primitive structure when no
// structure of that name exists. Enabled by default.
func WithImplicitWidgetTypes(enabled bool) Option {
	return func(r *Registry) {
		r.implicit = enabled
	}
}

// NewRegistry constructs an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		structures: make(map[string]*Structure),
		logger:     zerolog.Nop(),
		implicit:   true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.widgets == nil {
		r.widgets = widgets.NewDefaultRegistry()
	}
	return r
}

// Widgets returns the widget registry.
func (r *Registry) Widgets() *widgets.Registry {
	return r.widgets
}

// Lookup returns the structure registered under name.
func (r *Registry) Lookup(name string) (*Structure, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.structures[name]
	return s, ok
}

// Names returns the sorted registered type names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.structures))
	for name := range r.structures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered structures.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.structures)
}

// ParseModels registers a batch of serialized structures in two passes. The
// first pass registers every structure by name, splitting off its first
// subfield as the top field. The second pass resolves each subfield's type
// against the whole registry, so references may point forward within the
// batch or form cycles, and deep-merges the referenced structure's
// top-field properties under the subfield's own.
//
// Configuration problems are logged and skipped; the structures that could be
// registered stay registered and the problems are returned joined.
func (r *Registry) ParseModels(serialized []SerializedStructure) ([]*Structure, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	report := func(err error) {
		r.logger.Error().Err(err).Msg("schema configuration error")
		errs = append(errs, err)
	}

	type pending struct {
		structure *Structure
		fields    []SerializedSubfield
	}
	batch := make([]pending, 0, len(serialized))

	for _, raw := range serialized {
		name := strings.TrimSpace(raw.TypeName)
		if name == "" {
			report(ErrMissingType)
			continue
		}
		if _, exists := r.structures[name]; exists {
			report(fmt.Errorf("%w: %q", ErrDuplicateType, name))
			continue
		}
		structure := &Structure{
			TypeName:         name,
			WidgetType:       strings.TrimSpace(raw.WidgetType),
			WidgetProperties: props.Clone(raw.WidgetProperties),
			registry:         r,
		}
		r.structures[name] = structure
		batch = append(batch, pending{structure: structure, fields: raw.Subfields})
	}

	for _, item := range batch {
		structure := item.structure
		for idx, raw := range item.fields {
			sub, err := r.resolveSubfield(structure, raw)
			if err != nil {
				report(err)
				continue
			}
			if idx == 0 {
				structure.TopField = sub
				continue
			}
			structure.Subfields = append(structure.Subfields, sub)
		}
	}

	merger := newPropertyMerger(r.logger)
	out := make([]*Structure, 0, len(batch))
	for _, item := range batch {
		structure := item.structure
		if structure.TopField != nil {
			structure.TopField.Properties = merger.merged(structure.TopField)
		}
		for _, sub := range structure.Subfields {
			sub.Properties = merger.merged(sub)
		}
		out = append(out, structure)
	}

	return out, errors.Join(errs...)
}

func (r *Registry) resolveSubfield(owner *Structure, raw SerializedSubfield) (*Subfield, error) {
	name := strings.TrimSpace(raw.Name)
	if name == "" {
		return nil, fmt.Errorf("schema: %s: subfield name is required", owner.TypeName)
	}
	if !raw.Requirement.Valid() {
		return nil, fmt.Errorf("%w: %s.%s", ErrInvalidLevel, owner.TypeName, name)
	}
	typeName := strings.TrimSpace(raw.Type)
	target, ok := r.structures[typeName]
	if !ok {
		target, ok = r.implicitStructure(typeName)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s references %q", ErrUnresolvedType, owner.TypeName, name, typeName)
	}
	return &Subfield{
		Name:        name,
		TypeName:    typeName,
		Type:        target,
		Multi:       raw.Multi,
		Requirement: raw.Requirement,
		own:         props.Clone(raw.Properties),
	}, nil
}

// implicitStructure registers a primitive structure for a bare widget name.
// Callers hold the write lock.
func (r *Registry) implicitStructure(typeName string) (*Structure, bool) {
	if !r.implicit || typeName == "" {
		return nil, false
	}
	if _, ok := r.widgets.Lookup(typeName); !ok {
		return nil, false
	}
	structure := &Structure{TypeName: typeName, WidgetType: typeName, registry: r}
	r.structures[typeName] = structure
	r.logger.Debug().Str("type", typeName).Msg("registered implicit widget structure")
	return structure, true
}

// propertyMerger computes effective subfield properties: the referenced
// structure's effective top-field properties deep-merged under the
// subfield's own. Results are memoized per subfield and cycles fall back to
// the subfield's own properties.
type propertyMerger struct {
	done     map[*Subfield]props.Map
	visiting map[*Subfield]bool
	logger   zerolog.Logger
}

func newPropertyMerger(logger zerolog.Logger) *propertyMerger {
	return &propertyMerger{
		done:     make(map[*Subfield]props.Map),
		visiting: make(map[*Subfield]bool),
		logger:   logger,
	}
}

func (m *propertyMerger) merged(sub *Subfield) props.Map {
	if result, ok := m.done[sub]; ok {
		return result
	}
	if m.visiting[sub] {
		m.logger.Debug().Str("subfield", sub.Name).Msg("property defaults are cyclic")
		return props.Clone(sub.own)
	}
	m.visiting[sub] = true
	var defaults props.Map
	if sub.Type != nil && sub.Type.TopField != nil {
		defaults = m.merged(sub.Type.TopField)
	}
	result := props.DeepMerge(defaults, sub.own)
	delete(m.visiting, sub)
	m.done[sub] = result
	return result
}

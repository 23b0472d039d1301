package widgets

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/goccy/go-json"

	"github.com/goliatone/go-formtree/pkg/props"
)

// Factory constructs a widget from its layered configuration.
type Factory func(cfg Config) Widget

// Descriptor bundles a widget constructor with its default properties.
type Descriptor struct {
	Name     string
	Defaults props.Map
	New      Factory
}

// Registry maps widget names found in schema documents to descriptors. It is
// populated at startup and read-only afterwards; callers pass it explicitly
// to the schema resolver and the generator.
type Registry struct {
	mu      sync.RWMutex
	widgets map[string]Descriptor
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		widgets: make(map[string]Descriptor),
	}
}

// NewDefaultRegistry creates a registry with the built-in widgets registered.
func NewDefaultRegistry() *Registry {
	reg := New()
	reg.registerBuiltins()
	return reg
}

// Clone returns a copy of the registry to allow isolated registrations.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cloned := New()
	for name, descriptor := range r.widgets {
		cloned.widgets[name] = cloneDescriptor(descriptor)
	}
	return cloned
}

// Register associates a descriptor with its name. Existing entries are
// replaced.
func (r *Registry) Register(descriptor Descriptor) error {
	name := normalize(descriptor.Name)
	if name == "" {
		return fmt.Errorf("widgets: widget name is required")
	}
	if descriptor.New == nil {
		return fmt.Errorf("widgets: constructor for %q is nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	descriptor.Name = name
	r.widgets[name] = cloneDescriptor(descriptor)
	return nil
}

// MustRegister mirrors Register but panics on error, simplifying startup
// wiring.
func (r *Registry) MustRegister(descriptor Descriptor) {
	if err := r.Register(descriptor); err != nil {
		panic(err)
	}
}

// Lookup fetches a descriptor by name.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	if r == nil {
		return Descriptor{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	descriptor, ok := r.widgets[normalize(name)]
	if !ok {
		return Descriptor{}, false
	}
	return cloneDescriptor(descriptor), true
}

// Names returns the sorted registered widget names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.widgets))
	for name := range r.widgets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Build constructs the named widget. Properties layer as descriptor defaults,
// then cfg.Properties, then the JSON object in the host's PropertiesAttr; each
// layer is deep-merged over the previous one.
func (r *Registry) Build(name string, cfg Config) (Widget, error) {
	descriptor, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("widgets: widget %q not registered", name)
	}
	return descriptor.Build(cfg)
}

// Build constructs the widget with layered properties.
func (d Descriptor) Build(cfg Config) (Widget, error) {
	if d.New == nil {
		return nil, fmt.Errorf("widgets: constructor for %q is nil", d.Name)
	}
	layered := props.DeepMerge(d.Defaults, cfg.Properties)
	if cfg.Host != nil {
		if raw := strings.TrimSpace(cfg.Host.Attr(PropertiesAttr)); raw != "" {
			var embedded map[string]any
			if err := json.Unmarshal([]byte(raw), &embedded); err != nil {
				cfg.Logger.Error().Err(err).Str("widget", d.Name).Msg("ignoring malformed embedded widget properties")
			} else {
				layered = props.DeepMerge(layered, embedded)
			}
		}
	}
	cfg.Properties = layered
	widget := d.New(cfg)
	if widget == nil {
		return nil, fmt.Errorf("widgets: constructor for %q returned nil", d.Name)
	}
	return widget, nil
}

func (r *Registry) registerBuiltins() {
	r.MustRegister(Descriptor{Name: WidgetText, New: NewText})
	r.MustRegister(Descriptor{Name: WidgetTextarea, New: NewTextarea})
	r.MustRegister(Descriptor{Name: WidgetURL, New: NewURL, Defaults: props.Map{"placeholder": "https://"}})
	r.MustRegister(Descriptor{Name: WidgetDate, New: NewDate, Defaults: props.Map{"placeholder": "YYYY-MM-DD"}})
	r.MustRegister(Descriptor{Name: WidgetNumber, New: NewNumber})
	r.MustRegister(Descriptor{Name: WidgetCheckbox, New: NewCheckbox})
	r.MustRegister(Descriptor{Name: WidgetSelectbox, New: NewSelectbox, Defaults: props.Map{"allowNewEntries": false, "maxResults": 20}})
}

func cloneDescriptor(src Descriptor) Descriptor {
	return Descriptor{
		Name:     src.Name,
		Defaults: props.Clone(src.Defaults),
		New:      src.New,
	}
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

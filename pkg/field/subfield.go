package field

import (
	"context"
	"sort"

	"github.com/goccy/go-json"

	"github.com/goliatone/go-formtree/pkg/dom"
	"github.com/goliatone/go-formtree/pkg/requirement"
	"github.com/goliatone/go-formtree/pkg/schema"
	"github.com/goliatone/go-formtree/pkg/widgets"
)

// State is the lifecycle state of a Field.
type State int

const (
	StateUnbuilt State = iota
	StateBuilt
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateUnbuilt:
		return "unbuilt"
	case StateBuilt:
		return "built"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Field is a single field instance bound to one subfield declaration. Its
// widget renders the referenced structure; when that structure declares
// subfields, children are constructed lazily on first expansion.
type Field struct {
	env    *Env
	sub    *schema.Subfield
	parent Node

	state State
	opts  BuildOptions

	container    *dom.Element
	control      *dom.Element
	subContainer *dom.Element
	toggle       *dom.Element
	toggleID     dom.ListenerID

	widget      widgets.Widget
	requirement *requirement.Requirement
	shared      bool

	children      []Node
	childrenBuilt bool
	expanded      bool
	hidden        bool
}

var _ Node = (*Field)(nil)

type optionLoader interface {
	Source() string
	Load(ctx context.Context, fetcher widgets.Fetcher)
}

func newField(env *Env, sub *schema.Subfield, parent Node) *Field {
	return &Field{env: env, sub: sub, parent: parent}
}

// Name returns the subfield name.
func (f *Field) Name() string { return f.sub.Name }

// RowName is the name of the referenced structure's top field. Fill payloads
// may key the field's own value by either name.
func (f *Field) RowName() string {
	if f.sub.Type != nil && f.sub.Type.TopField != nil {
		return f.sub.Type.TopField.Name
	}
	return ""
}

// Subfield returns the declaration the field is bound to.
func (f *Field) Subfield() *schema.Subfield { return f.sub }

// Structure returns the referenced structure.
func (f *Field) Structure() *schema.Structure { return f.sub.Type }

// Parent returns the enclosing node, nil at the root.
func (f *Field) Parent() Node { return f.parent }

// Element returns the field's container, nil before build.
func (f *Field) Element() *dom.Element { return f.container }

// Control returns the element the requirement styles.
func (f *Field) Control() *dom.Element { return f.control }

// Widget returns the live widget, nil before build and after destroy.
func (f *Field) Widget() widgets.Widget { return f.widget }

// Requirement returns the requirement controller, which is the group's when
// the field is a multi-field row.
func (f *Field) Requirement() *requirement.Requirement { return f.requirement }

// State returns the lifecycle state.
func (f *Field) State() State { return f.state }

// Built reports whether BuildInterface completed.
func (f *Field) Built() bool { return f.state == StateBuilt }

// Destroyed reports whether Destroy ran.
func (f *Field) Destroyed() bool { return f.state == StateDestroyed }

// Expanded reports whether the subfield container is open.
func (f *Field) Expanded() bool { return f.expanded }

// Children returns the live child nodes.
func (f *Field) Children() []Node {
	return append([]Node(nil), f.children...)
}

// Child returns the live child with the given name.
func (f *Field) Child(name string) (Node, bool) {
	for _, child := range f.children {
		if child.Name() == name {
			return child, true
		}
	}
	return nil, false
}

// BuildInterface renders the field into container: label chrome, the widget
// and, when the structure declares subfields, a collapsed container whose
// children are not yet created. Building twice is a no-op.
func (f *Field) BuildInterface(container *dom.Element, opts BuildOptions) error {
	logger := f.env.Logger.With().Str("field", f.sub.Name).Logger()
	switch f.state {
	case StateBuilt:
		logger.Warn().Msg("field already built")
		return nil
	case StateDestroyed:
		return ErrDestroyed
	}
	if container == nil {
		return ErrNoContainer
	}
	if f.sub.Type == nil {
		return ErrNoWidget
	}

	descriptor, widgetProps, ok := f.sub.Type.ResolveWidget()
	if !ok {
		logger.Error().Str("type", f.sub.TypeName).Msg("cannot render field")
		return ErrNoWidget
	}

	f.opts = opts
	doc := container.Document()
	root := doc.CreateElement("div")
	root.AddClass(ClassField)
	root.SetAttr(AttrField, f.sub.Name)
	if opts.Condensed {
		root.AddClass(ClassCondensed)
	}
	if opts.ShowLabel {
		f.buildLabel(root)
	}

	control := root.AppendChild(doc.CreateElement("div"))
	control.AddClass(ClassControl)
	host := control.AppendChild(doc.CreateElement("div"))
	host.AddClass(ClassWidgetHost)
	if embedded, ok := f.sub.Properties.Object(propertyWidgetProps); ok {
		if raw, err := json.Marshal(embedded); err == nil {
			host.SetAttr(widgets.PropertiesAttr, string(raw))
		}
	}

	container.AppendChild(root)
	widget, err := descriptor.Build(widgets.Config{
		Host:       host,
		FieldName:  f.sub.Name,
		Required:   f.sub.Requirement >= requirement.Recommended,
		Properties: widgetProps,
		Logger:     f.env.Logger,
	})
	if err == nil {
		err = widget.Initialize(opts.ReadOnly)
	}
	if err != nil {
		root.Remove()
		logger.Error().Err(err).Msg("widget construction failed")
		return err
	}
	widget.OnChange(f.valueChanged)
	if loader, ok := widget.(optionLoader); ok && f.env.Options != nil && loader.Source() != "" {
		loader.Load(f.env.context(), f.env.Options)
	}

	f.container = root
	f.control = control
	f.widget = widget

	if f.sub.Type.HasSubfields() {
		f.buildSubfieldContainer(root)
	}

	f.requirement = requirement.New(f.sub.Requirement, control, f,
		requirement.WithLogger(f.env.Logger))
	f.state = StateBuilt
	return nil
}

func (f *Field) buildLabel(root *dom.Element) {
	doc := root.Document()
	label := root.AppendChild(doc.CreateElement("label"))
	label.AddClass(ClassLabel)
	label.Text = f.env.sanitize(f.sub.Label())
	if f.sub.Requirement == requirement.Mandatory {
		label.SetAttr("aria-required", "true")
	}
	if tooltip := f.env.sanitize(f.sub.Tooltip()); tooltip != "" && !f.opts.Condensed {
		tip := root.AppendChild(doc.CreateElement("span"))
		tip.AddClass(ClassTooltip)
		tip.Text = tooltip
	}
}

func (f *Field) buildSubfieldContainer(root *dom.Element) {
	doc := root.Document()
	f.toggle = root.AppendChild(doc.CreateElement("button"))
	f.toggle.AddClass(ClassToggle)
	f.toggle.SetAttr("aria-expanded", "false")
	f.toggleID = f.toggle.AddListener(dom.EventClick, func(*dom.Event) {
		if f.expanded {
			f.CollapseSubfields()
			return
		}
		f.ExpandSubfields()
	})

	f.subContainer = root.AppendChild(doc.CreateElement("div"))
	f.subContainer.AddClass(ClassSubfields)
	f.subContainer.SetAttr("hidden", "")
}

// ExpandSubfields opens the subfield container, constructing one child per
// declared subfield on first expansion. Re-expanding an open container is a
// no-op. Children that cannot render are logged and skipped.
func (f *Field) ExpandSubfields() {
	if f.state != StateBuilt || f.subContainer == nil {
		return
	}
	if f.expanded && !f.hidden {
		return
	}
	if !f.childrenBuilt {
		childOpts := BuildOptions{ShowLabel: true, ReadOnly: f.opts.ReadOnly, Condensed: f.opts.Condensed}
		for _, sub := range f.sub.Type.Subfields {
			child := Parse(f.env, sub, f)
			if err := child.BuildInterface(f.subContainer, childOpts); err != nil {
				f.env.Logger.Error().Err(err).Str("field", f.sub.Name).Str("child", sub.Name).Msg("skipping subfield")
				child.Destroy()
				continue
			}
			f.children = append(f.children, child)
		}
		f.childrenBuilt = true
	}
	f.subContainer.RemoveAttr("hidden")
	f.toggle.SetAttr("aria-expanded", "true")
	f.expanded = true
	f.hidden = false
}

// CollapseSubfields closes the container. Children stay alive and keep their
// values.
func (f *Field) CollapseSubfields() {
	if f.subContainer == nil || !f.expanded {
		return
	}
	f.subContainer.SetAttr("hidden", "")
	f.toggle.SetAttr("aria-expanded", "false")
	f.expanded = false
}

// HideSubfieldContainer collapses the container and destroys the children.
func (f *Field) HideSubfieldContainer() {
	if f.subContainer == nil {
		return
	}
	f.destroyChildren()
	f.CollapseSubfields()
	f.hidden = true
}

func (f *Field) destroyChildren() {
	for _, child := range f.children {
		child.Destroy()
	}
	f.children = nil
	f.childrenBuilt = false
}

// FillField binds data to the field. Arrays are dropped (a single field has
// no rows), objects carrying id and name select a reference option, other
// objects fill the field and its children by key, and primitives set the
// widget value. notify controls whether the value change propagates to the
// parent.
func (f *Field) FillField(data any, notify bool) {
	if f.state != StateBuilt {
		f.env.Logger.Debug().Str("field", f.sub.Name).Str("state", f.state.String()).Msg("fill on unbuilt field ignored")
		return
	}
	logger := f.env.Logger

	switch typed := data.(type) {
	case []any:
		logger.Debug().Str("field", f.sub.Name).Int("items", len(typed)).Msg("array for single field dropped")
		return
	case map[string]any:
		if id, name, ok := referenceValue(typed); ok {
			f.selectReference(id, name, notify)
			return
		}
		f.fillObject(typed, notify)
		return
	default:
		f.widget.SetValue(stringify(typed))
	}
	if notify {
		f.valueChanged()
	}
}

func (f *Field) fillObject(data map[string]any, notify bool) {
	if f.sub.Type.HasSubfields() {
		f.ExpandSubfields()
	}
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	own := f.sub.ValueKey()
	for _, key := range keys {
		value := data[key]
		if key == own {
			f.FillField(value, false)
			continue
		}
		if child, ok := f.Child(key); ok {
			child.FillField(value, false)
			continue
		}
		if key == f.sub.Name || (key != "" && key == f.RowName()) {
			f.FillField(value, false)
			continue
		}
		f.env.Logger.Debug().Str("field", f.sub.Name).Str("key", key).Msg("unmatched fill key ignored")
	}
	if notify {
		f.valueChanged()
	}
}

func (f *Field) selectReference(id, name string, notify bool) {
	sel, ok := f.widget.(widgets.Selector)
	if !ok {
		f.widget.SetValue(name)
		if notify {
			f.valueChanged()
		}
		return
	}
	sel.OnLoad(func() {
		if f.state != StateBuilt {
			return
		}
		if !sel.SelectByID(id) {
			f.env.Logger.Debug().Str("field", f.sub.Name).Str("id", id).Msg("reference option not found")
			if sel.AllowNewEntries() {
				sel.SetValue(name)
			}
		}
		if notify {
			f.valueChanged()
		}
	})
}

// FieldData extracts the field's value. Without built children it is the
// widget value; otherwise an object holding the widget value under
// Subfield.ValueKey plus one entry per live child.
func (f *Field) FieldData() any {
	if f.widget == nil {
		return nil
	}
	if !f.childrenBuilt {
		return f.widget.Value()
	}
	out := make(map[string]any, len(f.children)+1)
	out[f.sub.ValueKey()] = f.widget.Value()
	for _, child := range f.children {
		out[child.Name()] = child.FieldData()
	}
	return out
}

// HasValidInput reports whether the widget holds acceptable input and every
// live child meets its requirement level.
func (f *Field) HasValidInput() bool {
	if f.widget == nil || f.state != StateBuilt {
		return false
	}
	if !f.widget.HasValidInput() {
		return false
	}
	return f.childrenMeetRequirements()
}

func (f *Field) childrenMeetRequirements() bool {
	if !f.childrenBuilt {
		return true
	}
	for _, child := range f.children {
		if !child.MeetsRequirementLevel() {
			return false
		}
	}
	return true
}

// ValidationMessage explains why the field is invalid.
func (f *Field) ValidationMessage() string {
	if f.widget == nil {
		return ""
	}
	if message := f.widget.ValidationMessage(); message != "" {
		return message
	}
	if !f.childrenMeetRequirements() {
		return MessageIncomplete
	}
	return ""
}

// MeetsRequirementLevel is true for fields below Mandatory and for valid
// Mandatory fields.
func (f *Field) MeetsRequirementLevel() bool {
	if f.sub.Requirement < requirement.Mandatory {
		return true
	}
	return f.HasValidInput()
}

// Edit simulates a user edit: the value is written and an input event fires.
func (f *Field) Edit(value string) {
	if f.widget == nil {
		return
	}
	f.widget.SetValue(value)
	if input := f.widget.InputElement(); input != nil {
		input.Dispatch(dom.EventInput)
	}
}

func (f *Field) valueChanged() {
	if f.state != StateBuilt {
		return
	}
	if f.requirement != nil && !f.shared {
		f.requirement.Revalidate()
	}
	if f.parent != nil {
		f.parent.childChanged(f)
	}
}

func (f *Field) childChanged(Node) {
	f.valueChanged()
}

// adoptRequirement replaces the field's own requirement with a group's.
func (f *Field) adoptRequirement(shared *requirement.Requirement) {
	if f.requirement != nil && !f.shared {
		f.requirement.Destroy()
	}
	f.requirement = shared
	f.shared = true
}

// Destroy tears the field down: children first, then the widget, the
// requirement (unless shared with a group) and finally the container.
func (f *Field) Destroy() {
	if f.state == StateDestroyed {
		return
	}
	f.destroyChildren()
	if f.widget != nil {
		f.widget.Destroy()
		f.widget = nil
	}
	if f.requirement != nil && !f.shared {
		f.requirement.Destroy()
	}
	f.requirement = nil
	if f.toggle != nil {
		f.toggle.RemoveListener(dom.EventClick, f.toggleID)
	}
	if f.container != nil {
		f.container.Remove()
	}
	f.state = StateDestroyed
}

// Package widgets provides the leaf input controls of a form tree and the
// registry that resolves widget names found in schema documents.
package widgets

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-formtree/pkg/dom"
	"github.com/goliatone/go-formtree/pkg/props"
)

// PropertiesAttr is the host attribute carrying a JSON object of widget
// properties embedded at build time. It overrides every other layer.
const PropertiesAttr = "data-widget-properties"

// ErrInitialized is returned when Initialize runs twice on the same widget.
var ErrInitialized = errors.New("widgets: already initialized")

// Widget wraps exactly one concrete input control.
type Widget interface {
	Name() string
	// Initialize creates the concrete input inside the host element. It may
	// run once.
	Initialize(readOnly bool) error
	Element() *dom.Element
	// InputElement is the single element whose value and native validity
	// represent the widget.
	InputElement() *dom.Element
	SetValue(value string)
	InputValue() string
	// Value is the extract form of the input: strings for text-like
	// controls, numbers and booleans where the control has that shape.
	Value() any
	HasValidInput() bool
	ValidationMessage() string
	Properties() props.Map
	// OnChange registers a callback fired on user edits. Programmatic
	// SetValue calls do not fire it.
	OnChange(fn func())
	Destroy()
}

// Config is handed to a widget constructor.
type Config struct {
	// Host is the element the widget renders into.
	Host *dom.Element
	// FieldName becomes the input's name attribute.
	FieldName string
	// Required marks the input as required for native validation.
	Required bool
	// Properties are the layered widget properties. Registry.Build fills
	// them in; constructors called directly use them as given.
	Properties props.Map
	Logger     zerolog.Logger
}

// Base implements the bookkeeping shared by every widget. Concrete widgets
// embed it and supply the input element from Initialize.
type Base struct {
	name       string
	host       *dom.Element
	input      *dom.Element
	fieldName  string
	required   bool
	properties props.Map
	logger     zerolog.Logger

	readOnly    bool
	initialized bool
	destroyed   bool

	onChange  []func()
	inputHook func()
	listeners []boundListener
}

type boundListener struct {
	el  *dom.Element
	typ dom.EventType
	id  dom.ListenerID
}

// NewBase prepares the shared state for a widget named name.
func NewBase(name string, cfg Config) Base {
	return Base{
		name:       name,
		host:       cfg.Host,
		fieldName:  cfg.FieldName,
		required:   cfg.Required,
		properties: props.Clone(cfg.Properties),
		logger:     cfg.Logger,
	}
}

// Name returns the registered widget name.
func (b *Base) Name() string { return b.name }

// Element returns the host element.
func (b *Base) Element() *dom.Element { return b.host }

// InputElement returns the input, or nil before Initialize.
func (b *Base) InputElement() *dom.Element { return b.input }

// Properties returns a copy of the effective properties.
func (b *Base) Properties() props.Map { return props.Clone(b.properties) }

// ReadOnly reports whether the widget was initialized read-only.
func (b *Base) ReadOnly() bool { return b.readOnly }

// Initialized reports whether Initialize completed.
func (b *Base) Initialized() bool { return b.initialized }

// OnChange registers fn for user edits.
func (b *Base) OnChange(fn func()) {
	if fn != nil {
		b.onChange = append(b.onChange, fn)
	}
}

// NotifyChange runs the change callbacks.
func (b *Base) NotifyChange() {
	if b.destroyed {
		return
	}
	for _, fn := range b.onChange {
		fn()
	}
}

// SetValue writes the raw input value.
func (b *Base) SetValue(value string) {
	if b.input != nil {
		b.input.Value = value
	}
}

// InputValue reads the raw input value.
func (b *Base) InputValue() string {
	if b.input == nil {
		return ""
	}
	return b.input.Value
}

// Value returns the raw input value.
func (b *Base) Value() any {
	return b.InputValue()
}

// HasValidInput reports whether the input holds a non-blank value that
// satisfies its native constraints.
func (b *Base) HasValidInput() bool {
	if b.input == nil || b.destroyed {
		return false
	}
	if strings.TrimSpace(b.input.Value) == "" {
		return false
	}
	ok, _ := b.input.Validity()
	return ok
}

// ValidationMessage returns the native validation message, or the missing
// value message for a blank input.
func (b *Base) ValidationMessage() string {
	if b.input == nil {
		return ""
	}
	if _, message := b.input.Validity(); message != "" {
		return message
	}
	if strings.TrimSpace(b.input.Value) == "" {
		return dom.MessageValueMissing
	}
	return ""
}

// Destroy detaches listeners and removes the input from the host.
func (b *Base) Destroy() {
	if b.destroyed {
		return
	}
	for _, l := range b.listeners {
		l.el.RemoveListener(l.typ, l.id)
	}
	b.listeners = nil
	b.onChange = nil
	if b.input != nil {
		b.input.Remove()
	}
	b.destroyed = true
}

// Destroyed reports whether Destroy ran.
func (b *Base) Destroyed() bool { return b.destroyed }

// Listen attaches a listener that Destroy removes.
func (b *Base) Listen(el *dom.Element, typ dom.EventType, fn dom.Listener) {
	if el == nil {
		return
	}
	id := el.AddListener(typ, fn)
	b.listeners = append(b.listeners, boundListener{el: el, typ: typ, id: id})
}

// initialize performs the one-shot setup: create the input, assign a unique
// id, copy constraint properties into attributes and wire change events.
func (b *Base) initialize(readOnly bool, tag, inputType string) error {
	if b.initialized {
		return fmt.Errorf("%w: %s", ErrInitialized, b.name)
	}
	if b.host == nil {
		return fmt.Errorf("widgets: %s has no host element", b.name)
	}
	doc := b.host.Document()
	if doc == nil {
		return fmt.Errorf("widgets: %s host is detached from a document", b.name)
	}

	input := doc.CreateElement(tag)
	input.ID = "input-" + uuid.NewString()
	input.AddClass("widget-input", "widget-"+b.name)
	if inputType != "" {
		input.SetAttr("type", inputType)
	}
	if b.fieldName != "" {
		input.SetAttr("name", b.fieldName)
	}
	b.applyRequirementAttr(input)
	b.applyConstraintAttrs(input)
	if readOnly {
		input.SetAttr("readonly", "")
	}
	if initial := b.properties.String("value"); initial != "" {
		input.Value = initial
	}

	b.host.AppendChild(input)
	b.input = input
	b.readOnly = readOnly
	b.initialized = true

	b.Listen(input, dom.EventInput, b.handleInput)
	b.Listen(input, dom.EventChange, b.handleInput)
	return nil
}

func (b *Base) handleInput(*dom.Event) {
	if b.inputHook != nil {
		b.inputHook()
	}
	b.NotifyChange()
}

func (b *Base) applyRequirementAttr(input *dom.Element) {
	if b.required || b.properties.Bool("required") {
		input.SetAttr("required", "")
	}
}

func (b *Base) applyConstraintAttrs(input *dom.Element) {
	for _, key := range []string{"placeholder", "pattern", "min", "max", "step"} {
		if value := b.properties.String(key); value != "" {
			input.SetAttr(key, value)
		}
	}
	maxLength := b.properties.String("maxLength")
	if maxLength == "" {
		maxLength = b.properties.String("maxlength")
	}
	if maxLength != "" {
		if n, err := strconv.Atoi(maxLength); err == nil && n > 0 {
			input.SetAttr("maxlength", strconv.Itoa(n))
		} else {
			b.logger.Warn().Str("widget", b.name).Str("maxLength", maxLength).Msg("ignoring invalid maxLength")
		}
	}
}

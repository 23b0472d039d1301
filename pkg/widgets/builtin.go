package widgets

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-formtree/pkg/dom"
)

// Built-in widget names.
const (
	WidgetText      = "text"
	WidgetTextarea  = "textarea"
	WidgetURL       = "url"
	WidgetDate      = "date"
	WidgetNumber    = "number"
	WidgetCheckbox  = "checkbox"
	WidgetSelectbox = "selectbox"
)

// Input is a single-line or multi-line text control. The url, date and
// number widgets are Inputs with a typed input element.
type Input struct {
	Base
	tag       string
	inputType string
}

// NewText constructs the plain text widget.
func NewText(cfg Config) Widget {
	return &Input{Base: NewBase(WidgetText, cfg), tag: "input", inputType: "text"}
}

// NewTextarea constructs a multi-line text widget.
func NewTextarea(cfg Config) Widget {
	return &Input{Base: NewBase(WidgetTextarea, cfg), tag: "textarea"}
}

// NewURL constructs a widget accepting absolute URLs.
func NewURL(cfg Config) Widget {
	return &Input{Base: NewBase(WidgetURL, cfg), tag: "input", inputType: "url"}
}

// NewDate constructs a widget accepting YYYY-MM-DD dates.
func NewDate(cfg Config) Widget {
	return &Input{Base: NewBase(WidgetDate, cfg), tag: "input", inputType: "date"}
}

// Initialize creates the input element.
func (w *Input) Initialize(readOnly bool) error {
	return w.initialize(readOnly, w.tag, w.inputType)
}

// Number is a numeric input whose extract value is a float64.
type Number struct {
	Input
}

// NewNumber constructs the numeric widget.
func NewNumber(cfg Config) Widget {
	return &Number{Input: Input{Base: NewBase(WidgetNumber, cfg), tag: "input", inputType: "number"}}
}

// Value returns the parsed number, or nil when the input is blank or does
// not parse.
func (w *Number) Value() any {
	raw := strings.TrimSpace(w.InputValue())
	if raw == "" {
		return nil
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return n
}

// Checkbox is a boolean toggle. It counts as filled when checked.
type Checkbox struct {
	Base
}

// NewCheckbox constructs the checkbox widget.
func NewCheckbox(cfg Config) Widget {
	return &Checkbox{Base: NewBase(WidgetCheckbox, cfg)}
}

// Initialize creates the checkbox input.
func (w *Checkbox) Initialize(readOnly bool) error {
	if err := w.initialize(readOnly, "input", "checkbox"); err != nil {
		return err
	}
	if w.properties.Bool("checked") {
		w.input.Checked = true
	}
	w.input.Value = ""
	w.Listen(w.input, dom.EventClick, func(*dom.Event) {
		if w.readOnly {
			return
		}
		w.input.Checked = !w.input.Checked
		w.NotifyChange()
	})
	return nil
}

// SetValue accepts "true", "1", "on" and similar truthy strings.
func (w *Checkbox) SetValue(value string) {
	if w.input == nil {
		return
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "on", "yes", "checked":
		w.input.Checked = true
	default:
		w.input.Checked = false
	}
}

// InputValue returns "true" or "false".
func (w *Checkbox) InputValue() string {
	return strconv.FormatBool(w.input != nil && w.input.Checked)
}

// Value returns the checked state.
func (w *Checkbox) Value() any {
	return w.input != nil && w.input.Checked
}

// HasValidInput reports whether the box is checked.
func (w *Checkbox) HasValidInput() bool {
	return w.input != nil && !w.destroyed && w.input.Checked
}

// ValidationMessage returns the checkbox message when unchecked.
func (w *Checkbox) ValidationMessage() string {
	if w.HasValidInput() {
		return ""
	}
	return dom.MessageCheckMissing
}

package widgets

import (
	"context"
	"strings"

	"github.com/goliatone/go-formtree/pkg/dom"
	"github.com/goliatone/go-formtree/pkg/options"
)

// Selectbox class names and messages.
const (
	ClassOption         = "selectbox-option"
	ClassOptionSelected = "selectbox-option-selected"
	MessageSelectOption = "Please select an option from the list."
)

// Fetcher resolves option rows by source name. *options.Resolver satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, name string) ([]options.Option, error)
}

// Selector is implemented by reference selector widgets.
type Selector interface {
	Widget
	Loaded() bool
	SetOptions(opts []options.Option)
	Options() []options.Option
	SelectByID(id string) bool
	// OnLoad runs fn once the options are loaded, immediately when they
	// already are.
	OnLoad(fn func())
	Selected() (options.Option, bool)
	Filter(query string) []options.Option
	AllowNewEntries() bool
	Source() string
}

// Selectbox is the reference selector. The user types into a text input and
// picks one of the filtered option rows; the selection is identified by id.
// Until options arrive the input is disabled.
type Selectbox struct {
	Base
	list     *dom.Element
	opts     []options.Option
	rows     map[string]*dom.Element
	selected *options.Option
	loaded   bool
	waiting  []func()
}

// NewSelectbox constructs the reference selector.
func NewSelectbox(cfg Config) Widget {
	return &Selectbox{Base: NewBase(WidgetSelectbox, cfg)}
}

// Initialize creates the display input and the option list. Inline options
// declared in the "options" property load immediately.
func (w *Selectbox) Initialize(readOnly bool) error {
	w.inputHook = func() {
		if w.selected != nil && w.input.Value != w.selected.Name {
			w.clearSelection()
		}
		w.Filter(w.input.Value)
	}
	if err := w.initialize(readOnly, "input", "text"); err != nil {
		return err
	}
	w.input.SetAttr("role", "combobox")
	w.input.SetAttr("disabled", "")

	w.list = w.host.Document().CreateElement("ul")
	w.list.AddClass("selectbox-options")
	w.host.AppendChild(w.list)

	if inline := inlineOptions(w.properties["options"]); inline != nil {
		w.SetOptions(inline)
	}
	return nil
}

// Source is the option source name from the "source" property.
func (w *Selectbox) Source() string {
	return w.properties.String("source")
}

// AllowNewEntries reports whether free text is accepted without a pick.
func (w *Selectbox) AllowNewEntries() bool {
	return w.properties.Bool("allowNewEntries")
}

// Loaded reports whether the option rows have arrived.
func (w *Selectbox) Loaded() bool { return w.loaded }

// Options returns the loaded rows.
func (w *Selectbox) Options() []options.Option {
	return append([]options.Option(nil), w.opts...)
}

// SetOptions replaces the rows and enables the input. A previous selection
// survives when its id is still present.
func (w *Selectbox) SetOptions(opts []options.Option) {
	if w.destroyed || w.list == nil {
		return
	}
	for _, child := range w.list.Children() {
		child.Remove()
	}
	w.opts = append([]options.Option(nil), opts...)
	w.rows = make(map[string]*dom.Element, len(opts))
	doc := w.host.Document()
	for _, opt := range w.opts {
		opt := opt
		row := doc.CreateElement("li")
		row.AddClass(ClassOption)
		row.SetAttr("data-id", opt.ID)
		if opt.Tooltip != "" {
			row.SetAttr("title", opt.Tooltip)
		}
		row.Text = opt.Name
		w.Listen(row, dom.EventClick, func(*dom.Event) {
			if w.readOnly {
				return
			}
			if w.SelectByID(opt.ID) {
				w.NotifyChange()
			}
		})
		w.list.AppendChild(row)
		w.rows[opt.ID] = row
	}
	w.loaded = true
	w.input.RemoveAttr("disabled")

	if w.selected != nil {
		id := w.selected.ID
		w.selected = nil
		w.SelectByID(id)
	}

	waiting := w.waiting
	w.waiting = nil
	for _, fn := range waiting {
		fn()
	}
}

// OnLoad defers fn until the options arrive.
func (w *Selectbox) OnLoad(fn func()) {
	if fn == nil || w.destroyed {
		return
	}
	if w.loaded {
		fn()
		return
	}
	w.waiting = append(w.waiting, fn)
}

// Load fetches the rows of the configured source off the loop and installs
// them when the fetch completes. Failures are logged and leave the selector
// disabled.
func (w *Selectbox) Load(ctx context.Context, fetcher Fetcher) {
	source := w.Source()
	if source == "" || fetcher == nil || w.loaded {
		return
	}
	doc := w.host.Document()
	logger := w.logger
	doc.Loop().Go(func() func() {
		opts, err := fetcher.Fetch(ctx, source)
		return func() {
			if w.destroyed {
				return
			}
			if err != nil {
				logger.Error().Err(err).Str("source", source).Msg("option fetch failed")
				return
			}
			w.SetOptions(opts)
		}
	})
}

// SelectByID selects the option with id. It fails when options are not
// loaded yet or the id is unknown.
func (w *Selectbox) SelectByID(id string) bool {
	if !w.loaded || w.destroyed {
		return false
	}
	opt, ok := options.FindByID(w.opts, id)
	if !ok {
		return false
	}
	w.clearSelection()
	w.selected = &opt
	w.input.Value = opt.Name
	if row := w.rows[opt.ID]; row != nil {
		row.AddClass(ClassOptionSelected)
	}
	return true
}

// Selected returns the picked option.
func (w *Selectbox) Selected() (options.Option, bool) {
	if w.selected == nil {
		return options.Option{}, false
	}
	return *w.selected, true
}

// Filter narrows the visible rows to the query and returns the matches.
func (w *Selectbox) Filter(query string) []options.Option {
	limit := 0
	if raw := w.properties.String("maxResults"); raw != "" {
		if n, ok := atoiPositive(raw); ok {
			limit = n
		}
	}
	matches := options.Filter(w.opts, query, limit)
	visible := make(map[string]struct{}, len(matches))
	for _, opt := range matches {
		visible[opt.ID] = struct{}{}
	}
	for id, row := range w.rows {
		if _, ok := visible[id]; ok {
			row.RemoveAttr("hidden")
		} else {
			row.SetAttr("hidden", "")
		}
	}
	return matches
}

// SetValue sets the display text. The selection survives only when the text
// still names the selected option.
func (w *Selectbox) SetValue(value string) {
	if w.input == nil {
		return
	}
	w.input.Value = value
	if w.selected != nil && w.selected.Name != value {
		w.clearSelection()
	}
}

// Value returns {id, name} for a picked option, the typed text when new
// entries are allowed, and "" otherwise.
func (w *Selectbox) Value() any {
	if w.selected != nil {
		return map[string]any{"id": w.selected.ID, "name": w.selected.Name}
	}
	if w.AllowNewEntries() {
		return strings.TrimSpace(w.InputValue())
	}
	return ""
}

// HasValidInput requires a picked option unless new entries are allowed.
func (w *Selectbox) HasValidInput() bool {
	if w.input == nil || w.destroyed {
		return false
	}
	if w.selected != nil {
		return true
	}
	if !w.AllowNewEntries() {
		return false
	}
	return w.Base.HasValidInput()
}

// ValidationMessage explains a missing pick.
func (w *Selectbox) ValidationMessage() string {
	if w.HasValidInput() {
		return ""
	}
	if !w.AllowNewEntries() {
		return MessageSelectOption
	}
	return w.Base.ValidationMessage()
}

// Destroy also drops the option list.
func (w *Selectbox) Destroy() {
	if w.destroyed {
		return
	}
	w.Base.Destroy()
	if w.list != nil {
		w.list.Remove()
	}
	w.rows = nil
	w.selected = nil
	w.waiting = nil
}

func (w *Selectbox) clearSelection() {
	if w.selected == nil {
		return
	}
	if row := w.rows[w.selected.ID]; row != nil {
		row.RemoveClass(ClassOptionSelected)
	}
	w.selected = nil
}

func inlineOptions(value any) []options.Option {
	items, ok := value.([]any)
	if !ok {
		return nil
	}
	out := make([]options.Option, 0, len(items))
	for _, item := range items {
		row, ok := item.(map[string]any)
		if !ok {
			continue
		}
		opt := options.Option{}
		if id, ok := row["id"]; ok && id != nil {
			opt.ID = strings.TrimSpace(toString(id))
		}
		if name, ok := row["name"]; ok && name != nil {
			opt.Name = strings.TrimSpace(toString(name))
		}
		if tooltip, ok := row["tooltip"].(string); ok {
			opt.Tooltip = tooltip
		}
		if keywords, ok := row["keywords"].([]any); ok {
			for _, kw := range keywords {
				if s, ok := kw.(string); ok {
					opt.Keywords = append(opt.Keywords, s)
				}
			}
		}
		if opt.ID == "" {
			continue
		}
		if opt.Name == "" {
			opt.Name = opt.ID
		}
		out = append(out, opt)
	}
	return out
}

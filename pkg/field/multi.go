package field

import (
	"github.com/goliatone/go-formtree/pkg/dom"
	"github.com/goliatone/go-formtree/pkg/requirement"
	"github.com/goliatone/go-formtree/pkg/schema"
)

// MultiField presents any number of rows of the same subfield. One
// requirement, installed on the group container, serves every row.
type MultiField struct {
	env    *Env
	sub    *schema.Subfield
	parent Node

	built     bool
	destroyed bool
	opts      BuildOptions

	container *dom.Element
	rowsEl    *dom.Element
	addButton *dom.Element
	addID     dom.ListenerID

	requirement *requirement.Requirement
	rows        []*multiRow
}

type multiRow struct {
	field    *Field
	wrapper  *dom.Element
	remove   *dom.Element
	removeID dom.ListenerID
}

var _ Node = (*MultiField)(nil)

func newMultiField(env *Env, sub *schema.Subfield, parent Node) *MultiField {
	return &MultiField{env: env, sub: sub, parent: parent}
}

// Name returns the subfield name.
func (m *MultiField) Name() string { return m.sub.Name }

// Subfield returns the declaration.
func (m *MultiField) Subfield() *schema.Subfield { return m.sub }

// Parent returns the enclosing node.
func (m *MultiField) Parent() Node { return m.parent }

// Element returns the group container.
func (m *MultiField) Element() *dom.Element { return m.container }

// Requirement returns the group's shared requirement.
func (m *MultiField) Requirement() *requirement.Requirement { return m.requirement }

// Built reports whether BuildInterface completed.
func (m *MultiField) Built() bool { return m.built && !m.destroyed }

// Destroyed reports whether Destroy ran.
func (m *MultiField) Destroyed() bool { return m.destroyed }

// Rows returns the live rows in display order.
func (m *MultiField) Rows() []*Field {
	out := make([]*Field, 0, len(m.rows))
	for _, row := range m.rows {
		out = append(out, row.field)
	}
	return out
}

// Len returns the number of rows.
func (m *MultiField) Len() int { return len(m.rows) }

// BuildInterface renders the group chrome, the add control and one initial
// row. Building twice is a no-op.
func (m *MultiField) BuildInterface(container *dom.Element, opts BuildOptions) error {
	if m.destroyed {
		return ErrDestroyed
	}
	if m.built {
		m.env.Logger.Warn().Str("field", m.sub.Name).Msg("multi field already built")
		return nil
	}
	if container == nil {
		return ErrNoContainer
	}
	if m.sub.Type == nil {
		return ErrNoWidget
	}
	if _, _, ok := m.sub.Type.ResolveWidget(); !ok {
		m.env.Logger.Error().Str("field", m.sub.Name).Str("type", m.sub.TypeName).Msg("cannot render multi field")
		return ErrNoWidget
	}

	doc := container.Document()
	m.opts = opts
	m.container = doc.CreateElement("div")
	m.container.AddClass(ClassMultiField)
	m.container.SetAttr(AttrField, m.sub.Name)
	if opts.ShowLabel {
		label := m.container.AppendChild(doc.CreateElement("label"))
		label.AddClass(ClassLabel)
		label.Text = m.env.sanitize(m.sub.Label())
		if tooltip := m.env.sanitize(m.sub.Tooltip()); tooltip != "" && !opts.Condensed {
			tip := m.container.AppendChild(doc.CreateElement("span"))
			tip.AddClass(ClassTooltip)
			tip.Text = tooltip
		}
	}
	m.rowsEl = m.container.AppendChild(doc.CreateElement("div"))
	m.rowsEl.AddClass(ClassRows)
	if !opts.ReadOnly {
		m.addButton = m.container.AppendChild(doc.CreateElement("button"))
		m.addButton.AddClass(ClassAddRow)
		m.addButton.Text = "+ add"
		m.addID = m.addButton.AddListener(dom.EventClick, func(*dom.Event) {
			if _, err := m.AddRow(); err == nil {
				m.valueChanged()
			}
		})
	}
	container.AppendChild(m.container)

	m.requirement = requirement.New(m.sub.Requirement, m.container, m,
		requirement.WithLogger(m.env.Logger))
	m.built = true

	if _, err := m.AddRow(); err != nil {
		return err
	}
	return nil
}

// AddRow appends a row. The row's own requirement is replaced by the group's.
func (m *MultiField) AddRow() (*Field, error) {
	if !m.Built() {
		return nil, ErrDestroyed
	}
	doc := m.container.Document()
	wrapper := m.rowsEl.AppendChild(doc.CreateElement("div"))
	wrapper.AddClass(ClassRow)

	row := newField(m.env, m.sub, m)
	if err := row.BuildInterface(wrapper, BuildOptions{ReadOnly: m.opts.ReadOnly, Condensed: true}); err != nil {
		wrapper.Remove()
		return nil, err
	}
	row.adoptRequirement(m.requirement)

	entry := &multiRow{field: row, wrapper: wrapper}
	if !m.opts.ReadOnly {
		entry.remove = wrapper.AppendChild(doc.CreateElement("button"))
		entry.remove.AddClass(ClassRemoveRow)
		entry.remove.Text = "remove"
		entry.removeID = entry.remove.AddListener(dom.EventClick, func(*dom.Event) {
			m.RemoveRow(row)
		})
	}
	m.rows = append(m.rows, entry)
	return row, nil
}

// RemoveRow destroys row, drops it from the group and re-runs the shared
// requirement check.
func (m *MultiField) RemoveRow(row *Field) bool {
	for idx, entry := range m.rows {
		if entry.field != row {
			continue
		}
		m.destroyRow(entry)
		m.rows = append(m.rows[:idx], m.rows[idx+1:]...)
		m.valueChanged()
		return true
	}
	return false
}

func (m *MultiField) destroyRow(entry *multiRow) {
	if entry.remove != nil {
		entry.remove.RemoveListener(dom.EventClick, entry.removeID)
	}
	entry.field.Destroy()
	entry.wrapper.Remove()
}

func (m *MultiField) clearRows() {
	for _, entry := range m.rows {
		m.destroyRow(entry)
	}
	m.rows = nil
}

// FillField fills the group. A non-array value fills a single row.
func (m *MultiField) FillField(data any, notify bool) {
	if !m.Built() {
		return
	}
	items, ok := data.([]any)
	if !ok {
		m.env.Logger.Debug().Str("field", m.sub.Name).Msg("scalar for multi field wrapped in a single row")
		items = []any{data}
	}
	m.FillMultiFields(items, notify)
}

// FillMultiFields replaces every row with exactly one row per item.
func (m *MultiField) FillMultiFields(items []any, notify bool) {
	if !m.Built() {
		return
	}
	m.clearRows()
	for _, item := range items {
		row, err := m.AddRow()
		if err != nil {
			m.env.Logger.Error().Err(err).Str("field", m.sub.Name).Msg("row construction failed")
			continue
		}
		row.FillField(item, false)
	}
	if notify {
		m.valueChanged()
	}
}

// FieldData returns each row's data with blank rows left out.
func (m *MultiField) FieldData() any {
	out := make([]any, 0, len(m.rows))
	for _, entry := range m.rows {
		data := entry.field.FieldData()
		if isBlank(data) || uncheckedBox(entry.field, data) {
			continue
		}
		out = append(out, data)
	}
	return out
}

// HasValidInput reports whether any row is valid.
func (m *MultiField) HasValidInput() bool {
	for _, entry := range m.rows {
		if entry.field.HasValidInput() {
			return true
		}
	}
	return false
}

// ValidationMessage returns the first row's message.
func (m *MultiField) ValidationMessage() string {
	if m.HasValidInput() {
		return ""
	}
	if len(m.rows) == 0 {
		return dom.MessageValueMissing
	}
	return m.rows[0].field.ValidationMessage()
}

// MeetsRequirementLevel is true below Mandatory and for a group with at
// least one valid row.
func (m *MultiField) MeetsRequirementLevel() bool {
	if m.sub.Requirement < requirement.Mandatory {
		return true
	}
	return m.HasValidInput()
}

func (m *MultiField) valueChanged() {
	if !m.Built() {
		return
	}
	m.requirement.Revalidate()
	if m.parent != nil {
		m.parent.childChanged(m)
	}
}

func (m *MultiField) childChanged(Node) {
	m.valueChanged()
}

// Destroy destroys every row, then the shared requirement and the container.
func (m *MultiField) Destroy() {
	if m.destroyed {
		return
	}
	m.clearRows()
	if m.requirement != nil {
		m.requirement.Destroy()
		m.requirement = nil
	}
	if m.addButton != nil {
		m.addButton.RemoveListener(dom.EventClick, m.addID)
	}
	if m.container != nil {
		m.container.Remove()
	}
	m.destroyed = true
}

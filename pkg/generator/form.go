package generator

import (
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-formtree/pkg/dom"
	"github.com/goliatone/go-formtree/pkg/field"
	"github.com/goliatone/go-formtree/pkg/requirement"
	"github.com/goliatone/go-formtree/pkg/schema"
)

// Form container markup.
const (
	ClassForm = "model-form"
	AttrType  = "data-type"
)

// Issue describes a root field that does not meet its requirement level.
type Issue struct {
	Field   string `json:"field"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Form is one built field tree: the structure's top field and every declared
// subfield rendered side by side in a container.
type Form struct {
	TypeName string

	structure *schema.Structure
	container *dom.Element
	nodes     []field.Node
	logger    zerolog.Logger
	destroyed bool
}

func newForm(env *field.Env, structure *schema.Structure, host *dom.Element, opts field.BuildOptions) *Form {
	container := host.Document().CreateElement("div")
	container.AddClass(ClassForm)
	container.SetAttr(AttrType, structure.TypeName)
	host.AppendChild(container)

	form := &Form{
		TypeName:  structure.TypeName,
		structure: structure,
		container: container,
		logger:    env.Logger,
	}
	inst := field.GenerateInstance(env, structure)
	for _, node := range inst.Nodes() {
		if err := node.BuildInterface(container, opts); err != nil {
			env.Logger.Error().Err(err).Str("type", structure.TypeName).Str("field", node.Name()).Msg("skipping field")
			node.Destroy()
			continue
		}
		form.nodes = append(form.nodes, node)
	}
	return form
}

// Structure returns the structure the form renders.
func (f *Form) Structure() *schema.Structure { return f.structure }

// Element returns the form container.
func (f *Form) Element() *dom.Element { return f.container }

// Nodes returns the built root nodes in declaration order.
func (f *Form) Nodes() []field.Node {
	return append([]field.Node(nil), f.nodes...)
}

// Node returns the root node with the given name.
func (f *Form) Node(name string) (field.Node, bool) {
	for _, node := range f.nodes {
		if node.Name() == name {
			return node, true
		}
	}
	return nil, false
}

// Lookup resolves a dotted path whose first segment names a root node, for
// example "address.street" or "tags.0".
func (f *Form) Lookup(path string) (field.Node, bool) {
	path = strings.Trim(strings.TrimSpace(path), ".")
	head, rest, _ := strings.Cut(path, ".")
	node, ok := f.Node(head)
	if !ok {
		return nil, false
	}
	return field.Lookup(node, rest)
}

// Fill binds a payload keyed by root field names. Unknown keys are ignored.
func (f *Form) Fill(data map[string]any) {
	if f.destroyed {
		return
	}
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		node, ok := f.Node(key)
		if !ok {
			f.logger.Debug().Str("type", f.TypeName).Str("key", key).Msg("unmatched fill key ignored")
			continue
		}
		node.FillField(data[key], false)
	}
}

// Data extracts the payload keyed by root field names.
func (f *Form) Data() map[string]any {
	out := make(map[string]any, len(f.nodes))
	if f.destroyed {
		return out
	}
	for _, node := range f.nodes {
		out[node.Name()] = node.FieldData()
	}
	return out
}

// Valid reports whether every root field meets its requirement level.
func (f *Form) Valid() bool {
	return len(f.Issues()) == 0
}

// Issues lists the root fields that do not meet their requirement level.
func (f *Form) Issues() []Issue {
	if f.destroyed {
		return nil
	}
	var issues []Issue
	for _, node := range f.nodes {
		if node.MeetsRequirementLevel() {
			continue
		}
		issues = append(issues, Issue{
			Field:   node.Name(),
			Level:   node.Subfield().Requirement.String(),
			Message: node.ValidationMessage(),
		})
	}
	return issues
}

type requirementOwner interface {
	Requirement() *requirement.Requirement
}

// RevealWarnings applies requirement styling to every root field at once,
// as a submit attempt would.
func (f *Form) RevealWarnings() {
	if f.destroyed {
		return
	}
	for _, node := range f.nodes {
		owner, ok := node.(requirementOwner)
		if !ok {
			continue
		}
		if req := owner.Requirement(); req != nil {
			req.ApplyWarningStyles()
		}
	}
}

// Destroy tears down every node and removes the container.
func (f *Form) Destroy() {
	if f.destroyed {
		return
	}
	for _, node := range f.nodes {
		node.Destroy()
	}
	f.nodes = nil
	f.container.Remove()
	f.destroyed = true
}

// Destroyed reports whether Destroy ran.
func (f *Form) Destroyed() bool { return f.destroyed }

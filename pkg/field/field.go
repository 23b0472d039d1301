// Package field implements the live instance layer of a form tree: one node
// per declared subfield, built on demand, bound to data in both directions
// and carrying its requirement styling.
package field

import (
	"context"
	"errors"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-formtree/pkg/dom"
	"github.com/goliatone/go-formtree/pkg/schema"
	"github.com/goliatone/go-formtree/pkg/widgets"
)

// Sentinel errors.
var (
	ErrNoWidget    = errors.New("field: structure has no renderable widget")
	ErrNoContainer = errors.New("field: container is required")
	ErrDestroyed   = errors.New("field: destroyed")
)

// Class names of generated chrome.
const (
	ClassField          = "model-subfield"
	ClassMultiField     = "model-multi-subfield"
	ClassLabel          = "subfield-label"
	ClassTooltip        = "subfield-tooltip"
	ClassControl        = "subfield-control"
	ClassWidgetHost     = "widget-host"
	ClassSubfields      = "subfield-container"
	ClassToggle         = "subfield-toggle"
	ClassCondensed      = "condensed"
	ClassRows           = "multi-rows"
	ClassRow            = "multi-row"
	ClassAddRow         = "multi-add"
	ClassRemoveRow      = "multi-remove"
	AttrField           = "data-field"
	MessageIncomplete   = "Please complete the required subfields."
	propertyWidgetProps = "widgetProperties"
)

// Env carries the collaborators shared by every node of a tree.
type Env struct {
	Document *dom.Document
	// Options resolves selector option sources. Nil disables fetching.
	Options widgets.Fetcher
	Logger  zerolog.Logger
	// Context scopes option fetches. Defaults to context.Background.
	Context context.Context
	// Sanitizer cleans label and tooltip text. Defaults to a strict policy.
	Sanitizer *bluemonday.Policy
}

func (e *Env) context() context.Context {
	if e.Context == nil {
		return context.Background()
	}
	return e.Context
}

func (e *Env) sanitize(text string) string {
	policy := e.Sanitizer
	if policy == nil {
		policy = defaultPolicy
	}
	return strings.TrimSpace(html.UnescapeString(policy.Sanitize(text)))
}

var defaultPolicy = bluemonday.StrictPolicy()

// BuildOptions control how a node renders its chrome.
type BuildOptions struct {
	ShowLabel bool
	ReadOnly  bool
	Condensed bool
}

// Node is a live field instance: a single Field or a MultiField group.
type Node interface {
	Name() string
	Subfield() *schema.Subfield
	// Parent is a lookup reference only; it never owns the node.
	Parent() Node
	Element() *dom.Element
	BuildInterface(container *dom.Element, opts BuildOptions) error
	Built() bool
	FillField(data any, notify bool)
	FieldData() any
	HasValidInput() bool
	ValidationMessage() string
	MeetsRequirementLevel() bool
	Destroy()
	Destroyed() bool

	childChanged(child Node)
}

// Parse creates the node matching sub: a MultiField for multi subfields, a
// Field otherwise. No UI is built.
func Parse(env *Env, sub *schema.Subfield, parent Node) Node {
	if sub.Multi {
		return newMultiField(env, sub, parent)
	}
	return newField(env, sub, parent)
}

// Instance is the unbuilt node set of one structure.
type Instance struct {
	TopField  Node
	SubFields []Node
}

// GenerateInstance materializes one fresh node for the top field and one per
// declared subfield of structure.
func GenerateInstance(env *Env, structure *schema.Structure) Instance {
	var inst Instance
	if structure == nil {
		return inst
	}
	if structure.TopField != nil {
		inst.TopField = Parse(env, structure.TopField, nil)
	}
	for _, sub := range structure.Subfields {
		inst.SubFields = append(inst.SubFields, Parse(env, sub, nil))
	}
	return inst
}

// Nodes returns the top field followed by the subfields.
func (i Instance) Nodes() []Node {
	nodes := make([]Node, 0, len(i.SubFields)+1)
	if i.TopField != nil {
		nodes = append(nodes, i.TopField)
	}
	return append(nodes, i.SubFields...)
}

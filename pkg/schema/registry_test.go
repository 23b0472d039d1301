package schema

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formtree/pkg/props"
	"github.com/goliatone/go-formtree/pkg/requirement"
	"github.com/goliatone/go-formtree/pkg/widgets"
)

func mustParse(t *testing.T, reg *Registry, data []SerializedStructure) []*Structure {
	t.Helper()
	out, err := reg.ParseModels(data)
	if err != nil {
		t.Fatalf("parse models: %v", err)
	}
	return out
}

func TestParseModels_DeepMergeDefaulting(t *testing.T) {
	reg := NewRegistry()
	mustParse(t, reg, []SerializedStructure{
		{
			TypeName: "Holder",
			Subfields: []SerializedSubfield{
				{Name: "holder", Type: "text"},
				{Name: "item", Type: "Explained", Properties: props.Map{"label": "override"}},
			},
		},
		{
			TypeName: "Explained",
			Subfields: []SerializedSubfield{
				{Name: "explained", Type: "text", Properties: props.Map{"tooltipExplanation": "A", "label": "L"}},
			},
		},
	})

	holder, ok := reg.Lookup("Holder")
	if !ok {
		t.Fatalf("Holder not registered")
	}
	item, ok := holder.Subfield("item")
	if !ok {
		t.Fatalf("item subfield missing")
	}

	want := props.Map{"tooltipExplanation": "A", "label": "override"}
	if diff := cmp.Diff(want, item.Properties); diff != "" {
		t.Fatalf("effective properties mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(props.Map{"label": "override"}, item.OwnProperties()); diff != "" {
		t.Fatalf("own properties changed (-want +got):\n%s", diff)
	}

	explained, _ := reg.Lookup("Explained")
	if item.Type != explained {
		t.Fatalf("subfield type must be the registry pointer")
	}
	if holder.TopField == nil || holder.TopField.Name != "holder" || len(holder.Subfields) != 1 {
		t.Fatalf("first subfield must become the top field: %+v", holder)
	}
	if item.Label() != "override" || item.Tooltip() != "A" {
		t.Fatalf("unexpected label/tooltip %q/%q", item.Label(), item.Tooltip())
	}
}

func TestParseModels_TransitiveAndCyclicDefaults(t *testing.T) {
	reg := NewRegistry()
	mustParse(t, reg, []SerializedStructure{
		{
			TypeName: "Outer",
			Subfields: []SerializedSubfield{
				{Name: "outer", Type: "Middle", Properties: props.Map{"label": "Outer"}},
				{Name: "ref", Type: "Outer"},
			},
		},
		{
			TypeName:  "Middle",
			Subfields: []SerializedSubfield{{Name: "middle", Type: "Inner", Properties: props.Map{"hint": "m"}}},
		},
		{
			TypeName:  "Inner",
			Subfields: []SerializedSubfield{{Name: "inner", Type: "date", Properties: props.Map{"hint": "i", "deep": "yes"}}},
		},
		{
			TypeName:  "Loop",
			Subfields: []SerializedSubfield{{Name: "loop", Type: "Loop", Properties: props.Map{"a": 1}}},
		},
	})

	outer, _ := reg.Lookup("Outer")
	ref, _ := outer.Subfield("ref")
	want := props.Map{"label": "Outer", "hint": "m", "deep": "yes"}
	if diff := cmp.Diff(want, ref.Properties); diff != "" {
		t.Fatalf("transitive defaults mismatch (-want +got):\n%s", diff)
	}

	loop, _ := reg.Lookup("Loop")
	if diff := cmp.Diff(props.Map{"a": 1}, loop.TopField.Properties); diff != "" {
		t.Fatalf("cyclic defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestParseModels_ReportsConfigurationErrors(t *testing.T) {
	reg := NewRegistry()
	out, err := reg.ParseModels([]SerializedStructure{
		{TypeName: "Good", Subfields: []SerializedSubfield{{Name: "good", Type: "text"}, {Name: "bad", Type: "Nowhere"}}},
		{TypeName: "Good", WidgetType: "text"},
		{TypeName: " "},
		{TypeName: "Other", WidgetType: "url"},
	})

	for _, target := range []error{ErrUnresolvedType, ErrDuplicateType, ErrMissingType} {
		if !errors.Is(err, target) {
			t.Fatalf("expected %v in %v", target, err)
		}
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 registered structures, got %d", len(out))
	}

	good, ok := reg.Lookup("Good")
	if !ok || good.TopField == nil || good.HasSubfields() {
		t.Fatalf("unresolved subfield should be skipped, structure kept: %+v", good)
	}
	if good.WidgetType != "" {
		t.Fatalf("duplicate must not replace the first registration")
	}
	if diff := cmp.Diff([]string{"Good", "Other", "text"}, reg.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestParseModels_ImplicitWidgetTypesCanBeDisabled(t *testing.T) {
	reg := NewRegistry(WithImplicitWidgetTypes(false))
	_, err := reg.ParseModels([]SerializedStructure{
		{TypeName: "Title", Subfields: []SerializedSubfield{{Name: "title", Type: "text"}}},
	})
	if !errors.Is(err, ErrUnresolvedType) {
		t.Fatalf("expected unresolved type, got %v", err)
	}
}

func TestParseModels_KeepsRequirementAndMulti(t *testing.T) {
	reg := NewRegistry()
	mustParse(t, reg, []SerializedStructure{
		{TypeName: "Tag", WidgetType: "text"},
		{TypeName: "Post", Subfields: []SerializedSubfield{
			{Name: "post", Type: "text"},
			{Name: "tags", Type: "Tag", Multi: true, Requirement: requirement.Mandatory},
		}},
	})
	post, _ := reg.Lookup("Post")
	tags, _ := post.Subfield("tags")
	if !tags.Multi || tags.Requirement != requirement.Mandatory {
		t.Fatalf("unexpected subfield %+v", tags)
	}
}

func TestResolveWidget_WalksMultiLevelChains(t *testing.T) {
	reg := NewRegistry()
	mustParse(t, reg, []SerializedStructure{
		{TypeName: "A", WidgetProperties: props.Map{"placeholder": "a"}, Subfields: []SerializedSubfield{{Name: "a", Type: "B"}}},
		{TypeName: "B", Subfields: []SerializedSubfield{{Name: "b", Type: "C"}}},
		{TypeName: "C", WidgetType: "url", WidgetProperties: props.Map{"placeholder": "c", "size": 1}},
	})

	a, _ := reg.Lookup("A")
	descriptor, widgetProps, ok := a.ResolveWidget()
	if !ok {
		t.Fatalf("expected resolution through two levels")
	}
	if descriptor.Name != widgets.WidgetURL {
		t.Fatalf("resolved %q, want url", descriptor.Name)
	}
	if diff := cmp.Diff(props.Map{"placeholder": "a", "size": 1}, widgetProps); diff != "" {
		t.Fatalf("widget properties mismatch (-want +got):\n%s", diff)
	}

	widgetProps["placeholder"] = "mutated"
	_, again, _ := a.ResolveWidget()
	if again.String("placeholder") != "a" {
		t.Fatalf("cached properties must not be shared with callers")
	}
}

func TestResolveWidget_DeadEndsAndCycles(t *testing.T) {
	reg := NewRegistry()
	mustParse(t, reg, []SerializedStructure{
		{TypeName: "X", Subfields: []SerializedSubfield{{Name: "x", Type: "Y"}}},
		{TypeName: "Y", Subfields: []SerializedSubfield{{Name: "y", Type: "X"}}},
		{TypeName: "Empty"},
		{TypeName: "Unknown", WidgetType: "rich-editor"},
	})

	for _, name := range []string{"X", "Empty", "Unknown"} {
		structure, _ := reg.Lookup(name)
		if _, _, ok := structure.ResolveWidget(); ok {
			t.Fatalf("%s should not resolve a widget", name)
		}
	}
}

package tui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formtree/pkg/generator"
	"github.com/goliatone/go-formtree/pkg/options"
	"github.com/goliatone/go-formtree/pkg/requirement"
	"github.com/goliatone/go-formtree/pkg/schema"
	"github.com/goliatone/go-formtree/pkg/testsupport"
)

type stubDriver struct {
	inputs       []string
	selectIdx    []int
	confirm      []bool
	textAreas    []string
	infoMessages []string
	messages     []string
	inputPos     int
	selectPos    int
	confirmPos   int
	textPos      int
}

func (s *stubDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	s.messages = append(s.messages, cfg.Message)
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, cfg ConfirmConfig) (bool, error) {
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	s.messages = append(s.messages, cfg.Message)
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	if s.selectPos >= len(s.selectIdx) {
		return -1, errors.New("no select scripted")
	}
	s.messages = append(s.messages, cfg.Message)
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) TextArea(_ context.Context, cfg TextAreaConfig) (string, error) {
	if s.textPos >= len(s.textAreas) {
		return "", errors.New("no textarea scripted")
	}
	s.messages = append(s.messages, cfg.Message)
	val := s.textAreas[s.textPos]
	s.textPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

func organisations() *options.Resolver {
	return options.NewResolver(options.WithSource("organisations", options.Static{
		{ID: "acme", Name: "Acme"},
		{ID: "initech", Name: "Initech"},
	}))
}

func buildForm(t *testing.T, gen *generator.Generator, typeName string) *generator.Form {
	t.Helper()
	form, err := gen.BuildOne(testsupport.Context(), nil, typeName)
	if err != nil {
		t.Fatalf("build %s: %v", typeName, err)
	}
	return form
}

func TestFill_PersonWalkthrough(t *testing.T) {
	gen := generator.New(
		generator.WithDocument(testsupport.PeopleDocument(t)),
		generator.WithOptionResolver(organisations()),
	)
	form := buildForm(t, gen, "Person")

	driver := &stubDriver{
		inputs: []string{
			"Ada", "1815-12-10", "1.65", "",
			"math", "poetry",
			"Home", "Baker St", "London",
			"",
		},
		confirm: []bool{
			true,  // active
			true,  // another tag
			false, // no third tag
			true,  // address details
			false, // employer details
			false, // manager details
		},
		selectIdx: []int{2},
	}

	data, err := New(WithPromptDriver(driver)).Fill(testsupport.Context(), form)
	if err != nil {
		t.Fatalf("fill: %v", err)
	}

	want := map[string]any{
		"person":   "Ada",
		"born":     "1815-12-10",
		"height":   1.65,
		"active":   true,
		"homepage": "",
		"tags":     []any{"math", "poetry"},
		"address": map[string]any{
			"address": "Home",
			"street":  "Baker St",
			"city":    "London",
		},
		"employer": map[string]any{"id": "initech", "name": "Initech"},
		"manager":  "",
	}
	if diff := cmp.Diff(want, data); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
	if driver.inputPos != len(driver.inputs) || driver.confirmPos != len(driver.confirm) {
		t.Fatalf("script not consumed: inputs %d/%d confirms %d/%d",
			driver.inputPos, len(driver.inputs), driver.confirmPos, len(driver.confirm))
	}
	if driver.messages[0] != "Name *" {
		t.Fatalf("mandatory label should be marked, got %q", driver.messages[0])
	}
	if driver.messages[1] != "born (recommended)" {
		t.Fatalf("recommended label should be marked, got %q", driver.messages[1])
	}
	if len(driver.infoMessages) != 0 {
		t.Fatalf("unexpected info messages %v", driver.infoMessages)
	}
	if !form.Valid() {
		t.Fatalf("filled form should be valid: %+v", form.Issues())
	}
}

func TestFill_RepromptsInvalidInput(t *testing.T) {
	doc := schema.Document{Data: []schema.SerializedStructure{{
		TypeName: "Event",
		Subfields: []schema.SerializedSubfield{
			{Name: "event", Type: "text", Requirement: requirement.Mandatory},
			{Name: "when", Type: "date"},
		},
	}}}
	gen := generator.New(generator.WithDocument(doc))
	form := buildForm(t, gen, "Event")

	driver := &stubDriver{inputs: []string{"", "Launch", "yesterday", "2026-10-16"}}
	data, err := New(WithPromptDriver(driver)).Fill(testsupport.Context(), form)
	if err != nil {
		t.Fatalf("fill: %v", err)
	}

	if diff := cmp.Diff(map[string]any{"event": "Launch", "when": "2026-10-16"}, data); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
	wantInfo := []string{
		"Invalid event: Please fill out this field.",
		"Invalid when: Please enter a valid date.",
	}
	if diff := cmp.Diff(wantInfo, driver.infoMessages); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}
}

func TestFill_SelectNoneAndDepthLimit(t *testing.T) {
	gen := generator.New(
		generator.WithDocument(testsupport.PeopleDocument(t)),
		generator.WithOptionResolver(organisations()),
	)
	form := buildForm(t, gen, "Person")

	// Manager is a Person: with depth 1 its details open once, and the
	// nested manager is prompted without offering further details.
	driver := &stubDriver{
		inputs: []string{
			"Ada", "", "", "",
			"",
			"",
			"Charles", "", "", "", "", "", "",
		},
		confirm: []bool{
			false, // active
			false, // another tag
			false, // address details
			false, // employer details
			true,  // manager details
			false, // nested active
			false, // nested another tag
		},
		selectIdx: []int{0, 0},
	}

	data, err := New(WithPromptDriver(driver), WithMaxDepth(1)).Fill(testsupport.Context(), form)
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	if data["employer"] != "" {
		t.Fatalf("(none) should leave the employer blank, got %#v", data["employer"])
	}
	// The nested manager's own value sits under the top field name, beside
	// its own manager child.
	manager, ok := data["manager"].(map[string]any)
	if !ok || manager["person"] != "Charles" || manager["manager"] != "" {
		t.Fatalf("unexpected manager payload %#v", data["manager"])
	}
	if driver.confirmPos != len(driver.confirm) || driver.selectPos != 2 {
		t.Fatalf("script not consumed: confirms %d/%d selects %d",
			driver.confirmPos, len(driver.confirm), driver.selectPos)
	}
}

func TestFill_RejectsMissingForm(t *testing.T) {
	filler := New(WithPromptDriver(&stubDriver{}))
	if _, err := filler.Fill(testsupport.Context(), nil); !errors.Is(err, ErrNoForm) {
		t.Fatalf("expected ErrNoForm, got %v", err)
	}

	gen := generator.New(generator.WithDocument(testsupport.PeopleDocument(t)))
	form := buildForm(t, gen, "Address")
	form.Destroy()
	if _, err := filler.Fill(testsupport.Context(), form); !errors.Is(err, ErrNoForm) {
		t.Fatalf("expected ErrNoForm for destroyed form, got %v", err)
	}
}

func TestFill_StopsOnDriverError(t *testing.T) {
	gen := generator.New(generator.WithDocument(testsupport.PeopleDocument(t)))
	form := buildForm(t, gen, "Address")

	_, err := New(WithPromptDriver(&stubDriver{})).Fill(testsupport.Context(), form)
	if err == nil || !strings.Contains(err.Error(), "no input scripted") {
		t.Fatalf("expected driver error, got %v", err)
	}
}

func TestEncode_Formats(t *testing.T) {
	values := map[string]any{
		"person":  "Ada",
		"tags":    []any{"math"},
		"address": map[string]any{"street": "Baker St"},
	}

	var pretty bytes.Buffer
	if err := Encode(&pretty, values, OutputFormatPrettyText); err != nil {
		t.Fatalf("encode pretty: %v", err)
	}
	want := "address.street: Baker St\nperson: Ada\ntags.0: math\n"
	if diff := cmp.Diff(want, pretty.String()); diff != "" {
		t.Fatalf("pretty mismatch (-want +got):\n%s", diff)
	}

	var raw bytes.Buffer
	if err := Encode(&raw, values, OutputFormatJSON); err != nil {
		t.Fatalf("encode json: %v", err)
	}
	if !strings.Contains(raw.String(), `"person": "Ada"`) {
		t.Fatalf("unexpected json output %s", raw.String())
	}

	if _, err := ParseOutputFormat("xml"); err == nil {
		t.Fatalf("expected unknown format error")
	}
}

// Package tui fills a built form from the terminal: one prompt per field,
// validated by the field's own widget, with nested subfields and repeatable
// rows offered on demand.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-formtree/pkg/field"
	"github.com/goliatone/go-formtree/pkg/generator"
	"github.com/goliatone/go-formtree/pkg/options"
	"github.com/goliatone/go-formtree/pkg/requirement"
	"github.com/goliatone/go-formtree/pkg/widgets"
)

const noneOption = "(none)"

// Filler walks a form and prompts for every field.
type Filler struct {
	driver   PromptDriver
	maxDepth int
	logger   zerolog.Logger
	theme    Theme
}

// New constructs a Filler with defaults (survey driver on stdout).
func New(opts ...Option) *Filler {
	f := &Filler{
		maxDepth: DefaultMaxDepth,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(f)
	}
	if f.driver == nil {
		f.driver = NewSurveyDriver(nil)
	}
	return f
}

// Fill prompts for every root field of form and returns the extract payload.
// Current values are offered as defaults, so a prefilled form can be edited.
func (f *Filler) Fill(ctx context.Context, form *generator.Form) (map[string]any, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if form == nil || form.Destroyed() {
		return nil, ErrNoForm
	}
	if doc := form.Element().Document(); doc != nil {
		doc.Loop().Flush()
	}
	for _, node := range form.Nodes() {
		if err := f.fillNode(ctx, node, node.Name(), 0); err != nil {
			return nil, err
		}
	}
	return form.Data(), nil
}

func (f *Filler) fillNode(ctx context.Context, node field.Node, path string, depth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch typed := node.(type) {
	case *field.MultiField:
		return f.fillMulti(ctx, typed, path, depth)
	case *field.Field:
		return f.fillField(ctx, typed, path, depth)
	default:
		f.logger.Debug().Str("path", path).Msg("skipping unsupported node")
		return nil
	}
}

func (f *Filler) fillMulti(ctx context.Context, multi *field.MultiField, path string, depth int) error {
	for idx, row := range multi.Rows() {
		if err := f.fillField(ctx, row, fmt.Sprintf("%s.%d", path, idx), depth); err != nil {
			return err
		}
	}
	label := multi.Subfield().Label()
	for {
		more, err := f.driver.Confirm(ctx, ConfirmConfig{
			Message: f.message(fmt.Sprintf("Add another %s?", label)),
		})
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
		row, err := multi.AddRow()
		if err != nil {
			return fmt.Errorf("tui: add row to %s: %w", path, err)
		}
		if err := f.fillField(ctx, row, fmt.Sprintf("%s.%d", path, multi.Len()-1), depth); err != nil {
			return err
		}
	}
}

func (f *Filler) fillField(ctx context.Context, fld *field.Field, path string, depth int) error {
	if err := f.promptWidget(ctx, fld, path); err != nil {
		return err
	}
	structure := fld.Structure()
	if structure == nil || !structure.HasSubfields() || depth >= f.maxDepth {
		return nil
	}
	expand, err := f.driver.Confirm(ctx, ConfirmConfig{
		Message: f.message(fmt.Sprintf("Fill in details of %s?", fld.Subfield().Label())),
		Default: fld.Expanded(),
	})
	if err != nil {
		return err
	}
	if !expand {
		return nil
	}
	fld.ExpandSubfields()
	for _, child := range fld.Children() {
		if err := f.fillNode(ctx, child, path+"."+child.Name(), depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (f *Filler) promptWidget(ctx context.Context, fld *field.Field, path string) error {
	widget := fld.Widget()
	if widget == nil {
		return nil
	}
	switch typed := widget.(type) {
	case widgets.Selector:
		return f.promptSelector(ctx, fld, typed, path)
	case *widgets.Checkbox:
		return f.promptCheckbox(ctx, fld, typed)
	default:
		return f.promptText(ctx, fld, widget, path)
	}
}

func (f *Filler) promptText(ctx context.Context, fld *field.Field, widget widgets.Widget, path string) error {
	sub := fld.Subfield()
	for {
		var (
			response string
			err      error
		)
		if widget.Name() == widgets.WidgetTextarea {
			response, err = f.driver.TextArea(ctx, TextAreaConfig{
				Message: f.label(sub.Label(), sub.Requirement),
				Default: widget.InputValue(),
				Help:    sub.Tooltip(),
			})
		} else {
			response, err = f.driver.Input(ctx, InputConfig{
				Message: f.label(sub.Label(), sub.Requirement),
				Default: widget.InputValue(),
				Help:    sub.Tooltip(),
			})
		}
		if err != nil {
			return err
		}

		fld.Edit(response)
		if widget.HasValidInput() {
			return nil
		}
		if strings.TrimSpace(response) == "" && sub.Requirement < requirement.Mandatory {
			return nil
		}
		f.info(ctx, fmt.Sprintf("Invalid %s: %s", path, widget.ValidationMessage()))
	}
}

func (f *Filler) promptCheckbox(ctx context.Context, fld *field.Field, box *widgets.Checkbox) error {
	sub := fld.Subfield()
	current, _ := box.Value().(bool)
	answer, err := f.driver.Confirm(ctx, ConfirmConfig{
		Message: f.label(sub.Label(), sub.Requirement),
		Default: current,
		Help:    sub.Tooltip(),
	})
	if err != nil {
		return err
	}
	if answer != current {
		fld.Edit(fmt.Sprint(answer))
	}
	return nil
}

func (f *Filler) promptSelector(ctx context.Context, fld *field.Field, sel widgets.Selector, path string) error {
	sub := fld.Subfield()
	if !sel.Loaded() {
		if doc := fld.Element().Document(); doc != nil {
			doc.Loop().Flush()
		}
	}
	if !sel.Loaded() {
		if sel.AllowNewEntries() {
			return f.promptText(ctx, fld, sel, path)
		}
		f.info(ctx, fmt.Sprintf("No options available for %s", path))
		return nil
	}

	opts := sel.Options()
	choices := make([]string, 0, len(opts)+1)
	offset := 0
	if sub.Requirement < requirement.Mandatory {
		choices = append(choices, noneOption)
		offset = 1
	}
	defaultIdx := 0
	selected, hasSelection := sel.Selected()
	for idx, opt := range opts {
		choices = append(choices, opt.Name)
		if hasSelection && opt.ID == selected.ID {
			defaultIdx = idx + offset
		}
	}

	for {
		idx, err := f.driver.Select(ctx, SelectConfig{
			Message:      f.label(sub.Label(), sub.Requirement),
			Options:      choices,
			DefaultIndex: defaultIdx,
			Help:         sub.Tooltip(),
		})
		if err != nil {
			return err
		}
		pick := idx - offset
		if offset == 1 && idx == 0 {
			fld.Edit("")
			return nil
		}
		if pick < 0 || pick >= len(opts) {
			f.info(ctx, fmt.Sprintf("Invalid %s selection", path))
			continue
		}
		return f.choose(fld, sel, opts[pick])
	}
}

func (f *Filler) choose(fld *field.Field, sel widgets.Selector, opt options.Option) error {
	if !sel.SelectByID(opt.ID) {
		return fmt.Errorf("tui: option %q vanished", opt.ID)
	}
	fld.Edit(opt.Name)
	return nil
}

func (f *Filler) label(text string, level requirement.Level) string {
	switch level {
	case requirement.Mandatory:
		text += " *"
	case requirement.Recommended:
		text += " (recommended)"
	}
	return f.message(text)
}

func (f *Filler) message(text string) string {
	return f.theme.PromptPrefix + text
}

func (f *Filler) info(ctx context.Context, msg string) {
	if err := f.driver.Info(ctx, f.theme.InfoPrefix+msg); err != nil {
		f.logger.Debug().Err(err).Msg("info message dropped")
	}
}

package dom

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElementTreeOperations(t *testing.T) {
	doc := NewDocument()
	parent := doc.Body().AppendChild(doc.CreateElement("div"))
	first := parent.AppendChild(doc.CreateElement("span"))
	second := parent.InsertBefore(doc.CreateElement("em"), first)

	require.Equal(t, []*Element{second, first}, parent.Children())
	assert.Equal(t, 4, doc.Body().Count())
	assert.True(t, doc.Body().Contains(first))
	assert.True(t, first.Attached())

	first.Remove()
	assert.False(t, first.Attached())
	assert.Equal(t, 3, doc.Body().Count())
	assert.Nil(t, first.Parent())
}

func TestClassesAndAttributes(t *testing.T) {
	doc := NewDocument()
	el := doc.CreateElement("div")
	el.AddClass("a", "b", "a", " ")
	assert.Equal(t, []string{"a", "b"}, el.Classes())

	el.RemoveClass("a")
	assert.False(t, el.HasClass("a"))
	assert.True(t, el.HasClass("b"))

	el.SetAttr("hidden", "")
	assert.True(t, el.HasAttr("hidden"))
	el.RemoveAttr("hidden")
	assert.False(t, el.HasAttr("hidden"))
}

func TestDispatchBubblesToDocument(t *testing.T) {
	doc := NewDocument()
	outer := doc.Body().AppendChild(doc.CreateElement("div"))
	inner := outer.AppendChild(doc.CreateElement("input"))

	var seen []string
	outer.AddListener(EventChange, func(ev *Event) {
		seen = append(seen, "outer")
		assert.Same(t, inner, ev.Target)
	})
	doc.AddListener(EventChange, func(*Event) { seen = append(seen, "document") })

	inner.Dispatch(EventChange)
	assert.Equal(t, []string{"outer", "document"}, seen)

	inner.Remove()
	seen = nil
	inner.Dispatch(EventChange)
	assert.Empty(t, seen, "detached elements must not reach ancestors or the document")
}

func TestOnceListenerAndRemoval(t *testing.T) {
	doc := NewDocument()
	el := doc.Body().AppendChild(doc.CreateElement("div"))

	calls := 0
	el.AddOnceListener(EventClick, func(*Event) { calls++ })
	id := el.AddListener(EventClick, func(*Event) { calls += 10 })

	el.Dispatch(EventClick)
	el.Dispatch(EventClick)
	assert.Equal(t, 21, calls)

	require.True(t, el.RemoveListener(EventClick, id))
	assert.Zero(t, el.ListenerCount())
	el.Dispatch(EventClick)
	assert.Equal(t, 21, calls)
}

func TestFocusTransitions(t *testing.T) {
	doc := NewDocument()
	a := doc.Body().AppendChild(doc.CreateElement("input"))
	b := doc.Body().AppendChild(doc.CreateElement("input"))

	var events []string
	record := func(name string) Listener {
		return func(ev *Event) { events = append(events, name+":"+string(ev.Type)) }
	}
	a.AddListener(EventFocusIn, record("a"))
	a.AddListener(EventFocusOut, record("a"))
	b.AddListener(EventFocusIn, record("b"))

	a.Focus()
	b.Focus()
	assert.Equal(t, []string{"a:focusin", "a:focusout", "b:focusin"}, events)
	assert.Same(t, b, doc.ActiveElement())

	doc.Blur()
	assert.Nil(t, doc.ActiveElement())
}

func TestValidity(t *testing.T) {
	doc := NewDocument()
	cases := []struct {
		name    string
		attrs   map[string]string
		value   string
		valid   bool
		message string
	}{
		{name: "optional empty", value: "", valid: true},
		{name: "required empty", attrs: map[string]string{"required": ""}, valid: false, message: MessageValueMissing},
		{name: "bad url", attrs: map[string]string{"type": "url"}, value: "nope", valid: false, message: MessageTypeURL},
		{name: "good url", attrs: map[string]string{"type": "url"}, value: "https://example.com", valid: true},
		{name: "bad date", attrs: map[string]string{"type": "date"}, value: "2024-13-01", valid: false, message: MessageTypeDate},
		{name: "number", attrs: map[string]string{"type": "number"}, value: "4.5", valid: true},
		{name: "pattern", attrs: map[string]string{"pattern": "[a-z]+"}, value: "abc1", valid: false, message: MessagePatternFailed},
		{name: "maxlength", attrs: map[string]string{"maxlength": "3"}, value: "abcd", valid: false, message: "Please shorten this text to 3 characters or less."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			el := doc.CreateElement("input")
			for k, v := range tc.attrs {
				el.SetAttr(k, v)
			}
			el.Value = tc.value
			valid, message := el.Validity()
			assert.Equal(t, tc.valid, valid)
			assert.Equal(t, tc.message, message)
		})
	}

	custom := doc.CreateElement("input")
	custom.SetCustomValidity("Pick an option")
	valid, message := custom.Validity()
	assert.False(t, valid)
	assert.Equal(t, "Pick an option", message)
}

func TestLoopTimersAndCancellation(t *testing.T) {
	loop := NewLoop()
	var order []string

	loop.SetTimeout(func() { order = append(order, "late") }, 50*time.Millisecond)
	cancelled := loop.SetTimeout(func() { order = append(order, "cancelled") }, 0)
	loop.SetTimeout(func() { order = append(order, "now") }, 0)
	require.True(t, cancelled.Cancel())
	require.False(t, cancelled.Cancel())

	assert.Equal(t, 1, loop.RunPending())
	assert.Equal(t, []string{"now"}, order)
	assert.Equal(t, 1, loop.Pending())

	loop.Advance(49 * time.Millisecond)
	assert.Equal(t, []string{"now"}, order)
	loop.Advance(time.Millisecond)
	assert.Equal(t, []string{"now", "late"}, order)
	assert.Zero(t, loop.Pending())
}

func TestLoopGoPostsContinuation(t *testing.T) {
	loop := NewLoop()
	result := ""
	loop.Go(func() func() {
		value := "fetched"
		return func() { result = value }
	})
	loop.Flush()
	assert.Equal(t, "fetched", result)
}

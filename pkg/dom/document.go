package dom

import (
	"fmt"
	"sync/atomic"
)

var orphanListenerSeq atomic.Uint64

// Document owns the element tree, focus and pointer state, document-level
// listeners, and the event loop.
type Document struct {
	body      *Element
	active    *Element
	loop      *Loop
	listeners listenerSet

	pointerDown bool
	listenerSeq uint64
	elementSeq  uint64
}

// NewDocument constructs an empty document with its own loop.
func NewDocument() *Document {
	doc := &Document{
		loop:      NewLoop(),
		listeners: make(listenerSet),
	}
	doc.body = doc.CreateElement("body")
	return doc
}

// Body returns the root element.
func (d *Document) Body() *Element {
	return d.body
}

// Loop returns the event loop driving deferred work.
func (d *Document) Loop() *Loop {
	return d.loop
}

// CreateElement returns a detached element owned by the document.
func (d *Document) CreateElement(tag string) *Element {
	d.elementSeq++
	return &Element{
		ID:  fmt.Sprintf("el-%d", d.elementSeq),
		Tag: tag,
		doc: d,
	}
}

// ActiveElement returns the focused element or nil.
func (d *Document) ActiveElement() *Element {
	return d.active
}

// SetFocus moves focus, dispatching focusout on the previous element and
// focusin on the new one. Passing nil blurs.
func (d *Document) SetFocus(target *Element) {
	previous := d.active
	if previous == target {
		return
	}
	d.active = target
	if previous != nil {
		previous.DispatchEvent(&Event{Type: EventFocusOut, RelatedTarget: target})
	}
	if target != nil && d.active == target {
		target.DispatchEvent(&Event{Type: EventFocusIn, RelatedTarget: previous})
	}
}

// Blur clears focus.
func (d *Document) Blur() {
	d.SetFocus(nil)
}

// PointerDown reports whether a pointer button is currently held.
func (d *Document) PointerDown() bool {
	return d.pointerDown
}

// PressPointer simulates a pointer press on target: mousedown fires and focus
// moves to the target.
func (d *Document) PressPointer(target *Element) {
	d.pointerDown = true
	if target == nil {
		target = d.body
	}
	target.Dispatch(EventMouseDown)
	d.SetFocus(target)
}

// ReleasePointer simulates the pointer release that completes an interaction.
func (d *Document) ReleasePointer(target *Element) {
	d.pointerDown = false
	if target == nil {
		target = d.body
	}
	target.Dispatch(EventMouseUp)
}

// Click performs a full press, release, click sequence on target.
func (d *Document) Click(target *Element) {
	d.PressPointer(target)
	d.ReleasePointer(target)
	if target != nil {
		target.Dispatch(EventClick)
	}
}

// AddListener registers a document-level listener.
func (d *Document) AddListener(typ EventType, fn Listener) ListenerID {
	if fn == nil {
		return 0
	}
	id := d.nextListenerID()
	d.listeners.add(id, typ, fn, false)
	return id
}

// AddOnceListener registers a document-level listener that runs at most once.
func (d *Document) AddOnceListener(typ EventType, fn Listener) ListenerID {
	if fn == nil {
		return 0
	}
	id := d.nextListenerID()
	d.listeners.add(id, typ, fn, true)
	return id
}

// RemoveListener unregisters a document-level listener.
func (d *Document) RemoveListener(typ EventType, id ListenerID) bool {
	return d.listeners.remove(typ, id)
}

// ListenerCount returns the number of document-level listeners.
func (d *Document) ListenerCount() int {
	return d.listeners.count()
}

func (d *Document) nextListenerID() ListenerID {
	if d == nil {
		return ListenerID(orphanListenerSeq.Add(1) | 1<<62)
	}
	d.listenerSeq++
	return ListenerID(d.listenerSeq)
}

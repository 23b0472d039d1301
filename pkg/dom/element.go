package dom

import (
	"slices"
	"strings"
)

// Element is a node of the headless tree. Value and Checked hold the live state
// of input-like elements.
type Element struct {
	ID      string
	Tag     string
	Text    string
	Value   string
	Checked bool

	doc       *Document
	parent    *Element
	children  []*Element
	classes   []string
	attrs     map[string]string
	listeners listenerSet

	customValidity string
}

// Document returns the owning document.
func (e *Element) Document() *Document {
	return e.doc
}

// Parent returns the parent element or nil when detached.
func (e *Element) Parent() *Element {
	return e.parent
}

// Children returns a copy of the child list.
func (e *Element) Children() []*Element {
	return slices.Clone(e.children)
}

// AppendChild attaches child as the last child, detaching it from any previous
// parent first.
func (e *Element) AppendChild(child *Element) *Element {
	if child == nil || child == e {
		return child
	}
	if child.parent != nil {
		child.parent.RemoveChild(child)
	}
	child.parent = e
	e.children = append(e.children, child)
	return child
}

// InsertBefore attaches child before ref. A nil or foreign ref appends.
func (e *Element) InsertBefore(child, ref *Element) *Element {
	if child == nil || child == e {
		return child
	}
	idx := slices.Index(e.children, ref)
	if ref == nil || idx < 0 {
		return e.AppendChild(child)
	}
	if child.parent != nil {
		child.parent.RemoveChild(child)
		idx = slices.Index(e.children, ref)
	}
	child.parent = e
	e.children = slices.Insert(e.children, idx, child)
	return child
}

// RemoveChild detaches child. It reports whether child belonged to e.
func (e *Element) RemoveChild(child *Element) bool {
	idx := slices.Index(e.children, child)
	if idx < 0 {
		return false
	}
	e.children = slices.Delete(e.children, idx, idx+1)
	child.parent = nil
	if e.doc != nil && e.doc.active != nil && child.Contains(e.doc.active) {
		e.doc.active = nil
	}
	return true
}

// Remove detaches the element from its parent.
func (e *Element) Remove() {
	if e.parent != nil {
		e.parent.RemoveChild(e)
	}
}

// Contains reports whether other is e or one of its descendants.
func (e *Element) Contains(other *Element) bool {
	for node := other; node != nil; node = node.parent {
		if node == e {
			return true
		}
	}
	return false
}

// Attached reports whether the element is reachable from the document body.
func (e *Element) Attached() bool {
	return e.doc != nil && e.doc.body.Contains(e)
}

// Count returns the number of nodes in the subtree rooted at e.
func (e *Element) Count() int {
	total := 1
	for _, child := range e.children {
		total += child.Count()
	}
	return total
}

// Find returns the first element in the subtree (depth first, e included)
// matching the predicate.
func (e *Element) Find(match func(*Element) bool) *Element {
	if match(e) {
		return e
	}
	for _, child := range e.children {
		if found := child.Find(match); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns every element in the subtree matching the predicate.
func (e *Element) FindAll(match func(*Element) bool) []*Element {
	var out []*Element
	if match(e) {
		out = append(out, e)
	}
	for _, child := range e.children {
		out = append(out, child.FindAll(match)...)
	}
	return out
}

// ByClass is a Find predicate selecting elements carrying class.
func ByClass(class string) func(*Element) bool {
	return func(e *Element) bool {
		return e.HasClass(class)
	}
}

// AddClass adds each class once, preserving insertion order.
func (e *Element) AddClass(classes ...string) {
	for _, class := range classes {
		class = strings.TrimSpace(class)
		if class == "" || slices.Contains(e.classes, class) {
			continue
		}
		e.classes = append(e.classes, class)
	}
}

// RemoveClass removes the supplied classes when present.
func (e *Element) RemoveClass(classes ...string) {
	e.classes = slices.DeleteFunc(e.classes, func(existing string) bool {
		return slices.Contains(classes, existing)
	})
}

// HasClass reports whether the class is present.
func (e *Element) HasClass(class string) bool {
	return slices.Contains(e.classes, class)
}

// Classes returns a copy of the class list.
func (e *Element) Classes() []string {
	return slices.Clone(e.classes)
}

// SetAttr sets an attribute. Boolean attributes use an empty value.
func (e *Element) SetAttr(name, value string) {
	if e.attrs == nil {
		e.attrs = make(map[string]string)
	}
	e.attrs[name] = value
}

// Attr returns the attribute value or "" when absent.
func (e *Element) Attr(name string) string {
	return e.attrs[name]
}

// HasAttr reports whether the attribute is present.
func (e *Element) HasAttr(name string) bool {
	_, ok := e.attrs[name]
	return ok
}

// RemoveAttr deletes the attribute.
func (e *Element) RemoveAttr(name string) {
	delete(e.attrs, name)
}

// AddListener registers fn for the event type on this element.
func (e *Element) AddListener(typ EventType, fn Listener) ListenerID {
	return e.addListener(typ, fn, false)
}

// AddOnceListener registers fn to run at most once.
func (e *Element) AddOnceListener(typ EventType, fn Listener) ListenerID {
	return e.addListener(typ, fn, true)
}

func (e *Element) addListener(typ EventType, fn Listener, once bool) ListenerID {
	if fn == nil {
		return 0
	}
	if e.listeners == nil {
		e.listeners = make(listenerSet)
	}
	id := e.doc.nextListenerID()
	e.listeners.add(id, typ, fn, once)
	return id
}

// RemoveListener unregisters a listener. It reports whether it was present.
func (e *Element) RemoveListener(typ EventType, id ListenerID) bool {
	if e.listeners == nil {
		return false
	}
	return e.listeners.remove(typ, id)
}

// ListenerCount returns the number of listeners registered on the element.
func (e *Element) ListenerCount() int {
	return e.listeners.count()
}

// Dispatch fires an event at e, bubbling through its ancestors and, when the
// element is attached, the document.
func (e *Element) Dispatch(typ EventType) {
	e.DispatchEvent(&Event{Type: typ})
}

// DispatchEvent fires a prepared event at e.
func (e *Element) DispatchEvent(ev *Event) {
	ev.Target = e
	attached := e.Attached()
	for node := e; node != nil; node = node.parent {
		ev.CurrentTarget = node
		if node.listeners != nil {
			node.listeners.fire(ev)
		}
		if ev.stopped {
			return
		}
	}
	if attached && e.doc != nil {
		ev.CurrentTarget = nil
		e.doc.listeners.fire(ev)
	}
}

// Focus moves document focus to the element.
func (e *Element) Focus() {
	if e.doc != nil {
		e.doc.SetFocus(e)
	}
}

// SetCustomValidity overrides native validity with a message. An empty message
// restores native checks.
func (e *Element) SetCustomValidity(message string) {
	e.customValidity = strings.TrimSpace(message)
}

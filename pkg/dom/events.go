package dom

// EventType names the events dispatched through the tree.
type EventType string

const (
	EventFocusIn   EventType = "focusin"
	EventFocusOut  EventType = "focusout"
	EventMouseDown EventType = "mousedown"
	EventMouseUp   EventType = "mouseup"
	EventClick     EventType = "click"
	EventInput     EventType = "input"
	EventChange    EventType = "change"
)

// Event carries dispatch state to listeners. RelatedTarget is set for focus
// transitions and points at the element losing or gaining focus.
type Event struct {
	Type          EventType
	Target        *Element
	CurrentTarget *Element
	RelatedTarget *Element

	stopped bool
}

// StopPropagation prevents the event from reaching further ancestors.
func (e *Event) StopPropagation() {
	e.stopped = true
}

// Listener handles a dispatched event.
type Listener func(*Event)

// ListenerID identifies a registered listener so it can be removed later.
type ListenerID uint64

type listener struct {
	id   ListenerID
	fn   Listener
	once bool
}

type listenerSet map[EventType][]listener

func (s listenerSet) add(id ListenerID, typ EventType, fn Listener, once bool) {
	s[typ] = append(s[typ], listener{id: id, fn: fn, once: once})
}

func (s listenerSet) remove(typ EventType, id ListenerID) bool {
	entries := s[typ]
	for idx, entry := range entries {
		if entry.id != id {
			continue
		}
		s[typ] = append(entries[:idx:idx], entries[idx+1:]...)
		if len(s[typ]) == 0 {
			delete(s, typ)
		}
		return true
	}
	return false
}

func (s listenerSet) count() int {
	total := 0
	for _, entries := range s {
		total += len(entries)
	}
	return total
}

// fire invokes every listener registered for the event type. The slice is
// snapshotted so listeners may add or remove listeners while running.
func (s listenerSet) fire(ev *Event) {
	entries := append([]listener(nil), s[ev.Type]...)
	for _, entry := range entries {
		if entry.once {
			if !s.remove(ev.Type, entry.id) {
				continue
			}
		} else if !s.has(ev.Type, entry.id) {
			continue
		}
		entry.fn(ev)
	}
}

func (s listenerSet) has(typ EventType, id ListenerID) bool {
	for _, entry := range s[typ] {
		if entry.id == id {
			return true
		}
	}
	return false
}

// Package requirement implements the three-level requirement policy and the
// focus-driven controller that decides when a field shows warning styles.
package requirement

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-formtree/pkg/dom"
)

// Classes and note texts applied to a field container.
const (
	ClassRecommended = "requirement-recommended-warning"
	ClassMandatory   = "requirement-mandatory-warning"
	ClassNote        = "requirement-note"

	NoteRecommended = "Recommended"
	NoteMandatory   = "Mandatory"
)

// DefaultPollInterval is the delay between checks while a pointer is held down
// after the field lost focus.
const DefaultPollInterval = 50 * time.Millisecond

// Target is the validity source a requirement presents.
type Target interface {
	HasValidInput() bool
	ValidationMessage() string
}

// State is the presentation state of a requirement.
type State int

const (
	StateUntouched State = iota
	StateFocused
	StateSettling
	StateValid
	StateInvalid
)

func (s State) String() string {
	switch s {
	case StateUntouched:
		return "untouched"
	case StateFocused:
		return "focused"
	case StateSettling:
		return "settling"
	case StateValid:
		return "valid"
	case StateInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Option customises a Requirement.
type Option func(*Requirement)

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Requirement) {
		r.logger = logger
	}
}

// WithPollInterval overrides DefaultPollInterval.
func WithPollInterval(d time.Duration) Option {
	return func(r *Requirement) {
		if d > 0 {
			r.poll = d
		}
	}
}

// Requirement attaches validity styling and a note to a container according to
// its level. Entering the container clears warnings; leaving it defers the
// check until the pointer interaction that caused the blur has completed.
type Requirement struct {
	level     Level
	container *dom.Element
	doc       *dom.Document
	target    Target
	state     State
	note      *dom.Element
	timer     *dom.Timer
	logger    zerolog.Logger
	poll      time.Duration
	destroyed bool

	focusInID  dom.ListenerID
	focusOutID dom.ListenerID
	mouseUpID  dom.ListenerID
}

// New binds a requirement to container and starts listening for focus
// transitions inside it.
func New(level Level, container *dom.Element, target Target, opts ...Option) *Requirement {
	r := &Requirement{
		level:     level,
		container: container,
		target:    target,
		logger:    zerolog.Nop(),
		poll:      DefaultPollInterval,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if container == nil {
		r.destroyed = true
		return r
	}
	r.doc = container.Document()
	r.focusInID = container.AddListener(dom.EventFocusIn, r.onFocusIn)
	r.focusOutID = container.AddListener(dom.EventFocusOut, r.onFocusOut)
	return r
}

// Level returns the configured requirement level.
func (r *Requirement) Level() Level {
	return r.level
}

// State returns the current presentation state.
func (r *Requirement) State() State {
	return r.state
}

// Container returns the element the requirement styles.
func (r *Requirement) Container() *dom.Element {
	return r.container
}

// SetTarget swaps the validity source.
func (r *Requirement) SetTarget(target Target) {
	r.target = target
}

// Note returns the text of the visible note, or "" when none is shown.
func (r *Requirement) Note() string {
	if r.note == nil {
		return ""
	}
	return r.note.Text
}

// Destroyed reports whether Destroy was called.
func (r *Requirement) Destroyed() bool {
	return r.destroyed
}

func (r *Requirement) onFocusIn(*dom.Event) {
	if r.destroyed {
		return
	}
	r.Cancel()
	r.state = StateFocused
	r.ClearWarningStyles()
}

func (r *Requirement) onFocusOut(ev *dom.Event) {
	if r.destroyed {
		return
	}
	if ev.RelatedTarget != nil && r.container.Contains(ev.RelatedTarget) {
		return
	}
	r.Cancel()
	r.state = StateSettling
	if r.doc != nil {
		r.mouseUpID = r.doc.AddOnceListener(dom.EventMouseUp, func(*dom.Event) {
			r.mouseUpID = 0
			r.schedule(0)
		})
	}
	r.schedule(0)
}

func (r *Requirement) schedule(delay time.Duration) {
	if r.doc == nil {
		r.settle()
		return
	}
	if r.timer != nil {
		r.timer.Cancel()
	}
	r.timer = r.doc.Loop().SetTimeout(r.settle, delay)
}

// settle runs the deferred check once the pointer has been released.
func (r *Requirement) settle() {
	r.timer = nil
	if r.destroyed || r.state != StateSettling {
		return
	}
	if r.doc != nil && r.doc.PointerDown() {
		r.schedule(r.poll)
		return
	}
	if r.doc != nil {
		if active := r.doc.ActiveElement(); active != nil && r.container.Contains(active) {
			r.dropMouseUp()
			r.state = StateFocused
			return
		}
	}
	r.dropMouseUp()
	r.ApplyWarningStyles()
}

// Revalidate re-evaluates styling after a value change. It does nothing while
// the user is still editing inside the container.
func (r *Requirement) Revalidate() {
	if r.destroyed || r.state == StateFocused || r.state == StateSettling {
		return
	}
	r.ApplyWarningStyles()
}

// ApplyWarningStyles decides the styling from the target's validity and the
// requirement level.
func (r *Requirement) ApplyWarningStyles() {
	if r.destroyed {
		return
	}
	valid := r.target == nil || r.target.HasValidInput()
	if valid {
		r.state = StateValid
	} else {
		r.state = StateInvalid
	}

	if valid || r.level < Recommended {
		r.ClearWarningStyles()
		return
	}

	switch r.level {
	case Recommended:
		r.container.RemoveClass(ClassMandatory)
		r.container.AddClass(ClassRecommended)
		r.showNote(NoteRecommended)
	default:
		r.container.RemoveClass(ClassRecommended)
		r.container.AddClass(ClassMandatory)
		text := NoteMandatory
		if message := r.target.ValidationMessage(); message != "" {
			text += ": " + message
		}
		r.showNote(text)
	}
	r.logger.Debug().Str("level", r.level.String()).Str("container", r.container.ID).Msg("requirement not met")
}

// ClearWarningStyles removes warning classes and the note.
func (r *Requirement) ClearWarningStyles() {
	if r.container != nil {
		r.container.RemoveClass(ClassRecommended, ClassMandatory)
	}
	if r.note != nil {
		r.note.Remove()
		r.note = nil
	}
}

func (r *Requirement) showNote(text string) {
	if r.note == nil {
		r.note = r.container.Document().CreateElement("span")
		r.note.AddClass(ClassNote)
		r.container.AppendChild(r.note)
	}
	r.note.Text = text
}

// Cancel drops any pending deferred check and the one-shot mouseup listener.
func (r *Requirement) Cancel() {
	if r.timer != nil {
		r.timer.Cancel()
		r.timer = nil
	}
	r.dropMouseUp()
	if r.state == StateSettling {
		r.state = StateUntouched
	}
}

func (r *Requirement) dropMouseUp() {
	if r.mouseUpID != 0 && r.doc != nil {
		r.doc.RemoveListener(dom.EventMouseUp, r.mouseUpID)
	}
	r.mouseUpID = 0
}

// Destroy releases every listener and timer and removes the styling.
func (r *Requirement) Destroy() {
	if r.destroyed {
		return
	}
	r.Cancel()
	r.ClearWarningStyles()
	if r.container != nil {
		r.container.RemoveListener(dom.EventFocusIn, r.focusInID)
		r.container.RemoveListener(dom.EventFocusOut, r.focusOutID)
	}
	r.destroyed = true
	r.target = nil
}

package game

import (
	"errors"
	"sync"
)

// FlowPhase is the user-facing submission state for one member's session.
type FlowPhase string

const (
	FlowUnselected     FlowPhase = "unselected"
	FlowSelected       FlowPhase = "selected"
	FlowCommentEditing FlowPhase = "comment_editing"
	FlowSubmitting     FlowPhase = "submitting"
	FlowSubmitted      FlowPhase = "submitted"
)

var (
	// ErrNotConnected rejects game engagement while the couple has fewer
	// than two members; the caller redirects to the connection flow.
	ErrNotConnected = errors.New("couple is not connected")
	// ErrInvalidOption rejects options other than "A" or "B".
	ErrInvalidOption = errors.New("invalid option")
	// ErrNoSelection rejects comment editing before an option is picked.
	ErrNoSelection = errors.New("no option selected")
	// ErrCommentNotOpen rejects a submit that skipped the comment editor.
	ErrCommentNotOpen = errors.New("comment editor not open")
	// ErrSubmitInProgress rejects re-entry while a write is outstanding.
	ErrSubmitInProgress = errors.New("submit already in progress")
)

// Flow is one member's answer-submission state machine:
// Unselected -> Selected -> CommentEditing -> Submitting -> Submitted.
// Re-selecting after a submission is allowed until the day rolls over;
// a failed submission falls back to CommentEditing, never Submitted.
type Flow struct {
	mu     sync.Mutex
	phase  FlowPhase
	option string
	draft  string
}

// NewFlow starts a session in the Unselected phase.
func NewFlow() *Flow {
	return &Flow{phase: FlowUnselected}
}

// Phase returns the current phase.
func (f *Flow) Phase() FlowPhase {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.phase
}

// Option returns the currently selected option, if any.
func (f *Flow) Option() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.option
}

// Draft returns the working comment draft.
func (f *Flow) Draft() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

// SelectOption picks a side. When the member previously submitted this
// exact option, the stored comment prefills the draft; otherwise the
// draft is cleared.
func (f *Flow) SelectOption(option string, prior *Answer) error {
	if !ValidOption(option) {
		return ErrInvalidOption
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.phase == FlowSubmitting {
		return ErrSubmitInProgress
	}

	f.option = option
	if prior != nil && prior.Option == option {
		f.draft = prior.Comment
	} else {
		f.draft = ""
	}
	f.phase = FlowSelected
	return nil
}

// OpenCommentEditor moves Selected -> CommentEditing. The couple must be
// connected; otherwise the operation is rejected and the caller should
// redirect to the connection flow instead.
func (f *Flow) OpenCommentEditor(connected bool) (string, error) {
	if !connected {
		return "", ErrNotConnected
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.phase == FlowSubmitting {
		return "", ErrSubmitInProgress
	}
	if f.option == "" {
		return "", ErrNoSelection
	}
	f.phase = FlowCommentEditing
	return f.draft, nil
}

// BeginSubmit moves CommentEditing -> Submitting and captures the final
// comment. Returns the option under submission. Submitting is reachable
// only through the comment editor.
func (f *Flow) BeginSubmit(comment string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.phase == FlowSubmitting {
		return "", ErrSubmitInProgress
	}
	if f.option == "" {
		return "", ErrNoSelection
	}
	if f.phase != FlowCommentEditing {
		return "", ErrCommentNotOpen
	}
	f.draft = comment
	f.phase = FlowSubmitting
	return f.option, nil
}

// FinishSubmit resolves the in-flight write: success reaches Submitted,
// failure returns to CommentEditing with the draft intact.
func (f *Flow) FinishSubmit(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.phase != FlowSubmitting {
		return
	}
	if err != nil {
		f.phase = FlowCommentEditing
		return
	}
	f.phase = FlowSubmitted
}

// Reset returns the session to Unselected, e.g. after a day rollover.
func (f *Flow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.phase == FlowSubmitting {
		return
	}
	f.phase = FlowUnselected
	f.option = ""
	f.draft = ""
}

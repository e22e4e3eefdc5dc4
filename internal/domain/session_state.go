package domain

import "errors"

// Status is the phase of a session's pipeline.
type Status string

// Session statuses.
const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// NoSelection is the Selected value of a state with nothing selected.
const NoSelection = -1

// SessionState is one immutable snapshot of a session. Transitions build a
// new value and replace the old one wholesale; a snapshot is never mutated
// after it is published.
type SessionState struct {
	Status Status
	// Items is non-empty only when Status is StatusReady.
	Items []QuestionRecord
	// Selected is an index into Items, or NoSelection.
	Selected int
	// Revealed is true only while a record is selected.
	Revealed bool
	// ErrorMessage is set only when Status is StatusFailed.
	ErrorMessage string
	// Seq is the session's sequence number when the snapshot was published.
	// Submit, Cancel and Close each advance it.
	Seq uint64
}

// NewIdleState returns the initial state of a session.
func NewIdleState() SessionState {
	return SessionState{Status: StatusIdle, Selected: NoSelection}
}

// Selection returns the selected record, if any.
func (s SessionState) Selection() (QuestionRecord, bool) {
	if s.Selected < 0 || s.Selected >= len(s.Items) {
		return QuestionRecord{}, false
	}
	return s.Items[s.Selected], true
}

// IndexOf returns the index of the record with id, or -1.
func (s SessionState) IndexOf(id int) int {
	for i, item := range s.Items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// CheckInvariants reports the first broken snapshot invariant.
func (s SessionState) CheckInvariants() error {
	_, selected := s.Selection()
	switch {
	case s.Selected != NoSelection && !selected:
		return errors.New("selection does not refer to a current item")
	case s.Revealed && !selected:
		return errors.New("revealed without a selection")
	case len(s.Items) > 0 && s.Status != StatusReady:
		return errors.New("items present outside the ready status")
	case s.ErrorMessage != "" && s.Status != StatusFailed:
		return errors.New("error message outside the failed status")
	}
	return nil
}

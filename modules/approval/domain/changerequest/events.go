package changerequest

import "time"

// SubmittedEvent is published after a submit transaction commits.
type SubmittedEvent struct {
	Request   ChangeRequest
	Timestamp time.Time
}

// DecidedEvent is published after a decide transaction commits.
type DecidedEvent struct {
	Request   ChangeRequest
	Decision  Status
	DecidedBy uint
	Timestamp time.Time
}

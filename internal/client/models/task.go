// Package models defines the client-side view of a remote export task.
package models

// Status is the server-reported state of an export task.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusFinished  Status = "FINISHED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
	StatusUnknown   Status = "UNKNOWN"
)

// ParseStatus maps a raw status string to a Status. Unrecognized values map
// to StatusUnknown rather than failing: the poller treats them as
// non-terminal. Both CANCELED and CANCELLED spellings are accepted, the API
// has used both.
func ParseStatus(s string) Status {
	switch s {
	case "PENDING":
		return StatusPending
	case "RUNNING":
		return StatusRunning
	case "FINISHED":
		return StatusFinished
	case "FAILED":
		return StatusFailed
	case "CANCELED", "CANCELLED":
		return StatusCancelled
	default:
		return StatusUnknown
	}
}

// Terminal reports whether no further transitions are expected.
func (s Status) Terminal() bool {
	switch s {
	case StatusFinished, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Task is one export job on the remote service, as observed through polling.
// The client never mutates task state directly; a Task is replaced wholesale
// by re-fetching from the service.
type Task struct {
	ID        string
	Status    Status
	Completed int64
	// Total is the expected item count. Zero means the server has not
	// reported a total yet ("unknown total").
	Total int64
	// ResultLocation is the pre-authorized download URL, set only when
	// Status is StatusFinished.
	ResultLocation string
	// FailureDetail carries the server's error text for failed tasks,
	// verbatim.
	FailureDetail string
	// Encrypted is set when the export was triggered with an SSE-C key;
	// retrieval then requires the matching key.
	Encrypted bool
}

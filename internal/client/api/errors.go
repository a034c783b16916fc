package api

import "fmt"

// TriggerError reports a non-success HTTP response to the export trigger.
// Triggering is not safe to retry blindly, so this is always fatal.
type TriggerError struct {
	StatusCode int
	Body       string
}

func (e *TriggerError) Error() string {
	return fmt.Sprintf("failed to trigger export: %d %s", e.StatusCode, e.Body)
}

// StatusFetchError reports a failed task-status request. The poller retries
// these a bounded number of times before escalating; a single transient
// network blip should not abort a multi-minute poll.
type StatusFetchError struct {
	TaskID     string
	StatusCode int
	Body       string
	Err        error
}

func (e *StatusFetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to get status of task %s: %v", e.TaskID, e.Err)
	}
	return fmt.Sprintf("failed to get status of task %s: %d %s", e.TaskID, e.StatusCode, e.Body)
}

func (e *StatusFetchError) Unwrap() error { return e.Err }

package poller

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/eventexport/internal/client/models"
)

// TimeoutError reports that the task did not reach a terminal state within
// the configured maximum wait. It is fatal and never retried; the task keeps
// running server-side and can be picked up again with the status command.
type TimeoutError struct {
	TaskID  string
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for task %s", e.Elapsed.Round(time.Second), e.TaskID)
}

// TaskFailedError reports a FAILED or CANCELLED terminal state, carrying the
// server's failure detail verbatim.
type TaskFailedError struct {
	TaskID string
	Status models.Status
	Detail string
}

func (e *TaskFailedError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("task %s ended with status=%s", e.TaskID, e.Status)
	}
	return fmt.Sprintf("task %s ended with status=%s: %s", e.TaskID, e.Status, e.Detail)
}

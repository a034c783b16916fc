// Package poller drives an export task to a terminal state by repeatedly
// fetching its status from the job service.
package poller

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/eventexport/internal/client/api"
	"github.com/dmitrijs2005/eventexport/internal/client/models"
	"github.com/dmitrijs2005/eventexport/internal/client/progress"
	"github.com/dmitrijs2005/eventexport/internal/common"
	"github.com/dmitrijs2005/eventexport/internal/logging"
)

// ProgressRenderer receives one progress view per poll.
type ProgressRenderer interface {
	TaskProgress(task *models.Task, v progress.View)
}

// Transient status-fetch failures are retried this many times with
// exponential backoff before the poll is aborted. Vars, not consts, so tests
// can shrink the backoff.
var (
	statusFetchRetries uint64 = 3
	statusFetchBackoff        = 500 * time.Millisecond
)

// After this many consecutive UNKNOWN statuses a warning is logged; the
// task may be stalled or the API may have changed its vocabulary.
const unknownStallThreshold = 5

type Poller struct {
	api      api.Client
	renderer ProgressRenderer
	log      logging.Logger
	now      func() time.Time
}

func New(client api.Client, renderer ProgressRenderer, log logging.Logger) *Poller {
	return &Poller{api: client, renderer: renderer, log: log, now: time.Now}
}

// PollUntilTerminal fetches the task status every interval until the task
// reaches a terminal state. The interval is measured from the end of the
// previous request, so slow responses do not cause request bursts.
//
// Outcomes:
//   - FINISHED: the task is returned, ResultLocation populated.
//   - FAILED / CANCELLED: *TaskFailedError with the server's detail.
//   - maxWait (when > 0) exceeded: *TimeoutError.
//   - context cancelled: common.ErrInterrupted.
func (p *Poller) PollUntilTerminal(ctx context.Context, taskID string, interval, maxWait time.Duration) (*models.Task, error) {
	return p.run(ctx, taskID, interval, maxWait, false)
}

// Snapshot performs a single status fetch and interprets it exactly like the
// polling loop does, without timeout enforcement. A finished task is
// returned as-is; a failed task still surfaces as *TaskFailedError so the
// one-shot and looping paths cannot drift apart.
func (p *Poller) Snapshot(ctx context.Context, taskID string) (*models.Task, error) {
	return p.run(ctx, taskID, 0, 0, true)
}

// run is the single status-interpretation loop behind both entry points.
// oneShot stops after the first observation, terminal or not.
func (p *Poller) run(ctx context.Context, taskID string, interval, maxWait time.Duration, oneShot bool) (*models.Task, error) {

	var est progress.Estimator
	start := p.now()
	unknownStreak := 0

	for {
		task, err := p.fetchWithRetry(ctx, taskID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, common.ErrInterrupted
			}
			return nil, err
		}

		v := est.Observe(progress.Sample{At: p.now(), Completed: task.Completed, Total: task.Total})
		if p.renderer != nil {
			p.renderer.TaskProgress(task, v)
		}

		switch task.Status {
		case models.StatusFinished:
			// a one-shot observation reports what it saw; only the polling
			// loop treats a finished task without a result as an error
			if task.ResultLocation == "" && !oneShot {
				return task, common.ErrNoResultLocation
			}
			return task, nil
		case models.StatusFailed, models.StatusCancelled:
			return task, &TaskFailedError{TaskID: taskID, Status: task.Status, Detail: task.FailureDetail}
		case models.StatusUnknown:
			unknownStreak++
			if unknownStreak == unknownStallThreshold {
				p.log.Warn(ctx, "task status unknown for several consecutive polls, it may be stalled",
					"task_id", taskID, "polls", unknownStreak)
			}
		default:
			unknownStreak = 0
		}

		if oneShot {
			return task, nil
		}

		if maxWait > 0 && p.now().Sub(start) >= maxWait {
			return task, &TimeoutError{TaskID: taskID, Elapsed: p.now().Sub(start)}
		}

		if err := sleepCtx(ctx, interval); err != nil {
			return task, err
		}
	}
}

// fetchWithRetry retries transient status-fetch failures (network errors and
// 5xx responses) a bounded number of times before escalating. Client-side
// 4xx failures escalate immediately.
func (p *Poller) fetchWithRetry(ctx context.Context, taskID string) (*models.Task, error) {

	backoff := retry.WithMaxRetries(statusFetchRetries, retry.NewExponential(statusFetchBackoff))

	var task *models.Task
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		t, err := p.api.FetchTask(ctx, taskID)
		if err != nil {
			var sfe *api.StatusFetchError
			if errors.As(err, &sfe) && (sfe.Err != nil || sfe.StatusCode >= 500) {
				p.log.Warn(ctx, "transient status fetch failure, retrying", "task_id", taskID, "error", err)
				return retry.RetryableError(err)
			}
			return err
		}
		task = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// sleepCtx waits for d, honoring cancellation mid-delay.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return common.ErrInterrupted
	case <-t.C:
		return nil
	}
}

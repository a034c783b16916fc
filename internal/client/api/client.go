package api

import (
	"context"

	"github.com/dmitrijs2005/eventexport/internal/client/models"
)

// Client is the narrow surface of the remote job service the exporter
// consumes: trigger an export and observe the resulting task.
type Client interface {
	// TriggerExport starts an export for the given search job and returns
	// the id of the task driving it.
	TriggerExport(ctx context.Context, jobID string, req *TriggerRequest) (string, error)

	// FetchTask returns the current snapshot of an export task.
	FetchTask(ctx context.Context, taskID string) (*models.Task, error)
}

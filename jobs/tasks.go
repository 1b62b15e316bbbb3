// Package jobs wires background work through Asynq: report rendering
// runs out of band so HTTP requests never wait on Gotenberg.
package jobs

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeReportRender is the task type for rendering a PDF report.
	TaskTypeReportRender = "report:render"
)

// ReportRenderPayload identifies one queued report.
type ReportRenderPayload struct {
	ID     string `json:"id"`
	Entity string `json:"entity,omitempty"`
}

// NewReportRenderTask constructs an Asynq task.
func NewReportRenderTask(payload ReportRenderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeReportRender, data), nil
}

// ReportGenerator produces the report artefact for a queued identifier.
type ReportGenerator interface {
	Generate(ctx context.Context, id, entity string) error
}

// HandleReportRender adapts the generator into an Asynq handler. A
// payload that does not decode is dropped instead of retried.
func HandleReportRender(gen ReportGenerator) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ReportRenderPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		return gen.Generate(ctx, payload.ID, payload.Entity)
	}
}

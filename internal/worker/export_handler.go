package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"cruce-web/internal/models"
	"cruce-web/internal/utils"

	"github.com/hibiken/asynq"
)

// ExportProcessor runs one export job.
type ExportProcessor interface {
	Process(ctx context.Context, payload models.ExportTaskPayload) error
}

type ExportTaskHandler struct {
	processor ExportProcessor
}

func NewExportTaskHandler(processor ExportProcessor) *ExportTaskHandler {
	return &ExportTaskHandler{processor: processor}
}

// Handle never asks asynq for a retry: the job record already carries the failure.
func (h *ExportTaskHandler) Handle(ctx context.Context, task *asynq.Task) error {
	var payload models.ExportTaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	utils.GetLogger().WithField("job_id", payload.JobID).Info("Starting export")

	if err := h.processor.Process(ctx, payload); err != nil {
		return fmt.Errorf("export %s: %v: %w", payload.JobID, err, asynq.SkipRetry)
	}
	return nil
}

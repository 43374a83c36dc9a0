package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"cruce-web/internal/models"
	"cruce-web/internal/service"

	"github.com/hibiken/asynq"
)

type recordingProcessor struct {
	got []models.ExportTaskPayload
	err error
}

func (p *recordingProcessor) Process(ctx context.Context, payload models.ExportTaskPayload) error {
	p.got = append(p.got, payload)
	return p.err
}

func TestExportTaskHandler_Handle(t *testing.T) {
	payload := models.ExportTaskPayload{JobID: "job-1", Instance: "fixture", Format: models.FormatCSV}
	data, _ := json.Marshal(payload)

	proc := &recordingProcessor{}
	h := NewExportTaskHandler(proc)
	if err := h.Handle(context.Background(), asynq.NewTask(service.TypeCruceExport, data)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(proc.got) != 1 || proc.got[0].JobID != "job-1" || proc.got[0].Format != models.FormatCSV {
		t.Errorf("unexpected payloads: %+v", proc.got)
	}
}

func TestExportTaskHandler_SkipsRetry(t *testing.T) {
	proc := &recordingProcessor{err: errors.New("boom")}
	h := NewExportTaskHandler(proc)

	err := h.Handle(context.Background(), asynq.NewTask(service.TypeCruceExport, []byte(`{"job_id":"x"}`)))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Errorf("expected SkipRetry, got %v", err)
	}

	err = h.Handle(context.Background(), asynq.NewTask(service.TypeCruceExport, []byte(`not json`)))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Errorf("expected SkipRetry for bad payload, got %v", err)
	}
	if len(proc.got) != 1 {
		t.Errorf("bad payload must not reach the processor, got %d calls", len(proc.got))
	}
}

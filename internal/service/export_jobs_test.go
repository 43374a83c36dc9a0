package service

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"cruce-web/internal/models"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

type memoryJobStore struct {
	mu   sync.Mutex
	jobs map[string]models.ExportJob
}

func newMemoryJobStore() *memoryJobStore {
	return &memoryJobStore{jobs: map[string]models.ExportJob{}}
}

func (s *memoryJobStore) Save(ctx context.Context, job *models.ExportJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = *job
	return nil
}

func (s *memoryJobStore) Get(ctx context.Context, id string) (*models.ExportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return &job, nil
}

type recordingQueue struct {
	tasks []*asynq.Task
	err   error
}

func (q *recordingQueue) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if q.err != nil {
		return nil, q.err
	}
	q.tasks = append(q.tasks, task)
	return &asynq.TaskInfo{}, nil
}

type stubRunner struct {
	table models.ResultTable
	err   error
}

func (r stubRunner) RunQuery(ctx context.Context, instance string, filters models.QueryFilterSet, mode string) (models.ResultTable, error) {
	return r.table, r.err
}

func TestExportJobLifecycle(t *testing.T) {
	store := newMemoryJobStore()
	queue := &recordingQueue{}
	svc := NewExportJobService(stubRunner{table: sampleTable()}, store, queue, t.TempDir(), time.Minute)
	ctx := context.Background()

	job, err := svc.Enqueue(ctx, "central", "CSV", models.QueryFilterSet{Category: "BEBIDAS"})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if job.Status != models.JobQueued || job.Format != models.FormatCSV {
		t.Errorf("unexpected job %+v", job)
	}
	if len(queue.tasks) != 1 || queue.tasks[0].Type() != TypeCruceExport {
		t.Fatalf("expected one %s task, got %d", TypeCruceExport, len(queue.tasks))
	}

	var payload models.ExportTaskPayload
	if err := json.Unmarshal(queue.tasks[0].Payload(), &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload.JobID != job.ID || payload.Filters.DateOption != models.DefaultDateOption {
		t.Errorf("unexpected payload %+v", payload)
	}

	if err := svc.Process(ctx, payload); err != nil {
		t.Fatalf("process: %v", err)
	}

	done, err := svc.Status(ctx, job.ID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if done.Status != models.JobCompleted || done.Rows != 2 {
		t.Errorf("expected completed job with 2 rows, got %+v", done)
	}
	if _, err := os.Stat(done.FilePath); err != nil {
		t.Errorf("expected export file: %v", err)
	}
}

func TestExportJobFailure(t *testing.T) {
	store := newMemoryJobStore()
	queryErr := &models.QueryError{Msg: "boom"}
	svc := NewExportJobService(stubRunner{err: queryErr}, store, &recordingQueue{}, t.TempDir(), 0)
	ctx := context.Background()

	job, err := svc.Enqueue(ctx, "", "xlsx", models.QueryFilterSet{})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	err = svc.Process(ctx, models.ExportTaskPayload{JobID: job.ID, Format: "xlsx"})
	if !errors.Is(err, queryErr) {
		t.Fatalf("expected query error, got %v", err)
	}

	failed, _ := svc.Status(ctx, job.ID)
	if failed.Status != models.JobFailed || failed.Error == "" {
		t.Errorf("expected failed job with message, got %+v", failed)
	}
}

func TestExportJobRejectsBadInput(t *testing.T) {
	svc := NewExportJobService(stubRunner{}, newMemoryJobStore(), &recordingQueue{}, t.TempDir(), 0)

	var fErr *models.FilterValidationError
	if _, err := svc.Enqueue(context.Background(), "", "pdf", models.QueryFilterSet{}); !errors.As(err, &fErr) {
		t.Errorf("expected format validation error, got %v", err)
	}
	if _, err := svc.Enqueue(context.Background(), "", "csv", models.QueryFilterSet{DateOption: 4}); !errors.As(err, &fErr) {
		t.Errorf("expected date option validation error, got %v", err)
	}
}

func TestExportJobUnknownID(t *testing.T) {
	svc := NewExportJobService(stubRunner{}, newMemoryJobStore(), &recordingQueue{}, t.TempDir(), 0)
	if _, err := svc.Status(context.Background(), "missing"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestExportJobEnqueueFailure(t *testing.T) {
	store := newMemoryJobStore()
	queueErr := errors.New("redis down")
	svc := NewExportJobService(stubRunner{}, store, &recordingQueue{err: queueErr}, t.TempDir(), 0)
	logger, hook := logtest.NewNullLogger()
	svc.logger = logger

	job, err := svc.Enqueue(context.Background(), "", models.FormatCSV, models.QueryFilterSet{})
	if !errors.Is(err, queueErr) || job != nil {
		t.Fatalf("expected enqueue error, got job %v, err %v", job, err)
	}

	if len(store.jobs) != 1 {
		t.Fatalf("expected the job to be recorded, got %d jobs", len(store.jobs))
	}
	for _, stored := range store.jobs {
		if stored.Status != models.JobFailed || stored.Error == "" {
			t.Errorf("expected failed job with message, got %+v", stored)
		}
	}

	var logged bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.ErrorLevel && entry.Message == "Export job not queued" {
			logErr, _ := entry.Data[logrus.ErrorKey].(error)
			logged = errors.Is(logErr, queueErr)
		}
	}
	if !logged {
		t.Error("expected the enqueue failure to be logged with its error")
	}
}

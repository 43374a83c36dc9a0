package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"cruce-web/internal/metrics"
	"cruce-web/internal/models"
	"cruce-web/internal/utils"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// TypeCruceExport is the asynq task type of a background export.
const TypeCruceExport = "cruce:export"

// ErrJobNotFound is returned for unknown or expired job ids.
var ErrJobNotFound = errors.New("export job not found")

// JobStore persists export job status.
type JobStore interface {
	Save(ctx context.Context, job *models.ExportJob) error
	Get(ctx context.Context, id string) (*models.ExportJob, error)
}

// RedisJobStore keeps each job in a hash that expires with the export files.
type RedisJobStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisJobStore(client *redis.Client, ttl time.Duration) *RedisJobStore {
	return &RedisJobStore{client: client, ttl: ttl}
}

func jobKey(id string) string {
	return "cruce:export:job:" + id
}

func (s *RedisJobStore) Save(ctx context.Context, job *models.ExportJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	key := jobKey(job.ID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"status": job.Status,
		"job":    data,
	})
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisJobStore) Get(ctx context.Context, id string) (*models.ExportJob, error) {
	data, err := s.client.HGet(ctx, jobKey(id), "job").Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	var job models.ExportJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// TaskEnqueuer is satisfied by *asynq.Client.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// ReportRunner runs the report query for an instance.
type ReportRunner interface {
	RunQuery(ctx context.Context, instance string, filters models.QueryFilterSet, mode string) (models.ResultTable, error)
}

type ExportJobService struct {
	runner     ReportRunner
	store      JobStore
	queue      TaskEnqueuer
	exportPath string
	timeout    time.Duration
	logger     *logrus.Logger
}

func NewExportJobService(runner ReportRunner, store JobStore, queue TaskEnqueuer, exportPath string, timeout time.Duration) *ExportJobService {
	return &ExportJobService{
		runner:     runner,
		store:      store,
		queue:      queue,
		exportPath: exportPath,
		timeout:    timeout,
		logger:     utils.GetLogger(),
	}
}

// Enqueue validates the request, records a queued job and hands it to the worker.
// Export tasks are not retried: a failed export is reported and the operator starts a new one.
func (s *ExportJobService) Enqueue(ctx context.Context, instance, format string, filters models.QueryFilterSet) (*models.ExportJob, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = models.FormatXLSX
	}
	if _, _, err := ExporterFor(format); err != nil {
		return nil, err
	}
	f := filters.Normalized()
	if err := utils.ValidateFilters(f); err != nil {
		return nil, err
	}

	now := time.Now()
	job := &models.ExportJob{
		ID:        uuid.New().String(),
		Instance:  instance,
		Format:    format,
		Filters:   f,
		Status:    models.JobQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save export job: %w", err)
	}

	payload, err := json.Marshal(models.ExportTaskPayload{
		JobID:    job.ID,
		Instance: instance,
		Format:   format,
		Filters:  f,
	})
	if err != nil {
		return nil, err
	}

	opts := []asynq.Option{asynq.MaxRetry(0), asynq.TaskID(job.ID)}
	if s.timeout > 0 {
		opts = append(opts, asynq.Timeout(s.timeout))
	}
	if _, err := s.queue.EnqueueContext(ctx, asynq.NewTask(TypeCruceExport, payload), opts...); err != nil {
		err = fmt.Errorf("failed to enqueue export job: %w", err)
		s.logger.WithError(s.finish(ctx, job, err)).WithField("job_id", job.ID).Error("Export job not queued")
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"job_id":   job.ID,
		"instance": instance,
		"format":   format,
	}).Info("Export job queued")
	return job, nil
}

// Status returns the current state of a job.
func (s *ExportJobService) Status(ctx context.Context, id string) (*models.ExportJob, error) {
	return s.store.Get(ctx, id)
}

// Process runs one export: query, recompute, write the file and record the outcome.
func (s *ExportJobService) Process(ctx context.Context, payload models.ExportTaskPayload) error {
	job, err := s.store.Get(ctx, payload.JobID)
	if err != nil {
		return err
	}

	job.Status = models.JobProcessing
	job.UpdatedAt = time.Now()
	if err := s.store.Save(ctx, job); err != nil {
		return err
	}

	exporter, ext, err := ExporterFor(payload.Format)
	if err != nil {
		return s.finish(ctx, job, err)
	}

	table, err := s.runner.RunQuery(ctx, payload.Instance, payload.Filters, ModeChunked)
	if err != nil {
		return s.finish(ctx, job, err)
	}

	path := filepath.Join(s.exportPath, fmt.Sprintf("cruce_%s.%s", job.ID, ext))
	if err := exporter.ExportCruceFile(table, path); err != nil {
		return s.finish(ctx, job, err)
	}

	job.Rows = len(table)
	job.FilePath = path
	return s.finish(ctx, job, nil)
}

// finish stores the final status of a job and passes cause through.
func (s *ExportJobService) finish(ctx context.Context, job *models.ExportJob, cause error) error {
	job.UpdatedAt = time.Now()
	if cause != nil {
		job.Status = models.JobFailed
		job.Error = cause.Error()
		s.logger.WithError(cause).WithField("job_id", job.ID).Error("Export job failed")
	} else {
		job.Status = models.JobCompleted
		s.logger.WithFields(logrus.Fields{"job_id": job.ID, "rows": job.Rows}).Info("Export job completed")
	}
	metrics.ExportJobs.WithLabelValues(job.Format, job.Status).Inc()

	if err := s.store.Save(ctx, job); err != nil {
		s.logger.WithError(err).WithField("job_id", job.ID).Error("Cannot save export job status")
		if cause == nil {
			return err
		}
	}
	return cause
}

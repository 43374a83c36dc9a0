package handler

import (
	"errors"
	"path/filepath"

	"cruce-web/internal/models"
	"cruce-web/internal/service"
	"cruce-web/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type ExportJobHandler struct {
	jobService *service.ExportJobService
}

// NewExportJobHandler accepts a nil service, in which case every endpoint answers 503.
func NewExportJobHandler(jobService *service.ExportJobService) *ExportJobHandler {
	return &ExportJobHandler{jobService: jobService}
}

type exportJobRequest struct {
	Instance string `json:"instance"`
	Format   string `json:"format"`
	models.QueryFilterSet
}

var errJobsDisabled = fiber.NewError(fiber.StatusServiceUnavailable, "export jobs need redis")

func (h *ExportJobHandler) Create(c *fiber.Ctx) error {
	if h.jobService == nil {
		return utils.FailResponse(c, "Export jobs are disabled", errJobsDisabled)
	}

	var req exportJobRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	job, err := h.jobService.Enqueue(c.UserContext(), req.Instance, req.Format, req.QueryFilterSet)
	if err != nil {
		return utils.FailResponse(c, "Failed to queue export", err)
	}

	return c.Status(fiber.StatusAccepted).JSON(utils.Response{
		Success: true,
		Message: "Export queued",
		Data:    job,
	})
}

func (h *ExportJobHandler) Status(c *fiber.Ctx) error {
	job, err := h.find(c)
	if err != nil {
		return jobFailure(c, err)
	}
	return utils.SuccessResponse(c, "Export job retrieved successfully", job)
}

// Download serves the file of a completed job.
func (h *ExportJobHandler) Download(c *fiber.Ctx) error {
	job, err := h.find(c)
	if err != nil {
		return jobFailure(c, err)
	}
	if job.Status != models.JobCompleted {
		return utils.ErrorResponse(c, fiber.StatusConflict, "Export is "+job.Status, nil)
	}
	return c.Download(job.FilePath, filepath.Base(job.FilePath))
}

func (h *ExportJobHandler) find(c *fiber.Ctx) (*models.ExportJob, error) {
	if h.jobService == nil {
		return nil, errJobsDisabled
	}
	return h.jobService.Status(c.UserContext(), c.Params("id"))
}

func jobFailure(c *fiber.Ctx, err error) error {
	if errors.Is(err, service.ErrJobNotFound) {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Export job not found", err)
	}
	return utils.FailResponse(c, "Failed to retrieve export job", err)
}

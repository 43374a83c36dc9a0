package handler

import (
	"context"
	"time"

	"cruce-web/internal/service"
	"cruce-web/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// InstanceFinder looks for SQL Server instances on the network.
type InstanceFinder interface {
	Discover(ctx context.Context, timeout time.Duration) ([]string, error)
}

type InstanceHandler struct {
	cruceService *service.CruceService
	finder       InstanceFinder
	timeout      time.Duration
}

func NewInstanceHandler(cruceService *service.CruceService, finder InstanceFinder, timeout time.Duration) *InstanceHandler {
	return &InstanceHandler{
		cruceService: cruceService,
		finder:       finder,
		timeout:      timeout,
	}
}

func (h *InstanceHandler) List(c *fiber.Ctx) error {
	return utils.SuccessResponse(c, "Instances retrieved successfully", h.cruceService.Instances())
}

// Discover broadcasts a SQL Server Browser request and lists the replies.
func (h *InstanceHandler) Discover(c *fiber.Ctx) error {
	found, err := h.finder.Discover(c.UserContext(), h.timeout)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadGateway, "Instance discovery failed", err)
	}
	if found == nil {
		found = []string{}
	}
	return utils.SuccessResponse(c, "Discovery finished", found)
}

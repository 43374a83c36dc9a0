package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cruce-web/internal/models"
	"cruce-web/internal/service"
	"cruce-web/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type CruceHandler struct {
	cruceService *service.CruceService
}

func NewCruceHandler(cruceService *service.CruceService) *CruceHandler {
	return &CruceHandler{cruceService: cruceService}
}

// importRequest is the body of POST /cruce/import.
type importRequest struct {
	Instance   string            `json:"instance"`
	DateOption models.DateOption `json:"fecha_option"`
}

// recomputeRequest is the body of POST /cruce/recompute.
type recomputeRequest struct {
	Rows models.ResultTable `json:"rows"`
}

// parseFilters reads the report filters from the query string.
func parseFilters(c *fiber.Ctx) (models.QueryFilterSet, error) {
	f := models.QueryFilterSet{
		ItemCode:         c.Query("codigo_barra"),
		Reference:        c.Query("referencia"),
		Category:         c.Query("categoria"),
		Line:             c.Query("linea"),
		ManufacturerCode: c.Query("codigo_fabrica"),
		ExcludeReceiving: c.Query("excluir_codigo_recibe"),
		OnlyUncorrected:  c.QueryBool("solo_sin_correccion", false),
	}
	if raw := strings.TrimSpace(c.Query("fecha_option")); raw != "" {
		option, err := strconv.Atoi(raw)
		if err != nil {
			return f, &models.FilterValidationError{Field: "fecha_option", Value: raw, Reason: "must be 1 or 2"}
		}
		f.DateOption = models.DateOption(option)
	}
	return f, nil
}

func parseMode(c *fiber.Ctx) (string, error) {
	mode := strings.ToLower(c.Query("mode", service.ModeAll))
	if mode != service.ModeAll && mode != service.ModeChunked {
		return "", &models.FilterValidationError{Field: "mode", Value: mode, Reason: "must be all or chunked"}
	}
	return mode, nil
}

// paginate replies with one page of table.
func paginate(c *fiber.Ctx, message string, table models.ResultTable) error {
	params := utils.GetPaginationParams(c)
	pagination := utils.CalculatePagination(params.Page, params.Limit, len(table))
	from, to := utils.PageBounds(pagination)

	rows := table[from:to]
	if rows == nil {
		rows = models.ResultTable{}
	}
	return utils.PaginatedResponseBuilder(c, message, rows, pagination)
}

// Query runs the report against the database.
func (h *CruceHandler) Query(c *fiber.Ctx) error {
	filters, err := parseFilters(c)
	if err != nil {
		return utils.FailResponse(c, "Invalid filters", err)
	}
	mode, err := parseMode(c)
	if err != nil {
		return utils.FailResponse(c, "Invalid mode", err)
	}

	table, err := h.cruceService.RunQuery(c.UserContext(), c.Query("instance"), filters, mode)
	if err != nil {
		return utils.FailResponse(c, "Failed to run cruce query", err)
	}

	return paginate(c, "Cruce retrieved successfully", table)
}

// PreviewSQL returns the assembled query without running it.
func (h *CruceHandler) PreviewSQL(c *fiber.Ctx) error {
	filters, err := parseFilters(c)
	if err != nil {
		return utils.FailResponse(c, "Invalid filters", err)
	}

	q, err := h.cruceService.BuildQuery(filters)
	if err != nil {
		return utils.FailResponse(c, "Failed to build cruce query", err)
	}

	return utils.SuccessResponse(c, "Query assembled successfully", q)
}

// Import loads the full date range into the cache for in-memory browsing.
func (h *CruceHandler) Import(c *fiber.Ctx) error {
	var req importRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
		}
	}
	if req.Instance == "" {
		req.Instance = c.Query("instance")
	}
	if req.DateOption == 0 {
		req.DateOption = models.DefaultDateOption
	}

	table, err := h.cruceService.Import(c.UserContext(), req.Instance, req.DateOption)
	if err != nil {
		return utils.FailResponse(c, "Failed to import cruce", err)
	}

	return utils.SuccessResponse(c, "Cruce imported successfully", fiber.Map{
		"instance":     req.Instance,
		"fecha_option": req.DateOption,
		"rows":         len(table),
	})
}

// View filters the imported table in memory.
func (h *CruceHandler) View(c *fiber.Ctx) error {
	filters, err := parseFilters(c)
	if err != nil {
		return utils.FailResponse(c, "Invalid filters", err)
	}

	table, err := h.cruceService.FilterView(c.UserContext(), c.Query("instance"), filters)
	if errors.Is(err, service.ErrNotImported) {
		return utils.ErrorResponse(c, fiber.StatusConflict, "Nothing imported yet", err)
	}
	if err != nil {
		return utils.FailResponse(c, "Failed to filter cruce", err)
	}

	return paginate(c, "Cruce filtered successfully", table)
}

// Recompute rebuilds the grouped totals and percentages of the posted rows.
func (h *CruceHandler) Recompute(c *fiber.Ctx) error {
	var req recomputeRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	table := service.Recompute(req.Rows)
	if table == nil {
		table = models.ResultTable{}
	}
	return utils.SuccessResponse(c, "Cruce recomputed successfully", table)
}

// Export streams the report as an xlsx or csv download.
func (h *CruceHandler) Export(c *fiber.Ctx) error {
	filters, err := parseFilters(c)
	if err != nil {
		return utils.FailResponse(c, "Invalid filters", err)
	}
	exporter, ext, err := service.ExporterFor(strings.ToLower(c.Query("format", models.FormatXLSX)))
	if err != nil {
		return utils.FailResponse(c, "Invalid export format", err)
	}

	table, err := h.cruceService.RunQuery(c.UserContext(), c.Query("instance"), filters, service.ModeChunked)
	if err != nil {
		return utils.FailResponse(c, "Failed to run cruce query", err)
	}

	filename := fmt.Sprintf("cruce_%s.%s", time.Now().Format("20060102_150405"), ext)
	c.Set(fiber.HeaderContentType, contentTypes[ext])
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%s", filename))

	if err := exporter.ExportCruce(table, c.Response().BodyWriter()); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to export cruce", err)
	}
	return nil
}

var contentTypes = map[string]string{
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"csv":  "text/csv; charset=utf-8",
}

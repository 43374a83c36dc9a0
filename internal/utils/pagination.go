package utils

import (
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// PaginationParams represents pagination query parameters.
// Limit 0 means the whole table in one page.
type PaginationParams struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// PaginationMeta contains pagination metadata
type PaginationMeta struct {
	CurrentPage int  `json:"current_page"`
	PerPage     int  `json:"per_page"`
	Total       int  `json:"total"`
	LastPage    int  `json:"last_page"`
	From        int  `json:"from"`
	To          int  `json:"to"`
	HasMore     bool `json:"has_more"`
}

// PaginatedResponse represents a paginated API response
type PaginatedResponse struct {
	Success    bool           `json:"success"`
	Message    string         `json:"message"`
	Data       interface{}    `json:"data"`
	Pagination PaginationMeta `json:"pagination"`
}

var validLimits = []int{0, 50, 100, 500, 1000}

// GetPaginationParams extracts pagination parameters from query string
func GetPaginationParams(c *fiber.Ctx) PaginationParams {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, err := strconv.Atoi(c.Query("limit", "100"))

	if page < 1 {
		page = 1
	}

	isValidLimit := false
	for _, validLimit := range validLimits {
		if err == nil && limit == validLimit {
			isValidLimit = true
			break
		}
	}
	if !isValidLimit {
		limit = 100
	}

	return PaginationParams{Page: page, Limit: limit}
}

// CalculatePagination calculates pagination metadata. From and To are 1-based and inclusive.
// A page past the last one is empty.
func CalculatePagination(page, limit, total int) PaginationMeta {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = total
		page = 1
	}

	lastPage := 1
	if limit > 0 {
		lastPage = int(math.Ceil(float64(total) / float64(limit)))
	}
	from, to := 0, 0
	if total > 0 && page <= lastPage {
		from = (page-1)*limit + 1
		to = page * limit
		if to > total {
			to = total
		}
	}

	return PaginationMeta{
		CurrentPage: page,
		PerPage:     limit,
		Total:       total,
		LastPage:    lastPage,
		From:        from,
		To:          to,
		HasMore:     page < lastPage,
	}
}

// PageBounds returns the slice bounds of the page described by meta.
func PageBounds(meta PaginationMeta) (int, int) {
	if meta.From == 0 {
		return 0, 0
	}
	return meta.From - 1, meta.To
}

// PaginatedResponseBuilder creates a paginated response
func PaginatedResponseBuilder(c *fiber.Ctx, message string, data interface{}, pagination PaginationMeta) error {
	return c.JSON(PaginatedResponse{
		Success:    true,
		Message:    message,
		Data:       data,
		Pagination: pagination,
	})
}

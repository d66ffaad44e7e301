package common

import (
	"net/http"
	"strconv"

	"meishi-backend/pkg/errors"
)

// DefaultPageSize is applied when a request omits page_size
const DefaultPageSize = 20

// MaxPageSize caps page_size for list requests
const MaxPageSize = 100

// PaginationParams represents pagination parameters
type PaginationParams struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// DefaultPaginationParams returns default pagination parameters
func DefaultPaginationParams() PaginationParams {
	return PaginationParams{
		Page:     1,
		PageSize: DefaultPageSize,
	}
}

// ExtractPaginationParams extracts pagination parameters from a request.
// Absent parameters fall back to defaults; malformed or out-of-range values
// are kept as-is so Validate can reject them instead of silently clamping.
func ExtractPaginationParams(r *http.Request) (PaginationParams, error) {
	params := DefaultPaginationParams()

	if page := r.URL.Query().Get("page"); page != "" {
		p, err := strconv.Atoi(page)
		if err != nil {
			return params, errors.NewValidationError("page must be an integer")
		}
		params.Page = p
	}

	if pageSize := r.URL.Query().Get("page_size"); pageSize != "" {
		ps, err := strconv.Atoi(pageSize)
		if err != nil {
			return params, errors.NewValidationError("page_size must be an integer")
		}
		params.PageSize = ps
	}

	return params, params.Validate()
}

// Validate rejects malformed pagination parameters
func (p PaginationParams) Validate() error {
	if p.Page < 1 {
		return errors.NewValidationError("page must be >= 1")
	}
	if p.PageSize < 1 {
		return errors.NewValidationError("page_size must be >= 1")
	}
	if p.PageSize > MaxPageSize {
		return errors.NewValidationError("page_size must be <= 100")
	}
	return nil
}

// CalculateOffset calculates the offset for slicing a filtered collection
func (p PaginationParams) CalculateOffset() int {
	return (p.Page - 1) * p.PageSize
}

// CalculateTotalPages calculates total number of pages
func CalculateTotalPages(total, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	pages := total / pageSize
	if total%pageSize > 0 {
		pages++
	}
	return pages
}

// BuildPaginationMeta builds pagination metadata
func BuildPaginationMeta(page, pageSize, total int) *PaginationInfo {
	totalPages := CalculateTotalPages(total, pageSize)

	return &PaginationInfo{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

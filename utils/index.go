package utils

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

func ErrorResponse(c *fiber.Ctx, status int, message string, err error) error {
	var errMsg interface{}
	if err != nil {
		errMsg = err.Error()
	} else {
		errMsg = nil
	}
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"error":   errMsg,
	})
}

func SuccessResponse(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(fiber.Map{
		"status": "success",
		"data":   data,
	})
}

func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func Ptr[T any](v T) *T {
	return &v
}

// Paginate returns the requested page of rows. Without a valid limit and
// page every row is returned.
func Paginate[T any](rows []T, limit, page *int) []T {
	if limit == nil || *limit <= 0 || page == nil || *page < 1 {
		return rows
	}
	start := *limit * (*page - 1)
	if start >= len(rows) {
		return []T{}
	}
	end := start + *limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

// ParseYearMonth reads "YYYY-MM".
func ParseYearMonth(raw string) (int, time.Month, error) {
	if len(raw) != 7 {
		return 0, 0, fmt.Errorf("invalid month %q", raw)
	}
	t, err := time.Parse("2006-01", raw)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q: %w", raw, err)
	}
	if t.Year() < 2000 || t.Year() > 2100 {
		return 0, 0, fmt.Errorf("month %q out of range", raw)
	}
	return t.Year(), t.Month(), nil
}

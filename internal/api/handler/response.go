package handler

import (
	"time"

	"github.com/labstack/echo/v4"
)

// Response is the canonical envelope for every API reply, success or failure.
// Code mirrors the HTTP status of the response.
type Response struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Code      int       `json:"code"`
}

// OK writes a success envelope with the given status, message and payload.
func OK(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, Response{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC(),
		Code:      status,
	})
}

// Fail writes a failure envelope with the given status and message.
func Fail(c echo.Context, status int, message string) error {
	return c.JSON(status, Response{
		Success:   false,
		Message:   message,
		Timestamp: time.Now().UTC(),
		Code:      status,
	})
}

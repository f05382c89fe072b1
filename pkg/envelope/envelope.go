// Package envelope writes every JSON response in the {success, message}
// shape the API clients expect.
package envelope

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Failure is the body of every unsuccessful response.
type Failure struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Success writes {success:true, message, ...fields}. An empty message is omitted.
func Success(c echo.Context, status int, message string, fields map[string]any) error {
	body := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		body[k] = v
	}
	body["success"] = true
	if message != "" {
		body["message"] = message
	}
	return c.JSON(status, body)
}

// Error writes {success:false, message} with the given status.
func Error(c echo.Context, status int, message string) error {
	if message == "" {
		message = http.StatusText(status)
	}
	return c.JSON(status, Failure{Success: false, Message: message})
}

// ErrorHandler replaces echo's default error handler so that errors returned
// by middleware and the router use the same body as handler failures.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := "internal server error"

		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			message = messageOf(he)
		} else {
			rid, _ := c.Get("request_id").(string)
			logger.Error().Err(err).Str("request_id", rid).Msg("unhandled error")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = Error(c, status, message)
		}
		if err != nil {
			logger.Error().Err(err).Msg("write error response")
		}
	}
}

func messageOf(he *echo.HTTPError) string {
	switch m := he.Message.(type) {
	case string:
		return m
	case error:
		return m.Error()
	case nil:
		return http.StatusText(he.Code)
	default:
		return fmt.Sprint(m)
	}
}

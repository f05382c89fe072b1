package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/medmeet/medmeet/pkg/envelope"
)

const timeoutMessage = "Request processing exceeded the allowed time limit"

// RequestTimeout sets a deadline on each request context. When the handler
// has not finished by then, a 504 envelope is written. Handlers that honour
// ctx see the cancellation and stop; their late result is discarded.
func RequestTimeout(timeout time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			defer cancel()

			c.SetRequest(c.Request().WithContext(ctx))

			done := make(chan error, 1)
			go func() {
				done <- next(c)
			}()

			select {
			case err := <-done:
				return err
			case <-ctx.Done():
				if errors.Is(ctx.Err(), context.DeadlineExceeded) {
					if !c.Response().Committed {
						return envelope.Error(c, http.StatusGatewayTimeout, timeoutMessage)
					}
					return nil
				}
				return ctx.Err()
			}
		}
	}
}

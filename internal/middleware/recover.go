package middleware

import (
	"fmt"
	"net/http"

	"analytics-be/pkg/errors"
	"analytics-be/pkg/logger"
)

// Recover creates a middleware that converts panics into 500 responses
func Recover(logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					appErr := errors.NewInternalError(
						"Internal server error",
						fmt.Errorf("panic: %v", rec),
					)
					writeErrorResponse(w, appErr, logger)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

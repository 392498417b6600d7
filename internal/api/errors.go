package api

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/manav03panchal/timeblock/internal/errors"
	"github.com/manav03panchal/timeblock/internal/logging"
	"github.com/manav03panchal/timeblock/internal/output"
)

// StatusFor maps an error category to an HTTP status.
func StatusFor(err error) int {
	switch errors.Classify(err) {
	case errors.CategoryValidation:
		return http.StatusBadRequest
	case errors.CategoryPermission:
		return http.StatusForbidden
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryScheduling:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errorHandler renders errors as output.ErrorResponse.
func errorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := StatusFor(err)
		resp := output.ErrorResponse{
			Status:     "error",
			Error:      err.Error(),
			Category:   errors.Classify(err).String(),
			Suggestion: errors.GetSuggestion(err),
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			resp.Error = http.StatusText(he.Code)
			if msg, ok := he.Message.(string); ok {
				resp.Error = msg
			}
			resp.Category = ""
		}

		if code >= http.StatusInternalServerError {
			logger.Error("request error", logging.KeyError, err)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, resp)
		}
		if err != nil {
			logger.Warn("failed to write error response", logging.KeyError, err)
		}
	}
}

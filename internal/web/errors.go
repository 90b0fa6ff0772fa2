package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/conorfennell/knolstudy/internal/apperr"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var statusByCode = map[apperr.Code]int{
	apperr.CodeNotFound:     http.StatusNotFound,
	apperr.CodeInvalidInput: http.StatusBadRequest,
	apperr.CodeConflict:     http.StatusConflict,
	apperr.CodeInternal:     http.StatusInternalServerError,
}

// handleError renders every handler error as an errorResponse.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	body := errorResponse{Code: string(apperr.CodeInternal), Message: "internal error"}

	var appErr *apperr.Error
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &appErr):
		status = statusByCode[appErr.Code]
		if status == 0 {
			status = http.StatusInternalServerError
		}
		body.Code = string(appErr.Code)
		if status < http.StatusInternalServerError {
			body.Message = appErr.Message
		}
	case errors.As(err, &httpErr):
		status = httpErr.Code
		body.Code = codeForStatus(status)
		body.Message = fmt.Sprint(httpErr.Message)
	}

	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "method", c.Request().Method, "path", c.Path(), "error", err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		slog.Warn("failed to write error response", "error", err)
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnsupportedMediaType:
		return string(apperr.CodeInvalidInput)
	case http.StatusNotFound:
		return string(apperr.CodeNotFound)
	case http.StatusConflict:
		return string(apperr.CodeConflict)
	}
	if status >= http.StatusInternalServerError {
		return string(apperr.CodeInternal)
	}
	return strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
}

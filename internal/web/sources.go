package web

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/conorfennell/knolstudy/internal/apperr"
	"github.com/conorfennell/knolstudy/internal/importer"
	"github.com/conorfennell/knolstudy/internal/storage"
)

type sourceRequest struct {
	Location string `json:"location"`
}

type importResponse struct {
	Source  *storage.Source `json:"source"`
	Parsed  int             `json:"parsed"`
	Added   int             `json:"added"`
	Skipped int             `json:"skipped"`
	Errors  []string        `json:"errors"`
}

func newImportResponse(r *importer.Result) importResponse {
	resp := importResponse{
		Source:  r.Source,
		Parsed:  r.Parsed,
		Added:   r.Added,
		Skipped: r.Skipped,
		Errors:  make([]string, 0, len(r.Errors)),
	}
	for _, err := range r.Errors {
		resp.Errors = append(resp.Errors, err.Error())
	}
	return resp
}

func (s *Server) handleListSources() echo.HandlerFunc {
	return func(c echo.Context) error {
		sources, err := s.importer.Sources(c.Request().Context(), userID(c))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, sources)
	}
}

// handlePostSource imports a directory or git repository into a deck.
func (s *Server) handlePostSource() echo.HandlerFunc {
	return func(c echo.Context) error {
		var req sourceRequest
		if err := c.Bind(&req); err != nil {
			return err
		}
		if req.Location == "" {
			return apperr.InvalidInput("location is required", nil)
		}
		result, err := s.importer.Import(c.Request().Context(), userID(c), c.Param("id"), req.Location)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, newImportResponse(result))
	}
}

// handlePostSync re-imports every source of the caller in the foreground.
func (s *Server) handlePostSync() echo.HandlerFunc {
	return func(c echo.Context) error {
		results, err := s.importer.Sync(c.Request().Context(), userID(c))
		if err != nil {
			return err
		}
		resp := make([]importResponse, 0, len(results))
		for _, r := range results {
			resp = append(resp, newImportResponse(r))
		}
		return c.JSON(http.StatusOK, resp)
	}
}

package api

import (
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
)

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg, "")
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeError(c, http.StatusNotFound, "not_found_error", msg, "")
}

func writeError(c *echo.Context, status int, errType, msg, param string) error {
	return c.JSON(status, ErrorResp{Error: ResponseError{
		Message: msg,
		Type:    errType,
		Param:   param,
	}})
}

// writeReadError reports a failed index or read, logging server-side
// failures.
func (s *Server) writeReadError(c *echo.Context, err error) error {
	status, typ := classify(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("volume read failed", "path", c.Request().URL.Path, "error", err)
	}
	return writeError(c, status, typ, err.Error(), "")
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}

func queryBool(c *echo.Context, name string) bool {
	q := c.QueryParam(name)
	return q == "1" || strings.EqualFold(q, "true")
}

func newVolumeID() string {
	return "vol_" + uuid.NewString()
}

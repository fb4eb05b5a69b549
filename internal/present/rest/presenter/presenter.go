package presenter

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/totegamma/wbconstraints/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

// OK wraps a successful response.
func OK(c echo.Context, payload any) error {
	return c.JSON(http.StatusOK, payload)
}

// Cached wraps a response assembled from stored results that may be up to
// maxAge seconds old.
func Cached(c echo.Context, payload any, maxAge int64) error {
	c.Response().Header().Set(domain.MaxAgeHeader, strconv.FormatInt(maxAge, 10))
	return c.JSON(http.StatusOK, payload)
}

func BadRequest(c echo.Context, err error) error {
	zap.L().Info("bad request", zap.String("path", c.Path()), zap.Error(err))
	return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func BadRequestMessage(c echo.Context, msg string) error {
	zap.L().Info("bad request", zap.String("path", c.Path()), zap.String("reason", msg))
	return c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

func NotFound(c echo.Context, msg string) error {
	zap.L().Debug("not found", zap.String("path", c.Path()), zap.String("reason", msg))
	return c.JSON(http.StatusNotFound, errorResponse{Error: msg})
}

func InternalError(c echo.Context, err error) error {
	zap.L().Error("internal error", zap.String("path", c.Path()), zap.Error(err))
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

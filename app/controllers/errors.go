package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/postcode-matcher/app/responses"
	"github.com/postcode-matcher/helpers/utils"
	"github.com/postcode-matcher/internal/apperr"
)

// respondError maps err onto the HTTP status and error envelope:
// invalid parameters are 400, a missing dataset 503, anything else 500.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	body := responses.ErrorResponse{
		Message:   err.Error(),
		RequestID: c.GetString(utils.RequestIDKey),
	}

	var invalid *apperr.InvalidParameterError
	switch {
	case errors.As(err, &invalid):
		body.Error = responses.CodeInvalidParameter
		body.Field = invalid.Field
		c.JSON(http.StatusBadRequest, body)
	case apperr.IsInvalidParameter(err):
		body.Error = responses.CodeInvalidParameter
		c.JSON(http.StatusBadRequest, body)
	case apperr.IsDatasetUnavailable(err):
		body.Error = responses.CodeDatasetUnavailable
		c.JSON(http.StatusServiceUnavailable, body)
	default:
		logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", body.RequestID),
			zap.Error(err))
		body.Error = responses.CodeInternal
		body.Message = "internal error"
		c.JSON(http.StatusInternalServerError, body)
	}
}

// bind decodes the query string, or the JSON body for POST, into req and
// answers 400 itself on failure.
func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBind(req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:     responses.CodeInvalidRequest,
			Message:   err.Error(),
			RequestID: c.GetString(utils.RequestIDKey),
		})
		return false
	}
	return true
}

// internal/utils/response.go
package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ShriviCTO/shrivi/internal/apperrors"
)

// APIResponse is the envelope every endpoint answers with.
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

func SuccessResponse(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Status:  "success",
		Message: message,
		Data:    data,
	})
}

func CreatedResponse(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{
		Status:  "success",
		Message: message,
		Data:    data,
	})
}

func SuccessResponseWithMeta(c *gin.Context, data interface{}, meta interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Status: "success",
		Data:   data,
		Meta:   meta,
	})
}

func BadRequestResponse(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, APIResponse{
		Status:  "error",
		Message: message,
	})
}

func UnauthorizedResponse(c *gin.Context, message string) {
	if message == "" {
		message = "authentication required"
	}
	c.JSON(http.StatusUnauthorized, APIResponse{
		Status:  "error",
		Message: message,
	})
}

func ForbiddenResponse(c *gin.Context, message string) {
	if message == "" {
		message = "access denied"
	}
	c.JSON(http.StatusForbidden, APIResponse{
		Status:  "error",
		Message: message,
	})
}

func NotImplementedResponse(c *gin.Context) {
	c.JSON(http.StatusNotImplemented, APIResponse{
		Status:  "error",
		Message: "this functionality is not implemented yet",
	})
}

// ErrorResponse maps a service error onto the envelope. Validation errors
// carry the field list; internal causes are never leaked.
func ErrorResponse(c *gin.Context, err error) {
	appErr := apperrors.AsError(err)
	if appErr.Kind() == apperrors.KindInternal {
		logrus.WithError(err).Error("Request failed")
	}
	resp := APIResponse{
		Status:  "error",
		Message: appErr.Message(),
	}
	if fields := appErr.Fields(); len(fields) > 0 {
		resp.Errors = fields
	}
	c.JSON(apperrors.HTTPStatus(appErr.Kind()), resp)
}

func PaginatedResponse(c *gin.Context, result PaginationResult) {
	SetPaginationHeaders(c, result)
	SuccessResponseWithMeta(c, result.Data, gin.H{
		"pagination": gin.H{
			"page":        result.Page,
			"limit":       result.Limit,
			"total":       result.Total,
			"total_pages": result.TotalPages,
		},
	})
}

func GetUserIDFromContext(c *gin.Context) (string, bool) {
	if userID, exists := c.Get("user_id"); exists {
		if userIDStr, ok := userID.(string); ok {
			return userIDStr, true
		}
	}
	return "", false
}

func GetRoleFromContext(c *gin.Context) (string, bool) {
	if role, exists := c.Get("role"); exists {
		if roleStr, ok := role.(string); ok {
			return roleStr, true
		}
	}
	return "", false
}
